package middleware

import (
	"strconv"
	"sync"

	"groupchat/internal/apperr"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

type limiterPool struct {
	mu    sync.Mutex
	m     map[string]*rate.Limiter
	rps   float64
	burst int
}

func (p *limiterPool) get(key string) *rate.Limiter {
	p.mu.Lock()
	defer p.mu.Unlock()
	if l, ok := p.m[key]; ok {
		return l
	}
	l := rate.NewLimiter(rate.Limit(p.rps), p.burst)
	p.m[key] = l
	return l
}

// RateLimitMiddleware throttles each caller independently. It must run after
// AuthMiddleware; anonymous requests share the client IP bucket.
func RateLimitMiddleware(rps float64, burst int) gin.HandlerFunc {
	if rps <= 0 {
		rps = 5
	}
	if burst <= 0 {
		burst = 10
	}
	pool := &limiterPool{m: make(map[string]*rate.Limiter), rps: rps, burst: burst}

	return func(c *gin.Context) {
		key := c.ClientIP()
		if id := CallerID(c); id != 0 {
			key = "user:" + strconv.FormatUint(id, 10)
		}
		if !pool.get(key).Allow() {
			_ = c.Error(apperr.New(apperr.KindRateLimited, "Too many requests, slow down"))
			c.Abort()
			return
		}
		c.Next()
	}
}
