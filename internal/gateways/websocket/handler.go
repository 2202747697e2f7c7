package websocket

import (
	"net/http"
	"net/url"
	"strings"

	"groupchat/internal/middleware"

	"github.com/gin-gonic/gin"
)

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, a := range allowed {
			if strings.EqualFold(origin, a) {
				return true
			}
		}
		u, err := url.Parse(origin)
		return err == nil && strings.EqualFold(u.Host, r.Host)
	}
}

// ServeWS upgrades an authenticated request. It must be mounted behind
// AuthMiddleware, which accepts the session_key query parameter.
func (h *Hub) ServeWS(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Errorw("Failed to upgrade connection",
			"user_id", middleware.CallerID(c),
			"error", err,
		)
		return
	}

	client := &Client{
		hub:    h,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		ID:     generateClientID(),
		UserID: middleware.CallerID(c),
	}

	h.logger.Debugw("WebSocket connection established",
		"client_id", client.ID,
		"user_id", client.UserID,
		"client_ip", c.ClientIP(),
		"user_agent", c.GetHeader("User-Agent"),
	)

	select {
	case h.register <- client:
	case <-h.done:
		_ = conn.Close()
		return
	}

	go client.writePump()
	client.readPump()
}
