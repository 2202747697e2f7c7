package router

import (
	"groupchat/internal/app/health"
	"groupchat/internal/app/message"
	"groupchat/internal/app/session"
	"groupchat/internal/app/user"
	"groupchat/internal/config"
	"groupchat/internal/gateways/websocket"
	"groupchat/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type Router struct {
	Engine   *gin.Engine
	cfg      *config.Config
	resolver middleware.SessionResolver
	api      *gin.RouterGroup
	authed   *gin.RouterGroup
}

// NewRouter builds the engine with the shared middleware chain. Routes that
// need a caller identity are mounted on the group guarded by resolver.
func NewRouter(logger *zap.Logger, cfg *config.Config, resolver middleware.SessionResolver) *Router {
	if !cfg.IsDev() {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	if len(cfg.FrontendOrigins) > 0 {
		engine.Use(middleware.CORSMiddleware(cfg.FrontendOrigins))
	}
	engine.Use(middleware.LoggerMiddleware(logger))
	engine.Use(middleware.MetricsMiddleware())
	engine.Use(middleware.RecoveryMiddleware(logger))
	engine.Use(middleware.ErrorHandler(logger))
	engine.Use(middleware.TimeoutMiddleware(cfg.RequestTimeout))

	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := engine.Group("/api")
	authed := api.Group("", middleware.AuthMiddleware(resolver, cfg.SessionCookie))

	return &Router{Engine: engine, cfg: cfg, resolver: resolver, api: api, authed: authed}
}

func (r *Router) RegisterHealthRoutes(handler health.Handler) {
	health.RegisterRoutes(r.api, handler)
}

// RegisterWebSocketRoutes mounts /ws outside /api. It shares the session
// guard, so browsers authenticate with the cookie and CLIs with session_key.
func (r *Router) RegisterWebSocketRoutes(hub *websocket.Hub) {
	websocket.RegisterRoutes(r.Engine.Group("", middleware.AuthMiddleware(r.resolver, r.cfg.SessionCookie)), hub)
}

func (r *Router) RegisterSessionRoutes(handler session.Handler) {
	session.RegisterRoutes(r.api, r.authed, handler)
}

func (r *Router) RegisterUserRoutes(handler user.Handler) {
	user.RegisterRoutes(r.api, r.authed, handler)
}

func (r *Router) RegisterMessageRoutes(handler message.Handler) {
	message.RegisterRoutes(r.authed, handler,
		middleware.RateLimitMiddleware(r.cfg.RateLimitRPS, r.cfg.RateLimitBurst),
	)
}

func (r *Router) Serve(addr string) error {
	return r.Engine.Run(addr)
}
