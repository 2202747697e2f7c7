package app

import (
	"groupchat/internal/app/health"
	"groupchat/internal/app/message"
	"groupchat/internal/app/session"
	"groupchat/internal/app/user"
	"groupchat/internal/config"
	"groupchat/internal/db"
	"groupchat/internal/db/seeder"
	"groupchat/internal/gateways/websocket"
	"groupchat/internal/providers/redis"
	"groupchat/internal/router"
	"groupchat/internal/utils"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Application struct {
	Router *router.Router
	DB     *gorm.DB
	Redis  *redis.RedisProvider
	Hub    *websocket.Hub
}

// Close stops the hub and releases the store connections.
func (a *Application) Close() {
	a.Hub.Stop()
	if a.Redis != nil {
		_ = a.Redis.Close()
	}
	if sqlDB, err := a.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

func Bootstrap(cfg *config.Config, logger *zap.Logger) (*Application, error) {
	dbConn, err := db.Connect(cfg, logger)
	if err != nil {
		return nil, err
	}

	if err := db.Migrate(dbConn, logger); err != nil {
		return nil, err
	}

	return Wire(cfg, logger, dbConn, redis.NewRedisProvider(cfg.RedisURL, logger, cfg.RedisTTL)), nil
}

// Wire assembles services, handlers and routes on top of open stores.
// redisProvider may be nil.
func Wire(cfg *config.Config, logger *zap.Logger, dbConn *gorm.DB, redisProvider *redis.RedisProvider) *Application {
	if cfg.IsDev() {
		seed := seeder.NewSeeder(dbConn, logger)
		if err := seed.Seed(); err != nil {
			logger.Warn("Failed to run seeders", zap.Error(err))
		}
	}

	eventBus := utils.NewEventBus()

	userRepo := user.NewRepository(dbConn)
	sessionRepo := session.NewRepository(dbConn)
	messageRepo := message.NewRepository(dbConn)

	userService := user.NewService(userRepo, logger)
	sessionService := session.NewService(sessionRepo, userService, redisProvider, cfg.SessionTTL, logger)
	messageService := message.NewService(messageRepo, redisProvider, eventBus, logger, cfg.MaxMessageLength, cfg.RedisTTL)

	hub := websocket.NewHub(logger, eventBus, cfg.FrontendOrigins)
	go hub.Run()

	checker := &utils.HealthChecker{DB: dbConn, DBName: dbDisplayName(cfg)}
	if redisProvider != nil {
		checker.Redis = redisProvider.Client
	}

	r := router.NewRouter(logger, cfg, sessionService)

	r.RegisterHealthRoutes(health.NewHandler(health.NewService(checker)))
	r.RegisterWebSocketRoutes(hub)
	r.RegisterSessionRoutes(session.NewHandler(sessionService, cfg.SessionCookie, cfg.CookieSecure))
	r.RegisterUserRoutes(user.NewHandler(userService))
	r.RegisterMessageRoutes(message.NewHandler(messageService))

	return &Application{
		Router: r,
		DB:     dbConn,
		Redis:  redisProvider,
		Hub:    hub,
	}
}

func dbDisplayName(cfg *config.Config) string {
	if cfg.DBDriver == "sqlite" {
		return "SQLite"
	}
	return "PostgreSQL"
}
