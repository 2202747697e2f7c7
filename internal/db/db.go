package db

import (
	"fmt"
	"time"

	"groupchat/internal/app/message"
	"groupchat/internal/app/session"
	"groupchat/internal/app/user"
	"groupchat/internal/config"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func dialector(cfg *config.Config) (gorm.Dialector, error) {
	switch cfg.DBDriver {
	case "", "postgres":
		return postgres.Open(cfg.PostgresDSN()), nil
	case "sqlite":
		return sqlite.Open(cfg.SQLitePath), nil
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}
}

// Connect opens the configured database. Timestamps are always written in
// UTC so cursor comparisons behave the same on every driver.
func Connect(cfg *config.Config, logger *zap.Logger) (*gorm.DB, error) {
	d, err := dialector(cfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(d, &gorm.Config{
		NowFunc:        func() time.Time { return time.Now().UTC() },
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	if err := sqlDB.Ping(); err != nil {
		return nil, err
	}

	if cfg.DBDriver == "sqlite" {
		// a single connection keeps in-memory databases shared and avoids
		// SQLITE_BUSY between writers
		sqlDB.SetMaxOpenConns(1)
		logger.Info("Connected to SQLite", zap.String("path", cfg.SQLitePath))
	} else {
		logger.Info("Connected to PostgreSQL",
			zap.String("host", cfg.DBHost),
			zap.String("database", cfg.DBName),
		)
	}

	return db, nil
}

func Migrate(db *gorm.DB, logger *zap.Logger) error {
	if err := db.AutoMigrate(&user.User{}, &session.Session{}, &message.Message{}); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	logger.Info("Database schema migrated")
	return nil
}
