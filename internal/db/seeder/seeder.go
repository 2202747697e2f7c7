package seeder

import (
	"time"

	"groupchat/internal/app/message"
	"groupchat/internal/app/user"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	DemoEmail    = "demo@groupchat.local"
	DemoPassword = "demo"
)

type Seeder struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewSeeder(db *gorm.DB, logger *zap.Logger) *Seeder {
	return &Seeder{
		db:     db,
		logger: logger,
	}
}

func (s *Seeder) Seed() error {
	s.logger.Info("Running database seeders...")

	if err := s.seedDemo(); err != nil {
		return err
	}

	s.logger.Info("Database seeders completed successfully")
	return nil
}

func (s *Seeder) seedDemo() error {
	var count int64
	if err := s.db.Model(&user.User{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		s.logger.Info("Users already exist, skipping seed")
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(DemoPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		demo := &user.User{
			Email:        DemoEmail,
			FirstName:    "Demo",
			LastName:     "User",
			PasswordHash: string(hash),
		}
		if err := tx.Create(demo).Error; err != nil {
			return err
		}

		now := time.Now().UTC().Truncate(time.Microsecond)
		welcome := &message.Message{
			Content:   "Welcome to the group chat!",
			UserID:    demo.ID,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := tx.Create(welcome).Error; err != nil {
			return err
		}

		s.logger.Info("Seeded demo user", zap.String("email", DemoEmail))
		return nil
	})
}
