package user

import (
	"context"
	"errors"
	"strings"

	"groupchat/internal/apperr"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const defaultHashCost = 10

type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*User, error)
	Authenticate(ctx context.Context, email, password string) (*User, error)
	GetUserByID(ctx context.Context, id uint64) (*User, error)
}

type service struct {
	repo     Repository
	logger   *zap.SugaredLogger
	hashCost int
}

func NewService(repo Repository, logger *zap.Logger) Service {
	return &service{
		repo:     repo,
		logger:   logger.Sugar(),
		hashCost: defaultHashCost,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *service) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	email := normalizeEmail(req.Email)
	password := strings.TrimSpace(req.Password)

	exists, err := s.repo.EmailExists(ctx, email)
	if err != nil {
		return nil, apperr.Internal("failed to check email", err)
	}
	if exists {
		return nil, apperr.Validation("Email already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return nil, apperr.Internal("Failed to hash password, please try again", err)
	}

	user := &User{
		Email:        email,
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		PasswordHash: string(hash),
	}
	err = s.repo.CreateUser(ctx, user)
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, apperr.Validation("Email already registered")
	}
	if err != nil {
		return nil, apperr.Internal("failed to create user", err)
	}

	s.logger.Infow("User registered", "user_id", user.ID)
	return user, nil
}

func (s *service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	user, err := s.repo.GetUserByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.Unauthorized("Email is not registered")
	}
	if err != nil {
		return nil, apperr.Internal("failed to load user", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(strings.TrimSpace(password))); err != nil {
		return nil, apperr.Unauthorized("Wrong password!")
	}
	return user, nil
}

func (s *service) GetUserByID(ctx context.Context, id uint64) (*User, error) {
	user, err := s.repo.GetUserByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("user not found")
	}
	if err != nil {
		return nil, apperr.Internal("failed to load user", err)
	}
	return user, nil
}
