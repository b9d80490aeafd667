package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/quillhq/docstore/backend/internal/apperror"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	errMissingDatabase = errors.New("database handle is required")
	noOpLogger         = zap.NewNop()
)

const (
	opRegister     = "users.register"
	opAuthenticate = "users.authenticate"
)

// ServiceConfig describes the dependencies required by the credential service.
type ServiceConfig struct {
	Database *gorm.DB
	Clock    func() time.Time
	Logger   *zap.Logger
}

// Service registers users and verifies login credentials.
type Service struct {
	db     *gorm.DB
	clock  func() time.Time
	logger *zap.Logger
}

// NewService constructs the credential service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, errMissingDatabase
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = noOpLogger
	}
	return &Service{db: cfg.Database, clock: clock, logger: logger}, nil
}

// Register persists a new user with a bcrypt-hashed password. A taken
// username yields a conflict error.
func (s *Service) Register(ctx context.Context, username, password string) error {
	var existing User
	err := s.db.WithContext(ctx).
		Where("username = ?", username).
		Take(&existing).Error
	if err == nil {
		return apperror.Conflict("User already exists")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logError(opRegister, "user_select_failed", err, zap.String("username", username))
		return fmt.Errorf("users: lookup failed: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		s.logError(opRegister, "hash_failed", err, zap.String("username", username))
		return fmt.Errorf("users: hash failed: %w", err)
	}

	record := User{
		Username:     username,
		PasswordHash: string(hash),
		CreatedAt:    s.clock().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		s.logError(opRegister, "user_insert_failed", err, zap.String("username", username))
		return fmt.Errorf("users: insert failed: %w", err)
	}

	return nil
}

// Authenticate verifies the username/password pair and returns the user
// identifier on success.
func (s *Service) Authenticate(ctx context.Context, username, password string) (string, error) {
	var record User
	err := s.db.WithContext(ctx).
		Where("username = ?", username).
		Take(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", apperror.Unauthorized("Invalid Credentials")
	}
	if err != nil {
		s.logError(opAuthenticate, "user_select_failed", err, zap.String("username", username))
		return "", fmt.Errorf("users: lookup failed: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(record.PasswordHash), []byte(password)) != nil {
		return "", apperror.Unauthorized("Invalid Credentials")
	}

	return record.Username, nil
}

func (s *Service) logError(operation, reason string, err error, fields ...zap.Field) {
	attrs := []zap.Field{
		zap.String("operation", operation),
		zap.String("reason", reason),
	}
	if err != nil {
		attrs = append(attrs, zap.Error(err))
	}
	attrs = append(attrs, fields...)
	s.logger.Error("user service error", attrs...)
}
