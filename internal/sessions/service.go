package sessions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/quillhq/docstore/backend/internal/apperror"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	errMissingDatabase = errors.New("database handle is required")
	errMissingCodec    = errors.New("session codec is required")
	noOpLogger         = zap.NewNop()
)

const (
	opIssue  = "sessions.issue"
	opVerify = "sessions.verify"
	opRevoke = "sessions.revoke"
)

// ServiceConfig describes the dependencies required by the session service.
type ServiceConfig struct {
	Database *gorm.DB
	Codec    *Codec
	Clock    func() time.Time
	Logger   *zap.Logger
}

// Service issues, verifies and revokes encrypted session identifiers.
type Service struct {
	db     *gorm.DB
	codec  *Codec
	clock  func() time.Time
	logger *zap.Logger
}

// NewService constructs the session service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, errMissingDatabase
	}
	if cfg.Codec == nil {
		return nil, errMissingCodec
	}

	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = noOpLogger
	}

	return &Service{
		db:     cfg.Database,
		codec:  cfg.Codec,
		clock:  clock,
		logger: logger,
	}, nil
}

// Issue encrypts the client address and user identifier into a new session
// record and returns its opaque identifier.
func (s *Service) Issue(ctx context.Context, clientAddress, userID string) (string, error) {
	identifier, ciphertext, err := s.codec.Seal(Payload{
		ClientAddress: clientAddress,
		UserID:        userID,
	})
	if err != nil {
		s.logError(opIssue, "seal_failed", err, zap.String("user_id", userID))
		return "", fmt.Errorf("sessions: seal failed: %w", err)
	}

	record := Session{
		Identifier: identifier,
		Ciphertext: ciphertext,
		CreatedAt:  s.clock().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		s.logError(opIssue, "session_insert_failed", err, zap.String("user_id", userID))
		return "", fmt.Errorf("sessions: insert failed: %w", err)
	}

	return identifier, nil
}

// Verify resolves an identifier back to its user identifier. The decrypted
// client address must match the requesting one; a mismatch is treated as a
// stale or hijacked session.
func (s *Service) Verify(ctx context.Context, identifier, clientAddress string) (string, error) {
	var record Session
	err := s.db.WithContext(ctx).
		Where("identifier = ?", identifier).
		Take(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", apperror.Unauthorized("Invalid User")
	}
	if err != nil {
		s.logError(opVerify, "session_select_failed", err)
		return "", fmt.Errorf("sessions: lookup failed: %w", err)
	}

	payload, err := s.codec.Open(record.Ciphertext)
	if err != nil {
		s.logError(opVerify, "open_failed", err, zap.String("identifier", identifier))
		return "", apperror.Unauthorized("Invalid User")
	}

	if payload.ClientAddress != clientAddress {
		s.logger.Info("session address mismatch",
			zap.String("identifier", identifier),
			zap.String("recorded_address", payload.ClientAddress),
			zap.String("observed_address", clientAddress))
		return "", apperror.Unauthorized("Please login Again")
	}

	return payload.UserID, nil
}

// Revoke deletes the session record. Deleting an absent identifier is not an error.
func (s *Service) Revoke(ctx context.Context, identifier string) error {
	if err := s.db.WithContext(ctx).
		Where("identifier = ?", identifier).
		Delete(&Session{}).Error; err != nil {
		s.logError(opRevoke, "session_delete_failed", err, zap.String("identifier", identifier))
		return fmt.Errorf("sessions: delete failed: %w", err)
	}
	return nil
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
	s.logger.Error("session service error", attrs...)
}
