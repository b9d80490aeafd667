package documents

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/quillhq/docstore/backend/internal/apperror"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	errMissingDatabase   = errors.New("database handle is required")
	errMissingIDProvider = errors.New("id provider is required")
	noOpLogger           = zap.NewNop()
)

const (
	opCreate            = "documents.create"
	opListOwned         = "documents.list_owned"
	opListShared        = "documents.list_shared"
	opContent           = "documents.content"
	opSaveContent       = "documents.save_content"
	opRename            = "documents.rename"
	opDelete            = "documents.delete"
	opUpdatePermissions = "documents.update_permissions"
)

// IDProvider issues identifiers for new documents.
type IDProvider interface {
	NewID() (string, error)
}

// ServiceConfig describes the dependencies required by the document service.
type ServiceConfig struct {
	Database   *gorm.DB
	IDProvider IDProvider
	Logger     *zap.Logger
}

// Service implements document CRUD and sharing on top of the persistence layer.
// Reads and content saves are allowed for the owner and shared users; rename,
// delete and permission updates are owner-only.
type Service struct {
	db         *gorm.DB
	idProvider IDProvider
	logger     *zap.Logger
}

// NewService constructs the document service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, errMissingDatabase
	}
	if cfg.IDProvider == nil {
		return nil, errMissingIDProvider
	}
	logger := cfg.Logger
	if logger == nil {
		logger = noOpLogger
	}
	return &Service{db: cfg.Database, idProvider: cfg.IDProvider, logger: logger}, nil
}

// Create persists a new empty document and returns its descriptor.
func (s *Service) Create(ctx context.Context, ownerID, fileName, dateCreated string) (Descriptor, error) {
	fileID, err := s.idProvider.NewID()
	if err != nil {
		s.logError(opCreate, "id_generation_failed", err, zap.String("owner_id", ownerID))
		return Descriptor{}, fmt.Errorf("documents: id generation failed: %w", err)
	}

	record := Document{
		FileID:      fileID,
		OwnerID:     ownerID,
		FileName:    fileName,
		DateCreated: dateCreated,
	}
	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		s.logError(opCreate, "document_insert_failed", err, zap.String("owner_id", ownerID))
		return Descriptor{}, fmt.Errorf("documents: insert failed: %w", err)
	}

	return Descriptor{
		FileID:      record.FileID,
		OwnerID:     record.OwnerID,
		FileName:    record.FileName,
		DateCreated: record.DateCreated,
		SharedUsers: []string{},
	}, nil
}

// ListOwned returns descriptors for every document owned by the user.
func (s *Service) ListOwned(ctx context.Context, userID string) ([]Descriptor, error) {
	var records []Document
	if err := s.db.WithContext(ctx).
		Where("owner_id = ?", userID).
		Order("date_created DESC").
		Find(&records).Error; err != nil {
		s.logError(opListOwned, "query_failed", err, zap.String("user_id", userID))
		return nil, fmt.Errorf("documents: list failed: %w", err)
	}
	return s.describeAll(ctx, records)
}

// ListShared returns descriptors for every document shared with the user.
func (s *Service) ListShared(ctx context.Context, userID string) ([]Descriptor, error) {
	var records []Document
	if err := s.db.WithContext(ctx).
		Joins("JOIN document_shares ON document_shares.file_id = documents.file_id").
		Where("document_shares.user_id = ?", userID).
		Order("documents.date_created DESC").
		Find(&records).Error; err != nil {
		s.logError(opListShared, "query_failed", err, zap.String("user_id", userID))
		return nil, fmt.Errorf("documents: shared list failed: %w", err)
	}
	return s.describeAll(ctx, records)
}

// Content returns the document body for the owner or a shared user.
func (s *Service) Content(ctx context.Context, userID, fileID string) (string, error) {
	record, err := s.authorizeRead(ctx, opContent, userID, fileID)
	if err != nil {
		return "", err
	}
	return record.Content, nil
}

// SaveContent replaces the document body. Writes are last-writer-wins and
// allowed for the owner and shared users.
func (s *Service) SaveContent(ctx context.Context, userID, fileID, content string) error {
	if _, err := s.authorizeRead(ctx, opSaveContent, userID, fileID); err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).
		Model(&Document{}).
		Where("file_id = ?", fileID).
		Update("content", content).Error; err != nil {
		s.logError(opSaveContent, "content_update_failed", err, zap.String("file_id", fileID))
		return fmt.Errorf("documents: content update failed: %w", err)
	}
	return nil
}

// Rename changes the document name. Owner only.
func (s *Service) Rename(ctx context.Context, userID, fileID, newFileName string) error {
	if _, err := s.authorizeOwner(ctx, opRename, userID, fileID); err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).
		Model(&Document{}).
		Where("file_id = ?", fileID).
		Update("file_name", newFileName).Error; err != nil {
		s.logError(opRename, "rename_failed", err, zap.String("file_id", fileID))
		return fmt.Errorf("documents: rename failed: %w", err)
	}
	return nil
}

// Delete removes the document and its share grants. Owner only.
func (s *Service) Delete(ctx context.Context, userID, fileID string) error {
	if _, err := s.authorizeOwner(ctx, opDelete, userID, fileID); err != nil {
		return err
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("file_id = ?", fileID).Delete(&Share{}).Error; err != nil {
			return err
		}
		return tx.Where("file_id = ?", fileID).Delete(&Document{}).Error
	})
	if err != nil {
		s.logError(opDelete, "delete_failed", err, zap.String("file_id", fileID))
		return fmt.Errorf("documents: delete failed: %w", err)
	}
	return nil
}

// UpdatePermissions replaces the document's shared-user set. Owner only.
// The owner retains access without appearing in the set.
func (s *Service) UpdatePermissions(ctx context.Context, userID, fileID string, sharedUsers []string) error {
	record, err := s.authorizeOwner(ctx, opUpdatePermissions, userID, fileID)
	if err != nil {
		return err
	}

	grants := make([]Share, 0, len(sharedUsers))
	seen := make(map[string]struct{}, len(sharedUsers))
	for _, sharedUser := range sharedUsers {
		trimmed := strings.TrimSpace(sharedUser)
		if trimmed == "" || trimmed == record.OwnerID {
			continue
		}
		if _, duplicate := seen[trimmed]; duplicate {
			continue
		}
		seen[trimmed] = struct{}{}
		grants = append(grants, Share{FileID: fileID, UserID: trimmed})
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("file_id = ?", fileID).Delete(&Share{}).Error; err != nil {
			return err
		}
		if len(grants) == 0 {
			return nil
		}
		return tx.Create(&grants).Error
	})
	if err != nil {
		s.logError(opUpdatePermissions, "share_update_failed", err, zap.String("file_id", fileID))
		return fmt.Errorf("documents: share update failed: %w", err)
	}
	return nil
}

func (s *Service) loadDocument(ctx context.Context, operation, fileID string) (Document, error) {
	var record Document
	err := s.db.WithContext(ctx).
		Where("file_id = ?", fileID).
		Take(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Document{}, apperror.NotFound("Document not found")
	}
	if err != nil {
		s.logError(operation, "document_select_failed", err, zap.String("file_id", fileID))
		return Document{}, fmt.Errorf("documents: lookup failed: %w", err)
	}
	return record, nil
}

func (s *Service) authorizeOwner(ctx context.Context, operation, userID, fileID string) (Document, error) {
	record, err := s.loadDocument(ctx, operation, fileID)
	if err != nil {
		return Document{}, err
	}
	if record.OwnerID != userID {
		return Document{}, apperror.Forbidden("Access Denied")
	}
	return record, nil
}

func (s *Service) authorizeRead(ctx context.Context, operation, userID, fileID string) (Document, error) {
	record, err := s.loadDocument(ctx, operation, fileID)
	if err != nil {
		return Document{}, err
	}
	if record.OwnerID == userID {
		return record, nil
	}

	var count int64
	if err := s.db.WithContext(ctx).
		Model(&Share{}).
		Where("file_id = ? AND user_id = ?", fileID, userID).
		Count(&count).Error; err != nil {
		s.logError(operation, "share_select_failed", err, zap.String("file_id", fileID))
		return Document{}, fmt.Errorf("documents: share lookup failed: %w", err)
	}
	if count == 0 {
		return Document{}, apperror.Forbidden("Access Denied")
	}
	return record, nil
}

func (s *Service) describeAll(ctx context.Context, records []Document) ([]Descriptor, error) {
	descriptors := make([]Descriptor, 0, len(records))
	if len(records) == 0 {
		return descriptors, nil
	}

	fileIDs := make([]string, 0, len(records))
	for _, record := range records {
		fileIDs = append(fileIDs, record.FileID)
	}

	var grants []Share
	if err := s.db.WithContext(ctx).
		Where("file_id IN ?", fileIDs).
		Find(&grants).Error; err != nil {
		return nil, fmt.Errorf("documents: share lookup failed: %w", err)
	}
	sharedByFile := make(map[string][]string, len(records))
	for _, grant := range grants {
		sharedByFile[grant.FileID] = append(sharedByFile[grant.FileID], grant.UserID)
	}

	for _, record := range records {
		shared := sharedByFile[record.FileID]
		if shared == nil {
			shared = []string{}
		}
		descriptors = append(descriptors, Descriptor{
			FileID:      record.FileID,
			OwnerID:     record.OwnerID,
			FileName:    record.FileName,
			DateCreated: record.DateCreated,
			SharedUsers: shared,
		})
	}
	return descriptors, nil
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
	s.logger.Error("document service error", attrs...)
}
