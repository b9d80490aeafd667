package database

import (
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	migrationBackfillDocumentContent = "2026-04-18_backfill_null_document_content"
	migrationTrimShareUserIDs        = "2026-06-02_trim_share_user_ids"
)

type migrationRecord struct {
	Name             string `gorm:"column:name;primaryKey;size:190;not null"`
	AppliedAtSeconds int64  `gorm:"column:applied_at_s;not null"`
}

func (migrationRecord) TableName() string {
	return "db_migrations"
}

type migrationDefinition struct {
	name  string
	apply func(*gorm.DB) error
}

func applyMigrations(db *gorm.DB, logger *zap.Logger) error {
	migrations := []migrationDefinition{
		{name: migrationBackfillDocumentContent, apply: backfillNullDocumentContent},
		{name: migrationTrimShareUserIDs, apply: trimShareUserIDs},
	}

	for _, migration := range migrations {
		var record migrationRecord
		err := db.Where("name = ?", migration.name).Take(&record).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := migration.apply(db); err != nil {
			return err
		}
		appliedAt := time.Now().UTC().Unix()
		if err := db.Create(&migrationRecord{Name: migration.name, AppliedAtSeconds: appliedAt}).Error; err != nil {
			return err
		}
		if logger != nil {
			logger.Info("database migration applied", zap.String("migration", migration.name))
		}
	}
	return nil
}

func backfillNullDocumentContent(db *gorm.DB) error {
	return db.Exec("UPDATE documents SET content = '' WHERE content IS NULL;").Error
}

func trimShareUserIDs(db *gorm.DB) error {
	return db.Exec("UPDATE document_shares SET user_id = trim(user_id) WHERE user_id <> trim(user_id);").Error
}
