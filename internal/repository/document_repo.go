package repository

import (
	"context"
	"fmt"

	"pdf-coview/internal/models"

	"gorm.io/gorm"
)

// DocumentRepositoryImpl is the GORM-backed ledger of uploaded PDFs.
// The services package declares the interface it needs.
type DocumentRepositoryImpl struct {
	db *gorm.DB
}

// NewDocumentRepository creates a new document repository
func NewDocumentRepository(db *gorm.DB) *DocumentRepositoryImpl {
	return &DocumentRepositoryImpl{db: db}
}

// Create inserts a ledger row. The KSUID is set by the BeforeCreate hook.
func (r *DocumentRepositoryImpl) Create(ctx context.Context, doc *models.Document) error {
	if err := r.db.WithContext(ctx).Create(doc).Error; err != nil {
		return fmt.Errorf("failed to create document: %w", err)
	}
	return nil
}

// DeleteByURL removes the ledger row for url. Missing rows are ignored.
func (r *DocumentRepositoryImpl) DeleteByURL(ctx context.Context, url string) error {
	result := r.db.WithContext(ctx).Where("url = ?", url).Delete(&models.Document{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete document: %w", result.Error)
	}
	return nil
}
