package models

import (
	"time"

	"github.com/segmentio/ksuid"
	"gorm.io/gorm"
)

const ContentTypePDF = "application/pdf"

// Document is the ledger row for an uploaded PDF.
// The binary itself lives in the blob store under StorageKey.
type Document struct {
	ID          string    `json:"id" gorm:"type:char(27);primaryKey"`
	Filename    string    `json:"filename" gorm:"type:text;not null"`
	ContentType string    `json:"content_type" gorm:"type:varchar(100);not null"`
	Size        int64     `json:"size" gorm:"not null"`
	StorageKey  string    `json:"-" gorm:"type:text;not null;uniqueIndex"`
	URL         string    `json:"url" gorm:"type:text;not null;uniqueIndex"`
	CreatedAt   time.Time `json:"created_at" gorm:"column:created_at;autoCreateTime"`
}

// BeforeCreate hook generates KSUID before inserting
func (d *Document) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = ksuid.New().String()
	}
	return nil
}

func (Document) TableName() string {
	return "documents"
}
