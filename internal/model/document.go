// internal/model/document.go
package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DocumentType string

const (
	DocumentProcedure DocumentType = "procedure"
	DocumentModel     DocumentType = "model"
	DocumentEvidence  DocumentType = "evidence"
)

func (t DocumentType) Valid() bool {
	switch t {
	case DocumentProcedure, DocumentModel, DocumentEvidence:
		return true
	}
	return false
}

type DocumentStatus string

const (
	DocumentActive   DocumentStatus = "active"
	DocumentArchived DocumentStatus = "archived"
)

// Document is an evidentiary file attached to one or more indicators.
type Document struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	OrganizationID uuid.UUID      `gorm:"type:uuid;not null;index" json:"organization_id"`
	Name           string         `gorm:"type:text;not null" json:"name"`
	Type           DocumentType   `gorm:"type:text;not null;index" json:"type"`
	FileReference  string         `gorm:"type:text" json:"file_reference"`
	FileType       string         `gorm:"type:text" json:"file_type"`
	SizeBytes      int64          `gorm:"not null;default:0" json:"size_bytes"`
	Description    string         `gorm:"type:text" json:"description"`
	Category       string         `gorm:"type:text" json:"category"`
	Status         DocumentStatus `gorm:"type:text;not null;default:'active'" json:"status"`
	CreatedBy      uuid.UUID      `gorm:"type:uuid" json:"created_by"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`

	IndicatorIDs []uuid.UUID `gorm:"-" json:"indicator_ids"`
}

// BeforeCreate hook for Document
func (d *Document) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	if d.Status == "" {
		d.Status = DocumentActive
	}
	if !d.Type.Valid() {
		return fmt.Errorf("invalid document type: %s", d.Type)
	}
	return nil
}

// DocumentIndicator links a document to an indicator of the same organization.
type DocumentIndicator struct {
	DocumentID     uuid.UUID `gorm:"type:uuid;primaryKey"`
	IndicatorID    uuid.UUID `gorm:"type:uuid;primaryKey;index"`
	OrganizationID uuid.UUID `gorm:"type:uuid;not null;index"`
	CreatedAt      time.Time
}

// TableName specifies the table name for DocumentIndicator
func (DocumentIndicator) TableName() string {
	return "document_indicator"
}
