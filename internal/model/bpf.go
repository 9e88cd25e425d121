// internal/model/bpf.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type BPFStatus string

const (
	BPFDraft     BPFStatus = "draft"
	BPFSubmitted BPFStatus = "submitted"
)

// BPF is the annual pedagogical and financial report. At most one exists per
// organization and year.
type BPF struct {
	ID               uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	OrganizationID   uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_bpfs_org_year,priority:1" json:"organization_id"`
	Year             int            `gorm:"not null;uniqueIndex:idx_bpfs_org_year,priority:2" json:"year"`
	Data             datatypes.JSON `json:"data"`
	Status           BPFStatus      `gorm:"type:text;not null;default:'draft';index" json:"status"`
	SubmittedDate    *time.Time     `json:"submitted_date,omitempty"`
	SubmittedTo      string         `gorm:"type:text" json:"submitted_to,omitempty"`
	SubmissionMethod string         `gorm:"type:text" json:"submission_method,omitempty"`
	ExportReference  string         `gorm:"type:text" json:"export_reference,omitempty"`
	CreatedBy        uuid.UUID      `gorm:"type:uuid" json:"created_by"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

// TableName specifies the table name for BPF
func (BPF) TableName() string {
	return "bpfs"
}

func (b *BPF) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	if b.Status == "" {
		b.Status = BPFDraft
	}
	return nil
}
