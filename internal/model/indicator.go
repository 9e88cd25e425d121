// internal/model/indicator.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type IndicatorStatus string

const (
	IndicatorNotStarted IndicatorStatus = "not_started"
	IndicatorInProgress IndicatorStatus = "in_progress"
	IndicatorCompleted  IndicatorStatus = "completed"
)

// Valid reports whether s is one of the known indicator statuses.
func (s IndicatorStatus) Valid() bool {
	switch s {
	case IndicatorNotStarted, IndicatorInProgress, IndicatorCompleted:
		return true
	}
	return false
}

// Indicator is one of the 32 compliance criteria tracked per organization.
// CompletionRate and the document counts are written only by the document
// association path; never set them from client payloads.
type Indicator struct {
	ID             uuid.UUID                   `gorm:"type:uuid;primaryKey" json:"id"`
	OrganizationID uuid.UUID                   `gorm:"type:uuid;not null;uniqueIndex:idx_indicators_org_number,priority:1" json:"organization_id"`
	Number         int                         `gorm:"not null;uniqueIndex:idx_indicators_org_number,priority:2" json:"number"`
	Criterion      int                         `gorm:"not null;index" json:"criterion"`
	Title          string                      `gorm:"type:text;not null" json:"title"`
	Description    string                      `gorm:"type:text" json:"description"`
	Category       string                      `gorm:"type:text;not null" json:"category"`
	Status         IndicatorStatus             `gorm:"type:text;not null;default:'not_started'" json:"status"`
	CompletionRate int                         `gorm:"not null;default:0" json:"completion_rate"`
	ProcedureCount int                         `gorm:"not null;default:0" json:"-"`
	ModelCount     int                         `gorm:"not null;default:0" json:"-"`
	EvidenceCount  int                         `gorm:"not null;default:0" json:"-"`
	Requirements   datatypes.JSONSlice[string] `json:"requirements"`
	Notes          string                      `gorm:"type:text" json:"notes"`
	LastUpdated    *time.Time                  `json:"last_updated"`
	CreatedAt      time.Time                   `json:"created_at"`
	UpdatedAt      time.Time                   `json:"updated_at"`
}

// DocumentCounts is the per-type tally of documents linked to an indicator.
type DocumentCounts struct {
	Procedure int `json:"procedure"`
	Model     int `json:"model"`
	Evidence  int `json:"evidence"`
}

// Total sums the three document types.
func (c DocumentCounts) Total() int {
	return c.Procedure + c.Model + c.Evidence
}

func (i *Indicator) DocumentCounts() DocumentCounts {
	return DocumentCounts{
		Procedure: i.ProcedureCount,
		Model:     i.ModelCount,
		Evidence:  i.EvidenceCount,
	}
}

// BeforeCreate hook for Indicator
func (i *Indicator) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	if i.Status == "" {
		i.Status = IndicatorNotStarted
	}
	return nil
}
