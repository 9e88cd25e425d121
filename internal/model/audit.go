// internal/model/audit.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AuditStatus string

const (
	AuditScheduled AuditStatus = "scheduled"
	AuditCompleted AuditStatus = "completed"
)

type AuditResult string

const (
	AuditPassed      AuditResult = "passed"
	AuditFailed      AuditResult = "failed"
	AuditConditional AuditResult = "conditional"
)

type AuditType string

const (
	AuditInitial      AuditType = "initial"
	AuditSurveillance AuditType = "surveillance"
	AuditRenewal      AuditType = "renewal"
	AuditInternal     AuditType = "internal"
)

type Auditor struct {
	Name    string `gorm:"type:text" json:"name"`
	Contact string `gorm:"type:text" json:"contact"`
	Phone   string `gorm:"type:text" json:"phone"`
}

// Audit is a certification or internal audit. Status only moves from
// scheduled to completed; outcome fields are set on completion.
type Audit struct {
	ID              uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	OrganizationID  uuid.UUID    `gorm:"type:uuid;not null;index:idx_audits_org_date,priority:1" json:"organization_id"`
	Type            AuditType    `gorm:"type:text;not null" json:"type"`
	Date            time.Time    `gorm:"not null;index:idx_audits_org_date,priority:2" json:"date"`
	Auditor         Auditor      `gorm:"embedded;embeddedPrefix:auditor_" json:"auditor"`
	Location        string       `gorm:"type:text" json:"location"`
	Notes           string       `gorm:"type:text" json:"notes"`
	Status          AuditStatus  `gorm:"type:text;not null;default:'scheduled';index" json:"status"`
	CompletionDate  *time.Time   `json:"completion_date,omitempty"`
	Result          *AuditResult `gorm:"type:text" json:"result,omitempty"`
	Score           *int         `json:"score,omitempty"`
	ReportReference string       `gorm:"type:text" json:"report_reference,omitempty"`
	Observations    string       `gorm:"type:text" json:"observations,omitempty"`
	Recommendations string       `gorm:"type:text" json:"recommendations,omitempty"`
	CompletedAt     *time.Time   `json:"completed_at,omitempty"`
	CreatedBy       uuid.UUID    `gorm:"type:uuid" json:"created_by"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
}

func (a *Audit) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.Status == "" {
		a.Status = AuditScheduled
	}
	return nil
}
