// internal/model/statistic.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Statistic is the daily snapshot for one organization, unique on
// (organization_id, date).
type Statistic struct {
	ID                   uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	OrganizationID       uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_statistics_org_date,priority:1" json:"organization_id"`
	Date                 time.Time `gorm:"not null;uniqueIndex:idx_statistics_org_date,priority:2" json:"date"`
	TotalIndicators      int       `json:"total_indicators"`
	CompletedIndicators  int       `json:"completed_indicators"`
	InProgressIndicators int       `json:"in_progress_indicators"`
	NotStartedIndicators int       `json:"not_started_indicators"`
	CompletionPercentage float64   `json:"completion_percentage"`
	TotalDocuments       int       `json:"total_documents"`
	ProcedureDocuments   int       `json:"procedure_documents"`
	ModelDocuments       int       `json:"model_documents"`
	EvidenceDocuments    int       `json:"evidence_documents"`
	TotalActions         int       `json:"total_actions"`
	OpenActions          int       `json:"open_actions"`
	CompletedActions     int       `json:"completed_actions"`
	OverdueActions       int       `json:"overdue_actions"`
	TotalTasks           int       `json:"total_tasks"`
	CompletedTasks       int       `json:"completed_tasks"`
	OverdueTasks         int       `json:"overdue_tasks"`
	ScheduledAudits      int       `json:"scheduled_audits"`
	PendingInvitations   int       `json:"pending_invitations"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

func (s *Statistic) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
