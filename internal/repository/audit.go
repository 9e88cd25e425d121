// internal/repository/audit.go
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dangerclosesec/qualitrack/internal/domain"
	"github.com/dangerclosesec/qualitrack/internal/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuditFilter narrows the audit history. Zero values are ignored.
type AuditFilter struct {
	Status model.AuditStatus
	Type   model.AuditType
	Result model.AuditResult
	From   time.Time
	To     time.Time
}

type AuditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Create(ctx context.Context, audit *model.Audit) error {
	if err := conn(ctx, r.db).Create(audit).Error; err != nil {
		return fmt.Errorf("failed to create audit: %w", err)
	}
	return nil
}

func (r *AuditRepository) FindByID(ctx context.Context, orgID, id uuid.UUID) (*model.Audit, error) {
	var audit model.Audit
	if err := scoped(ctx, r.db, orgID).First(&audit, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrAuditNotFound
		}
		return nil, fmt.Errorf("failed to find audit: %w", err)
	}
	return &audit, nil
}

// Upcoming returns scheduled audits dated on or after from, soonest first.
// A limit of zero or less returns all of them.
func (r *AuditRepository) Upcoming(ctx context.Context, orgID uuid.UUID, from time.Time, limit int) ([]*model.Audit, error) {
	q := scoped(ctx, r.db, orgID).
		Where("status = ? AND date >= ?", model.AuditScheduled, from).
		Order("date ASC, created_at ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}

	var audits []*model.Audit
	if err := q.Find(&audits).Error; err != nil {
		return nil, fmt.Errorf("failed to list upcoming audits: %w", err)
	}
	return audits, nil
}

// History returns audits matching f, most recent first.
func (r *AuditRepository) History(ctx context.Context, orgID uuid.UUID, f AuditFilter) ([]*model.Audit, error) {
	q := scoped(ctx, r.db, orgID)
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Type != "" {
		q = q.Where("type = ?", f.Type)
	}
	if f.Result != "" {
		q = q.Where("result = ?", f.Result)
	}
	if !f.From.IsZero() {
		q = q.Where("date >= ?", f.From)
	}
	if !f.To.IsZero() {
		q = q.Where("date <= ?", f.To)
	}

	var audits []*model.Audit
	if err := q.Order("date DESC").Find(&audits).Error; err != nil {
		return nil, fmt.Errorf("failed to list audits: %w", err)
	}
	return audits, nil
}

var auditSchedulable = []string{
	"type", "date", "auditor_name", "auditor_contact", "auditor_phone", "location", "notes", "updated_at",
}

// UpdateScheduled writes the planning fields of an audit while it is still
// scheduled. It reports false when the audit was completed meanwhile.
func (r *AuditRepository) UpdateScheduled(ctx context.Context, audit *model.Audit) (bool, error) {
	rows, err := updateColumns(ctx, r.db, audit, audit.OrganizationID, auditSchedulable, "status = ?", model.AuditScheduled)
	if err != nil {
		return false, fmt.Errorf("failed to update audit: %w", err)
	}
	return rows > 0, nil
}

// Complete writes the outcome of a scheduled audit. It reports false when the
// audit was no longer scheduled.
func (r *AuditRepository) Complete(ctx context.Context, audit *model.Audit) (bool, error) {
	res := scoped(ctx, r.db, audit.OrganizationID).Model(&model.Audit{}).
		Where("id = ? AND status = ?", audit.ID, model.AuditScheduled).
		Updates(map[string]any{
			"status":           model.AuditCompleted,
			"completion_date":  audit.CompletionDate,
			"result":           audit.Result,
			"score":            audit.Score,
			"report_reference": audit.ReportReference,
			"observations":     audit.Observations,
			"recommendations":  audit.Recommendations,
			"completed_at":     audit.CompletedAt,
		})
	if res.Error != nil {
		return false, fmt.Errorf("failed to complete audit: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// DeleteScheduled removes an audit only while it is scheduled.
func (r *AuditRepository) DeleteScheduled(ctx context.Context, orgID, id uuid.UUID) (bool, error) {
	res := scoped(ctx, r.db, orgID).
		Where("status = ?", model.AuditScheduled).
		Delete(&model.Audit{}, "id = ?", id)
	if res.Error != nil {
		return false, fmt.Errorf("failed to delete audit: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *AuditRepository) CountScheduled(ctx context.Context, orgID uuid.UUID) (int, error) {
	var count int64
	err := scoped(ctx, r.db, orgID).Model(&model.Audit{}).
		Where("status = ?", model.AuditScheduled).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count scheduled audits: %w", err)
	}
	return int(count), nil
}
