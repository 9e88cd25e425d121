// internal/repository/statistic.go
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
	"gorm.io/gorm/clause"
)

var statisticCounters = []string{
	"total_indicators",
	"completed_indicators",
	"in_progress_indicators",
	"not_started_indicators",
	"completion_percentage",
	"total_documents",
	"procedure_documents",
	"model_documents",
	"evidence_documents",
	"total_actions",
	"open_actions",
	"completed_actions",
	"overdue_actions",
	"total_tasks",
	"completed_tasks",
	"overdue_tasks",
	"scheduled_audits",
	"pending_invitations",
	"updated_at",
}

type StatisticRepository struct {
	db *gorm.DB
}

func NewStatisticRepository(db *gorm.DB) *StatisticRepository {
	return &StatisticRepository{db: db}
}

// Upsert writes the snapshot for (organization_id, date), overwriting the
// counters of an existing row.
func (r *StatisticRepository) Upsert(ctx context.Context, stat *model.Statistic) (*model.Statistic, error) {
	err := conn(ctx, r.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "organization_id"}, {Name: "date"}},
		DoUpdates: clause.AssignmentColumns(statisticCounters),
	}).Create(stat).Error
	if err != nil {
		return nil, fmt.Errorf("failed to upsert statistic: %w", err)
	}
	// The id on stat is the one generated for the insert attempt, which
	// differs from the stored row when the conflict branch ran.
	return r.FindByDate(ctx, stat.OrganizationID, stat.Date)
}

func (r *StatisticRepository) FindByDate(ctx context.Context, orgID uuid.UUID, date time.Time) (*model.Statistic, error) {
	var stat model.Statistic
	if err := scoped(ctx, r.db, orgID).First(&stat, "date = ?", date).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrStatisticAbsent
		}
		return nil, fmt.Errorf("failed to find statistic: %w", err)
	}
	return &stat, nil
}

// History returns snapshots with from <= date <= to, oldest first.
func (r *StatisticRepository) History(ctx context.Context, orgID uuid.UUID, from, to time.Time) ([]*model.Statistic, error) {
	var stats []*model.Statistic
	err := scoped(ctx, r.db, orgID).
		Where("date >= ? AND date <= ?", from, to).
		Order("date ASC").
		Find(&stats).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list statistics: %w", err)
	}
	return stats, nil
}
