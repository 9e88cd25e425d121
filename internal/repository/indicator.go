// internal/repository/indicator.go
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

// IndicatorFilter narrows an indicator listing. Zero values are ignored.
type IndicatorFilter struct {
	Status     model.IndicatorStatus
	Category   string
	NumberFrom int
	NumberTo   int
	Search     string

	// IDs restricts the listing to these indicators when non-empty.
	IDs []uuid.UUID
}

type IndicatorRepository struct {
	db *gorm.DB
}

func NewIndicatorRepository(db *gorm.DB) *IndicatorRepository {
	return &IndicatorRepository{db: db}
}

func (r *IndicatorRepository) CreateBatch(ctx context.Context, indicators []*model.Indicator) error {
	if len(indicators) == 0 {
		return nil
	}
	if err := conn(ctx, r.db).Create(indicators).Error; err != nil {
		if IsUniqueViolation(err) {
			return domain.ErrCatalogAlreadySeeded
		}
		return fmt.Errorf("failed to create indicators: %w", err)
	}
	return nil
}

func (r *IndicatorRepository) Count(ctx context.Context, orgID uuid.UUID) (int64, error) {
	var count int64
	if err := scoped(ctx, r.db, orgID).Model(&model.Indicator{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count indicators: %w", err)
	}
	return count, nil
}

func (r *IndicatorRepository) FindByID(ctx context.Context, orgID, id uuid.UUID) (*model.Indicator, error) {
	var indicator model.Indicator
	err := scoped(ctx, r.db, orgID).First(&indicator, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrIndicatorNotFound
		}
		return nil, fmt.Errorf("failed to find indicator: %w", err)
	}
	return &indicator, nil
}

// FindByIDs returns the indicators of orgID among ids. Ids owned by another
// organization are silently absent from the result.
func (r *IndicatorRepository) FindByIDs(ctx context.Context, orgID uuid.UUID, ids []uuid.UUID) ([]*model.Indicator, error) {
	var indicators []*model.Indicator
	if len(ids) == 0 {
		return indicators, nil
	}
	if err := scoped(ctx, r.db, orgID).Where("id IN ?", ids).Find(&indicators).Error; err != nil {
		return nil, fmt.Errorf("failed to find indicators: %w", err)
	}
	return indicators, nil
}

func (r *IndicatorRepository) List(ctx context.Context, orgID uuid.UUID, f IndicatorFilter) ([]*model.Indicator, error) {
	q := scoped(ctx, r.db, orgID)
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.NumberFrom > 0 {
		q = q.Where("number >= ?", f.NumberFrom)
	}
	if f.NumberTo > 0 {
		q = q.Where("number <= ?", f.NumberTo)
	}
	if f.Search != "" {
		q = q.Where("LOWER(title) LIKE ?", likePattern(f.Search))
	}
	if len(f.IDs) > 0 {
		q = q.Where("id IN ?", f.IDs)
	}

	var indicators []*model.Indicator
	if err := q.Order("number ASC").Find(&indicators).Error; err != nil {
		return nil, fmt.Errorf("failed to list indicators: %w", err)
	}
	return indicators, nil
}

// indicatorEditable are the columns a manual edit may write. The completion
// rate and document counts belong to UpdateDerived.
var indicatorEditable = map[string]bool{
	"title":        true,
	"description":  true,
	"status":       true,
	"notes":        true,
	"requirements": true,
}

// Update writes the named editable columns of an indicator along with
// last_updated. Other columns are never written, whatever indicator holds.
func (r *IndicatorRepository) Update(ctx context.Context, indicator *model.Indicator, columns ...string) error {
	selected := []string{"last_updated", "updated_at"}
	for _, c := range columns {
		if !indicatorEditable[c] {
			return fmt.Errorf("indicator column %q is not editable", c)
		}
		selected = append(selected, c)
	}
	rows, err := updateColumns(ctx, r.db, indicator, indicator.OrganizationID, selected)
	if err != nil {
		return fmt.Errorf("failed to update indicator: %w", err)
	}
	if rows == 0 {
		return domain.ErrIndicatorNotFound
	}
	return nil
}

// UpdateDerived writes the document counts and completion state computed for
// an indicator.
func (r *IndicatorRepository) UpdateDerived(ctx context.Context, orgID, id uuid.UUID, counts model.DocumentCounts, rate int, status model.IndicatorStatus, at time.Time) error {
	res := scoped(ctx, r.db, orgID).Model(&model.Indicator{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"procedure_count": counts.Procedure,
			"model_count":     counts.Model,
			"evidence_count":  counts.Evidence,
			"completion_rate": rate,
			"status":          status,
			"last_updated":    at,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to update indicator completion: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrIndicatorNotFound
	}
	return nil
}

// CountByStatus returns the number of indicators per status.
func (r *IndicatorRepository) CountByStatus(ctx context.Context, orgID uuid.UUID) (map[model.IndicatorStatus]int, error) {
	var rows []struct {
		Status model.IndicatorStatus
		Count  int
	}
	err := scoped(ctx, r.db, orgID).Model(&model.Indicator{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count indicators by status: %w", err)
	}
	out := make(map[model.IndicatorStatus]int, len(rows))
	for _, row := range rows {
		out[row.Status] = row.Count
	}
	return out, nil
}

// AverageCompletion returns the mean completion rate across the organization.
func (r *IndicatorRepository) AverageCompletion(ctx context.Context, orgID uuid.UUID) (float64, error) {
	var avg float64
	err := scoped(ctx, r.db, orgID).Model(&model.Indicator{}).
		Select("COALESCE(AVG(completion_rate), 0)").
		Scan(&avg).Error
	if err != nil {
		return 0, fmt.Errorf("failed to average completion: %w", err)
	}
	return avg, nil
}
