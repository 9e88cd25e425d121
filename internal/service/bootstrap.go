// internal/service/bootstrap.go
package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dangerclosesec/qualitrack/internal/domain"
	"github.com/dangerclosesec/qualitrack/internal/metrics"
	"github.com/dangerclosesec/qualitrack/internal/model"
	"github.com/dangerclosesec/qualitrack/internal/repository"
	"gorm.io/datatypes"
)

type BootstrapResult struct {
	Indicators       int `json:"indicators"`
	ActionCategories int `json:"action_categories"`
	TaskCategories   int `json:"task_categories"`
}

// BootstrapService seeds a newly onboarded organization.
type BootstrapService struct {
	tx         *repository.TxManager
	indicators *repository.IndicatorRepository
	actions    *repository.ActionRepository
	tasks      *TaskService
	metrics    *metrics.Metrics
}

// NewBootstrapService builds the seeding service. tasks may be nil to skip
// the system task categories.
func NewBootstrapService(
	tx *repository.TxManager,
	indicators *repository.IndicatorRepository,
	actions *repository.ActionRepository,
	tasks *TaskService,
	m *metrics.Metrics,
) *BootstrapService {
	return &BootstrapService{
		tx:         tx,
		indicators: indicators,
		actions:    actions,
		tasks:      tasks,
		metrics:    m,
	}
}

// Initialize creates the 32 indicators and default action categories in one
// transaction. An organization that already has indicators is rejected.
func (s *BootstrapService) Initialize(ctx context.Context, t domain.Tenant) (*BootstrapResult, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}

	result := &BootstrapResult{}
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		existing, err := s.indicators.Count(txCtx, t.OrganizationID)
		if err != nil {
			return err
		}
		if existing > 0 {
			return domain.ErrCatalogAlreadySeeded
		}

		indicators := catalogIndicators(t)
		if err := s.indicators.CreateBatch(txCtx, indicators); err != nil {
			return err
		}
		result.Indicators = len(indicators)

		for _, dc := range defaultActionCategories {
			category := &model.ActionCategory{
				OrganizationID: t.OrganizationID,
				Label:          dc.Label,
				Color:          dc.Color,
			}
			if err := s.actions.CreateCategory(txCtx, category); err != nil {
				return fmt.Errorf("seeding action category %q: %w", dc.Label, err)
			}
			result.ActionCategories++
		}

		if s.tasks != nil {
			created, err := s.tasks.InitializeSystemCategories(txCtx, t)
			if err != nil {
				return err
			}
			result.TaskCategories = len(created)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncrementOrganizationsBootstrapped()
	slog.InfoContext(ctx, "organization bootstrapped",
		"organization_id", t.OrganizationID,
		"indicators", result.Indicators,
		"action_categories", result.ActionCategories,
		"task_categories", result.TaskCategories,
	)
	return result, nil
}

func catalogIndicators(t domain.Tenant) []*model.Indicator {
	indicators := make([]*model.Indicator, 0, 32)
	for _, criterion := range qualiopiCatalog {
		for _, entry := range criterion.Entries {
			indicators = append(indicators, &model.Indicator{
				OrganizationID: t.OrganizationID,
				Number:         entry.Number,
				Criterion:      criterion.Number,
				Title:          fmt.Sprintf("Indicateur %d", entry.Number),
				Description:    entry.Title,
				Category:       criterion.Label,
				Status:         model.IndicatorNotStarted,
				Requirements:   datatypes.JSONSlice[string](entry.Requirements),
			})
		}
	}
	return indicators
}
