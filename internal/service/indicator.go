// internal/service/indicator.go
package service

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/dangerclosesec/qualitrack/internal/domain"
	"github.com/dangerclosesec/qualitrack/internal/model"
	"github.com/dangerclosesec/qualitrack/internal/repository"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// IndicatorView is an indicator with its derived document tally.
type IndicatorView struct {
	*model.Indicator
	DocumentCounts model.DocumentCounts `json:"document_counts"`
}

func newIndicatorView(i *model.Indicator) *IndicatorView {
	return &IndicatorView{Indicator: i, DocumentCounts: i.DocumentCounts()}
}

type IndicatorSummary struct {
	Total                 int     `json:"total"`
	Completed             int     `json:"completed"`
	InProgress            int     `json:"inProgress"`
	NotStarted            int     `json:"notStarted"`
	OverallCompletionRate float64 `json:"overallCompletionRate"`
}

type IndicatorGroup struct {
	Category   string           `json:"category"`
	Criterion  int              `json:"criterion"`
	Indicators []*IndicatorView `json:"indicators"`
	Summary    IndicatorSummary `json:"summary"`
}

type UpdateIndicatorInput struct {
	Title        *string   `json:"title" validate:"omitnil,min=1,max=500"`
	Description  *string   `json:"description"`
	Status       *string   `json:"status" validate:"omitnil,oneof=not_started in_progress completed"`
	Notes        *string   `json:"notes"`
	Requirements *[]string `json:"requirements"`
}

type IndicatorService struct {
	indicators *repository.IndicatorRepository
	documents  *repository.DocumentRepository
	clock      domain.Clock
	validate   *validator.Validate
}

func NewIndicatorService(
	indicators *repository.IndicatorRepository,
	documents *repository.DocumentRepository,
	clock domain.Clock,
) *IndicatorService {
	return &IndicatorService{
		indicators: indicators,
		documents:  documents,
		clock:      clock,
		validate:   newValidator(),
	}
}

func (s *IndicatorService) List(ctx context.Context, t domain.Tenant, f repository.IndicatorFilter) ([]*IndicatorView, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	if f.Status != "" && !f.Status.Valid() {
		return nil, domain.NewValidationError("status", "unknown indicator status")
	}
	f.IDs = t.IndicatorAccess
	indicators, err := s.indicators.List(ctx, t.OrganizationID, f)
	if err != nil {
		return nil, err
	}
	views := make([]*IndicatorView, 0, len(indicators))
	for _, i := range indicators {
		views = append(views, newIndicatorView(i))
	}
	return views, nil
}

func (s *IndicatorService) Get(ctx context.Context, t domain.Tenant, id uuid.UUID) (*IndicatorView, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	if !t.CanSeeIndicator(id) {
		return nil, domain.ErrIndicatorNotFound
	}
	indicator, err := s.indicators.FindByID(ctx, t.OrganizationID, id)
	if err != nil {
		return nil, err
	}
	return newIndicatorView(indicator), nil
}

// Update applies manual edits. Derived completion fields are not editable
// here; a status set by hand holds until the next document change.
func (s *IndicatorService) Update(ctx context.Context, t domain.Tenant, id uuid.UUID, input UpdateIndicatorInput) (*IndicatorView, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	if err := validateInput(s.validate, input); err != nil {
		return nil, err
	}

	indicator, err := s.indicators.FindByID(ctx, t.OrganizationID, id)
	if err != nil {
		return nil, err
	}

	var columns []string
	if input.Title != nil {
		indicator.Title = *input.Title
		columns = append(columns, "title")
	}
	if input.Description != nil {
		indicator.Description = *input.Description
		columns = append(columns, "description")
	}
	if input.Status != nil {
		indicator.Status = model.IndicatorStatus(*input.Status)
		columns = append(columns, "status")
	}
	if input.Notes != nil {
		indicator.Notes = *input.Notes
		columns = append(columns, "notes")
	}
	if input.Requirements != nil {
		indicator.Requirements = append([]string{}, (*input.Requirements)...)
		columns = append(columns, "requirements")
	}
	now := s.clock.Now()
	indicator.LastUpdated = &now

	// Only the patched columns are written.
	if err := s.indicators.Update(ctx, indicator, columns...); err != nil {
		return nil, fmt.Errorf("updating indicator %d: %w", indicator.Number, err)
	}
	return newIndicatorView(indicator), nil
}

// ListDocuments returns the active documents linked to an indicator.
func (s *IndicatorService) ListDocuments(ctx context.Context, t domain.Tenant, id uuid.UUID, docType model.DocumentType) ([]*model.Document, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	if docType != "" && !docType.Valid() {
		return nil, domain.NewValidationError("type", "unknown document type")
	}
	if !t.CanSeeIndicator(id) {
		return nil, domain.ErrIndicatorNotFound
	}
	if _, err := s.indicators.FindByID(ctx, t.OrganizationID, id); err != nil {
		return nil, err
	}
	return s.documents.ListForIndicator(ctx, t.OrganizationID, id, docType)
}

// Summary aggregates the catalog on read.
func (s *IndicatorService) Summary(ctx context.Context, t domain.Tenant) (*IndicatorSummary, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	indicators, err := s.indicators.List(ctx, t.OrganizationID, repository.IndicatorFilter{IDs: t.IndicatorAccess})
	if err != nil {
		return nil, err
	}
	summary := summarize(indicators)
	return &summary, nil
}

// ByCategory groups the catalog by criterion, in criterion order.
func (s *IndicatorService) ByCategory(ctx context.Context, t domain.Tenant) ([]*IndicatorGroup, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	indicators, err := s.indicators.List(ctx, t.OrganizationID, repository.IndicatorFilter{IDs: t.IndicatorAccess})
	if err != nil {
		return nil, err
	}

	byCategory := make(map[string][]*model.Indicator)
	groups := make([]*IndicatorGroup, 0)
	for _, i := range indicators {
		if _, ok := byCategory[i.Category]; !ok {
			groups = append(groups, &IndicatorGroup{Category: i.Category, Criterion: i.Criterion})
		}
		byCategory[i.Category] = append(byCategory[i.Category], i)
	}
	sort.SliceStable(groups, func(a, b int) bool {
		return groups[a].Criterion < groups[b].Criterion
	})

	for _, g := range groups {
		members := byCategory[g.Category]
		g.Summary = summarize(members)
		g.Indicators = make([]*IndicatorView, 0, len(members))
		for _, i := range members {
			g.Indicators = append(g.Indicators, newIndicatorView(i))
		}
	}
	return groups, nil
}

func summarize(indicators []*model.Indicator) IndicatorSummary {
	var sum IndicatorSummary
	total := 0
	for _, i := range indicators {
		sum.Total++
		total += i.CompletionRate
		switch i.Status {
		case model.IndicatorCompleted:
			sum.Completed++
		case model.IndicatorInProgress:
			sum.InProgress++
		default:
			sum.NotStarted++
		}
	}
	if sum.Total > 0 {
		sum.OverallCompletionRate = math.Round(float64(total)/float64(sum.Total)*100) / 100
	}
	return sum
}
