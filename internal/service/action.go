// internal/service/action.go
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dangerclosesec/qualitrack/internal/domain"
	"github.com/dangerclosesec/qualitrack/internal/model"
	"github.com/dangerclosesec/qualitrack/internal/repository"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

const defaultActionCategoryColor = "#6b7280"

type CreateActionInput struct {
	Category    string     `json:"category" validate:"required,max=100"`
	Subcategory string     `json:"subcategory" validate:"max=100"`
	Priority    string     `json:"priority" validate:"omitempty,oneof=Low Medium High"`
	Title       string     `json:"title" validate:"required,max=255"`
	Description string     `json:"description"`
	Status      string     `json:"status" validate:"omitempty,oneof=pending in_progress completed cancelled"`
	AssignedTo  *uuid.UUID `json:"assigned_to"`
	DueDate     *time.Time `json:"due_date"`
	Tags        []string   `json:"tags" validate:"max=20,dive,max=50"`
}

type UpdateActionInput struct {
	Category    *string    `json:"category" validate:"omitnil,min=1,max=100"`
	Subcategory *string    `json:"subcategory" validate:"omitnil,max=100"`
	Priority    *string    `json:"priority" validate:"omitnil,oneof=Low Medium High"`
	Title       *string    `json:"title" validate:"omitnil,min=1,max=255"`
	Description *string    `json:"description"`
	Status      *string    `json:"status" validate:"omitnil,oneof=pending in_progress completed cancelled"`
	AssignedTo  *uuid.UUID `json:"assigned_to"`
	DueDate     *time.Time `json:"due_date"`
	ClearDue    bool       `json:"clear_due_date"`
	Tags        *[]string  `json:"tags" validate:"omitnil,max=20,dive,max=50"`
}

type ActionCategoryInput struct {
	Label string `json:"label" validate:"required,max=100"`
	Color string `json:"color" validate:"omitempty,hexcolor"`
}

type UpdateActionCategoryInput struct {
	Label *string `json:"label" validate:"omitnil,min=1,max=100"`
	Color *string `json:"color" validate:"omitnil,hexcolor"`
}

// ActionView is an action with its overdue flag resolved at read time.
type ActionView struct {
	*model.Action
	Overdue bool `json:"overdue"`
}

type ActionStatistics struct {
	Total      int                          `json:"total"`
	ByStatus   map[model.ActionStatus]int   `json:"byStatus"`
	ByPriority map[model.ActionPriority]int `json:"byPriority"`
	Overdue    int                          `json:"overdue"`
}

type ActionService struct {
	tx       *repository.TxManager
	actions  *repository.ActionRepository
	clock    domain.Clock
	validate *validator.Validate
}

func NewActionService(tx *repository.TxManager, actions *repository.ActionRepository, clock domain.Clock) *ActionService {
	return &ActionService{
		tx:       tx,
		actions:  actions,
		clock:    clock,
		validate: newValidator(),
	}
}

func (s *ActionService) view(a *model.Action) *ActionView {
	return &ActionView{Action: a, Overdue: a.IsOverdue(s.clock.Now())}
}

func (s *ActionService) List(ctx context.Context, t domain.Tenant, f repository.ActionFilter, page repository.Page) (*Paginated[*ActionView], error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	page = page.Normalize()
	actions, total, err := s.actions.List(ctx, t.OrganizationID, f, page)
	if err != nil {
		return nil, err
	}
	views := make([]*ActionView, 0, len(actions))
	for _, a := range actions {
		views = append(views, s.view(a))
	}
	return newPaginated(views, total, page.Page, page.Limit), nil
}

func (s *ActionService) Get(ctx context.Context, t domain.Tenant, id uuid.UUID) (*ActionView, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	action, err := s.actions.FindByID(ctx, t.OrganizationID, id)
	if err != nil {
		return nil, err
	}
	return s.view(action), nil
}

func (s *ActionService) Create(ctx context.Context, t domain.Tenant, input CreateActionInput) (*ActionView, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	if err := validateInput(s.validate, input); err != nil {
		return nil, err
	}

	category, err := s.findOrCreateCategory(ctx, t.OrganizationID, input.Category)
	if err != nil {
		return nil, err
	}

	action := &model.Action{
		OrganizationID: t.OrganizationID,
		CategoryID:     category.ID,
		Subcategory:    input.Subcategory,
		Priority:       model.ActionPriority(input.Priority),
		Title:          input.Title,
		Description:    input.Description,
		Status:         model.ActionStatus(input.Status),
		AssignedTo:     input.AssignedTo,
		DueDate:        utcPtr(input.DueDate),
		Tags:           input.Tags,
		CreatedBy:      t.ActorID,
	}
	if action.Priority == "" {
		action.Priority = model.PriorityMedium
	}
	if action.Status == "" {
		action.Status = model.ActionPending
	}
	if action.Tags == nil {
		action.Tags = []string{}
	}

	if err := s.actions.Create(ctx, action); err != nil {
		return nil, err
	}
	action.Category = category
	return s.view(action), nil
}

func (s *ActionService) Update(ctx context.Context, t domain.Tenant, id uuid.UUID, input UpdateActionInput) (*ActionView, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	if err := validateInput(s.validate, input); err != nil {
		return nil, err
	}

	action, err := s.actions.FindByID(ctx, t.OrganizationID, id)
	if err != nil {
		return nil, err
	}

	if input.Category != nil {
		category, err := s.findOrCreateCategory(ctx, t.OrganizationID, *input.Category)
		if err != nil {
			return nil, err
		}
		action.CategoryID = category.ID
		action.Category = category
	}
	if input.Subcategory != nil {
		action.Subcategory = *input.Subcategory
	}
	if input.Priority != nil {
		action.Priority = model.ActionPriority(*input.Priority)
	}
	if input.Title != nil {
		action.Title = *input.Title
	}
	if input.Description != nil {
		action.Description = *input.Description
	}
	if input.Status != nil {
		action.Status = model.ActionStatus(*input.Status)
	}
	if input.AssignedTo != nil {
		action.AssignedTo = input.AssignedTo
	}
	if input.DueDate != nil {
		action.DueDate = utcPtr(input.DueDate)
	} else if input.ClearDue {
		action.DueDate = nil
	}
	if input.Tags != nil {
		action.Tags = append([]string{}, (*input.Tags)...)
	}

	if err := s.actions.Update(ctx, action); err != nil {
		return nil, err
	}
	return s.view(action), nil
}

func (s *ActionService) Delete(ctx context.Context, t domain.Tenant, id uuid.UUID) error {
	if err := t.Validate(); err != nil {
		return err
	}
	return s.actions.Delete(ctx, t.OrganizationID, id)
}

// Overdue lists open actions past their due date.
func (s *ActionService) Overdue(ctx context.Context, t domain.Tenant) ([]*ActionView, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	actions, err := s.actions.ListOverdue(ctx, t.OrganizationID, s.clock.Now())
	if err != nil {
		return nil, err
	}
	views := make([]*ActionView, 0, len(actions))
	for _, a := range actions {
		views = append(views, s.view(a))
	}
	return views, nil
}

func (s *ActionService) Statistics(ctx context.Context, t domain.Tenant) (*ActionStatistics, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	byStatus, err := s.actions.CountByStatus(ctx, t.OrganizationID)
	if err != nil {
		return nil, err
	}
	byPriority, err := s.actions.CountByPriority(ctx, t.OrganizationID)
	if err != nil {
		return nil, err
	}
	overdue, err := s.actions.CountOverdue(ctx, t.OrganizationID, s.clock.Now())
	if err != nil {
		return nil, err
	}

	stats := &ActionStatistics{ByStatus: byStatus, ByPriority: byPriority, Overdue: overdue}
	for _, n := range byStatus {
		stats.Total += n
	}
	return stats, nil
}

func (s *ActionService) ListCategories(ctx context.Context, t domain.Tenant) ([]*model.ActionCategory, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return s.actions.ListCategories(ctx, t.OrganizationID)
}

func (s *ActionService) CreateCategory(ctx context.Context, t domain.Tenant, input ActionCategoryInput) (*model.ActionCategory, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	if err := validateInput(s.validate, input); err != nil {
		return nil, err
	}
	category := &model.ActionCategory{
		OrganizationID: t.OrganizationID,
		Label:          strings.TrimSpace(input.Label),
		Color:          input.Color,
	}
	if category.Color == "" {
		category.Color = defaultActionCategoryColor
	}
	if err := s.actions.CreateCategory(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

func (s *ActionService) UpdateCategory(ctx context.Context, t domain.Tenant, id uuid.UUID, input UpdateActionCategoryInput) (*model.ActionCategory, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	if err := validateInput(s.validate, input); err != nil {
		return nil, err
	}
	category, err := s.actions.FindCategoryByID(ctx, t.OrganizationID, id)
	if err != nil {
		return nil, err
	}
	if input.Label != nil {
		category.Label = strings.TrimSpace(*input.Label)
	}
	if input.Color != nil {
		category.Color = *input.Color
	}
	if err := s.actions.UpdateCategory(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

// DeleteCategory refuses to remove a category that still has actions.
func (s *ActionService) DeleteCategory(ctx context.Context, t domain.Tenant, id uuid.UUID) error {
	if err := t.Validate(); err != nil {
		return err
	}
	return s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if _, err := s.actions.FindCategoryByID(txCtx, t.OrganizationID, id); err != nil {
			return err
		}
		count, err := s.actions.CountInCategory(txCtx, t.OrganizationID, id)
		if err != nil {
			return err
		}
		if count > 0 {
			return fmt.Errorf("%w (%d actions)", domain.ErrActionCategoryInUse, count)
		}
		return s.actions.DeleteCategory(txCtx, t.OrganizationID, id)
	})
}

// findOrCreateCategory resolves a category by label, creating it when absent.
// A concurrent creation of the same label surfaces as a unique violation, in
// which case the winner's row is read back.
func (s *ActionService) findOrCreateCategory(ctx context.Context, orgID uuid.UUID, label string) (*model.ActionCategory, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return nil, domain.NewValidationError("category", "is required")
	}

	category, err := s.actions.FindCategoryByLabel(ctx, orgID, label)
	if err == nil {
		return category, nil
	}
	if !errors.Is(err, domain.ErrActionCategoryNotFound) {
		return nil, err
	}

	category = &model.ActionCategory{
		OrganizationID: orgID,
		Label:          label,
		Color:          defaultActionCategoryColor,
	}
	err = s.actions.CreateCategory(ctx, category)
	switch {
	case err == nil:
		slog.DebugContext(ctx, "action category created", "organization_id", orgID, "label", label)
		return category, nil
	case errors.Is(err, domain.ErrActionCategoryExists):
		return s.actions.FindCategoryByLabel(ctx, orgID, label)
	default:
		return nil, err
	}
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
