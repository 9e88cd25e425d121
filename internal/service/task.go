// internal/service/task.go
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/dangerclosesec/qualitrack/internal/domain"
	"github.com/dangerclosesec/qualitrack/internal/model"
	"github.com/dangerclosesec/qualitrack/internal/repository"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
)

type systemCategory struct {
	Type  model.TaskCategoryType
	Name  string
	Slug  string
	Color string
	Icon  string
}

// systemCategories are seeded once per organization and never change.
var systemCategories = []systemCategory{
	{model.CategoryVeille, "Veille", "veille", "#3b82f6", "radar"},
	{model.CategoryCompetence, "Compétences", "competence", "#10b981", "graduation-cap"},
	{model.CategoryDysfonctionnement, "Dysfonctionnements", "dysfonctionnement", "#ef4444", "alert-triangle"},
	{model.CategoryAmelioration, "Amélioration continue", "amelioration", "#f59e0b", "trending-up"},
	{model.CategoryHandicap, "Handicap", "handicap", "#8b5cf6", "accessibility"},
}

type CreateTaskInput struct {
	CategoryID   uuid.UUID             `json:"category_id"`
	CategorySlug string                `json:"category_slug" validate:"required_without=CategoryID"`
	Title        string                `json:"title" validate:"required,max=255"`
	Description  string                `json:"description"`
	Status       string                `json:"status" validate:"omitempty,oneof=todo in_progress done archived"`
	Priority     string                `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	DueDate      *time.Time            `json:"due_date"`
	AssignedTo   *uuid.UUID            `json:"assigned_to"`
	Attachments  []string              `json:"attachments" validate:"dive,max=2048"`
	Checklist    []model.ChecklistItem `json:"checklist" validate:"dive"`
	Notes        string                `json:"notes"`
}

type UpdateTaskInput struct {
	CategoryID  *uuid.UUID             `json:"category_id"`
	Title       *string                `json:"title" validate:"omitnil,min=1,max=255"`
	Description *string                `json:"description"`
	Status      *string                `json:"status" validate:"omitnil,oneof=todo in_progress done archived"`
	Priority    *string                `json:"priority" validate:"omitnil,oneof=low medium high urgent"`
	DueDate     *time.Time             `json:"due_date"`
	ClearDue    bool                   `json:"clear_due_date"`
	AssignedTo  *uuid.UUID             `json:"assigned_to"`
	Attachments *[]string              `json:"attachments" validate:"omitnil,dive,max=2048"`
	Checklist   *[]model.ChecklistItem `json:"checklist"`
	Notes       *string                `json:"notes"`
	Position    *int                   `json:"position" validate:"omitnil,gte=0"`
}

type TaskCategoryInput struct {
	Name  string `json:"name" validate:"required,max=100"`
	Color string `json:"color" validate:"omitempty,hexcolor"`
	Icon  string `json:"icon" validate:"max=50"`
}

type UpdateTaskCategoryInput struct {
	Name  *string `json:"name" validate:"omitnil,min=1,max=100"`
	Color *string `json:"color" validate:"omitnil,hexcolor"`
	Icon  *string `json:"icon" validate:"omitnil,max=50"`
}

// TaskView is a task with its read-time derived fields.
type TaskView struct {
	*model.Task
	Overdue       bool `json:"overdue"`
	ChecklistDone int  `json:"checklist_done"`
	ChecklistSize int  `json:"checklist_total"`
}

type TaskStatistics struct {
	Total      int                        `json:"total"`
	ByStatus   map[model.TaskStatus]int   `json:"byStatus"`
	ByPriority map[model.TaskPriority]int `json:"byPriority"`
	Overdue    int                        `json:"overdue"`
	Completion float64                    `json:"completionRate"`
}

type TaskService struct {
	tx       *repository.TxManager
	tasks    *repository.TaskRepository
	clock    domain.Clock
	validate *validator.Validate
}

func NewTaskService(tx *repository.TxManager, tasks *repository.TaskRepository, clock domain.Clock) *TaskService {
	return &TaskService{
		tx:       tx,
		tasks:    tasks,
		clock:    clock,
		validate: newValidator(),
	}
}

func (s *TaskService) view(task *model.Task) *TaskView {
	done, total := task.ChecklistProgress()
	return &TaskView{
		Task:          task,
		Overdue:       task.IsOverdue(s.clock.Now()),
		ChecklistDone: done,
		ChecklistSize: total,
	}
}

func (s *TaskService) views(tasks []*model.Task) []*TaskView {
	out := make([]*TaskView, 0, len(tasks))
	for _, task := range tasks {
		out = append(out, s.view(task))
	}
	return out
}

func (s *TaskService) List(ctx context.Context, t domain.Tenant, f repository.TaskFilter) ([]*TaskView, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	tasks, err := s.tasks.List(ctx, t.OrganizationID, f)
	if err != nil {
		return nil, err
	}
	return s.views(tasks), nil
}

// ByCategory lists the tasks of the category with the given slug.
func (s *TaskService) ByCategory(ctx context.Context, t domain.Tenant, slug string) ([]*TaskView, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	category, err := s.tasks.FindCategoryBySlug(ctx, t.OrganizationID, slug)
	if err != nil {
		return nil, err
	}
	tasks, err := s.tasks.List(ctx, t.OrganizationID, repository.TaskFilter{CategoryID: category.ID})
	if err != nil {
		return nil, err
	}
	return s.views(tasks), nil
}

func (s *TaskService) Get(ctx context.Context, t domain.Tenant, id uuid.UUID) (*TaskView, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	task, err := s.tasks.FindByID(ctx, t.OrganizationID, id)
	if err != nil {
		return nil, err
	}
	return s.view(task), nil
}

// Create appends a task at the end of its category.
func (s *TaskService) Create(ctx context.Context, t domain.Tenant, input CreateTaskInput) (*TaskView, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	if err := validateInput(s.validate, input); err != nil {
		return nil, err
	}

	task := &model.Task{
		OrganizationID: t.OrganizationID,
		Title:          input.Title,
		Description:    input.Description,
		Status:         model.TaskStatus(input.Status),
		Priority:       model.TaskPriority(input.Priority),
		DueDate:        utcPtr(input.DueDate),
		AssignedTo:     input.AssignedTo,
		Attachments:    input.Attachments,
		Checklist:      input.Checklist,
		Notes:          input.Notes,
		CreatedBy:      t.ActorID,
	}
	if task.Status == "" {
		task.Status = model.TaskTodo
	}
	if task.Priority == "" {
		task.Priority = model.TaskMedium
	}
	if task.Attachments == nil {
		task.Attachments = []string{}
	}
	if task.Checklist == nil {
		task.Checklist = []model.ChecklistItem{}
	}

	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		category, err := s.resolveCategory(txCtx, t.OrganizationID, input.CategoryID, input.CategorySlug)
		if err != nil {
			return err
		}
		task.CategoryID = category.ID
		task.Category = category

		task.Position, err = s.tasks.NextPosition(txCtx, t.OrganizationID, category.ID)
		if err != nil {
			return err
		}
		return s.tasks.Create(txCtx, task)
	})
	if err != nil {
		return nil, err
	}
	return s.view(task), nil
}

func (s *TaskService) resolveCategory(ctx context.Context, orgID, id uuid.UUID, slug string) (*model.TaskCategory, error) {
	if id != uuid.Nil {
		return s.tasks.FindCategoryByID(ctx, orgID, id)
	}
	return s.tasks.FindCategoryBySlug(ctx, orgID, slug)
}

func (s *TaskService) Update(ctx context.Context, t domain.Tenant, id uuid.UUID, input UpdateTaskInput) (*TaskView, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	if err := validateInput(s.validate, input); err != nil {
		return nil, err
	}

	var task *model.Task
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		task, err = s.tasks.FindByID(txCtx, t.OrganizationID, id)
		if err != nil {
			return err
		}

		if input.CategoryID != nil && *input.CategoryID != task.CategoryID {
			category, err := s.tasks.FindCategoryByID(txCtx, t.OrganizationID, *input.CategoryID)
			if err != nil {
				return err
			}
			task.CategoryID = category.ID
			task.Category = category
			if input.Position == nil {
				task.Position, err = s.tasks.NextPosition(txCtx, t.OrganizationID, category.ID)
				if err != nil {
					return err
				}
			}
		}
		if input.Title != nil {
			task.Title = *input.Title
		}
		if input.Description != nil {
			task.Description = *input.Description
		}
		if input.Status != nil {
			task.Status = model.TaskStatus(*input.Status)
		}
		if input.Priority != nil {
			task.Priority = model.TaskPriority(*input.Priority)
		}
		if input.DueDate != nil {
			task.DueDate = utcPtr(input.DueDate)
		} else if input.ClearDue {
			task.DueDate = nil
		}
		if input.AssignedTo != nil {
			task.AssignedTo = input.AssignedTo
		}
		if input.Attachments != nil {
			task.Attachments = append([]string{}, (*input.Attachments)...)
		}
		if input.Checklist != nil {
			task.Checklist = append([]model.ChecklistItem{}, (*input.Checklist)...)
		}
		if input.Notes != nil {
			task.Notes = *input.Notes
		}
		if input.Position != nil {
			task.Position = *input.Position
		}
		return s.tasks.Update(txCtx, task)
	})
	if err != nil {
		return nil, err
	}
	return s.view(task), nil
}

// Reorder applies a drag-and-drop batch atomically. Equal positions keep the
// order in which they were submitted; positions may be sparse.
func (s *TaskService) Reorder(ctx context.Context, t domain.Tenant, batch []repository.TaskPosition) error {
	if err := t.Validate(); err != nil {
		return err
	}
	if len(batch) == 0 {
		return domain.NewValidationError("tasks", "is required")
	}
	seen := make(map[uuid.UUID]struct{}, len(batch))
	for _, entry := range batch {
		if entry.Position < 0 {
			return domain.NewValidationError("position", "must be greater than or equal to 0")
		}
		if _, dup := seen[entry.ID]; dup {
			return domain.NewValidationError("tasks", "must not contain duplicates")
		}
		seen[entry.ID] = struct{}{}
	}

	return s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		return s.tasks.Reorder(txCtx, t.OrganizationID, batch)
	})
}

func (s *TaskService) Delete(ctx context.Context, t domain.Tenant, id uuid.UUID) error {
	if err := t.Validate(); err != nil {
		return err
	}
	return s.tasks.Delete(ctx, t.OrganizationID, id)
}

func (s *TaskService) Statistics(ctx context.Context, t domain.Tenant) (*TaskStatistics, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	counts, err := s.tasks.Counts(ctx, t.OrganizationID, s.clock.Now())
	if err != nil {
		return nil, err
	}
	stats := &TaskStatistics{
		Total:      counts.Total,
		ByStatus:   counts.ByStatus,
		ByPriority: counts.ByPriority,
		Overdue:    counts.Overdue,
	}
	if counts.Total > 0 {
		stats.Completion = percentage(counts.ByStatus[model.TaskDone], counts.Total)
	}
	return stats, nil
}

// InitializeSystemCategories seeds the built-in categories that are missing
// for the organization. Calling it again creates nothing.
func (s *TaskService) InitializeSystemCategories(ctx context.Context, t domain.Tenant) ([]*model.TaskCategory, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}

	created := make([]*model.TaskCategory, 0, len(systemCategories))
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		for _, sc := range systemCategories {
			_, err := s.tasks.FindSystemCategory(txCtx, t.OrganizationID, sc.Type)
			if err == nil {
				continue
			}
			if !errors.Is(err, domain.ErrTaskCategoryNotFound) {
				return err
			}
			category := &model.TaskCategory{
				OrganizationID: t.OrganizationID,
				Name:           sc.Name,
				Slug:           sc.Slug,
				Type:           sc.Type,
				Color:          sc.Color,
				Icon:           sc.Icon,
				IsSystem:       true,
			}
			if err := s.tasks.CreateCategory(txCtx, category); err != nil {
				return fmt.Errorf("seeding %s category: %w", sc.Type, err)
			}
			created = append(created, category)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(created) > 0 {
		slog.InfoContext(ctx, "system task categories seeded",
			"organization_id", t.OrganizationID,
			"count", len(created),
		)
	}
	return created, nil
}

func (s *TaskService) ListCategories(ctx context.Context, t domain.Tenant) ([]*model.TaskCategory, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return s.tasks.ListCategories(ctx, t.OrganizationID)
}

// CreateCategory adds a custom category. The slug is derived from the name.
func (s *TaskService) CreateCategory(ctx context.Context, t domain.Tenant, input TaskCategoryInput) (*model.TaskCategory, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	if err := validateInput(s.validate, input); err != nil {
		return nil, err
	}
	slug := slugify(input.Name)
	if slug == "" {
		return nil, domain.NewValidationError("name", "must contain letters or digits")
	}
	category := &model.TaskCategory{
		OrganizationID: t.OrganizationID,
		Name:           strings.TrimSpace(input.Name),
		Slug:           slug,
		Type:           model.CategoryCustom,
		Color:          input.Color,
		Icon:           input.Icon,
	}
	if err := s.tasks.CreateCategory(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

func (s *TaskService) UpdateCategory(ctx context.Context, t domain.Tenant, id uuid.UUID, input UpdateTaskCategoryInput) (*model.TaskCategory, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	if err := validateInput(s.validate, input); err != nil {
		return nil, err
	}
	category, err := s.tasks.FindCategoryByID(ctx, t.OrganizationID, id)
	if err != nil {
		return nil, err
	}
	if category.IsSystem {
		return nil, domain.ErrSystemCategory
	}
	if input.Name != nil {
		category.Name = strings.TrimSpace(*input.Name)
	}
	if input.Color != nil {
		category.Color = *input.Color
	}
	if input.Icon != nil {
		category.Icon = *input.Icon
	}
	if err := s.tasks.UpdateCategory(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

// DeleteCategory removes a custom category that holds no tasks.
func (s *TaskService) DeleteCategory(ctx context.Context, t domain.Tenant, id uuid.UUID) error {
	if err := t.Validate(); err != nil {
		return err
	}
	return s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		category, err := s.tasks.FindCategoryByID(txCtx, t.OrganizationID, id)
		if err != nil {
			return err
		}
		if category.IsSystem {
			return domain.ErrSystemCategory
		}
		count, err := s.tasks.CountInCategory(txCtx, t.OrganizationID, id)
		if err != nil {
			return err
		}
		if count > 0 {
			return fmt.Errorf("%w (%d tasks)", domain.ErrTaskCategoryInUse, count)
		}
		return s.tasks.DeleteCategory(txCtx, t.OrganizationID, id)
	})
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// slugify lowercases name, strips accents and joins words with dashes.
func slugify(name string) string {
	var b strings.Builder
	for _, r := range norm.NFD.String(strings.ToLower(name)) {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}
	return strings.Trim(nonSlug.ReplaceAllString(b.String(), "-"), "-")
}

func percentage(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(int(float64(part)/float64(total)*10000+0.5)) / 100
}
