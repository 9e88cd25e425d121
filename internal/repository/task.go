// internal/repository/task.go
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

// TaskFilter narrows a task listing. Zero values are ignored.
type TaskFilter struct {
	CategoryID uuid.UUID
	Status     model.TaskStatus
	Priority   model.TaskPriority
	AssignedTo uuid.UUID
	Search     string
}

// TaskPosition is one entry of a reorder batch.
type TaskPosition struct {
	ID       uuid.UUID `json:"id"`
	Position int       `json:"position"`
}

// TaskCounts rolls up task totals for one organization.
type TaskCounts struct {
	Total      int
	ByStatus   map[model.TaskStatus]int
	ByPriority map[model.TaskPriority]int
	Overdue    int
}

type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) CreateCategory(ctx context.Context, category *model.TaskCategory) error {
	if err := conn(ctx, r.db).Create(category).Error; err != nil {
		if IsUniqueViolation(err) {
			return domain.ErrTaskCategoryExists
		}
		return fmt.Errorf("failed to create task category: %w", err)
	}
	return nil
}

func (r *TaskRepository) FindCategoryByID(ctx context.Context, orgID, id uuid.UUID) (*model.TaskCategory, error) {
	return r.findCategory(ctx, orgID, "id = ?", id)
}

func (r *TaskRepository) FindCategoryBySlug(ctx context.Context, orgID uuid.UUID, slug string) (*model.TaskCategory, error) {
	return r.findCategory(ctx, orgID, "slug = ?", slug)
}

// FindSystemCategory returns the seeded category of the given type.
func (r *TaskRepository) FindSystemCategory(ctx context.Context, orgID uuid.UUID, categoryType model.TaskCategoryType) (*model.TaskCategory, error) {
	return r.findCategory(ctx, orgID, "type = ? AND is_system = ?", categoryType, true)
}

func (r *TaskRepository) findCategory(ctx context.Context, orgID uuid.UUID, query string, args ...any) (*model.TaskCategory, error) {
	var category model.TaskCategory
	if err := scoped(ctx, r.db, orgID).Where(query, args...).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrTaskCategoryNotFound
		}
		return nil, fmt.Errorf("failed to find task category: %w", err)
	}
	return &category, nil
}

func (r *TaskRepository) ListCategories(ctx context.Context, orgID uuid.UUID) ([]*model.TaskCategory, error) {
	var categories []*model.TaskCategory
	err := scoped(ctx, r.db, orgID).
		Order("is_system DESC, name ASC").
		Find(&categories).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list task categories: %w", err)
	}
	return categories, nil
}

func (r *TaskRepository) UpdateCategory(ctx context.Context, category *model.TaskCategory) error {
	rows, err := updateScoped(ctx, r.db, category, category.OrganizationID)
	if err != nil {
		if IsUniqueViolation(err) {
			return domain.ErrTaskCategoryExists
		}
		return fmt.Errorf("failed to update task category: %w", err)
	}
	if rows == 0 {
		return domain.ErrTaskCategoryNotFound
	}
	return nil
}

func (r *TaskRepository) DeleteCategory(ctx context.Context, orgID, id uuid.UUID) error {
	res := scoped(ctx, r.db, orgID).Delete(&model.TaskCategory{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete task category: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrTaskCategoryNotFound
	}
	return nil
}

func (r *TaskRepository) CountInCategory(ctx context.Context, orgID, categoryID uuid.UUID) (int64, error) {
	var count int64
	err := scoped(ctx, r.db, orgID).Model(&model.Task{}).
		Where("category_id = ?", categoryID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count category tasks: %w", err)
	}
	return count, nil
}

func (r *TaskRepository) Create(ctx context.Context, task *model.Task) error {
	if err := conn(ctx, r.db).Omit("Category").Create(task).Error; err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	return nil
}

func (r *TaskRepository) FindByID(ctx context.Context, orgID, id uuid.UUID) (*model.Task, error) {
	var task model.Task
	if err := scoped(ctx, r.db, orgID).Preload("Category").First(&task, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	return &task, nil
}

// List returns tasks in board order: position, then reorder rank, then age.
func (r *TaskRepository) List(ctx context.Context, orgID uuid.UUID, f TaskFilter) ([]*model.Task, error) {
	q := scoped(ctx, r.db, orgID)
	if f.CategoryID != uuid.Nil {
		q = q.Where("category_id = ?", f.CategoryID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Priority != "" {
		q = q.Where("priority = ?", f.Priority)
	}
	if f.AssignedTo != uuid.Nil {
		q = q.Where("assigned_to = ?", f.AssignedTo)
	}
	if f.Search != "" {
		q = q.Where("LOWER(title) LIKE ?", likePattern(f.Search))
	}

	var tasks []*model.Task
	err := q.Preload("Category").
		Order("position ASC, rank_in_batch ASC, created_at ASC").
		Find(&tasks).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

// NextPosition returns the position after the last task of a category.
func (r *TaskRepository) NextPosition(ctx context.Context, orgID, categoryID uuid.UUID) (int, error) {
	var last int
	err := scoped(ctx, r.db, orgID).Model(&model.Task{}).
		Where("category_id = ?", categoryID).
		Select("COALESCE(MAX(position), -1)").
		Scan(&last).Error
	if err != nil {
		return 0, fmt.Errorf("failed to compute next position: %w", err)
	}
	return last + 1, nil
}

func (r *TaskRepository) Update(ctx context.Context, task *model.Task) error {
	rows, err := updateScoped(ctx, r.db, task, task.OrganizationID)
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}
	if rows == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

// Reorder assigns positions in batch order. The index of an entry within the
// batch becomes its tie-break rank. Unknown ids fail with ErrTaskNotFound; the
// caller is expected to run this inside a transaction.
func (r *TaskRepository) Reorder(ctx context.Context, orgID uuid.UUID, batch []TaskPosition) error {
	for rank, entry := range batch {
		res := scoped(ctx, r.db, orgID).Model(&model.Task{}).
			Where("id = ?", entry.ID).
			Updates(map[string]any{
				"position":      entry.Position,
				"rank_in_batch": rank,
			})
		if res.Error != nil {
			return fmt.Errorf("failed to reorder task: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: %s", domain.ErrTaskNotFound, entry.ID)
		}
	}
	return nil
}

func (r *TaskRepository) Delete(ctx context.Context, orgID, id uuid.UUID) error {
	res := scoped(ctx, r.db, orgID).Delete(&model.Task{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete task: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

// Counts aggregates task totals. Tasks not done or archived with a due date
// before now count as overdue.
func (r *TaskRepository) Counts(ctx context.Context, orgID uuid.UUID, now time.Time) (TaskCounts, error) {
	counts := TaskCounts{
		ByStatus:   make(map[model.TaskStatus]int),
		ByPriority: make(map[model.TaskPriority]int),
	}

	var byStatus []struct {
		Status model.TaskStatus
		Count  int
	}
	err := scoped(ctx, r.db, orgID).Model(&model.Task{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&byStatus).Error
	if err != nil {
		return counts, fmt.Errorf("failed to count tasks by status: %w", err)
	}
	for _, row := range byStatus {
		counts.ByStatus[row.Status] = row.Count
		counts.Total += row.Count
	}

	var byPriority []struct {
		Priority model.TaskPriority
		Count    int
	}
	err = scoped(ctx, r.db, orgID).Model(&model.Task{}).
		Select("priority, COUNT(*) AS count").
		Group("priority").
		Scan(&byPriority).Error
	if err != nil {
		return counts, fmt.Errorf("failed to count tasks by priority: %w", err)
	}
	for _, row := range byPriority {
		counts.ByPriority[row.Priority] = row.Count
	}

	var overdue int64
	err = scoped(ctx, r.db, orgID).Model(&model.Task{}).
		Where("status NOT IN ?", []model.TaskStatus{model.TaskDone, model.TaskArchived}).
		Where("due_date IS NOT NULL AND due_date < ?", now).
		Count(&overdue).Error
	if err != nil {
		return counts, fmt.Errorf("failed to count overdue tasks: %w", err)
	}
	counts.Overdue = int(overdue)
	return counts, nil
}
