// internal/repository/action.go
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

// ActionFilter narrows an action listing. Zero values are ignored.
type ActionFilter struct {
	CategoryID uuid.UUID
	Priority   model.ActionPriority
	Status     model.ActionStatus
	AssignedTo uuid.UUID
	Search     string
}

type ActionRepository struct {
	db *gorm.DB
}

func NewActionRepository(db *gorm.DB) *ActionRepository {
	return &ActionRepository{db: db}
}

func (r *ActionRepository) CreateCategory(ctx context.Context, category *model.ActionCategory) error {
	if err := conn(ctx, r.db).Create(category).Error; err != nil {
		if IsUniqueViolation(err) {
			return domain.ErrActionCategoryExists
		}
		return fmt.Errorf("failed to create action category: %w", err)
	}
	return nil
}

func (r *ActionRepository) FindCategoryByID(ctx context.Context, orgID, id uuid.UUID) (*model.ActionCategory, error) {
	var category model.ActionCategory
	if err := scoped(ctx, r.db, orgID).First(&category, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrActionCategoryNotFound
		}
		return nil, fmt.Errorf("failed to find action category: %w", err)
	}
	return &category, nil
}

func (r *ActionRepository) FindCategoryByLabel(ctx context.Context, orgID uuid.UUID, label string) (*model.ActionCategory, error) {
	var category model.ActionCategory
	if err := scoped(ctx, r.db, orgID).First(&category, "label = ?", label).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrActionCategoryNotFound
		}
		return nil, fmt.Errorf("failed to find action category: %w", err)
	}
	return &category, nil
}

func (r *ActionRepository) ListCategories(ctx context.Context, orgID uuid.UUID) ([]*model.ActionCategory, error) {
	var categories []*model.ActionCategory
	if err := scoped(ctx, r.db, orgID).Order("label ASC").Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("failed to list action categories: %w", err)
	}
	return categories, nil
}

func (r *ActionRepository) UpdateCategory(ctx context.Context, category *model.ActionCategory) error {
	rows, err := updateScoped(ctx, r.db, category, category.OrganizationID)
	if err != nil {
		if IsUniqueViolation(err) {
			return domain.ErrActionCategoryExists
		}
		return fmt.Errorf("failed to update action category: %w", err)
	}
	if rows == 0 {
		return domain.ErrActionCategoryNotFound
	}
	return nil
}

func (r *ActionRepository) DeleteCategory(ctx context.Context, orgID, id uuid.UUID) error {
	res := scoped(ctx, r.db, orgID).Delete(&model.ActionCategory{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete action category: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrActionCategoryNotFound
	}
	return nil
}

func (r *ActionRepository) CountInCategory(ctx context.Context, orgID, categoryID uuid.UUID) (int64, error) {
	var count int64
	err := scoped(ctx, r.db, orgID).Model(&model.Action{}).
		Where("category_id = ?", categoryID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count category actions: %w", err)
	}
	return count, nil
}

func (r *ActionRepository) Create(ctx context.Context, action *model.Action) error {
	if err := conn(ctx, r.db).Omit("Category").Create(action).Error; err != nil {
		return fmt.Errorf("failed to create action: %w", err)
	}
	return nil
}

func (r *ActionRepository) FindByID(ctx context.Context, orgID, id uuid.UUID) (*model.Action, error) {
	var action model.Action
	if err := scoped(ctx, r.db, orgID).Preload("Category").First(&action, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrActionNotFound
		}
		return nil, fmt.Errorf("failed to find action: %w", err)
	}
	return &action, nil
}

// List returns a page of actions, most urgent due date first, and the total
// number matching f.
func (r *ActionRepository) List(ctx context.Context, orgID uuid.UUID, f ActionFilter, page Page) ([]*model.Action, int64, error) {
	q := scoped(ctx, r.db, orgID).Model(&model.Action{})
	if f.CategoryID != uuid.Nil {
		q = q.Where("category_id = ?", f.CategoryID)
	}
	if f.Priority != "" {
		q = q.Where("priority = ?", f.Priority)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.AssignedTo != uuid.Nil {
		q = q.Where("assigned_to = ?", f.AssignedTo)
	}
	if f.Search != "" {
		q = q.Where("LOWER(title) LIKE ?", likePattern(f.Search))
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count actions: %w", err)
	}

	page = page.Normalize()
	var actions []*model.Action
	err := q.Preload("Category").
		Order("CASE WHEN due_date IS NULL THEN 1 ELSE 0 END, due_date ASC, created_at DESC").
		Offset(page.Offset()).
		Limit(page.Limit).
		Find(&actions).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list actions: %w", err)
	}
	return actions, total, nil
}

// ListOverdue returns open actions whose due date is before now.
func (r *ActionRepository) ListOverdue(ctx context.Context, orgID uuid.UUID, now time.Time) ([]*model.Action, error) {
	var actions []*model.Action
	err := r.overdue(ctx, orgID, now).
		Preload("Category").
		Order("due_date ASC").
		Find(&actions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list overdue actions: %w", err)
	}
	return actions, nil
}

func (r *ActionRepository) CountOverdue(ctx context.Context, orgID uuid.UUID, now time.Time) (int, error) {
	var count int64
	if err := r.overdue(ctx, orgID, now).Model(&model.Action{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count overdue actions: %w", err)
	}
	return int(count), nil
}

func (r *ActionRepository) overdue(ctx context.Context, orgID uuid.UUID, now time.Time) *gorm.DB {
	return scoped(ctx, r.db, orgID).
		Where("status IN ?", []model.ActionStatus{model.ActionPending, model.ActionInProgress}).
		Where("due_date IS NOT NULL AND due_date < ?", now)
}

func (r *ActionRepository) Update(ctx context.Context, action *model.Action) error {
	rows, err := updateScoped(ctx, r.db, action, action.OrganizationID)
	if err != nil {
		return fmt.Errorf("failed to update action: %w", err)
	}
	if rows == 0 {
		return domain.ErrActionNotFound
	}
	return nil
}

func (r *ActionRepository) Delete(ctx context.Context, orgID, id uuid.UUID) error {
	res := scoped(ctx, r.db, orgID).Delete(&model.Action{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete action: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrActionNotFound
	}
	return nil
}

// CountByStatus returns the number of actions per status.
func (r *ActionRepository) CountByStatus(ctx context.Context, orgID uuid.UUID) (map[model.ActionStatus]int, error) {
	var rows []struct {
		Status model.ActionStatus
		Count  int
	}
	err := scoped(ctx, r.db, orgID).Model(&model.Action{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count actions by status: %w", err)
	}
	out := make(map[model.ActionStatus]int, len(rows))
	for _, row := range rows {
		out[row.Status] = row.Count
	}
	return out, nil
}

// CountByPriority returns the number of actions per priority.
func (r *ActionRepository) CountByPriority(ctx context.Context, orgID uuid.UUID) (map[model.ActionPriority]int, error) {
	var rows []struct {
		Priority model.ActionPriority
		Count    int
	}
	err := scoped(ctx, r.db, orgID).Model(&model.Action{}).
		Select("priority, COUNT(*) AS count").
		Group("priority").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count actions by priority: %w", err)
	}
	out := make(map[model.ActionPriority]int, len(rows))
	for _, row := range rows {
		out[row.Priority] = row.Count
	}
	return out, nil
}
