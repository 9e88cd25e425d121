// internal/model/task.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type TaskStatus string

const (
	TaskTodo       TaskStatus = "todo"
	TaskInProgress TaskStatus = "in_progress"
	TaskDone       TaskStatus = "done"
	TaskArchived   TaskStatus = "archived"
)

type TaskPriority string

const (
	TaskLow    TaskPriority = "low"
	TaskMedium TaskPriority = "medium"
	TaskHigh   TaskPriority = "high"
	TaskUrgent TaskPriority = "urgent"
)

type TaskCategoryType string

const (
	CategoryVeille            TaskCategoryType = "veille"
	CategoryCompetence        TaskCategoryType = "competence"
	CategoryDysfonctionnement TaskCategoryType = "dysfonctionnement"
	CategoryAmelioration      TaskCategoryType = "amelioration"
	CategoryHandicap          TaskCategoryType = "handicap"
	CategoryCustom            TaskCategoryType = "custom"
)

// TaskCategory groups tasks on the board. System categories are seeded once
// per organization and are immutable afterwards.
type TaskCategory struct {
	ID             uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	OrganizationID uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:idx_task_categories_org_slug,priority:1" json:"organization_id"`
	Name           string           `gorm:"type:text;not null" json:"name"`
	Slug           string           `gorm:"type:text;not null;uniqueIndex:idx_task_categories_org_slug,priority:2" json:"slug"`
	Type           TaskCategoryType `gorm:"type:text;not null" json:"type"`
	Color          string           `gorm:"type:text" json:"color"`
	Icon           string           `gorm:"type:text" json:"icon"`
	IsSystem       bool             `gorm:"not null;default:false" json:"is_system"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

func (c *TaskCategory) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

type ChecklistItem struct {
	Label string `json:"label"`
	Done  bool   `json:"done"`
}

// Task is a card on the Kanban board. Position orders tasks within a
// category; RankInBatch breaks position ties by reorder submission order.
type Task struct {
	ID             uuid.UUID                          `gorm:"type:uuid;primaryKey" json:"id"`
	OrganizationID uuid.UUID                          `gorm:"type:uuid;not null;index" json:"organization_id"`
	CategoryID     uuid.UUID                          `gorm:"type:uuid;not null;index" json:"category_id"`
	Title          string                             `gorm:"type:text;not null" json:"title"`
	Description    string                             `gorm:"type:text" json:"description"`
	Status         TaskStatus                         `gorm:"type:text;not null;default:'todo';index" json:"status"`
	Priority       TaskPriority                       `gorm:"type:text;not null;default:'medium'" json:"priority"`
	DueDate        *time.Time                         `json:"due_date"`
	AssignedTo     *uuid.UUID                         `gorm:"type:uuid" json:"assigned_to"`
	Attachments    datatypes.JSONSlice[string]        `json:"attachments"`
	Checklist      datatypes.JSONSlice[ChecklistItem] `json:"checklist"`
	Notes          string                             `gorm:"type:text" json:"notes"`
	Position       int                                `gorm:"not null;default:0" json:"position"`
	RankInBatch    int                                `gorm:"not null;default:0" json:"-"`
	CreatedBy      uuid.UUID                          `gorm:"type:uuid" json:"created_by"`
	CreatedAt      time.Time                          `json:"created_at"`
	UpdatedAt      time.Time                          `json:"updated_at"`

	Category *TaskCategory `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
}

func (t *Task) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// IsOverdue reports whether the task is unfinished past its due date.
func (t *Task) IsOverdue(now time.Time) bool {
	if t.DueDate == nil || t.Status == TaskDone || t.Status == TaskArchived {
		return false
	}
	return t.DueDate.Before(now)
}

// ChecklistProgress returns the done and total checklist item counts.
func (t *Task) ChecklistProgress() (done, total int) {
	for _, item := range t.Checklist {
		if item.Done {
			done++
		}
	}
	return done, len(t.Checklist)
}
