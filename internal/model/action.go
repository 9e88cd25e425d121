// internal/model/action.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ActionPriority string

const (
	PriorityLow    ActionPriority = "Low"
	PriorityMedium ActionPriority = "Medium"
	PriorityHigh   ActionPriority = "High"
)

type ActionStatus string

const (
	ActionPending    ActionStatus = "pending"
	ActionInProgress ActionStatus = "in_progress"
	ActionCompleted  ActionStatus = "completed"
	ActionCancelled  ActionStatus = "cancelled"
)

// Open reports whether an action in this status still counts toward overdue.
func (s ActionStatus) Open() bool {
	return s == ActionPending || s == ActionInProgress
}

type ActionCategory struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	OrganizationID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_action_categories_org_label,priority:1" json:"organization_id"`
	Label          string    `gorm:"type:text;not null;uniqueIndex:idx_action_categories_org_label,priority:2" json:"label"`
	Color          string    `gorm:"type:text" json:"color"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (c *ActionCategory) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// Action is a corrective action ticket.
type Action struct {
	ID             uuid.UUID                   `gorm:"type:uuid;primaryKey" json:"id"`
	OrganizationID uuid.UUID                   `gorm:"type:uuid;not null;index" json:"organization_id"`
	CategoryID     uuid.UUID                   `gorm:"type:uuid;not null;index" json:"category_id"`
	Subcategory    string                      `gorm:"type:text" json:"subcategory"`
	Priority       ActionPriority              `gorm:"type:text;not null;default:'Medium'" json:"priority"`
	Title          string                      `gorm:"type:text;not null" json:"title"`
	Description    string                      `gorm:"type:text" json:"description"`
	Status         ActionStatus                `gorm:"type:text;not null;default:'pending';index" json:"status"`
	AssignedTo     *uuid.UUID                  `gorm:"type:uuid;index" json:"assigned_to"`
	DueDate        *time.Time                  `json:"due_date"`
	Tags           datatypes.JSONSlice[string] `json:"tags"`
	CreatedBy      uuid.UUID                   `gorm:"type:uuid" json:"created_by"`
	CreatedAt      time.Time                   `json:"created_at"`
	UpdatedAt      time.Time                   `json:"updated_at"`

	Category *ActionCategory `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
}

func (a *Action) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// IsOverdue reports whether the action is still open past its due date.
func (a *Action) IsOverdue(now time.Time) bool {
	return a.Status.Open() && a.DueDate != nil && a.DueDate.Before(now)
}
