// internal/model/user.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type UserStatus string

const (
	StatusPending   UserStatus = "pending"
	StatusActive    UserStatus = "active"
	StatusSuspended UserStatus = "suspended"
)

// Roles carried in actor tokens.
const (
	RoleAdmin   = "admin"
	RoleMember  = "member"
	RoleAuditor = "auditor"
)

type User struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Email        string     `gorm:"type:text;uniqueIndex;not null" json:"email"`
	Name         string     `gorm:"type:text;not null" json:"name"`
	PasswordHash string     `gorm:"type:text" json:"-"`
	Status       UserStatus `gorm:"type:text;not null;default:'pending'" json:"status"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.Status == "" {
		u.Status = StatusPending
	}
	return nil
}

// OrganizationUser binds a user to an organization with a role. Restricted
// members carry the indicators they may read.
type OrganizationUser struct {
	OrganizationID  uuid.UUID                      `gorm:"type:uuid;primaryKey" json:"organization_id"`
	UserID          uuid.UUID                      `gorm:"type:uuid;primaryKey" json:"user_id"`
	Role            string                         `gorm:"type:text;not null" json:"role"`
	IndicatorAccess datatypes.JSONSlice[uuid.UUID] `json:"indicator_access,omitempty"`
	Permissions     datatypes.JSONSlice[string]    `json:"permissions,omitempty"`
	CreatedAt       time.Time                      `json:"created_at"`
}
