// internal/model/invitation.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "pending"
	InvitationAccepted InvitationStatus = "accepted"
	InvitationRevoked  InvitationStatus = "revoked"
)

// Invitation grants a named external collaborator time-boxed read access.
// Only one pending invitation may exist per (organization_id, email).
type Invitation struct {
	ID              uuid.UUID                      `gorm:"type:uuid;primaryKey" json:"id"`
	OrganizationID  uuid.UUID                      `gorm:"type:uuid;not null;index;uniqueIndex:idx_invitations_pending,where:status = 'pending'" json:"organization_id"`
	Email           string                         `gorm:"type:text;not null;uniqueIndex:idx_invitations_pending" json:"email"`
	Name            string                         `gorm:"type:text;not null" json:"name"`
	Token           string                         `gorm:"type:text;not null;uniqueIndex" json:"-"`
	IndicatorAccess datatypes.JSONSlice[uuid.UUID] `json:"indicator_access"`
	Permissions     datatypes.JSONSlice[string]    `json:"permissions"`
	InvitedBy       uuid.UUID                      `gorm:"type:uuid" json:"invited_by"`
	Status          InvitationStatus               `gorm:"type:text;not null;default:'pending';index" json:"status"`
	ExpiresAt       time.Time                      `gorm:"not null" json:"expires_at"`
	AcceptedUserID  *uuid.UUID                     `gorm:"type:uuid" json:"accepted_user_id,omitempty"`
	AcceptedAt      *time.Time                     `json:"accepted_at,omitempty"`
	RevokedAt       *time.Time                     `json:"revoked_at,omitempty"`
	CreatedAt       time.Time                      `json:"created_at"`
	UpdatedAt       time.Time                      `json:"updated_at"`
}

func (i *Invitation) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	if i.Status == "" {
		i.Status = InvitationPending
	}
	return nil
}

// IsExpired reports whether the invitation can no longer be accepted at now.
func (i *Invitation) IsExpired(now time.Time) bool {
	return !i.ExpiresAt.After(now)
}
