// internal/repository/invitation.go
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

type InvitationRepository struct {
	db *gorm.DB
}

func NewInvitationRepository(db *gorm.DB) *InvitationRepository {
	return &InvitationRepository{db: db}
}

func (r *InvitationRepository) Create(ctx context.Context, inv *model.Invitation) error {
	if err := conn(ctx, r.db).Create(inv).Error; err != nil {
		if IsUniqueViolation(err) {
			return domain.ErrInvitationPending
		}
		return fmt.Errorf("failed to create invitation: %w", err)
	}
	return nil
}

func (r *InvitationRepository) FindByID(ctx context.Context, orgID, id uuid.UUID) (*model.Invitation, error) {
	var inv model.Invitation
	if err := scoped(ctx, r.db, orgID).First(&inv, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrInvitationNotFound
		}
		return nil, fmt.Errorf("failed to find invitation: %w", err)
	}
	return &inv, nil
}

// FindByToken resolves an invitation across organizations. The token is the
// only credential an invitee holds.
func (r *InvitationRepository) FindByToken(ctx context.Context, token string) (*model.Invitation, error) {
	var inv model.Invitation
	if err := conn(ctx, r.db).First(&inv, "token = ?", token).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrInvitationNotFound
		}
		return nil, fmt.Errorf("failed to find invitation: %w", err)
	}
	return &inv, nil
}

func (r *InvitationRepository) HasPending(ctx context.Context, orgID uuid.UUID, email string) (bool, error) {
	var count int64
	err := scoped(ctx, r.db, orgID).Model(&model.Invitation{}).
		Where("email = ? AND status = ?", email, model.InvitationPending).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check pending invitation: %w", err)
	}
	return count > 0, nil
}

// List returns invitations newest first, optionally restricted to a status.
func (r *InvitationRepository) List(ctx context.Context, orgID uuid.UUID, status model.InvitationStatus) ([]*model.Invitation, error) {
	q := scoped(ctx, r.db, orgID)
	if status != "" {
		q = q.Where("status = ?", status)
	}

	var invs []*model.Invitation
	if err := q.Order("created_at DESC").Find(&invs).Error; err != nil {
		return nil, fmt.Errorf("failed to list invitations: %w", err)
	}
	return invs, nil
}

// MarkAccepted moves a pending invitation to accepted. It reports false when
// another caller already consumed it.
func (r *InvitationRepository) MarkAccepted(ctx context.Context, id, userID uuid.UUID, at time.Time) (bool, error) {
	res := conn(ctx, r.db).Model(&model.Invitation{}).
		Where("id = ? AND status = ?", id, model.InvitationPending).
		Updates(map[string]any{
			"status":           model.InvitationAccepted,
			"accepted_user_id": userID,
			"accepted_at":      at,
		})
	if res.Error != nil {
		return false, fmt.Errorf("failed to accept invitation: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// MarkRevoked moves a pending invitation to revoked.
func (r *InvitationRepository) MarkRevoked(ctx context.Context, orgID, id uuid.UUID, at time.Time) (bool, error) {
	res := scoped(ctx, r.db, orgID).Model(&model.Invitation{}).
		Where("id = ? AND status = ?", id, model.InvitationPending).
		Updates(map[string]any{
			"status":     model.InvitationRevoked,
			"revoked_at": at,
		})
	if res.Error != nil {
		return false, fmt.Errorf("failed to revoke invitation: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// RevokeExpiredFor revokes the pending invitations for email that expired at
// or before now.
func (r *InvitationRepository) RevokeExpiredFor(ctx context.Context, orgID uuid.UUID, email string, now time.Time) (int64, error) {
	res := scoped(ctx, r.db, orgID).Model(&model.Invitation{}).
		Where("email = ? AND status = ? AND expires_at <= ?", email, model.InvitationPending, now).
		Updates(map[string]any{
			"status":     model.InvitationRevoked,
			"revoked_at": now,
		})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to revoke expired invitations: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// ExtendExpiry pushes back the expiry of a pending invitation.
func (r *InvitationRepository) ExtendExpiry(ctx context.Context, orgID, id uuid.UUID, expiresAt time.Time) (bool, error) {
	res := scoped(ctx, r.db, orgID).Model(&model.Invitation{}).
		Where("id = ? AND status = ?", id, model.InvitationPending).
		Update("expires_at", expiresAt)
	if res.Error != nil {
		return false, fmt.Errorf("failed to extend invitation: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *InvitationRepository) CountPending(ctx context.Context, orgID uuid.UUID) (int, error) {
	var count int64
	err := scoped(ctx, r.db, orgID).Model(&model.Invitation{}).
		Where("status = ?", model.InvitationPending).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count pending invitations: %w", err)
	}
	return int(count), nil
}
