// internal/service/invitation.go
package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/dangerclosesec/qualitrack/internal/auth"
	"github.com/dangerclosesec/qualitrack/internal/domain"
	"github.com/dangerclosesec/qualitrack/internal/metrics"
	"github.com/dangerclosesec/qualitrack/internal/model"
	"github.com/dangerclosesec/qualitrack/internal/repository"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// DefaultInvitationTTL is how long an invitation stays acceptable.
const DefaultInvitationTTL = 7 * 24 * time.Hour

const invitationTokenBytes = 32

type InviteInput struct {
	Email           string      `json:"email" validate:"required,email,max=255"`
	Name            string      `json:"name" validate:"required,max=255"`
	IndicatorAccess []uuid.UUID `json:"indicator_access"`
	Permissions     []string    `json:"permissions" validate:"dive,oneof=read download comment"`
}

type AcceptInvitationInput struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

// InvitationLookup is what an invitee may learn from a token before
// accepting it.
type InvitationLookup struct {
	Name            string      `json:"name"`
	Email           string      `json:"email"`
	OrganizationID  uuid.UUID   `json:"organization_id"`
	IndicatorAccess []uuid.UUID `json:"indicator_access"`
	ExpiresAt       time.Time   `json:"expires_at"`
}

type AcceptedInvitation struct {
	Invitation *model.Invitation `json:"invitation"`
	UserID     uuid.UUID         `json:"user_id"`
}

type InvitationConfig struct {
	TTL     time.Duration
	BaseURL string
}

type InvitationService struct {
	tx          *repository.TxManager
	invitations *repository.InvitationRepository
	indicators  *repository.IndicatorRepository
	users       UserDirectory
	notifier    Notifier
	hasher      *auth.PasswordHasher
	clock       domain.Clock
	config      InvitationConfig
	metrics     *metrics.Metrics
	validate    *validator.Validate
}

// NewInvitationService builds the invitation lifecycle. notifier may be nil,
// in which case no mail is sent.
func NewInvitationService(
	tx *repository.TxManager,
	invitations *repository.InvitationRepository,
	indicators *repository.IndicatorRepository,
	users UserDirectory,
	notifier Notifier,
	hasher *auth.PasswordHasher,
	clock domain.Clock,
	config InvitationConfig,
	m *metrics.Metrics,
) *InvitationService {
	if config.TTL <= 0 {
		config.TTL = DefaultInvitationTTL
	}
	return &InvitationService{
		tx:          tx,
		invitations: invitations,
		indicators:  indicators,
		users:       users,
		notifier:    notifier,
		hasher:      hasher,
		clock:       clock,
		config:      config,
		metrics:     m,
		validate:    newValidator(),
	}
}

func (s *InvitationService) List(ctx context.Context, t domain.Tenant, status model.InvitationStatus) ([]*model.Invitation, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	switch status {
	case "", model.InvitationPending, model.InvitationAccepted, model.InvitationRevoked:
	default:
		return nil, domain.NewValidationError("status", "unknown invitation status")
	}
	return s.invitations.List(ctx, t.OrganizationID, status)
}

// Invite issues a new invitation. Only one pending invitation may exist per
// email within an organization; an expired one is revoked to make room.
func (s *InvitationService) Invite(ctx context.Context, t domain.Tenant, input InviteInput) (*model.Invitation, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	if err := validateInput(s.validate, input); err != nil {
		return nil, err
	}

	token, err := newInvitationToken()
	if err != nil {
		return nil, err
	}
	access := dedupeIDs(input.IndicatorAccess)
	permissions := input.Permissions
	if len(permissions) == 0 {
		permissions = []string{"read"}
	}

	inv := &model.Invitation{
		OrganizationID:  t.OrganizationID,
		Email:           strings.ToLower(strings.TrimSpace(input.Email)),
		Name:            strings.TrimSpace(input.Name),
		Token:           token,
		IndicatorAccess: access,
		Permissions:     permissions,
		InvitedBy:       t.ActorID,
		Status:          model.InvitationPending,
		ExpiresAt:       s.clock.Now().Add(s.config.TTL),
	}

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if _, err := s.invitations.RevokeExpiredFor(txCtx, t.OrganizationID, inv.Email, s.clock.Now()); err != nil {
			return err
		}
		pending, err := s.invitations.HasPending(txCtx, t.OrganizationID, inv.Email)
		if err != nil {
			return err
		}
		if pending {
			return domain.ErrInvitationPending
		}
		if len(access) > 0 {
			found, err := s.indicators.FindByIDs(txCtx, t.OrganizationID, access)
			if err != nil {
				return err
			}
			if len(found) != len(access) {
				return domain.ErrForeignIndicator
			}
		}
		return s.invitations.Create(txCtx, inv)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncrementInvitationsIssued()
	slog.InfoContext(ctx, "invitation issued",
		"organization_id", t.OrganizationID,
		"invitation_id", inv.ID,
	)
	s.notify(ctx, inv)
	return inv, nil
}

// Lookup describes a pending, unexpired invitation to its holder.
func (s *InvitationService) Lookup(ctx context.Context, token string) (*InvitationLookup, error) {
	if token == "" {
		return nil, domain.NewValidationError("token", "is required")
	}
	inv, err := s.invitations.FindByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if err := s.checkAcceptable(inv); err != nil {
		return nil, err
	}
	return &InvitationLookup{
		Name:            inv.Name,
		Email:           inv.Email,
		OrganizationID:  inv.OrganizationID,
		IndicatorAccess: inv.IndicatorAccess,
		ExpiresAt:       inv.ExpiresAt,
	}, nil
}

// Accept consumes an invitation and creates the invitee's restricted account
// in the same transaction. A token can be accepted once.
func (s *InvitationService) Accept(ctx context.Context, input AcceptInvitationInput) (*AcceptedInvitation, error) {
	if err := validateInput(s.validate, input); err != nil {
		return nil, err
	}

	inv, err := s.invitations.FindByToken(ctx, input.Token)
	if err != nil {
		return nil, err
	}
	if err := s.checkAcceptable(inv); err != nil {
		return nil, err
	}

	// Hash outside the transaction; argon2 is deliberately slow.
	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	var userID uuid.UUID
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		current, err := s.invitations.FindByToken(txCtx, input.Token)
		if err != nil {
			return err
		}
		if err := s.checkAcceptable(current); err != nil {
			return err
		}

		userID, err = s.users.CreateRestrictedUser(txCtx, domain.RestrictedUser{
			Name:            current.Name,
			Email:           current.Email,
			PasswordHash:    hash,
			OrganizationID:  current.OrganizationID,
			Role:            model.RoleAuditor,
			IndicatorAccess: current.IndicatorAccess,
			Permissions:     current.Permissions,
		})
		if err != nil {
			return fmt.Errorf("creating invited user: %w", err)
		}

		accepted, err := s.invitations.MarkAccepted(txCtx, current.ID, userID, s.clock.Now())
		if err != nil {
			return err
		}
		if !accepted {
			return domain.ErrInvitationUsed
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	inv.Status = model.InvitationAccepted
	inv.AcceptedUserID = &userID
	inv.AcceptedAt = &now

	s.metrics.IncrementInvitationsAccepted()
	slog.InfoContext(ctx, "invitation accepted",
		"organization_id", inv.OrganizationID,
		"invitation_id", inv.ID,
		"user_id", userID,
	)
	return &AcceptedInvitation{Invitation: inv, UserID: userID}, nil
}

// Revoke closes a pending invitation.
func (s *InvitationService) Revoke(ctx context.Context, t domain.Tenant, id uuid.UUID) (*model.Invitation, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	inv, err := s.invitations.FindByID(ctx, t.OrganizationID, id)
	if err != nil {
		return nil, err
	}
	if inv.Status != model.InvitationPending {
		return nil, domain.ErrInvitationClosed
	}

	now := s.clock.Now()
	revoked, err := s.invitations.MarkRevoked(ctx, t.OrganizationID, id, now)
	if err != nil {
		return nil, err
	}
	if !revoked {
		return nil, domain.ErrInvitationClosed
	}
	inv.Status = model.InvitationRevoked
	inv.RevokedAt = &now
	return inv, nil
}

// Resend extends a pending invitation by a full TTL from now and mails it
// again.
func (s *InvitationService) Resend(ctx context.Context, t domain.Tenant, id uuid.UUID) (*model.Invitation, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	inv, err := s.invitations.FindByID(ctx, t.OrganizationID, id)
	if err != nil {
		return nil, err
	}
	if inv.Status != model.InvitationPending {
		return nil, domain.ErrInvitationClosed
	}

	expiresAt := s.clock.Now().Add(s.config.TTL)
	extended, err := s.invitations.ExtendExpiry(ctx, t.OrganizationID, id, expiresAt)
	if err != nil {
		return nil, err
	}
	if !extended {
		return nil, domain.ErrInvitationClosed
	}
	inv.ExpiresAt = expiresAt

	s.notify(ctx, inv)
	return inv, nil
}

// checkAcceptable orders the guards so a consumed invitation reports a
// conflict even after it would have expired.
func (s *InvitationService) checkAcceptable(inv *model.Invitation) error {
	if inv.Status != model.InvitationPending {
		return domain.ErrInvitationUsed
	}
	if inv.IsExpired(s.clock.Now()) {
		return domain.ErrInvitationExpired
	}
	return nil
}

func (s *InvitationService) notify(ctx context.Context, inv *model.Invitation) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.SendInvitation(ctx, inv, s.acceptURL(inv.Token)); err != nil {
		s.metrics.IncrementBestEffortFailure("invitation_mail")
		slog.WarnContext(ctx, "failed to send invitation",
			"invitation_id", inv.ID,
			"error", err,
		)
	}
}

func (s *InvitationService) acceptURL(token string) string {
	return strings.TrimRight(s.config.BaseURL, "/") + "/invitations/accept?token=" + url.QueryEscape(token)
}

func newInvitationToken() (string, error) {
	b := make([]byte, invitationTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating invitation token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
