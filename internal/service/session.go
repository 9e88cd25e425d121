// internal/service/session.go
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/dangerclosesec/qualitrack/internal/auth"
	"github.com/dangerclosesec/qualitrack/internal/domain"
	"github.com/dangerclosesec/qualitrack/internal/model"
	"github.com/dangerclosesec/qualitrack/internal/repository"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type LoginInput struct {
	Email          string     `json:"email" validate:"required,email"`
	Password       string     `json:"password" validate:"required"`
	OrganizationID *uuid.UUID `json:"organization_id"`
}

type LoginOutput struct {
	Token          string      `json:"token"`
	ExpiresAt      time.Time   `json:"expires_at"`
	User           *model.User `json:"user"`
	OrganizationID uuid.UUID   `json:"organization_id"`
	Role           string      `json:"role"`
}

// SessionService exchanges credentials for an organization-bound token.
type SessionService struct {
	users          *repository.UserRepository
	organizations  *repository.OrganizationRepository
	passwordHasher *auth.PasswordHasher
	tokenManager   *auth.TokenManager
	expiry         time.Duration
	clock          domain.Clock
	validate       *validator.Validate
}

func NewSessionService(
	users *repository.UserRepository,
	organizations *repository.OrganizationRepository,
	passwordHasher *auth.PasswordHasher,
	tokenManager *auth.TokenManager,
	expiry time.Duration,
	clock domain.Clock,
) *SessionService {
	return &SessionService{
		users:          users,
		organizations:  organizations,
		passwordHasher: passwordHasher,
		tokenManager:   tokenManager,
		expiry:         expiry,
		clock:          clock,
		validate:       newValidator(),
	}
}

// Login verifies the password and issues a token for one of the user's
// organizations. Unknown emails and wrong passwords are indistinguishable.
func (s *SessionService) Login(ctx context.Context, input LoginInput) (*LoginOutput, error) {
	if err := validateInput(s.validate, input); err != nil {
		return nil, err
	}

	user, err := s.users.FindByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}
	if user.Status != model.StatusActive || user.PasswordHash == "" {
		return nil, domain.ErrInvalidCredentials
	}

	valid, err := s.passwordHasher.Verify(input.Password, user.PasswordHash)
	if err != nil {
		slog.WarnContext(ctx, "stored password hash is unreadable", "user_id", user.ID, "error", err)
		return nil, domain.ErrInvalidCredentials
	}
	if !valid {
		return nil, domain.ErrInvalidCredentials
	}

	member, err := s.membership(ctx, user.ID, input.OrganizationID)
	if err != nil {
		return nil, err
	}

	// Only auditor grants narrow the catalog.
	var access []uuid.UUID
	if member.Role == model.RoleAuditor {
		access = member.IndicatorAccess
	}
	token, err := s.tokenManager.Generate(user.ID, member.OrganizationID, member.Role, access...)
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "session issued",
		"user_id", user.ID,
		"organization_id", member.OrganizationID,
		"role", member.Role,
	)
	return &LoginOutput{
		Token:          token,
		ExpiresAt:      s.clock.Now().Add(s.expiry),
		User:           user,
		OrganizationID: member.OrganizationID,
		Role:           member.Role,
	}, nil
}

func (s *SessionService) membership(ctx context.Context, userID uuid.UUID, orgID *uuid.UUID) (*model.OrganizationUser, error) {
	if orgID != nil {
		return s.organizations.FindMembership(ctx, *orgID, userID)
	}
	members, err := s.organizations.ListMemberships(ctx, userID)
	if err != nil {
		return nil, err
	}
	switch len(members) {
	case 0:
		return nil, domain.ErrMembershipNotFound
	case 1:
		return members[0], nil
	default:
		return nil, domain.ErrAmbiguousOrg
	}
}
