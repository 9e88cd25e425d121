package service_test

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dangerclosesec/qualitrack/internal/domain"
	"github.com/dangerclosesec/qualitrack/internal/mocks"
	"github.com/dangerclosesec/qualitrack/internal/model"
	"github.com/dangerclosesec/qualitrack/internal/repository"
	"github.com/dangerclosesec/qualitrack/internal/service"
	"github.com/google/uuid"
	"go.uber.org/mock/gomock"
)

func (s *ServiceSuite) invite(email string, access ...uuid.UUID) *model.Invitation {
	inv, err := s.app.Invitations.Invite(s.ctx, s.tenant, service.InviteInput{
		Email:           email,
		Name:            "Claire Auditrice",
		IndicatorAccess: access,
	})
	s.Require().NoError(err)
	return inv
}

func (s *ServiceSuite) TestInvitations_IssueDefaults() {
	s.seed(s.tenant)
	inv := s.invite("  Claire@Certif.Example ", s.indicator(1).ID, s.indicator(1).ID)

	s.Equal("claire@certif.example", inv.Email)
	s.Equal(model.InvitationPending, inv.Status)
	s.Len(inv.Token, 64)
	s.Equal([]string{"read"}, []string(inv.Permissions))
	s.Len(inv.IndicatorAccess, 1)
	s.True(inv.ExpiresAt.Equal(testNow.Add(service.DefaultInvitationTTL)))
}

func (s *ServiceSuite) TestInvitations_OnePendingPerEmail() {
	s.invite("claire@certif.example")

	_, err := s.app.Invitations.Invite(s.ctx, s.tenant, service.InviteInput{Email: "CLAIRE@certif.example", Name: "Claire"})
	s.Require().ErrorIs(err, domain.ErrInvitationPending)
	s.Equal(domain.KindConflict, domain.KindOf(err))

	_, err = s.app.Invitations.Invite(s.ctx, s.otherTenant(), service.InviteInput{Email: "claire@certif.example", Name: "Claire"})
	s.Require().NoError(err)
}

func (s *ServiceSuite) TestInvitations_RejectsForeignIndicatorsAndBadPermissions() {
	s.seed(s.tenant)

	_, err := s.app.Invitations.Invite(s.ctx, s.tenant, service.InviteInput{
		Email:           "a@b.example",
		Name:            "A",
		IndicatorAccess: []uuid.UUID{uuid.New()},
	})
	s.Require().ErrorIs(err, domain.ErrForeignIndicator)

	_, err = s.app.Invitations.Invite(s.ctx, s.tenant, service.InviteInput{
		Email:       "a@b.example",
		Name:        "A",
		Permissions: []string{"write"},
	})
	s.Equal(domain.KindValidation, domain.KindOf(err))
}

func (s *ServiceSuite) TestInvitations_AcceptOnce() {
	s.seed(s.tenant)
	inv := s.invite("claire@certif.example", s.indicator(3).ID)

	lookup, err := s.app.Invitations.Lookup(s.ctx, inv.Token)
	s.Require().NoError(err)
	s.Equal(inv.Email, lookup.Email)
	s.Equal(s.tenant.OrganizationID, lookup.OrganizationID)

	accepted, err := s.app.Invitations.Accept(s.ctx, service.AcceptInvitationInput{Token: inv.Token, Password: "motdepasse-solide"})
	s.Require().NoError(err)
	s.NotEqual(uuid.Nil, accepted.UserID)
	s.Equal(model.InvitationAccepted, accepted.Invitation.Status)

	var member model.OrganizationUser
	s.Require().NoError(s.db.Where("organization_id = ? AND user_id = ?", s.tenant.OrganizationID, accepted.UserID).First(&member).Error)
	s.Equal(model.RoleAuditor, member.Role)
	s.Equal([]uuid.UUID{s.indicator(3).ID}, []uuid.UUID(member.IndicatorAccess))

	_, err = s.app.Invitations.Accept(s.ctx, service.AcceptInvitationInput{Token: inv.Token, Password: "motdepasse-solide"})
	s.Require().ErrorIs(err, domain.ErrInvitationUsed)
	s.Equal(domain.KindConflict, domain.KindOf(err))

	_, err = s.app.Invitations.Lookup(s.ctx, inv.Token)
	s.Require().ErrorIs(err, domain.ErrInvitationUsed)

	// The invitee can now open a read-only session.
	session, err := s.app.Sessions.Login(s.ctx, service.LoginInput{Email: inv.Email, Password: "motdepasse-solide"})
	s.Require().NoError(err)
	s.Equal(model.RoleAuditor, session.Role)
	s.Equal(s.tenant.OrganizationID, session.OrganizationID)
}

func (s *ServiceSuite) TestInvitations_ExpiredCannotBeAccepted() {
	inv := s.invite("late@certif.example")
	s.clock.Advance(service.DefaultInvitationTTL + time.Minute)

	_, err := s.app.Invitations.Accept(s.ctx, service.AcceptInvitationInput{Token: inv.Token, Password: "motdepasse-solide"})
	s.Require().ErrorIs(err, domain.ErrInvitationExpired)
	s.Equal(domain.KindExpired, domain.KindOf(err))

	var users int64
	s.Require().NoError(s.db.Model(&model.User{}).Count(&users).Error)
	s.Zero(users)
}

func (s *ServiceSuite) TestInvitations_ReinviteAfterExpiry() {
	stale := s.invite("late@certif.example")
	s.clock.Advance(service.DefaultInvitationTTL + time.Minute)

	fresh := s.invite("late@certif.example")
	s.NotEqual(stale.ID, fresh.ID)
	s.Equal(model.InvitationPending, fresh.Status)

	var old model.Invitation
	s.Require().NoError(s.db.First(&old, "id = ?", stale.ID).Error)
	s.Equal(model.InvitationRevoked, old.Status)

	_, err := s.app.Invitations.Accept(s.ctx, service.AcceptInvitationInput{Token: stale.Token, Password: "motdepasse-solide"})
	s.Require().ErrorIs(err, domain.ErrInvitationUsed)
	_, err = s.app.Invitations.Accept(s.ctx, service.AcceptInvitationInput{Token: fresh.Token, Password: "motdepasse-solide"})
	s.Require().NoError(err)
}

func (s *ServiceSuite) TestInvitations_UnknownToken() {
	_, err := s.app.Invitations.Accept(s.ctx, service.AcceptInvitationInput{Token: "nope", Password: "motdepasse-solide"})
	s.Require().ErrorIs(err, domain.ErrInvitationNotFound)

	_, err = s.app.Invitations.Accept(s.ctx, service.AcceptInvitationInput{Token: "nope", Password: "court"})
	s.Equal(domain.KindValidation, domain.KindOf(err))
}

func (s *ServiceSuite) TestInvitations_RevokeAndResend() {
	inv := s.invite("claire@certif.example")
	s.clock.Advance(3 * 24 * time.Hour)

	resent, err := s.app.Invitations.Resend(s.ctx, s.tenant, inv.ID)
	s.Require().NoError(err)
	s.True(resent.ExpiresAt.Equal(s.clock.Now().Add(service.DefaultInvitationTTL)))

	revoked, err := s.app.Invitations.Revoke(s.ctx, s.tenant, inv.ID)
	s.Require().NoError(err)
	s.Equal(model.InvitationRevoked, revoked.Status)

	_, err = s.app.Invitations.Revoke(s.ctx, s.tenant, inv.ID)
	s.Require().ErrorIs(err, domain.ErrInvitationClosed)
	_, err = s.app.Invitations.Resend(s.ctx, s.tenant, inv.ID)
	s.Require().ErrorIs(err, domain.ErrInvitationClosed)

	_, err = s.app.Invitations.Accept(s.ctx, service.AcceptInvitationInput{Token: inv.Token, Password: "motdepasse-solide"})
	s.Require().ErrorIs(err, domain.ErrInvitationUsed)

	pending, err := s.app.Invitations.List(s.ctx, s.tenant, model.InvitationPending)
	s.Require().NoError(err)
	s.Empty(pending)

	_, err = s.app.Invitations.List(s.ctx, s.tenant, "lost")
	s.Equal(domain.KindValidation, domain.KindOf(err))

	// A revoked invitation frees the email for a new one.
	s.invite("claire@certif.example")
}

func (s *ServiceSuite) newInvitationService(users service.UserDirectory, notifier service.Notifier) *service.InvitationService {
	return service.NewInvitationService(
		repository.NewTxManager(s.db),
		repository.NewInvitationRepository(s.db),
		repository.NewIndicatorRepository(s.db),
		users,
		notifier,
		fastHasher(),
		s.clock,
		service.InvitationConfig{TTL: 48 * time.Hour, BaseURL: "https://app.example/"},
		nil,
	)
}

func (s *ServiceSuite) TestInvitations_MailFailureDoesNotFailInvite() {
	ctrl := gomock.NewController(s.T())
	notifier := mocks.NewMockNotifier(ctrl)
	invitations := s.newInvitationService(repository.NewUserRepository(s.db), notifier)

	notifier.EXPECT().SendInvitation(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, inv *model.Invitation, acceptURL string) error {
			s.True(strings.HasPrefix(acceptURL, "https://app.example/invitations/accept?token="))
			s.True(strings.HasSuffix(acceptURL, inv.Token))
			return errors.New("smtp unavailable")
		})

	inv, err := invitations.Invite(s.ctx, s.tenant, service.InviteInput{Email: "x@y.example", Name: "X"})
	s.Require().NoError(err)
	s.True(inv.ExpiresAt.Equal(testNow.Add(48 * time.Hour)))
}

func (s *ServiceSuite) TestInvitations_AcceptRollsBackWhenAccountFails() {
	ctrl := gomock.NewController(s.T())
	users := mocks.NewMockUserDirectory(ctrl)
	invitations := s.newInvitationService(users, nil)

	inv, err := invitations.Invite(s.ctx, s.tenant, service.InviteInput{Email: "x@y.example", Name: "X"})
	s.Require().NoError(err)

	users.EXPECT().CreateRestrictedUser(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, in domain.RestrictedUser) (uuid.UUID, error) {
			s.Equal(model.RoleAuditor, in.Role)
			s.Equal(s.tenant.OrganizationID, in.OrganizationID)
			s.NotEmpty(in.PasswordHash)
			return uuid.Nil, errors.New("directory down")
		})

	_, err = invitations.Accept(s.ctx, service.AcceptInvitationInput{Token: inv.Token, Password: "motdepasse-solide"})
	s.Require().Error(err)

	still, err := invitations.Lookup(s.ctx, inv.Token)
	s.Require().NoError(err)
	s.Equal(inv.Email, still.Email)
}
