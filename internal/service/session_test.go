package service_test

import (
	"time"

	"github.com/dangerclosesec/qualitrack/internal/domain"
	"github.com/dangerclosesec/qualitrack/internal/model"
	"github.com/dangerclosesec/qualitrack/internal/service"
	"github.com/google/uuid"
)

// createUser stores an account with password "correct horse" and binds it
// to each of orgs with role.
func (s *ServiceSuite) createUser(email string, status model.UserStatus, role string, orgs ...uuid.UUID) *model.User {
	hash, err := fastHasher().Hash("correct horse")
	s.Require().NoError(err)

	user := &model.User{Email: email, Name: "Camille Martin", PasswordHash: hash, Status: status}
	s.Require().NoError(s.db.Create(user).Error)
	for _, org := range orgs {
		s.Require().NoError(s.db.Create(&model.OrganizationUser{
			OrganizationID: org,
			UserID:         user.ID,
			Role:           role,
		}).Error)
	}
	return user
}

func (s *ServiceSuite) TestLogin_IssuesTenantToken() {
	user := s.createUser("camille@example.fr", model.StatusActive, model.RoleAdmin, s.tenant.OrganizationID)

	out, err := s.app.Sessions.Login(s.ctx, service.LoginInput{Email: "Camille@Example.fr", Password: "correct horse"})
	s.Require().NoError(err)
	s.Equal(s.tenant.OrganizationID, out.OrganizationID)
	s.Equal(model.RoleAdmin, out.Role)
	s.Equal(user.ID, out.User.ID)
	s.Equal(testNow.Add(time.Hour), out.ExpiresAt)

	claims, err := s.app.Tokens.Validate(out.Token)
	s.Require().NoError(err)
	tenant := claims.Tenant()
	s.Equal(s.tenant.OrganizationID, tenant.OrganizationID)
	s.Equal(user.ID, tenant.ActorID)
	s.Equal(model.RoleAdmin, tenant.Role)
}

func (s *ServiceSuite) TestLogin_RejectsBadCredentials() {
	s.createUser("active@example.fr", model.StatusActive, model.RoleMember, s.tenant.OrganizationID)
	s.createUser("suspended@example.fr", model.StatusSuspended, model.RoleMember, s.tenant.OrganizationID)

	cases := []service.LoginInput{
		{Email: "nobody@example.fr", Password: "correct horse"},
		{Email: "active@example.fr", Password: "battery staple"},
		{Email: "suspended@example.fr", Password: "correct horse"},
	}
	for _, in := range cases {
		_, err := s.app.Sessions.Login(s.ctx, in)
		s.ErrorIs(err, domain.ErrInvalidCredentials, in.Email)
	}

	_, err := s.app.Sessions.Login(s.ctx, service.LoginInput{Email: "not-an-email", Password: "x"})
	s.Equal(domain.KindValidation, domain.KindOf(err))
}

func (s *ServiceSuite) TestLogin_SeveralOrganizations() {
	other := s.otherTenant()
	s.createUser("consultant@example.fr", model.StatusActive, model.RoleMember, s.tenant.OrganizationID, other.OrganizationID)

	_, err := s.app.Sessions.Login(s.ctx, service.LoginInput{Email: "consultant@example.fr", Password: "correct horse"})
	s.ErrorIs(err, domain.ErrAmbiguousOrg)

	org := other.OrganizationID
	out, err := s.app.Sessions.Login(s.ctx, service.LoginInput{
		Email:          "consultant@example.fr",
		Password:       "correct horse",
		OrganizationID: &org,
	})
	s.Require().NoError(err)
	s.Equal(org, out.OrganizationID)

	stranger := uuid.New()
	_, err = s.app.Sessions.Login(s.ctx, service.LoginInput{
		Email:          "consultant@example.fr",
		Password:       "correct horse",
		OrganizationID: &stranger,
	})
	s.ErrorIs(err, domain.ErrMembershipNotFound)
}

func (s *ServiceSuite) TestLogin_NoMembership() {
	s.createUser("orphan@example.fr", model.StatusActive, model.RoleMember)

	_, err := s.app.Sessions.Login(s.ctx, service.LoginInput{Email: "orphan@example.fr", Password: "correct horse"})
	s.Equal(domain.KindNotFound, domain.KindOf(err))
}
