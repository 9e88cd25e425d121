package service_test

import (
	"encoding/json"
	"time"

	"github.com/dangerclosesec/qualitrack/internal/domain"
	"github.com/dangerclosesec/qualitrack/internal/model"
	"github.com/dangerclosesec/qualitrack/internal/repository"
	"github.com/dangerclosesec/qualitrack/internal/service"
	"github.com/google/uuid"
)

// Records of one organization must look absent to every other one.
func (s *ServiceSuite) TestTenantIsolation() {
	s.seed(s.tenant)
	other := s.otherTenant()
	s.seed(other)

	ind := s.indicator(1)
	doc := s.createDocument(model.DocumentProcedure, ind.ID)
	action, err := s.app.Actions.Create(s.ctx, s.tenant, service.CreateActionInput{Category: "Réclamation", Title: "Répondre"})
	s.Require().NoError(err)
	task := s.createTask("veille", "Lire le BO")
	audit := s.scheduleAudit(model.AuditSurveillance, testNow.AddDate(0, 1, 0))
	bpf := s.createBPF(2025, `{}`)
	inv := s.invite("claire@certif.example", ind.ID)

	title := "Renamed"
	notFound := func(err error) {
		s.T().Helper()
		s.Equal(domain.KindNotFound, domain.KindOf(err), "%v", err)
	}

	_, err = s.app.Indicators.Get(s.ctx, other, ind.ID)
	notFound(err)
	_, err = s.app.Indicators.Update(s.ctx, other, ind.ID, service.UpdateIndicatorInput{Title: &title})
	notFound(err)

	_, err = s.app.Documents.Get(s.ctx, other, doc.ID)
	notFound(err)
	_, err = s.app.Documents.Update(s.ctx, other, doc.ID, service.UpdateDocumentInput{Name: &title})
	notFound(err)
	notFound(s.app.Documents.Delete(s.ctx, other, doc.ID))

	_, err = s.app.Actions.Get(s.ctx, other, action.ID)
	notFound(err)
	_, err = s.app.Actions.Update(s.ctx, other, action.ID, service.UpdateActionInput{Title: &title})
	notFound(err)
	notFound(s.app.Actions.Delete(s.ctx, other, action.ID))

	_, err = s.app.Tasks.Get(s.ctx, other, task.ID)
	notFound(err)
	_, err = s.app.Tasks.Update(s.ctx, other, task.ID, service.UpdateTaskInput{Title: &title})
	notFound(err)
	notFound(s.app.Tasks.Delete(s.ctx, other, task.ID))

	_, err = s.app.Audits.Get(s.ctx, other, audit.ID)
	notFound(err)
	notes := "moved"
	_, err = s.app.Audits.Update(s.ctx, other, audit.ID, service.UpdateAuditInput{Notes: &notes})
	notFound(err)
	notFound(s.app.Audits.Delete(s.ctx, other, audit.ID))

	_, err = s.app.BPFs.Get(s.ctx, other, bpf.ID)
	notFound(err)
	_, err = s.app.BPFs.Update(s.ctx, other, bpf.ID, json.RawMessage(`{"a":1}`))
	notFound(err)
	notFound(s.app.BPFs.Delete(s.ctx, other, bpf.ID))

	_, err = s.app.Invitations.Revoke(s.ctx, other, inv.ID)
	notFound(err)

	// Nothing leaked into the other tenant's listings.
	docs, err := s.app.Documents.List(s.ctx, other, repository.DocumentFilter{}, repository.Page{})
	s.Require().NoError(err)
	s.Zero(docs.TotalItems)
	bpfs, err := s.app.BPFs.List(s.ctx, other)
	s.Require().NoError(err)
	s.Empty(bpfs)
	pending, err := s.app.Invitations.List(s.ctx, other, model.InvitationPending)
	s.Require().NoError(err)
	s.Empty(pending)

	// And the owner still sees everything intact.
	got, err := s.app.Documents.Get(s.ctx, s.tenant, doc.ID)
	s.Require().NoError(err)
	s.Equal("Procédure d'accueil", got.Name)
	_, err = s.app.Audits.Get(s.ctx, s.tenant, audit.ID)
	s.Require().NoError(err)
}

func (s *ServiceSuite) TestTenantRequired() {
	var none domain.Tenant

	_, err := s.app.Indicators.List(s.ctx, none, repository.IndicatorFilter{})
	s.ErrorIs(err, domain.ErrMissingOrganization)
	_, err = s.app.Bootstrap.Initialize(s.ctx, none)
	s.ErrorIs(err, domain.ErrMissingOrganization)
	_, err = s.app.Statistics.Generate(s.ctx, none, time.Time{})
	s.ErrorIs(err, domain.ErrMissingOrganization)
	_, err = s.app.Audits.Get(s.ctx, none, uuid.New())
	s.ErrorIs(err, domain.ErrMissingOrganization)
}
