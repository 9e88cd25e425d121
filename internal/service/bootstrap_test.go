package service_test

import (
	"github.com/dangerclosesec/qualitrack/internal/domain"
	"github.com/dangerclosesec/qualitrack/internal/model"
	"github.com/dangerclosesec/qualitrack/internal/repository"
	"github.com/dangerclosesec/qualitrack/internal/service"
	"github.com/google/uuid"
)

func (s *ServiceSuite) TestBootstrap_SeedsCatalog() {
	res, err := s.app.Bootstrap.Initialize(s.ctx, s.tenant)
	s.Require().NoError(err)
	s.Equal(32, res.Indicators)
	s.Equal(5, res.ActionCategories)
	s.Equal(5, res.TaskCategories)

	indicators, err := s.app.Indicators.List(s.ctx, s.tenant, repository.IndicatorFilter{})
	s.Require().NoError(err)
	s.Require().Len(indicators, 32)
	for i, ind := range indicators {
		s.Equal(i+1, ind.Number)
		s.Equal(model.IndicatorNotStarted, ind.Status)
		s.Zero(ind.CompletionRate)
		s.NotEmpty(ind.Category)
	}

	categories, err := s.app.Actions.ListCategories(s.ctx, s.tenant)
	s.Require().NoError(err)
	s.Len(categories, 5)
}

func (s *ServiceSuite) TestBootstrap_SecondRunConflicts() {
	s.seed(s.tenant)

	_, err := s.app.Bootstrap.Initialize(s.ctx, s.tenant)
	s.Require().ErrorIs(err, domain.ErrCatalogAlreadySeeded)
	s.Equal(domain.KindConflict, domain.KindOf(err))

	var count int64
	s.Require().NoError(s.db.Model(&model.Indicator{}).Where("organization_id = ?", s.tenant.OrganizationID).Count(&count).Error)
	s.EqualValues(32, count)
}

func (s *ServiceSuite) TestBootstrap_RequiresOrganization() {
	_, err := s.app.Bootstrap.Initialize(s.ctx, domain.Tenant{})
	s.Require().ErrorIs(err, domain.ErrMissingOrganization)
}

func (s *ServiceSuite) TestIndicators_ByCategoryFollowsCriteria() {
	s.seed(s.tenant)

	groups, err := s.app.Indicators.ByCategory(s.ctx, s.tenant)
	s.Require().NoError(err)
	s.Require().Len(groups, 7)

	total := 0
	for i, g := range groups {
		s.Equal(i+1, g.Criterion)
		s.Equal(len(g.Indicators), g.Summary.Total)
		total += len(g.Indicators)
	}
	s.Equal(32, total)
}

func (s *ServiceSuite) TestIndicators_FilterAndUpdate() {
	s.seed(s.tenant)

	ranged, err := s.app.Indicators.List(s.ctx, s.tenant, repository.IndicatorFilter{NumberFrom: 10, NumberTo: 12})
	s.Require().NoError(err)
	s.Len(ranged, 3)

	_, err = s.app.Indicators.List(s.ctx, s.tenant, repository.IndicatorFilter{Status: "bogus"})
	s.Equal(domain.KindValidation, domain.KindOf(err))

	target := s.indicator(4)
	notes := "revoir avec la direction"
	status := string(model.IndicatorCompleted)
	updated, err := s.app.Indicators.Update(s.ctx, s.tenant, target.ID, service.UpdateIndicatorInput{Notes: &notes, Status: &status})
	s.Require().NoError(err)
	s.Equal(notes, updated.Notes)
	s.Equal(model.IndicatorCompleted, updated.Status)
	s.NotNil(updated.LastUpdated)

	bad := "finished"
	_, err = s.app.Indicators.Update(s.ctx, s.tenant, target.ID, service.UpdateIndicatorInput{Status: &bad})
	var verr *domain.ValidationError
	s.Require().ErrorAs(err, &verr)
	s.Contains(verr.Fields, "status")
}

func (s *ServiceSuite) TestIndicators_Summary() {
	s.seed(s.tenant)

	summary, err := s.app.Indicators.Summary(s.ctx, s.tenant)
	s.Require().NoError(err)
	s.Equal(32, summary.Total)
	s.Equal(32, summary.NotStarted)
	s.Zero(summary.OverallCompletionRate)
}

func (s *ServiceSuite) TestIndicators_UpdateKeepsConcurrentRecompute() {
	s.seed(s.tenant)
	target := s.indicator(7)
	s.interleave("indicators",
		"UPDATE indicators SET completion_rate = 100, status = ?, evidence_count = 1, procedure_count = 1 WHERE id = ?",
		model.IndicatorCompleted, target.ID)

	notes := "dossier complet"
	_, err := s.app.Indicators.Update(s.ctx, s.tenant, target.ID, service.UpdateIndicatorInput{Notes: &notes})
	s.Require().NoError(err)

	stored := s.indicator(7)
	s.Equal(notes, stored.Notes)
	s.Equal(100, stored.CompletionRate)
	s.Equal(model.IndicatorCompleted, stored.Status)
	s.Equal(1, stored.EvidenceCount)
	s.Equal(1, stored.ProcedureCount)
	s.NotNil(stored.LastUpdated)
}

func (s *ServiceSuite) TestIndicators_RestrictedTenantSeesGrantOnly() {
	s.seed(s.tenant)
	granted, hidden := s.indicator(1), s.indicator(2)
	visible := s.createDocument(model.DocumentEvidence, granted.ID)
	other := s.createDocument(model.DocumentEvidence, hidden.ID)

	auditor := s.tenant
	auditor.Role = model.RoleAuditor
	auditor.IndicatorAccess = []uuid.UUID{granted.ID}

	list, err := s.app.Indicators.List(s.ctx, auditor, repository.IndicatorFilter{})
	s.Require().NoError(err)
	s.Require().Len(list, 1)
	s.Equal(granted.ID, list[0].ID)

	_, err = s.app.Indicators.Get(s.ctx, auditor, hidden.ID)
	s.ErrorIs(err, domain.ErrIndicatorNotFound)
	_, err = s.app.Indicators.ListDocuments(s.ctx, auditor, hidden.ID, "")
	s.ErrorIs(err, domain.ErrIndicatorNotFound)

	summary, err := s.app.Indicators.Summary(s.ctx, auditor)
	s.Require().NoError(err)
	s.Equal(1, summary.Total)
	groups, err := s.app.Indicators.ByCategory(s.ctx, auditor)
	s.Require().NoError(err)
	s.Require().Len(groups, 1)
	s.Len(groups[0].Indicators, 1)

	docs, err := s.app.Documents.List(s.ctx, auditor, repository.DocumentFilter{}, repository.Page{})
	s.Require().NoError(err)
	s.Require().Len(docs.Items, 1)
	s.Equal(visible.ID, docs.Items[0].ID)
	_, err = s.app.Documents.Get(s.ctx, auditor, other.ID)
	s.ErrorIs(err, domain.ErrDocumentNotFound)
	_, err = s.app.Documents.URL(s.ctx, auditor, other.ID)
	s.ErrorIs(err, domain.ErrDocumentNotFound)

	// An empty grant reads the whole catalog.
	auditor.IndicatorAccess = nil
	list, err = s.app.Indicators.List(s.ctx, auditor, repository.IndicatorFilter{})
	s.Require().NoError(err)
	s.Len(list, 32)
}
