package service_test

import (
	"time"

	"github.com/dangerclosesec/qualitrack/internal/domain"
	"github.com/dangerclosesec/qualitrack/internal/model"
	"github.com/dangerclosesec/qualitrack/internal/repository"
	"github.com/dangerclosesec/qualitrack/internal/service"
)

func (s *ServiceSuite) TestActions_CreateFindsOrCreatesCategory() {
	s.seed(s.tenant)

	first, err := s.app.Actions.Create(s.ctx, s.tenant, service.CreateActionInput{
		Category: "Réclamation",
		Title:    "Traiter la réclamation du client",
	})
	s.Require().NoError(err)
	s.Equal(model.PriorityMedium, first.Priority)
	s.Equal(model.ActionPending, first.Status)
	s.Require().NotNil(first.Category)
	s.Equal("Réclamation", first.Category.Label)

	created, err := s.app.Actions.Create(s.ctx, s.tenant, service.CreateActionInput{
		Category: "Audit interne",
		Title:    "Préparer la revue",
		Priority: "High",
	})
	s.Require().NoError(err)

	again, err := s.app.Actions.Create(s.ctx, s.tenant, service.CreateActionInput{
		Category: "Audit interne",
		Title:    "Planifier la revue",
	})
	s.Require().NoError(err)
	s.Equal(created.CategoryID, again.CategoryID)

	categories, err := s.app.Actions.ListCategories(s.ctx, s.tenant)
	s.Require().NoError(err)
	s.Len(categories, 6)
}

func (s *ServiceSuite) TestActions_OverdueIsDerived() {
	past := testNow.Add(-48 * time.Hour)
	future := testNow.Add(48 * time.Hour)

	late, err := s.app.Actions.Create(s.ctx, s.tenant, service.CreateActionInput{Category: "Veille", Title: "Veille réglementaire", DueDate: &past})
	s.Require().NoError(err)
	s.True(late.Overdue)

	_, err = s.app.Actions.Create(s.ctx, s.tenant, service.CreateActionInput{Category: "Veille", Title: "Veille métier", DueDate: &future})
	s.Require().NoError(err)

	overdue, err := s.app.Actions.Overdue(s.ctx, s.tenant)
	s.Require().NoError(err)
	s.Require().Len(overdue, 1)
	s.Equal(late.ID, overdue[0].ID)

	completed := string(model.ActionCompleted)
	done, err := s.app.Actions.Update(s.ctx, s.tenant, late.ID, service.UpdateActionInput{Status: &completed})
	s.Require().NoError(err)
	s.False(done.Overdue)

	stats, err := s.app.Actions.Statistics(s.ctx, s.tenant)
	s.Require().NoError(err)
	s.Equal(2, stats.Total)
	s.Equal(0, stats.Overdue)
	s.Equal(1, stats.ByStatus[model.ActionCompleted])
}

func (s *ServiceSuite) TestActions_CategoryInUseCannotBeDeleted() {
	action, err := s.app.Actions.Create(s.ctx, s.tenant, service.CreateActionInput{Category: "Formation", Title: "Former les tuteurs"})
	s.Require().NoError(err)

	err = s.app.Actions.DeleteCategory(s.ctx, s.tenant, action.CategoryID)
	s.Require().ErrorIs(err, domain.ErrActionCategoryInUse)
	s.Equal(domain.KindInvalidOperation, domain.KindOf(err))

	s.Require().NoError(s.app.Actions.Delete(s.ctx, s.tenant, action.ID))
	s.Require().NoError(s.app.Actions.DeleteCategory(s.ctx, s.tenant, action.CategoryID))
}

func (s *ServiceSuite) TestActions_DuplicateCategoryLabelConflicts() {
	_, err := s.app.Actions.CreateCategory(s.ctx, s.tenant, service.ActionCategoryInput{Label: "Qualité", Color: "#112233"})
	s.Require().NoError(err)

	_, err = s.app.Actions.CreateCategory(s.ctx, s.tenant, service.ActionCategoryInput{Label: "Qualité"})
	s.Require().ErrorIs(err, domain.ErrActionCategoryExists)

	_, err = s.app.Actions.CreateCategory(s.ctx, s.tenant, service.ActionCategoryInput{Label: "Couleur", Color: "red"})
	s.Equal(domain.KindValidation, domain.KindOf(err))
}

func (s *ServiceSuite) TestActions_ListFiltersAndPaginates() {
	for _, title := range []string{"Analyse A", "Analyse B", "Autre"} {
		_, err := s.app.Actions.Create(s.ctx, s.tenant, service.CreateActionInput{Category: "Veille", Title: title})
		s.Require().NoError(err)
	}

	page, err := s.app.Actions.List(s.ctx, s.tenant, repository.ActionFilter{Search: "analyse"}, repository.Page{Page: 1, Limit: 1})
	s.Require().NoError(err)
	s.EqualValues(2, page.TotalItems)
	s.Equal(2, page.TotalPages)
	s.Len(page.Items, 1)
}
