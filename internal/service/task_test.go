package service_test

import (
	"time"

	"github.com/dangerclosesec/qualitrack/internal/domain"
	"github.com/dangerclosesec/qualitrack/internal/model"
	"github.com/dangerclosesec/qualitrack/internal/repository"
	"github.com/dangerclosesec/qualitrack/internal/service"
	"github.com/google/uuid"
)

func (s *ServiceSuite) createTask(slug, title string) *service.TaskView {
	task, err := s.app.Tasks.Create(s.ctx, s.tenant, service.CreateTaskInput{CategorySlug: slug, Title: title})
	s.Require().NoError(err)
	return task
}

func (s *ServiceSuite) TestTasks_SystemCategoriesSeededOnce() {
	created, err := s.app.Tasks.InitializeSystemCategories(s.ctx, s.tenant)
	s.Require().NoError(err)
	s.Len(created, 5)

	again, err := s.app.Tasks.InitializeSystemCategories(s.ctx, s.tenant)
	s.Require().NoError(err)
	s.Empty(again)

	categories, err := s.app.Tasks.ListCategories(s.ctx, s.tenant)
	s.Require().NoError(err)
	s.Len(categories, 5)
}

func (s *ServiceSuite) TestTasks_SystemCategoriesAreImmutable() {
	created, err := s.app.Tasks.InitializeSystemCategories(s.ctx, s.tenant)
	s.Require().NoError(err)
	system := created[0]

	name := "Renommée"
	_, err = s.app.Tasks.UpdateCategory(s.ctx, s.tenant, system.ID, service.UpdateTaskCategoryInput{Name: &name})
	s.Require().ErrorIs(err, domain.ErrSystemCategory)

	err = s.app.Tasks.DeleteCategory(s.ctx, s.tenant, system.ID)
	s.Require().ErrorIs(err, domain.ErrSystemCategory)
	s.Equal(domain.KindInvalidOperation, domain.KindOf(err))
}

func (s *ServiceSuite) TestTasks_CustomCategoryLifecycle() {
	category, err := s.app.Tasks.CreateCategory(s.ctx, s.tenant, service.TaskCategoryInput{Name: "Sous-traitance Éditoriale", Color: "#abcdef"})
	s.Require().NoError(err)
	s.Equal("sous-traitance-editoriale", category.Slug)
	s.Equal(model.CategoryCustom, category.Type)

	_, err = s.app.Tasks.CreateCategory(s.ctx, s.tenant, service.TaskCategoryInput{Name: "sous traitance editoriale"})
	s.Require().ErrorIs(err, domain.ErrTaskCategoryExists)

	task := s.createTask(category.Slug, "Relire le contrat")
	err = s.app.Tasks.DeleteCategory(s.ctx, s.tenant, category.ID)
	s.Require().ErrorIs(err, domain.ErrTaskCategoryInUse)

	s.Require().NoError(s.app.Tasks.Delete(s.ctx, s.tenant, task.ID))
	s.Require().NoError(s.app.Tasks.DeleteCategory(s.ctx, s.tenant, category.ID))
}

func (s *ServiceSuite) TestTasks_CreateAppendsToCategory() {
	_, err := s.app.Tasks.InitializeSystemCategories(s.ctx, s.tenant)
	s.Require().NoError(err)

	first := s.createTask("veille", "Lire le BO")
	second := s.createTask("veille", "Mettre à jour la base")
	s.Less(first.Position, second.Position)
	s.Equal(model.TaskTodo, first.Status)
	s.Equal(model.TaskMedium, first.Priority)

	_, err = s.app.Tasks.Create(s.ctx, s.tenant, service.CreateTaskInput{CategorySlug: "inconnue", Title: "x"})
	s.Require().ErrorIs(err, domain.ErrTaskCategoryNotFound)

	_, err = s.app.Tasks.Create(s.ctx, s.tenant, service.CreateTaskInput{Title: "sans catégorie"})
	s.Equal(domain.KindValidation, domain.KindOf(err))
}

func (s *ServiceSuite) TestTasks_ReorderIsStable() {
	_, err := s.app.Tasks.InitializeSystemCategories(s.ctx, s.tenant)
	s.Require().NoError(err)
	a := s.createTask("handicap", "A")
	b := s.createTask("handicap", "B")
	c := s.createTask("handicap", "C")

	err = s.app.Tasks.Reorder(s.ctx, s.tenant, []repository.TaskPosition{
		{ID: c.ID, Position: 0},
		{ID: a.ID, Position: 10},
		{ID: b.ID, Position: 10},
	})
	s.Require().NoError(err)

	tasks, err := s.app.Tasks.ByCategory(s.ctx, s.tenant, "handicap")
	s.Require().NoError(err)
	s.Require().Len(tasks, 3)
	s.Equal([]uuid.UUID{c.ID, a.ID, b.ID}, []uuid.UUID{tasks[0].ID, tasks[1].ID, tasks[2].ID})
}

func (s *ServiceSuite) TestTasks_ReorderRejectsUnknownAndDuplicates() {
	_, err := s.app.Tasks.InitializeSystemCategories(s.ctx, s.tenant)
	s.Require().NoError(err)
	a := s.createTask("veille", "A")
	b := s.createTask("veille", "B")

	err = s.app.Tasks.Reorder(s.ctx, s.tenant, []repository.TaskPosition{{ID: a.ID, Position: 1}, {ID: a.ID, Position: 2}})
	s.Equal(domain.KindValidation, domain.KindOf(err))

	err = s.app.Tasks.Reorder(s.ctx, s.tenant, []repository.TaskPosition{
		{ID: b.ID, Position: 0},
		{ID: uuid.New(), Position: 1},
	})
	s.Require().ErrorIs(err, domain.ErrTaskNotFound)

	// The failed batch rolled back.
	got, err := s.app.Tasks.Get(s.ctx, s.tenant, b.ID)
	s.Require().NoError(err)
	s.Equal(b.Position, got.Position)
}

func (s *ServiceSuite) TestTasks_ChecklistAndStatistics() {
	_, err := s.app.Tasks.InitializeSystemCategories(s.ctx, s.tenant)
	s.Require().NoError(err)
	past := testNow.Add(-24 * time.Hour)

	task, err := s.app.Tasks.Create(s.ctx, s.tenant, service.CreateTaskInput{
		CategorySlug: "amelioration",
		Title:        "Tableau de bord",
		DueDate:      &past,
		Checklist: []model.ChecklistItem{
			{Label: "Collecter", Done: true},
			{Label: "Analyser"},
		},
	})
	s.Require().NoError(err)
	s.True(task.Overdue)
	s.Equal(1, task.ChecklistDone)
	s.Equal(2, task.ChecklistSize)

	done := string(model.TaskDone)
	_, err = s.app.Tasks.Update(s.ctx, s.tenant, task.ID, service.UpdateTaskInput{Status: &done})
	s.Require().NoError(err)
	s.createTask("amelioration", "Autre")

	stats, err := s.app.Tasks.Statistics(s.ctx, s.tenant)
	s.Require().NoError(err)
	s.Equal(2, stats.Total)
	s.Equal(0, stats.Overdue)
	s.Equal(50.0, stats.Completion)
}
