package service_test

import (
	"time"

	"github.com/dangerclosesec/qualitrack/internal/domain"
	"github.com/dangerclosesec/qualitrack/internal/model"
	"github.com/dangerclosesec/qualitrack/internal/service"
)

func (s *ServiceSuite) TestStatistics_GenerateIsIdempotentPerDay() {
	s.seed(s.tenant)

	for range 3 {
		_, err := s.app.Statistics.Generate(s.ctx, s.tenant, time.Time{})
		s.Require().NoError(err)
	}

	var count int64
	s.Require().NoError(s.db.Model(&model.Statistic{}).Where("organization_id = ?", s.tenant.OrganizationID).Count(&count).Error)
	s.EqualValues(1, count)
}

func (s *ServiceSuite) TestStatistics_SnapshotReflectsCurrentCounts() {
	s.seed(s.tenant)
	target := s.indicator(1)
	s.createDocument(model.DocumentProcedure, target.ID)
	s.createDocument(model.DocumentEvidence, target.ID)
	s.createDocument(model.DocumentModel, s.indicator(2).ID)

	past := testNow.Add(-time.Hour)
	_, err := s.app.Actions.Create(s.ctx, s.tenant, service.CreateActionInput{Category: "Veille", Title: "En retard", DueDate: &past})
	s.Require().NoError(err)
	s.scheduleAudit(model.AuditSurveillance, testNow.AddDate(0, 1, 0))
	s.invite("claire@certif.example")

	stat, err := s.app.Statistics.Generate(s.ctx, s.tenant, time.Time{})
	s.Require().NoError(err)
	s.Equal(32, stat.TotalIndicators)
	s.Equal(1, stat.CompletedIndicators)
	s.Equal(1, stat.InProgressIndicators)
	s.Equal(30, stat.NotStartedIndicators)
	s.InDelta(150.0/32.0, stat.CompletionPercentage, 0.01)
	s.Equal(3, stat.TotalDocuments)
	s.Equal(1, stat.EvidenceDocuments)
	s.Equal(1, stat.OpenActions)
	s.Equal(1, stat.OverdueActions)
	s.Equal(1, stat.ScheduledAudits)
	s.Equal(1, stat.PendingInvitations)

	// A regeneration overwrites the day's row with fresh counts.
	s.createDocument(model.DocumentEvidence, s.indicator(2).ID)
	again, err := s.app.Statistics.Generate(s.ctx, s.tenant, time.Time{})
	s.Require().NoError(err)
	s.Equal(2, again.CompletedIndicators)

	got, err := s.app.Statistics.Get(s.ctx, s.tenant, testNow)
	s.Require().NoError(err)
	s.Equal(2, got.CompletedIndicators)
	s.Equal(4, got.TotalDocuments)
}

func (s *ServiceSuite) TestStatistics_HistoryAndMissingDay() {
	s.seed(s.tenant)
	for day := range 3 {
		_, err := s.app.Statistics.Generate(s.ctx, s.tenant, testNow.AddDate(0, 0, -day))
		s.Require().NoError(err)
	}

	history, err := s.app.Statistics.History(s.ctx, s.tenant, testNow.AddDate(0, 0, -1), testNow)
	s.Require().NoError(err)
	s.Len(history, 2)

	_, err = s.app.Statistics.Get(s.ctx, s.tenant, testNow.AddDate(0, 0, -10))
	s.Require().ErrorIs(err, domain.ErrStatisticAbsent)

	_, err = s.app.Statistics.History(s.ctx, s.tenant, testNow, testNow.AddDate(0, 0, -1))
	s.Equal(domain.KindValidation, domain.KindOf(err))

	_, err = s.app.Statistics.History(s.ctx, s.tenant, testNow.AddDate(-2, 0, 0), testNow)
	s.Equal(domain.KindValidation, domain.KindOf(err))
}

func (s *ServiceSuite) TestStatistics_DashboardGeneratesOnMiss() {
	s.seed(s.tenant)

	first, err := s.app.Statistics.Dashboard(s.ctx, s.tenant)
	s.Require().NoError(err)
	s.True(first.Generated)
	s.Equal(32, first.Indicators.Total)

	second, err := s.app.Statistics.Dashboard(s.ctx, s.tenant)
	s.Require().NoError(err)
	s.False(second.Generated)
	s.Equal(first.Statistic.ID, second.Statistic.ID)
}

func (s *ServiceSuite) TestStatistics_GenerateForEveryOrganization() {
	other := s.otherTenant()
	s.seed(s.tenant)
	s.seed(other)

	run, err := s.app.GenerateStatistics(s.ctx, time.Time{}, nil, 2)
	s.Require().NoError(err)
	s.Equal(2, run.Organizations)
	s.Zero(run.Failed)

	_, err = s.app.Statistics.Get(s.ctx, other, time.Time{})
	s.Require().NoError(err)
}

func (s *ServiceSuite) TestStatistics_ScheduleRejectsBadExpression() {
	_, err := s.app.ScheduleStatistics(s.ctx, "every day")
	s.Require().Error(err)

	c, err := s.app.ScheduleStatistics(s.ctx, "5 0 * * *")
	s.Require().NoError(err)
	s.Len(c.Entries(), 1)
}
