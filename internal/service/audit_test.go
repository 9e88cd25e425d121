package service_test

import (
	"time"

	"github.com/dangerclosesec/qualitrack/internal/domain"
	"github.com/dangerclosesec/qualitrack/internal/model"
	"github.com/dangerclosesec/qualitrack/internal/repository"
	"github.com/dangerclosesec/qualitrack/internal/service"
)

func (s *ServiceSuite) scheduleAudit(auditType model.AuditType, date time.Time) *service.AuditView {
	audit, err := s.app.Audits.Create(s.ctx, s.tenant, service.CreateAuditInput{
		Type:    string(auditType),
		Date:    date,
		Auditor: service.AuditorInput{Name: "Bureau Certif", Contact: "audit@certif.example"},
	})
	s.Require().NoError(err)
	return audit
}

func (s *ServiceSuite) TestAudits_NextPicksEarliestUpcoming() {
	_, err := s.app.Audits.Next(s.ctx, s.tenant)
	s.Require().ErrorIs(err, domain.ErrNoUpcomingAudit)

	s.scheduleAudit(model.AuditInternal, testNow.AddDate(0, 0, -3))
	later := s.scheduleAudit(model.AuditRenewal, testNow.AddDate(0, 2, 0))
	sooner := s.scheduleAudit(model.AuditSurveillance, testNow.AddDate(0, 0, 10))

	next, err := s.app.Audits.Next(s.ctx, s.tenant)
	s.Require().NoError(err)
	s.Equal(sooner.ID, next.ID)
	s.Require().NotNil(next.DaysRemaining)
	s.Equal(10, *next.DaysRemaining)

	upcoming, err := s.app.Audits.Upcoming(s.ctx, s.tenant, 5)
	s.Require().NoError(err)
	s.Require().Len(upcoming, 2)
	s.Equal(later.ID, upcoming[1].ID)
}

func (s *ServiceSuite) TestAudits_TodayCountsAsUpcoming() {
	today := s.scheduleAudit(model.AuditInitial, time.Date(2026, 10, 14, 0, 0, 0, 0, time.UTC))

	next, err := s.app.Audits.Next(s.ctx, s.tenant)
	s.Require().NoError(err)
	s.Equal(today.ID, next.ID)
	s.Equal(0, *next.DaysRemaining)
}

func (s *ServiceSuite) TestAudits_PastScheduledHasNegativeCountdown() {
	past := s.scheduleAudit(model.AuditInternal, testNow.AddDate(0, 0, -4))
	s.Require().NotNil(past.DaysRemaining)
	s.Equal(-4, *past.DaysRemaining)
}

func (s *ServiceSuite) TestAudits_CompleteIsOneWay() {
	audit := s.scheduleAudit(model.AuditSurveillance, testNow.AddDate(0, 0, 1))
	score := 92

	done, err := s.app.Audits.Complete(s.ctx, s.tenant, audit.ID, service.CompleteAuditInput{
		Result:         string(model.AuditPassed),
		Score:          &score,
		ReportFile:     []byte("rapport final"),
		ReportFilename: "rapport.txt",
	})
	s.Require().NoError(err)
	s.Equal(model.AuditCompleted, done.Status)
	s.Nil(done.DaysRemaining)
	s.Require().NotNil(done.CompletionDate)
	s.Contains(done.ReportReference, "audits/")

	_, err = s.app.Audits.Complete(s.ctx, s.tenant, audit.ID, service.CompleteAuditInput{Result: string(model.AuditFailed)})
	s.Require().ErrorIs(err, domain.ErrAuditAlreadyCompleted)

	location := "Lyon"
	_, err = s.app.Audits.Update(s.ctx, s.tenant, audit.ID, service.UpdateAuditInput{Location: &location})
	s.Require().ErrorIs(err, domain.ErrAuditNotScheduled)

	err = s.app.Audits.Delete(s.ctx, s.tenant, audit.ID)
	s.Require().ErrorIs(err, domain.ErrAuditNotScheduled)

	history, err := s.app.Audits.History(s.ctx, s.tenant, repository.AuditFilter{Status: model.AuditCompleted})
	s.Require().NoError(err)
	s.Len(history, 1)
}

func (s *ServiceSuite) TestAudits_ValidatesScore() {
	audit := s.scheduleAudit(model.AuditInitial, testNow.AddDate(0, 1, 0))
	score := 140

	_, err := s.app.Audits.Complete(s.ctx, s.tenant, audit.ID, service.CompleteAuditInput{Result: "passed", Score: &score})
	var verr *domain.ValidationError
	s.Require().ErrorAs(err, &verr)
	s.Contains(verr.Fields, "score")

	_, err = s.app.Audits.Create(s.ctx, s.tenant, service.CreateAuditInput{Type: "external", Date: testNow})
	s.Equal(domain.KindValidation, domain.KindOf(err))
}

func (s *ServiceSuite) TestAudits_UpdateCannotReopenCompletedAudit() {
	audit := s.scheduleAudit(model.AuditRenewal, testNow.AddDate(0, 1, 0))
	s.interleave("audits", "UPDATE audits SET status = ?, result = ? WHERE id = ?",
		model.AuditCompleted, model.AuditPassed, audit.ID)

	notes := "salle B"
	_, err := s.app.Audits.Update(s.ctx, s.tenant, audit.ID, service.UpdateAuditInput{Notes: &notes})
	s.Require().ErrorIs(err, domain.ErrAuditNotScheduled)

	stored, err := s.app.Audits.Get(s.ctx, s.tenant, audit.ID)
	s.Require().NoError(err)
	s.Equal(model.AuditCompleted, stored.Status)
	s.Empty(stored.Notes)
}
