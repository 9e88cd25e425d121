// internal/service/statistics.go
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/dangerclosesec/qualitrack/internal/domain"
	"github.com/dangerclosesec/qualitrack/internal/metrics"
	"github.com/dangerclosesec/qualitrack/internal/model"
	"github.com/dangerclosesec/qualitrack/internal/repository"
)

const maxHistoryDays = 366

// Dashboard is today's snapshot alongside the live indicator summary.
type Dashboard struct {
	Statistic  *model.Statistic `json:"statistic"`
	Indicators IndicatorSummary `json:"indicators"`
	Generated  bool             `json:"generated"`
}

// StatisticsService builds daily snapshots from every other component.
type StatisticsService struct {
	stats       *repository.StatisticRepository
	indicators  *repository.IndicatorRepository
	documents   *repository.DocumentRepository
	actions     *repository.ActionRepository
	tasks       *repository.TaskRepository
	audits      *repository.AuditRepository
	invitations *repository.InvitationRepository
	clock       domain.Clock
	metrics     *metrics.Metrics
}

func NewStatisticsService(
	stats *repository.StatisticRepository,
	indicators *repository.IndicatorRepository,
	documents *repository.DocumentRepository,
	actions *repository.ActionRepository,
	tasks *repository.TaskRepository,
	audits *repository.AuditRepository,
	invitations *repository.InvitationRepository,
	clock domain.Clock,
	m *metrics.Metrics,
) *StatisticsService {
	return &StatisticsService{
		stats:       stats,
		indicators:  indicators,
		documents:   documents,
		actions:     actions,
		tasks:       tasks,
		audits:      audits,
		invitations: invitations,
		clock:       clock,
		metrics:     m,
	}
}

// Generate computes the snapshot of date (today when zero) from current
// counts and upserts it. Repeated calls for the same day overwrite the row.
func (s *StatisticsService) Generate(ctx context.Context, t domain.Tenant, date time.Time) (stat *model.Statistic, err error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	start := time.Now()
	defer func() { s.metrics.ObserveStatistics(start, err) }()

	now := s.clock.Now()
	if date.IsZero() {
		date = now
	}
	org := t.OrganizationID

	indicatorStatus, err := s.indicators.CountByStatus(ctx, org)
	if err != nil {
		return nil, err
	}
	avg, err := s.indicators.AverageCompletion(ctx, org)
	if err != nil {
		return nil, err
	}
	docs, err := s.documents.CountByType(ctx, org)
	if err != nil {
		return nil, err
	}
	actionStatus, err := s.actions.CountByStatus(ctx, org)
	if err != nil {
		return nil, err
	}
	overdueActions, err := s.actions.CountOverdue(ctx, org, now)
	if err != nil {
		return nil, err
	}
	tasks, err := s.tasks.Counts(ctx, org, now)
	if err != nil {
		return nil, err
	}
	audits, err := s.audits.CountScheduled(ctx, org)
	if err != nil {
		return nil, err
	}
	invitations, err := s.invitations.CountPending(ctx, org)
	if err != nil {
		return nil, err
	}

	totalActions := 0
	for _, n := range actionStatus {
		totalActions += n
	}
	totalIndicators := 0
	for _, n := range indicatorStatus {
		totalIndicators += n
	}

	snapshot := &model.Statistic{
		OrganizationID:       org,
		Date:                 domain.StartOfDay(date),
		TotalIndicators:      totalIndicators,
		CompletedIndicators:  indicatorStatus[model.IndicatorCompleted],
		InProgressIndicators: indicatorStatus[model.IndicatorInProgress],
		NotStartedIndicators: indicatorStatus[model.IndicatorNotStarted],
		CompletionPercentage: roundTo2(avg),
		TotalDocuments:       docs.Total(),
		ProcedureDocuments:   docs.Procedure,
		ModelDocuments:       docs.Model,
		EvidenceDocuments:    docs.Evidence,
		TotalActions:         totalActions,
		OpenActions:          actionStatus[model.ActionPending] + actionStatus[model.ActionInProgress],
		CompletedActions:     actionStatus[model.ActionCompleted],
		OverdueActions:       overdueActions,
		TotalTasks:           tasks.Total,
		CompletedTasks:       tasks.ByStatus[model.TaskDone],
		OverdueTasks:         tasks.Overdue,
		ScheduledAudits:      audits,
		PendingInvitations:   invitations,
	}

	stat, err = s.stats.Upsert(ctx, snapshot)
	if err != nil {
		return nil, err
	}
	slog.DebugContext(ctx, "statistics generated",
		"organization_id", org,
		"date", snapshot.Date.Format(time.DateOnly),
	)
	return stat, nil
}

func (s *StatisticsService) Get(ctx context.Context, t domain.Tenant, date time.Time) (*model.Statistic, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	if date.IsZero() {
		date = s.clock.Now()
	}
	return s.stats.FindByDate(ctx, t.OrganizationID, domain.StartOfDay(date))
}

// History returns the snapshots between from and to inclusive. A zero from
// means thirty days before to; a zero to means today.
func (s *StatisticsService) History(ctx context.Context, t domain.Tenant, from, to time.Time) ([]*model.Statistic, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	if to.IsZero() {
		to = s.clock.Now()
	}
	to = domain.StartOfDay(to)
	if from.IsZero() {
		from = to.AddDate(0, 0, -30)
	}
	from = domain.StartOfDay(from)
	if from.After(to) {
		return nil, domain.NewValidationError("from", "must not be after to")
	}
	if domain.DaysBetween(from, to) > maxHistoryDays {
		return nil, domain.NewValidationError("from", "range must not exceed one year")
	}
	return s.stats.History(ctx, t.OrganizationID, from, to)
}

// Dashboard returns today's snapshot, generating it when none exists yet.
func (s *StatisticsService) Dashboard(ctx context.Context, t domain.Tenant) (*Dashboard, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	today := domain.StartOfDay(s.clock.Now())

	out := &Dashboard{}
	stat, err := s.stats.FindByDate(ctx, t.OrganizationID, today)
	switch {
	case errors.Is(err, domain.ErrStatisticAbsent):
		stat, err = s.Generate(ctx, t, today)
		if err != nil {
			return nil, err
		}
		out.Generated = true
	case err != nil:
		return nil, err
	}
	out.Statistic = stat

	indicators, err := s.indicators.List(ctx, t.OrganizationID, repository.IndicatorFilter{})
	if err != nil {
		return nil, err
	}
	out.Indicators = summarize(indicators)
	return out, nil
}

func roundTo2(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}
