// internal/service/audit.go
package service

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"time"

	"github.com/dangerclosesec/qualitrack/internal/domain"
	"github.com/dangerclosesec/qualitrack/internal/metrics"
	"github.com/dangerclosesec/qualitrack/internal/model"
	"github.com/dangerclosesec/qualitrack/internal/repository"
	"github.com/dangerclosesec/qualitrack/internal/storage"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type AuditorInput struct {
	Name    string `json:"name" validate:"required,max=255"`
	Contact string `json:"contact" validate:"omitempty,max=255"`
	Phone   string `json:"phone" validate:"omitempty,max=50"`
}

type CreateAuditInput struct {
	Type     string       `json:"type" validate:"required,oneof=initial surveillance renewal internal"`
	Date     time.Time    `json:"date" validate:"required"`
	Auditor  AuditorInput `json:"auditor"`
	Location string       `json:"location" validate:"max=255"`
	Notes    string       `json:"notes"`
}

type UpdateAuditInput struct {
	Type     *string       `json:"type" validate:"omitnil,oneof=initial surveillance renewal internal"`
	Date     *time.Time    `json:"date"`
	Auditor  *AuditorInput `json:"auditor"`
	Location *string       `json:"location" validate:"omitnil,max=255"`
	Notes    *string       `json:"notes"`
}

// CompleteAuditInput is the outcome of an audit. ReportFile, when set, is
// stored and its reference recorded in place of ReportReference.
type CompleteAuditInput struct {
	Result          string     `json:"result" validate:"required,oneof=passed failed conditional"`
	Score           *int       `json:"score" validate:"omitnil,gte=0,lte=100"`
	CompletionDate  *time.Time `json:"completion_date"`
	ReportReference string     `json:"report_reference" validate:"max=2048"`
	ReportFile      []byte     `json:"-"`
	ReportFilename  string     `json:"-"`
	Observations    string     `json:"observations"`
	Recommendations string     `json:"recommendations"`
}

// AuditView is an audit with its countdown resolved at read time. The
// countdown is negative for scheduled audits whose date has passed and absent
// once completed.
type AuditView struct {
	*model.Audit
	DaysRemaining *int `json:"days_remaining,omitempty"`
}

type AuditService struct {
	tx       *repository.TxManager
	audits   *repository.AuditRepository
	files    storage.FileStore
	clock    domain.Clock
	metrics  *metrics.Metrics
	validate *validator.Validate
}

func NewAuditService(
	tx *repository.TxManager,
	audits *repository.AuditRepository,
	files storage.FileStore,
	clock domain.Clock,
	m *metrics.Metrics,
) *AuditService {
	return &AuditService{
		tx:       tx,
		audits:   audits,
		files:    files,
		clock:    clock,
		metrics:  m,
		validate: newValidator(),
	}
}

func (s *AuditService) view(a *model.Audit) *AuditView {
	v := &AuditView{Audit: a}
	if a.Status == model.AuditScheduled {
		days := domain.DaysBetween(s.clock.Now(), a.Date)
		v.DaysRemaining = &days
	}
	return v
}

func (s *AuditService) views(audits []*model.Audit) []*AuditView {
	out := make([]*AuditView, 0, len(audits))
	for _, a := range audits {
		out = append(out, s.view(a))
	}
	return out
}

// Next returns the earliest scheduled audit dated today or later.
func (s *AuditService) Next(ctx context.Context, t domain.Tenant) (*AuditView, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	audits, err := s.audits.Upcoming(ctx, t.OrganizationID, domain.StartOfDay(s.clock.Now()), 1)
	if err != nil {
		return nil, err
	}
	if len(audits) == 0 {
		return nil, domain.ErrNoUpcomingAudit
	}
	return s.view(audits[0]), nil
}

func (s *AuditService) Upcoming(ctx context.Context, t domain.Tenant, limit int) ([]*AuditView, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	audits, err := s.audits.Upcoming(ctx, t.OrganizationID, domain.StartOfDay(s.clock.Now()), limit)
	if err != nil {
		return nil, err
	}
	return s.views(audits), nil
}

func (s *AuditService) Get(ctx context.Context, t domain.Tenant, id uuid.UUID) (*AuditView, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	audit, err := s.audits.FindByID(ctx, t.OrganizationID, id)
	if err != nil {
		return nil, err
	}
	return s.view(audit), nil
}

func (s *AuditService) History(ctx context.Context, t domain.Tenant, f repository.AuditFilter) ([]*AuditView, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	audits, err := s.audits.History(ctx, t.OrganizationID, f)
	if err != nil {
		return nil, err
	}
	return s.views(audits), nil
}

func (s *AuditService) Create(ctx context.Context, t domain.Tenant, input CreateAuditInput) (*AuditView, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	if err := validateInput(s.validate, input); err != nil {
		return nil, err
	}

	audit := &model.Audit{
		OrganizationID: t.OrganizationID,
		Type:           model.AuditType(input.Type),
		Date:           input.Date.UTC(),
		Auditor: model.Auditor{
			Name:    input.Auditor.Name,
			Contact: input.Auditor.Contact,
			Phone:   input.Auditor.Phone,
		},
		Location:  input.Location,
		Notes:     input.Notes,
		Status:    model.AuditScheduled,
		CreatedBy: t.ActorID,
	}
	if err := s.audits.Create(ctx, audit); err != nil {
		return nil, err
	}
	return s.view(audit), nil
}

// Update edits a scheduled audit.
func (s *AuditService) Update(ctx context.Context, t domain.Tenant, id uuid.UUID, input UpdateAuditInput) (*AuditView, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	if err := validateInput(s.validate, input); err != nil {
		return nil, err
	}

	audit, err := s.audits.FindByID(ctx, t.OrganizationID, id)
	if err != nil {
		return nil, err
	}
	if audit.Status != model.AuditScheduled {
		return nil, domain.ErrAuditNotScheduled
	}

	if input.Type != nil {
		audit.Type = model.AuditType(*input.Type)
	}
	if input.Date != nil {
		audit.Date = input.Date.UTC()
	}
	if input.Auditor != nil {
		audit.Auditor = model.Auditor{
			Name:    input.Auditor.Name,
			Contact: input.Auditor.Contact,
			Phone:   input.Auditor.Phone,
		}
	}
	if input.Location != nil {
		audit.Location = *input.Location
	}
	if input.Notes != nil {
		audit.Notes = *input.Notes
	}

	updated, err := s.audits.UpdateScheduled(ctx, audit)
	if err != nil {
		return nil, err
	}
	if !updated {
		return nil, domain.ErrAuditNotScheduled
	}
	return s.view(audit), nil
}

// Complete records the outcome of a scheduled audit. The transition is one
// way; completing twice fails.
func (s *AuditService) Complete(ctx context.Context, t domain.Tenant, id uuid.UUID, input CompleteAuditInput) (*AuditView, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	if err := validateInput(s.validate, input); err != nil {
		return nil, err
	}

	audit, err := s.audits.FindByID(ctx, t.OrganizationID, id)
	if err != nil {
		return nil, err
	}
	if audit.Status == model.AuditCompleted {
		return nil, domain.ErrAuditAlreadyCompleted
	}

	reportRef := input.ReportReference
	storedReport := ""
	if len(input.ReportFile) > 0 {
		name := input.ReportFilename
		if name == "" {
			name = "report"
		}
		hint := path.Join("audits", t.OrganizationID.String(), audit.ID.String(), path.Base(name))
		storedReport, err = s.files.Store(ctx, input.ReportFile, hint)
		if err != nil {
			return nil, fmt.Errorf("storing audit report: %w", err)
		}
		reportRef = storedReport
	}

	now := s.clock.Now()
	completionDate := now
	if input.CompletionDate != nil {
		completionDate = input.CompletionDate.UTC()
	}
	result := model.AuditResult(input.Result)

	audit.CompletionDate = &completionDate
	audit.Result = &result
	audit.Score = input.Score
	audit.ReportReference = reportRef
	audit.Observations = input.Observations
	audit.Recommendations = input.Recommendations
	audit.CompletedAt = &now

	ok, err := s.audits.Complete(ctx, audit)
	if err == nil && !ok {
		err = domain.ErrAuditAlreadyCompleted
	}
	if err != nil {
		if storedReport != "" {
			if _, derr := s.files.Delete(ctx, storedReport); derr != nil {
				slog.WarnContext(ctx, "failed to delete audit report", "ref", storedReport, "error", derr)
			}
		}
		return nil, err
	}

	audit.Status = model.AuditCompleted
	s.metrics.IncrementAuditsCompleted(input.Result)
	slog.InfoContext(ctx, "audit completed",
		"organization_id", t.OrganizationID,
		"audit_id", audit.ID,
		"result", input.Result,
	)
	return s.view(audit), nil
}

// Delete removes a scheduled audit. Completed audits are kept as history.
func (s *AuditService) Delete(ctx context.Context, t domain.Tenant, id uuid.UUID) error {
	if err := t.Validate(); err != nil {
		return err
	}
	return s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		audit, err := s.audits.FindByID(txCtx, t.OrganizationID, id)
		if err != nil {
			return err
		}
		if audit.Status != model.AuditScheduled {
			return domain.ErrAuditNotScheduled
		}
		deleted, err := s.audits.DeleteScheduled(txCtx, t.OrganizationID, id)
		if err != nil {
			return err
		}
		if !deleted {
			return domain.ErrAuditNotScheduled
		}
		return nil
	})
}
