package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/dangerclosesec/qualitrack/internal/domain"
	"github.com/dangerclosesec/qualitrack/internal/metrics"
	"github.com/dangerclosesec/qualitrack/internal/mocks"
	"github.com/dangerclosesec/qualitrack/internal/model"
	"github.com/dangerclosesec/qualitrack/internal/repository"
	"github.com/dangerclosesec/qualitrack/internal/service"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"go.uber.org/mock/gomock"
)

func (s *ServiceSuite) createBPF(year int, data string) *model.BPF {
	bpf, err := s.app.BPFs.Create(s.ctx, s.tenant, service.CreateBPFInput{Year: year, Data: json.RawMessage(data)})
	s.Require().NoError(err)
	return bpf
}

func (s *ServiceSuite) submitBPF(draft *model.BPF) *model.BPF {
	bpf, err := s.app.BPFs.Submit(s.ctx, s.tenant, draft.ID, service.SubmitBPFInput{SubmittedTo: "DREETS", SubmissionMethod: "Mon Activité Formation"})
	s.Require().NoError(err)
	return bpf
}

func (s *ServiceSuite) TestBPF_OnePerYear() {
	s.createBPF(2025, `{}`)

	_, err := s.app.BPFs.Create(s.ctx, s.tenant, service.CreateBPFInput{Year: 2025})
	s.Require().ErrorIs(err, domain.ErrBPFYearExists)
	s.Equal(domain.KindConflict, domain.KindOf(err))

	other, err := s.app.BPFs.Create(s.ctx, s.otherTenant(), service.CreateBPFInput{Year: 2025})
	s.Require().NoError(err)
	s.Equal(model.BPFDraft, other.Status)
}

func (s *ServiceSuite) TestBPF_RejectsNonObjectData() {
	_, err := s.app.BPFs.Create(s.ctx, s.tenant, service.CreateBPFInput{Year: 2024, Data: json.RawMessage(`[1,2]`)})
	var verr *domain.ValidationError
	s.Require().ErrorAs(err, &verr)
	s.Contains(verr.Fields, "data")

	_, err = s.app.BPFs.Create(s.ctx, s.tenant, service.CreateBPFInput{Year: 1990})
	s.Equal(domain.KindValidation, domain.KindOf(err))
}

func (s *ServiceSuite) TestBPF_SubmittedIsFrozen() {
	bpf := s.createBPF(2025, `{"total_revenue": 1000}`)

	submitted := s.submitBPF(bpf)
	s.Equal(model.BPFSubmitted, submitted.Status)
	s.Require().NotNil(submitted.SubmittedDate)
	s.True(submitted.SubmittedDate.Equal(testNow))

	_, err := s.app.BPFs.Update(s.ctx, s.tenant, bpf.ID, json.RawMessage(`{"total_revenue": 2000}`))
	s.Require().ErrorIs(err, domain.ErrBPFNotDraft)
	s.Equal(domain.KindInvalidOperation, domain.KindOf(err))

	_, err = s.app.BPFs.Submit(s.ctx, s.tenant, bpf.ID, service.SubmitBPFInput{SubmittedTo: "DREETS", SubmissionMethod: "courrier"})
	s.Require().ErrorIs(err, domain.ErrBPFNotDraft)

	err = s.app.BPFs.Delete(s.ctx, s.tenant, bpf.ID)
	s.Require().ErrorIs(err, domain.ErrBPFNotDraft)

	stored, err := s.app.BPFs.ByYear(s.ctx, s.tenant, 2025)
	s.Require().NoError(err)
	s.JSONEq(`{"total_revenue": 1000}`, string(stored.Data))
}

func (s *ServiceSuite) TestBPF_DraftUpdateAndDelete() {
	bpf := s.createBPF(2026, `{"trainee_count": 3}`)

	updated, err := s.app.BPFs.Update(s.ctx, s.tenant, bpf.ID, json.RawMessage(`{"trainee_count": 7}`))
	s.Require().NoError(err)
	s.JSONEq(`{"trainee_count": 7}`, string(updated.Data))

	s.Require().NoError(s.app.BPFs.Delete(s.ctx, s.tenant, bpf.ID))
	_, err = s.app.BPFs.Get(s.ctx, s.tenant, bpf.ID)
	s.Require().ErrorIs(err, domain.ErrBPFNotFound)
}

func (s *ServiceSuite) TestBPF_ArchivesRollUp() {
	first := s.createBPF(2023, `{"total_revenue": "1500,50", "bilan": {"training_hours": 120}, "trainee_count": 12}`)
	second := s.createBPF(2024, `{"chiffre_affaires": 2000, "pedagogie": {"heures_formation": 80, "nombre_stagiaires": 8}}`)
	s.createBPF(2025, `{"total_revenue": 9999}`)
	s.submitBPF(first)
	s.submitBPF(second)

	archives, err := s.app.BPFs.Archives(s.ctx, s.tenant, 0, 0)
	s.Require().NoError(err)
	s.Require().Len(archives.Reports, 2)
	s.True(archives.Totals.TotalRevenue.Equal(decimal.RequireFromString("3500.5")))
	s.True(archives.Totals.TrainingHours.Equal(decimal.NewFromInt(200)))
	s.EqualValues(20, archives.Totals.TraineeCount)

	ranged, err := s.app.BPFs.Archives(s.ctx, s.tenant, 2024, 2024)
	s.Require().NoError(err)
	s.Len(ranged.Reports, 1)

	_, err = s.app.BPFs.Archives(s.ctx, s.tenant, 2025, 2023)
	s.Equal(domain.KindValidation, domain.KindOf(err))
}

func (s *ServiceSuite) TestBPF_ExportFormats() {
	bpf := s.createBPF(2025, `{"total_revenue": 1000, "bilan": {"heures": 10}}`)

	out, err := s.app.BPFs.Export(s.ctx, s.tenant, bpf.ID, "CSV")
	s.Require().NoError(err)
	s.Equal(service.ExportCSV, out.Format)
	s.Equal("text/csv", out.ContentType)
	s.Contains(out.URL, "/bpf-2025-")
	s.True(strings.HasSuffix(out.Reference, ".csv"))

	stored, err := s.app.BPFs.Get(s.ctx, s.tenant, bpf.ID)
	s.Require().NoError(err)
	s.Equal(out.Reference, stored.ExportReference)

	_, err = s.app.BPFs.Export(s.ctx, s.tenant, bpf.ID, service.ExportPDF)
	s.Require().ErrorIs(err, domain.ErrNoRenderer)

	_, err = s.app.BPFs.Export(s.ctx, s.tenant, bpf.ID, "docx")
	s.Equal(domain.KindValidation, domain.KindOf(err))
}

func (s *ServiceSuite) TestBPF_ReexportReplacesPreviousFile() {
	bpf := s.createBPF(2025, `{"total_revenue": 1000}`)

	first, err := s.app.BPFs.Export(s.ctx, s.tenant, bpf.ID, service.ExportCSV)
	s.Require().NoError(err)
	s.True(s.storedFileExists(first.Reference))

	second, err := s.app.BPFs.Export(s.ctx, s.tenant, bpf.ID, service.ExportJSON)
	s.Require().NoError(err)
	s.NotEqual(first.Reference, second.Reference)
	s.True(s.storedFileExists(second.Reference))
	s.False(s.storedFileExists(first.Reference))

	stored, err := s.app.BPFs.Get(s.ctx, s.tenant, bpf.ID)
	s.Require().NoError(err)
	s.Equal(second.Reference, stored.ExportReference)
}

func (s *ServiceSuite) TestBPF_PDFExportUsesRenderer() {
	ctrl := gomock.NewController(s.T())
	renderer := mocks.NewMockRenderer(ctrl)
	files := mocks.NewMockFileStore(ctrl)
	bpfs := service.NewBPFService(
		repository.NewTxManager(s.db),
		repository.NewBPFRepository(s.db),
		files,
		renderer,
		s.clock,
		metrics.New(prometheus.NewRegistry()),
	)
	bpf, err := bpfs.Create(s.ctx, s.tenant, service.CreateBPFInput{Year: 2025})
	s.Require().NoError(err)

	pdf := []byte("%PDF-1.7")
	renderer.EXPECT().RenderBPF(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, b *model.BPF) ([]byte, error) {
			s.Equal(2025, b.Year)
			return pdf, nil
		})
	files.EXPECT().Store(gomock.Any(), pdf, gomock.Any()).Return("bpf/2025.pdf", nil)
	files.EXPECT().URL("bpf/2025.pdf").Return("https://files.example/bpf/2025.pdf")

	out, err := bpfs.Export(s.ctx, s.tenant, bpf.ID, service.ExportPDF)
	s.Require().NoError(err)
	s.Equal("application/pdf", out.ContentType)
	s.Equal(len(pdf), out.SizeBytes)

	renderer.EXPECT().RenderBPF(gomock.Any(), gomock.Any()).Return(nil, errors.New("font missing"))
	_, err = bpfs.Export(s.ctx, s.tenant, bpf.ID, service.ExportPDF)
	s.Require().Error(err)
	s.Equal(domain.KindInternal, domain.KindOf(err))
}
