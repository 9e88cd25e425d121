// internal/service/bpf.go
package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dangerclosesec/qualitrack/internal/domain"
	"github.com/dangerclosesec/qualitrack/internal/metrics"
	"github.com/dangerclosesec/qualitrack/internal/model"
	"github.com/dangerclosesec/qualitrack/internal/repository"
	"github.com/dangerclosesec/qualitrack/internal/storage"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Export formats.
const (
	ExportJSON = "json"
	ExportCSV  = "csv"
	ExportPDF  = "pdf"
)

// Keys looked up in report data for the archive roll-up, in order of
// preference.
var (
	revenueKeys  = []string{"total_revenue", "chiffre_affaires", "revenue"}
	hoursKeys    = []string{"training_hours", "heures_formation", "total_hours"}
	traineesKeys = []string{"trainee_count", "nombre_stagiaires", "trainees"}
)

type CreateBPFInput struct {
	Year int             `json:"year" validate:"required,gte=2000,lte=2100"`
	Data json.RawMessage `json:"data"`
}

type SubmitBPFInput struct {
	SubmittedTo      string `json:"submitted_to" validate:"required,max=255"`
	SubmissionMethod string `json:"submission_method" validate:"required,max=100"`
}

// BPFSummary is the roll-up extracted from a report's data.
type BPFSummary struct {
	TotalRevenue  decimal.Decimal `json:"total_revenue"`
	TrainingHours decimal.Decimal `json:"training_hours"`
	TraineeCount  int64           `json:"trainee_count"`
}

func (a BPFSummary) add(b BPFSummary) BPFSummary {
	return BPFSummary{
		TotalRevenue:  a.TotalRevenue.Add(b.TotalRevenue),
		TrainingHours: a.TrainingHours.Add(b.TrainingHours),
		TraineeCount:  a.TraineeCount + b.TraineeCount,
	}
}

type BPFArchive struct {
	ID               uuid.UUID  `json:"id"`
	Year             int        `json:"year"`
	SubmittedDate    *time.Time `json:"submitted_date"`
	SubmittedTo      string     `json:"submitted_to"`
	SubmissionMethod string     `json:"submission_method"`
	Summary          BPFSummary `json:"summary"`
}

type BPFArchives struct {
	Reports []*BPFArchive `json:"reports"`
	Totals  BPFSummary    `json:"totals"`
}

type BPFExport struct {
	Format      string `json:"format"`
	Reference   string `json:"reference"`
	URL         string `json:"url"`
	ContentType string `json:"content_type"`
	SizeBytes   int    `json:"size_bytes"`
}

type BPFService struct {
	tx       *repository.TxManager
	bpfs     *repository.BPFRepository
	files    storage.FileStore
	renderer Renderer
	clock    domain.Clock
	metrics  *metrics.Metrics
	validate *validator.Validate
}

// NewBPFService builds the report workflow. renderer may be nil, in which
// case PDF export is unavailable.
func NewBPFService(
	tx *repository.TxManager,
	bpfs *repository.BPFRepository,
	files storage.FileStore,
	renderer Renderer,
	clock domain.Clock,
	m *metrics.Metrics,
) *BPFService {
	return &BPFService{
		tx:       tx,
		bpfs:     bpfs,
		files:    files,
		renderer: renderer,
		clock:    clock,
		metrics:  m,
		validate: newValidator(),
	}
}

// Create opens the draft report of a year. A second report for the same year
// is a conflict; the unique index backs the check under concurrency.
func (s *BPFService) Create(ctx context.Context, t domain.Tenant, input CreateBPFInput) (*model.BPF, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	if err := validateInput(s.validate, input); err != nil {
		return nil, err
	}
	data, err := normalizeBPFData(input.Data)
	if err != nil {
		return nil, err
	}

	bpf := &model.BPF{
		OrganizationID: t.OrganizationID,
		Year:           input.Year,
		Data:           data,
		Status:         model.BPFDraft,
		CreatedBy:      t.ActorID,
	}
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		exists, err := s.bpfs.ExistsForYear(txCtx, t.OrganizationID, input.Year)
		if err != nil {
			return err
		}
		if exists {
			return domain.ErrBPFYearExists
		}
		return s.bpfs.Create(txCtx, bpf)
	})
	if err != nil {
		return nil, err
	}
	return bpf, nil
}

func (s *BPFService) Get(ctx context.Context, t domain.Tenant, id uuid.UUID) (*model.BPF, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return s.bpfs.FindByID(ctx, t.OrganizationID, id)
}

func (s *BPFService) ByYear(ctx context.Context, t domain.Tenant, year int) (*model.BPF, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return s.bpfs.FindByYear(ctx, t.OrganizationID, year)
}

func (s *BPFService) List(ctx context.Context, t domain.Tenant) ([]*model.BPF, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return s.bpfs.List(ctx, t.OrganizationID)
}

// Update replaces the data of a draft report.
func (s *BPFService) Update(ctx context.Context, t domain.Tenant, id uuid.UUID, raw json.RawMessage) (*model.BPF, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	data, err := normalizeBPFData(raw)
	if err != nil {
		return nil, err
	}

	var bpf *model.BPF
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		bpf, err = s.bpfs.FindByID(txCtx, t.OrganizationID, id)
		if err != nil {
			return err
		}
		if bpf.Status != model.BPFDraft {
			return domain.ErrBPFNotDraft
		}
		bpf.Data = data
		ok, err := s.bpfs.UpdateDraft(txCtx, bpf)
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrBPFNotDraft
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return bpf, nil
}

// Submit moves a draft to submitted and stamps the submission date.
func (s *BPFService) Submit(ctx context.Context, t domain.Tenant, id uuid.UUID, input SubmitBPFInput) (*model.BPF, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	if err := validateInput(s.validate, input); err != nil {
		return nil, err
	}

	var bpf *model.BPF
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		bpf, err = s.bpfs.FindByID(txCtx, t.OrganizationID, id)
		if err != nil {
			return err
		}
		if bpf.Status != model.BPFDraft {
			return domain.ErrBPFNotDraft
		}
		now := s.clock.Now()
		bpf.Status = model.BPFSubmitted
		bpf.SubmittedDate = &now
		bpf.SubmittedTo = input.SubmittedTo
		bpf.SubmissionMethod = input.SubmissionMethod

		// The draft guard applies to the row as stored, so the status
		// written here only lands if no one submitted first.
		ok, err := s.bpfs.UpdateDraft(txCtx, bpf)
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrBPFNotDraft
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncrementBPFSubmissions()
	slog.InfoContext(ctx, "bpf submitted",
		"organization_id", t.OrganizationID,
		"year", bpf.Year,
		"submitted_to", bpf.SubmittedTo,
	)
	return bpf, nil
}

// Archives returns the submitted reports with fromYear <= year <= toYear and
// their roll-ups. A zero bound is open.
func (s *BPFService) Archives(ctx context.Context, t domain.Tenant, fromYear, toYear int) (*BPFArchives, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	if fromYear > 0 && toYear > 0 && fromYear > toYear {
		return nil, domain.NewValidationError("year_range", "start year is after end year")
	}
	bpfs, err := s.bpfs.ListSubmitted(ctx, t.OrganizationID, fromYear, toYear)
	if err != nil {
		return nil, err
	}

	out := &BPFArchives{Reports: make([]*BPFArchive, 0, len(bpfs))}
	for _, b := range bpfs {
		summary := summarizeBPFData(b.Data)
		out.Reports = append(out.Reports, &BPFArchive{
			ID:               b.ID,
			Year:             b.Year,
			SubmittedDate:    b.SubmittedDate,
			SubmittedTo:      b.SubmittedTo,
			SubmissionMethod: b.SubmissionMethod,
			Summary:          summary,
		})
		out.Totals = out.Totals.add(summary)
	}
	return out, nil
}

// Export renders a report, stores the artifact and records its reference.
func (s *BPFService) Export(ctx context.Context, t domain.Tenant, id uuid.UUID, format string) (*BPFExport, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	format = strings.ToLower(strings.TrimSpace(format))

	bpf, err := s.bpfs.FindByID(ctx, t.OrganizationID, id)
	if err != nil {
		return nil, err
	}

	var (
		content     []byte
		contentType string
	)
	switch format {
	case ExportJSON:
		content, err = json.MarshalIndent(bpf, "", "  ")
		contentType = "application/json"
	case ExportCSV:
		content, err = bpfCSV(bpf)
		contentType = "text/csv"
	case ExportPDF:
		if s.renderer == nil {
			return nil, domain.ErrNoRenderer
		}
		content, err = s.renderer.RenderBPF(ctx, bpf)
		contentType = "application/pdf"
	default:
		return nil, domain.NewValidationError("format", "must be one of: json csv pdf")
	}
	if err != nil {
		return nil, fmt.Errorf("rendering bpf %d as %s: %w", bpf.Year, format, err)
	}

	dir := path.Join("bpf", t.OrganizationID.String())
	ref, err := s.files.Store(ctx, content, path.Join(dir, fmt.Sprintf("bpf-%d.%s", bpf.Year, format)))
	if err != nil {
		return nil, fmt.Errorf("storing bpf export: %w", err)
	}
	if err := s.bpfs.SetExportReference(ctx, t.OrganizationID, bpf.ID, ref); err != nil {
		return nil, err
	}

	// Only the latest export is kept.
	if previous := bpf.ExportReference; previous != "" && previous != ref && storage.InDir(previous, dir) {
		if _, err := s.files.Delete(ctx, previous); err != nil {
			s.metrics.IncrementBestEffortFailure("file_delete")
			slog.WarnContext(ctx, "failed to delete previous bpf export", "ref", previous, "error", err)
		}
	}

	return &BPFExport{
		Format:      format,
		Reference:   ref,
		URL:         s.files.URL(ref),
		ContentType: contentType,
		SizeBytes:   len(content),
	}, nil
}

// Delete removes a draft report.
func (s *BPFService) Delete(ctx context.Context, t domain.Tenant, id uuid.UUID) error {
	if err := t.Validate(); err != nil {
		return err
	}
	return s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		bpf, err := s.bpfs.FindByID(txCtx, t.OrganizationID, id)
		if err != nil {
			return err
		}
		if bpf.Status != model.BPFDraft {
			return domain.ErrBPFNotDraft
		}
		deleted, err := s.bpfs.DeleteDraft(txCtx, t.OrganizationID, id)
		if err != nil {
			return err
		}
		if !deleted {
			return domain.ErrBPFNotDraft
		}
		return nil
	})
}

// normalizeBPFData requires a JSON object; an empty payload becomes {}.
func normalizeBPFData(raw json.RawMessage) (datatypes.JSON, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return datatypes.JSON("{}"), nil
	}
	var obj map[string]any
	if err := json.Unmarshal(trimmed, &obj); err != nil {
		return nil, domain.NewValidationError("data", "must be a JSON object")
	}
	return datatypes.JSON(trimmed), nil
}

func decodeBPFData(data datatypes.JSON) map[string]any {
	if len(data) == 0 {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var obj map[string]any
	if err := dec.Decode(&obj); err != nil {
		return nil
	}
	return obj
}

func summarizeBPFData(data datatypes.JSON) BPFSummary {
	obj := decodeBPFData(data)
	summary := BPFSummary{
		TotalRevenue:  decimal.Zero,
		TrainingHours: decimal.Zero,
	}
	if v, ok := lookupNumber(obj, revenueKeys); ok {
		summary.TotalRevenue = v
	}
	if v, ok := lookupNumber(obj, hoursKeys); ok {
		summary.TrainingHours = v
	}
	if v, ok := lookupNumber(obj, traineesKeys); ok {
		summary.TraineeCount = v.IntPart()
	}
	return summary
}

// lookupNumber searches obj breadth first for the first key in keys holding a
// number or numeric string.
func lookupNumber(obj map[string]any, keys []string) (decimal.Decimal, bool) {
	queue := []map[string]any{obj}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, k := range keys {
			if d, ok := toDecimal(cur[k]); ok {
				return d, true
			}
		}
		names := make([]string, 0, len(cur))
		for name := range cur {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			if child, ok := cur[name].(map[string]any); ok {
				queue = append(queue, child)
			}
		}
	}
	return decimal.Zero, false
}

func toDecimal(v any) (decimal.Decimal, bool) {
	switch n := v.(type) {
	case json.Number:
		d, err := decimal.NewFromString(n.String())
		return d, err == nil
	case string:
		d, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(n), ",", "."))
		return d, err == nil
	case float64:
		return decimal.NewFromFloat(n), true
	}
	return decimal.Zero, false
}

// bpfCSV flattens a report into key,value rows with dotted keys.
func bpfCSV(bpf *model.BPF) ([]byte, error) {
	rows := [][]string{
		{"field", "value"},
		{"year", strconv.Itoa(bpf.Year)},
		{"status", string(bpf.Status)},
	}
	if bpf.SubmittedDate != nil {
		rows = append(rows, []string{"submitted_date", bpf.SubmittedDate.Format(time.RFC3339)})
	}
	flat := make(map[string]string)
	flatten("data", decodeBPFData(bpf.Data), flat)
	keys := make([]string, 0, len(flat))
	for k := range flat {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		rows = append(rows, []string{k, flat[k]})
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func flatten(prefix string, v any, out map[string]string) {
	switch val := v.(type) {
	case map[string]any:
		for k, child := range val {
			flatten(prefix+"."+k, child, out)
		}
	case []any:
		for i, child := range val {
			flatten(prefix+"."+strconv.Itoa(i), child, out)
		}
	case nil:
		out[prefix] = ""
	default:
		out[prefix] = fmt.Sprint(val)
	}
}
