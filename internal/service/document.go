// internal/service/document.go
package service

import (
	"context"
	"fmt"
	"log/slog"
	"path"

	"github.com/dangerclosesec/qualitrack/internal/domain"
	"github.com/dangerclosesec/qualitrack/internal/metrics"
	"github.com/dangerclosesec/qualitrack/internal/model"
	"github.com/dangerclosesec/qualitrack/internal/repository"
	"github.com/dangerclosesec/qualitrack/internal/storage"
	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

const maxUploadBytes = 50 << 20

type CreateDocumentInput struct {
	Name          string      `json:"name" validate:"required,max=255"`
	Type          string      `json:"type" validate:"required,oneof=procedure model evidence"`
	FileReference string      `json:"file_reference" validate:"required,max=2048"`
	FileType      string      `json:"file_type" validate:"max=255"`
	SizeBytes     int64       `json:"size_bytes" validate:"gte=0"`
	Description   string      `json:"description"`
	Category      string      `json:"category" validate:"max=255"`
	IndicatorIDs  []uuid.UUID `json:"indicator_ids"`
}

type UploadDocumentInput struct {
	Filename     string      `json:"filename" validate:"required,max=255"`
	Data         []byte      `json:"-" validate:"required,min=1"`
	Name         string      `json:"name" validate:"max=255"`
	Type         string      `json:"type" validate:"required,oneof=procedure model evidence"`
	Description  string      `json:"description"`
	Category     string      `json:"category" validate:"max=255"`
	IndicatorIDs []uuid.UUID `json:"indicator_ids"`
}

// UpdateDocumentInput patches a document. A non-nil IndicatorIDs replaces
// the whole association set.
type UpdateDocumentInput struct {
	Name          *string      `json:"name" validate:"omitnil,min=1,max=255"`
	Type          *string      `json:"type" validate:"omitnil,oneof=procedure model evidence"`
	FileReference *string      `json:"file_reference" validate:"omitnil,min=1,max=2048"`
	Description   *string      `json:"description"`
	Category      *string      `json:"category" validate:"omitnil,max=255"`
	Status        *string      `json:"status" validate:"omitnil,oneof=active archived"`
	IndicatorIDs  *[]uuid.UUID `json:"indicator_ids"`
}

// DocumentService owns documents and their links to indicators. It is the
// only writer of the derived completion fields on indicators.
type DocumentService struct {
	tx         *repository.TxManager
	documents  *repository.DocumentRepository
	indicators *repository.IndicatorRepository
	files      storage.FileStore
	policy     CompletionPolicy
	clock      domain.Clock
	metrics    *metrics.Metrics
	validate   *validator.Validate
}

func NewDocumentService(
	tx *repository.TxManager,
	documents *repository.DocumentRepository,
	indicators *repository.IndicatorRepository,
	files storage.FileStore,
	policy CompletionPolicy,
	clock domain.Clock,
	m *metrics.Metrics,
) *DocumentService {
	return &DocumentService{
		tx:         tx,
		documents:  documents,
		indicators: indicators,
		files:      files,
		policy:     policy,
		clock:      clock,
		metrics:    m,
		validate:   newValidator(),
	}
}

func (s *DocumentService) Create(ctx context.Context, t domain.Tenant, input CreateDocumentInput) (*model.Document, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	if err := validateInput(s.validate, input); err != nil {
		return nil, err
	}

	doc := &model.Document{
		OrganizationID: t.OrganizationID,
		Name:           input.Name,
		Type:           model.DocumentType(input.Type),
		FileReference:  input.FileReference,
		FileType:       input.FileType,
		SizeBytes:      input.SizeBytes,
		Description:    input.Description,
		Category:       input.Category,
		Status:         model.DocumentActive,
		CreatedBy:      t.ActorID,
	}
	if err := s.insert(ctx, t, doc, input.IndicatorIDs); err != nil {
		return nil, err
	}
	return doc, nil
}

// Upload stores the file first and then records the document. When recording
// fails the stored file is removed again.
func (s *DocumentService) Upload(ctx context.Context, t domain.Tenant, input UploadDocumentInput) (*model.Document, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	if err := validateInput(s.validate, input); err != nil {
		return nil, err
	}
	if len(input.Data) > maxUploadBytes {
		return nil, domain.NewValidationError("file", "exceeds the maximum upload size")
	}

	ref, err := s.files.Store(ctx, input.Data, documentPathHint(t.OrganizationID, input.Filename))
	if err != nil {
		return nil, fmt.Errorf("storing upload: %w", err)
	}

	name := input.Name
	if name == "" {
		name = input.Filename
	}
	doc := &model.Document{
		OrganizationID: t.OrganizationID,
		Name:           name,
		Type:           model.DocumentType(input.Type),
		FileReference:  ref,
		FileType:       mimetype.Detect(input.Data).String(),
		SizeBytes:      int64(len(input.Data)),
		Description:    input.Description,
		Category:       input.Category,
		Status:         model.DocumentActive,
		CreatedBy:      t.ActorID,
	}
	if err := s.insert(ctx, t, doc, input.IndicatorIDs); err != nil {
		s.removeFile(ctx, ref)
		return nil, err
	}
	return doc, nil
}

func (s *DocumentService) insert(ctx context.Context, t domain.Tenant, doc *model.Document, indicatorIDs []uuid.UUID) error {
	ids := dedupeIDs(indicatorIDs)
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.ensureOwned(txCtx, t.OrganizationID, ids); err != nil {
			return err
		}
		if err := s.documents.Create(txCtx, doc); err != nil {
			return err
		}
		if err := s.documents.AddIndicators(txCtx, t.OrganizationID, doc.ID, ids); err != nil {
			return err
		}
		return s.recompute(txCtx, t.OrganizationID, ids)
	})
	if err != nil {
		return err
	}
	doc.IndicatorIDs = ids
	s.metrics.IncrementDocumentsCreated()
	slog.InfoContext(ctx, "document created",
		"organization_id", t.OrganizationID,
		"document_id", doc.ID,
		"type", doc.Type,
		"indicators", len(ids),
	)
	return nil
}

func (s *DocumentService) Get(ctx context.Context, t domain.Tenant, id uuid.UUID) (*model.Document, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	doc, err := s.documents.FindByID(ctx, t.OrganizationID, id)
	if err != nil {
		return nil, err
	}
	if !t.CanSeeAny(doc.IndicatorIDs) {
		return nil, domain.ErrDocumentNotFound
	}
	return doc, nil
}

func (s *DocumentService) List(ctx context.Context, t domain.Tenant, f repository.DocumentFilter, page repository.Page) (*Paginated[*model.Document], error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	if f.Type != "" && !f.Type.Valid() {
		return nil, domain.NewValidationError("type", "unknown document type")
	}
	f.AnyIndicator = t.IndicatorAccess
	page = page.Normalize()
	docs, total, err := s.documents.List(ctx, t.OrganizationID, f, page)
	if err != nil {
		return nil, err
	}
	return newPaginated(docs, total, page.Page, page.Limit), nil
}

// Update patches a document. Changing the type or the association set
// recomputes every indicator touched before or after the change. A replaced
// file reference is released after the update commits.
func (s *DocumentService) Update(ctx context.Context, t domain.Tenant, id uuid.UUID, input UpdateDocumentInput) (*model.Document, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	if err := validateInput(s.validate, input); err != nil {
		return nil, err
	}

	var (
		doc     *model.Document
		oldFile string
	)
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		doc, err = s.documents.FindByID(txCtx, t.OrganizationID, id)
		if err != nil {
			return err
		}
		before := doc.IndicatorIDs
		countsChange := false

		if input.Name != nil {
			doc.Name = *input.Name
		}
		if input.Type != nil && model.DocumentType(*input.Type) != doc.Type {
			doc.Type = model.DocumentType(*input.Type)
			countsChange = true
		}
		if input.Description != nil {
			doc.Description = *input.Description
		}
		if input.Category != nil {
			doc.Category = *input.Category
		}
		if input.Status != nil && model.DocumentStatus(*input.Status) != doc.Status {
			doc.Status = model.DocumentStatus(*input.Status)
			countsChange = true
		}
		if input.FileReference != nil && *input.FileReference != doc.FileReference {
			oldFile = doc.FileReference
			doc.FileReference = *input.FileReference
		}

		if err := s.documents.Update(txCtx, doc); err != nil {
			return err
		}

		affected := before
		if input.IndicatorIDs != nil {
			after := dedupeIDs(*input.IndicatorIDs)
			if err := s.ensureOwned(txCtx, t.OrganizationID, after); err != nil {
				return err
			}
			if err := s.documents.ReplaceIndicators(txCtx, t.OrganizationID, doc.ID, after); err != nil {
				return err
			}
			doc.IndicatorIDs = after
			affected = union(before, after)
			countsChange = true
		}
		if !countsChange {
			return nil
		}
		return s.recompute(txCtx, t.OrganizationID, affected)
	})
	if err != nil {
		return nil, err
	}

	s.releaseFile(ctx, t.OrganizationID, oldFile)
	return doc, nil
}

// ReplaceFile uploads a new file for an existing document and removes the
// previous one.
func (s *DocumentService) ReplaceFile(ctx context.Context, t domain.Tenant, id uuid.UUID, filename string, data []byte) (*model.Document, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, domain.NewValidationError("file", "is required")
	}
	if len(data) > maxUploadBytes {
		return nil, domain.NewValidationError("file", "exceeds the maximum upload size")
	}
	doc, err := s.documents.FindByID(ctx, t.OrganizationID, id)
	if err != nil {
		return nil, err
	}

	ref, err := s.files.Store(ctx, data, documentPathHint(t.OrganizationID, filename))
	if err != nil {
		return nil, fmt.Errorf("storing replacement: %w", err)
	}
	oldFile := doc.FileReference
	doc.FileReference = ref
	doc.FileType = mimetype.Detect(data).String()
	doc.SizeBytes = int64(len(data))
	if err := s.documents.Update(ctx, doc); err != nil {
		s.removeFile(ctx, ref)
		return nil, err
	}
	s.releaseFile(ctx, t.OrganizationID, oldFile)
	return doc, nil
}

// Associate replaces the association set of a document.
func (s *DocumentService) Associate(ctx context.Context, t domain.Tenant, id uuid.UUID, indicatorIDs []uuid.UUID) (*model.Document, error) {
	ids := indicatorIDs
	if ids == nil {
		ids = []uuid.UUID{}
	}
	return s.Update(ctx, t, id, UpdateDocumentInput{IndicatorIDs: &ids})
}

// Attach adds indicators to the association set of a document.
func (s *DocumentService) Attach(ctx context.Context, t domain.Tenant, id uuid.UUID, indicatorIDs []uuid.UUID) (*model.Document, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	ids := dedupeIDs(indicatorIDs)
	if len(ids) == 0 {
		return nil, domain.NewValidationError("indicator_ids", "is required")
	}

	var doc *model.Document
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		doc, err = s.documents.FindByID(txCtx, t.OrganizationID, id)
		if err != nil {
			return err
		}
		if err := s.ensureOwned(txCtx, t.OrganizationID, ids); err != nil {
			return err
		}
		if err := s.documents.AddIndicators(txCtx, t.OrganizationID, doc.ID, ids); err != nil {
			return err
		}
		if err := s.recompute(txCtx, t.OrganizationID, ids); err != nil {
			return err
		}
		doc.IndicatorIDs, err = s.documents.IndicatorIDs(txCtx, t.OrganizationID, doc.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// Detach removes one indicator from the association set of a document.
func (s *DocumentService) Detach(ctx context.Context, t domain.Tenant, id, indicatorID uuid.UUID) (*model.Document, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}

	var doc *model.Document
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		doc, err = s.documents.FindByID(txCtx, t.OrganizationID, id)
		if err != nil {
			return err
		}
		removed, err := s.documents.RemoveIndicator(txCtx, t.OrganizationID, doc.ID, indicatorID)
		if err != nil {
			return err
		}
		if !removed {
			return domain.ErrIndicatorNotFound
		}
		if err := s.recompute(txCtx, t.OrganizationID, []uuid.UUID{indicatorID}); err != nil {
			return err
		}
		doc.IndicatorIDs, err = s.documents.IndicatorIDs(txCtx, t.OrganizationID, doc.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// Delete removes a document, recomputes the indicators it was linked to and
// then releases its file. A file that cannot be removed is only logged.
func (s *DocumentService) Delete(ctx context.Context, t domain.Tenant, id uuid.UUID) error {
	if err := t.Validate(); err != nil {
		return err
	}

	var ref string
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		doc, err := s.documents.FindByID(txCtx, t.OrganizationID, id)
		if err != nil {
			return err
		}
		ref = doc.FileReference
		if err := s.documents.Delete(txCtx, t.OrganizationID, doc.ID); err != nil {
			return err
		}
		return s.recompute(txCtx, t.OrganizationID, doc.IndicatorIDs)
	})
	if err != nil {
		return err
	}

	s.releaseFile(ctx, t.OrganizationID, ref)
	return nil
}

// URL resolves the public address of a document's file.
func (s *DocumentService) URL(ctx context.Context, t domain.Tenant, id uuid.UUID) (string, error) {
	doc, err := s.Get(ctx, t, id)
	if err != nil {
		return "", err
	}
	return s.files.URL(doc.FileReference), nil
}

// ensureOwned rejects indicator ids that do not belong to the organization.
func (s *DocumentService) ensureOwned(ctx context.Context, orgID uuid.UUID, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	found, err := s.indicators.FindByIDs(ctx, orgID, ids)
	if err != nil {
		return err
	}
	if len(found) != len(ids) {
		return domain.ErrForeignIndicator
	}
	return nil
}

// recompute refreshes the derived counts and completion of each indicator.
func (s *DocumentService) recompute(ctx context.Context, orgID uuid.UUID, ids []uuid.UUID) error {
	ids = dedupeIDs(ids)
	now := s.clock.Now()
	for _, id := range ids {
		counts, err := s.documents.CountsForIndicator(ctx, orgID, id)
		if err != nil {
			return err
		}
		rate, status := s.policy.Evaluate(counts)
		if err := s.indicators.UpdateDerived(ctx, orgID, id, counts, rate, status, now); err != nil {
			return fmt.Errorf("recomputing indicator %s: %w", id, err)
		}
	}
	s.metrics.AddIndicatorRecomputes(len(ids))
	return nil
}

// releaseFile removes ref once no document of orgID points at it anymore.
// References that the organization's uploads did not produce are external
// or belong to someone else and are left alone.
func (s *DocumentService) releaseFile(ctx context.Context, orgID uuid.UUID, ref string) {
	if ref == "" {
		return
	}
	if !storage.InDir(ref, documentDir(orgID)) {
		slog.DebugContext(ctx, "keeping file not uploaded by organization", "organization_id", orgID, "ref", ref)
		return
	}
	n, err := s.documents.CountByFileReference(ctx, orgID, ref)
	if err != nil {
		s.metrics.IncrementBestEffortFailure("file_delete")
		slog.WarnContext(ctx, "failed to check file references", "ref", ref, "error", err)
		return
	}
	if n > 0 {
		return
	}
	s.removeFile(ctx, ref)
}

// removeFile deletes ref without any ownership check. Only call it for a
// reference this service just stored.
func (s *DocumentService) removeFile(ctx context.Context, ref string) {
	if ref == "" {
		return
	}
	if _, err := s.files.Delete(ctx, ref); err != nil {
		s.metrics.IncrementBestEffortFailure("file_delete")
		slog.WarnContext(ctx, "failed to delete document file", "ref", ref, "error", err)
	}
}

func documentDir(orgID uuid.UUID) string {
	return path.Join("documents", orgID.String())
}

func documentPathHint(orgID uuid.UUID, filename string) string {
	return path.Join(documentDir(orgID), path.Base(filename))
}

func union(a, b []uuid.UUID) []uuid.UUID {
	return dedupeIDs(append(append([]uuid.UUID{}, a...), b...))
}
