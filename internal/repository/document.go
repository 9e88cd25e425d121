// internal/repository/document.go
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/dangerclosesec/qualitrack/internal/domain"
	"github.com/dangerclosesec/qualitrack/internal/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DocumentFilter narrows a document listing. Zero values are ignored.
type DocumentFilter struct {
	Type        model.DocumentType
	IndicatorID uuid.UUID
	Category    string
	Search      string

	// AnyIndicator keeps documents linked to at least one of these indicators.
	AnyIndicator []uuid.UUID
}

type DocumentRepository struct {
	db *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func (r *DocumentRepository) Create(ctx context.Context, doc *model.Document) error {
	if err := conn(ctx, r.db).Create(doc).Error; err != nil {
		return fmt.Errorf("failed to create document: %w", err)
	}
	return nil
}

func (r *DocumentRepository) FindByID(ctx context.Context, orgID, id uuid.UUID) (*model.Document, error) {
	var doc model.Document
	if err := scoped(ctx, r.db, orgID).First(&doc, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrDocumentNotFound
		}
		return nil, fmt.Errorf("failed to find document: %w", err)
	}
	ids, err := r.IndicatorIDs(ctx, orgID, doc.ID)
	if err != nil {
		return nil, err
	}
	doc.IndicatorIDs = ids
	return &doc, nil
}

// List returns a page of documents and the total number matching f.
func (r *DocumentRepository) List(ctx context.Context, orgID uuid.UUID, f DocumentFilter, page Page) ([]*model.Document, int64, error) {
	q := scoped(ctx, r.db, orgID).Model(&model.Document{})
	if f.Type != "" {
		q = q.Where("type = ?", f.Type)
	}
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.Search != "" {
		q = q.Where("LOWER(name) LIKE ?", likePattern(f.Search))
	}
	if f.IndicatorID != uuid.Nil {
		q = q.Where("id IN (?)", conn(ctx, r.db).Model(&model.DocumentIndicator{}).
			Select("document_id").
			Where("organization_id = ? AND indicator_id = ?", orgID, f.IndicatorID))
	}
	if len(f.AnyIndicator) > 0 {
		q = q.Where("id IN (?)", conn(ctx, r.db).Model(&model.DocumentIndicator{}).
			Select("document_id").
			Where("organization_id = ? AND indicator_id IN ?", orgID, f.AnyIndicator))
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count documents: %w", err)
	}

	page = page.Normalize()
	var docs []*model.Document
	if err := q.Order("created_at DESC").Offset(page.Offset()).Limit(page.Limit).Find(&docs).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list documents: %w", err)
	}
	if err := r.loadIndicatorIDs(ctx, orgID, docs); err != nil {
		return nil, 0, err
	}
	return docs, total, nil
}

// ListForIndicator returns the active documents linked to an indicator,
// optionally restricted to one type.
func (r *DocumentRepository) ListForIndicator(ctx context.Context, orgID, indicatorID uuid.UUID, docType model.DocumentType) ([]*model.Document, error) {
	q := scoped(ctx, r.db, orgID).
		Where("status = ?", model.DocumentActive).
		Where("id IN (?)", conn(ctx, r.db).Model(&model.DocumentIndicator{}).
			Select("document_id").
			Where("organization_id = ? AND indicator_id = ?", orgID, indicatorID))
	if docType != "" {
		q = q.Where("type = ?", docType)
	}

	var docs []*model.Document
	if err := q.Order("name ASC").Find(&docs).Error; err != nil {
		return nil, fmt.Errorf("failed to list indicator documents: %w", err)
	}
	return docs, nil
}

func (r *DocumentRepository) Update(ctx context.Context, doc *model.Document) error {
	rows, err := updateScoped(ctx, r.db, doc, doc.OrganizationID)
	if err != nil {
		return fmt.Errorf("failed to update document: %w", err)
	}
	if rows == 0 {
		return domain.ErrDocumentNotFound
	}
	return nil
}

// CountByFileReference counts the documents of orgID pointing at ref.
func (r *DocumentRepository) CountByFileReference(ctx context.Context, orgID uuid.UUID, ref string) (int64, error) {
	var count int64
	err := scoped(ctx, r.db, orgID).Model(&model.Document{}).Where("file_reference = ?", ref).Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count file references: %w", err)
	}
	return count, nil
}

// Delete removes the document and its indicator links.
func (r *DocumentRepository) Delete(ctx context.Context, orgID, id uuid.UUID) error {
	db := conn(ctx, r.db)
	if err := db.Where("organization_id = ? AND document_id = ?", orgID, id).Delete(&model.DocumentIndicator{}).Error; err != nil {
		return fmt.Errorf("failed to delete document links: %w", err)
	}
	res := db.Where("organization_id = ?", orgID).Delete(&model.Document{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete document: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrDocumentNotFound
	}
	return nil
}

// IndicatorIDs returns the indicators a document is linked to.
func (r *DocumentRepository) IndicatorIDs(ctx context.Context, orgID, docID uuid.UUID) ([]uuid.UUID, error) {
	ids := []uuid.UUID{}
	err := scoped(ctx, r.db, orgID).Model(&model.DocumentIndicator{}).
		Where("document_id = ?", docID).
		Order("created_at ASC, indicator_id ASC").
		Pluck("indicator_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load document indicators: %w", err)
	}
	return ids, nil
}

func (r *DocumentRepository) loadIndicatorIDs(ctx context.Context, orgID uuid.UUID, docs []*model.Document) error {
	if len(docs) == 0 {
		return nil
	}
	byID := make(map[uuid.UUID]*model.Document, len(docs))
	docIDs := make([]uuid.UUID, 0, len(docs))
	for _, d := range docs {
		d.IndicatorIDs = []uuid.UUID{}
		byID[d.ID] = d
		docIDs = append(docIDs, d.ID)
	}

	var links []model.DocumentIndicator
	err := scoped(ctx, r.db, orgID).
		Where("document_id IN ?", docIDs).
		Order("created_at ASC, indicator_id ASC").
		Find(&links).Error
	if err != nil {
		return fmt.Errorf("failed to load document indicators: %w", err)
	}
	for _, l := range links {
		if d, ok := byID[l.DocumentID]; ok {
			d.IndicatorIDs = append(d.IndicatorIDs, l.IndicatorID)
		}
	}
	return nil
}

// AddIndicators links a document to indicators, ignoring existing links.
func (r *DocumentRepository) AddIndicators(ctx context.Context, orgID, docID uuid.UUID, indicatorIDs []uuid.UUID) error {
	if len(indicatorIDs) == 0 {
		return nil
	}
	links := make([]model.DocumentIndicator, 0, len(indicatorIDs))
	for _, id := range indicatorIDs {
		links = append(links, model.DocumentIndicator{
			DocumentID:     docID,
			IndicatorID:    id,
			OrganizationID: orgID,
		})
	}
	if err := conn(ctx, r.db).Clauses(clause.OnConflict{DoNothing: true}).Create(&links).Error; err != nil {
		return fmt.Errorf("failed to link document: %w", err)
	}
	return nil
}

// RemoveIndicator unlinks one indicator and reports whether a link existed.
func (r *DocumentRepository) RemoveIndicator(ctx context.Context, orgID, docID, indicatorID uuid.UUID) (bool, error) {
	res := scoped(ctx, r.db, orgID).
		Where("document_id = ? AND indicator_id = ?", docID, indicatorID).
		Delete(&model.DocumentIndicator{})
	if res.Error != nil {
		return false, fmt.Errorf("failed to unlink document: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// ReplaceIndicators makes indicatorIDs the exact link set of the document.
func (r *DocumentRepository) ReplaceIndicators(ctx context.Context, orgID, docID uuid.UUID, indicatorIDs []uuid.UUID) error {
	if err := scoped(ctx, r.db, orgID).Where("document_id = ?", docID).Delete(&model.DocumentIndicator{}).Error; err != nil {
		return fmt.Errorf("failed to clear document links: %w", err)
	}
	return r.AddIndicators(ctx, orgID, docID, indicatorIDs)
}

// CountsForIndicator counts the active documents of each type linked to an
// indicator.
func (r *DocumentRepository) CountsForIndicator(ctx context.Context, orgID, indicatorID uuid.UUID) (model.DocumentCounts, error) {
	var rows []typeCount
	err := conn(ctx, r.db).Model(&model.Document{}).
		Select("documents.type AS type, COUNT(*) AS count").
		Joins("JOIN document_indicator ON document_indicator.document_id = documents.id").
		Where("documents.organization_id = ? AND document_indicator.indicator_id = ?", orgID, indicatorID).
		Where("documents.status = ?", model.DocumentActive).
		Group("documents.type").
		Scan(&rows).Error
	if err != nil {
		return model.DocumentCounts{}, fmt.Errorf("failed to count indicator documents: %w", err)
	}
	return countsFromRows(rows), nil
}

// CountByType counts the active documents of an organization per type.
func (r *DocumentRepository) CountByType(ctx context.Context, orgID uuid.UUID) (model.DocumentCounts, error) {
	var rows []typeCount
	err := scoped(ctx, r.db, orgID).Model(&model.Document{}).
		Select("type, COUNT(*) AS count").
		Where("status = ?", model.DocumentActive).
		Group("type").
		Scan(&rows).Error
	if err != nil {
		return model.DocumentCounts{}, fmt.Errorf("failed to count documents: %w", err)
	}
	return countsFromRows(rows), nil
}

type typeCount struct {
	Type  model.DocumentType
	Count int
}

func countsFromRows(rows []typeCount) model.DocumentCounts {
	var c model.DocumentCounts
	for _, row := range rows {
		switch row.Type {
		case model.DocumentProcedure:
			c.Procedure = row.Count
		case model.DocumentModel:
			c.Model = row.Count
		case model.DocumentEvidence:
			c.Evidence = row.Count
		}
	}
	return c
}
