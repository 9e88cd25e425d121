// internal/repository/bpf.go
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/dangerclosesec/qualitrack/internal/domain"
	"github.com/dangerclosesec/qualitrack/internal/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BPFRepository struct {
	db *gorm.DB
}

func NewBPFRepository(db *gorm.DB) *BPFRepository {
	return &BPFRepository{db: db}
}

func (r *BPFRepository) Create(ctx context.Context, bpf *model.BPF) error {
	if err := conn(ctx, r.db).Create(bpf).Error; err != nil {
		if IsUniqueViolation(err) {
			return domain.ErrBPFYearExists
		}
		return fmt.Errorf("failed to create bpf: %w", err)
	}
	return nil
}

func (r *BPFRepository) FindByID(ctx context.Context, orgID, id uuid.UUID) (*model.BPF, error) {
	return r.find(ctx, orgID, "id = ?", id)
}

func (r *BPFRepository) FindByYear(ctx context.Context, orgID uuid.UUID, year int) (*model.BPF, error) {
	return r.find(ctx, orgID, "year = ?", year)
}

func (r *BPFRepository) find(ctx context.Context, orgID uuid.UUID, query string, args ...any) (*model.BPF, error) {
	var bpf model.BPF
	if err := scoped(ctx, r.db, orgID).Where(query, args...).First(&bpf).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrBPFNotFound
		}
		return nil, fmt.Errorf("failed to find bpf: %w", err)
	}
	return &bpf, nil
}

func (r *BPFRepository) ExistsForYear(ctx context.Context, orgID uuid.UUID, year int) (bool, error) {
	var count int64
	err := scoped(ctx, r.db, orgID).Model(&model.BPF{}).
		Where("year = ?", year).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check bpf year: %w", err)
	}
	return count > 0, nil
}

// List returns every report of the organization, newest year first.
func (r *BPFRepository) List(ctx context.Context, orgID uuid.UUID) ([]*model.BPF, error) {
	var bpfs []*model.BPF
	if err := scoped(ctx, r.db, orgID).Order("year DESC").Find(&bpfs).Error; err != nil {
		return nil, fmt.Errorf("failed to list bpfs: %w", err)
	}
	return bpfs, nil
}

// ListSubmitted returns submitted reports with from <= year <= to. A zero
// bound is open.
func (r *BPFRepository) ListSubmitted(ctx context.Context, orgID uuid.UUID, from, to int) ([]*model.BPF, error) {
	q := scoped(ctx, r.db, orgID).Where("status = ?", model.BPFSubmitted)
	if from > 0 {
		q = q.Where("year >= ?", from)
	}
	if to > 0 {
		q = q.Where("year <= ?", to)
	}

	var bpfs []*model.BPF
	if err := q.Order("year DESC").Find(&bpfs).Error; err != nil {
		return nil, fmt.Errorf("failed to list submitted bpfs: %w", err)
	}
	return bpfs, nil
}

// UpdateDraft persists a report only while it is a draft and reports whether
// a row was written.
func (r *BPFRepository) UpdateDraft(ctx context.Context, bpf *model.BPF) (bool, error) {
	res := scoped(ctx, r.db, bpf.OrganizationID).Model(bpf).
		Where("status = ?", model.BPFDraft).
		Select("*").
		Omit("id", "organization_id", "year", "created_at", "created_by").
		Updates(bpf)
	if res.Error != nil {
		return false, fmt.Errorf("failed to update bpf: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// SetExportReference records the last rendered artifact of a report.
func (r *BPFRepository) SetExportReference(ctx context.Context, orgID, id uuid.UUID, ref string) error {
	err := scoped(ctx, r.db, orgID).Model(&model.BPF{}).
		Where("id = ?", id).
		Update("export_reference", ref).Error
	if err != nil {
		return fmt.Errorf("failed to record bpf export: %w", err)
	}
	return nil
}

// DeleteDraft removes a report only while it is a draft.
func (r *BPFRepository) DeleteDraft(ctx context.Context, orgID, id uuid.UUID) (bool, error) {
	res := scoped(ctx, r.db, orgID).
		Where("status = ?", model.BPFDraft).
		Delete(&model.BPF{}, "id = ?", id)
	if res.Error != nil {
		return false, fmt.Errorf("failed to delete bpf: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}
