// internal/repository/organization.go
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

// OrganizationRepository answers questions about tenants as a whole. The
// organization rows themselves are owned by another system.
type OrganizationRepository struct {
	db *gorm.DB
}

func NewOrganizationRepository(db *gorm.DB) *OrganizationRepository {
	return &OrganizationRepository{db: db}
}

// FindAllIDs returns every organization that has been bootstrapped.
func (r *OrganizationRepository) FindAllIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := conn(ctx, r.db).Model(&model.Indicator{}).
		Distinct("organization_id").
		Order("organization_id").
		Pluck("organization_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list organizations: %w", err)
	}
	return ids, nil
}

// FindMembership returns the binding of userID to orgID.
func (r *OrganizationRepository) FindMembership(ctx context.Context, orgID, userID uuid.UUID) (*model.OrganizationUser, error) {
	var member model.OrganizationUser
	err := scoped(ctx, r.db, orgID).Where("user_id = ?", userID).First(&member).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrMembershipNotFound
		}
		return nil, fmt.Errorf("failed to find membership: %w", err)
	}
	return &member, nil
}

// ListMemberships returns every organization the user belongs to.
func (r *OrganizationRepository) ListMemberships(ctx context.Context, userID uuid.UUID) ([]*model.OrganizationUser, error) {
	var members []*model.OrganizationUser
	err := conn(ctx, r.db).Where("user_id = ?", userID).Order("created_at").Find(&members).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list memberships: %w", err)
	}
	return members, nil
}
