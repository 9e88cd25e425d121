// internal/repository/user.go
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dangerclosesec/qualitrack/internal/domain"
	"github.com/dangerclosesec/qualitrack/internal/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var errUserNotFound = fmt.Errorf("%w: user", domain.ErrNotFound)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	result := conn(ctx, r.db).Where("email = ?", normalizeEmail(email)).First(&user)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, errUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", result.Error)
	}
	return &user, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var user model.User
	result := conn(ctx, r.db).First(&user, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, errUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", result.Error)
	}
	return &user, nil
}

// CreateRestrictedUser creates the account of an invitee, or reuses the
// account already registered under the same email, and binds it to the
// organization with the given role and indicator access.
func (r *UserRepository) CreateRestrictedUser(ctx context.Context, in domain.RestrictedUser) (uuid.UUID, error) {
	db := conn(ctx, r.db)

	user, err := r.FindByEmail(ctx, in.Email)
	switch {
	case errors.Is(err, errUserNotFound):
		user = &model.User{
			Email:        normalizeEmail(in.Email),
			Name:         in.Name,
			PasswordHash: in.PasswordHash,
			Status:       model.StatusActive,
		}
		if err := db.Create(user).Error; err != nil {
			return uuid.Nil, fmt.Errorf("failed to create user: %w", err)
		}
	case err != nil:
		return uuid.Nil, err
	}

	member := &model.OrganizationUser{
		OrganizationID:  in.OrganizationID,
		UserID:          user.ID,
		Role:            in.Role,
		IndicatorAccess: in.IndicatorAccess,
		Permissions:     in.Permissions,
	}
	err = db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "organization_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"role", "indicator_access", "permissions"}),
	}).Create(member).Error
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to bind user to organization: %w", err)
	}
	return user.ID, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
