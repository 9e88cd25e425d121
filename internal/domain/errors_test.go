package domain_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/dangerclosesec/qualitrack/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want domain.Kind
	}{
		{"nil", nil, ""},
		{"validation struct", domain.NewValidationError("year", "required"), domain.KindValidation},
		{"wrapped not found", fmt.Errorf("loading: %w", domain.ErrIndicatorNotFound), domain.KindNotFound},
		{"conflict", domain.ErrBPFYearExists, domain.KindConflict},
		{"invalid operation", domain.ErrSystemCategory, domain.KindInvalidOperation},
		{"expired", domain.ErrInvitationExpired, domain.KindExpired},
		{"storage", fmt.Errorf("%w: disk full", domain.ErrStorage), domain.KindStorage},
		{"unknown", errors.New("boom"), domain.KindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, domain.KindOf(tt.err))
		})
	}
}

func TestValidationErrorDetails(t *testing.T) {
	err := &domain.ValidationError{Fields: map[string]string{"title": "required", "priority": "oneof"}}

	assert.Equal(t, []string{"priority: oneof", "title: required"}, err.Details())
	assert.Equal(t, "validation failed: priority: oneof, title: required", err.Error())
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestDaysBetween(t *testing.T) {
	today := time.Date(2025, 1, 15, 18, 30, 0, 0, time.UTC)

	assert.Equal(t, 45, domain.DaysBetween(today, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 0, domain.DaysBetween(today, time.Date(2025, 1, 15, 1, 0, 0, 0, time.UTC)))
	assert.Equal(t, -5, domain.DaysBetween(today, time.Date(2025, 1, 10, 23, 0, 0, 0, time.UTC)))
}

func TestTenantValidate(t *testing.T) {
	assert.ErrorIs(t, domain.Tenant{}.Validate(), domain.ErrValidation)
}

func TestTenantIndicatorAccess(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	open := domain.Tenant{OrganizationID: uuid.New()}
	assert.True(t, open.CanSeeIndicator(a))
	assert.True(t, open.CanSeeAny(nil))

	limited := domain.Tenant{OrganizationID: uuid.New(), IndicatorAccess: []uuid.UUID{a}}
	assert.True(t, limited.Restricted())
	assert.True(t, limited.CanSeeIndicator(a))
	assert.False(t, limited.CanSeeIndicator(b))
	assert.True(t, limited.CanSeeAny([]uuid.UUID{b, a}))
	assert.False(t, limited.CanSeeAny([]uuid.UUID{b}))
	assert.False(t, limited.CanSeeAny(nil))
}
