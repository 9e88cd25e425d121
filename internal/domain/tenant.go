package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Tenant identifies the acting organization and user for an operation.
// Every service operation takes it explicitly; nothing reads it from globals.
type Tenant struct {
	OrganizationID uuid.UUID
	ActorID        uuid.UUID
	Role           string

	// IndicatorAccess limits catalog reads to these indicators. Empty means
	// the whole catalog.
	IndicatorAccess []uuid.UUID
}

// Restricted reports whether the tenant only sees part of the catalog.
func (t Tenant) Restricted() bool {
	return len(t.IndicatorAccess) > 0
}

// CanSeeIndicator reports whether the tenant may read the indicator.
func (t Tenant) CanSeeIndicator(id uuid.UUID) bool {
	if !t.Restricted() {
		return true
	}
	for _, granted := range t.IndicatorAccess {
		if granted == id {
			return true
		}
	}
	return false
}

// CanSeeAny reports whether any of ids is visible to the tenant.
func (t Tenant) CanSeeAny(ids []uuid.UUID) bool {
	if !t.Restricted() {
		return true
	}
	for _, id := range ids {
		if t.CanSeeIndicator(id) {
			return true
		}
	}
	return false
}

// Validate rejects a tenant without an organization.
func (t Tenant) Validate() error {
	if t.OrganizationID == uuid.Nil {
		return ErrMissingOrganization
	}
	return nil
}

type tenantKey struct{}

// WithTenant stores the authenticated tenant in ctx. Only middleware should call it.
func WithTenant(ctx context.Context, t Tenant) context.Context {
	return context.WithValue(ctx, tenantKey{}, t)
}

// TenantFromContext resolves the tenant placed in ctx by the auth middleware.
func TenantFromContext(ctx context.Context) (Tenant, bool) {
	t, ok := ctx.Value(tenantKey{}).(Tenant)
	return t, ok
}

// Clock abstracts time for due-date, expiry and countdown logic.
type Clock interface {
	Now() time.Time
}

// SystemClock reports the current UTC time.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// FixedClock always reports the same instant.
type FixedClock struct {
	At time.Time
}

func (c FixedClock) Now() time.Time { return c.At.UTC() }

// StartOfDay truncates t to midnight UTC.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the number of whole calendar days from `from` to `to`.
func DaysBetween(from, to time.Time) int {
	return int(StartOfDay(to).Sub(StartOfDay(from)).Hours() / 24)
}

// RestrictedUser describes the account created when an invitation is
// accepted.
type RestrictedUser struct {
	Name            string
	Email           string
	PasswordHash    string
	OrganizationID  uuid.UUID
	Role            string
	IndicatorAccess []uuid.UUID
	Permissions     []string
}
