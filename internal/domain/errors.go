// internal/domain/errors.go
package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Error kinds. Every error returned by a service wraps exactly one of these.
var (
	ErrValidation       = errors.New("validation failed")
	ErrNotFound         = errors.New("not found")
	ErrConflict         = errors.New("conflict")
	ErrInvalidOperation = errors.New("invalid operation")
	ErrExpired          = errors.New("expired")
	ErrStorage          = errors.New("storage error")
)

var (
	// Tenant-related errors
	ErrMissingOrganization = fmt.Errorf("%w: organization id is required", ErrValidation)

	// Indicator-related errors
	ErrIndicatorNotFound    = fmt.Errorf("%w: indicator", ErrNotFound)
	ErrCatalogAlreadySeeded = fmt.Errorf("%w: organization already initialized", ErrConflict)

	// Document-related errors
	ErrDocumentNotFound = fmt.Errorf("%w: document", ErrNotFound)
	ErrForeignIndicator = fmt.Errorf("%w: indicator does not belong to organization", ErrValidation)

	// Action-related errors
	ErrActionNotFound         = fmt.Errorf("%w: action", ErrNotFound)
	ErrActionCategoryNotFound = fmt.Errorf("%w: action category", ErrNotFound)
	ErrActionCategoryExists   = fmt.Errorf("%w: action category label already used", ErrConflict)
	ErrActionCategoryInUse    = fmt.Errorf("%w: action category still has actions", ErrInvalidOperation)

	// Task-related errors
	ErrTaskNotFound         = fmt.Errorf("%w: task", ErrNotFound)
	ErrTaskCategoryNotFound = fmt.Errorf("%w: task category", ErrNotFound)
	ErrTaskCategoryExists   = fmt.Errorf("%w: task category slug already used", ErrConflict)
	ErrSystemCategory       = fmt.Errorf("%w: system categories cannot be modified", ErrInvalidOperation)
	ErrTaskCategoryInUse    = fmt.Errorf("%w: task category still has tasks", ErrInvalidOperation)

	// Audit-related errors
	ErrAuditNotFound         = fmt.Errorf("%w: audit", ErrNotFound)
	ErrNoUpcomingAudit       = fmt.Errorf("%w: no upcoming audit", ErrNotFound)
	ErrAuditAlreadyCompleted = fmt.Errorf("%w: audit already completed", ErrInvalidOperation)
	ErrAuditNotScheduled     = fmt.Errorf("%w: audit is not scheduled", ErrInvalidOperation)

	// BPF-related errors
	ErrBPFNotFound   = fmt.Errorf("%w: bpf", ErrNotFound)
	ErrBPFYearExists = fmt.Errorf("%w: a bpf already exists for this year", ErrConflict)
	ErrBPFNotDraft   = fmt.Errorf("%w: bpf is not a draft", ErrInvalidOperation)
	ErrNoRenderer    = fmt.Errorf("%w: export format not available", ErrValidation)

	// Statistics-related errors
	ErrStatisticAbsent = fmt.Errorf("%w: statistic", ErrNotFound)

	// Invitation-related errors
	ErrInvitationNotFound = fmt.Errorf("%w: invitation", ErrNotFound)
	ErrInvitationPending  = fmt.Errorf("%w: a pending invitation already exists for this email", ErrConflict)
	ErrInvitationUsed     = fmt.Errorf("%w: invitation is no longer pending", ErrConflict)
	ErrInvitationExpired  = fmt.Errorf("%w: invitation has expired", ErrExpired)
	ErrInvitationClosed   = fmt.Errorf("%w: invitation is not pending", ErrInvalidOperation)

	// Session-related errors
	ErrInvalidCredentials = fmt.Errorf("%w: invalid credentials", ErrValidation)
	ErrMembershipNotFound = fmt.Errorf("%w: membership", ErrNotFound)
	ErrAmbiguousOrg       = fmt.Errorf("%w: organization_id is required for users in several organizations", ErrValidation)
)

// ValidationError reports field-level problems with a payload.
type ValidationError struct {
	Fields map[string]string
}

func NewValidationError(field, problem string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: problem}}
}

func (e *ValidationError) Error() string {
	return ErrValidation.Error() + ": " + strings.Join(e.Details(), ", ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Details returns the field problems as "field: problem" strings.
func (e *ValidationError) Details() []string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	details := make([]string, 0, len(keys))
	for _, k := range keys {
		details = append(details, k+": "+e.Fields[k])
	}
	return details
}

// Kind is the stable, caller-facing error category.
type Kind string

const (
	KindValidation       Kind = "validation"
	KindNotFound         Kind = "not_found"
	KindConflict         Kind = "conflict"
	KindInvalidOperation Kind = "invalid_operation"
	KindExpired          Kind = "expired"
	KindStorage          Kind = "storage"
	KindInternal         Kind = "internal"
)

// KindOf classifies err into one of the error kinds.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrConflict):
		return KindConflict
	case errors.Is(err, ErrInvalidOperation):
		return KindInvalidOperation
	case errors.Is(err, ErrExpired):
		return KindExpired
	case errors.Is(err, ErrStorage):
		return KindStorage
	default:
		return KindInternal
	}
}
