// internal/service/service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/dangerclosesec/qualitrack/internal/domain"
	"github.com/dangerclosesec/qualitrack/internal/model"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// UserDirectory creates the accounts of accepted invitees.
type UserDirectory interface {
	CreateRestrictedUser(ctx context.Context, in domain.RestrictedUser) (uuid.UUID, error)
}

// Notifier delivers invitation mail.
type Notifier interface {
	SendInvitation(ctx context.Context, inv *model.Invitation, acceptURL string) error
}

// Renderer turns an annual report into a printable document.
type Renderer interface {
	RenderBPF(ctx context.Context, bpf *model.BPF) ([]byte, error)
}

// Paginated is one page of an offset-paginated listing.
type Paginated[T any] struct {
	Items       []T   `json:"items"`
	CurrentPage int   `json:"currentPage"`
	TotalPages  int   `json:"totalPages"`
	TotalItems  int64 `json:"totalItems"`
}

func newPaginated[T any](items []T, total int64, page, limit int) *Paginated[T] {
	pages := 0
	if limit > 0 {
		pages = int((total + int64(limit) - 1) / int64(limit))
	}
	if items == nil {
		items = []T{}
	}
	return &Paginated[T]{
		Items:       items,
		CurrentPage: page,
		TotalPages:  pages,
		TotalItems:  total,
	}
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// validateInput runs struct validation and reports failures field by field.
func validateInput(v *validator.Validate, input any) error {
	err := v.Struct(input)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	out := &domain.ValidationError{Fields: make(map[string]string, len(verrs))}
	for _, fe := range verrs {
		out.Fields[fieldPath(fe)] = describeFieldError(fe)
	}
	return out
}

// fieldPath drops the struct name from the namespace: "auditor.name".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "gte":
		return "must be greater than or equal to " + fe.Param()
	case "lte":
		return "must be less than or equal to " + fe.Param()
	case "unique":
		return "must not contain duplicates"
	case "required_without":
		return "is required"
	case "hexcolor":
		return "must be a hex color"
	default:
		return "failed " + fe.Tag() + " validation"
	}
}

// dedupeIDs drops nil and repeated ids, keeping first-seen order.
func dedupeIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
