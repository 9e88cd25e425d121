// internal/repository/repository.go
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dangerclosesec/qualitrack/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type txKey struct{}

// WithTx stores a gorm transaction in ctx for downstream repository usage.
func WithTx(ctx context.Context, tx *gorm.DB) context.Context {
	if tx == nil {
		return ctx
	}
	return context.WithValue(ctx, txKey{}, tx)
}

// TxFrom extracts the transaction placed in ctx by RunInTx, if any.
func TxFrom(ctx context.Context) (*gorm.DB, bool) {
	tx, ok := ctx.Value(txKey{}).(*gorm.DB)
	return tx, ok
}

// conn returns the transaction bound to ctx or the base connection.
func conn(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx, ok := TxFrom(ctx); ok {
		return tx.WithContext(ctx)
	}
	return db.WithContext(ctx)
}

// scoped returns a connection filtered to one organization.
func scoped(ctx context.Context, db *gorm.DB, orgID uuid.UUID) *gorm.DB {
	return conn(ctx, db).Where("organization_id = ?", orgID)
}

// TxManager runs units of work in a single database transaction.
type TxManager struct {
	db *gorm.DB
}

func NewTxManager(db *gorm.DB) *TxManager {
	return &TxManager{db: db}
}

// RunInTx executes fn inside a transaction. The ctx passed to fn carries the
// transaction; repositories called with it join the same unit of work. Nested
// calls reuse the outer transaction.
func (m *TxManager) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := TxFrom(ctx); ok {
		return fn(ctx)
	}
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(WithTx(ctx, tx))
	})
}

// IsUniqueViolation reports whether err was caused by a unique constraint.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint")
}

// Page is an offset pagination request. Zero values select the defaults.
type Page struct {
	Page  int
	Limit int
}

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

// Normalize clamps the page to sane bounds.
func (p Page) Normalize() Page {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = defaultPageLimit
	}
	if p.Limit > maxPageLimit {
		p.Limit = maxPageLimit
	}
	return p
}

func (p Page) Offset() int {
	p = p.Normalize()
	return (p.Page - 1) * p.Limit
}

// likePattern builds a case-insensitive substring pattern for LIKE.
func likePattern(search string) string {
	return "%" + strings.ToLower(strings.TrimSpace(search)) + "%"
}

// updateScoped writes every column of value except the immutable ones,
// restricted to the owning organization.
func updateScoped(ctx context.Context, db *gorm.DB, value any, orgID uuid.UUID) (int64, error) {
	res := conn(ctx, db).Model(value).
		Where("organization_id = ?", orgID).
		Select("*").
		Omit("id", "organization_id", "created_at", "created_by", clause.Associations).
		Updates(value)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

// updateColumns writes only the named columns of value, restricted to the
// owning organization, and reports the number of rows matched by where.
func updateColumns(ctx context.Context, db *gorm.DB, value any, orgID uuid.UUID, columns []string, where ...any) (int64, error) {
	q := conn(ctx, db).Model(value).Where("organization_id = ?", orgID)
	if len(where) > 0 {
		q = q.Where(where[0], where[1:]...)
	}
	res := q.Select(columns).Updates(value)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

// Models lists every table, in dependency order, for AutoMigrate.
func Models() []any {
	return []any{
		&model.User{},
		&model.OrganizationUser{},
		&model.Indicator{},
		&model.Document{},
		&model.DocumentIndicator{},
		&model.ActionCategory{},
		&model.Action{},
		&model.TaskCategory{},
		&model.Task{},
		&model.Audit{},
		&model.BPF{},
		&model.Statistic{},
		&model.Invitation{},
	}
}

// Migrate creates or updates the schema.
func Migrate(ctx context.Context, db *gorm.DB) error {
	if err := db.WithContext(ctx).AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}
