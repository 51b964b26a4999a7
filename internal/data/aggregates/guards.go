package aggregates

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"

	"github.com/yungbote/learnquest-backend/internal/platform/dbctx"
)

// CASGuard updates rows only while a column still holds the value the caller read.
type CASGuard struct {
	db *gorm.DB
}

func NewCASGuard(db *gorm.DB) CASGuard {
	return CASGuard{db: db}
}

func (g CASGuard) conn(dbc dbctx.Context) (*gorm.DB, error) {
	switch {
	case dbc.Tx != nil:
		return dbc.Tx.WithContext(dbc.Ctx), nil
	case g.db != nil:
		return g.db.WithContext(dbc.Ctx), nil
	}
	return nil, ValidationError("compare-and-set needs a transaction or database")
}

// UpdateIfUnchanged applies updates to the row with id when column = expected.
// ok is false when another writer changed column first.
func (g CASGuard) UpdateIfUnchanged(dbc dbctx.Context, table schema.Tabler, id uuid.UUID, column string, expected any, updates map[string]any) (ok bool, err error) {
	column = strings.TrimSpace(column)
	if table == nil || table.TableName() == "" || column == "" || id == uuid.Nil {
		return false, ValidationError("compare-and-set needs a table, column and id")
	}
	db, err := g.conn(dbc)
	if err != nil {
		return false, err
	}
	res := db.Table(table.TableName()).
		Where("id = ? AND "+column+" = ?", id, expected).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// RequireCASSuccess turns a lost compare-and-set into a conflict.
func RequireCASSuccess(ok bool, what string) error {
	if ok {
		return nil
	}
	return ConflictError(what)
}

func RequireNonNegative(n int, field string) error {
	if n < 0 {
		return ValidationError(fmt.Sprintf("%s must be >= 0, got %d", strings.TrimSpace(field), n))
	}
	return nil
}
