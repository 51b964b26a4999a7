package aggregates

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	domainagg "github.com/yungbote/learnquest-backend/internal/domain/aggregates"
)

// codedError lets write bodies fail with a code before MapError attaches the op name.
type codedError struct {
	code domainagg.ErrorCode
	msg  string
}

func (e *codedError) Error() string { return e.msg }

func coded(code domainagg.ErrorCode, msg string) error {
	return &codedError{code: code, msg: strings.TrimSpace(msg)}
}

func ValidationError(msg string) error { return coded(domainagg.CodeValidation, msg) }
func InvariantError(msg string) error  { return coded(domainagg.CodeInvariantViolation, msg) }
func ConflictError(msg string) error   { return coded(domainagg.CodeConflict, msg) }
func RetryableError(msg string) error  { return coded(domainagg.CodeRetryable, msg) }

// Postgres SQLSTATEs the engine distinguishes.
var pgCodes = map[string]domainagg.ErrorCode{
	"23505": domainagg.CodeConflict,  // unique_violation
	"40001": domainagg.CodeRetryable, // serialization_failure
	"40P01": domainagg.CodeRetryable, // deadlock_detected
	"55P03": domainagg.CodeRetryable, // lock_not_available
	"57014": domainagg.CodeRetryable, // query_canceled (statement_timeout)
}

// SQLite reports constraint and lock failures only in the message text.
var sqliteFragments = []struct {
	fragment string
	code     domainagg.ErrorCode
}{
	{"unique constraint failed", domainagg.CodeConflict},
	{"database is locked", domainagg.CodeRetryable},
	{"database table is locked", domainagg.CodeRetryable},
	{"sqlite_busy", domainagg.CodeRetryable},
}

// MapError turns a failed write into a *domainagg.Error. Already-mapped errors pass through.
func MapError(op string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := err.(*domainagg.Error); ok {
		return err
	}
	return domainagg.Wrap(classify(err), op, err)
}

func classify(err error) domainagg.ErrorCode {
	var ce *codedError
	if errors.As(err, &ce) {
		return ce.code
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return domainagg.CodeNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return domainagg.CodeConflict
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return domainagg.CodeRetryable
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if code, ok := pgCodes[pgErr.Code]; ok {
			return code
		}
		return domainagg.CodeInternal
	}
	msg := strings.ToLower(err.Error())
	for _, f := range sqliteFragments {
		if strings.Contains(msg, f.fragment) {
			return f.code
		}
	}
	return domainagg.CodeInternal
}
