package progression

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/yungbote/learnquest-backend/internal/data/aggregates"
	domainagg "github.com/yungbote/learnquest-backend/internal/domain/aggregates"
	"github.com/yungbote/learnquest-backend/internal/platform/apierr"
)

var (
	// ErrValidation marks malformed input. Nothing was written.
	ErrValidation = errors.New("validation error")
	// ErrPersistence marks a storage failure. Nothing was written; see IsRetryable.
	ErrPersistence = errors.New("persistence failure")
	// ErrConfiguration marks an invalid catalog or policy table. It is fatal at startup.
	ErrConfiguration = errors.New("configuration error")
)

// PersistenceError wraps a storage failure and records whether retrying may succeed.
type PersistenceError struct {
	Retryable bool
	Err       error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", ErrPersistence, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func (e *PersistenceError) Is(target error) bool { return target == ErrPersistence }

// IsRetryable reports whether err is a persistence failure the caller may retry.
func IsRetryable(err error) bool {
	var pe *PersistenceError
	return errors.As(err, &pe) && pe.Retryable
}

func validationErr(code, format string, args ...any) error {
	return apierr.New(http.StatusBadRequest, code, fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...)))
}

func configErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, fmt.Sprintf(format, args...))
}

// fromAggregate maps aggregate error codes onto the engine's error taxonomy.
func fromAggregate(err error) error {
	if err == nil {
		return nil
	}
	switch domainagg.CodeOf(err) {
	case domainagg.CodeValidation:
		return apierr.New(http.StatusBadRequest, "validation_failed", fmt.Errorf("%w: %v", ErrValidation, err))
	case domainagg.CodeRetryable, domainagg.CodeConflict:
		return apierr.New(http.StatusServiceUnavailable, "persistence_retryable", &PersistenceError{Retryable: true, Err: err})
	default:
		return apierr.New(http.StatusInternalServerError, "persistence_failed", &PersistenceError{Err: err})
	}
}

// readErr maps a failed read outside the aggregate.
func readErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return fromAggregate(aggregates.MapError(op, err))
}
