package aggregates

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	domainagg "github.com/yungbote/learnquest-backend/internal/domain/aggregates"
	"github.com/yungbote/learnquest-backend/internal/platform/dbctx"
	"github.com/yungbote/learnquest-backend/internal/platform/logger"
)

const statusSuccess = "success"

// BaseDeps is shared by every aggregate. Zero fields are filled by withDefaults.
type BaseDeps struct {
	DB       *gorm.DB
	Log      *logger.Logger
	Runner   TxRunner
	Hooks    Hooks
	CASGuard CASGuard
	Clock    func() time.Time
}

func (d BaseDeps) withDefaults() BaseDeps {
	if d.Log == nil {
		d.Log = logger.Nop()
	}
	if d.Runner == nil {
		d.Runner = NewGormTxRunner(d.DB)
	}
	if d.Hooks == nil {
		d.Hooks = noopHooks{}
	}
	if d.CASGuard.db == nil {
		d.CASGuard = NewCASGuard(d.DB)
	}
	if d.Clock == nil {
		d.Clock = func() time.Time { return time.Now().UTC() }
	}
	return d
}

// inWriteTx runs body in one transaction and reports the mapped outcome to the hooks.
// The returned error is always nil or a *domainagg.Error.
func inWriteTx(ctx context.Context, deps BaseDeps, op string, body func(dbc dbctx.Context) error) error {
	deps = deps.withDefaults()
	if op = strings.TrimSpace(op); op == "" {
		op = "aggregate.write"
	}
	started := time.Now()
	err := MapError(op, deps.Runner.InTx(ctx, body))

	code := domainagg.CodeOf(err)
	switch code {
	case domainagg.CodeConflict:
		deps.Hooks.IncConflict(op)
	case domainagg.CodeRetryable:
		deps.Hooks.IncRetry(op)
	}
	deps.Hooks.ObserveOperation(op, writeStatus(err), time.Since(started))
	return err
}

func writeStatus(err error) string {
	if err == nil {
		return statusSuccess
	}
	return string(domainagg.CodeOf(MapError("aggregate.status", err)))
}
