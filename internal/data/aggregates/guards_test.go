package aggregates

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	repotest "github.com/yungbote/learnquest-backend/internal/data/repos/testutil"
	domainagg "github.com/yungbote/learnquest-backend/internal/domain/aggregates"
	types "github.com/yungbote/learnquest-backend/internal/domain/progression"
	"github.com/yungbote/learnquest-backend/internal/platform/dbctx"
	"gorm.io/datatypes"
)

func TestRequireCASSuccess(t *testing.T) {
	if err := RequireCASSuccess(true, "ok"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	err := MapError("op", RequireCASSuccess(false, "stale"))
	if !domainagg.IsCode(err, domainagg.CodeConflict) {
		t.Fatalf("expected conflict, got %q", domainagg.CodeOf(err))
	}
}

func TestRequireNonNegative(t *testing.T) {
	if err := RequireNonNegative(0, "delta"); err != nil {
		t.Fatalf("zero: unexpected err: %v", err)
	}
	err := MapError("op", RequireNonNegative(-1, "delta"))
	if !domainagg.IsCode(err, domainagg.CodeValidation) {
		t.Fatalf("negative: expected validation, got %q", domainagg.CodeOf(err))
	}
}

func TestCASGuardUpdateIfUnchanged(t *testing.T) {
	db := repotest.DB(t)
	dbc := dbctx.Context{Ctx: context.Background()}
	guard := NewCASGuard(db)

	rec := &types.ProgressRecord{
		ID:              uuid.New(),
		UserID:          uuid.New(),
		RecordKey:       "content:x",
		ContentID:       uuid.New(),
		ContentType:     types.ContentSection,
		ActivityVariant: "section_complete",
		SubmissionID:    uuid.New(),
		Attempts:        1,
		Outcome:         types.OutcomeAwarded,
		LastAccessed:    time.Now().UTC(),
		Sessions:        datatypes.JSON([]byte("[]")),
		Data:            datatypes.JSON([]byte("{}")),
	}
	if err := db.Create(rec).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}

	ok, err := guard.UpdateIfUnchanged(dbc, types.ProgressRecord{}, rec.ID, "attempts", 1, map[string]any{"attempts": 2})
	if err != nil || !ok {
		t.Fatalf("matching CAS: ok=%v err=%v", ok, err)
	}
	ok, err = guard.UpdateIfUnchanged(dbc, types.ProgressRecord{}, rec.ID, "attempts", 1, map[string]any{"attempts": 3})
	if err != nil || ok {
		t.Fatalf("stale CAS: ok=%v err=%v", ok, err)
	}
	if _, err := guard.UpdateIfUnchanged(dbc, nil, rec.ID, "attempts", 1, nil); err == nil {
		t.Fatalf("missing table: expected error")
	}
	if _, err := guard.UpdateIfUnchanged(dbc, types.ProgressRecord{}, uuid.Nil, "attempts", 1, nil); err == nil {
		t.Fatalf("missing id: expected error")
	}
}
