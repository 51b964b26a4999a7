package progression

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/yungbote/learnquest-backend/internal/data/repos/testutil"
	types "github.com/yungbote/learnquest-backend/internal/domain/progression"
	"github.com/yungbote/learnquest-backend/internal/platform/dbctx"
)

func TestSubmissionGuardWindow(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}
	repo := NewSubmissionGuardRepo(db, testutil.Logger(t))

	userID := uuid.New()
	key := types.VariantGuardKey("timed_quiz")
	t0 := testutil.Day(2026, time.March, 1)
	window := 2 * time.Minute

	ok, err := repo.Acquire(dbc, userID, key, t0, window, uuid.New())
	if err != nil || !ok {
		t.Fatalf("first acquire: ok=%v err=%v", ok, err)
	}
	ok, err = repo.Acquire(dbc, userID, key, t0.Add(30*time.Second), window, uuid.New())
	if err != nil || ok {
		t.Fatalf("within window: ok=%v err=%v", ok, err)
	}
	// The duplicate at +30s moved the mark, so +2m is still inside the window.
	ok, err = repo.Acquire(dbc, userID, key, t0.Add(2*time.Minute), window, uuid.New())
	if err != nil || ok {
		t.Fatalf("window measured from last duplicate: ok=%v err=%v", ok, err)
	}
	ok, err = repo.Acquire(dbc, userID, key, t0.Add(5*time.Minute), window, uuid.New())
	if err != nil || !ok {
		t.Fatalf("after window: ok=%v err=%v", ok, err)
	}

	ok, err = repo.Acquire(dbc, userID, types.VariantGuardKey("practice_quiz"), t0.Add(5*time.Minute), window, uuid.New())
	if err != nil || !ok {
		t.Fatalf("other key: ok=%v err=%v", ok, err)
	}
}

func TestSubmissionGuardRejectsEarlierDated(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}
	repo := NewSubmissionGuardRepo(db, testutil.Logger(t))

	userID := uuid.New()
	key := types.VariantGuardKey("timed_quiz")
	t0 := testutil.Day(2026, time.March, 1)
	window := 2 * time.Minute

	ok, err := repo.Acquire(dbc, userID, key, t0, window, uuid.New())
	if err != nil || !ok {
		t.Fatalf("first acquire: ok=%v err=%v", ok, err)
	}
	for _, back := range []time.Duration{3 * time.Minute, time.Hour, 20 * time.Hour} {
		ok, err = repo.Acquire(dbc, userID, key, t0.Add(-back), window, uuid.New())
		if err != nil || ok {
			t.Fatalf("dated %v earlier: ok=%v err=%v", back, ok, err)
		}
	}
	// Earlier-dated duplicates never pull the mark backwards.
	ok, err = repo.Acquire(dbc, userID, key, t0.Add(90*time.Second), window, uuid.New())
	if err != nil || ok {
		t.Fatalf("inside window of the original mark: ok=%v err=%v", ok, err)
	}
	ok, err = repo.Acquire(dbc, userID, key, t0.Add(4*time.Minute), window, uuid.New())
	if err != nil || !ok {
		t.Fatalf("after window: ok=%v err=%v", ok, err)
	}
}

func TestXPAwardClaimIsConditional(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}
	repo := NewXPAwardClaimRepo(db, testutil.Logger(t))

	userID := uuid.New()
	key := types.DailyClaimKey("timed_quiz", "2026-03-01")
	row := func() *types.XPAwardClaim {
		return &types.XPAwardClaim{UserID: userID, ClaimKey: key, SubmissionID: uuid.New(), Amount: 14, ClaimedAt: time.Now().UTC()}
	}

	ok, err := repo.TryClaim(dbc, row())
	if err != nil || !ok {
		t.Fatalf("first claim: ok=%v err=%v", ok, err)
	}
	ok, err = repo.TryClaim(dbc, row())
	if err != nil || ok {
		t.Fatalf("second claim: ok=%v err=%v", ok, err)
	}
	next := row()
	next.ClaimKey = types.DailyClaimKey("timed_quiz", "2026-03-02")
	ok, err = repo.TryClaim(dbc, next)
	if err != nil || !ok {
		t.Fatalf("next day claim: ok=%v err=%v", ok, err)
	}
}

func TestAchievementUnlockTryInsert(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}
	repo := NewAchievementUnlockRepo(db, testutil.Logger(t))

	userID := uuid.New()
	mk := func(id string) *types.AchievementUnlock {
		return &types.AchievementUnlock{UserID: userID, AchievementID: id, Rarity: "common", XPReward: 25, UnlockedAt: time.Now().UTC()}
	}
	if ok, err := repo.TryInsert(dbc, mk("first_steps")); err != nil || !ok {
		t.Fatalf("insert: ok=%v err=%v", ok, err)
	}
	if ok, err := repo.TryInsert(dbc, mk("first_steps")); err != nil || ok {
		t.Fatalf("re-insert: ok=%v err=%v", ok, err)
	}
	if ok, err := repo.TryInsert(dbc, mk("quiz_whiz")); err != nil || !ok {
		t.Fatalf("insert second: ok=%v err=%v", ok, err)
	}
	ids, err := repo.UnlockedIDs(dbc, userID)
	if err != nil {
		t.Fatalf("UnlockedIDs: %v", err)
	}
	if len(ids) != 2 || !ids["first_steps"] || !ids["quiz_whiz"] {
		t.Fatalf("UnlockedIDs: got=%v", ids)
	}
	rows, err := repo.ListByUser(dbc, userID)
	if err != nil || len(rows) != 2 {
		t.Fatalf("ListByUser: len=%d err=%v", len(rows), err)
	}
}
