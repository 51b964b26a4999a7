package progression

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/yungbote/learnquest-backend/internal/data/repos/testutil"
	types "github.com/yungbote/learnquest-backend/internal/domain/progression"
	"github.com/yungbote/learnquest-backend/internal/platform/dbctx"
	"gorm.io/datatypes"
)

func quizRecord(userID, contentID uuid.UUID, score float64, outcome string, at time.Time) *types.ProgressRecord {
	sid := uuid.New()
	return &types.ProgressRecord{
		UserID:          userID,
		RecordKey:       "attempt:" + sid.String(),
		ContentID:       contentID,
		ContentType:     types.ContentQuiz,
		ActivityVariant: "timed_quiz",
		SubmissionID:    sid,
		Completed:       true,
		Score:           score,
		Attempts:        1,
		Outcome:         outcome,
		LastAccessed:    at,
		Sessions:        datatypes.JSON([]byte("[]")),
		Data:            datatypes.JSON([]byte("{}")),
	}
}

func TestProgressRecordRepoAggregates(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}
	repo := NewProgressRecordRepo(db, testutil.Logger(t))

	userID := uuid.New()
	quiz := uuid.New()
	at := testutil.Day(2026, time.March, 1)

	rows := []*types.ProgressRecord{
		quizRecord(userID, quiz, 100, types.OutcomeAwarded, at),
		quizRecord(userID, quiz, 80, types.OutcomeDailyCapReached, at.Add(time.Hour)),
		quizRecord(userID, quiz, 0, types.OutcomeDuplicate, at.Add(time.Hour+time.Second)),
	}
	section := quizRecord(userID, uuid.New(), 0, types.OutcomeAwarded, at)
	section.ContentType = types.ContentSection
	section.ActivityVariant = "section_complete"
	section.RecordKey = types.ContentClaimKey(section.ContentID, "section_complete")
	rows = append(rows, section)

	if _, err := repo.Create(dbc, rows); err != nil {
		t.Fatalf("Create: %v", err)
	}

	sum, err := repo.QuizSummary(dbc, userID)
	if err != nil {
		t.Fatalf("QuizSummary: %v", err)
	}
	if sum.Completed != 2 || sum.AverageScore != 90 || sum.PerfectScores != 1 {
		t.Fatalf("QuizSummary: got=%+v", sum)
	}

	byType, err := repo.CompletedByType(dbc, userID)
	if err != nil {
		t.Fatalf("CompletedByType: %v", err)
	}
	if byType[types.ContentQuiz] != 1 || byType[types.ContentSection] != 1 {
		t.Fatalf("CompletedByType: got=%v", byType)
	}

	n, err := repo.CountAttempts(dbc, userID, quiz, "timed_quiz")
	if err != nil || n != 3 {
		t.Fatalf("CountAttempts: n=%d err=%v", n, err)
	}

	got, err := repo.GetByKey(dbc, userID, section.RecordKey)
	if err != nil || got == nil || got.ID != section.ID {
		t.Fatalf("GetByKey: got=%v err=%v", got, err)
	}
	if err := repo.UpdateFields(dbc, section.ID, map[string]interface{}{"attempts": 2}); err != nil {
		t.Fatalf("UpdateFields: %v", err)
	}

	list, err := repo.ListByUser(dbc, userID, testutil.PtrUUID(quiz), 10)
	if err != nil || len(list) != 3 {
		t.Fatalf("ListByUser(content): len=%d err=%v", len(list), err)
	}
	if !list[0].LastAccessed.After(list[2].LastAccessed) {
		t.Fatalf("ListByUser should be newest first")
	}

	deleted, err := repo.DeleteByUserID(dbc, userID)
	if err != nil || deleted != 4 {
		t.Fatalf("DeleteByUserID: n=%d err=%v", deleted, err)
	}
}
