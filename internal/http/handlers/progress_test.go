package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	repotest "github.com/yungbote/learnquest-backend/internal/data/repos/testutil"
	"github.com/yungbote/learnquest-backend/internal/modules/progression"
	"github.com/yungbote/learnquest-backend/internal/platform/ctxutil"
	"github.com/yungbote/learnquest-backend/internal/platform/logger"
)

var handlerNow = time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)

func newTestRouter(t *testing.T, userID uuid.UUID) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	engine, err := progression.NewEngine(progression.EngineDeps{
		DB:    repotest.DB(t),
		Log:   logger.Nop(),
		Clock: func() time.Time { return handlerNow },
	})
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	progress := NewProgressHandler(logger.Nop(), engine)
	progress.clock = func() time.Time { return handlerNow }
	board := NewLeaderboardHandler(logger.Nop(), engine)
	catalog := NewAchievementHandler(engine)

	r := gin.New()
	r.GET("/api/achievements", catalog.ListCatalog)
	r.GET("/api/leaderboard", board.GetLeaderboard)
	me := r.Group("/api", func(c *gin.Context) {
		if userID != uuid.Nil {
			c.Request = c.Request.WithContext(ctxutil.WithIdentity(c.Request.Context(), &ctxutil.Identity{UserID: userID}))
		}
		c.Next()
	})
	me.POST("/progress/completions", progress.SubmitCompletion)
	me.GET("/progress/me/stats", progress.GetMyStats)
	me.GET("/progress/me/records", progress.ListMyRecords)
	me.GET("/progress/me/achievements", progress.ListMyAchievements)
	me.PUT("/progress/me/leaderboard-profile", progress.UpdateLeaderboardProfile)
	return r
}

func doJSON(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestSubmitCompletionEndpoint(t *testing.T) {
	userID := uuid.New()
	r := newTestRouter(t, userID)
	quizID := uuid.NewString()

	rec := doJSON(t, r, http.MethodPost, "/api/progress/completions", gin.H{
		"content_id":       quizID,
		"content_type":     "quiz",
		"activity_variant": "timed_quiz",
		"score":            92,
		"time_spent":       60,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status: want=200 got=%d body=%s", rec.Code, rec.Body.String())
	}
	var out struct {
		Result progression.CompletionResult `json:"result"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	// 14 for the quiz plus 10 for the quiz_rookie achievement.
	if !out.Result.Awarded || out.Result.ActivityXP != 14 || out.Result.XPGained != 24 || out.Result.NewLevel != 1 {
		t.Fatalf("result: got=%+v", out.Result)
	}
	if len(out.Result.NewAchievements) != 1 || out.Result.NewAchievements[0].ID != "quiz_rookie" {
		t.Fatalf("achievements: got=%+v", out.Result.NewAchievements)
	}

	rec = doJSON(t, r, http.MethodPost, "/api/progress/completions", gin.H{
		"content_id":       quizID,
		"content_type":     "quiz",
		"activity_variant": "timed_quiz",
		"score":            92,
		"timestamp":        handlerNow.Add(30 * time.Second).Format(time.RFC3339),
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("duplicate status: want=200 got=%d", rec.Code)
	}
	out.Result = progression.CompletionResult{}
	_ = json.Unmarshal(rec.Body.Bytes(), &out)
	if out.Result.Awarded || out.Result.Outcome != "duplicate" || out.Result.XPGained != 0 {
		t.Fatalf("duplicate: got=%+v", out.Result)
	}

	rec = doJSON(t, r, http.MethodGet, "/api/progress/me/stats", nil)
	var stats struct {
		Stats progression.UserStatsView `json:"stats"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if stats.Stats.TotalXP != 24 || stats.Stats.XPToNextLevel != 76 || stats.Stats.TotalQuizzesCompleted != 1 {
		t.Fatalf("stats: got=%+v", stats.Stats)
	}

	rec = doJSON(t, r, http.MethodGet, "/api/progress/me/records?content_id="+quizID, nil)
	var records struct {
		Records []json.RawMessage `json:"records"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &records); err != nil {
		t.Fatalf("decode records: %v", err)
	}
	if len(records.Records) != 2 {
		t.Fatalf("records: want=2 got=%d", len(records.Records))
	}
}

func TestSubmitCompletionEndpointErrors(t *testing.T) {
	r := newTestRouter(t, uuid.New())
	cases := []struct {
		name     string
		body     any
		wantCode string
	}{
		{"bad content id", gin.H{"content_id": "nope", "content_type": "quiz"}, "invalid_content_id"},
		{"unknown content type", gin.H{"content_id": uuid.NewString(), "content_type": "podcast"}, "invalid_content_type"},
		{"variant mismatch", gin.H{"content_id": uuid.NewString(), "content_type": "media", "activity_variant": "timed_quiz"}, "invalid_activity_variant"},
		{"negative time", gin.H{"content_id": uuid.NewString(), "content_type": "quiz", "time_spent": -4}, "invalid_time_spent"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doJSON(t, r, http.MethodPost, "/api/progress/completions", tc.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status: want=400 got=%d", rec.Code)
			}
			var env struct {
				Error struct {
					Code string `json:"code"`
				} `json:"error"`
			}
			_ = json.Unmarshal(rec.Body.Bytes(), &env)
			if env.Error.Code != tc.wantCode {
				t.Fatalf("code: want=%s got=%s", tc.wantCode, env.Error.Code)
			}
		})
	}

	anon := newTestRouter(t, uuid.Nil)
	if rec := doJSON(t, anon, http.MethodGet, "/api/progress/me/stats", nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous: want=401 got=%d", rec.Code)
	}
}

func TestLeaderboardAndProfileEndpoints(t *testing.T) {
	userID := uuid.New()
	r := newTestRouter(t, userID)

	rec := doJSON(t, r, http.MethodPost, "/api/progress/completions", gin.H{
		"content_id":   uuid.NewString(),
		"content_type": "section",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("submit: got=%d body=%s", rec.Code, rec.Body.String())
	}
	rec = doJSON(t, r, http.MethodPut, "/api/progress/me/leaderboard-profile", gin.H{"display_name": "  Ada  "})
	if rec.Code != http.StatusOK {
		t.Fatalf("profile: got=%d body=%s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, r, http.MethodGet, "/api/leaderboard?limit=5", nil)
	var board struct {
		Leaderboard []progression.LeaderboardEntry `json:"leaderboard"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &board); err != nil {
		t.Fatalf("decode: %v", err)
	}
	// 10 for the section plus 10 for the first_steps achievement.
	if len(board.Leaderboard) != 1 || board.Leaderboard[0].Name != "Ada" || board.Leaderboard[0].TotalXP != 20 {
		t.Fatalf("leaderboard: got=%+v", board.Leaderboard)
	}

	rec = doJSON(t, r, http.MethodGet, "/api/progress/me/achievements", nil)
	var mine struct {
		Achievements []progression.AchievementView `json:"achievements"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &mine)
	if len(mine.Achievements) != 1 || mine.Achievements[0].ID != "first_steps" {
		t.Fatalf("achievements: got=%+v", mine.Achievements)
	}

	if rec := doJSON(t, r, http.MethodGet, "/api/leaderboard?limit=abc", nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad limit: want=400 got=%d", rec.Code)
	}

	rec = doJSON(t, r, http.MethodGet, "/api/achievements", nil)
	var catalog struct {
		Achievements []progression.AchievementView `json:"achievements"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &catalog)
	if len(catalog.Achievements) != 12 {
		t.Fatalf("catalog: want=12 got=%d", len(catalog.Achievements))
	}
}
