package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/learnquest-backend/internal/http/response"
	"github.com/yungbote/learnquest-backend/internal/modules/progression"
	"github.com/yungbote/learnquest-backend/internal/platform/ctxutil"
	"github.com/yungbote/learnquest-backend/internal/platform/logger"
)

type ProgressHandler struct {
	log    *logger.Logger
	engine *progression.Engine
	clock  func() time.Time
}

func NewProgressHandler(log *logger.Logger, engine *progression.Engine) *ProgressHandler {
	return &ProgressHandler{
		log:    log.With("handler", "ProgressHandler"),
		engine: engine,
		clock:  func() time.Time { return time.Now().UTC() },
	}
}

type submitCompletionRequest struct {
	ContentID       string         `json:"content_id"`
	ContentType     string         `json:"content_type"`
	ActivityVariant string         `json:"activity_variant"`
	Score           *float64       `json:"score"`
	TimeSpent       int            `json:"time_spent"`
	Timestamp       *time.Time     `json:"timestamp"`
	Data            map[string]any `json:"data"`
}

// POST /api/progress/completions
func (h *ProgressHandler) SubmitCompletion(c *gin.Context) {
	userID := ctxutil.UserID(c.Request.Context())
	if userID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}

	var req submitCompletionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	contentID, err := uuid.Parse(req.ContentID)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_content_id", err)
		return
	}
	ev := progression.CompletionEvent{
		UserID:          userID,
		ContentID:       contentID,
		ContentType:     req.ContentType,
		ActivityVariant: req.ActivityVariant,
		TimeSpent:       req.TimeSpent,
		Timestamp:       h.clock(),
		Data:            req.Data,
	}
	if req.Score != nil {
		ev.Score = *req.Score
	}
	if req.Timestamp != nil {
		ev.Timestamp = *req.Timestamp
	}

	res, err := h.engine.Gate.SubmitCompletion(c.Request.Context(), ev)
	if err != nil {
		if progression.IsRetryable(err) {
			c.Header("Retry-After", "1")
		}
		h.log.Warn("SubmitCompletion failed", "error", err, "content_id", contentID)
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"result": res})
}

// GET /api/progress/me/stats
func (h *ProgressHandler) GetMyStats(c *gin.Context) {
	userID := ctxutil.UserID(c.Request.Context())
	if userID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	stats, err := h.engine.Stats.GetUserStats(c.Request.Context(), userID)
	if err != nil {
		h.log.Error("GetMyStats failed", "error", err)
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"stats": stats})
}

// GET /api/progress/me/records?content_id=&limit=
func (h *ProgressHandler) ListMyRecords(c *gin.Context) {
	userID := ctxutil.UserID(c.Request.Context())
	if userID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	var contentID *uuid.UUID
	if raw := c.Query("content_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			response.RespondError(c, http.StatusBadRequest, "invalid_content_id", err)
			return
		}
		contentID = &id
	}
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			response.RespondError(c, http.StatusBadRequest, "invalid_limit", err)
			return
		}
		limit = n
	}
	records, err := h.engine.Stats.ListProgress(c.Request.Context(), userID, contentID, limit)
	if err != nil {
		h.log.Error("ListMyRecords failed", "error", err)
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"records": records})
}

// GET /api/progress/me/achievements
func (h *ProgressHandler) ListMyAchievements(c *gin.Context) {
	userID := ctxutil.UserID(c.Request.Context())
	if userID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	unlocked, err := h.engine.Achievements.ListUnlocked(c.Request.Context(), userID)
	if err != nil {
		h.log.Error("ListMyAchievements failed", "error", err)
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"achievements": unlocked})
}

type leaderboardProfileRequest struct {
	DisplayName       *string `json:"display_name"`
	ShowOnLeaderboard *bool   `json:"show_on_leaderboard"`
}

// PUT /api/progress/me/leaderboard-profile
func (h *ProgressHandler) UpdateLeaderboardProfile(c *gin.Context) {
	userID := ctxutil.UserID(c.Request.Context())
	if userID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	var req leaderboardProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if err := h.engine.Leaderboard.UpdateProfile(c.Request.Context(), userID, req.DisplayName, req.ShowOnLeaderboard); err != nil {
		response.RespondErr(c, err)
		return
	}
	stats, err := h.engine.Stats.GetUserStats(c.Request.Context(), userID)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"stats": stats})
}
