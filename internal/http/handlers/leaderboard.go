package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/learnquest-backend/internal/http/response"
	"github.com/yungbote/learnquest-backend/internal/modules/progression"
	"github.com/yungbote/learnquest-backend/internal/platform/logger"
)

type LeaderboardHandler struct {
	log    *logger.Logger
	engine *progression.Engine
}

func NewLeaderboardHandler(log *logger.Logger, engine *progression.Engine) *LeaderboardHandler {
	return &LeaderboardHandler{log: log.With("handler", "LeaderboardHandler"), engine: engine}
}

// GET /api/leaderboard?limit=
func (h *LeaderboardHandler) GetLeaderboard(c *gin.Context) {
	limit := progression.DefaultLeaderboardLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			response.RespondError(c, http.StatusBadRequest, "invalid_limit", err)
			return
		}
		limit = n
	}
	entries, err := h.engine.Leaderboard.GetLeaderboard(c.Request.Context(), limit)
	if err != nil {
		h.log.Error("GetLeaderboard failed", "error", err)
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"leaderboard": entries})
}
