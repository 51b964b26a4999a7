package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/learnquest-backend/internal/http/response"
	"github.com/yungbote/learnquest-backend/internal/modules/progression"
)

type AchievementHandler struct {
	engine *progression.Engine
}

func NewAchievementHandler(engine *progression.Engine) *AchievementHandler {
	return &AchievementHandler{engine: engine}
}

// GET /api/achievements
func (h *AchievementHandler) ListCatalog(c *gin.Context) {
	response.RespondOK(c, gin.H{"achievements": h.engine.Achievements.CatalogViews()})
}
