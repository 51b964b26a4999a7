package repos

import (
	"github.com/yungbote/learnquest-backend/internal/data/repos/progression"
	"github.com/yungbote/learnquest-backend/internal/platform/logger"
	"gorm.io/gorm"
)

type UserStatsRepo = progression.UserStatsRepo
type ProgressRecordRepo = progression.ProgressRecordRepo
type AchievementUnlockRepo = progression.AchievementUnlockRepo
type XPAwardClaimRepo = progression.XPAwardClaimRepo
type SubmissionGuardRepo = progression.SubmissionGuardRepo
type XPTransactionRepo = progression.XPTransactionRepo

type QuizSummary = progression.QuizSummary

func NewUserStatsRepo(db *gorm.DB, baseLog *logger.Logger) UserStatsRepo {
	return progression.NewUserStatsRepo(db, baseLog)
}
func NewProgressRecordRepo(db *gorm.DB, baseLog *logger.Logger) ProgressRecordRepo {
	return progression.NewProgressRecordRepo(db, baseLog)
}
func NewAchievementUnlockRepo(db *gorm.DB, baseLog *logger.Logger) AchievementUnlockRepo {
	return progression.NewAchievementUnlockRepo(db, baseLog)
}
func NewXPAwardClaimRepo(db *gorm.DB, baseLog *logger.Logger) XPAwardClaimRepo {
	return progression.NewXPAwardClaimRepo(db, baseLog)
}
func NewSubmissionGuardRepo(db *gorm.DB, baseLog *logger.Logger) SubmissionGuardRepo {
	return progression.NewSubmissionGuardRepo(db, baseLog)
}
func NewXPTransactionRepo(db *gorm.DB, baseLog *logger.Logger) XPTransactionRepo {
	return progression.NewXPTransactionRepo(db, baseLog)
}
