package progression

// Models lists every table owned by the progression engine, in migration order.
func Models() []any {
	return []any{
		&UserStats{},
		&ProgressRecord{},
		&AchievementUnlock{},
		&XPAwardClaim{},
		&SubmissionGuard{},
		&XPTransaction{},
	}
}
