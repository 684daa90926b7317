package model

// MemberStats is a point-in-time snapshot of a member's derived metrics,
// recomputed on every request.
type MemberStats struct {
	FamilyMember
	TotalPoints    int `json:"total_points"`
	TasksCompleted int `json:"tasks_completed"`
	CurrentStreaks int `json:"current_streaks"`
	LongestStreak  int `json:"longest_streak"`
	CompletionRate int `json:"completion_rate"`
}
