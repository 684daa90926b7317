package model

import "time"

// Streak tracks consecutive-day completions for one (member, task) pair.
// There is at most one row per pair, and longest_streak never drops below
// current_streak.
type Streak struct {
	ID                 int64      `json:"id"`
	FamilyMemberID     int64      `json:"family_member_id"`
	TaskID             int64      `json:"task_id"`
	CurrentStreak      int        `json:"current_streak"`
	LongestStreak      int        `json:"longest_streak"`
	LastCompletionDate *time.Time `json:"last_completion_date"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}
