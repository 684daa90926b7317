package model

import "time"

type CompletionStatus string

const (
	StatusPending   CompletionStatus = "pending"
	StatusCompleted CompletionStatus = "completed"
	StatusVerified  CompletionStatus = "verified"
)

func (s CompletionStatus) Valid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusVerified:
		return true
	}
	return false
}

// TaskCompletion is an append-only record of a member performing a task.
// Only the verification fields change after insert.
type TaskCompletion struct {
	ID             int64            `json:"id"`
	TaskID         int64            `json:"task_id"`
	FamilyMemberID int64            `json:"family_member_id"`
	CompletedAt    time.Time        `json:"completed_at"`
	Status         CompletionStatus `json:"status"`
	ProofImageURL  string           `json:"proof_image_url"`
	Notes          string           `json:"notes"`
	VerifiedBy     *int64           `json:"verified_by"`
	VerifiedAt     *time.Time       `json:"verified_at"`
	CreatedAt      time.Time        `json:"created_at"`
}
