package model

import "time"

type TaskType string

const (
	TaskTypeHabit  TaskType = "habit"
	TaskTypeChore  TaskType = "chore"
	TaskTypeDaily  TaskType = "daily"
	TaskTypeWeekly TaskType = "weekly"
)

func (t TaskType) Valid() bool {
	switch t {
	case TaskTypeHabit, TaskTypeChore, TaskTypeDaily, TaskTypeWeekly:
		return true
	}
	return false
}

type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
)

func (f Frequency) Valid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly:
		return true
	}
	return false
}

type Task struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	TaskType    TaskType  `json:"task_type"`
	Frequency   Frequency `json:"frequency"`
	Points      int       `json:"points"`
	AssignedTo  int64     `json:"assigned_to"`
	CreatedBy   int64     `json:"created_by"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
