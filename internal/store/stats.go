package store

import (
	"database/sql"
	"fmt"
	"math"

	"github.com/rowanfield/kindling/internal/model"
)

type StatsStore struct {
	db *sql.DB
}

func NewStatsStore(db *sql.DB) *StatsStore {
	return &StatsStore{db: db}
}

// countedStatuses are the completion statuses that earn points. A verified
// completion stays counted: verification promotes a record, it does not
// retract it.
const countedStatuses = `('completed', 'verified')`

// MemberStats recomputes the member's derived metrics from the live tables.
// Returns nil if the member does not exist.
func (s *StatsStore) MemberStats(memberID int64) (*model.MemberStats, error) {
	row := s.db.QueryRow(`SELECT `+memberCols+` FROM family_members WHERE id = ?`, memberID)
	member, err := scanMember(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get family member: %w", err)
	}

	stats := &model.MemberStats{FamilyMember: *member}

	err = s.db.QueryRow(
		`SELECT COALESCE(SUM(t.points), 0), COUNT(c.id)
		 FROM task_completions c
		 JOIN tasks t ON t.id = c.task_id
		 WHERE c.family_member_id = ? AND c.status IN `+countedStatuses,
		memberID,
	).Scan(&stats.TotalPoints, &stats.TasksCompleted)
	if err != nil {
		return nil, fmt.Errorf("sum points: %w", err)
	}

	err = s.db.QueryRow(
		`SELECT COUNT(*) FROM streaks WHERE family_member_id = ? AND current_streak > 0`,
		memberID,
	).Scan(&stats.CurrentStreaks)
	if err != nil {
		return nil, fmt.Errorf("count streaks: %w", err)
	}

	// Longest ranges over all of the member's streak rows, not just active
	// ones, so a lapsed best run still counts.
	err = s.db.QueryRow(
		`SELECT COALESCE(MAX(longest_streak), 0) FROM streaks WHERE family_member_id = ?`,
		memberID,
	).Scan(&stats.LongestStreak)
	if err != nil {
		return nil, fmt.Errorf("max longest streak: %w", err)
	}

	rate, err := s.completionRate(memberID)
	if err != nil {
		return nil, err
	}
	stats.CompletionRate = rate

	return stats, nil
}

// completionRate is counted completions on the member's active assigned
// tasks over the number of those tasks, as a rounded percentage. Zero when
// the member has no active assigned tasks.
func (s *StatsStore) completionRate(memberID int64) (int, error) {
	var activeAssigned int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM tasks WHERE assigned_to = ? AND is_active = 1`,
		memberID,
	).Scan(&activeAssigned)
	if err != nil {
		return 0, fmt.Errorf("count active tasks: %w", err)
	}
	if activeAssigned == 0 {
		return 0, nil
	}

	var completed int
	err = s.db.QueryRow(
		`SELECT COUNT(*)
		 FROM task_completions c
		 JOIN tasks t ON t.id = c.task_id
		 WHERE c.family_member_id = ?
		   AND c.status IN `+countedStatuses+`
		   AND t.is_active = 1
		   AND t.assigned_to = ?`,
		memberID, memberID,
	).Scan(&completed)
	if err != nil {
		return 0, fmt.Errorf("count completed active tasks: %w", err)
	}

	return int(math.Round(100 * float64(completed) / float64(activeAssigned))), nil
}
