package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rowanfield/kindling/internal/model"
	"github.com/rowanfield/kindling/internal/streak"
)

type StreakStore struct {
	db *sql.DB
}

func NewStreakStore(db *sql.DB) *StreakStore {
	return &StreakStore{db: db}
}

const streakCols = `id, family_member_id, task_id, current_streak, longest_streak, last_completion_date, created_at, updated_at`

func scanStreak(scanner interface{ Scan(...any) error }) (*model.Streak, error) {
	var st model.Streak
	var last sql.NullTime

	err := scanner.Scan(
		&st.ID, &st.FamilyMemberID, &st.TaskID,
		&st.CurrentStreak, &st.LongestStreak, &last,
		&st.CreatedAt, &st.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if last.Valid {
		t := last.Time
		st.LastCompletionDate = &t
	}
	return &st, nil
}

func (s *StreakStore) GetByPair(memberID, taskID int64) (*model.Streak, error) {
	row := s.db.QueryRow(
		`SELECT `+streakCols+` FROM streaks WHERE family_member_id = ? AND task_id = ?`,
		memberID, taskID,
	)
	st, err := scanStreak(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get streak: %w", err)
	}
	return st, nil
}

// RecordCompletion advances the streak for the (member, task) pair. The read
// and the write share one transaction so two completions racing on the same
// pair cannot lose an update.
func (s *StreakStore) RecordCompletion(memberID, taskID int64, completedAt time.Time) (*model.Streak, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var prev streak.State
	row := tx.QueryRow(
		`SELECT `+streakCols+` FROM streaks WHERE family_member_id = ? AND task_id = ?`,
		memberID, taskID,
	)
	existing, err := scanStreak(row)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("read streak: %w", err)
	}
	if existing != nil {
		prev = streak.State{
			Current:        existing.CurrentStreak,
			Longest:        existing.LongestStreak,
			LastCompletion: existing.LastCompletionDate,
		}
	}

	next := streak.Advance(prev, completedAt)

	_, err = tx.Exec(
		`INSERT INTO streaks (family_member_id, task_id, current_streak, longest_streak, last_completion_date)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (family_member_id, task_id) DO UPDATE SET
			current_streak = excluded.current_streak,
			longest_streak = excluded.longest_streak,
			last_completion_date = excluded.last_completion_date,
			updated_at = datetime('now')`,
		memberID, taskID, next.Current, next.Longest, next.LastCompletion.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("upsert streak: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.GetByPair(memberID, taskID)
}

// Filter narrows List. Nil fields are ignored.
type StreakFilter struct {
	FamilyMemberID *int64
	TaskID         *int64
}

func (s *StreakStore) List(f StreakFilter) ([]model.Streak, error) {
	query := `SELECT ` + streakCols + ` FROM streaks WHERE 1=1`
	var args []any

	if f.FamilyMemberID != nil {
		query += ` AND family_member_id = ?`
		args = append(args, *f.FamilyMemberID)
	}
	if f.TaskID != nil {
		query += ` AND task_id = ?`
		args = append(args, *f.TaskID)
	}
	query += ` ORDER BY current_streak DESC, longest_streak DESC`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list streaks: %w", err)
	}
	defer rows.Close()

	var streaks []model.Streak
	for rows.Next() {
		st, err := scanStreak(rows)
		if err != nil {
			return nil, fmt.Errorf("scan streak: %w", err)
		}
		streaks = append(streaks, *st)
	}
	return streaks, rows.Err()
}
