package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rowanfield/kindling/internal/model"
)

type CompletionStore struct {
	db *sql.DB
}

func NewCompletionStore(db *sql.DB) *CompletionStore {
	return &CompletionStore{db: db}
}

const completionCols = `id, task_id, family_member_id, completed_at, status, proof_image_url, notes, verified_by, verified_at, created_at`

func scanCompletion(scanner interface{ Scan(...any) error }) (*model.TaskCompletion, error) {
	var c model.TaskCompletion
	var verifiedBy sql.NullInt64
	var verifiedAt sql.NullTime

	err := scanner.Scan(
		&c.ID, &c.TaskID, &c.FamilyMemberID, &c.CompletedAt, &c.Status,
		&c.ProofImageURL, &c.Notes, &verifiedBy, &verifiedAt, &c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if verifiedBy.Valid {
		c.VerifiedBy = &verifiedBy.Int64
	}
	if verifiedAt.Valid {
		t := verifiedAt.Time
		c.VerifiedAt = &t
	}
	return &c, nil
}

// Create records a completion with status 'completed' and no verifier.
func (s *CompletionStore) Create(taskID, memberID int64, completedAt time.Time, proofImageURL, notes string) (*model.TaskCompletion, error) {
	result, err := s.db.Exec(
		`INSERT INTO task_completions (task_id, family_member_id, completed_at, status, proof_image_url, notes) VALUES (?, ?, ?, ?, ?, ?)`,
		taskID, memberID, completedAt.UTC(), string(model.StatusCompleted), proofImageURL, notes,
	)
	if err != nil {
		return nil, fmt.Errorf("insert completion: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *CompletionStore) GetByID(id int64) (*model.TaskCompletion, error) {
	row := s.db.QueryRow(`SELECT `+completionCols+` FROM task_completions WHERE id = ?`, id)
	c, err := scanCompletion(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get completion: %w", err)
	}
	return c, nil
}

// SetStatus applies a verification decision: status, verifier, and a fresh
// verified_at, with no restriction on the transition taken.
func (s *CompletionStore) SetStatus(id int64, status model.CompletionStatus, verifiedBy int64, verifiedAt time.Time) (*model.TaskCompletion, error) {
	_, err := s.db.Exec(
		`UPDATE task_completions SET status = ?, verified_by = ?, verified_at = ? WHERE id = ?`,
		string(status), verifiedBy, verifiedAt.UTC(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("set completion status: %w", err)
	}
	return s.GetByID(id)
}

// Filter narrows List. Nil fields are ignored; the date range is inclusive
// on both ends.
type CompletionFilter struct {
	TaskID         *int64
	FamilyMemberID *int64
	DateFrom       *time.Time
	DateTo         *time.Time
}

// List returns completions matching the filter, most recent first.
func (s *CompletionStore) List(f CompletionFilter) ([]model.TaskCompletion, error) {
	query := `SELECT ` + completionCols + ` FROM task_completions WHERE 1=1`
	var args []any

	if f.TaskID != nil {
		query += ` AND task_id = ?`
		args = append(args, *f.TaskID)
	}
	if f.FamilyMemberID != nil {
		query += ` AND family_member_id = ?`
		args = append(args, *f.FamilyMemberID)
	}
	if f.DateFrom != nil {
		query += ` AND completed_at >= ?`
		args = append(args, f.DateFrom.UTC())
	}
	if f.DateTo != nil {
		query += ` AND completed_at <= ?`
		args = append(args, f.DateTo.UTC())
	}
	query += ` ORDER BY completed_at DESC`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list completions: %w", err)
	}
	defer rows.Close()

	var completions []model.TaskCompletion
	for rows.Next() {
		c, err := scanCompletion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan completion: %w", err)
		}
		completions = append(completions, *c)
	}
	return completions, rows.Err()
}
