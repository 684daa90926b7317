package store

import (
	"database/sql"
	"fmt"

	"github.com/rowanfield/kindling/internal/model"
)

type TaskStore struct {
	db *sql.DB
}

func NewTaskStore(db *sql.DB) *TaskStore {
	return &TaskStore{db: db}
}

const taskCols = `id, title, description, task_type, frequency, points, assigned_to, created_by, is_active, created_at, updated_at`

func scanTask(scanner interface{ Scan(...any) error }) (*model.Task, error) {
	var t model.Task
	var active int

	err := scanner.Scan(
		&t.ID, &t.Title, &t.Description, &t.TaskType, &t.Frequency,
		&t.Points, &t.AssignedTo, &t.CreatedBy, &active,
		&t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	t.IsActive = active != 0
	return &t, nil
}

// seedStreakStmt lazily creates the streak row for a (member, task) pair.
// Keyed on the unique pair index so re-running it is a no-op, which makes
// repeated reassignment safe without a query-then-insert race.
const seedStreakStmt = `INSERT INTO streaks (family_member_id, task_id)
	VALUES (?, ?)
	ON CONFLICT (family_member_id, task_id) DO NOTHING`

// Create inserts a task and seeds a zeroed streak row for its assignee in
// the same transaction.
func (s *TaskStore) Create(title, description string, taskType model.TaskType, frequency model.Frequency, points int, assignedTo, createdBy int64) (*model.Task, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec(
		`INSERT INTO tasks (title, description, task_type, frequency, points, assigned_to, created_by) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		title, description, string(taskType), string(frequency), points, assignedTo, createdBy,
	)
	if err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	if _, err := tx.Exec(seedStreakStmt, assignedTo, id); err != nil {
		return nil, fmt.Errorf("seed streak: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.GetByID(id)
}

func (s *TaskStore) GetByID(id int64) (*model.Task, error) {
	row := s.db.QueryRow(`SELECT `+taskCols+` FROM tasks WHERE id = ?`, id)
	t, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	return t, nil
}

func (s *TaskStore) List() ([]model.Task, error) {
	rows, err := s.db.Query(`SELECT ` + taskCols + ` FROM tasks ORDER BY is_active DESC, title ASC`)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []model.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

func (s *TaskStore) ListByAssignee(memberID int64) ([]model.Task, error) {
	rows, err := s.db.Query(
		`SELECT `+taskCols+` FROM tasks WHERE assigned_to = ? ORDER BY is_active DESC, title ASC`,
		memberID,
	)
	if err != nil {
		return nil, fmt.Errorf("list tasks by assignee: %w", err)
	}
	defer rows.Close()

	var tasks []model.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

// Update rewrites the task's editable fields. Seeding runs for the assignee
// on every update; the upsert makes it a no-op when a row already exists, so
// a reassignment to a new member is guaranteed a streak row without
// duplicating one for a member who already has it.
func (s *TaskStore) Update(id int64, title, description string, taskType model.TaskType, frequency model.Frequency, points int, assignedTo int64, isActive bool) (*model.Task, error) {
	var active int
	if isActive {
		active = 1
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`UPDATE tasks SET title = ?, description = ?, task_type = ?, frequency = ?, points = ?, assigned_to = ?, is_active = ?, updated_at = datetime('now') WHERE id = ?`,
		title, description, string(taskType), string(frequency), points, assignedTo, active, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}

	if _, err := tx.Exec(seedStreakStmt, assignedTo, id); err != nil {
		return nil, fmt.Errorf("seed streak: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.GetByID(id)
}

func (s *TaskStore) SetActive(id int64, isActive bool) (*model.Task, error) {
	var active int
	if isActive {
		active = 1
	}

	_, err := s.db.Exec(
		`UPDATE tasks SET is_active = ?, updated_at = datetime('now') WHERE id = ?`,
		active, id,
	)
	if err != nil {
		return nil, fmt.Errorf("set task active: %w", err)
	}
	return s.GetByID(id)
}
