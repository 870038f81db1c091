package tasks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Repository persists tasks. Every method that targets a single task takes
// the owning user's ID and treats a row owned by someone else as missing.
type Repository interface {
	Create(ctx context.Context, t *Task) error
	FindByID(ctx context.Context, id, userID string) (*Task, error)
	ListByUser(ctx context.Context, userID string) ([]Task, error)
	Update(ctx context.Context, t *Task) error
	Delete(ctx context.Context, id, userID string) error
}

type mariaDBRepository struct {
	db *sql.DB
}

// NewMariaDBRepository creates a task repository backed by MariaDB.
func NewMariaDBRepository(db *sql.DB) Repository {
	return &mariaDBRepository{db: db}
}

const taskColumns = `id, title, description, status, is_done, period, deadline, completed_at, priority, category_id, user_id, created_at, updated_at`

func scanTask(row interface{ Scan(dest ...any) error }) (*Task, error) {
	var t Task
	err := row.Scan(
		&t.ID, &t.Title, &t.Description, &t.Status, &t.IsDone, &t.Period,
		&t.Deadline, &t.CompletedAt, &t.Priority, &t.CategoryID, &t.UserID,
		&t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *mariaDBRepository) Create(ctx context.Context, t *Task) error {
	query := `
		INSERT INTO tasks (id, title, description, status, is_done, period, deadline, completed_at, priority, category_id, user_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		t.ID, t.Title, t.Description, t.Status, t.IsDone, t.Period,
		t.Deadline, t.CompletedAt, t.Priority, t.CategoryID, t.UserID,
		t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating task: %w", err)
	}
	return nil
}

func (r *mariaDBRepository) FindByID(ctx context.Context, id, userID string) (*Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = ? AND user_id = ?`
	t, err := scanTask(r.db.QueryRowContext(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("finding task: %w", err)
	}
	return t, nil
}

func (r *mariaDBRepository) ListByUser(ctx context.Context, userID string) ([]Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE user_id = ? ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("listing tasks: %w", err)
	}
	defer rows.Close()

	tasks := make([]Task, 0)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning task: %w", err)
		}
		tasks = append(tasks, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating tasks: %w", err)
	}
	return tasks, nil
}

func (r *mariaDBRepository) Update(ctx context.Context, t *Task) error {
	query := `
		UPDATE tasks
		SET title = ?, description = ?, status = ?, is_done = ?, period = ?,
		    deadline = ?, completed_at = ?, priority = ?, category_id = ?, updated_at = ?
		WHERE id = ? AND user_id = ?
	`
	res, err := r.db.ExecContext(ctx, query,
		t.Title, t.Description, t.Status, t.IsDone, t.Period,
		t.Deadline, t.CompletedAt, t.Priority, t.CategoryID, t.UpdatedAt,
		t.ID, t.UserID,
	)
	if err != nil {
		return fmt.Errorf("updating task: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating task: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *mariaDBRepository) Delete(ctx context.Context, id, userID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("deleting task: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting task: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
