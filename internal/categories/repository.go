package categories

import (
	"context"
	"database/sql"
	"fmt"
)

// Repository persists categories.
type Repository interface {
	Create(ctx context.Context, c *Category) error
	List(ctx context.Context) ([]Category, error)
	Exists(ctx context.Context, id string) (bool, error)
	NameExists(ctx context.Context, name string) (bool, error)
	Delete(ctx context.Context, id string) error
}

type mariaDBRepository struct {
	db *sql.DB
}

// NewMariaDBRepository creates a category repository backed by MariaDB.
func NewMariaDBRepository(db *sql.DB) Repository {
	return &mariaDBRepository{db: db}
}

func (r *mariaDBRepository) Create(ctx context.Context, c *Category) error {
	query := `
		INSERT INTO categories (id, name, color, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query, c.ID, c.Name, c.Color, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("creating category: %w", err)
	}
	return nil
}

func (r *mariaDBRepository) List(ctx context.Context) ([]Category, error) {
	query := `SELECT id, name, color, created_at, updated_at FROM categories ORDER BY name`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	defer rows.Close()

	categories := make([]Category, 0)
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Color, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning category: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating categories: %w", err)
	}
	return categories, nil
}

func (r *mariaDBRepository) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM categories WHERE id = ?)`
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("checking category existence: %w", err)
	}
	return exists, nil
}

func (r *mariaDBRepository) NameExists(ctx context.Context, name string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM categories WHERE name = ?)`
	if err := r.db.QueryRowContext(ctx, query, name).Scan(&exists); err != nil {
		return false, fmt.Errorf("checking category name: %w", err)
	}
	return exists, nil
}

func (r *mariaDBRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting category: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting category: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
