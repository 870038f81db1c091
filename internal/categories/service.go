package categories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mleroux/taskforge/internal/apperror"
	"github.com/mleroux/taskforge/internal/sanitize"
)

// Service contains the category business logic.
type Service interface {
	List(ctx context.Context) ([]Category, error)
	Create(ctx context.Context, req CreateRequest) (*Category, error)
	Delete(ctx context.Context, id string) error
	Exists(ctx context.Context, id string) (bool, error)
}

type service struct {
	repo Repository
}

// NewService creates a category service.
func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) List(ctx context.Context) ([]Category, error) {
	categories, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	return categories, nil
}

func (s *service) Create(ctx context.Context, req CreateRequest) (*Category, error) {
	name := strings.ToLower(sanitize.Text(req.Name))
	if !validName(name) {
		return nil, apperror.NewValidation("Name must be one of: work, personal, shopping, health, finance, others")
	}
	if !validColor(req.Color) {
		return nil, apperror.NewValidation("Color must be a hex code such as #A1B2C3")
	}

	taken, err := s.repo.NameExists(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("checking category name %s: %w", name, err)
	}
	if taken {
		return nil, apperror.NewConflict("Category already exists")
	}

	now := time.Now().UTC()
	c := &Category{
		ID:        uuid.NewString(),
		Name:      name,
		Color:     strings.ToUpper(req.Color),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperror.NewNotFound("Category not found")
		}
		return fmt.Errorf("deleting category %s: %w", id, err)
	}
	return nil
}

func (s *service) Exists(ctx context.Context, id string) (bool, error) {
	return s.repo.Exists(ctx, id)
}
