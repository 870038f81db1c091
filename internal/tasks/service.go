package tasks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mleroux/taskforge/internal/apperror"
	"github.com/mleroux/taskforge/internal/sanitize"
)

const (
	maxTitleLength       = 100
	maxDescriptionLength = 500
)

// CategoryChecker answers whether a category ID refers to a known category.
// Satisfied by the categories service; declared here so tasks does not
// depend on that package.
type CategoryChecker interface {
	Exists(ctx context.Context, id string) (bool, error)
}

// Service contains the task business logic.
type Service interface {
	List(ctx context.Context, userID string) ([]Task, error)
	Get(ctx context.Context, id, userID string) (*Task, error)
	Create(ctx context.Context, userID string, req CreateRequest) (*Task, error)
	Update(ctx context.Context, id, userID string, req UpdateRequest) (*Task, error)
	Delete(ctx context.Context, id, userID string) error
}

type service struct {
	repo       Repository
	categories CategoryChecker
}

// NewService creates a task service.
func NewService(repo Repository, categories CategoryChecker) Service {
	return &service{repo: repo, categories: categories}
}

func (s *service) List(ctx context.Context, userID string) ([]Task, error) {
	tasks, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing tasks for user %s: %w", userID, err)
	}
	return tasks, nil
}

func (s *service) Get(ctx context.Context, id, userID string) (*Task, error) {
	t, err := s.repo.FindByID(ctx, id, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NewNotFound("Task not found")
		}
		return nil, fmt.Errorf("finding task %s: %w", id, err)
	}
	return t, nil
}

func (s *service) Create(ctx context.Context, userID string, req CreateRequest) (*Task, error) {
	title := sanitize.Text(req.Title)
	if title == "" {
		return nil, apperror.NewValidation("Title is required")
	}
	if len(title) > maxTitleLength {
		return nil, apperror.NewValidation("Title must not exceed 100 characters")
	}
	description := sanitize.Text(req.Description)
	if len(description) > maxDescriptionLength {
		return nil, apperror.NewValidation("Description must not exceed 500 characters")
	}

	status := req.Status
	if status == "" {
		status = StatusTodo
	}
	if !validStatus(status) {
		return nil, apperror.NewValidation("Status must be one of: todo, done, cancelled, overdue")
	}
	if !validPeriod(req.Period) {
		return nil, apperror.NewValidation("Period must be one of: day, week, month, year")
	}
	priority := req.Priority
	if priority == "" {
		priority = PriorityMedium
	}
	if !validPriority(priority) {
		return nil, apperror.NewValidation("Priority must be one of: low, medium, high")
	}
	if err := s.checkCategory(ctx, req.CategoryID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	t := &Task{
		ID:          uuid.NewString(),
		Title:       title,
		Description: description,
		Status:      status,
		Period:      req.Period,
		Deadline:    req.Deadline,
		Priority:    priority,
		CategoryID:  req.CategoryID,
		UserID:      userID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	t.IsDone = status == StatusDone
	applyCompletion(t, now)

	if err := s.repo.Create(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *service) Update(ctx context.Context, id, userID string, req UpdateRequest) (*Task, error) {
	t, err := s.Get(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		title := sanitize.Text(*req.Title)
		if title == "" {
			return nil, apperror.NewValidation("Title is required")
		}
		if len(title) > maxTitleLength {
			return nil, apperror.NewValidation("Title must not exceed 100 characters")
		}
		t.Title = title
	}
	if req.Description != nil {
		description := sanitize.Text(*req.Description)
		if len(description) > maxDescriptionLength {
			return nil, apperror.NewValidation("Description must not exceed 500 characters")
		}
		t.Description = description
	}
	if req.Status != nil {
		if !validStatus(*req.Status) {
			return nil, apperror.NewValidation("Status must be one of: todo, done, cancelled, overdue")
		}
		t.Status = *req.Status
		t.IsDone = t.Status == StatusDone
	}
	if req.IsDone != nil {
		t.IsDone = *req.IsDone
	}
	if req.Period != nil {
		if !validPeriod(*req.Period) {
			return nil, apperror.NewValidation("Period must be one of: day, week, month, year")
		}
		t.Period = *req.Period
	}
	if req.Deadline != nil {
		t.Deadline = req.Deadline
	}
	if req.Priority != nil {
		if !validPriority(*req.Priority) {
			return nil, apperror.NewValidation("Priority must be one of: low, medium, high")
		}
		t.Priority = *req.Priority
	}
	if req.CategoryID != nil {
		if err := s.checkCategory(ctx, req.CategoryID); err != nil {
			return nil, err
		}
		t.CategoryID = req.CategoryID
	}

	now := time.Now().UTC()
	applyCompletion(t, now)
	t.UpdatedAt = now

	if err := s.repo.Update(ctx, t); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NewNotFound("Task not found")
		}
		return nil, fmt.Errorf("updating task %s: %w", id, err)
	}
	return t, nil
}

func (s *service) Delete(ctx context.Context, id, userID string) error {
	if err := s.repo.Delete(ctx, id, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperror.NewNotFound("Task not found")
		}
		return fmt.Errorf("deleting task %s: %w", id, err)
	}
	return nil
}

func (s *service) checkCategory(ctx context.Context, id *string) error {
	if id == nil || *id == "" {
		return nil
	}
	ok, err := s.categories.Exists(ctx, *id)
	if err != nil {
		return fmt.Errorf("checking category %s: %w", *id, err)
	}
	if !ok {
		return apperror.NewValidation("Category does not exist")
	}
	return nil
}

// applyCompletion keeps isDone, status and completedAt consistent: a done
// task carries a completion timestamp, anything else carries none.
func applyCompletion(t *Task, now time.Time) {
	if t.IsDone {
		t.Status = StatusDone
		if t.CompletedAt == nil {
			ts := now
			t.CompletedAt = &ts
		}
		return
	}
	t.CompletedAt = nil
	if t.Status == StatusDone {
		t.Status = StatusTodo
	}
}
