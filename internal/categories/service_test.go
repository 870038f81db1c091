package categories

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/mleroux/taskforge/internal/apperror"
)

// mockRepo implements Repository for testing.
type mockRepo struct {
	createFn     func(ctx context.Context, c *Category) error
	listFn       func(ctx context.Context) ([]Category, error)
	existsFn     func(ctx context.Context, id string) (bool, error)
	nameExistsFn func(ctx context.Context, name string) (bool, error)
	deleteFn     func(ctx context.Context, id string) error
}

func (m *mockRepo) Create(ctx context.Context, c *Category) error {
	if m.createFn != nil {
		return m.createFn(ctx, c)
	}
	return nil
}

func (m *mockRepo) List(ctx context.Context) ([]Category, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

func (m *mockRepo) Exists(ctx context.Context, id string) (bool, error) {
	if m.existsFn != nil {
		return m.existsFn(ctx, id)
	}
	return false, nil
}

func (m *mockRepo) NameExists(ctx context.Context, name string) (bool, error) {
	if m.nameExistsFn != nil {
		return m.nameExistsFn(ctx, name)
	}
	return false, nil
}

func (m *mockRepo) Delete(ctx context.Context, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

// assertAppError checks that err is an *apperror.AppError with the expected code.
func assertAppError(t *testing.T, err error, expectedCode int) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error with code %d, got nil", expectedCode)
	}
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *apperror.AppError, got %T: %v", err, err)
	}
	if appErr.Code != expectedCode {
		t.Errorf("expected status %d, got %d (message: %s)", expectedCode, appErr.Code, appErr.Message)
	}
}

func TestCreate_NormalizesInput(t *testing.T) {
	var created *Category
	repo := &mockRepo{
		createFn: func(ctx context.Context, c *Category) error {
			created = c
			return nil
		},
	}
	svc := NewService(repo)
	category, err := svc.Create(context.Background(), CreateRequest{
		Name:  "  Work ",
		Color: "#a1b2c3",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created == nil {
		t.Fatal("expected category to be persisted")
	}
	if category.Name != NameWork {
		t.Errorf("expected name normalized to %q, got %q", NameWork, category.Name)
	}
	if category.Color != "#A1B2C3" {
		t.Errorf("expected color uppercased, got %q", category.Color)
	}
	if category.ID == "" {
		t.Error("expected an ID to be generated")
	}
}

func TestCreate_RejectsUnknownName(t *testing.T) {
	svc := NewService(&mockRepo{})
	_, err := svc.Create(context.Background(), CreateRequest{
		Name:  "chores",
		Color: "#A1B2C3",
	})
	assertAppError(t, err, 400)
}

func TestCreate_RejectsBadColor(t *testing.T) {
	svc := NewService(&mockRepo{})
	for _, color := range []string{"", "red", "#FFFF", "#GGGGGG", "A1B2C3"} {
		_, err := svc.Create(context.Background(), CreateRequest{
			Name:  NameWork,
			Color: color,
		})
		assertAppError(t, err, 400)
	}
}

func TestCreate_DuplicateName(t *testing.T) {
	repo := &mockRepo{
		nameExistsFn: func(ctx context.Context, name string) (bool, error) {
			return true, nil
		},
	}
	svc := NewService(repo)
	_, err := svc.Create(context.Background(), CreateRequest{
		Name:  NameWork,
		Color: "#A1B2C3",
	})
	assertAppError(t, err, 409)
}

func TestDelete_NotFound(t *testing.T) {
	repo := &mockRepo{
		deleteFn: func(ctx context.Context, id string) error {
			return sql.ErrNoRows
		},
	}
	svc := NewService(repo)
	err := svc.Delete(context.Background(), "gone")
	assertAppError(t, err, 404)
}
