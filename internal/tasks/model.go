// Package tasks implements the to-do task resource: CRUD scoped to the
// authenticated owner. Status bookkeeping (isDone vs. status vs.
// completedAt) lives in the service so every write path agrees.
package tasks

import (
	"time"
)

// Task statuses.
const (
	StatusTodo      = "todo"
	StatusDone      = "done"
	StatusCancelled = "cancelled"
	StatusOverdue   = "overdue"
)

// Task periods: the planning horizon a task belongs to.
const (
	PeriodDay   = "day"
	PeriodWeek  = "week"
	PeriodMonth = "month"
	PeriodYear  = "year"
)

// Task priorities.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// Task is an owned resource: every query is scoped by UserID, and a task
// belonging to another user is indistinguishable from an absent one.
type Task struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Status      string     `json:"status"`
	IsDone      bool       `json:"isDone"`
	Period      string     `json:"period"`
	Deadline    *time.Time `json:"deadline,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	Priority    string     `json:"priority"`
	CategoryID  *string    `json:"categoryId,omitempty"`
	UserID      string     `json:"userId"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// --- Request DTOs ---

// CreateRequest holds the fields accepted when creating a task.
type CreateRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	Period      string     `json:"period"`
	Deadline    *time.Time `json:"deadline"`
	Priority    string     `json:"priority"`
	CategoryID  *string    `json:"categoryId"`
}

// UpdateRequest holds the fields accepted when updating a task. Pointer
// fields distinguish "absent" from "set to zero value".
type UpdateRequest struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Status      *string    `json:"status"`
	IsDone      *bool      `json:"isDone"`
	Period      *string    `json:"period"`
	Deadline    *time.Time `json:"deadline"`
	Priority    *string    `json:"priority"`
	CategoryID  *string    `json:"categoryId"`
}

// validStatus reports whether s is one of the task statuses.
func validStatus(s string) bool {
	switch s {
	case StatusTodo, StatusDone, StatusCancelled, StatusOverdue:
		return true
	}
	return false
}

// validPeriod reports whether p is one of the task periods.
func validPeriod(p string) bool {
	switch p {
	case PeriodDay, PeriodWeek, PeriodMonth, PeriodYear:
		return true
	}
	return false
}

// validPriority reports whether p is one of the task priorities.
func validPriority(p string) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}
