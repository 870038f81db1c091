// Package categories implements the shared task category catalogue. The
// catalogue is global, not per-user: a fixed set of names, each with a
// display color.
package categories

import (
	"regexp"
	"time"
)

// Category names.
const (
	NameWork     = "work"
	NamePersonal = "personal"
	NameShopping = "shopping"
	NameHealth   = "health"
	NameFinance  = "finance"
	NameOthers   = "others"
)

// Category is a shared label a task can reference.
type Category struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateRequest holds the fields accepted when creating a category.
type CreateRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

var hexColor = regexp.MustCompile(`^#(?:[0-9A-Fa-f]{3}|[0-9A-Fa-f]{6})$`)

// validName reports whether n is one of the category names.
func validName(n string) bool {
	switch n {
	case NameWork, NamePersonal, NameShopping, NameHealth, NameFinance, NameOthers:
		return true
	}
	return false
}

// validColor reports whether c is a three- or six-digit hex color such as
// #ABC or #A1B2C3.
func validColor(c string) bool {
	return hexColor.MatchString(c)
}
