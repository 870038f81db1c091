// Package sanitize cleans user-supplied text before it reaches business
// logic or the database. Uses bluemonday's strict policy to strip any HTML
// (script tags, event handlers, javascript: URLs) from fields that are
// plain text by contract: names, task titles, descriptions, category names.
package sanitize

import (
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

// policy is the singleton strict policy for plain-text fields.
// Initialized once via sync.Once for thread-safe lazy initialization.
var (
	policy     *bluemonday.Policy
	policyOnce sync.Once
)

// getPolicy returns the shared sanitization policy, initializing it on first call.
func getPolicy() *bluemonday.Policy {
	policyOnce.Do(func() {
		policy = bluemonday.StrictPolicy()
	})
	return policy
}

// Text strips all HTML from a plain-text field, removes ASCII control
// characters, and trims surrounding whitespace. Must be called on every
// user-provided string before storing it.
func Text(input string) string {
	if input == "" {
		return ""
	}
	cleaned := getPolicy().Sanitize(input)
	cleaned = strings.Map(func(r rune) rune {
		if r < 0x20 || (r >= 0x7f && r <= 0x9f) {
			return -1
		}
		return r
	}, cleaned)
	return strings.TrimSpace(cleaned)
}

// Email normalizes an email address: trimmed and lower-cased. The store
// enforces uniqueness on the normalized form, so normalization must happen
// in exactly one place.
func Email(input string) string {
	return strings.ToLower(strings.TrimSpace(input))
}
