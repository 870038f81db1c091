// Package password implements the password policy gate: a pure rule set
// that validates password strength before credentials reach business
// logic, plus a non-blocking scorer used for UX feedback.
//
// Validation collects every violated rule instead of failing fast, so the
// client can show the full list at once.
package password

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Length bounds. The upper bound guards against hashing-cost DoS with
// multi-kilobyte passwords.
const (
	MinLength = 8
	MaxLength = 128
)

// commonPatterns are substrings that make a password trivially guessable.
// Matched case-insensitively.
var commonPatterns = []string{
	"123456",
	"password",
	"qwerty",
	"azerty",
	"admin",
}

// sequences are keyboard rows, the alphabet, and digit runs. Any 4-character
// contiguous slice of one of these (forward or reversed) is rejected.
var sequences = []string{
	"abcdefghijklmnopqrstuvwxyz",
	"0123456789",
	"qwertyuiop",
	"asdfghjkl",
	"zxcvbnm",
	"azerty",
	"qsdfgh",
	"wxcvbn",
}

// Violation messages, one per rule. Exported so handlers and tests can
// match on them without duplicating strings.
const (
	MsgTooShort    = "Password must contain a minimum of 8 characters"
	MsgTooLong     = "Password cannot exceed 128 characters"
	MsgNoLower     = "Password must contain at least one lowercase letter"
	MsgNoUpper     = "Password must contain at least one uppercase letter"
	MsgNoDigit     = "Password must contain at least one digit"
	MsgNoSymbol    = "Password must contain at least one special character"
	MsgPredictable = "Password contains predictable elements"
	MsgHasSequence = "Password must not contain character sequences"
)

// Suggestions is the static remediation list returned alongside violations.
var Suggestions = []string{
	"Use at least 8 characters",
	"Mix uppercase, lowercase, digits and symbols",
	"Avoid common words and character sequences",
	"Do not repeat the same character",
}

// Validate checks the password against every policy rule and returns the
// full list of violations. An empty slice means the password passes.
func Validate(pw string) []string {
	var violations []string

	// Length is counted in runes so multibyte passwords are measured the
	// way users see them, not in UTF-8 bytes.
	length := utf8.RuneCountInString(pw)
	if length < MinLength {
		violations = append(violations, MsgTooShort)
	}
	if length > MaxLength {
		violations = append(violations, MsgTooLong)
	}
	if !hasLower(pw) {
		violations = append(violations, MsgNoLower)
	}
	if !hasUpper(pw) {
		violations = append(violations, MsgNoUpper)
	}
	if !hasDigit(pw) {
		violations = append(violations, MsgNoDigit)
	}
	if !hasSymbol(pw) {
		violations = append(violations, MsgNoSymbol)
	}
	if isPredictable(pw) {
		violations = append(violations, MsgPredictable)
	}
	if hasSequence(pw) {
		violations = append(violations, MsgHasSequence)
	}

	return violations
}

// --- Character class predicates ---

func hasLower(s string) bool {
	for _, r := range s {
		if unicode.IsLower(r) {
			return true
		}
	}
	return false
}

func hasUpper(s string) bool {
	for _, r := range s {
		if unicode.IsUpper(r) {
			return true
		}
	}
	return false
}

func hasDigit(s string) bool {
	for _, r := range s {
		if r >= '0' && r <= '9' {
			return true
		}
	}
	return false
}

// symbolSet matches the special-character class accepted by the policy.
const symbolSet = `!@#$%^&*()_+-=[]{};':"\|,.<>/?`

func hasSymbol(s string) bool {
	return strings.ContainsAny(s, symbolSet)
}

// isPredictable reports whether the password contains a blacklisted common
// substring or any character immediately repeated three or more times.
func isPredictable(pw string) bool {
	lower := strings.ToLower(pw)
	for _, pattern := range commonPatterns {
		if strings.Contains(lower, pattern) {
			return true
		}
	}
	return hasTripleRepeat(pw)
}

// hasTripleRepeat reports whether any rune occurs 3+ times in a row.
// Equivalent to the backreference pattern (.)\1{2,}, which Go's RE2
// engine cannot express.
func hasTripleRepeat(s string) bool {
	runes := []rune(s)
	run := 1
	for i := 1; i < len(runes); i++ {
		if runes[i] == runes[i-1] {
			run++
			if run >= 3 {
				return true
			}
		} else {
			run = 1
		}
	}
	return false
}

// hasSequence reports whether the password contains any 4-character
// contiguous slice of a known sequence, forward or reversed. Matching is
// case-insensitive.
func hasSequence(pw string) bool {
	lower := strings.ToLower(pw)
	for _, seq := range sequences {
		for i := 0; i+4 <= len(seq); i++ {
			sub := seq[i : i+4]
			if strings.Contains(lower, sub) || strings.Contains(lower, reverse(sub)) {
				return true
			}
		}
	}
	return false
}

func reverse(s string) string {
	b := []byte(s)
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
	return string(b)
}
