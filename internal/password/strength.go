package password

import "unicode/utf8"

// Strength is the result of the non-blocking scorer. It never rejects a
// password; it only grades it for UX feedback.
type Strength struct {
	// Score is the number of satisfied predicates, 0 through 7.
	Score int `json:"score"`

	// Label is the human-facing bucket for the score.
	Label string `json:"strength"`

	// Feedback lists what would improve the score. Contains a single
	// "secure" message when nothing is missing.
	Feedback []string `json:"feedback"`
}

// Strength bucket labels. Kept verbatim from the product's French UI.
const (
	LabelVeryWeak = "Très faible"
	LabelWeak     = "Faible"
	LabelMedium   = "Moyen"
	LabelStrong   = "Fort"
)

// Score grades a password on seven independent predicates: length >= 8,
// length >= 12, lowercase, uppercase, digit, symbol, and character
// diversity (>= 70% unique runes).
func Score(pw string) Strength {
	score := 0
	var feedback []string

	length := utf8.RuneCountInString(pw)
	if length >= MinLength {
		score++
	} else {
		feedback = append(feedback, "Increase the length (minimum 8 characters)")
	}
	if length >= 12 {
		score++
	}

	if hasLower(pw) {
		score++
	} else {
		feedback = append(feedback, "Add lowercase letters")
	}
	if hasUpper(pw) {
		score++
	} else {
		feedback = append(feedback, "Add uppercase letters")
	}
	if hasDigit(pw) {
		score++
	} else {
		feedback = append(feedback, "Add digits")
	}
	if hasSymbol(pw) {
		score++
	} else {
		feedback = append(feedback, "Add special characters")
	}

	if diversity(pw) {
		score++
	}

	label := LabelVeryWeak
	switch {
	case score >= 6:
		label = LabelStrong
	case score >= 4:
		label = LabelMedium
	case score >= 2:
		label = LabelWeak
	}

	if len(feedback) == 0 {
		feedback = []string{"Password is secure"}
	}

	return Strength{Score: score, Label: label, Feedback: feedback}
}

// diversity reports whether at least 70% of the password's runes are unique.
func diversity(pw string) bool {
	if pw == "" {
		return false
	}
	runes := []rune(pw)
	seen := make(map[rune]struct{}, len(runes))
	for _, r := range runes {
		seen[r] = struct{}{}
	}
	return float64(len(seen)) >= float64(len(runes))*0.7
}
