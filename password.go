package hireqa

import (
	"unicode"

	"github.com/nbutton23/zxcvbn-go"
)

// MinPasswordScore is the lowest acceptable zxcvbn score (0..4) at signup.
var MinPasswordScore = 2

// StrengthReport is the outcome of scoring a candidate password.
type StrengthReport struct {
	Score            int      `json:"score"`
	Suggestions      []string `json:"suggestions"`
	CrackTimeDisplay string   `json:"crack_time_display"`
}

// CheckPasswordStrength scores a candidate password. Pure function, no I/O.
// userInputs lets callers penalize matches against the registrant's own
// email or name.
func CheckPasswordStrength(password string, userInputs ...string) StrengthReport {
	result := zxcvbn.PasswordStrength(password, userInputs)

	return StrengthReport{
		Score:            result.Score,
		Suggestions:      strengthSuggestions(password, result.Score),
		CrackTimeDisplay: result.CrackTimeDisplay,
	}
}

// ValidatePasswordStrength fails with a weak-password error carrying the
// score and suggestions whenever the score is below MinPasswordScore. Must
// run before hashing on every signup path.
func ValidatePasswordStrength(password string, userInputs ...string) error {
	report := CheckPasswordStrength(password, userInputs...)
	if report.Score < MinPasswordScore {
		return NewWeakPasswordError(report.Score, report.Suggestions)
	}
	return nil
}

func strengthSuggestions(password string, score int) []string {
	if score >= 4 {
		return nil
	}

	var suggestions []string
	if len(password) < 12 {
		suggestions = append(suggestions, "Use a longer password, 12 characters or more")
	}

	var hasUpper, hasDigit, hasSymbol bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			hasSymbol = true
		}
	}

	if !hasUpper || !hasDigit || !hasSymbol {
		suggestions = append(suggestions, "Mix upper case letters, digits and symbols")
	}
	if score < MinPasswordScore {
		suggestions = append(suggestions, "Avoid dictionary words, dates and repeated patterns")
	}

	return suggestions
}
