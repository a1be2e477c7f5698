package credential

import "strings"

// Strength is a coarse 0–4 score with human-readable feedback, meant for
// UX guidance. It is independent of the hard validation gate: a password
// can pass ValidatePassword and still score poorly here.
type Strength struct {
	Score    int
	Feedback []string
}

// weak substrings checked case-insensitively.
var weakWords = []string{
	"password",
	"qwerty",
	"letmein",
	"welcome",
	"admin",
	"iloveyou",
	"dragon",
	"monkey",
}

// PasswordStrength scores a password from 0 (trivial) to 4 (strong).
// Length and character variety raise the score; repeated characters,
// dictionary words, and sequential digits lower it.
func PasswordStrength(password string) Strength {
	var score int
	var feedback []string

	switch {
	case len(password) >= 12:
		score += 2
	case len(password) >= 8:
		score++
	default:
		feedback = append(feedback, "Use at least 8 characters")
	}

	var hasLower, hasUpper, hasDigit, hasSymbol bool
	for _, r := range password {
		switch {
		case r >= 'a' && r <= 'z':
			hasLower = true
		case r >= 'A' && r <= 'Z':
			hasUpper = true
		case r >= '0' && r <= '9':
			hasDigit = true
		default:
			hasSymbol = true
		}
	}

	classes := 0
	for _, ok := range []bool{hasLower, hasUpper, hasDigit, hasSymbol} {
		if ok {
			classes++
		}
	}
	switch {
	case classes >= 4:
		score += 2
	case classes == 3:
		score++
	default:
		feedback = append(feedback, "Mix uppercase, lowercase, numbers, and symbols")
	}

	if hasRepeatedRun(password, 3) {
		score--
		feedback = append(feedback, "Avoid repeated characters")
	}
	lowered := strings.ToLower(password)
	for _, word := range weakWords {
		if strings.Contains(lowered, word) {
			score--
			feedback = append(feedback, "Avoid common words and patterns")
			break
		}
	}
	if hasSequentialDigits(password, 3) {
		score--
		feedback = append(feedback, "Avoid sequential numbers")
	}

	if score < 0 {
		score = 0
	}
	if score > 4 {
		score = 4
	}

	return Strength{Score: score, Feedback: feedback}
}

func hasRepeatedRun(s string, runLen int) bool {
	run := 1
	for i := 1; i < len(s); i++ {
		if s[i] == s[i-1] {
			run++
			if run >= runLen {
				return true
			}
		} else {
			run = 1
		}
	}
	return false
}

func hasSequentialDigits(s string, runLen int) bool {
	run := 1
	for i := 1; i < len(s); i++ {
		prev, cur := s[i-1], s[i]
		if cur >= '1' && cur <= '9' && cur == prev+1 {
			run++
			if run >= runLen {
				return true
			}
		} else {
			run = 1
		}
	}
	return false
}
