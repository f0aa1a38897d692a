package app

import (
	"regexp"
	"strconv"
	"strings"

	"trivia-challenge-service/internal/domain"
)

// ValidateAnswer checks an already-extracted answer against a question.
// Extraction from raw chat input (emoji reactions, message parsing) happens
// upstream; this sees an option index or text for multiple choice, a boolean
// word for true/false, and a free-text string for fill-blank.
func ValidateAnswer(q domain.Question, answer string) (bool, error) {
	if q.Text == "" && q.CorrectAnswer == "" {
		return false, domain.ErrInvalidQuestion
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return false, nil
	}

	switch q.Type {
	case domain.MultipleChoice:
		return validateMultipleChoice(q, answer), nil
	case domain.TrueFalse:
		return validateTrueFalse(q, answer), nil
	case domain.FillBlank:
		return validateFillBlank(q, answer), nil
	default:
		return false, nil
	}
}

func validateMultipleChoice(q domain.Question, answer string) bool {
	lower := strings.ToLower(answer)
	correct := strings.ToLower(strings.TrimSpace(q.CorrectAnswer))

	// Numeric answers select an option by zero-based index. Out-of-range
	// numbers are not a rejection: they fall through to the text comparison,
	// so options that are themselves numbers stay answerable by value.
	if idx, err := strconv.Atoi(answer); err == nil && idx >= 0 && idx < len(q.Options) {
		return strings.ToLower(strings.TrimSpace(q.Options[idx])) == correct
	}

	if lower == correct {
		return true
	}
	for _, opt := range q.Options {
		if strings.ToLower(strings.TrimSpace(opt)) == lower {
			return lower == correct
		}
	}
	return false
}

var trueWords = map[string]bool{"true": true, "t": true, "yes": true, "y": true, "1": true}
var falseWords = map[string]bool{"false": true, "f": true, "no": true, "n": true, "0": true}

func validateTrueFalse(q domain.Question, answer string) bool {
	lower := strings.ToLower(answer)
	correctTrue := trueWords[strings.ToLower(q.CorrectAnswer)]
	switch {
	case trueWords[lower]:
		return correctTrue
	case falseWords[lower]:
		return !correctTrue
	default:
		return false
	}
}

func validateFillBlank(q domain.Question, answer string) bool {
	cleaned := CleanAnswer(answer)
	if CleanAnswer(q.CorrectAnswer) == cleaned {
		return true
	}
	for _, variation := range q.AnswerVariations {
		if CleanAnswer(variation) == cleaned {
			return true
		}
	}
	return false
}

var (
	punctRe  = regexp.MustCompile(`[.,!?;:]`)
	spacesRe = regexp.MustCompile(`\s+`)
)

// CleanAnswer normalizes free-text answers for comparison: lowercase, common
// punctuation stripped, whitespace collapsed.
func CleanAnswer(answer string) string {
	cleaned := strings.ToLower(strings.TrimSpace(answer))
	cleaned = punctRe.ReplaceAllString(cleaned, "")
	return spacesRe.ReplaceAllString(cleaned, " ")
}
