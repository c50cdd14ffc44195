package practice

import "fmt"

// ValidationError reports the first field of an attempt that failed its range
// or schema check. The failing mutation is rejected without touching state.
type ValidationError struct {
	// Field is the JSON name of the offending field.
	Field string

	// Reason describes the expected range or type in caller-presentable form.
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("practice: invalid attempt: %s: %s", e.Field, e.Reason)
}

// ValidateAttempt checks a against the attempt schema. It returns a
// [*ValidationError] naming the first invalid field, or nil when a is valid.
func ValidateAttempt(a Attempt) error {
	switch {
	case a.Timestamp.IsZero():
		return &ValidationError{Field: "timestamp", Reason: "must be set"}
	case a.Accuracy < 0 || a.Accuracy > 100:
		return &ValidationError{Field: "accuracy", Reason: "must be in [0, 100]"}
	case a.TypingSpeed < 0:
		return &ValidationError{Field: "typing_speed", Reason: "must be >= 0"}
	case a.TimeTaken < 0:
		return &ValidationError{Field: "time_taken", Reason: "must be >= 0"}
	case a.CorrectWords < 0:
		return &ValidationError{Field: "correct_words", Reason: "must be >= 0"}
	case a.TotalWords < 0:
		return &ValidationError{Field: "total_words", Reason: "must be >= 0"}
	case a.CorrectWords > a.TotalWords:
		return &ValidationError{Field: "correct_words", Reason: "must not exceed total_words"}
	}
	return nil
}
