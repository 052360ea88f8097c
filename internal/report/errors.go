package report

import "errors"

var (
	// ErrTemplate marks a missing or malformed template artifact. It is a
	// deployment problem, not a user input problem.
	ErrTemplate = errors.New("report template unavailable")
	// ErrContentTooLarge is returned when the content would need more
	// repeatable blocks than the layout allows.
	ErrContentTooLarge = errors.New("content too large for report")
)

// ValidationError is a user-correctable input problem.
type ValidationError struct {
	Message string
	Line    int
}

func (e *ValidationError) Error() string { return e.Message }
