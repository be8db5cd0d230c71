package failure

import "errors"

type Severity int

// request control flow
const (
	// SeverityFatal marks failures that will repeat for the same input,
	// such as a blank registration number.
	SeverityFatal Severity = iota
	// SeverityRecoverable marks failures where asking again later may succeed,
	// such as an unreachable upstream site.
	SeverityRecoverable
)

type ClassifiedError interface {
	error
	Severity() Severity
}

// IsRecoverable reports whether err, or any error it wraps, is a
// ClassifiedError with SeverityRecoverable.
func IsRecoverable(err error) bool {
	var classified ClassifiedError
	if errors.As(err, &classified) {
		return classified.Severity() == SeverityRecoverable
	}
	return false
}
