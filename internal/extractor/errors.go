package extractor

import (
	"fmt"

	"github.com/rohmanhakim/beu-result-proxy/internal/metadata"
	"github.com/rohmanhakim/beu-result-proxy/pkg/failure"
)

type ExtractionErrorCause string

const (
	ErrCauseNotHTML = "not html"
	ErrCauseNoTable = "no result table"
)

type ExtractionError struct {
	Message   string
	Retryable bool
	Cause     ExtractionErrorCause
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extraction error: %s", e.Cause)
}

func (e *ExtractionError) Severity() failure.Severity {
	if e.Retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}

// IsNotFound reports whether the page had no result table, which upstream
// uses to signal an unknown registration number.
func (e *ExtractionError) IsNotFound() bool {
	return e.Cause == ErrCauseNoTable
}

// mapExtractionErrorToMetadataCause maps extractor-local error semantics
// to the canonical metadata.ErrorCause table.
//
// This mapping is observational only and MUST NOT be used
// to derive control-flow decisions.
func mapExtractionErrorToMetadataCause(err *ExtractionError) metadata.ErrorCause {
	switch err.Cause {
	case ErrCauseNotHTML, ErrCauseNoTable:
		return metadata.CauseContentInvalid
	default:
		return metadata.CauseUnknown
	}
}
