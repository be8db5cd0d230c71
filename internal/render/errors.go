package render

import (
	"fmt"

	"github.com/rohmanhakim/beu-result-proxy/internal/metadata"
	"github.com/rohmanhakim/beu-result-proxy/pkg/failure"
)

type RenderErrorCause string

const (
	ErrCauseLayout = "layout failed"
	ErrCauseOutput = "output failed"
)

type RenderError struct {
	Message   string
	Retryable bool
	Cause     RenderErrorCause
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render error: %s: %s", e.Cause, e.Message)
}

func (e *RenderError) Severity() failure.Severity {
	if e.Retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}

// mapRenderErrorToMetadataCause maps render-local error semantics
// to the canonical metadata.ErrorCause table.
//
// This mapping is observational only.
func mapRenderErrorToMetadataCause(err *RenderError) metadata.ErrorCause {
	switch err.Cause {
	case ErrCauseLayout, ErrCauseOutput:
		return metadata.CauseRenderFailure
	default:
		return metadata.CauseUnknown
	}
}
