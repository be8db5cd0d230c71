package fetcher

import (
	"fmt"

	"github.com/rohmanhakim/beu-result-proxy/internal/metadata"
	"github.com/rohmanhakim/beu-result-proxy/pkg/failure"
)

type FetchErrorCause string

const (
	ErrCauseRequestBuild          = "invalid request"
	ErrCauseTimeout               = "timeout"
	ErrCauseNetworkFailure        = "network issues"
	ErrCauseReadResponseBodyError = "failed to read response body"
	ErrCauseContentTypeInvalid    = "non-HTML content"
	ErrCauseRequestClientError    = "4xx"
	ErrCauseRequest5xx            = "5xx"
	ErrCauseUnexpectedStatus      = "unexpected status"
)

// FetchError reports an upstream request that produced no usable page.
// Retryable marks failures where a later request may succeed; the fetcher
// itself never retries.
type FetchError struct {
	Message    string
	Retryable  bool
	Cause      FetchErrorCause
	StatusCode int
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetcher error: %s (status %d)", e.Cause, e.StatusCode)
	}
	return fmt.Sprintf("fetcher error: %s", e.Cause)
}

func (e *FetchError) Severity() failure.Severity {
	if e.Retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}

// mapFetchErrorToMetadataCause maps fetcher-local error semantics
// to the canonical metadata.ErrorCause table.
//
// This mapping is observational only and MUST NOT be used
// to derive control-flow decisions.
func mapFetchErrorToMetadataCause(err *FetchError) metadata.ErrorCause {
	switch err.Cause {
	case ErrCauseTimeout, ErrCauseNetworkFailure, ErrCauseReadResponseBodyError:
		return metadata.CauseNetworkFailure
	case ErrCauseRequestClientError, ErrCauseRequest5xx, ErrCauseUnexpectedStatus:
		return metadata.CauseUpstreamRejected
	case ErrCauseContentTypeInvalid:
		return metadata.CauseContentInvalid
	default:
		return metadata.CauseUnknown
	}
}
