package result

import (
	"fmt"

	"github.com/rohmanhakim/beu-result-proxy/pkg/failure"
)

const (
	MsgRegNoAndLinkRequired = "reg_no and link required"
	MsgResultNotFound       = "Result not found / invalid reg_no"
)

// ValidationError reports a request missing required input. It is never
// worth repeating unchanged.
type ValidationError struct {
	Message string
	Field   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s", e.Message)
}

func (e *ValidationError) Severity() failure.Severity {
	return failure.SeverityFatal
}

// NotFoundError reports that upstream answered but had no result table for
// the registration number. Negative results are never cached, so a later
// request fetches again.
type NotFoundError struct {
	RegNo string
	Link  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("result not found: reg_no=%s link=%s", e.RegNo, e.Link)
}

func (e *NotFoundError) Severity() failure.Severity {
	return failure.SeverityRecoverable
}
