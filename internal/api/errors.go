package api

import (
	"errors"

	"github.com/rohmanhakim/beu-result-proxy/internal/extractor"
	"github.com/rohmanhakim/beu-result-proxy/internal/fetcher"
)

// isUpstreamError reports failures caused by the upstream site: it was
// unreachable, answered with an error status, or sent something that is
// not a page.
func isUpstreamError(err error) bool {
	var fetchErr *fetcher.FetchError
	if errors.As(err, &fetchErr) {
		return true
	}
	var extractionErr *extractor.ExtractionError
	return errors.As(err, &extractionErr)
}
