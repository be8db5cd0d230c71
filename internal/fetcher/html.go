package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rohmanhakim/beu-result-proxy/internal/metadata"
	"github.com/rohmanhakim/beu-result-proxy/pkg/failure"
)

/*
Responsibilities

- Perform GET and form POST requests against the upstream site
- Apply headers and a per-request timeout
- Classify responses

Fetch Semantics

- Only 2xx HTML responses are returned
- A request past its timeout is abandoned and reported as ErrCauseTimeout
- Nothing is retried; every failure is terminal for the calling request
- All requests are recorded with metadata

The fetcher never parses content; it only returns bytes and metadata.
*/

// maxBodyBytes bounds how much of an upstream page is read into memory.
const maxBodyBytes = 8 << 20

type HtmlFetcher struct {
	metadataSink metadata.MetadataSink
	httpClient   *http.Client
}

// NewHtmlFetcher builds a fetcher on httpClient, or on a default client
// when httpClient is nil. Timeouts come from each FetchParam, not the client.
func NewHtmlFetcher(
	metadataSink metadata.MetadataSink,
	httpClient *http.Client,
) HtmlFetcher {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return HtmlFetcher{
		metadataSink: metadataSink,
		httpClient:   httpClient,
	}
}

func (h *HtmlFetcher) Fetch(
	ctx context.Context,
	fetchParam FetchParam,
) (FetchResult, failure.ClassifiedError) {
	callerMethod := "HtmlFetcher.Fetch"
	startTime := time.Now()

	result, statusCode, err := h.performFetch(ctx, fetchParam)

	h.metadataSink.RecordFetch(
		fetchParam.fetchUrl.String(),
		fetchParam.method,
		statusCode,
		time.Since(startTime),
		result.ContentType(),
	)

	if err != nil {
		attrs := []metadata.Attribute{
			metadata.NewAttr(metadata.AttrURL, fetchParam.fetchUrl.String()),
			metadata.NewAttr(metadata.AttrMessage, err.Message),
		}
		if err.StatusCode != 0 {
			attrs = append(attrs, metadata.NewAttr(metadata.AttrHTTPStatus, strconv.Itoa(err.StatusCode)))
		}
		h.metadataSink.RecordError(
			time.Now(),
			"fetcher",
			callerMethod,
			mapFetchErrorToMetadataCause(err),
			err.Error(),
			attrs,
		)
		return FetchResult{}, err
	}

	return result, nil
}

func (h *HtmlFetcher) performFetch(ctx context.Context, fetchParam FetchParam) (FetchResult, int, *FetchError) {
	if fetchParam.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, fetchParam.timeout)
		defer cancel()
	}

	req, err := newRequest(ctx, fetchParam)
	if err != nil {
		return FetchResult{}, 0, &FetchError{
			Message:   fmt.Sprintf("failed to create request: %v", err),
			Retryable: false,
			Cause:     ErrCauseRequestBuild,
		}
	}

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return FetchResult{}, 0, classifyTransportError(ctx, "request failed", err)
	}
	defer resp.Body.Close()

	contentType := resp.Header.Get("Content-Type")

	switch {
	case resp.StatusCode >= 500:
		return FetchResult{}, resp.StatusCode, &FetchError{
			Message:    fmt.Sprintf("server error: %d", resp.StatusCode),
			Retryable:  true,
			Cause:      ErrCauseRequest5xx,
			StatusCode: resp.StatusCode,
		}

	case resp.StatusCode == http.StatusTooManyRequests:
		return FetchResult{}, resp.StatusCode, &FetchError{
			Message:    "rate limited (429)",
			Retryable:  true,
			Cause:      ErrCauseRequestClientError,
			StatusCode: resp.StatusCode,
		}

	case resp.StatusCode >= 400:
		return FetchResult{}, resp.StatusCode, &FetchError{
			Message:    fmt.Sprintf("client error: %d", resp.StatusCode),
			Retryable:  false,
			Cause:      ErrCauseRequestClientError,
			StatusCode: resp.StatusCode,
		}

	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		// Redirects are followed by http.Client; anything left here is unusable.
		return FetchResult{}, resp.StatusCode, &FetchError{
			Message:    fmt.Sprintf("unexpected status: %d", resp.StatusCode),
			Retryable:  false,
			Cause:      ErrCauseUnexpectedStatus,
			StatusCode: resp.StatusCode,
		}
	}

	if !isHTMLContent(contentType) {
		return FetchResult{}, resp.StatusCode, &FetchError{
			Message:    fmt.Sprintf("non-HTML content type: %s", contentType),
			Retryable:  false,
			Cause:      ErrCauseContentTypeInvalid,
			StatusCode: resp.StatusCode,
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		fetchErr := classifyTransportError(ctx, "failed to read response body", err)
		if fetchErr.Cause == ErrCauseNetworkFailure {
			fetchErr.Cause = ErrCauseReadResponseBodyError
		}
		return FetchResult{}, resp.StatusCode, fetchErr
	}

	return FetchResult{
		url:  fetchParam.fetchUrl,
		body: body,
		meta: ResponseMeta{
			statusCode:  resp.StatusCode,
			contentType: contentType,
		},
	}, resp.StatusCode, nil
}

func newRequest(ctx context.Context, fetchParam FetchParam) (*http.Request, error) {
	var body io.Reader
	if fetchParam.method == http.MethodPost {
		body = strings.NewReader(fetchParam.form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, fetchParam.method, fetchParam.fetchUrl.String(), body)
	if err != nil {
		return nil, err
	}

	for key, value := range requestHeaders(fetchParam.userAgent) {
		req.Header.Set(key, value)
	}
	if fetchParam.method == http.MethodPost {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	return req, nil
}

func classifyTransportError(ctx context.Context, message string, err error) *FetchError {
	var netErr net.Error
	if errors.Is(ctx.Err(), context.DeadlineExceeded) ||
		errors.Is(err, context.DeadlineExceeded) ||
		(errors.As(err, &netErr) && netErr.Timeout()) {
		return &FetchError{
			Message:   fmt.Sprintf("%s: %v", message, err),
			Retryable: true,
			Cause:     ErrCauseTimeout,
		}
	}
	return &FetchError{
		Message:   fmt.Sprintf("%s: %v", message, err),
		Retryable: true,
		Cause:     ErrCauseNetworkFailure,
	}
}

// isHTMLContent accepts HTML media types and a missing Content-Type.
func isHTMLContent(contentType string) bool {
	if strings.TrimSpace(contentType) == "" {
		return true
	}
	contentType = strings.ToLower(contentType)
	return strings.Contains(contentType, "text/html") ||
		strings.Contains(contentType, "application/xhtml")
}

func requestHeaders(userAgent string) map[string]string {
	return map[string]string{
		"User-Agent":      userAgent,
		"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
		"Accept-Language": "en-US,en;q=0.5",
	}
}
