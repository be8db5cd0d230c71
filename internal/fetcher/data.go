package fetcher

import (
	"net/http"
	"net/url"
	"time"
)

// HTTP boundary

type FetchParam struct {
	method    string
	fetchUrl  url.URL
	form      url.Values
	userAgent string
	timeout   time.Duration
}

// NewGetParam describes a GET of fetchUrl abandoned after timeout.
func NewGetParam(fetchUrl url.URL, userAgent string, timeout time.Duration) FetchParam {
	return FetchParam{
		method:    http.MethodGet,
		fetchUrl:  fetchUrl,
		userAgent: userAgent,
		timeout:   timeout,
	}
}

// NewPostFormParam describes a POST of form as
// application/x-www-form-urlencoded to fetchUrl, abandoned after timeout.
func NewPostFormParam(fetchUrl url.URL, form url.Values, userAgent string, timeout time.Duration) FetchParam {
	return FetchParam{
		method:    http.MethodPost,
		fetchUrl:  fetchUrl,
		form:      form,
		userAgent: userAgent,
		timeout:   timeout,
	}
}

func (p FetchParam) Method() string {
	return p.method
}

func (p FetchParam) URL() url.URL {
	return p.fetchUrl
}

func (p FetchParam) Form() url.Values {
	return p.form
}

func (p FetchParam) Timeout() time.Duration {
	return p.timeout
}

type FetchResult struct {
	url  url.URL
	body []byte
	meta ResponseMeta
}

func (f *FetchResult) URL() url.URL {
	return f.url
}

func (f *FetchResult) Body() []byte {
	return f.body
}

func (f *FetchResult) Code() int {
	return f.meta.statusCode
}

func (f *FetchResult) ContentType() string {
	return f.meta.contentType
}

type ResponseMeta struct {
	statusCode  int
	contentType string
}

// NewFetchResultForTest creates a FetchResult for testing purposes.
// This allows test packages to construct FetchResult values without
// accessing unexported fields directly.
func NewFetchResultForTest(
	url url.URL,
	body []byte,
	statusCode int,
	contentType string,
) FetchResult {
	return FetchResult{
		url:  url,
		body: body,
		meta: ResponseMeta{
			statusCode:  statusCode,
			contentType: contentType,
		},
	}
}
