package metadata

/*
	ErrorCause is a closed, canonical classification used exclusively for
	observability (logging, metrics, reporting).

	Rules:
	 - ErrorCause MUST NOT influence control flow.
	 - ErrorCause MUST NOT be used to pick HTTP status codes or cache decisions.
	 - Packages MAY map their local errors to ErrorCause,
	   but MUST NOT invent new meanings.

If a failure does not clearly match a defined cause, CauseUnknown MUST be used.
*/
type ErrorCause int

/*
Canonical ErrorCause Table

# CauseUnknown

  - The failure does not map cleanly to any known category.

# CauseNetworkFailure

  - Upstream site unreachable: DNS, connection reset, timeout.

# CauseUpstreamRejected

  - Upstream site answered with a non-success status.

# CauseContentInvalid

  - Upstream content was fetched but could not be turned into rows,
    e.g. no result table for a registration number.

# CauseInvalidInput

  - The caller supplied incomplete or malformed input.

# CauseRenderFailure

  - A document could not be produced from an already fetched result.
*/
const (
	CauseUnknown ErrorCause = iota
	CauseNetworkFailure
	CauseUpstreamRejected
	CauseContentInvalid
	CauseInvalidInput
	CauseRenderFailure
)

func (c ErrorCause) String() string {
	switch c {
	case CauseNetworkFailure:
		return "network_failure"
	case CauseUpstreamRejected:
		return "upstream_rejected"
	case CauseContentInvalid:
		return "content_invalid"
	case CauseInvalidInput:
		return "invalid_input"
	case CauseRenderFailure:
		return "render_failure"
	default:
		return "unknown"
	}
}

type ArtifactKind string

const (
	ArtifactDocument ArtifactKind = "document"
)

// CacheName identifies one of the service caches in logs and metrics.
type CacheName string

const (
	CacheExams   CacheName = "exams"
	CacheResults CacheName = "results"
)

type Attribute struct {
	Key   AttributeKey
	Value string
}

func NewAttr(key AttributeKey, val string) Attribute {
	return Attribute{
		Key:   key,
		Value: val,
	}
}

type AttributeKey string

const (
	AttrURL        AttributeKey = "url"
	AttrRegNo      AttributeKey = "reg_no"
	AttrLink       AttributeKey = "link"
	AttrExamTitle  AttributeKey = "exam_title"
	AttrHTTPStatus AttributeKey = "http_status"
	AttrRows       AttributeKey = "rows"
	AttrPages      AttributeKey = "pages"
	AttrMessage    AttributeKey = "message"
)
