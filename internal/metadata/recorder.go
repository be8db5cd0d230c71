package metadata

import (
	"log/slog"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

/*
Metadata Collected
- Upstream fetch method, status and duration
- Cache hits and misses per cache
- Rendered documents
- Classified errors

Metadata is write-only.
No component may read metadata to influence caching or request handling.
*/

type MetadataSink interface {
	RecordError(
		observedAt time.Time,
		packageName string,
		action string,
		cause ErrorCause,
		details string,
		attrs []Attribute,
	)

	RecordFetch(
		fetchUrl string,
		method string,
		httpStatus int,
		duration time.Duration,
		contentType string,
	)

	RecordCacheLookup(cache CacheName, hit bool)

	RecordArtifact(kind ArtifactKind, name string, attrs []Attribute)
}

/*
Recorder writes every event as a structured slog record and mirrors it
into Prometheus collectors. It must not:
- perform I/O decisions
- affect control flow
*/
type Recorder struct {
	logger  *slog.Logger
	metrics *collectors
}

// NewRecorder registers the recorder collectors on registerer.
// Pass a fresh prometheus.NewRegistry() in tests to avoid duplicate registration.
func NewRecorder(logger *slog.Logger, registerer prometheus.Registerer) *Recorder {
	return &Recorder{
		logger:  logger,
		metrics: newCollectors(registerer),
	}
}

func (r *Recorder) RecordError(
	observedAt time.Time,
	packageName string,
	action string,
	cause ErrorCause,
	details string,
	attrs []Attribute,
) {
	args := []any{
		slog.Time("observed_at", observedAt),
		slog.String("package", packageName),
		slog.String("action", action),
		slog.String("cause", cause.String()),
		slog.String("details", details),
	}
	args = append(args, attrArgs(attrs)...)
	r.logger.Error("operation failed", args...)

	r.metrics.errors.WithLabelValues(packageName, cause.String()).Inc()
}

func (r *Recorder) RecordFetch(
	fetchUrl string,
	method string,
	httpStatus int,
	duration time.Duration,
	contentType string,
) {
	r.logger.Info("upstream fetch",
		slog.String("url", fetchUrl),
		slog.String("method", method),
		slog.Int("status", httpStatus),
		slog.Duration("duration", duration),
		slog.String("content_type", contentType),
	)

	r.metrics.fetches.WithLabelValues(method, strconv.Itoa(httpStatus)).Inc()
	r.metrics.fetchDuration.WithLabelValues(method).Observe(duration.Seconds())
}

func (r *Recorder) RecordCacheLookup(cache CacheName, hit bool) {
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	r.logger.Debug("cache lookup", slog.String("cache", string(cache)), slog.String("outcome", outcome))
	r.metrics.cacheLookups.WithLabelValues(string(cache), outcome).Inc()
}

func (r *Recorder) RecordArtifact(kind ArtifactKind, name string, attrs []Attribute) {
	args := []any{
		slog.String("kind", string(kind)),
		slog.String("name", name),
	}
	args = append(args, attrArgs(attrs)...)
	r.logger.Info("artifact produced", args...)

	r.metrics.artifacts.WithLabelValues(string(kind)).Inc()
}

func attrArgs(attrs []Attribute) []any {
	args := make([]any, 0, len(attrs))
	for _, a := range attrs {
		args = append(args, slog.String(string(a.Key), a.Value))
	}
	return args
}

// NoopSink, struct that implements MetadataSink but does nothing.
// Handlers (or tests) decide whether to inject Recorder or NoopSink.
type NoopSink struct{}

func (n *NoopSink) RecordError(
	observedAt time.Time,
	packageName string,
	action string,
	cause ErrorCause,
	details string,
	attrs []Attribute,
) {
}

func (n *NoopSink) RecordFetch(
	fetchUrl string,
	method string,
	httpStatus int,
	duration time.Duration,
	contentType string,
) {
}

func (n *NoopSink) RecordCacheLookup(cache CacheName, hit bool) {}

func (n *NoopSink) RecordArtifact(kind ArtifactKind, name string, attrs []Attribute) {}
