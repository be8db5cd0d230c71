package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rohmanhakim/beu-result-proxy/internal/result"
	"github.com/rohmanhakim/beu-result-proxy/pkg/failure"
	"github.com/rs/cors"
)

/*
Responsibilities
- Decode JSON requests and validate their shape
- Call the result service and the renderer
- Encode every outcome, cached or fresh, in the same response shape

The server holds no state of its own; caching lives in the result service.
*/

// maxRequestBody bounds request payloads, PDF result sets included.
const maxRequestBody = 1 << 20

type ResultService interface {
	ListExams(ctx context.Context) (result.ExamsResult, failure.ClassifiedError)
	FetchResult(ctx context.Context, regNo string, link string) (result.FetchedResult, failure.ClassifiedError)
	Stats() result.CacheStats
	PurgeExpired() int
}

type Server struct {
	service        ResultService
	renderer       Renderer
	logger         *slog.Logger
	gatherer       prometheus.Gatherer
	allowedOrigins []string
}

// NewServer wires the HTTP surface. gatherer may be nil, in which case
// /metrics is not served.
func NewServer(
	service ResultService,
	renderer Renderer,
	logger *slog.Logger,
	gatherer prometheus.Gatherer,
	allowedOrigins []string,
) *Server {
	return &Server{
		service:        service,
		renderer:       renderer,
		logger:         logger,
		gatherer:       gatherer,
		allowedOrigins: allowedOrigins,
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.HandleHome)
	mux.HandleFunc("GET /api/exams", s.HandleExams)
	mux.HandleFunc("POST /api/result", s.HandleResult)
	mux.HandleFunc("POST /api/download-pdf", s.HandleDownloadPdf)
	mux.HandleFunc("GET /api/cache/stats", s.HandleCacheStats)
	mux.HandleFunc("POST /api/cache/purge", s.HandleCachePurge)
	if s.gatherer != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	c := cors.New(cors.Options{
		AllowedOrigins: s.allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{"Content-Disposition", "ETag"},
	})

	return c.Handler(s.logRequests(mux))
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Debug("request served",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}
