package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rohmanhakim/beu-result-proxy/internal/api"
	"github.com/rohmanhakim/beu-result-proxy/internal/cache"
	"github.com/rohmanhakim/beu-result-proxy/internal/config"
	"github.com/rohmanhakim/beu-result-proxy/internal/extractor"
	"github.com/rohmanhakim/beu-result-proxy/internal/fetcher"
	"github.com/rohmanhakim/beu-result-proxy/internal/metadata"
	"github.com/rohmanhakim/beu-result-proxy/internal/render"
	"github.com/rohmanhakim/beu-result-proxy/internal/result"
)

const shutdownTimeout = 10 * time.Second

// NewLogger returns a JSON slog logger writing to w at the named level.
func NewLogger(w io.Writer, level string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("%w: unknown log level %q", config.ErrInvalidConfig, level)
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl})), nil
}

// Serve wires the proxy from cfg and serves HTTP until ctx is done, then
// shuts the server down gracefully.
func Serve(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	recorder := metadata.NewRecorder(logger, registry)

	clock := clockwork.NewRealClock()
	htmlFetcher := fetcher.NewHtmlFetcher(recorder, nil)
	domExtractor := extractor.NewDomExtractor(recorder)
	svc := result.NewService(cfg, &htmlFetcher, &domExtractor, clock, recorder)
	renderer := render.NewPdfRenderer(recorder, clock)
	server := api.NewServer(svc, &renderer, logger, registry, cfg.AllowedOrigins())

	httpServer := &http.Server{
		Addr:              cfg.ListenAddr(),
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	if interval := cfg.PurgeInterval(); interval > 0 {
		go cache.RunPurger(ctx, clock, interval, func(removed int) {
			logger.Debug("expired cache entries purged", "purged", removed)
		}, svc.Purgers()...)
	}

	serveErr := make(chan error, 1)
	go func() {
		base := cfg.BaseURL()
		logger.Info("server listening",
			"addr", cfg.ListenAddr(),
			"upstream", base.String(),
			"exams_ttl", cfg.ExamsTTL(),
			"result_ttl", cfg.ResultTTL(),
		)
		serveErr <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
