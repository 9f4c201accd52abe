package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httplog/v2"
	"github.com/go-chi/httprate"
	"github.com/patrickmn/go-cache"
	"github.com/robfig/cron/v3"
	"github.com/urfave/cli/v2"

	"github.com/rubiojr/gasvolt/internal/gasvolt"
	"github.com/rubiojr/gasvolt/internal/render"
)

const reportKey = "report"

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the comparison page, refreshing prices on a schedule",
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address (default from config)",
			},
			&cli.StringFlag{
				Name:  "refresh",
				Usage: "Cron schedule for price refreshes (default from config)",
			},
		}, comparisonFlags()...),
		Action: serveAction,
	}
}

// reporter produces a fresh report.
type reporter interface {
	Run(ctx context.Context, manualPrice *float64) (*gasvolt.Report, error)
}

type server struct {
	svc   reporter
	cache *cache.Cache
	log   *slog.Logger
	mu    sync.Mutex
}

func newServer(svc reporter, logger *slog.Logger) *server {
	return &server{
		svc:   svc,
		cache: cache.New(cache.NoExpiration, 0),
		log:   logger,
	}
}

// refresh replaces the cached report. Overlapping refreshes are skipped.
func (s *server) refresh(ctx context.Context) {
	if !s.mu.TryLock() {
		s.log.Debug("Refresh already running")
		return
	}
	defer s.mu.Unlock()

	report, err := s.svc.Run(ctx, nil)
	if errors.Is(err, gasvolt.ErrNoPrices) {
		s.log.Warn("No live prices", "failures", len(report.Failures))
		// Keep serving the last good report; failure reports are replaced.
		if prev, ok := s.report(); !ok || prev.Comparison == nil {
			s.cache.Set(reportKey, report, cache.NoExpiration)
		}
		return
	}
	if err != nil {
		s.log.Error("Error refreshing prices", "error", err)
		return
	}
	s.cache.Set(reportKey, report, cache.NoExpiration)
	s.log.Info("Prices refreshed", "quotes", len(report.Quotes), "gas_price", report.GasPrice)
}

func (s *server) report() (*gasvolt.Report, bool) {
	v, ok := s.cache.Get(reportKey)
	if !ok {
		return nil, false
	}
	return v.(*gasvolt.Report), true
}

func (s *server) routes(logger *httplog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	if logger != nil {
		r.Use(httplog.RequestLogger(logger))
	}
	r.Use(middleware.Recoverer)
	r.Use(httprate.LimitByIP(20, time.Minute))

	r.Get("/", s.handleHTML)
	r.Get("/api/report", s.handleJSON)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	return r
}

func (s *server) handleHTML(w http.ResponseWriter, r *http.Request) {
	report, ok := s.report()
	if !ok {
		http.Error(w, "No report yet, try again shortly", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if report.Comparison == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		if err := render.HTMLFailure(w, report.Failures); err != nil {
			s.log.Error("Error rendering failure page", "error", err)
		}
		return
	}
	if err := render.HTML(w, report); err != nil {
		s.log.Error("Error rendering report", "error", err)
	}
}

func (s *server) handleJSON(w http.ResponseWriter, r *http.Request) {
	report, ok := s.report()
	if !ok {
		http.Error(w, "No report yet, try again shortly", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if report.Comparison == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	if err := render.JSON(w, report); err != nil {
		s.log.Error("Error encoding report", "error", err)
	}
}

func serveAction(c *cli.Context) error {
	level := slog.LevelInfo
	if lineageBool(c, "debug") {
		level = slog.LevelDebug
	}
	logger := httplog.NewLogger("gasvolt", httplog.Options{
		JSON:            false,
		LogLevel:        level,
		Concise:         true,
		QuietDownPeriod: 10 * time.Second,
	})

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	e, err := newEnv(ctx, c, logger.Logger)
	if err != nil {
		return err
	}
	defer e.Close()
	e.svc.FallbackToHistory = true

	addr := e.cfg.Serve.Addr
	if v := c.String("addr"); v != "" {
		addr = v
	}
	schedule := e.cfg.Serve.Refresh
	if v := c.String("refresh"); v != "" {
		schedule = v
	}

	srv := newServer(e.svc, logger.Logger)

	sched := cron.New()
	if _, err := sched.AddFunc(schedule, func() { srv.refresh(ctx) }); err != nil {
		return fmt.Errorf("invalid refresh schedule %q: %w", schedule, err)
	}
	go srv.refresh(ctx)
	sched.Start()
	defer sched.Stop()

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           srv.routes(logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("Starting server", "addr", addr, "refresh", schedule)
		errc <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	logger.Info("Shutting down")
	return httpServer.Shutdown(shutdownCtx)
}
