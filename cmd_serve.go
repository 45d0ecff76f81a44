package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/msomdec/solifound/internal/backend"
	"github.com/msomdec/solifound/internal/config"
	"github.com/msomdec/solifound/internal/handler"
	"github.com/msomdec/solifound/internal/metrics"
	"github.com/msomdec/solifound/internal/scan"
	"github.com/msomdec/solifound/internal/service"
	"github.com/msomdec/solifound/internal/viewstate"
)

// Login and registration attempts per client IP.
const (
	authRatePerSecond = 0.2
	authBurst         = 10
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := setup()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	b, err := backend.New(ctx, cfg)
	if err != nil {
		slog.Error("failed to open backend", "backend", cfg.Backend, "error", err)
		return err
	}
	defer b.Close()
	slog.Info("backend ready", "backend", cfg.Backend)

	store, closeStore, err := newViewStore(ctx, cfg)
	if err != nil {
		slog.Error("failed to open view state store", "error", err)
		return err
	}
	defer closeStore()

	var scanner service.Scanner
	if cfg.ClamdAddr != "" {
		clam := scan.NewClamAV(cfg.ClamdAddr)
		if err := clam.Ping(); err != nil {
			slog.Warn("clamd not reachable, uploads will fail until it is", "addr", cfg.ClamdAddr, "error", err)
		}
		scanner = clam
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	limiter := service.NewTokenBucket(authRatePerSecond, authBurst)
	defer limiter.Stop()

	policy := service.NewPolicy(cfg.Admins())
	profiles := service.NewProfileService(b)
	s := handler.Services{
		Auth:         service.NewAuthService(b),
		Profiles:     profiles,
		Education:    service.NewEducationService(b),
		Experience:   service.NewWorkExperienceService(b),
		CVs:          service.NewCVService(b, scanner),
		Admin:        service.NewAdminService(b, policy),
		Policy:       policy,
		Views:        viewstate.New(store, profiles.Load),
		Metrics:      metrics.New(reg),
		Limiter:      limiter,
		CookieSecure: cfg.CookieSecure,
	}

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux, s)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler.Middleware(mux, s.Metrics),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1MB
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		slog.Error("server error", "error", err)
		return err
	}
	slog.Info("server stopped")
	return nil
}

// newViewStore picks Redis when REDIS_URL is set so several instances share
// view state, and process memory otherwise.
func newViewStore(ctx context.Context, cfg *config.Config) (viewstate.Store, func() error, error) {
	if cfg.RedisURL == "" {
		return viewstate.NewMemoryStore(cfg.ViewStateTTL), func() error { return nil }, nil
	}
	rs, err := viewstate.NewRedisStore(ctx, cfg.RedisURL, cfg.ViewStateTTL)
	if err != nil {
		return nil, nil, err
	}
	slog.Info("view state stored in redis")
	return rs, rs.Close, nil
}
