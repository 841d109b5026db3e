package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hamed0406/uptimeprobe/internal/check"
	"github.com/hamed0406/uptimeprobe/internal/config"
	"github.com/hamed0406/uptimeprobe/internal/httpapi"
	"github.com/hamed0406/uptimeprobe/internal/logging"
	"github.com/hamed0406/uptimeprobe/internal/metrics"
	"github.com/hamed0406/uptimeprobe/internal/probe"
	"github.com/hamed0406/uptimeprobe/internal/streak"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger, err := logging.NewLogger(cfg.LogDir, cfg.LogLevel, cfg.LogStdout)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	st, err := buildStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	coord := check.NewCoordinator(check.Options{
		Sites: st.sites,
		Runner: &probe.Retrier{
			Prober: probe.NewHTTPProber(probe.HTTPProberOptions{
				StrictTLS: cfg.ProbeTLSStrict,
				UserAgent: cfg.UserAgent,
			}),
			Timeout:  cfg.ProbeTimeout,
			Delay:    cfg.RetryDelay,
			MaxDelay: cfg.RetryMaxDelay,
		},
		Streaks:    streak.NewTracker(st.streaks, logger, m),
		Metrics:    m,
		Log:        logger,
		RetryLimit: cfg.RetryMax,
		Retries:    &cfg.RetryDefault,
		Timeout:    cfg.CheckTimeout,
	})

	api := httpapi.NewServer(logger, coord, st.sink)
	api.Errors = m
	api.Metrics = m.Handler()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.Router(cfg.RatePerMinute, cfg.RateBurst),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.CheckTimeout + 10*time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("api_listen", zap.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("api_shutdown")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
