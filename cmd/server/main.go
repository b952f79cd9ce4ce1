package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/xtding233/gacha-backend/internal/config"
	"github.com/xtding233/gacha-backend/internal/feed"
	"github.com/xtding233/gacha-backend/internal/gacha"
	"github.com/xtding233/gacha-backend/internal/history"
	"github.com/xtding233/gacha-backend/internal/httpapi"
	"github.com/xtding233/gacha-backend/internal/logging"
	"github.com/xtding233/gacha-backend/internal/metrics"
	"github.com/xtding233/gacha-backend/internal/service"
)

func main() {
	cfgPath := flag.String("config", "configs/server.yaml", "config file")
	overlay := flag.String("overlay", "configs/server.local.yaml", "optional config overlay")
	flag.Parse()

	cfg, err := config.Load(*cfgPath, *overlay)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	log, err := logging.New(cfg.Log)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Error("server exited with error", zap.Error(err))
		os.Exit(1)
	}
	log.Info("server stopped")
}

func run(cfg config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(metrics.DefaultNamespace)
	if err := m.Register(reg); err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	store, err := history.Open(ctx, cfg.History)
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer store.Close()

	svc, err := service.New(service.Options{
		Source:    cfg.Feed,
		History:   store,
		Engine:    gacha.NewEngine(cfg.Tags, log),
		Locations: cfg.Locations,
		Token:     cfg.Token,
		Metrics:   m,
		Logger:    log,
	})
	if err != nil {
		return err
	}

	refresh := func(reason string) {
		rctx, cancel := context.WithTimeout(ctx, cfg.RefreshTimeout)
		defer cancel()
		if _, err := svc.Refresh(rctx); err != nil {
			log.Error("refresh failed", zap.String("reason", reason), zap.Error(err))
		}
	}
	// The server starts even when the feed is broken; draws answer 503 until a
	// refresh succeeds.
	refresh("startup")

	sched, err := service.NewScheduler(svc, cfg.RefreshSchedule, cfg.RefreshTimeout, log)
	if err != nil {
		return fmt.Errorf("refresh schedule: %w", err)
	}
	sched.Start()
	defer func() { <-sched.Stop().Done() }()
	log.Info("refresh scheduled", zap.String("schedule", cfg.RefreshSchedule), zap.Time("next", sched.Next()))

	if cfg.Watch {
		w, err := feed.NewWatcher(
			[]string{cfg.Feed.CharactersPath, cfg.Feed.BannersPath},
			cfg.WatchDebounce,
			func(string) { refresh("feed changed") },
			log,
		)
		if err != nil {
			return fmt.Errorf("watch feed: %w", err)
		}
		w.Start()
		defer w.Stop()
	}

	gin.SetMode(cfg.GinMode)
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpapi.NewRouter(svc, m, reg, log),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		log.Info("received shutdown signal")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
