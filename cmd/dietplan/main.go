package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	adapthttp "dietplan/internal/adapter/http"
	"dietplan/internal/adapter/memory"
	"dietplan/internal/adapter/nominatim"
	"dietplan/internal/adapter/postgres"
	"dietplan/internal/app"
	"dietplan/internal/config"
	"dietplan/internal/domain"
	"dietplan/internal/logger"
	"dietplan/internal/metrics"
)

// store is the persistence the services need; both adapters provide it.
type store interface {
	domain.UserRepository
	domain.HistoryRepository
	domain.MealRepository
}

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	log := logger.SetupDefault(os.Stdout, logger.ParseLevel(cfg.LogLevel))

	var (
		db   store
		ping func(context.Context) error
	)
	if cfg.DatabaseURL != "" {
		pg, err := postgres.Open(cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("db open: %w", err)
		}
		defer func() { _ = pg.Close() }()
		db, ping = pg, pg.Ping
		log.Info("using postgres storage")
	} else {
		db = memory.New()
		log.Warn("DATABASE_URL not set, using in-memory storage")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	rec := metrics.NewCollector(reg)

	searcher := nominatim.NewClient(nominatim.Config{
		Endpoint:       cfg.Places.BaseURL,
		UserAgent:      cfg.Places.UserAgent,
		RequestsPerSec: cfg.Places.RequestsPerSec,
		Timeout:        cfg.Places.Timeout,
	}, nil, log)

	profiles := app.NewProfileService(db, db, cfg.Metabolic, log)
	history := app.NewHistoryService(db, profiles, rec, log, cfg.TrendWindow)
	meals := app.NewMealService(db, history, log)
	places := app.NewPlaceService(searcher, rec, log, cfg.Places.SearchLimit, cfg.Places.DefaultRadiusKm)
	dashboard := app.NewDashboardService(profiles, history, meals)

	h := adapthttp.New(adapthttp.Services{
		Profiles:  profiles,
		History:   history,
		Meals:     meals,
		Places:    places,
		Dashboard: dashboard,
	}, rec, reg, log).WithPing(ping).Handler()

	server := &http.Server{
		Addr:         cfg.Addr,
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", slog.String("addr", cfg.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	log.Info("server stopped")
	return nil
}
