package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/example/speeddate-scheduler/internal/application"
	"github.com/example/speeddate-scheduler/internal/broadcast"
	"github.com/example/speeddate-scheduler/internal/config"
	httptransport "github.com/example/speeddate-scheduler/internal/http"
	"github.com/example/speeddate-scheduler/internal/matching"
	"github.com/example/speeddate-scheduler/internal/persistence/sqlite"
)

func newServeCommand(verbose *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(*verbose)
		},
	}
}

func runServe(verbose bool) error {
	logger := newLogger(verbose)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		return err
	}

	storage, err := sqlite.Open(sqlite.DefaultConfig(cfg.SQLiteDSN))
	if err != nil {
		logger.Error("failed to open storage", "error", err)
		return err
	}
	defer func() {
		if cerr := storage.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	if err := storage.Migrate(context.Background()); err != nil {
		logger.Error("failed to apply migrations", "error", err)
		return err
	}

	idGenerator := uuid.NewString
	now := time.Now

	participantRepo := sqlite.NewParticipantRepository(storage)
	pairingRepo := sqlite.NewPairingRepository(storage)
	timerRepo := sqlite.NewTimerRepository(storage)

	registry := newParticipantRegistryAdapter(participantRepo)
	directory := newParticipantDirectoryAdapter(participantRepo)
	pairingStore := newPairingStoreAdapter(pairingRepo, now)
	timerStore := newTimerStoreAdapter(timerRepo, now)

	hub := broadcast.NewHub(cfg.StreamBuffer, logger)
	defer hub.Close()

	windows := matching.WindowConfig{
		InitialWindow:  cfg.InitialAgeWindow,
		ExtendedWindow: cfg.ExtendedAgeWindow,
	}
	timerDefaults := application.TimerDefaults{
		RoundDurationS: cfg.RoundDurationS,
		BreakDurationS: cfg.BreakDurationS,
	}

	participantService := application.NewParticipantServiceWithLogger(registry, idGenerator, now, logger)
	scheduleService := application.NewScheduleServiceWithLogger(directory, pairingStore, windows, idGenerator, now, logger)
	timerService := application.NewTimerServiceWithLogger(timerStore, pairingRepo, hub, timerDefaults, now, logger)

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Participants: httptransport.NewParticipantHandler(participantService, logger),
		Schedules:    httptransport.NewScheduleHandler(scheduleService, logger),
		Timers:       httptransport.NewTimerHandler(timerService, logger),
		Stream:       httptransport.NewStreamHandler(hub, timerService, logger),
		Middleware: []func(http.Handler) http.Handler{
			httptransport.RequestLogger(logger),
		},
	})

	// No WriteTimeout: the stream endpoint holds connections open.
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		logger.Info("speed-dating API listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if err := group.Wait(); err != nil {
		logger.Error("server encountered error", "error", err)
		return err
	}
	return nil
}
