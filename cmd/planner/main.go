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

	"github.com/vshankar/margazhi-planner/internal/api"
	"github.com/vshankar/margazhi-planner/internal/chat"
	"github.com/vshankar/margazhi-planner/internal/config"
	"github.com/vshankar/margazhi-planner/internal/directions"
	"github.com/vshankar/margazhi-planner/internal/geo"
	"github.com/vshankar/margazhi-planner/internal/intent"
	"github.com/vshankar/margazhi-planner/internal/itinerary"
	"github.com/vshankar/margazhi-planner/internal/schedule"
	"github.com/vshankar/margazhi-planner/internal/storage/sqlite"
	"github.com/vshankar/margazhi-planner/pkg/logger"
)

func main() {
	configPath := flag.String("config", "config.toml", "path to config file")
	warmCache := flag.Bool("warm-cache", false, "geocode all venues on startup")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(cfg, log, *warmCache); err != nil {
		log.Error("Fatal error", logger.Error(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *logger.Logger, warmCache bool) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	store, stats, err := loadSchedule(cfg.Schedule.Path, log)
	if err != nil {
		return fmt.Errorf("failed to load schedule: %w", err)
	}
	minDate, maxDate := store.DateRange()
	log.Info("Schedule loaded",
		logger.Int("files", stats.Files),
		logger.Int("concerts", stats.Loaded),
		logger.Int("skipped", stats.Skipped),
		logger.Int("duplicates", stats.Duplicates),
		logger.Time("from", minDate),
		logger.Time("to", maxDate))

	venueStorage, err := sqlite.Open(cfg.Geocoding.CachePath, log)
	if err != nil {
		return fmt.Errorf("failed to open venue cache: %w", err)
	}
	defer venueStorage.Close()

	geoClient := geo.NewClient(cfg.Geocoding.BaseURL, cfg.Geocoding.City, cfg.Geocoding.Timeout(), log)
	geocoder := geo.NewGeocoder(geoClient, venueStorage, log)

	if warmCache {
		log.Info("Warming venue cache", logger.Int("venues", len(store.Venues())))
		if err := geocoder.Warm(ctx, store.Venues(), cfg.Geocoding.WarmConcurrent); err != nil {
			log.Warn("Venue cache warm-up incomplete", logger.Error(err))
		}
	}

	routeProvider := directions.NewClient(cfg.Routing.BaseURL, cfg.Routing.Mode, cfg.Routing.Timeout(), log)
	planner := itinerary.NewPlanner(geocoder, routeProvider, cfg.Itinerary.DefaultConcertMins, log)

	apiKey := cfg.LLMAPIKey()
	if apiKey == "" {
		log.Warn("No LLM API key set, queries will use keyword extraction only",
			logger.String("env_var", cfg.LLM.APIKeyEnvVar))
	}
	llmClient := intent.NewClient(apiKey, cfg.LLM.Model, cfg.LLM.Temperature, cfg.LLM.Timeout(), log)
	interpreter := intent.NewInterpreter(llmClient, cfg.Schedule.SeasonYear, cfg.LLM.MaxVocabVenues, cfg.LLM.MaxVocabArtists, log)
	responder := intent.NewResponder(llmClient, cfg.Chat.MaxSummaryRows, log)

	sessions := chat.NewSessionManager(
		time.Duration(cfg.Chat.SessionTTLMinutes)*time.Minute,
		cfg.Chat.HistoryDepth,
		log)
	chatService := chat.NewService(store, interpreter, responder, planner, sessions, cfg.Itinerary.DefaultConcertMins, log)

	go sweepSessions(ctx, sessions)

	router := api.NewRouter(store, chatService, planner, geocoder, cfg, log)
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.Routes(),
		ReadTimeout:  cfg.Server.ReadTimeout(),
		WriteTimeout: cfg.Server.WriteTimeout(),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening", logger.String("addr", server.Addr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("Shutting down")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return nil
}

func loadSchedule(path string, log *logger.Logger) (*schedule.Store, schedule.LoadStats, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, schedule.LoadStats{}, err
	}
	if info.IsDir() {
		return schedule.LoadDir(path, log)
	}
	return schedule.Load(path, log)
}

func sweepSessions(ctx context.Context, sessions *chat.SessionManager) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sessions.Sweep()
		}
	}
}
