// Package service assembles the travel journal and serves it over HTTP.
package service

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/mycelian/travelmap/internal/api"
	"github.com/mycelian/travelmap/internal/config"
	"github.com/mycelian/travelmap/internal/factory"
	"github.com/mycelian/travelmap/internal/geocode"
	"github.com/mycelian/travelmap/internal/health"
	"github.com/mycelian/travelmap/internal/journal"
	"github.com/mycelian/travelmap/internal/logger"
	"github.com/mycelian/travelmap/internal/mapview"
	"github.com/mycelian/travelmap/internal/storage"
)

const probeTimeout = 2 * time.Second

// Run starts the travel journal service and blocks until shutdown or error.
func Run() error {
	log := logger.New("travelmap-service")

	cfg, err := config.New()
	if err != nil {
		log.Error().Err(err).Msg("Failed to load configuration")
		return err
	}
	log = log.Level(logger.ParseLevel(cfg.LogLevel))

	log.Info().
		Str("environment", string(cfg.Environment)).
		Str("storage_driver", cfg.StorageDriver).
		Int("http_port", cfg.HTTPPort).
		Str("geocoder_url", cfg.GeocoderURL).
		Msg("Travel journal service starting")

	// Create cancellable root context bound to SIGINT/SIGTERM
	ctx, stop := newServerContext()
	defer stop()

	app, err := Assemble(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer app.Close()

	// Block startup until the slot reports healthy; fail fast otherwise
	if err := waitUntilHealthy(ctx, cfg, app.Health); err != nil {
		log.Error().Stack().Err(err).Msg("startup health check failed")
		return err
	}

	server := newHTTPServer(ctx, cfg, app.Router)
	errCh := serveHTTP(server, log, cfg)

	// Graceful shutdown on context cancel or server error
	select {
	case <-ctx.Done():
		log.Info().Msg("Shutting down server")
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctxShutdown); err != nil {
			log.Error().Stack().Err(err).Msg("Server forced to shutdown")
			return err
		}
		log.Info().Msg("Server exited")
		return nil
	case err := <-errCh:
		log.Error().Stack().Err(err).Msg("HTTP server failed")
		return err
	}
}

// App is the assembled journal: store, map synchronizer and HTTP surface.
type App struct {
	Store    *journal.Store
	Geocoder *geocode.Client
	Slot     storage.Slot
	Hub      *api.MapHub
	Sync     *mapview.Synchronizer
	Health   *health.ServiceHealthChecker
	Router   http.Handler

	cancel context.CancelFunc
	done   chan struct{}
}

// Assemble builds every component from cfg, loads the journal and starts the
// background loops. The loops stop when ctx is done or Close is called.
func Assemble(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*App, error) {
	slot, err := factory.NewSlot(cfg, log)
	if err != nil {
		log.Error().Stack().Err(err).Msg("Storage slot unavailable")
		return nil, err
	}
	geo, err := factory.NewGeocoder(cfg, log)
	if err != nil {
		_ = slot.Close()
		log.Error().Stack().Err(err).Msg("Geocoder unavailable")
		return nil, err
	}

	store := journal.New(geo, factory.NewCodec(cfg, log), slot,
		journal.WithPlaceholders(cfg.DemoPlaceholders),
		journal.WithLogger(log.With().Str("component", "journal").Logger()),
	)
	if err := store.Load(ctx); err != nil {
		// the journal stays usable in memory; the next persist retries the slot
		log.Warn().Err(err).Msg("journal loaded empty")
	}

	hub := api.NewMapHub(log.With().Str("component", "maphub").Logger())
	syncer := mapview.New(hub,
		mapview.WithZoom(cfg.CameraZoom),
		mapview.WithAckDelay(cfg.MarkerAck()),
		mapview.WithLogger(log.With().Str("component", "mapview").Logger()),
	)
	hub.Attach(syncer)

	runCtx, cancel := context.WithCancel(ctx)
	app := &App{
		Store:    store,
		Geocoder: geo,
		Slot:     slot,
		Hub:      hub,
		Sync:     syncer,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	app.Health = startHealthCheckers(runCtx, cfg, log, slot)
	app.Router = api.NewRouter(api.RouterDeps{
		Store:      store,
		Geocoder:   geo,
		Hub:        hub,
		Healthy:    app.Health.IsHealthy,
		Components: app.Health.Components,
		Log:        log,
	})

	snaps, unsubscribe := store.Subscribe()
	go func() {
		defer close(app.done)
		defer unsubscribe()
		if err := syncer.Run(runCtx, snaps); err != nil && err != context.Canceled {
			log.Error().Err(err).Msg("map synchronizer stopped")
		}
	}()
	go forwardIntents(runCtx, syncer.Intents(), store, log)

	return app, nil
}

// Close stops the background loops and releases the slot and geocoder.
func (a *App) Close() {
	a.cancel()
	<-a.done
	a.Store.Close()
	a.Geocoder.Close()
	_ = a.Slot.Close()
}

// forwardIntents applies marker clicks as selections.
func forwardIntents(ctx context.Context, intents <-chan mapview.SelectionIntent, store *journal.Store, log zerolog.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case in := <-intents:
			if err := store.Select(in.MemoryID); err != nil {
				log.Debug().Err(err).Str("memory_id", in.MemoryID).Msg("selection intent dropped")
			}
		}
	}
}

// startHealthCheckers starts component checkers and the service-level aggregator.
func startHealthCheckers(ctx context.Context, cfg *config.Config, log zerolog.Logger, slot storage.Slot) *health.ServiceHealthChecker {
	interval := cfg.HealthInterval()

	slotChecker := health.NewPingChecker("storage:"+cfg.StorageDriver, slot, log, probeTimeout)
	go slotChecker.Start(ctx, interval)

	svcHealth := health.NewServiceHealthChecker(log, slotChecker)
	go svcHealth.Start(ctx, interval)
	return svcHealth
}

func newHTTPServer(ctx context.Context, cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.GetHTTPAddr(),
		Handler:           handler,
		ReadTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		// geocoding plus media encoding can take a while
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}
}

func serveHTTP(server *http.Server, log zerolog.Logger, cfg *config.Config) <-chan error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Int("port", cfg.HTTPPort).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()
	return errCh
}

// calculateStartupHealthTimeout returns the startup health timeout in seconds,
// calculated as interval*2 with a minimum of 10 seconds.
func calculateStartupHealthTimeout(healthIntervalSeconds int) int {
	timeout := healthIntervalSeconds * 2
	if timeout < 10 {
		return 10
	}
	return timeout
}

// waitUntilHealthy blocks until service health is healthy or the startup window expires.
func waitUntilHealthy(ctx context.Context, cfg *config.Config, svcHealth *health.ServiceHealthChecker) error {
	timeoutSeconds := calculateStartupHealthTimeout(cfg.HealthIntervalSeconds)
	deadline := time.Now().Add(time.Duration(timeoutSeconds) * time.Second)
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for {
		if svcHealth.IsHealthy() {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("startup aborted: dependencies not healthy within %d seconds", timeoutSeconds)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// newServerContext returns a cancellable context that is cancelled on SIGINT/SIGTERM.
func newServerContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
