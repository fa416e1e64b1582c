// Package app boots the rating and tournament engine: database, event bus,
// message router, modules and the HTTP query API.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"go.opentelemetry.io/otel"
	"golang.org/x/time/rate"

	"github.com/Jasstafel-Club/jasstafel-bot/app/adapters"
	"github.com/Jasstafel-Club/jasstafel-bot/app/eventbus"
	"github.com/Jasstafel-Club/jasstafel-bot/app/modules/api"
	"github.com/Jasstafel-Club/jasstafel-bot/app/modules/rating"
	statsservice "github.com/Jasstafel-Club/jasstafel-bot/app/modules/stats/application"
	statsdb "github.com/Jasstafel-Club/jasstafel-bot/app/modules/stats/infrastructure/repositories"
	"github.com/Jasstafel-Club/jasstafel-bot/app/modules/tournament"
	tournamentdb "github.com/Jasstafel-Club/jasstafel-bot/app/modules/tournament/infrastructure/repositories"
	"github.com/Jasstafel-Club/jasstafel-bot/app/shared/attr"
	"github.com/Jasstafel-Club/jasstafel-bot/app/shared/utils"
	"github.com/Jasstafel-Club/jasstafel-bot/config"
)

// App holds the application's wired components.
type App struct {
	Config           *config.Config
	EventBus         eventbus.EventBus
	WatermillRouter  *message.Router
	RatingModule     *rating.Module
	TournamentModule *tournament.Module
	StatsService     *statsservice.StatsService

	db         *bun.DB
	logger     *slog.Logger
	registry   *prometheus.Registry
	httpServer *http.Server
	cancelFunc context.CancelFunc
}

// Initialize wires every component. Modules share one bun.DB, one event bus
// and one watermill router.
func (app *App) Initialize(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	app.Config = cfg
	app.logger = logger

	tracer := otel.Tracer("jasstafel-bot")
	helpers := utils.NewHelpers()

	app.registry = prometheus.NewRegistry()
	app.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.Postgres.DSN)))
	app.db = bun.NewDB(sqldb, pgdialect.New())
	if err := app.db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	bus, err := eventbus.NewEventBus(ctx, cfg.NATS.URL, logger)
	if err != nil {
		return fmt.Errorf("failed to create event bus: %w", err)
	}
	app.EventBus = bus

	if err := eventbus.InitializeStreams(ctx, bus, logger); err != nil {
		return fmt.Errorf("failed to initialize streams: %w", err)
	}

	app.WatermillRouter, err = message.NewRouter(message.RouterConfig{}, watermill.NewSlogLogger(logger))
	if err != nil {
		return fmt.Errorf("failed to create watermill router: %w", err)
	}

	tournamentRepo := &tournamentdb.TournamentDBImpl{DB: app.db}
	statsRepo := &statsdb.SnapshotDBImpl{DB: app.db}

	app.RatingModule, err = rating.NewRatingModule(
		ctx, cfg, logger, tracer, app.db,
		&adapters.RoundSourceAdapter{Repo: tournamentRepo},
		statsRepo,
		bus, app.WatermillRouter, helpers, app.registry,
	)
	if err != nil {
		return fmt.Errorf("failed to initialize rating module: %w", err)
	}

	app.StatsService = statsservice.NewStatsService(
		statsRepo,
		app.RatingModule.RatingService,
		nil,
		statsservice.DefaultChartPalette(),
		logger,
		tracer,
	)

	app.TournamentModule, err = tournament.NewTournamentModule(
		ctx, cfg, logger, tracer, app.db,
		&adapters.RatingLookupAdapter{Ratings: app.RatingModule.RatingService},
		bus, app.WatermillRouter, helpers, app.registry,
	)
	if err != nil {
		return fmt.Errorf("failed to initialize tournament module: %w", err)
	}

	httpRouter := chi.NewRouter()
	apiHandlers := api.NewHandlers(app.RatingModule.RatingService, app.TournamentModule.TournamentService, app.StatsService, logger)
	limiter := api.NewIPRateLimiter(rate.Limit(cfg.HTTP.RequestsPerSec), cfg.HTTP.Burst)
	apiHandlers.RegisterRoutes(httpRouter, limiter)
	httpRouter.Handle("/metrics", promhttp.HandlerFor(app.registry, promhttp.HandlerOpts{}))

	app.httpServer = &http.Server{
		Addr:    cfg.HTTP.Addr,
		Handler: httpRouter,
	}

	return nil
}

// Run blocks until the context is canceled, then shuts everything down.
func (app *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	app.cancelFunc = cancel
	defer cancel()

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := app.WatermillRouter.Run(ctx); err != nil && ctx.Err() == nil {
			app.logger.Error("Watermill router stopped", attr.Error(err))
			cancel()
		}
	}()

	wg.Add(1)
	go app.RatingModule.Run(ctx, &wg)
	wg.Add(1)
	go app.TournamentModule.Run(ctx, &wg)

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.logger.Info("Starting HTTP query API", attr.String("addr", app.httpServer.Addr))
		if err := app.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			app.logger.Error("HTTP server stopped", attr.Error(err))
			cancel()
		}
	}()

	<-ctx.Done()
	app.logger.Info("Shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), app.Config.HTTP.ShutdownTimeout)
	defer shutdownCancel()
	if err := app.httpServer.Shutdown(shutdownCtx); err != nil {
		app.logger.Error("HTTP shutdown failed", attr.Error(err))
	}

	wg.Wait()
	return nil
}

// Close releases every component in reverse initialization order.
func (app *App) Close() {
	if app.cancelFunc != nil {
		app.cancelFunc()
	}
	if app.TournamentModule != nil {
		app.TournamentModule.Close()
	}
	if app.RatingModule != nil {
		app.RatingModule.Close()
	}
	if app.WatermillRouter != nil {
		if err := app.WatermillRouter.Close(); err != nil {
			app.logger.Error("Failed to close watermill router", attr.Error(err))
		}
	}
	if app.EventBus != nil {
		if err := app.EventBus.Close(); err != nil {
			app.logger.Error("Failed to close event bus", attr.Error(err))
		}
	}
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("Failed to close database", attr.Error(err))
		}
	}
}
