// Package rating wires the rating module together: ledger repository, rating
// service, event handlers and router.
package rating

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/trace"

	"github.com/Jasstafel-Club/jasstafel-bot/app/eventbus"
	ratingservice "github.com/Jasstafel-Club/jasstafel-bot/app/modules/rating/application"
	ledgerdb "github.com/Jasstafel-Club/jasstafel-bot/app/modules/rating/infrastructure/repositories"
	ratingrouter "github.com/Jasstafel-Club/jasstafel-bot/app/modules/rating/infrastructure/router"
	ratingmetrics "github.com/Jasstafel-Club/jasstafel-bot/app/modules/rating/metrics"
	"github.com/Jasstafel-Club/jasstafel-bot/app/shared/utils"
	apptypes "github.com/Jasstafel-Club/jasstafel-bot/app/types"
	"github.com/Jasstafel-Club/jasstafel-bot/config"
)

// Module represents the rating module.
type Module struct {
	EventBus      eventbus.EventBus
	RatingService ratingservice.Service
	RatingRouter  *ratingrouter.RatingRouter
	logger        *slog.Logger
	config        *config.Config
	cancelFunc    context.CancelFunc
}

// NewRatingModule creates a new instance of the rating module.
func NewRatingModule(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
	tracer trace.Tracer,
	db *bun.DB,
	rounds ratingservice.RoundSource,
	snapshots ratingservice.SnapshotWriter,
	eventBus eventbus.EventBus,
	router *message.Router,
	helpers utils.Helpers,
	registry *prometheus.Registry,
) (*Module, error) {
	logger.InfoContext(ctx, "rating.NewRatingModule called")

	metrics := ratingmetrics.NewPrometheusMetrics(registry)

	repo := &ledgerdb.LedgerDBImpl{DB: db}
	service := ratingservice.NewRatingService(
		repo,
		rounds,
		snapshots,
		logger,
		metrics,
		tracer,
		db,
		ratingservice.ModelConfig{
			KFactor:          cfg.Rating.KFactor,
			StartingRating:   apptypes.Rating(cfg.Rating.StartingRating),
			Scale:            cfg.Rating.Scale,
			MaxPlausibleDiff: cfg.Rating.MaxPlausibleDiff,
		},
		cfg.Striche,
		cfg.Rating.LedgerMaxEntries,
	)

	moduleRouter := ratingrouter.NewRatingRouter(logger, router, eventBus, eventBus, cfg, helpers, tracer, registry)
	if err := moduleRouter.Configure(ctx, service, metrics); err != nil {
		return nil, fmt.Errorf("failed to configure rating router: %w", err)
	}

	return &Module{
		EventBus:      eventBus,
		RatingService: service,
		RatingRouter:  moduleRouter,
		logger:        logger,
		config:        cfg,
	}, nil
}

// Run keeps the module alive until the context is canceled.
func (m *Module) Run(ctx context.Context, wg *sync.WaitGroup) {
	m.logger.InfoContext(ctx, "Starting rating module")

	ctx, cancel := context.WithCancel(ctx)
	m.cancelFunc = cancel
	defer cancel()

	if wg != nil {
		defer wg.Done()
	}

	<-ctx.Done()
	m.logger.Info("Rating module goroutine stopped")
}

func (m *Module) Close() error {
	m.logger.Info("Stopping rating module")
	if m.cancelFunc != nil {
		m.cancelFunc()
	}
	return nil
}
