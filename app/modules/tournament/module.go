// Package tournament wires the tournament module together: repository,
// service, event handlers and router.
package tournament

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
	tournamentservice "github.com/Jasstafel-Club/jasstafel-bot/app/modules/tournament/application"
	tournamentdb "github.com/Jasstafel-Club/jasstafel-bot/app/modules/tournament/infrastructure/repositories"
	tournamentrouter "github.com/Jasstafel-Club/jasstafel-bot/app/modules/tournament/infrastructure/router"
	tournamentmetrics "github.com/Jasstafel-Club/jasstafel-bot/app/modules/tournament/metrics"
	"github.com/Jasstafel-Club/jasstafel-bot/app/shared/utils"
	"github.com/Jasstafel-Club/jasstafel-bot/config"
)

// Module represents the tournament module.
type Module struct {
	EventBus          eventbus.EventBus
	TournamentService tournamentservice.Service
	TournamentDB      tournamentdb.Repository
	TournamentRouter  *tournamentrouter.TournamentRouter
	logger            *slog.Logger
	config            *config.Config
	cancelFunc        context.CancelFunc
}

// NewTournamentModule creates a new instance of the tournament module.
func NewTournamentModule(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
	tracer trace.Tracer,
	db *bun.DB,
	ratings tournamentservice.RatingLookup,
	eventBus eventbus.EventBus,
	router *message.Router,
	helpers utils.Helpers,
	registry *prometheus.Registry,
) (*Module, error) {
	logger.InfoContext(ctx, "tournament.NewTournamentModule called")

	metrics := tournamentmetrics.NewPrometheusMetrics(registry)

	repo := &tournamentdb.TournamentDBImpl{DB: db}
	service := tournamentservice.NewTournamentService(
		repo,
		ratings,
		logger,
		metrics,
		tracer,
		db,
		cfg.Striche,
	)

	moduleRouter := tournamentrouter.NewTournamentRouter(logger, router, eventBus, eventBus, cfg, helpers, tracer, registry)
	if err := moduleRouter.Configure(ctx, service, metrics); err != nil {
		return nil, fmt.Errorf("failed to configure tournament router: %w", err)
	}

	return &Module{
		EventBus:          eventBus,
		TournamentService: service,
		TournamentDB:      repo,
		TournamentRouter:  moduleRouter,
		logger:            logger,
		config:            cfg,
	}, nil
}

// Run keeps the module alive until the context is canceled.
func (m *Module) Run(ctx context.Context, wg *sync.WaitGroup) {
	m.logger.InfoContext(ctx, "Starting tournament module")

	ctx, cancel := context.WithCancel(ctx)
	m.cancelFunc = cancel
	defer cancel()

	if wg != nil {
		defer wg.Done()
	}

	<-ctx.Done()
	m.logger.Info("Tournament module goroutine stopped")
}

func (m *Module) Close() error {
	m.logger.Info("Stopping tournament module")
	if m.cancelFunc != nil {
		m.cancelFunc()
	}
	return nil
}
