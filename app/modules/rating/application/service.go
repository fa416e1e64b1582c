package ratingservice

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	ratingdomain "github.com/Jasstafel-Club/jasstafel-bot/app/modules/rating/domain"
	ledgerdb "github.com/Jasstafel-Club/jasstafel-bot/app/modules/rating/infrastructure/repositories"
	ratingmetrics "github.com/Jasstafel-Club/jasstafel-bot/app/modules/rating/metrics"
	"github.com/Jasstafel-Club/jasstafel-bot/app/shared/attr"
	"github.com/Jasstafel-Club/jasstafel-bot/app/shared/results"
	"github.com/Jasstafel-Club/jasstafel-bot/app/shared/retry"
	apptypes "github.com/Jasstafel-Club/jasstafel-bot/app/types"
)

// ErrRoundNotFound is returned by a RoundSource when the round row does not
// exist. A completion event can outrun the transaction that wrote the round,
// so the per-round processor treats it as not-yet-visible and retries.
var ErrRoundNotFound = errors.New("round not found")

// RoundSource supplies the immutable, already-persisted rounds the processors
// replay. Owned by the tournament module; injected as an adapter. A missing
// round is reported with ErrRoundNotFound.
type RoundSource interface {
	CompletedRoundsForSession(ctx context.Context, sessionID apptypes.SessionID) ([]apptypes.Round, error)
	CompletedRoundsForTournament(ctx context.Context, tournamentID apptypes.TournamentID) ([]apptypes.Round, error)
	RoundByID(ctx context.Context, roundID apptypes.RoundID) (apptypes.Round, error)
}

// Snapshot is the cumulative/delta statistics record handed to the snapshot
// writer after a processing run, for downstream charting.
type Snapshot struct {
	PlayerID   apptypes.PlayerID
	At         time.Time
	Rating     apptypes.Rating
	Delta      float64
	Cumulative ratingdomain.Cumulative
}

// SnapshotWriter persists statistics snapshots. The stats module implements
// it; a failed snapshot write never fails the rating run.
type SnapshotWriter interface {
	WriteSnapshot(ctx context.Context, db bun.IDB, snap Snapshot) error
}

// RatingService implements the rating module's service interface.
type RatingService struct {
	repo      ledgerdb.Repository
	rounds    RoundSource
	snapshots SnapshotWriter
	logger    *slog.Logger
	metrics   ratingmetrics.RatingMetrics
	tracer    trace.Tracer
	db        *bun.DB

	model            ModelConfig
	striche          apptypes.StricheConfig
	ledgerMaxEntries int
	await            retry.Config
}

// NewRatingService creates a new RatingService.
func NewRatingService(
	repo ledgerdb.Repository,
	rounds RoundSource,
	snapshots SnapshotWriter,
	logger *slog.Logger,
	metrics ratingmetrics.RatingMetrics,
	tracer trace.Tracer,
	db *bun.DB,
	model ModelConfig,
	striche apptypes.StricheConfig,
	ledgerMaxEntries int,
) *RatingService {
	return &RatingService{
		repo:             repo,
		rounds:           rounds,
		snapshots:        snapshots,
		logger:           logger,
		metrics:          metrics,
		tracer:           tracer,
		db:               db,
		model:            model,
		striche:          striche,
		ledgerMaxEntries: ledgerMaxEntries,
		await:            retry.DefaultConfig,
	}
}

// operationFunc is the generic signature for service operation functions.
type operationFunc[S any, F any] func(ctx context.Context) (results.OperationResult[S, F], error)

// withTelemetry wraps a service operation with tracing, metrics, and panic recovery.
func withTelemetry[S any, F any](
	s *RatingService,
	ctx context.Context,
	operationName string,
	op operationFunc[S, F],
) (result results.OperationResult[S, F], err error) {
	ctx, span := s.tracer.Start(ctx, operationName, trace.WithAttributes(
		attribute.String("operation", operationName),
	))
	defer span.End()

	s.metrics.RecordOperationAttempt(ctx, operationName)

	startTime := time.Now()
	defer func() {
		s.metrics.RecordOperationDuration(ctx, operationName, time.Since(startTime))
	}()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in %s: %v", operationName, r)
			s.logger.ErrorContext(ctx, "Critical panic recovered",
				attr.ExtractCorrelationID(ctx),
				attr.String("operation", operationName),
				attr.Error(err),
			)
			s.metrics.RecordOperationFailure(ctx, operationName)
			span.RecordError(err)
			result = results.OperationResult[S, F]{}
		}
	}()

	result, err = op(ctx)

	if err != nil {
		wrappedErr := fmt.Errorf("%s: %w", operationName, err)
		s.logger.ErrorContext(ctx, "Operation failed with error",
			attr.ExtractCorrelationID(ctx),
			attr.String("operation", operationName),
			attr.Error(wrappedErr),
		)
		s.metrics.RecordOperationFailure(ctx, operationName)
		span.RecordError(wrappedErr)
		return result, wrappedErr
	}

	if result.IsFailure() {
		s.logger.WarnContext(ctx, "Operation returned failure result",
			attr.ExtractCorrelationID(ctx),
			attr.String("operation", operationName),
			attr.Any("failure_payload", *result.Failure),
		)
		s.metrics.RecordOperationFailure(ctx, operationName)
	}

	if result.IsSuccess() {
		s.metrics.RecordOperationSuccess(ctx, operationName)
	}

	return result, nil
}

// runInTx ensures the operation runs within a transaction.
func runInTx[S any, F any](
	s *RatingService,
	ctx context.Context,
	fn func(ctx context.Context, db bun.IDB) (results.OperationResult[S, F], error),
) (results.OperationResult[S, F], error) {
	if s.db == nil {
		return fn(ctx, nil)
	}

	var result results.OperationResult[S, F]
	err := s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		var txErr error
		result, txErr = fn(ctx, tx)
		return txErr
	})

	return result, err
}
