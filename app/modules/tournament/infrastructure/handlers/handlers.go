// Package tournamenthandlers wires tournament events to the tournament service.
package tournamenthandlers

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"go.opentelemetry.io/otel/trace"

	tournamentservice "github.com/Jasstafel-Club/jasstafel-bot/app/modules/tournament/application"
	tournamentmetrics "github.com/Jasstafel-Club/jasstafel-bot/app/modules/tournament/metrics"
	"github.com/Jasstafel-Club/jasstafel-bot/app/shared/attr"
	"github.com/Jasstafel-Club/jasstafel-bot/app/shared/utils"
)

// Handlers defines the interface for tournament event handlers.
type Handlers interface {
	// HandleFinalizeRequested runs the ranking aggregation for a tournament.
	HandleFinalizeRequested(msg *message.Message) ([]*message.Message, error)
}

// TournamentHandlers handles tournament-related events.
type TournamentHandlers struct {
	tournamentService tournamentservice.Service
	logger            *slog.Logger
	tracer            trace.Tracer
	metrics           tournamentmetrics.TournamentMetrics
	helpers           utils.Helpers
	handlerWrapper    func(handlerName string, unmarshalTo interface{}, handlerFunc func(ctx context.Context, msg *message.Message, payload interface{}) ([]*message.Message, error)) message.HandlerFunc
}

// NewTournamentHandlers creates a new TournamentHandlers.
func NewTournamentHandlers(
	tournamentService tournamentservice.Service,
	logger *slog.Logger,
	tracer trace.Tracer,
	helpers utils.Helpers,
	metrics tournamentmetrics.TournamentMetrics,
) Handlers {
	return &TournamentHandlers{
		tournamentService: tournamentService,
		logger:            logger,
		tracer:            tracer,
		helpers:           helpers,
		metrics:           metrics,
		handlerWrapper: func(handlerName string, unmarshalTo interface{}, handlerFunc func(ctx context.Context, msg *message.Message, payload interface{}) ([]*message.Message, error)) message.HandlerFunc {
			return handlerWrapper(handlerName, unmarshalTo, handlerFunc, logger, metrics, tracer, helpers)
		},
	}
}

// handlerWrapper handles common tracing, logging, and metrics for handlers.
func handlerWrapper(
	handlerName string,
	unmarshalTo interface{},
	handlerFunc func(ctx context.Context, msg *message.Message, payload interface{}) ([]*message.Message, error),
	logger *slog.Logger,
	metrics tournamentmetrics.TournamentMetrics,
	tracer trace.Tracer,
	helpers utils.Helpers,
) message.HandlerFunc {
	return func(msg *message.Message) ([]*message.Message, error) {
		ctx, span := tracer.Start(msg.Context(), handlerName)
		defer span.End()

		metrics.RecordOperationAttempt(ctx, handlerName)

		startTime := time.Now()
		defer func() {
			metrics.RecordOperationDuration(ctx, handlerName, time.Since(startTime))
		}()

		logger.InfoContext(ctx, handlerName+" triggered",
			attr.CorrelationIDFromMsg(msg),
			attr.String("message_id", msg.UUID),
		)

		if unmarshalTo != nil {
			if err := helpers.UnmarshalPayload(msg, unmarshalTo); err != nil {
				logger.ErrorContext(ctx, "Failed to unmarshal payload",
					attr.CorrelationIDFromMsg(msg),
					attr.Error(err),
				)
				metrics.RecordOperationFailure(ctx, handlerName)
				return nil, fmt.Errorf("failed to unmarshal payload: %w", err)
			}
		}

		result, err := handlerFunc(ctx, msg, unmarshalTo)
		if err != nil {
			logger.ErrorContext(ctx, "Error in "+handlerName,
				attr.CorrelationIDFromMsg(msg),
				attr.Error(err),
			)
			metrics.RecordOperationFailure(ctx, handlerName)
			return nil, err
		}

		logger.InfoContext(ctx, handlerName+" completed successfully", attr.CorrelationIDFromMsg(msg))
		metrics.RecordOperationSuccess(ctx, handlerName)
		return result, nil
	}
}
