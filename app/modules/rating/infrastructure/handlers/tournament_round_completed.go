package ratinghandlers

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"

	ratingevents "github.com/Jasstafel-Club/jasstafel-bot/app/modules/rating/events"
	"github.com/Jasstafel-Club/jasstafel-bot/app/shared/attr"
)

// HandleTournamentRoundCompleted handles the TournamentRoundCompleted event.
func (h *RatingHandlers) HandleTournamentRoundCompleted(msg *message.Message) ([]*message.Message, error) {
	wrappedHandler := h.handlerWrapper("HandleTournamentRoundCompleted", &ratingevents.TournamentRoundCompletedPayloadV1{},
		func(ctx context.Context, msg *message.Message, payload interface{}) ([]*message.Message, error) {
			roundCompletedPayload := payload.(*ratingevents.TournamentRoundCompletedPayloadV1)

			h.logger.InfoContext(ctx, "Received TournamentRoundCompleted event",
				attr.CorrelationIDFromMsg(msg),
				attr.TournamentID("tournament_id", roundCompletedPayload.TournamentID),
				attr.RoundID("round_id", roundCompletedPayload.RoundID),
			)

			result, err := h.ratingService.ProcessTournamentRoundRating(ctx, roundCompletedPayload.TournamentID, roundCompletedPayload.RoundID)
			if err != nil {
				h.logger.ErrorContext(ctx, "Failed to process tournament round rating",
					attr.CorrelationIDFromMsg(msg),
					attr.Error(err),
				)
				return nil, fmt.Errorf("failed to process tournament round rating: %w", err)
			}

			if result.Failure != nil {
				failureMsg, errMsg := h.helpers.CreateResultMessage(
					msg,
					result.Failure,
					ratingevents.TournamentRoundRatingFailedV1,
				)
				if errMsg != nil {
					return nil, fmt.Errorf("failed to create failure message: %w", errMsg)
				}
				return []*message.Message{failureMsg}, nil
			}

			if result.Success != nil {
				successMsg, err := h.helpers.CreateResultMessage(
					msg,
					result.Success,
					ratingevents.TournamentRoundRatingProcessedV1,
				)
				if err != nil {
					return nil, fmt.Errorf("failed to create success message: %w", err)
				}
				return []*message.Message{successMsg}, nil
			}

			return nil, fmt.Errorf("unexpected result from service")
		},
	)

	return wrappedHandler(msg)
}
