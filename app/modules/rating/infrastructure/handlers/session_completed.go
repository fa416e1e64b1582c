package ratinghandlers

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"

	ratingevents "github.com/Jasstafel-Club/jasstafel-bot/app/modules/rating/events"
	"github.com/Jasstafel-Club/jasstafel-bot/app/shared/attr"
)

// HandleSessionCompleted handles the SessionCompleted event.
func (h *RatingHandlers) HandleSessionCompleted(msg *message.Message) ([]*message.Message, error) {
	wrappedHandler := h.handlerWrapper("HandleSessionCompleted", &ratingevents.SessionCompletedPayloadV1{},
		func(ctx context.Context, msg *message.Message, payload interface{}) ([]*message.Message, error) {
			sessionCompletedPayload := payload.(*ratingevents.SessionCompletedPayloadV1)

			h.logger.InfoContext(ctx, "Received SessionCompleted event",
				attr.CorrelationIDFromMsg(msg),
				attr.GroupID("group_id", sessionCompletedPayload.GroupID),
				attr.SessionID("session_id", sessionCompletedPayload.SessionID),
			)

			result, err := h.ratingService.ProcessSessionRatings(ctx, sessionCompletedPayload.GroupID, sessionCompletedPayload.SessionID)
			if err != nil {
				h.logger.ErrorContext(ctx, "Failed to process session ratings",
					attr.CorrelationIDFromMsg(msg),
					attr.Error(err),
				)
				return nil, fmt.Errorf("failed to process session ratings: %w", err)
			}

			if result.Failure != nil {
				failureMsg, errMsg := h.helpers.CreateResultMessage(
					msg,
					result.Failure,
					ratingevents.SessionRatingsFailedV1,
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
					ratingevents.SessionRatingsProcessedV1,
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
