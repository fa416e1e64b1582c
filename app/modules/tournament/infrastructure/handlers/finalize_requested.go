package tournamenthandlers

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"

	tournamentevents "github.com/Jasstafel-Club/jasstafel-bot/app/modules/tournament/events"
	"github.com/Jasstafel-Club/jasstafel-bot/app/shared/attr"
)

// HandleFinalizeRequested handles the FinalizeRequested event.
func (h *TournamentHandlers) HandleFinalizeRequested(msg *message.Message) ([]*message.Message, error) {
	wrappedHandler := h.handlerWrapper("HandleFinalizeRequested", &tournamentevents.FinalizeRequestedPayloadV1{},
		func(ctx context.Context, msg *message.Message, payload interface{}) ([]*message.Message, error) {
			finalizeRequestedPayload := payload.(*tournamentevents.FinalizeRequestedPayloadV1)

			h.logger.InfoContext(ctx, "Received FinalizeRequested event",
				attr.CorrelationIDFromMsg(msg),
				attr.TournamentID("tournament_id", finalizeRequestedPayload.TournamentID),
			)

			result, err := h.tournamentService.FinalizeTournament(ctx, finalizeRequestedPayload.TournamentID)
			if err != nil {
				h.logger.ErrorContext(ctx, "Failed to finalize tournament",
					attr.CorrelationIDFromMsg(msg),
					attr.Error(err),
				)
				return nil, fmt.Errorf("failed to finalize tournament: %w", err)
			}

			if result.Failure != nil {
				failureMsg, errMsg := h.helpers.CreateResultMessage(
					msg,
					result.Failure,
					tournamentevents.FinalizeFailedV1,
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
					tournamentevents.FinalizedV1,
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
