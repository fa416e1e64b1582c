package eventbus

import (
	"context"
	"fmt"
	"log/slog"

	ratingevents "github.com/Jasstafel-Club/jasstafel-bot/app/modules/rating/events"
	tournamentevents "github.com/Jasstafel-Club/jasstafel-bot/app/modules/tournament/events"
	"github.com/Jasstafel-Club/jasstafel-bot/app/shared/attr"
)

// InitializeStreams provisions the JetStream streams the modules publish to.
// Called once during application startup.
func InitializeStreams(ctx context.Context, bus EventBus, logger *slog.Logger) error {
	streams := map[string][]string{
		"rating": {
			ratingevents.SessionCompletedV1,
			ratingevents.TournamentRoundCompletedV1,
			ratingevents.SessionRatingsProcessedV1,
			ratingevents.SessionRatingsFailedV1,
			ratingevents.TournamentRoundRatingProcessedV1,
			ratingevents.TournamentRoundRatingFailedV1,
		},
		"tournament": {
			tournamentevents.FinalizeRequestedV1,
			tournamentevents.FinalizedV1,
			tournamentevents.FinalizeFailedV1,
		},
	}

	for name, subjects := range streams {
		if err := bus.EnsureStream(ctx, name, subjects); err != nil {
			logger.ErrorContext(ctx, "Failed to provision stream",
				attr.String("stream", name),
				attr.Error(err),
			)
			return fmt.Errorf("failed to provision stream %s: %w", name, err)
		}
	}
	return nil
}
