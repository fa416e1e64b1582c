package ratingservice

import (
	"context"
	"time"

	ratingdomain "github.com/Jasstafel-Club/jasstafel-bot/app/modules/rating/domain"
	apptypes "github.com/Jasstafel-Club/jasstafel-bot/app/types"
)

// Service is the rating module's service interface.
type Service interface {
	// ProcessSessionRatings replays a completed session through the rating model.
	ProcessSessionRatings(ctx context.Context, groupID apptypes.GroupID, sessionID apptypes.SessionID) (SessionResult, error)

	// ProcessTournamentRoundRating rates a single completed tournament pass.
	ProcessTournamentRoundRating(ctx context.Context, tournamentID apptypes.TournamentID, roundID apptypes.RoundID) (TournamentRoundResult, error)

	// ProcessTournamentRatings replays a whole tournament from its pre-run seed.
	ProcessTournamentRatings(ctx context.Context, tournamentID apptypes.TournamentID) (TournamentResult, error)

	// RatingAsOf answers point-in-time rating queries from the ledger.
	RatingAsOf(ctx context.Context, playerID apptypes.PlayerID, at *time.Time) (apptypes.Rating, bool, error)

	// CurrentRating reads the materialized current rating.
	CurrentRating(ctx context.Context, playerID apptypes.PlayerID) (apptypes.Rating, error)

	// History returns the player's ledger in chronological order.
	History(ctx context.Context, playerID apptypes.PlayerID) ([]ratingdomain.LedgerEntry, error)

	// EntryForTournamentPass joins a tournament pass to its ledger entry, nil
	// when rating processing has not covered the pass.
	EntryForTournamentPass(ctx context.Context, playerID apptypes.PlayerID, tournamentID apptypes.TournamentID, pass int) (*ratingdomain.LedgerEntry, error)
}

var _ Service = (*RatingService)(nil)
