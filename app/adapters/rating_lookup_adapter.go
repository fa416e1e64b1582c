package adapters

import (
	"context"

	ratingservice "github.com/Jasstafel-Club/jasstafel-bot/app/modules/rating/application"
	apptypes "github.com/Jasstafel-Club/jasstafel-bot/app/types"
)

// RatingLookupAdapter joins the ranking trail to the rating ledger. A pass
// with no ledger entry yields nil, which the tournament module keeps distinct
// from a zero rating.
type RatingLookupAdapter struct {
	Ratings ratingservice.Service
}

func (a *RatingLookupAdapter) RatingAfterPass(ctx context.Context, playerID apptypes.PlayerID, tournamentID apptypes.TournamentID, pass int) (*apptypes.Rating, error) {
	entry, err := a.Ratings.EntryForTournamentPass(ctx, playerID, tournamentID, pass)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, nil
	}
	rating := entry.Rating
	return &rating, nil
}
