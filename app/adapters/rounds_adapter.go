// Package adapters bridges the module boundaries without import cycles: each
// adapter implements one module's narrow dependency interface on top of
// another module's service or repository.
package adapters

import (
	"context"
	"errors"

	ratingservice "github.com/Jasstafel-Club/jasstafel-bot/app/modules/rating/application"
	tournamentdb "github.com/Jasstafel-Club/jasstafel-bot/app/modules/tournament/infrastructure/repositories"
	apptypes "github.com/Jasstafel-Club/jasstafel-bot/app/types"
)

// RoundSourceAdapter exposes the tournament module's round store as the
// rating module's round source.
type RoundSourceAdapter struct {
	Repo tournamentdb.Repository
}

func (a *RoundSourceAdapter) CompletedRoundsForSession(ctx context.Context, sessionID apptypes.SessionID) ([]apptypes.Round, error) {
	return a.Repo.CompletedRoundsForSession(ctx, nil, sessionID)
}

func (a *RoundSourceAdapter) CompletedRoundsForTournament(ctx context.Context, tournamentID apptypes.TournamentID) ([]apptypes.Round, error) {
	return a.Repo.CompletedRoundsForTournament(ctx, nil, tournamentID)
}

// RoundByID translates the store's not-found sentinel so the rating module
// can retry a round whose insert has not become visible yet.
func (a *RoundSourceAdapter) RoundByID(ctx context.Context, roundID apptypes.RoundID) (apptypes.Round, error) {
	round, err := a.Repo.RoundByID(ctx, nil, roundID)
	if errors.Is(err, tournamentdb.ErrNotFound) {
		return apptypes.Round{}, ratingservice.ErrRoundNotFound
	}
	return round, err
}
