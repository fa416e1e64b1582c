package ratingservice

import (
	"context"
	"errors"
	"time"

	ratingdomain "github.com/Jasstafel-Club/jasstafel-bot/app/modules/rating/domain"
	ledgerdb "github.com/Jasstafel-Club/jasstafel-bot/app/modules/rating/infrastructure/repositories"
	"github.com/Jasstafel-Club/jasstafel-bot/app/shared/attr"
	apptypes "github.com/Jasstafel-Club/jasstafel-bot/app/types"
)

// RatingAsOf returns the player's rating from the most recent ledger entry
// strictly before at, or the latest entry when at is nil. When no entry
// qualifies the configured default starting rating is returned and flagged as
// degraded via the second return value (false = degraded fallback).
func (s *RatingService) RatingAsOf(ctx context.Context, playerID apptypes.PlayerID, at *time.Time) (apptypes.Rating, bool, error) {
	entry, err := s.repo.LatestEntryBefore(ctx, nil, playerID, at)
	if err != nil {
		if errors.Is(err, ledgerdb.ErrNotFound) {
			s.logger.WarnContext(ctx, "Rating as-of query answered with default starting rating",
				attr.PlayerID("player_id", playerID),
				attr.Rating("default_rating", s.model.StartingRating),
			)
			s.metrics.RecordDegradedDefault(ctx)
			return s.model.StartingRating, false, nil
		}
		return 0, false, err
	}
	return entry.Rating, true, nil
}

// CurrentRating reads the materialized projection, falling back to the ledger
// and then to the default rating for players without one.
func (s *RatingService) CurrentRating(ctx context.Context, playerID apptypes.PlayerID) (apptypes.Rating, error) {
	rating, err := s.repo.CurrentRating(ctx, nil, playerID)
	if err == nil {
		return rating, nil
	}
	if !errors.Is(err, ledgerdb.ErrNotFound) {
		return 0, err
	}

	asOf, _, err := s.RatingAsOf(ctx, playerID, nil)
	return asOf, err
}

// History returns the player's full ledger in chronological order.
func (s *RatingService) History(ctx context.Context, playerID apptypes.PlayerID) ([]ratingdomain.LedgerEntry, error) {
	return s.repo.EntriesForPlayer(ctx, nil, playerID)
}

// EntryForTournamentPass exposes the pass-level ledger join used when the
// aggregator builds round result trails. Returns nil when rating processing
// has not covered the pass yet; nil means unknown, never zero.
func (s *RatingService) EntryForTournamentPass(ctx context.Context, playerID apptypes.PlayerID, tournamentID apptypes.TournamentID, pass int) (*ratingdomain.LedgerEntry, error) {
	entry, err := s.repo.EntryForTournamentPass(ctx, nil, playerID, tournamentID, pass)
	if err != nil {
		if errors.Is(err, ledgerdb.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return entry, nil
}
