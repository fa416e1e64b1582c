package ratingservice

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	ratingdomain "github.com/Jasstafel-Club/jasstafel-bot/app/modules/rating/domain"
	ledgerdb "github.com/Jasstafel-Club/jasstafel-bot/app/modules/rating/infrastructure/repositories"
	"github.com/Jasstafel-Club/jasstafel-bot/app/shared/attr"
	apptypes "github.com/Jasstafel-Club/jasstafel-bot/app/types"
)

const playersPerTeam = 2

// playerState is the in-memory running state of one player during a replay.
// Seeded once from the ledger, advanced after every round.
type playerState struct {
	rating      apptypes.Rating
	cumulative  ratingdomain.Cumulative
	gamesPlayed int
	runDelta    float64
	touched     bool
}

// seedState resolves a player's pre-run state from the ledger. A missing or
// unqualifying history falls back to the configured starting rating; that is
// a degraded result and gets flagged, never treated as ground truth silently.
func (s *RatingService) seedState(ctx context.Context, db bun.IDB, playerID apptypes.PlayerID, before *time.Time) (*playerState, error) {
	entry, err := s.repo.LatestEntryBefore(ctx, db, playerID, before)
	if err != nil {
		if errors.Is(err, ledgerdb.ErrNotFound) {
			s.logger.WarnContext(ctx, "No ledger history for player, using default starting rating",
				attr.PlayerID("player_id", playerID),
				attr.Rating("default_rating", s.model.StartingRating),
			)
			s.metrics.RecordDegradedDefault(ctx)
			return &playerState{rating: s.model.StartingRating}, nil
		}
		return nil, err
	}

	return &playerState{
		rating:      entry.Rating,
		cumulative:  entry.Cumulative,
		gamesPlayed: entry.GamesPlayed,
	}, nil
}

// validTeams reports whether the round has exactly two players per side.
func validTeams(r apptypes.Round) bool {
	return len(r.TeamA.Players) == playersPerTeam && len(r.TeamB.Players) == playersPerTeam
}

// sideStats derives one side's per-round statistics contribution. Missing
// optional detail is simply zero; derivation never fails the rating update.
func (s *RatingService) sideStats(own, opp apptypes.TeamSide) (ratingdomain.RoundStats, ratingdomain.Cumulative) {
	ownTotal := own.Striche.Total(s.striche)
	oppTotal := opp.Striche.Total(s.striche)

	stats := ratingdomain.RoundStats{
		PointsDiff:      own.Points - opp.Points,
		StricheDiff:     ownTotal - oppTotal,
		Won:             ownTotal > oppTotal,
		MatchesMade:     own.Matches + own.Kontermatches,
		MatchesReceived: opp.Matches + opp.Kontermatches,
	}

	contribution := ratingdomain.Cumulative{
		StricheDiff: stats.StricheDiff,
		Points:      own.Points,
	}
	switch {
	case ownTotal > oppTotal:
		contribution.Wins = 1
	case ownTotal < oppTotal:
		contribution.Losses = 1
	}

	return stats, contribution
}

// applyRound runs one round through the rating model and produces the ledger
// entries for its four players. The states map is advanced in place.
func (s *RatingService) applyRound(
	round apptypes.Round,
	states map[apptypes.PlayerID]*playerState,
	eventType ratingdomain.EventType,
	ref ratingdomain.EventRef,
) []ratingdomain.LedgerEntry {
	teamARatings := make([]apptypes.Rating, 0, playersPerTeam)
	teamBRatings := make([]apptypes.Rating, 0, playersPerTeam)
	for _, p := range round.TeamA.Players {
		teamARatings = append(teamARatings, states[p].rating)
	}
	for _, p := range round.TeamB.Players {
		teamBRatings = append(teamBRatings, states[p].rating)
	}

	marginA := round.TeamA.Striche.Total(s.striche)
	marginB := round.TeamB.Striche.Total(s.striche)

	deltaA, deltaB := s.model.Delta(teamARatings, teamBRatings, marginA, marginB)

	statsA, contribA := s.sideStats(round.TeamA, round.TeamB)
	statsB, contribB := s.sideStats(round.TeamB, round.TeamA)

	now := time.Now().UTC()
	entries := make([]ratingdomain.LedgerEntry, 0, 2*playersPerTeam)

	appendFor := func(playerID apptypes.PlayerID, delta float64, stats ratingdomain.RoundStats, contribution ratingdomain.Cumulative) {
		state := states[playerID]
		state.rating += apptypes.Rating(delta)
		state.cumulative = state.cumulative.Add(contribution)
		state.gamesPlayed++
		state.runDelta += delta
		state.touched = true

		entries = append(entries, ratingdomain.LedgerEntry{
			ID:          uuid.New(),
			PlayerID:    playerID,
			EventType:   eventType,
			EventRef:    ref,
			EventKey:    ref.Key(),
			CompletedAt: round.CompletedAt,
			CreatedAt:   now,
			Rating:      state.rating,
			Delta:       delta,
			GamesPlayed: state.gamesPlayed,
			Cumulative:  state.cumulative,
			RoundStats:  &stats,
		})
	}

	for _, p := range round.TeamA.Players {
		appendFor(p, deltaA, statsA, contribA)
	}
	for _, p := range round.TeamB.Players {
		appendFor(p, deltaB, statsB, contribB)
	}

	return entries
}

// projectAndSnapshot materializes the current-rating projection for every
// touched player and hands a statistics snapshot to the stats writer. The
// snapshot write is best-effort; the projection is not.
func (s *RatingService) projectAndSnapshot(ctx context.Context, db bun.IDB, states map[apptypes.PlayerID]*playerState) error {
	now := time.Now().UTC()

	for playerID, state := range states {
		if !state.touched {
			continue
		}

		if err := s.repo.ProjectRating(ctx, db, playerID, state.rating, state.runDelta, state.gamesPlayed); err != nil {
			return err
		}

		if trimmed, err := s.repo.Trim(ctx, db, playerID, s.ledgerMaxEntries); err != nil {
			// Retention cleanup failing should not undo a finished run.
			s.logger.WarnContext(ctx, "Ledger trim failed",
				attr.PlayerID("player_id", playerID),
				attr.Error(err),
			)
		} else if trimmed > 0 {
			s.metrics.RecordLedgerTrim(ctx, trimmed)
		}

		if s.snapshots == nil {
			continue
		}
		snap := Snapshot{
			PlayerID:   playerID,
			At:         now,
			Rating:     state.rating,
			Delta:      state.runDelta,
			Cumulative: state.cumulative,
		}
		if err := s.snapshots.WriteSnapshot(ctx, db, snap); err != nil {
			s.logger.WarnContext(ctx, "Failed to write statistics snapshot",
				attr.PlayerID("player_id", playerID),
				attr.Error(err),
			)
		}
	}
	return nil
}
