package ratingservice

import (
	"context"
	"errors"
	"time"

	"github.com/uptrace/bun"

	ratingdomain "github.com/Jasstafel-Club/jasstafel-bot/app/modules/rating/domain"
	ratingevents "github.com/Jasstafel-Club/jasstafel-bot/app/modules/rating/events"
	"github.com/Jasstafel-Club/jasstafel-bot/app/shared/attr"
	"github.com/Jasstafel-Club/jasstafel-bot/app/shared/results"
	"github.com/Jasstafel-Club/jasstafel-bot/app/shared/retry"
	apptypes "github.com/Jasstafel-Club/jasstafel-bot/app/types"
)

// TournamentRoundResult is the outcome envelope of a pass rating run.
type TournamentRoundResult = results.OperationResult[ratingevents.TournamentRoundRatingProcessedPayloadV1, ratingevents.TournamentRoundRatingFailedPayloadV1]

// TournamentResult is the outcome envelope of a whole-tournament replay.
type TournamentResult = results.OperationResult[ratingevents.TournamentRatingsProcessedPayloadV1, ratingevents.TournamentRatingsFailedPayloadV1]

// ProcessTournamentRoundRating rates one completed tournament pass. Intended
// to run as each pass completes; a pass that already has ledger entries for
// all of its players is an idempotent no-op reported as success.
//
// Events are expected in completion order. A late-delivered earlier pass
// still appends its ledger entry keyed by pass number, but the projection
// guard in ProjectRating keeps it from rolling the current rating back;
// the cumulative counters of already-written entries are immutable and
// keep reflecting processing order.
func (s *RatingService) ProcessTournamentRoundRating(ctx context.Context, tournamentID apptypes.TournamentID, roundID apptypes.RoundID) (TournamentRoundResult, error) {
	s.logger.InfoContext(ctx, "Starting tournament round rating processing",
		attr.ExtractCorrelationID(ctx),
		attr.TournamentID("tournament_id", tournamentID),
		attr.RoundID("round_id", roundID),
	)

	return withTelemetry(s, ctx, "ProcessTournamentRoundRating", func(ctx context.Context) (TournamentRoundResult, error) {
		round, err := s.awaitRound(ctx, roundID)
		if err != nil {
			return failRound(tournamentID, roundID, "failed to load round"), err
		}
		if round.TournamentID == nil || *round.TournamentID != tournamentID {
			return failRound(tournamentID, roundID, "round does not belong to tournament"), nil
		}
		if !validTeams(round) {
			s.logger.WarnContext(ctx, "Tournament round has malformed teams, skipping rating",
				attr.RoundID("round_id", roundID),
			)
			s.metrics.RecordRoundSkipped(ctx, "malformed_teams")
			return failRound(tournamentID, roundID, "round teams malformed"), nil
		}

		ref := tournamentRef(tournamentID, round)

		return runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (TournamentRoundResult, error) {
			processed, err := s.alreadyProcessed(ctx, db, round.Players(), ref.Key())
			if err != nil {
				return failRound(tournamentID, roundID, "failed to probe ledger"), err
			}
			if processed {
				s.logger.InfoContext(ctx, "Tournament round already rated, nothing to do",
					attr.RoundID("round_id", roundID),
					attr.Int("pass_number", round.PassNumber),
				)
				return results.SuccessResult[ratingevents.TournamentRoundRatingProcessedPayloadV1, ratingevents.TournamentRoundRatingFailedPayloadV1](ratingevents.TournamentRoundRatingProcessedPayloadV1{
					TournamentID:     tournamentID,
					RoundID:          roundID,
					PassNumber:       round.PassNumber,
					AlreadyProcessed: true,
				}), nil
			}

			states := make(map[apptypes.PlayerID]*playerState)
			if err := s.ensureSeeded(ctx, db, round.Players(), states, roundStartTime(round)); err != nil {
				return failRound(tournamentID, roundID, "failed to seed player ratings"), err
			}

			entries := s.applyRound(round, states, ratingdomain.EventTypeTournamentRound, ref)
			if _, err := s.appendEntries(ctx, db, entries); err != nil {
				return failRound(tournamentID, roundID, "failed to append ledger entries"), err
			}

			if err := s.projectAndSnapshot(ctx, db, states); err != nil {
				return failRound(tournamentID, roundID, "failed to project ratings"), err
			}

			payload := ratingevents.TournamentRoundRatingProcessedPayloadV1{
				TournamentID: tournamentID,
				RoundID:      roundID,
				PassNumber:   round.PassNumber,
				Changes:      collectChanges(states),
			}
			return results.SuccessResult[ratingevents.TournamentRoundRatingProcessedPayloadV1, ratingevents.TournamentRoundRatingFailedPayloadV1](payload), nil
		})
	})
}

// ProcessTournamentRatings replays every completed round of a tournament from
// scratch. Each player's starting rating is read from the ledger as of the
// instant before the first round, never from a cached current value, so a
// full recomputation is idempotent and safe to re-run. Passes already rated
// by the per-round trigger collide on their event keys and are skipped.
func (s *RatingService) ProcessTournamentRatings(ctx context.Context, tournamentID apptypes.TournamentID) (TournamentResult, error) {
	s.logger.InfoContext(ctx, "Starting whole-tournament rating processing",
		attr.ExtractCorrelationID(ctx),
		attr.TournamentID("tournament_id", tournamentID),
	)

	return withTelemetry(s, ctx, "ProcessTournamentRatings", func(ctx context.Context) (TournamentResult, error) {
		rounds, err := s.rounds.CompletedRoundsForTournament(ctx, tournamentID)
		if err != nil {
			return failTournamentRun(tournamentID, "failed to load tournament rounds"), err
		}

		if len(rounds) == 0 {
			s.logger.InfoContext(ctx, "Tournament has no completed rounds, nothing to rate",
				attr.TournamentID("tournament_id", tournamentID),
			)
			return results.SuccessResult[ratingevents.TournamentRatingsProcessedPayloadV1, ratingevents.TournamentRatingsFailedPayloadV1](ratingevents.TournamentRatingsProcessedPayloadV1{
				TournamentID: tournamentID,
			}), nil
		}

		apptypes.SortRoundsChronologically(rounds)
		tournamentStart := runStartTime(rounds)

		return runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (TournamentResult, error) {
			states := make(map[apptypes.PlayerID]*playerState)
			applied, skipped := 0, 0

			for _, round := range rounds {
				if !validTeams(round) {
					s.logger.WarnContext(ctx, "Skipping tournament round with malformed teams",
						attr.RoundID("round_id", round.ID),
					)
					s.metrics.RecordRoundSkipped(ctx, "malformed_teams")
					skipped++
					continue
				}

				if err := s.ensureSeeded(ctx, db, round.Players(), states, tournamentStart); err != nil {
					return failTournamentRun(tournamentID, "failed to seed player ratings"), err
				}

				entries := s.applyRound(round, states, ratingdomain.EventTypeTournamentRound, tournamentRef(tournamentID, round))
				appended, err := s.appendEntries(ctx, db, entries)
				if err != nil {
					return failTournamentRun(tournamentID, "failed to append ledger entries"), err
				}
				if appended == 0 {
					skipped++
					continue
				}
				applied++
			}

			if err := s.projectAndSnapshot(ctx, db, states); err != nil {
				return failTournamentRun(tournamentID, "failed to project ratings"), err
			}

			payload := ratingevents.TournamentRatingsProcessedPayloadV1{
				TournamentID:  tournamentID,
				RoundsApplied: applied,
				RoundsSkipped: skipped,
				Changes:       collectChanges(states),
			}
			return results.SuccessResult[ratingevents.TournamentRatingsProcessedPayloadV1, ratingevents.TournamentRatingsFailedPayloadV1](payload), nil
		})
	})
}

// awaitRound loads the round, retrying with backoff while the row is not
// visible yet. The completion event and the round insert race under separate
// connections, so a short wait is normal right after a pass finishes.
func (s *RatingService) awaitRound(ctx context.Context, roundID apptypes.RoundID) (apptypes.Round, error) {
	var round apptypes.Round
	err := retry.AwaitVisible(ctx, s.await, func(ctx context.Context) error {
		var loadErr error
		round, loadErr = s.rounds.RoundByID(ctx, roundID)
		if errors.Is(loadErr, ErrRoundNotFound) {
			return retry.ErrNotYetVisible
		}
		return loadErr
	})
	if err != nil {
		return apptypes.Round{}, err
	}
	return round, nil
}

func tournamentRef(tournamentID apptypes.TournamentID, round apptypes.Round) ratingdomain.EventRef {
	roundID := round.ID
	return ratingdomain.EventRef{
		TournamentID: &tournamentID,
		RoundID:      &roundID,
		PassNumber:   round.PassNumber,
	}
}

// alreadyProcessed reports whether every player of the round already has a
// ledger entry for the event key.
func (s *RatingService) alreadyProcessed(ctx context.Context, db bun.IDB, players []apptypes.PlayerID, eventKey string) (bool, error) {
	for _, p := range players {
		has, err := s.repo.HasEntryForEvent(ctx, db, p, eventKey)
		if err != nil {
			return false, err
		}
		if !has {
			return false, nil
		}
	}
	return len(players) > 0, nil
}

func roundStartTime(round apptypes.Round) *time.Time {
	key := apptypes.EffectiveOrderingKey(round)
	if !key.HasTime {
		return nil
	}
	t := key.At
	return &t
}

func failRound(tournamentID apptypes.TournamentID, roundID apptypes.RoundID, reason string) TournamentRoundResult {
	return results.FailureResult[ratingevents.TournamentRoundRatingProcessedPayloadV1](ratingevents.TournamentRoundRatingFailedPayloadV1{
		TournamentID: tournamentID,
		RoundID:      roundID,
		Reason:       reason,
	})
}

func failTournamentRun(tournamentID apptypes.TournamentID, reason string) TournamentResult {
	return results.FailureResult[ratingevents.TournamentRatingsProcessedPayloadV1](ratingevents.TournamentRatingsFailedPayloadV1{
		TournamentID: tournamentID,
		Reason:       reason,
	})
}
