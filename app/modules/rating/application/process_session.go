package ratingservice

import (
	"context"
	"errors"
	"time"

	"github.com/uptrace/bun"

	ratingdomain "github.com/Jasstafel-Club/jasstafel-bot/app/modules/rating/domain"
	ratingevents "github.com/Jasstafel-Club/jasstafel-bot/app/modules/rating/events"
	ledgerdb "github.com/Jasstafel-Club/jasstafel-bot/app/modules/rating/infrastructure/repositories"
	"github.com/Jasstafel-Club/jasstafel-bot/app/shared/attr"
	"github.com/Jasstafel-Club/jasstafel-bot/app/shared/results"
	apptypes "github.com/Jasstafel-Club/jasstafel-bot/app/types"
)

// SessionResult is the outcome envelope of a session rating run.
type SessionResult = results.OperationResult[ratingevents.SessionRatingsProcessedPayloadV1, ratingevents.SessionRatingsFailedPayloadV1]

// ProcessSessionRatings replays the ordered rounds of one completed session
// through the rating model and appends one ledger entry per player per round.
// Team composition is read per round; a malformed round is skipped with a
// warning and never aborts the whole session.
func (s *RatingService) ProcessSessionRatings(ctx context.Context, groupID apptypes.GroupID, sessionID apptypes.SessionID) (SessionResult, error) {
	s.logger.InfoContext(ctx, "Starting session rating processing",
		attr.ExtractCorrelationID(ctx),
		attr.GroupID("group_id", groupID),
		attr.SessionID("session_id", sessionID),
	)

	return withTelemetry(s, ctx, "ProcessSessionRatings", func(ctx context.Context) (SessionResult, error) {
		rounds, err := s.rounds.CompletedRoundsForSession(ctx, sessionID)
		if err != nil {
			return results.FailureResult[ratingevents.SessionRatingsProcessedPayloadV1](ratingevents.SessionRatingsFailedPayloadV1{
				GroupID:   groupID,
				SessionID: sessionID,
				Reason:    "failed to load session rounds",
			}), err
		}

		if len(rounds) == 0 {
			s.logger.InfoContext(ctx, "Session has no completed rounds, nothing to rate",
				attr.SessionID("session_id", sessionID),
			)
			return results.SuccessResult[ratingevents.SessionRatingsProcessedPayloadV1, ratingevents.SessionRatingsFailedPayloadV1](ratingevents.SessionRatingsProcessedPayloadV1{
				GroupID:   groupID,
				SessionID: sessionID,
			}), nil
		}

		apptypes.SortRoundsChronologically(rounds)
		sessionStart := runStartTime(rounds)

		return runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (SessionResult, error) {
			states := make(map[apptypes.PlayerID]*playerState)
			applied, skipped := 0, 0

			for _, round := range rounds {
				if !validTeams(round) {
					s.logger.WarnContext(ctx, "Skipping round with malformed teams",
						attr.RoundID("round_id", round.ID),
						attr.Int("team_a_size", len(round.TeamA.Players)),
						attr.Int("team_b_size", len(round.TeamB.Players)),
					)
					s.metrics.RecordRoundSkipped(ctx, "malformed_teams")
					skipped++
					continue
				}

				// Ratings are fetched from the ledger once, at session start;
				// afterwards they evolve through the in-memory map only.
				if err := s.ensureSeeded(ctx, db, round.Players(), states, sessionStart); err != nil {
					return failSession(groupID, sessionID, "failed to seed player ratings"), err
				}

				ref := ratingdomain.EventRef{SessionID: &sessionID}
				roundID := round.ID
				ref.RoundID = &roundID

				entries := s.applyRound(round, states, ratingdomain.EventTypeGame, ref)
				appended, err := s.appendEntries(ctx, db, entries)
				if err != nil {
					return failSession(groupID, sessionID, "failed to append ledger entries"), err
				}
				if appended == 0 {
					// A re-run replays deterministically from the same seed, so
					// colliding entries are byte-equivalent and safe to skip.
					s.logger.WarnContext(ctx, "Round already rated, skipping duplicate",
						attr.RoundID("round_id", round.ID),
					)
					s.metrics.RecordRoundSkipped(ctx, "already_rated")
					skipped++
					continue
				}
				applied++
			}

			if err := s.projectAndSnapshot(ctx, db, states); err != nil {
				return failSession(groupID, sessionID, "failed to project ratings"), err
			}

			payload := ratingevents.SessionRatingsProcessedPayloadV1{
				GroupID:       groupID,
				SessionID:     sessionID,
				RoundsApplied: applied,
				RoundsSkipped: skipped,
				Changes:       collectChanges(states),
			}
			return results.SuccessResult[ratingevents.SessionRatingsProcessedPayloadV1, ratingevents.SessionRatingsFailedPayloadV1](payload), nil
		})
	})
}

// ensureSeeded seeds ledger state for any players not yet in the running map.
func (s *RatingService) ensureSeeded(ctx context.Context, db bun.IDB, players []apptypes.PlayerID, states map[apptypes.PlayerID]*playerState, before *time.Time) error {
	for _, p := range players {
		if _, ok := states[p]; ok {
			continue
		}
		state, err := s.seedState(ctx, db, p, before)
		if err != nil {
			return err
		}
		states[p] = state
	}
	return nil
}

// appendEntries writes a batch of ledger entries. Entries colliding with an
// existing (player, event) pair are skipped individually; any other error
// aborts. Returns the number of entries actually written.
func (s *RatingService) appendEntries(ctx context.Context, db bun.IDB, entries []ratingdomain.LedgerEntry) (int, error) {
	appended := 0
	for _, entry := range entries {
		if err := s.repo.AppendEntry(ctx, db, entry); err != nil {
			if errors.Is(err, ledgerdb.ErrDuplicateEntry) {
				continue
			}
			return appended, err
		}
		s.metrics.RecordLedgerAppend(ctx)
		appended++
	}
	return appended, nil
}

// runStartTime is the instant immediately before the first round, used to
// seed pre-run ratings so re-running a processing pass stays idempotent.
func runStartTime(rounds []apptypes.Round) *time.Time {
	key := apptypes.EffectiveOrderingKey(rounds[0])
	if !key.HasTime {
		return nil
	}
	t := key.At
	return &t
}

func collectChanges(states map[apptypes.PlayerID]*playerState) []ratingevents.PlayerRatingChangeV1 {
	changes := make([]ratingevents.PlayerRatingChangeV1, 0, len(states))
	for playerID, state := range states {
		if !state.touched {
			continue
		}
		changes = append(changes, ratingevents.PlayerRatingChangeV1{
			PlayerID: playerID,
			Rating:   state.rating,
			Delta:    state.runDelta,
		})
	}
	return changes
}

func failSession(groupID apptypes.GroupID, sessionID apptypes.SessionID, reason string) SessionResult {
	return results.FailureResult[ratingevents.SessionRatingsProcessedPayloadV1](ratingevents.SessionRatingsFailedPayloadV1{
		GroupID:   groupID,
		SessionID: sessionID,
		Reason:    reason,
	})
}
