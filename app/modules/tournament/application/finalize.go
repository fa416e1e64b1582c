package tournamentservice

import (
	"context"
	"errors"
	"time"

	"github.com/uptrace/bun"

	tournamentdomain "github.com/Jasstafel-Club/jasstafel-bot/app/modules/tournament/domain"
	tournamentevents "github.com/Jasstafel-Club/jasstafel-bot/app/modules/tournament/events"
	tournamentdb "github.com/Jasstafel-Club/jasstafel-bot/app/modules/tournament/infrastructure/repositories"
	"github.com/Jasstafel-Club/jasstafel-bot/app/shared/attr"
	"github.com/Jasstafel-Club/jasstafel-bot/app/shared/results"
	apptypes "github.com/Jasstafel-Club/jasstafel-bot/app/types"
)

// FinalizeResult is the outcome envelope of a finalization run.
type FinalizeResult = results.OperationResult[tournamentevents.FinalizedPayloadV1, tournamentevents.FinalizeFailedPayloadV1]

// FinalizeTournament aggregates a tournament's completed rounds into ranking
// records and marks it completed. Safe to re-invoke: a tournament whose
// ranking already covers every participant short-circuits successfully.
// Callers should serialize finalization per tournament; the guard protects
// against duplicate triggers, not concurrent ones.
func (s *TournamentService) FinalizeTournament(ctx context.Context, tournamentID apptypes.TournamentID) (FinalizeResult, error) {
	s.logger.InfoContext(ctx, "Starting tournament finalization",
		attr.ExtractCorrelationID(ctx),
		attr.TournamentID("tournament_id", tournamentID),
	)

	return withTelemetry(s, ctx, "FinalizeTournament", func(ctx context.Context) (FinalizeResult, error) {
		tournament, err := s.repo.GetTournament(ctx, nil, tournamentID)
		if err != nil {
			if errors.Is(err, tournamentdb.ErrNotFound) {
				return failFinalize(tournamentID, "tournament not found", false), nil
			}
			return failFinalize(tournamentID, "failed to load tournament", false), err
		}

		if !tournament.Status.CanFinalize() {
			s.metrics.RecordFinalization(ctx, "rejected_archived")
			return failFinalize(tournamentID, "tournament is archived", false), nil
		}

		if err := validScoring(tournament.Scoring); err != nil {
			return s.failFatal(ctx, tournamentID, tournament.Status, err.Error())
		}

		rounds, err := s.repo.CompletedRoundsForTournament(ctx, nil, tournamentID)
		if err != nil {
			return failFinalize(tournamentID, "failed to load tournament rounds", false), err
		}
		apptypes.SortRoundsChronologically(rounds)

		entities, err := buildEntities(*tournament, rounds)
		if err != nil {
			return s.failFatal(ctx, tournamentID, tournament.Status, err.Error())
		}

		participants := membersOf(entities)

		if len(rounds) == 0 || len(participants) == 0 {
			return s.finalizeEmpty(ctx, tournamentID, rounds, participants)
		}

		isMember, err := membershipFor(entities[0].Kind)
		if err != nil {
			return failFinalize(tournamentID, err.Error(), true), nil
		}

		return runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (FinalizeResult, error) {
			stored, err := s.repo.RankingRecords(ctx, db, tournamentID)
			if err != nil {
				return failFinalize(tournamentID, "failed to load existing ranking", false), err
			}
			if rankingCovers(stored, participants) {
				s.logger.InfoContext(ctx, "Ranking already exists for every participant, nothing to do",
					attr.TournamentID("tournament_id", tournamentID),
				)
				if err := s.ensureCompleted(ctx, db, tournamentID, tournament.Status); err != nil {
					return failFinalize(tournamentID, "failed to mark tournament completed", false), err
				}
				s.metrics.RecordFinalization(ctx, "noop")
				return results.SuccessResult[tournamentevents.FinalizedPayloadV1, tournamentevents.FinalizeFailedPayloadV1](tournamentevents.FinalizedPayloadV1{
					TournamentID: tournamentID,
					Ranking:      stored,
					Note:         "ranking already finalized",
				}), nil
			}

			records, err := s.buildRanking(ctx, *tournament, entities, rounds, isMember)
			if err != nil {
				return failFinalize(tournamentID, "failed to aggregate ranking", false), err
			}

			if err := s.repo.ReplaceRankingRecords(ctx, db, tournamentID, records); err != nil {
				return failFinalize(tournamentID, "failed to store ranking records", false), err
			}
			if err := s.repo.UpdateStatus(ctx, db, tournamentID, tournamentdomain.StatusCompleted, ""); err != nil {
				return failFinalize(tournamentID, "failed to mark tournament completed", false), err
			}

			s.metrics.RecordFinalization(ctx, "success")
			return results.SuccessResult[tournamentevents.FinalizedPayloadV1, tournamentevents.FinalizeFailedPayloadV1](tournamentevents.FinalizedPayloadV1{
				TournamentID: tournamentID,
				Ranking:      records,
			}), nil
		})
	})
}

// buildRanking runs the generic aggregation for every entity and expands the
// ranked entities into one record per participant member.
func (s *TournamentService) buildRanking(
	ctx context.Context,
	tournament tournamentdomain.Tournament,
	entities []tournamentdomain.RankingEntity,
	rounds []apptypes.Round,
	isMember membershipFunc,
) ([]tournamentdomain.RankingRecord, error) {
	ranked := make([]rankedEntity, 0, len(entities))
	for _, entity := range entities {
		ranked = append(ranked, rankedEntity{
			Entity: entity,
			Totals: s.aggregateTotals(entity, rounds, isMember),
		})
	}
	rankEntities(tournament.Scoring, ranked)

	now := time.Now().UTC()
	var records []tournamentdomain.RankingRecord
	for _, re := range ranked {
		for _, member := range re.Entity.Members {
			trail, err := s.buildTrail(ctx, member, tournament.ID, rounds)
			if err != nil {
				return nil, err
			}
			records = append(records, tournamentdomain.RankingRecord{
				TournamentID: tournament.ID,
				PlayerID:     member,
				Entity:       re.Entity,
				Rank:         re.Rank,
				Totals:       re.Totals,
				RoundResults: trail,
				CreatedAt:    now,
			})
		}
	}
	return records, nil
}

// finalizeEmpty completes a tournament that has nothing to rank. Downstream
// consumers must treat "no ranking" as a valid completed state.
func (s *TournamentService) finalizeEmpty(ctx context.Context, tournamentID apptypes.TournamentID, rounds []apptypes.Round, participants []apptypes.PlayerID) (FinalizeResult, error) {
	note := "no completed rounds to rank"
	if len(rounds) > 0 {
		note = "no participants to rank"
	}
	s.logger.InfoContext(ctx, "Finalizing tournament with empty ranking",
		attr.TournamentID("tournament_id", tournamentID),
		attr.Int("rounds", len(rounds)),
		attr.Int("participants", len(participants)),
	)

	return runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (FinalizeResult, error) {
		if err := s.repo.ReplaceRankingRecords(ctx, db, tournamentID, nil); err != nil {
			return failFinalize(tournamentID, "failed to clear ranking records", false), err
		}
		if err := s.repo.UpdateStatus(ctx, db, tournamentID, tournamentdomain.StatusCompleted, ""); err != nil {
			return failFinalize(tournamentID, "failed to mark tournament completed", false), err
		}
		s.metrics.RecordFinalization(ctx, "empty")
		return results.SuccessResult[tournamentevents.FinalizedPayloadV1, tournamentevents.FinalizeFailedPayloadV1](tournamentevents.FinalizedPayloadV1{
			TournamentID: tournamentID,
			Note:         note,
		}), nil
	})
}

// failFatal records an unsupported-mode error on the tournament and reports a
// fatal failure. The tournament stays retriable in its current status.
func (s *TournamentService) failFatal(ctx context.Context, tournamentID apptypes.TournamentID, current tournamentdomain.Status, reason string) (FinalizeResult, error) {
	if err := s.repo.UpdateStatus(ctx, nil, tournamentID, current, reason); err != nil {
		s.logger.ErrorContext(ctx, "Failed to record finalization error",
			attr.TournamentID("tournament_id", tournamentID),
			attr.Error(err),
		)
	}
	s.metrics.RecordFinalization(ctx, "fatal")
	return failFinalize(tournamentID, reason, true), nil
}

func (s *TournamentService) ensureCompleted(ctx context.Context, db bun.IDB, tournamentID apptypes.TournamentID, current tournamentdomain.Status) error {
	if current == tournamentdomain.StatusCompleted {
		return nil
	}
	return s.repo.UpdateStatus(ctx, db, tournamentID, tournamentdomain.StatusCompleted, "")
}

// membersOf returns the deduplicated union of all entity members.
func membersOf(entities []tournamentdomain.RankingEntity) []apptypes.PlayerID {
	seen := make(map[apptypes.PlayerID]bool)
	var members []apptypes.PlayerID
	for _, e := range entities {
		for _, m := range e.Members {
			if !seen[m] {
				seen[m] = true
				members = append(members, m)
			}
		}
	}
	return members
}

// rankingCovers reports whether the stored ranking already has a record for
// every participant.
func rankingCovers(stored []tournamentdomain.RankingRecord, participants []apptypes.PlayerID) bool {
	if len(stored) == 0 {
		return false
	}
	have := make(map[apptypes.PlayerID]bool, len(stored))
	for _, rec := range stored {
		have[rec.PlayerID] = true
	}
	for _, p := range participants {
		if !have[p] {
			return false
		}
	}
	return true
}

func failFinalize(tournamentID apptypes.TournamentID, reason string, fatal bool) FinalizeResult {
	return results.FailureResult[tournamentevents.FinalizedPayloadV1](tournamentevents.FinalizeFailedPayloadV1{
		TournamentID: tournamentID,
		Reason:       reason,
		Fatal:        fatal,
	})
}

// Ranking returns the stored ranking records of a tournament.
func (s *TournamentService) Ranking(ctx context.Context, tournamentID apptypes.TournamentID) ([]tournamentdomain.RankingRecord, error) {
	return s.repo.RankingRecords(ctx, nil, tournamentID)
}
