package ratingservice

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Jasstafel-Club/jasstafel-bot/app/shared/retry"
	apptypes "github.com/Jasstafel-Club/jasstafel-bot/app/types"
)

func tournamentRound(tournamentID apptypes.TournamentID, pass int, completed time.Time, a, b apptypes.TeamSide) apptypes.Round {
	c := completed
	return apptypes.Round{
		ID:           apptypes.RoundID(uuid.New()),
		TournamentID: &tournamentID,
		PassNumber:   pass,
		TeamA:        a,
		TeamB:        b,
		CompletedAt:  &c,
		CreatedAt:    c,
		SequenceNo:   pass,
	}
}

func TestProcessTournamentRoundRating(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2026, 8, 22, 10, 0, 0, 0, time.UTC)

	t.Run("rates a completed pass and keys entries by tournament and pass number", func(t *testing.T) {
		tournamentID := apptypes.TournamentID(uuid.New())
		round := tournamentRound(tournamentID, 3, base, team(157, 4, playerAnna, playerBeat), team(110, 2, playerCarla, playerDavid))

		repo := newFakeLedgerRepo()
		svc := newTestService(repo, &fakeRoundSource{
			roundByIDFunc: func(_ context.Context, id apptypes.RoundID) (apptypes.Round, error) {
				require.Equal(t, round.ID, id)
				return round, nil
			},
		}, nil)

		result, err := svc.ProcessTournamentRoundRating(ctx, tournamentID, round.ID)
		require.NoError(t, err)
		require.True(t, result.IsSuccess())
		assert.Equal(t, 3, result.Success.PassNumber)
		assert.False(t, result.Success.AlreadyProcessed)
		assert.Len(t, result.Success.Changes, 4)

		wantKey := fmt.Sprintf("tournament:%s:pass:3", tournamentID.String())
		entries := repo.entriesForKey(wantKey)
		require.Len(t, entries, 4)
		for _, e := range entries {
			require.NotNil(t, e.EventRef.TournamentID)
			assert.Equal(t, tournamentID, *e.EventRef.TournamentID)
			assert.Equal(t, 3, e.EventRef.PassNumber)
		}
	})

	t.Run("already rated pass is a successful no-op", func(t *testing.T) {
		tournamentID := apptypes.TournamentID(uuid.New())
		round := tournamentRound(tournamentID, 1, base, team(157, 4, playerAnna, playerBeat), team(110, 2, playerCarla, playerDavid))

		repo := newFakeLedgerRepo()
		svc := newTestService(repo, &fakeRoundSource{
			roundByIDFunc: func(context.Context, apptypes.RoundID) (apptypes.Round, error) {
				return round, nil
			},
		}, nil)

		first, err := svc.ProcessTournamentRoundRating(ctx, tournamentID, round.ID)
		require.NoError(t, err)
		require.True(t, first.IsSuccess())
		entriesAfterFirst := len(repo.entries)

		second, err := svc.ProcessTournamentRoundRating(ctx, tournamentID, round.ID)
		require.NoError(t, err)
		require.True(t, second.IsSuccess())
		assert.True(t, second.Success.AlreadyProcessed)
		assert.Empty(t, second.Success.Changes)
		assert.Len(t, repo.entries, entriesAfterFirst)
	})

	t.Run("round from another tournament is rejected", func(t *testing.T) {
		tournamentID := apptypes.TournamentID(uuid.New())
		otherID := apptypes.TournamentID(uuid.New())
		round := tournamentRound(otherID, 1, base, team(157, 4, playerAnna, playerBeat), team(110, 2, playerCarla, playerDavid))

		repo := newFakeLedgerRepo()
		svc := newTestService(repo, &fakeRoundSource{
			roundByIDFunc: func(context.Context, apptypes.RoundID) (apptypes.Round, error) {
				return round, nil
			},
		}, nil)

		result, err := svc.ProcessTournamentRoundRating(ctx, tournamentID, round.ID)
		require.NoError(t, err)
		require.True(t, result.IsFailure())
		assert.Equal(t, "round does not belong to tournament", result.Failure.Reason)
		assert.Empty(t, repo.entries)
	})

	t.Run("malformed teams fail the pass without writing entries", func(t *testing.T) {
		tournamentID := apptypes.TournamentID(uuid.New())
		round := tournamentRound(tournamentID, 1, base, team(157, 4, playerAnna), team(110, 2, playerCarla, playerDavid))

		repo := newFakeLedgerRepo()
		svc := newTestService(repo, &fakeRoundSource{
			roundByIDFunc: func(context.Context, apptypes.RoundID) (apptypes.Round, error) {
				return round, nil
			},
		}, nil)

		result, err := svc.ProcessTournamentRoundRating(ctx, tournamentID, round.ID)
		require.NoError(t, err)
		require.True(t, result.IsFailure())
		assert.Equal(t, "round teams malformed", result.Failure.Reason)
		assert.Empty(t, repo.entries)
	})

	t.Run("round lookup failure surfaces as error", func(t *testing.T) {
		tournamentID := apptypes.TournamentID(uuid.New())
		svc := newTestService(newFakeLedgerRepo(), &fakeRoundSource{
			roundByIDFunc: func(context.Context, apptypes.RoundID) (apptypes.Round, error) {
				return apptypes.Round{}, errors.New("timeout")
			},
		}, nil)

		result, err := svc.ProcessTournamentRoundRating(ctx, tournamentID, apptypes.RoundID(uuid.New()))
		require.Error(t, err)
		require.True(t, result.IsFailure())
		assert.Equal(t, "failed to load round", result.Failure.Reason)
	})

	t.Run("waits for a round that becomes visible after the event", func(t *testing.T) {
		tournamentID := apptypes.TournamentID(uuid.New())
		round := tournamentRound(tournamentID, 1, base, team(157, 4, playerAnna, playerBeat), team(110, 2, playerCarla, playerDavid))

		attempts := 0
		repo := newFakeLedgerRepo()
		svc := newTestService(repo, &fakeRoundSource{
			roundByIDFunc: func(context.Context, apptypes.RoundID) (apptypes.Round, error) {
				attempts++
				if attempts < 3 {
					return apptypes.Round{}, ErrRoundNotFound
				}
				return round, nil
			},
		}, nil)
		svc.await = retry.Config{
			InitialInterval: time.Millisecond,
			MaxInterval:     5 * time.Millisecond,
			MaxElapsedTime:  time.Second,
		}

		result, err := svc.ProcessTournamentRoundRating(ctx, tournamentID, round.ID)
		require.NoError(t, err)
		require.True(t, result.IsSuccess())
		assert.Equal(t, 3, attempts)
	})

	t.Run("late-delivered earlier pass does not roll the projection back", func(t *testing.T) {
		tournamentID := apptypes.TournamentID(uuid.New())
		pass1 := tournamentRound(tournamentID, 1, base, team(60, 0, playerAnna, playerBeat), team(157, 4, playerCarla, playerDavid))
		pass2 := tournamentRound(tournamentID, 2, base.Add(time.Hour), team(157, 4, playerAnna, playerBeat), team(80, 1, playerCarla, playerDavid))
		byID := map[apptypes.RoundID]apptypes.Round{pass1.ID: pass1, pass2.ID: pass2}

		repo := newFakeLedgerRepo()
		svc := newTestService(repo, &fakeRoundSource{
			roundByIDFunc: func(_ context.Context, id apptypes.RoundID) (apptypes.Round, error) {
				return byID[id], nil
			},
		}, nil)

		second, err := svc.ProcessTournamentRoundRating(ctx, tournamentID, pass2.ID)
		require.NoError(t, err)
		require.True(t, second.IsSuccess())
		projected := repo.projections[playerAnna]
		assert.Greater(t, float64(projected.rating), 100.0)

		first, err := svc.ProcessTournamentRoundRating(ctx, tournamentID, pass1.ID)
		require.NoError(t, err)
		require.True(t, first.IsSuccess())

		// Both passes are in the ledger, but the projection still carries
		// the state written for the later pass.
		entries, err := repo.EntriesForPlayer(ctx, nil, playerAnna)
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, projected, repo.projections[playerAnna])
	})

	t.Run("gives up on a round that never appears", func(t *testing.T) {
		tournamentID := apptypes.TournamentID(uuid.New())
		svc := newTestService(newFakeLedgerRepo(), &fakeRoundSource{
			roundByIDFunc: func(context.Context, apptypes.RoundID) (apptypes.Round, error) {
				return apptypes.Round{}, ErrRoundNotFound
			},
		}, nil)
		svc.await = retry.Config{
			InitialInterval: time.Millisecond,
			MaxInterval:     2 * time.Millisecond,
			MaxElapsedTime:  20 * time.Millisecond,
		}

		result, err := svc.ProcessTournamentRoundRating(ctx, tournamentID, apptypes.RoundID(uuid.New()))
		require.Error(t, err)
		require.True(t, result.IsFailure())
		assert.Equal(t, "failed to load round", result.Failure.Reason)
	})
}

func TestProcessTournamentRatings(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2026, 8, 22, 10, 0, 0, 0, time.UTC)

	t.Run("replays every pass in order", func(t *testing.T) {
		tournamentID := apptypes.TournamentID(uuid.New())
		rounds := []apptypes.Round{
			tournamentRound(tournamentID, 2, base.Add(time.Hour), team(90, 1, playerAnna, playerBeat), team(157, 4, playerCarla, playerDavid)),
			tournamentRound(tournamentID, 1, base, team(157, 5, playerAnna, playerBeat), team(60, 0, playerCarla, playerDavid)),
		}

		repo := newFakeLedgerRepo()
		svc := newTestService(repo, &fakeRoundSource{
			tournamentRoundsFunc: func(context.Context, apptypes.TournamentID) ([]apptypes.Round, error) {
				return rounds, nil
			},
		}, nil)

		result, err := svc.ProcessTournamentRatings(ctx, tournamentID)
		require.NoError(t, err)
		require.True(t, result.IsSuccess())
		assert.Equal(t, 2, result.Success.RoundsApplied)
		assert.Equal(t, 0, result.Success.RoundsSkipped)
		assert.Len(t, repo.entries, 8)

		// Rounds were applied chronologically: pass 1 before pass 2.
		history, err := repo.EntriesForPlayer(ctx, nil, playerAnna)
		require.NoError(t, err)
		require.Len(t, history, 2)
		assert.Equal(t, 1, history[0].EventRef.PassNumber)
		assert.Equal(t, 2, history[1].EventRef.PassNumber)
	})

	t.Run("re-running the replay skips every already rated pass", func(t *testing.T) {
		tournamentID := apptypes.TournamentID(uuid.New())
		rounds := []apptypes.Round{
			tournamentRound(tournamentID, 1, base, team(157, 5, playerAnna, playerBeat), team(60, 0, playerCarla, playerDavid)),
			tournamentRound(tournamentID, 2, base.Add(time.Hour), team(90, 1, playerAnna, playerBeat), team(157, 4, playerCarla, playerDavid)),
		}

		repo := newFakeLedgerRepo()
		svc := newTestService(repo, &fakeRoundSource{
			tournamentRoundsFunc: func(context.Context, apptypes.TournamentID) ([]apptypes.Round, error) {
				return rounds, nil
			},
		}, nil)

		first, err := svc.ProcessTournamentRatings(ctx, tournamentID)
		require.NoError(t, err)
		require.True(t, first.IsSuccess())
		ratingsAfterFirst := map[apptypes.PlayerID]apptypes.Rating{}
		for p, proj := range repo.projections {
			ratingsAfterFirst[p] = proj.rating
		}

		second, err := svc.ProcessTournamentRatings(ctx, tournamentID)
		require.NoError(t, err)
		require.True(t, second.IsSuccess())
		assert.Equal(t, 0, second.Success.RoundsApplied)
		assert.Equal(t, 2, second.Success.RoundsSkipped)
		assert.Len(t, repo.entries, 8)
		for p, want := range ratingsAfterFirst {
			assert.Equal(t, want, repo.projections[p].rating, "rating for %s drifted on re-run", p)
		}
	})

	t.Run("replay seeds from the ledger as of the first round, not the current projection", func(t *testing.T) {
		tournamentID := apptypes.TournamentID(uuid.New())
		rounds := []apptypes.Round{
			tournamentRound(tournamentID, 1, base, team(157, 4, playerAnna, playerBeat), team(110, 2, playerCarla, playerDavid)),
		}

		repo := newFakeLedgerRepo()
		// Pre-tournament history: Anna sits at 150 before the first pass.
		seedSession := apptypes.SessionID(uuid.New())
		seedRound := sessionRound(seedSession, 1, base.Add(-24*time.Hour), team(157, 4, playerAnna, playerBeat), team(80, 1, playerCarla, playerDavid))
		seedSvc := newTestService(repo, &fakeRoundSource{
			sessionRoundsFunc: func(context.Context, apptypes.SessionID) ([]apptypes.Round, error) {
				return []apptypes.Round{seedRound}, nil
			},
		}, nil)
		_, err := seedSvc.ProcessSessionRatings(ctx, "seed-group", seedSession)
		require.NoError(t, err)
		preRating := repo.projections[playerAnna].rating
		require.NotEqual(t, apptypes.Rating(100), preRating)

		// Corrupt the projection; the replay must not read it.
		require.NoError(t, repo.ProjectRating(ctx, nil, playerAnna, 9999, 0, 1))

		svc := newTestService(repo, &fakeRoundSource{
			tournamentRoundsFunc: func(context.Context, apptypes.TournamentID) ([]apptypes.Round, error) {
				return rounds, nil
			},
		}, nil)
		result, err := svc.ProcessTournamentRatings(ctx, tournamentID)
		require.NoError(t, err)
		require.True(t, result.IsSuccess())

		entry, err := repo.EntryForTournamentPass(ctx, nil, playerAnna, tournamentID, 1)
		require.NoError(t, err)
		assert.InDelta(t, float64(preRating), float64(entry.Rating)-entry.Delta, 1e-9)
	})

	t.Run("tournament without rounds is a successful no-op", func(t *testing.T) {
		tournamentID := apptypes.TournamentID(uuid.New())
		repo := newFakeLedgerRepo()
		svc := newTestService(repo, &fakeRoundSource{}, nil)

		result, err := svc.ProcessTournamentRatings(ctx, tournamentID)
		require.NoError(t, err)
		require.True(t, result.IsSuccess())
		assert.Empty(t, repo.entries)
	})
}
