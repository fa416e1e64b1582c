package ratingservice

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ratingdomain "github.com/Jasstafel-Club/jasstafel-bot/app/modules/rating/domain"
	apptypes "github.com/Jasstafel-Club/jasstafel-bot/app/types"
)

func ledgerEntry(playerID apptypes.PlayerID, rating apptypes.Rating, at time.Time) ratingdomain.LedgerEntry {
	c := at
	return ratingdomain.LedgerEntry{
		ID:          uuid.New(),
		PlayerID:    playerID,
		EventType:   ratingdomain.EventTypeGame,
		EventKey:    uuid.NewString(),
		CompletedAt: &c,
		CreatedAt:   at,
		Rating:      rating,
	}
}

func TestRatingAsOf(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2026, 7, 1, 20, 0, 0, 0, time.UTC)

	t.Run("returns the latest entry before the given instant", func(t *testing.T) {
		repo := newFakeLedgerRepo()
		repo.entries = []ratingdomain.LedgerEntry{
			ledgerEntry(playerAnna, 110, base),
			ledgerEntry(playerAnna, 125, base.Add(48*time.Hour)),
		}
		svc := newTestService(repo, &fakeRoundSource{}, nil)

		at := base.Add(24 * time.Hour)
		rating, grounded, err := svc.RatingAsOf(ctx, playerAnna, &at)
		require.NoError(t, err)
		assert.True(t, grounded)
		assert.Equal(t, apptypes.Rating(110), rating)
	})

	t.Run("nil instant resolves to the latest entry", func(t *testing.T) {
		repo := newFakeLedgerRepo()
		repo.entries = []ratingdomain.LedgerEntry{
			ledgerEntry(playerAnna, 110, base),
			ledgerEntry(playerAnna, 125, base.Add(48*time.Hour)),
		}
		svc := newTestService(repo, &fakeRoundSource{}, nil)

		rating, grounded, err := svc.RatingAsOf(ctx, playerAnna, nil)
		require.NoError(t, err)
		assert.True(t, grounded)
		assert.Equal(t, apptypes.Rating(125), rating)
	})

	t.Run("entries without a completion time order by creation time", func(t *testing.T) {
		repo := newFakeLedgerRepo()
		unfinished := ledgerEntry(playerAnna, 119, base.Add(72*time.Hour))
		unfinished.CompletedAt = nil
		repo.entries = []ratingdomain.LedgerEntry{
			ledgerEntry(playerAnna, 110, base),
			unfinished,
		}
		svc := newTestService(repo, &fakeRoundSource{}, nil)

		rating, grounded, err := svc.RatingAsOf(ctx, playerAnna, nil)
		require.NoError(t, err)
		assert.True(t, grounded)
		assert.Equal(t, apptypes.Rating(119), rating)
	})

	t.Run("missing history degrades to the default starting rating", func(t *testing.T) {
		svc := newTestService(newFakeLedgerRepo(), &fakeRoundSource{}, nil)

		rating, grounded, err := svc.RatingAsOf(ctx, playerBeat, nil)
		require.NoError(t, err)
		assert.False(t, grounded)
		assert.Equal(t, apptypes.Rating(100), rating)
	})

	t.Run("repository failures are not masked by the default", func(t *testing.T) {
		repo := newFakeLedgerRepo()
		repo.latestErr = errors.New("connection refused")
		svc := newTestService(repo, &fakeRoundSource{}, nil)

		_, _, err := svc.RatingAsOf(ctx, playerAnna, nil)
		require.Error(t, err)
	})
}

func TestCurrentRating(t *testing.T) {
	ctx := context.Background()

	t.Run("reads the materialized projection", func(t *testing.T) {
		repo := newFakeLedgerRepo()
		require.NoError(t, repo.ProjectRating(ctx, nil, playerAnna, 142.5, 10, 7))
		svc := newTestService(repo, &fakeRoundSource{}, nil)

		rating, err := svc.CurrentRating(ctx, playerAnna)
		require.NoError(t, err)
		assert.Equal(t, apptypes.Rating(142.5), rating)
	})

	t.Run("falls back to the ledger when no projection exists", func(t *testing.T) {
		repo := newFakeLedgerRepo()
		repo.entries = []ratingdomain.LedgerEntry{
			ledgerEntry(playerAnna, 118, time.Date(2026, 7, 1, 20, 0, 0, 0, time.UTC)),
		}
		svc := newTestService(repo, &fakeRoundSource{}, nil)

		rating, err := svc.CurrentRating(ctx, playerAnna)
		require.NoError(t, err)
		assert.Equal(t, apptypes.Rating(118), rating)
	})

	t.Run("unknown players get the default starting rating", func(t *testing.T) {
		svc := newTestService(newFakeLedgerRepo(), &fakeRoundSource{}, nil)

		rating, err := svc.CurrentRating(ctx, playerCarla)
		require.NoError(t, err)
		assert.Equal(t, apptypes.Rating(100), rating)
	})
}
