package statsservice

import (
	"bytes"
	"context"
	"errors"
	"image/png"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/trace/noop"

	ratingservice "github.com/Jasstafel-Club/jasstafel-bot/app/modules/rating/application"
	ratingdomain "github.com/Jasstafel-Club/jasstafel-bot/app/modules/rating/domain"
	apptypes "github.com/Jasstafel-Club/jasstafel-bot/app/types"
)

const anna = apptypes.PlayerID("anna")

// fakeSnapshotRepo is an in-memory snapshot store.
type fakeSnapshotRepo struct {
	snaps []ratingservice.Snapshot
}

func (f *fakeSnapshotRepo) WriteSnapshot(_ context.Context, _ bun.IDB, snap ratingservice.Snapshot) error {
	f.snaps = append(f.snaps, snap)
	return nil
}

func (f *fakeSnapshotRepo) SnapshotsForPlayer(_ context.Context, _ bun.IDB, playerID apptypes.PlayerID) ([]ratingservice.Snapshot, error) {
	var out []ratingservice.Snapshot
	for _, s := range f.snaps {
		if s.PlayerID == playerID {
			out = append(out, s)
		}
	}
	return out, nil
}

// fakeRatingReader serves canned ledger history.
type fakeRatingReader struct {
	history []ratingdomain.LedgerEntry
	current apptypes.Rating
	err     error
}

func (f *fakeRatingReader) History(context.Context, apptypes.PlayerID) ([]ratingdomain.LedgerEntry, error) {
	return f.history, f.err
}

func (f *fakeRatingReader) CurrentRating(context.Context, apptypes.PlayerID) (apptypes.Rating, error) {
	return f.current, f.err
}

func newTestStats(repo *fakeSnapshotRepo, ratings RatingReader) *StatsService {
	return NewStatsService(
		repo,
		ratings,
		nil,
		DefaultChartPalette(),
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		noop.NewTracerProvider().Tracer("test"),
	)
}

func ledgerEntry(rating apptypes.Rating, at time.Time) ratingdomain.LedgerEntry {
	return ratingdomain.LedgerEntry{
		ID:          uuid.New(),
		PlayerID:    anna,
		EventType:   ratingdomain.EventTypeGame,
		CompletedAt: &at,
		CreatedAt:   at,
		Rating:      rating,
	}
}

func TestDefaultTierFunc(t *testing.T) {
	cases := []struct {
		rating apptypes.Rating
		name   string
	}{
		{90, "Lehrling"},
		{100, "Aufsteiger"},
		{130, "Stammspieler"},
		{200, "Jasskönig"},
	}
	for _, tc := range cases {
		name, emoji := DefaultTierFunc(tc.rating)
		assert.Equal(t, tc.name, name)
		assert.NotEmpty(t, emoji)
	}
}

func TestCurrentTier(t *testing.T) {
	s := newTestStats(&fakeSnapshotRepo{}, &fakeRatingReader{current: 145})

	name, emoji, err := s.CurrentTier(context.Background(), anna)
	require.NoError(t, err)
	assert.Equal(t, "Stammspieler", name)
	assert.NotEmpty(t, emoji)
}

func TestSnapshotsRoundTrip(t *testing.T) {
	repo := &fakeSnapshotRepo{}
	s := newTestStats(repo, &fakeRatingReader{})

	snap := ratingservice.Snapshot{
		PlayerID: anna,
		At:       time.Date(2026, 8, 1, 21, 0, 0, 0, time.UTC),
		Rating:   104,
		Delta:    4,
	}
	require.NoError(t, s.WriteSnapshot(context.Background(), nil, snap))

	got, err := s.Snapshots(context.Background(), anna)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, snap, got[0])
}

func TestRenderRatingChart(t *testing.T) {
	base := time.Date(2026, 8, 1, 19, 0, 0, 0, time.UTC)

	t.Run("renders a PNG from ledger history", func(t *testing.T) {
		ratings := &fakeRatingReader{history: []ratingdomain.LedgerEntry{
			ledgerEntry(100, base),
			ledgerEntry(104.5, base.Add(time.Hour)),
			ledgerEntry(101.2, base.Add(2*time.Hour)),
		}}
		s := newTestStats(&fakeSnapshotRepo{}, ratings)

		data, err := s.RenderRatingChart(context.Background(), anna)
		require.NoError(t, err)

		img, err := png.Decode(bytes.NewReader(data))
		require.NoError(t, err)
		assert.Equal(t, 800, img.Bounds().Dx())
		assert.Equal(t, 400, img.Bounds().Dy())
	})

	t.Run("renders a placeholder below two entries", func(t *testing.T) {
		ratings := &fakeRatingReader{history: []ratingdomain.LedgerEntry{ledgerEntry(100, base)}}
		s := newTestStats(&fakeSnapshotRepo{}, ratings)

		data, err := s.RenderRatingChart(context.Background(), anna)
		require.NoError(t, err)

		img, err := png.Decode(bytes.NewReader(data))
		require.NoError(t, err)
		assert.Equal(t, 400, img.Bounds().Dx())
	})

	t.Run("propagates history errors", func(t *testing.T) {
		s := newTestStats(&fakeSnapshotRepo{}, &fakeRatingReader{err: errors.New("ledger down")})

		_, err := s.RenderRatingChart(context.Background(), anna)
		require.Error(t, err)
	})
}
