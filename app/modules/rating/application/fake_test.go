package ratingservice

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/trace/noop"

	ratingdomain "github.com/Jasstafel-Club/jasstafel-bot/app/modules/rating/domain"
	ledgerdb "github.com/Jasstafel-Club/jasstafel-bot/app/modules/rating/infrastructure/repositories"
	ratingmetrics "github.com/Jasstafel-Club/jasstafel-bot/app/modules/rating/metrics"
	apptypes "github.com/Jasstafel-Club/jasstafel-bot/app/types"
)

// fakeProjection mirrors the player_ratings row written by ProjectRating.
type fakeProjection struct {
	rating      apptypes.Rating
	delta       float64
	gamesPlayed int
}

// fakeLedgerRepo is an in-memory Repository with optional error injection.
type fakeLedgerRepo struct {
	entries     []ratingdomain.LedgerEntry
	projections map[apptypes.PlayerID]fakeProjection

	appendErr  error
	latestErr  error
	projectErr error
}

var _ ledgerdb.Repository = (*fakeLedgerRepo)(nil)

func newFakeLedgerRepo() *fakeLedgerRepo {
	return &fakeLedgerRepo{projections: make(map[apptypes.PlayerID]fakeProjection)}
}

func (f *fakeLedgerRepo) AppendEntry(_ context.Context, _ bun.IDB, entry ratingdomain.LedgerEntry) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	for _, e := range f.entries {
		if e.PlayerID == entry.PlayerID && e.EventKey == entry.EventKey {
			return ledgerdb.ErrDuplicateEntry
		}
	}
	f.entries = append(f.entries, entry)
	return nil
}

func (f *fakeLedgerRepo) LatestEntryBefore(_ context.Context, _ bun.IDB, playerID apptypes.PlayerID, at *time.Time) (*ratingdomain.LedgerEntry, error) {
	if f.latestErr != nil {
		return nil, f.latestErr
	}
	var best *ratingdomain.LedgerEntry
	var bestTime time.Time
	for i := range f.entries {
		e := f.entries[i]
		if e.PlayerID != playerID {
			continue
		}
		et, ok := e.EffectiveTime()
		if !ok {
			continue
		}
		if at != nil && !et.Before(*at) {
			continue
		}
		if best == nil || !et.Before(bestTime) {
			best = &f.entries[i]
			bestTime = et
		}
	}
	if best == nil {
		return nil, ledgerdb.ErrNotFound
	}
	return best, nil
}

func (f *fakeLedgerRepo) HasEntryForEvent(_ context.Context, _ bun.IDB, playerID apptypes.PlayerID, eventKey string) (bool, error) {
	for _, e := range f.entries {
		if e.PlayerID == playerID && e.EventKey == eventKey {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeLedgerRepo) EntriesForPlayer(_ context.Context, _ bun.IDB, playerID apptypes.PlayerID) ([]ratingdomain.LedgerEntry, error) {
	var out []ratingdomain.LedgerEntry
	for _, e := range f.entries {
		if e.PlayerID == playerID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeLedgerRepo) EntryForTournamentPass(_ context.Context, _ bun.IDB, playerID apptypes.PlayerID, tournamentID apptypes.TournamentID, pass int) (*ratingdomain.LedgerEntry, error) {
	for i := range f.entries {
		e := f.entries[i]
		if e.PlayerID != playerID || e.EventRef.TournamentID == nil {
			continue
		}
		if *e.EventRef.TournamentID == tournamentID && e.EventRef.PassNumber == pass {
			return &f.entries[i], nil
		}
	}
	return nil, ledgerdb.ErrNotFound
}

func (f *fakeLedgerRepo) Trim(_ context.Context, _ bun.IDB, playerID apptypes.PlayerID, maxEntries int) (int, error) {
	count := 0
	for _, e := range f.entries {
		if e.PlayerID == playerID {
			count++
		}
	}
	if count <= maxEntries {
		return 0, nil
	}
	excess := count - maxEntries
	kept := f.entries[:0]
	trimmed := 0
	for _, e := range f.entries {
		if e.PlayerID == playerID && trimmed < excess {
			trimmed++
			continue
		}
		kept = append(kept, e)
	}
	f.entries = kept
	return trimmed, nil
}

func (f *fakeLedgerRepo) ProjectRating(_ context.Context, _ bun.IDB, playerID apptypes.PlayerID, rating apptypes.Rating, lastSessionDelta float64, gamesPlayed int) error {
	if f.projectErr != nil {
		return f.projectErr
	}
	if existing, ok := f.projections[playerID]; ok && gamesPlayed <= existing.gamesPlayed {
		return nil
	}
	f.projections[playerID] = fakeProjection{rating: rating, delta: lastSessionDelta, gamesPlayed: gamesPlayed}
	return nil
}

func (f *fakeLedgerRepo) CurrentRating(_ context.Context, _ bun.IDB, playerID apptypes.PlayerID) (apptypes.Rating, error) {
	p, ok := f.projections[playerID]
	if !ok {
		return 0, ledgerdb.ErrNotFound
	}
	return p.rating, nil
}

func (f *fakeLedgerRepo) entriesForKey(eventKey string) []ratingdomain.LedgerEntry {
	var out []ratingdomain.LedgerEntry
	for _, e := range f.entries {
		if e.EventKey == eventKey {
			out = append(out, e)
		}
	}
	return out
}

// fakeRoundSource stubs the round lookups with per-test functions.
type fakeRoundSource struct {
	sessionRoundsFunc    func(ctx context.Context, sessionID apptypes.SessionID) ([]apptypes.Round, error)
	tournamentRoundsFunc func(ctx context.Context, tournamentID apptypes.TournamentID) ([]apptypes.Round, error)
	roundByIDFunc        func(ctx context.Context, roundID apptypes.RoundID) (apptypes.Round, error)
}

func (f *fakeRoundSource) CompletedRoundsForSession(ctx context.Context, sessionID apptypes.SessionID) ([]apptypes.Round, error) {
	if f.sessionRoundsFunc == nil {
		return nil, nil
	}
	return f.sessionRoundsFunc(ctx, sessionID)
}

func (f *fakeRoundSource) CompletedRoundsForTournament(ctx context.Context, tournamentID apptypes.TournamentID) ([]apptypes.Round, error) {
	if f.tournamentRoundsFunc == nil {
		return nil, nil
	}
	return f.tournamentRoundsFunc(ctx, tournamentID)
}

func (f *fakeRoundSource) RoundByID(ctx context.Context, roundID apptypes.RoundID) (apptypes.Round, error) {
	if f.roundByIDFunc == nil {
		return apptypes.Round{}, nil
	}
	return f.roundByIDFunc(ctx, roundID)
}

// fakeSnapshotWriter records handed-over snapshots.
type fakeSnapshotWriter struct {
	snaps []Snapshot
	err   error
}

func (f *fakeSnapshotWriter) WriteSnapshot(_ context.Context, _ bun.IDB, snap Snapshot) error {
	if f.err != nil {
		return f.err
	}
	f.snaps = append(f.snaps, snap)
	return nil
}

func newTestService(repo ledgerdb.Repository, rounds RoundSource, snaps SnapshotWriter) *RatingService {
	return NewRatingService(
		repo,
		rounds,
		snaps,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		ratingmetrics.NoOpMetrics{},
		noop.NewTracerProvider().Tracer("test"),
		nil,
		DefaultModelConfig(),
		apptypes.StricheConfig{BergEnabled: true, SchneiderEnabled: true},
		100,
	)
}
