package tournamentservice

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/trace/noop"

	tournamentdomain "github.com/Jasstafel-Club/jasstafel-bot/app/modules/tournament/domain"
	tournamentdb "github.com/Jasstafel-Club/jasstafel-bot/app/modules/tournament/infrastructure/repositories"
	tournamentmetrics "github.com/Jasstafel-Club/jasstafel-bot/app/modules/tournament/metrics"
	apptypes "github.com/Jasstafel-Club/jasstafel-bot/app/types"
)

// fakeTournamentRepo is an in-memory Repository with optional error injection.
type fakeTournamentRepo struct {
	tournaments map[apptypes.TournamentID]tournamentdomain.Tournament
	rounds      []apptypes.Round
	rankings    map[apptypes.TournamentID][]tournamentdomain.RankingRecord

	getErr     error
	roundsErr  error
	rankingErr error
	replaceErr error
	statusErr  error

	replaceCalls int
}

var _ tournamentdb.Repository = (*fakeTournamentRepo)(nil)

func newFakeTournamentRepo() *fakeTournamentRepo {
	return &fakeTournamentRepo{
		tournaments: make(map[apptypes.TournamentID]tournamentdomain.Tournament),
		rankings:    make(map[apptypes.TournamentID][]tournamentdomain.RankingRecord),
	}
}

func (f *fakeTournamentRepo) CreateTournament(_ context.Context, _ bun.IDB, t tournamentdomain.Tournament) error {
	f.tournaments[t.ID] = t
	return nil
}

func (f *fakeTournamentRepo) GetTournament(_ context.Context, _ bun.IDB, id apptypes.TournamentID) (*tournamentdomain.Tournament, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	t, ok := f.tournaments[id]
	if !ok {
		return nil, tournamentdb.ErrNotFound
	}
	return &t, nil
}

func (f *fakeTournamentRepo) UpdateStatus(_ context.Context, _ bun.IDB, id apptypes.TournamentID, status tournamentdomain.Status, lastError string) error {
	if f.statusErr != nil {
		return f.statusErr
	}
	t, ok := f.tournaments[id]
	if !ok {
		return tournamentdb.ErrNoRowsAffected
	}
	t.Status = status
	t.LastError = lastError
	if status == tournamentdomain.StatusCompleted {
		now := time.Now().UTC()
		t.CompletedAt = &now
	}
	f.tournaments[id] = t
	return nil
}

func (f *fakeTournamentRepo) InsertRound(_ context.Context, _ bun.IDB, round apptypes.Round) error {
	f.rounds = append(f.rounds, round)
	return nil
}

func (f *fakeTournamentRepo) CompletedRoundsForSession(_ context.Context, _ bun.IDB, sessionID apptypes.SessionID) ([]apptypes.Round, error) {
	if f.roundsErr != nil {
		return nil, f.roundsErr
	}
	var out []apptypes.Round
	for _, r := range f.rounds {
		if r.SessionID != nil && *r.SessionID == sessionID && r.CompletedAt != nil {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeTournamentRepo) CompletedRoundsForTournament(_ context.Context, _ bun.IDB, tournamentID apptypes.TournamentID) ([]apptypes.Round, error) {
	if f.roundsErr != nil {
		return nil, f.roundsErr
	}
	var out []apptypes.Round
	for _, r := range f.rounds {
		if r.TournamentID != nil && *r.TournamentID == tournamentID && r.CompletedAt != nil {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeTournamentRepo) RoundByID(_ context.Context, _ bun.IDB, roundID apptypes.RoundID) (apptypes.Round, error) {
	for _, r := range f.rounds {
		if r.ID == roundID {
			return r, nil
		}
	}
	return apptypes.Round{}, tournamentdb.ErrNotFound
}

func (f *fakeTournamentRepo) ReplaceRankingRecords(_ context.Context, _ bun.IDB, tournamentID apptypes.TournamentID, records []tournamentdomain.RankingRecord) error {
	if f.replaceErr != nil {
		return f.replaceErr
	}
	f.replaceCalls++
	f.rankings[tournamentID] = records
	return nil
}

func (f *fakeTournamentRepo) RankingRecords(_ context.Context, _ bun.IDB, tournamentID apptypes.TournamentID) ([]tournamentdomain.RankingRecord, error) {
	if f.rankingErr != nil {
		return nil, f.rankingErr
	}
	return f.rankings[tournamentID], nil
}

// fakeRatingLookup serves post-pass ratings from a map keyed by player and
// pass number. Missing keys yield nil, matching an uncovered pass.
type fakeRatingLookup struct {
	ratings map[string]apptypes.Rating
	err     error
}

func ratingKey(playerID apptypes.PlayerID, pass int) string {
	return fmt.Sprintf("%s:%d", playerID, pass)
}

func (f *fakeRatingLookup) RatingAfterPass(_ context.Context, playerID apptypes.PlayerID, _ apptypes.TournamentID, pass int) (*apptypes.Rating, error) {
	if f.err != nil {
		return nil, f.err
	}
	r, ok := f.ratings[ratingKey(playerID, pass)]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func newTestService(repo tournamentdb.Repository, ratings RatingLookup) *TournamentService {
	if ratings == nil {
		ratings = &fakeRatingLookup{}
	}
	return NewTournamentService(
		repo,
		ratings,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		tournamentmetrics.NoOpMetrics{},
		noop.NewTracerProvider().Tracer("test"),
		nil,
		apptypes.StricheConfig{BergEnabled: true, SchneiderEnabled: true},
	)
}
