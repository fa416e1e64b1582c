package tournamentdb

import (
	"context"

	"github.com/uptrace/bun"

	tournamentdomain "github.com/Jasstafel-Club/jasstafel-bot/app/modules/tournament/domain"
	apptypes "github.com/Jasstafel-Club/jasstafel-bot/app/types"
)

// Repository is the tournament store: tournaments, their rounds, and the
// ranking records produced by finalization. All methods accept a bun.IDB for
// transactional callers; nil falls back to the repository's own connection.
type Repository interface {
	// CreateTournament inserts a new tournament in active status.
	CreateTournament(ctx context.Context, db bun.IDB, t tournamentdomain.Tournament) error

	// GetTournament returns the tournament or ErrNotFound.
	GetTournament(ctx context.Context, db bun.IDB, id apptypes.TournamentID) (*tournamentdomain.Tournament, error)

	// UpdateStatus transitions the tournament's status and clears or records
	// the last finalization error. Returns ErrNoRowsAffected when the
	// tournament does not exist.
	UpdateStatus(ctx context.Context, db bun.IDB, id apptypes.TournamentID, status tournamentdomain.Status, lastError string) error

	// InsertRound stores one completed round.
	InsertRound(ctx context.Context, db bun.IDB, round apptypes.Round) error

	// CompletedRoundsForSession returns a session's completed rounds.
	CompletedRoundsForSession(ctx context.Context, db bun.IDB, sessionID apptypes.SessionID) ([]apptypes.Round, error)

	// CompletedRoundsForTournament returns a tournament's completed rounds.
	CompletedRoundsForTournament(ctx context.Context, db bun.IDB, tournamentID apptypes.TournamentID) ([]apptypes.Round, error)

	// RoundByID returns one round or ErrNotFound.
	RoundByID(ctx context.Context, db bun.IDB, roundID apptypes.RoundID) (apptypes.Round, error)

	// ReplaceRankingRecords atomically swaps the tournament's ranking records
	// for the given set. Finalization regenerates records wholesale.
	ReplaceRankingRecords(ctx context.Context, db bun.IDB, tournamentID apptypes.TournamentID, records []tournamentdomain.RankingRecord) error

	// RankingRecords returns the stored ranking ordered by rank.
	RankingRecords(ctx context.Context, db bun.IDB, tournamentID apptypes.TournamentID) ([]tournamentdomain.RankingRecord, error)
}
