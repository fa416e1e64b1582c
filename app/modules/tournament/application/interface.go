package tournamentservice

import (
	"context"

	tournamentdomain "github.com/Jasstafel-Club/jasstafel-bot/app/modules/tournament/domain"
	apptypes "github.com/Jasstafel-Club/jasstafel-bot/app/types"
)

// Service is the tournament module's service interface.
type Service interface {
	// CreateTournament registers a new tournament in active status.
	CreateTournament(ctx context.Context, t tournamentdomain.Tournament) (tournamentdomain.Tournament, error)

	// GetTournament returns a tournament by ID.
	GetTournament(ctx context.Context, id apptypes.TournamentID) (*tournamentdomain.Tournament, error)

	// RecordRound stores one completed round.
	RecordRound(ctx context.Context, round apptypes.Round) error

	// Transition moves the tournament through its lifecycle status machine.
	Transition(ctx context.Context, id apptypes.TournamentID, to tournamentdomain.Status) error

	// FinalizeTournament aggregates rounds into the ranking and completes the
	// tournament. Idempotent for duplicate triggers.
	FinalizeTournament(ctx context.Context, tournamentID apptypes.TournamentID) (FinalizeResult, error)

	// Ranking returns the stored ranking records.
	Ranking(ctx context.Context, tournamentID apptypes.TournamentID) ([]tournamentdomain.RankingRecord, error)

	// ExportRankingXLSX renders the ranking as a spreadsheet.
	ExportRankingXLSX(ctx context.Context, tournamentID apptypes.TournamentID) ([]byte, error)
}

var _ Service = (*TournamentService)(nil)
