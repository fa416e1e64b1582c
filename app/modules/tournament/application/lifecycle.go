package tournamentservice

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	tournamentdomain "github.com/Jasstafel-Club/jasstafel-bot/app/modules/tournament/domain"
	"github.com/Jasstafel-Club/jasstafel-bot/app/shared/attr"
	apptypes "github.com/Jasstafel-Club/jasstafel-bot/app/types"
)

// allowedTransitions is the tournament status machine. Completed tournaments
// can only be archived; archived is terminal.
var allowedTransitions = map[tournamentdomain.Status][]tournamentdomain.Status{
	tournamentdomain.StatusActive:    {tournamentdomain.StatusPaused, tournamentdomain.StatusCompleted},
	tournamentdomain.StatusPaused:    {tournamentdomain.StatusActive, tournamentdomain.StatusCompleted},
	tournamentdomain.StatusCompleted: {tournamentdomain.StatusArchived},
	tournamentdomain.StatusArchived:  nil,
}

func transitionAllowed(from, to tournamentdomain.Status) bool {
	for _, s := range allowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// CreateTournament registers a new tournament in active status.
func (s *TournamentService) CreateTournament(ctx context.Context, t tournamentdomain.Tournament) (tournamentdomain.Tournament, error) {
	if t.ID == (apptypes.TournamentID{}) {
		t.ID = apptypes.TournamentID(uuid.New())
	}
	t.Status = tournamentdomain.StatusActive
	t.CreatedAt = time.Now().UTC()

	if err := s.repo.CreateTournament(ctx, nil, t); err != nil {
		return tournamentdomain.Tournament{}, err
	}

	s.logger.InfoContext(ctx, "Created tournament",
		attr.TournamentID("tournament_id", t.ID),
		attr.String("topology", string(t.Topology)),
		attr.String("scoring", string(t.Scoring)),
	)
	return t, nil
}

// GetTournament returns a tournament by ID.
func (s *TournamentService) GetTournament(ctx context.Context, id apptypes.TournamentID) (*tournamentdomain.Tournament, error) {
	return s.repo.GetTournament(ctx, nil, id)
}

// RecordRound stores one completed round. Rounds are immutable once recorded.
func (s *TournamentService) RecordRound(ctx context.Context, round apptypes.Round) error {
	if round.ID == (apptypes.RoundID{}) {
		round.ID = apptypes.RoundID(uuid.New())
	}
	if round.CreatedAt.IsZero() {
		round.CreatedAt = time.Now().UTC()
	}
	return s.repo.InsertRound(ctx, nil, round)
}

// Transition moves the tournament to a new lifecycle status, enforcing the
// status machine.
func (s *TournamentService) Transition(ctx context.Context, id apptypes.TournamentID, to tournamentdomain.Status) error {
	t, err := s.repo.GetTournament(ctx, nil, id)
	if err != nil {
		return err
	}

	if !transitionAllowed(t.Status, to) {
		return fmt.Errorf("cannot transition tournament %s from %s to %s", id, t.Status, to)
	}

	if err := s.repo.UpdateStatus(ctx, nil, id, to, t.LastError); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "Tournament status changed",
		attr.TournamentID("tournament_id", id),
		attr.String("from", string(t.Status)),
		attr.String("to", string(to)),
	)
	return nil
}
