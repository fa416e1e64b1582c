package apptypes

import (
	"time"

	"github.com/google/uuid"
)

// GroupID identifies a Jass group (the league a table of players belongs to).
type GroupID string

// PlayerID is the stable participant identifier. It is distinct from any
// authentication identity; profile management owns the mapping.
type PlayerID string

// SessionID identifies one scoring session (an evening at the table).
type SessionID uuid.UUID

// TournamentID identifies a multi-pass tournament.
type TournamentID uuid.UUID

// RoundID identifies one completed round ("Passe") inside a session or tournament.
type RoundID uuid.UUID

// Rating is an Elo-style skill value.
type Rating float64

func (id SessionID) String() string    { return uuid.UUID(id).String() }
func (id TournamentID) String() string { return uuid.UUID(id).String() }
func (id RoundID) String() string      { return uuid.UUID(id).String() }

// StricheTally holds the five stroke counters a team can collect in one round.
type StricheTally struct {
	Sieg        int `json:"sieg"`
	Berg        int `json:"berg"`
	Schneider   int `json:"schneider"`
	Match       int `json:"match"`
	Kontermatch int `json:"kontermatch"`
}

// StricheConfig controls which stroke categories count toward the stroke total.
// Sieg, Match and Kontermatch always count; Berg and Schneider only when the
// group has them enabled.
type StricheConfig struct {
	BergEnabled      bool `json:"berg_enabled" yaml:"berg_enabled"`
	SchneiderEnabled bool `json:"schneider_enabled" yaml:"schneider_enabled"`
}

// Total sums the scored-enabled counters.
func (t StricheTally) Total(cfg StricheConfig) int {
	total := t.Sieg + t.Match + t.Kontermatch
	if cfg.BergEnabled {
		total += t.Berg
	}
	if cfg.SchneiderEnabled {
		total += t.Schneider
	}
	return total
}

// Add returns the element-wise sum of two tallies.
func (t StricheTally) Add(o StricheTally) StricheTally {
	return StricheTally{
		Sieg:        t.Sieg + o.Sieg,
		Berg:        t.Berg + o.Berg,
		Schneider:   t.Schneider + o.Schneider,
		Match:       t.Match + o.Match,
		Kontermatch: t.Kontermatch + o.Kontermatch,
	}
}

// TeamSide is one side of a round: its players, final points and strokes.
type TeamSide struct {
	Players       []PlayerID   `json:"players"`
	Points        int          `json:"points"`
	Striche       StricheTally `json:"striche"`
	Matches       int          `json:"matches"`
	Kontermatches int          `json:"kontermatches"`
}

// HasPlayer reports whether the side contains the given player.
func (s TeamSide) HasPlayer(id PlayerID) bool {
	for _, p := range s.Players {
		if p == id {
			return true
		}
	}
	return false
}

// Round is one completed unit of play between two fixed teams. Immutable once
// created; a correction pass may attach missing derived match counts but never
// alters values already present.
type Round struct {
	ID           RoundID       `json:"id"`
	TournamentID *TournamentID `json:"tournament_id,omitempty"`
	SessionID    *SessionID    `json:"session_id,omitempty"`
	PassNumber   int           `json:"pass_number"`
	TeamA        TeamSide      `json:"team_a"`
	TeamB        TeamSide      `json:"team_b"`
	CompletedAt  *time.Time    `json:"completed_at,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
	SequenceNo   int           `json:"sequence_no"`
}

// Players returns all participants of the round, team A first.
func (r Round) Players() []PlayerID {
	out := make([]PlayerID, 0, len(r.TeamA.Players)+len(r.TeamB.Players))
	out = append(out, r.TeamA.Players...)
	out = append(out, r.TeamB.Players...)
	return out
}
