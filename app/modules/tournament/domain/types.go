// Package tournamentdomain defines the tournament lifecycle and ranking types.
package tournamentdomain

import (
	"time"

	apptypes "github.com/Jasstafel-Club/jasstafel-bot/app/types"
)

// Status is the tournament lifecycle state.
// active -> (paused <-> active) -> completed -> archived.
type Status string

const (
	StatusActive    Status = "active"
	StatusPaused    Status = "paused"
	StatusCompleted Status = "completed"
	StatusArchived  Status = "archived"
)

// CanFinalize reports whether finalization may be attempted from this status.
// Archived is terminal; everything else is fair game, paused included, so a
// pause never blocks eventual finalization.
func (s Status) CanFinalize() bool {
	return s != StatusArchived
}

// TopologyMode controls what the ranking entity is.
type TopologyMode string

const (
	// TopologySingle ranks individual players; pairings may change every round.
	TopologySingle TopologyMode = "single"
	// TopologyDoubles ranks declared fixed two-player teams.
	TopologyDoubles TopologyMode = "doubles"
	// TopologyGroupVsGroup ranks declared groups of arbitrary size.
	TopologyGroupVsGroup TopologyMode = "group_vs_group"
)

// ScoringMode selects the primary ranking metric.
type ScoringMode string

const (
	ScoringTotalPoints ScoringMode = "total_points"
	ScoringStriche     ScoringMode = "striche"
	ScoringStricheDiff ScoringMode = "striche_difference"
	ScoringPointsDiff  ScoringMode = "points_difference"
)

// DeclaredTeam is a fixed two-player team in doubles mode.
type DeclaredTeam struct {
	Name    string              `json:"name"`
	Players []apptypes.PlayerID `json:"players"`
}

// DeclaredGroup is a fixed arbitrary-size group in group-vs-group mode.
type DeclaredGroup struct {
	Name    string              `json:"name"`
	Players []apptypes.PlayerID `json:"players"`
}

// Tournament is an ordered sequence of rounds under one topology and scoring
// configuration. LastError records the most recent finalization failure
// without blocking re-attempts.
type Tournament struct {
	ID           apptypes.TournamentID
	GroupID      apptypes.GroupID
	Name         string
	Status       Status
	Topology     TopologyMode
	Scoring      ScoringMode
	Participants []apptypes.PlayerID
	Teams        []DeclaredTeam
	Groups       []DeclaredGroup
	LastError    string
	CreatedAt    time.Time
	CompletedAt  *time.Time
}

// EntityKind tags what a ranking entity is.
type EntityKind string

const (
	EntityPlayer EntityKind = "player"
	EntityTeam   EntityKind = "team"
	EntityGroup  EntityKind = "group"
)

// RankingEntity is the unit being ranked: a player, a declared team, or a
// declared group. One tagged variant consumed by a single generic aggregation
// routine; the per-kind difference is confined to the membership test.
type RankingEntity struct {
	Kind    EntityKind          `json:"kind"`
	Key     string              `json:"key"`
	Members []apptypes.PlayerID `json:"members"`
}

// Totals is the accumulated scoring block of one ranking entity.
type Totals struct {
	PointsFor       int `json:"points_for"`
	PointsAgainst   int `json:"points_against"`
	StricheFor      int `json:"striche_for"`
	StricheAgainst  int `json:"striche_against"`
	GamesPlayed     int `json:"games_played"`
	Wins            int `json:"wins"`
	Losses          int `json:"losses"`
	Draws           int `json:"draws"`
	MatchesMade     int `json:"matches_made"`
	MatchesReceived int `json:"matches_received"`
}

// PointsDiff is the accumulated point differential.
func (t Totals) PointsDiff() int { return t.PointsFor - t.PointsAgainst }

// StricheDiff is the accumulated stroke differential.
func (t Totals) StricheDiff() int { return t.StricheFor - t.StricheAgainst }

// RoundResult is one entry of a participant's per-round trail. RatingAfter is
// joined from the rating ledger by pass number and stays nil when rating
// processing has not covered the round; zero is a valid rating delta and must
// not be confused with unknown.
type RoundResult struct {
	PassNumber     int                 `json:"pass_number"`
	Participated   bool                `json:"participated"`
	Teammates      []apptypes.PlayerID `json:"teammates,omitempty"`
	Opponents      []apptypes.PlayerID `json:"opponents,omitempty"`
	PointsDiff     int                 `json:"points_diff"`
	StricheDiff    int                 `json:"striche_diff"`
	CumulativeDiff int                 `json:"cumulative_diff"`
	RatingAfter    *apptypes.Rating    `json:"rating_after,omitempty"`
}

// RankingRecord is one participant's record of a finalized tournament. Rank
// and totals belong to the participant's ranking entity, so in doubles and
// group modes every member of an entity shares them; the round trail is the
// participant's own. Ties share a rank and the next distinct value skips
// accordingly (1, 1, 3).
type RankingRecord struct {
	TournamentID apptypes.TournamentID `json:"tournament_id"`
	PlayerID     apptypes.PlayerID     `json:"player_id"`
	Entity       RankingEntity         `json:"entity"`
	Rank         int                   `json:"rank"`
	Totals       Totals                `json:"totals"`
	RoundResults []RoundResult         `json:"round_results"`
	CreatedAt    time.Time             `json:"created_at"`
}
