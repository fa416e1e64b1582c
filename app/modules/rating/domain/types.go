// Package ratingdomain defines the rating ledger's domain types. The ledger is
// the append-only source of truth for every player's rating; the mutable
// "current rating" on the player row is only ever a projection of it.
package ratingdomain

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	apptypes "github.com/Jasstafel-Club/jasstafel-bot/app/types"
)

// EventType classifies what produced a ledger entry.
type EventType string

const (
	EventTypeGame                EventType = "game"
	EventTypeTournamentRound     EventType = "tournament-round"
	EventTypeTournamentSummary   EventType = "tournament-summary"
	EventTypeManualRecalculation EventType = "manual-recalculation"
	EventTypeInitial             EventType = "initial"
)

// EventRef points at the scoring event behind a ledger entry. Exactly one of
// SessionID / TournamentID is set for game and tournament-round entries.
type EventRef struct {
	SessionID    *apptypes.SessionID    `json:"session_id,omitempty"`
	TournamentID *apptypes.TournamentID `json:"tournament_id,omitempty"`
	RoundID      *apptypes.RoundID      `json:"round_id,omitempty"`
	PassNumber   int                    `json:"pass_number,omitempty"`
}

// Key returns the stable event key used for duplicate detection. Two appends
// for the same (player, event) pair collide on this key.
func (r EventRef) Key() string {
	switch {
	case r.TournamentID != nil:
		return fmt.Sprintf("tournament:%s:pass:%d", r.TournamentID.String(), r.PassNumber)
	case r.SessionID != nil && r.RoundID != nil:
		return fmt.Sprintf("session:%s:round:%s", r.SessionID.String(), r.RoundID.String())
	case r.SessionID != nil:
		return fmt.Sprintf("session:%s", r.SessionID.String())
	default:
		return fmt.Sprintf("adhoc:%s", uuid.NewString())
	}
}

// Cumulative is the running-totals block carried forward entry to entry.
// Invariant: cumulative[n] = cumulative[n-1] + this entry's contribution.
type Cumulative struct {
	StricheDiff int `json:"striche_diff"`
	Wins        int `json:"wins"`
	Losses      int `json:"losses"`
	Points      int `json:"points"`
}

// Add returns the cumulative block advanced by one round's contribution.
func (c Cumulative) Add(o Cumulative) Cumulative {
	return Cumulative{
		StricheDiff: c.StricheDiff + o.StricheDiff,
		Wins:        c.Wins + o.Wins,
		Losses:      c.Losses + o.Losses,
		Points:      c.Points + o.Points,
	}
}

// RoundStats is the per-round derived statistics snapshot stored alongside a
// rating entry for downstream analytics. Missing optional round detail
// defaults to zero here and never fails the rating update.
type RoundStats struct {
	PointsDiff      int  `json:"points_diff"`
	StricheDiff     int  `json:"striche_diff"`
	Won             bool `json:"won"`
	MatchesMade     int  `json:"matches_made"`
	MatchesReceived int  `json:"matches_received"`
}

// LedgerEntry is one immutable record per player per scoring event.
type LedgerEntry struct {
	ID          uuid.UUID         `json:"id"`
	PlayerID    apptypes.PlayerID `json:"player_id"`
	EventType   EventType         `json:"event_type"`
	EventRef    EventRef          `json:"event_ref"`
	EventKey    string            `json:"event_key"`
	CompletedAt *time.Time        `json:"completed_at,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	Rating      apptypes.Rating   `json:"rating"`
	Delta       float64           `json:"delta"`
	GamesPlayed int               `json:"games_played"`
	Cumulative  Cumulative        `json:"cumulative"`
	RoundStats  *RoundStats       `json:"round_stats,omitempty"`
}

// EffectiveTime resolves the time the entry is ordered by: completion time
// first, creation time as fallback. ok is false when neither is usable; such
// entries are excluded from as-of queries.
func (e LedgerEntry) EffectiveTime() (time.Time, bool) {
	if e.CompletedAt != nil && !e.CompletedAt.IsZero() {
		return *e.CompletedAt, true
	}
	if !e.CreatedAt.IsZero() {
		return e.CreatedAt, true
	}
	return time.Time{}, false
}
