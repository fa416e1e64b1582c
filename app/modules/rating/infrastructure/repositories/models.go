package ledgerdb

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	ratingdomain "github.com/Jasstafel-Club/jasstafel-bot/app/modules/rating/domain"
	apptypes "github.com/Jasstafel-Club/jasstafel-bot/app/types"
)

// LedgerEntry is the bun model backing rating_ledger_entries. Rows are never
// updated or deleted outside of Trim.
type LedgerEntry struct {
	bun.BaseModel `bun:"table:rating_ledger_entries,alias:rle"`

	ID           uuid.UUID  `bun:"id,pk,type:uuid"`
	PlayerID     string     `bun:"player_id,notnull"`
	EventType    string     `bun:"event_type,notnull"`
	EventKey     string     `bun:"event_key,notnull"`
	SessionID    *uuid.UUID `bun:"session_id,type:uuid"`
	TournamentID *uuid.UUID `bun:"tournament_id,type:uuid"`
	RoundID      *uuid.UUID `bun:"round_id,type:uuid"`
	PassNumber   int        `bun:"pass_number"`
	CompletedAt  *time.Time `bun:"completed_at,nullzero"`
	CreatedAt    time.Time  `bun:"created_at,notnull,default:current_timestamp"`
	Rating       float64    `bun:"rating,notnull"`
	Delta        float64    `bun:"delta,notnull"`
	GamesPlayed  int        `bun:"games_played,notnull"`

	CumStricheDiff int `bun:"cum_striche_diff,notnull"`
	CumWins        int `bun:"cum_wins,notnull"`
	CumLosses      int `bun:"cum_losses,notnull"`
	CumPoints      int `bun:"cum_points,notnull"`

	RoundStats *ratingdomain.RoundStats `bun:"round_stats,type:jsonb,nullzero"`
}

// PlayerRating is the materialized current-rating projection. It is only ever
// written through the append-then-project path, never independently.
type PlayerRating struct {
	bun.BaseModel `bun:"table:player_ratings,alias:pr"`

	PlayerID         string    `bun:"player_id,pk"`
	CurrentRating    float64   `bun:"current_rating,notnull"`
	LastSessionDelta float64   `bun:"last_session_delta,notnull"`
	GamesPlayed      int       `bun:"games_played,notnull"`
	UpdatedAt        time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

func toModel(e ratingdomain.LedgerEntry) LedgerEntry {
	m := LedgerEntry{
		ID:             e.ID,
		PlayerID:       string(e.PlayerID),
		EventType:      string(e.EventType),
		EventKey:       e.EventKey,
		PassNumber:     e.EventRef.PassNumber,
		CompletedAt:    e.CompletedAt,
		CreatedAt:      e.CreatedAt,
		Rating:         float64(e.Rating),
		Delta:          e.Delta,
		GamesPlayed:    e.GamesPlayed,
		CumStricheDiff: e.Cumulative.StricheDiff,
		CumWins:        e.Cumulative.Wins,
		CumLosses:      e.Cumulative.Losses,
		CumPoints:      e.Cumulative.Points,
		RoundStats:     e.RoundStats,
	}
	if e.EventRef.SessionID != nil {
		id := uuid.UUID(*e.EventRef.SessionID)
		m.SessionID = &id
	}
	if e.EventRef.TournamentID != nil {
		id := uuid.UUID(*e.EventRef.TournamentID)
		m.TournamentID = &id
	}
	if e.EventRef.RoundID != nil {
		id := uuid.UUID(*e.EventRef.RoundID)
		m.RoundID = &id
	}
	return m
}

func toDomain(m LedgerEntry) ratingdomain.LedgerEntry {
	e := ratingdomain.LedgerEntry{
		ID:          m.ID,
		PlayerID:    apptypes.PlayerID(m.PlayerID),
		EventType:   ratingdomain.EventType(m.EventType),
		EventKey:    m.EventKey,
		CompletedAt: m.CompletedAt,
		CreatedAt:   m.CreatedAt,
		Rating:      apptypes.Rating(m.Rating),
		Delta:       m.Delta,
		GamesPlayed: m.GamesPlayed,
		Cumulative: ratingdomain.Cumulative{
			StricheDiff: m.CumStricheDiff,
			Wins:        m.CumWins,
			Losses:      m.CumLosses,
			Points:      m.CumPoints,
		},
		RoundStats: m.RoundStats,
	}
	e.EventRef.PassNumber = m.PassNumber
	if m.SessionID != nil {
		id := apptypes.SessionID(*m.SessionID)
		e.EventRef.SessionID = &id
	}
	if m.TournamentID != nil {
		id := apptypes.TournamentID(*m.TournamentID)
		e.EventRef.TournamentID = &id
	}
	if m.RoundID != nil {
		id := apptypes.RoundID(*m.RoundID)
		e.EventRef.RoundID = &id
	}
	return e
}
