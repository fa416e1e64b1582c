package tournamentdb

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	tournamentdomain "github.com/Jasstafel-Club/jasstafel-bot/app/modules/tournament/domain"
	apptypes "github.com/Jasstafel-Club/jasstafel-bot/app/types"
)

// Tournament is the bun model backing tournaments.
type Tournament struct {
	bun.BaseModel `bun:"table:tournaments,alias:t"`

	ID           uuid.UUID                       `bun:"id,pk,type:uuid"`
	GroupID      string                          `bun:"group_id,notnull"`
	Name         string                          `bun:"name,notnull"`
	Status       string                          `bun:"status,notnull"`
	Topology     string                          `bun:"topology,notnull"`
	Scoring      string                          `bun:"scoring,notnull"`
	Participants []string                        `bun:"participants,type:jsonb"`
	Teams        []tournamentdomain.DeclaredTeam  `bun:"teams,type:jsonb,nullzero"`
	Groups       []tournamentdomain.DeclaredGroup `bun:"groups,type:jsonb,nullzero"`
	LastError    string                          `bun:"last_error"`
	CreatedAt    time.Time                       `bun:"created_at,notnull,default:current_timestamp"`
	CompletedAt  *time.Time                      `bun:"completed_at,nullzero"`
}

// Round is the bun model backing rounds. One table serves both session rounds
// (session_id set, pass_number 0) and tournament passes (tournament_id +
// pass_number set). Rows are immutable once completed.
type Round struct {
	bun.BaseModel `bun:"table:rounds,alias:r"`

	ID           uuid.UUID          `bun:"id,pk,type:uuid"`
	SessionID    *uuid.UUID         `bun:"session_id,type:uuid"`
	TournamentID *uuid.UUID         `bun:"tournament_id,type:uuid"`
	PassNumber   int                `bun:"pass_number"`
	TeamA        apptypes.TeamSide  `bun:"team_a,type:jsonb,notnull"`
	TeamB        apptypes.TeamSide  `bun:"team_b,type:jsonb,notnull"`
	CompletedAt  *time.Time         `bun:"completed_at,nullzero"`
	CreatedAt    time.Time          `bun:"created_at,notnull,default:current_timestamp"`
	SequenceNo   int                `bun:"sequence_no,notnull"`
}

// RankingRecord is the bun model backing tournament_ranking_records. Records
// are regenerated wholesale on re-finalization, never patched.
type RankingRecord struct {
	bun.BaseModel `bun:"table:tournament_ranking_records,alias:trr"`

	ID           uuid.UUID                      `bun:"id,pk,type:uuid"`
	TournamentID uuid.UUID                      `bun:"tournament_id,notnull,type:uuid"`
	PlayerID     string                         `bun:"player_id,notnull"`
	EntityKind   string                         `bun:"entity_kind,notnull"`
	EntityKey    string                         `bun:"entity_key,notnull"`
	Members      []string                       `bun:"members,type:jsonb"`
	Rank         int                            `bun:"rank,notnull"`
	Totals       tournamentdomain.Totals        `bun:"totals,type:jsonb,notnull"`
	RoundResults []tournamentdomain.RoundResult `bun:"round_results,type:jsonb,nullzero"`
	CreatedAt    time.Time                      `bun:"created_at,notnull,default:current_timestamp"`
}

func toTournamentModel(t tournamentdomain.Tournament) Tournament {
	return Tournament{
		ID:           uuid.UUID(t.ID),
		GroupID:      string(t.GroupID),
		Name:         t.Name,
		Status:       string(t.Status),
		Topology:     string(t.Topology),
		Scoring:      string(t.Scoring),
		Participants: playerIDsToStrings(t.Participants),
		Teams:        t.Teams,
		Groups:       t.Groups,
		LastError:    t.LastError,
		CreatedAt:    t.CreatedAt,
		CompletedAt:  t.CompletedAt,
	}
}

func toTournamentDomain(m Tournament) tournamentdomain.Tournament {
	return tournamentdomain.Tournament{
		ID:           apptypes.TournamentID(m.ID),
		GroupID:      apptypes.GroupID(m.GroupID),
		Name:         m.Name,
		Status:       tournamentdomain.Status(m.Status),
		Topology:     tournamentdomain.TopologyMode(m.Topology),
		Scoring:      tournamentdomain.ScoringMode(m.Scoring),
		Participants: stringsToPlayerIDs(m.Participants),
		Teams:        m.Teams,
		Groups:       m.Groups,
		LastError:    m.LastError,
		CreatedAt:    m.CreatedAt,
		CompletedAt:  m.CompletedAt,
	}
}

func toRoundModel(r apptypes.Round) Round {
	m := Round{
		ID:          uuid.UUID(r.ID),
		PassNumber:  r.PassNumber,
		TeamA:       r.TeamA,
		TeamB:       r.TeamB,
		CompletedAt: r.CompletedAt,
		CreatedAt:   r.CreatedAt,
		SequenceNo:  r.SequenceNo,
	}
	if r.SessionID != nil {
		id := uuid.UUID(*r.SessionID)
		m.SessionID = &id
	}
	if r.TournamentID != nil {
		id := uuid.UUID(*r.TournamentID)
		m.TournamentID = &id
	}
	return m
}

func toRoundDomain(m Round) apptypes.Round {
	r := apptypes.Round{
		ID:          apptypes.RoundID(m.ID),
		PassNumber:  m.PassNumber,
		TeamA:       m.TeamA,
		TeamB:       m.TeamB,
		CompletedAt: m.CompletedAt,
		CreatedAt:   m.CreatedAt,
		SequenceNo:  m.SequenceNo,
	}
	if m.SessionID != nil {
		id := apptypes.SessionID(*m.SessionID)
		r.SessionID = &id
	}
	if m.TournamentID != nil {
		id := apptypes.TournamentID(*m.TournamentID)
		r.TournamentID = &id
	}
	return r
}

func toRecordModel(rec tournamentdomain.RankingRecord) RankingRecord {
	return RankingRecord{
		ID:           uuid.New(),
		TournamentID: uuid.UUID(rec.TournamentID),
		PlayerID:     string(rec.PlayerID),
		EntityKind:   string(rec.Entity.Kind),
		EntityKey:    rec.Entity.Key,
		Members:      playerIDsToStrings(rec.Entity.Members),
		Rank:         rec.Rank,
		Totals:       rec.Totals,
		RoundResults: rec.RoundResults,
		CreatedAt:    rec.CreatedAt,
	}
}

func toRecordDomain(m RankingRecord) tournamentdomain.RankingRecord {
	return tournamentdomain.RankingRecord{
		TournamentID: apptypes.TournamentID(m.TournamentID),
		PlayerID:     apptypes.PlayerID(m.PlayerID),
		Entity: tournamentdomain.RankingEntity{
			Kind:    tournamentdomain.EntityKind(m.EntityKind),
			Key:     m.EntityKey,
			Members: stringsToPlayerIDs(m.Members),
		},
		Rank:         m.Rank,
		Totals:       m.Totals,
		RoundResults: m.RoundResults,
		CreatedAt:    m.CreatedAt,
	}
}

func playerIDsToStrings(ids []apptypes.PlayerID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, string(id))
	}
	return out
}

func stringsToPlayerIDs(ids []string) []apptypes.PlayerID {
	out := make([]apptypes.PlayerID, 0, len(ids))
	for _, id := range ids {
		out = append(out, apptypes.PlayerID(id))
	}
	return out
}
