// Package tournamentdb persists tournaments, rounds and ranking records.
package tournamentdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	tournamentdomain "github.com/Jasstafel-Club/jasstafel-bot/app/modules/tournament/domain"
	apptypes "github.com/Jasstafel-Club/jasstafel-bot/app/types"
)

// TournamentDBImpl implements Repository on Postgres via bun.
type TournamentDBImpl struct {
	DB *bun.DB
}

func (r *TournamentDBImpl) idb(db bun.IDB) bun.IDB {
	if db != nil {
		return db
	}
	return r.DB
}

func (r *TournamentDBImpl) CreateTournament(ctx context.Context, db bun.IDB, t tournamentdomain.Tournament) error {
	model := toTournamentModel(t)
	if model.CreatedAt.IsZero() {
		model.CreatedAt = time.Now().UTC()
	}

	if _, err := r.idb(db).NewInsert().Model(&model).Exec(ctx); err != nil {
		return fmt.Errorf("failed to create tournament %s: %w", t.ID, err)
	}
	return nil
}

func (r *TournamentDBImpl) GetTournament(ctx context.Context, db bun.IDB, id apptypes.TournamentID) (*tournamentdomain.Tournament, error) {
	var model Tournament

	err := r.idb(db).NewSelect().
		Model(&model).
		Where("id = ?", id.String()).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch tournament %s: %w", id, err)
	}

	t := toTournamentDomain(model)
	return &t, nil
}

func (r *TournamentDBImpl) UpdateStatus(ctx context.Context, db bun.IDB, id apptypes.TournamentID, status tournamentdomain.Status, lastError string) error {
	q := r.idb(db).NewUpdate().
		Model((*Tournament)(nil)).
		Set("status = ?", string(status)).
		Set("last_error = ?", lastError).
		Where("id = ?", id.String())

	if status == tournamentdomain.StatusCompleted {
		q = q.Set("completed_at = ?", time.Now().UTC())
	}

	res, err := q.Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update tournament %s status: %w", id, err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read status update result for tournament %s: %w", id, err)
	}
	if rows == 0 {
		return ErrNoRowsAffected
	}
	return nil
}

func (r *TournamentDBImpl) InsertRound(ctx context.Context, db bun.IDB, round apptypes.Round) error {
	model := toRoundModel(round)
	if model.CreatedAt.IsZero() {
		model.CreatedAt = time.Now().UTC()
	}

	if _, err := r.idb(db).NewInsert().Model(&model).Exec(ctx); err != nil {
		return fmt.Errorf("failed to insert round %s: %w", round.ID, err)
	}
	return nil
}

func (r *TournamentDBImpl) CompletedRoundsForSession(ctx context.Context, db bun.IDB, sessionID apptypes.SessionID) ([]apptypes.Round, error) {
	var models []Round

	err := r.idb(db).NewSelect().
		Model(&models).
		Where("session_id = ?", sessionID.String()).
		Where("completed_at IS NOT NULL").
		OrderExpr("COALESCE(completed_at, created_at) ASC, sequence_no ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch rounds for session %s: %w", sessionID, err)
	}

	return toRoundDomains(models), nil
}

func (r *TournamentDBImpl) CompletedRoundsForTournament(ctx context.Context, db bun.IDB, tournamentID apptypes.TournamentID) ([]apptypes.Round, error) {
	var models []Round

	err := r.idb(db).NewSelect().
		Model(&models).
		Where("tournament_id = ?", tournamentID.String()).
		Where("completed_at IS NOT NULL").
		OrderExpr("COALESCE(completed_at, created_at) ASC, pass_number ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch rounds for tournament %s: %w", tournamentID, err)
	}

	return toRoundDomains(models), nil
}

func (r *TournamentDBImpl) RoundByID(ctx context.Context, db bun.IDB, roundID apptypes.RoundID) (apptypes.Round, error) {
	var model Round

	err := r.idb(db).NewSelect().
		Model(&model).
		Where("id = ?", roundID.String()).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apptypes.Round{}, ErrNotFound
		}
		return apptypes.Round{}, fmt.Errorf("failed to fetch round %s: %w", roundID, err)
	}

	return toRoundDomain(model), nil
}

// ReplaceRankingRecords deletes and reinserts inside the caller's transaction
// so a re-finalization never leaves a partially patched ranking behind.
func (r *TournamentDBImpl) ReplaceRankingRecords(ctx context.Context, db bun.IDB, tournamentID apptypes.TournamentID, records []tournamentdomain.RankingRecord) error {
	idb := r.idb(db)

	if _, err := idb.NewDelete().
		Model((*RankingRecord)(nil)).
		Where("tournament_id = ?", tournamentID.String()).
		Exec(ctx); err != nil {
		return fmt.Errorf("failed to clear ranking records for tournament %s: %w", tournamentID, err)
	}

	if len(records) == 0 {
		return nil
	}

	models := make([]RankingRecord, 0, len(records))
	for _, rec := range records {
		models = append(models, toRecordModel(rec))
	}

	if _, err := idb.NewInsert().Model(&models).Exec(ctx); err != nil {
		return fmt.Errorf("failed to insert ranking records for tournament %s: %w", tournamentID, err)
	}
	return nil
}

func (r *TournamentDBImpl) RankingRecords(ctx context.Context, db bun.IDB, tournamentID apptypes.TournamentID) ([]tournamentdomain.RankingRecord, error) {
	var models []RankingRecord

	err := r.idb(db).NewSelect().
		Model(&models).
		Where("tournament_id = ?", tournamentID.String()).
		OrderExpr("rank ASC, entity_key ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch ranking records for tournament %s: %w", tournamentID, err)
	}

	records := make([]tournamentdomain.RankingRecord, 0, len(models))
	for _, m := range models {
		records = append(records, toRecordDomain(m))
	}
	return records, nil
}

func toRoundDomains(models []Round) []apptypes.Round {
	rounds := make([]apptypes.Round, 0, len(models))
	for _, m := range models {
		rounds = append(rounds, toRoundDomain(m))
	}
	return rounds
}
