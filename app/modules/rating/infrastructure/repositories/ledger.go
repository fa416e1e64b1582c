package ledgerdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	ratingdomain "github.com/Jasstafel-Club/jasstafel-bot/app/modules/rating/domain"
	apptypes "github.com/Jasstafel-Club/jasstafel-bot/app/types"
)

// LedgerDBImpl implements Repository on Postgres via bun.
type LedgerDBImpl struct {
	DB *bun.DB
}

func (r *LedgerDBImpl) idb(db bun.IDB) bun.IDB {
	if db != nil {
		return db
	}
	return r.DB
}

func (r *LedgerDBImpl) AppendEntry(ctx context.Context, db bun.IDB, entry ratingdomain.LedgerEntry) error {
	model := toModel(entry)

	res, err := r.idb(db).NewInsert().
		Model(&model).
		On("CONFLICT (player_id, event_key) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to append ledger entry for player %s: %w", entry.PlayerID, err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read append result for player %s: %w", entry.PlayerID, err)
	}
	if rows == 0 {
		return ErrDuplicateEntry
	}
	return nil
}

// LatestEntryBefore resolves the newest entry strictly before the instant,
// ordered by completion time with the created-at fallback. Every row has an
// effective time: created_at is NOT NULL with a default, so an entry lacking
// both timestamps cannot exist in the store.
func (r *LedgerDBImpl) LatestEntryBefore(ctx context.Context, db bun.IDB, playerID apptypes.PlayerID, at *time.Time) (*ratingdomain.LedgerEntry, error) {
	var model LedgerEntry

	q := r.idb(db).NewSelect().
		Model(&model).
		Where("player_id = ?", string(playerID)).
		OrderExpr("COALESCE(completed_at, created_at) DESC").
		Limit(1)

	if at != nil {
		q = q.Where("COALESCE(completed_at, created_at) < ?", *at)
	}

	if err := q.Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to resolve ledger entry for player %s: %w", playerID, err)
	}

	entry := toDomain(model)
	return &entry, nil
}

func (r *LedgerDBImpl) HasEntryForEvent(ctx context.Context, db bun.IDB, playerID apptypes.PlayerID, eventKey string) (bool, error) {
	exists, err := r.idb(db).NewSelect().
		Model((*LedgerEntry)(nil)).
		Where("player_id = ?", string(playerID)).
		Where("event_key = ?", eventKey).
		Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to probe ledger entry for player %s event %s: %w", playerID, eventKey, err)
	}
	return exists, nil
}

func (r *LedgerDBImpl) EntriesForPlayer(ctx context.Context, db bun.IDB, playerID apptypes.PlayerID) ([]ratingdomain.LedgerEntry, error) {
	var models []LedgerEntry

	err := r.idb(db).NewSelect().
		Model(&models).
		Where("player_id = ?", string(playerID)).
		OrderExpr("COALESCE(completed_at, created_at) ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch ledger entries for player %s: %w", playerID, err)
	}

	entries := make([]ratingdomain.LedgerEntry, 0, len(models))
	for _, m := range models {
		entries = append(entries, toDomain(m))
	}
	return entries, nil
}

func (r *LedgerDBImpl) EntryForTournamentPass(ctx context.Context, db bun.IDB, playerID apptypes.PlayerID, tournamentID apptypes.TournamentID, pass int) (*ratingdomain.LedgerEntry, error) {
	var model LedgerEntry

	err := r.idb(db).NewSelect().
		Model(&model).
		Where("player_id = ?", string(playerID)).
		Where("tournament_id = ?", tournamentID.String()).
		Where("pass_number = ?", pass).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch tournament pass entry for player %s: %w", playerID, err)
	}

	entry := toDomain(model)
	return &entry, nil
}

func (r *LedgerDBImpl) Trim(ctx context.Context, db bun.IDB, playerID apptypes.PlayerID, maxEntries int) (int, error) {
	// The entry nearest to "now" must always survive.
	if maxEntries < 1 {
		maxEntries = 1
	}

	idb := r.idb(db)

	victims := idb.NewSelect().
		Model((*LedgerEntry)(nil)).
		Column("id").
		Where("player_id = ?", string(playerID)).
		OrderExpr("COALESCE(completed_at, created_at) DESC").
		Offset(maxEntries)

	res, err := idb.NewDelete().
		Model((*LedgerEntry)(nil)).
		Where("player_id = ?", string(playerID)).
		Where("id IN (?)", victims).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to trim ledger for player %s: %w", playerID, err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read trim result for player %s: %w", playerID, err)
	}
	return int(rows), nil
}

// ProjectRating upserts the current-rating projection. Monotone on
// games_played: a state derived from fewer games never overwrites a
// projection derived from more, so a late-delivered earlier round cannot
// roll the projection back.
func (r *LedgerDBImpl) ProjectRating(ctx context.Context, db bun.IDB, playerID apptypes.PlayerID, rating apptypes.Rating, lastSessionDelta float64, gamesPlayed int) error {
	projection := PlayerRating{
		PlayerID:         string(playerID),
		CurrentRating:    float64(rating),
		LastSessionDelta: lastSessionDelta,
		GamesPlayed:      gamesPlayed,
		UpdatedAt:        time.Now().UTC(),
	}

	_, err := r.idb(db).NewInsert().
		Model(&projection).
		On("CONFLICT (player_id) DO UPDATE").
		Set("current_rating = EXCLUDED.current_rating").
		Set("last_session_delta = EXCLUDED.last_session_delta").
		Set("games_played = EXCLUDED.games_played").
		Set("updated_at = EXCLUDED.updated_at").
		Where("player_ratings.games_played < EXCLUDED.games_played").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to project rating for player %s: %w", playerID, err)
	}
	return nil
}

func (r *LedgerDBImpl) CurrentRating(ctx context.Context, db bun.IDB, playerID apptypes.PlayerID) (apptypes.Rating, error) {
	var projection PlayerRating

	err := r.idb(db).NewSelect().
		Model(&projection).
		Where("player_id = ?", string(playerID)).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("failed to fetch current rating for player %s: %w", playerID, err)
	}
	return apptypes.Rating(projection.CurrentRating), nil
}
