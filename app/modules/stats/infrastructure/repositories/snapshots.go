package statsdb

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	ratingservice "github.com/Jasstafel-Club/jasstafel-bot/app/modules/rating/application"
	apptypes "github.com/Jasstafel-Club/jasstafel-bot/app/types"
)

// Repository is the statistics snapshot store.
type Repository interface {
	// WriteSnapshot appends one snapshot row.
	WriteSnapshot(ctx context.Context, db bun.IDB, snap ratingservice.Snapshot) error

	// SnapshotsForPlayer returns a player's snapshots in chronological order.
	SnapshotsForPlayer(ctx context.Context, db bun.IDB, playerID apptypes.PlayerID) ([]ratingservice.Snapshot, error)
}

// SnapshotDBImpl is the bun-backed Repository. It also satisfies the rating
// module's SnapshotWriter, which is how rating runs hand snapshots over.
type SnapshotDBImpl struct {
	DB *bun.DB
}

var _ Repository = (*SnapshotDBImpl)(nil)
var _ ratingservice.SnapshotWriter = (*SnapshotDBImpl)(nil)

func (r *SnapshotDBImpl) idb(db bun.IDB) bun.IDB {
	if db != nil {
		return db
	}
	return r.DB
}

func (r *SnapshotDBImpl) WriteSnapshot(ctx context.Context, db bun.IDB, snap ratingservice.Snapshot) error {
	model := StatSnapshot{
		ID:         uuid.New(),
		PlayerID:   string(snap.PlayerID),
		At:         snap.At,
		Rating:     float64(snap.Rating),
		Delta:      snap.Delta,
		Cumulative: snap.Cumulative,
	}
	if _, err := r.idb(db).NewInsert().Model(&model).Exec(ctx); err != nil {
		return fmt.Errorf("failed to insert stat snapshot: %w", err)
	}
	return nil
}

func (r *SnapshotDBImpl) SnapshotsForPlayer(ctx context.Context, db bun.IDB, playerID apptypes.PlayerID) ([]ratingservice.Snapshot, error) {
	var models []StatSnapshot
	err := r.idb(db).NewSelect().
		Model(&models).
		Where("player_id = ?", string(playerID)).
		Order("at ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load stat snapshots: %w", err)
	}

	snaps := make([]ratingservice.Snapshot, 0, len(models))
	for _, m := range models {
		snaps = append(snaps, ratingservice.Snapshot{
			PlayerID:   apptypes.PlayerID(m.PlayerID),
			At:         m.At,
			Rating:     apptypes.Rating(m.Rating),
			Delta:      m.Delta,
			Cumulative: m.Cumulative,
		})
	}
	return snaps, nil
}
