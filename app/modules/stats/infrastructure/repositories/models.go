// Package statsdb persists per-player statistics snapshots.
package statsdb

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	ratingdomain "github.com/Jasstafel-Club/jasstafel-bot/app/modules/rating/domain"
)

// StatSnapshot is the bun model backing stat_snapshots. One row per player per
// processed scoring event; rating runs append, charting reads.
type StatSnapshot struct {
	bun.BaseModel `bun:"table:stat_snapshots,alias:ss"`

	ID       uuid.UUID `bun:"id,pk,type:uuid"`
	PlayerID string    `bun:"player_id,notnull"`
	At       time.Time `bun:"at,notnull"`
	Rating   float64   `bun:"rating,notnull"`
	Delta    float64   `bun:"delta,notnull"`

	Cumulative ratingdomain.Cumulative `bun:"cumulative,type:jsonb"`

	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
}
