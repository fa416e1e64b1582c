package ledgerdb

import (
	"context"
	"time"

	"github.com/uptrace/bun"

	ratingdomain "github.com/Jasstafel-Club/jasstafel-bot/app/modules/rating/domain"
	apptypes "github.com/Jasstafel-Club/jasstafel-bot/app/types"
)

// Repository is the append-only rating ledger plus the current-rating
// projection. All methods accept a bun.IDB so callers can run them inside a
// transaction; nil falls back to the repository's own connection.
type Repository interface {
	// AppendEntry writes one immutable ledger entry. Returns
	// ErrDuplicateEntry when an entry for the same (player, event key)
	// already exists; existing entries are never overwritten.
	AppendEntry(ctx context.Context, db bun.IDB, entry ratingdomain.LedgerEntry) error

	// LatestEntryBefore returns the most recent entry strictly before the
	// given time, or the globally latest entry when at is nil. Ordering
	// uses the completion time with the creation-time fallback; every
	// stored entry has at least a creation time. Returns ErrNotFound when
	// nothing qualifies.
	LatestEntryBefore(ctx context.Context, db bun.IDB, playerID apptypes.PlayerID, at *time.Time) (*ratingdomain.LedgerEntry, error)

	// HasEntryForEvent reports whether an entry exists for the (player,
	// event key) pair. Used as the idempotency probe before reprocessing.
	HasEntryForEvent(ctx context.Context, db bun.IDB, playerID apptypes.PlayerID, eventKey string) (bool, error)

	// EntriesForPlayer returns all entries in chronological order.
	EntriesForPlayer(ctx context.Context, db bun.IDB, playerID apptypes.PlayerID) ([]ratingdomain.LedgerEntry, error)

	// EntryForTournamentPass returns the entry written for one tournament
	// pass, or ErrNotFound if rating processing has not covered it yet.
	EntryForTournamentPass(ctx context.Context, db bun.IDB, playerID apptypes.PlayerID, tournamentID apptypes.TournamentID, pass int) (*ratingdomain.LedgerEntry, error)

	// Trim deletes the oldest entries beyond maxEntries, preserving the
	// chronological contiguity of what remains. The newest entry is never
	// removed. Returns the number of deleted rows.
	Trim(ctx context.Context, db bun.IDB, playerID apptypes.PlayerID, maxEntries int) (int, error)

	// ProjectRating upserts the player's materialized current rating. Only
	// the append-then-project path calls this. Monotone on gamesPlayed: a
	// projection derived from fewer games never replaces one derived from
	// more.
	ProjectRating(ctx context.Context, db bun.IDB, playerID apptypes.PlayerID, rating apptypes.Rating, lastSessionDelta float64, gamesPlayed int) error

	// CurrentRating reads the materialized projection. Returns ErrNotFound
	// for players without one.
	CurrentRating(ctx context.Context, db bun.IDB, playerID apptypes.PlayerID) (apptypes.Rating, error)
}
