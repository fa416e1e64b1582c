package ratingmigrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	ledgerdb "github.com/Jasstafel-Club/jasstafel-bot/app/modules/rating/infrastructure/repositories"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Creating rating ledger tables...")

		return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			if _, err := tx.NewCreateTable().Model((*ledgerdb.LedgerEntry)(nil)).IfNotExists().Exec(ctx); err != nil {
				return fmt.Errorf("failed to create rating_ledger_entries: %w", err)
			}
			if _, err := tx.NewCreateTable().Model((*ledgerdb.PlayerRating)(nil)).IfNotExists().Exec(ctx); err != nil {
				return fmt.Errorf("failed to create player_ratings: %w", err)
			}

			// Duplicate event processing must be detectable, not silently merged.
			if _, err := tx.ExecContext(ctx, `
				CREATE UNIQUE INDEX IF NOT EXISTS idx_rating_ledger_player_event
				ON rating_ledger_entries(player_id, event_key);
			`); err != nil {
				return fmt.Errorf("failed to add unique event index: %w", err)
			}

			if _, err := tx.ExecContext(ctx, `
				CREATE INDEX IF NOT EXISTS idx_rating_ledger_player_time
				ON rating_ledger_entries(player_id, COALESCE(completed_at, created_at) DESC);
			`); err != nil {
				return fmt.Errorf("failed to add as-of index: %w", err)
			}

			if _, err := tx.ExecContext(ctx, `
				CREATE INDEX IF NOT EXISTS idx_rating_ledger_tournament_pass
				ON rating_ledger_entries(player_id, tournament_id, pass_number);
			`); err != nil {
				return fmt.Errorf("failed to add tournament pass index: %w", err)
			}
			return nil
		})
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Dropping rating ledger tables...")

		return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			if _, err := tx.NewDropTable().Model((*ledgerdb.LedgerEntry)(nil)).IfExists().Exec(ctx); err != nil {
				return err
			}
			if _, err := tx.NewDropTable().Model((*ledgerdb.PlayerRating)(nil)).IfExists().Exec(ctx); err != nil {
				return err
			}
			return nil
		})
	})
}
