package statsmigrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	statsdb "github.com/Jasstafel-Club/jasstafel-bot/app/modules/stats/infrastructure/repositories"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Creating stat snapshot tables...")

		return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			if _, err := tx.NewCreateTable().Model((*statsdb.StatSnapshot)(nil)).IfNotExists().Exec(ctx); err != nil {
				return fmt.Errorf("failed to create stat_snapshots: %w", err)
			}

			if _, err := tx.ExecContext(ctx, `
				CREATE INDEX IF NOT EXISTS idx_stat_snapshots_player_time
				ON stat_snapshots(player_id, at);
			`); err != nil {
				return fmt.Errorf("failed to add snapshot time index: %w", err)
			}
			return nil
		})
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Dropping stat snapshot tables...")

		_, err := db.NewDropTable().Model((*statsdb.StatSnapshot)(nil)).IfExists().Exec(ctx)
		return err
	})
}
