package tournamentmigrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	tournamentdb "github.com/Jasstafel-Club/jasstafel-bot/app/modules/tournament/infrastructure/repositories"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Creating tournament tables...")

		return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			if _, err := tx.NewCreateTable().Model((*tournamentdb.Tournament)(nil)).IfNotExists().Exec(ctx); err != nil {
				return fmt.Errorf("failed to create tournaments: %w", err)
			}
			if _, err := tx.NewCreateTable().Model((*tournamentdb.Round)(nil)).IfNotExists().Exec(ctx); err != nil {
				return fmt.Errorf("failed to create rounds: %w", err)
			}
			if _, err := tx.NewCreateTable().Model((*tournamentdb.RankingRecord)(nil)).IfNotExists().Exec(ctx); err != nil {
				return fmt.Errorf("failed to create tournament_ranking_records: %w", err)
			}

			if _, err := tx.ExecContext(ctx, `
				CREATE INDEX IF NOT EXISTS idx_rounds_session
				ON rounds(session_id, COALESCE(completed_at, created_at) ASC);
			`); err != nil {
				return fmt.Errorf("failed to add session round index: %w", err)
			}

			if _, err := tx.ExecContext(ctx, `
				CREATE INDEX IF NOT EXISTS idx_rounds_tournament
				ON rounds(tournament_id, pass_number);
			`); err != nil {
				return fmt.Errorf("failed to add tournament round index: %w", err)
			}

			// One record per participant per tournament; re-finalization
			// replaces wholesale rather than accumulating duplicates.
			if _, err := tx.ExecContext(ctx, `
				CREATE UNIQUE INDEX IF NOT EXISTS idx_ranking_records_player
				ON tournament_ranking_records(tournament_id, player_id);
			`); err != nil {
				return fmt.Errorf("failed to add ranking participant index: %w", err)
			}
			return nil
		})
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Dropping tournament tables...")

		return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			if _, err := tx.NewDropTable().Model((*tournamentdb.RankingRecord)(nil)).IfExists().Exec(ctx); err != nil {
				return err
			}
			if _, err := tx.NewDropTable().Model((*tournamentdb.Round)(nil)).IfExists().Exec(ctx); err != nil {
				return err
			}
			if _, err := tx.NewDropTable().Model((*tournamentdb.Tournament)(nil)).IfExists().Exec(ctx); err != nil {
				return err
			}
			return nil
		})
	})
}
