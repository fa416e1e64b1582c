package tournamentservice

import (
	"context"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	tournamentdomain "github.com/Jasstafel-Club/jasstafel-bot/app/modules/tournament/domain"
	"github.com/Jasstafel-Club/jasstafel-bot/app/shared/attr"
	apptypes "github.com/Jasstafel-Club/jasstafel-bot/app/types"
)

var exportHeader = []string{
	"Rank", "Player", "Entity", "Games", "Wins", "Losses", "Draws",
	"Points For", "Points Against", "Points Diff",
	"Striche For", "Striche Against", "Striche Diff",
	"Matches Made", "Matches Received",
}

// ExportRankingXLSX renders the stored ranking of a finalized tournament as a
// spreadsheet, one row per ranking record.
func (s *TournamentService) ExportRankingXLSX(ctx context.Context, tournamentID apptypes.TournamentID) ([]byte, error) {
	records, err := s.repo.RankingRecords(ctx, nil, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load ranking for export: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := "Ranking"
	f.SetSheetName(f.GetSheetName(0), sheet)

	for col, title := range exportHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, fmt.Errorf("failed to address header cell: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, title); err != nil {
			return nil, fmt.Errorf("failed to write header cell: %w", err)
		}
	}

	for i, rec := range records {
		values := exportRow(rec)
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return nil, fmt.Errorf("failed to address cell: %w", err)
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return nil, fmt.Errorf("failed to write ranking row %d: %w", i+1, err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize ranking export: %w", err)
	}

	s.logger.InfoContext(ctx, "Exported tournament ranking",
		attr.TournamentID("tournament_id", tournamentID),
		attr.Int("records", len(records)),
	)
	s.metrics.RecordRankingExport(ctx)

	return buf.Bytes(), nil
}

func exportRow(rec tournamentdomain.RankingRecord) []any {
	entity := rec.Entity.Key
	if rec.Entity.Kind != tournamentdomain.EntityPlayer {
		entity = fmt.Sprintf("%s (%s)", rec.Entity.Key, strings.Join(playerNames(rec.Entity.Members), ", "))
	}
	t := rec.Totals
	return []any{
		rec.Rank, string(rec.PlayerID), entity,
		t.GamesPlayed, t.Wins, t.Losses, t.Draws,
		t.PointsFor, t.PointsAgainst, t.PointsDiff(),
		t.StricheFor, t.StricheAgainst, t.StricheDiff(),
		t.MatchesMade, t.MatchesReceived,
	}
}

func playerNames(ids []apptypes.PlayerID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, string(id))
	}
	return out
}
