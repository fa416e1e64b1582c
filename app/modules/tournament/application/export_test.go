package tournamentservice

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	tournamentdomain "github.com/Jasstafel-Club/jasstafel-bot/app/modules/tournament/domain"
	apptypes "github.com/Jasstafel-Club/jasstafel-bot/app/types"
)

func TestExportRankingXLSX(t *testing.T) {
	tournamentID := apptypes.TournamentID(uuid.New())
	repo := newFakeTournamentRepo()
	repo.rankings[tournamentID] = []tournamentdomain.RankingRecord{
		{
			TournamentID: tournamentID,
			PlayerID:     anna,
			Entity: tournamentdomain.RankingEntity{
				Kind:    tournamentdomain.EntityTeam,
				Key:     "Edelweiss",
				Members: []apptypes.PlayerID{anna, beat},
			},
			Rank: 1,
			Totals: tournamentdomain.Totals{
				PointsFor: 260, PointsAgainst: 150,
				StricheFor: 5, StricheAgainst: 1,
				GamesPlayed: 2, Wins: 2,
			},
			CreatedAt: time.Date(2026, 8, 30, 22, 0, 0, 0, time.UTC),
		},
		{
			TournamentID: tournamentID,
			PlayerID:     carla,
			Entity: tournamentdomain.RankingEntity{
				Kind:    tournamentdomain.EntityPlayer,
				Key:     string(carla),
				Members: []apptypes.PlayerID{carla},
			},
			Rank:   2,
			Totals: tournamentdomain.Totals{PointsFor: 150, PointsAgainst: 260, GamesPlayed: 2, Losses: 2, StricheFor: 1, StricheAgainst: 5},
		},
	}
	s := newTestService(repo, nil)

	data, err := s.ExportRankingXLSX(context.Background(), tournamentID)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Ranking")
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, exportHeader, rows[0])

	assert.Equal(t, "1", rows[1][0])
	assert.Equal(t, "anna", rows[1][1])
	// Team entities carry their member list alongside the key.
	assert.Equal(t, "Edelweiss (anna, beat)", rows[1][2])
	assert.Equal(t, "260", rows[1][7])
	assert.Equal(t, "110", rows[1][9])

	assert.Equal(t, "2", rows[2][0])
	// Player entities render as the bare key.
	assert.Equal(t, "carla", rows[2][2])
	assert.Equal(t, "-110", rows[2][9])
}

func TestExportRankingXLSXEmptyRanking(t *testing.T) {
	s := newTestService(newFakeTournamentRepo(), nil)

	data, err := s.ExportRankingXLSX(context.Background(), apptypes.TournamentID(uuid.New()))
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Ranking")
	require.NoError(t, err)
	require.Len(t, rows, 1, "header only")
}
