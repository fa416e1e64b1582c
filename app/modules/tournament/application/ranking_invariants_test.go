package tournamentservice

import (
	"context"
	"strings"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tournamentdomain "github.com/Jasstafel-Club/jasstafel-bot/app/modules/tournament/domain"
	apptypes "github.com/Jasstafel-Club/jasstafel-bot/app/types"
)

func generatedPlayers(faker *gofakeit.Faker, n int) []apptypes.PlayerID {
	seen := make(map[string]bool)
	players := make([]apptypes.PlayerID, 0, n)
	for len(players) < n {
		name := strings.ToLower(faker.FirstName())
		if seen[name] {
			continue
		}
		seen[name] = true
		players = append(players, apptypes.PlayerID(name))
	}
	return players
}

// generatedRounds plays one table of four per pass, rotating the field so
// every player both plays and sits out. Points split a full 157-point game
// between the sides, so a round never ends level.
func generatedRounds(faker *gofakeit.Faker, tournamentID apptypes.TournamentID, players []apptypes.PlayerID, passes int) []apptypes.Round {
	rounds := make([]apptypes.Round, 0, passes)
	for pass := 1; pass <= passes; pass++ {
		offset := pass % len(players)
		table := make([]apptypes.PlayerID, 0, 4)
		for i := 0; i < 4; i++ {
			table = append(table, players[(offset+i)%len(players)])
		}

		pointsA := faker.Number(40, 117)
		pointsB := 157 - pointsA
		siegA, siegB := 1, 0
		if pointsB > pointsA {
			siegA, siegB = 0, 1
		}

		rounds = append(rounds, tournamentRound(tournamentID, pass,
			side(pointsA, siegA, table[0], table[1]),
			side(pointsB, siegB, table[2], table[3]),
		))
	}
	return rounds
}

// TestFinalizeRankingInvariants checks the structural properties of a ranking
// over a generated field: conservation of wins, losses and points across the
// table, standard competition numbering, and full trails for every
// participant including sit-out passes.
func TestFinalizeRankingInvariants(t *testing.T) {
	ctx := context.Background()
	faker := gofakeit.New(7)

	tournamentID := apptypes.TournamentID(uuid.New())
	players := generatedPlayers(faker, 8)
	rounds := generatedRounds(faker, tournamentID, players, 12)

	repo := newFakeTournamentRepo()
	repo.tournaments[tournamentID] = singlesTournament(tournamentID, players...)
	repo.rounds = rounds
	s := newTestService(repo, nil)

	result, err := s.FinalizeTournament(ctx, tournamentID)
	require.NoError(t, err)
	require.NotNil(t, result.Success)

	ranking := result.Success.Ranking
	require.Len(t, ranking, len(players))

	var wins, losses, draws, games, pointsFor, pointsAgainst int
	for _, rec := range ranking {
		wins += rec.Totals.Wins
		losses += rec.Totals.Losses
		draws += rec.Totals.Draws
		games += rec.Totals.GamesPlayed
		pointsFor += rec.Totals.PointsFor
		pointsAgainst += rec.Totals.PointsAgainst

		require.Len(t, rec.RoundResults, len(rounds), "every trail covers every pass")
		assert.Equal(t, rec.Totals.GamesPlayed, participatedPasses(rec.RoundResults))
	}

	// Four players per round, and a 157-point split never produces a draw.
	assert.Equal(t, 4*len(rounds), games)
	assert.Equal(t, wins, losses)
	assert.Zero(t, draws)
	assert.Equal(t, pointsFor, pointsAgainst)

	// Standard competition numbering: ties share a rank, the next distinct
	// value resumes at its position.
	require.Equal(t, 1, ranking[0].Rank)
	for i := 1; i < len(ranking); i++ {
		if ranking[i].Rank != ranking[i-1].Rank {
			assert.Equal(t, i+1, ranking[i].Rank)
		}
	}
}

// TestFinalizeIsDeterministic finalizes the same tournament twice from
// scratch and requires identical rankings, timestamps aside.
func TestFinalizeIsDeterministic(t *testing.T) {
	ctx := context.Background()
	faker := gofakeit.New(7)

	tournamentID := apptypes.TournamentID(uuid.New())
	players := generatedPlayers(faker, 8)
	rounds := generatedRounds(faker, tournamentID, players, 12)

	finalize := func() []tournamentdomain.RankingRecord {
		repo := newFakeTournamentRepo()
		repo.tournaments[tournamentID] = singlesTournament(tournamentID, players...)
		repo.rounds = rounds
		s := newTestService(repo, nil)

		result, err := s.FinalizeTournament(ctx, tournamentID)
		require.NoError(t, err)
		require.NotNil(t, result.Success)
		return result.Success.Ranking
	}

	first := finalize()
	second := finalize()

	diff := cmp.Diff(first, second, cmpopts.IgnoreFields(tournamentdomain.RankingRecord{}, "CreatedAt"))
	assert.Empty(t, diff, "same rounds must produce the same ranking")
}

func participatedPasses(trail []tournamentdomain.RoundResult) int {
	n := 0
	for _, r := range trail {
		if r.Participated {
			n++
		}
	}
	return n
}
