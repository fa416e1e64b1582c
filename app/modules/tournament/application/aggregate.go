package tournamentservice

import (
	"context"
	"fmt"
	"sort"

	tournamentdomain "github.com/Jasstafel-Club/jasstafel-bot/app/modules/tournament/domain"
	apptypes "github.com/Jasstafel-Club/jasstafel-bot/app/types"
)

// membershipFunc decides whether a round side belongs to a ranking entity.
// It is the only piece of the aggregation that differs per topology; one
// generic routine handles players, teams and groups alike.
type membershipFunc func(side apptypes.TeamSide, members []apptypes.PlayerID) bool

// membershipFor resolves the membership test for an entity kind.
func membershipFor(kind tournamentdomain.EntityKind) (membershipFunc, error) {
	switch kind {
	case tournamentdomain.EntityPlayer:
		return func(side apptypes.TeamSide, members []apptypes.PlayerID) bool {
			return len(members) == 1 && side.HasPlayer(members[0])
		}, nil
	case tournamentdomain.EntityTeam:
		// A round counts for a team only when the exact participant set
		// appears on one side.
		return sideMatchesExactly, nil
	case tournamentdomain.EntityGroup:
		return func(side apptypes.TeamSide, members []apptypes.PlayerID) bool {
			for _, m := range members {
				if side.HasPlayer(m) {
					return true
				}
			}
			return false
		}, nil
	default:
		return nil, fmt.Errorf("unsupported entity kind %q", kind)
	}
}

func sideMatchesExactly(side apptypes.TeamSide, members []apptypes.PlayerID) bool {
	if len(side.Players) != len(members) {
		return false
	}
	for _, m := range members {
		if !side.HasPlayer(m) {
			return false
		}
	}
	return true
}

// buildEntities derives the ranking entities from the tournament's topology.
// Single mode falls back to the union of round participants when no explicit
// participant list was declared.
func buildEntities(t tournamentdomain.Tournament, rounds []apptypes.Round) ([]tournamentdomain.RankingEntity, error) {
	switch t.Topology {
	case tournamentdomain.TopologySingle:
		players := t.Participants
		if len(players) == 0 {
			players = playersFromRounds(rounds)
		}
		entities := make([]tournamentdomain.RankingEntity, 0, len(players))
		for _, p := range players {
			entities = append(entities, tournamentdomain.RankingEntity{
				Kind:    tournamentdomain.EntityPlayer,
				Key:     string(p),
				Members: []apptypes.PlayerID{p},
			})
		}
		return entities, nil

	case tournamentdomain.TopologyDoubles:
		entities := make([]tournamentdomain.RankingEntity, 0, len(t.Teams))
		for _, team := range t.Teams {
			entities = append(entities, tournamentdomain.RankingEntity{
				Kind:    tournamentdomain.EntityTeam,
				Key:     team.Name,
				Members: team.Players,
			})
		}
		return entities, nil

	case tournamentdomain.TopologyGroupVsGroup:
		entities := make([]tournamentdomain.RankingEntity, 0, len(t.Groups))
		for _, group := range t.Groups {
			entities = append(entities, tournamentdomain.RankingEntity{
				Kind:    tournamentdomain.EntityGroup,
				Key:     group.Name,
				Members: group.Players,
			})
		}
		return entities, nil

	default:
		return nil, fmt.Errorf("unsupported topology mode %q", t.Topology)
	}
}

func playersFromRounds(rounds []apptypes.Round) []apptypes.PlayerID {
	seen := make(map[apptypes.PlayerID]bool)
	var players []apptypes.PlayerID
	for _, r := range rounds {
		for _, p := range r.Players() {
			if !seen[p] {
				seen[p] = true
				players = append(players, p)
			}
		}
	}
	sort.Slice(players, func(i, j int) bool { return players[i] < players[j] })
	return players
}

// entitySide resolves which side of the round belongs to the entity, if any.
func entitySide(round apptypes.Round, members []apptypes.PlayerID, isMember membershipFunc) (own, opp apptypes.TeamSide, ok bool) {
	if isMember(round.TeamA, members) {
		return round.TeamA, round.TeamB, true
	}
	if isMember(round.TeamB, members) {
		return round.TeamB, round.TeamA, true
	}
	return apptypes.TeamSide{}, apptypes.TeamSide{}, false
}

// aggregateTotals accumulates one entity's totals over its qualifying rounds.
func (s *TournamentService) aggregateTotals(entity tournamentdomain.RankingEntity, rounds []apptypes.Round, isMember membershipFunc) tournamentdomain.Totals {
	var t tournamentdomain.Totals

	for _, round := range rounds {
		own, opp, ok := entitySide(round, entity.Members, isMember)
		if !ok {
			continue
		}

		ownTotal := own.Striche.Total(s.striche)
		oppTotal := opp.Striche.Total(s.striche)

		t.PointsFor += own.Points
		t.PointsAgainst += opp.Points
		t.StricheFor += ownTotal
		t.StricheAgainst += oppTotal
		t.GamesPlayed++
		t.MatchesMade += own.Matches + own.Kontermatches
		t.MatchesReceived += opp.Matches + opp.Kontermatches

		// Draws only exist at the aggregate level, when totals are exactly
		// equal; the per-round rating model never treats a round as a draw.
		switch {
		case ownTotal > oppTotal:
			t.Wins++
		case ownTotal < oppTotal:
			t.Losses++
		default:
			t.Draws++
		}
	}
	return t
}

// validScoring rejects scoring modes the ranking vectors do not know.
// Finalization checks this before any aggregation runs; a nil vector would
// make every entity compare equal and rank first.
func validScoring(mode tournamentdomain.ScoringMode) error {
	switch mode {
	case tournamentdomain.ScoringTotalPoints,
		tournamentdomain.ScoringStriche,
		tournamentdomain.ScoringStricheDiff,
		tournamentdomain.ScoringPointsDiff:
		return nil
	default:
		return fmt.Errorf("unsupported scoring mode %q", mode)
	}
}

// rankingVector is the ordered comparison chain of one entity: primary metric
// first, then the mode's tie-break companions. Every component ranks higher
// when greater, so "fewer games played" is encoded negated.
func rankingVector(mode tournamentdomain.ScoringMode, t tournamentdomain.Totals) []int {
	switch mode {
	case tournamentdomain.ScoringTotalPoints:
		return []int{t.PointsFor, -t.GamesPlayed}
	case tournamentdomain.ScoringStriche:
		return []int{t.StricheFor, -t.GamesPlayed}
	case tournamentdomain.ScoringStricheDiff:
		return []int{t.StricheDiff(), t.StricheFor, t.PointsDiff()}
	case tournamentdomain.ScoringPointsDiff:
		return []int{t.PointsDiff(), t.StricheFor}
	default:
		return nil
	}
}

func compareVectors(a, b []int) int {
	for i := range a {
		if a[i] != b[i] {
			if a[i] > b[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}

// rankedEntity pairs an entity with its totals during ranking.
type rankedEntity struct {
	Entity tournamentdomain.RankingEntity
	Totals tournamentdomain.Totals
	Rank   int

	vector []int
}

// rankEntities sorts the entities by the mode's ranking vector and assigns
// ranks. Entities whose full tie-break chain is equal share a rank; the next
// distinct value resumes at its index + 1, so numbering may skip (1, 1, 3).
func rankEntities(mode tournamentdomain.ScoringMode, entities []rankedEntity) {
	for i := range entities {
		entities[i].vector = rankingVector(mode, entities[i].Totals)
	}

	sort.SliceStable(entities, func(i, j int) bool {
		if c := compareVectors(entities[i].vector, entities[j].vector); c != 0 {
			return c < 0
		}
		return entities[i].Entity.Key < entities[j].Entity.Key
	})

	for i := range entities {
		if i > 0 && compareVectors(entities[i].vector, entities[i-1].vector) == 0 {
			entities[i].Rank = entities[i-1].Rank
			continue
		}
		entities[i].Rank = i + 1
	}
}

// buildTrail synthesizes one participant's per-round result trail across all
// rounds of the tournament, participating or not. The cumulative differential
// carries through sit-out rounds unchanged. The post-round rating is joined
// from the rating ledger by pass number and stays nil when the ledger has no
// entry for the pass.
func (s *TournamentService) buildTrail(ctx context.Context, playerID apptypes.PlayerID, tournamentID apptypes.TournamentID, rounds []apptypes.Round) ([]tournamentdomain.RoundResult, error) {
	trail := make([]tournamentdomain.RoundResult, 0, len(rounds))
	cumulative := 0

	for _, round := range rounds {
		result := tournamentdomain.RoundResult{PassNumber: round.PassNumber}

		var own, opp apptypes.TeamSide
		switch {
		case round.TeamA.HasPlayer(playerID):
			own, opp = round.TeamA, round.TeamB
			result.Participated = true
		case round.TeamB.HasPlayer(playerID):
			own, opp = round.TeamB, round.TeamA
			result.Participated = true
		}

		if result.Participated {
			for _, p := range own.Players {
				if p != playerID {
					result.Teammates = append(result.Teammates, p)
				}
			}
			result.Opponents = opp.Players
			result.PointsDiff = own.Points - opp.Points
			result.StricheDiff = own.Striche.Total(s.striche) - opp.Striche.Total(s.striche)
			cumulative += result.StricheDiff

			rating, err := s.ratings.RatingAfterPass(ctx, playerID, tournamentID, round.PassNumber)
			if err != nil {
				return nil, fmt.Errorf("failed to join rating for player %s pass %d: %w", playerID, round.PassNumber, err)
			}
			result.RatingAfter = rating
		}

		result.CumulativeDiff = cumulative
		trail = append(trail, result)
	}
	return trail, nil
}
