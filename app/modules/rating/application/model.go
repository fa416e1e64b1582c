package ratingservice

import (
	"math"

	apptypes "github.com/Jasstafel-Club/jasstafel-bot/app/types"
)

// ModelConfig holds the tunable constants of the rating model. The zero value
// is not usable; construct via DefaultModelConfig or from app config.
type ModelConfig struct {
	KFactor        float64
	StartingRating apptypes.Rating
	Scale          float64
	// MaxPlausibleDiff bounds the typical stroke-margin spread of one round
	// and normalizes the margin deviation in ActualOutcome. Kept a named,
	// configurable constant; deriving it from historical data is an open
	// follow-up (see DESIGN.md).
	MaxPlausibleDiff float64
}

const (
	defaultKFactor          = 32.0
	defaultStartingRating   = apptypes.Rating(100)
	defaultScale            = 1000.0
	defaultMaxPlausibleDiff = 10.0
)

// DefaultModelConfig returns the standard league constants.
func DefaultModelConfig() ModelConfig {
	return ModelConfig{
		KFactor:          defaultKFactor,
		StartingRating:   defaultStartingRating,
		Scale:            defaultScale,
		MaxPlausibleDiff: defaultMaxPlausibleDiff,
	}
}

// ExpectedOutcome is the logistic win expectation of a over b.
// ExpectedOutcome(a, b) + ExpectedOutcome(b, a) == 1 for all inputs.
func (m ModelConfig) ExpectedOutcome(a, b apptypes.Rating) float64 {
	return 1.0 / (1.0 + math.Pow(10, float64(b-a)/m.Scale))
}

// ActualOutcome converts a stroke-margin pair into a score in [0, 1] relative
// to the expectation baseline. A zero-margin round carries no information and
// scores 0.5. Otherwise the observed margin difference is compared to the
// difference the expectation implied, so beating expectations by a wide
// margin scores above 0.5 even for the favorite.
func (m ModelConfig) ActualOutcome(marginA, marginB int, expectedA float64) float64 {
	total := marginA + marginB
	if total == 0 {
		return 0.5
	}

	expectedDiff := (2*expectedA - 1) * float64(total)
	actualDiff := float64(marginA - marginB)

	outcome := 0.5 + (actualDiff-expectedDiff)/(2*m.MaxPlausibleDiff)
	return clamp01(outcome)
}

// Delta computes the per-player rating deltas for one round between two teams.
// Team rating is the arithmetic mean of its members; the total team delta is
// split evenly across members and team B receives the exact negation of team
// A's total. Callers must guard against empty teams.
func (m ModelConfig) Delta(teamA, teamB []apptypes.Rating, marginA, marginB int) (perPlayerA, perPlayerB float64) {
	// A round without strokes carries no outcome signal; ratings stay put even
	// when the expectation was lopsided.
	if marginA+marginB == 0 {
		return 0, 0
	}

	avgA := mean(teamA)
	avgB := mean(teamB)

	expectedA := m.ExpectedOutcome(avgA, avgB)
	actualA := m.ActualOutcome(marginA, marginB, expectedA)

	teamDelta := m.KFactor * (actualA - expectedA)

	perPlayerA = teamDelta / float64(len(teamA))
	perPlayerB = -teamDelta / float64(len(teamB))
	return perPlayerA, perPlayerB
}

func mean(ratings []apptypes.Rating) apptypes.Rating {
	var sum apptypes.Rating
	for _, r := range ratings {
		sum += r
	}
	return sum / apptypes.Rating(len(ratings))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
