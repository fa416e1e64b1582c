package ratingservice

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	apptypes "github.com/Jasstafel-Club/jasstafel-bot/app/types"
)

func TestExpectedOutcome_Symmetry(t *testing.T) {
	m := DefaultModelConfig()

	pairs := [][2]apptypes.Rating{
		{100, 100},
		{100, 250},
		{80, 340},
		{-50, 120},
		{1000, 0},
	}

	for _, pair := range pairs {
		ea := m.ExpectedOutcome(pair[0], pair[1])
		eb := m.ExpectedOutcome(pair[1], pair[0])
		assert.InDelta(t, 1.0, ea+eb, 1e-12, "expected outcomes must sum to 1 for %v", pair)
		assert.Greater(t, ea, 0.0)
		assert.Less(t, ea, 1.0)
	}
}

func TestExpectedOutcome_EqualRatings(t *testing.T) {
	m := DefaultModelConfig()
	assert.InDelta(t, 0.5, m.ExpectedOutcome(100, 100), 1e-12)
}

func TestActualOutcome_ZeroMarginsAreNoInformation(t *testing.T) {
	m := DefaultModelConfig()

	for _, expected := range []float64{0.1, 0.5, 0.9} {
		assert.Equal(t, 0.5, m.ActualOutcome(0, 0, expected))
	}
}

func TestActualOutcome_MonotoneInMarginDifference(t *testing.T) {
	m := DefaultModelConfig()

	// Hold marginA+marginB fixed at 8, sweep the split.
	prev := -1.0
	for marginA := 0; marginA <= 8; marginA++ {
		marginB := 8 - marginA
		outcome := m.ActualOutcome(marginA, marginB, 0.5)
		assert.GreaterOrEqual(t, outcome, prev, "outcome must be non-decreasing in marginA-marginB")
		assert.GreaterOrEqual(t, outcome, 0.0)
		assert.LessOrEqual(t, outcome, 1.0)
		prev = outcome
	}
}

func TestActualOutcome_BarelyExpectedWinScoresBelowWideWin(t *testing.T) {
	m := DefaultModelConfig()

	// Heavy favorite (expected 0.9) wins 5-3: barely above expectations.
	narrow := m.ActualOutcome(5, 3, 0.9)
	// Same favorite wins 8-0.
	wide := m.ActualOutcome(8, 0, 0.9)

	assert.Greater(t, wide, narrow)
}

func TestActualOutcome_Clamped(t *testing.T) {
	m := DefaultModelConfig()
	m.MaxPlausibleDiff = 2

	assert.Equal(t, 1.0, m.ActualOutcome(20, 0, 0.5))
	assert.Equal(t, 0.0, m.ActualOutcome(0, 20, 0.5))
}

func TestDelta_ZeroMarginRoundIsZeroSum(t *testing.T) {
	m := DefaultModelConfig()

	// No-information rounds move nothing, even with lopsided expectations.
	dA, dB := m.Delta(
		[]apptypes.Rating{300, 260},
		[]apptypes.Rating{100, 100},
		0, 0,
	)

	assert.Zero(t, dA)
	assert.Zero(t, dB)
}

func TestDelta_EqualRatedSevenZero(t *testing.T) {
	m := DefaultModelConfig()

	teamA := []apptypes.Rating{100, 100}
	teamB := []apptypes.Rating{100, 100}

	expected := m.ExpectedOutcome(100, 100)
	assert.InDelta(t, 0.5, expected, 1e-12)

	actual := m.ActualOutcome(7, 0, expected)
	assert.Greater(t, actual, 0.5)

	dA, dB := m.Delta(teamA, teamB, 7, 0)
	assert.Greater(t, dA, 0.0, "winner gains rating")
	assert.Less(t, dB, 0.0, "loser loses rating")
	assert.InDelta(t, 0.0, dA+dB, 1e-12, "per-player deltas negate each other for equal team sizes")

	// K bounds the maximum total single-round change.
	assert.LessOrEqual(t, math.Abs(dA*2), m.KFactor)
}

func TestDelta_SplitsAcrossTeamMembers(t *testing.T) {
	m := DefaultModelConfig()

	// Solo player against a pair: team delta is conserved, not the per-player one.
	dSolo, dPair := m.Delta([]apptypes.Rating{100}, []apptypes.Rating{100, 100}, 7, 0)
	assert.InDelta(t, 0.0, dSolo*1+dPair*2, 1e-12)
	assert.InDelta(t, dSolo, -2*dPair, 1e-12)
}

func TestDelta_UnderdogWinMovesMoreThanFavoriteWin(t *testing.T) {
	m := DefaultModelConfig()

	underdogWin, _ := m.Delta([]apptypes.Rating{60, 60}, []apptypes.Rating{160, 160}, 7, 2)
	favoriteWin, _ := m.Delta([]apptypes.Rating{160, 160}, []apptypes.Rating{60, 60}, 7, 2)

	assert.Greater(t, underdogWin, favoriteWin)
}
