package apptypes

import (
	"sort"
	"time"
)

// OrderingKey is the resolved chronological position of a round. Rounds with
// no usable wall-clock time sort by sequence number only.
type OrderingKey struct {
	At       time.Time
	HasTime  bool
	Sequence int
}

// EffectiveOrderingKey resolves the key used to order rounds chronologically.
// Fallback chain: completion time, then creation time, then the sequence
// number within the parent session/tournament.
func EffectiveOrderingKey(r Round) OrderingKey {
	if r.CompletedAt != nil && !r.CompletedAt.IsZero() {
		return OrderingKey{At: *r.CompletedAt, HasTime: true, Sequence: r.SequenceNo}
	}
	if !r.CreatedAt.IsZero() {
		return OrderingKey{At: r.CreatedAt, HasTime: true, Sequence: r.SequenceNo}
	}
	return OrderingKey{Sequence: r.SequenceNo}
}

// Less orders keys chronologically. Keys without a timestamp sort after keys
// with one; equal timestamps fall back to the sequence number so ordering
// stays deterministic.
func (k OrderingKey) Less(o OrderingKey) bool {
	switch {
	case k.HasTime && !o.HasTime:
		return true
	case !k.HasTime && o.HasTime:
		return false
	case k.HasTime && o.HasTime && !k.At.Equal(o.At):
		return k.At.Before(o.At)
	default:
		return k.Sequence < o.Sequence
	}
}

// SortRoundsChronologically sorts rounds in place by their effective ordering key.
func SortRoundsChronologically(rounds []Round) {
	sort.SliceStable(rounds, func(i, j int) bool {
		return EffectiveOrderingKey(rounds[i]).Less(EffectiveOrderingKey(rounds[j]))
	})
}
