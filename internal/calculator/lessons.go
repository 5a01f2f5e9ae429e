// Package calculator holds the pure balance rules: how lesson counters and
// debts change. It has no storage dependencies.
package calculator

// DecrementClamped consumes one lesson from remaining.
// nil means untracked and is returned unchanged; the result never drops
// below zero.
func DecrementClamped(remaining *int) *int {
	if remaining == nil {
		return nil
	}
	next := *remaining - 1
	if next < 0 {
		next = 0
	}
	return &next
}

// IncrementClamped restores one lesson. nil stays nil; there is no ceiling.
func IncrementClamped(remaining *int) *int {
	if remaining == nil {
		return nil
	}
	next := *remaining + 1
	return &next
}

// AdjustUnclamped subtracts n lessons and allows the result to go negative.
// ok is false when the balance is untracked.
func AdjustUnclamped(remaining *int, n int) (next int, ok bool) {
	if remaining == nil {
		return 0, false
	}
	return *remaining - n, true
}

// BalanceDelta is the lesson-balance effect of moving an attendance record
// from one classification to another.
type BalanceDelta int

const (
	DeltaNone    BalanceDelta = 0
	DeltaConsume BalanceDelta = -1
	DeltaRestore BalanceDelta = 1
)

// TransitionDelta returns the balance effect of a status change.
// hadRecord is false when no record existed before; in that case only a
// consuming status has an effect.
func TransitionDelta(hadRecord, wasConsuming, isConsuming bool) BalanceDelta {
	switch {
	case !hadRecord && isConsuming:
		return DeltaConsume
	case !hadRecord:
		return DeltaNone
	case !wasConsuming && isConsuming:
		return DeltaConsume
	case wasConsuming && !isConsuming:
		return DeltaRestore
	default:
		return DeltaNone
	}
}

// Apply applies a clamped delta to remaining.
func (d BalanceDelta) Apply(remaining *int) *int {
	switch d {
	case DeltaConsume:
		return DecrementClamped(remaining)
	case DeltaRestore:
		return IncrementClamped(remaining)
	default:
		return remaining
	}
}
