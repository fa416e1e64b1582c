// Package results defines the generic success/failure envelope returned by
// service operations. Business failures travel as typed failure payloads;
// infrastructure problems travel as ordinary Go errors next to the result.
package results

// OperationResult carries either a success payload or a failure payload.
// Exactly one of the two is expected to be non-nil on a handled outcome.
type OperationResult[S any, F any] struct {
	Success *S
	Failure *F
}

// IsSuccess reports whether the operation produced a success payload.
func (r OperationResult[S, F]) IsSuccess() bool { return r.Success != nil }

// IsFailure reports whether the operation produced a failure payload.
func (r OperationResult[S, F]) IsFailure() bool { return r.Failure != nil }

// SuccessResult wraps a success payload.
func SuccessResult[S any, F any](payload S) OperationResult[S, F] {
	return OperationResult[S, F]{Success: &payload}
}

// FailureResult wraps a failure payload.
func FailureResult[S any, F any](payload F) OperationResult[S, F] {
	return OperationResult[S, F]{Failure: &payload}
}
