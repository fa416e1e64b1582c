package ledgerdb

import "errors"

// Sentinel errors for the repository layer. Infrastructure signals only; the
// service layer decides whether they are domain failures.
var (
	// ErrNotFound indicates no ledger entry matched the query.
	ErrNotFound = errors.New("ledger entry not found")

	// ErrDuplicateEntry indicates an append collided with an existing entry
	// for the same (player, event) pair. Duplicate processing is a caller
	// bug; the unique key makes it detectable.
	ErrDuplicateEntry = errors.New("ledger entry already exists for event")
)
