package tournamentdb

import "errors"

var (
	// ErrNotFound is returned when a tournament or round does not exist.
	ErrNotFound = errors.New("not found")

	// ErrNoRowsAffected is returned when an update matched nothing, typically
	// a status transition racing another writer.
	ErrNoRowsAffected = errors.New("no rows affected")
)
