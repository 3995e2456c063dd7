package sentinel

import "errors"

// Sentinel errors for storage facts. Stores return these (optionally wrapped)
// and the registry service translates them into coded domain errors:
// - ErrNotFound: the record or configuration does not exist
// - ErrConflict: a record with the same key already exists
// - ErrUnavailable: the backing store or cache cannot be reached
var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrUnavailable = errors.New("unavailable")
)
