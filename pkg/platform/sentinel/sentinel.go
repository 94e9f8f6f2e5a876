package sentinel

import "errors"

// Sentinel errors for storage facts. Stores return these (optionally wrapped) and
// services translate them into domain errors.
//
// - ErrNotFound: no record at the requested address
// - ErrAlreadyUsed: create-if-absent found the address occupied
// - ErrConflict: a concurrent writer changed the record first
// - ErrUnavailable: backend temporarily unreachable
//
// Validation failures belong in pkg/domain-errors.
var (
	ErrNotFound    = errors.New("not found")
	ErrAlreadyUsed = errors.New("already used")
	ErrConflict    = errors.New("conflict")
	ErrUnavailable = errors.New("unavailable")
)
