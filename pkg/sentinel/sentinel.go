package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores return these (optionally
// wrapped) so services can translate them into envelope responses.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: entity does not exist in store
// - ErrConflict: entity with the same identity already stored
//
// TTL and single-use semantics live in the services: an expired or consumed
// token is deleted and answered as not found, so no extra sentinel exists
// for those states.
var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
)
