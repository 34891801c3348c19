package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and infrastructure layers return
// these (optionally wrapped) so services can translate them into domain errors.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: entity does not exist in store
// - ErrConflict: write collided with existing state
// - ErrInvalidState: entity in wrong state for requested operation
// - ErrInvalidField: write names a field outside the entity's allow-list
// - ErrUnavailable: service or resource temporarily unavailable
//
// For other validation errors (bad input), use pkg/domainerrors directly.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidState = errors.New("invalid state")
	ErrInvalidField = errors.New("invalid field")
	ErrUnavailable  = errors.New("unavailable")
)
