package store

import "errors"

// Common errors returned by store operations.
var (
	// ErrUnknownCategory is returned when a category name is not part of
	// the configured category set.
	ErrUnknownCategory = errors.New("unknown category")

	// ErrUnknownSlot is returned when a slot key is not part of the
	// canonical key set.
	ErrUnknownSlot = errors.New("unknown slot key")

	// ErrInvalidCapacity is returned when a capacity value is not positive.
	ErrInvalidCapacity = errors.New("capacity must be > 0")

	// ErrInvalidLimit is returned when a per-user limit is not positive.
	ErrInvalidLimit = errors.New("limit per user must be > 0")

	// ErrMirrorUnavailable is returned when the remote mirror cannot be
	// reached or answers with an unexpected status.
	ErrMirrorUnavailable = errors.New("remote mirror unavailable")

	// ErrDocumentNotFound is returned when the mirror has no document
	// under the requested name.
	ErrDocumentNotFound = errors.New("document not found in mirror")
)
