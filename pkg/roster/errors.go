package roster

import "errors"

// Common errors returned by roster sources.
var (
	// ErrUnavailable is returned when an external membership call fails
	// outright and no substitute data exists, such as name resolution.
	ErrUnavailable = errors.New("membership query unavailable")

	// ErrDegraded reports that live membership was unreachable and the
	// returned names came from the known-contact cache instead. The
	// names are usable but may be incomplete or stale; callers surface
	// degraded mode rather than failing the request.
	ErrDegraded = errors.New("membership unavailable, serving cached contacts")
)
