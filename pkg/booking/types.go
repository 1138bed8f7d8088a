// Package booking provides the invariant-preserving operations over the
// category store: book, unbook, count, and query.
//
// The engine guarantees, across any sequence of operations:
//   - no slot ever holds more users than its category's capacity
//   - no user ever holds more bookings in a category than its per-user
//     limit
//   - a user appears at most once per slot
//
// Booking subjects are display-name strings, matching how occupants are
// rendered; two accounts resolving to the same name are treated as the
// same subject.
package booking

// Result enumerates the outcomes of a booking attempt. The checks run
// in a fixed order so the caller's message is deterministic: a user who
// is both already booked and at their limit is told "already booked".
type Result int

const (
	// Ok means the user was appended to the slot and the state persisted.
	Ok Result = iota

	// SlotNotConfigured means the slot has no title and is not bookable.
	SlotNotConfigured

	// AlreadyBooked means the user is already in that slot's set.
	AlreadyBooked

	// LimitReached means the user holds the category's maximum number
	// of bookings.
	LimitReached

	// SlotFull means the slot has no free seats.
	SlotFull
)

// String returns a short identifier for logs.
func (r Result) String() string {
	switch r {
	case Ok:
		return "ok"
	case SlotNotConfigured:
		return "slot_not_configured"
	case AlreadyBooked:
		return "already_booked"
	case LimitReached:
		return "limit_reached"
	case SlotFull:
		return "slot_full"
	default:
		return "unknown"
	}
}
