// Package schedcmd parses the administrator slot-configuration text
// commands and applies them to the category store.
//
// Supported commands, per category code (for a category with code "pr"):
//
//	/setpr N DATE TIME CAP LIMIT          configure one slot
//	/setpr d1 t1 [d2 t2 ...] CAP LIMIT    configure up to N slots at once
//	/delpr N                              clear one slot, no shift
//	/clearpr                              drop all bookings in the category
package schedcmd

// CategoryRef binds a command code to a category name.
type CategoryRef struct {
	// Code is the short label used in command names, e.g. "pr".
	Code string
	// Name is the category name as known to the store.
	Name string
}

// Command is a parsed administrator command. The concrete type tells the
// caller which operation to apply.
type Command interface {
	isCommand()
}

// SetSlot configures a single slot's title and the category's capacity
// and per-user limit.
type SetSlot struct {
	Category string
	// Index is the 1-based slot position.
	Index    int
	Title    string
	Capacity int
	Limit    int
}

// SetSchedule replaces the titles of all slots in order. Slots beyond
// the provided titles get an empty title. Bookings are kept.
type SetSchedule struct {
	Category string
	Titles   []string
	Capacity int
	Limit    int
}

// ClearSlot empties one slot's title and bookings without shifting the
// remaining slots.
type ClearSlot struct {
	Category string
	Index    int
}

// ClearBookings drops every booking in the category, keeping titles.
type ClearBookings struct {
	Category string
}

func (SetSlot) isCommand()       {}
func (SetSchedule) isCommand()   {}
func (ClearSlot) isCommand()     {}
func (ClearBookings) isCommand() {}
