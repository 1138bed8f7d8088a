// Package editflow implements the administrator edit conversation: a
// per-administrator state machine that walks choose operation, choose
// category, choose student by number, and (for bookings) choose slot by
// number, calling into the roster source for candidates and the booking
// engine for mutations.
//
// Candidate and slot lists are point-in-time snapshots. A booking that
// lands between listing and selection is caught by re-validating through
// the booking engine at commit time, not by locking the snapshot.
//
// Example usage:
//
//	mgr := editflow.NewManager(src, engine, st, 60, log)
//	reply := mgr.Start(adminID)
//	reply = mgr.Step(ctx, adminID, "add")
//	reply = mgr.Step(ctx, adminID, "Programming")
//	reply = mgr.Step(ctx, adminID, "3") // student ordinal
//	reply = mgr.Step(ctx, adminID, "1") // slot ordinal
package editflow

// Operation is the edit action an administrator selected.
type Operation string

const (
	// OpAdd books a student into a slot.
	OpAdd Operation = "add"
	// OpRemove removes all of a student's bookings in a category.
	OpRemove Operation = "remove"
)

// Reply is the presentable outcome of one step of the edit flow.
type Reply struct {
	// Message is the text to show the administrator.
	Message string
	// Done reports that the session has ended, whether by completion,
	// cancellation, or an error that discarded it.
	Done bool
}

// sessionState is the tagged variant over the flow's states. Each state
// carries exactly the fields valid for it.
type sessionState interface {
	isSessionState()
}

type chooseOperation struct{}

type chooseCategory struct {
	op Operation
}

type chooseStudent struct {
	op       Operation
	category string
	// students is the ordinal-indexed candidate snapshot, already
	// filtered, sorted and capped at the display limit.
	students []string
	// omitted counts candidates beyond the display cap.
	omitted int
}

type chooseSlot struct {
	category string
	student  string
	// slots maps display ordinals to slot keys as of the snapshot.
	slots []slotRef
}

type slotRef struct {
	key   string
	title string
}

func (chooseOperation) isSessionState() {}
func (chooseCategory) isSessionState()  {}
func (chooseStudent) isSessionState()   {}
func (chooseSlot) isSessionState()      {}
