package editflow

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/avoronov/slotbot/pkg/booking"
	"github.com/avoronov/slotbot/pkg/logger"
	"github.com/avoronov/slotbot/pkg/roster"
	"github.com/avoronov/slotbot/pkg/store"
)

const defaultListLimit = 60

// Manager owns the in-flight edit sessions, keyed by administrator id.
// Sessions are ephemeral: they never survive a restart and are discarded
// on completion, cancellation, or any detected inconsistency.
type Manager struct {
	source    roster.Source
	engine    *booking.Engine
	store     *store.Store
	listLimit int
	log       logger.Logger

	mu       sync.Mutex
	sessions map[int64]sessionState
}

// NewManager creates a session manager. listLimit caps how many
// candidates a numbered list shows; values below 1 fall back to the
// default of 60.
func NewManager(src roster.Source, eng *booking.Engine, st *store.Store, listLimit int, log logger.Logger) *Manager {
	if listLimit < 1 {
		listLimit = defaultListLimit
	}
	if log == nil {
		log = logger.Noop()
	}
	return &Manager{
		source:    src,
		engine:    eng,
		store:     st,
		listLimit: listLimit,
		log:       log,
		sessions:  make(map[int64]sessionState),
	}
}

// Start opens a fresh session for the administrator, replacing any
// previous one, and returns the operation prompt.
func (m *Manager) Start(actorID int64) Reply {
	m.mu.Lock()
	m.sessions[actorID] = chooseOperation{}
	m.mu.Unlock()

	m.log.Debug("edit session started", "actor", actorID)
	return Reply{Message: "Edit bookings.\nChoose an action: add or remove."}
}

// Active reports whether the administrator has a session in flight.
func (m *Manager) Active(actorID int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.sessions[actorID]
	return ok
}

// Cancel discards the administrator's session, if any.
func (m *Manager) Cancel(actorID int64) Reply {
	m.mu.Lock()
	_, had := m.sessions[actorID]
	delete(m.sessions, actorID)
	m.mu.Unlock()

	if had {
		m.log.Debug("edit session cancelled", "actor", actorID)
	}
	return Reply{Message: "Ok.", Done: true}
}

// Step advances the administrator's session with one input and returns
// the presentable result. Out-of-range ordinals keep the session in the
// same step; inconsistent session state discards it.
func (m *Manager) Step(ctx context.Context, actorID int64, input string) Reply {
	m.mu.Lock()
	state, ok := m.sessions[actorID]
	m.mu.Unlock()
	if !ok {
		return Reply{Message: "Edit session error. Start the edit flow again.", Done: true}
	}

	input = strings.TrimSpace(input)

	var reply Reply
	var next sessionState
	switch st := state.(type) {
	case chooseOperation:
		reply, next = m.stepOperation(input)
	case chooseCategory:
		reply, next = m.stepCategory(ctx, st, input)
	case chooseStudent:
		reply, next = m.stepStudent(ctx, actorID, st, input)
	case chooseSlot:
		reply, next = m.stepSlot(ctx, actorID, st, input)
	default:
		reply, next = Reply{Message: "Edit session error. Start the edit flow again.", Done: true}, nil
	}

	m.mu.Lock()
	if reply.Done {
		delete(m.sessions, actorID)
	} else if next != nil {
		m.sessions[actorID] = next
	}
	m.mu.Unlock()

	return reply
}

func (m *Manager) stepOperation(input string) (Reply, sessionState) {
	var op Operation
	switch strings.ToLower(input) {
	case string(OpAdd):
		op = OpAdd
	case string(OpRemove):
		op = OpRemove
	default:
		return Reply{Message: "Choose an action: add or remove."}, nil
	}

	names := m.store.Schema().Categories
	var verb string
	if op == OpAdd {
		verb = "Book into which category?"
	} else {
		verb = "Remove from which category?"
	}
	return Reply{Message: verb + " Choose one of: " + strings.Join(names, ", ") + "."},
		chooseCategory{op: op}
}

func (m *Manager) stepCategory(ctx context.Context, st chooseCategory, input string) (Reply, sessionState) {
	category, ok := m.matchCategory(input)
	if !ok {
		return Reply{Message: "Unknown category. Choose one of: " +
			strings.Join(m.store.Schema().Categories, ", ") + "."}, nil
	}

	names, _, err := m.source.ListStudents(ctx, false)
	degraded := errors.Is(err, roster.ErrDegraded)
	if err != nil && !degraded {
		m.log.Warn("student list unavailable", "error", err)
		return Reply{Message: "Could not load the student list. Try again later.", Done: true}, nil
	}

	booked := m.engine.BookedSet(category)
	var candidates []string
	for _, n := range names {
		_, isBooked := booked[n]
		if (st.op == OpAdd) != isBooked {
			candidates = append(candidates, n)
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		a, b := strings.ToLower(candidates[i]), strings.ToLower(candidates[j])
		if a != b {
			return a < b
		}
		return candidates[i] < candidates[j]
	})

	if len(candidates) == 0 {
		return Reply{Message: "The list is empty, nobody matches.", Done: true}, nil
	}

	omitted := 0
	if len(candidates) > m.listLimit {
		omitted = len(candidates) - m.listLimit
		candidates = candidates[:m.listLimit]
	}

	var header string
	if st.op == OpAdd {
		header = fmt.Sprintf("Book into %q.\nPick a student by number:", category)
	} else {
		header = fmt.Sprintf("Remove from %q.\nPick a student by number:", category)
	}
	msg := header + "\n\n" + numberedList(candidates)
	if omitted > 0 {
		msg += fmt.Sprintf("\n\n...and %d more. Pick a number from the first %d.", omitted, m.listLimit)
	}
	if degraded {
		msg += "\n\nNote: live membership is unavailable, the list may be incomplete."
	}
	msg += "\n\nSend \"cancel\" or \"back\" to abort."

	return Reply{Message: msg}, chooseStudent{
		op:       st.op,
		category: category,
		students: candidates,
		omitted:  omitted,
	}
}

func (m *Manager) stepStudent(ctx context.Context, actorID int64, st chooseStudent, input string) (Reply, sessionState) {
	idx, ok := parseOrdinal(input, len(st.students))
	if !ok {
		return Reply{Message: "Invalid number. Try again."}, nil
	}
	student := st.students[idx]

	if st.op == OpRemove {
		removed, err := m.engine.UnbookCategory(ctx, st.category, student)
		if err != nil {
			m.log.Warn("edit remove failed", "actor", actorID, "category", st.category, "error", err)
			return Reply{Message: "Edit session error. Start the edit flow again.", Done: true}, nil
		}
		if removed == 0 {
			return Reply{Message: fmt.Sprintf("%s has no bookings in %q.", student, st.category), Done: true}, nil
		}
		return Reply{
			Message: fmt.Sprintf("Removed %d booking(s).\n%s is no longer booked in %q.", removed, student, st.category),
			Done:    true,
		}, nil
	}

	cat, ok := m.store.Category(st.category)
	if !ok {
		return Reply{Message: "Edit session error. Start the edit flow again.", Done: true}, nil
	}
	var refs []slotRef
	var lines []string
	for _, slot := range cat.Slots {
		if !slot.Configured() {
			continue
		}
		refs = append(refs, slotRef{key: slot.Key, title: slot.Title})
		taken := len(slot.Users)
		free := cat.Capacity - taken
		if free < 0 {
			free = 0
		}
		lines = append(lines, fmt.Sprintf("%d. %s | taken: %d/%d | free: %d",
			len(refs), slot.Title, taken, cat.Capacity, free))
	}
	if len(refs) == 0 {
		return Reply{
			Message: fmt.Sprintf("%q has no configured slots. Set the schedule first.", st.category),
			Done:    true,
		}, nil
	}

	msg := fmt.Sprintf("Pick a slot by number for %s:\n\n%s", student, strings.Join(lines, "\n"))
	return Reply{Message: msg}, chooseSlot{
		category: st.category,
		student:  student,
		slots:    refs,
	}
}

func (m *Manager) stepSlot(ctx context.Context, actorID int64, st chooseSlot, input string) (Reply, sessionState) {
	idx, ok := parseOrdinal(input, len(st.slots))
	if !ok {
		return Reply{Message: "Invalid slot number. Try again."}, nil
	}
	ref := st.slots[idx]

	// The snapshot may be stale, so the booking engine's checks at this
	// point are authoritative.
	res, err := m.engine.Book(ctx, st.category, ref.key, st.student)
	if err != nil {
		m.log.Warn("edit booking failed", "actor", actorID, "category", st.category, "slot", ref.key, "error", err)
		return Reply{Message: "Edit session error. Start the edit flow again.", Done: true}, nil
	}

	switch res {
	case booking.Ok:
		return Reply{
			Message: fmt.Sprintf("Booked: %s\n%s -> %s", st.student, st.category, ref.title),
			Done:    true,
		}, nil
	case booking.SlotFull:
		capacity := 0
		if cat, ok := m.store.Category(st.category); ok {
			capacity = cat.Capacity
		}
		return Reply{Message: fmt.Sprintf("Slot is full (%d). Pick another slot.", capacity)}, nil
	case booking.LimitReached:
		return Reply{
			Message: fmt.Sprintf("%s already has a booking in %q. Remove it first.", st.student, st.category),
			Done:    true,
		}, nil
	case booking.AlreadyBooked:
		return Reply{
			Message: fmt.Sprintf("%s is already booked in that slot.", st.student),
			Done:    true,
		}, nil
	default:
		// The slot was cleared between the snapshot and the commit.
		return Reply{Message: "That slot is no longer configured. Start the edit flow again.", Done: true}, nil
	}
}

func (m *Manager) matchCategory(input string) (string, bool) {
	for _, name := range m.store.Schema().Categories {
		if strings.EqualFold(name, input) {
			return name, true
		}
	}
	return "", false
}

// parseOrdinal converts a 1-based ordinal into an index into a list of
// the given length.
func parseOrdinal(input string, length int) (int, bool) {
	n, err := strconv.Atoi(input)
	if err != nil || n < 1 || n > length {
		return 0, false
	}
	return n - 1, true
}

func numberedList(items []string) string {
	var b strings.Builder
	for i, item := range items {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%d. %s", i+1, item)
	}
	return b.String()
}
