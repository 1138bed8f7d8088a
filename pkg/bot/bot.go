package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/avoronov/slotbot/pkg/booking"
	"github.com/avoronov/slotbot/pkg/editflow"
	"github.com/avoronov/slotbot/pkg/logger"
	"github.com/avoronov/slotbot/pkg/render"
	"github.com/avoronov/slotbot/pkg/roster"
	"github.com/avoronov/slotbot/pkg/schedcmd"
	"github.com/avoronov/slotbot/pkg/store"
)

// Bot dispatches inbound events to the booking engine, the roster
// source, the edit flow, and the schedule command parser. One event is
// fully handled before the next is read, so per-actor conversation
// state needs no locking beyond the maps' own mutex.
type Bot struct {
	source     EventSource
	responder  Responder
	resolver   NameResolver
	store      *store.Store
	engine     *booking.Engine
	students   roster.Source
	admins     roster.AdminDirectory
	batch      roster.BatchResolver
	editor     *editflow.Manager
	commands   *schedcmd.Parser
	categories []string
	nameBatch  int
	log        logger.Logger

	mu sync.Mutex
	// pendingCategory tracks a user mid slot selection.
	pendingCategory map[int64]string
	// pendingReset tracks a user inside the reset menu.
	pendingReset map[int64]bool
	// panelMode tracks which admins are in the panel or edit context.
	panelMode map[int64]string
}

// Deps bundles the collaborators a Bot needs.
type Deps struct {
	Source    EventSource
	Responder Responder
	Resolver  NameResolver
	Store     *store.Store
	Engine    *booking.Engine
	Students  roster.Source
	Admins    roster.AdminDirectory
	Batch     roster.BatchResolver
	Editor    *editflow.Manager
	Commands  *schedcmd.Parser
	// NameBatchSize caps one id-to-name resolution call; zero uses the
	// roster package default.
	NameBatchSize int
	Logger        logger.Logger
}

// New creates a dispatcher. Category order follows the store schema.
func New(deps Deps) *Bot {
	log := deps.Logger
	if log == nil {
		log = logger.Noop()
	}
	return &Bot{
		source:          deps.Source,
		responder:       deps.Responder,
		resolver:        deps.Resolver,
		store:           deps.Store,
		engine:          deps.Engine,
		students:        deps.Students,
		admins:          deps.Admins,
		batch:           deps.Batch,
		editor:          deps.Editor,
		commands:        deps.Commands,
		categories:      deps.Store.Schema().Categories,
		nameBatch:       deps.NameBatchSize,
		log:             log,
		pendingCategory: make(map[int64]string),
		pendingReset:    make(map[int64]bool),
		panelMode:       make(map[int64]string),
	}
}

// Run reads events until the source fails or the context is done.
// Handler panics are not recovered; the event loop is the process's
// main loop.
func (b *Bot) Run(ctx context.Context) error {
	for {
		ev, err := b.source.Next(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return fmt.Errorf("event source: %w", err)
		}
		if err := b.Handle(ctx, ev); err != nil {
			b.log.Error("event handling failed", "actor", ev.ActorID, "error", err)
		}
	}
}

// Handle processes a single event end to end.
func (b *Bot) Handle(ctx context.Context, ev Event) error {
	log := b.log.With("event_id", uuid.NewString(), "actor", ev.ActorID)

	name, known := b.displayName(ctx, ev.ActorID, log)
	if known {
		b.store.TouchContact(ctx, fmt.Sprintf("%d", ev.ActorID), name)
	}

	text := strings.TrimSpace(ev.Text)
	lower := strings.ToLower(text)
	isAdmin := b.admins.IsAdmin(ev.ActorID)

	// Digits go to the edit flow while an admin session is open.
	if isAdmin && b.editor.Active(ev.ActorID) && isDigits(text) {
		reply := b.editor.Step(ctx, ev.ActorID, text)
		return b.sendEditReply(ctx, ev.ActorID, reply)
	}

	switch lower {
	case strings.ToLower(labelCancel):
		return b.handleCancel(ctx, ev.ActorID)
	case strings.ToLower(labelBack):
		return b.handleBack(ctx, ev.ActorID)
	}

	if isAdmin {
		if handled, err := b.handleAdminCommand(ctx, ev.ActorID, text); handled {
			return err
		}
	}

	switch lower {
	case "start", "menu", "hello", "hi":
		b.resetConversation(ev.ActorID)
		return b.send(ctx, ev.ActorID, Message{Text: "Choose an action:", Buttons: b.mainMenu(isAdmin)})
	case strings.ToLower(labelSchedule):
		return b.send(ctx, ev.ActorID, Message{
			Text:    render.Summary(b.store.Snapshot(), b.categories),
			Buttons: [][]string{{labelDetails}, {labelBack}},
		})
	case strings.ToLower(labelDetails):
		return b.send(ctx, ev.ActorID, Message{
			Text:    render.Detailed(b.store.Snapshot(), b.categories),
			Buttons: [][]string{{labelBack}},
		})
	case strings.ToLower(labelMyBookings):
		return b.send(ctx, ev.ActorID, Message{Text: render.MyBookings(b.store.Snapshot(), b.categories, name)})
	case strings.ToLower(labelHelp):
		return b.send(ctx, ev.ActorID, Message{Text: helpText, Buttons: b.mainMenu(isAdmin)})
	case strings.ToLower(labelReset):
		b.setPendingReset(ev.ActorID)
		return b.send(ctx, ev.ActorID, Message{Text: "What should be reset?", Buttons: b.resetMenu()})
	}

	if b.isPendingReset(ev.ActorID) {
		if handled, err := b.handleReset(ctx, ev.ActorID, name, text); handled {
			return err
		}
	}

	if isAdmin {
		if handled, err := b.handleAdminMenu(ctx, ev.ActorID, text, lower); handled {
			return err
		}
	}

	if handled, err := b.handleSelfService(ctx, ev.ActorID, name, text, lower); handled {
		return err
	}

	log.Debug("unrecognized input", "text", text)
	return b.send(ctx, ev.ActorID, Message{Text: "Unknown command. Choose an action:", Buttons: b.mainMenu(isAdmin)})
}

const helpText = "Help\n\n" +
	"* \"Choose\": pick a category, then a slot.\n" +
	"* \"Reset\": drop your bookings in one category or all of them.\n" +
	"* \"Schedule\": the summary view, then \"Details\".\n" +
	"* \"My bookings\": the slots you are booked into."

// displayName resolves the actor's name, falling back to the contact
// cache and finally to a synthetic id string. known is false only for
// the synthetic form, which must never enter the contact cache: the
// fallback roster would otherwise list it as a student.
func (b *Bot) displayName(ctx context.Context, actorID int64, log logger.Logger) (string, bool) {
	name, err := b.resolver.DisplayName(ctx, actorID)
	if err == nil && strings.TrimSpace(name) != "" {
		return strings.TrimSpace(name), true
	}
	if err != nil {
		log.Warn("name resolution failed", "error", err)
	}
	if contact, ok := b.store.Contacts()[fmt.Sprintf("%d", actorID)]; ok && contact.Name != "" {
		return contact.Name, true
	}
	return fmt.Sprintf("id%d", actorID), false
}

func (b *Bot) handleCancel(ctx context.Context, actorID int64) error {
	b.resetConversation(actorID)
	if b.editor.Active(actorID) {
		reply := b.editor.Cancel(actorID)
		b.setPanelMode(actorID, "panel")
		return b.send(ctx, actorID, Message{Text: reply.Message, Buttons: b.adminMenu()})
	}
	return b.send(ctx, actorID, Message{Text: "Ok, cancelled."})
}

func (b *Bot) handleBack(ctx context.Context, actorID int64) error {
	b.clearPending(actorID)
	if b.editor.Active(actorID) {
		b.editor.Cancel(actorID)
		b.setPanelMode(actorID, "panel")
		return b.send(ctx, actorID, Message{Text: "Admin panel:", Buttons: b.adminMenu()})
	}
	switch b.getPanelMode(actorID) {
	case "edit":
		b.setPanelMode(actorID, "panel")
		return b.send(ctx, actorID, Message{Text: "Admin panel:", Buttons: b.adminMenu()})
	case "panel":
		b.setPanelMode(actorID, "")
		return b.send(ctx, actorID, Message{Text: "Ok.", Buttons: b.mainMenu(true)})
	}
	return b.send(ctx, actorID, Message{Text: "Ok.", Buttons: b.mainMenu(b.admins.IsAdmin(actorID))})
}

// handleAdminCommand tries the slot-configuration text commands.
func (b *Bot) handleAdminCommand(ctx context.Context, actorID int64, text string) (bool, error) {
	cmd, err := b.commands.Parse(text)
	if errors.Is(err, schedcmd.ErrNotCommand) {
		return false, nil
	}
	if err != nil {
		return true, b.send(ctx, actorID, Message{Text: "Command error: " + err.Error()})
	}
	confirmation, err := schedcmd.Apply(ctx, b.store, cmd)
	if err != nil {
		return true, b.send(ctx, actorID, Message{Text: "Could not apply the command: " + err.Error()})
	}
	return true, b.send(ctx, actorID, Message{Text: confirmation})
}

func (b *Bot) handleReset(ctx context.Context, actorID int64, name, text string) (bool, error) {
	if text == labelResetAll {
		b.clearPending(actorID)
		removed := b.engine.UnbookAll(ctx, name)
		if removed == 0 {
			return true, b.send(ctx, actorID, Message{Text: "You have no active bookings."})
		}
		return true, b.send(ctx, actorID, Message{Text: "Your bookings are cleared. Pick new slots when ready."})
	}
	if category, ok := strings.CutPrefix(text, resetPrefix); ok && b.hasCategory(category) {
		b.clearPending(actorID)
		removed, err := b.engine.UnbookCategory(ctx, category, name)
		if err != nil {
			return true, err
		}
		if removed == 0 {
			return true, b.send(ctx, actorID, Message{Text: fmt.Sprintf("You have no bookings in %q.", category)})
		}
		return true, b.send(ctx, actorID, Message{Text: fmt.Sprintf("Reset: %s. Pick a new slot when ready.", category)})
	}
	return false, nil
}

func (b *Bot) handleAdminMenu(ctx context.Context, actorID int64, text, lower string) (bool, error) {
	switch lower {
	case strings.ToLower(labelAdmin):
		b.editor.Cancel(actorID)
		b.setPanelMode(actorID, "panel")
		return true, b.send(ctx, actorID, Message{Text: "Admin panel:", Buttons: b.adminMenu()})
	case strings.ToLower(labelEdit):
		b.setPanelMode(actorID, "edit")
		reply := b.editor.Start(actorID)
		return true, b.send(ctx, actorID, Message{Text: reply.Message, Buttons: b.editMenu()})
	case strings.ToLower(labelStudents):
		return true, b.sendStudents(ctx, actorID)
	case strings.ToLower(labelUnbooked):
		return true, b.sendUnbooked(ctx, actorID)
	case strings.ToLower(labelAdmins):
		return true, b.sendAdmins(ctx, actorID)
	case strings.ToLower(labelAdminHelp):
		return true, b.send(ctx, actorID, Message{Text: b.adminHelpText(), Buttons: b.adminMenu()})
	}

	// Inside an open edit session, operation words and category names
	// advance the flow.
	if b.editor.Active(actorID) {
		switch lower {
		case strings.ToLower(labelAdd):
			reply := b.editor.Step(ctx, actorID, string(editflow.OpAdd))
			return true, b.sendEditReply(ctx, actorID, reply)
		case strings.ToLower(labelRemove):
			reply := b.editor.Step(ctx, actorID, string(editflow.OpRemove))
			return true, b.sendEditReply(ctx, actorID, reply)
		}
		if b.hasCategory(text) {
			reply := b.editor.Step(ctx, actorID, text)
			return true, b.sendEditReply(ctx, actorID, reply)
		}
	}
	return false, nil
}

func (b *Bot) sendEditReply(ctx context.Context, actorID int64, reply editflow.Reply) error {
	if reply.Done {
		b.setPanelMode(actorID, "panel")
		return b.send(ctx, actorID, Message{Text: reply.Message, Buttons: b.adminMenu()})
	}
	return b.send(ctx, actorID, Message{Text: reply.Message, Buttons: b.editMenu()})
}

const degradedNote = "\n\nNote: live membership is unavailable, the list may be incomplete."

func (b *Bot) sendStudents(ctx context.Context, actorID int64) error {
	names, pruned, err := b.students.ListStudents(ctx, true)
	degraded := errors.Is(err, roster.ErrDegraded)
	if err != nil && !degraded {
		b.log.Warn("student list failed", "error", err)
		return b.send(ctx, actorID, Message{
			Text:    "Could not fetch the student list: " + err.Error(),
			Buttons: b.adminMenu(),
		})
	}
	text := fmt.Sprintf("Students (%d):\n%s", len(names), render.NumberedList(names))
	if pruned > 0 {
		text += fmt.Sprintf("\n\nPruned %d departed contact(s).", pruned)
	}
	if degraded {
		text += degradedNote
	}
	return b.send(ctx, actorID, Message{Text: text, Buttons: b.adminMenu()})
}

func (b *Bot) sendUnbooked(ctx context.Context, actorID int64) error {
	names, _, err := b.students.ListStudents(ctx, false)
	degraded := errors.Is(err, roster.ErrDegraded)
	if err != nil && !degraded {
		b.log.Warn("student list failed", "error", err)
		return b.send(ctx, actorID, Message{
			Text:    "Unbooked: no membership data available.",
			Buttons: b.adminMenu(),
		})
	}
	sets := make(map[string]map[string]struct{}, len(b.categories))
	for _, cat := range b.categories {
		sets[cat] = b.engine.BookedSet(cat)
	}
	text := render.UnbookedReport(names, b.categories, sets)
	if degraded {
		text += degradedNote
	}
	return b.send(ctx, actorID, Message{
		Text:    text,
		Buttons: b.adminMenu(),
	})
}

func (b *Bot) sendAdmins(ctx context.Context, actorID int64) error {
	ids := b.admins.AdminIDs()
	names, err := roster.ResolveNames(ctx, b.batch, ids, b.nameBatch)
	if err != nil {
		b.log.Warn("admin name resolution failed", "error", err)
		names = make([]string, len(ids))
		for i, id := range ids {
			names[i] = fmt.Sprintf("id%d", id)
		}
	}
	text := fmt.Sprintf("Administrators (%d):\n%s", len(ids), render.NumberedList(names))
	return b.send(ctx, actorID, Message{Text: text, Buttons: b.adminMenu()})
}

func (b *Bot) handleSelfService(ctx context.Context, actorID int64, name, text, lower string) (bool, error) {
	if lower == strings.ToLower(labelChoose) {
		b.clearPending(actorID)
		return true, b.send(ctx, actorID, Message{Text: "Pick a category:", Buttons: b.categoryMenu()})
	}

	if b.hasCategory(text) {
		cat, _ := b.store.Category(text)
		configured := false
		for _, slot := range cat.Slots {
			if slot.Configured() {
				configured = true
				break
			}
		}
		if !configured {
			return true, b.send(ctx, actorID, Message{Text: "The slots are not configured yet."})
		}
		b.setPendingCategory(actorID, text)
		return true, b.send(ctx, actorID, Message{
			Text:    fmt.Sprintf("%s. Pick a slot:", text),
			Buttons: b.slotMenu(text),
		})
	}

	category, pending := b.getPendingCategory(actorID)
	if !pending {
		return false, nil
	}
	cat, ok := b.store.Category(category)
	if !ok {
		b.clearPending(actorID)
		return false, nil
	}
	for _, slot := range cat.Slots {
		if !slot.Configured() || slot.Title != text {
			continue
		}
		res, err := b.engine.Book(ctx, category, slot.Key, name)
		if err != nil {
			return true, err
		}
		switch res {
		case booking.Ok:
			b.clearPending(actorID)
			return true, b.send(ctx, actorID, Message{Text: fmt.Sprintf("Booked: %s -> %s", category, slot.Title)})
		case booking.AlreadyBooked:
			return true, b.send(ctx, actorID, Message{Text: "You are already booked into this slot."})
		case booking.LimitReached:
			return true, b.send(ctx, actorID, Message{Text: fmt.Sprintf("You already have a booking in %q.", category)})
		case booking.SlotFull:
			return true, b.send(ctx, actorID, Message{Text: fmt.Sprintf("Slot is full (%d).", cat.Capacity)})
		default:
			return true, b.send(ctx, actorID, Message{Text: "This slot is no longer available."})
		}
	}
	return false, nil
}

func (b *Bot) adminHelpText() string {
	return "Admin help\n\n" +
		"Configure one slot:\n" +
		"* /set<code> N DATE TIME CAP LIMIT\n" +
		"  example: /setpr 1 19.01 18:00-20:00 12 1\n\n" +
		"Configure the schedule in bulk (up to 4 slots):\n" +
		"* /set<code> d1 t1 [d2 t2 ...] CAP LIMIT\n\n" +
		"Clear one slot without shifting:\n" +
		"* /del<code> N\n\n" +
		"Drop all bookings in a category:\n" +
		"* /clear<code>\n\n" +
		"Button flow: Admin -> Edit -> Add/Remove -> category -> student number -> (for Add) slot number."
}

func (b *Bot) send(ctx context.Context, actorID int64, msg Message) error {
	return b.responder.Send(ctx, actorID, msg)
}

func (b *Bot) hasCategory(name string) bool {
	for _, c := range b.categories {
		if c == name {
			return true
		}
	}
	return false
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func (b *Bot) resetConversation(actorID int64) {
	b.mu.Lock()
	delete(b.pendingCategory, actorID)
	delete(b.pendingReset, actorID)
	delete(b.panelMode, actorID)
	b.mu.Unlock()
}

func (b *Bot) clearPending(actorID int64) {
	b.mu.Lock()
	delete(b.pendingCategory, actorID)
	delete(b.pendingReset, actorID)
	b.mu.Unlock()
}

func (b *Bot) setPendingCategory(actorID int64, category string) {
	b.mu.Lock()
	b.pendingCategory[actorID] = category
	delete(b.pendingReset, actorID)
	b.mu.Unlock()
}

func (b *Bot) getPendingCategory(actorID int64) (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	c, ok := b.pendingCategory[actorID]
	return c, ok
}

func (b *Bot) setPendingReset(actorID int64) {
	b.mu.Lock()
	b.pendingReset[actorID] = true
	delete(b.pendingCategory, actorID)
	b.mu.Unlock()
}

func (b *Bot) isPendingReset(actorID int64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pendingReset[actorID]
}

func (b *Bot) setPanelMode(actorID int64, mode string) {
	b.mu.Lock()
	if mode == "" {
		delete(b.panelMode, actorID)
	} else {
		b.panelMode[actorID] = mode
	}
	b.mu.Unlock()
}

func (b *Bot) getPanelMode(actorID int64) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.panelMode[actorID]
}
