package store

import (
	"context"
	"errors"
	"testing"

	"github.com/avoronov/slotbot/pkg/logger"
)

// recordingSaver counts Save calls and remembers the last snapshot.
type recordingSaver struct {
	calls int
	last  Snapshot
	err   error
}

func (r *recordingSaver) Save(_ context.Context, snap Snapshot) error {
	r.calls++
	r.last = snap
	return r.err
}

func newTestStore(saver Saver) *Store {
	schema := testSchema()
	return New(DefaultSnapshot(schema), schema, saver, logger.Noop())
}

func TestSetSlotTitlePreservesUsers(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(nil)

	err := st.Update(ctx, func(snap *Snapshot) error {
		cat := snap.Categories["Programming"]
		cat.Slots[0].Title = "Mon"
		cat.Slots[0].Users = []string{"Jane Doe", "John Roe"}
		snap.Categories["Programming"] = cat
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	if err := st.SetSlotTitle(ctx, "Programming", "S1", "Tue"); err != nil {
		t.Fatalf("SetSlotTitle() error = %v", err)
	}

	cat, _ := st.Category("Programming")
	if cat.Slots[0].Title != "Tue" {
		t.Errorf("title = %q, want Tue", cat.Slots[0].Title)
	}
	if len(cat.Slots[0].Users) != 2 {
		t.Errorf("users = %v, want preserved pair", cat.Slots[0].Users)
	}
}

func TestClearSlotDoesNotShift(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(nil)

	err := st.Update(ctx, func(snap *Snapshot) error {
		cat := snap.Categories["Programming"]
		cat.Slots[0].Title = "Mon"
		cat.Slots[0].Users = []string{"X", "Y"}
		cat.Slots[1].Title = "Tue"
		cat.Slots[1].Users = []string{"Z"}
		snap.Categories["Programming"] = cat
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	if err := st.ClearSlot(ctx, "Programming", "S1"); err != nil {
		t.Fatalf("ClearSlot() error = %v", err)
	}

	cat, _ := st.Category("Programming")

	if cat.Slots[0].Key != "S1" || cat.Slots[0].Title != "" || len(cat.Slots[0].Users) != 0 {
		t.Errorf("cleared slot = %+v, want empty S1", cat.Slots[0])
	}
	// Slot 2 keeps its key, title, and users.
	if cat.Slots[1].Key != "S2" || cat.Slots[1].Title != "Tue" || len(cat.Slots[1].Users) != 1 {
		t.Errorf("neighbor slot disturbed: %+v", cat.Slots[1])
	}
}

func TestClearCategoryKeepsTitles(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(nil)

	err := st.Update(ctx, func(snap *Snapshot) error {
		cat := snap.Categories["Accounting"]
		cat.Slots[2].Title = "Wed"
		cat.Slots[2].Users = []string{"Jane Doe"}
		snap.Categories["Accounting"] = cat
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	if err := st.ClearCategory(ctx, "Accounting"); err != nil {
		t.Fatalf("ClearCategory() error = %v", err)
	}

	cat, _ := st.Category("Accounting")
	if cat.Slots[2].Title != "Wed" {
		t.Errorf("title lost on clear: %+v", cat.Slots[2])
	}
	if len(cat.Slots[2].Users) != 0 {
		t.Errorf("users not cleared: %+v", cat.Slots[2])
	}
}

func TestSetCapacityAndLimit(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(nil)

	if err := st.SetCapacityAndLimit(ctx, "Programming", 20, 2); err != nil {
		t.Fatalf("SetCapacityAndLimit() error = %v", err)
	}

	cat, _ := st.Category("Programming")
	if cat.Capacity != 20 || cat.LimitPerUser != 2 {
		t.Errorf("got capacity=%d limit=%d, want 20/2", cat.Capacity, cat.LimitPerUser)
	}

	if err := st.SetCapacityAndLimit(ctx, "Programming", 0, 1); !errors.Is(err, ErrInvalidCapacity) {
		t.Errorf("error = %v, want ErrInvalidCapacity", err)
	}
	if err := st.SetCapacityAndLimit(ctx, "Programming", 5, 0); !errors.Is(err, ErrInvalidLimit) {
		t.Errorf("error = %v, want ErrInvalidLimit", err)
	}
	if err := st.SetCapacityAndLimit(ctx, "Ghost", 5, 1); !errors.Is(err, ErrUnknownCategory) {
		t.Errorf("error = %v, want ErrUnknownCategory", err)
	}
}

func TestUnknownSlotKey(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(nil)

	if err := st.SetSlotTitle(ctx, "Programming", "S9", "Mon"); !errors.Is(err, ErrUnknownSlot) {
		t.Errorf("SetSlotTitle error = %v, want ErrUnknownSlot", err)
	}
	if err := st.ClearSlot(ctx, "Programming", "S9"); !errors.Is(err, ErrUnknownSlot) {
		t.Errorf("ClearSlot error = %v, want ErrUnknownSlot", err)
	}
}

func TestMutationsPersist(t *testing.T) {
	ctx := context.Background()
	saver := &recordingSaver{}
	st := newTestStore(saver)

	if err := st.SetSlotTitle(ctx, "Programming", "S1", "Mon"); err != nil {
		t.Fatal(err)
	}
	if saver.calls != 1 {
		t.Errorf("Save calls = %d, want 1", saver.calls)
	}
	if saver.last.Categories["Programming"].Slots[0].Title != "Mon" {
		t.Error("saved snapshot missing mutation")
	}

	// A failed mutation must not persist.
	_ = st.SetSlotTitle(ctx, "Ghost", "S1", "Mon")
	if saver.calls != 1 {
		t.Errorf("Save calls after failed mutation = %d, want 1", saver.calls)
	}
}

func TestSaverErrorDoesNotFailMutation(t *testing.T) {
	ctx := context.Background()
	saver := &recordingSaver{err: errors.New("disk full")}
	st := newTestStore(saver)

	if err := st.SetSlotTitle(ctx, "Programming", "S1", "Mon"); err != nil {
		t.Fatalf("mutation failed on saver error: %v", err)
	}

	cat, _ := st.Category("Programming")
	if cat.Slots[0].Title != "Mon" {
		t.Error("in-memory mutation lost")
	}
}

func TestTouchContact(t *testing.T) {
	ctx := context.Background()
	saver := &recordingSaver{}
	st := newTestStore(saver)

	st.TouchContact(ctx, "42", "Jane Doe")
	if saver.calls != 1 {
		t.Errorf("Save calls = %d, want 1", saver.calls)
	}

	// Unchanged name does not persist again.
	st.TouchContact(ctx, "42", "Jane Doe")
	if saver.calls != 1 {
		t.Errorf("Save calls after no-op touch = %d, want 1", saver.calls)
	}

	// A rename persists.
	st.TouchContact(ctx, "42", "Jane Smith")
	if saver.calls != 2 {
		t.Errorf("Save calls after rename = %d, want 2", saver.calls)
	}

	contacts := st.Contacts()
	if contacts["42"].Name != "Jane Smith" {
		t.Errorf("contact name = %q, want Jane Smith", contacts["42"].Name)
	}
}

func TestRemoveContact(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(nil)

	st.TouchContact(ctx, "42", "Jane Doe")

	if !st.RemoveContact(ctx, "42") {
		t.Error("RemoveContact() = false for existing contact")
	}
	if st.RemoveContact(ctx, "42") {
		t.Error("RemoveContact() = true for missing contact")
	}
}

func TestSnapshotIsCopy(t *testing.T) {
	st := newTestStore(nil)

	snap := st.Snapshot()
	cat := snap.Categories["Programming"]
	cat.Slots[0].Title = "tampered"
	snap.Categories["Programming"] = cat

	fresh, _ := st.Category("Programming")
	if fresh.Slots[0].Title != "" {
		t.Error("Snapshot() leaked a reference to live state")
	}
}
