package booking

import (
	"context"
	"errors"
	"testing"

	"github.com/avoronov/slotbot/pkg/logger"
	"github.com/avoronov/slotbot/pkg/store"
)

func testSchema() store.Schema {
	return store.Schema{
		Categories:          []string{"Programming", "Accounting"},
		SlotCount:           4,
		DefaultCapacity:     13,
		DefaultLimitPerUser: 1,
	}
}

// configure titles a slot and optionally overrides capacity/limit.
func configure(t *testing.T, st *store.Store, category, slotKey, title string, capacity, limit int) {
	t.Helper()
	ctx := context.Background()
	if err := st.SetCapacityAndLimit(ctx, category, capacity, limit); err != nil {
		t.Fatal(err)
	}
	if err := st.SetSlotTitle(ctx, category, slotKey, title); err != nil {
		t.Fatal(err)
	}
}

func newEngine(t *testing.T) (*Engine, *store.Store) {
	t.Helper()
	schema := testSchema()
	st := store.New(store.DefaultSnapshot(schema), schema, nil, logger.Noop())
	return New(st, logger.Noop()), st
}

func TestBookAndRebook(t *testing.T) {
	// E2E: one slot "Mon", capacity 2, limit 1. X books, rebooks.
	ctx := context.Background()
	eng, st := newEngine(t)
	configure(t, st, "Programming", "S1", "Mon", 2, 1)

	res, err := eng.Book(ctx, "Programming", "S1", "X")
	if err != nil || res != Ok {
		t.Fatalf("Book() = %v, %v, want Ok", res, err)
	}

	booked := eng.BookedSet("Programming")
	if _, ok := booked["X"]; !ok || len(booked) != 1 {
		t.Errorf("BookedSet = %v, want {X}", booked)
	}

	res, err = eng.Book(ctx, "Programming", "S1", "X")
	if err != nil || res != AlreadyBooked {
		t.Fatalf("repeat Book() = %v, %v, want AlreadyBooked", res, err)
	}
	if len(eng.BookedSet("Programming")) != 1 {
		t.Error("set changed on rejected booking")
	}
}

func TestBookCapacity(t *testing.T) {
	// E2E: capacity 2, X and Y fit, Z is rejected with SlotFull.
	ctx := context.Background()
	eng, st := newEngine(t)
	configure(t, st, "Programming", "S1", "Mon", 2, 1)

	for _, user := range []string{"X", "Y"} {
		if res, err := eng.Book(ctx, "Programming", "S1", user); err != nil || res != Ok {
			t.Fatalf("Book(%s) = %v, %v, want Ok", user, res, err)
		}
	}

	res, err := eng.Book(ctx, "Programming", "S1", "Z")
	if err != nil || res != SlotFull {
		t.Fatalf("Book(Z) = %v, %v, want SlotFull", res, err)
	}

	cat, _ := st.Category("Programming")
	if len(cat.Slots[0].Users) != 2 {
		t.Errorf("slot users = %v, want 2 entries", cat.Slots[0].Users)
	}
}

func TestBookUnconfiguredSlot(t *testing.T) {
	ctx := context.Background()
	eng, _ := newEngine(t)

	res, err := eng.Book(ctx, "Programming", "S1", "X")
	if err != nil || res != SlotNotConfigured {
		t.Fatalf("Book() = %v, %v, want SlotNotConfigured", res, err)
	}
}

func TestBookCheckOrder(t *testing.T) {
	// With limit 1 a booked user is simultaneously at their limit; the
	// report must still be AlreadyBooked when targeting the same slot.
	ctx := context.Background()
	eng, st := newEngine(t)
	configure(t, st, "Programming", "S1", "Mon", 13, 1)
	if err := st.SetSlotTitle(ctx, "Programming", "S2", "Tue"); err != nil {
		t.Fatal(err)
	}

	if res, _ := eng.Book(ctx, "Programming", "S1", "X"); res != Ok {
		t.Fatalf("setup booking failed: %v", res)
	}

	if res, _ := eng.Book(ctx, "Programming", "S1", "X"); res != AlreadyBooked {
		t.Errorf("same slot = %v, want AlreadyBooked before LimitReached", res)
	}
	if res, _ := eng.Book(ctx, "Programming", "S2", "X"); res != LimitReached {
		t.Errorf("other slot = %v, want LimitReached", res)
	}
}

func TestBookLimitAboveOne(t *testing.T) {
	ctx := context.Background()
	eng, st := newEngine(t)
	configure(t, st, "Programming", "S1", "Mon", 13, 2)
	if err := st.SetSlotTitle(ctx, "Programming", "S2", "Tue"); err != nil {
		t.Fatal(err)
	}
	if err := st.SetSlotTitle(ctx, "Programming", "S3", "Wed"); err != nil {
		t.Fatal(err)
	}

	if res, _ := eng.Book(ctx, "Programming", "S1", "X"); res != Ok {
		t.Fatal("first booking rejected")
	}
	if res, _ := eng.Book(ctx, "Programming", "S2", "X"); res != Ok {
		t.Fatal("second booking rejected under limit 2")
	}
	if res, _ := eng.Book(ctx, "Programming", "S3", "X"); res != LimitReached {
		t.Errorf("third booking = %v, want LimitReached", res)
	}
	if got := eng.CountInCategory("X", "Programming"); got != 2 {
		t.Errorf("CountInCategory = %d, want 2", got)
	}
}

func TestBookUnknownReferences(t *testing.T) {
	ctx := context.Background()
	eng, _ := newEngine(t)

	if _, err := eng.Book(ctx, "Ghost", "S1", "X"); !errors.Is(err, store.ErrUnknownCategory) {
		t.Errorf("error = %v, want ErrUnknownCategory", err)
	}
	if _, err := eng.Book(ctx, "Programming", "S9", "X"); !errors.Is(err, store.ErrUnknownSlot) {
		t.Errorf("error = %v, want ErrUnknownSlot", err)
	}
}

func TestUnbookCategoryIdempotent(t *testing.T) {
	ctx := context.Background()
	eng, st := newEngine(t)
	configure(t, st, "Programming", "S1", "Mon", 13, 1)

	if res, _ := eng.Book(ctx, "Programming", "S1", "X"); res != Ok {
		t.Fatal("setup booking rejected")
	}

	removed, err := eng.UnbookCategory(ctx, "Programming", "X")
	if err != nil || removed != 1 {
		t.Fatalf("UnbookCategory() = %d, %v, want 1", removed, err)
	}

	removed, err = eng.UnbookCategory(ctx, "Programming", "X")
	if err != nil || removed != 0 {
		t.Fatalf("second UnbookCategory() = %d, %v, want 0", removed, err)
	}
}

func TestUnbookCategorySweepsAllSlots(t *testing.T) {
	ctx := context.Background()
	eng, st := newEngine(t)
	configure(t, st, "Programming", "S1", "Mon", 13, 2)
	if err := st.SetSlotTitle(ctx, "Programming", "S2", "Tue"); err != nil {
		t.Fatal(err)
	}

	if res, _ := eng.Book(ctx, "Programming", "S1", "X"); res != Ok {
		t.Fatal("booking rejected")
	}
	if res, _ := eng.Book(ctx, "Programming", "S2", "X"); res != Ok {
		t.Fatal("booking rejected")
	}

	removed, err := eng.UnbookCategory(ctx, "Programming", "X")
	if err != nil || removed != 2 {
		t.Fatalf("UnbookCategory() = %d, %v, want 2", removed, err)
	}
}

func TestUnbookAllCascades(t *testing.T) {
	ctx := context.Background()
	eng, st := newEngine(t)
	configure(t, st, "Programming", "S1", "Mon", 13, 1)
	configure(t, st, "Accounting", "S1", "Tue", 13, 1)

	if res, _ := eng.Book(ctx, "Programming", "S1", "U"); res != Ok {
		t.Fatal("booking rejected")
	}
	if res, _ := eng.Book(ctx, "Accounting", "S1", "U"); res != Ok {
		t.Fatal("booking rejected")
	}

	if removed := eng.UnbookAll(ctx, "U"); removed != 2 {
		t.Fatalf("UnbookAll() = %d, want 2", removed)
	}
	if len(eng.BookedSet("Programming")) != 0 || len(eng.BookedSet("Accounting")) != 0 {
		t.Error("bookings survived UnbookAll")
	}
	if removed := eng.UnbookAll(ctx, "U"); removed != 0 {
		t.Errorf("repeat UnbookAll() = %d, want 0", removed)
	}
}

func TestBookedSetIncludesClearedTitleSlots(t *testing.T) {
	// A slot whose title is wiped by bulk retitling keeps its users, and
	// they still count as booked.
	ctx := context.Background()
	eng, st := newEngine(t)
	configure(t, st, "Programming", "S1", "Mon", 13, 1)

	if res, _ := eng.Book(ctx, "Programming", "S1", "X"); res != Ok {
		t.Fatal("booking rejected")
	}
	if err := st.SetSlotTitle(ctx, "Programming", "S1", ""); err != nil {
		t.Fatal(err)
	}

	if _, ok := eng.BookedSet("Programming")["X"]; !ok {
		t.Error("user lost from booked set after title cleared")
	}
	if got := eng.CountInCategory("X", "Programming"); got != 1 {
		t.Errorf("CountInCategory = %d, want 1", got)
	}
}

func TestInvariantsUnderMixedSequence(t *testing.T) {
	// Random-ish interleaving of books and unbooks must never violate
	// capacity or the per-user limit.
	ctx := context.Background()
	eng, st := newEngine(t)
	configure(t, st, "Programming", "S1", "Mon", 3, 1)
	if err := st.SetSlotTitle(ctx, "Programming", "S2", "Tue"); err != nil {
		t.Fatal(err)
	}

	users := []string{"A", "B", "C", "D", "E"}
	for round := 0; round < 4; round++ {
		for i, u := range users {
			slot := "S1"
			if i%2 == 0 {
				slot = "S2"
			}
			if _, err := eng.Book(ctx, "Programming", slot, u); err != nil {
				t.Fatal(err)
			}
		}
		if _, err := eng.UnbookCategory(ctx, "Programming", users[round]); err != nil {
			t.Fatal(err)
		}

		cat, _ := st.Category("Programming")
		for _, slot := range cat.Slots {
			if len(slot.Users) > cat.Capacity {
				t.Fatalf("capacity violated: %v", slot.Users)
			}
		}
		for _, u := range users {
			if eng.CountInCategory(u, "Programming") > cat.LimitPerUser {
				t.Fatalf("limit violated for %s", u)
			}
		}
	}
}
