package store

import (
	"context"
	"strings"
	"sync"

	"github.com/avoronov/slotbot/pkg/logger"
)

// Saver persists a snapshot after a mutation. A local write failure is
// the saver's to report; the store logs it and the mutation stays
// committed in memory (booking confirmation is not coupled to storage
// durability).
type Saver interface {
	Save(ctx context.Context, snap Snapshot) error
}

// Store holds the in-memory state and serializes all access behind one
// coarse lock. Cross-category invariants are checked-and-applied
// atomically with respect to any other booking attempt; contention is
// bounded by human typing speed.
type Store struct {
	mu     sync.Mutex
	schema Schema
	snap   Snapshot
	saver  Saver
	log    logger.Logger
}

// New creates a store over the given snapshot. The snapshot is expected
// to be canonical (the gateway normalizes on load); schema membership is
// still what all operations validate against.
func New(snap Snapshot, schema Schema, saver Saver, log logger.Logger) *Store {
	return &Store{
		schema: schema,
		snap:   snap,
		saver:  saver,
		log:    log,
	}
}

// Schema returns the store's fixed shape.
func (s *Store) Schema() Schema {
	return s.schema
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap.Clone()
}

// Update runs fn on the live snapshot under the store lock and persists
// the result when fn succeeds. It is the atomic check-and-apply boundary
// used by the booking engine.
func (s *Store) Update(ctx context.Context, fn func(*Snapshot) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := fn(&s.snap); err != nil {
		return err
	}

	s.persistLocked(ctx)
	return nil
}

// persistLocked writes the current snapshot through the saver. Failures
// are logged, never propagated: the in-memory mutation is already
// committed and the caller's confirmation must not depend on I/O.
func (s *Store) persistLocked(ctx context.Context) {
	if s.saver == nil {
		return
	}
	if err := s.saver.Save(ctx, s.snap.Clone()); err != nil {
		s.log.Error("failed to persist snapshot, state held in memory only", "error", err)
	}
}

// Category returns a deep copy of the named category.
func (s *Store) Category(name string) (Category, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cat, ok := s.snap.Categories[name]
	if !ok {
		return Category{}, false
	}

	copied := Category{
		Capacity:     cat.Capacity,
		LimitPerUser: cat.LimitPerUser,
		Slots:        make([]Slot, len(cat.Slots)),
	}
	for i, slot := range cat.Slots {
		users := make([]string, len(slot.Users))
		copy(users, slot.Users)
		copied.Slots[i] = Slot{Key: slot.Key, Title: slot.Title, Users: users}
	}
	return copied, true
}

// SetCapacityAndLimit updates a category's capacity and per-user limit.
// Existing bookings are untouched, even if they exceed the new values;
// the limits are enforced on subsequent booking attempts.
func (s *Store) SetCapacityAndLimit(ctx context.Context, name string, capacity, limit int) error {
	if capacity <= 0 {
		return ErrInvalidCapacity
	}
	if limit <= 0 {
		return ErrInvalidLimit
	}

	return s.Update(ctx, func(snap *Snapshot) error {
		cat, ok := snap.Categories[name]
		if !ok {
			return ErrUnknownCategory
		}
		cat.Capacity = capacity
		cat.LimitPerUser = limit
		snap.Categories[name] = cat
		return nil
	})
}

// SetSlotTitle updates exactly one slot's title, never touching its user
// set, so reconfiguring a schedule preserves existing reservations.
func (s *Store) SetSlotTitle(ctx context.Context, name, slotKey, title string) error {
	return s.Update(ctx, func(snap *Snapshot) error {
		cat, ok := snap.Categories[name]
		if !ok {
			return ErrUnknownCategory
		}
		for i := range cat.Slots {
			if cat.Slots[i].Key == slotKey {
				cat.Slots[i].Title = strings.TrimSpace(title)
				snap.Categories[name] = cat
				return nil
			}
		}
		return ErrUnknownSlot
	})
}

// ClearSlot empties the title and user set of exactly one slot. Other
// slots keep their keys: clearing slot 2 must not turn slot 3 into
// slot 2.
func (s *Store) ClearSlot(ctx context.Context, name, slotKey string) error {
	return s.Update(ctx, func(snap *Snapshot) error {
		cat, ok := snap.Categories[name]
		if !ok {
			return ErrUnknownCategory
		}
		for i := range cat.Slots {
			if cat.Slots[i].Key == slotKey {
				cat.Slots[i].Title = ""
				cat.Slots[i].Users = []string{}
				snap.Categories[name] = cat
				return nil
			}
		}
		return ErrUnknownSlot
	})
}

// ClearCategory removes every booking in the category; titles stay.
func (s *Store) ClearCategory(ctx context.Context, name string) error {
	return s.Update(ctx, func(snap *Snapshot) error {
		cat, ok := snap.Categories[name]
		if !ok {
			return ErrUnknownCategory
		}
		for i := range cat.Slots {
			cat.Slots[i].Users = []string{}
		}
		snap.Categories[name] = cat
		return nil
	})
}

// TouchContact records (or refreshes) the display name cached for an
// account id. Called on every inbound interaction; persists only when
// something actually changed.
func (s *Store) TouchContact(ctx context.Context, id, name string) {
	if id == "" || name == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.snap.KnownContacts[id]
	if ok && existing.Name == name {
		return
	}

	s.snap.KnownContacts[id] = Contact{Name: name}
	s.persistLocked(ctx)
}

// Contacts returns a copy of the known-contact cache.
func (s *Store) Contacts() map[string]Contact {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]Contact, len(s.snap.KnownContacts))
	for id, c := range s.snap.KnownContacts {
		out[id] = c
	}
	return out
}

// RemoveContact drops a cached contact, reporting whether it existed.
// Used by roster reconciliation when a member has left the group.
func (s *Store) RemoveContact(ctx context.Context, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.snap.KnownContacts[id]; !ok {
		return false
	}

	delete(s.snap.KnownContacts, id)
	s.persistLocked(ctx)
	return true
}
