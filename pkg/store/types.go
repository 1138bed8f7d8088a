// Package store owns the durable booking data model: a fixed set of
// categories, each with a seat capacity, a per-user booking limit, and a
// fixed number of stable-keyed slots, plus the cache of known contacts.
//
// The store is the single source of truth for bookings. All mutation
// funnels through its methods (or through pkg/booking, which uses them),
// and every mutation is persisted through the gateway before returning.
//
// Example usage:
//
//	gw, err := store.NewGateway(gwCfg, schema, nil, log)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer gw.Close()
//
//	st := store.New(gw.Load(ctx), schema, gw, log)
package store

import (
	"fmt"
	"strings"
)

// Slot is a schedulable unit within a category. The key is stable and
// independent of position, so retitling or clearing one slot never
// disturbs bookings held by its neighbors.
type Slot struct {
	// Key is the stable slot identifier ("S1".."SN").
	Key string `json:"key"`

	// Title is the display string; empty means the slot is not
	// configured and is hidden from self-service booking.
	Title string `json:"title"`

	// Users holds booked display names. Semantically a set (duplicates
	// are forbidden), but order is preserved for display.
	Users []string `json:"users"`
}

// Configured reports whether the slot has a non-empty title.
func (s Slot) Configured() bool {
	return strings.TrimSpace(s.Title) != ""
}

// Has reports whether the given user is booked into this slot.
func (s Slot) Has(user string) bool {
	for _, u := range s.Users {
		if u == user {
			return true
		}
	}
	return false
}

// Category is a named booking domain: capacity and per-user limit apply
// to every slot in it.
type Category struct {
	// Capacity is the number of seats per slot.
	Capacity int `json:"capacity"`

	// LimitPerUser is the max concurrent bookings one user may hold
	// across this category's slots.
	LimitPerUser int `json:"limitPerUser"`

	// Slots is the ordered, fixed-length slot list.
	Slots []Slot `json:"slots"`
}

// Contact is a cached mapping entry from a stable account id to the
// display name last seen for it.
type Contact struct {
	Name string `json:"name"`
}

// Snapshot is the complete persisted document: known-contact cache plus
// all category state.
type Snapshot struct {
	KnownContacts map[string]Contact  `json:"knownContacts"`
	Categories    map[string]Category `json:"categories"`
}

// Clone returns a deep copy of the snapshot.
func (s Snapshot) Clone() Snapshot {
	out := Snapshot{
		KnownContacts: make(map[string]Contact, len(s.KnownContacts)),
		Categories:    make(map[string]Category, len(s.Categories)),
	}
	for id, c := range s.KnownContacts {
		out.KnownContacts[id] = c
	}
	for name, cat := range s.Categories {
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
		out.Categories[name] = copied
	}
	return out
}

// Schema fixes the shape every snapshot is normalized against: the
// closed category set, the slot count, and the defaults applied when a
// category has to be reconstructed.
type Schema struct {
	// Categories in display order.
	Categories []string

	// SlotCount is the fixed number of slots per category.
	SlotCount int

	// DefaultCapacity seeds capacity for reconstructed categories.
	DefaultCapacity int

	// DefaultLimitPerUser seeds the per-user limit for reconstructed
	// categories.
	DefaultLimitPerUser int
}

// SlotKeys returns the canonical key set S1..SN in order.
func (s Schema) SlotKeys() []string {
	keys := make([]string, s.SlotCount)
	for i := range keys {
		keys[i] = fmt.Sprintf("S%d", i+1)
	}
	return keys
}

// HasCategory reports whether name belongs to the schema's category set.
func (s Schema) HasCategory(name string) bool {
	for _, c := range s.Categories {
		if c == name {
			return true
		}
	}
	return false
}
