package booking

import (
	"context"
	"errors"

	"github.com/avoronov/slotbot/pkg/logger"
	"github.com/avoronov/slotbot/pkg/store"
)

// Engine performs booking mutations through the store's atomic update
// boundary, so capacity and limit checks apply with respect to any
// concurrent attempt.
type Engine struct {
	store *store.Store
	log   logger.Logger
}

// New creates a booking engine over the given store.
func New(st *store.Store, log logger.Logger) *Engine {
	return &Engine{store: st, log: log}
}

// Book attempts to add user to the given slot.
//
// Checks run in order: slot configured, not already booked, per-user
// limit, capacity. Only when all pass is the user appended and the
// snapshot persisted. The order is part of the contract: rejection
// messages must name the first failing condition.
//
// Returns store.ErrUnknownCategory or store.ErrUnknownSlot for
// malformed references; those are validation failures, not booking
// outcomes.
func (e *Engine) Book(ctx context.Context, category, slotKey, user string) (Result, error) {
	result := Ok

	err := e.store.Update(ctx, func(snap *store.Snapshot) error {
		cat, ok := snap.Categories[category]
		if !ok {
			return store.ErrUnknownCategory
		}

		idx := -1
		for i := range cat.Slots {
			if cat.Slots[i].Key == slotKey {
				idx = i
				break
			}
		}
		if idx == -1 {
			return store.ErrUnknownSlot
		}
		slot := &cat.Slots[idx]

		if !slot.Configured() {
			result = SlotNotConfigured
			return errSkipSave
		}
		if slot.Has(user) {
			result = AlreadyBooked
			return errSkipSave
		}
		if countInCategory(cat, user) >= cat.LimitPerUser {
			result = LimitReached
			return errSkipSave
		}
		if len(slot.Users) >= cat.Capacity {
			result = SlotFull
			return errSkipSave
		}

		slot.Users = append(slot.Users, user)
		snap.Categories[category] = cat
		return nil
	})

	if err == errSkipSave {
		e.log.Debug("booking rejected",
			"category", category,
			"slot", slotKey,
			"user", user,
			"result", result)
		return result, nil
	}
	if err != nil {
		return result, err
	}

	e.log.Info("booking committed",
		"category", category,
		"slot", slotKey,
		"user", user)
	return Ok, nil
}

// UnbookCategory removes the user from every slot of the category and
// returns how many slots they were removed from. Zero is a valid
// outcome, which also makes the operation idempotent. Removal sweeps
// all slots rather than stopping at the first hit, so it stays correct
// when the per-user limit exceeds one.
func (e *Engine) UnbookCategory(ctx context.Context, category, user string) (int, error) {
	removed := 0

	err := e.store.Update(ctx, func(snap *store.Snapshot) error {
		cat, ok := snap.Categories[category]
		if !ok {
			return store.ErrUnknownCategory
		}

		for i := range cat.Slots {
			cat.Slots[i].Users, removed = removeUser(cat.Slots[i].Users, user, removed)
		}
		if removed == 0 {
			return errSkipSave
		}

		snap.Categories[category] = cat
		return nil
	})

	if err == errSkipSave {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	e.log.Info("bookings removed",
		"category", category,
		"user", user,
		"count", removed)
	return removed, nil
}

// UnbookAll removes the user from every slot of every category. Used by
// the self-service full reset and by roster reconciliation when a user
// leaves the group.
func (e *Engine) UnbookAll(ctx context.Context, user string) int {
	removed := 0

	err := e.store.Update(ctx, func(snap *store.Snapshot) error {
		for name, cat := range snap.Categories {
			for i := range cat.Slots {
				cat.Slots[i].Users, removed = removeUser(cat.Slots[i].Users, user, removed)
			}
			snap.Categories[name] = cat
		}
		if removed == 0 {
			return errSkipSave
		}
		return nil
	})
	if err != nil && err != errSkipSave {
		// Update only fails when the callback fails; ours cannot.
		e.log.Error("unbook all failed", "user", user, "error", err)
	}

	if removed > 0 {
		e.log.Info("all bookings removed", "user", user, "count", removed)
	}
	return removed
}

// CountInCategory returns how many of the category's slots contain the
// user.
func (e *Engine) CountInCategory(user, category string) int {
	cat, ok := e.store.Category(category)
	if !ok {
		return 0
	}
	return countInCategory(cat, user)
}

// BookedSet returns the set of users holding at least one booking in
// the category, including bookings in slots whose title was cleared.
func (e *Engine) BookedSet(category string) map[string]struct{} {
	booked := make(map[string]struct{})

	cat, ok := e.store.Category(category)
	if !ok {
		return booked
	}
	for _, slot := range cat.Slots {
		for _, user := range slot.Users {
			booked[user] = struct{}{}
		}
	}
	return booked
}

// errSkipSave aborts a store.Update without persisting; used when a
// check rejects the mutation so rejections stay write-free.
var errSkipSave = errors.New("booking rejected")

func countInCategory(cat store.Category, user string) int {
	n := 0
	for _, slot := range cat.Slots {
		if slot.Has(user) {
			n++
		}
	}
	return n
}

// removeUser filters user out of a slot's user list, bumping the removed
// counter per occurrence.
func removeUser(users []string, user string, removed int) ([]string, int) {
	out := users[:0]
	for _, u := range users {
		if u == user {
			removed++
			continue
		}
		out = append(out, u)
	}
	return out, removed
}
