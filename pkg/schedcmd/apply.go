package schedcmd

import (
	"context"
	"fmt"

	"github.com/avoronov/slotbot/pkg/store"
)

// Apply executes a parsed command against the store and returns a
// confirmation message for the administrator. Bulk schedule updates keep
// existing bookings; only ClearSlot and ClearBookings drop users.
func Apply(ctx context.Context, st *store.Store, cmd Command) (string, error) {
	keys := st.Schema().SlotKeys()

	switch c := cmd.(type) {
	case SetSlot:
		if err := st.SetCapacityAndLimit(ctx, c.Category, c.Capacity, c.Limit); err != nil {
			return "", err
		}
		if err := st.SetSlotTitle(ctx, c.Category, keys[c.Index-1], c.Title); err != nil {
			return "", err
		}
		return fmt.Sprintf("Updated slot %d in %q: %s\nCAP=%d, LIMIT=%d",
			c.Index, c.Category, c.Title, c.Capacity, c.Limit), nil

	case SetSchedule:
		if err := st.SetCapacityAndLimit(ctx, c.Category, c.Capacity, c.Limit); err != nil {
			return "", err
		}
		for i, key := range keys {
			title := ""
			if i < len(c.Titles) {
				title = c.Titles[i]
			}
			if err := st.SetSlotTitle(ctx, c.Category, key, title); err != nil {
				return "", err
			}
		}
		return fmt.Sprintf("Updated the %q schedule, bookings kept.", c.Category), nil

	case ClearSlot:
		if err := st.ClearSlot(ctx, c.Category, keys[c.Index-1]); err != nil {
			return "", err
		}
		return fmt.Sprintf("Cleared slot %d in %q, no shift.", c.Index, c.Category), nil

	case ClearBookings:
		if err := st.ClearCategory(ctx, c.Category); err != nil {
			return "", err
		}
		return fmt.Sprintf("Cleared %q: all bookings removed.", c.Category), nil

	default:
		return "", fmt.Errorf("unsupported command type %T", cmd)
	}
}
