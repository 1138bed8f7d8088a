// Package render builds the presentable text views of the schedule:
// summary and detailed listings, a user's own bookings, and the
// administrator's unbooked report. Views hide slots without a title and
// never expose slot keys.
package render

import (
	"fmt"
	"strings"

	"github.com/avoronov/slotbot/pkg/store"
)

// Summary renders the short schedule: per category, each configured
// slot with its taken/free counts. Categories are listed in the given
// order.
func Summary(snap store.Snapshot, order []string) string {
	var lines []string
	lines = append(lines, "Schedule (summary)", "")
	for _, name := range order {
		cat, ok := snap.Categories[name]
		if !ok {
			continue
		}
		lines = append(lines, name)
		visible := false
		for _, slot := range cat.Slots {
			if !slot.Configured() {
				continue
			}
			visible = true
			lines = append(lines, slotLine(slot, cat.Capacity))
		}
		if !visible {
			lines = append(lines, "No slots configured.")
		}
		lines = append(lines, "")
	}
	lines = append(lines, "Ask for the detailed view to see who is booked.")
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// Detailed renders the schedule with the numbered user roster under
// each configured slot.
func Detailed(snap store.Snapshot, order []string) string {
	var lines []string
	lines = append(lines, "Schedule (detailed)", "")
	for _, name := range order {
		cat, ok := snap.Categories[name]
		if !ok {
			continue
		}
		lines = append(lines, name)
		visible := false
		for _, slot := range cat.Slots {
			if !slot.Configured() {
				continue
			}
			visible = true
			lines = append(lines, slotLine(slot, cat.Capacity), "")
			lines = append(lines, NumberedList(slot.Users), "")
		}
		if !visible {
			lines = append(lines, "No slots configured.")
		}
		lines = append(lines, "")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// MyBookings renders the slots the named user is booked into, per
// category, with a dash for categories without a booking.
func MyBookings(snap store.Snapshot, order []string, user string) string {
	var blocks []string
	booked := false
	for _, name := range order {
		cat, ok := snap.Categories[name]
		if !ok {
			continue
		}
		blocks = append(blocks, name)
		mine := 0
		for _, slot := range cat.Slots {
			if !slot.Configured() || !slot.Has(user) {
				continue
			}
			blocks = append(blocks, "* "+slot.Title)
			mine++
		}
		if mine == 0 {
			blocks = append(blocks, "-")
		} else {
			booked = true
		}
		blocks = append(blocks, "")
	}
	body := strings.TrimSpace(strings.Join(blocks, "\n"))
	if !booked {
		return "You are not booked anywhere.\n\n" + body
	}
	return "Your bookings:\n\n" + body
}

// UnbookedReport lists, for each student, the categories they are not
// booked in. Students booked everywhere are omitted. bookedSets maps a
// category name to its booked-user set.
func UnbookedReport(students []string, order []string, bookedSets map[string]map[string]struct{}) string {
	var lines []string
	for _, name := range students {
		var missing []string
		for _, cat := range order {
			if _, ok := bookedSets[cat][name]; !ok {
				missing = append(missing, cat)
			}
		}
		if len(missing) > 0 {
			lines = append(lines, fmt.Sprintf("* %s is not booked in: %s", name, strings.Join(missing, ", ")))
		}
	}
	if len(lines) == 0 {
		return "Unbooked students: none."
	}
	return fmt.Sprintf("Unbooked students (%d):\n\n%s", len(lines), strings.Join(lines, "\n"))
}

// NumberedList renders items as a 1-based numbered list, or a dash when
// the list is empty.
func NumberedList(items []string) string {
	if len(items) == 0 {
		return "-"
	}
	var b strings.Builder
	for i, item := range items {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%d. %s", i+1, item)
	}
	return b.String()
}

func slotLine(slot store.Slot, capacity int) string {
	taken := len(slot.Users)
	free := capacity - taken
	if free < 0 {
		free = 0
	}
	return fmt.Sprintf("%s | taken: %d/%d | free: %d", slot.Title, taken, capacity, free)
}
