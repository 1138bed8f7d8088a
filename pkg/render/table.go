package render

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/term"

	"github.com/avoronov/slotbot/pkg/store"
)

const minTableWidth = 40

// WriteTable writes the schedule as an aligned table, one row per
// configured slot. When w is a terminal, rows are truncated to its
// width.
func WriteTable(w io.Writer, snap store.Snapshot, order []string) error {
	width := 0
	if f, ok := w.(interface{ Fd() uintptr }); ok {
		fd := int(f.Fd())
		if term.IsTerminal(fd) {
			if tw, _, err := term.GetSize(fd); err == nil && tw >= minTableWidth {
				width = tw
			}
		}
	}

	header := []string{"Category", "Slot", "Taken", "Free"}
	var rows [][]string
	for _, name := range order {
		cat, ok := snap.Categories[name]
		if !ok {
			continue
		}
		for _, slot := range cat.Slots {
			if !slot.Configured() {
				continue
			}
			taken := len(slot.Users)
			free := cat.Capacity - taken
			if free < 0 {
				free = 0
			}
			rows = append(rows, []string{
				name,
				slot.Title,
				fmt.Sprintf("%d/%d", taken, cat.Capacity),
				fmt.Sprintf("%d", free),
			})
		}
	}
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, "No slots configured")
		return err
	}

	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	if err := writeRow(w, header, widths, width); err != nil {
		return err
	}
	separator := make([]string, len(header))
	for i, cw := range widths {
		separator[i] = strings.Repeat("-", cw)
	}
	if err := writeRow(w, separator, widths, width); err != nil {
		return err
	}
	for _, row := range rows {
		if err := writeRow(w, row, widths, width); err != nil {
			return err
		}
	}
	return nil
}

func writeRow(w io.Writer, cells []string, widths []int, maxWidth int) error {
	parts := make([]string, len(cells))
	for i, cell := range cells {
		parts[i] = fmt.Sprintf("%-*s", widths[i], cell)
	}
	line := strings.TrimRight(strings.Join(parts, "  "), " ")
	if maxWidth > 0 && len(line) > maxWidth {
		line = line[:maxWidth]
	}
	_, err := fmt.Fprintln(w, line)
	return err
}
