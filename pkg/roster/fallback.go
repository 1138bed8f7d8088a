package roster

import (
	"context"
	"strconv"

	"github.com/avoronov/slotbot/pkg/logger"
	"github.com/avoronov/slotbot/pkg/store"
)

// FallbackSource derives the student list from the known-contact cache:
// everyone who has ever interacted with the bot, minus administrators.
// It cannot detect members who left, so entries may be stale; this
// degraded mode is used only when the live capability is unavailable.
type FallbackSource struct {
	store  *store.Store
	admins AdminDirectory
	log    logger.Logger
}

// NewFallback creates the cached-contact roster source.
func NewFallback(st *store.Store, admins AdminDirectory, log logger.Logger) *FallbackSource {
	return &FallbackSource{store: st, admins: admins, log: log}
}

// ListStudents implements Source.ListStudents. The pruned count is
// always zero: without membership truth nothing can be pruned safely.
func (s *FallbackSource) ListStudents(_ context.Context, _ bool) ([]string, int, error) {
	return contactNames(s.store, s.admins), 0, nil
}

// contactNames derives sorted student names from the known-contact
// cache, excluding administrators. Shared with the live strategy's
// degraded path.
func contactNames(st *store.Store, admins AdminDirectory) []string {
	contacts := st.Contacts()

	names := make([]string, 0, len(contacts))
	seen := make(map[string]bool, len(contacts))
	for rawID, contact := range contacts {
		id, err := strconv.ParseInt(rawID, 10, 64)
		if err != nil {
			continue
		}
		if admins.IsAdmin(id) || contact.Name == "" || seen[contact.Name] {
			continue
		}
		seen[contact.Name] = true
		names = append(names, contact.Name)
	}
	sortNames(names)

	return names
}
