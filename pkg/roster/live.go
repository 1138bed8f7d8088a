package roster

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/avoronov/slotbot/pkg/booking"
	"github.com/avoronov/slotbot/pkg/logger"
	"github.com/avoronov/slotbot/pkg/store"
)

// LiveSource builds the student list from the authoritative external
// membership, and reconciles the known-contact cache against it:
// contacts no longer in the group are dropped and their bookings
// cascaded away.
type LiveSource struct {
	membership Membership
	store      *store.Store
	engine     *booking.Engine
	admins     AdminDirectory
	cfg        Config
	log        logger.Logger

	// now is swappable for tests.
	now func() time.Time

	mu        sync.Mutex
	cached    []string
	fetchedAt time.Time
}

// NewLive creates the live roster source.
//
// Parameters:
//   - m: Membership query capability
//   - st: Store holding the known-contact cache
//   - eng: Booking engine for cascading removals
//   - admins: Administrator directory
//   - cfg: Roster configuration
//   - log: Logger instance
func NewLive(m Membership, st *store.Store, eng *booking.Engine, admins AdminDirectory, cfg Config, log logger.Logger) *LiveSource {
	if cfg.PageSize <= 0 {
		cfg.PageSize = 1000
	}
	if cfg.ManagerPageSize <= 0 {
		cfg.ManagerPageSize = 200
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 2 * time.Minute
	}

	return &LiveSource{
		membership: m,
		store:      st,
		engine:     eng,
		admins:     admins,
		cfg:        cfg,
		log:        log,
		now:        time.Now,
	}
}

// ListStudents implements Source.ListStudents.
//
// The fetched list is cached for the configured TTL to bound the rate
// of expensive external calls while keeping the admin edit flow
// responsive to recent joins; force bypasses the cache.
//
// When the membership query fails, the list degrades to the known
// contacts and is returned together with ErrDegraded. A later call
// retries the live query; the degraded result is never cached.
func (s *LiveSource) ListStudents(ctx context.Context, force bool) ([]string, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !force && len(s.cached) > 0 && s.now().Sub(s.fetchedAt) < s.cfg.CacheTTL {
		return append([]string(nil), s.cached...), 0, nil
	}

	managerIDs, err := s.fetchManagerIDs(ctx)
	if err != nil {
		return s.degrade(err)
	}

	members, err := s.fetchMembers(ctx)
	if err != nil {
		return s.degrade(err)
	}

	memberIDs := make(map[int64]bool, len(members))
	for _, m := range members {
		memberIDs[m.ID] = true
	}

	excluded := managerIDs
	for _, id := range s.admins.AdminIDs() {
		excluded[id] = true
	}

	names := make([]string, 0, len(members))
	seen := make(map[string]bool, len(members))
	for _, m := range members {
		if excluded[m.ID] || m.Name == "" || seen[m.Name] {
			continue
		}
		seen[m.Name] = true
		names = append(names, m.Name)
	}
	sortNames(names)

	pruned := s.reconcile(ctx, memberIDs)

	s.cached = names
	s.fetchedAt = s.now()

	s.log.Debug("student list refreshed",
		"students", len(names),
		"pruned", pruned)

	return append([]string(nil), names...), pruned, nil
}

// degrade serves the known-contact cache when the live query fails.
// Nothing is pruned: without membership truth a departure cannot be
// told apart from an outage.
func (s *LiveSource) degrade(cause error) ([]string, int, error) {
	names := contactNames(s.store, s.admins)
	s.log.Warn("membership query failed, serving cached contacts",
		"contacts", len(names),
		"error", cause)
	return names, 0, fmt.Errorf("%w: %v", ErrDegraded, cause)
}

// fetchMembers pages through the full membership. Pagination terminates
// when the declared total is exhausted or a page comes back empty,
// whichever happens first, so a lying total cannot loop forever.
func (s *LiveSource) fetchMembers(ctx context.Context) ([]Member, error) {
	var out []Member
	seen := make(map[int64]bool)

	offset := 0
	total := -1
	for {
		page, err := s.membership.Members(ctx, offset, s.cfg.PageSize)
		if err != nil {
			return nil, err
		}
		if total < 0 {
			total = page.Total
		}

		for _, m := range page.Items {
			if m.ID <= 0 || seen[m.ID] {
				continue
			}
			seen[m.ID] = true
			out = append(out, m)
		}

		offset += len(page.Items)
		if offset >= total || len(page.Items) == 0 {
			return out, nil
		}
	}
}

// fetchManagerIDs pages through the managers-only filter with the same
// termination guarantee as fetchMembers.
func (s *LiveSource) fetchManagerIDs(ctx context.Context) (map[int64]bool, error) {
	ids := make(map[int64]bool)

	offset := 0
	total := -1
	for {
		page, err := s.membership.Managers(ctx, offset, s.cfg.ManagerPageSize)
		if err != nil {
			return nil, err
		}
		if total < 0 {
			total = page.Total
		}

		for _, m := range page.Items {
			ids[m.ID] = true
		}

		offset += len(page.Items)
		if offset >= total || len(page.Items) == 0 {
			return ids, nil
		}
	}
}

// reconcile drops cached contacts that are no longer group members and
// cascades their bookings away. Administrators are kept: they are not
// students, but they have not left.
func (s *LiveSource) reconcile(ctx context.Context, memberIDs map[int64]bool) int {
	pruned := 0

	for rawID, contact := range s.store.Contacts() {
		id, err := strconv.ParseInt(rawID, 10, 64)
		if err != nil {
			continue
		}
		if memberIDs[id] || s.admins.IsAdmin(id) {
			continue
		}

		if s.store.RemoveContact(ctx, rawID) {
			pruned++
			if contact.Name != "" {
				removed := s.engine.UnbookAll(ctx, contact.Name)
				s.log.Info("departed member pruned",
					"id", rawID,
					"name", contact.Name,
					"bookings_removed", removed)
			}
		}
	}

	return pruned
}

// ResolveNames resolves ids to display names, chunking calls to the
// given batch ceiling. Used for administrator listings.
func ResolveNames(ctx context.Context, r BatchResolver, ids []int64, batchSize int) ([]string, error) {
	if batchSize <= 0 {
		batchSize = 900
	}

	names := make([]string, 0, len(ids))
	for start := 0; start < len(ids); start += batchSize {
		end := start + batchSize
		if end > len(ids) {
			end = len(ids)
		}
		chunk, err := r.ResolveNames(ctx, ids[start:end])
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		names = append(names, chunk...)
	}
	return names, nil
}

// sortNames orders names case-insensitively, with a bytewise tiebreak
// to keep the order deterministic.
func sortNames(names []string) {
	sort.Slice(names, func(i, j int) bool {
		li, lj := strings.ToLower(names[i]), strings.ToLower(names[j])
		if li != lj {
			return li < lj
		}
		return names[i] < names[j]
	})
}
