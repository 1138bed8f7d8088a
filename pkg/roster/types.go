// Package roster decides who counts as an eligible "student": the
// ordered, de-duplicated, case-insensitively sorted list of display
// names offered for administrator selection and unbooked reporting.
//
// Two strategies exist, selected once at startup:
//
//   - Live: page through the external group's membership, excluding
//     administrators and group managers. Authoritative, cached with a
//     short TTL, and the only strategy that can prune departed members.
//   - Fallback: derive names from the known-contact cache (everyone who
//     ever interacted with the bot), excluding administrators. Used
//     when no privileged membership credential is configured; may carry
//     stale entries.
package roster

import (
	"context"
	"time"
)

// Member is one external group member.
type Member struct {
	// ID is the stable account identifier.
	ID int64

	// Name is the rendered display name.
	Name string
}

// Page is one page of a membership query. Total is the count the
// external service claims for the whole result; it is treated as a
// hint, not a promise.
type Page struct {
	Total int
	Items []Member
}

// Membership is the privileged external group-membership capability.
type Membership interface {
	// Members returns one page of group members starting at offset.
	Members(ctx context.Context, offset, count int) (Page, error)

	// Managers returns one page of the group's managers; those are
	// excluded from the student list.
	Managers(ctx context.Context, offset, count int) (Page, error)
}

// BatchResolver resolves account ids to display names. One call may
// carry at most the external service's batch ceiling; ResolveNames
// handles the chunking.
type BatchResolver interface {
	ResolveNames(ctx context.Context, ids []int64) ([]string, error)
}

// AdminDirectory exposes the locally configured administrators, who are
// never students.
type AdminDirectory interface {
	// IsAdmin reports whether the id belongs to an administrator.
	IsAdmin(id int64) bool

	// AdminIDs returns all administrator ids.
	AdminIDs() []int64
}

// Source produces the current student list.
type Source interface {
	// ListStudents returns the eligible names and the number of cached
	// contacts pruned while building the list. force bypasses any
	// cached result.
	//
	// An ErrDegraded error still carries usable names: the live data
	// was unreachable and the list came from the known-contact cache,
	// so it may be incomplete. Any other error carries no names.
	ListStudents(ctx context.Context, force bool) ([]string, int, error)
}

// Config contains roster tuning shared by both strategies.
type Config struct {
	// PageSize for member pagination.
	PageSize int

	// ManagerPageSize for the managers-only pagination.
	ManagerPageSize int

	// CacheTTL bounds how long a fetched member list is reused.
	CacheTTL time.Duration
}
