package store

import (
	"encoding/json"
)

// DefaultSnapshot returns the canonical empty store for the schema:
// every category present, every slot keyed, no titles, no bookings.
func DefaultSnapshot(schema Schema) Snapshot {
	snap := Snapshot{
		KnownContacts: make(map[string]Contact),
		Categories:    make(map[string]Category, len(schema.Categories)),
	}
	for _, name := range schema.Categories {
		snap.Categories[name] = defaultCategory(schema)
	}
	return snap
}

func defaultCategory(schema Schema) Category {
	slots := make([]Slot, 0, schema.SlotCount)
	for _, key := range schema.SlotKeys() {
		slots = append(slots, Slot{Key: key, Title: "", Users: []string{}})
	}
	return Category{
		Capacity:     schema.DefaultCapacity,
		LimitPerUser: schema.DefaultLimitPerUser,
		Slots:        slots,
	}
}

// NormalizeBytes decodes a persisted JSON document and repairs it to the
// canonical shape. It is total: undecodable input yields the default
// snapshot rather than an error.
func NormalizeBytes(data []byte, schema Schema) Snapshot {
	var doc map[string]interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return DefaultSnapshot(schema)
	}
	return Normalize(doc, schema)
}

// Normalize repairs an arbitrary decoded document to the canonical
// snapshot shape. All "tolerate legacy shapes" logic lives here; it
// never fails outward.
//
// Tolerated legacy forms:
//   - contact entries that are bare name strings instead of objects
//   - snake_case keys (known_users, limit_per_user) from older documents
//   - slots with missing keys (assigned positionally), missing titles,
//     or non-list user sets
//   - missing or non-object categories (reconstructed with defaults)
func Normalize(doc map[string]interface{}, schema Schema) Snapshot {
	snap := Snapshot{
		KnownContacts: normalizeContacts(doc),
		Categories:    make(map[string]Category, len(schema.Categories)),
	}

	rawCategories, _ := firstMap(doc, "categories")

	for _, name := range schema.Categories {
		rawCat, ok := rawCategories[name].(map[string]interface{})
		if !ok {
			snap.Categories[name] = defaultCategory(schema)
			continue
		}
		snap.Categories[name] = normalizeCategory(rawCat, schema)
	}

	return snap
}

func normalizeContacts(doc map[string]interface{}) map[string]Contact {
	out := make(map[string]Contact)

	raw, ok := firstMap(doc, "knownContacts", "known_users")
	if !ok {
		return out
	}

	for id, v := range raw {
		switch entry := v.(type) {
		case string:
			if entry != "" {
				out[id] = Contact{Name: entry}
			}
		case map[string]interface{}:
			name, _ := entry["name"].(string)
			out[id] = Contact{Name: name}
		}
	}

	return out
}

func normalizeCategory(raw map[string]interface{}, schema Schema) Category {
	cat := Category{
		Capacity:     intField(raw, schema.DefaultCapacity, "capacity"),
		LimitPerUser: intField(raw, schema.DefaultLimitPerUser, "limitPerUser", "limit_per_user"),
	}
	if cat.Capacity <= 0 {
		cat.Capacity = schema.DefaultCapacity
	}
	if cat.LimitPerUser <= 0 {
		cat.LimitPerUser = schema.DefaultLimitPerUser
	}

	keys := schema.SlotKeys()
	valid := make(map[string]bool, len(keys))
	for _, k := range keys {
		valid[k] = true
	}

	// Index salvageable slots by key, assigning positional keys to
	// entries that lost theirs.
	byKey := make(map[string]Slot, len(keys))
	rawSlots, _ := raw["slots"].([]interface{})
	for idx, rawSlot := range rawSlots {
		m, ok := rawSlot.(map[string]interface{})
		if !ok {
			continue
		}

		key, _ := m["key"].(string)
		if key == "" {
			if idx >= len(keys) {
				continue
			}
			key = keys[idx]
		}
		if !valid[key] {
			continue
		}

		title, _ := m["title"].(string)
		byKey[key] = Slot{Key: key, Title: title, Users: normalizeUsers(m["users"])}
	}

	cat.Slots = make([]Slot, 0, len(keys))
	for _, key := range keys {
		slot, ok := byKey[key]
		if !ok {
			slot = Slot{Key: key, Title: "", Users: []string{}}
		}
		cat.Slots = append(cat.Slots, slot)
	}

	return cat
}

// normalizeUsers rebuilds a user set, dropping non-strings, empties, and
// duplicates while preserving first-seen order.
func normalizeUsers(raw interface{}) []string {
	list, ok := raw.([]interface{})
	if !ok {
		return []string{}
	}

	users := make([]string, 0, len(list))
	seen := make(map[string]bool, len(list))
	for _, v := range list {
		name, ok := v.(string)
		if !ok || name == "" || seen[name] {
			continue
		}
		seen[name] = true
		users = append(users, name)
	}
	return users
}

// firstMap returns the first present map-valued field among the given
// keys (canonical name first, legacy aliases after).
func firstMap(doc map[string]interface{}, keys ...string) (map[string]interface{}, bool) {
	for _, key := range keys {
		if m, ok := doc[key].(map[string]interface{}); ok {
			return m, true
		}
	}
	return nil, false
}

// intField reads a numeric field that may arrive as float64 (JSON) or
// int, trying each key alias in order.
func intField(raw map[string]interface{}, fallback int, keys ...string) int {
	for _, key := range keys {
		switch v := raw[key].(type) {
		case float64:
			return int(v)
		case int:
			return v
		}
	}
	return fallback
}
