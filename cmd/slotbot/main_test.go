package main

import (
	"context"
	"flag"
	"testing"

	"github.com/avoronov/slotbot/pkg/config"
	"github.com/avoronov/slotbot/pkg/logger"
	"github.com/avoronov/slotbot/pkg/store"
)

// TestRunCommandFlags tests run command flag parsing.
func TestRunCommandFlags(t *testing.T) {
	tests := []struct {
		name      string
		args      []string
		wantActor int64
		wantName  string
	}{
		{
			name:      "defaults",
			args:      []string{},
			wantActor: 1,
			wantName:  "Console User",
		},
		{
			name:      "custom actor",
			args:      []string{"-actor", "42", "-name", "Jane Doe"},
			wantActor: 42,
			wantName:  "Jane Doe",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := flag.NewFlagSet("run", flag.ContinueOnError)
			actorID := fs.Int64("actor", 1, "actor id")
			actorName := fs.String("name", "Console User", "display name")

			if err := fs.Parse(tt.args); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if *actorID != tt.wantActor {
				t.Errorf("actor = %d, want %d", *actorID, tt.wantActor)
			}
			if *actorName != tt.wantName {
				t.Errorf("name = %q, want %q", *actorName, tt.wantName)
			}
		})
	}
}

func TestSchemaFromConfig(t *testing.T) {
	cfg := config.Default()

	schema := schemaFromConfig(cfg)

	if len(schema.Categories) != 2 {
		t.Fatalf("categories = %v", schema.Categories)
	}
	if schema.Categories[0] != "Programming" || schema.Categories[1] != "Accounting" {
		t.Errorf("categories = %v", schema.Categories)
	}
	if schema.SlotCount != 4 || schema.DefaultCapacity != 13 || schema.DefaultLimitPerUser != 1 {
		t.Errorf("schema = %+v", schema)
	}
}

func TestCategoryRefs(t *testing.T) {
	cfg := config.Default()

	refs := categoryRefs(cfg)

	if len(refs) != 2 {
		t.Fatalf("refs = %v", refs)
	}
	if refs[0].Code != "pr" || refs[0].Name != "Programming" {
		t.Errorf("refs[0] = %+v", refs[0])
	}
}

func TestAdminSetUpdate(t *testing.T) {
	s := newAdminSet([]int64{1, 2})

	if !s.IsAdmin(1) || s.IsAdmin(3) {
		t.Errorf("initial admin set wrong")
	}

	s.Update([]int64{3})

	if s.IsAdmin(1) {
		t.Errorf("stale admin kept after update")
	}
	if !s.IsAdmin(3) {
		t.Errorf("new admin missing after update")
	}
	if got := s.AdminIDs(); len(got) != 1 || got[0] != 3 {
		t.Errorf("AdminIDs() = %v", got)
	}
}

func TestCacheBatchResolvesFromContacts(t *testing.T) {
	schema := store.Schema{
		Categories:          []string{"Programming"},
		SlotCount:           4,
		DefaultCapacity:     13,
		DefaultLimitPerUser: 1,
	}
	st := store.New(store.DefaultSnapshot(schema), schema, nil, logger.Noop())
	st.TouchContact(context.Background(), "5", "Known Person")

	names, err := cacheBatch{store: st}.ResolveNames(context.Background(), []int64{5, 6})
	if err != nil {
		t.Fatalf("ResolveNames() error = %v", err)
	}
	if names[0] != "Known Person" {
		t.Errorf("names[0] = %q", names[0])
	}
	if names[1] != "id6" {
		t.Errorf("names[1] = %q", names[1])
	}
}

// TestCommandRouting tests that commands are routed correctly.
func TestCommandRouting(t *testing.T) {
	validCommands := map[string]bool{
		"run":      true,
		"schedule": true,
		"config":   true,
		"help":     true,
	}

	tests := []struct {
		command     string
		shouldRoute bool
	}{
		{"run", true},
		{"schedule", true},
		{"config", true},
		{"help", true},
		{"stats", false},
		{"unknown", false},
	}

	for _, tt := range tests {
		if validCommands[tt.command] != tt.shouldRoute {
			t.Errorf("command %q validity = %v, want %v", tt.command, validCommands[tt.command], tt.shouldRoute)
		}
	}
}
