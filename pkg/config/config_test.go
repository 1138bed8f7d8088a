package config

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/avoronov/slotbot/pkg/logger"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default() config invalid: %v", err)
	}

	if len(cfg.Categories) != 2 {
		t.Errorf("Categories = %d, want 2", len(cfg.Categories))
	}
	if cfg.SlotsPerCategory != 4 {
		t.Errorf("SlotsPerCategory = %d, want 4", cfg.SlotsPerCategory)
	}
	if cfg.DefaultCapacity != 13 {
		t.Errorf("DefaultCapacity = %d, want 13", cfg.DefaultCapacity)
	}
	if cfg.DefaultLimitPerUser != 1 {
		t.Errorf("DefaultLimitPerUser = %d, want 1", cfg.DefaultLimitPerUser)
	}
	if cfg.Roster.CacheTTL != 2*time.Minute {
		t.Errorf("CacheTTL = %v, want 2m", cfg.Roster.CacheTTL)
	}
	if cfg.MirrorEnabled() {
		t.Error("MirrorEnabled() = true for default config")
	}
	if cfg.LiveRosterEnabled() {
		t.Error("LiveRosterEnabled() = true for default config")
	}
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{
			name:    "no categories",
			mutate:  func(c *Config) { c.Categories = nil },
			wantErr: ErrNoCategories,
		},
		{
			name: "empty code",
			mutate: func(c *Config) {
				c.Categories[0].Code = ""
			},
			wantErr: ErrInvalidCategory,
		},
		{
			name: "duplicate name",
			mutate: func(c *Config) {
				c.Categories[1].Name = c.Categories[0].Name
			},
			wantErr: ErrDuplicateCategory,
		},
		{
			name:    "zero slots",
			mutate:  func(c *Config) { c.SlotsPerCategory = 0 },
			wantErr: ErrInvalidSlotCount,
		},
		{
			name:    "zero capacity",
			mutate:  func(c *Config) { c.DefaultCapacity = 0 },
			wantErr: ErrInvalidCapacity,
		},
		{
			name:    "negative limit",
			mutate:  func(c *Config) { c.DefaultLimitPerUser = -1 },
			wantErr: ErrInvalidLimit,
		},
		{
			name:    "zero list limit",
			mutate:  func(c *Config) { c.ListLimit = 0 },
			wantErr: ErrInvalidListLimit,
		},
		{
			name:    "zero page size",
			mutate:  func(c *Config) { c.Roster.PageSize = 0 },
			wantErr: ErrInvalidPageSize,
		},
		{
			name:    "zero cache ttl",
			mutate:  func(c *Config) { c.Roster.CacheTTL = 0 },
			wantErr: ErrInvalidCacheTTL,
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.Logging.Level = "verbose" },
			wantErr: ErrInvalidLogLevel,
		},
		{
			name:    "bad log format",
			mutate:  func(c *Config) { c.Logging.Format = "xml" },
			wantErr: ErrInvalidLogFormat,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	content := `
categories:
  - name: Robotics
    code: rb
slots_per_category: 3
default_capacity: 8
admins: [101, 102]
roster:
  group_id: 555
  cache_ttl: 90s
logging:
  level: debug
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}

	if len(cfg.Categories) != 1 || cfg.Categories[0].Name != "Robotics" {
		t.Errorf("Categories = %+v, want single Robotics", cfg.Categories)
	}
	if cfg.SlotsPerCategory != 3 {
		t.Errorf("SlotsPerCategory = %d, want 3", cfg.SlotsPerCategory)
	}
	if cfg.DefaultCapacity != 8 {
		t.Errorf("DefaultCapacity = %d, want 8", cfg.DefaultCapacity)
	}
	// Unset fields keep their defaults.
	if cfg.DefaultLimitPerUser != 1 {
		t.Errorf("DefaultLimitPerUser = %d, want default 1", cfg.DefaultLimitPerUser)
	}
	if cfg.Roster.GroupID != 555 {
		t.Errorf("GroupID = %d, want 555", cfg.Roster.GroupID)
	}
	if cfg.Roster.CacheTTL != 90*time.Second {
		t.Errorf("CacheTTL = %v, want 90s", cfg.Roster.CacheTTL)
	}
	if !cfg.IsAdmin(101) || cfg.IsAdmin(999) {
		t.Error("IsAdmin() mismatch")
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %s, want debug", cfg.Logging.Level)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "absent.yaml"))
	if !errors.Is(err, ErrConfigNotFound) {
		t.Errorf("LoadFromFile() error = %v, want ErrConfigNotFound", err)
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("categories: ["), 0600); err != nil {
		t.Fatal(err)
	}

	_, err := LoadFromFile(path)
	if !errors.Is(err, ErrInvalidYAML) {
		t.Errorf("LoadFromFile() error = %v, want ErrInvalidYAML", err)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("SLOTBOT_DB", "/tmp/env.db")
	t.Setenv("SLOTBOT_LOG_LEVEL", "DEBUG")
	t.Setenv("SLOTBOT_ROSTER_TOKEN", "secret")
	t.Setenv("SLOTBOT_GROUP_ID", "777")
	t.Setenv("PORT", "8081")

	cfg := applyEnvVars(Default())

	if cfg.Storage.DBPath != "/tmp/env.db" {
		t.Errorf("DBPath = %s, want /tmp/env.db", cfg.Storage.DBPath)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %s, want debug", cfg.Logging.Level)
	}
	if cfg.Roster.Token != "secret" {
		t.Errorf("Roster.Token = %s, want secret", cfg.Roster.Token)
	}
	if cfg.Roster.GroupID != 777 {
		t.Errorf("GroupID = %d, want 777", cfg.Roster.GroupID)
	}
	if cfg.API.Addr != ":8081" {
		t.Errorf("API.Addr = %s, want :8081", cfg.API.Addr)
	}
	if !cfg.LiveRosterEnabled() {
		t.Error("LiveRosterEnabled() = false with token and group set")
	}
}

func TestSaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := Default()
	cfg.Admins = []int64{42}

	if err := Save(cfg, path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}
	if !loaded.IsAdmin(42) {
		t.Error("reloaded config lost admin list")
	}
}

func TestWatchFileReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := Save(Default(), path); err != nil {
		t.Fatal(err)
	}

	var mu sync.Mutex
	var got *Config
	w, err := WatchFile(path, func(c *Config) {
		mu.Lock()
		got = c
		mu.Unlock()
	}, logger.Noop())
	if err != nil {
		t.Fatalf("WatchFile() error = %v", err)
	}
	defer func() {
		if closeErr := w.Close(); closeErr != nil {
			t.Errorf("Close() error = %v", closeErr)
		}
	}()

	updated := Default()
	updated.Admins = []int64{7}
	if err := Save(updated, path); err != nil {
		t.Fatal(err)
	}

	deadline := time.After(3 * time.Second)
	for {
		mu.Lock()
		done := got != nil
		mu.Unlock()
		if done {
			break
		}
		select {
		case <-deadline:
			t.Fatal("reload callback never fired")
		case <-time.After(20 * time.Millisecond):
		}
	}

	mu.Lock()
	defer mu.Unlock()
	if !got.IsAdmin(7) {
		t.Error("reloaded config missing updated admin list")
	}
}

func TestWatchFileIgnoresBrokenConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := Save(Default(), path); err != nil {
		t.Fatal(err)
	}

	fired := make(chan struct{}, 1)
	w, err := WatchFile(path, func(*Config) {
		fired <- struct{}{}
	}, logger.Noop())
	if err != nil {
		t.Fatalf("WatchFile() error = %v", err)
	}
	defer func() { _ = w.Close() }()

	if err := os.WriteFile(path, []byte("categories: ["), 0600); err != nil {
		t.Fatal(err)
	}

	select {
	case <-fired:
		t.Error("callback fired for invalid config")
	case <-time.After(600 * time.Millisecond):
	}
}
