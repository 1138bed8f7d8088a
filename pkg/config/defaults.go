package config

import (
	"os"
	"path/filepath"
	"time"
)

// Default returns a configuration with sensible default values.
//
// The defaults mirror a two-track deployment: two categories with four
// slots each, thirteen seats per slot, one booking per user per category.
func Default() *Config {
	return &Config{
		Categories: []CategoryConfig{
			{Name: "Programming", Code: "pr"},
			{Name: "Accounting", Code: "acc"},
		},
		SlotsPerCategory:    4,
		DefaultCapacity:     13,
		DefaultLimitPerUser: 1,
		ListLimit:           60,
		Storage: StorageConfig{
			DBPath:       defaultDBPath(),
			DocumentName: "state",
		},
		Mirror: MirrorConfig{
			Timeout: 15 * time.Second,
		},
		Roster: RosterConfig{
			BaseURL:         "https://api.vk.com",
			PageSize:        1000,
			ManagerPageSize: 200,
			NameBatchSize:   900,
			CacheTTL:        2 * time.Minute,
		},
		API: APIConfig{
			Addr: ":10000",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: "stderr",
			Format: "text",
		},
	}
}

// defaultDBPath returns the default database location under the user
// config directory, falling back to the working directory.
func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "slotbot.db"
	}
	return filepath.Join(home, ".config", "slotbot", "slotbot.db")
}

// defaultConfigPath returns the standard config file location.
func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(home, ".config", "slotbot", "config.yaml")
}
