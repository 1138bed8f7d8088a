// Package config provides configuration management for slotbot.
//
// Configuration is loaded with the following precedence:
// 1. Environment variables (highest priority)
// 2. Configuration file (YAML)
// 3. Default values (lowest priority)
//
// Example usage:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("categories: %v\n", cfg.CategoryNames())
package config

import (
	"time"
)

// CategoryConfig describes one bookable category (course track).
type CategoryConfig struct {
	// Name is the display name shown to users ("Programming").
	Name string `yaml:"name"`

	// Code is the short suffix used in admin text commands ("pr"
	// yields /setpr, /delpr, /clearpr).
	Code string `yaml:"code"`
}

// StorageConfig contains durable storage settings.
type StorageConfig struct {
	// Path to the BoltDB database file
	DBPath string `yaml:"db_path"`

	// DocumentName keys the snapshot document, locally and in the mirror
	DocumentName string `yaml:"document_name"`
}

// MirrorConfig contains the optional remote mirror settings.
//
// The mirror is best-effort: writes that fail are logged and swallowed,
// and the bot never blocks user-facing work on it.
type MirrorConfig struct {
	// BaseURL of the document store API; empty disables the mirror
	BaseURL string `yaml:"base_url"`

	// StoreID identifies the remote document container
	StoreID string `yaml:"store_id"`

	// Token authorizes remote reads and writes
	Token string `yaml:"token"`

	// Timeout bounds each remote call
	Timeout time.Duration `yaml:"timeout"`
}

// RosterConfig contains settings for the group-membership roster.
type RosterConfig struct {
	// BaseURL of the membership API
	BaseURL string `yaml:"base_url"`

	// GroupID is the external group whose members count as students
	GroupID int64 `yaml:"group_id"`

	// Token is the privileged membership-query credential; empty means
	// the live roster strategy is unavailable and the cached fallback
	// is used instead
	Token string `yaml:"token"`

	// PageSize for member pagination
	PageSize int `yaml:"page_size"`

	// ManagerPageSize for the managers-only pagination
	ManagerPageSize int `yaml:"manager_page_size"`

	// NameBatchSize caps one id-to-name resolution call
	NameBatchSize int `yaml:"name_batch_size"`

	// CacheTTL bounds how long a fetched member list is reused
	CacheTTL time.Duration `yaml:"cache_ttl"`
}

// APIConfig contains the ops HTTP server settings.
type APIConfig struct {
	// Addr to listen on (":10000")
	Addr string `yaml:"addr"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	// Log level (debug, info, warn, error)
	Level string `yaml:"level"`

	// Log output destination (stdout, stderr, file path)
	Output string `yaml:"output"`

	// Log format (text, json)
	Format string `yaml:"format"`
}

// Config represents the complete application configuration.
//
// Invariants:
// - at least one category, with unique names and codes
// - SlotsPerCategory, DefaultCapacity, DefaultLimitPerUser > 0
// - Roster page sizes and CacheTTL > 0
// - valid logging level and format.
type Config struct {
	// Bookable categories, in display order
	Categories []CategoryConfig `yaml:"categories"`

	// Fixed number of slots per category
	SlotsPerCategory int `yaml:"slots_per_category"`

	// Seats per slot for a freshly created category
	DefaultCapacity int `yaml:"default_capacity"`

	// Max concurrent bookings per user per category, for a fresh category
	DefaultLimitPerUser int `yaml:"default_limit_per_user"`

	// Administrator account ids
	Admins []int64 `yaml:"admins"`

	// ListLimit caps how many candidates an admin edit list shows
	ListLimit int `yaml:"list_limit"`

	// Storage settings
	Storage StorageConfig `yaml:"storage"`

	// Remote mirror settings
	Mirror MirrorConfig `yaml:"mirror"`

	// Roster settings
	Roster RosterConfig `yaml:"roster"`

	// Ops HTTP API settings
	API APIConfig `yaml:"api"`

	// Logging settings
	Logging LoggingConfig `yaml:"logging"`
}

// CategoryNames returns the category display names in configured order.
func (c *Config) CategoryNames() []string {
	names := make([]string, len(c.Categories))
	for i, cat := range c.Categories {
		names[i] = cat.Name
	}
	return names
}

// IsAdmin reports whether the given account id is an administrator.
func (c *Config) IsAdmin(id int64) bool {
	for _, a := range c.Admins {
		if a == id {
			return true
		}
	}
	return false
}

// MirrorEnabled reports whether a remote mirror is configured.
func (c *Config) MirrorEnabled() bool {
	return c.Mirror.BaseURL != "" && c.Mirror.StoreID != "" && c.Mirror.Token != ""
}

// LiveRosterEnabled reports whether the privileged membership query is
// available, selecting the live roster strategy at startup.
func (c *Config) LiveRosterEnabled() bool {
	return c.Roster.Token != "" && c.Roster.GroupID != 0
}

// Validate checks if the configuration satisfies all invariants.
func (c *Config) Validate() error {
	if len(c.Categories) == 0 {
		return ErrNoCategories
	}

	seenNames := make(map[string]bool, len(c.Categories))
	seenCodes := make(map[string]bool, len(c.Categories))
	for _, cat := range c.Categories {
		if cat.Name == "" || cat.Code == "" {
			return ErrInvalidCategory
		}
		if seenNames[cat.Name] || seenCodes[cat.Code] {
			return ErrDuplicateCategory
		}
		seenNames[cat.Name] = true
		seenCodes[cat.Code] = true
	}

	if c.SlotsPerCategory <= 0 {
		return ErrInvalidSlotCount
	}
	if c.DefaultCapacity <= 0 {
		return ErrInvalidCapacity
	}
	if c.DefaultLimitPerUser <= 0 {
		return ErrInvalidLimit
	}
	if c.ListLimit <= 0 {
		return ErrInvalidListLimit
	}

	if c.Roster.PageSize <= 0 || c.Roster.ManagerPageSize <= 0 || c.Roster.NameBatchSize <= 0 {
		return ErrInvalidPageSize
	}
	if c.Roster.CacheTTL <= 0 {
		return ErrInvalidCacheTTL
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[c.Logging.Level] {
		return ErrInvalidLogLevel
	}

	validFormats := map[string]bool{
		"text": true,
		"json": true,
	}
	if !validFormats[c.Logging.Format] {
		return ErrInvalidLogFormat
	}

	return nil
}
