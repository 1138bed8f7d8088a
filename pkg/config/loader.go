package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Loader provides methods for loading configuration from various sources.
type Loader interface {
	// Load loads configuration with the following precedence:
	// 1. Environment variables
	// 2. Configuration file
	// 3. Default values
	//
	// Returns the merged configuration or an error if validation fails.
	Load() (*Config, error)

	// LoadFromFile loads configuration from a specific file.
	LoadFromFile(path string) (*Config, error)
}

type loader struct {
	configPath string
}

// NewLoader creates a new configuration loader.
//
// If configPath is empty, searches for a config file in:
// 1. ./config.yaml (current directory)
// 2. ~/.config/slotbot/config.yaml.
func NewLoader(configPath string) Loader {
	return &loader{configPath: configPath}
}

// Load implements Loader.Load.
func (l *loader) Load() (*Config, error) {
	cfg := Default()

	configPath := l.configPath
	if configPath == "" {
		configPath = l.findConfigFile()
	}

	if configPath != "" {
		fileCfg, err := l.LoadFromFile(configPath)
		if err != nil {
			// An explicitly requested file must load; an implicit one
			// may be absent, in which case defaults apply.
			if l.configPath != "" {
				return nil, fmt.Errorf("failed to load config from %s: %w", configPath, err)
			}
		} else {
			cfg = mergeConfigs(cfg, fileCfg)
		}
	}

	cfg = applyEnvVars(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// LoadFromFile implements Loader.LoadFromFile.
func (l *loader) LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path comes from flag or standard location
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}

	return &cfg, nil
}

// SearchPaths returns the standard config file locations, in order of
// precedence.
func SearchPaths() []string {
	return []string{
		"./config.yaml",
		defaultConfigPath(),
	}
}

// findConfigFile searches standard locations, returning "" if none exists.
func (l *loader) findConfigFile() string {
	for _, path := range SearchPaths() {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// mergeConfigs merges file configuration into the defaults.
//
// File values override defaults only when they are non-zero.
func mergeConfigs(base, override *Config) *Config {
	result := *base

	if len(override.Categories) > 0 {
		result.Categories = override.Categories
	}
	if override.SlotsPerCategory > 0 {
		result.SlotsPerCategory = override.SlotsPerCategory
	}
	if override.DefaultCapacity > 0 {
		result.DefaultCapacity = override.DefaultCapacity
	}
	if override.DefaultLimitPerUser > 0 {
		result.DefaultLimitPerUser = override.DefaultLimitPerUser
	}
	if len(override.Admins) > 0 {
		result.Admins = override.Admins
	}
	if override.ListLimit > 0 {
		result.ListLimit = override.ListLimit
	}

	if override.Storage.DBPath != "" {
		result.Storage.DBPath = override.Storage.DBPath
	}
	if override.Storage.DocumentName != "" {
		result.Storage.DocumentName = override.Storage.DocumentName
	}

	if override.Mirror.BaseURL != "" {
		result.Mirror.BaseURL = override.Mirror.BaseURL
	}
	if override.Mirror.StoreID != "" {
		result.Mirror.StoreID = override.Mirror.StoreID
	}
	if override.Mirror.Token != "" {
		result.Mirror.Token = override.Mirror.Token
	}
	if override.Mirror.Timeout > 0 {
		result.Mirror.Timeout = override.Mirror.Timeout
	}

	if override.Roster.BaseURL != "" {
		result.Roster.BaseURL = override.Roster.BaseURL
	}
	if override.Roster.GroupID != 0 {
		result.Roster.GroupID = override.Roster.GroupID
	}
	if override.Roster.Token != "" {
		result.Roster.Token = override.Roster.Token
	}
	if override.Roster.PageSize > 0 {
		result.Roster.PageSize = override.Roster.PageSize
	}
	if override.Roster.ManagerPageSize > 0 {
		result.Roster.ManagerPageSize = override.Roster.ManagerPageSize
	}
	if override.Roster.NameBatchSize > 0 {
		result.Roster.NameBatchSize = override.Roster.NameBatchSize
	}
	if override.Roster.CacheTTL > 0 {
		result.Roster.CacheTTL = override.Roster.CacheTTL
	}

	if override.API.Addr != "" {
		result.API.Addr = override.API.Addr
	}

	if override.Logging.Level != "" {
		result.Logging.Level = override.Logging.Level
	}
	if override.Logging.Output != "" {
		result.Logging.Output = override.Logging.Output
	}
	if override.Logging.Format != "" {
		result.Logging.Format = override.Logging.Format
	}

	return &result
}

// applyEnvVars applies environment variable overrides.
//
// Supported variables:
//   - SLOTBOT_DB: database file path
//   - SLOTBOT_LOG_LEVEL: log level
//   - SLOTBOT_ROSTER_TOKEN: privileged membership-query credential
//   - SLOTBOT_MIRROR_TOKEN: remote mirror credential
//   - SLOTBOT_GROUP_ID: external group id
//   - PORT: ops API port (host platform convention)
func applyEnvVars(cfg *Config) *Config {
	result := *cfg

	if dbPath := os.Getenv("SLOTBOT_DB"); dbPath != "" {
		result.Storage.DBPath = dbPath
	}
	if logLevel := os.Getenv("SLOTBOT_LOG_LEVEL"); logLevel != "" {
		result.Logging.Level = strings.ToLower(logLevel)
	}
	if token := os.Getenv("SLOTBOT_ROSTER_TOKEN"); token != "" {
		result.Roster.Token = token
	}
	if token := os.Getenv("SLOTBOT_MIRROR_TOKEN"); token != "" {
		result.Mirror.Token = token
	}
	if groupID := os.Getenv("SLOTBOT_GROUP_ID"); groupID != "" {
		if id, err := strconv.ParseInt(groupID, 10, 64); err == nil {
			result.Roster.GroupID = id
		}
	}
	if port := os.Getenv("PORT"); port != "" {
		result.API.Addr = ":" + port
	}

	return &result
}

// Load is a convenience function that creates a loader and loads
// configuration from the standard locations.
func Load() (*Config, error) {
	return NewLoader("").Load()
}

// LoadFromFile is a convenience function that loads configuration from a
// specific file, applying defaults and environment overrides.
func LoadFromFile(path string) (*Config, error) {
	return NewLoader(path).Load()
}

// Save writes the configuration to a YAML file with 0600 permissions.
func Save(cfg *Config, path string) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
