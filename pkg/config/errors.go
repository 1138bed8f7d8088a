package config

import "errors"

// Common errors returned by configuration loading and validation.
var (
	// ErrConfigNotFound is returned when a config file does not exist.
	ErrConfigNotFound = errors.New("config file not found")

	// ErrInvalidYAML is returned when a config file cannot be parsed.
	ErrInvalidYAML = errors.New("invalid YAML in config file")

	// ErrNoCategories is returned when no categories are configured.
	ErrNoCategories = errors.New("at least one category must be configured")

	// ErrInvalidCategory is returned when a category lacks a name or code.
	ErrInvalidCategory = errors.New("category name and code must not be empty")

	// ErrDuplicateCategory is returned when two categories share a name or code.
	ErrDuplicateCategory = errors.New("category names and codes must be unique")

	// ErrInvalidSlotCount is returned when slots_per_category is not positive.
	ErrInvalidSlotCount = errors.New("slots_per_category must be > 0")

	// ErrInvalidCapacity is returned when default_capacity is not positive.
	ErrInvalidCapacity = errors.New("default_capacity must be > 0")

	// ErrInvalidLimit is returned when default_limit_per_user is not positive.
	ErrInvalidLimit = errors.New("default_limit_per_user must be > 0")

	// ErrInvalidListLimit is returned when list_limit is not positive.
	ErrInvalidListLimit = errors.New("list_limit must be > 0")

	// ErrInvalidPageSize is returned when a roster page size is not positive.
	ErrInvalidPageSize = errors.New("roster page sizes must be > 0")

	// ErrInvalidCacheTTL is returned when the roster cache TTL is not positive.
	ErrInvalidCacheTTL = errors.New("roster cache_ttl must be > 0")

	// ErrInvalidLogLevel is returned when the log level is not recognized.
	ErrInvalidLogLevel = errors.New("log level must be debug, info, warn, or error")

	// ErrInvalidLogFormat is returned when the log format is not recognized.
	ErrInvalidLogFormat = errors.New("log format must be text or json")
)
