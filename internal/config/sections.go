package config

import (
	"time"
	"unicode/utf8"
)

// StoreConfig names the table a command operates on.
type StoreConfig struct {
	// Name is the registry name of the imported table.
	Name string

	// ClonePrefix is prepended to a table name when cloning without an
	// explicit name.
	ClonePrefix string
}

// ListenerConfig holds defaults for script-registered listeners.
type ListenerConfig struct {
	DefaultOrder int
	SkipHistory  bool
	AllowLoop    bool
}

// CSVConfig controls CSV import and export.
type CSVConfig struct {
	// Delimiter separates fields.
	Delimiter rune

	// Header treats the first record as column headers.
	Header bool

	// Comment starts a comment line when non-zero.
	Comment rune

	TrimSpace  bool
	InferTypes bool
}

// WatchConfig controls the CSV file watcher.
type WatchConfig struct {
	Enabled  bool
	Debounce time.Duration
}

// ScriptConfig bounds Lua script execution.
type ScriptConfig struct {
	// InstructionLimit caps the cell API calls made by one execution; 0
	// disables the limit.
	InstructionLimit int

	// Timeout caps the wall time of a call; 0 disables it.
	Timeout time.Duration
}

// LogConfig controls glog verbosity.
type LogConfig struct {
	Verbosity int
}

// Store returns the store section.
func (c *Config) Store() StoreConfig {
	return StoreConfig{
		Name:        c.getStringOr("store.name", "main"),
		ClonePrefix: c.getStringOr("store.clone_prefix", "copy-of-"),
	}
}

// Listeners returns the listeners section.
func (c *Config) Listeners() ListenerConfig {
	return ListenerConfig{
		DefaultOrder: c.getIntOr("listeners.default_order", 0),
		SkipHistory:  c.getBoolOr("listeners.skip_history", false),
		AllowLoop:    c.getBoolOr("listeners.allow_loop", false),
	}
}

// CSV returns the csv section.
func (c *Config) CSV() CSVConfig {
	return CSVConfig{
		Delimiter:  c.getRuneOr("csv.delimiter", ','),
		Header:     c.getBoolOr("csv.header", true),
		Comment:    c.getRuneOr("csv.comment", 0),
		TrimSpace:  c.getBoolOr("csv.trim_space", false),
		InferTypes: c.getBoolOr("csv.infer_types", true),
	}
}

// Watch returns the watch section.
func (c *Config) Watch() WatchConfig {
	return WatchConfig{
		Enabled:  c.getBoolOr("watch.enabled", false),
		Debounce: c.getDurationOr("watch.debounce", 200*time.Millisecond),
	}
}

// Script returns the script section.
func (c *Config) Script() ScriptConfig {
	return ScriptConfig{
		InstructionLimit: c.getIntOr("script.instruction_limit", 1000000),
		Timeout:          c.getDurationOr("script.timeout", 5*time.Second),
	}
}

// Log returns the log section.
func (c *Config) Log() LogConfig {
	return LogConfig{Verbosity: c.getIntOr("log.verbosity", 0)}
}

func (c *Config) getStringOr(path string, defaultValue string) string {
	v, err := c.GetString(path)
	if err != nil {
		if err != ErrSettingNotFound {
			c.recordConfigError(path, err)
		}
		return defaultValue
	}
	return v
}

func (c *Config) getIntOr(path string, defaultValue int) int {
	v, err := c.GetInt(path)
	if err != nil {
		if err != ErrSettingNotFound {
			c.recordConfigError(path, err)
		}
		return defaultValue
	}
	return v
}

func (c *Config) getBoolOr(path string, defaultValue bool) bool {
	v, err := c.GetBool(path)
	if err != nil {
		if err != ErrSettingNotFound {
			c.recordConfigError(path, err)
		}
		return defaultValue
	}
	return v
}

func (c *Config) getDurationOr(path string, defaultValue time.Duration) time.Duration {
	v, err := c.GetDuration(path)
	if err != nil {
		if err != ErrSettingNotFound {
			c.recordConfigError(path, err)
		}
		return defaultValue
	}
	return v
}

// getRuneOr reads a single-character string. The empty string is rune 0.
func (c *Config) getRuneOr(path string, defaultValue rune) rune {
	s, err := c.GetString(path)
	if err != nil {
		if err != ErrSettingNotFound {
			c.recordConfigError(path, err)
		}
		return defaultValue
	}
	if s == "" {
		return 0
	}
	r, size := utf8.DecodeRuneInString(s)
	if size != len(s) {
		c.recordConfigError(path, &TypeError{Path: path, Expected: "single character", Actual: s})
		return defaultValue
	}
	return r
}
