// Package config loads cellstore settings.
//
// Settings are layered, higher layers overriding lower:
//
//	defaults  <  config file (.toml, .yaml, .yml)  <  CELLSTORE_* environment
//
// A missing config file is not an error. Environment variables map to
// section.key paths by their first underscore, so CELLSTORE_CSV_TRIM_SPACE
// sets csv.trim_space.
//
// # Usage
//
//	cfg, err := config.Load("cellstore.toml")
//	if err != nil {
//		return err
//	}
//	csv := cfg.CSV()
//
// Typed section accessors fall back to defaults when a value has the wrong
// type; the failures are available from Errors.
package config
