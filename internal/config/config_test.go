package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-playground/assert/v2"

	"github.com/dshills/cellstore/internal/config/loader"
)

func write(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func TestDefaults(t *testing.T) {
	cfg := Default()

	assert.Equal(t, cfg.Store(), StoreConfig{Name: "main", ClonePrefix: "copy-of-"})
	assert.Equal(t, cfg.CSV(), CSVConfig{Delimiter: ',', Header: true, InferTypes: true})
	assert.Equal(t, cfg.Watch(), WatchConfig{Debounce: 200 * time.Millisecond})
	assert.Equal(t, cfg.Script(), ScriptConfig{InstructionLimit: 1000000, Timeout: 5 * time.Second})
	assert.Equal(t, cfg.Listeners(), ListenerConfig{})
	assert.Equal(t, cfg.Log().Verbosity, 0)
	assert.Equal(t, len(cfg.Errors()), 0)
}

func TestLoadTOML(t *testing.T) {
	path := write(t, "cellstore.toml", `
[store]
name = "prices"

[csv]
delimiter = "\t"
header = false
comment = "#"

[listeners]
default_order = 5
allow_loop = true
`)
	cfg, err := Load(path, WithEnv(nil))
	assert.Equal(t, err, nil)

	assert.Equal(t, cfg.Store().Name, "prices")
	assert.Equal(t, cfg.Store().ClonePrefix, "copy-of-")
	assert.Equal(t, cfg.CSV(), CSVConfig{Delimiter: '\t', Comment: '#', InferTypes: true})
	assert.Equal(t, cfg.Listeners(), ListenerConfig{DefaultOrder: 5, AllowLoop: true})
}

func TestLoadYAML(t *testing.T) {
	path := write(t, "cellstore.yml", `
watch:
  enabled: true
  debounce: 1s
script:
  instruction_limit: 10
  timeout: 250ms
`)
	cfg, err := Load(path, WithEnv(nil))
	assert.Equal(t, err, nil)

	assert.Equal(t, cfg.Watch(), WatchConfig{Enabled: true, Debounce: time.Second})
	assert.Equal(t, cfg.Script(), ScriptConfig{InstructionLimit: 10, Timeout: 250 * time.Millisecond})
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "none.toml"), WithEnv(nil))
	assert.Equal(t, err, nil)
	assert.Equal(t, cfg.Store().Name, "main")
}

func TestLoadParseError(t *testing.T) {
	path := write(t, "bad.toml", "[store\n")
	_, err := Load(path, WithEnv(nil))

	var perr *loader.ParseError
	assert.Equal(t, errors.As(err, &perr), true)
}

func TestEnvOverridesFile(t *testing.T) {
	path := write(t, "cellstore.toml", "[csv]\ntrim_space = false\n[log]\nverbosity = 1\n")
	t.Setenv("CELLSTORE_CSV_TRIM_SPACE", "true")
	t.Setenv("CELLSTORE_LOG_VERBOSITY", "3")

	cfg, err := Load(path)
	assert.Equal(t, err, nil)
	assert.Equal(t, cfg.CSV().TrimSpace, true)
	assert.Equal(t, cfg.Log().Verbosity, 3)
}

func TestTypeErrorsFallBack(t *testing.T) {
	path := write(t, "cellstore.toml", `
[csv]
delimiter = ";;"
header = "maybe"

[watch]
debounce = "soon"
`)
	cfg, err := Load(path, WithEnv(nil))
	assert.Equal(t, err, nil)

	csv := cfg.CSV()
	assert.Equal(t, csv.Delimiter, ',')
	assert.Equal(t, csv.Header, true)
	assert.Equal(t, cfg.Watch().Debounce, 200*time.Millisecond)

	errs := cfg.Errors()
	assert.Equal(t, len(errs), 3)
	for _, err := range errs {
		assert.Equal(t, errors.Is(err, ErrTypeMismatch), true)
	}
}

func TestGetters(t *testing.T) {
	cfg := Default()

	_, err := cfg.GetString("store.missing")
	assert.Equal(t, err, ErrSettingNotFound)

	_, err = cfg.GetInt("store.name")
	assert.Equal(t, errors.Is(err, ErrTypeMismatch), true)

	assert.Equal(t, cfg.Set("watch.debounce", 75), nil)
	d, err := cfg.GetDuration("watch.debounce")
	assert.Equal(t, err, nil)
	assert.Equal(t, d, 75*time.Millisecond)

	assert.Equal(t, errors.Is(cfg.Set("store.name.inner", 1), ErrInvalidPath), true)
	assert.Equal(t, errors.Is(cfg.Set("", 1), ErrInvalidPath), true)

	merged := cfg.Merged()
	merged["store"].(map[string]any)["name"] = "changed"
	assert.Equal(t, cfg.Store().Name, "main")
}
