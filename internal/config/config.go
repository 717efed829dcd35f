package config

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/dshills/cellstore/internal/config/loader"
)

// EnvPrefix is the prefix of environment overrides.
const EnvPrefix = "CELLSTORE_"

// Config holds merged settings: defaults, then the config file, then the
// environment.
type Config struct {
	mu     sync.RWMutex
	data   map[string]any
	errors []error
}

// Option configures Load.
type Option func(*options)

type options struct {
	fs  loader.FileSystem
	env *loader.EnvLoader
}

// WithFileSystem reads the config file through fsys.
func WithFileSystem(fsys loader.FileSystem) Option {
	return func(o *options) { o.fs = fsys }
}

// WithEnv replaces the environment loader. A nil loader disables the
// environment layer.
func WithEnv(env *loader.EnvLoader) Option {
	return func(o *options) { o.env = env }
}

// Default returns a Config holding only the built-in defaults.
func Default() *Config {
	return &Config{data: defaultConfig()}
}

// Load builds a Config from path, which may be empty or missing.
func Load(path string, opts ...Option) (*Config, error) {
	o := options{fs: loader.DefaultFS(), env: loader.NewEnvLoader(EnvPrefix)}
	for _, opt := range opts {
		opt(&o)
	}

	data := defaultConfig()
	if path != "" {
		l, err := loader.ForPath(o.fs, path)
		if err != nil {
			return nil, err
		}
		file, err := l.Load()
		if err != nil {
			return nil, err
		}
		if file == nil {
			glog.V(1).Infof("config: %s not found, using defaults", path)
		}
		data = loader.DeepMerge(data, file)
	}
	if o.env != nil {
		env, err := o.env.Load()
		if err != nil {
			return nil, fmt.Errorf("loading environment: %w", err)
		}
		data = loader.DeepMerge(data, env)
	}
	return &Config{data: data}, nil
}

// Get returns the raw value at path.
func (c *Config) Get(path string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return getPath(c.data, path)
}

// GetString returns a string value at the given path.
func (c *Config) GetString(path string) (string, error) {
	v, ok := c.Get(path)
	if !ok {
		return "", ErrSettingNotFound
	}
	s, ok := v.(string)
	if !ok {
		return "", &TypeError{Path: path, Expected: "string", Actual: typeName(v)}
	}
	return s, nil
}

// GetInt returns an integer value at the given path.
func (c *Config) GetInt(path string) (int, error) {
	v, ok := c.Get(path)
	if !ok {
		return 0, ErrSettingNotFound
	}
	switch val := v.(type) {
	case int:
		return val, nil
	case int64:
		return int(val), nil
	case uint64:
		return int(val), nil
	case float64:
		return int(val), nil
	default:
		return 0, &TypeError{Path: path, Expected: "int", Actual: typeName(v)}
	}
}

// GetBool returns a boolean value at the given path.
func (c *Config) GetBool(path string) (bool, error) {
	v, ok := c.Get(path)
	if !ok {
		return false, ErrSettingNotFound
	}
	b, ok := v.(bool)
	if !ok {
		return false, &TypeError{Path: path, Expected: "bool", Actual: typeName(v)}
	}
	return b, nil
}

// GetDuration returns a duration at the given path. Strings are parsed with
// time.ParseDuration; integers are milliseconds.
func (c *Config) GetDuration(path string) (time.Duration, error) {
	v, ok := c.Get(path)
	if !ok {
		return 0, ErrSettingNotFound
	}
	switch val := v.(type) {
	case time.Duration:
		return val, nil
	case string:
		d, err := time.ParseDuration(val)
		if err != nil {
			return 0, &TypeError{Path: path, Expected: "duration", Actual: fmt.Sprintf("%q", val)}
		}
		return d, nil
	case int:
		return time.Duration(val) * time.Millisecond, nil
	case int64:
		return time.Duration(val) * time.Millisecond, nil
	default:
		return 0, &TypeError{Path: path, Expected: "duration", Actual: typeName(v)}
	}
}

// Set stores value at path. Command line flags use it to override the
// loaded layers.
func (c *Config) Set(path string, value any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return setPath(c.data, path, value)
}

// Errors returns the type errors recorded while reading sections.
func (c *Config) Errors() []error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]error(nil), c.errors...)
}

func (c *Config) recordConfigError(path string, err error) {
	glog.Warningf("config: %s: %v", path, err)
	c.mu.Lock()
	c.errors = append(c.errors, err)
	c.mu.Unlock()
}

// Merged returns a deep copy of the merged settings.
func (c *Config) Merged() map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return loader.Clone(c.data)
}

func defaultConfig() map[string]any {
	return map[string]any{
		"store": map[string]any{
			"name":         "main",
			"clone_prefix": "copy-of-",
		},
		"listeners": map[string]any{
			"default_order": 0,
			"skip_history":  false,
			"allow_loop":    false,
		},
		"csv": map[string]any{
			"delimiter":   ",",
			"header":      true,
			"comment":     "",
			"trim_space":  false,
			"infer_types": true,
		},
		"watch": map[string]any{
			"enabled":  false,
			"debounce": "200ms",
		},
		"script": map[string]any{
			"instruction_limit": 1000000,
			"timeout":           "5s",
		},
		"log": map[string]any{
			"verbosity": 0,
		},
	}
}

func getPath(m map[string]any, path string) (any, bool) {
	parts := splitPath(path)
	if len(parts) == 0 {
		return nil, false
	}
	var current any = m
	for _, part := range parts {
		cm, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		if current, ok = cm[part]; !ok {
			return nil, false
		}
	}
	return current, true
}

func setPath(m map[string]any, path string, value any) error {
	parts := splitPath(path)
	if len(parts) == 0 {
		return ErrInvalidPath
	}
	current := m
	for _, part := range parts[:len(parts)-1] {
		next, ok := current[part].(map[string]any)
		if !ok {
			if _, exists := current[part]; exists {
				return fmt.Errorf("%w: %s is not a section", ErrInvalidPath, part)
			}
			next = make(map[string]any)
			current[part] = next
		}
		current = next
	}
	current[parts[len(parts)-1]] = value
	return nil
}

func splitPath(path string) []string {
	var parts []string
	for _, p := range strings.Split(path, ".") {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

func typeName(v any) string {
	if v == nil {
		return "nil"
	}
	return fmt.Sprintf("%T", v)
}
