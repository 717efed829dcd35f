package loader

import (
	"errors"
	"io/fs"
	"testing"

	"github.com/go-playground/assert/v2"
)

// memFS is an in-memory file system for testing.
type memFS map[string]string

func (m memFS) ReadFile(path string) ([]byte, error) {
	data, ok := m[path]
	if !ok {
		return nil, fs.ErrNotExist
	}
	return []byte(data), nil
}

func TestTOMLLoad(t *testing.T) {
	fsys := memFS{"/c.toml": `
[csv]
delimiter = ";"
trim_space = true

[script]
instruction_limit = 500
`}
	config, err := NewTOMLLoaderWithFS(fsys, "/c.toml").Load()
	assert.Equal(t, err, nil)

	csv := config["csv"].(map[string]any)
	assert.Equal(t, csv["delimiter"], ";")
	assert.Equal(t, csv["trim_space"], true)
	assert.Equal(t, config["script"].(map[string]any)["instruction_limit"], int64(500))
}

func TestTOMLParseError(t *testing.T) {
	fsys := memFS{"/bad.toml": "[csv\ndelimiter = 1\n"}
	_, err := NewTOMLLoaderWithFS(fsys, "/bad.toml").Load()

	var perr *ParseError
	assert.Equal(t, errors.As(err, &perr), true)
	assert.Equal(t, perr.Path, "/bad.toml")
}

func TestYAMLLoad(t *testing.T) {
	fsys := memFS{"/c.yaml": `
store:
  name: prices
watch:
  enabled: true
  debounce: 50ms
`}
	config, err := NewYAMLLoaderWithFS(fsys, "/c.yaml").Load()
	assert.Equal(t, err, nil)
	assert.Equal(t, config["store"].(map[string]any)["name"], "prices")

	watch := config["watch"].(map[string]any)
	assert.Equal(t, watch["enabled"], true)
	assert.Equal(t, watch["debounce"], "50ms")
}

func TestYAMLParseError(t *testing.T) {
	fsys := memFS{"/bad.yml": "store: [unclosed\n"}
	_, err := NewYAMLLoaderWithFS(fsys, "/bad.yml").Load()

	var perr *ParseError
	assert.Equal(t, errors.As(err, &perr), true)
	assert.Equal(t, perr.Path, "/bad.yml")
}

func TestMissingFile(t *testing.T) {
	for _, path := range []string{"/none.toml", "/none.yaml"} {
		l, err := ForPath(memFS{}, path)
		assert.Equal(t, err, nil)

		config, err := l.Load()
		assert.Equal(t, err, nil)
		assert.Equal(t, config == nil, true)
	}
}

func TestForPathUnsupported(t *testing.T) {
	_, err := ForPath(memFS{}, "/c.ini")
	assert.Equal(t, errors.Is(err, ErrUnsupportedFormat), true)
}

func TestDeepMerge(t *testing.T) {
	dst := map[string]any{
		"csv":   map[string]any{"delimiter": ",", "header": true},
		"store": map[string]any{"name": "main"},
	}
	src := map[string]any{
		"csv":   map[string]any{"delimiter": ";"},
		"store": "flat",
	}
	merged := DeepMerge(dst, src)

	assert.Equal(t, merged["csv"], map[string]any{"delimiter": ";", "header": true})
	assert.Equal(t, merged["store"], "flat")
}

func TestClone(t *testing.T) {
	src := map[string]any{"csv": map[string]any{"header": true}, "list": []any{map[string]any{"a": 1}}}
	c := Clone(src)
	c["csv"].(map[string]any)["header"] = false
	c["list"].([]any)[0].(map[string]any)["a"] = 2

	assert.Equal(t, src["csv"].(map[string]any)["header"], true)
	assert.Equal(t, src["list"].([]any)[0].(map[string]any)["a"], 1)
}

func TestEnvLoad(t *testing.T) {
	l := NewEnvLoader("CELLSTORE_")
	l.environ = func() []string {
		return []string{
			"CELLSTORE_CSV_TRIM_SPACE=yes",
			"CELLSTORE_SCRIPT_INSTRUCTION_LIMIT=42",
			"CELLSTORE_STORE_NAME=prices",
			"CELLSTORE_V=2",
			"OTHER_CSV_HEADER=false",
		}
	}
	l.AddMapping("CELLSTORE_V", "log.verbosity")

	config, err := l.Load()
	assert.Equal(t, err, nil)
	assert.Equal(t, config["csv"], map[string]any{"trim_space": true})
	assert.Equal(t, config["script"], map[string]any{"instruction_limit": int64(42)})
	assert.Equal(t, config["store"], map[string]any{"name": "prices"})
	assert.Equal(t, config["log"], map[string]any{"verbosity": int64(2)})
	_, ok := config["other"]
	assert.Equal(t, ok, false)
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		in   string
		want any
	}{
		{"", ""},
		{"true", true},
		{"Off", false},
		{"12", int64(12)},
		{"1.5", 1.5},
		{"200ms", "200ms"},
		{`["a","b"]`, []any{"a", "b"}},
		{";", ";"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, parseValue(tt.in), tt.want)
		})
	}
}
