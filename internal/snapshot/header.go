package snapshot

import (
	"hash/fnv"
	"slices"
	"strings"
)

// Header is a column label path, for example ["Sales", "Q1"].
//
// Headers compare component-wise. A shorter header is padded with empty
// labels, so ["A"] and ["A", ""] are the same header.
type Header []string

// NewHeader returns a header built from labels.
func NewHeader(labels ...string) Header {
	return Header(slices.Clone(labels))
}

// Compare orders headers lexicographically by label.
func (h Header) Compare(o Header) int {
	n := max(len(h), len(o))
	for i := 0; i < n; i++ {
		if c := strings.Compare(h.label(i), o.label(i)); c != 0 {
			return c
		}
	}
	return 0
}

// Equal reports whether h and o name the same column.
func (h Header) Equal(o Header) bool {
	return h.Compare(o) == 0
}

// String renders the header as [A, B].
func (h Header) String() string {
	return "[" + strings.Join(h.trim(), ", ") + "]"
}

// Path joins the labels with sep, dropping trailing empty labels.
func (h Header) Path(sep string) string {
	return strings.Join(h.trim(), sep)
}

func (h Header) label(i int) string {
	if i < len(h) {
		return h[i]
	}
	return ""
}

func (h Header) trim() Header {
	n := len(h)
	for n > 0 && h[n-1] == "" {
		n--
	}
	return h[:n]
}

// headerHasher hashes headers for the persistent column maps.
// Trailing empty labels are ignored so that Hash agrees with Equal.
type headerHasher struct{}

func (headerHasher) Hash(h Header) uint32 {
	f := fnv.New32a()
	for _, label := range h.trim() {
		f.Write([]byte(label))
		f.Write([]byte{0})
	}
	return f.Sum32()
}

func (headerHasher) Equal(a, b Header) bool {
	return a.Equal(b)
}
