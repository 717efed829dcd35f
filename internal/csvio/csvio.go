// Package csvio imports and exports tables as CSV.
package csvio

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/golang/glog"

	"github.com/dshills/cellstore/internal/config"
	"github.com/dshills/cellstore/internal/snapshot"
	"github.com/dshills/cellstore/internal/table"
	"github.com/dshills/cellstore/internal/value"
)

// ErrDuplicateHeader is returned when two header fields name the same column.
var ErrDuplicateHeader = errors.New("duplicate column header")

// Read parses CSV from r into a snapshot. The first record supplies column
// headers when opts.Header is set; otherwise columns are named by their
// zero-based position. Records become rows starting at 0.
func Read(r io.Reader, opts config.CSVConfig) (*snapshot.Snapshot, error) {
	cr := newReader(r, opts)

	var headers []snapshot.Header
	s := snapshot.Empty()
	for row := int64(0); ; {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if opts.Header && headers == nil {
			if headers, err = headerRow(record, opts); err != nil {
				return nil, err
			}
			for _, h := range headers {
				s = s.WithColumn(h)
			}
			continue
		}
		for i, field := range record {
			h := column(headers, i)
			s = s.WithValue(h, row, cell(field, opts))
		}
		row++
	}
	return s, nil
}

// Import replaces the contents of t with the CSV read from r.
func Import(ctx context.Context, t *table.Table, r io.Reader, opts config.CSVConfig) error {
	s, err := Read(r, opts)
	if err != nil {
		return fmt.Errorf("csv import into %s: %w", t, err)
	}
	if err := t.Replace(ctx, s); err != nil {
		return err
	}
	glog.V(1).Infof("csvio: imported %d columns, %d rows into %s", s.ColumnCount(), s.RowCount(), t)
	return nil
}

// ImportFile replaces the contents of t with the CSV file at path.
func ImportFile(ctx context.Context, t *table.Table, path string, opts config.CSVConfig) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return Import(ctx, t, f, opts)
}

// Write renders s as CSV: columns in ColumnOrder, populated rows ascending.
// Row indexes are not preserved, so sparse rows are written densely.
func Write(w io.Writer, s *snapshot.Snapshot, opts config.CSVConfig) error {
	cw := csv.NewWriter(w)
	if opts.Delimiter != 0 {
		cw.Comma = opts.Delimiter
	}

	headers := s.Headers()
	if opts.Header {
		record := make([]string, len(headers))
		for i, h := range headers {
			record[i] = h.Path("/")
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	for _, row := range s.Rows() {
		record := make([]string, len(headers))
		for i, h := range headers {
			record[i] = s.Get(h, row).String()
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Export writes the current contents of t as CSV.
func Export(w io.Writer, t *table.Table, opts config.CSVConfig) error {
	s, err := t.Snapshot()
	if err != nil {
		return err
	}
	return Write(w, s, opts)
}

func newReader(r io.Reader, opts config.CSVConfig) *csv.Reader {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = true
	if opts.Delimiter != 0 {
		cr.Comma = opts.Delimiter
	}
	cr.Comment = opts.Comment
	cr.TrimLeadingSpace = opts.TrimSpace
	return cr
}

// headerRow splits "a/b" header fields into multi-label headers.
func headerRow(record []string, opts config.CSVConfig) ([]snapshot.Header, error) {
	headers := make([]snapshot.Header, len(record))
	for i, field := range record {
		if opts.TrimSpace {
			field = strings.TrimSpace(field)
		}
		if field == "" {
			field = strconv.Itoa(i)
		}
		h := snapshot.NewHeader(strings.Split(field, "/")...)
		for _, prev := range headers[:i] {
			if prev.Equal(h) {
				return nil, fmt.Errorf("%w: %s", ErrDuplicateHeader, h)
			}
		}
		headers[i] = h
	}
	return headers, nil
}

// column returns the header for field i; records wider than the header row
// get positional names.
func column(headers []snapshot.Header, i int) snapshot.Header {
	if i < len(headers) {
		return headers[i]
	}
	return snapshot.NewHeader(strconv.Itoa(i))
}

func cell(field string, opts config.CSVConfig) value.Value {
	if opts.TrimSpace {
		field = strings.TrimSpace(field)
	}
	if opts.InferTypes {
		return value.Parse(field)
	}
	if field == "" {
		return value.Empty
	}
	return value.Text(field)
}
