// Package jsonio converts tables to and from JSON documents of the form
//
//	{
//	  "name": "prices",
//	  "version": 3,
//	  "columns": [{"header": ["Q1", "Sales"], "order": 1}],
//	  "rows": [{"index": 0, "cells": {"Q1/Sales": 10}}]
//	}
//
// Cell keys are header labels joined with "/". Numbers are written as JSON
// numbers and read back with value.Parse, so a Float with an integral value
// or a BigDecimal does not keep its kind across a round trip.
package jsonio

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"

	"github.com/dshills/cellstore/internal/snapshot"
	"github.com/dshills/cellstore/internal/table"
	"github.com/dshills/cellstore/internal/value"
)

// ErrInvalidDocument is returned for input that is not a table document.
var ErrInvalidDocument = errors.New("invalid table document")

// Document is a decoded table document.
type Document struct {
	Name     string
	Version  int64
	Contents *snapshot.Snapshot
}

// Marshal encodes s as a table document called name.
func Marshal(name string, s *snapshot.Snapshot) ([]byte, error) {
	doc := []byte(`{"columns":[],"rows":[]}`)
	doc, err := sjson.SetBytes(doc, "name", name)
	if err != nil {
		return nil, err
	}
	if doc, err = sjson.SetBytes(doc, "version", s.Version()); err != nil {
		return nil, err
	}

	headers := s.Headers()
	for _, col := range s.Columns() {
		entry := map[string]any{"header": []string(col.Header), "order": col.Order}
		if doc, err = sjson.SetBytes(doc, "columns.-1", entry); err != nil {
			return nil, err
		}
	}

	for _, row := range s.Rows() {
		entry := []byte(`{"cells":{}}`)
		if entry, err = sjson.SetBytes(entry, "index", row); err != nil {
			return nil, err
		}
		for _, h := range headers {
			v := s.Get(h, row)
			if v.IsEmpty() {
				continue
			}
			if entry, err = setCell(entry, "cells."+escape(h.Path("/")), v); err != nil {
				return nil, err
			}
		}
		if doc, err = sjson.SetRawBytes(doc, "rows.-1", entry); err != nil {
			return nil, err
		}
	}
	return doc, nil
}

// MarshalIndent is Marshal followed by pretty-printing.
func MarshalIndent(name string, s *snapshot.Snapshot) ([]byte, error) {
	doc, err := Marshal(name, s)
	if err != nil {
		return nil, err
	}
	return pretty.Pretty(doc), nil
}

// Export encodes the current contents of t.
func Export(t *table.Table) ([]byte, error) {
	s, err := t.Snapshot()
	if err != nil {
		return nil, err
	}
	return Marshal(t.Name(), s)
}

// Unmarshal decodes a table document. Columns are created in their
// recorded order; cells under a key that no column names get a header split
// on "/".
func Unmarshal(data []byte) (*Document, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: malformed JSON", ErrInvalidDocument)
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return nil, fmt.Errorf("%w: expected an object", ErrInvalidDocument)
	}

	doc := &Document{
		Name:    root.Get("name").String(),
		Version: root.Get("version").Int(),
	}

	type column struct {
		header snapshot.Header
		order  int64
	}
	var columns []column
	for _, c := range root.Get("columns").Array() {
		var labels []string
		for _, l := range c.Get("header").Array() {
			labels = append(labels, l.String())
		}
		if len(labels) == 0 {
			return nil, fmt.Errorf("%w: column without header", ErrInvalidDocument)
		}
		columns = append(columns, column{header: snapshot.NewHeader(labels...), order: c.Get("order").Int()})
	}
	slices.SortStableFunc(columns, func(a, b column) int {
		return cmp.Compare(a.order, b.order)
	})

	s := snapshot.Empty()
	byKey := make(map[string]snapshot.Header, len(columns))
	for _, c := range columns {
		s = s.WithColumn(c.header)
		byKey[c.header.Path("/")] = c.header
	}

	var rerr error
	root.Get("rows").ForEach(func(_, row gjson.Result) bool {
		idx := row.Get("index")
		if idx.Type != gjson.Number {
			rerr = fmt.Errorf("%w: row without index", ErrInvalidDocument)
			return false
		}
		row.Get("cells").ForEach(func(key, cell gjson.Result) bool {
			h, ok := byKey[key.String()]
			if !ok {
				h = snapshot.NewHeader(strings.Split(key.String(), "/")...)
			}
			v, err := cellValue(cell)
			if err != nil {
				rerr = fmt.Errorf("%w: %s@%d: %v", ErrInvalidDocument, h, idx.Int(), err)
				return false
			}
			s = s.WithValue(h, idx.Int(), v)
			return true
		})
		return rerr == nil
	})
	if rerr != nil {
		return nil, rerr
	}
	doc.Contents = s
	return doc, nil
}

// Import replaces the contents of t with the decoded document.
func Import(ctx context.Context, t *table.Table, data []byte) error {
	doc, err := Unmarshal(data)
	if err != nil {
		return err
	}
	return t.Replace(ctx, doc.Contents)
}

func setCell(entry []byte, path string, v value.Value) ([]byte, error) {
	if v.IsNumeric() {
		return sjson.SetRawBytes(entry, path, []byte(v.String()))
	}
	return sjson.SetBytes(entry, path, v.String())
}

func cellValue(r gjson.Result) (value.Value, error) {
	switch r.Type {
	case gjson.Null:
		return value.Empty, nil
	case gjson.String:
		if r.Str == "" {
			return value.Empty, nil
		}
		return value.Text(r.Str), nil
	case gjson.Number:
		return value.Parse(r.Raw), nil
	case gjson.True, gjson.False:
		return value.Text(r.Raw), nil
	default:
		return value.Empty, fmt.Errorf("unsupported cell %s", r.Raw)
	}
}

// escape quotes the characters sjson treats as path syntax.
func escape(key string) string {
	var b strings.Builder
	for _, r := range key {
		switch r {
		case '.', '*', '?', '\\', '|', '#', '@', '!', ':':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
