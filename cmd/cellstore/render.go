package main

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/dshills/cellstore/internal/jsonio"
	"github.com/dshills/cellstore/internal/table"
)

type renderFunc func(w io.Writer, t *table.Table) error

func renderer(format string) (renderFunc, error) {
	switch format {
	case "", "text":
		return renderText, nil
	case "json":
		return renderJSON, nil
	}
	return nil, fmt.Errorf("unknown format %q", format)
}

// renderText prints the table as aligned columns with the row index first.
func renderText(w io.Writer, t *table.Table) error {
	s, err := t.Snapshot()
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	headers := s.Headers()
	fmt.Fprint(tw, "#")
	for _, h := range headers {
		fmt.Fprintf(tw, "\t%s", h.Path("/"))
	}
	fmt.Fprintln(tw)
	for _, row := range s.Rows() {
		fmt.Fprint(tw, strconv.FormatInt(row, 10))
		for _, h := range headers {
			fmt.Fprintf(tw, "\t%s", s.Get(h, row))
		}
		fmt.Fprintln(tw)
	}
	return tw.Flush()
}

func renderJSON(w io.Writer, t *table.Table) error {
	s, err := t.Snapshot()
	if err != nil {
		return err
	}
	doc, err := jsonio.MarshalIndent(t.Name(), s)
	if err != nil {
		return err
	}
	_, err = w.Write(doc)
	return err
}
