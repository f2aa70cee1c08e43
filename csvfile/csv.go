// Package csvfile reads and writes the flat CSV term exchange format.
package csvfile

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/minios-linux/termkit/term"
)

// Columns is the exact header row of every CSV term file.
var Columns = []string{"module", "type", "name", "res_id", "src", "value"}

// Row is one CSV line.
type Row struct {
	Module string
	Target term.Target
	Source string
	Value  string
}

// HeaderError reports a first line that is not Columns.
type HeaderError struct {
	Got []string
}

func (e *HeaderError) Error() string {
	return fmt.Sprintf("csv: unexpected header %q, want %q", strings.Join(e.Got, ","), strings.Join(Columns, ","))
}

// Writer writes rows after the header line.
type Writer struct {
	w           *csv.Writer
	wroteHeader bool
}

// NewWriter creates a CSV writer.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: csv.NewWriter(w)}
}

// WriteRows writes the header (once) and rows, then flushes.
func (cw *Writer) WriteRows(rows []Row) error {
	if !cw.wroteHeader {
		if err := cw.w.Write(Columns); err != nil {
			return err
		}
		cw.wroteHeader = true
	}
	for _, row := range rows {
		ref := strconv.FormatInt(row.Target.ResID, 10)
		if row.Target.XMLID != "" {
			ref = row.Target.XMLID
		}
		rec := []string{row.Module, string(row.Target.Type), row.Target.Name, ref, row.Source, row.Value}
		if err := cw.w.Write(rec); err != nil {
			return err
		}
	}
	cw.w.Flush()
	return cw.w.Error()
}

// ReadAll parses a CSV term file. Consecutive code rows with the same
// source are collapsed into the first.
func ReadAll(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(Columns)

	head, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("csv: %w", err)
	}
	if len(head) > 0 {
		head[0] = strings.TrimPrefix(head[0], "\ufeff")
	}
	for i, col := range Columns {
		if head[i] != col {
			return nil, &HeaderError{Got: head}
		}
	}

	var (
		rows     []Row
		prevCode string
		havePrev bool
	)
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return nil, fmt.Errorf("csv: %w", err)
		}

		row := Row{
			Module: rec[0],
			Target: term.Target{Type: term.Type(rec[1]), Name: rec[2]},
			Source: rec[4],
			Value:  rec[5],
		}
		if id, err := strconv.ParseInt(rec[3], 10, 64); err == nil {
			row.Target.ResID = id
		} else if rec[3] != "" {
			row.Target.XMLID = rec[3]
			if mod, _, ok := strings.Cut(rec[3], "."); ok && row.Module == "" {
				row.Module = mod
			}
		}

		if row.Target.Type == term.TypeCode {
			if havePrev && prevCode == row.Source {
				continue
			}
			prevCode, havePrev = row.Source, true
		} else {
			havePrev = false
		}
		rows = append(rows, row)
	}
}
