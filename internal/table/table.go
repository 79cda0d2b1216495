// Package table loads the delimiter-separated input file that functional
// dependency discovery runs against.
package table

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
)

// Sentinel errors for malformed input, per the fatal "input malformed" class.
var (
	ErrEmptyFile    = errors.New("table: input file has no rows")
	ErrRaggedRow    = errors.New("table: rows do not all have the same number of fields")
	ErrNoSeparator  = errors.New("table: separator must be a single character")
	ErrSingleColumn = errors.New("table: table must have at least one attribute")
)

// Table is the immutable in-memory representation of the input file: R rows
// over N attributes, string cells, no type inference (spec.md §6).
type Table struct {
	Rows     [][]string
	NumRows  int
	NumAttrs int
}

// Load reads a delimiter-separated file with no header row. Every row must
// have the same number of fields. Cell values are compared as raw strings.
func Load(path string, separator rune) (*Table, error) {
	if separator == 0 {
		return nil, ErrNoSeparator
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("table: opening %s: %w", path, err)
	}
	defer f.Close()

	return parse(f, separator)
}

func parse(r io.Reader, separator rune) (*Table, error) {
	cr := csv.NewReader(r)
	cr.Comma = separator
	cr.FieldsPerRecord = 0 // first row sets the width; later mismatches error.
	cr.ReuseRecord = false

	var rows [][]string
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if errors.Is(err, csv.ErrFieldCount) {
			return nil, fmt.Errorf("%w: %v", ErrRaggedRow, err)
		}
		if err != nil {
			return nil, fmt.Errorf("table: reading input: %w", err)
		}
		rows = append(rows, row)
	}

	if len(rows) == 0 {
		return nil, ErrEmptyFile
	}
	if len(rows[0]) == 0 {
		return nil, ErrSingleColumn
	}

	return &Table{Rows: rows, NumRows: len(rows), NumAttrs: len(rows[0])}, nil
}

// Column returns the values of attribute a across all rows, in row order.
func (t *Table) Column(a int) []string {
	col := make([]string, t.NumRows)
	for r, row := range t.Rows {
		col[r] = row[a]
	}
	return col
}
