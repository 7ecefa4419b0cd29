package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// Table is a dataset held as text: a header and string records aligned with it.
type Table struct {
	Header  []string
	Records [][]string
}

// Col returns the index of a column, or -1.
func (t *Table) Col(name string) int {
	for i, h := range t.Header {
		if h == name {
			return i
		}
	}
	return -1
}

// Len returns the number of records.
func (t *Table) Len() int {
	return len(t.Records)
}

// Value returns the cell at (row, col), or "" when the record is short or col is -1.
func (t *Table) Value(row, col int) string {
	if col < 0 || row < 0 || row >= len(t.Records) || col >= len(t.Records[row]) {
		return ""
	}
	return t.Records[row][col]
}

// Append concatenates other into t, aligning columns by name. Columns unknown
// to t are added to the header and back-filled with "".
func (t *Table) Append(other *Table) {
	idx := make([]int, len(other.Header))
	for i, h := range other.Header {
		c := t.Col(h)
		if c < 0 {
			t.Header = append(t.Header, h)
			c = len(t.Header) - 1
			for r := range t.Records {
				t.Records[r] = append(t.Records[r], "")
			}
		}
		idx[i] = c
	}
	for _, rec := range other.Records {
		row := make([]string, len(t.Header))
		for i, v := range rec {
			if i < len(idx) {
				row[idx[i]] = v
			}
		}
		t.Records = append(t.Records, row)
	}
}

// ReadCSV reads a comma-delimited table with a header row.
func ReadCSV(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return &Table{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	t := &Table{Header: header}
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", len(t.Records)+1, err)
		}
		if len(record) < len(header) {
			record = append(record, make([]string, len(header)-len(record))...)
		}
		t.Records = append(t.Records, record)
	}
	return t, nil
}

// WriteCSV writes the table with its header row.
func (t *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if err := cw.WriteAll(t.Records); err != nil {
		return fmt.Errorf("write records: %w", err)
	}
	return nil
}
