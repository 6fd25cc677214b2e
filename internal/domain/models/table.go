package models

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"time"
)

const dateLayout = "2006-01-02"

// ColumnKind discriminates numeric columns from label columns.
type ColumnKind int

const (
	ColumnFloat ColumnKind = iota
	ColumnLabel
)

// Column is one named column of a Table. Exactly one of Floats/Labels is
// populated depending on Kind; both are aligned with the table index.
// math.NaN() marks a missing numeric cell.
type Column struct {
	Name   string
	Kind   ColumnKind
	Floats []float64
	Labels []string
}

// Len returns the number of cells in the column.
func (c *Column) Len() int {
	if c.Kind == ColumnLabel {
		return len(c.Labels)
	}
	return len(c.Floats)
}

// Table is a date-indexed table of named columns. The index is ordered and
// shared by every column; rows are never dropped on insert. Dates a column
// has no value for hold a missing marker instead.
type Table struct {
	Index   []time.Time
	Columns []Column
}

// NewTable creates an empty table over the given date index.
func NewTable(index []time.Time) *Table {
	return &Table{Index: index}
}

// DateRange returns every calendar day from start to end inclusive,
// normalized to midnight UTC.
func DateRange(start, end time.Time) []time.Time {
	start = Midnight(start)
	end = Midnight(end)
	var out []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		out = append(out, d)
	}
	return out
}

// Midnight truncates t to its calendar date in UTC.
func Midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// NumRows returns the length of the index.
func (t *Table) NumRows() int { return len(t.Index) }

// NumColumns returns the number of columns.
func (t *Table) NumColumns() int { return len(t.Columns) }

// IsEmpty reports whether the table has no rows or no columns.
func (t *Table) IsEmpty() bool { return len(t.Index) == 0 || len(t.Columns) == 0 }

// Column returns the named column, or false if it does not exist.
func (t *Table) Column(name string) (*Column, bool) {
	for i := range t.Columns {
		if t.Columns[i].Name == name {
			return &t.Columns[i], true
		}
	}
	return nil, false
}

// ColumnNames returns the column names in insertion order.
func (t *Table) ColumnNames() []string {
	out := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		out[i] = c.Name
	}
	return out
}

// AddFloats appends a numeric column whose values are already aligned with
// the index. The length must match the index exactly.
func (t *Table) AddFloats(name string, values []float64) error {
	if len(values) != len(t.Index) {
		return fmt.Errorf("column %q: %d values for %d rows", name, len(values), len(t.Index))
	}
	t.Columns = append(t.Columns, Column{Name: name, Kind: ColumnFloat, Floats: values})
	return nil
}

// AddLabels appends a string column aligned with the index.
func (t *Table) AddLabels(name string, values []string) error {
	if len(values) != len(t.Index) {
		return fmt.Errorf("column %q: %d values for %d rows", name, len(values), len(t.Index))
	}
	t.Columns = append(t.Columns, Column{Name: name, Kind: ColumnLabel, Labels: values})
	return nil
}

// AddAligned appends a numeric column given as (date, value) pairs, aligning
// values to the table index by date. Index dates the column has no value for
// become NaN; dates outside the index are dropped.
func (t *Table) AddAligned(name string, dates []time.Time, values []float64) error {
	if len(dates) != len(values) {
		return fmt.Errorf("column %q: %d dates for %d values", name, len(dates), len(values))
	}
	rowOf := make(map[int64]int, len(t.Index))
	for i, d := range t.Index {
		rowOf[Midnight(d).Unix()] = i
	}
	col := make([]float64, len(t.Index))
	for i := range col {
		col[i] = math.NaN()
	}
	for i, d := range dates {
		if row, ok := rowOf[Midnight(d).Unix()]; ok {
			col[row] = values[i]
		}
	}
	t.Columns = append(t.Columns, Column{Name: name, Kind: ColumnFloat, Floats: col})
	return nil
}

// Select returns a new table sharing the index but holding exactly the named
// columns, in the given order. An unknown name yields an error naming it.
func (t *Table) Select(names ...string) (*Table, error) {
	out := NewTable(t.Index)
	for _, name := range names {
		c, ok := t.Column(name)
		if !ok {
			return nil, fmt.Errorf("column %q not found", name)
		}
		out.Columns = append(out.Columns, *c)
	}
	return out, nil
}

// WriteCSV encodes the table with a "date" column followed by every table
// column. Missing numeric cells are written as empty strings.
func (t *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	header := append([]string{"date"}, t.ColumnNames()...)
	if err := cw.Write(header); err != nil {
		return err
	}
	rec := make([]string, len(header))
	for row, d := range t.Index {
		rec[0] = d.Format(dateLayout)
		for i, c := range t.Columns {
			switch c.Kind {
			case ColumnLabel:
				rec[i+1] = c.Labels[row]
			default:
				if math.IsNaN(c.Floats[row]) {
					rec[i+1] = ""
				} else {
					rec[i+1] = strconv.FormatFloat(c.Floats[row], 'f', -1, 64)
				}
			}
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
