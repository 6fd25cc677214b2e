// Package returns derives period-over-period returns from a price table.
package returns

import (
	"fmt"
	"math"

	"github.com/guttosm/tickerpulse/internal/domain/models"
)

// ValidationError reports an input table the calculator cannot work with:
// too few rows, or a selected column that is missing or non-numeric.
// When a column is at fault, Column names it.
type ValidationError struct {
	Column string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("column %q: %s", e.Column, e.Reason)
	}
	return e.Reason
}

// Compute calculates per-column returns from the second row onward.
//
// When columns is non-empty the table is narrowed to exactly those columns
// first. Every considered column must be numeric. useLog selects logarithmic
// returns ln(v/prev); otherwise simple returns (v-prev)/prev.
//
// The result keeps the source index unchanged. The first row holds NaN in
// every column since it has no prior period, but it is never dropped.
func Compute(t *models.Table, columns []string, useLog bool) (*models.Table, error) {
	if t == nil || t.IsEmpty() {
		return nil, &ValidationError{Reason: "input table is empty"}
	}

	src := t
	if len(columns) > 0 {
		narrowed, err := t.Select(columns...)
		if err != nil {
			return nil, &ValidationError{Column: missingName(t, columns), Reason: "not found"}
		}
		src = narrowed
	}

	if src.NumRows() < 2 {
		return nil, &ValidationError{Reason: "fewer than 2 rows, no prior period to diff against"}
	}
	for i := range src.Columns {
		if src.Columns[i].Kind != models.ColumnFloat {
			return nil, &ValidationError{Column: src.Columns[i].Name, Reason: "non-numeric"}
		}
	}

	out := models.NewTable(src.Index)
	for _, col := range src.Columns {
		vals := make([]float64, len(col.Floats))
		vals[0] = math.NaN()
		for i := 1; i < len(col.Floats); i++ {
			prev, cur := col.Floats[i-1], col.Floats[i]
			if useLog {
				vals[i] = math.Log(cur / prev)
			} else {
				vals[i] = (cur - prev) / prev
			}
		}
		_ = out.AddFloats(col.Name, vals)
	}
	return out, nil
}

// missingName returns the first requested column absent from the table.
func missingName(t *models.Table, names []string) string {
	for _, n := range names {
		if _, ok := t.Column(n); !ok {
			return n
		}
	}
	return ""
}
