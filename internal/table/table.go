// Package table loads the solver's tabular artifact: a comma-separated file
// whose header names the columns, whose first column is the independent
// variable and whose remaining columns are the series to plot.
package table

import (
	"math"
)

// Table is an in-memory numeric table. Every row has len(Columns) values;
// a missing cell is NaN.
type Table struct {
	Columns []string
	Rows    [][]float64
}

// NumRows returns the number of data rows.
func (t *Table) NumRows() int { return len(t.Rows) }

// NumColumns returns the number of columns named by the header.
func (t *Table) NumColumns() int { return len(t.Columns) }

// Column returns a copy of column i.
func (t *Table) Column(i int) []float64 {
	out := make([]float64, len(t.Rows))
	for r, row := range t.Rows {
		out[r] = row[i]
	}
	return out
}

// Series is one dependent column paired with the independent column.
type Series struct {
	Name string
	X    []float64
	Y    []float64
}

// Series returns one entry per non-first column. Points where either x or y
// is not finite are dropped.
func (t *Table) Series() []Series {
	if len(t.Columns) < 2 {
		return nil
	}
	out := make([]Series, 0, len(t.Columns)-1)
	for c := 1; c < len(t.Columns); c++ {
		s := Series{Name: t.Columns[c]}
		for _, row := range t.Rows {
			x, y := row[0], row[c]
			if !finite(x) || !finite(y) {
				continue
			}
			s.X = append(s.X, x)
			s.Y = append(s.Y, y)
		}
		out = append(out, s)
	}
	return out
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
