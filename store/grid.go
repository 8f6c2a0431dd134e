// Package store provides TableStore implementations and the cell-grid
// arithmetic they share.
package store

import (
	"github.com/warp/reminder-engine/registry"
)

// =============================================================================
// GRID - a sheet as rows of cells
// =============================================================================

// Grid is a sheet's content, row 0 being the header. Rows may be ragged.
type Grid [][]any

// Clone deep-copies the rows.
func (g Grid) Clone() Grid {
	out := make(Grid, len(g))
	for i, row := range g {
		out[i] = append([]any(nil), row...)
	}
	return out
}

// Write overwrites cells at r's anchor and returns the grown grid. With
// r.Replace the existing content is discarded first.
func (g Grid) Write(r registry.Range, cells [][]any) Grid {
	out := g.Clone()
	if r.Replace {
		out = nil
	}
	for i, src := range cells {
		rowIdx := r.Row + i
		for len(out) <= rowIdx {
			out = append(out, nil)
		}
		row := out[rowIdx]
		if need := r.Col + len(src); len(row) < need {
			row = append(row, make([]any, need-len(row))...)
		}
		copy(row[r.Col:], src)
		out[rowIdx] = row
	}
	return out
}

// Append places cells on the row after the last non-empty row.
func (g Grid) Append(cells []any) Grid {
	out := g.Clone()[:g.lastNonEmpty()+1]
	return append(out, append([]any(nil), cells...))
}

// Table splits the header from the data rows. Trailing blank rows are
// dropped so a cleared tail never reads as customers.
func (g Grid) Table() registry.Table {
	var t registry.Table
	if len(g) == 0 {
		return t
	}
	t.Header = make([]string, len(g[0]))
	for i, v := range g[0] {
		t.Header[i] = registry.CellText(v)
	}
	last := g.lastNonEmpty()
	for _, row := range g[1:max(last+1, 1)] {
		t.Rows = append(t.Rows, append([]any(nil), row...))
	}
	return t
}

func (g Grid) lastNonEmpty() int {
	for i := len(g) - 1; i >= 0; i-- {
		if !blankRow(g[i]) {
			return i
		}
	}
	return -1
}

func blankRow(row []any) bool {
	for _, v := range row {
		if registry.CellText(v) != "" {
			return false
		}
	}
	return true
}

// Plain converts a cell to a value every backend can encode: dates become
// their canonical text, everything else except numbers and booleans is text.
func Plain(v any) any {
	switch val := v.(type) {
	case nil, string, float64, bool:
		return val
	case int:
		return float64(val)
	case int64:
		return float64(val)
	case float32:
		return float64(val)
	default:
		return registry.CellText(val)
	}
}

func plainRow(row []any) []any {
	out := make([]any, len(row))
	for i, v := range row {
		out[i] = Plain(v)
	}
	return out
}

// PlainRows applies Plain to every cell.
func PlainRows(rows [][]any) [][]any {
	out := make([][]any, len(rows))
	for i, r := range rows {
		out[i] = plainRow(r)
	}
	return out
}
