// Package table adapts a parsed Gherkin data table into a header-indexed
// view the CRIF assembler reads from, instead of the assembler re-walking
// messages.TableRow/TableCell by hand at every call site.
package table

import (
	"iter"
	"strings"

	messages "github.com/cucumber/messages/go/v21"
)

// Row is a single row of a Table, readable by column header or index.
type Row struct {
	cells   []string
	headers []string
}

// Get returns the cell value for the column named col (case-insensitive), or
// "" if the column is not present or the row is short that cell.
func (r Row) Get(col string) string {
	colLower := strings.ToLower(col)
	for i, h := range r.headers {
		if strings.ToLower(h) == colLower {
			if i < len(r.cells) {
				return r.cells[i]
			}
			return ""
		}
	}
	return ""
}

// Cell returns the cell at the given 0-based index, or "" if out of range.
func (r Row) Cell(index int) string {
	if index < 0 || index >= len(r.cells) {
		return ""
	}
	return r.cells[index]
}

// Values returns a copy of every cell value in the row, in order.
func (r Row) Values() []string {
	cp := make([]string, len(r.cells))
	copy(cp, r.cells)
	return cp
}

// Len returns the number of cells in the row.
func (r Row) Len() int {
	return len(r.cells)
}

// Table is a Gherkin data table (or an Examples block flattened to the same
// shape): a header row followed by zero or more data rows of equal width.
type Table struct {
	headers []string
	rows    []Row
}

// FromDataTable builds a Table from a parsed Gherkin data table. The first
// row supplies the headers used by Row.Get.
func FromDataTable(dt *messages.DataTable) Table {
	if dt == nil || len(dt.Rows) == 0 {
		return Table{}
	}
	return fromRows(dt.Rows)
}

// FromExamples builds a Table from a scenario-outline Examples block, whose
// header and body live in separate fields rather than one combined Rows
// slice.
func FromExamples(header *messages.TableRow, body []*messages.TableRow) Table {
	if header == nil {
		return Table{}
	}
	rows := append([]*messages.TableRow{header}, body...)
	return fromRows(rows)
}

func fromRows(rows []*messages.TableRow) Table {
	headers := cellValues(rows[0])

	out := make([]Row, len(rows))
	for i, r := range rows {
		out[i] = Row{cells: cellValues(r), headers: headers}
	}

	return Table{headers: headers, rows: out}
}

func cellValues(row *messages.TableRow) []string {
	if row == nil {
		return nil
	}
	out := make([]string, len(row.Cells))
	for i, c := range row.Cells {
		out[i] = c.Value
	}
	return out
}

// Headers returns a copy of the header row's values.
func (t Table) Headers() []string {
	cp := make([]string, len(t.headers))
	copy(cp, t.headers)
	return cp
}

// Len returns the number of rows, including the header row.
func (t Table) Len() int {
	return len(t.rows)
}

// All iterates every row, including the header row.
func (t Table) All() iter.Seq2[int, Row] {
	return func(yield func(int, Row) bool) {
		for i, row := range t.rows {
			if !yield(i, row) {
				return
			}
		}
	}
}

// DataRows iterates every row except the header, 0-indexed from the first
// data row. Row.Get still resolves against the header row.
func (t Table) DataRows() iter.Seq2[int, Row] {
	return func(yield func(int, Row) bool) {
		for i := 1; i < len(t.rows); i++ {
			if !yield(i-1, t.rows[i]) {
				return
			}
		}
	}
}
