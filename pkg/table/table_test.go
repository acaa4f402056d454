package table_test

import (
	"testing"

	messages "github.com/cucumber/messages/go/v21"
	"github.com/stretchr/testify/require"

	"github.com/weftgen/weft/pkg/table"
)

func cell(v string) *messages.TableCell { return &messages.TableCell{Value: v} }

func row(values ...string) *messages.TableRow {
	cells := make([]*messages.TableCell, len(values))
	for i, v := range values {
		cells[i] = cell(v)
	}
	return &messages.TableRow{Cells: cells}
}

func TestFromDataTable(t *testing.T) {
	dt := &messages.DataTable{
		Rows: []*messages.TableRow{
			row("name", "age"),
			row("Alice", "30"),
			row("Bob", "25"),
		},
	}

	tbl := table.FromDataTable(dt)

	require.Equal(t, 3, tbl.Len())
	require.Equal(t, []string{"name", "age"}, tbl.Headers())

	var names []string
	for _, r := range tbl.DataRows() {
		names = append(names, r.Get("name"))
	}
	require.Equal(t, []string{"Alice", "Bob"}, names)
}

func TestFromDataTableNil(t *testing.T) {
	tbl := table.FromDataTable(nil)
	require.Equal(t, 0, tbl.Len())
	require.Empty(t, tbl.Headers())
}

func TestFromExamples(t *testing.T) {
	header := row("amount", "account")
	body := []*messages.TableRow{row("3", "checking"), row("5", "savings")}

	tbl := table.FromExamples(header, body)

	require.Equal(t, 3, tbl.Len())

	var accounts []string
	for _, r := range tbl.DataRows() {
		accounts = append(accounts, r.Get("account"))
	}
	require.Equal(t, []string{"checking", "savings"}, accounts)
}

func TestRowCellAndValues(t *testing.T) {
	tbl := table.FromDataTable(&messages.DataTable{Rows: []*messages.TableRow{
		row("a", "b"),
		row("1", "2"),
	}})

	var got table.Row
	for _, r := range tbl.DataRows() {
		got = r
	}

	require.Equal(t, "1", got.Cell(0))
	require.Equal(t, "2", got.Get("b"))
	require.Equal(t, "", got.Get("missing"))
	require.Equal(t, []string{"1", "2"}, got.Values())
	require.Equal(t, 2, got.Len())
}
