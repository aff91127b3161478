package join

import (
	"fmt"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"
)

// Formatter renders tables as markdown for debugging output
type Formatter struct {
	// ColumnName names a parameter column; defaults to "?<n>"
	ColumnName func(col int) string
	// ValueName names an object; defaults to its index
	ValueName func(obj int) string
	// MaxRows limits rendered rows; 0 renders all
	MaxRows int
}

// NewFormatter creates a formatter with default naming
func NewFormatter() *Formatter {
	return &Formatter{
		ColumnName: func(col int) string { return fmt.Sprintf("?%d", col) },
		ValueName:  func(obj int) string { return fmt.Sprintf("%d", obj) },
		MaxRows:    50,
	}
}

// Format renders t as a markdown table
func (f *Formatter) Format(t Table) string {
	if t.IsEmpty() {
		return "_Empty table_"
	}
	if len(t.Columns) == 0 {
		return "_Unit table (no columns, 1 row)_"
	}

	sb := &strings.Builder{}

	alignment := make([]tw.Align, len(t.Columns))
	for i := range alignment {
		alignment[i] = tw.AlignNone
	}

	table := tablewriter.NewTable(sb,
		tablewriter.WithRenderer(renderer.NewMarkdown()),
		tablewriter.WithAlignment(alignment),
		tablewriter.WithHeaderAutoFormat(tw.Off),
	)

	headers := make([]string, len(t.Columns))
	for i, col := range t.Columns {
		headers[i] = f.ColumnName(col)
	}
	table.Header(headers)

	shown := t.Tuples
	if f.MaxRows > 0 && len(shown) > f.MaxRows {
		shown = shown[:f.MaxRows]
	}
	for _, tuple := range shown {
		row := make([]string, len(tuple))
		for j, v := range tuple {
			row[j] = f.ValueName(v)
		}
		table.Append(row)
	}
	table.Render()

	if len(shown) < len(t.Tuples) {
		fmt.Fprintf(sb, "\n_%d of %d rows_\n", len(shown), len(t.Tuples))
	} else {
		fmt.Fprintf(sb, "\n_%d rows_\n", len(t.Tuples))
	}
	return sb.String()
}

// String renders the table with default naming
func (t Table) String() string {
	return NewFormatter().Format(t)
}
