package annotations

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

// TableRenderer pretty-prints join tables by their columns and size
type TableRenderer struct {
	useColor bool
}

// NewTableRenderer creates a new table renderer
func NewTableRenderer(useColor bool) *TableRenderer {
	return &TableRenderer{useColor: useColor}
}

// RenderTable renders column names with an optional tuple count (-1 omits it)
func (r *TableRenderer) RenderTable(attrs []string, tupleCount int) string {
	attrList := strings.Join(attrs, " ")

	if r.useColor {
		result := fmt.Sprintf("%s%s%s",
			color.BlueString("Table(["),
			color.CyanString(attrList),
			color.BlueString("]"))
		if tupleCount >= 0 {
			result += fmt.Sprintf("%s%s", color.BlueString(", "), r.colorizeCount(tupleCount))
		}
		return result + color.BlueString(")")
	}

	if tupleCount >= 0 {
		return fmt.Sprintf("Table([%s], %d Tuples)", attrList, tupleCount)
	}
	return fmt.Sprintf("Table([%s])", attrList)
}

// colorizeCount colors a tuple count by magnitude
func (r *TableRenderer) colorizeCount(count int) string {
	countStr := fmt.Sprintf("%d", count)
	switch {
	case count == 0:
		countStr = color.RedString(countStr)
	case count < 100:
		countStr = color.GreenString(countStr)
	case count < 10000:
		countStr = color.YellowString(countStr)
	default:
		countStr = color.RedString(countStr)
	}
	return countStr + " Tuples"
}

// RenderJoin renders a join operation
func (r *TableRenderer) RenderJoin(leftAttrs []string, leftCount int, rightAttrs []string, rightCount int, resultAttrs []string, resultCount int) string {
	left := r.RenderTable(leftAttrs, leftCount)
	right := r.RenderTable(rightAttrs, rightCount)
	result := r.RenderTable(resultAttrs, resultCount)

	joinOp := " ⋈ "
	if r.useColor {
		joinOp = color.YellowString(" ⋈ ")
	}
	return fmt.Sprintf("%s%s%s → %s", left, joinOp, right, result)
}
