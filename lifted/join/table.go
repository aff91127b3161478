package join

// Table is the intermediate structure of join processing. Columns holds the
// schema parameter positions the table binds; every tuple holds one object
// per column.
//
// A table with no tuples means "no satisfying binding" and is never queried
// further. A table with zero columns and a single empty tuple is the neutral
// element of the join (a satisfied nullary condition).
type Table struct {
	Columns []int
	Tuples  [][]int
}

// EmptyTable returns the shared "no binding" sentinel. Building it does not allocate.
func EmptyTable() Table {
	return Table{}
}

// Unit returns the table that joins as identity: no columns, one empty tuple
func Unit() Table {
	return Table{Tuples: [][]int{{}}}
}

// IsEmpty reports whether the table holds no tuples
func (t Table) IsEmpty() bool {
	return len(t.Tuples) == 0
}

// Size returns the number of tuples
func (t Table) Size() int {
	return len(t.Tuples)
}

// ColumnIndex returns the position of column col, or -1
func (t Table) ColumnIndex(col int) int {
	for i, c := range t.Columns {
		if c == col {
			return i
		}
	}
	return -1
}

// HasColumn reports whether the table binds col
func (t Table) HasColumn(col int) bool {
	return t.ColumnIndex(col) >= 0
}
