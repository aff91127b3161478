package join

// rowIndex is a hash index over table rows keyed by a subset of columns.
// The hash is only a bucket selector; collisions are resolved by comparing
// the key values.
type rowIndex struct {
	rows    [][]int
	keyPos  []int
	buckets map[uint64][]int
}

// FNV-1a parameters
const (
	fnvOffset = uint64(14695981039346656037)
	fnvPrime  = uint64(1099511628211)
)

func hashKey(row []int, positions []int) uint64 {
	hash := fnvOffset
	for _, p := range positions {
		hash ^= uint64(row[p])
		hash *= fnvPrime
	}
	return hash
}

func newRowIndex(rows [][]int, keyPos []int) *rowIndex {
	idx := &rowIndex{
		rows:    rows,
		keyPos:  keyPos,
		buckets: make(map[uint64][]int, len(rows)),
	}
	for i, row := range rows {
		h := hashKey(row, keyPos)
		idx.buckets[h] = append(idx.buckets[h], i)
	}
	return idx
}

// lookup calls fn for each indexed row whose key equals probe's key at probePos
func (idx *rowIndex) lookup(probe []int, probePos []int, fn func(row []int)) {
	candidates, ok := idx.buckets[hashKey(probe, probePos)]
	if !ok {
		return
	}
	for _, i := range candidates {
		row := idx.rows[i]
		if keysEqual(row, idx.keyPos, probe, probePos) {
			fn(row)
		}
	}
}

func keysEqual(a []int, aPos []int, b []int, bPos []int) bool {
	for i := range aPos {
		if a[aPos[i]] != b[bPos[i]] {
			return false
		}
	}
	return true
}

// HashJoin joins left and right on every column they share. It builds a hash
// index on left keyed by the shared columns and probes it with each row of
// right. The result binds the union of both column sets, left columns first.
//
// Tables without shared columns produce their cross product. If either input
// is empty the result is empty and no index is built.
//
// Input tables hold distinct rows, so the output does too: every output row
// is determined by exactly one (left, right) pair.
func HashJoin(left, right Table) Table {
	var leftPos, rightPos []int
	var extraPos []int // right positions not in left
	columns := append(make([]int, 0, len(left.Columns)+len(right.Columns)), left.Columns...)
	for j, col := range right.Columns {
		if i := left.ColumnIndex(col); i >= 0 {
			leftPos = append(leftPos, i)
			rightPos = append(rightPos, j)
		} else {
			extraPos = append(extraPos, j)
			columns = append(columns, col)
		}
	}

	if left.IsEmpty() || right.IsEmpty() {
		return Table{Columns: columns}
	}

	idx := newRowIndex(left.Tuples, leftPos)

	var out [][]int
	width := len(columns)
	for _, probe := range right.Tuples {
		idx.lookup(probe, rightPos, func(row []int) {
			joined := make([]int, 0, width)
			joined = append(joined, row...)
			for _, p := range extraPos {
				joined = append(joined, probe[p])
			}
			out = append(out, joined)
		})
	}

	return Table{Columns: columns, Tuples: out}
}

// FilterInequalities removes, in place, every row binding two mutually
// distinct parameters to the same object. Pairs whose columns are not both
// present yet are skipped; they are enforced by a later call once the
// columns have been joined in.
func FilterInequalities(t *Table, pairs [][2]int) {
	if t.IsEmpty() || len(pairs) == 0 {
		return
	}

	type check struct{ a, b int }
	var checks []check
	for _, p := range pairs {
		a, b := t.ColumnIndex(p[0]), t.ColumnIndex(p[1])
		if a >= 0 && b >= 0 {
			checks = append(checks, check{a, b})
		}
	}
	if len(checks) == 0 {
		return
	}

	kept := t.Tuples[:0]
	for _, row := range t.Tuples {
		ok := true
		for _, c := range checks {
			if row[c.a] == row[c.b] {
				ok = false
				break
			}
		}
		if ok {
			kept = append(kept, row)
		}
	}
	// Clear the tail so dropped rows can be collected
	for i := len(kept); i < len(t.Tuples); i++ {
		t.Tuples[i] = nil
	}
	t.Tuples = kept
}
