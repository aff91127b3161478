package grounder

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
)

// JoinOrder selects how each schema's precondition tables are folded.
// The order never changes which actions are produced, only the size of the
// intermediate tables.
type JoinOrder int

const (
	// Ascending joins tables with fewer free-variable columns first
	Ascending JoinOrder = iota
	// Descending joins tables with more free-variable columns first
	Descending
)

// ParseJoinOrder parses "ascending" or "descending"
func ParseJoinOrder(s string) (JoinOrder, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "ascending", "asc":
		return Ascending, nil
	case "descending", "desc":
		return Descending, nil
	default:
		return Ascending, fmt.Errorf("unknown join order %q (want ascending or descending)", s)
	}
}

func (o JoinOrder) String() string {
	switch o {
	case Ascending:
		return "ascending"
	case Descending:
		return "descending"
	default:
		return fmt.Sprintf("JoinOrder(%d)", int(o))
	}
}

// Permutation returns the order in which data's tables are joined. Tables
// are ranked by column count, a structural stand-in for their size that
// ignores how many tuples any particular state holds. Ties keep declaration
// order when ascending and reverse it when descending.
func (o JoinOrder) Permutation(data *PrecompiledActionData) []int {
	type ranked struct{ width, pos int }
	keys := make([]ranked, len(data.Tables))
	for i, t := range data.Tables {
		keys[i] = ranked{width: len(t.Columns), pos: i}
	}

	slices.SortFunc(keys, func(a, b ranked) int {
		c := cmp.Compare(a.width, b.width)
		if c == 0 {
			c = cmp.Compare(a.pos, b.pos)
		}
		if o == Descending {
			return -c
		}
		return c
	})

	perm := make([]int, len(keys))
	for i, k := range keys {
		perm[i] = k.pos
	}
	return perm
}
