package archive

import (
	"crypto/sha1"
	"encoding/binary"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/wbrown/janus-lifted/lifted"
)

// Fingerprint identifies a task by content: SHA1 over its domain and
// problem names, objects, schemas, initial facts and goal
type Fingerprint [20]byte

func (f Fingerprint) String() string {
	return fmt.Sprintf("%x", f[:])
}

// Short returns the first eight hex digits
func (f Fingerprint) Short() string {
	return f.String()[:8]
}

// FingerprintTask computes a task's fingerprint. Initial facts are sorted so
// that declaration order does not matter.
func FingerprintTask(task *lifted.Task) Fingerprint {
	var sb strings.Builder
	fmt.Fprintf(&sb, "domain %s\nproblem %s\n", task.Domain, task.Name)
	for _, o := range task.Objects {
		fmt.Fprintf(&sb, "object %s %s\n", o.Name, task.Types[o.Type].Name)
	}
	for _, s := range task.Schemas {
		fmt.Fprintf(&sb, "schema %s %d %d %v %v %v\n",
			s.Name, len(s.Parameters), s.Cost, s.Precondition, s.Effects, s.Inequalities)
	}

	facts := make([]string, len(task.Init))
	for i, f := range task.Init {
		facts[i] = task.FactString(f.Predicate, f.Args)
	}
	slices.Sort(facts)
	for _, f := range facts {
		sb.WriteString("init ")
		sb.WriteString(f)
		sb.WriteByte('\n')
	}
	for _, g := range task.Goal.Atoms {
		fmt.Fprintf(&sb, "goal %v %s\n", g.Negated, task.FactString(g.Predicate, g.Args))
	}
	return sha1.Sum([]byte(sb.String()))
}

// Record is one archived search run
type Record struct {
	RunID       uuid.UUID
	Fingerprint Fingerprint
	Domain      string
	Problem     string
	Order       string
	Heuristic   string
	Solved      bool
	Plan        []string // one "(schema obj ...)" line per action
	Cost        int
	Explored    int
	Generated   int
	Duration    time.Duration
	SolvedAt    time.Time
}

// Bytes returns the serialized form of the record
// Format: RunID(16) + Fingerprint(20) + Solved(1) + 5 x int64 + strings,
// where every string is a uint32 length followed by its bytes
func (r *Record) Bytes() []byte {
	buf := make([]byte, 0, 128)
	buf = append(buf, r.RunID[:]...)
	buf = append(buf, r.Fingerprint[:]...)
	if r.Solved {
		buf = append(buf, 1)
	} else {
		buf = append(buf, 0)
	}
	for _, v := range []int64{
		int64(r.Cost), int64(r.Explored), int64(r.Generated),
		int64(r.Duration), r.SolvedAt.UnixNano(),
	} {
		buf = binary.BigEndian.AppendUint64(buf, uint64(v))
	}
	for _, s := range []string{r.Domain, r.Problem, r.Order, r.Heuristic} {
		buf = appendString(buf, s)
	}
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(r.Plan)))
	for _, step := range r.Plan {
		buf = appendString(buf, step)
	}
	return buf
}

const fixedSize = 16 + 20 + 1 + 5*8

func appendString(buf []byte, s string) []byte {
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(s)))
	return append(buf, s...)
}

type decoder struct {
	data []byte
	err  error
}

func (d *decoder) string() string {
	if d.err != nil {
		return ""
	}
	if len(d.data) < 4 {
		d.err = fmt.Errorf("record truncated reading string length")
		return ""
	}
	n := int(binary.BigEndian.Uint32(d.data))
	if n > len(d.data)-4 {
		d.err = fmt.Errorf("record truncated: string of %d bytes, %d left", n, len(d.data)-4)
		return ""
	}
	s := string(d.data[4 : 4+n])
	d.data = d.data[4+n:]
	return s
}

// RecordFromBytes deserializes a record
func RecordFromBytes(data []byte) (*Record, error) {
	if len(data) < fixedSize+4 {
		return nil, fmt.Errorf("record data too short: %d bytes", len(data))
	}

	var r Record
	copy(r.RunID[:], data[0:16])
	copy(r.Fingerprint[:], data[16:36])
	r.Solved = data[36] == 1

	ints := make([]int64, 5)
	for i := range ints {
		off := 37 + i*8
		ints[i] = int64(binary.BigEndian.Uint64(data[off : off+8]))
	}
	r.Cost = int(ints[0])
	r.Explored = int(ints[1])
	r.Generated = int(ints[2])
	r.Duration = time.Duration(ints[3])
	r.SolvedAt = time.Unix(0, ints[4])

	d := &decoder{data: data[fixedSize:]}
	r.Domain = d.string()
	r.Problem = d.string()
	r.Order = d.string()
	r.Heuristic = d.string()
	if d.err != nil {
		return nil, d.err
	}

	if len(d.data) < 4 {
		return nil, fmt.Errorf("record truncated reading plan length")
	}
	steps := int(binary.BigEndian.Uint32(d.data))
	d.data = d.data[4:]
	for i := 0; i < steps; i++ {
		step := d.string()
		if d.err != nil {
			return nil, d.err
		}
		r.Plan = append(r.Plan, step)
	}
	return &r, nil
}
