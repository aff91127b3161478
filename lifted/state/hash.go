package state

import (
	"encoding/binary"

	"github.com/wbrown/janus-lifted/lifted"
)

// FNV-1a parameters
const (
	fnvOffset = uint64(14695981039346656037)
	fnvPrime  = uint64(1099511628211)
)

// HashTuple hashes a ground atom without allocating
func HashTuple(t lifted.GroundAtom) uint64 {
	hash := fnvOffset
	for _, v := range t {
		hash ^= uint64(v)
		hash *= fnvPrime
	}
	// Fold in the length so () and (0) differ
	hash ^= uint64(len(t))
	hash *= fnvPrime
	return hash
}

// combine mixes a value into a running hash
func combine(hash, v uint64) uint64 {
	hash ^= v
	hash *= fnvPrime
	return hash
}

// tupleKey encodes a tuple as a string usable as a Go map key
func tupleKey(t lifted.GroundAtom) string {
	buf := make([]byte, 4*len(t))
	for i, v := range t {
		binary.BigEndian.PutUint32(buf[i*4:], uint32(v))
	}
	return string(buf)
}
