// Package archive keeps a history of search runs in BadgerDB, keyed by task
// fingerprint and completion time.
package archive

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"slices"

	"github.com/dgraph-io/badger/v4"
)

var runPrefix = []byte("run/")

// Store is a badger-backed run archive
type Store struct {
	db *badger.DB
}

// Open opens or creates an archive at path
func Open(path string) (*Store, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil // Disable BadgerDB logs

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the archive
func (s *Store) Close() error {
	return s.db.Close()
}

// runKey orders records of one task by completion time
// Format: "run/" + Fingerprint(20) + SolvedAt(8) + RunID(16)
func runKey(r *Record) []byte {
	key := make([]byte, 0, len(runPrefix)+20+8+16)
	key = append(key, runPrefix...)
	key = append(key, r.Fingerprint[:]...)
	key = binary.BigEndian.AppendUint64(key, uint64(r.SolvedAt.UnixNano()))
	key = append(key, r.RunID[:]...)
	return key
}

func taskPrefix(fp Fingerprint) []byte {
	return append(slices.Clone(runPrefix), fp[:]...)
}

// Put stores a record
func (s *Store) Put(r *Record) error {
	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(runKey(r), r.Bytes()); err != nil {
			return fmt.Errorf("failed to write run %s: %w", r.RunID, err)
		}
		return nil
	})
}

// scan visits every record whose key starts with prefix, in key order
func (s *Store) scan(prefix []byte, fn func(*Record) error) error {
	return s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			err := item.Value(func(val []byte) error {
				r, err := RecordFromBytes(val)
				if err != nil {
					return fmt.Errorf("key %x: %w", item.Key(), err)
				}
				return fn(r)
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// History returns every run of a task, oldest first
func (s *Store) History(fp Fingerprint) ([]*Record, error) {
	var out []*Record
	err := s.scan(taskPrefix(fp), func(r *Record) error {
		out = append(out, r)
		return nil
	})
	return out, err
}

// Latest returns the most recent run of a task, or nil when there is none
func (s *Store) Latest(fp Fingerprint) (*Record, error) {
	runs, err := s.History(fp)
	if err != nil || len(runs) == 0 {
		return nil, err
	}
	return runs[len(runs)-1], nil
}

// BestSolved returns the cheapest solved run of a task, or nil
func (s *Store) BestSolved(fp Fingerprint) (*Record, error) {
	runs, err := s.History(fp)
	if err != nil {
		return nil, err
	}
	var best *Record
	for _, r := range runs {
		if r.Solved && (best == nil || r.Cost < best.Cost) {
			best = r
		}
	}
	return best, nil
}

// List returns up to limit runs across all tasks, newest first. A limit of
// zero or less returns everything.
func (s *Store) List(limit int) ([]*Record, error) {
	var out []*Record
	err := s.scan(runPrefix, func(r *Record) error {
		out = append(out, r)
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.SortStableFunc(out, func(a, b *Record) int {
		if c := b.SolvedAt.Compare(a.SolvedAt); c != 0 {
			return c
		}
		return bytes.Compare(a.RunID[:], b.RunID[:])
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
