// Package index implements the fixed-capacity hash table mapping sequence
// identifiers to record bundles. Collisions are resolved by linear probing
// confined to a 32-slot bucket; removals leave tombstones.
package index

import (
	"errors"
	"fmt"

	"github.com/KevoDB/dnadb/pkg/codec"
	"github.com/KevoDB/dnadb/pkg/common/log"
	"github.com/KevoDB/dnadb/pkg/record"
)

var (
	// ErrExists is returned when a live entry already holds the identifier
	ErrExists = errors.New("sequence id exists")
	// ErrBucketFull is returned when the key's bucket has no empty or tombstoned slot
	ErrBucketFull = errors.New("bucket full")
	// ErrInvalidCapacity is returned for a non-positive capacity
	ErrInvalidCapacity = errors.New("invalid index capacity")
)

// KeyReader reads the packed bytes of a stored identifier
type KeyReader interface {
	Read(h record.Handle) ([]byte, error)
}

type slot struct {
	used   bool
	bundle record.Bundle
}

// Table is the in-memory index. Stored identifiers are not kept in memory;
// they are read back through a KeyReader when a probe needs to compare.
type Table struct {
	slots      []slot
	live       int
	tombstones int
	keys       KeyReader
	logger     log.Logger
}

// New creates a table with capacity slots
func New(capacity int, keys KeyReader, logger log.Logger) (*Table, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCapacity, capacity)
	}
	if logger == nil {
		logger = log.GetDefaultLogger()
	}
	logger = logger.WithField("component", "index")

	if capacity%BucketSize != 0 {
		logger.Debug("capacity %d is not a multiple of %d, last bucket holds %d slots",
			capacity, BucketSize, capacity%BucketSize)
	}

	return &Table{
		slots:  make([]slot, capacity),
		keys:   keys,
		logger: logger,
	}, nil
}

// probeResult summarises one walk over a key's bucket
type probeResult struct {
	match     int // live slot holding the key
	empty     int // first never-used slot
	tombstone int // first tombstoned slot
}

// locate walks the bucket of key until it finds the key, reaches an empty
// slot or exhausts the bucket.
func (t *Table) locate(key string) (probeResult, error) {
	res := probeResult{match: -1, empty: -1, tombstone: -1}

	capacity := len(t.slots)
	home := Hash(key, capacity)
	width := bucketWidth(home, capacity)
	digest := record.Digest(key)

	for i := 0; i < width; i++ {
		pos := Probe(home, i, capacity)
		s := &t.slots[pos]

		switch {
		case !s.used:
			res.empty = pos
			return res, nil

		case s.bundle.Tombstoned:
			if res.tombstone < 0 {
				res.tombstone = pos
			}

		default:
			ok, err := t.matches(&s.bundle, key, digest)
			if err != nil {
				return res, err
			}
			if ok {
				res.match = pos
				return res, nil
			}
		}
	}

	return res, nil
}

// matches reports whether b was stored under key
func (t *Table) matches(b *record.Bundle, key string, digest uint64) (bool, error) {
	// Bundles built without a digest always fall through to the read
	if b.IDDigest != 0 && b.IDDigest != digest {
		return false, nil
	}
	if b.ID.SymbolCount != len(key) {
		return false, nil
	}

	data, err := t.keys.Read(b.ID)
	if err != nil {
		return false, fmt.Errorf("failed to read stored id: %w", err)
	}
	stored, err := codec.Decode(data, b.ID.SymbolCount)
	if err != nil {
		return false, fmt.Errorf("failed to decode stored id: %w", err)
	}

	return stored == key, nil
}

// CheckInsert returns nil when key can be inserted, ErrExists when a live
// entry holds it and ErrBucketFull when its bucket has no room.
func (t *Table) CheckInsert(key string) error {
	res, err := t.locate(key)
	if err != nil {
		return err
	}

	switch {
	case res.match >= 0:
		return ErrExists
	case res.empty >= 0, res.tombstone >= 0:
		return nil
	default:
		return ErrBucketFull
	}
}

// Insert stores b under key and returns the slot used. An empty slot is
// preferred over a tombstone seen earlier in the probe.
func (t *Table) Insert(key string, b record.Bundle) (int, error) {
	res, err := t.locate(key)
	if err != nil {
		return -1, err
	}

	pos := res.empty
	switch {
	case res.match >= 0:
		return -1, ErrExists
	case pos >= 0:
	case res.tombstone >= 0:
		pos = res.tombstone
		t.tombstones--
	default:
		return -1, ErrBucketFull
	}

	b.Tombstoned = false
	t.slots[pos] = slot{used: true, bundle: b}
	t.live++
	t.logger.Debug("inserted %q at slot %d", key, pos)

	return pos, nil
}

// Get returns the live bundle stored under key
func (t *Table) Get(key string) (record.Bundle, bool, error) {
	res, err := t.locate(key)
	if err != nil || res.match < 0 {
		return record.Bundle{}, false, err
	}
	return t.slots[res.match].bundle, true, nil
}

// Remove tombstones the entry for key and returns its bundle, whose
// handles remain valid so the caller can release their storage.
func (t *Table) Remove(key string) (record.Bundle, bool, error) {
	res, err := t.locate(key)
	if err != nil || res.match < 0 {
		return record.Bundle{}, false, err
	}

	s := &t.slots[res.match]
	s.bundle.Tombstoned = true
	t.live--
	t.tombstones++
	t.logger.Debug("tombstoned %q at slot %d", key, res.match)

	return s.bundle, true, nil
}

// ForEach calls fn for every live entry in slot order. Iteration stops at
// the first error fn returns.
func (t *Table) ForEach(fn func(slot int, b record.Bundle) error) error {
	for i := range t.slots {
		s := &t.slots[i]
		if !s.used || s.bundle.Tombstoned {
			continue
		}
		if err := fn(i, s.bundle); err != nil {
			return err
		}
	}
	return nil
}

// Len returns the number of live entries
func (t *Table) Len() int {
	return t.live
}

// Capacity returns the number of slots
func (t *Table) Capacity() int {
	return len(t.slots)
}

// Stats returns occupancy counters
func (t *Table) Stats() map[string]interface{} {
	return map[string]interface{}{
		"capacity":   len(t.slots),
		"live":       t.live,
		"tombstones": t.tombstones,
		"empty":      len(t.slots) - t.live - t.tombstones,
	}
}
