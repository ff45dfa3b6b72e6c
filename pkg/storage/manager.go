// Package storage manages the flat file holding packed identifiers and
// sequences: placement of new records, release of old ones and the list
// of free blocks in between.
package storage

import (
	"fmt"
	"slices"

	"github.com/KevoDB/dnadb/pkg/codec"
	"github.com/KevoDB/dnadb/pkg/common/log"
	"github.com/KevoDB/dnadb/pkg/record"
)

// Manager allocates packed records inside a BackingStore. It is not safe
// for concurrent use.
type Manager struct {
	store  BackingStore
	free   freeList
	size   int64
	logger log.Logger
	closed bool

	// Counters reported by Stats
	allocations uint64
	releases    uint64
	appends     uint64
	splits      uint64
	merges      uint64
	truncations uint64
}

// Open opens the backing file at path and returns a manager over it
func Open(path string, logger log.Logger) (*Manager, error) {
	file, err := OpenFile(path)
	if err != nil {
		return nil, err
	}

	m, err := NewManager(file, logger)
	if err != nil {
		file.Close()
		return nil, err
	}

	return m, nil
}

// NewManager creates a manager over store. Existing bytes are treated as
// occupied: the free list always starts empty.
func NewManager(store BackingStore, logger log.Logger) (*Manager, error) {
	if logger == nil {
		logger = log.GetDefaultLogger()
	}

	size, err := store.Size()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to stat store: %w", ErrStorageIO, err)
	}

	return &Manager{
		store:  store,
		free:   make(freeList, 0),
		size:   size,
		logger: logger.WithField("component", "storage"),
	}, nil
}

// Allocate places the packed form of symbols in the store and returns its
// handle. The smallest free block that fits is used, with the record carved
// from its low end; otherwise the store grows.
func (m *Manager) Allocate(symbols string) (record.Handle, error) {
	if m.closed {
		return record.Handle{}, ErrClosed
	}

	count := len(symbols)
	need := int64(codec.ByteNeeded(count))
	if need == 0 {
		return record.Handle{Offset: m.size, SymbolCount: 0}, nil
	}

	idx := m.free.bestFit(need)
	offset := m.size
	if idx >= 0 {
		offset = m.free[idx].Offset
	}

	if err := m.writeAt(codec.Encode(symbols), offset); err != nil {
		return record.Handle{}, err
	}

	if idx >= 0 {
		if m.free[idx].Length > need {
			m.splits++
		}
		m.free.take(idx, need)
		m.logger.Debug("allocated %d bytes at %d from free block", need, offset)
	} else {
		m.size += need
		m.appends++
		m.logger.Debug("allocated %d bytes at %d by growing store to %d", need, offset, m.size)
	}
	m.allocations++

	return record.Handle{Offset: offset, SymbolCount: count}, nil
}

// Release frees the range covered by h and returns the packed bytes it
// held. The range is zeroed, merged with adjacent free blocks, and trimmed
// from the store when it ends up at the tail.
func (m *Manager) Release(h record.Handle) ([]byte, error) {
	if m.closed {
		return nil, ErrClosed
	}

	n := h.ByteLen()
	if n == 0 {
		return []byte{}, nil
	}

	if err := m.checkBounds(h); err != nil {
		return nil, err
	}
	if m.free.overlaps(h.Offset, n) {
		return nil, fmt.Errorf("%w: %s", ErrDoubleFree, h)
	}

	data, err := m.readAt(h.Offset, n)
	if err != nil {
		return nil, err
	}

	if err := m.writeAt(make([]byte, n), h.Offset); err != nil {
		return nil, err
	}

	idx := m.free.insert(FreeBlock{Offset: h.Offset, Length: n})
	_, merged := m.free.coalesce(idx)
	m.merges += uint64(merged)
	m.releases++

	if err := m.trimTail(); err != nil {
		return nil, err
	}

	return data, nil
}

// trimTail drops the last free block when it reaches the end of the store
func (m *Manager) trimTail() error {
	if len(m.free) == 0 {
		return nil
	}

	last := m.free[len(m.free)-1]
	if last.End() != m.size {
		return nil
	}

	if err := m.store.Truncate(last.Offset); err != nil {
		return fmt.Errorf("%w: failed to truncate store to %d: %w", ErrStorageIO, last.Offset, err)
	}

	m.free = m.free[:len(m.free)-1]
	m.size = last.Offset
	m.truncations++
	m.logger.Debug("truncated store to %d bytes", m.size)

	return nil
}

// Read returns the packed bytes covered by h
func (m *Manager) Read(h record.Handle) ([]byte, error) {
	if m.closed {
		return nil, ErrClosed
	}

	n := h.ByteLen()
	if n == 0 {
		return []byte{}, nil
	}

	if err := m.checkBounds(h); err != nil {
		return nil, err
	}

	return m.readAt(h.Offset, n)
}

// ReadString reads and decodes the symbols covered by h
func (m *Manager) ReadString(h record.Handle) (string, error) {
	data, err := m.Read(h)
	if err != nil {
		return "", err
	}
	return codec.Decode(data, h.SymbolCount)
}

// FreeBlocks returns a snapshot of the free list in offset order
func (m *Manager) FreeBlocks() []FreeBlock {
	return slices.Clone(m.free)
}

// Size returns the current extent of the store in bytes
func (m *Manager) Size() int64 {
	return m.size
}

// Stats returns counters describing the store and its free list
func (m *Manager) Stats() map[string]interface{} {
	return map[string]interface{}{
		"size_bytes":  m.size,
		"free_blocks": len(m.free),
		"free_bytes":  m.free.totalBytes(),
		"allocations": m.allocations,
		"releases":    m.releases,
		"appends":     m.appends,
		"splits":      m.splits,
		"merges":      m.merges,
		"truncations": m.truncations,
	}
}

// Close closes the backing store. Calling Close more than once is a no-op.
func (m *Manager) Close() error {
	if m.closed {
		return nil
	}
	m.closed = true

	if err := m.store.Close(); err != nil {
		return fmt.Errorf("%w: failed to close store: %w", ErrStorageIO, err)
	}
	return nil
}

func (m *Manager) checkBounds(h record.Handle) error {
	if h.Offset < 0 || h.SymbolCount < 0 || h.End() > m.size {
		return fmt.Errorf("%w: %s outside store of %d bytes", ErrOutOfBounds, h, m.size)
	}
	return nil
}

func (m *Manager) readAt(off, n int64) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := m.store.ReadAt(buf, off); err != nil {
		return nil, fmt.Errorf("%w: read %d bytes at %d: %w", ErrStorageIO, n, off, err)
	}
	return buf, nil
}

func (m *Manager) writeAt(data []byte, off int64) error {
	if _, err := m.store.WriteAt(data, off); err != nil {
		return fmt.Errorf("%w: write %d bytes at %d: %w", ErrStorageIO, len(data), off, err)
	}
	return nil
}
