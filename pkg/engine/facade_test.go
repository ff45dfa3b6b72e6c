package engine

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KevoDB/dnadb/pkg/common/log"
	"github.com/KevoDB/dnadb/pkg/config"
	"github.com/KevoDB/dnadb/pkg/storage"
	"github.com/KevoDB/dnadb/pkg/telemetry"
)

var errInjected = errors.New("injected failure")

// memStore is an in-memory BackingStore whose writes can be made to fail
type memStore struct {
	data      []byte
	failWrite bool
	closed    bool
}

func (s *memStore) ReadAt(p []byte, off int64) (int, error) {
	return copy(p, s.data[off:]), nil
}

func (s *memStore) WriteAt(p []byte, off int64) (int, error) {
	if s.failWrite {
		return 0, errInjected
	}
	if end := off + int64(len(p)); end > int64(len(s.data)) {
		s.data = append(s.data, make([]byte, end-int64(len(s.data)))...)
	}
	return copy(s.data[off:], p), nil
}

func (s *memStore) Truncate(size int64) error {
	s.data = s.data[:size]
	return nil
}

func (s *memStore) Size() (int64, error) {
	return int64(len(s.data)), nil
}

func (s *memStore) Close() error {
	s.closed = true
	return nil
}

func newTestEngine(t *testing.T, capacity int) (*Engine, *memStore) {
	t.Helper()

	store := &memStore{}
	manager, err := storage.NewManager(store, log.Discard())
	require.NoError(t, err)

	eng, err := New(manager, capacity, log.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { eng.Close() })

	return eng, store
}

// distinctIDs returns n different four-base identifiers
func distinctIDs(n int) []string {
	const bases = "ACGT"
	ids := make([]string, n)
	for i := range ids {
		b := make([]byte, 4)
		for j, v := 3, i; j >= 0; j, v = j-1, v/4 {
			b[j] = bases[v%4]
		}
		ids[i] = string(b)
	}
	return ids
}

func TestEngine_InsertRemoveSearch(t *testing.T) {
	eng, store := newTestEngine(t, 64)

	result, err := eng.Insert("AA", 4, "GGAC")
	require.NoError(t, err)
	assert.False(t, result.LengthMismatch())
	assert.Equal(t, 18, result.Slot)
	assert.Len(t, store.data, 2)

	seq, err := eng.Search("AA")
	require.NoError(t, err)
	assert.Equal(t, "GGAC", seq)

	removed, err := eng.Remove("AA")
	require.NoError(t, err)
	assert.Equal(t, "GGAC", removed)

	_, err = eng.Search("AA")
	assert.ErrorIs(t, err, ErrNotFound)

	// Both blocks merged and reached the end of the store
	assert.Empty(t, store.data)
	report, err := eng.Print()
	require.NoError(t, err)
	assert.Empty(t, report.Entries)
	assert.Empty(t, report.FreeBlocks)
}

func TestEngine_RemoveMissing(t *testing.T) {
	eng, _ := newTestEngine(t, 64)

	_, err := eng.Remove("ACGT")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = eng.Insert("ACGT", 1, "A")
	require.NoError(t, err)
	_, err = eng.Remove("ACGT")
	require.NoError(t, err)

	_, err = eng.Remove("ACGT")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEngine_LengthMismatch(t *testing.T) {
	eng, _ := newTestEngine(t, 64)

	result, err := eng.Insert("AA", 5, "GGAC")
	require.NoError(t, err)
	assert.True(t, result.LengthMismatch())
	assert.Equal(t, 5, result.DeclaredLength)
	assert.Equal(t, 4, result.ActualLength)

	seq, err := eng.Search("AA")
	require.NoError(t, err)
	assert.Equal(t, "GGAC", seq)
}

func TestEngine_DuplicateDoesNotAllocate(t *testing.T) {
	eng, store := newTestEngine(t, 64)

	_, err := eng.Insert("AA", 4, "GGAC")
	require.NoError(t, err)
	size := len(store.data)

	result, err := eng.Insert("AA", 3, "TTTTTTTT")
	assert.ErrorIs(t, err, ErrExists)
	assert.Equal(t, -1, result.Slot)
	assert.True(t, result.LengthMismatch())
	assert.Len(t, store.data, size)

	seq, err := eng.Search("AA")
	require.NoError(t, err)
	assert.Equal(t, "GGAC", seq)
}

func TestEngine_BucketFullDoesNotAllocate(t *testing.T) {
	// A single bucket: every id lands in it
	eng, store := newTestEngine(t, 32)

	ids := distinctIDs(33)
	for _, id := range ids[:32] {
		_, err := eng.Insert(id, 2, "AC")
		require.NoError(t, err, id)
	}
	size := len(store.data)

	_, err := eng.Insert(ids[32], 2, "AC")
	assert.ErrorIs(t, err, ErrBucketFull)
	assert.Len(t, store.data, size)

	// A tombstone makes room again
	_, err = eng.Remove(ids[5])
	require.NoError(t, err)
	result, err := eng.Insert(ids[32], 2, "AC")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, result.Slot, 0)
}

func TestEngine_PrintReportsFreeBlocks(t *testing.T) {
	eng, _ := newTestEngine(t, 64)

	_, err := eng.Insert("A", 2, "GG")
	require.NoError(t, err)
	_, err = eng.Insert("C", 4, "TTTT")
	require.NoError(t, err)

	report, err := eng.Print()
	require.NoError(t, err)
	require.Len(t, report.Entries, 2)
	assert.Equal(t, "A", report.Entries[0].ID)
	assert.Equal(t, 16, report.Entries[0].Slot)
	assert.Equal(t, "C", report.Entries[1].ID)
	assert.Equal(t, 17, report.Entries[1].Slot)
	assert.Empty(t, report.FreeBlocks)

	_, err = eng.Remove("A")
	require.NoError(t, err)

	report, err = eng.Print()
	require.NoError(t, err)
	require.Len(t, report.Entries, 1)
	assert.Equal(t, "C", report.Entries[0].ID)
	assert.Equal(t, []storage.FreeBlock{{Offset: 0, Length: 2}}, report.FreeBlocks)
}

func TestEngine_ReusesFreedSpace(t *testing.T) {
	eng, store := newTestEngine(t, 64)

	_, err := eng.Insert("AAAA", 8, "CCCCGGGG")
	require.NoError(t, err)
	_, err = eng.Insert("T", 1, "G")
	require.NoError(t, err)
	size := len(store.data)

	_, err = eng.Remove("AAAA")
	require.NoError(t, err)

	_, err = eng.Insert("GGGG", 4, "ACGT")
	require.NoError(t, err)
	assert.Len(t, store.data, size)

	seq, err := eng.Search("GGGG")
	require.NoError(t, err)
	assert.Equal(t, "ACGT", seq)
}

func TestEngine_StorageFailure(t *testing.T) {
	eng, store := newTestEngine(t, 64)

	store.failWrite = true
	_, err := eng.Insert("AA", 4, "GGAC")
	assert.ErrorIs(t, err, storage.ErrStorageIO)

	store.failWrite = false
	_, err = eng.Search("AA")
	assert.ErrorIs(t, err, ErrNotFound)

	errs := eng.GetStats()["errors"].(map[string]uint64)
	assert.Equal(t, uint64(1), errs["insert_error"])
}

func TestEngine_Stats(t *testing.T) {
	eng, _ := newTestEngine(t, 64)

	_, err := eng.Insert("AA", 4, "GGAC")
	require.NoError(t, err)
	_, err = eng.Insert("AA", 4, "GGAC")
	require.ErrorIs(t, err, ErrExists)
	_, err = eng.Search("CC")
	require.ErrorIs(t, err, ErrNotFound)

	stats := eng.GetStats()
	assert.Equal(t, uint64(2), stats["insert_ops"])
	assert.Equal(t, uint64(1), stats["insert_misses"])
	assert.Equal(t, uint64(1), stats["search_misses"])
	assert.Equal(t, uint64(2), stats["total_bytes_written"])
	assert.Equal(t, 1, stats["index_live"])
	assert.Equal(t, int64(2), stats["storage_size_bytes"])
	assert.Equal(t, false, stats["closed"])
}

func TestEngine_Closed(t *testing.T) {
	eng, store := newTestEngine(t, 64)

	require.NoError(t, eng.Close())
	require.NoError(t, eng.Close())
	assert.True(t, store.closed)

	_, err := eng.Insert("AA", 4, "GGAC")
	assert.ErrorIs(t, err, ErrEngineClosed)
	_, err = eng.Remove("AA")
	assert.ErrorIs(t, err, ErrEngineClosed)
	_, err = eng.Search("AA")
	assert.ErrorIs(t, err, ErrEngineClosed)
	_, err = eng.Print()
	assert.ErrorIs(t, err, ErrEngineClosed)
	assert.Equal(t, true, eng.GetStats()["closed"])
}

func TestOpen(t *testing.T) {
	cfg := config.NewDefaultConfig()
	cfg.MemoryFile = filepath.Join(t.TempDir(), "memory.bin")
	cfg.TableSize = 64

	eng, err := Open(cfg, log.Discard())
	require.NoError(t, err)
	defer eng.Close()

	_, err = eng.Insert("ACGT", 4, "TTTT")
	require.NoError(t, err)
	seq, err := eng.Search("ACGT")
	require.NoError(t, err)
	assert.Equal(t, "TTTT", seq)
}

func TestOpen_InvalidConfig(t *testing.T) {
	cfg := config.NewDefaultConfig()
	cfg.MemoryFile = filepath.Join(t.TempDir(), "memory.bin")
	cfg.TableSize = 0

	_, err := Open(cfg, log.Discard())
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}

func TestEngine_Telemetry(t *testing.T) {
	eng, _ := newTestEngine(t, 64)

	cfg := telemetry.DefaultConfig()
	cfg.Enabled = true
	var out bytes.Buffer
	tel, err := telemetry.NewWithWriter(cfg, &out)
	require.NoError(t, err)
	eng.SetTelemetry(tel)

	_, err = eng.Insert("AA", 4, "GGAC")
	require.NoError(t, err)
	_, err = eng.Search("CC")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, tel.Shutdown(context.Background()))

	got := out.String()
	assert.Contains(t, got, "dnadb.engine.insert")
	assert.Contains(t, got, "dnadb.engine.search")
	assert.Contains(t, got, "dnadb.engine.operation.count")
	assert.Contains(t, got, "dnadb.engine.bytes")
	assert.Contains(t, got, telemetry.StatusMiss)
}
