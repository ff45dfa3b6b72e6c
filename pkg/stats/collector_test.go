package stats

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_TrackOperation(t *testing.T) {
	collector := NewAtomicCollector()

	collector.TrackOperation(OpInsert)
	collector.TrackOperation(OpInsert)
	collector.TrackOperation(OpSearch)
	collector.TrackMiss(OpSearch)

	stats := collector.GetStats()
	assert.Equal(t, uint64(2), stats["insert_ops"])
	assert.Equal(t, uint64(1), stats["search_ops"])
	assert.Equal(t, uint64(1), stats["search_misses"])
	assert.Contains(t, stats, "last_insert_time")
	assert.NotContains(t, stats, "remove_ops")
}

func TestCollector_TrackLatency(t *testing.T) {
	collector := NewAtomicCollector()

	collector.TrackLatency(OpRemove, 100)
	collector.TrackLatency(OpRemove, 200)
	collector.TrackLatency(OpRemove, 300)

	latency, ok := collector.GetStats()["remove_latency"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, uint64(3), latency["count"])
	assert.Equal(t, uint64(200), latency["avg_ns"])
	assert.Equal(t, uint64(100), latency["min_ns"])
	assert.Equal(t, uint64(300), latency["max_ns"])
}

func TestCollector_ErrorsAndBytes(t *testing.T) {
	collector := NewAtomicCollector()

	collector.TrackError("insert_error")
	collector.TrackError("insert_error")
	collector.TrackBytes(true, 5)
	collector.TrackBytes(false, 7)

	stats := collector.GetStats()
	errs, ok := stats["errors"].(map[string]uint64)
	require.True(t, ok)
	assert.Equal(t, uint64(2), errs["insert_error"])
	assert.Equal(t, uint64(5), stats["total_bytes_written"])
	assert.Equal(t, uint64(7), stats["total_bytes_read"])
}

func TestCollector_Concurrent(t *testing.T) {
	collector := NewAtomicCollector()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				collector.TrackOperation(OpPrint)
				collector.TrackLatency(OpPrint, uint64(j+1))
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, uint64(800), collector.GetStats()["print_ops"])
}

func TestCollector_GetStatsFiltered(t *testing.T) {
	collector := NewAtomicCollector()
	collector.TrackOperation(OpInsert)
	collector.TrackOperation(OpSearch)

	filtered := collector.GetStatsFiltered("insert")
	assert.Contains(t, filtered, "insert_ops")
	assert.NotContains(t, filtered, "search_ops")
}
