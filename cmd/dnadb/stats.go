package main

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/KevoDB/dnadb/pkg/stats"
)

// getUint64 reads a numeric stat of any integer type, or returns 0
func getUint64(m map[string]interface{}, key string) uint64 {
	switch v := m[key].(type) {
	case uint64:
		return v
	case int64:
		return uint64(v)
	case int:
		return uint64(v)
	default:
		return 0
	}
}

// printStats renders the engine statistics for the shell
func printStats(w io.Writer, s map[string]interface{}) {
	ops := []stats.OperationType{stats.OpInsert, stats.OpRemove, stats.OpSearch, stats.OpPrint}

	fmt.Fprintln(w, "📊 Operations:")
	for _, op := range ops {
		name := string(op)
		fmt.Fprintf(w, "  • %s: %d (Misses: %d)\n", name,
			getUint64(s, name+"_ops"), getUint64(s, name+"_misses"))
	}

	fmt.Fprintln(w, "\n⏱️ Last Operation Times:")
	for _, op := range ops {
		name := string(op)
		if ts, ok := s["last_"+name+"_time"].(int64); ok && ts > 0 {
			fmt.Fprintf(w, "  • Last %s: %s\n", name, time.Unix(0, ts).Format(time.RFC3339))
		} else {
			fmt.Fprintf(w, "  • Last %s: Never\n", name)
		}
	}

	var header bool
	for _, op := range ops {
		latency, ok := s[string(op)+"_latency"].(map[string]interface{})
		if !ok {
			continue
		}
		if !header {
			fmt.Fprintln(w, "\n⚡ Latency:")
			header = true
		}
		if avgNs, ok := latency["avg_ns"].(uint64); ok {
			fmt.Fprintf(w, "  • %s avg: %.3f ms\n", op, float64(avgNs)/1000000.0)
		}
	}

	fmt.Fprintln(w, "\n💾 Storage:")
	fmt.Fprintf(w, "  • Store Size: %d bytes\n", getUint64(s, "storage_size_bytes"))
	fmt.Fprintf(w, "  • Free Blocks: %d (%d bytes)\n",
		getUint64(s, "storage_free_blocks"), getUint64(s, "storage_free_bytes"))
	fmt.Fprintf(w, "  • Total Bytes Read: %d\n", getUint64(s, "total_bytes_read"))
	fmt.Fprintf(w, "  • Total Bytes Written: %d\n", getUint64(s, "total_bytes_written"))

	fmt.Fprintln(w, "\n📋 Hash Table:")
	fmt.Fprintf(w, "  • Capacity: %d\n", getUint64(s, "index_capacity"))
	fmt.Fprintf(w, "  • Live: %d\n", getUint64(s, "index_live"))
	fmt.Fprintf(w, "  • Tombstones: %d\n", getUint64(s, "index_tombstones"))

	if errs, ok := s["errors"].(map[string]uint64); ok && len(errs) > 0 {
		fmt.Fprintln(w, "\n❌ Errors:")
		names := make([]string, 0, len(errs))
		for name := range errs {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(w, "  • %s: %d\n", name, errs[name])
		}
	}
}
