package record

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHandle_ByteLen(t *testing.T) {
	tests := []struct {
		symbols int
		want    int64
	}{
		{0, 0},
		{1, 1},
		{4, 1},
		{5, 2},
		{10, 3},
	}

	for _, tc := range tests {
		h := Handle{Offset: 7, SymbolCount: tc.symbols}
		assert.Equal(t, tc.want, h.ByteLen(), "symbols=%d", tc.symbols)
		assert.Equal(t, 7+tc.want, h.End())
	}
}

func TestNewBundle(t *testing.T) {
	id := Handle{Offset: 0, SymbolCount: 2}
	seq := Handle{Offset: 1, SymbolCount: 4}

	b := NewBundle("AA", id, seq)
	assert.False(t, b.Tombstoned)
	assert.Equal(t, id, b.ID)
	assert.Equal(t, seq, b.Sequence)
	assert.Equal(t, Digest("AA"), b.IDDigest)
	assert.NotEqual(t, Digest("AA"), Digest("AC"))
}
