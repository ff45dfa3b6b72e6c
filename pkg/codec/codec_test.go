package codec

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode_Packing(t *testing.T) {
	got := Encode("CCCCATGGACGT")
	require.Len(t, got, 3)
	assert.Equal(t, []byte{0x55, 0x3A, 0x1B}, got)
}

func TestEncode_PartialByteIsZeroPadded(t *testing.T) {
	// G = 10, T = 11, padding 0000
	assert.Equal(t, []byte{0b10110000}, Encode("GT"))
	assert.Equal(t, []byte{0x1B, 0x36, 0x30}, Encode("ACGTATCGAT"))
}

func TestEncode_SkipsForeignCharacters(t *testing.T) {
	// N and x are dropped; the remaining bases close up
	got := Encode("ANCxGT")
	require.Len(t, got, ByteNeeded(6))
	assert.Equal(t, Encode("ACGT")[0], got[0])
	assert.Equal(t, byte(0), got[1])
	assert.False(t, Valid("ANCxGT"))
	assert.True(t, Valid("ACGT"))
	assert.True(t, Valid(""))
}

func TestDecode(t *testing.T) {
	data := []byte{0b00011011, 0b00110110}
	got, err := Decode(data, 8)
	require.NoError(t, err)
	assert.Equal(t, "ACGTATCG", got)

	data = []byte{0b00011011, 0b00110110, 0b00110000}
	got, err = Decode(data, 10)
	require.NoError(t, err)
	assert.Equal(t, "ACGTATCGAT", got)

	// Fewer symbols than the buffer holds stops at the requested count
	got, err = Decode(data, 9)
	require.NoError(t, err)
	assert.Equal(t, "ACGTATCGA", got)
}

func TestDecode_OutOfRange(t *testing.T) {
	_, err := Decode([]byte{0xFF}, 5)
	assert.ErrorIs(t, err, ErrOutOfRange)

	_, err = Decode(nil, -1)
	assert.ErrorIs(t, err, ErrOutOfRange)

	got, err := Decode(nil, 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestByteNeeded(t *testing.T) {
	cases := map[int]int{0: 0, 1: 1, 4: 1, 5: 2, 8: 2, 9: 3, 12: 3, 13: 4}
	for count, want := range cases {
		assert.Equal(t, want, ByteNeeded(count), "count=%d", count)
	}
}

func TestRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for n := 0; n <= 64; n++ {
		buf := make([]byte, n)
		for i := range buf {
			buf[i] = alphabet[rng.Intn(4)]
		}
		seq := string(buf)

		got, err := Decode(Encode(seq), n)
		require.NoError(t, err)
		assert.Equal(t, seq, got, "length %d", n)
	}
}
