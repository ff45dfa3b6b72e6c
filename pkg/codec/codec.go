// Package codec packs DNA sequences over the alphabet {A,C,G,T} into
// 2-bit codes, four bases per byte, most significant pair first.
package codec

import (
	"errors"
	"fmt"
	"strings"
)

// BitsPerSymbol is the width of one packed base
const BitsPerSymbol = 2

// SymbolsPerByte is the number of bases held by one packed byte
const SymbolsPerByte = 8 / BitsPerSymbol

var (
	// ErrOutOfRange is returned when a decode asks for more symbols than the buffer holds
	ErrOutOfRange = errors.New("symbol count out of range")
)

// alphabet maps a 2-bit code to its base
var alphabet = [4]byte{'A', 'C', 'G', 'T'}

// code returns the 2-bit code of a base and whether it belongs to the alphabet
func code(c byte) (byte, bool) {
	switch c {
	case 'A':
		return 0b00, true
	case 'C':
		return 0b01, true
	case 'G':
		return 0b10, true
	case 'T':
		return 0b11, true
	default:
		return 0, false
	}
}

// ByteNeeded returns the number of packed bytes needed for count symbols
func ByteNeeded(count int) int {
	if count <= 0 {
		return 0
	}
	return (count*BitsPerSymbol + 7) / 8
}

// Encode packs symbols into a buffer of ByteNeeded(len(symbols)) bytes.
//
// Characters outside the alphabet are skipped without advancing the bit
// position, so a sequence containing them leaves zero padding at the tail
// of the buffer. Callers that need strict input should check Valid first.
func Encode(symbols string) []byte {
	out := make([]byte, ByteNeeded(len(symbols)))

	pos := 0
	for i := 0; i < len(symbols); i++ {
		bits, ok := code(symbols[i])
		if !ok {
			continue
		}
		shift := 6 - (pos%SymbolsPerByte)*BitsPerSymbol
		out[pos/SymbolsPerByte] |= bits << shift
		pos++
	}

	return out
}

// Decode unpacks count symbols from data
func Decode(data []byte, count int) (string, error) {
	if count < 0 || count*BitsPerSymbol > len(data)*8 {
		return "", fmt.Errorf("%w: %d symbols requested from %d bytes",
			ErrOutOfRange, count, len(data))
	}

	var sb strings.Builder
	sb.Grow(count)
	for i := 0; i < count; i++ {
		shift := 6 - (i%SymbolsPerByte)*BitsPerSymbol
		bits := (data[i/SymbolsPerByte] >> shift) & 0b11
		sb.WriteByte(alphabet[bits])
	}

	return sb.String(), nil
}

// Valid reports whether every character of symbols is one of A, C, G or T
func Valid(symbols string) bool {
	for i := 0; i < len(symbols); i++ {
		if _, ok := code(symbols[i]); !ok {
			return false
		}
	}
	return true
}
