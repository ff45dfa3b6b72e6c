// Package record defines the value types passed between the storage
// manager and the index.
package record

import (
	"fmt"

	"github.com/cespare/xxhash/v2"

	"github.com/KevoDB/dnadb/pkg/codec"
)

// Handle locates a packed symbol string in the backing store
type Handle struct {
	// Offset of the first packed byte
	Offset int64
	// SymbolCount is the number of bases the packed bytes represent
	SymbolCount int
}

// ByteLen returns the number of packed bytes the handle covers
func (h Handle) ByteLen() int64 {
	return int64(codec.ByteNeeded(h.SymbolCount))
}

// End returns the offset one past the last packed byte
func (h Handle) End() int64 {
	return h.Offset + h.ByteLen()
}

func (h Handle) String() string {
	return fmt.Sprintf("handle(offset=%d, symbols=%d)", h.Offset, h.SymbolCount)
}

// Bundle is the value held by one index slot
type Bundle struct {
	Tombstoned bool
	ID         Handle
	Sequence   Handle

	// IDDigest fingerprints the identifier so probes can skip slots
	// without reading the stored id back. A match still requires a read.
	IDDigest uint64
}

// NewBundle creates a live bundle for the identifier id
func NewBundle(id string, idHandle, seqHandle Handle) Bundle {
	return Bundle{
		ID:       idHandle,
		Sequence: seqHandle,
		IDDigest: Digest(id),
	}
}

// Digest returns the fingerprint stored in Bundle.IDDigest
func Digest(id string) uint64 {
	return xxhash.Sum64String(id)
}
