package interfaces

import (
	"github.com/KevoDB/dnadb/pkg/storage"
)

// Engine defines the operations the command layer issues against the store
type Engine interface {
	// Insert stores sequence under id
	Insert(id string, declaredLength int, sequence string) (InsertResult, error)
	// Remove deletes id and returns the sequence it held
	Remove(id string) (string, error)
	// Search returns the sequence stored under id
	Search(id string) (string, error)
	// Print lists live identifiers and free blocks
	Print() (Report, error)

	GetStats() map[string]interface{}
	Close() error
}

// InsertResult describes an insert, including one that was rejected
type InsertResult struct {
	// Slot is the index slot used, or -1 when nothing was stored
	Slot int
	// DeclaredLength is the length given on the insert command
	DeclaredLength int
	// ActualLength is the length of the sequence that was stored
	ActualLength int
}

// LengthMismatch reports whether the declared length was wrong
func (r InsertResult) LengthMismatch() bool {
	return r.DeclaredLength != r.ActualLength
}

// Entry is one live identifier and the slot holding it
type Entry struct {
	ID   string
	Slot int
}

// Report is a snapshot of the index and the free list
type Report struct {
	Entries    []Entry
	FreeBlocks []storage.FreeBlock
}
