package interfaces

import (
	"github.com/KevoDB/dnadb/pkg/record"
	"github.com/KevoDB/dnadb/pkg/storage"
)

// StorageManager places packed records in the backing store
type StorageManager interface {
	Allocate(symbols string) (record.Handle, error)
	Release(h record.Handle) ([]byte, error)
	Read(h record.Handle) ([]byte, error)
	ReadString(h record.Handle) (string, error)
	FreeBlocks() []storage.FreeBlock
	Size() int64
	Stats() map[string]interface{}
	Close() error
}
