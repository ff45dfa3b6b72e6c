package storage

import "errors"

var (
	// ErrStorageIO wraps every failure reported by the backing store
	ErrStorageIO = errors.New("storage I/O error")
	// ErrOutOfBounds is returned for a handle whose range is not inside the store
	ErrOutOfBounds = errors.New("handle out of bounds")
	// ErrDoubleFree is returned when a released range is already free
	ErrDoubleFree = errors.New("range is already free")
	// ErrLocked is returned when another process holds the backing file
	ErrLocked = errors.New("backing file is locked by another process")
	// ErrClosed is returned when operations are performed on a closed manager
	ErrClosed = errors.New("storage is closed")
)
