package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// BackingStore is the byte-addressable medium the manager allocates from
type BackingStore interface {
	io.ReaderAt
	io.WriterAt
	// Truncate changes the size of the store
	Truncate(size int64) error
	// Size returns the current size of the store in bytes
	Size() (int64, error)
	Close() error
}

// File is a BackingStore over a single locked file
type File struct {
	f    *os.File
	path string
}

// OpenFile opens path for exclusive use and empties it. The free list is
// never persisted, so leftover contents from a previous run are unreachable.
func OpenFile(path string) (*File, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open %s: %w", ErrStorageIO, path, err)
	}

	if err := lockFile(f); err != nil {
		f.Close()
		return nil, err
	}

	if err := f.Truncate(0); err != nil {
		unlockFile(f)
		f.Close()
		return nil, fmt.Errorf("%w: failed to reset %s: %w", ErrStorageIO, path, err)
	}

	return &File{f: f, path: path}, nil
}

// Path returns the file path
func (s *File) Path() string {
	return s.path
}

// ReadAt implements io.ReaderAt
func (s *File) ReadAt(p []byte, off int64) (int, error) {
	n, err := s.f.ReadAt(p, off)
	// A read that ends exactly at EOF is complete
	if n == len(p) && errors.Is(err, io.EOF) {
		err = nil
	}
	return n, err
}

// WriteAt implements io.WriterAt
func (s *File) WriteAt(p []byte, off int64) (int, error) {
	return s.f.WriteAt(p, off)
}

// Truncate changes the size of the file
func (s *File) Truncate(size int64) error {
	return s.f.Truncate(size)
}

// Size returns the file size
func (s *File) Size() (int64, error) {
	info, err := s.f.Stat()
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// Close releases the lock and closes the file
func (s *File) Close() error {
	unlockErr := unlockFile(s.f)
	if err := s.f.Close(); err != nil {
		return err
	}
	return unlockErr
}
