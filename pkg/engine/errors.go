package engine

import (
	"errors"

	"github.com/KevoDB/dnadb/pkg/index"
)

var (
	// ErrEngineClosed is returned when operations are performed on a closed engine
	ErrEngineClosed = errors.New("engine is closed")
	// ErrNotFound is returned when no live entry holds the identifier
	ErrNotFound = errors.New("sequence id not found")
	// ErrExists is returned when inserting an identifier that is already live
	ErrExists = index.ErrExists
	// ErrBucketFull is returned when the identifier's bucket has no free slot
	ErrBucketFull = index.ErrBucketFull
)
