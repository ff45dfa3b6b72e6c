//go:build unix

package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenFile_ExclusiveLock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "memory.bin")

	first, err := OpenFile(path)
	require.NoError(t, err)

	_, err = OpenFile(path)
	assert.ErrorIs(t, err, ErrLocked)

	require.NoError(t, first.Close())

	second, err := OpenFile(path)
	require.NoError(t, err)
	require.NoError(t, second.Close())
}
