//go:build !unix

package storage

import "os"

// Advisory locking is only implemented on unix platforms.
func lockFile(*os.File) error   { return nil }
func unlockFile(*os.File) error { return nil }
