package io

import (
	"os"
	"path/filepath"
)

// AtomicFile is an output file that only appears at its final path once
// committed. Until then, writes go to a temporary file in the same
// directory.
type AtomicFile struct {
	*os.File
	Path string // Final path.

	done bool
}

// CreateAtomic creates the temporary file backing path.
func CreateAtomic(path string) (af *AtomicFile, err error) {
	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}

	file, err := os.CreateTemp(dir, "."+base+".*")
	if err != nil {
		return
	}

	af = &AtomicFile{
		File: file,
		Path: path,
	}

	return
}

// Commit flushes and closes the temporary file, and renames it into place.
func (af *AtomicFile) Commit() (err error) {
	if af.done {
		err = ErrFileClosed
		return
	}
	af.done = true

	tmp := af.File.Name()
	defer func() {
		if err != nil {
			os.Remove(tmp)
		}
	}()

	err = af.File.Sync()
	if err != nil {
		af.File.Close()
		return
	}

	err = af.File.Close()
	if err != nil {
		return
	}

	err = os.Chmod(tmp, 0o644)
	if err != nil {
		return
	}

	err = os.Rename(tmp, af.Path)

	return
}

// Abort discards the temporary file. Aborting after Commit does nothing,
// so Abort may always be deferred.
func (af *AtomicFile) Abort() (err error) {
	if af.done {
		return
	}
	af.done = true

	tmp := af.File.Name()
	af.File.Close()
	err = os.Remove(tmp)

	return
}
