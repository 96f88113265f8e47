package io

import (
	"github.com/ezrec/uvm/translate"
)

var f = translate.From

var (
	// Snapshot errors
	ErrSnapshotRange = translate.Error("snapshot range invalid")

	// File errors
	ErrFileClosed = translate.Error("file already committed or aborted")
)

// ErrFormat is an unknown snapshot format name.
type ErrFormat string

func (err ErrFormat) Error() string {
	return f("unknown snapshot format '%v'", string(err))
}

// ErrRange is a snapshot address range that cannot be scanned.
type ErrRange struct {
	Start int
	End   int
}

func (err *ErrRange) Error() string {
	return f("snapshot range %d..%d invalid", err.Start, err.End)
}

func (err *ErrRange) Is(target error) bool {
	return target == ErrSnapshotRange
}
