//go:build !linux
// +build !linux

package disk

import "os"

// Sync makes previously written data durable.
func (lf *LogFile) Sync() error {
	return lf.f.Sync()
}

func preallocate(f *os.File, size int64) error {
	return f.Truncate(size)
}

func adviseSequential(_ *os.File) {}
