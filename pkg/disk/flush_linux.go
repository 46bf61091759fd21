//go:build linux
// +build linux

package disk

import (
	"os"

	"golang.org/x/sys/unix"
)

// Sync makes previously written data durable. Metadata such as mtime is not
// needed for recovery, so fdatasync is enough.
func (lf *LogFile) Sync() error {
	return unix.Fdatasync(int(lf.f.Fd()))
}

func preallocate(f *os.File, size int64) error {
	if err := unix.Fallocate(int(f.Fd()), 0, 0, size); err == nil {
		return nil
	}
	// Filesystems without fallocate support fall back to a sparse extend.
	return f.Truncate(size)
}

// Linux: sequential access hint
func adviseSequential(f *os.File) {
	_ = unix.Fadvise(int(f.Fd()), 0, 0, unix.FADV_SEQUENTIAL)
}
