package types

import "fmt"

// Lsn is a log sequence number: a totally ordered position in the log's
// address space, identified by file index and byte offset within that file.
type Lsn struct {
	File   uint32
	Offset int64
}

// Compare returns -1, 0 or 1 depending on whether l is before, equal to or
// after other. Files order before offsets.
func (l Lsn) Compare(other Lsn) int {
	switch {
	case l.File < other.File:
		return -1
	case l.File > other.File:
		return 1
	case l.Offset < other.Offset:
		return -1
	case l.Offset > other.Offset:
		return 1
	default:
		return 0
	}
}

func (l Lsn) String() string {
	return fmt.Sprintf("%d/%d", l.File, l.Offset)
}
