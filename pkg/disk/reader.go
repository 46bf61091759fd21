package disk

import (
	"encoding/binary"
	"fmt"

	"golang.org/x/exp/mmap"

	"github.com/slotlog-org/go-slotlog/pkg/record"
)

// ScanRecords iterates the framed records of a written log file, invoking fn
// with each payload in file order. Scanning stops at the first all-zero
// header, which marks the preallocated tail of the file. Returns the number
// of records visited.
func ScanRecords(path string, fn func(payload []byte) error) (int, error) {
	r, err := mmap.Open(path)
	if err != nil {
		return 0, fmt.Errorf("mmap open failed: %w", err)
	}
	defer r.Close()

	count := 0
	pos := 0
	for {
		if pos+record.HeaderSize > r.Len() {
			break
		}

		header := make([]byte, record.HeaderSize)
		if _, err := r.ReadAt(header, int64(pos)); err != nil {
			return count, fmt.Errorf("read header at %d: %w", pos, err)
		}
		length := binary.BigEndian.Uint32(header[:4])
		if length == 0 {
			// Preallocated zeros past the last record.
			break
		}
		if pos+record.EncodedLen(int(length)) > r.Len() {
			return count, record.ErrTruncated
		}

		framed := make([]byte, record.EncodedLen(int(length)))
		if _, err := r.ReadAt(framed, int64(pos)); err != nil {
			return count, fmt.Errorf("read record at %d: %w", pos, err)
		}
		payload, n, err := record.Decode(framed)
		if err != nil {
			return count, fmt.Errorf("decode record at %d: %w", pos, err)
		}

		if err := fn(payload); err != nil {
			return count, err
		}
		count++
		pos += n
	}
	return count, nil
}
