package record

import (
	"encoding/binary"
	"errors"
	"hash/crc32"
)

// A framed record is a 4-byte big-endian payload length, a 4-byte CRC32-C of
// the payload, then the payload bytes. The slot engine itself never inspects
// record contents; framing exists for producers and for scanning written logs.

const (
	lenSize  = 4
	crcSize  = 4
	crcShift = lenSize

	// HeaderSize is the fixed number of bytes preceding every payload.
	HeaderSize = lenSize + crcSize
)

var (
	ErrTruncated = errors.New("record: truncated")
	ErrChecksum  = errors.New("record: checksum mismatch")
)

var crcTable = crc32.MakeTable(crc32.Castagnoli)

// EncodedLen returns the framed size of a payload of n bytes.
func EncodedLen(n int) int {
	return HeaderSize + n
}

// Encode frames payload into dst and returns the number of bytes written.
// dst must be at least EncodedLen(len(payload)) bytes.
func Encode(dst, payload []byte) int {
	binary.BigEndian.PutUint32(dst[:lenSize], uint32(len(payload)))
	binary.BigEndian.PutUint32(dst[crcShift:HeaderSize], crc32.Checksum(payload, crcTable))
	copy(dst[HeaderSize:], payload)
	return EncodedLen(len(payload))
}

// Decode reads one framed record from the start of data and returns the
// payload and the total number of bytes consumed. The payload aliases data.
func Decode(data []byte) ([]byte, int, error) {
	if len(data) < HeaderSize {
		return nil, 0, ErrTruncated
	}
	length := binary.BigEndian.Uint32(data[:lenSize])
	sum := binary.BigEndian.Uint32(data[crcShift:HeaderSize])
	end := HeaderSize + int(length)
	if end > len(data) {
		return nil, 0, ErrTruncated
	}
	payload := data[HeaderSize:end]
	if crc32.Checksum(payload, crcTable) != sum {
		return nil, 0, ErrChecksum
	}
	return payload, end, nil
}
