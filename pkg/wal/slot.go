package wal

import (
	"sync/atomic"

	"github.com/slotlog-org/go-slotlog/pkg/disk"
	"github.com/slotlog-org/go-slotlog/pkg/types"
)

// Sync behavior a joiner may request for the slot it joins. Flags accumulate
// across joiners and are honored when the slot's buffer is flushed.
const (
	SyncData uint32 = 1 << iota // sync file data after the slot write
	SyncDir                     // sync the log directory after the slot write
)

const slotDefaultFlags uint32 = 0

// Slot is one consolidation buffer plus the atomic bookkeeping that lets many
// threads reserve disjoint ranges of it without locking. A slot cycles
// FREE -> active -> closed -> done -> written -> FREE.
type Slot struct {
	state atomic.Int64
	// Keep adjacent slots' state words off the same cache line.
	_ [56]byte

	// lastOffset is the highest file offset claimed by any releasing joiner,
	// a monotone high-water mark. While every join is buffered, released
	// alone sizes the flush exactly, so the drain path does not consult the
	// mark; it is maintained for a direct-write path, where released
	// overcounts the buffered bytes and writes must be trimmed to it.
	lastOffset atomic.Int64

	syncFlags atomic.Uint32
	fault     atomic.Pointer[error]

	startLSN   types.Lsn
	endLSN     types.Lsn
	releaseLSN types.Lsn

	startOffset int64
	// unbuffered counts bytes joined through the direct-write path, which
	// bypass the buffer and must not be written again at drain time.
	unbuffered int64

	fh  disk.File
	buf []byte
}

// StartLSN returns the log position backing the buffer's first byte.
func (s *Slot) StartLSN() types.Lsn { return s.startLSN }

// EndLSN returns the position one past the slot's final byte. Valid once the
// slot has been closed.
func (s *Slot) EndLSN() types.Lsn { return s.endLSN }

// Err returns the slot's sticky error: the first failure any collaborator
// observed while processing this slot's bytes. Cleared only when the slot is
// freed.
func (s *Slot) Err() error {
	if p := s.fault.Load(); p != nil {
		return *p
	}
	return nil
}

// SetErr records err on the slot if no earlier error is already recorded.
func (s *Slot) SetErr(err error) {
	if err == nil {
		return
	}
	s.fault.CompareAndSwap(nil, &err)
}

func (s *Slot) clearErr() {
	s.fault.Store(nil)
}

// activate resets slot for reuse as the active slot. The caller holds the
// slot lock and has already advanced the manager's allocation cursor to the
// region backing this slot.
func (m *SlotManager) activate(s *Slot) {
	s.state.Store(0)
	s.startLSN = m.allocLSN
	s.endLSN = m.allocLSN
	s.startOffset = m.allocLSN.Offset
	s.lastOffset.Store(m.allocLSN.Offset)
	s.fh = m.curFile
	s.clearErr()
	s.unbuffered = 0
}

// FreeSlot returns a drained slot to the pool. The caller must have observed
// released == joined after the close that sealed the slot and made its bytes
// durable; freeing earlier is a protocol violation.
func (m *SlotManager) FreeSlot(s *Slot) {
	s.syncFlags.Store(slotDefaultFlags)
	s.clearErr()
	s.state.Store(slotFree)
}
