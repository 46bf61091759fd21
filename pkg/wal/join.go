package wal

import (
	"runtime"

	"github.com/slotlog-org/go-slotlog/pkg/metrics"
)

// Handle is the receipt a successful join returns: which slot was joined and
// the byte sub-range the caller now exclusively owns within its buffer. The
// zero Handle is a no-op.
type Handle struct {
	Slot      *Slot
	Offset    int64
	EndOffset int64
}

// Join reserves size bytes in the active slot without taking any lock. On
// success the caller exclusively owns Bytes() until it calls Release. Sync
// flags accumulate on the slot and are honored at flush time.
//
// Join spins through state races and slots closed underneath it; it fails
// fast with ErrSlotFull when the active slot has no room, leaving the switch
// to the caller, and with ErrRecordTooLarge when size can never fit.
func (m *SlotManager) Join(size int64, flags uint32) (Handle, error) {
	if size >= slotMaximum || size > m.slotBufSize {
		return Handle{}, ErrRecordTooLarge
	}

	for {
		slot := m.active.Load()
		if slot == nil {
			// Legitimate only for the background writer's size-zero probe.
			if size != 0 {
				return Handle{}, ErrNoActiveSlot
			}
			return Handle{}, nil
		}

		state := slot.state.Load()
		if stateOpen(state) {
			joined := stateJoined(state)
			if joined+size > int64(len(slot.buf)) {
				return Handle{Slot: slot}, ErrSlotFull
			}
			if slot.state.CompareAndSwap(state, joinRel(joined+size, stateReleased(state), stateFlags(state))) {
				if size != 0 {
					metrics.SlotJoins.Inc()
				}
				if flags != 0 {
					slot.syncFlags.Or(flags)
				}
				return Handle{Slot: slot, Offset: joined, EndOffset: joined + size}, nil
			}
		}

		// The slot is no longer open or we lost the swap. Yield and retry;
		// a closed slot will be replaced by whoever closed it.
		metrics.SlotJoinRaces.Inc()
		runtime.Gosched()
	}
}

// Bytes returns the buffer sub-range owned by this handle.
func (h Handle) Bytes() []byte {
	if h.Slot == nil {
		return nil
	}
	return h.Slot.buf[h.Offset:h.EndOffset]
}

// Release signals that the caller finished copying size bytes into its joined
// range. It never blocks; concurrent releases interleave freely. Returns the
// slot's new raw state word.
func (h Handle) Release(size int64) int64 {
	s := h.Slot
	if s == nil {
		return 0
	}

	// Advance the high-water mark to our start if we are past it. Releases
	// arrive in any order, so losers of the swap re-read and re-check.
	myStart := s.startOffset + h.Offset
	for {
		cur := s.lastOffset.Load()
		if cur >= myStart || s.lastOffset.CompareAndSwap(cur, myStart) {
			break
		}
	}

	return s.state.Add(joinRel(0, size, 0))
}
