package wal

// A slot's concurrency state is one int64 mutated only through CAS or atomic
// add, so a joiner's reservation, a releaser's completion and the close flag
// always move together. All packing knowledge lives in this file.
//
//	bits  0..31  released: bytes whose payload copy has completed
//	bits 32..60  joined:   bytes reserved by joiners
//	bit  61      sealed:   the closer published endLSN and the alloc cursor
//	bit  62      close:    no further joins permitted
//	bit  63      reserved: sentinel states, not a live join/release encoding
const (
	slotClose    int64 = 1 << 62
	slotSealed   int64 = 1 << 61
	slotReserved int64 = -1 << 63

	// Sentinels. Both carry the reserved bit.
	slotFree    int64 = -1 // in the pool, available for activation
	slotWritten int64 = -2 // drained and written, awaiting ordered free

	stateMaskOff int64 = 0x1fffffffffffffff
	stateMaskOn  int64 = ^stateMaskOff
	joinMask     int64 = stateMaskOff >> 32

	// slotMaximum bounds a single join so joined arithmetic can never carry
	// into the flag bits.
	slotMaximum int64 = joinMask / 2
)

func joinRel(joined, released, flags int64) int64 {
	return joined<<32 + released + flags
}

func stateJoined(state int64) int64   { return (state & stateMaskOff) >> 32 }
func stateReleased(state int64) int64 { return state & 0xffffffff }
func stateFlags(state int64) int64    { return state & stateMaskOn }

// stateReservedClass reports whether state is a sentinel value rather than a
// live encoding.
func stateReservedClass(state int64) bool { return state&slotReserved != 0 }

// stateOpen reports whether the slot still accepts joins.
func stateOpen(state int64) bool {
	return state&(slotClose|slotReserved) == 0
}

// stateClosed reports whether the slot has been sealed but not yet recycled.
func stateClosed(state int64) bool {
	return state&slotClose != 0 && state&slotReserved == 0
}

// stateInProgress reports whether joined bytes are still being copied.
func stateInProgress(state int64) bool {
	return stateReleased(state) != stateJoined(state)
}

// stateDone reports whether the slot is eligible for its disk write: closed,
// end LSN published, and fully released. The sealed bit is what keeps the
// writer off a slot whose closer has won the close race but not yet written
// the positional fields.
func stateDone(state int64) bool {
	return state&slotSealed != 0 && state&slotReserved == 0 && !stateInProgress(state)
}
