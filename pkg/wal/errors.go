package wal

import "errors"

var (
	// ErrSlotFull reports that the active slot had no room for the requested
	// join. The caller switches the slot out and retries.
	ErrSlotFull = errors.New("wal: active slot full")

	// ErrRecordTooLarge reports a join size that can never fit a slot buffer.
	// Such records belong on the direct-write path.
	ErrRecordTooLarge = errors.New("wal: record exceeds slot buffer capacity")

	// ErrNoActiveSlot reports a sized join while no slot is active. Only the
	// background writer's size-zero probe may run without one.
	ErrNoActiveSlot = errors.New("wal: no active slot")
)
