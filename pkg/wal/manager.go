package wal

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/slotlog-org/go-slotlog/pkg/config"
	"github.com/slotlog-org/go-slotlog/pkg/disk"
	"github.com/slotlog-org/go-slotlog/pkg/metrics"
	"github.com/slotlog-org/go-slotlog/pkg/types"
	"github.com/slotlog-org/go-slotlog/util"
)

const (
	slotPoolSize = 128

	// slotBufMax caps the per-slot buffer. Buffers close to the log file size
	// would rotate files far too aggressively, so init scales them down for
	// small file limits.
	slotBufMax = 256 * 1024
)

// Filespace reserves contiguous regions of the physical log for slot buffers.
// Reservation may rotate to a new file; failures are fatal to the log.
// ReleaseBefore lets go of files the durable cursor has fully passed, keeping
// the set of open files bounded on long runs.
type Filespace interface {
	Acquire(pos types.Lsn, size int64) (disk.File, types.Lsn, error)
	ReleaseBefore(idx uint32)
}

// SlotManager owns the slot pool, the active-slot pointer and the log's
// allocation cursor. Join and Release are lock-free and may be called from
// any number of goroutines; CloseSlot, Switch and slot installation are
// transitions serialized by the slot lock, which callers of those methods
// must hold (Lock/Unlock). Append and Flush manage the lock themselves.
type SlotManager struct {
	cfg *config.Config
	fs  Filespace

	// mu is the slot lock: it serializes slot transitions and guards
	// allocLSN and curFile. Join and Release never take it.
	mu       sync.Mutex
	allocLSN types.Lsn
	curFile  disk.File

	active atomic.Pointer[Slot]
	pool   [slotPoolSize]Slot

	slotBufSize int64

	// writeMu guards the durable cursor and the first writer fault; the
	// background writer advances them and Flush waits on flushCond.
	writeMu   sync.Mutex
	writeLSN  types.Lsn
	fault     error
	flushCond *sync.Cond

	wakeCh  chan struct{}
	stopCh  chan struct{}
	doneCh  chan struct{}
	started atomic.Bool
	stopped sync.Once
}

// NewSlotManager initializes the slot pool and activates slot 0 as the
// initial active slot. fs errors during the initial reservation are returned
// as-is; they are fatal to the log subsystem.
func NewSlotManager(cfg *config.Config, fs Filespace) (*SlotManager, error) {
	m := &SlotManager{
		cfg:    cfg,
		fs:     fs,
		wakeCh: make(chan struct{}, 1),
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
	m.flushCond = sync.NewCond(&m.writeMu)

	m.slotBufSize = min(cfg.LogFileMaxBytes/10, slotBufMax)
	for i := range m.pool {
		m.pool[i].state.Store(slotFree)
		m.pool[i].buf = make([]byte, m.slotBufSize)
	}
	metrics.SlotBufferBytes.Set(float64(m.slotBufSize * slotPoolSize))

	// The release LSN cannot be seeded in activate because activation also
	// runs after file switches.
	s := &m.pool[0]
	s.releaseLSN = m.allocLSN
	fh, pos, err := fs.Acquire(m.allocLSN, m.slotBufSize)
	if err != nil {
		return nil, fmt.Errorf("failed to reserve initial log space: %w", err)
	}
	m.curFile = fh
	m.allocLSN = pos
	m.activate(s)
	m.active.Store(s)

	util.Debug("slot pool ready: %d slots of %d bytes", slotPoolSize, m.slotBufSize)
	return m, nil
}

// Lock acquires the slot lock. Required around CloseSlot and Switch.
func (m *SlotManager) Lock() { m.mu.Lock() }

// Unlock releases the slot lock.
func (m *SlotManager) Unlock() { m.mu.Unlock() }

// AllocLSN returns the next position the log will hand to an activated slot.
func (m *SlotManager) AllocLSN() types.Lsn {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.allocLSN
}

// WriteLSN returns the position the log has been durably written through.
func (m *SlotManager) WriteLSN() types.Lsn {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()
	return m.writeLSN
}

// CloseSlot seals s against further joins and fixes its end LSN. The caller
// holds the slot lock. If another thread already closed or fully processed
// the slot this is a no-op returning false. Otherwise the caller owns the
// transition; the return value reports whether the slot was already fully
// released at the moment of closing.
func (m *SlotManager) CloseSlot(s *Slot) bool {
	if s == nil {
		return false
	}
	for {
		old := s.state.Load()
		// Someone else switched this slot out, or completely processed it.
		if stateClosed(old) || stateReservedClass(old) {
			return false
		}
		if !s.state.CompareAndSwap(old, old|slotClose) {
			continue
		}

		// We own the slot now. No one else can join.
		metrics.SlotCloses.Inc()
		joined := stateJoined(old)
		s.endLSN = s.startLSN
		s.endLSN.Offset += joined
		m.allocLSN = s.endLSN
		metrics.SlotConsolidatedBytes.Add(float64(joined))

		m.writeMu.Lock()
		if m.allocLSN.File < m.writeLSN.File {
			util.Error("allocation cursor %s regressed behind write cursor %s", m.allocLSN, m.writeLSN)
		}
		m.writeMu.Unlock()

		// Sealing last: the writer must not observe a done slot before the
		// end LSN it will retire against has been written.
		s.state.Or(slotSealed)

		return !stateInProgress(old)
	}
}

// Switch closes out the active slot and installs a fresh one. The caller
// holds the slot lock. If s is no longer the active slot another thread
// already switched it and this is a no-op.
func (m *SlotManager) Switch(s *Slot) error {
	if s != m.active.Load() {
		return nil
	}
	m.CloseSlot(s)
	return m.newSlot()
}

// newSlot finds a free slot, reserves file space for its buffer and installs
// it as the active slot. Slot lock held. When the pool is exhausted it
// signals the background writer and keeps scanning; slot turnover is fast, so
// this never waits on a timer.
func (m *SlotManager) newSlot() error {
	if s := m.active.Load(); s != nil && stateOpen(s.state.Load()) {
		return nil
	}

	for {
		// Restart the scan at 0 each pass, matching allocation order to pool
		// order.
		for i := range m.pool {
			s := &m.pool[i]
			if s.state.Load() != slotFree {
				continue
			}
			s.releaseLSN = m.allocLSN
			fh, pos, err := m.fs.Acquire(m.allocLSN, m.slotBufSize)
			if err != nil {
				return fmt.Errorf("failed to reserve log space: %w", err)
			}
			m.curFile = fh
			m.allocLSN = pos
			m.activate(s)
			m.active.Store(s)
			metrics.SlotTransitions.Inc()
			return nil
		}

		metrics.SlotNoFreeSlots.Inc()
		m.wake()
		runtime.Gosched()
	}
}

// Append consolidates payload into the log through the join/release protocol,
// switching the active slot out when it fills. The payload is copied into the
// slot buffer; durability follows the requested sync flags at flush time.
func (m *SlotManager) Append(payload []byte, flags uint32) error {
	size := int64(len(payload))
	if size == 0 {
		return nil
	}

	for {
		h, err := m.Join(size, flags)
		switch {
		case err == nil:
			copy(h.Bytes(), payload)
			h.Release(size)
			return nil
		case errors.Is(err, ErrSlotFull):
			m.mu.Lock()
			err = m.Switch(h.Slot)
			m.mu.Unlock()
			if err != nil {
				return err
			}
		default:
			return err
		}
	}
}

// Flush seals the current active slot, installs a fresh one and blocks until
// everything allocated so far is durably written. Requires the background
// writer to be running. Returns the first sticky write fault, if any.
func (m *SlotManager) Flush() error {
	m.mu.Lock()
	if s := m.active.Load(); s != nil {
		if err := m.Switch(s); err != nil {
			m.mu.Unlock()
			return err
		}
	}
	target := m.allocLSN
	m.mu.Unlock()

	m.wake()

	m.writeMu.Lock()
	defer m.writeMu.Unlock()
	for m.writeLSN.Compare(target) < 0 && m.fault == nil {
		m.flushCond.Wait()
	}
	return m.fault
}

// Destroy writes out whatever remains in non-recycled slots and drops the
// pool's buffers. Only for orderly shutdown, after Stop.
func (m *SlotManager) Destroy() error {
	m.active.Store(nil)
	for i := range m.pool {
		s := &m.pool[i]
		state := s.state.Load()
		if !stateReservedClass(state) {
			if n := stateReleased(state) - s.unbuffered; n > 0 && s.fh != nil {
				if _, err := s.fh.WriteAt(s.buf[:n], s.startOffset); err != nil {
					return fmt.Errorf("failed to drain slot %d: %w", i, err)
				}
			}
		}
		s.buf = nil
	}
	return nil
}

func (m *SlotManager) wake() {
	select {
	case m.wakeCh <- struct{}{}:
	default:
	}
}
