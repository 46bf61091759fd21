package wal

import (
	"sort"
	"time"

	"github.com/slotlog-org/go-slotlog/pkg/metrics"
	"github.com/slotlog-org/go-slotlog/util"
)

// Start launches the background writer that drains fully released slots to
// disk and recycles them.
func (m *SlotManager) Start() {
	if !m.started.CompareAndSwap(false, true) {
		return
	}
	go m.runWriter()
}

// Stop terminates the background writer after a final drain. Idempotent.
func (m *SlotManager) Stop() {
	m.stopped.Do(func() { close(m.stopCh) })
	if m.started.Load() {
		<-m.doneCh
	}
}

func (m *SlotManager) runWriter() {
	defer close(m.doneCh)

	ticker := time.NewTicker(time.Duration(m.cfg.WriterPollMS) * time.Millisecond)
	defer ticker.Stop()

	for {
		m.drainOnce()
		select {
		case <-m.stopCh:
			m.drainOnce()
			return
		case <-m.wakeCh:
		case <-ticker.C:
		}
	}
}

// drainOnce writes every slot that is sealed and fully released, oldest
// first, then retires written slots in log order.
func (m *SlotManager) drainOnce() {
	for {
		batch := m.doneSlots()
		if len(batch) == 0 {
			break
		}
		sort.Slice(batch, func(i, j int) bool {
			return batch[i].releaseLSN.Compare(batch[j].releaseLSN) < 0
		})
		for _, s := range batch {
			m.flushSlot(s)
		}
	}
	m.retire()
}

func (m *SlotManager) doneSlots() []*Slot {
	var done []*Slot
	for i := range m.pool {
		s := &m.pool[i]
		if stateDone(s.state.Load()) {
			done = append(done, s)
		}
	}
	return done
}

// flushSlot writes a done slot's buffered bytes at their file position and
// applies the sync policy its joiners accumulated. Failures stick to the
// slot; the write position makes a later retry or shutdown drain safe.
func (m *SlotManager) flushSlot(s *Slot) {
	state := s.state.Load()
	size := stateReleased(state) - s.unbuffered
	if size > 0 && s.fh != nil {
		if _, err := s.fh.WriteAt(s.buf[:size], s.startOffset); err != nil {
			s.SetErr(err)
			metrics.WriterErrors.Inc()
			util.Error("slot write failed at %s: %v", s.startLSN, err)
		} else {
			flags := s.syncFlags.Load()
			if flags&SyncData != 0 {
				if err := s.fh.Sync(); err != nil {
					s.SetErr(err)
					metrics.WriterErrors.Inc()
					util.Error("slot data sync failed at %s: %v", s.startLSN, err)
				}
			}
			if flags&SyncDir != 0 {
				if err := s.fh.SyncDir(); err != nil {
					s.SetErr(err)
					metrics.WriterErrors.Inc()
					util.Error("log directory sync failed: %v", err)
				}
			}
			metrics.WriterFlushes.Inc()
			metrics.WriterFlushedBytes.Add(float64(size))
		}
	}
	s.state.Store(slotWritten)
}

// retire advances the durable cursor over contiguous written slots and frees
// them. Slots written out of log order stay parked until the gap before them
// closes. The writer is the single authoritative reader of slot faults; the
// first one observed is surfaced to Flush callers.
func (m *SlotManager) retire() {
	m.writeMu.Lock()
	prevFile := m.writeLSN.File
	for {
		progressed := false
		for i := range m.pool {
			s := &m.pool[i]
			if s.state.Load() != slotWritten || s.releaseLSN.Compare(m.writeLSN) != 0 {
				continue
			}
			if err := s.Err(); err != nil && m.fault == nil {
				m.fault = err
			}
			m.writeLSN = s.endLSN
			m.FreeSlot(s)
			progressed = true
		}
		if !progressed {
			break
		}
	}
	m.flushCond.Broadcast()
	curFile := m.writeLSN.File
	m.writeMu.Unlock()

	// Every slot behind the durable cursor is retired, so files before its
	// file index have no remaining writers.
	if curFile > prevFile {
		m.fs.ReleaseBefore(curFile)
	}
}
