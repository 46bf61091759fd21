package wal

import (
	"sync"

	"github.com/slotlog-org/go-slotlog/pkg/config"
	"github.com/slotlog-org/go-slotlog/pkg/disk"
	"github.com/slotlog-org/go-slotlog/pkg/types"
)

func testConfig(fileMax int64) *config.Config {
	cfg := config.Default()
	cfg.LogFileMaxBytes = fileMax
	cfg.WriterPollMS = 1
	return cfg
}

// memFile is an in-memory disk.File for exercising the engine without disk.
type memFile struct {
	mu       sync.Mutex
	data     []byte
	syncs    int
	dirSyncs int

	failWrite error
	failSync  error
}

func (f *memFile) WriteAt(p []byte, off int64) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWrite != nil {
		return 0, f.failWrite
	}
	end := off + int64(len(p))
	if int64(len(f.data)) < end {
		grown := make([]byte, end)
		copy(grown, f.data)
		f.data = grown
	}
	copy(f.data[off:end], p)
	return len(p), nil
}

func (f *memFile) Sync() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSync != nil {
		return f.failSync
	}
	f.syncs++
	return nil
}

func (f *memFile) SyncDir() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dirSyncs++
	return nil
}

func (f *memFile) Name() string { return "mem" }

func (f *memFile) bytes() []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]byte, len(f.data))
	copy(out, f.data)
	return out
}

// memFS hands out memFiles with the same rotation rule as disk.Handler.
type memFS struct {
	mu      sync.Mutex
	fileMax int64
	files   map[uint32]*memFile
	cur     *memFile

	// highest index passed to ReleaseBefore; contents stay readable so
	// tests can still inspect released files.
	releasedBelow uint32

	failAcquire error
}

func newMemFS(fileMax int64) *memFS {
	return &memFS{fileMax: fileMax, files: make(map[uint32]*memFile)}
}

func (fs *memFS) Acquire(pos types.Lsn, size int64) (disk.File, types.Lsn, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if fs.failAcquire != nil {
		return nil, types.Lsn{}, fs.failAcquire
	}
	if fs.cur != nil && pos.Offset+size <= fs.fileMax {
		return fs.cur, pos, nil
	}
	idx := pos.File + 1
	f := &memFile{}
	fs.files[idx] = f
	fs.cur = f
	return f, types.Lsn{File: idx}, nil
}

func (fs *memFS) ReleaseBefore(idx uint32) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if idx > fs.releasedBelow {
		fs.releasedBelow = idx
	}
}

func (fs *memFS) file(idx uint32) *memFile {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.files[idx]
}

func newTestManager(t interface{ Fatalf(string, ...interface{}) }, fileMax int64) (*SlotManager, *memFS) {
	cfg := testConfig(fileMax)
	fs := newMemFS(fileMax)
	m, err := NewSlotManager(cfg, fs)
	if err != nil {
		t.Fatalf("NewSlotManager failed: %v", err)
	}
	return m, fs
}
