package disk

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/slotlog-org/go-slotlog/pkg/config"
	"github.com/slotlog-org/go-slotlog/pkg/types"
	"github.com/slotlog-org/go-slotlog/util"
)

// Handler manages the physical log files backing the slot pool: it hands out
// contiguous file regions for slot buffers and rotates to a fresh file when
// the current one cannot fit the next region.
type Handler struct {
	dir      string
	fileMax  int64
	prealloc bool

	mu   sync.Mutex
	file *LogFile
	open []*LogFile
}

// File is the write surface the log engine needs from a physical log file.
// Implemented by *LogFile.
type File interface {
	WriteAt(p []byte, off int64) (int, error)
	Sync() error
	SyncDir() error
	Name() string
}

// LogFile is one physical log file. Writes are positional so concurrent slot
// drains never interleave.
type LogFile struct {
	f    *os.File
	path string
	idx  uint32
}

func NewHandler(cfg *config.Config) (*Handler, error) {
	if err := os.MkdirAll(cfg.LogDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory %s: %w", cfg.LogDir, err)
	}
	return &Handler{
		dir:      cfg.LogDir,
		fileMax:  cfg.LogFileMaxBytes,
		prealloc: cfg.Prealloc,
	}, nil
}

// Acquire reserves size bytes of log file space beginning at pos, rotating to
// a new file when the current one cannot fit them. It returns the backing
// file and the position the reserved region begins at.
func (h *Handler) Acquire(pos types.Lsn, size int64) (File, types.Lsn, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.file != nil && pos.Offset+size <= h.fileMax {
		return h.file, pos, nil
	}

	idx := pos.File + 1
	lf, err := h.openLogFile(idx)
	if err != nil {
		return nil, types.Lsn{}, err
	}
	// Rotated-out files must stay open while un-drained slots still hold
	// write positions into them; ReleaseBefore closes them once the durable
	// cursor has moved past.
	h.file = lf
	h.open = append(h.open, lf)
	util.Debug("rotated to log file %s", lf.path)
	return lf, types.Lsn{File: idx}, nil
}

func (h *Handler) openLogFile(idx uint32) (*LogFile, error) {
	path := h.Path(idx)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", path, err)
	}
	if h.prealloc {
		if err := preallocate(f, h.fileMax); err != nil {
			if cerr := f.Close(); cerr != nil {
				util.Error("failed to close log file: %v", cerr)
			}
			return nil, fmt.Errorf("failed to preallocate %s: %w", path, err)
		}
	}
	adviseSequential(f)
	return &LogFile{f: f, path: path, idx: idx}, nil
}

// ReleaseBefore closes every log file whose index is below idx. Callers may
// only pass a cursor no live slot still writes behind; the durable cursor's
// file index satisfies this.
func (h *Handler) ReleaseBefore(idx uint32) {
	h.mu.Lock()
	defer h.mu.Unlock()

	kept := h.open[:0]
	for _, lf := range h.open {
		if lf.idx < idx && lf != h.file {
			if err := lf.Close(); err != nil {
				util.Error("failed to close log file %s: %v", lf.path, err)
			}
			continue
		}
		kept = append(kept, lf)
	}
	h.open = kept
}

// Path returns the on-disk path of the log file with the given index.
func (h *Handler) Path(idx uint32) string {
	return filepath.Join(h.dir, fmt.Sprintf("log-%010d.wal", idx))
}

// Close closes every log file opened by this handler.
func (h *Handler) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	var firstErr error
	for _, lf := range h.open {
		if err := lf.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	h.open = nil
	h.file = nil
	return firstErr
}

// WriteAt writes p at the given file offset.
func (lf *LogFile) WriteAt(p []byte, off int64) (int, error) {
	return lf.f.WriteAt(p, off)
}

// SyncDir syncs the directory containing the log file so a freshly created
// file's name is durable.
func (lf *LogFile) SyncDir() error {
	d, err := os.Open(filepath.Dir(lf.path))
	if err != nil {
		return err
	}
	if err := d.Sync(); err != nil {
		if cerr := d.Close(); cerr != nil {
			util.Error("failed to close log directory: %v", cerr)
		}
		return err
	}
	return d.Close()
}

func (lf *LogFile) Name() string {
	return lf.path
}

func (lf *LogFile) Close() error {
	return lf.f.Close()
}
