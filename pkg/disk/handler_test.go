package disk_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slotlog-org/go-slotlog/pkg/config"
	"github.com/slotlog-org/go-slotlog/pkg/disk"
	"github.com/slotlog-org/go-slotlog/pkg/types"
)

func testHandler(t *testing.T, fileMax int64, prealloc bool) *disk.Handler {
	t.Helper()
	cfg := config.Default()
	cfg.LogDir = t.TempDir()
	cfg.LogFileMaxBytes = fileMax
	cfg.Prealloc = prealloc

	h, err := disk.NewHandler(cfg)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := h.Close(); err != nil {
			t.Errorf("close handler: %v", err)
		}
	})
	return h
}

func TestAcquireOpensFirstFile(t *testing.T) {
	h := testHandler(t, 4096, false)

	f, pos, err := h.Acquire(types.Lsn{}, 512)
	require.NoError(t, err)
	assert.Equal(t, types.Lsn{File: 1, Offset: 0}, pos)
	assert.Equal(t, h.Path(1), f.Name())

	if _, err := os.Stat(h.Path(1)); err != nil {
		t.Fatalf("log file not created: %v", err)
	}
}

func TestAcquireReusesFileWithRoom(t *testing.T) {
	h := testHandler(t, 4096, false)

	f1, pos, err := h.Acquire(types.Lsn{}, 512)
	require.NoError(t, err)

	pos.Offset += 512
	f2, pos2, err := h.Acquire(pos, 512)
	require.NoError(t, err)
	assert.Equal(t, pos, pos2)
	assert.Same(t, f1, f2)
}

func TestAcquireRotatesWhenFull(t *testing.T) {
	h := testHandler(t, 4096, false)

	_, pos, err := h.Acquire(types.Lsn{}, 4096)
	require.NoError(t, err)
	require.Equal(t, uint32(1), pos.File)

	pos.Offset = 4000
	f, pos, err := h.Acquire(pos, 512)
	require.NoError(t, err)
	assert.Equal(t, types.Lsn{File: 2, Offset: 0}, pos)
	assert.Equal(t, h.Path(2), f.Name())
}

func TestAcquirePreallocates(t *testing.T) {
	h := testHandler(t, 4096, true)

	_, _, err := h.Acquire(types.Lsn{}, 512)
	require.NoError(t, err)

	info, err := os.Stat(h.Path(1))
	require.NoError(t, err)
	assert.Equal(t, int64(4096), info.Size())
}

func TestReleaseBeforeClosesRotatedFiles(t *testing.T) {
	h := testHandler(t, 4096, false)

	f1, pos, err := h.Acquire(types.Lsn{}, 512)
	require.NoError(t, err)
	pos.Offset = 4000
	f2, pos2, err := h.Acquire(pos, 512)
	require.NoError(t, err)
	require.Equal(t, uint32(2), pos2.File)

	h.ReleaseBefore(pos2.File)

	_, err = f1.WriteAt([]byte("x"), 0)
	assert.Error(t, err, "rotated-out file should be closed")
	_, err = f2.WriteAt([]byte("x"), 0)
	assert.NoError(t, err)

	// Idempotent, and never touches the current file.
	h.ReleaseBefore(pos2.File + 1)
	_, err = f2.WriteAt([]byte("y"), 1)
	assert.NoError(t, err)
}

func TestLogFileWriteSync(t *testing.T) {
	h := testHandler(t, 4096, false)

	f, _, err := h.Acquire(types.Lsn{}, 512)
	require.NoError(t, err)

	n, err := f.WriteAt([]byte("positioned"), 100)
	require.NoError(t, err)
	assert.Equal(t, 10, n)
	require.NoError(t, f.Sync())
	require.NoError(t, f.SyncDir())

	data, err := os.ReadFile(h.Path(1))
	require.NoError(t, err)
	assert.Equal(t, []byte("positioned"), data[100:110])
}
