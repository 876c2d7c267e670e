package filestore

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLocal(t *testing.T) *Local {
	t.Helper()
	l, err := NewLocal(filepath.Join(t.TempDir(), "uploads"))
	require.NoError(t, err)
	return l
}

func TestLocal_StoreAndDelete(t *testing.T) {
	l := newTestLocal(t)
	ctx := context.Background()

	obj, err := l.Store(ctx, "Business Plan.PDF", bytes.NewReader([]byte("%PDF-1.4 hello")))
	require.NoError(t, err)

	assert.Equal(t, "Business Plan.PDF", obj.FileName)
	assert.Equal(t, int64(14), obj.Size)
	assert.True(t, filepath.IsAbs(obj.Locator))
	assert.Equal(t, l.Root(), filepath.Dir(obj.Locator))
	assert.Equal(t, ".pdf", filepath.Ext(obj.Locator))

	data, err := os.ReadFile(obj.Locator)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4 hello", string(data))

	existed, err := l.Delete(ctx, obj.Locator)
	require.NoError(t, err)
	assert.True(t, existed)

	_, err = os.Stat(obj.Locator)
	assert.True(t, os.IsNotExist(err))
}

func TestLocal_DeleteMissing(t *testing.T) {
	l := newTestLocal(t)

	existed, err := l.Delete(context.Background(), filepath.Join(l.Root(), "does-not-exist.pdf"))
	require.NoError(t, err)
	assert.False(t, existed)
}

func TestLocal_DeleteOutsideRoot(t *testing.T) {
	l := newTestLocal(t)
	outside := filepath.Join(filepath.Dir(l.Root()), "victim.txt")
	require.NoError(t, os.WriteFile(outside, []byte("keep"), 0o644))

	for _, loc := range []string{
		outside,
		filepath.Join(l.Root(), "..", "victim.txt"),
		"victim.txt",
		l.Root(),
		"",
	} {
		existed, err := l.Delete(context.Background(), loc)
		assert.NoError(t, err, loc)
		assert.False(t, existed, loc)
	}

	_, err := os.Stat(outside)
	assert.NoError(t, err, "file outside the store must survive")
}

type failingReader struct {
	n int
}

func (r *failingReader) Read(p []byte) (int, error) {
	if r.n <= 0 {
		return 0, errors.New("connection reset")
	}
	n := min(len(p), r.n)
	r.n -= n
	return n, nil
}

func TestLocal_PartialWriteRemoved(t *testing.T) {
	l := newTestLocal(t)

	_, err := l.Store(context.Background(), "big.bin", &failingReader{n: 4096})
	require.Error(t, err)

	entries, err := os.ReadDir(l.Root())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestLocal_StoreCancelled(t *testing.T) {
	l := newTestLocal(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := l.Store(ctx, "a.txt", bytes.NewReader([]byte("data")))
	require.ErrorIs(t, err, context.Canceled)

	entries, err := os.ReadDir(l.Root())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestLocal_EmptyFile(t *testing.T) {
	l := newTestLocal(t)

	obj, err := l.Store(context.Background(), "empty.txt", bytes.NewReader(nil))
	require.NoError(t, err)
	assert.Equal(t, int64(0), obj.Size)
}

func TestNewLocal_EmptyDir(t *testing.T) {
	_, err := NewLocal("")
	assert.Error(t, err)
}
