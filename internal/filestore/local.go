package filestore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Local stores uploads as flat files in one directory.
type Local struct {
	root string
}

// NewLocal returns a store rooted at dir, creating it if needed.
func NewLocal(dir string) (*Local, error) {
	if dir == "" {
		return nil, errors.New("local store: directory is empty")
	}

	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("local store: resolve %q: %w", dir, err)
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("local store: create %q: %w", root, err)
	}

	return &Local{root: root}, nil
}

// Root returns the absolute directory files are written to.
func (l *Local) Root() string {
	return l.root
}

// Store copies r into a new file. The locator is the file's absolute path.
// A file left incomplete by a failed copy is removed.
func (l *Local) Store(ctx context.Context, originalName string, r io.Reader) (Object, error) {
	key := StorageName(originalName)
	dst := filepath.Join(l.root, key)

	f, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return Object{}, fmt.Errorf("create %s: %w", key, err)
	}

	n, err := io.Copy(f, ctxReader{ctx: ctx, r: r})
	if err != nil {
		f.Close()
		os.Remove(dst)
		return Object{}, fmt.Errorf("write %s: %w", key, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(dst)
		return Object{}, fmt.Errorf("close %s: %w", key, err)
	}

	return Object{
		FileName: DisplayName(originalName),
		Key:      key,
		Locator:  dst,
		Size:     n,
	}, nil
}

// Delete removes the file at locator. It reports false when the file does
// not exist or the locator points outside the store.
func (l *Local) Delete(_ context.Context, locator string) (bool, error) {
	p, ok := l.owned(locator)
	if !ok {
		return false, nil
	}

	if err := os.Remove(p); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("delete %s: %w", filepath.Base(p), err)
	}
	return true, nil
}

// owned resolves locator to a file directly inside the root.
func (l *Local) owned(locator string) (string, bool) {
	if locator == "" || !filepath.IsAbs(locator) {
		return "", false
	}

	p := filepath.Clean(locator)
	rel, err := filepath.Rel(l.root, p)
	if err != nil || rel == "." || strings.ContainsRune(rel, filepath.Separator) || rel == ".." {
		return "", false
	}
	return p, true
}
