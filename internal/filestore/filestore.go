// Package filestore persists uploaded documents under generated names.
//
// A store hands back a locator for every object it writes. Locators are
// opaque to callers: they are saved in the database as file_url and handed
// back to the same store for deletion.
package filestore

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"unicode/utf8"

	"github.com/JonMunkholm/registrar/internal/config"
	"github.com/google/uuid"
)

// maxExtLen is the longest extension kept on a storage name.
const maxExtLen = 16

// maxDisplayName matches the file_name column width.
const maxDisplayName = 255

// Object describes a stored upload.
type Object struct {
	FileName string // client-supplied base name, for display
	Key      string // generated storage name
	Locator  string // absolute path or s3:// URL
	Size     int64
}

// Backend is implemented by every store.
type Backend interface {
	Store(ctx context.Context, originalName string, r io.Reader) (Object, error)
	Delete(ctx context.Context, locator string) (bool, error)
}

// Open builds the backend selected by cfg.
func Open(cfg config.StorageConfig) (Backend, error) {
	switch strings.ToLower(cfg.Backend) {
	case "", "local":
		return NewLocal(cfg.UploadDir)
	case "s3":
		return NewS3(S3Options{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Prefix:    cfg.S3Prefix,
			UseSSL:    cfg.S3UseSSL,
		})
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

// StorageName returns a fresh name for an upload: a random UUID followed by
// the lowercased extension of originalName. Extensions that are long or
// contain anything but ASCII letters and digits are dropped.
func StorageName(originalName string) string {
	return uuid.NewString() + extension(originalName)
}

func extension(name string) string {
	base := baseName(name)
	ext := strings.ToLower(path.Ext(base))
	if len(ext) == len(base) || len(ext) < 2 || len(ext)-1 > maxExtLen {
		return ""
	}
	for _, c := range ext[1:] {
		if (c < 'a' || c > 'z') && (c < '0' || c > '9') {
			return ""
		}
	}
	return ext
}

// DisplayName reduces a client-supplied file name to its base name, cut to
// fit the file_name column. Invalid UTF-8 and NUL bytes are dropped.
func DisplayName(originalName string) string {
	name := strings.ToValidUTF8(originalName, "")
	name = strings.ReplaceAll(name, "\x00", "")
	name = strings.TrimSpace(baseName(name))
	if name == "" || name == "." || name == ".." {
		return "upload"
	}
	if len(name) <= maxDisplayName {
		return name
	}

	cut := maxDisplayName
	for cut > 0 && !utf8.RuneStart(name[cut]) {
		cut--
	}
	return name[:cut]
}

// baseName strips directories using either separator, since browsers on
// Windows may send full paths.
func baseName(name string) string {
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	return name
}

// ctxReader stops a copy once ctx is done.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
