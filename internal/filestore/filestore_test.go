package filestore

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestStorageName(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		wantExt string
	}{
		{"keeps lowercased extension", "Report.PDF", ".pdf"},
		{"no extension", "README", ""},
		{"strips windows path", `C:\Users\me\scan.JPG`, ".jpg"},
		{"only last extension", "archive.tar.gz", ".gz"},
		{"drops odd characters", "notes.t$t", ""},
		{"drops long extension", "data." + strings.Repeat("x", 17), ""},
		{"keeps 16 char extension", "data." + strings.Repeat("x", 16), "." + strings.Repeat("x", 16)},
		{"dot file has no extension", ".env", ""},
		{"trailing dot", "file.", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := StorageName(tt.in)
			assert.Len(t, got, 36+len(tt.wantExt))
			assert.True(t, strings.HasSuffix(got, tt.wantExt), "got %q", got)
		})
	}
}

func TestStorageName_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for range 100 {
		name := StorageName("a.txt")
		assert.False(t, seen[name], "duplicate name %q", name)
		seen[name] = true
	}
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "scan.jpg", DisplayName(`C:\Users\me\scan.jpg`))
	assert.Equal(t, "a.pdf", DisplayName("../../etc/a.pdf"))
	assert.Equal(t, "upload", DisplayName(""))
	assert.Equal(t, "upload", DisplayName("dir/"))
	assert.Len(t, DisplayName(strings.Repeat("n", 300)), 255)

	// Multi-byte runes are not split.
	long := strings.Repeat("é", 200)
	got := DisplayName(long)
	assert.LessOrEqual(t, len(got), 255)
	assert.Equal(t, 0, len(got)%2)

	// Bytes a text column cannot hold are dropped.
	assert.Equal(t, "plan.pdf", DisplayName("plan\xff\xfe.pdf"))
	assert.Equal(t, "plan.pdf", DisplayName("pl\x00an.pdf"))
	assert.Equal(t, "upload", DisplayName("\xc3\x00"))
	assert.True(t, utf8.ValidString(DisplayName("dir/\xe2\x82name.txt")))
}
