package upload

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T, maxBytes int64) *Store {
	t.Helper()
	s := NewStore(filepath.Join(t.TempDir(), "uploads"), maxBytes)
	require.NoError(t, s.Init())
	return s
}

func TestInitCreatesDir(t *testing.T) {
	s := newStore(t, 10)

	info, err := os.Stat(s.Dir())
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	// second call is harmless
	assert.NoError(t, s.Init())
}

func TestSaveAndRemove(t *testing.T) {
	s := newStore(t, 1024)

	f, err := s.Save("Report.PDF", strings.NewReader("%PDF-1.4 body"))
	require.NoError(t, err)

	assert.Equal(t, s.Dir(), filepath.Dir(f.Path))
	assert.Equal(t, ".pdf", filepath.Ext(f.Path))
	assert.Equal(t, "Report.PDF", f.OriginalName)
	assert.Equal(t, int64(13), f.Size)

	data, err := os.ReadFile(f.Path)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4 body", string(data))

	require.NoError(t, s.Remove(f))
	_, err = os.Stat(f.Path)
	assert.True(t, os.IsNotExist(err))

	// removing twice is fine
	assert.NoError(t, s.Remove(f))
	assert.NoError(t, s.Remove(nil))
}

func TestSaveIgnoresClientPath(t *testing.T) {
	s := newStore(t, 1024)

	for _, name := range []string{"../../etc/passwd", "/abs/evil.txt", `..\..\win.txt`, "noext"} {
		f, err := s.Save(name, strings.NewReader("data"))
		require.NoError(t, err, name)
		assert.Equal(t, s.Dir(), filepath.Dir(f.Path), name)
		require.NoError(t, s.Remove(f))
	}
}

func TestSaveTooLarge(t *testing.T) {
	s := newStore(t, 4)

	_, err := s.Save("big.txt", strings.NewReader("12345"))
	assert.ErrorIs(t, err, ErrTooLarge)

	entries, err := os.ReadDir(s.Dir())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSaveExactlyAtLimit(t *testing.T) {
	s := newStore(t, 4)

	f, err := s.Save("ok.txt", strings.NewReader("1234"))
	require.NoError(t, err)
	assert.Equal(t, int64(4), f.Size)
}

func TestSaveEmpty(t *testing.T) {
	s := newStore(t, 4)

	_, err := s.Save("empty.txt", strings.NewReader(""))
	assert.ErrorIs(t, err, ErrEmptyFile)
}

func TestSweep(t *testing.T) {
	s := newStore(t, 1024)

	old, err := s.Save("old.txt", strings.NewReader("old"))
	require.NoError(t, err)
	fresh, err := s.Save("fresh.txt", strings.NewReader("fresh"))
	require.NoError(t, err)

	past := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(old.Path, past, past))

	removed, err := s.Sweep(time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, err = os.Stat(old.Path)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(fresh.Path)
	assert.NoError(t, err)
}

func TestSanitizeExt(t *testing.T) {
	assert.Equal(t, ".pdf", sanitizeExt("a.PDF"))
	assert.Equal(t, ".md", sanitizeExt("dir/notes.md"))
	assert.Equal(t, "", sanitizeExt("noext"))
	assert.Equal(t, "", sanitizeExt("weird.p d f"))
	assert.Equal(t, "", sanitizeExt("x.toolongextension"))
}
