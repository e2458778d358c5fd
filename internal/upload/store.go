// Package upload manages the temporary files that hold documents while they are scanned.
package upload

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrTooLarge is returned when an upload exceeds the configured limit
	ErrTooLarge = errors.New("upload exceeds size limit")
	// ErrEmptyFile is returned for zero-byte uploads
	ErrEmptyFile = errors.New("upload is empty")
)

var extPattern = regexp.MustCompile(`^\.[a-z0-9]{1,8}$`)

// File is a document saved in the upload directory
type File struct {
	Path         string
	OriginalName string
	Size         int64
}

// Store saves uploads under a single directory with generated names
type Store struct {
	dir      string
	maxBytes int64
}

// NewStore creates a store rooted at dir. Call Init before use.
func NewStore(dir string, maxBytes int64) *Store {
	return &Store{dir: dir, maxBytes: maxBytes}
}

// Dir returns the upload directory
func (s *Store) Dir() string {
	return s.dir
}

// Init creates the upload directory
func (s *Store) Init() error {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("failed to create upload dir %s: %w", s.dir, err)
	}
	return nil
}

// Save copies r into a new file. The client name only contributes its extension.
func (s *Store) Save(originalName string, r io.Reader) (*File, error) {
	path := filepath.Join(s.dir, uuid.NewString()+sanitizeExt(originalName))

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("failed to create upload file: %w", err)
	}

	// Read one byte past the limit to detect oversized uploads
	n, copyErr := io.Copy(f, io.LimitReader(r, s.maxBytes+1))
	closeErr := f.Close()

	switch {
	case copyErr != nil:
		err = fmt.Errorf("failed to write upload: %w", copyErr)
	case closeErr != nil:
		err = fmt.Errorf("failed to close upload: %w", closeErr)
	case n > s.maxBytes:
		err = fmt.Errorf("%w: more than %d bytes", ErrTooLarge, s.maxBytes)
	case n == 0:
		err = ErrEmptyFile
	}
	if err != nil {
		_ = os.Remove(path)
		return nil, err
	}

	return &File{Path: path, OriginalName: filepath.Base(originalName), Size: n}, nil
}

// Remove deletes a saved upload. Already-deleted files are not an error.
func (s *Store) Remove(f *File) error {
	if f == nil {
		return nil
	}
	if err := os.Remove(f.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove upload: %w", err)
	}
	return nil
}

// Sweep removes uploads older than maxAge, returning how many were deleted
func (s *Store) Sweep(maxAge time.Duration) (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, fmt.Errorf("failed to list upload dir: %w", err)
	}

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(s.dir, entry.Name())); err == nil {
				removed++
			}
		}
	}

	return removed, nil
}

func sanitizeExt(name string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(name)))
	if !extPattern.MatchString(ext) {
		return ""
	}
	return ext
}
