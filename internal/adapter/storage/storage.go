// Package storage contains the default [domain.Storage] implementation for
// low-level datafile operations.
package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/dolmen-go/contextio"

	"github.com/flatdb/flatdb/domain"
)

// Default permissions for datafiles and their parent directories.
const (
	DefaultFileMode os.FileMode = 0o644
	DefaultDirMode  os.FileMode = 0o755
)

// tmpSuffix marks the sibling file used for atomic replacement. The ~ suffix
// is reserved for backup copies.
const tmpSuffix = ".tmp"

// Storage implements domain.Storage.
type Storage struct {
	fileMode os.FileMode
	dirMode  os.FileMode
}

// Options configures a new [Storage].
type Options struct {
	FileMode os.FileMode
	DirMode  os.FileMode
}

// Option configures storage behavior through the functional options pattern.
type Option func(*Options)

// WithFileMode sets the permissions used for created files.
func WithFileMode(m os.FileMode) Option {
	return func(o *Options) { o.FileMode = m }
}

// WithDirMode sets the permissions used for created directories.
func WithDirMode(m os.FileMode) Option {
	return func(o *Options) { o.DirMode = m }
}

// NewStorage returns a new implementation of domain.Storage.
func NewStorage(options ...Option) domain.Storage {
	opts := Options{FileMode: DefaultFileMode, DirMode: DefaultDirMode}
	for _, option := range options {
		option(&opts)
	}
	return &Storage{fileMode: opts.FileMode, dirMode: opts.DirMode}
}

// ReadFile implements domain.Storage.
func (s *Storage) ReadFile(filename string) ([]byte, error) {
	return os.ReadFile(filename)
}

// WriteFileAtomic implements domain.Storage. Data is written to a temporary
// sibling, synced and renamed over the target so a crash never leaves a
// half-written datafile behind.
func (s *Storage) WriteFileAtomic(ctx context.Context, filename string, data []byte) error {
	tmp := filename + tmpSuffix

	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, s.fileMode)
	if err != nil {
		return err
	}

	w := contextio.NewWriter(ctx, f)
	if _, err = w.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err = f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err = f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}

	return os.Rename(tmp, filename)
}

// CopyFile implements domain.Storage.
func (s *Storage) CopyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, s.fileMode)
	if err != nil {
		return err
	}
	if _, err = io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// Exists implements domain.Storage.
func (s *Storage) Exists(filename string) (bool, error) {
	_, err := os.Stat(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// EnsureParentDirectoryExists implements domain.Storage.
func (s *Storage) EnsureParentDirectoryExists(filename string) error {
	dir, err := filepath.Abs(filepath.Dir(filename))
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, s.dirMode)
}

// Remove implements domain.Storage.
func (s *Storage) Remove(filename string) error {
	return os.Remove(filename)
}
