package blobstore

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math/rand/v2"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	vfs "github.com/hupe1980/holomem/internal/fs"
)

const tmpMarker = ".tmp-"

// LocalStore implements Store using the local file system.
// Blob names may contain '/' to form subdirectories below the root.
type LocalStore struct {
	root string
	fs   vfs.FileSystem
}

// NewLocalStore creates a new LocalStore rooted at the given directory.
func NewLocalStore(root string) *LocalStore {
	return &LocalStore{root: root, fs: vfs.Default}
}

// Root returns the store directory.
func (s *LocalStore) Root() string { return s.root }

func (s *LocalStore) path(name string) (string, error) {
	if name == "" || !filepath.IsLocal(filepath.FromSlash(name)) || strings.Contains(filepath.Base(name), tmpMarker) {
		return "", ErrInvalidName
	}
	return filepath.Join(s.root, filepath.FromSlash(name)), nil
}

// Open opens a blob for reading.
func (s *LocalStore) Open(_ context.Context, name string) (io.ReadCloser, error) {
	p, err := s.path(name)
	if err != nil {
		return nil, err
	}
	return s.fs.OpenFile(p, os.O_RDONLY, 0)
}

// Create writes to a temp file in the target directory and renames it into
// place on Close, so readers never observe a partial blob.
func (s *LocalStore) Create(_ context.Context, name string) (WritableBlob, error) {
	p, err := s.path(name)
	if err != nil {
		return nil, err
	}

	if err := s.fs.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return nil, err
	}

	tmp, err := s.createTemp(p)
	if err != nil {
		return nil, err
	}

	return &localWritableBlob{
		fs:   s.fs,
		tmp:  tmp,
		buf:  bufio.NewWriterSize(tmp, 256*1024),
		path: p,
	}, nil
}

func (s *LocalStore) createTemp(p string) (vfs.File, error) {
	for range 10 {
		name := p + tmpMarker + strconv.FormatUint(rand.Uint64(), 36)
		f, err := s.fs.OpenFile(name, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		return f, err
	}
	return nil, fmt.Errorf("create temp file for %s: too many collisions", p)
}

// Put writes a blob atomically.
func (s *LocalStore) Put(ctx context.Context, name string, data []byte) error {
	w, err := s.Create(ctx, name)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		_ = w.Abort()
		return err
	}
	return w.Close()
}

// Delete removes a blob.
func (s *LocalStore) Delete(_ context.Context, name string) error {
	p, err := s.path(name)
	if err != nil {
		return err
	}
	if err := s.fs.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// List returns all committed blobs whose name starts with prefix.
func (s *LocalStore) List(ctx context.Context, prefix string) ([]string, error) {
	var names []string
	err := s.fs.WalkDir(s.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) && p == s.root {
				return fs.SkipAll
			}
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || strings.Contains(d.Name(), tmpMarker) {
			return nil
		}
		rel, err := filepath.Rel(s.root, p)
		if err != nil {
			return err
		}
		name := filepath.ToSlash(rel)
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.Sort(names)
	return names, nil
}

type localWritableBlob struct {
	fs     vfs.FileSystem
	tmp    vfs.File
	buf    *bufio.Writer
	path   string
	closed bool
}

func (w *localWritableBlob) Write(p []byte) (int, error) {
	if w.closed {
		return 0, ErrClosed
	}
	return w.buf.Write(p)
}

func (w *localWritableBlob) Close() error {
	if w.closed {
		return ErrClosed
	}
	w.closed = true

	tmpName := w.tmp.Name()
	if err := w.commit(); err != nil {
		_ = w.tmp.Close()
		_ = w.fs.Remove(tmpName)
		return err
	}
	return nil
}

func (w *localWritableBlob) commit() error {
	if err := w.buf.Flush(); err != nil {
		return err
	}
	if err := w.tmp.Sync(); err != nil {
		return err
	}
	if err := w.tmp.Close(); err != nil {
		return err
	}
	return w.fs.Rename(w.tmp.Name(), w.path)
}

func (w *localWritableBlob) Abort() error {
	if w.closed {
		return nil
	}
	w.closed = true
	_ = w.tmp.Close()
	return w.fs.Remove(w.tmp.Name())
}
