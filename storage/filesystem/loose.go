// Package filesystem holds the on-disk storage.RawStore backends: loose
// objects sharded the way Git lays out objects/xx/yyyy..., and a
// read-only view over a directory of packs.
package filesystem

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/go-git/go-billy/v6"

	"github.com/statewalker/vcs-sub011/plumbing"
	"github.com/statewalker/vcs-sub011/storage"
)

// LooseStore is a storage.RawStore over a go-billy filesystem rooted at
// an objects/ directory, sharding each key by its first two characters
// the way Git shards loose objects (objects/xx/yyyy...).
type LooseStore struct {
	fs billy.Filesystem
}

// NewLooseStore returns a LooseStore rooted at root.
func NewLooseStore(root billy.Filesystem) *LooseStore {
	return &LooseStore{fs: root}
}

func (s *LooseStore) path(key string) (string, error) {
	if len(key) < 3 {
		return "", fmt.Errorf("%w: key %q too short to shard", plumbing.ErrInvalid, key)
	}
	return s.fs.Join(key[:2], key[2:]), nil
}

// Store writes r atomically: a temp file is written first, then renamed
// into place, so a reader never observes a partial object. The temp
// file is not fsynced before the rename.
func (s *LooseStore) Store(_ context.Context, key string, r io.Reader) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}

	dir := s.fs.Join(key[:2])
	if err := s.fs.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := s.fs.TempFile(dir, "tmp-obj-")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		s.fs.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		s.fs.Remove(tmpName)
		return err
	}

	if err := s.fs.Rename(tmpName, p); err != nil {
		s.fs.Remove(tmpName)
		return err
	}

	return nil
}

func (s *LooseStore) Load(_ context.Context, key string, start, end int64) (io.ReadCloser, error) {
	p, err := s.path(key)
	if err != nil {
		return nil, err
	}

	f, err := s.fs.Open(p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", plumbing.ErrNotFound, key)
		}
		return nil, err
	}

	if start > 0 {
		if _, err := f.Seek(start, io.SeekStart); err != nil {
			f.Close()
			return nil, err
		}
	}

	if end < 0 {
		return f, nil
	}

	return &limitedFile{File: f, remaining: end - start}, nil
}

type limitedFile struct {
	billy.File
	remaining int64
}

func (l *limitedFile) Read(p []byte) (int, error) {
	if l.remaining <= 0 {
		return 0, io.EOF
	}
	if int64(len(p)) > l.remaining {
		p = p[:l.remaining]
	}
	n, err := l.File.Read(p)
	l.remaining -= int64(n)
	return n, err
}

func (s *LooseStore) Has(_ context.Context, key string) (bool, error) {
	p, err := s.path(key)
	if err != nil {
		return false, err
	}
	_, err = s.fs.Stat(p)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

func (s *LooseStore) Remove(_ context.Context, key string) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	err = s.fs.Remove(p)
	if err != nil && os.IsNotExist(err) {
		return nil
	}
	return err
}

func (s *LooseStore) Size(_ context.Context, key string) (int64, error) {
	p, err := s.path(key)
	if err != nil {
		return 0, err
	}
	fi, err := s.fs.Stat(p)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, fmt.Errorf("%w: %s", plumbing.ErrNotFound, key)
		}
		return 0, err
	}
	return fi.Size(), nil
}

func (s *LooseStore) Keys(_ context.Context) (storage.KeyIter, error) {
	var keys []string

	shards, err := s.fs.ReadDir("")
	if err != nil {
		if os.IsNotExist(err) {
			return newKeyIter(keys), nil
		}
		return nil, err
	}

	for _, shard := range shards {
		if !shard.IsDir() || len(shard.Name()) != 2 {
			continue
		}

		entries, err := s.fs.ReadDir(shard.Name())
		if err != nil {
			return nil, err
		}

		for _, e := range entries {
			if e.IsDir() || isTempName(e.Name()) {
				continue
			}
			keys = append(keys, shard.Name()+e.Name())
		}
	}

	sort.Strings(keys)
	return newKeyIter(keys), nil
}

func isTempName(name string) bool {
	return len(name) >= 8 && name[:8] == "tmp-obj-"
}

type keyIter struct {
	keys []string
	pos  int
}

func newKeyIter(keys []string) *keyIter { return &keyIter{keys: keys} }

func (it *keyIter) Next() (string, error) {
	if it.pos >= len(it.keys) {
		return "", io.EOF
	}
	k := it.keys[it.pos]
	it.pos++
	return k, nil
}

func (it *keyIter) Close() error { return nil }

var _ storage.RawStore = (*LooseStore)(nil)
