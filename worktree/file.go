package worktree

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"sort"

	"github.com/go-git/go-billy/v6"

	"github.com/statewalker/vcs-sub011/plumbing"
	"github.com/statewalker/vcs-sub011/plumbing/filemode"
)

// File is a Worktree backed by a go-billy filesystem, the "Files
// capability" a real checkout dispatches to.
type File struct {
	fs billy.Filesystem
}

// NewFile returns a Worktree rooted at fs.
func NewFile(fs billy.Filesystem) *File {
	return &File{fs: fs}
}

func (f *File) List(_ context.Context) ([]string, error) {
	var paths []string
	var walk func(dir string) error
	walk = func(dir string) error {
		entries, err := f.fs.ReadDir(dir)
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		for _, e := range entries {
			p := path.Join(dir, e.Name())
			if e.IsDir() {
				if err := walk(p); err != nil {
					return err
				}
				continue
			}
			paths = append(paths, p)
		}
		return nil
	}

	if err := walk(""); err != nil {
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}

func (f *File) ReadBlob(_ context.Context, path string) (io.ReadCloser, error) {
	file, err := f.fs.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", plumbing.ErrNotFound, path)
		}
		return nil, err
	}
	return file, nil
}

func (f *File) WriteBlob(_ context.Context, p string, mode filemode.FileMode, content io.Reader) error {
	if dir := path.Dir(p); dir != "." {
		if err := f.fs.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	perm := os.FileMode(0o644)
	if mode == filemode.Executable {
		perm = 0o755
	}

	tmpName := path.Join(path.Dir(p), fmt.Sprintf(".tmp-wt-%s", path.Base(p)))
	tmp, err := f.fs.OpenFile(tmpName, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return err
	}

	if _, err := io.Copy(tmp, content); err != nil {
		tmp.Close()
		f.fs.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		f.fs.Remove(tmpName)
		return err
	}

	if err := f.fs.Rename(tmpName, p); err != nil {
		f.fs.Remove(tmpName)
		return err
	}
	return nil
}

func (f *File) Remove(_ context.Context, path string) error {
	err := f.fs.Remove(path)
	if err != nil && os.IsNotExist(err) {
		return nil
	}
	return err
}

func (f *File) Stat(_ context.Context, path string) (Info, error) {
	fi, err := f.fs.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Info{}, fmt.Errorf("%w: %s", plumbing.ErrNotFound, path)
		}
		return Info{}, err
	}

	mode := filemode.Regular
	if fi.Mode()&0o111 != 0 {
		mode = filemode.Executable
	}
	return Info{Path: path, Mode: mode, Size: fi.Size()}, nil
}

var _ Worktree = (*File)(nil)
