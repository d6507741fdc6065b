// Package worktree abstracts the file namespace checkout writes to and
// status reads from, so porcelain code can run against either a real
// filesystem or an in-memory one without caring which.
package worktree

import (
	"context"
	"io"

	"github.com/statewalker/vcs-sub011/plumbing/filemode"
)

// Info is the subset of file metadata status/checkout need.
type Info struct {
	Path string
	Mode filemode.FileMode
	Size int64
}

// Worktree is a file namespace: list, read, write, remove, stat. It
// takes a blob's already-resolved content rather than an object id, so
// it never needs to know about the object store; the caller (checkout)
// is the one that resolves a blob id to content via plumbing/object.
type Worktree interface {
	// List returns every path currently present, sorted.
	List(ctx context.Context) ([]string, error)
	// ReadBlob opens path for reading.
	ReadBlob(ctx context.Context, path string) (io.ReadCloser, error)
	// WriteBlob writes content to path with mode, creating parent
	// directories as needed and replacing any existing file atomically.
	WriteBlob(ctx context.Context, path string, mode filemode.FileMode, content io.Reader) error
	// Remove deletes path. Removing an absent path is not an error.
	Remove(ctx context.Context, path string) error
	// Stat returns path's metadata.
	Stat(ctx context.Context, path string) (Info, error)
}
