package filesystem

import (
	"context"
	"io"
	"os"
	"path"

	"github.com/statewalker/vcs-sub011/refs"
)

func reflogPath(name refs.Name) string {
	return path.Join("logs", string(name))
}

// AppendReflog appends entry to name's on-disk log at logs/<name>,
// creating the file and its parent directories if absent.
func (s *Store) AppendReflog(_ context.Context, name refs.Name, entry *refs.ReflogEntry) error {
	p := reflogPath(name)
	if dir := path.Dir(p); dir != "." {
		if err := s.fs.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	f, err := s.fs.OpenFile(p, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = f.Write([]byte(entry.Encode()))
	return err
}

// ReadReflog returns name's entries, newest first. A reference with no
// log returns an empty slice, not an error.
func (s *Store) ReadReflog(_ context.Context, name refs.Name) ([]*refs.ReflogEntry, error) {
	f, err := s.fs.Open(reflogPath(name))
	if err != nil {
		if isNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	b, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	return refs.DecodeReflog(b)
}

var _ refs.ReflogStore = (*Store)(nil)
