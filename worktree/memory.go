package worktree

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/statewalker/vcs-sub011/plumbing"
	"github.com/statewalker/vcs-sub011/plumbing/filemode"
)

type memoryFile struct {
	mode filemode.FileMode
	data []byte
}

// Memory is an in-memory Worktree, backed by a plain map. Useful for
// bare/in-memory repositories and for tests.
type Memory struct {
	mu    sync.RWMutex
	files map[string]*memoryFile
}

// NewMemory returns an empty in-memory Worktree.
func NewMemory() *Memory {
	return &Memory{files: make(map[string]*memoryFile)}
}

func (m *Memory) List(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	paths := make([]string, 0, len(m.files))
	for p := range m.files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths, nil
}

func (m *Memory) ReadBlob(_ context.Context, path string) (io.ReadCloser, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	f, ok := m.files[path]
	if !ok {
		return nil, fmt.Errorf("%w: %s", plumbing.ErrNotFound, path)
	}
	return io.NopCloser(bytes.NewReader(f.data)), nil
}

func (m *Memory) WriteBlob(_ context.Context, path string, mode filemode.FileMode, content io.Reader) error {
	data, err := io.ReadAll(content)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[path] = &memoryFile{mode: mode, data: data}
	return nil
}

func (m *Memory) Remove(_ context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, path)
	return nil
}

func (m *Memory) Stat(_ context.Context, path string) (Info, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	f, ok := m.files[path]
	if !ok {
		return Info{}, fmt.Errorf("%w: %s", plumbing.ErrNotFound, path)
	}
	return Info{Path: path, Mode: f.mode, Size: int64(len(f.data))}, nil
}

var _ Worktree = (*Memory)(nil)
