// Package git is the root facade: it composes the object store, ref
// backend, staging index, worktree, merge cache and configuration into
// a single Repository, the entry point Init/Open/InitMemory hand back to
// every other caller in this module.
package git

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-git/go-billy/v6"
	"github.com/go-git/go-billy/v6/osfs"

	"github.com/statewalker/vcs-sub011/config"
	"github.com/statewalker/vcs-sub011/index"
	"github.com/statewalker/vcs-sub011/merge"
	"github.com/statewalker/vcs-sub011/plumbing"
	"github.com/statewalker/vcs-sub011/plumbing/object"
	"github.com/statewalker/vcs-sub011/porcelain"
	"github.com/statewalker/vcs-sub011/refs"
	reffs "github.com/statewalker/vcs-sub011/refs/filesystem"
	refmem "github.com/statewalker/vcs-sub011/refs/memory"
	"github.com/statewalker/vcs-sub011/storage"
	storefs "github.com/statewalker/vcs-sub011/storage/filesystem"
	storemem "github.com/statewalker/vcs-sub011/storage/memory"
	"github.com/statewalker/vcs-sub011/worktree"
)

// ErrRepositoryAlreadyExists is returned by Init when path already
// holds a Git directory.
var ErrRepositoryAlreadyExists = errors.New("repository already exists")

// DefaultInitBranch is the branch HEAD points to in a freshly
// initialized repository.
const DefaultInitBranch = "master"

// Repository is a fully wired repository: every porcelain command
// (Commit, Branch, Checkout, Merge, ...) is available directly on the
// embedded *porcelain.Repo.
type Repository struct {
	*porcelain.Repo

	// Config is the repository's local configuration, read from and
	// written back to gitDir/config.
	Config *config.Config

	gitDir  billy.Filesystem
	workDir billy.Filesystem // nil for a bare repository
}

// IsBare reports whether the repository has no associated worktree.
func (r *Repository) IsBare() bool {
	return r.Worktree == nil
}

// GitDir returns the filesystem rooted at the repository's metadata
// directory (a real .git directory, or the repository root itself when
// bare). It is nil for an in-memory repository.
func (r *Repository) GitDir() billy.Filesystem {
	return r.gitDir
}

// Init creates a new repository at path: objects, refs and config go
// in a ".git" directory (directly in path when bare), and a non-bare
// repository gets a worktree at path itself. HEAD is left as a symbolic reference to the default branch,
// unborn until the first commit.
func Init(path string, bare bool) (*Repository, error) {
	root := osfs.New(path)

	gitDir := root
	if !bare {
		var err error
		gitDir, err = root.Chroot(".git")
		if err != nil {
			return nil, err
		}
	}

	if _, err := gitDir.Stat("HEAD"); err == nil {
		return nil, fmt.Errorf("%w: at %s", ErrRepositoryAlreadyExists, path)
	}

	for _, dir := range []string{"objects", "refs", "refs/heads", "refs/tags"} {
		if err := gitDir.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}

	refStore := reffs.NewStore(gitDir)
	head := refs.NewSymbolicReference(refs.HEAD, refs.NewBranchName(DefaultInitBranch))
	if err := refStore.SetReference(context.Background(), head); err != nil {
		return nil, err
	}

	cfg := config.NewConfig()
	cfg.Core.IsBare = bare
	if err := writeConfig(gitDir, cfg); err != nil {
		return nil, err
	}

	objectsDir, err := gitDir.Chroot("objects")
	if err != nil {
		return nil, err
	}

	var wt worktree.Worktree
	if !bare {
		wt = worktree.NewFile(root)
	}

	return newRepository(gitDir, root, objectsDir, refStore, cfg, wt), nil
}

// Open opens an existing repository rooted at path (the directory
// containing a worktree's ".git", or a bare repository's own
// directory).
func Open(path string) (*Repository, error) {
	root := osfs.New(path)

	gitDir := root
	bare := true
	if _, err := root.Stat(".git"); err == nil {
		gitDir, err = root.Chroot(".git")
		if err != nil {
			return nil, err
		}
		bare = false
	}

	if _, err := gitDir.Stat("HEAD"); err != nil {
		return nil, fmt.Errorf("%w: no HEAD at %s", plumbing.ErrNotFound, path)
	}

	objectsDir, err := gitDir.Chroot("objects")
	if err != nil {
		return nil, err
	}

	refStore := reffs.NewStore(gitDir)

	cfg, err := readConfig(gitDir)
	if err != nil {
		return nil, err
	}

	var wt worktree.Worktree
	if !bare {
		wt = worktree.NewFile(root)
	}

	return newRepository(gitDir, root, objectsDir, refStore, cfg, wt), nil
}

// InitMemory returns a repository with no backing filesystem: objects,
// refs and the worktree all live in memory. Useful for tests and for
// building a commit graph that is never meant to touch disk.
func InitMemory() *Repository {
	refStore := refmem.NewStore()
	head := refs.NewSymbolicReference(refs.HEAD, refs.NewBranchName(DefaultInitBranch))
	_ = refStore.SetReference(context.Background(), head)

	cfg := config.NewConfig()

	store := object.NewStore(storage.NewObjectStore(storemem.NewStore(), 0, 0))
	return &Repository{
		Repo: &porcelain.Repo{
			Store:    store,
			Refs:     refStore,
			Index:    &index.Index{},
			Worktree: worktree.NewMemory(),
		},
		Config: cfg,
	}
}

func newRepository(gitDir, workDir, objectsDir billy.Filesystem, refStore refs.Store, cfg *config.Config, wt worktree.Worktree) *Repository {
	if wt == nil {
		workDir = nil
	}
	var fallbacks []storage.RawStore
	if packDir, err := objectsDir.Chroot("pack"); err == nil {
		if packs, err := storefs.NewPackStore(packDir); err == nil {
			fallbacks = append(fallbacks, packs)
		}
	}

	raw := storage.NewCompositeStore(storefs.NewLooseStore(objectsDir), fallbacks...)
	store := object.NewStore(storage.NewObjectStore(raw, 0, 0))

	return &Repository{
		Repo: &porcelain.Repo{
			Store:    store,
			Refs:     refStore,
			Index:    &index.Index{},
			Worktree: wt,
			Cache:    merge.NewResolutionCache(gitDir),
		},
		Config:  cfg,
		gitDir:  gitDir,
		workDir: workDir,
	}
}

func writeConfig(gitDir billy.Filesystem, cfg *config.Config) error {
	b, err := cfg.Marshal()
	if err != nil {
		return err
	}

	f, err := gitDir.Create("config")
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = f.Write(b)
	return err
}

func readConfig(gitDir billy.Filesystem) (*config.Config, error) {
	f, err := gitDir.Open("config")
	if err != nil {
		if os.IsNotExist(err) {
			return config.NewConfig(), nil
		}
		return nil, err
	}
	defer f.Close()

	b, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}

	return config.ReadConfig(b)
}
