// Package filesystem is a refs.Store and refs.ReflogStore backed by a
// go-billy filesystem laid out the way Git lays out loose refs, HEAD,
// packed-refs and reflogs under a .git directory.
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/go-git/go-billy/v6"

	"github.com/statewalker/vcs-sub011/plumbing"
	"github.com/statewalker/vcs-sub011/refs"
)

const packedRefsPath = "packed-refs"

// Store is a refs.Store over a go-billy filesystem rooted at a Git
// directory (the directory containing HEAD, refs/, packed-refs).
type Store struct {
	fs billy.Filesystem
}

// NewStore returns a Store rooted at root.
func NewStore(root billy.Filesystem) *Store {
	return &Store{fs: root}
}

func isNotExist(err error) bool {
	return err != nil && os.IsNotExist(err)
}

// readLoose reads and parses the loose reference file at name, if any.
func (s *Store) readLoose(name refs.Name) (*refs.Reference, error) {
	f, err := s.fs.Open(string(name))
	if err != nil {
		if isNotExist(err) {
			return nil, fmt.Errorf("%w: reference %s", plumbing.ErrNotFound, name)
		}
		return nil, err
	}
	defer f.Close()

	b, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}

	return parseLooseContent(name, b)
}

func parseLooseContent(name refs.Name, b []byte) (*refs.Reference, error) {
	content := strings.TrimSpace(string(b))
	if content == "" {
		return nil, fmt.Errorf("%w: empty reference file %s", plumbing.ErrCorruptObject, name)
	}

	if target, ok := strings.CutPrefix(content, "ref: "); ok {
		return refs.NewSymbolicReference(name, refs.Name(strings.TrimSpace(target))), nil
	}

	hash, ok := plumbing.FromHex(content)
	if !ok {
		return nil, fmt.Errorf("%w: malformed reference content in %s", plumbing.ErrCorruptObject, name)
	}
	return refs.NewHashReference(name, hash), nil
}

func (s *Store) readPackedRefs() ([]*refs.Reference, error) {
	f, err := s.fs.Open(packedRefsPath)
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
	return decodePackedRefs(b)
}

func (s *Store) findPacked(name refs.Name) (*refs.Reference, error) {
	list, err := s.readPackedRefs()
	if err != nil {
		return nil, err
	}
	for _, ref := range list {
		if ref.Name() == name {
			return ref, nil
		}
	}
	return nil, fmt.Errorf("%w: reference %s", plumbing.ErrNotFound, name)
}

// Reference returns the reference named name, checking the loose file
// first and falling back to packed-refs, the precedence Git itself
// uses.
func (s *Store) Reference(_ context.Context, name refs.Name) (*refs.Reference, error) {
	ref, err := s.readLoose(name)
	if err == nil {
		return ref, nil
	}
	if !errors.Is(err, plumbing.ErrNotFound) {
		return nil, err
	}
	return s.findPacked(name)
}

func refContent(ref *refs.Reference) string {
	switch ref.Type() {
	case refs.SymbolicReference:
		return "ref: " + string(ref.Target()) + "\n"
	default:
		return ref.Hash().String() + "\n"
	}
}

func (s *Store) writeLoose(ref *refs.Reference) error {
	name := string(ref.Name())
	if dir := path.Dir(name); dir != "." {
		if err := s.fs.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	tmp, err := s.fs.TempFile(path.Dir(name), "tmp-ref-")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write([]byte(refContent(ref))); err != nil {
		tmp.Close()
		s.fs.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		s.fs.Remove(tmpName)
		return err
	}

	if err := s.fs.Rename(tmpName, name); err != nil {
		s.fs.Remove(tmpName)
		return err
	}
	return nil
}

// SetReference writes ref unconditionally as a loose reference.
func (s *Store) SetReference(_ context.Context, ref *refs.Reference) error {
	return s.writeLoose(ref)
}

// CompareAndSwapReference writes ref only if the reference currently
// named ref.Name() (loose or packed, one hop) resolves to old. This
// implementation is optimistic: it does not hold a filesystem lock
// across the check-then-write, so concurrent writers from other
// processes can race it.
func (s *Store) CompareAndSwapReference(ctx context.Context, ref *refs.Reference, old plumbing.Hash) error {
	cur, err := s.Reference(ctx, ref.Name())
	switch {
	case err != nil && !errors.Is(err, plumbing.ErrNotFound):
		return err
	case old.IsZero() && err == nil:
		return fmt.Errorf("%w: reference %s already exists", plumbing.ErrConflict, ref.Name())
	case !old.IsZero() && (err != nil || cur.Hash() != old):
		return fmt.Errorf("%w: reference %s changed", plumbing.ErrConflict, ref.Name())
	}

	return s.writeLoose(ref)
}

// RemoveReference deletes name, loose and/or packed. Removing an absent
// reference is not an error.
func (s *Store) RemoveReference(_ context.Context, name refs.Name) error {
	err := s.fs.Remove(string(name))
	if err != nil && !isNotExist(err) {
		return err
	}

	packed, err := s.readPackedRefs()
	if err != nil {
		return err
	}
	filtered := packed[:0]
	found := false
	for _, ref := range packed {
		if ref.Name() == name {
			found = true
			continue
		}
		filtered = append(filtered, ref)
	}
	if !found {
		return nil
	}
	return s.writePackedRefs(filtered)
}

func (s *Store) writePackedRefs(list []*refs.Reference) error {
	sort.Slice(list, func(i, j int) bool { return list[i].Name() < list[j].Name() })

	tmp, err := s.fs.TempFile("", "tmp-packed-refs-")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(encodePackedRefs(list)); err != nil {
		tmp.Close()
		s.fs.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		s.fs.Remove(tmpName)
		return err
	}

	if err := s.fs.Rename(tmpName, packedRefsPath); err != nil {
		s.fs.Remove(tmpName)
		return err
	}
	return nil
}

func (s *Store) walkLoose(dir string, out *[]refs.Name) error {
	entries, err := s.fs.ReadDir(dir)
	if err != nil {
		if isNotExist(err) {
			return nil
		}
		return err
	}

	for _, e := range entries {
		p := path.Join(dir, e.Name())
		if e.IsDir() {
			if err := s.walkLoose(p, out); err != nil {
				return err
			}
			continue
		}
		if strings.HasPrefix(e.Name(), "tmp-ref-") {
			continue
		}
		*out = append(*out, refs.Name(p))
	}
	return nil
}

// IterReferences enumerates every reference, loose and packed, each
// name appearing once (loose takes precedence).
func (s *Store) IterReferences(ctx context.Context) (refs.Iter, error) {
	var names []refs.Name
	if err := s.walkLoose("refs", &names); err != nil {
		return nil, err
	}
	if _, err := s.fs.Stat("HEAD"); err == nil {
		names = append(names, refs.HEAD)
	}

	seen := make(map[refs.Name]bool, len(names))
	out := make([]*refs.Reference, 0, len(names))
	for _, name := range names {
		ref, err := s.readLoose(name)
		if err != nil {
			return nil, err
		}
		seen[name] = true
		out = append(out, ref)
	}

	packed, err := s.readPackedRefs()
	if err != nil {
		return nil, err
	}
	for _, ref := range packed {
		if !seen[ref.Name()] {
			out = append(out, ref)
		}
	}

	return refs.NewSliceIter(out), nil
}

// PackRefs compacts every loose direct reference (except HEAD) into
// packed-refs, atomically, then removes the now-redundant loose files.
func (s *Store) PackRefs(ctx context.Context) error {
	var names []refs.Name
	if err := s.walkLoose("refs", &names); err != nil {
		return err
	}

	byName := make(map[refs.Name]*refs.Reference)
	packed, err := s.readPackedRefs()
	if err != nil {
		return err
	}
	for _, ref := range packed {
		byName[ref.Name()] = ref
	}

	var toRemove []refs.Name
	for _, name := range names {
		ref, err := s.readLoose(name)
		if err != nil {
			return err
		}
		if ref.Type() != refs.HashReference {
			continue
		}
		byName[name] = ref
		toRemove = append(toRemove, name)
	}

	list := make([]*refs.Reference, 0, len(byName))
	for _, ref := range byName {
		list = append(list, ref)
	}
	if err := s.writePackedRefs(list); err != nil {
		return err
	}

	for _, name := range toRemove {
		if err := s.fs.Remove(string(name)); err != nil && !isNotExist(err) {
			return err
		}
	}
	return nil
}

var _ refs.Store = (*Store)(nil)
