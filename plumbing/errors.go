package plumbing

import "errors"

// Sentinel errors forming the taxonomy of spec.md §7. Every operation in
// this module fails with exactly one of these, wrapped with context via
// fmt.Errorf("...: %w", ...) the way go-git wraps plumbing.ErrObjectNotFound
// and friends.
var (
	// ErrNotFound is returned when an object, ref, or path is not present.
	ErrNotFound = errors.New("not found")
	// ErrCorruptObject is returned when an object's header or checksum is
	// invalid.
	ErrCorruptObject = errors.New("corrupt object")
	// ErrCorruptPack is returned when a pack's header, checksum, or delta
	// chain is invalid.
	ErrCorruptPack = errors.New("corrupt pack")
	// ErrSizeMismatch is returned when a declared size does not match the
	// number of bytes actually streamed.
	ErrSizeMismatch = errors.New("size mismatch")
	// ErrConflict is returned when a compare-and-swap fails, a
	// non-fast-forward update is rejected, or an operation that forbids
	// staging conflicts finds one.
	ErrConflict = errors.New("conflict")
	// ErrProtocolError is returned for malformed pktline, an unexpected
	// verb, a read timeout, or a closed duplex.
	ErrProtocolError = errors.New("protocol error")
	// ErrCancelled is returned when an operation observes its cancellation
	// token fired.
	ErrCancelled = errors.New("cancelled")
	// ErrUnsupported is returned for a recognized but unimplemented
	// feature (e.g. submodule write).
	ErrUnsupported = errors.New("unsupported")
	// ErrInvalid is returned for malformed input: empty name, NUL in a
	// path, a bad mode, and the like.
	ErrInvalid = errors.New("invalid")
	// ErrInvalidType is returned when an operation is given an object
	// type it cannot act on, e.g. InvalidObject or a pack delta type
	// code where a storable object type is required.
	ErrInvalidType = errors.New("invalid object type")
)

// MergeConflictError is the §7 MergeConflict kind: it carries the list of
// conflicting paths produced by the three-way merge.
type MergeConflictError struct {
	Paths []string
}

func (e *MergeConflictError) Error() string {
	return "merge produced conflicts: " + joinPaths(e.Paths)
}

func (e *MergeConflictError) Is(target error) bool {
	_, ok := target.(*MergeConflictError)
	return ok
}

func joinPaths(paths []string) string {
	out := ""
	for i, p := range paths {
		if i > 0 {
			out += ", "
		}
		out += p
	}
	return out
}
