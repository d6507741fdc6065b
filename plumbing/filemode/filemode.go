// Package filemode implements the Git tree entry file modes: the five
// octal modes spec.md §3 allows in a canonical tree (100644, 100755,
// 120000, 40000, 160000) plus the handful of non-canonical values that
// show up when parsing loose input.
package filemode

import (
	"fmt"
	"os"
	"strconv"
)

// FileMode is a Git tree entry mode, the 32-bit little-endian value
// packfile/index entries encode it as.
type FileMode uint32

const (
	Empty      FileMode = 0
	Dir        FileMode = 0o40000
	Regular    FileMode = 0o100644
	Deprecated FileMode = 0o100664
	Executable FileMode = 0o100755
	Symlink    FileMode = 0o120000
	Submodule  FileMode = 0o160000
)

// New parses the octal textual representation of a mode, as found in a
// canonical tree entry or in porcelain tool output. Leading zeros are
// tolerated.
func New(s string) (FileMode, error) {
	imode, err := strconv.ParseUint(s, 8, 32)
	if err != nil {
		return Empty, fmt.Errorf("malformed mode %q: %w", s, err)
	}
	return FileMode(imode), nil
}

// NewFromOSFileMode converts a standard library os.FileMode to the closest
// Git equivalent. Kinds with no Git equivalent (device, pipe, socket,
// temporary) yield (Empty, error).
func NewFromOSFileMode(m os.FileMode) (FileMode, error) {
	if m.IsDir() {
		return Dir, nil
	}

	if m&os.ModeSymlink != 0 {
		return Symlink, nil
	}

	if m&(os.ModeNamedPipe|os.ModeSocket|os.ModeDevice|os.ModeCharDevice|os.ModeTemporary) != 0 {
		return Empty, fmt.Errorf("no equivalent file mode for %s", m.String())
	}

	if isExecutable(m) {
		return Executable, nil
	}

	return Regular, nil
}

func isExecutable(m os.FileMode) bool {
	return m&0o111 != 0
}

// Bytes returns the little-endian 32-bit on-disk representation used by
// pack/index entries.
func (m FileMode) Bytes() []byte {
	return []byte{
		byte(m & 0xff),
		byte((m >> 8) & 0xff),
		byte((m >> 16) & 0xff),
		byte((m >> 24) & 0xff),
	}
}

// String returns the zero-padded 7-digit octal representation used in a
// canonical tree entry.
func (m FileMode) String() string {
	return fmt.Sprintf("%07o", uint32(m))
}

// IsMalformed reports whether m is not one of the recognized modes.
func (m FileMode) IsMalformed() bool {
	switch m {
	case Dir, Regular, Deprecated, Executable, Symlink, Submodule:
		return false
	default:
		return true
	}
}

// IsRegular reports whether m denotes an ordinary (non-executable) file.
func (m FileMode) IsRegular() bool {
	return m == Regular || m == Deprecated
}

// IsFile reports whether m denotes anything stored as a blob (regular,
// executable, or symlink) — i.e. anything that is not a tree or submodule.
func (m FileMode) IsFile() bool {
	switch m {
	case Regular, Deprecated, Executable, Symlink:
		return true
	default:
		return false
	}
}

// ToOSFileMode converts m to the closest os.FileMode, for writing through
// the Files capability.
func (m FileMode) ToOSFileMode() (os.FileMode, error) {
	switch m {
	case Dir, Submodule:
		return os.ModePerm | os.ModeDir, nil
	case Regular, Deprecated:
		return 0o644, nil
	case Executable:
		return 0o755, nil
	case Symlink:
		return os.ModePerm | os.ModeSymlink, nil
	default:
		return 0, fmt.Errorf("malformed file mode %s", m)
	}
}
