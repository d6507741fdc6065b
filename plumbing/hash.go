// Package plumbing holds the primitive types shared by every layer of the
// object database and ref store: the object id, object kind tags, and the
// typed error taxonomy operations fail with.
package plumbing

import (
	"encoding/hex"
	"hash"
	"sort"
	"strconv"

	"github.com/pjbgf/sha1cd"
)

// HashSize is the length in bytes of a Git object id (SHA-1 digest).
const HashSize = 20

// HexSize is the length of the hexadecimal representation of a Hash.
const HexSize = HashSize * 2

// Hash is the SHA-1 digest of an object's canonical serialization. Per
// spec.md §3 this library never produces SHA-256 object ids.
type Hash [HashSize]byte

// ZeroHash is the zero-value Hash, used to denote "no object"
// (e.g. the old side of a ref-creation update command).
var ZeroHash Hash

// NewHash parses a hex string into a Hash. Invalid input yields the zero
// hash; callers that must distinguish invalid input from the zero hash
// should use FromHex.
func NewHash(s string) Hash {
	h, _ := FromHex(s)
	return h
}

// FromHex parses a 40-character hex string into a Hash.
func FromHex(s string) (Hash, bool) {
	var h Hash
	if len(s) != HexSize {
		return h, false
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return h, false
	}
	copy(h[:], b)
	return h, true
}

// FromBytes builds a Hash from a 20-byte slice.
func FromBytes(b []byte) (Hash, bool) {
	var h Hash
	if len(b) != HashSize {
		return h, false
	}
	copy(h[:], b)
	return h, true
}

// IsHash reports whether s is a syntactically valid 40-char hex object id.
func IsHash(s string) bool {
	if len(s) != HexSize {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}

// IsZero reports whether h is the zero hash.
func (h Hash) IsZero() bool {
	return h == ZeroHash
}

// String returns the lowercase hex representation of h.
func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// Bytes returns the 20 raw bytes of h.
func (h Hash) Bytes() []byte {
	return h[:]
}

// Compare orders h against the raw bytes of another hash, byte-wise.
func (h Hash) Compare(b []byte) int {
	for i := 0; i < HashSize && i < len(b); i++ {
		if h[i] != b[i] {
			if h[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	return HashSize - len(b)
}

// HasPrefix reports whether h begins with the given raw byte prefix.
func (h Hash) HasPrefix(prefix []byte) bool {
	if len(prefix) > HashSize {
		return false
	}
	for i, b := range prefix {
		if h[i] != b {
			return false
		}
	}
	return true
}

// HashSlice attaches sort.Interface to []Hash for bytewise ascending order.
type HashSlice []Hash

func (p HashSlice) Len() int           { return len(p) }
func (p HashSlice) Less(i, j int) bool { return p[i].Compare(p[j][:]) < 0 }
func (p HashSlice) Swap(i, j int)      { p[i], p[j] = p[j], p[i] }

// SortHashes sorts a slice of Hash in increasing byte order, the order the
// pack v2 index and packed-refs format both require.
func SortHashes(a []Hash) { sort.Sort(HashSlice(a)) }

// Hasher wraps a collision-detecting SHA-1 (github.com/pjbgf/sha1cd) primed
// with the Git object header, so that Sum() yields the canonical object id
// for the bytes written after Reset.
type Hasher struct {
	hash.Hash
}

// NewHasher returns a Hasher primed with the Git object header
// "<type> <size>\0" for the given kind and declared content size.
func NewHasher(t ObjectType, size int64) Hasher {
	h := Hasher{Hash: sha1cd.New()}
	h.Reset(t, size)
	return h
}

// Reset rewinds the underlying digest and re-writes the object header.
func (h Hasher) Reset(t ObjectType, size int64) {
	h.Hash.Reset()
	h.Write(t.Bytes())
	h.Write([]byte{' '})
	h.Write([]byte(strconv.FormatInt(size, 10)))
	h.Write([]byte{0})
}

// Sum returns the digest accumulated so far as a Hash.
func (h Hasher) Sum() Hash {
	var out Hash
	copy(out[:], h.Hash.Sum(nil))
	return out
}

// ComputeHash computes the object id of content for the given kind,
// without streaming: useful for small in-memory objects and tests.
func ComputeHash(t ObjectType, content []byte) Hash {
	h := NewHasher(t, int64(len(content)))
	h.Write(content)
	return h.Sum()
}
