package object_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/statewalker/vcs-sub011/plumbing"
	"github.com/statewalker/vcs-sub011/plumbing/object"
)

func testSignature() object.Signature {
	return object.Signature{Name: "A U Thor", Email: "a@x", When: time.Unix(1700000000, 0).UTC()}
}

func TestCommitEncodeDecodeRoundTrip(t *testing.T) {
	c := &object.Commit{
		TreeHash:     object.EmptyTreeHash,
		ParentHashes: []plumbing.Hash{plumbing.NewHash("1111111111111111111111111111111111111111")},
		Author:       testSignature(),
		Committer:    testSignature(),
		Message:      "init\n",
	}

	content, err := c.Encode()
	require.NoError(t, err)

	decoded, err := object.DecodeCommit(bytes.NewReader(content))
	require.NoError(t, err)

	assert.Equal(t, c.TreeHash, decoded.TreeHash)
	assert.Equal(t, c.ParentHashes, decoded.ParentHashes)
	assert.Equal(t, c.Author.Name, decoded.Author.Name)
	assert.Equal(t, c.Author.Email, decoded.Author.Email)
	assert.Equal(t, "init\n", decoded.Message)
}

func TestCommitEncodeOmitsUTF8Encoding(t *testing.T) {
	c := &object.Commit{TreeHash: object.EmptyTreeHash, Author: testSignature(), Committer: testSignature(), Encoding: "UTF-8", Message: "x"}
	content, err := c.Encode()
	require.NoError(t, err)
	assert.NotContains(t, string(content), "encoding")
}

func TestCommitEncodeKeepsNonUTF8Encoding(t *testing.T) {
	c := &object.Commit{TreeHash: object.EmptyTreeHash, Author: testSignature(), Committer: testSignature(), Encoding: "ISO-8859-1", Message: "x"}
	content, err := c.Encode()
	require.NoError(t, err)
	assert.Contains(t, string(content), "encoding ISO-8859-1\n")
}

func TestCommitGpgsigContinuationLines(t *testing.T) {
	sig := "-----BEGIN PGP SIGNATURE-----\n\nabc\ndef\n-----END PGP SIGNATURE-----"
	c := &object.Commit{TreeHash: object.EmptyTreeHash, Author: testSignature(), Committer: testSignature(), PGPSignature: sig, Message: "m"}

	content, err := c.Encode()
	require.NoError(t, err)

	decoded, err := object.DecodeCommit(bytes.NewReader(content))
	require.NoError(t, err)
	assert.Equal(t, sig, decoded.PGPSignature)
	assert.Equal(t, "m", decoded.Message)
}

func TestMultipleParents(t *testing.T) {
	c := &object.Commit{
		TreeHash: object.EmptyTreeHash,
		ParentHashes: []plumbing.Hash{
			plumbing.NewHash("1111111111111111111111111111111111111111"),
			plumbing.NewHash("2222222222222222222222222222222222222222"),
		},
		Author:    testSignature(),
		Committer: testSignature(),
		Message:   "merge\n",
	}
	content, err := c.Encode()
	require.NoError(t, err)

	decoded, err := object.DecodeCommit(bytes.NewReader(content))
	require.NoError(t, err)
	assert.Len(t, decoded.ParentHashes, 2)
}

func TestStoreCommitRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	c := &object.Commit{
		TreeHash:  object.EmptyTreeHash,
		Author:    testSignature(),
		Committer: testSignature(),
		Message:   "init\n",
	}

	id, err := s.StoreCommit(ctx, c)
	require.NoError(t, err)

	loaded, err := s.LoadCommit(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, c.Message, loaded.Message)
	assert.Equal(t, c.TreeHash, loaded.TreeHash)
}
