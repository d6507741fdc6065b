package object

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/statewalker/vcs-sub011/plumbing"
)

// Commit is the canonical commit object: a tree, zero or more parents,
// an author and committer identity, an optional non-UTF-8 encoding
// declaration, an optional opaque signature block, and a message.
type Commit struct {
	Hash         plumbing.Hash
	TreeHash     plumbing.Hash
	ParentHashes []plumbing.Hash
	Author       Signature
	Committer    Signature
	Encoding     string
	PGPSignature string
	Message      string
}

// Encode serializes c in canonical form: tree, parent*, author,
// committer, encoding?, gpgsig?, a blank line, then the message.
func (c *Commit) Encode() ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "tree %s\n", c.TreeHash.String())
	for _, p := range c.ParentHashes {
		fmt.Fprintf(&buf, "parent %s\n", p.String())
	}
	fmt.Fprintf(&buf, "author %s\n", c.Author.String())
	fmt.Fprintf(&buf, "committer %s\n", c.Committer.String())

	if c.Encoding != "" && !strings.EqualFold(c.Encoding, "UTF-8") {
		fmt.Fprintf(&buf, "encoding %s\n", c.Encoding)
	}

	if c.PGPSignature != "" {
		buf.WriteString("gpgsig ")
		buf.WriteString(indentContinuation(c.PGPSignature))
		if !strings.HasSuffix(c.PGPSignature, "\n") {
			buf.WriteByte('\n')
		}
	}

	buf.WriteByte('\n')
	buf.WriteString(c.Message)

	return buf.Bytes(), nil
}

// indentContinuation prefixes every line after the first with a single
// space, the convention Git uses for multi-line header values (gpgsig,
// mergetag).
func indentContinuation(s string) string {
	lines := strings.Split(strings.TrimSuffix(s, "\n"), "\n")
	return strings.Join(lines, "\n ")
}

// DecodeCommit parses a commit's canonical content.
func DecodeCommit(r io.Reader) (*Commit, error) {
	c := &Commit{}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	// Tokens keep their '\n' so the message is reproduced exactly,
	// including whether it ends in a newline.
	sc.Split(func(data []byte, atEOF bool) (int, []byte, error) {
		if i := bytes.IndexByte(data, '\n'); i >= 0 {
			return i + 1, data[:i+1], nil
		}
		if atEOF && len(data) > 0 {
			return len(data), data, nil
		}
		return 0, nil, nil
	})

	var pendingKey string
	var pendingVal strings.Builder
	flush := func() error {
		if pendingKey == "" {
			return nil
		}
		val := pendingVal.String()
		switch pendingKey {
		case "tree":
			h, ok := plumbing.FromHex(val)
			if !ok {
				return fmt.Errorf("%w: malformed tree hash %q", plumbing.ErrCorruptObject, val)
			}
			c.TreeHash = h
		case "parent":
			h, ok := plumbing.FromHex(val)
			if !ok {
				return fmt.Errorf("%w: malformed parent hash %q", plumbing.ErrCorruptObject, val)
			}
			c.ParentHashes = append(c.ParentHashes, h)
		case "author":
			c.Author.Decode([]byte(val))
		case "committer":
			c.Committer.Decode([]byte(val))
		case "encoding":
			c.Encoding = val
		case "gpgsig":
			c.PGPSignature = val
		}
		pendingKey = ""
		pendingVal.Reset()
		return nil
	}

	inBody := false
	var body strings.Builder
	for sc.Scan() {
		raw := sc.Text()
		line := strings.TrimSuffix(raw, "\n")

		if inBody {
			body.WriteString(raw)
			continue
		}

		if line == "" {
			if err := flush(); err != nil {
				return nil, err
			}
			inBody = true
			continue
		}

		if strings.HasPrefix(line, " ") {
			if pendingKey == "" {
				return nil, fmt.Errorf("%w: continuation line with no header", plumbing.ErrCorruptObject)
			}
			pendingVal.WriteByte('\n')
			pendingVal.WriteString(line[1:])
			continue
		}

		if err := flush(); err != nil {
			return nil, err
		}

		sp := strings.IndexByte(line, ' ')
		if sp < 0 {
			return nil, fmt.Errorf("%w: malformed commit header %q", plumbing.ErrCorruptObject, line)
		}
		pendingKey = line[:sp]
		pendingVal.WriteString(line[sp+1:])
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", plumbing.ErrCorruptObject, err)
	}

	c.Message = body.String()

	return c, nil
}

// StoreCommit encodes and stores c, filling in and returning its id.
func (s *Store) StoreCommit(ctx context.Context, c *Commit) (plumbing.Hash, error) {
	content, err := c.Encode()
	if err != nil {
		return plumbing.Hash{}, err
	}

	id, err := s.store(ctx, plumbing.CommitObject, content)
	if err != nil {
		return plumbing.Hash{}, err
	}
	c.Hash = id
	return id, nil
}

// LoadCommit loads and decodes a commit.
func (s *Store) LoadCommit(ctx context.Context, id plumbing.Hash) (*Commit, error) {
	rc, _, err := s.load(ctx, id, plumbing.CommitObject)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	c, err := DecodeCommit(rc)
	if err != nil {
		return nil, err
	}
	c.Hash = id
	return c, nil
}
