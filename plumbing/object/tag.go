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

// Tag is an annotated tag: it names one target object of a known type,
// optionally carries a tagger identity, and a message.
type Tag struct {
	Hash         plumbing.Hash
	TargetHash   plumbing.Hash
	TargetType   plumbing.ObjectType
	Name         string
	Tagger       Signature
	Encoding     string
	PGPSignature string
	Message      string
}

// Encode serializes t in canonical form: object, type, tag, tagger?,
// encoding?, gpgsig?, a blank line, then the message.
func (t *Tag) Encode() ([]byte, error) {
	if !t.TargetType.Valid() {
		return nil, fmt.Errorf("%w: invalid tag target type %s", plumbing.ErrInvalid, t.TargetType)
	}
	if t.Name == "" {
		return nil, fmt.Errorf("%w: tag has no name", plumbing.ErrInvalid)
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "object %s\n", t.TargetHash.String())
	fmt.Fprintf(&buf, "type %s\n", t.TargetType.String())
	fmt.Fprintf(&buf, "tag %s\n", t.Name)

	if t.Tagger.Name != "" || t.Tagger.Email != "" {
		fmt.Fprintf(&buf, "tagger %s\n", t.Tagger.String())
	}

	if t.Encoding != "" && !strings.EqualFold(t.Encoding, "UTF-8") {
		fmt.Fprintf(&buf, "encoding %s\n", t.Encoding)
	}

	if t.PGPSignature != "" {
		buf.WriteString("gpgsig ")
		buf.WriteString(indentContinuation(t.PGPSignature))
		if !strings.HasSuffix(t.PGPSignature, "\n") {
			buf.WriteByte('\n')
		}
	}

	buf.WriteByte('\n')
	buf.WriteString(t.Message)

	return buf.Bytes(), nil
}

// DecodeTag parses a tag's canonical content.
func DecodeTag(r io.Reader) (*Tag, error) {
	t := &Tag{}

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
		case "object":
			h, ok := plumbing.FromHex(val)
			if !ok {
				return fmt.Errorf("%w: malformed object hash %q", plumbing.ErrCorruptObject, val)
			}
			t.TargetHash = h
		case "type":
			typ, err := plumbing.ParseObjectType(val)
			if err != nil {
				return fmt.Errorf("%w: %v", plumbing.ErrCorruptObject, err)
			}
			t.TargetType = typ
		case "tag":
			t.Name = val
		case "tagger":
			t.Tagger.Decode([]byte(val))
		case "encoding":
			t.Encoding = val
		case "gpgsig":
			t.PGPSignature = val
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
			return nil, fmt.Errorf("%w: malformed tag header %q", plumbing.ErrCorruptObject, line)
		}
		pendingKey = line[:sp]
		pendingVal.WriteString(line[sp+1:])
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", plumbing.ErrCorruptObject, err)
	}

	t.Message = body.String()

	return t, nil
}

// StoreTag encodes and stores t, filling in and returning its id.
func (s *Store) StoreTag(ctx context.Context, t *Tag) (plumbing.Hash, error) {
	content, err := t.Encode()
	if err != nil {
		return plumbing.Hash{}, err
	}

	id, err := s.store(ctx, plumbing.TagObject, content)
	if err != nil {
		return plumbing.Hash{}, err
	}
	t.Hash = id
	return id, nil
}

// LoadTag loads and decodes a tag.
func (s *Store) LoadTag(ctx context.Context, id plumbing.Hash) (*Tag, error) {
	rc, _, err := s.load(ctx, id, plumbing.TagObject)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	t, err := DecodeTag(rc)
	if err != nil {
		return nil, err
	}
	t.Hash = id
	return t, nil
}
