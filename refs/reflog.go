package refs

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/statewalker/vcs-sub011/plumbing"
)

// ReflogEntry is one line of a reference's log: the update it recorded
// and who made it.
type ReflogEntry struct {
	Old     plumbing.Hash
	New     plumbing.Hash
	Name    string
	Email   string
	When    time.Time
	Message string
}

// Encode renders e in the canonical reflog line format:
// "<old> <new> <name> <email> <unix> <zone>\t<message>\n".
func (e *ReflogEntry) Encode() string {
	return fmt.Sprintf("%s %s %s <%s> %d %s\t%s\n",
		e.Old, e.New, e.Name, e.Email, e.When.Unix(), e.When.Format("-0700"), e.Message)
}

// DecodeReflogLine parses one canonical reflog line.
func DecodeReflogLine(line string) (*ReflogEntry, error) {
	tab := strings.IndexByte(line, '\t')
	var head, message string
	if tab < 0 {
		head = line
	} else {
		head, message = line[:tab], line[tab+1:]
	}

	fields := strings.SplitN(head, " ", 3)
	if len(fields) < 3 {
		return nil, fmt.Errorf("%w: malformed reflog line %q", plumbing.ErrCorruptObject, line)
	}

	oldHash, ok := plumbing.FromHex(fields[0])
	if !ok {
		return nil, fmt.Errorf("%w: malformed reflog old hash %q", plumbing.ErrCorruptObject, fields[0])
	}
	newHash, ok := plumbing.FromHex(fields[1])
	if !ok {
		return nil, fmt.Errorf("%w: malformed reflog new hash %q", plumbing.ErrCorruptObject, fields[1])
	}

	open := strings.LastIndexByte(fields[2], '<')
	close := strings.LastIndexByte(fields[2], '>')
	if open < 0 || close < 0 || close < open {
		return nil, fmt.Errorf("%w: malformed reflog identity %q", plumbing.ErrCorruptObject, fields[2])
	}

	name := strings.TrimSpace(fields[2][:open])
	email := fields[2][open+1 : close]

	when := time.Unix(0, 0).UTC()
	rest := strings.Fields(fields[2][close+1:])
	if len(rest) >= 1 {
		if unix, err := strconv.ParseInt(rest[0], 10, 64); err == nil {
			when = time.Unix(unix, 0).UTC()
		}
	}

	return &ReflogEntry{
		Old: oldHash, New: newHash,
		Name: name, Email: email, When: when,
		Message: message,
	}, nil
}

// DecodeReflog parses a reflog file's entire oldest-first on-disk
// content and returns entries newest-first, the order callers read a
// reflog in (e.g. `git log -g` / `@{1}`).
func DecodeReflog(b []byte) ([]*ReflogEntry, error) {
	var entries []*ReflogEntry
	sc := bufio.NewScanner(bytes.NewReader(b))
	for sc.Scan() {
		line := sc.Text()
		if line == "" {
			continue
		}
		e, err := DecodeReflogLine(line)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	return entries, nil
}

// ReflogStore appends to and reads a reference's log.
type ReflogStore interface {
	// AppendReflog appends entry to name's log, creating it if absent.
	AppendReflog(ctx context.Context, name Name, entry *ReflogEntry) error
	// ReadReflog returns name's entries, newest first.
	ReadReflog(ctx context.Context, name Name) ([]*ReflogEntry, error)
}
