package object

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Signature is a Git identity line: "Name <email> unixtime zone", used
// for both a commit's author/committer and a tag's tagger.
type Signature struct {
	Name  string
	Email string
	When  time.Time
}

// Decode parses a Git identity line of the form
// "Name <email> unixtime zone" into s.
func (s *Signature) Decode(b []byte) {
	open := bytes.LastIndexByte(b, '<')
	close := bytes.LastIndexByte(b, '>')
	if open < 0 || close < 0 || close < open {
		s.Name = string(bytes.TrimSpace(b))
		return
	}

	s.Name = string(bytes.TrimSpace(b[:open]))
	s.Email = string(b[open+1 : close])

	fields := strings.Fields(string(b[close+1:]))
	if len(fields) == 0 {
		return
	}

	unix, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return
	}
	s.When = time.Unix(unix, 0).UTC()

	if len(fields) < 2 {
		return
	}
	if loc, err := parseTimezone(fields[1]); err == nil {
		s.When = s.When.In(loc)
	}
}

// String encodes s back to its canonical "Name <email> unixtime zone"
// form.
func (s *Signature) String() string {
	when := s.When
	if when.IsZero() {
		when = time.Unix(0, 0).UTC()
	}
	return fmt.Sprintf("%s <%s> %d %s", s.Name, s.Email, when.Unix(), when.Format("-0700"))
}

func parseTimezone(offset string) (*time.Location, error) {
	sign := int64(1)
	if strings.HasPrefix(offset, "-") {
		sign = -1
	}
	offset = strings.TrimPrefix(strings.TrimPrefix(offset, "-"), "+")
	if len(offset) != 4 {
		return time.UTC, fmt.Errorf("invalid timezone %q", offset)
	}
	hours, err := strconv.ParseInt(offset[:2], 10, 64)
	if err != nil {
		return time.UTC, err
	}
	minutes, err := strconv.ParseInt(offset[2:], 10, 64)
	if err != nil {
		return time.UTC, err
	}
	secs := sign * (hours*3600 + minutes*60)
	return time.FixedZone(offset, int(secs)), nil
}
