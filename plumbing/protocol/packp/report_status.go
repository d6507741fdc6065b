package packp

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/statewalker/vcs-sub011/plumbing/format/pktline"
	"github.com/statewalker/vcs-sub011/refs"
)

const statusOK = "ok"

// UnpackStatusErr is returned by ReportStatus.Error when the receiving
// end failed to unpack the pushed packfile.
type UnpackStatusErr struct {
	Status string
}

func (e UnpackStatusErr) Error() string {
	return fmt.Sprintf("unpack error: %s", e.Status)
}

// CommandStatusErr is returned by ReportStatus.Error when a single ref
// update within the push was rejected.
type CommandStatusErr struct {
	Name   refs.Name
	Status string
}

func (e CommandStatusErr) Error() string {
	return fmt.Sprintf("command error on %s: %s", e.Name, e.Status)
}

// ReportStatus is the response git-receive-pack sends back when the
// report-status capability was negotiated: whether the packfile
// unpacked cleanly, and the outcome of every ref update it was asked
// to apply.
type ReportStatus struct {
	UnpackStatus    string
	CommandStatuses []*CommandStatus
}

// NewReportStatus returns an empty ReportStatus.
func NewReportStatus() *ReportStatus {
	return &ReportStatus{}
}

// Error returns the first failure reported, following the convention
// that an unpack failure takes priority over individual ref failures.
func (s *ReportStatus) Error() error {
	if s.UnpackStatus != statusOK {
		return UnpackStatusErr{s.UnpackStatus}
	}

	for _, cs := range s.CommandStatuses {
		if err := cs.Error(); err != nil {
			return err
		}
	}

	return nil
}

// Encode writes the report-status encoding of s to w.
func (s *ReportStatus) Encode(w io.Writer) error {
	pw := pktline.NewWriter(w)

	if _, err := pw.WritePacketf("unpack %s\n", s.UnpackStatus); err != nil {
		return err
	}

	for _, cs := range s.CommandStatuses {
		if err := cs.encode(pw); err != nil {
			return err
		}
	}

	return pw.WriteFlush()
}

// Decode reads a report-status message from r and stores it in s.
func (s *ReportStatus) Decode(r io.Reader) error {
	sc := pktline.NewScanner(r)

	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return err
		}
		return io.ErrUnexpectedEOF
	}

	if err := s.decodeUnpackLine(sc.Bytes()); err != nil {
		return err
	}

	for sc.Scan() {
		if sc.Len() == pktline.Flush {
			return nil
		}
		if err := s.decodeCommandLine(sc.Bytes()); err != nil {
			return err
		}
	}

	return sc.Err()
}

func (s *ReportStatus) decodeUnpackLine(b []byte) error {
	line := string(bytes.TrimSuffix(b, advEOL))
	fields := strings.SplitN(line, " ", 2)
	if len(fields) != 2 || fields[0] != "unpack" {
		return fmt.Errorf("malformed unpack status: %q", line)
	}

	s.UnpackStatus = fields[1]
	return nil
}

func (s *ReportStatus) decodeCommandLine(b []byte) error {
	line := string(bytes.TrimSuffix(b, advEOL))
	fields := strings.SplitN(line, " ", 3)

	var cs *CommandStatus
	switch {
	case len(fields) == 2 && fields[0] == statusOK:
		cs = &CommandStatus{Name: refs.Name(fields[1]), Status: statusOK}
	case len(fields) == 3 && fields[0] == "ng":
		cs = &CommandStatus{Name: refs.Name(fields[1]), Status: fields[2]}
	default:
		return fmt.Errorf("malformed command status: %q", line)
	}

	s.CommandStatuses = append(s.CommandStatuses, cs)
	return nil
}

// CommandStatus reports the outcome of a single Command from an
// UpdateRequests.
type CommandStatus struct {
	Name   refs.Name
	Status string
}

// Error returns a CommandStatusErr if the update failed.
func (s *CommandStatus) Error() error {
	if s.Status == statusOK {
		return nil
	}
	return CommandStatusErr{Name: s.Name, Status: s.Status}
}

func (s *CommandStatus) encode(pw *pktline.Writer) error {
	if s.Error() == nil {
		_, err := pw.WritePacketf("ok %s\n", s.Name)
		return err
	}

	_, err := pw.WritePacketf("ng %s %s\n", s.Name, s.Status)
	return err
}
