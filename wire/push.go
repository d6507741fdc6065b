package wire

import (
	"context"
	"fmt"
	"sort"

	"github.com/statewalker/vcs-sub011/config"
	"github.com/statewalker/vcs-sub011/history"
	"github.com/statewalker/vcs-sub011/plumbing"
	"github.com/statewalker/vcs-sub011/plumbing/format/packfile"
	"github.com/statewalker/vcs-sub011/plumbing/object"
	"github.com/statewalker/vcs-sub011/plumbing/protocol/packp"
	"github.com/statewalker/vcs-sub011/refs"
)

const (
	capReportStatus = "report-status"
	// capPushForce tells a receive-pack server that every command in
	// this request was already force-approved client-side, so its own
	// fast-forward check should be skipped.
	capPushForce = "push-force"
)

// PushOptions configures a Peer.Push call.
type PushOptions struct {
	// RefSpecs selects which local references to push and where to
	// land them on the remote, e.g. "refs/heads/main:refs/heads/main".
	RefSpecs []config.RefSpec
	// Force allows a non-fast-forward update even for a refspec that
	// doesn't itself carry the "+" force marker.
	Force    bool
	Progress ProgressFunc
}

// PushResult is the remote's report of what the push actually did.
type PushResult struct {
	*packp.ReportStatus
}

// Push opens a client duplex to p.Dial, builds a pack covering every
// object the remote needs to satisfy opts.RefSpecs and asks the remote
// to update its references accordingly.
func (p *Peer) Push(ctx context.Context, opts PushOptions) (*PushResult, error) {
	d, err := p.dial(ctx)
	if err != nil {
		return nil, err
	}
	defer d.Close()

	if err := WriteService(d, ReceivePackService); err != nil {
		return nil, &ProtocolError{Op: "service-handshake", Err: err}
	}

	ar := packp.NewAdvRefs()
	if err := ar.Decode(d); err != nil {
		return nil, &ProtocolError{Op: "advertise-refs", Err: err}
	}

	commands, err := resolvePushCommands(ctx, p.Refs, p.Objects, opts.RefSpecs, ar.References, opts.Force)
	if err != nil {
		return nil, err
	}
	if len(commands) == 0 {
		return &PushResult{ReportStatus: packp.NewReportStatus()}, nil
	}

	remoteHaves := make(map[plumbing.Hash]bool, len(ar.References))
	for _, h := range ar.References {
		remoteHaves[h] = true
	}

	var wants []plumbing.Hash
	for _, c := range commands {
		if c.Action() != packp.Delete {
			wants = append(wants, c.New)
		}
	}

	objectSet, err := history.CollectReachableObjects(ctx, p.Objects, wants, remoteHaves)
	if err != nil {
		return nil, err
	}
	hashes := make([]plumbing.Hash, 0, len(objectSet))
	for h := range objectSet {
		hashes = append(hashes, h)
	}
	sort.Slice(hashes, func(i, j int) bool { return hashes[i].String() < hashes[j].String() })

	req := packp.NewUpdateRequests()
	req.Commands = commands
	req.Capabilities.Add(capReportStatus)
	req.Capabilities.Add(agent)
	if opts.Force || anyForce(opts.RefSpecs) {
		req.Capabilities.Add(capPushForce)
	}
	if err := req.Encode(d); err != nil {
		return nil, &ProtocolError{Op: "update-request", Err: err}
	}

	report(opts.Progress, "send-pack", "sending %d objects", len(hashes))
	if len(hashes) > 0 {
		if err := packfile.EncodeWindow(ctx, d, p.Objects, hashes, int(config.DefaultPackWindow)); err != nil {
			return nil, &ProtocolError{Op: "send-pack", Err: err}
		}
	}

	status := packp.NewReportStatus()
	if err := status.Decode(d); err != nil {
		return nil, &ProtocolError{Op: "report-status", Err: err}
	}

	return &PushResult{ReportStatus: status}, nil
}

// resolvePushCommands matches every local reference against specs,
// building the Command list a push sends: Old is the remote's current
// value for the destination (the zero hash if it doesn't have one yet),
// New is the local value. A non-fast-forward update is rejected here,
// before the update request is sent, unless force or the refspec itself
// carries the "+" force marker.
func resolvePushCommands(ctx context.Context, store refs.Store, objects *object.Store, specs []config.RefSpec, remote map[refs.Name]plumbing.Hash, force bool) ([]*packp.Command, error) {
	var commands []*packp.Command

	for _, s := range specs {
		if s.IsDelete() {
			dst := s.Dst("")
			if old, ok := remote[dst]; ok {
				commands = append(commands, &packp.Command{Name: dst, Old: old, New: plumbing.ZeroHash})
			}
			continue
		}

		srcName := refs.Name(s.Src())
		ref, err := store.Reference(ctx, srcName)
		if err != nil {
			return nil, fmt.Errorf("resolving push source %s: %w", srcName, err)
		}

		dst := s.Dst(srcName)
		old := remote[dst]
		if old == ref.Hash() {
			continue
		}
		if old != plumbing.ZeroHash && !force && !s.IsForceUpdate() {
			ff, err := checkFastForward(ctx, objects, old, ref.Hash())
			if err != nil {
				return nil, err
			}
			if !ff {
				return nil, fmt.Errorf("%s: update %s would not be a fast-forward", dst, old)
			}
		}

		commands = append(commands, &packp.Command{Name: dst, Old: old, New: ref.Hash()})
	}

	return commands, nil
}

func anyForce(specs []config.RefSpec) bool {
	for _, s := range specs {
		if s.IsForceUpdate() {
			return true
		}
	}
	return false
}

// checkFastForward reports whether newHash's history contains old,
// i.e. pushing newHash over old loses no committed work. Push runs it
// client-side for every non-forced update of an existing remote
// reference, and a receive-pack server runs it again unless the request
// carries push-force.
func checkFastForward(ctx context.Context, store *object.Store, old, newHash plumbing.Hash) (bool, error) {
	if old == plumbing.ZeroHash {
		return true, nil
	}
	c, err := store.LoadCommit(ctx, newHash)
	if err != nil {
		return false, err
	}
	return history.IsAncestor(ctx, store, c, old)
}
