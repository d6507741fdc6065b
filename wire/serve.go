package wire

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/statewalker/vcs-sub011/config"
	"github.com/statewalker/vcs-sub011/history"
	"github.com/statewalker/vcs-sub011/plumbing"
	"github.com/statewalker/vcs-sub011/plumbing/format/packfile"
	"github.com/statewalker/vcs-sub011/plumbing/object"
	"github.com/statewalker/vcs-sub011/plumbing/protocol/packp"
	"github.com/statewalker/vcs-sub011/plumbing/protocol/packp/sideband"
	"github.com/statewalker/vcs-sub011/plumbing/protocol/packp/ulreq"
	"github.com/statewalker/vcs-sub011/refs"
)

// Serve reads the service handshake off d and dispatches to
// ServeUploadPack or ServeReceivePack, the server side of a fetch or
// push respectively. It returns an error naming an unrecognized
// service.
func (p *Peer) Serve(ctx context.Context, d *Duplex, progress ProgressFunc) error {
	svc, err := ReadService(d)
	if err != nil {
		return err
	}

	switch svc {
	case UploadPackService:
		return p.ServeUploadPack(ctx, d, progress)
	case ReceivePackService:
		return p.ServeReceivePack(ctx, d, progress)
	default:
		return &ProtocolError{Op: "service-handshake", Err: fmt.Errorf("unknown service %q", svc)}
	}
}

// buildAdvRefs captures the current state of store as an AdvRefs
// advertisement: every reference plus, for annotated tags, the object
// they peel to, and HEAD resolved both as a concrete id and (if it is
// itself symbolic) as a symref capability.
func buildAdvRefs(ctx context.Context, store refs.Store, objects *object.Store) (*packp.AdvRefs, error) {
	ar := packp.NewAdvRefs()

	it, err := store.IterReferences(ctx)
	if err != nil {
		return nil, err
	}
	defer it.Close()

	for {
		r, err := it.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if r.Name() == refs.HEAD || r.Type() != refs.HashReference {
			continue
		}
		if err := ar.AddReference(r); err != nil {
			return nil, err
		}

		if r.Name().IsTag() {
			if kind, err := objects.Kind(ctx, r.Hash()); err == nil && kind == plumbing.TagObject {
				if tag, err := objects.LoadTag(ctx, r.Hash()); err == nil {
					ar.AddPeeled(r.Name(), tag.TargetHash)
				}
			}
		}
	}

	if headRef, err := store.Reference(ctx, refs.HEAD); err == nil {
		if resolved, err := refs.Resolve(ctx, store, refs.HEAD); err == nil {
			h := resolved.Hash()
			ar.Head = &h
		}
		if headRef.Type() == refs.SymbolicReference {
			ar.Capabilities.Add("symref", "HEAD:"+string(headRef.Target()))
		}
	}

	return ar, nil
}

// ServeUploadPack is the server side of a fetch: it advertises p's
// references, reads the client's wants and haves, then streams a pack
// covering every object the wants need that the haves didn't already
// rule out.
func (p *Peer) ServeUploadPack(ctx context.Context, d *Duplex, progress ProgressFunc) error {
	ar, err := buildAdvRefs(ctx, p.Refs, p.Objects)
	if err != nil {
		return err
	}
	if err := ar.Encode(d); err != nil {
		return &ProtocolError{Op: "advertise-refs", Err: err}
	}

	req := ulreq.New()
	if err := ulreq.NewDecoder(d).Decode(req); err != nil {
		return &ProtocolError{Op: "upload-request", Err: err}
	}
	useSideband := req.Capabilities.Supports(capSideband64k)

	haveSet := make(map[plumbing.Hash]bool)
	if _, _, err := serveNegotiate(d, func(h plumbing.Hash) bool {
		if _, err := p.Objects.Kind(ctx, h); err != nil {
			return false
		}
		haveSet[h] = true
		return true
	}); err != nil {
		return err
	}

	objectSet, err := history.CollectReachableObjects(ctx, p.Objects, req.Wants, haveSet)
	if err != nil {
		return err
	}
	hashes := make([]plumbing.Hash, 0, len(objectSet))
	for h := range objectSet {
		hashes = append(hashes, h)
	}
	sort.Slice(hashes, func(i, j int) bool { return hashes[i].String() < hashes[j].String() })

	report(progress, "send-pack", "sending %d objects", len(hashes))

	var w io.Writer = d
	if useSideband {
		w = sideband.NewMuxer(sideband.Sideband64k, d)
	}
	return packfile.EncodeWindow(ctx, w, p.Objects, hashes, int(config.DefaultPackWindow))
}

// ServeReceivePack is the server side of a push: it advertises p's
// references, reads the client's update commands and pack, unpacks the
// objects and applies each command via compare-and-swap, reporting the
// outcome back if the client asked for report-status.
func (p *Peer) ServeReceivePack(ctx context.Context, d *Duplex, progress ProgressFunc) error {
	ar, err := buildAdvRefs(ctx, p.Refs, p.Objects)
	if err != nil {
		return err
	}
	if err := ar.Encode(d); err != nil {
		return &ProtocolError{Op: "advertise-refs", Err: err}
	}

	req := packp.NewUpdateRequests()
	if err := req.Decode(d); err != nil {
		return &ProtocolError{Op: "update-request", Err: err}
	}

	status := packp.NewReportStatus()
	if _, err := packfile.Decode(ctx, d, p.Objects); err != nil {
		status.UnpackStatus = err.Error()
	} else {
		status.UnpackStatus = "ok"
	}

	force := req.Capabilities.Supports(capPushForce)
	for _, c := range req.Commands {
		cs := &packp.CommandStatus{Name: c.Name}
		switch {
		case status.UnpackStatus != "ok":
			cs.Status = "unpacker error"
		default:
			if err := p.applyCommand(ctx, c, force); err != nil {
				cs.Status = err.Error()
			} else {
				cs.Status = "ok"
				report(progress, "update-refs", "%s -> %s", c.Name, c.New)
			}
		}
		status.CommandStatuses = append(status.CommandStatuses, cs)
	}

	if req.Capabilities.Supports(capReportStatus) {
		return status.Encode(d)
	}
	return nil
}

func (p *Peer) applyCommand(ctx context.Context, c *packp.Command, force bool) error {
	switch c.Action() {
	case packp.Delete:
		return p.Refs.RemoveReference(ctx, c.Name)

	case packp.Create:
		return p.Refs.CompareAndSwapReference(ctx, refs.NewHashReference(c.Name, c.New), plumbing.ZeroHash)

	default:
		if !force {
			ok, err := checkFastForward(ctx, p.Objects, c.Old, c.New)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("non-fast-forward")
			}
		}
		return p.Refs.CompareAndSwapReference(ctx, refs.NewHashReference(c.Name, c.New), c.Old)
	}
}
