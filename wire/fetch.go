package wire

import (
	"context"
	"sort"

	"github.com/statewalker/vcs-sub011/config"
	"github.com/statewalker/vcs-sub011/plumbing"
	"github.com/statewalker/vcs-sub011/plumbing/format/packfile"
	"github.com/statewalker/vcs-sub011/plumbing/protocol/packp"
	"github.com/statewalker/vcs-sub011/plumbing/protocol/packp/sideband"
	"github.com/statewalker/vcs-sub011/plumbing/protocol/packp/ulreq"
	"github.com/statewalker/vcs-sub011/refs"
)

const (
	capOfsDelta    = "ofs-delta"
	capSideband64k = "side-band-64k"
)

// FetchOptions configures a Peer.Fetch call.
type FetchOptions struct {
	// RefSpecs selects which remote references to pull and where to
	// land them locally, e.g. "+refs/heads/*:refs/remotes/origin/*".
	RefSpecs []config.RefSpec
	Progress ProgressFunc
}

// FetchResult reports what a fetch actually did.
type FetchResult struct {
	// Updated maps every local reference Fetch wrote to the hash it
	// now holds.
	Updated map[refs.Name]plumbing.Hash
	// ImportedObjects is how many objects the fetched pack added.
	ImportedObjects int
}

// Fetch opens a client duplex to p.Dial, negotiates the set of objects
// the remote has that this peer doesn't, imports the resulting pack and
// updates the local references opts.RefSpecs names.
func (p *Peer) Fetch(ctx context.Context, opts FetchOptions) (*FetchResult, error) {
	d, err := p.dial(ctx)
	if err != nil {
		return nil, err
	}
	defer d.Close()

	if err := WriteService(d, UploadPackService); err != nil {
		return nil, &ProtocolError{Op: "service-handshake", Err: err}
	}

	ar := packp.NewAdvRefs()
	if err := ar.Decode(d); err != nil {
		return nil, &ProtocolError{Op: "advertise-refs", Err: err}
	}
	report(opts.Progress, "negotiate", "remote advertises %d references", len(ar.References))

	wants, dests := resolveFetchWants(opts.RefSpecs, ar.References)
	if len(wants) == 0 {
		return &FetchResult{Updated: map[refs.Name]plumbing.Hash{}}, nil
	}

	req := ulreq.New()
	req.Wants = wants
	req.Capabilities.Add(capOfsDelta)
	req.Capabilities.Add(agent)
	useSideband := ar.Capabilities.Supports(capSideband64k)
	if useSideband {
		req.Capabilities.Add(capSideband64k)
	}

	if err := ulreq.NewEncoder(d).Encode(req); err != nil {
		return nil, &ProtocolError{Op: "upload-request", Err: err}
	}

	haves, err := localHaves(ctx, p.Objects, p.Refs)
	if err != nil {
		return nil, err
	}
	if err := sendHaves(d, haves); err != nil {
		return nil, &ProtocolError{Op: "negotiate", Err: err}
	}
	common, ok, err := readAckNak(d)
	if err != nil {
		return nil, err
	}
	if ok {
		report(opts.Progress, "negotiate", "common ancestor %s", common)
	} else {
		report(opts.Progress, "negotiate", "no common history, full pack requested")
	}

	var packReader interface {
		Read(p []byte) (int, error)
	} = d
	if useSideband {
		demux := sideband.NewDemuxer(sideband.Sideband64k, d)
		demux.Progress = progressWriter{fn: opts.Progress}
		packReader = demux
	}

	report(opts.Progress, "receive-pack", "receiving objects")
	imported, err := packfile.Decode(ctx, packReader, p.Objects)
	if err != nil {
		return nil, &ProtocolError{Op: "receive-pack", Err: err}
	}

	updated := make(map[refs.Name]plumbing.Hash, len(dests))
	for name, hash := range dests {
		if err := p.Refs.SetReference(ctx, refs.NewHashReference(name, hash)); err != nil {
			return nil, err
		}
		updated[name] = hash
	}

	return &FetchResult{Updated: updated, ImportedObjects: len(imported)}, nil
}

// resolveFetchWants matches every remote reference against opts against
// the refspecs, returning the set of object ids to request and the
// local destination name each matched remote reference should land at.
func resolveFetchWants(specs []config.RefSpec, remote map[refs.Name]plumbing.Hash) ([]plumbing.Hash, map[refs.Name]plumbing.Hash) {
	names := make([]string, 0, len(remote))
	for n := range remote {
		names = append(names, string(n))
	}
	sort.Strings(names)

	seen := make(map[plumbing.Hash]bool)
	var wants []plumbing.Hash
	dests := make(map[refs.Name]plumbing.Hash)

	for _, name := range names {
		n := refs.Name(name)
		hash := remote[n]
		for _, s := range specs {
			if !s.Match(n) {
				continue
			}
			if !seen[hash] {
				seen[hash] = true
				wants = append(wants, hash)
			}
			dests[s.Dst(n)] = hash
		}
	}

	return wants, dests
}

// progressWriter adapts a ProgressFunc to the io.Writer side-band's
// Demuxer wants for relaying the remote's progress text.
type progressWriter struct {
	fn ProgressFunc
}

func (w progressWriter) Write(p []byte) (int, error) {
	report(w.fn, "progress", "%s", string(p))
	return len(p), nil
}
