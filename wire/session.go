package wire

import (
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/statewalker/vcs-sub011/plumbing"
	"github.com/statewalker/vcs-sub011/plumbing/object"
	"github.com/statewalker/vcs-sub011/refs"
)

// agent identifies this implementation in the "agent=" capability,
// advertised the way every pack-protocol peer names itself.
const agent = "agent=statewalker-vcs-sub011/1.0"

// ProgressFunc receives a coarse phase name ("negotiate", "receive-pack",
// "send-pack", ...) and a human-readable message, the way a long fetch
// or push reports what it's doing.
type ProgressFunc func(phase, message string)

func report(p ProgressFunc, phase, format string, a ...interface{}) {
	if p == nil {
		return
	}
	p(phase, fmt.Sprintf(format, a...))
}

// Dialer opens a fresh duplex to a peer. Implementations are transport
// specific (HTTP round trip, TCP dial, an in-process pipe); Peer
// retries a failing Dialer with exponential backoff before giving up.
type Dialer func(ctx context.Context) (*Duplex, error)

// Peer is one side of a pack-protocol exchange, bound to a local object
// store and reference store it imports into or exports from.
type Peer struct {
	Objects *object.Store
	Refs    refs.Store
	Dial    Dialer

	// MaxElapsedTime bounds how long Dial is retried before the fetch
	// or push fails outright. Zero uses backoff's default (15 minutes).
	MaxElapsedTime time.Duration
}

func (p *Peer) dial(ctx context.Context) (*Duplex, error) {
	bo := backoff.NewExponentialBackOff()
	if p.MaxElapsedTime > 0 {
		bo.MaxElapsedTime = p.MaxElapsedTime
	}
	withCtx := backoff.WithContext(bo, ctx)

	var d *Duplex
	err := backoff.Retry(func() error {
		var derr error
		d, derr = p.Dial(ctx)
		return derr
	}, withCtx)
	if err != nil {
		return nil, &ProtocolError{Op: "dial", Err: err}
	}
	return d, nil
}

// localHaves returns every object id this peer's local references
// already resolve to and already has stored, the set a negotiation
// tells the remote end it need not send again.
func localHaves(ctx context.Context, objects *object.Store, store refs.Store) ([]plumbing.Hash, error) {
	it, err := store.IterReferences(ctx)
	if err != nil {
		return nil, err
	}
	defer it.Close()

	var haves []plumbing.Hash
	seen := make(map[plumbing.Hash]bool)
	for {
		r, err := it.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if r.Type() != refs.HashReference || r.Hash() == plumbing.ZeroHash || seen[r.Hash()] {
			continue
		}
		if _, err := objects.Kind(ctx, r.Hash()); err != nil {
			continue
		}
		seen[r.Hash()] = true
		haves = append(haves, r.Hash())
	}

	sort.Slice(haves, func(i, j int) bool { return haves[i].String() < haves[j].String() })
	return haves, nil
}
