package porcelain

import (
	"context"

	"github.com/statewalker/vcs-sub011/history"
	"github.com/statewalker/vcs-sub011/plumbing"
	"github.com/statewalker/vcs-sub011/plumbing/object"
)

// LogCommand walks commit history starting from a commit, HEAD by
// default.
type LogCommand struct {
	repo      *Repo
	from      plumbing.Hash
	dateOrder bool
}

// Log returns a builder that walks history from HEAD.
func (r *Repo) Log() *LogCommand {
	return &LogCommand{repo: r}
}

// SetFrom starts the walk at a specific commit instead of HEAD.
func (c *LogCommand) SetFrom(hash plumbing.Hash) *LogCommand {
	c.from = hash
	return c
}

// SetDateOrder walks commits by committer date instead of topological
// (parents-after-children) order.
func (c *LogCommand) SetDateOrder(dateOrder bool) *LogCommand {
	c.dateOrder = dateOrder
	return c
}

func (c *LogCommand) Call(ctx context.Context) (history.Iter, error) {
	r := c.repo

	start, err := c.startCommit(ctx)
	if err != nil {
		return nil, err
	}

	if c.dateOrder {
		return history.NewDateOrderIter(ctx, r.Store, start, nil), nil
	}
	return history.NewPreorderIter(ctx, r.Store, start, nil), nil
}

func (c *LogCommand) startCommit(ctx context.Context) (*object.Commit, error) {
	r := c.repo
	if c.from.IsZero() {
		return r.headCommit(ctx)
	}
	return r.Store.LoadCommit(ctx, c.from)
}
