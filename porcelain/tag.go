package porcelain

import (
	"context"
	"fmt"

	"github.com/statewalker/vcs-sub011/plumbing"
	"github.com/statewalker/vcs-sub011/plumbing/object"
	"github.com/statewalker/vcs-sub011/refs"
)

// TagCreateCommand creates a lightweight or annotated tag.
type TagCreateCommand struct {
	repo      *Repo
	name      string
	target    plumbing.Hash
	annotated bool
	message   string
	tagger    object.Signature
}

// TagCreate returns a builder for a tag named name pointing at target.
func (r *Repo) TagCreate(name string, target plumbing.Hash) *TagCreateCommand {
	return &TagCreateCommand{repo: r, name: name, target: target}
}

// SetAnnotated selects an annotated tag: Call stores a tag object and
// points the ref at it instead of directly at target.
func (c *TagCreateCommand) SetAnnotated(annotated bool) *TagCreateCommand {
	c.annotated = annotated
	return c
}

func (c *TagCreateCommand) SetMessage(message string) *TagCreateCommand {
	c.message = message
	return c
}

func (c *TagCreateCommand) SetTagger(s object.Signature) *TagCreateCommand {
	c.tagger = s
	return c
}

func (c *TagCreateCommand) Call(ctx context.Context) (plumbing.Hash, error) {
	r := c.repo
	refTarget := c.target

	if c.annotated {
		kind, err := r.Store.Kind(ctx, c.target)
		if err != nil {
			return plumbing.ZeroHash, err
		}
		tag := &object.Tag{
			TargetHash: c.target,
			TargetType: kind,
			Name:       c.name,
			Tagger:     c.tagger,
			Message:    c.message,
		}
		hash, err := r.Store.StoreTag(ctx, tag)
		if err != nil {
			return plumbing.ZeroHash, err
		}
		refTarget = hash
	}

	name := refs.NewTagName(c.name)
	if err := r.Refs.CompareAndSwapReference(ctx, refs.NewHashReference(name, refTarget), plumbing.ZeroHash); err != nil {
		return plumbing.ZeroHash, fmt.Errorf("create tag %s: %w", c.name, err)
	}
	return refTarget, nil
}

// TagDeleteCommand removes a tag reference.
type TagDeleteCommand struct {
	repo *Repo
	name string
}

// TagDelete returns a builder that deletes tag name.
func (r *Repo) TagDelete(name string) *TagDeleteCommand {
	return &TagDeleteCommand{repo: r, name: name}
}

func (c *TagDeleteCommand) Call(ctx context.Context) error {
	return c.repo.Refs.RemoveReference(ctx, refs.NewTagName(c.name))
}
