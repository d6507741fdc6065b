// Package config models the structured contents of a .git/config file,
// layering remote, branch and identity semantics on top of the raw
// section/option codec in plumbing/format/config.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"sort"

	format "github.com/statewalker/vcs-sub011/plumbing/format/config"
)

// DefaultFetchRefSpec is the refspec used for fetch when a remote
// declares none of its own.
const DefaultFetchRefSpec = "+refs/heads/*:refs/remotes/%s/*"

// DefaultPackWindow is the delta-compression window used when a
// config has no pack.window override.
const DefaultPackWindow = uint(10)

var (
	// ErrRemoteConfigEmptyName is returned when a remote config has no name.
	ErrRemoteConfigEmptyName = errors.New("remote config: empty name")
	// ErrRemoteConfigEmptyURL is returned when a remote config has no URLs.
	ErrRemoteConfigEmptyURL = errors.New("remote config: empty URL")
)

const (
	coreSection      = "core"
	packSection      = "pack"
	userSection      = "user"
	authorSection    = "author"
	committerSection = "committer"
	remoteSection    = "remote"
	branchSection    = "branch"

	bareKey     = "bare"
	worktreeKey = "worktree"
	windowKey   = "window"
	nameKey     = "name"
	emailKey    = "email"
	urlKey      = "url"
	fetchKey    = "fetch"
	mirrorKey   = "mirror"
)

// Config is the structured view of a repository's configuration: the
// identity used to sign commits, remotes, branch tracking information
// and pack tuning parameters, with Raw retaining everything the
// low-level codec parsed so round-tripping never drops unknown keys.
type Config struct {
	Core struct {
		IsBare   bool
		Worktree string
	}

	User struct {
		Name  string
		Email string
	}

	Author struct {
		Name  string
		Email string
	}

	Committer struct {
		Name  string
		Email string
	}

	Pack struct {
		// Window controls how many previously written objects are
		// considered as delta bases; 0 disables delta compression.
		Window uint
	}

	// Remotes indexed by name.
	Remotes map[string]*RemoteConfig
	// Branches indexed by name.
	Branches map[string]*Branch

	// Raw preserves the parsed sections exactly as read, so fields this
	// type doesn't model survive a read/modify/write round trip.
	Raw *format.Config
}

// NewConfig returns an empty Config with its maps initialized and
// default values applied.
func NewConfig() *Config {
	c := &Config{
		Remotes:  make(map[string]*RemoteConfig),
		Branches: make(map[string]*Branch),
		Raw:      format.New(),
	}
	c.Pack.Window = DefaultPackWindow
	return c
}

// ReadConfig parses b as a git config file.
func ReadConfig(b []byte) (*Config, error) {
	c := NewConfig()
	if err := c.Unmarshal(b); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks that every remote and branch is internally
// consistent and indexed under its own name.
func (c *Config) Validate() error {
	for name, r := range c.Remotes {
		if r.Name != name {
			return errors.New("remote config: name does not match map key")
		}
		if err := r.Validate(); err != nil {
			return err
		}
	}

	for name, b := range c.Branches {
		if b.Name != name {
			return errors.New("branch config: name does not match map key")
		}
		if err := b.Validate(); err != nil {
			return err
		}
	}

	return nil
}

// Unmarshal decodes b into c, replacing any previously parsed state.
func (c *Config) Unmarshal(b []byte) error {
	r := bytes.NewBuffer(b)
	d := format.NewDecoder(r)

	c.Raw = format.New()
	if err := d.Decode(c.Raw); err != nil {
		return err
	}

	c.unmarshalCore()
	c.unmarshalUser()
	if err := c.unmarshalPack(); err != nil {
		return err
	}
	if err := c.unmarshalBranches(); err != nil {
		return err
	}
	return c.unmarshalRemotes()
}

func (c *Config) unmarshalCore() {
	s := c.Raw.Section(coreSection)
	c.Core.IsBare = s.Option(bareKey) == "true"
	c.Core.Worktree = s.Option(worktreeKey)
}

func (c *Config) unmarshalUser() {
	s := c.Raw.Section(userSection)
	c.User.Name = s.Option(nameKey)
	c.User.Email = s.Option(emailKey)

	s = c.Raw.Section(authorSection)
	c.Author.Name = s.Option(nameKey)
	c.Author.Email = s.Option(emailKey)

	s = c.Raw.Section(committerSection)
	c.Committer.Name = s.Option(nameKey)
	c.Committer.Email = s.Option(emailKey)
}

func (c *Config) unmarshalPack() error {
	s := c.Raw.Section(packSection)
	window := s.Option(windowKey)
	if window == "" {
		c.Pack.Window = DefaultPackWindow
		return nil
	}

	var n uint
	if _, err := fmt.Sscanf(window, "%d", &n); err != nil {
		return fmt.Errorf("pack.window: %w", err)
	}
	c.Pack.Window = n
	return nil
}

func (c *Config) unmarshalRemotes() error {
	s := c.Raw.Section(remoteSection)
	for _, sub := range s.Subsections {
		r := &RemoteConfig{}
		if err := r.unmarshal(sub); err != nil {
			return err
		}
		c.Remotes[r.Name] = r
	}
	return nil
}

func (c *Config) unmarshalBranches() error {
	s := c.Raw.Section(branchSection)
	for _, sub := range s.Subsections {
		b := &Branch{}
		if err := b.unmarshal(sub); err != nil {
			return err
		}
		c.Branches[b.Name] = b
	}
	return nil
}

// Marshal encodes c back into git config file format.
func (c *Config) Marshal() ([]byte, error) {
	c.marshalCore()
	c.marshalUser()
	c.marshalPack()
	c.marshalRemotes()
	c.marshalBranches()

	buf := bytes.NewBuffer(nil)
	if err := format.NewEncoder(buf).Encode(c.Raw); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (c *Config) marshalCore() {
	s := c.Raw.Section(coreSection)
	s.SetOption(bareKey, fmt.Sprintf("%t", c.Core.IsBare))
	if c.Core.Worktree != "" {
		s.SetOption(worktreeKey, c.Core.Worktree)
	}
}

func (c *Config) marshalUser() {
	s := c.Raw.Section(userSection)
	if c.User.Name != "" {
		s.SetOption(nameKey, c.User.Name)
	}
	if c.User.Email != "" {
		s.SetOption(emailKey, c.User.Email)
	}

	s = c.Raw.Section(authorSection)
	if c.Author.Name != "" {
		s.SetOption(nameKey, c.Author.Name)
	}
	if c.Author.Email != "" {
		s.SetOption(emailKey, c.Author.Email)
	}

	s = c.Raw.Section(committerSection)
	if c.Committer.Name != "" {
		s.SetOption(nameKey, c.Committer.Name)
	}
	if c.Committer.Email != "" {
		s.SetOption(emailKey, c.Committer.Email)
	}
}

func (c *Config) marshalPack() {
	s := c.Raw.Section(packSection)
	if c.Pack.Window != DefaultPackWindow {
		s.SetOption(windowKey, fmt.Sprintf("%d", c.Pack.Window))
	}
}

func (c *Config) marshalRemotes() {
	s := c.Raw.Section(remoteSection)
	names := make([]string, 0, len(c.Remotes))
	for name := range c.Remotes {
		names = append(names, name)
	}
	sort.Strings(names)

	subs := make(format.Subsections, 0, len(names))
	for _, name := range names {
		subs = append(subs, c.Remotes[name].marshal())
	}
	s.Subsections = subs
}

func (c *Config) marshalBranches() {
	s := c.Raw.Section(branchSection)
	names := make([]string, 0, len(c.Branches))
	for name := range c.Branches {
		names = append(names, name)
	}
	sort.Strings(names)

	subs := make(format.Subsections, 0, len(names))
	for _, name := range names {
		subs = append(subs, c.Branches[name].marshal())
	}
	s.Subsections = subs
}

// RemoteConfig is the remote.<name> section of a config file.
type RemoteConfig struct {
	// Name of the remote.
	Name string
	// URLs of the remote; fetch always uses the first, push uses all.
	URLs []string
	// Mirror marks the repository as a mirror of the remote.
	Mirror bool
	// Fetch is the set of refspecs used when fetching.
	Fetch []RefSpec

	raw *format.Subsection
}

// Validate checks that r is well formed and fills in a default fetch
// refspec when none was configured.
func (r *RemoteConfig) Validate() error {
	if r.Name == "" {
		return ErrRemoteConfigEmptyName
	}
	if len(r.URLs) == 0 {
		return ErrRemoteConfigEmptyURL
	}

	for _, rs := range r.Fetch {
		if err := rs.Validate(); err != nil {
			return err
		}
	}

	if len(r.Fetch) == 0 {
		r.Fetch = []RefSpec{RefSpec(fmt.Sprintf(DefaultFetchRefSpec, r.Name))}
	}

	return nil
}

func (r *RemoteConfig) unmarshal(s *format.Subsection) error {
	r.raw = s
	r.Name = s.Name
	r.URLs = append([]string(nil), s.OptionAll(urlKey)...)
	r.Mirror = s.Option(mirrorKey) == "true"

	for _, f := range s.OptionAll(fetchKey) {
		rs := RefSpec(f)
		if err := rs.Validate(); err != nil {
			return err
		}
		r.Fetch = append(r.Fetch, rs)
	}

	return nil
}

func (r *RemoteConfig) marshal() *format.Subsection {
	if r.raw == nil {
		r.raw = &format.Subsection{}
	}

	r.raw.Name = r.Name
	if len(r.URLs) == 0 {
		r.raw.RemoveOption(urlKey)
	} else {
		r.raw.SetOption(urlKey, r.URLs...)
	}

	if len(r.Fetch) == 0 {
		r.raw.RemoveOption(fetchKey)
	} else {
		values := make([]string, len(r.Fetch))
		for i, rs := range r.Fetch {
			values[i] = rs.String()
		}
		r.raw.SetOption(fetchKey, values...)
	}

	if r.Mirror {
		r.raw.SetOption(mirrorKey, "true")
	}

	return r.raw
}
