package config

import (
	"testing"

	"github.com/statewalker/vcs-sub011/refs"
	"github.com/stretchr/testify/suite"
)

type BranchSuite struct {
	suite.Suite
}

func TestBranchSuite(t *testing.T) {
	suite.Run(t, new(BranchSuite))
}

func (s *BranchSuite) TestValidateName() {
	good := Branch{Name: "master", Remote: "origin", Merge: "refs/heads/master"}
	s.NoError(good.Validate())

	bad := Branch{Remote: "origin", Merge: "refs/heads/master"}
	s.Error(bad.Validate())
}

func (s *BranchSuite) TestValidateMerge() {
	good := Branch{Name: "master", Remote: "origin", Merge: "refs/heads/master"}
	s.NoError(good.Validate())

	bad := Branch{Name: "master", Remote: "origin", Merge: "blah"}
	s.ErrorIs(bad.Validate(), ErrBranchInvalidMerge)
}

func (s *BranchSuite) TestMarshal() {
	cfg := NewConfig()
	cfg.Branches["feature"] = &Branch{
		Name:   "feature",
		Remote: "fork",
		Merge:  refs.Name("refs/heads/feature"),
		Rebase: "interactive",
	}

	b, err := cfg.Marshal()
	s.Require().NoError(err)

	cfg2 := NewConfig()
	s.Require().NoError(cfg2.Unmarshal(b))
	s.Equal("fork", cfg2.Branches["feature"].Remote)
	s.Equal(refs.Name("refs/heads/feature"), cfg2.Branches["feature"].Merge)
	s.Equal("interactive", cfg2.Branches["feature"].Rebase)
}
