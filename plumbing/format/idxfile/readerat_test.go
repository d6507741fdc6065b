package idxfile_test

import (
	"io"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/statewalker/vcs-sub011/plumbing"
	"github.com/statewalker/vcs-sub011/plumbing/format/idxfile"
)

type ReaderAtIndexSuite struct {
	suite.Suite
}

func TestReaderAtIndexSuite(t *testing.T) {
	suite.Run(t, new(ReaderAtIndexSuite))
}

func (s *ReaderAtIndexSuite) fixtureIndex() *idxfile.ReaderAtIndex {
	_, encoded, err := buildFixtureIndex()
	s.Require().NoError(err)

	idx, err := idxfile.NewReaderAtIndex(newReaderAtFile(encoded), plumbing.HashSize)
	s.Require().NoError(err)
	return idx
}

func (s *ReaderAtIndexSuite) TestCount() {
	idx := s.fixtureIndex()
	defer idx.Close()

	count, err := idx.Count()
	s.NoError(err)
	s.Equal(int64(len(fixtureEntries)), count)
}

func (s *ReaderAtIndexSuite) TestContains() {
	idx := s.fixtureIndex()
	defer idx.Close()

	for _, h := range fixtureHashes() {
		ok, err := idx.Contains(h)
		s.NoError(err)
		s.True(ok)
	}

	ok, err := idx.Contains(plumbing.ZeroHash)
	s.NoError(err)
	s.False(ok)
}

func (s *ReaderAtIndexSuite) TestFindOffset() {
	idx := s.fixtureIndex()
	defer idx.Close()

	for i, h := range fixtureHashes() {
		offset, err := idx.FindOffset(h)
		s.NoError(err)
		s.Equal(fixtureOffsets()[i], offset)
	}
}

func (s *ReaderAtIndexSuite) TestFindCRC32() {
	idx := s.fixtureIndex()
	defer idx.Close()

	for i, h := range fixtureHashes() {
		crc, err := idx.FindCRC32(h)
		s.NoError(err)
		s.Equal(fixtureEntries[i].crc, crc)
	}
}

func (s *ReaderAtIndexSuite) TestFindHash() {
	idx := s.fixtureIndex()
	defer idx.Close()

	for i, offset := range fixtureOffsets() {
		h, err := idx.FindHash(offset)
		s.NoError(err)
		s.Equal(fixtureHashes()[i], h)
	}
}

func (s *ReaderAtIndexSuite) TestEntries() {
	idx := s.fixtureIndex()
	defer idx.Close()

	iter, err := idx.Entries()
	s.Require().NoError(err)

	var count int
	for {
		_, err := iter.Next()
		if err == io.EOF {
			break
		}
		s.Require().NoError(err)
		count++
	}
	s.Equal(len(fixtureEntries), count)
}

func (s *ReaderAtIndexSuite) TestEntriesByOffset() {
	idx := s.fixtureIndex()
	defer idx.Close()

	iter, err := idx.EntriesByOffset()
	s.Require().NoError(err)

	var last uint64
	var count int
	for {
		e, err := iter.Next()
		if err == io.EOF {
			break
		}
		s.Require().NoError(err)
		s.GreaterOrEqual(e.Offset, last)
		last = e.Offset
		count++
	}
	s.Equal(len(fixtureEntries), count)
}

func (s *ReaderAtIndexSuite) TestClose() {
	_, encoded, err := buildFixtureIndex()
	s.Require().NoError(err)

	f := newReaderAtFile(encoded)
	idx, err := idxfile.NewReaderAtIndex(f, plumbing.HashSize)
	s.Require().NoError(err)

	s.NoError(idx.Close())
	s.True(f.closed)
}
