package packp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCapabilitiesDecode(t *testing.T) {
	cap := NewCapabilities()
	cap.Decode("symref=foo symref=qux thin-pack")

	require.Len(t, cap.m, 2)
	assert.Equal(t, []string{"foo", "qux"}, cap.Get("symref").Values)
	assert.Equal(t, []string{""}, cap.Get("thin-pack").Values)
}

func TestCapabilitiesSet(t *testing.T) {
	cap := NewCapabilities()
	cap.Add("symref", "foo", "qux")
	cap.Set("symref", "bar")

	require.Len(t, cap.m, 1)
	assert.Equal(t, []string{"bar"}, cap.Get("symref").Values)
}

func TestCapabilitiesSetEmpty(t *testing.T) {
	cap := NewCapabilities()
	cap.Set("foo", "bar")

	assert.Len(t, cap.Get("foo").Values, 1)
}

func TestCapabilitiesAdd(t *testing.T) {
	cap := NewCapabilities()
	cap.Add("symref", "foo", "qux")
	cap.Add("thin-pack")

	assert.Equal(t, "symref=foo symref=qux thin-pack", cap.String())
}

func TestCapabilitiesIsEmpty(t *testing.T) {
	cap := NewCapabilities()
	assert.True(t, cap.IsEmpty())

	cap.Add("thin-pack")
	assert.False(t, cap.IsEmpty())
}

func TestCapabilitiesSymbolicReference(t *testing.T) {
	cap := NewCapabilities()
	cap.Add("symref", "HEAD:refs/heads/main")

	assert.Equal(t, "refs/heads/main", cap.SymbolicReference("HEAD"))
	assert.Equal(t, "", cap.SymbolicReference("refs/heads/other"))
}

func TestCapabilitiesSort(t *testing.T) {
	cap := NewCapabilities()
	cap.Add("thin-pack")
	cap.Add("symref", "HEAD:refs/heads/main")
	cap.Sort()

	assert.Equal(t, "symref=HEAD:refs/heads/main thin-pack", cap.String())
}
