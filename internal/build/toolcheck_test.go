package build

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestProbeTools verifies resolution of present tools, alternatives,
// and missing tools. "sh" exists on any POSIX host running these tests.
func TestProbeTools(t *testing.T) {
	reqs := []ToolRequirement{
		{Name: "sh", Purpose: "shell"},
		{Name: "definitely-not-a-real-tool", Alternatives: []string{"sh"}, Purpose: "alternative fallback"},
		{Name: "also-not-a-real-tool", Purpose: "missing"},
	}

	statuses := ProbeTools(reqs)
	require.Len(t, statuses, 3)

	assert.True(t, statuses[0].Found)
	assert.NotEmpty(t, statuses[0].Path)

	// The primary name is missing but the alternative resolves.
	assert.True(t, statuses[1].Found)

	assert.False(t, statuses[2].Found)
	assert.Empty(t, statuses[2].Path)
}

// TestCheckTools verifies that only non-optional missing tools fail the
// check, and that all of them are named at once.
func TestCheckTools(t *testing.T) {
	t.Run("all present", func(t *testing.T) {
		err := CheckTools([]ToolRequirement{{Name: "sh"}})
		assert.NoError(t, err)
	})

	t.Run("optional missing is fine", func(t *testing.T) {
		err := CheckTools([]ToolRequirement{
			{Name: "sh"},
			{Name: "not-a-real-tool", Optional: true},
		})
		assert.NoError(t, err)
	})

	t.Run("required missing are all reported", func(t *testing.T) {
		err := CheckTools([]ToolRequirement{
			{Name: "first-missing-tool"},
			{Name: "sh"},
			{Name: "second-missing-tool"},
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "first-missing-tool")
		assert.Contains(t, err.Error(), "second-missing-tool")
	})
}

// TestRequiredTools sanity-checks the pipeline's tool manifest.
func TestRequiredTools(t *testing.T) {
	reqs := RequiredTools()
	names := make(map[string]ToolRequirement, len(reqs))
	for _, r := range reqs {
		names[r.Name] = r
	}

	for _, essential := range []string{"git", "make", "swig", "python3", "apt-get"} {
		_, ok := names[essential]
		assert.True(t, ok, "tool manifest should include %s", essential)
	}
	assert.Contains(t, names["gcc"].Candidates(), "cc")
	assert.True(t, names["pkg-config"].Optional)
}
