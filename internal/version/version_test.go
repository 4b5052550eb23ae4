package version

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStringIncludesBuildInfo(t *testing.T) {
	oldV, oldC := Version, Commit
	t.Cleanup(func() { Version, Commit = oldV, oldC })

	Version, Commit = "1.2.3", "abc123"
	require.Equal(t, "feewatch 1.2.3 (commit abc123, built unknown)", String())
}
