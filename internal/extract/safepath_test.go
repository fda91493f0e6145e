package extract

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSafeMemberPath_Valid(t *testing.T) {
	dest := filepath.Join("/data", "out")

	tests := []struct {
		member string
		want   string
	}{
		{"file.txt", "/data/out/file.txt"},
		{"dir/file.txt", "/data/out/dir/file.txt"},
		{"dir/./file.txt", "/data/out/dir/file.txt"},
		{"a/b/../c", "/data/out/a/c"},
		{".", "/data/out"},
		{"./", "/data/out"},
	}

	for _, tt := range tests {
		got, err := SafeMemberPath(dest, tt.member)
		require.NoError(t, err, "member %q", tt.member)
		assert.Equal(t, filepath.FromSlash(tt.want), got, "member %q", tt.member)
	}
}

func TestSafeMemberPath_Traversal(t *testing.T) {
	dest := filepath.Join("/data", "out")

	members := []string{
		"..",
		"../sibling",
		"../../etc/passwd",
		"a/../../escape",
		"a/b/../../../escape",
		"/etc/passwd",
		`\windows\system32`,
	}

	for _, m := range members {
		_, err := SafeMemberPath(dest, m)
		require.Error(t, err, "member %q should be rejected", m)

		var traversal *TraversalError
		assert.True(t, errors.As(err, &traversal), "member %q: want TraversalError, got %v", m, err)
		assert.Equal(t, m, traversal.Member)
	}
}

func TestSafeMemberPath_PrefixSibling(t *testing.T) {
	// /data/out-sibling shares a string prefix with /data/out but is
	// not a descendant of it.
	_, err := SafeMemberPath("/data/out", "../out-sibling/file")
	require.Error(t, err)
}
