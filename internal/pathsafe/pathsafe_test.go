package pathsafe

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Resolve_simple(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "index.html"), []byte("hi"), 0o644))

	r := NewResolver(root, false)
	p, err := r.Resolve("/index.html")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "index.html"), p)
}

func Test_Resolve_rejectsTraversal(t *testing.T) {
	root := t.TempDir()
	r := NewResolver(root, false)
	_, err := r.Resolve("/../../../etc/passwd")
	require.Error(t, err)
	var perr *Error
	assert.ErrorAs(t, err, &perr)
}

func Test_Resolve_rejectsEncodedTraversalAfterClean(t *testing.T) {
	root := t.TempDir()
	r := NewResolver(root, false)
	_, err := r.Resolve("/foo/../../bar")
	assert.Error(t, err)
}

func Test_Resolve_missingFileStillResolvesUnderRoot(t *testing.T) {
	root := t.TempDir()
	r := NewResolver(root, false)
	p, err := r.Resolve("/nonexistent.txt")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "nonexistent.txt"), p)
}

func Test_Resolve_rejectsSymlinkEscape(t *testing.T) {
	root := t.TempDir()
	outside := t.TempDir()
	target := filepath.Join(outside, "secret.txt")
	require.NoError(t, os.WriteFile(target, []byte("shh"), 0o644))
	link := filepath.Join(root, "escape")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks unsupported on this platform: %v", err)
	}

	r := NewResolver(root, false)
	_, err := r.Resolve("/escape")
	assert.Error(t, err)
}

func Test_Resolve_allowsSymlinkWhenPolicyPermits(t *testing.T) {
	root := t.TempDir()
	outside := t.TempDir()
	target := filepath.Join(outside, "secret.txt")
	require.NoError(t, os.WriteFile(target, []byte("shh"), 0o644))
	link := filepath.Join(root, "escape")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks unsupported on this platform: %v", err)
	}

	r := NewResolver(root, true)
	p, err := r.Resolve("/escape")
	require.NoError(t, err)
	assert.Equal(t, link, p)
}
