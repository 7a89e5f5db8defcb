package initassets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Materialize_writesAllThreeFiles(t *testing.T) {
	dir := t.TempDir()
	created, err := Materialize(dir)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"index.html", "style.css", "main.js"}, created)

	for _, name := range created {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err)
	}
}

func Test_Materialize_leavesExistingFileUntouched(t *testing.T) {
	dir := t.TempDir()
	custom := []byte("<!-- mine -->")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), custom, 0o644))

	created, err := Materialize(dir)
	require.NoError(t, err)
	assert.NotContains(t, created, "index.html")

	got, err := os.ReadFile(filepath.Join(dir, "index.html"))
	require.NoError(t, err)
	assert.Equal(t, custom, got)
}
