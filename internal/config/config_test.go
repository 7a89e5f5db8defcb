package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

func Test_Load_serveJSON(t *testing.T) {
	dir := t.TempDir()
	body := `{"public": "dist", "cleanUrls": true, "rewrites": [{"source": "/a", "destination": "/b"}]}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "serve.json"), []byte(body), 0o644))

	cfg, path, err := Load(discardLogger(), dir, "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "serve.json"), path)
	assert.Equal(t, "dist", cfg.Public)
	assert.True(t, cfg.CleanURLs)
	require.Len(t, cfg.Rewrites, 1)
	assert.Equal(t, "/a", cfg.Rewrites[0].Source)
}

func Test_Load_nowJSON(t *testing.T) {
	dir := t.TempDir()
	body := `{"now": {"static": {"public": "out"}}}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "now.json"), []byte(body), 0o644))

	cfg, path, err := Load(discardLogger(), dir, "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "now.json"), path)
	assert.Equal(t, "out", cfg.Public)
}

func Test_Load_packageJSON(t *testing.T) {
	dir := t.TempDir()
	body := `{"name": "app", "static": {"public": "build"}}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "package.json"), []byte(body), 0o644))

	cfg, path, err := Load(discardLogger(), dir, "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "package.json"), path)
	assert.Equal(t, "build", cfg.Public)
}

func Test_Load_searchOrderPrefersServeJSON(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "serve.json"), []byte(`{"public": "first"}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "now.json"), []byte(`{"now": {"static": {"public": "second"}}}`), 0o644))

	cfg, _, err := Load(discardLogger(), dir, "")
	require.NoError(t, err)
	assert.Equal(t, "first", cfg.Public)
}

func Test_Load_noConfigFilePresentUsesDefaults(t *testing.T) {
	dir := t.TempDir()
	cfg, path, err := Load(discardLogger(), dir, "")
	require.NoError(t, err)
	assert.Empty(t, path)
	assert.True(t, *cfg.DirectoryListing)
	assert.True(t, *cfg.Etag)
}

func Test_Load_explicitPathNotFound(t *testing.T) {
	_, _, err := Load(discardLogger(), t.TempDir(), "/no/such/file.json")
	require.Error(t, err)
	var cerr *Error
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, KindFileNotFound, cerr.Kind)
}

func Test_Load_invalidJSON(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "serve.json"), []byte(`{not json`), 0o644))

	_, _, err := Load(discardLogger(), dir, "")
	require.Error(t, err)
	var cerr *Error
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, KindParseError, cerr.Kind)
}

func Test_ResolvePublic_relativeAndAbsolute(t *testing.T) {
	assert.Equal(t, filepath.Join("/srv", "dist"), ResolvePublic(Configuration{Public: "dist"}, "/srv"))
	assert.Equal(t, "/abs/path", ResolvePublic(Configuration{Public: "/abs/path"}, "/srv"))
	assert.Equal(t, "/srv", ResolvePublic(Configuration{}, "/srv"))
}

func Test_Validate_rejectsMissingPublicDir(t *testing.T) {
	err := Validate(Configuration{}, filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
	var cerr *Error
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, KindValidationError, cerr.Kind)
}

func Test_Validate_rejectsRedirectTypeOutOfRange(t *testing.T) {
	dir := t.TempDir()
	cfg := Configuration{Redirects: []Redirect{{Source: "/a", Destination: "/b", Type: 200}}}
	err := Validate(cfg, dir)
	assert.Error(t, err)
}

func Test_Validate_rejectsEmptyRewriteFields(t *testing.T) {
	dir := t.TempDir()
	cfg := Configuration{Rewrites: []Rewrite{{Source: "", Destination: "/b"}}}
	err := Validate(cfg, dir)
	assert.Error(t, err)
}

func Test_Validate_acceptsWellFormedConfig(t *testing.T) {
	dir := t.TempDir()
	cfg := Configuration{
		Rewrites:  []Rewrite{{Source: "/a", Destination: "/b"}},
		Redirects: []Redirect{{Source: "/c", Destination: "/d", Type: 301}},
	}
	assert.NoError(t, Validate(cfg, dir))
}
