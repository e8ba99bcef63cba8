package gitrepo

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSnapshot(t *testing.T) *Snapshot {
	t.Helper()
	root := t.TempDir()

	require.NoError(t, os.MkdirAll(filepath.Join(root, "src", "components"), 0o750))
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".git", "objects"), 0o750))

	files := map[string]string{
		"index.html":                   `<div class="p-4">`,
		"src/app.js":                   "cls('flex')",
		"src/components/Button.vue":    `<template><button class="btn"/></template>`,
		".env":                         "SECRET=1",
		".git/objects/abc":             "blob",
		"src/.hidden.js":               "nope",
	}
	for rel, content := range files {
		full := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o600))
	}

	return &Snapshot{
		root:   root,
		owner:  "octocat",
		name:   "hello-world",
		branch: "main",
		logger: slog.Default(),
	}
}

func TestSnapshotListFiles(t *testing.T) {
	snap := newTestSnapshot(t)

	paths := make(map[string]bool)
	for _, f := range snap.ListFiles() {
		paths[f.Path] = true
	}

	assert.True(t, paths["index.html"])
	assert.True(t, paths["src/app.js"])
	assert.True(t, paths["src/components/Button.vue"])

	assert.False(t, paths[".env"], "dotfiles must be skipped")
	assert.False(t, paths[".git/objects/abc"], "dot-directories must be skipped")
	assert.False(t, paths["src/.hidden.js"], "nested dotfiles must be skipped")
}

func TestSnapshotReadFile(t *testing.T) {
	snap := newTestSnapshot(t)

	content, ok := snap.ReadFile("index.html")
	require.True(t, ok)
	assert.Equal(t, `<div class="p-4">`, content)

	_, ok = snap.ReadFile("does/not/exist.html")
	assert.False(t, ok)

	_, ok = snap.ReadFile("../outside.txt")
	assert.False(t, ok, "paths escaping the snapshot root must be refused")
}

func TestSnapshotCleanupIdempotent(t *testing.T) {
	snap := newTestSnapshot(t)

	snap.Cleanup()
	_, err := os.Stat(snap.Root())
	assert.True(t, os.IsNotExist(err), "snapshot directory should be removed")

	// Second call is a no-op, not a panic or an error log storm.
	snap.Cleanup()
}

func TestNewAcquirerCreatesBaseDir(t *testing.T) {
	base := filepath.Join(t.TempDir(), "clones")

	a, err := NewAcquirer(Config{BaseDir: base, Logger: slog.Default()})
	require.NoError(t, err)
	require.NotNil(t, a)

	info, err := os.Stat(base)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestCleanupOrphansRemovesLeftovers(t *testing.T) {
	base := filepath.Join(t.TempDir(), "clones")

	a, err := NewAcquirer(Config{BaseDir: base, Logger: slog.Default()})
	require.NoError(t, err)

	leftover := filepath.Join(base, "octocat-hello-world-1234")
	require.NoError(t, os.MkdirAll(leftover, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(leftover, "x.html"), []byte("x"), 0o600))

	a.CleanupOrphans()

	_, err = os.Stat(leftover)
	assert.True(t, os.IsNotExist(err))
}
