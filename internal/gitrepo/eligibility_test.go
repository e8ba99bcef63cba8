package gitrepo

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeManifest(t *testing.T, dir, content string) {
	t.Helper()
	err := os.WriteFile(filepath.Join(dir, "package.json"), []byte(content), 0o600)
	require.NoError(t, err)
}

func TestCheckEligibilityNoManifest(t *testing.T) {
	dir := t.TempDir()

	elig := checkEligibility(dir)

	assert.False(t, elig.Eligible)
	assert.False(t, elig.ManifestExists)
	assert.Contains(t, elig.Reason, "no package.json")
}

func TestCheckEligibilityUnparsableManifest(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, `{"dependencies": `)

	elig := checkEligibility(dir)

	assert.False(t, elig.Eligible)
	assert.True(t, elig.ManifestExists)
	assert.Contains(t, elig.Reason, "could not be parsed")
}

func TestCheckEligibilityNoFrameworkDep(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, `{"dependencies": {"react": "^18.0.0"}, "devDependencies": {"vite": "^5.0.0"}}`)

	elig := checkEligibility(dir)

	assert.False(t, elig.Eligible)
	assert.True(t, elig.ManifestExists)
	assert.False(t, elig.HasFrameworkDep)
	assert.Contains(t, elig.Reason, "no framework dependency found")
}

func TestCheckEligibilityEligible(t *testing.T) {
	tests := []struct {
		name     string
		manifest string
	}{
		{
			name:     "direct dependency",
			manifest: `{"dependencies": {"tailwindcss": "^3.4.0"}}`,
		},
		{
			name:     "dev dependency",
			manifest: `{"devDependencies": {"tailwindcss": "^4.0.0"}}`,
		},
		{
			name:     "scoped package",
			manifest: `{"devDependencies": {"@tailwindcss/vite": "^4.0.0"}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeManifest(t, dir, tt.manifest)

			elig := checkEligibility(dir)

			assert.True(t, elig.Eligible)
			assert.True(t, elig.HasFrameworkDep)
			assert.Empty(t, elig.Reason)
		})
	}
}

func TestCheckEligibilitySimilarNameRejected(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, `{"dependencies": {"tailwindcss-animate": "^1.0.0"}}`)

	elig := checkEligibility(dir)

	assert.False(t, elig.Eligible)
	assert.Contains(t, elig.Reason, "no framework dependency found")
}
