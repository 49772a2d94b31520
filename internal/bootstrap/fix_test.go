package bootstrap

import (
	"os"
	"path/filepath"
	goruntime "runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"iso2god-desktop/internal/domain"
)

// TestInstallOrFixOutputDirCreatesDirectory ensures missing output folders are created.
func TestInstallOrFixOutputDirCreatesDirectory(t *testing.T) {
	target := filepath.Join(t.TempDir(), "games", "god")

	got, changed, err := installOrFixOutputDir(domain.Settings{OutputDir: target})
	require.NoError(t, err)
	assert.False(t, changed, "settings should not change for an explicit dir")
	assert.Equal(t, target, got.OutputDir)
	assert.DirExists(t, target)
}

// TestFixEnginePathUsesLocalBinary ensures a converter in the bin dir is adopted.
func TestFixEnginePathUsesLocalBinary(t *testing.T) {
	binDir := t.TempDir()
	name := "iso2god"
	if goruntime.GOOS == "windows" {
		name += ".exe"
	}
	bin := filepath.Join(binDir, name)
	require.NoError(t, os.WriteFile(bin, []byte("bin"), 0o755))

	got, changed, err := fixEnginePath(domain.Settings{EnginePath: "iso2god"}, binDir, os.Stat)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, bin, got.EnginePath)

	_, changed, err = fixEnginePath(got, binDir, os.Stat)
	require.NoError(t, err)
	assert.False(t, changed)
}

// TestFixEnginePathMissingBinary ensures the user is told where to put it.
func TestFixEnginePathMissingBinary(t *testing.T) {
	binDir := t.TempDir()

	got, changed, err := fixEnginePath(domain.Settings{EnginePath: "iso2god"}, binDir, os.Stat)
	require.Error(t, err)
	assert.False(t, changed)
	assert.Equal(t, "iso2god", got.EnginePath)
}

// TestEnsureLocalBinOnPATH ensures the bin dir is prepended once.
func TestEnsureLocalBinOnPATH(t *testing.T) {
	home := t.TempDir()
	t.Setenv("PATH", "/usr/bin")

	require.NoError(t, ensureLocalBinOnPATH(home))
	require.NoError(t, ensureLocalBinOnPATH(home))

	entries := filepath.SplitList(os.Getenv("PATH"))
	assert.Equal(t, []string{localBinDir(home), "/usr/bin"}, entries)
}
