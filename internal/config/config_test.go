package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdir switches the working directory for the duration of the test so
// config file probing and relative-path resolution are exercised against
// a clean temporary directory.
func chdir(t *testing.T, dir string) {
	t.Helper()

	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}

// TestResolveDefaults verifies the built-in configuration with no config
// file and no environment overrides.
func TestResolveDefaults(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	cfg, err := Resolve("")
	require.NoError(t, err)

	assert.Equal(t, DefaultVersion, cfg.Version)
	assert.Equal(t, DefaultRepoURL, cfg.RepoURL)
	assert.Equal(t, "python3", cfg.Python)
	assert.Equal(t, runtime.NumCPU(), cfg.Jobs)
	assert.True(t, cfg.AptUpdate)
	assert.Contains(t, cfg.AptPackages, "swig")
	assert.Contains(t, cfg.ConfigureFlags, "--enable-shared")

	// The derived layout must live under the (absolutized) work root.
	assert.True(t, filepath.IsAbs(cfg.Root))
	assert.Equal(t, filepath.Join(cfg.Root, "venv"), cfg.VenvDir)
	assert.Equal(t, filepath.Join(cfg.Root, "pjproject"), cfg.SourceDir)
	assert.Equal(t, filepath.Join(cfg.Root, "opt", "pjsip"), cfg.PrefixDir)
	assert.Equal(t, filepath.Join(cfg.PrefixDir, "lib"), cfg.LibDir())
}

// TestResolveYAMLFile verifies that pjforge.yaml in the working directory
// is picked up and merged over the defaults.
func TestResolveYAMLFile(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	yamlBody := `
version: "2.13"
jobs: 2
aptUpdate: false
venvDir: custom-venv
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pjforge.yaml"), []byte(yamlBody), 0o644))

	cfg, err := Resolve("")
	require.NoError(t, err)

	assert.Equal(t, "2.13", cfg.Version)
	assert.Equal(t, 2, cfg.Jobs)
	assert.False(t, cfg.AptUpdate)
	assert.Equal(t, filepath.Join(dir, "custom-venv"), cfg.VenvDir)

	// Fields absent from the file keep their defaults.
	assert.Equal(t, DefaultRepoURL, cfg.RepoURL)
	assert.NotEmpty(t, cfg.AptPackages)
}

// TestResolveJSONCFile verifies JSONC config parsing, including comment
// stripping.
func TestResolveJSONCFile(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	jsoncBody := `{
  // pinned for reproducible builds
  "version": "2.14",
  "jobs": 4,
}`
	path := filepath.Join(dir, "custom.jsonc")
	require.NoError(t, os.WriteFile(path, []byte(jsoncBody), 0o644))

	cfg, err := Resolve(path)
	require.NoError(t, err)
	assert.Equal(t, "2.14", cfg.Version)
	assert.Equal(t, 4, cfg.Jobs)
}

// TestResolveEnvOverrides verifies that PJSIP_VERSION and PJFORGE_ROOT
// take precedence over both defaults and the config file.
func TestResolveEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "pjforge.yaml"), []byte(`version: "2.13"`), 0o644))

	rootOverride := filepath.Join(dir, "elsewhere")
	t.Setenv(EnvVersion, "2.15.1")
	t.Setenv(EnvRoot, rootOverride)

	cfg, err := Resolve("")
	require.NoError(t, err)
	assert.Equal(t, "2.15.1", cfg.Version)
	assert.Equal(t, rootOverride, cfg.Root)
	assert.Equal(t, filepath.Join(rootOverride, "venv"), cfg.VenvDir)
}

// TestResolveDotEnvFile verifies that a .env file feeds the environment
// overrides without clobbering already-exported variables.
func TestResolveDotEnvFile(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("PJSIP_VERSION=2.12.1\n"), 0o644))

	// godotenv only fills variables that are unset, and it writes into the
	// real process environment; clear the variable on both sides of the test.
	require.NoError(t, os.Unsetenv(EnvVersion))
	t.Cleanup(func() { _ = os.Unsetenv(EnvVersion) })

	cfg, err := Resolve("")
	require.NoError(t, err)
	assert.Equal(t, "2.12.1", cfg.Version)
}

// TestResolveErrors exercises the main failure paths: explicit missing
// file, bad version tag, unsupported extension.
func TestResolveErrors(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	t.Run("explicit config file missing", func(t *testing.T) {
		_, err := Resolve(filepath.Join(dir, "nope.yaml"))
		assert.Error(t, err)
	})

	t.Run("invalid version tag", func(t *testing.T) {
		t.Setenv(EnvVersion, "latest")
		_, err := Resolve("")
		assert.Error(t, err)
	})

	t.Run("unsupported extension", func(t *testing.T) {
		path := filepath.Join(dir, "pjforge.toml")
		require.NoError(t, os.WriteFile(path, []byte(""), 0o644))
		_, err := Resolve(path)
		assert.Error(t, err)
	})

	t.Run("negative jobs", func(t *testing.T) {
		path := filepath.Join(dir, "bad-jobs.yaml")
		require.NoError(t, os.WriteFile(path, []byte("jobs: -1"), 0o644))
		_, err := Resolve(path)
		assert.Error(t, err)
	})
}
