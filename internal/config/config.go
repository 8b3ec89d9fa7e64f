// Package config resolves the pjforge configuration.
//
// Resolution order, later layers overriding earlier ones:
//  1. Built-in defaults (pinned pjproject tag, Debian package set,
//     configure flag set, directory layout).
//  2. An optional config file: pjforge.yaml/.yml parsed with yaml.v3, or
//     pjforge.jsonc/.json parsed by stripping comments with
//     github.com/tidwall/jsonc before standard encoding/json.
//  3. An optional .env file in the working directory (godotenv), which
//     populates the process environment without overriding variables
//     that are already set.
//  4. Process environment overrides (PJSIP_VERSION, PJFORGE_ROOT).
//
// The fixed package and flag sets are configuration data rather than CLI
// flags on purpose: they define what "a pjforge build" is, and a host
// that needs a different set should say so in a checked-in config file.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/joho/godotenv"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/voicelayer/pjforge/internal/model"
)

// Environment variables recognized as overrides.
const (
	// EnvVersion overrides the pinned pjproject release tag.
	EnvVersion = "PJSIP_VERSION"

	// EnvRoot overrides the work root under which venv/, pjproject/ and
	// opt/pjsip/ are created.
	EnvRoot = "PJFORGE_ROOT"
)

// DefaultVersion is the pinned pjproject release tag built when neither
// the config file nor PJSIP_VERSION says otherwise.
const DefaultVersion = "2.14.1"

// DefaultRepoURL is the upstream pjproject repository.
const DefaultRepoURL = "https://github.com/pjsip/pjproject.git"

// fileCandidates are the config file names probed in the working
// directory when --config is not given, in priority order.
var fileCandidates = []string{
	"pjforge.yaml",
	"pjforge.yml",
	"pjforge.jsonc",
	"pjforge.json",
}

// Config holds the fully resolved pipeline configuration.
// After Resolve returns, every field is populated and every path is
// absolute.
type Config struct {
	// Version is the pinned pjproject release tag (e.g. "2.14.1").
	Version string `yaml:"version" json:"version"`

	// RepoURL is the upstream Git repository to clone.
	RepoURL string `yaml:"repoURL" json:"repoURL"`

	// Root is the work root. The default directory layout
	// (venv/, pjproject/, opt/pjsip/) is created beneath it.
	Root string `yaml:"root" json:"root"`

	// VenvDir is the virtual environment directory.
	// Defaults to <root>/venv.
	VenvDir string `yaml:"venvDir" json:"venvDir"`

	// SourceDir is the pjproject checkout directory.
	// Defaults to <root>/pjproject.
	SourceDir string `yaml:"sourceDir" json:"sourceDir"`

	// PrefixDir is the local install prefix for headers, shared
	// libraries, and binaries. Defaults to <root>/opt/pjsip.
	PrefixDir string `yaml:"prefixDir" json:"prefixDir"`

	// Python is the base interpreter used to create the virtual
	// environment. Defaults to "python3".
	Python string `yaml:"python" json:"python"`

	// Jobs is the make parallelism. Zero means "number of CPUs",
	// resolved during finalization.
	Jobs int `yaml:"jobs" json:"jobs"`

	// AptUpdate controls whether "apt-get update" runs before installing
	// missing packages.
	AptUpdate bool `yaml:"aptUpdate" json:"aptUpdate"`

	// AptPackages is the Debian package set the build requires.
	AptPackages []string `yaml:"aptPackages" json:"aptPackages"`

	// ConfigureFlags is the fixed feature set passed to ./configure,
	// in addition to --prefix which is always derived from PrefixDir.
	ConfigureFlags []string `yaml:"configureFlags" json:"configureFlags"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Version:   DefaultVersion,
		RepoURL:   DefaultRepoURL,
		Root:      ".",
		Python:    "python3",
		AptUpdate: true,
		AptPackages: []string{
			"build-essential",
			"pkg-config",
			"git",
			"swig",
			"python3-dev",
			"python3-venv",
			"python3-pip",
			"libssl-dev",
			"libasound2-dev",
			"libopus-dev",
		},
		ConfigureFlags: []string{
			"--enable-shared",
			"--disable-video",
			"--disable-libwebrtc",
			"--disable-opencore-amr",
		},
	}
}

// Resolve produces the effective configuration.
//
// explicitPath is the --config flag value; when empty, the standard file
// candidates are probed and a missing file is not an error. An explicit
// path that does not exist is an error, because the user asked for it.
func Resolve(explicitPath string) (*Config, error) {
	cfg := Default()

	path, err := findConfigFile(explicitPath)
	if err != nil {
		return nil, err
	}
	if path != "" {
		if err := loadFile(cfg, path); err != nil {
			return nil, err
		}
	}

	// .env is optional; godotenv does not override variables that are
	// already exported, so the real environment keeps precedence.
	_ = godotenv.Load()

	applyEnv(cfg)

	if err := cfg.finalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LibDir returns the shared-library directory under the install prefix.
// This is the directory the activation hook prepends to LD_LIBRARY_PATH.
func (c *Config) LibDir() string {
	return filepath.Join(c.PrefixDir, "lib")
}

// findConfigFile resolves which config file to load, if any.
func findConfigFile(explicitPath string) (string, error) {
	if explicitPath != "" {
		if _, err := os.Stat(explicitPath); err != nil {
			return "", model.WrapCLIError(model.ExitConfigError,
				fmt.Sprintf("config file %s not found", explicitPath), err)
		}
		return explicitPath, nil
	}

	for _, name := range fileCandidates {
		if _, err := os.Stat(name); err == nil {
			return name, nil
		}
	}
	return "", nil
}

// loadFile merges a config file into cfg. Fields absent from the file
// keep their current values, which is what makes the defaults act as the
// base layer.
func loadFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.WrapCLIError(model.ExitConfigError,
			fmt.Sprintf("failed to read config file %s", path), err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return model.WrapCLIError(model.ExitConfigError,
				fmt.Sprintf("failed to parse %s", path), err)
		}
	case ".jsonc", ".json":
		// jsonc.ToJSON strips // and /* */ comments plus trailing
		// commas, producing bytes the standard parser accepts.
		if err := json.Unmarshal(jsonc.ToJSON(data), cfg); err != nil {
			return model.WrapCLIError(model.ExitConfigError,
				fmt.Sprintf("failed to parse %s", path), err)
		}
	default:
		return model.NewCLIError(model.ExitConfigError,
			fmt.Sprintf("unsupported config file extension %q (expected .yaml, .yml, .jsonc, or .json)", filepath.Ext(path)))
	}
	return nil
}

// applyEnv applies recognized environment variable overrides.
func applyEnv(cfg *Config) {
	if v := os.Getenv(EnvVersion); v != "" {
		cfg.Version = v
	}
	if v := os.Getenv(EnvRoot); v != "" {
		cfg.Root = v
	}
}

// finalize fills derived fields, absolutizes paths, and validates.
func (c *Config) finalize() error {
	if err := model.ValidateVersionTag(c.Version); err != nil {
		return model.WrapCLIError(model.ExitConfigError, "invalid pinned version", err)
	}
	if c.RepoURL == "" {
		return model.NewCLIError(model.ExitConfigError, "repoURL must not be empty")
	}
	if c.Python == "" {
		return model.NewCLIError(model.ExitConfigError, "python interpreter must not be empty")
	}
	if c.Jobs < 0 {
		return model.NewCLIError(model.ExitConfigError, fmt.Sprintf("jobs must be >= 0, got %d", c.Jobs))
	}
	if c.Jobs == 0 {
		c.Jobs = runtime.NumCPU()
	}

	root, err := filepath.Abs(c.Root)
	if err != nil {
		return model.WrapCLIError(model.ExitConfigError, "failed to resolve work root", err)
	}
	c.Root = root

	// Derived layout: only fill directories the user did not pin.
	if c.VenvDir == "" {
		c.VenvDir = filepath.Join(c.Root, "venv")
	}
	if c.SourceDir == "" {
		c.SourceDir = filepath.Join(c.Root, "pjproject")
	}
	if c.PrefixDir == "" {
		c.PrefixDir = filepath.Join(c.Root, "opt", "pjsip")
	}

	for _, p := range []*string{&c.VenvDir, &c.SourceDir, &c.PrefixDir} {
		abs, err := filepath.Abs(*p)
		if err != nil {
			return model.WrapCLIError(model.ExitConfigError, "failed to resolve directory", err)
		}
		*p = abs
	}

	if len(c.AptPackages) == 0 {
		return model.NewCLIError(model.ExitConfigError, "aptPackages must not be empty")
	}
	return nil
}
