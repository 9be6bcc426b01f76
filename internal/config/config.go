// Package config resolves runner configuration from defaults, the project
// config file (.ai-test-runner.yaml in the repo root), environment variables
// (after a best-effort .env load), and command-line flags, in that order of
// precedence. It also owns the fixed repository layout conventions.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// FileName is the project config file looked up in the repo root.
const FileName = ".ai-test-runner.yaml"

// DefaultUnityURL is the upstream Unity archive used when no reference
// checkout is available.
const DefaultUnityURL = "https://github.com/ThrowTheSwitch/Unity/archive/refs/heads/master.zip"

// DefaultTimeout bounds each test binary's wall-clock run time.
const DefaultTimeout = 30 * time.Second

// ErrConfigFile reports a present but unusable project config file. The
// returned Config is still valid (defaults); callers warn and continue.
var ErrConfigFile = errors.New("config: unusable project config file")

// ToolPaths names the external executables the pipeline invokes. Entries
// are plain names resolved via PATH unless overridden with explicit paths.
type ToolPaths struct {
	CMake   string `yaml:"cmake"`
	Lcov    string `yaml:"lcov"`
	Genhtml string `yaml:"genhtml"`
}

// Config is the fully resolved runner configuration.
type Config struct {
	RepoPath string // absolute repository root
	Output   string // build directory as given (relative to repo unless absolute)
	Verbose  bool

	UnityDir string        // reference Unity checkout to copy from
	UnityURL string        // fallback download URL
	Timeout  time.Duration // per-test-binary limit
	Theme    string

	Tools ToolPaths
}

// fileConfig is the yaml shape of .ai-test-runner.yaml. Zero values mean
// "not set" and leave the defaults in place.
type fileConfig struct {
	UnityDir       string    `yaml:"unity_dir"`
	UnityURL       string    `yaml:"unity_url"`
	TimeoutSeconds int       `yaml:"timeout_seconds"`
	Theme          string    `yaml:"theme"`
	Tools          ToolPaths `yaml:"tools"`
}

// Default returns the built-in configuration for a repository root.
func Default(repoPath string) *Config {
	return &Config{
		RepoPath: repoPath,
		Output:   "build",
		UnityDir: filepath.Join(repoPath, "..", "ai-test-gemini-CLI", "unity"),
		UnityURL: DefaultUnityURL,
		Timeout:  DefaultTimeout,
		Theme:    "default",
		Tools:    ToolPaths{CMake: "cmake", Lcov: "lcov", Genhtml: "genhtml"},
	}
}

// Load resolves the configuration for repoPath. The returned Config is
// always usable; the error is ErrConfigFile-wrapped when the project config
// file exists but cannot be applied (callers warn and keep the defaults),
// or a hard error when the repo path itself cannot be resolved.
func Load(repoPath, output string, verbose bool) (*Config, error) {
	abs, err := filepath.Abs(repoPath)
	if err != nil {
		return nil, fmt.Errorf("resolving repo path %q: %w", repoPath, err)
	}

	cfg := Default(abs)
	cfg.Verbose = verbose
	if output != "" {
		cfg.Output = output
	}

	var fileErr error
	path := filepath.Join(abs, FileName)
	if data, readErr := os.ReadFile(path); readErr == nil { // #nosec G304 - path is repo-rooted
		var fc fileConfig
		if err := yaml.Unmarshal(data, &fc); err != nil {
			fileErr = fmt.Errorf("%w: %s: %v", ErrConfigFile, path, err)
		} else {
			cfg.apply(fc)
		}
	} else if !errors.Is(readErr, os.ErrNotExist) {
		fileErr = fmt.Errorf("%w: %s: %v", ErrConfigFile, path, readErr)
	}

	cfg.applyEnv()

	if !filepath.IsAbs(cfg.UnityDir) {
		cfg.UnityDir = filepath.Join(abs, cfg.UnityDir)
	}

	return cfg, fileErr
}

func (c *Config) apply(fc fileConfig) {
	if fc.UnityDir != "" {
		c.UnityDir = fc.UnityDir
	}
	if fc.UnityURL != "" {
		c.UnityURL = fc.UnityURL
	}
	if fc.TimeoutSeconds > 0 {
		c.Timeout = time.Duration(fc.TimeoutSeconds) * time.Second
	}
	if fc.Theme != "" {
		c.Theme = fc.Theme
	}
	if fc.Tools.CMake != "" {
		c.Tools.CMake = fc.Tools.CMake
	}
	if fc.Tools.Lcov != "" {
		c.Tools.Lcov = fc.Tools.Lcov
	}
	if fc.Tools.Genhtml != "" {
		c.Tools.Genhtml = fc.Tools.Genhtml
	}
}

// applyEnv overlays environment variables. A .env file in the working
// directory is loaded first, best effort.
func (c *Config) applyEnv() {
	_ = godotenv.Load()

	if v := os.Getenv("AI_TEST_RUNNER_UNITY_DIR"); v != "" {
		c.UnityDir = v
	}
	if v := os.Getenv("AI_TEST_RUNNER_UNITY_URL"); v != "" {
		c.UnityURL = v
	}
	if v := os.Getenv("AI_TEST_RUNNER_TIMEOUT"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			c.Timeout = time.Duration(secs) * time.Second
		}
	}
	if v := os.Getenv("AI_TEST_RUNNER_THEME"); v != "" {
		c.Theme = v
	}
}

// Fixed repository layout. The verification and report directories live
// under tests/ by convention; the build tree lives under the repo unless an
// absolute output path was given.

func (c *Config) TestsDir() string        { return filepath.Join(c.RepoPath, "tests") }
func (c *Config) VerificationDir() string { return filepath.Join(c.TestsDir(), "verification_report") }
func (c *Config) ReportsDir() string      { return filepath.Join(c.TestsDir(), "test_reports") }
func (c *Config) SourceDir() string       { return filepath.Join(c.RepoPath, "src") }

func (c *Config) BuildDir() string {
	if filepath.IsAbs(c.Output) {
		return c.Output
	}
	return filepath.Join(c.RepoPath, c.Output)
}
