// Package config handles loading, saving, and resolving the gg
// configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/skaphos/gg/internal/credentials"
)

const (
	// LocalConfigFilename is the per-directory gg config file.
	LocalConfigFilename = ".ggConf.yaml"
	// ConfigAPIVersion is the current config schema apiVersion.
	ConfigAPIVersion = "skaphos.io/gg/v1"
	// ConfigKind is the current config schema kind.
	ConfigKind = "GGConfig"
	// EnvConfig overrides config path resolution.
	EnvConfig = "GG_CONFIG"

	DefaultRemote     = "origin"
	DefaultCompareRef = "origin/master"
	DefaultTrunk      = "master"
)

// DefaultSkipDirectories are always appended to the configured ignore list.
var DefaultSkipDirectories = []string{`\.idea`, `\.DS_Store`}

// Branches configures the branch comparison action.
type Branches struct {
	CompareRef string `yaml:"compareRef,omitempty"`
	Trunk      string `yaml:"trunk,omitempty"`
}

// CloneRepo is one repository the clone command materializes.
type CloneRepo struct {
	RemoteURL string `yaml:"remoteURL"`
	LocalPath string `yaml:"localPath"`
}

// Log configures the logger.
type Log struct {
	Level string `yaml:"level,omitempty"`
	File  string `yaml:"file,omitempty"`
}

// Config represents the gg configuration.
type Config struct {
	APIVersion      string          `yaml:"apiVersion,omitempty"`
	Kind            string          `yaml:"kind,omitempty"`
	SkipDirectories []string        `yaml:"skipDirectories,omitempty"`
	Exclude         []string        `yaml:"exclude,omitempty"`
	TraverseHidden  bool            `yaml:"traverseHidden,omitempty"`
	Jobs            int             `yaml:"jobs,omitempty"`
	Remote          string          `yaml:"remote,omitempty"`
	Branches        Branches        `yaml:"branches,omitempty"`
	SSH             credentials.SSH `yaml:"ssh,omitempty"`
	CloneRepos      []CloneRepo     `yaml:"cloneRepos,omitempty"`
	Log             Log             `yaml:"log,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults applied.
func DefaultConfig() Config {
	return Config{
		Remote: DefaultRemote,
		Branches: Branches{
			CompareRef: DefaultCompareRef,
			Trunk:      DefaultTrunk,
		},
	}
}

// ConfigPath resolves the config file path from override/env/defaults.
func ConfigPath(override string) (string, error) {
	if override != "" {
		if isConfigFilePath(override) {
			return override, nil
		}
		return filepath.Join(override, "config.yaml"), nil
	}

	if env := os.Getenv(EnvConfig); env != "" {
		if isConfigFilePath(env) {
			return env, nil
		}
		return filepath.Join(env, "config.yaml"), nil
	}

	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "gg", "config.yaml"), nil
}

// InitConfigPath resolves where "gg init" should write config.
// Order: explicit override, GG_CONFIG, then local dotfile in cwd.
func InitConfigPath(override, cwd string) (string, error) {
	if override != "" || os.Getenv(EnvConfig) != "" {
		return ConfigPath(override)
	}

	if strings.TrimSpace(cwd) == "" {
		var err error
		cwd, err = os.Getwd()
		if err != nil {
			return "", err
		}
	}
	return filepath.Join(cwd, LocalConfigFilename), nil
}

// ResolveConfigPath resolves config for runtime commands.
// Order: explicit override, GG_CONFIG, nearest local dotfile in cwd/parents,
// then global platform config path.
func ResolveConfigPath(override, cwd string) (string, error) {
	if override != "" || os.Getenv(EnvConfig) != "" {
		return ConfigPath(override)
	}

	if strings.TrimSpace(cwd) == "" {
		var err error
		cwd, err = os.Getwd()
		if err != nil {
			return "", err
		}
	}

	localPath, err := FindNearestConfigPath(cwd)
	if err != nil {
		return "", err
	}
	if localPath != "" {
		return localPath, nil
	}

	return ConfigPath("")
}

// FindNearestConfigPath searches cwd and each parent directory for .ggConf.yaml.
// It returns an empty string when no local config file is found.
func FindNearestConfigPath(cwd string) (string, error) {
	dir := cwd
	for {
		candidate := filepath.Join(dir, LocalConfigFilename)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		} else if !os.IsNotExist(err) {
			return "", err
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}

// Load reads the config file from the given path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := validateConfigGVK(&cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	if _, err := cfg.IgnorePatterns(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if cfg.Jobs < 0 {
		return nil, fmt.Errorf("%s: jobs must not be negative, got %d", path, cfg.Jobs)
	}
	return &cfg, nil
}

// LoadOrDefault is Load, except that a missing file yields DefaultConfig.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		def := DefaultConfig()
		return &def, nil
	}
	return cfg, err
}

// Save writes the config to the given path.
func Save(cfg *Config, path string) error {
	if cfg == nil {
		return errors.New("config is nil")
	}
	applyConfigGVK(cfg)
	if err := validateConfigGVK(cfg); err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// IgnorePatterns compiles skipDirectories plus the defaults. Each fragment
// matches whole path segments.
func (c *Config) IgnorePatterns() ([]*regexp.Regexp, error) {
	fragments := append(append([]string(nil), c.SkipDirectories...), DefaultSkipDirectories...)
	patterns := make([]*regexp.Regexp, 0, len(fragments))
	for _, f := range fragments {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		re, err := regexp.Compile(`(^|/)(?:` + f + `)(/|$)`)
		if err != nil {
			return nil, fmt.Errorf("invalid skipDirectories entry %q: %w", f, err)
		}
		patterns = append(patterns, re)
	}
	return patterns, nil
}

func applyDefaults(cfg *Config) {
	def := DefaultConfig()
	if strings.TrimSpace(cfg.Remote) == "" {
		cfg.Remote = def.Remote
	}
	if strings.TrimSpace(cfg.Branches.CompareRef) == "" {
		cfg.Branches.CompareRef = def.Branches.CompareRef
	}
	if strings.TrimSpace(cfg.Branches.Trunk) == "" {
		cfg.Branches.Trunk = def.Branches.Trunk
	}
}

func isConfigFilePath(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

func applyConfigGVK(cfg *Config) {
	if cfg == nil {
		return
	}
	if strings.TrimSpace(cfg.APIVersion) == "" {
		cfg.APIVersion = ConfigAPIVersion
	}
	if strings.TrimSpace(cfg.Kind) == "" {
		cfg.Kind = ConfigKind
	}
}

// validateConfigGVK checks apiVersion and kind only when they are set.
func validateConfigGVK(cfg *Config) error {
	if cfg == nil {
		return errors.New("config is nil")
	}
	if cfg.APIVersion != "" && cfg.APIVersion != ConfigAPIVersion {
		return fmt.Errorf("unsupported config apiVersion %q (expected %q)", cfg.APIVersion, ConfigAPIVersion)
	}
	if cfg.Kind != "" && cfg.Kind != ConfigKind {
		return fmt.Errorf("unsupported config kind %q (expected %q)", cfg.Kind, ConfigKind)
	}
	return nil
}
