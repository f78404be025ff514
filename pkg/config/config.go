// Package config loads the rpmirror configuration: where the mirror trees and
// package databases live, which architectures are considered, and the
// settings of the download and logging layers.
package config

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/glorpus-work/rpmirror/pkg/auth"
	"github.com/glorpus-work/rpmirror/pkg/errors"
	"github.com/glorpus-work/rpmirror/pkg/fsutil"
	"github.com/glorpus-work/rpmirror/pkg/metadata"
	"github.com/glorpus-work/rpmirror/pkg/repomd"
	"github.com/glorpus-work/rpmirror/pkg/updateinfo"
)

// Config represents the application configuration.
type Config struct {
	// Layout. Relative paths are resolved against MirrorRoot.
	MirrorRoot     string `yaml:"mirror_root"`
	ReleaseVersion string `yaml:"release_version"`
	BaseArch       string `yaml:"base_arch"`
	UpdatesDir     string `yaml:"updates_dir"`
	ReleasesDir    string `yaml:"releases_dir"`

	// Package databases.
	InstalledDB string `yaml:"installed_db"`
	ReleaseDB   string `yaml:"release_db"`

	ResolveArches []string `yaml:"resolve_arches,flow"`
	ParseArches   []string `yaml:"parse_arches,flow"`

	FeedFormat string `yaml:"feed_format"`

	Settings Settings `yaml:"settings"`
}

// Settings represents general application settings.
type Settings struct {
	// Network settings
	MirrorURL   string        `yaml:"mirror_url"`
	Workers     int           `yaml:"workers"`
	HTTPTimeout time.Duration `yaml:"http_timeout"`
	// MirrorAuth holds optional credentials for mirror_url.
	MirrorAuth auth.Credentials `yaml:"mirror_auth,omitempty"`

	ExcludeScript string `yaml:"exclude_script,omitempty"`

	// Output settings
	LogLevel  string `yaml:"log_level"`  // debug, info, warn, error
	LogFormat string `yaml:"log_format"` // text, json
}

// Default configuration values.
const (
	DefaultReleaseVersion = "23"
	DefaultBaseArch       = "x86_64"
	DefaultMirrorURL      = "https://archives.fedoraproject.org/pub/archive/fedora/linux"
	DefaultInstalledDB    = "installed.db"

	// DefaultHTTPTimeout is the default timeout for HTTP requests.
	DefaultHTTPTimeout = 5 * time.Minute

	// DefaultWorkers is the default number of parallel downloads and checksum workers.
	DefaultWorkers = 4

	// YAMLIndent is the number of spaces to use for YAML indentation.
	YAMLIndent = 2
)

// Default arch sets.
var (
	DefaultResolveArches = []string{"x86_64", "noarch"}
	DefaultParseArches   = []string{"i686", "x86_64", "noarch"}
)

// DefaultUpdatesDir is the updates tree of a release and arch.
func DefaultUpdatesDir(release, arch string) string {
	return filepath.Join("updates", release, arch)
}

// DefaultReleasesDir is the frozen Everything tree of a release and arch.
func DefaultReleasesDir(release, arch string) string {
	return filepath.Join("releases", release, "Everything", arch, "os")
}

// DefaultReleaseDB is the release snapshot database of a release and arch.
func DefaultReleaseDB(release, arch string) string {
	return fmt.Sprintf("everything-%s-%s.db", release, arch)
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// LoadConfig loads configuration from a file. A missing file yields the
// defaults.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, errors.ErrEmptyConfigPath
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrInvalidConfigPath, err.Error())
	}

	file, err := os.Open(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, errors.Wrapf(err, "failed to open config file: %s", path)
	}
	defer func() { _ = file.Close() }()

	return LoadConfigFromReader(file)
}

// LoadConfigFromReader loads configuration from an io.Reader.
func LoadConfigFromReader(reader io.Reader) (*Config, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config data")
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("%w: %s", errors.ErrConfigParse, err.Error())
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// SaveConfig writes the configuration to path through a temp file and rename.
func (c *Config) SaveConfig(path string) error {
	if path == "" {
		return errors.ErrEmptyConfigPath
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return errors.Wrap(errors.ErrInvalidConfigPath, err.Error())
	}

	if err := os.MkdirAll(filepath.Dir(absPath), fsutil.DirModeDefault); err != nil {
		return errors.Wrap(errors.ErrConfigDirectory, err.Error())
	}

	tempPath := absPath + ".tmp"
	file, err := os.OpenFile(tempPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, fsutil.FileModeDefault)
	if err != nil {
		return errors.Wrap(errors.ErrConfigFileCreate, err.Error())
	}

	encoder := yaml.NewEncoder(file)
	encoder.SetIndent(YAMLIndent)

	if err := encoder.Encode(c); err != nil {
		_ = file.Close()
		_ = os.Remove(tempPath)
		return errors.Wrap(errors.ErrConfigEncode, err.Error())
	}

	_ = encoder.Close()
	_ = file.Close()

	if err := os.Rename(tempPath, absPath); err != nil {
		_ = os.Remove(tempPath)
		return errors.Wrap(errors.ErrConfigFileRename, err.Error())
	}
	return nil
}

// ToYAML converts the config to YAML bytes.
func (c *Config) ToYAML() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, errors.Wrap(errors.ErrConfigMarshal, err.Error())
	}
	return data, nil
}

// Validate checks if the configuration is valid. Every error wraps
// errors.ErrConfigValidation.
func (c *Config) Validate() error {
	if c == nil {
		return errors.ErrConfigValidation
	}
	if err := validateLayout(c); err != nil {
		return err
	}
	if _, err := updateinfo.ParseFeedFormat(c.FeedFormat); err != nil {
		return err
	}
	return validateSettings(c.Settings)
}

func validateLayout(c *Config) error {
	required := []struct{ name, value string }{
		{"mirror_root", c.MirrorRoot},
		{"updates_dir", c.UpdatesDir},
		{"releases_dir", c.ReleasesDir},
		{"installed_db", c.InstalledDB},
		{"release_db", c.ReleaseDB},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return errors.ErrEmptyFieldWithName(r.name)
		}
	}
	if len(metadata.NewArchSet(c.ResolveArches...)) == 0 {
		return errors.ErrEmptyFieldWithName("resolve_arches")
	}
	if len(metadata.NewArchSet(c.ParseArches...)) == 0 {
		return errors.ErrEmptyFieldWithName("parse_arches")
	}
	return nil
}

func validateSettings(s Settings) error {
	if s.HTTPTimeout < 0 {
		return fmt.Errorf("http_timeout cannot be negative: %w", errors.ErrConfigValidation)
	}
	if s.Workers < 1 {
		return fmt.Errorf("workers must be at least 1: %w", errors.ErrConfigValidation)
	}
	if s.MirrorURL != "" {
		u, err := url.Parse(s.MirrorURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("invalid mirror_url %q: %w", s.MirrorURL, errors.ErrConfigValidation)
		}
	}
	if _, err := s.MirrorAuth.Authenticator(); err != nil {
		return err
	}
	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[strings.ToLower(s.LogFormat)] {
		return errors.ErrInvalidLogFormatWithDetails(s.LogFormat)
	}
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(s.LogLevel)] {
		return errors.ErrInvalidLogLevelWithDetails(s.LogLevel)
	}
	return nil
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user config directory: %w", err)
	}
	return filepath.Join(configDir, "rpmirror", "config.yaml"), nil
}

// applyDefaults fills in missing values with defaults. Derived paths follow
// the configured release version and base arch.
func (c *Config) applyDefaults() {
	if c.MirrorRoot == "" {
		c.MirrorRoot = "."
	}
	if c.ReleaseVersion == "" {
		c.ReleaseVersion = DefaultReleaseVersion
	}
	if c.BaseArch == "" {
		c.BaseArch = DefaultBaseArch
	}
	if c.UpdatesDir == "" {
		c.UpdatesDir = DefaultUpdatesDir(c.ReleaseVersion, c.BaseArch)
	}
	if c.ReleasesDir == "" {
		c.ReleasesDir = DefaultReleasesDir(c.ReleaseVersion, c.BaseArch)
	}
	if c.InstalledDB == "" {
		c.InstalledDB = DefaultInstalledDB
	}
	if c.ReleaseDB == "" {
		c.ReleaseDB = DefaultReleaseDB(c.ReleaseVersion, c.BaseArch)
	}
	if len(c.ResolveArches) == 0 {
		c.ResolveArches = append([]string(nil), DefaultResolveArches...)
	}
	if len(c.ParseArches) == 0 {
		c.ParseArches = append([]string(nil), DefaultParseArches...)
	}
	if c.FeedFormat == "" {
		c.FeedFormat = string(updateinfo.FormatLegacy)
	}

	if c.Settings.MirrorURL == "" {
		c.Settings.MirrorURL = DefaultMirrorURL
	}
	if c.Settings.Workers == 0 {
		c.Settings.Workers = DefaultWorkers
	}
	if c.Settings.HTTPTimeout == 0 {
		c.Settings.HTTPTimeout = DefaultHTTPTimeout
	}
	if c.Settings.LogLevel == "" {
		c.Settings.LogLevel = "info"
	}
	if c.Settings.LogFormat == "" {
		c.Settings.LogFormat = "text"
	}
}

// Path resolves p against the mirror root unless it is absolute.
func (c *Config) Path(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.MirrorRoot, p)
}

// UpdatesPath is the local updates tree.
func (c *Config) UpdatesPath() string { return c.Path(c.UpdatesDir) }

// ReleasesPath is the local release tree.
func (c *Config) ReleasesPath() string { return c.Path(c.ReleasesDir) }

// InstalledDBPath is the installed-package database.
func (c *Config) InstalledDBPath() string { return c.Path(c.InstalledDB) }

// ReleaseDBPath is the release snapshot database.
func (c *Config) ReleaseDBPath() string { return c.Path(c.ReleaseDB) }

// ManifestPath is the updates repomd.xml.
func (c *Config) ManifestPath() string {
	return filepath.Join(c.UpdatesPath(), filepath.FromSlash(repomd.ManifestPath))
}

// UpdatesPrimaryDB is where check leaves the decompressed updates primary database.
func (c *Config) UpdatesPrimaryDB() string {
	return filepath.Join(c.UpdatesPath(), "repodata", "primary.db")
}

// ResolveArchSet is the arch set used when resolving update decisions.
func (c *Config) ResolveArchSet() metadata.ArchSet { return metadata.NewArchSet(c.ResolveArches...) }

// ParseArchSet is the arch set used for names given without an arch.
func (c *Config) ParseArchSet() metadata.ArchSet { return metadata.NewArchSet(c.ParseArches...) }

// Feed returns the configured feed format. Validate has already vetted it.
func (c *Config) Feed() updateinfo.FeedFormat {
	f, _ := updateinfo.ParseFeedFormat(c.FeedFormat)
	return f
}

// MirrorBaseURL parses settings.mirror_url.
func (c *Config) MirrorBaseURL() (*url.URL, error) {
	u, err := url.Parse(c.Settings.MirrorURL)
	if err != nil {
		return nil, fmt.Errorf("invalid mirror_url %q: %w", c.Settings.MirrorURL, errors.ErrConfigValidation)
	}
	return u, nil
}
