package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"

	"github.com/glorpus-work/rpmirror/internal/logger"
	"github.com/glorpus-work/rpmirror/pkg/config"
	"github.com/glorpus-work/rpmirror/pkg/errors"
	"github.com/glorpus-work/rpmirror/pkg/fsutil"
	"github.com/glorpus-work/rpmirror/pkg/inventory"
	"github.com/glorpus-work/rpmirror/pkg/metadata"
	"github.com/glorpus-work/rpmirror/pkg/policy"
	"github.com/glorpus-work/rpmirror/pkg/repomd"
	"github.com/glorpus-work/rpmirror/pkg/resolver"
	"github.com/glorpus-work/rpmirror/pkg/updateinfo"
)

// These variables will be set by the main package
var (
	ConfigPath *string
	Verbose    *bool
	LogFormat  *string
)

// Repository tags used in resolver output and store errors.
const (
	TagUpdates = "updates"
	TagRelease = "release"
)

func getConfigPath() string {
	if ConfigPath != nil && *ConfigPath != "" {
		return *ConfigPath
	}

	defaultPath, err := config.GetDefaultConfigPath()
	if err != nil {
		logger.Warn("Failed to get default config path, using empty path", logger.Fields{"error": err})
		return ""
	}
	return defaultPath
}

// loadConfig loads the configuration, applies the global flags and sets up
// the logger.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(getConfigPath())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if Verbose != nil && *Verbose {
		cfg.Settings.LogLevel = "debug"
	}
	if LogFormat != nil && *LogFormat != "" {
		cfg.Settings.LogFormat = *LogFormat
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	logger.InitLogger(cfg.Settings.LogLevel, logger.ParseFormat(cfg.Settings.LogFormat))
	return cfg, nil
}

// checkEnv makes sure the inputs shared by every feed-reading command are in
// place and returns the path of the updateinfo feed.
func checkEnv(cfg *config.Config) (string, error) {
	if !fsutil.FileExists(cfg.InstalledDBPath()) {
		return "", fmt.Errorf("missing %s file, run 'lget' first: %w", cfg.InstalledDB, errors.ErrMissingInput)
	}
	if !fsutil.FileExists(cfg.ManifestPath()) {
		return "", fmt.Errorf("missing %s, run 'fetch' first: %w", cfg.ManifestPath(), errors.ErrMissingInput)
	}
	m, err := repomd.Parse(cfg.ManifestPath())
	if err != nil {
		return "", err
	}
	href, ok := m.FindHref(repomd.TypeUpdateInfo)
	if !ok {
		return "", fmt.Errorf("no updateinfo in %s: %w", cfg.ManifestPath(), errors.ErrMissingInput)
	}
	feed := filepath.Join(cfg.UpdatesPath(), filepath.FromSlash(href))
	if !fsutil.FileExists(feed) {
		return "", fmt.Errorf("missing %s, run 'fetch' first: %w", feed, errors.ErrMissingInput)
	}
	return feed, nil
}

// newReader builds an update metadata reader over installed, loading the
// exclusion script when one is configured.
func newReader(cfg *config.Config, installed updateinfo.InstalledStore, writeBack bool) (*updateinfo.Reader, error) {
	r := &updateinfo.Reader{
		Installed: installed,
		WriteBack: writeBack,
		Format:    cfg.Feed(),
	}
	if cfg.Settings.ExcludeScript != "" {
		script, err := policy.Load(cfg.Path(cfg.Settings.ExcludeScript))
		if err != nil {
			return nil, err
		}
		r.Policy = script
	}
	return r, nil
}

// stores bundles the three package databases.
type stores struct {
	updates   *metadata.DB
	release   *metadata.DB
	installed *metadata.DB
}

func (s *stores) Close() {
	for _, db := range []*metadata.DB{s.updates, s.release, s.installed} {
		if db != nil {
			_ = db.Close()
		}
	}
}

// openStores opens the updates primary database left by 'check', the
// release snapshot and the installed store.
func openStores(cfg *config.Config) (*stores, error) {
	if !fsutil.FileExists(cfg.UpdatesPrimaryDB()) {
		return nil, fmt.Errorf("missing updates primary.db, run 'check' first: %w", errors.ErrMissingInput)
	}
	s := &stores{}
	var err error
	if s.updates, err = metadata.OpenPrimary(cfg.UpdatesPrimaryDB(), TagUpdates); err != nil {
		s.Close()
		return nil, err
	}
	if s.release, err = metadata.OpenPrimary(cfg.ReleaseDBPath(), TagRelease); err != nil {
		s.Close()
		return nil, err
	}
	if s.installed, err = metadata.OpenInstalled(cfg.InstalledDBPath()); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func newResolver(cfg *config.Config, s *stores, arches metadata.ArchSet) *resolver.Resolver {
	return &resolver.Resolver{
		Updates:       s.updates,
		Release:       s.release,
		Installed:     s.installed,
		UpdatesSource: resolver.Source{Tag: TagUpdates, Root: cfg.UpdatesPath()},
		ReleaseSource: resolver.Source{Tag: TagRelease, Root: cfg.ReleasesPath()},
		Inventory:     inventory.New(cfg.UpdatesPath(), cfg.ReleasesPath()),
		Arches:        arches,
	}
}

// archSetValue is a pflag.Value for a comma-separated arch list.
type archSetValue struct {
	set *metadata.ArchSet
}

var _ pflag.Value = archSetValue{}

func (a archSetValue) String() string {
	if a.set == nil {
		return ""
	}
	return a.set.String()
}

func (a archSetValue) Set(s string) error {
	set := metadata.NewArchSet(strings.Split(s, ",")...)
	if len(set) == 0 {
		return fmt.Errorf("empty arch list: %w", errors.ErrConfigValidation)
	}
	*a.set = set
	return nil
}

func (a archSetValue) Type() string { return "arches" }
