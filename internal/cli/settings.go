package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/matzehuels/bonnie/pkg/cache"
	"github.com/matzehuels/bonnie/pkg/deps"
	"github.com/matzehuels/bonnie/pkg/download"
	"github.com/matzehuels/bonnie/pkg/history"
	"github.com/matzehuels/bonnie/pkg/integrations"
	"github.com/matzehuels/bonnie/pkg/integrations/npm"
	"github.com/matzehuels/bonnie/pkg/project"
)

// =============================================================================
// Settings Types
// =============================================================================

// Settings holds tool configuration. It is separate from bonnie.toml, which
// describes a project.
type Settings struct {
	Registry    string          `mapstructure:"registry"`
	Config      string          `mapstructure:"config"` // bonnie.toml path
	PackagesDir string          `mapstructure:"packages_dir"`
	Workers     int             `mapstructure:"workers"`
	Timeout     time.Duration   `mapstructure:"timeout"`
	Retries     int             `mapstructure:"retries"`
	Cache       CacheSettings   `mapstructure:"cache"`
	History     HistorySettings `mapstructure:"history"`
}

// CacheSettings configures the registry response cache.
type CacheSettings struct {
	Dir      string        `mapstructure:"dir"`
	TTL      time.Duration `mapstructure:"ttl"`
	RedisURL string        `mapstructure:"redis_url"` // Use Redis instead of Dir when set
}

// HistorySettings configures the install history store.
type HistorySettings struct {
	Dir           string `mapstructure:"dir"`
	MongoURI      string `mapstructure:"mongo_uri"` // Use MongoDB instead of Dir when set
	MongoDatabase string `mapstructure:"mongo_database"`
}

// =============================================================================
// Settings Loading
// =============================================================================

// flagKeys maps settings keys to the persistent flags that override them.
var flagKeys = map[string]string{
	"config":   "config",
	"registry": "registry",
	"workers":  "workers",
}

// loadSettings resolves settings from defaults, the settings file at path,
// BONNIE_* environment variables and finally changed flags. A missing
// settings file is not an error; a malformed one is.
func loadSettings(path string, flags *pflag.FlagSet) (*Settings, error) {
	v := viper.New()

	v.SetDefault("registry", npm.DefaultRegistry)
	v.SetDefault("config", project.DefaultPath)
	v.SetDefault("packages_dir", download.DefaultDir)
	v.SetDefault("workers", deps.DefaultWorkers)
	v.SetDefault("timeout", integrations.DefaultTimeout)
	v.SetDefault("retries", integrations.DefaultRetries)
	v.SetDefault("cache.dir", "")
	v.SetDefault("cache.ttl", cache.TTLRegistry)
	v.SetDefault("cache.redis_url", "")
	v.SetDefault("history.dir", "")
	v.SetDefault("history.mongo_uri", "")
	v.SetDefault("history.mongo_database", history.DefaultMongoDatabase)

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			v.SetConfigType("toml")
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("read settings %s: %w", path, err)
			}
		}
	}

	v.SetEnvPrefix("BONNIE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("config", "BONNIE_CONF", "BONNIE_CONFIG"); err != nil {
		return nil, err
	}

	if flags != nil {
		for key, name := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, err
				}
			}
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("decode settings: %w", err)
	}
	if s.Workers < 1 {
		s.Workers = deps.DefaultWorkers
	}
	if s.Retries < 1 {
		s.Retries = 1
	}
	return &s, nil
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/bonnie/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// configDir returns the settings directory using XDG standard (~/.config/bonnie/).
func configDir() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName), nil
}

// settingsPath returns the default settings file location.
func settingsPath() string {
	dir, err := configDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "settings.toml")
}

// =============================================================================
// Backends
// =============================================================================

// openCache picks the cache backend: none, Redis, or files under cache.dir.
func (s *Settings) openCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	if s.Cache.RedisURL != "" {
		return cache.NewRedisCache(ctx, s.Cache.RedisURL)
	}
	dir, err := s.cacheDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

func (s *Settings) cacheDir() (string, error) {
	if s.Cache.Dir != "" {
		return s.Cache.Dir, nil
	}
	return cacheDir()
}

// openHistory picks the history backend: MongoDB or files under history.dir.
func (s *Settings) openHistory(ctx context.Context) (history.Store, error) {
	if s.History.MongoURI != "" {
		return history.NewMongoStore(ctx, s.History.MongoURI, s.History.MongoDatabase)
	}
	return history.NewFileStore(s.History.Dir)
}

// newRegistryClient builds the npm client for this run.
func (s *Settings) newRegistryClient(c cache.Cache, refresh bool) *npm.Client {
	client := npm.NewClient(s.Registry, c, s.Cache.TTL)
	client.SetTimeout(s.Timeout)
	client.SetRetry(s.Retries, integrations.DefaultRetryDelay)
	client.SetRefresh(refresh)
	return client
}
