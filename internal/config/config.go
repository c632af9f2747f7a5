// Package config loads application configuration from defaults, an optional
// YAML file and environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cli/go-gh/v2/pkg/auth"
	"github.com/cli/go-gh/v2/pkg/repository"
	"gopkg.in/yaml.v3"

	"github.com/ericfisherdev/pendingchecks/internal/domain/model"
	"github.com/ericfisherdev/pendingchecks/internal/render"
)

// DefaultConfigFile is read from the working directory when
// PENDINGCHECKS_CONFIG is not set.
const DefaultConfigFile = ".pendingchecks.yml"

// DefaultHost is the public GitHub host.
const DefaultHost = "github.com"

// Config holds the application configuration.
type Config struct {
	Repo             string                 `yaml:"repo"`
	Host             string                 `yaml:"host"`
	Token            string                 `yaml:"-"`
	Format           string                 `yaml:"format"`
	ApprovalStrategy model.ApprovalStrategy `yaml:"approval_strategy"`
	Concurrency      int                    `yaml:"concurrency"`
	MaxPages         int                    `yaml:"max_pages"`
	IgnoreChecks     []string               `yaml:"ignore_checks"`
	Record           bool                   `yaml:"record"`
	HistoryDB        string                 `yaml:"history_db"`
	ListenAddr       string                 `yaml:"listen_addr"`
	WatchInterval    time.Duration          `yaml:"watch_interval"`
	LogLevel         string                 `yaml:"log_level"`
}

// Default returns a Config populated with built-in defaults.
func Default() *Config {
	return &Config{
		Host:             DefaultHost,
		Format:           string(render.FormatDetailed),
		ApprovalStrategy: model.StrategyGeneric,
		Concurrency:      4,
		MaxPages:         5,
		IgnoreChecks:     []string{},
		HistoryDB:        "pendingchecks.db",
		ListenAddr:       "127.0.0.1:8080",
		WatchInterval:    30 * time.Second,
		LogLevel:         "warn",
	}
}

// Load builds a Config from defaults, then the YAML config file, then
// PENDINGCHECKS_* environment variables. CLI flags are applied by the caller,
// which then calls Validate.
//
// The config file is PENDINGCHECKS_CONFIG when set (it must exist), otherwise
// .pendingchecks.yml in the working directory if present.
func Load() (*Config, error) {
	return LoadFrom("")
}

// LoadFrom is Load with an explicit config file path, which must exist.
// An empty path falls back to Load's lookup.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = os.Getenv("PENDINGCHECKS_CONFIG")
		explicit = path != ""
	}
	if !explicit {
		path = DefaultConfigFile
	}
	if err := cfg.mergeFile(path, explicit); err != nil {
		return nil, err
	}

	if err := cfg.mergeEnv(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) mergeFile(path string, required bool) error {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !required {
			return nil
		}
		return fmt.Errorf("read config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(b, c); err != nil {
		return fmt.Errorf("parse config file %s: %w: %w", path, model.ErrConfiguration, err)
	}

	slog.Debug("loaded config file", "path", path)
	return nil
}

func (c *Config) mergeEnv() error {
	if v, ok := os.LookupEnv("PENDINGCHECKS_REPO"); ok {
		c.Repo = v
	}
	if v, ok := os.LookupEnv("PENDINGCHECKS_HOST"); ok {
		c.Host = v
	}
	if v, ok := os.LookupEnv("PENDINGCHECKS_FORMAT"); ok {
		c.Format = v
	}
	if v, ok := os.LookupEnv("PENDINGCHECKS_APPROVAL_STRATEGY"); ok {
		c.ApprovalStrategy = model.ApprovalStrategy(v)
	}
	if v, ok := os.LookupEnv("PENDINGCHECKS_HISTORY_DB"); ok {
		c.HistoryDB = v
	}
	if v, ok := os.LookupEnv("PENDINGCHECKS_LISTEN_ADDR"); ok {
		c.ListenAddr = v
	}
	if v, ok := os.LookupEnv("PENDINGCHECKS_LOG_LEVEL"); ok {
		c.LogLevel = v
	}

	if v, ok := os.LookupEnv("PENDINGCHECKS_IGNORE_CHECKS"); ok {
		c.IgnoreChecks = SplitList(v)
	}

	if v, ok := os.LookupEnv("PENDINGCHECKS_CONCURRENCY"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("PENDINGCHECKS_CONCURRENCY has invalid value %q: %w", v, model.ErrConfiguration)
		}
		c.Concurrency = n
	}
	if v, ok := os.LookupEnv("PENDINGCHECKS_MAX_PAGES"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("PENDINGCHECKS_MAX_PAGES has invalid value %q: %w", v, model.ErrConfiguration)
		}
		c.MaxPages = n
	}
	if v, ok := os.LookupEnv("PENDINGCHECKS_RECORD"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("PENDINGCHECKS_RECORD has invalid value %q: %w", v, model.ErrConfiguration)
		}
		c.Record = b
	}
	if v, ok := os.LookupEnv("PENDINGCHECKS_WATCH_INTERVAL"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("PENDINGCHECKS_WATCH_INTERVAL has invalid duration %q: %w", v, model.ErrConfiguration)
		}
		c.WatchInterval = d
	}

	for _, key := range []string{"GH_TOKEN", "GITHUB_TOKEN"} {
		if v := os.Getenv(key); v != "" {
			c.Token = v
			break
		}
	}

	return nil
}

// Validate checks every field that has a closed set of values or a range.
func (c *Config) Validate() error {
	if _, err := render.ParseFormat(c.Format); err != nil {
		return err
	}
	if !c.ApprovalStrategy.Valid() {
		return fmt.Errorf("unknown approval strategy %q (want generic or approval): %w", c.ApprovalStrategy, model.ErrConfiguration)
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1, got %d: %w", c.Concurrency, model.ErrConfiguration)
	}
	if c.MaxPages < 1 {
		return fmt.Errorf("max_pages must be at least 1, got %d: %w", c.MaxPages, model.ErrConfiguration)
	}
	if c.WatchInterval <= 0 {
		return fmt.Errorf("watch_interval must be positive, got %s: %w", c.WatchInterval, model.ErrConfiguration)
	}
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// ParseLogLevel maps debug, info, warn and error to slog levels.
func ParseLogLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", s, model.ErrConfiguration)
	}
	return level, nil
}

// currentRepository and tokenForHost are replaced in tests.
var (
	currentRepository = repository.Current
	tokenForHost      = auth.TokenForHost
)

// ResolveRepository fills Repo (and Host when the repository names one)
// from GH_REPO or the git remotes of the working directory when no
// repository was configured.
func (c *Config) ResolveRepository() error {
	if c.Repo != "" {
		if strings.Count(c.Repo, "/") == 2 {
			r, err := repository.Parse(c.Repo)
			if err != nil {
				return fmt.Errorf("parse repository %q: %w: %w", c.Repo, model.ErrConfiguration, err)
			}
			c.Host = r.Host
			c.Repo = r.Owner + "/" + r.Name
		}
		return nil
	}

	r, err := currentRepository()
	if err != nil {
		return fmt.Errorf("no repository given and none found in the current directory (use --repo owner/name): %w", model.ErrConfiguration)
	}

	c.Repo = r.Owner + "/" + r.Name
	if r.Host != "" {
		c.Host = r.Host
	}
	return nil
}

// ResolveToken falls back to the gh CLI's stored credentials for Host when no
// token came from the environment.
func (c *Config) ResolveToken() error {
	if c.Token != "" {
		return nil
	}

	token, source := tokenForHost(c.Host)
	if token == "" {
		return fmt.Errorf("no GitHub token for %s: set GH_TOKEN or run gh auth login: %w", c.Host, model.ErrConfiguration)
	}

	slog.Debug("using token from gh credentials", "host", c.Host, "source", source)
	c.Token = token
	return nil
}

// SplitList splits a comma-separated list, dropping blank entries.
func SplitList(v string) []string {
	items := []string{}
	for _, item := range strings.Split(v, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			items = append(items, item)
		}
	}
	return items
}
