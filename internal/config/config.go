package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ICSConfig describes a single ICS subscription used as an additional
// read-only source calendar on the forward path.
type ICSConfig struct {
	// URL is the ICS subscription endpoint.
	URL string `yaml:"url" json:"url"`
	// ID is an internal identifier used for de-dup and logging.
	ID string `yaml:"id" json:"id"`
	// Name is a human-friendly label.
	Name string `yaml:"name" json:"name"`
}

// Config is the top-level application configuration.
type Config struct {
	// Sources are the Google calendar ids whose appointments are mirrored as
	// blockers onto Target. Merge order follows list order; on canonical-id
	// collision the later source wins.
	Sources []string `yaml:"sources" json:"sources"`

	// ICS is the list of subscribed read-only ICS sources, merged after
	// Sources.
	ICS []ICSConfig `yaml:"ics" json:"ics"`

	// Target is the calendar receiving blocker placeholders.
	Target string `yaml:"target" json:"target"`

	// ReverseTarget is the calendar receiving mirrors of genuine
	// (non-blocker) appointments found on Target.
	ReverseTarget string `yaml:"reverse_target" json:"reverse_target"`

	// IntervalSeconds is the fixed delay observed after each cycle, success
	// or failure, before the next begins.
	IntervalSeconds int `yaml:"interval_seconds" json:"interval_seconds"`

	// Schedule is an optional cron expression (e.g. "*/5 * * * *"). When set
	// it replaces the fixed-delay loop; overlapping runs are skipped.
	Schedule string `yaml:"schedule" json:"schedule"`

	// BlockerSummary is the placeholder label written as the summary of
	// every blocker. Changing it orphans blockers written under the old
	// label.
	BlockerSummary string `yaml:"blocker_summary" json:"blocker_summary"`

	// Credentials / Token are the OAuth client secret and authorized token
	// files for the Google Calendar API.
	Credentials string `yaml:"credentials" json:"credentials"`
	Token       string `yaml:"token" json:"token"`

	// MetricsListen, if non-empty, enables the Prometheus /metrics listener
	// on this address.
	MetricsListen string `yaml:"metrics_listen" json:"metrics_listen"`

	// ICSCacheDir is where fetched ICS bodies and their HTTP cache metadata
	// are stored.
	ICSCacheDir string `yaml:"ics_cache_dir" json:"ics_cache_dir"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Sources:         []string{"primary"},
		ICS:             []ICSConfig{},
		Target:          "",
		ReverseTarget:   "primary",
		IntervalSeconds: 300,
		BlockerSummary:  "FogTime Blocker",
		Credentials:     "credentials.json",
		Token:           "token.json",
		ICSCacheDir:     "./var/ics-cache",
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	if c.Sources == nil {
		c.Sources = []string{}
	}
	if c.ICS == nil {
		c.ICS = []ICSConfig{}
	}
	if c.IntervalSeconds <= 0 {
		c.IntervalSeconds = 300
	}
	if c.BlockerSummary == "" {
		c.BlockerSummary = "FogTime Blocker"
	}
	if c.Credentials == "" {
		c.Credentials = "credentials.json"
	}
	if c.Token == "" {
		c.Token = "token.json"
	}
	if c.ICSCacheDir == "" {
		c.ICSCacheDir = "./var/ics-cache"
	}
}

// Validate reports configuration errors that Normalize cannot repair.
func (c *Config) Validate() error {
	if c.Target == "" {
		return errors.New("target calendar id is required")
	}
	if c.ReverseTarget == "" {
		return errors.New("reverse_target calendar id is required")
	}
	if len(c.Sources) == 0 && len(c.ICS) == 0 {
		return errors.New("at least one source calendar is required")
	}
	return nil
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist:
//   - create parent directory if needed
//   - write a default config with 0600 perms
//   - return the default config
//   - If the file exists:
//   - read YAML and unmarshal into Config
//   - normalize defaults
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// First run: create default config file.
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes the given configuration to the specified path.
//
// Implementation details:
//   - Ensures parent directory exists (0700).
//   - Marshals cfg to YAML.
//   - Writes atomically via a temp file + rename.
//   - Ensures final file permissions are 0600.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	// Atomic write: write to temp file in same directory then rename.
	tmp, err := os.CreateTemp(dir, ".fogtime-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	// Ensure we clean up temp file on error.
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}

	// Flush and close before chmod/rename.
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	// Set permissions to 0600 on temp file before rename.
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}

	// Rename over the target path.
	if err := os.Rename(tmpName, path); err != nil {
		return err
	}

	return nil
}

// Save is a convenience method on Config that delegates to the package-level
// Save function.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
