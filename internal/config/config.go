// Package config loads and validates the site configuration file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/sitegen/internal/errors"
)

// DefaultFileName is the configuration file looked up in the site root.
const DefaultFileName = "site.yaml"

// Config is the full site configuration.
type Config struct {
	// Root is the content directory; all page paths are relative to it.
	Root string `yaml:"root"`
	// Output is where generated files are written.
	Output OutputConfig `yaml:"output"`
	// Serve configures the preview server.
	Serve ServeConfig `yaml:"serve"`
	// Watch configures the rebuild loop.
	Watch WatchConfig `yaml:"watch"`
	// Events configures optional generation-event publishing.
	Events EventsConfig `yaml:"events,omitempty"`
	// LinkCheck enables the post-generation internal link scan.
	LinkCheck bool `yaml:"link_check,omitempty"`
	// Snippets is the directory searched by the include template function.
	Snippets string `yaml:"snippets,omitempty"`
	// StatePath is the generation ledger database; empty disables persistence.
	StatePath string `yaml:"state_path,omitempty"`
	// Global holds site-wide values exposed under global.* in every render.
	Global map[string]any `yaml:"global,omitempty"`
}

// OutputConfig controls generated artifacts.
type OutputConfig struct {
	Directory string `yaml:"directory"`
	// Graph writes a Graphviz rendering of the dependency graph per build.
	Graph bool `yaml:"graph,omitempty"`
	// Styles writes the bundled syntax-highlighting stylesheet per build.
	Styles bool `yaml:"styles,omitempty"`
}

// ServeConfig controls the preview server.
type ServeConfig struct {
	Port    int  `yaml:"port"`
	Metrics bool `yaml:"metrics,omitempty"`
}

// WatchConfig controls the watch-driven rebuild loop. Durations are Go
// duration strings ("500ms", "2s").
type WatchConfig struct {
	// Debounce is the quiet period before a change batch triggers a build.
	Debounce string `yaml:"debounce"`
	// Sleep is the pause after a completed build before new events count.
	Sleep string `yaml:"sleep"`
	// FullRebuildInterval schedules periodic from-scratch builds; empty
	// disables them.
	FullRebuildInterval string `yaml:"full_rebuild_interval,omitempty"`

	debounce            time.Duration
	sleep               time.Duration
	fullRebuildInterval time.Duration
}

// DebounceDuration returns the parsed debounce quiet period.
func (w *WatchConfig) DebounceDuration() time.Duration { return w.debounce }

// SleepDuration returns the parsed post-build sleep.
func (w *WatchConfig) SleepDuration() time.Duration { return w.sleep }

// FullRebuildIntervalDuration returns the parsed periodic rebuild interval,
// zero when disabled.
func (w *WatchConfig) FullRebuildIntervalDuration() time.Duration { return w.fullRebuildInterval }

// EventsConfig configures the NATS generation-event publisher.
type EventsConfig struct {
	NATSURL string `yaml:"nats_url,omitempty"`
	Subject string `yaml:"subject,omitempty"`
}

// Load reads the configuration file, overlaying .env variables first so the
// YAML can reference them through ${VAR} expansion. A missing .env is fine.
func Load(configPath string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ConfigurationError(fmt.Sprintf("configuration file not found: %s", configPath))
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	cfg := &Config{}
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, errors.Wrap(err, errors.CategoryConfig, errors.SeverityFatal,
			"malformed configuration file").WithContext("path", configPath)
	}

	cfg.applyDefaults(filepath.Dir(configPath))
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults(baseDir string) {
	if c.Root == "" {
		c.Root = baseDir
	}
	if c.Output.Directory == "" {
		c.Output.Directory = filepath.Join(baseDir, "output")
	}
	if c.Serve.Port == 0 {
		c.Serve.Port = 8080
	}
	if c.Watch.Debounce == "" {
		c.Watch.Debounce = "500ms"
	}
	if c.Watch.Sleep == "" {
		c.Watch.Sleep = "200ms"
	}
	if c.Snippets == "" {
		c.Snippets = filepath.Join(c.Root, "snippets")
	}
	if c.Global == nil {
		c.Global = map[string]any{}
	}
}

// Validate rejects configurations the engine cannot run with.
func (c *Config) Validate() error {
	if c.Serve.Port < 1 || c.Serve.Port > 65535 {
		return errors.ConfigurationError(fmt.Sprintf("serve port out of range: %d", c.Serve.Port))
	}
	var err error
	if c.Watch.debounce, err = time.ParseDuration(c.Watch.Debounce); err != nil {
		return errors.ConfigurationError(fmt.Sprintf("invalid debounce duration: %s", c.Watch.Debounce))
	}
	if c.Watch.sleep, err = time.ParseDuration(c.Watch.Sleep); err != nil {
		return errors.ConfigurationError(fmt.Sprintf("invalid sleep duration: %s", c.Watch.Sleep))
	}
	if c.Watch.FullRebuildInterval != "" {
		if c.Watch.fullRebuildInterval, err = time.ParseDuration(c.Watch.FullRebuildInterval); err != nil {
			return errors.ConfigurationError(fmt.Sprintf("invalid full rebuild interval: %s", c.Watch.FullRebuildInterval))
		}
	}
	if c.Watch.debounce < 0 || c.Watch.sleep < 0 || c.Watch.fullRebuildInterval < 0 {
		return errors.ConfigurationError("watch durations must not be negative")
	}
	if c.Watch.fullRebuildInterval > 0 && c.Watch.fullRebuildInterval < time.Minute {
		return errors.ConfigurationError("full rebuild interval below one minute")
	}
	abs := func(p string) string {
		a, err := filepath.Abs(p)
		if err != nil {
			return p
		}
		return a
	}
	if abs(c.Root) == abs(c.Output.Directory) {
		return errors.ConfigurationError("output directory must differ from content root")
	}
	return nil
}
