package cli

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/pageflowhq/pageflow/pkg/pipeline"
)

// Config holds user preferences loaded from ~/.config/pageflow/config.toml.
// All fields are optional; zero values defer to flags and pipeline defaults.
type Config struct {
	Threshold     int      `toml:"threshold"`
	EntryPath     string   `toml:"entry_path"`
	TerminalPaths []string `toml:"terminal_paths"`

	Layout struct {
		Mode   string  `toml:"mode"`
		Width  float64 `toml:"width"`
		Height float64 `toml:"height"`
	} `toml:"layout"`

	Paths struct {
		MaxDepth int `toml:"max_depth"`
		MaxPaths int `toml:"max_paths"`
	} `toml:"paths"`

	Serve struct {
		Addr string `toml:"addr"`
	} `toml:"serve"`

	ClickHouse struct {
		Addr     string `toml:"addr"`
		Database string `toml:"database"`
		Username string `toml:"username"`
		Password string `toml:"password"`
		Table    string `toml:"table"`
	} `toml:"clickhouse"`

	Cache struct {
		RedisURL string `toml:"redis_url"`
	} `toml:"cache"`

	Store struct {
		MongoURI   string `toml:"mongo_uri"`
		Database   string `toml:"database"`
		Collection string `toml:"collection"`
	} `toml:"store"`
}

// configPath returns the default config file location.
func configPath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// readConfig parses a TOML config file. A missing file is not an error;
// it returns an empty config.
func readConfig(path string) (*Config, error) {
	var cfg Config
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return &cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// loadConfig reads the config file once and caches it on the CLI.
// Load errors are logged and treated as an empty config so a broken
// config file never blocks the command itself.
func (c *CLI) loadConfig() *Config {
	if c.config != nil {
		return c.config
	}
	path, err := configPath()
	if err != nil {
		c.config = &Config{}
		return c.config
	}
	cfg, err := readConfig(path)
	if err != nil {
		c.Logger.Warnf("Ignoring config %s: %v", path, err)
		cfg = &Config{}
	}
	c.config = cfg
	return c.config
}

// applyTo copies config values onto opts where opts has no value yet.
// Flags bind directly to opts, so anything the user passed stays put.
func (cfg *Config) applyTo(opts *pipeline.Options) {
	if opts.Threshold == 0 && cfg.Threshold != 0 {
		opts.Threshold = cfg.Threshold
	}
	if opts.EntryPath == "" && cfg.EntryPath != "" {
		opts.EntryPath = cfg.EntryPath
	}
	if len(opts.TerminalPaths) == 0 && len(cfg.TerminalPaths) > 0 {
		opts.TerminalPaths = cfg.TerminalPaths
	}
	if opts.Mode == "" && cfg.Layout.Mode != "" {
		opts.Mode = cfg.Layout.Mode
	}
	if opts.Width == 0 && cfg.Layout.Width != 0 {
		opts.Width = cfg.Layout.Width
	}
	if opts.Height == 0 && cfg.Layout.Height != 0 {
		opts.Height = cfg.Layout.Height
	}
	if opts.MaxDepth == 0 && cfg.Paths.MaxDepth != 0 {
		opts.MaxDepth = cfg.Paths.MaxDepth
	}
	if opts.MaxPaths == 0 && cfg.Paths.MaxPaths != 0 {
		opts.MaxPaths = cfg.Paths.MaxPaths
	}
}
