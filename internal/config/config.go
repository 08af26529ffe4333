// Package config loads nostrwire.toml and applies environment overrides.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"xdao.co/nostrwire/compliance"
	"xdao.co/nostrwire/keys"
)

const (
	DefaultFileName = "nostrwire.toml"
	DefaultRelayURL = "wss://relay.damus.io"

	EnvRelayURL = "NOSTRWIRE_RELAY_URL"
	EnvKeyDir   = "NOSTRWIRE_KEY_DIR"
	EnvMode     = "NOSTRWIRE_MODE"
	EnvLogLevel = "NOSTRWIRE_LOG_LEVEL"
)

type Config struct {
	RelayURL    string
	KeyDir      string
	Mode        compliance.ComplianceMode
	LogLevel    string
	MetricsAddr string
	// ReadLimit caps the size of a single inbound frame in bytes.
	ReadLimit int64
}

type fileConfig struct {
	RelayURL    string `toml:"relay_url"`
	KeyDir      string `toml:"key_dir"`
	Mode        string `toml:"mode"`
	LogLevel    string `toml:"log_level"`
	MetricsAddr string `toml:"metrics_addr"`
	ReadLimit   int64  `toml:"read_limit"`
}

func Default() Config {
	dir, err := keys.GetDefaultDirectory()
	if err != nil {
		dir = filepath.Join(".nostrwire", "keys")
	}
	return Config{
		RelayURL:  DefaultRelayURL,
		KeyDir:    dir,
		Mode:      compliance.Permissive,
		LogLevel:  "info",
		ReadLimit: 1 << 20,
	}
}

// Load reads path on top of Default, then applies environment overrides.
// An empty path, or a missing DefaultFileName, yields defaults plus env.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultFileName
	}
	if err := applyFile(&cfg, path); err != nil {
		if explicit || !errors.Is(err, os.ErrNotExist) {
			return Config{}, err
		}
	}
	if err := applyEnvOverrides(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyFile(cfg *Config, path string) error {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return fmt.Errorf("load config (%s): %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("load config (%s): unknown key %q", path, undecoded[0].String())
	}

	if meta.IsDefined("relay_url") {
		cfg.RelayURL = strings.TrimSpace(raw.RelayURL)
	}
	if meta.IsDefined("key_dir") {
		cfg.KeyDir = strings.TrimSpace(raw.KeyDir)
	}
	if meta.IsDefined("mode") {
		mode, err := compliance.ParseMode(raw.Mode)
		if err != nil {
			return fmt.Errorf("parse mode: %w", err)
		}
		cfg.Mode = mode
	}
	if meta.IsDefined("log_level") {
		cfg.LogLevel = strings.TrimSpace(raw.LogLevel)
	}
	if meta.IsDefined("metrics_addr") {
		cfg.MetricsAddr = strings.TrimSpace(raw.MetricsAddr)
	}
	if meta.IsDefined("read_limit") {
		cfg.ReadLimit = raw.ReadLimit
	}
	return nil
}

func applyEnvOverrides(cfg *Config) error {
	if v := strings.TrimSpace(os.Getenv(EnvRelayURL)); v != "" {
		cfg.RelayURL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvKeyDir)); v != "" {
		cfg.KeyDir = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvMode)); v != "" {
		mode, err := compliance.ParseMode(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvMode, err)
		}
		cfg.Mode = mode
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.LogLevel = v
	}
	return nil
}

func (c Config) Validate() error {
	if c.RelayURL == "" {
		return fmt.Errorf("config missing relay_url")
	}
	u, err := url.Parse(c.RelayURL)
	if err != nil {
		return fmt.Errorf("relay_url: %w", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return fmt.Errorf("relay_url must use ws or wss, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("relay_url missing host")
	}
	if strings.TrimSpace(c.KeyDir) == "" {
		return fmt.Errorf("config missing key_dir")
	}
	if c.Mode != compliance.Strict && c.Mode != compliance.Permissive {
		return fmt.Errorf("invalid mode %v", c.Mode)
	}
	if c.ReadLimit <= 0 {
		return fmt.Errorf("read_limit must be positive")
	}
	return nil
}
