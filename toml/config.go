// Package toml loads redline configuration files.
package toml

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/fwojciec/redline/fs"
	"github.com/pelletier/go-toml/v2"
)

// Duration is a time.Duration that unmarshals from TOML strings like "5s".
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config is the user-facing configuration.
type Config struct {
	Model          string   `toml:"model"`
	AdapterTimeout Duration `toml:"adapter_timeout"`
	HistoryLimit   int      `toml:"history_limit"`
	JournalPath    string   `toml:"journal_path"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Model:          "gemini-2.0-flash",
		AdapterTimeout: Duration(5 * time.Second),
		HistoryLimit:   64,
		JournalPath:    fs.DefaultJournalPath(),
	}
}

// Load reads the config file at path over the defaults. A missing file
// yields the defaults; a malformed or invalid one is an error.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("reading config: %w", err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.AdapterTimeout <= 0 {
		return errors.New("adapter_timeout must be positive")
	}
	if c.HistoryLimit < 1 {
		return errors.New("history_limit must be at least 1")
	}
	if c.Model == "" {
		return errors.New("model must not be empty")
	}
	return nil
}
