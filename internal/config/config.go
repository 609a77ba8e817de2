// Package config loads shopq configuration from shopq.yaml or shopq.toml.
//
// Every field has a default, so a missing file is not an error. Command
// line flags override file values.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/roach88/shopq/internal/querysql"
)

// FileNames are the names Find looks for, in order.
var FileNames = []string{"shopq.yaml", "shopq.yml", "shopq.toml"}

// Config is the complete shopq configuration.
type Config struct {
	Database Database `yaml:"database" toml:"database"`
	Log      Log      `yaml:"log" toml:"log"`
	Output   Output   `yaml:"output" toml:"output"`
}

// Database selects the driver and data source.
type Database struct {
	// Driver is one of sqlite3, sqlite, postgres, pgx or mysql.
	Driver string `yaml:"driver" toml:"driver"`

	// DSN is a file path for the SQLite drivers and a connection string
	// otherwise.
	DSN string `yaml:"dsn" toml:"dsn"`
}

// Log configures the slog handler.
type Log struct {
	// Level is debug, info, warn or error.
	Level string `yaml:"level" toml:"level"`

	// Format is text or json.
	Format string `yaml:"format" toml:"format"`
}

// Output configures command output.
type Output struct {
	// Format is text or json.
	Format string `yaml:"format" toml:"format"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Database: Database{Driver: "sqlite3", DSN: "shopq.db"},
		Log:      Log{Level: "warn", Format: "text"},
		Output:   Output{Format: "text"},
	}
}

// Find returns the first config file present in dir, or "" if none is.
func Find(dir string) string {
	for _, name := range FileNames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// Load reads path over the defaults. The format follows the file
// extension. Unknown keys are rejected.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	cfg := Default()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = decodeYAML(data, cfg)
	case ".toml":
		err = decodeTOML(data, cfg)
	default:
		return nil, fmt.Errorf("unsupported config format %q", filepath.Ext(path))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

func decodeYAML(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func decodeTOML(data []byte, cfg *Config) error {
	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
	}
	return nil
}

// Validate checks enumerated fields.
func (c *Config) Validate() error {
	var problems []string
	if _, err := querysql.DialectForDriver(c.Database.Driver); err != nil {
		problems = append(problems, err.Error())
	}
	if c.Database.DSN == "" {
		problems = append(problems, "database.dsn is required")
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		problems = append(problems, err.Error())
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		problems = append(problems, fmt.Sprintf("log.format must be text or json, got %q", c.Log.Format))
	}
	if c.Output.Format != "text" && c.Output.Format != "json" {
		problems = append(problems, fmt.Sprintf("output.format must be text or json, got %q", c.Output.Format))
	}
	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

// ParseLevel converts a level name into a slog.Level.
func ParseLevel(name string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return 0, fmt.Errorf("log.level must be debug, info, warn or error, got %q", name)
	}
	return level, nil
}

// Logger builds the logger described by c.Log, writing to w.
func (c *Config) Logger(w io.Writer) *slog.Logger {
	level, err := ParseLevel(c.Log.Level)
	if err != nil {
		level = slog.LevelWarn
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
