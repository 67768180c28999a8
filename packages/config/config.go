package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the full cellcalc configuration as read from YAML
type Config struct {
	Log    Log    `yaml:"log"`
	Engine Engine `yaml:"engine"`
	Server Server `yaml:"server"`
	Import Import `yaml:"import"`
}

// Log configures the zerolog logger
type Log struct {
	Level  string `yaml:"level"`  // trace, debug, info, warn, error, disabled
	Pretty bool   `yaml:"pretty"` // human readable console output instead of JSON
}

// Engine configures formula evaluation
type Engine struct {
	MaxReferenceDepth int   `yaml:"max_reference_depth"`
	MaxNestingDepth   int   `yaml:"max_nesting_depth"`
	DetectCycles      bool  `yaml:"detect_cycles"`
	Precision         int32 `yaml:"precision"` // decimals shown for non-integral values
}

// Server configures the websocket server
type Server struct {
	Addr string `yaml:"addr"`
	Gzip bool   `yaml:"gzip"`
}

// Import configures reading grids from files
type Import struct {
	Encoding string `yaml:"encoding"` // CSV charset
	Sheet    string `yaml:"sheet"`    // XLSX worksheet, empty for the active one
}

// Default returns the configuration used when no file is given
func Default() Config {
	return Config{
		Log: Log{
			Level: "info",
		},
		Engine: Engine{
			MaxReferenceDepth: 64,
			MaxNestingDepth:   4096,
			DetectCycles:      true,
			Precision:         2,
		},
		Server: Server{
			Addr: ":8080",
			Gzip: true,
		},
		Import: Import{
			Encoding: "utf-8",
		},
	}
}

// Load reads a YAML file over the defaults. an empty path returns the
// defaults. unknown keys are rejected.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := Parse(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML into cfg, keeping the values of keys the document
// does not mention, and validates the result
func Parse(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parse: %w", err)
	}
	return cfg.Validate()
}

// Validate checks that every value is usable
func (c Config) Validate() error {
	var errs []error
	switch c.Log.Level {
	case "trace", "debug", "info", "warn", "error", "fatal", "panic", "disabled", "":
	default:
		errs = append(errs, fmt.Errorf("log.level: unknown level %q", c.Log.Level))
	}
	if c.Engine.MaxReferenceDepth < 1 {
		errs = append(errs, fmt.Errorf("engine.max_reference_depth: must be positive, got %d", c.Engine.MaxReferenceDepth))
	}
	if c.Engine.MaxNestingDepth < 1 {
		errs = append(errs, fmt.Errorf("engine.max_nesting_depth: must be positive, got %d", c.Engine.MaxNestingDepth))
	}
	if c.Engine.Precision < 0 || c.Engine.Precision > 15 {
		errs = append(errs, fmt.Errorf("engine.precision: must be between 0 and 15, got %d", c.Engine.Precision))
	}
	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr: must not be empty"))
	}
	return errors.Join(errs...)
}
