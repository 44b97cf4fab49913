package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"unicode/utf8"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/peekknuf/anonscore/internal/dataset"
	"github.com/peekknuf/anonscore/internal/distance"
	"github.com/peekknuf/anonscore/internal/scoring"
)

const (
	EnvWorkers    = "ANONSCORE_WORKERS"
	EnvTextSample = "ANONSCORE_TEXT_SAMPLE_SIZE"
	EnvDelimiter  = "ANONSCORE_DELIMITER"

	DefaultSuffix = "_anonymized"
	maxFileSize   = 1 * 1024 * 1024
)

// Config holds scoring and loading settings. Values come from a YAML file,
// then .env files, then the process environment, each layer overriding the
// one before.
type Config struct {
	Weights        map[string]float64 `yaml:"weights"`
	Workers        int                `yaml:"workers"`
	TextSampleSize int                `yaml:"text_sample_size"`
	NAValues       []string           `yaml:"na_values"`
	Delimiter      string             `yaml:"delimiter"`
	Suffix         string             `yaml:"suffix"`
}

func Default() *Config {
	return &Config{
		TextSampleSize: distance.DefaultTextSample,
		Suffix:         DefaultSuffix,
	}
}

// Load builds a Config. An empty path skips the YAML file. envFiles are
// loaded with godotenv when they exist; with none given, ./.env is tried.
func Load(path string, envFiles ...string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if err := cfg.readFile(path); err != nil {
			return nil, err
		}
	}

	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	if err := loadDotEnv(envFiles); err != nil {
		return nil, err
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) readFile(path string) error {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("config file must have .yaml or .yml extension, got %q", ext)
	}

	info, err := os.Stat(cleanPath)
	if err != nil {
		return fmt.Errorf("failed to stat config file: %w", err)
	}
	if info.Size() > maxFileSize {
		return fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to parse config YAML: %w", err)
	}
	return nil
}

func loadDotEnv(files []string) error {
	var existing []string
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	if err := godotenv.Load(existing...); err != nil {
		return fmt.Errorf("failed to load env file: %w", err)
	}
	return nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvWorkers); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvWorkers, v, err)
		}
		c.Workers = n
	}
	if v, ok := lookup(EnvTextSample); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvTextSample, v, err)
		}
		c.TextSampleSize = n
	}
	if v, ok := lookup(EnvDelimiter); ok && v != "" {
		c.Delimiter = v
	}
	return nil
}

// Validate checks that the configuration values are usable.
func (c *Config) Validate() error {
	for name, w := range c.Weights {
		if math.IsNaN(w) || math.IsInf(w, 0) || w < 0 {
			return fmt.Errorf("weight for column %q must be a finite non-negative number, got %v", name, w)
		}
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must be non-negative, got %d", c.Workers)
	}
	if c.TextSampleSize <= 0 {
		return fmt.Errorf("text_sample_size must be positive, got %d", c.TextSampleSize)
	}
	if _, err := c.DelimiterRune(); err != nil {
		return err
	}
	return nil
}

// DelimiterRune returns the configured delimiter, or 0 for auto-detection.
// "tab" and "\t" both mean a tab character.
func (c *Config) DelimiterRune() (rune, error) {
	switch c.Delimiter {
	case "":
		return 0, nil
	case "tab", `\t`:
		return '\t', nil
	}
	r, size := utf8.DecodeRuneInString(c.Delimiter)
	if size != len(c.Delimiter) || !dataset.IsValidDelimiter(r) {
		return 0, fmt.Errorf("invalid delimiter %q", c.Delimiter)
	}
	return r, nil
}

// CSVOptions returns loader options for the configured delimiter and NA
// tokens. Call Validate first.
func (c *Config) CSVOptions() dataset.CSVOptions {
	opts := dataset.DefaultCSVOptions()
	opts.Delimiter, _ = c.DelimiterRune()
	if len(c.NAValues) > 0 {
		opts.NAValues = c.NAValues
	}
	return opts
}

// ScorerOptions translates the configuration into scorer options.
func (c *Config) ScorerOptions() []scoring.Option {
	return []scoring.Option{
		scoring.WithWeights(c.Weights),
		scoring.WithWorkers(c.Workers),
		scoring.WithTextSample(c.TextSampleSize),
	}
}
