// Package config loads export settings from a YAML or TOML file.
//
// Every field is optional. Pointer fields distinguish "not set" from the zero
// value so that callers can layer file values under command-line flags.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Config mirrors the command-line options of figma-svg-export.
type Config struct {
	File    string   `yaml:"file" toml:"file"`
	Token   string   `yaml:"token" toml:"token"`
	NodeIDs []string `yaml:"node_ids" toml:"node_ids"`
	Output  string   `yaml:"output" toml:"output"`

	Mode          string   `yaml:"mode" toml:"mode"`
	Format        string   `yaml:"format" toml:"format"`
	Kinds         []string `yaml:"kinds" toml:"kinds"`
	IncludeHidden *bool    `yaml:"include_hidden" toml:"include_hidden"`
	Prefix        string   `yaml:"prefix" toml:"prefix"`
	Flat          *bool    `yaml:"flat" toml:"flat"`

	BatchSize  int      `yaml:"batch_size" toml:"batch_size"`
	BatchDelay Duration `yaml:"batch_delay" toml:"batch_delay"`
	Timeout    Duration `yaml:"timeout" toml:"timeout"`
	Retries    int      `yaml:"retries" toml:"retries"`
	RetryBase  float64  `yaml:"retry_base" toml:"retry_base"`
	WarnOnSkip *bool    `yaml:"warn_on_skip" toml:"warn_on_skip"`

	SVG     SVGConfig     `yaml:"svg" toml:"svg"`
	Storage StorageConfig `yaml:"storage" toml:"storage"`

	APIBaseURL string `yaml:"api_base_url" toml:"api_base_url"`
	LogFormat  string `yaml:"log_format" toml:"log_format"`
	Report     string `yaml:"report" toml:"report"`
}

// SVGConfig holds the SVG render switches.
type SVGConfig struct {
	IncludeID         *bool `yaml:"include_id" toml:"include_id"`
	SimplifyStroke    *bool `yaml:"simplify_stroke" toml:"simplify_stroke"`
	OutlineText       *bool `yaml:"outline_text" toml:"outline_text"`
	UseRelativeBounds *bool `yaml:"use_relative_bounds" toml:"use_relative_bounds"`
}

// StorageConfig configures s3:// outputs.
type StorageConfig struct {
	Region      string `yaml:"region" toml:"region"`
	Endpoint    string `yaml:"endpoint" toml:"endpoint"`
	S3PathStyle bool   `yaml:"s3_path_style" toml:"s3_path_style"`
}

// Duration wraps time.Duration for string values such as "600ms" or "1m30s".
type Duration struct {
	time.Duration
}

// UnmarshalYAML parses a duration string.
func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	return d.UnmarshalText([]byte(s))
}

// UnmarshalText parses a duration string. An empty string leaves d unchanged.
func (d *Duration) UnmarshalText(text []byte) error {
	s := strings.TrimSpace(string(text))
	if s == "" {
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}

// Load reads path, expands ${VAR} references and decodes it as TOML when the
// extension is .toml, YAML otherwise.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		return nil, fmt.Errorf("cannot read config file %q: %w", path, err)
	}

	expanded := ExpandEnv(string(data))

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.Decode(expanded, &cfg); err != nil {
			return nil, fmt.Errorf("invalid TOML in %s: %w", path, err)
		}
	default:
		if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
			return nil, fmt.Errorf("invalid YAML in %s: %w", path, err)
		}
	}

	return &cfg, nil
}
