// Package config loads bench scenarios from yaml, json or toml files.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/IvanBrykalov/singleton/policy"
	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Scenario describes one bench run.
// Zero values mean "unspecified" and are replaced by Defaults.
type Scenario struct {
	Policies   []policy.Kind `json:"policies" yaml:"policies" toml:"policies"`
	Workers    int           `json:"workers" yaml:"workers" toml:"workers"`
	Duration   Duration      `json:"duration" yaml:"duration" toml:"duration"`
	BuildDelay Duration      `json:"build_delay" yaml:"build_delay" toml:"build_delay"`
	FailFirst  bool          `json:"fail_first" yaml:"fail_first" toml:"fail_first"`
	HTTPAddr   string        `json:"http_addr" yaml:"http_addr" toml:"http_addr"`
	LogLevel   string        `json:"log_level" yaml:"log_level" toml:"log_level"`
}

// Duration is a time.Duration written as "250ms", "2s" in config files.
type Duration time.Duration

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) { return []byte(time.Duration(d).String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return fmt.Errorf("duration %q: %w", string(b), err)
	}
	*d = Duration(v)
	return nil
}

// Defaults fills unspecified fields and drops repeated policies.
func (s Scenario) Defaults() Scenario {
	if len(s.Policies) == 0 {
		s.Policies = policy.All()
	}
	s.Policies = dedupe(s.Policies)
	if s.Workers <= 0 {
		s.Workers = 4 * runtime.GOMAXPROCS(0)
	}
	if s.Duration <= 0 {
		s.Duration = Duration(2 * time.Second)
	}
	if s.LogLevel == "" {
		s.LogLevel = "info"
	}
	return s
}

// Load reads a scenario file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Scenario, error) {
	var s Scenario
	if path == "" {
		return s, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return s, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, &s)
	case ".json":
		err = json.Unmarshal(b, &s)
	case ".toml":
		err = toml.Unmarshal(b, &s)
	default:
		return s, fmt.Errorf("unsupported config extension: %s", ext)
	}
	if err != nil {
		return s, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return s, nil
}

// dedupe keeps the first occurrence of each policy, in order.
func dedupe(in []policy.Kind) []policy.Kind {
	seen := make(map[policy.Kind]bool, len(in))
	out := make([]policy.Kind, 0, len(in))
	for _, k := range in {
		if !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	return out
}
