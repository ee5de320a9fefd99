// Package config loads schedule files and turns them into populated event
// handlers.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Schedule describes a parameter store and the events that drive it.
// A zero CycleTime means the handler default.
type Schedule struct {
	CycleTime    float64      `json:"cycle_time" yaml:"cycle_time" toml:"cycle_time"`
	Parameters   []Parameter  `json:"parameters" yaml:"parameters" toml:"parameters"`
	Events       []Event      `json:"events" yaml:"events" toml:"events"`
	Durations    []Duration   `json:"durations" yaml:"durations" toml:"durations"`
	Dependencies []Dependency `json:"dependencies" yaml:"dependencies" toml:"dependencies"`
	Monitor      Monitor      `json:"monitor" yaml:"monitor" toml:"monitor"`
	Recording    Recording    `json:"recording" yaml:"recording" toml:"recording"`
}

// Parameter declares one entry of the parameter store. Kind is "constant",
// "section_dependent" or "polynomial". An empty kind is section dependent.
type Parameter struct {
	Path  string `json:"path" yaml:"path" toml:"path"`
	Value any    `json:"value" yaml:"value" toml:"value"`
	Kind  string `json:"kind" yaml:"kind" toml:"kind"`
}

// Event declares one event. A nil ComponentIndex sets the whole parameter.
type Event struct {
	Name           string  `json:"name" yaml:"name" toml:"name"`
	Parameter      string  `json:"parameter" yaml:"parameter" toml:"parameter"`
	State          any     `json:"state" yaml:"state" toml:"state"`
	Time           float64 `json:"time" yaml:"time" toml:"time"`
	ComponentIndex *int    `json:"component_index,omitempty" yaml:"component_index,omitempty" toml:"component_index,omitempty"`
}

// Duration declares the span between two events.
type Duration struct {
	Name  string  `json:"name" yaml:"name" toml:"name"`
	Start string  `json:"start" yaml:"start" toml:"start"`
	End   string  `json:"end" yaml:"end" toml:"end"`
	Time  float64 `json:"time" yaml:"time" toml:"time"`
}

// Dependency makes the time of Dependent a linear combination of the times of
// Independents. Empty Factors means every factor is 1.
type Dependency struct {
	Dependent    string    `json:"dependent" yaml:"dependent" toml:"dependent"`
	Independents []string  `json:"independents" yaml:"independents" toml:"independents"`
	Factors      []float64 `json:"factors,omitempty" yaml:"factors,omitempty" toml:"factors,omitempty"`
}

// Monitor configures the inspection server.
type Monitor struct {
	Addr string `json:"addr" yaml:"addr" toml:"addr"`
}

// Recording configures the SQLite recorder.
type Recording struct {
	Path string `json:"path" yaml:"path" toml:"path"`
}

// Load reads a schedule file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Schedule, error) {
	var s Schedule
	if path == "" {
		return s, fmt.Errorf("config: empty schedule path")
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
		return s, fmt.Errorf("config: unsupported schedule extension: %s", ext)
	}

	if err != nil {
		return s, fmt.Errorf("config: %s: %w", path, err)
	}

	return s, nil
}
