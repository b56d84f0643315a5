package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// RangeSpec is a processing-time range in a scenario file.
type RangeSpec struct {
	Min time.Duration `yaml:"min"`
	Max time.Duration `yaml:"max"`
}

// Scenario represents a scenario YAML file. Every field is optional; unset
// fields fall back to flag defaults. Durations use Go syntax ("250ms", "5s").
type Scenario struct {
	Duration             *time.Duration `yaml:"duration"`
	SplitPercentage      *float64       `yaml:"split_percentage"`
	PoolSize             *int           `yaml:"pool_size"`
	RegularPoolSize      *int           `yaml:"regular_pool_size"`
	AdditionalPoolSize   *int           `yaml:"additional_pool_size"`
	Tick                 *time.Duration `yaml:"tick"`
	RegularProcessing    *RangeSpec     `yaml:"regular_processing"`
	AdditionalProcessing *RangeSpec     `yaml:"additional_processing"`
	Topology             *string        `yaml:"topology"`
	Seed                 *int64         `yaml:"seed"`
	MaxRequests          *int           `yaml:"max_requests"`
}

// loadScenario parses a scenario file with strict field checking, so a
// misspelled key is an error instead of a silently ignored setting.
func loadScenario(path string) (Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Scenario{}, fmt.Errorf("read scenario file %s: %w", path, err)
	}
	var sc Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&sc); err != nil && !errors.Is(err, io.EOF) {
		return Scenario{}, fmt.Errorf("parse scenario file %s: %w", path, err)
	}
	return sc, nil
}

// applyDefaults installs the scenario's values as viper defaults, which rank
// below changed flags and environment variables.
func (sc Scenario) applyDefaults(v *viper.Viper) {
	if sc.Duration != nil {
		v.SetDefault("duration", *sc.Duration)
	}
	if sc.SplitPercentage != nil {
		v.SetDefault("split", *sc.SplitPercentage)
	}
	if sc.PoolSize != nil {
		v.SetDefault("pool-size", *sc.PoolSize)
	}
	if sc.RegularPoolSize != nil {
		v.SetDefault("regular-pool-size", *sc.RegularPoolSize)
	}
	if sc.AdditionalPoolSize != nil {
		v.SetDefault("additional-pool-size", *sc.AdditionalPoolSize)
	}
	if sc.Tick != nil {
		v.SetDefault("tick", *sc.Tick)
	}
	if r := sc.RegularProcessing; r != nil {
		v.SetDefault("regular-min", r.Min)
		v.SetDefault("regular-max", r.Max)
	}
	if r := sc.AdditionalProcessing; r != nil {
		v.SetDefault("additional-min", r.Min)
		v.SetDefault("additional-max", r.Max)
	}
	if sc.Topology != nil {
		v.SetDefault("topology", *sc.Topology)
	}
	if sc.Seed != nil {
		v.SetDefault("seed", *sc.Seed)
	}
	if sc.MaxRequests != nil {
		v.SetDefault("max-requests", *sc.MaxRequests)
	}
}
