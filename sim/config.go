package sim

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"
)

// ErrInvalidConfig is wrapped by every error Config.Validate returns.
var ErrInvalidConfig = errors.New("invalid simulation config")

// Defaults for the reference configuration.
const (
	DefaultDuration        = 10 * time.Second
	DefaultSplitPercentage = 50.0
	DefaultPoolSize        = 2
	DefaultTick            = 250 * time.Millisecond
	DefaultSeed            = 42
)

// Default processing-time ranges per stage.
var (
	DefaultRegularProcessing    = DurationRange{Min: 300 * time.Millisecond, Max: 500 * time.Millisecond}
	DefaultAdditionalProcessing = DurationRange{Min: 500 * time.Millisecond, Max: 700 * time.Millisecond}
)

// Topology selects how requests are generated.
type Topology string

const (
	// TopologySingle runs one generator that emits every tick and flips the class.
	TopologySingle Topology = "single"
	// TopologyPerClass runs one generator per class; each emits with its class's
	// probability and skips the tick otherwise.
	TopologyPerClass Topology = "per-class"
)

// DurationRange is an inclusive [Min, Max] range of processing times.
type DurationRange struct {
	Min time.Duration
	Max time.Duration
}

// Sample draws a duration uniformly from the range.
func (r DurationRange) Sample(rng *rand.Rand) time.Duration {
	if r.Max <= r.Min {
		return r.Min
	}
	return r.Min + time.Duration(rng.Int63n(int64(r.Max-r.Min)+1))
}

func (r DurationRange) String() string {
	return fmt.Sprintf("[%v, %v]", r.Min, r.Max)
}

// Config groups all parameters of a simulation run.
type Config struct {
	Duration        time.Duration // total generation window; 0 ends the run immediately
	SplitPercentage float64       // percentage of requests classified AdditionalService, in [0, 100]
	PoolSize        int           // workers per stage

	// Per-stage overrides; 0 means use PoolSize.
	RegularPoolSize    int
	AdditionalPoolSize int

	Tick                 time.Duration // generator evaluation interval
	RegularProcessing    DurationRange
	AdditionalProcessing DurationRange
	Topology             Topology // "" is treated as TopologySingle

	Seed        int64 // seeds the PartitionedRNG
	MaxRequests int   // cap on generated requests across all generators; 0 = unlimited
}

// DefaultConfig returns the reference configuration.
func DefaultConfig() Config {
	return Config{
		Duration:             DefaultDuration,
		SplitPercentage:      DefaultSplitPercentage,
		PoolSize:             DefaultPoolSize,
		Tick:                 DefaultTick,
		RegularProcessing:    DefaultRegularProcessing,
		AdditionalProcessing: DefaultAdditionalProcessing,
		Topology:             TopologySingle,
		Seed:                 DefaultSeed,
	}
}

// PoolSizeFor returns the number of workers configured for stage.
func (c Config) PoolSizeFor(stage Stage) int {
	switch stage {
	case StageRegular:
		if c.RegularPoolSize > 0 {
			return c.RegularPoolSize
		}
	case StageAdditionalService:
		if c.AdditionalPoolSize > 0 {
			return c.AdditionalPoolSize
		}
	}
	return c.PoolSize
}

// ProcessingFor returns the processing-time range configured for stage.
func (c Config) ProcessingFor(stage Stage) DurationRange {
	if stage == StageAdditionalService {
		return c.AdditionalProcessing
	}
	return c.RegularProcessing
}

// Validate rejects configurations that must not start a run.
func (c Config) Validate() error {
	if c.Duration < 0 {
		return fmt.Errorf("%w: duration must be >= 0, got %v", ErrInvalidConfig, c.Duration)
	}
	if math.IsNaN(c.SplitPercentage) || c.SplitPercentage < 0 || c.SplitPercentage > 100 {
		return fmt.Errorf("%w: split percentage must be in [0, 100], got %v", ErrInvalidConfig, c.SplitPercentage)
	}
	if c.PoolSize <= 0 {
		return fmt.Errorf("%w: pool size must be > 0, got %d", ErrInvalidConfig, c.PoolSize)
	}
	if c.RegularPoolSize < 0 || c.AdditionalPoolSize < 0 {
		return fmt.Errorf("%w: per-stage pool sizes must be >= 0, got regular=%d additional=%d",
			ErrInvalidConfig, c.RegularPoolSize, c.AdditionalPoolSize)
	}
	if c.Tick <= 0 {
		return fmt.Errorf("%w: tick must be > 0, got %v", ErrInvalidConfig, c.Tick)
	}
	for _, stage := range Stages {
		r := c.ProcessingFor(stage)
		if r.Min < 0 || r.Max < r.Min {
			return fmt.Errorf("%w: %s processing range %v must satisfy 0 <= min <= max", ErrInvalidConfig, stage, r)
		}
	}
	switch c.Topology {
	case "", TopologySingle, TopologyPerClass:
	default:
		return fmt.Errorf("%w: unknown topology %q (want %q or %q)", ErrInvalidConfig, c.Topology, TopologySingle, TopologyPerClass)
	}
	if c.MaxRequests < 0 {
		return fmt.Errorf("%w: max requests must be >= 0, got %d", ErrInvalidConfig, c.MaxRequests)
	}
	return nil
}
