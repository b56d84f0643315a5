package cmd

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	sim "github.com/inference-sim/service-sim/sim"
)

// envPrefix prefixes environment overrides, e.g. SERVICESIM_POOL_SIZE=4.
const envPrefix = "SERVICESIM"

var (
	// CLI flags that never flow into sim.Config
	logLevel     string // Log verbosity level
	scenarioPath string // YAML scenario file
	interactive  bool   // Prompt for the core parameters on stdin
	logEvents    bool   // Log every request event to stdout
	metricsAddr  string // Address serving Prometheus metrics; empty disables
	resultsPath  string // File to write the JSON stats to; empty disables
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "service-sim",
	Short: "Concurrent simulator for a two-stage service network",
}

// runCmd executes the simulation using parameters from flags, environment and scenario file
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the service network simulation",
	Run: func(cmd *cobra.Command, args []string) {
		// Set up logging
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)

		cfg, err := resolveConfig(cmd.Flags(), scenarioPath)
		if err != nil {
			logrus.Fatalf("Unable to resolve simulation config: %v", err)
		}
		if interactive {
			cfg, err = promptConfig(os.Stdin, os.Stdout, cfg)
			if err != nil {
				logrus.Fatalf("Unable to read simulation parameters: %v", err)
			}
		}

		s, err := sim.NewSimulator(cfg)
		if err != nil {
			logrus.Fatalf("Invalid configuration: %v", err)
		}
		if logEvents {
			s.Subscribe(newEventLogger(os.Stdout, true))
		}
		if metricsAddr != "" {
			srv, err := startMetricsServer(metricsAddr)
			if err != nil {
				logrus.Fatalf("Unable to start metrics server on %s: %v", metricsAddr, err)
			}
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := srv.Shutdown(shutdownCtx); err != nil {
					logrus.Warnf("Metrics server shutdown: %v", err)
				}
			}()
			s.Subscribe(srv.Observer)
		}

		logrus.Infof("Starting simulation %s: duration=%v, split=%v%%, pools=%d/%d, tick=%v, topology=%s",
			s.RunID, cfg.Duration, cfg.SplitPercentage, cfg.PoolSizeFor(sim.StageRegular),
			cfg.PoolSizeFor(sim.StageAdditionalService), cfg.Tick, cfg.Topology)

		// SIGINT/SIGTERM end generation early; queued work still drains.
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := s.Run(ctx); err != nil {
			logrus.Fatalf("Simulation failed: %v", err)
		}

		stats, err := s.Stats()
		if err != nil {
			logrus.Fatalf("Unable to compute statistics: %v", err)
		}
		stats.Print(os.Stdout)
		if resultsPath != "" {
			if err := stats.SaveResults(resultsPath); err != nil {
				logrus.Fatalf("Unable to save results: %v", err)
			}
		}

		logrus.Info("Simulation complete.")
	},
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newViper binds flags and SERVICESIM_* environment variables.
// Precedence: changed flag > environment > scenario file > flag default.
func newViper(flags *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(flags); err != nil {
		return nil, err
	}
	return v, nil
}

// resolveConfig merges flags, environment and the optional scenario file into a sim.Config.
func resolveConfig(flags *pflag.FlagSet, scenario string) (sim.Config, error) {
	v, err := newViper(flags)
	if err != nil {
		return sim.Config{}, err
	}
	if scenario != "" {
		sc, err := loadScenario(scenario)
		if err != nil {
			return sim.Config{}, err
		}
		sc.applyDefaults(v)
	}
	return configFromViper(v), nil
}

func configFromViper(v *viper.Viper) sim.Config {
	return sim.Config{
		Duration:           v.GetDuration("duration"),
		SplitPercentage:    v.GetFloat64("split"),
		PoolSize:           v.GetInt("pool-size"),
		RegularPoolSize:    v.GetInt("regular-pool-size"),
		AdditionalPoolSize: v.GetInt("additional-pool-size"),
		Tick:               v.GetDuration("tick"),
		RegularProcessing: sim.DurationRange{
			Min: v.GetDuration("regular-min"),
			Max: v.GetDuration("regular-max"),
		},
		AdditionalProcessing: sim.DurationRange{
			Min: v.GetDuration("additional-min"),
			Max: v.GetDuration("additional-max"),
		},
		Topology:    sim.Topology(v.GetString("topology")),
		Seed:        v.GetInt64("seed"),
		MaxRequests: v.GetInt("max-requests"),
	}
}

// registerRunFlags defines the simulation flags on fs. Split out of init so
// tests can build a fresh flag set.
func registerRunFlags(fs *pflag.FlagSet) {
	def := sim.DefaultConfig()

	fs.Duration("duration", def.Duration, "Total simulation duration; new requests stop after it elapses")
	fs.Float64("split", def.SplitPercentage, "Percentage of requests routed on to the additional service stage [0-100]")
	fs.Int("pool-size", def.PoolSize, "Number of workers per stage")
	fs.Int("regular-pool-size", 0, "Regular stage workers (0 = --pool-size)")
	fs.Int("additional-pool-size", 0, "Additional service stage workers (0 = --pool-size)")
	fs.Duration("tick", def.Tick, "Interval at which generators evaluate a new request")
	fs.Duration("regular-min", def.RegularProcessing.Min, "Minimum regular processing time")
	fs.Duration("regular-max", def.RegularProcessing.Max, "Maximum regular processing time")
	fs.Duration("additional-min", def.AdditionalProcessing.Min, "Minimum additional service processing time")
	fs.Duration("additional-max", def.AdditionalProcessing.Max, "Maximum additional service processing time")
	fs.String("topology", string(def.Topology), "Generator topology: single or per-class")
	fs.Int64("seed", def.Seed, "Seed for class assignment and processing times")
	fs.Int("max-requests", 0, "Stop generating after this many requests (0 = unlimited)")
}

// init sets up CLI flags and subcommands
func init() {
	registerRunFlags(runCmd.Flags())

	runCmd.Flags().StringVar(&logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")
	runCmd.Flags().StringVar(&scenarioPath, "scenario", "", "YAML scenario file with simulation parameters")
	runCmd.Flags().BoolVar(&interactive, "interactive", false, "Prompt for duration, split and pool size on stdin")
	runCmd.Flags().BoolVar(&logEvents, "events", true, "Log every request event to stdout")
	runCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9090)")
	runCmd.Flags().StringVar(&resultsPath, "results-path", "", "Write the final statistics as JSON to this file")

	// Attach `run` as a subcommand to `root`
	rootCmd.AddCommand(runCmd)
}
