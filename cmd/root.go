package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/evcharge-sim/evcharge-sim/sim"
	"github.com/evcharge-sim/evcharge-sim/sim/telemetry"
	"github.com/evcharge-sim/evcharge-sim/sim/trace"
)

var (
	logLevel   string // Log verbosity level
	configPath string // Optional YAML config file

	// run flags; each overrides the config only when set on the command line
	policy           string  // Routing policy name
	seed             int64   // Master seed
	numDelays        uint64  // Cars that must finish charging before the run stops
	meanInterarrival float64 // Mean minutes between system arrivals
	traceLevel       string  // Decision trace level
	metricsOut       string  // Prometheus textfile path
	resultsPath      string  // JSON results path
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "evcharge-sim",
	Short: "Discrete-event simulator for EV charging station routing",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)
	},
}

// runOptions are the outputs a single run can produce besides the summary.
type runOptions struct {
	Trace       trace.TraceConfig
	MetricsOut  string
	ResultsPath string
}

// runCmd executes one simulation using the config file and CLI overrides
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one simulation and print its metrics",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadRunConfig(cmd)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		if !trace.IsValidTraceLevel(traceLevel) {
			logrus.Fatalf("Invalid trace level %q (expected none or decisions)", traceLevel)
		}
		opts := runOptions{
			Trace:       trace.TraceConfig{Level: trace.TraceLevel(traceLevel)},
			MetricsOut:  metricsOut,
			ResultsPath: resultsPath,
		}

		startTime := time.Now()
		if _, err := runSimulation(cfg, opts, os.Stdout); err != nil {
			logrus.Fatalf("%v", err)
		}
		logrus.Infof("Simulation complete in %s.", time.Since(startTime))
	},
}

// loadRunConfig layers config file, environment and explicitly set flags.
func loadRunConfig(cmd *cobra.Command) (*sim.Config, error) {
	cfg, err := sim.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	flags := cmd.Flags()
	if flags.Changed("policy") {
		cfg.Policy = policy
	}
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("num-delays") {
		cfg.NumDelaysRequired = numDelays
	}
	if flags.Changed("mean-interarrival") {
		cfg.MeanInterarrivalTime = meanInterarrival
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// runSimulation runs cfg, prints the summary to w and writes the optional
// outputs in opts.
func runSimulation(cfg *sim.Config, opts runOptions, w io.Writer) (*sim.RunResult, error) {
	s, err := sim.NewSimulator(*cfg)
	if err != nil {
		return nil, err
	}
	s.EnableTrace(opts.Trace)

	var reg *prometheus.Registry
	if opts.MetricsOut != "" {
		reg = prometheus.NewRegistry()
		collector, err := telemetry.NewCollector(reg, cfg.Policy, telemetry.StationNames(s))
		if err != nil {
			return nil, err
		}
		s.AddObserver(collector)
	}

	s.Run()
	result := s.Result()
	result.Print(w)

	if s.Trace != nil {
		printTraceSummary(w, trace.Summarize(s.Trace))
	}
	if reg != nil {
		if err := telemetry.WriteTextfile(opts.MetricsOut, reg); err != nil {
			return nil, err
		}
	}
	if opts.ResultsPath != "" {
		if err := result.SaveResults(opts.ResultsPath); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func printTraceSummary(w io.Writer, summary *trace.TraceSummary) {
	fmt.Fprintln(w, "=== Decision Trace ===")
	fmt.Fprintf(w, "Decisions              : %d (routed %d, balked %d)\n",
		summary.TotalDecisions, summary.RoutedCount, summary.BalkedCount)
	fmt.Fprintf(w, "Low-battery overrides  : %d\n", summary.LowBatteryOverrides)
	fmt.Fprintf(w, "Wait regret mean/max   : %.2f / %.2f min\n", summary.MeanRegret, summary.MaxRegret)
	for _, name := range sortedKeys(summary.TargetDistribution) {
		fmt.Fprintf(w, "  %-12s %d\n", name, summary.TargetDistribution[name])
	}
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file (defaults apply when omitted)")

	runCmd.Flags().StringVar(&policy, "policy", string(sim.PolicyClosestStationFirst), "Routing policy (closest_station_first, shortest_estimated_wait)")
	runCmd.Flags().Int64Var(&seed, "seed", 100, "Master seed")
	runCmd.Flags().Uint64Var(&numDelays, "num-delays", 10000, "Number of cars that must finish charging")
	runCmd.Flags().Float64Var(&meanInterarrival, "mean-interarrival", 0.3, "Mean minutes between car arrivals")
	runCmd.Flags().StringVar(&traceLevel, "trace", string(trace.TraceLevelNone), "Decision trace level (none, decisions)")
	runCmd.Flags().StringVar(&metricsOut, "metrics-out", "", "Write Prometheus metrics to this textfile")
	runCmd.Flags().StringVar(&resultsPath, "results", "", "Write the run result as JSON to this file")

	// Attach `run` as a subcommand to `root`
	rootCmd.AddCommand(runCmd)
}
