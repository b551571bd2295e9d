package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/signalsfoundry/constellation-propagator/core"
	"github.com/signalsfoundry/constellation-propagator/internal/config"
	"github.com/signalsfoundry/constellation-propagator/internal/logging"
	"github.com/signalsfoundry/constellation-propagator/internal/observability"
	"github.com/signalsfoundry/constellation-propagator/timectrl"
)

var (
	configFile   string
	satellites   int
	timestep     float64
	threshold    float64
	distribution string
	seed         int64
	workers      int
	tleFile      string
	duration     float64
	tick         time.Duration
	accelerated  bool
	metricsAddr  string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "simulator",
		Short: "headless orbital constellation propagator",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "propagate a constellation and report proximity warnings",
		RunE:  runSimulation,
	}
	runCmd.Flags().StringVar(&configFile, "config", "", "YAML config file path")
	runCmd.Flags().IntVar(&satellites, "satellites", config.DefaultSatellites, "number of satellites")
	runCmd.Flags().Float64Var(&timestep, "dt", core.DefaultTimestepSeconds, "simulated seconds per step")
	runCmd.Flags().Float64Var(&threshold, "threshold", core.DefaultProximityThreshold, "proximity warning distance in metres")
	runCmd.Flags().StringVar(&distribution, "distribution", "shell", "initial orbit distribution (shell or ring)")
	runCmd.Flags().Int64Var(&seed, "seed", 0, "seed for the initial-orbit RNG")
	runCmd.Flags().IntVar(&workers, "workers", 0, "parallel propagation workers (0 = serial)")
	runCmd.Flags().StringVar(&tleFile, "tle", "", "optional TLE file seeding the first satellites")
	runCmd.Flags().Float64Var(&duration, "duration", config.DefaultDurationSeconds, "simulated seconds to run")
	runCmd.Flags().DurationVar(&tick, "tick", time.Second, "wall-clock frame interval in real-time mode")
	runCmd.Flags().BoolVar(&accelerated, "accelerated", true, "run frames as fast as possible (vs real-time)")
	runCmd.Flags().StringVar(&metricsAddr, "metrics-addr", config.DefaultMetricsAddr, "HTTP address for Prometheus /metrics (empty disables)")
	rootCmd.AddCommand(runCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runSimulation(cmd *cobra.Command, args []string) error {
	log := logging.NewFromEnv()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	shutdownTracing, err := observability.InitTracing(ctx, observability.TracingConfigFromEnv(), log)
	if err != nil {
		return err
	}
	defer observability.ShutdownWithTimeout(context.Background(), shutdownTracing, log)

	collector, err := observability.NewSimCollector(nil)
	if err != nil {
		return err
	}
	metricsSrv := serveMetrics(cfg.MetricsAddr, collector, log)
	defer func() {
		if metricsSrv != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = metricsSrv.Shutdown(shutdownCtx)
		}
	}()

	sim, err := buildSimulation(cfg, log, collector)
	if err != nil {
		return err
	}

	mode := timectrl.RealTime
	if cfg.Accelerated {
		mode = timectrl.Accelerated
	}
	driver := timectrl.NewDriver(tick, mode)

	lastWarnings := 0
	driver.AddListener(func(frame int) {
		sim.Step()
		warnings := sim.ProximityWarnings()
		if len(warnings) != lastWarnings {
			log.Info(ctx, "proximity warning set changed",
				logging.Int("frame", frame),
				logging.Int("flagged", len(warnings)),
				logging.Any("elapsed", sim.Elapsed()),
			)
			lastWarnings = len(warnings)
		}
	})

	frames := cfg.Frames()
	log.Info(ctx, "starting simulation",
		logging.Int("satellites", cfg.Satellites),
		logging.Int("frames", frames),
		logging.Any("timestep_s", cfg.TimestepSeconds),
		logging.Any("threshold_m", cfg.ProximityThresholdMeters),
		logging.Int("workers", cfg.Workers),
	)

	ran := driver.Run(ctx, frames)

	log.Info(ctx, "simulation finished",
		logging.Int("frames_run", ran),
		logging.Any("simulated", sim.Elapsed()),
		logging.Int("flagged", len(sim.ProximityWarnings())),
		logging.Int("grounded", sim.InertCount()),
	)
	return nil
}

// loadConfig reads the YAML file when given, then lets explicitly set
// flags override individual fields.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.Default()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("satellites") {
		cfg.Satellites = satellites
	}
	if flags.Changed("dt") {
		cfg.TimestepSeconds = timestep
	}
	if flags.Changed("threshold") {
		cfg.ProximityThresholdMeters = threshold
	}
	if flags.Changed("distribution") {
		cfg.Distribution = distribution
	}
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("workers") {
		cfg.Workers = workers
	}
	if flags.Changed("tle") {
		cfg.TLEFile = tleFile
	}
	if flags.Changed("duration") {
		cfg.DurationSeconds = duration
	}
	if flags.Changed("accelerated") {
		cfg.Accelerated = accelerated
	}
	if flags.Changed("metrics-addr") {
		cfg.MetricsAddr = metricsAddr
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func buildSimulation(cfg *config.Config, log logging.Logger, collector *observability.SimCollector) (*core.Simulation, error) {
	dist, err := cfg.ParseDistribution()
	if err != nil {
		return nil, err
	}

	sim, err := core.NewSimulation(cfg.Satellites,
		core.WithTimestep(cfg.TimestepSeconds),
		core.WithProximityThreshold(cfg.ProximityThresholdMeters),
		core.WithDistribution(dist),
		core.WithSeed(cfg.Seed),
		core.WithWorkers(cfg.Workers),
		core.WithLogger(log),
		core.WithRecorder(collector),
	)
	if err != nil {
		return nil, err
	}

	if cfg.TLEFile != "" {
		sets, err := core.LoadTLEFile(cfg.TLEFile)
		if err != nil {
			return nil, err
		}
		if err := core.SeedFromTLEs(sim.Registry(), sets, time.Now().UTC()); err != nil {
			return nil, err
		}
		log.Info(context.Background(), "seeded satellites from TLEs",
			logging.Int("sets", len(sets)),
			logging.String("path", cfg.TLEFile),
		)
	}
	return sim, nil
}

func serveMetrics(addr string, collector *observability.SimCollector, log logging.Logger) *http.Server {
	if addr == "" || collector == nil {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())

	srv := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Warn(context.Background(), "metrics server exited", logging.String("error", err.Error()))
		}
	}()

	log.Info(context.Background(), "serving Prometheus metrics", logging.String("addr", addr))
	return srv
}
