package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/san-kum/flyer/internal/automation"
	"github.com/san-kum/flyer/internal/config"
	"github.com/san-kum/flyer/internal/logging"
	"github.com/san-kum/flyer/internal/viz"
	"github.com/spf13/cobra"
)

var (
	dataDir    string
	configFile string
	preset     string
	logLevel   string
	themeName  string

	// run
	dt          float64
	duration    float64
	integrator  string
	noSave      bool
	metricsAddr string
	exportPath  string

	// trim
	altitude   float64
	airspeed   float64
	iterations int
	seed       uint64
	workers    int
	saveTrim   bool

	// plot
	vehicleIndex int
	svgPath      string

	// runway
	rwX, rwY     float64
	rwWidth      float64
	rwLength     float64
	rwHeading    float64
	runwayPoints []float64

	// snapshot
	pngPath string
	pxScale float64

	// studies
	mcConfig automation.MonteCarloConfig
	sweepLo  float64
	sweepHi  float64
	sweepN   int
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "flyer",
		Short:         "fixed-wing flight simulation core",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&dataDir, "data", ".flyer", "data directory")
	pf.StringVar(&configFile, "config", "", "config file path (yaml)")
	pf.StringVar(&preset, "preset", "", "use preset configuration")
	pf.StringVar(&logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	pf.StringVar(&themeName, "theme", "cockpit", fmt.Sprintf("output theme %v", viz.ThemeNames()))

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "fly the configured vehicles",
		Args:  cobra.NoArgs,
		RunE:  runSimulation,
	}
	runCmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "timestep")
	runCmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "duration")
	runCmd.Flags().StringVar(&integrator, "integrator", "rk4", "integrator")
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")
	runCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve prometheus metrics on this address until interrupted")
	runCmd.Flags().StringVar(&exportPath, "export", "", "also write the run as JSON to this file")

	trimCmd := &cobra.Command{
		Use:   "trim",
		Short: "find steady level flight controls",
		Args:  cobra.NoArgs,
		RunE:  runTrim,
	}
	trimCmd.Flags().Float64Var(&altitude, "alt", config.DefaultAltitude, "target altitude (m)")
	trimCmd.Flags().Float64Var(&airspeed, "speed", config.DefaultAirspeed, "target airspeed (m/s)")
	trimCmd.Flags().IntVar(&iterations, "iterations", 0, "iteration cap (0 uses config)")
	trimCmd.Flags().Uint64Var(&seed, "seed", 0, "swarm seed (0 uses config)")
	trimCmd.Flags().IntVar(&workers, "workers", 0, "parallel cost evaluations (0 uses config)")
	trimCmd.Flags().BoolVar(&saveTrim, "save", false, "store the result")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot altitude and ground track of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().IntVar(&vehicleIndex, "vehicle", -1, "only plot this vehicle")
	plotCmd.Flags().StringVar(&svgPath, "svg", "", "also write the ground track as SVG")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a stored run as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	runwayCmd := &cobra.Command{
		Use:   "runway",
		Short: "test points against a runway and print its approach points",
		Args:  cobra.NoArgs,
		RunE:  runwayInfo,
	}
	runwayCmd.Flags().Float64Var(&rwX, "x", 0, "centre x (m)")
	runwayCmd.Flags().Float64Var(&rwY, "y", 0, "centre y (m)")
	runwayCmd.Flags().Float64Var(&rwWidth, "width", 0, "width (m, 0 uses default)")
	runwayCmd.Flags().Float64Var(&rwLength, "length", 0, "length (m, 0 uses default)")
	runwayCmd.Flags().Float64Var(&rwHeading, "heading", 0, "heading (degrees)")
	runwayCmd.Flags().Float64SliceVar(&runwayPoints, "point", nil, "x,y pairs to test")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Args:  cobra.NoArgs,
		RunE:  listPresets,
	}

	snapshotCmd := &cobra.Command{
		Use:   "snapshot [run_id]",
		Short: "show or render the final world snapshot of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  showSnapshot,
	}
	snapshotCmd.Flags().StringVar(&pngPath, "png", "", "render a top-down PNG to this path")
	snapshotCmd.Flags().Float64Var(&pxScale, "scale", 0.25, "pixels per metre for --png")

	mcCmd := &cobra.Command{
		Use:   "montecarlo",
		Short: "fly dispersed copies of the configuration",
		Args:  cobra.NoArgs,
		RunE:  runMonteCarlo,
	}
	mcCmd.Flags().IntVar(&mcConfig.Trials, "trials", 20, "number of trials")
	mcCmd.Flags().Uint64Var(&mcConfig.Seed, "seed", 1, "dispersion seed")
	mcCmd.Flags().Float64Var(&mcConfig.Position, "position", 20, "position half-width (m)")
	mcCmd.Flags().Float64Var(&mcConfig.Airspeed, "airspeed", 3, "airspeed half-width (m/s)")
	mcCmd.Flags().Float64Var(&mcConfig.Heading, "heading", 5, "heading half-width (degrees)")
	mcCmd.Flags().IntVar(&mcConfig.Workers, "workers", 4, "parallel trials")

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "trim across a range of airspeeds",
		Args:  cobra.NoArgs,
		RunE:  runSweep,
	}
	sweepCmd.Flags().Float64Var(&altitude, "alt", config.DefaultAltitude, "target altitude (m)")
	sweepCmd.Flags().Float64Var(&sweepLo, "from", 35, "lowest airspeed (m/s)")
	sweepCmd.Flags().Float64Var(&sweepHi, "to", 70, "highest airspeed (m/s)")
	sweepCmd.Flags().IntVar(&sweepN, "n", 8, "number of airspeeds")
	sweepCmd.Flags().IntVar(&iterations, "iterations", 0, "iteration cap per trim (0 uses config)")

	rootCmd.AddCommand(runCmd, trimCmd, listCmd, plotCmd, exportCmd, runwayCmd, presetsCmd, snapshotCmd, mcCmd, sweepCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// loadConfig prefers --config over --preset and falls back to defaults.
func loadConfig() (*config.Config, error) {
	var cfg *config.Config
	switch {
	case configFile != "":
		c, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = c
	case preset != "":
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	default:
		cfg = config.DefaultConfig()
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) (*slog.Logger, io.Closer, error) {
	logger, closer, err := logging.New(cfg.Log)
	if err != nil {
		return nil, nil, fmt.Errorf("logging: %w", err)
	}
	return logger, closer, nil
}

func styles() viz.Styles {
	return viz.NewStyles(viz.GetTheme(themeName))
}
