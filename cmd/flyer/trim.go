package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/san-kum/flyer/internal/experiment"
	"github.com/san-kum/flyer/internal/storage"
	"github.com/san-kum/flyer/internal/trim"
	"github.com/san-kum/flyer/internal/viz"
	"github.com/spf13/cobra"
)

func runTrim(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("seed") {
		cfg.Trim.Seed = seed
	}
	if cmd.Flags().Changed("workers") {
		cfg.Trim.Workers = workers
	}
	maxIter := cfg.Trim.MaxIterations
	if iterations > 0 {
		maxIter = iterations
	}

	logger, closer, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer closer.Close()

	eng, err := experiment.NewRegistry().GetEngine(cfg.Model, cfg.Integrator)
	if err != nil {
		return err
	}

	var best []float64
	solver := trim.NewSolver(eng,
		trim.WithConfig(cfg.TrimConfig()),
		trim.WithLogger(logger),
		trim.WithObserver(func(iter int, _ [3]float64, cost float64) {
			best = append(best, cost)
			logger.Debug("trim generation", slog.Int("iteration", iter), slog.Float64("cost", cost))
		}),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	target := trim.Target{Altitude: altitude, Airspeed: airspeed}
	fmt.Printf("trimming for %.0f m at %.1f m/s...\n", altitude, airspeed)
	start := time.Now()

	// An aborted search still carries its best estimate.
	res, trimErr := solver.Trim(ctx, target, maxIter)

	st := styles()
	fmt.Println(viz.TrimSummary(res, st))
	if len(res.History) > 1 {
		fmt.Println(viz.Convergence(res.History))
	}
	if len(best) > 0 {
		fmt.Printf("%s %s\n", st.Label.Render("progress"), viz.Sparkline(best, 40))
	}
	fmt.Printf("completed in %v\n", time.Since(start))

	if trimErr != nil {
		return trimErr
	}
	if saveTrim {
		runID, err := storage.New(dataDir).SaveTrim(res, cfg.Trim.Seed)
		if err != nil {
			return err
		}
		fmt.Printf("run id: %s\n", runID)
	}
	return nil
}
