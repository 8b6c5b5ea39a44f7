package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"text/tabwriter"

	"github.com/san-kum/flyer/internal/automation"
	"github.com/san-kum/flyer/internal/experiment"
	"github.com/san-kum/flyer/internal/geom"
	"github.com/san-kum/flyer/internal/viz"
	"github.com/spf13/cobra"
)

func runMonteCarlo(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, closer, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer closer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Printf("flying %d dispersed trials...\n", mcConfig.Trials)
	results, err := automation.RunMonteCarlo(ctx, cfg, mcConfig, logger)
	if err != nil {
		return err
	}

	st := styles()
	s := automation.Summarize(results)
	rate := func(n int) string {
		return fmt.Sprintf("%d (%.0f%%)", n, 100*float64(n)/float64(s.Trials))
	}
	fmt.Println(st.Panel.Render(fmt.Sprintf("%s\n%s %s\n%s %s\n%s %d",
		st.Title.Render("monte carlo"),
		st.Label.Render("trials "), st.Value.Render(fmt.Sprint(s.Trials)),
		st.Label.Render("crashed"), st.Bad.Render(rate(s.Crashed)),
		st.Label.Render("landed "), s.Landed)))

	envelope := make([]float64, len(results))
	for i, r := range results {
		envelope[i] = r.Metrics["envelope"]
	}
	fmt.Printf("%s %s\n", st.Label.Render("envelope per trial"), viz.Sparkline(envelope, 60))
	return nil
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
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
	maxIter := cfg.Trim.MaxIterations
	if iterations > 0 {
		maxIter = iterations
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	points, err := automation.TrimSweep(ctx, eng, cfg.TrimConfig(), altitude, sweepLo, sweepHi, sweepN, maxIter, logger)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "AIRSPEED\tPITCH\tELEVATOR\tTHROTTLE\tCOST\tSTATUS")
	throttle := make([]float64, 0, len(points))
	for _, p := range points {
		r := p.Result
		fmt.Fprintf(w, "%.1f\t%.2f°\t%.4f\t%.4f\t%.2e\t%s\n",
			p.Airspeed, geom.Degrees(r.Pitch()), r.Elevator(), r.Throttle(), r.Cost, r.Status)
		throttle = append(throttle, r.Throttle())
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if len(throttle) > 1 {
		fmt.Println(viz.Plot(throttle, "trim throttle vs airspeed", 60, 8))
	}
	return nil
}
