package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/san-kum/flyer/internal/experiment"
	"github.com/san-kum/flyer/internal/storage"
	"github.com/san-kum/flyer/internal/viz"
	"github.com/san-kum/flyer/internal/world"
	"github.com/spf13/cobra"
)

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("dt") {
		cfg.World.Dt = dt
	}
	if cmd.Flags().Changed("time") {
		cfg.World.Duration = duration
	}
	if cmd.Flags().Changed("integrator") {
		cfg.Integrator = integrator
	}

	logger, closer, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer closer.Close()

	reg := prometheus.NewRegistry()
	collector, err := world.NewCollector(reg)
	if err != nil {
		return err
	}

	exp, err := experiment.New(cfg,
		experiment.WithLogger(logger),
		experiment.WithWorldOptions(world.WithCollector(collector)),
	)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var srv *http.Server
	if metricsAddr != "" {
		srv = &http.Server{Addr: metricsAddr, Handler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{})}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server failed", slog.Any("error", err))
			}
		}()
		logger.Info("serving metrics", slog.String("addr", metricsAddr))
	}

	name := preset
	if name == "" {
		name = "custom"
	}
	fmt.Printf("flying %d vehicle(s) for %.1fs...\n", len(cfg.Vehicles), cfg.World.Duration)
	start := time.Now()

	result, runErr := exp.Run(ctx)
	elapsed := time.Since(start)

	fmt.Println(viz.RunSummary(name, result, styles()))
	if result.Final.Runway != nil || len(result.Tracks) > 0 {
		plan := viz.NewPlanView(60, 15)
		if rw := result.Final.Runway; rw != nil {
			plan.SetRunway(*rw)
		}
		for _, tr := range result.Tracks {
			plan.AddTrack(tr.States)
		}
		fmt.Print(plan.String())
	}
	fmt.Printf("completed in %v\n", elapsed)

	if exportPath != "" {
		if err := exportFile(exportPath, cfg.World.Dt, result); err != nil {
			return err
		}
	}

	if !noSave {
		st := storage.New(dataDir)
		runID, err := st.Save(storage.RunMetadata{
			Name:       name,
			Dt:         cfg.World.Dt,
			Duration:   cfg.World.Duration,
			Integrator: cfg.Integrator,
		}, result)
		if err != nil {
			return err
		}
		fmt.Printf("run id: %s\n", runID)
	}

	if srv != nil && runErr == nil {
		fmt.Printf("metrics at http://%s/metrics, interrupt to exit\n", metricsAddr)
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdown)
	}
	return runErr
}

func exportFile(path string, dt float64, result *experiment.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := storage.ExportJSON(f, dt, result); err != nil {
		return err
	}
	return f.Close()
}
