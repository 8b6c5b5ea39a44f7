package main

import (
	"encoding/json"
	"fmt"
	"image/png"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/san-kum/flyer/internal/config"
	"github.com/san-kum/flyer/internal/experiment"
	"github.com/san-kum/flyer/internal/geom"
	"github.com/san-kum/flyer/internal/runway"
	"github.com/san-kum/flyer/internal/storage"
	"github.com/san-kum/flyer/internal/viz"
	"github.com/san-kum/flyer/internal/world"
	"github.com/spf13/cobra"
)

func listRuns(cmd *cobra.Command, args []string) error {
	runs, err := storage.New(dataDir).List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tKIND\tNAME\tTIME\tDURATION\tVEHICLES\tCRASHES")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.2fs\t%s\t%d\n",
			run.ID,
			run.Kind,
			run.Name,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Duration,
			strings.Join(run.Vehicles, ","),
			len(run.Crashes),
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runID := args[0]

	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	if meta.Kind == storage.KindTrim {
		res, err := st.LoadTrim(runID)
		if err != nil {
			return err
		}
		fmt.Println(viz.TrimSummary(res, styles()))
		fmt.Println(viz.Convergence(res.History))
		return nil
	}

	tracks, err := st.LoadTracks(runID)
	if err != nil {
		return err
	}
	if vehicleIndex >= len(tracks) {
		return fmt.Errorf("run %s has %d vehicles", runID, len(tracks))
	}

	plan := viz.NewPlanView(60, 15)
	if snap, err := st.LoadSnapshot(runID); err == nil && snap.Runway != nil {
		plan.SetRunway(*snap.Runway)
	}
	for i, tr := range tracks {
		if vehicleIndex >= 0 && i != vehicleIndex {
			continue
		}
		fmt.Printf("\n%s\n", tr.Name)
		fmt.Println(viz.Altitude(tr.States))
		plan.AddTrack(tr.States)
	}
	fmt.Println()
	fmt.Print(plan.String())

	if svgPath != "" {
		if err := os.WriteFile(svgPath, []byte(plan.SVG(800, 600)), 0644); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", svgPath)
	}
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runID := args[0]

	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	tracks, err := st.LoadTracks(runID)
	if err != nil {
		return err
	}

	result := &experiment.Result{
		Tracks:   tracks,
		Metrics:  meta.Metrics,
		Crashes:  meta.Crashes,
		OnRunway: meta.OnRunway,
	}
	if len(tracks) > 0 && len(tracks[0].Times) > 0 {
		result.Steps = len(tracks[0].Times) - 1
		result.Time = tracks[0].Times[result.Steps]
	}
	return storage.ExportJSON(os.Stdout, meta.Dt, result)
}

func runwayInfo(cmd *cobra.Command, args []string) error {
	if len(runwayPoints)%2 != 0 {
		return fmt.Errorf("--point takes x,y pairs, got %d values", len(runwayPoints))
	}

	opts := []runway.Option{
		runway.WithPosition(rwX, rwY),
		runway.WithHeading(geom.Radians(rwHeading)),
	}
	if rwWidth > 0 {
		opts = append(opts, runway.WithWidth(rwWidth))
	}
	if rwLength > 0 {
		opts = append(opts, runway.WithLength(rwLength))
	}

	w := world.New()
	rw := w.CreateRunway(opts...)
	fmt.Printf("runway at (%.1f, %.1f), %.0f x %.0f m, heading %.1f°\n",
		rw.Position.X, rw.Position.Y, rw.Width, rw.Length, rwHeading)

	for i := 0; i < len(runwayPoints); i += 2 {
		x, y := runwayPoints[i], runwayPoints[i+1]
		on, err := w.PointOnRunway(x, y)
		if err != nil {
			return err
		}
		fmt.Printf("  (%.1f, %.1f): %t\n", x, y, on)
	}

	points, err := w.TouchdownPoints()
	if err != nil {
		return err
	}
	out, err := json.MarshalIndent(points, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tVEHICLES\tDURATION\tRUNWAY\tPARALLEL")
	for _, name := range config.ListPresets() {
		cfg := config.GetPreset(name)
		fmt.Fprintf(w, "%s\t%d\t%.0fs\t%t\t%t\n",
			name, len(cfg.Vehicles), cfg.World.Duration, cfg.Runway != nil, cfg.World.Parallel)
	}
	return w.Flush()
}

func showSnapshot(cmd *cobra.Command, args []string) error {
	snap, err := storage.New(dataDir).LoadSnapshot(args[0])
	if err != nil {
		return err
	}

	if pngPath == "" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(snap)
	}

	w := world.New(world.WithRenderer(viz.NewPlanRenderer(pxScale)))
	if err := w.Restore(*snap); err != nil {
		return err
	}
	img, err := w.Render()
	if err != nil {
		return err
	}

	f, err := os.Create(pngPath)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		return err
	}
	fmt.Printf("wrote %s (%dx%d)\n", pngPath, img.Bounds().Dx(), img.Bounds().Dy())
	return f.Close()
}
