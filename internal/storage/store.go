package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/san-kum/flyer/internal/dynamo"
	"github.com/san-kum/flyer/internal/experiment"
	"github.com/san-kum/flyer/internal/models"
	"github.com/san-kum/flyer/internal/trim"
	"github.com/san-kum/flyer/internal/world"
)

const (
	metadataFile = "metadata.json"
	statesFile   = "states.csv"
	trimFile     = "trim.json"
	snapshotFile = "snapshot.msgpack.zst"
)

var ErrRunNotFound = errors.New("storage: run not found")

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunKind string

const (
	KindRun  RunKind = "run"
	KindTrim RunKind = "trim"
)

type RunMetadata struct {
	ID         string             `json:"id"`
	Kind       RunKind            `json:"kind"`
	Name       string             `json:"name"`
	Timestamp  time.Time          `json:"timestamp"`
	Seed       uint64             `json:"seed,omitempty"`
	Dt         float64            `json:"dt,omitempty"`
	Duration   float64            `json:"duration,omitempty"`
	Integrator string             `json:"integrator,omitempty"`
	Vehicles   []string           `json:"vehicles,omitempty"`
	Metrics    map[string]float64 `json:"metrics,omitempty"`
	Crashes    []experiment.Crash `json:"crashes,omitempty"`
	OnRunway   []bool             `json:"on_runway,omitempty"`
}

// newRun creates a fresh run directory named after kind and name.
func (s *Store) newRun(kind RunKind, name string) (string, string, error) {
	if err := s.Init(); err != nil {
		return "", "", err
	}
	base := fmt.Sprintf("%s_%s_%d", kind, name, time.Now().Unix())
	id := base
	for i := 1; ; i++ {
		dir := filepath.Join(s.baseDir, id)
		err := os.Mkdir(dir, 0755)
		if err == nil {
			return id, dir, nil
		}
		if !os.IsExist(err) {
			return "", "", err
		}
		id = fmt.Sprintf("%s_%d", base, i)
	}
}

// Save writes a finished run: metadata, per-vehicle states and the final
// world snapshot. meta.ID and meta.Timestamp are filled in.
func (s *Store) Save(meta RunMetadata, result *experiment.Result) (string, error) {
	runID, runDir, err := s.newRun(KindRun, meta.Name)
	if err != nil {
		return "", err
	}

	meta.ID = runID
	meta.Kind = KindRun
	meta.Timestamp = time.Now()
	meta.Metrics = result.Metrics
	meta.Crashes = result.Crashes
	meta.OnRunway = result.OnRunway
	meta.Vehicles = meta.Vehicles[:0]
	for _, tr := range result.Tracks {
		meta.Vehicles = append(meta.Vehicles, tr.Name)
	}

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if err := writeStates(filepath.Join(runDir, statesFile), result.Tracks); err != nil {
		return "", err
	}
	if err := SaveSnapshot(filepath.Join(runDir, snapshotFile), result.Final); err != nil {
		return "", err
	}
	return runID, nil
}

// SaveTrim records a trim result as its own run.
func (s *Store) SaveTrim(res *trim.Result, seed uint64) (string, error) {
	name := fmt.Sprintf("%.0fm_%.0fms", res.Target.Altitude, res.Target.Airspeed)
	runID, runDir, err := s.newRun(KindTrim, name)
	if err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:        runID,
		Kind:      KindTrim,
		Name:      name,
		Timestamp: time.Now(),
		Seed:      seed,
		Metrics: map[string]float64{
			"cost":       res.Cost,
			"iterations": float64(res.Iterations),
		},
	}
	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, trimFile), res); err != nil {
		return "", err
	}
	return runID, nil
}

func (s *Store) LoadTrim(runID string) (*trim.Result, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, trimFile))
	if err != nil {
		return nil, notFound(runID, err)
	}
	var res trim.Result
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		data, err := os.ReadFile(filepath.Join(s.baseDir, entry.Name(), metadataFile))
		if err != nil {
			continue
		}

		var meta RunMetadata
		if err := json.Unmarshal(data, &meta); err != nil {
			continue
		}

		runs = append(runs, meta)
	}

	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, notFound(runID, err)
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

func (s *Store) LoadSnapshot(runID string) (*world.Snapshot, error) {
	snap, err := LoadSnapshot(filepath.Join(s.baseDir, runID, snapshotFile))
	if err != nil {
		return nil, notFound(runID, err)
	}
	return snap, nil
}

var stateColumns = []string{"x", "y", "z", "u", "v", "w", "qw", "qx", "qy", "qz", "p", "q", "r"}

func writeStates(path string, tracks []experiment.Track) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)

	header := append([]string{"time", "vehicle", "name"}, stateColumns...)
	header = append(header, models.Channels...)
	if err := w.Write(header); err != nil {
		return err
	}

	format := func(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
	for vi, tr := range tracks {
		for i := range tr.States {
			row := []string{format(tr.Times[i]), strconv.Itoa(vi), tr.Name}
			for _, val := range tr.States[i] {
				row = append(row, format(val))
			}
			for j := range models.Channels {
				val := 0.0
				if i < len(tr.Controls) && j < len(tr.Controls[i]) {
					val = tr.Controls[i][j]
				}
				row = append(row, format(val))
			}
			if err := w.Write(row); err != nil {
				return err
			}
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}

// LoadTracks reads states.csv back into one track per vehicle.
func (s *Store) LoadTracks(runID string) ([]experiment.Track, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, statesFile))
	if err != nil {
		return nil, notFound(runID, err)
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}

	var tracks []experiment.Track
	width := 3 + models.StateLen + models.ControlLen
	for line, record := range records {
		if line == 0 {
			continue
		}
		if len(record) != width {
			return nil, fmt.Errorf("%s line %d: expected %d fields, got %d", statesFile, line+1, width, len(record))
		}

		vi, err := strconv.Atoi(record[1])
		if err != nil || vi < 0 {
			return nil, fmt.Errorf("%s line %d: bad vehicle index %q", statesFile, line+1, record[1])
		}
		values := make([]float64, 0, width-2)
		for _, field := range append(record[:1:1], record[3:]...) {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("%s line %d: %w", statesFile, line+1, err)
			}
			values = append(values, v)
		}

		for len(tracks) <= vi {
			tracks = append(tracks, experiment.Track{})
		}
		tr := &tracks[vi]
		tr.Name = record[2]
		tr.Times = append(tr.Times, values[0])
		tr.States = append(tr.States, dynamo.State(values[1:1+models.StateLen]))
		tr.Controls = append(tr.Controls, dynamo.Control(values[1+models.StateLen:]))
	}

	return tracks, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return err
	}
	return f.Close()
}

func notFound(runID string, err error) error {
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return err
}
