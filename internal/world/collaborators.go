package world

import (
	"fmt"
	"image"
)

// MapSpec parameterises procedural terrain.
type MapSpec struct {
	Seed    int64   `yaml:"seed"`
	Area    float64 `yaml:"area"`
	Scaling float64 `yaml:"scaling"`
	Water   float64 `yaml:"water"`
}

// MapData is opaque to the world.
type MapData []byte

type MapGenerator interface {
	Generate(spec MapSpec) (MapData, error)
}

// Renderer draws a snapshot from the snapshot's camera.
type Renderer interface {
	Render(s Snapshot) (*image.RGBA, error)
}

type ResourceMounter interface {
	Mount(assetsDir, terrainDir string) error
}

func (w *World) CreateMap(spec MapSpec) (MapData, error) {
	if w.mapGen == nil {
		return nil, fmt.Errorf("%w: map generator", ErrNoCollaborator)
	}
	return w.mapGen.Generate(spec)
}

func (w *World) Render() (*image.RGBA, error) {
	if w.renderer == nil {
		return nil, fmt.Errorf("%w: renderer", ErrNoCollaborator)
	}
	return w.renderer.Render(w.Snapshot())
}

// Mount hands the configured asset and terrain directories to the mounter.
func (w *World) Mount() error {
	if w.mounter == nil {
		return fmt.Errorf("%w: resource mounter", ErrNoCollaborator)
	}
	return w.mounter.Mount(w.cfg.AssetsDir, w.cfg.TerrainDir)
}
