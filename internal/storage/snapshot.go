package storage

import (
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
	"github.com/san-kum/flyer/internal/world"
	"github.com/vmihailenco/msgpack/v5"
)

// SaveSnapshot writes snap as zstd-compressed msgpack.
func SaveSnapshot(path string, snap world.Snapshot) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	zw, err := zstd.NewWriter(f)
	if err != nil {
		return err
	}
	if err := msgpack.NewEncoder(zw).Encode(snap); err != nil {
		zw.Close()
		return err
	}
	if err := zw.Close(); err != nil {
		return err
	}
	return f.Close()
}

func LoadSnapshot(path string) (*world.Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	zr, err := zstd.NewReader(f, zstd.WithDecoderConcurrency(0))
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	var snap world.Snapshot
	if err := msgpack.NewDecoder(zr).Decode(&snap); err != nil {
		return nil, err
	}
	return &snap, nil
}
