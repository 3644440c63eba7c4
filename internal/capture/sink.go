package capture

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joseph-ayodele/shift-sync/internal/entity"
)

// DirSink writes captured images into a directory as PNG files.
type DirSink struct {
	dir string
}

func NewDirSink(dir string) (*DirSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create snapshot dir: %w", err)
	}
	return &DirSink{dir: dir}, nil
}

// Segment stores seg under its canonical name and records the path on it.
func (d *DirSink) Segment(ctx context.Context, seg *entity.ImageSegment) error {
	path := filepath.Join(d.dir, seg.Name())
	if err := os.WriteFile(path, seg.Image, 0o644); err != nil {
		return err
	}
	seg.Path = path
	return nil
}

func (d *DirSink) Snapshot(ctx context.Context, name string, img []byte) error {
	return os.WriteFile(filepath.Join(d.dir, name), img, 0o644)
}

// ResetDir removes dir and everything under it, then recreates it empty.
func ResetDir(dir string) error {
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("remove %s: %w", dir, err)
	}
	return os.MkdirAll(dir, 0o755)
}
