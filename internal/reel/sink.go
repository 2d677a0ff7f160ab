package reel

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// DirSink writes artifacts into a local directory.
type DirSink struct {
	Dir string
}

// Compile-time interface check.
var _ ArtifactSink = DirSink{}

// Save writes data to Dir/name via a temp file and rename, so a partial
// write never leaves a truncated artifact behind.
func (s DirSink) Save(ctx context.Context, name string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if name != filepath.Base(name) {
		return "", fmt.Errorf("artifact name %q must not contain a path", name)
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	dst := filepath.Join(s.Dir, name)
	tmp, err := os.CreateTemp(s.Dir, ".artifact-*.part")
	if err != nil {
		return "", fmt.Errorf("create temp artifact: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("write artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("close artifact: %w", err)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("rename artifact: %w", err)
	}
	return dst, nil
}
