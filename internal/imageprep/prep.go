package imageprep

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/png"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// DefaultBackupDir is the directory name originals are moved into.
const DefaultBackupDir = "bak"

// PrepOptions configures PrepDir.
type PrepOptions struct {
	// BackupDir receives the originals. Relative paths are resolved against
	// the directory being prepared. Defaults to DefaultBackupDir.
	BackupDir string
	// Workers bounds parallelism. Defaults to runtime.NumCPU().
	Workers int
	// DryRun reports what would change without touching files.
	DryRun bool
}

// PrepResult summarizes a PrepDir run.
type PrepResult struct {
	Resized   []string
	Converted []string
	Skipped   []string
	Failed    map[string]error
}

// Changed returns the number of files rewritten.
func (r *PrepResult) Changed() int { return len(r.Resized) + len(r.Converted) }

// PrepDir rewrites every image under dir as a 1280x720 file. JPEG and PNG
// keep their format; other formats are converted to .jpg. Each original is
// moved under the backup dir at the same relative path. Images already at
// the target size in JPEG or PNG are skipped.
func PrepDir(ctx context.Context, dir string, opts PrepOptions) (*PrepResult, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot access directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("not a directory: %s", dir)
	}

	bak := opts.BackupDir
	if bak == "" {
		bak = DefaultBackupDir
	}
	if !filepath.IsAbs(bak) {
		bak = filepath.Join(dir, bak)
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	var files []string
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			log.Warn().Err(err).Str("path", path).Msg("Error accessing path")
			return nil
		}
		if d.IsDir() {
			if path == bak || (path != dir && strings.HasPrefix(d.Name(), ".")) {
				return filepath.SkipDir
			}
			return nil
		}
		if IsImage(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", dir, err)
	}

	res := &PrepResult{Failed: make(map[string]error)}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, path := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rel, _ := filepath.Rel(dir, path)
			outcome, err := prepFile(path, filepath.Join(bak, rel), opts.DryRun)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				res.Failed[rel] = err
				log.Warn().Err(err).Str("image", rel).Msg("Image preparation failed")
			case outcome == outcomeConverted:
				res.Converted = append(res.Converted, rel)
			case outcome == outcomeResized:
				res.Resized = append(res.Resized, rel)
			default:
				res.Skipped = append(res.Skipped, rel)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return res, err
	}

	log.Info().
		Str("dir", dir).
		Int("resized", len(res.Resized)).
		Int("converted", len(res.Converted)).
		Int("skipped", len(res.Skipped)).
		Int("failed", len(res.Failed)).
		Bool("dryRun", opts.DryRun).
		Msg("Image preparation complete")
	return res, nil
}

type outcome int

const (
	outcomeSkipped outcome = iota
	outcomeResized
	outcomeConverted
)

func prepFile(path, backup string, dryRun bool) (outcome, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return outcomeSkipped, err
	}
	ext := strings.ToLower(filepath.Ext(path))
	img, err := Decode(bytes.NewReader(raw), ext)
	if err != nil {
		return outcomeSkipped, err
	}

	keepFormat := ext == ".jpg" || ext == ".jpeg" || ext == ".png"
	if keepFormat && IsTargetSize(img) {
		return outcomeSkipped, nil
	}

	dst := path
	result := outcomeResized
	if !keepFormat {
		dst = strings.TrimSuffix(path, filepath.Ext(path)) + ".jpg"
		result = outcomeConverted
		if _, err := os.Stat(dst); err == nil {
			return outcomeSkipped, fmt.Errorf("converted name %s already exists", filepath.Base(dst))
		}
	}
	if dryRun {
		return result, nil
	}

	normalized := Normalize(img)
	var data []byte
	if ext == ".png" {
		var buf bytes.Buffer
		if err := png.Encode(&buf, normalized); err != nil {
			return outcomeSkipped, fmt.Errorf("encode png: %w", err)
		}
		data = buf.Bytes()
	} else {
		if data, err = EncodeJPEG(normalized); err != nil {
			return outcomeSkipped, err
		}
	}

	if err := moveFile(path, backup); err != nil {
		return outcomeSkipped, fmt.Errorf("back up original: %w", err)
	}
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		// Put the original back so the library is never left without it.
		if rerr := moveFile(backup, path); rerr != nil {
			return outcomeSkipped, errors.Join(err, rerr)
		}
		return outcomeSkipped, fmt.Errorf("write %s: %w", filepath.Base(dst), err)
	}
	return result, nil
}

func moveFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	if _, err := os.Stat(dst); err == nil {
		return fmt.Errorf("backup %s already exists", dst)
	}
	return os.Rename(src, dst)
}
