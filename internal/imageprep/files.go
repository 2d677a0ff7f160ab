package imageprep

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/fpang/reel-studio/internal/reel"
)

// Files resolves image references relative to Root and serves them as
// 1280x720 JPEG bytes.
type Files struct {
	Root string
}

// Compile-time interface check.
var _ reel.FileAccess = Files{}

// Resolve maps ref to a path under Root. References that escape Root or
// have an unsupported extension are rejected.
func (f Files) Resolve(ref string) (string, error) {
	if ref == "" {
		return "", fmt.Errorf("empty image reference")
	}
	if !IsImage(ref) {
		return "", fmt.Errorf("unsupported image type: %s", ref)
	}
	clean := filepath.Clean(filepath.FromSlash(ref))
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("image reference outside the image library: %s", ref)
	}
	return filepath.Join(f.Root, clean), nil
}

func (f Files) Exists(ref string) bool {
	path, err := f.Resolve(ref)
	if err != nil {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// ReadBytes returns the image normalized to the target frame as JPEG. A JPEG
// that already has the target size is returned as stored.
func (f Files) ReadBytes(ref string) ([]byte, error) {
	path, err := f.Resolve(ref)
	if err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", ref, err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	img, err := Decode(bytes.NewReader(raw), ext)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ref, err)
	}
	if IsTargetSize(img) && (ext == ".jpg" || ext == ".jpeg") {
		return raw, nil
	}

	out, err := EncodeJPEG(Normalize(img))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ref, err)
	}
	b := img.Bounds()
	log.Debug().Str("image", ref).Int("origWidth", b.Dx()).Int("origHeight", b.Dy()).
		Int("bytes", len(out)).Msg("Image normalized for submission")
	return out, nil
}
