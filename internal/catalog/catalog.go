// Package catalog discovers image categories: each immediate subdirectory of
// the image root is a category and its image files are the selectable items.
package catalog

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog/log"

	"github.com/fpang/reel-studio/internal/imageprep"
)

// ErrUnknownCategory is returned for a category that does not exist.
var ErrUnknownCategory = errors.New("unknown category")

// DefaultTTL bounds how stale a cached listing can be.
const DefaultTTL = time.Minute

const categoriesKey = "\x00categories"

// Image is one selectable image. Ref is the slash-separated path relative to
// the image root and is what selections and submissions carry.
type Image struct {
	Ref  string `json:"ref"`
	Name string `json:"name"`
}

// Catalog lists categories and images under Root, caching listings.
type Catalog struct {
	root  string
	cache *cache.Cache
}

// New returns a catalog rooted at root. A ttl <= 0 uses DefaultTTL.
func New(root string, ttl time.Duration) *Catalog {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Catalog{root: root, cache: cache.New(ttl, 2*ttl)}
}

// Root returns the image root directory.
func (c *Catalog) Root() string { return c.root }

// Categories returns the category names in sorted order. Hidden directories
// and the prep backup directory are not categories.
func (c *Catalog) Categories() ([]string, error) {
	if x, found := c.cache.Get(categoriesKey); found {
		return append([]string(nil), x.([]string)...), nil
	}

	entries, err := os.ReadDir(c.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("image directory not found: %s", c.root)
		}
		return nil, fmt.Errorf("failed to read image directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") || e.Name() == imageprep.DefaultBackupDir {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	log.Debug().Str("root", c.root).Int("categories", len(names)).Msg("Category scan complete")
	c.cache.SetDefault(categoriesKey, names)
	return append([]string(nil), names...), nil
}

// Images returns the images of category sorted by name.
func (c *Catalog) Images(category string) ([]Image, error) {
	if !validName(category) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}
	if x, found := c.cache.Get(category); found {
		return append([]Image(nil), x.([]Image)...), nil
	}

	entries, err := os.ReadDir(filepath.Join(c.root, category))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownCategory, category)
		}
		return nil, fmt.Errorf("failed to read category %s: %w", category, err)
	}

	var images []Image
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") || !imageprep.IsImage(e.Name()) {
			continue
		}
		images = append(images, Image{Ref: path.Join(category, e.Name()), Name: e.Name()})
	}
	sort.Slice(images, func(i, j int) bool { return images[i].Name < images[j].Name })

	log.Debug().Str("category", category).Int("images", len(images)).Msg("Category image scan complete")
	c.cache.SetDefault(category, images)
	return append([]Image(nil), images...), nil
}

// Contains reports whether ref is an image of category.
func (c *Catalog) Contains(category, ref string) bool {
	images, err := c.Images(category)
	if err != nil {
		return false
	}
	for _, img := range images {
		if img.Ref == ref {
			return true
		}
	}
	return false
}

// CategoryOf returns the category part of an image ref.
func CategoryOf(ref string) string {
	dir := path.Dir(ref)
	if dir == "." {
		return ""
	}
	return dir
}

// Invalidate drops all cached listings.
func (c *Catalog) Invalidate() { c.cache.Flush() }

func validName(category string) bool {
	return category != "" && category != "." && category != ".." &&
		!strings.ContainsAny(category, `/\`)
}
