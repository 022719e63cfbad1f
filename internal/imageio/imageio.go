// Package imageio loads target images, saves snapshots and prepares resized
// targets from raw photographs.
package imageio

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/anthonynsimon/bild/transform"

	"chromapaint/internal/canvas"
)

var (
	ErrNoImages    = errors.New("no images found")
	ErrInvalidSize = errors.New("invalid image size")
)

// DefaultPrepareSizes are the resolutions produced by Prepare when none are
// given.
var DefaultPrepareSizes = []canvas.Size{{Width: 64, Height: 64}, {Width: 128, Height: 128}}

var imageExtensions = map[string]bool{".jpg": true, ".jpeg": true, ".png": true}

// Load decodes the image at path and resamples it to size with a Lanczos
// filter. Images already at size are used as is.
func Load(path string, size canvas.Size) (*canvas.Raster, error) {
	if size.Empty() {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, size.Width, size.Height)
	}
	img, err := imgio.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open image %s: %w", path, err)
	}
	return canvas.FromImage(resize(img, size)), nil
}

func resize(img image.Image, size canvas.Size) image.Image {
	b := img.Bounds()
	if b.Dx() == size.Width && b.Dy() == size.Height {
		return img
	}
	return transform.Resize(img, size.Width, size.Height, transform.Lanczos)
}

// SavePNG writes r to path, creating parent directories.
func SavePNG(path string, r *canvas.Raster) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if err := imgio.Save(path, r.Image(), imgio.PNGEncoder()); err != nil {
		return fmt.Errorf("save image %s: %w", path, err)
	}
	return nil
}

// Prepare resizes every .jpg, .jpeg and .png file in rawDir to each size and
// writes <stem>_<w>x<h>.png into targetDir. It returns the written paths.
func Prepare(rawDir, targetDir string, sizes []canvas.Size) ([]string, error) {
	if len(sizes) == 0 {
		sizes = DefaultPrepareSizes
	}
	for _, s := range sizes {
		if s.Empty() {
			return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, s.Width, s.Height)
		}
	}
	entries, err := os.ReadDir(rawDir)
	if err != nil {
		return nil, fmt.Errorf("read raw image dir: %w", err)
	}
	var sources []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if imageExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			sources = append(sources, entry.Name())
		}
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoImages, rawDir)
	}
	sort.Strings(sources)
	if err := os.MkdirAll(targetDir, 0o755); err != nil {
		return nil, err
	}

	written := make([]string, 0, len(sources)*len(sizes))
	for _, name := range sources {
		img, err := imgio.Open(filepath.Join(rawDir, name))
		if err != nil {
			return written, fmt.Errorf("open image %s: %w", name, err)
		}
		stem := strings.TrimSuffix(name, filepath.Ext(name))
		for _, s := range sizes {
			out := filepath.Join(targetDir, fmt.Sprintf("%s_%s.png", stem, FormatSize(s)))
			if err := imgio.Save(out, resize(img, s), imgio.PNGEncoder()); err != nil {
				return written, fmt.Errorf("save image %s: %w", out, err)
			}
			written = append(written, out)
		}
	}
	return written, nil
}

func FormatSize(s canvas.Size) string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

// ParseSize reads a size written as WIDTHxHEIGHT.
func ParseSize(raw string) (canvas.Size, error) {
	w, h, ok := strings.Cut(strings.ToLower(strings.TrimSpace(raw)), "x")
	if !ok {
		return canvas.Size{}, fmt.Errorf("%w: %q", ErrInvalidSize, raw)
	}
	width, err := strconv.Atoi(w)
	if err != nil {
		return canvas.Size{}, fmt.Errorf("%w: %q", ErrInvalidSize, raw)
	}
	height, err := strconv.Atoi(h)
	if err != nil {
		return canvas.Size{}, fmt.Errorf("%w: %q", ErrInvalidSize, raw)
	}
	s := canvas.Size{Width: width, Height: height}
	if s.Empty() {
		return canvas.Size{}, fmt.Errorf("%w: %q", ErrInvalidSize, raw)
	}
	return s, nil
}

// ParseSizes reads a comma separated list of sizes.
func ParseSizes(raw string) ([]canvas.Size, error) {
	var sizes []canvas.Size
	for _, part := range strings.Split(raw, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		s, err := ParseSize(part)
		if err != nil {
			return nil, err
		}
		sizes = append(sizes, s)
	}
	return sizes, nil
}
