// Package media resizes image files referenced by content items.
package media

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	"image/png"
	"path"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/afero"
	"golang.org/x/image/draw"
)

const (
	// DefaultWidth and DefaultHeight bound generated thumbnails.
	DefaultWidth  = 200
	DefaultHeight = 300

	// DefaultCacheDir is where thumbnails are written, relative to the root.
	DefaultCacheDir = "cache/thumbnails"

	defaultQuality = 85
)

// Config configures a Thumbnailer.
type Config struct {
	// Root is the site root that file paths are relative to.
	Root string

	CacheDir string
	Width    int
	Height   int
	Quality  int

	Logger hclog.Logger
}

// Thumbnailer fits images into a bounding box and stores the result under
// the cache directory. Images that already fit are left alone.
type Thumbnailer struct {
	fs       afero.Fs
	root     string
	cacheDir string
	width    int
	height   int
	quality  int
	log      hclog.Logger
}

// NewThumbnailer creates a Thumbnailer on fs.
func NewThumbnailer(fs afero.Fs, cfg Config) *Thumbnailer {
	t := &Thumbnailer{
		fs:       fs,
		root:     cfg.Root,
		cacheDir: cfg.CacheDir,
		width:    cfg.Width,
		height:   cfg.Height,
		quality:  cfg.Quality,
		log:      cfg.Logger,
	}
	if t.cacheDir == "" {
		t.cacheDir = DefaultCacheDir
	}
	if t.width <= 0 {
		t.width = DefaultWidth
	}
	if t.height <= 0 {
		t.height = DefaultHeight
	}
	if t.quality <= 0 {
		t.quality = defaultQuality
	}
	if t.log == nil {
		t.log = hclog.NewNullLogger()
	}
	t.log = t.log.Named("media")
	return t
}

// Thumbnail returns the root-relative path of the thumbnail for the
// root-relative file, creating it when missing or older than the source.
func (t *Thumbnailer) Thumbnail(ctx context.Context, file string) (string, error) {
	file = strings.TrimLeft(file, "/")
	src := path.Join(t.root, file)

	srcInfo, err := t.fs.Stat(src)
	if err != nil {
		return "", fmt.Errorf("error reading image %q: %w", file, err)
	}

	ext := strings.ToLower(path.Ext(file))
	if ext == ".gif" {
		ext = ".png"
	}
	// The cache mirrors the source directory layout.
	base := strings.TrimSuffix(path.Base(file), path.Ext(file))
	thumb := path.Join(t.cacheDir, path.Dir(file), fmt.Sprintf("%s_%dx%d%s", base, t.width, t.height, ext))
	dst := path.Join(t.root, thumb)

	if info, err := t.fs.Stat(dst); err == nil && !info.ModTime().Before(srcInfo.ModTime()) {
		return thumb, nil
	}

	img, err := t.decode(src)
	if err != nil {
		return "", fmt.Errorf("error decoding image %q: %w", file, err)
	}

	w, h, ok := fit(img.Bounds().Dx(), img.Bounds().Dy(), t.width, t.height)
	if !ok {
		// Never upscale.
		return file, nil
	}

	resized := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(resized, resized.Bounds(), img, img.Bounds(), draw.Over, nil)

	if err := t.fs.MkdirAll(path.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("error creating thumbnail directory: %w", err)
	}
	if err := t.encode(dst, ext, resized); err != nil {
		return "", fmt.Errorf("error writing thumbnail for %q: %w", file, err)
	}

	t.log.Debug("created thumbnail", "file", file, "thumbnail", thumb, "width", w, "height", h)
	return thumb, nil
}

func (t *Thumbnailer) decode(name string) (image.Image, error) {
	f, err := t.fs.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	return img, err
}

func (t *Thumbnailer) encode(name, ext string, img image.Image) error {
	f, err := t.fs.Create(name)
	if err != nil {
		return err
	}

	switch ext {
	case ".png":
		err = png.Encode(f, img)
	default:
		err = jpeg.Encode(f, img, &jpeg.Options{Quality: t.quality})
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return err
}

// fit scales width x height down into the box, keeping the aspect ratio. It
// reports false when the image already fits.
func fit(width, height, maxWidth, maxHeight int) (int, int, bool) {
	if width <= maxWidth && height <= maxHeight {
		return width, height, false
	}

	w, h := maxWidth, height*maxWidth/width
	if h > maxHeight {
		w, h = width*maxHeight/height, maxHeight
	}
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return w, h, true
}
