package resample

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
)

// Decode loads the full image. EXIF orientation is deliberately not
// applied: the scanner reads dimensions from the header, and the pixel
// buffer handed to the transform must match them.
func Decode(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	img, err := imaging.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return img, nil
}

// DecodeBounds reads pixel dimensions from the image header without
// decoding pixel data. Importing this package registers decoders for
// every supported format, WebP included via chai2010/webp.
func DecodeBounds(path string) (int, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, fmt.Errorf("cannot decode image header: %w", err)
	}
	return cfg.Width, cfg.Height, nil
}

// Encode writes img to path in the format implied by path's extension.
func Encode(img image.Image, path string, quality int) error {
	return EncodeAs(img, path, filepath.Ext(path), quality)
}

// EncodeAs writes img to path in the format implied by ext, regardless of
// path's own extension. The replace flow writes to "<original>.tmp" and
// needs the original's format. JPEG and WebP honor quality (1..100); PNG
// always uses best compression since the whole point is a smaller file.
func EncodeAs(img image.Image, path, ext string, quality int) error {
	var format imaging.Format
	var opts []imaging.EncodeOption

	switch strings.ToLower(ext) {
	case ".jpg", ".jpeg":
		format = imaging.JPEG
		opts = append(opts, imaging.JPEGQuality(quality))
	case ".png":
		format = imaging.PNG
		opts = append(opts, imaging.PNGCompressionLevel(png.BestCompression))
	case ".gif":
		format = imaging.GIF
	case ".bmp":
		format = imaging.BMP
	case ".tif", ".tiff":
		format = imaging.TIFF
	case ".webp":
		return encodeWebP(img, path, quality)
	default:
		return fmt.Errorf("unsupported image format %q", ext)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := imaging.Encode(f, img, format, opts...); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	return f.Close()
}

// encodeWebP handles WebP separately: imaging has no WebP encoder.
func encodeWebP(img image.Image, path string, quality int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := webp.Encode(f, img, &webp.Options{Quality: float32(quality)}); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	return f.Close()
}

// FileProcessor applies the transform between files on disk. It implements
// the replace controller's transformer seam.
type FileProcessor struct {
	Options Options
	Quality int
}

// NewFileProcessor returns a processor with the standard transform tuning
// and the given encode quality.
func NewFileProcessor(quality int) *FileProcessor {
	return &FileProcessor{Options: DefaultOptions(), Quality: quality}
}

// Downscale reads src, runs the hybrid transform to width x height, and
// writes the result to dst in src's format.
func (p *FileProcessor) Downscale(src, dst string, width, height int) error {
	img, err := Decode(src)
	if err != nil {
		return err
	}
	return EncodeAs(Hybrid(img, width, height, p.Options), dst, filepath.Ext(src), p.Quality)
}

// Reencode reads src and writes it to dst at the configured quality
// without resizing. Used when an image trips the byte threshold but is
// within the dimension limits.
func (p *FileProcessor) Reencode(src, dst string) error {
	img, err := Decode(src)
	if err != nil {
		return err
	}
	return EncodeAs(img, dst, filepath.Ext(src), p.Quality)
}
