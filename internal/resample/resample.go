// Package resample implements the hybrid downsize transform: a light
// sharpen before the resize so fine detail survives resampling, Lanczos
// resampling to the target dimensions, then an unsharp mask to restore
// edge contrast. Tuned for screenshots and document scans where text
// legibility matters more than photographic smoothness.
package resample

import (
	"image"

	"github.com/disintegration/gift"
	"github.com/disintegration/imaging"
)

// Default transform tuning. PreSharpen is a sharpness multiplier where 1.0
// is a no-op. The post-resize unsharp mask takes a blur radius in pixels, a
// strength percentage, and a minimum intensity delta (0..255) below which
// pixels are left untouched so flat areas stay clean.
const (
	DefaultPreSharpen           = 1.2
	DefaultPostSharpenRadius    = 0.8
	DefaultPostSharpenPercent   = 120
	DefaultPostSharpenThreshold = 2
)

// preSharpenSigma is the fixed blur radius of the pre-resize sharpen pass.
// The pass only lifts fine detail slightly before Lanczos discards high
// frequencies, so the radius stays small.
const preSharpenSigma = 1.0

// Options carries the transform tuning. The zero value disables both
// sharpen passes; use DefaultOptions for the standard text-preserving
// settings.
type Options struct {
	PreSharpen           float64
	PostSharpenRadius    float64
	PostSharpenPercent   int
	PostSharpenThreshold int
}

// DefaultOptions returns the standard tuning.
func DefaultOptions() Options {
	return Options{
		PreSharpen:           DefaultPreSharpen,
		PostSharpenRadius:    DefaultPostSharpenRadius,
		PostSharpenPercent:   DefaultPostSharpenPercent,
		PostSharpenThreshold: DefaultPostSharpenThreshold,
	}
}

// Hybrid downsizes img to exactly width x height pixels. The input image
// is never modified. Stage order is load-bearing: sharpening only after
// the resize cannot recover detail the resampler already discarded.
func Hybrid(img image.Image, width, height int, opts Options) *image.NRGBA {
	var src image.Image = img

	if opts.PreSharpen > 1.0 {
		src = unsharp(src, preSharpenSigma, opts.PreSharpen-1.0, 0)
	}

	out := imaging.Resize(src, width, height, imaging.Lanczos)

	if opts.PostSharpenRadius > 0 && opts.PostSharpenPercent > 0 {
		amount := float64(opts.PostSharpenPercent) / 100.0
		threshold := float64(opts.PostSharpenThreshold) / 255.0
		out = unsharp(out, opts.PostSharpenRadius, amount, threshold)
	}

	return out
}

// unsharp runs a single unsharp-mask pass into a fresh buffer.
func unsharp(img image.Image, sigma, amount, threshold float64) *image.NRGBA {
	g := gift.New(gift.UnsharpMask(float32(sigma), float32(amount), float32(threshold)))
	dst := image.NewNRGBA(g.Bounds(img.Bounds()))
	g.Draw(dst, img)
	return dst
}
