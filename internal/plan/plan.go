// Package plan computes target dimensions for image downsizing.
package plan

import "math"

// Constraint describes how a target size is chosen. At most one rule
// applies, in priority order: Scale, then MaxWidth, then MaxHeight. The
// zero value means identity (no resize).
type Constraint struct {
	Scale     float64
	MaxWidth  int
	MaxHeight int
}

// TargetSize returns the dimensions an image of w x h pixels should be
// resized to. A result equal to (w, h) means no resize is needed and the
// caller should re-encode without resampling. The result never exceeds the
// original on either axis and never drops below 1px.
//
// Scale rounds each axis independently; the aspect ratio may drift by a
// pixel on extreme ratios and that is accepted. MaxWidth and MaxHeight
// only shrink images that actually exceed them.
func (c Constraint) TargetSize(w, h int) (int, int) {
	if w <= 0 || h <= 0 {
		return w, h
	}

	tw, th := w, h
	switch {
	case c.Scale > 0:
		tw = int(math.Round(float64(w) * c.Scale))
		th = int(math.Round(float64(h) * c.Scale))
	case c.MaxWidth > 0 && w > c.MaxWidth:
		tw = c.MaxWidth
		th = int(math.Round(float64(h) * float64(c.MaxWidth) / float64(w)))
	case c.MaxHeight > 0 && h > c.MaxHeight:
		th = c.MaxHeight
		tw = int(math.Round(float64(w) * float64(c.MaxHeight) / float64(h)))
	}

	// Never upsample.
	if tw > w {
		tw = w
	}
	if th > h {
		th = h
	}
	if tw < 1 {
		tw = 1
	}
	if th < 1 {
		th = 1
	}
	return tw, th
}

// EstimateBytes projects the output file size from the pixel-area ratio.
// Display-only: the real output depends on content and codec, and the
// estimate may diverge arbitrarily.
func EstimateBytes(origBytes int64, origW, origH, newW, newH int) int64 {
	if origW <= 0 || origH <= 0 {
		return origBytes
	}
	ratio := float64(newW) * float64(newH) / (float64(origW) * float64(origH))
	return int64(float64(origBytes) * ratio)
}
