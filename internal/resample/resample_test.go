package resample

import (
	"image"
	"image/color"
	"testing"
)

// testImage builds a deterministic patterned image so encoders and the
// sharpen filters have real gradients to work on.
func testImage(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{
				R: uint8((x * 7) % 256),
				G: uint8((y * 13) % 256),
				B: uint8((x*y + 31) % 256),
				A: 255,
			})
		}
	}
	return img
}

func TestHybridDimensions(t *testing.T) {
	tests := []struct {
		name       string
		srcW, srcH int
		dstW, dstH int
	}{
		{"halve", 400, 200, 200, 100},
		{"non-integer ratio", 397, 211, 120, 64},
		{"same size", 64, 48, 64, 48},
		{"down to one pixel", 50, 50, 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Hybrid(testImage(tt.srcW, tt.srcH), tt.dstW, tt.dstH, DefaultOptions())
			if b := out.Bounds(); b.Dx() != tt.dstW || b.Dy() != tt.dstH {
				t.Errorf("got %dx%d, want %dx%d", b.Dx(), b.Dy(), tt.dstW, tt.dstH)
			}
		})
	}
}

func TestHybridDoesNotMutateInput(t *testing.T) {
	src := testImage(120, 80)
	before := make([]uint8, len(src.Pix))
	copy(before, src.Pix)

	Hybrid(src, 60, 40, DefaultOptions())

	for i := range before {
		if src.Pix[i] != before[i] {
			t.Fatalf("source pixel data changed at offset %d", i)
		}
	}
}

func TestHybridSharpenStagesOptional(t *testing.T) {
	tests := []struct {
		name string
		opts func(Options) Options
	}{
		{"pre-sharpen off", func(o Options) Options {
			o.PreSharpen = 1.0
			return o
		}},
		{"post-sharpen off", func(o Options) Options {
			o.PostSharpenRadius = 0
			return o
		}},
		{"both off", func(o Options) Options {
			o.PreSharpen = 0
			o.PostSharpenPercent = 0
			return o
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Hybrid(testImage(100, 100), 50, 50, tt.opts(DefaultOptions()))
			if b := out.Bounds(); b.Dx() != 50 || b.Dy() != 50 {
				t.Errorf("got %dx%d, want 50x50", b.Dx(), b.Dy())
			}
		})
	}
}

func TestHybridSharpensOutput(t *testing.T) {
	src := testImage(200, 200)

	plain := Hybrid(src, 100, 100, Options{})
	sharpened := Hybrid(src, 100, 100, DefaultOptions())

	if len(plain.Pix) != len(sharpened.Pix) {
		t.Fatalf("pixel buffers differ in size: %d vs %d", len(plain.Pix), len(sharpened.Pix))
	}
	same := true
	for i := range plain.Pix {
		if plain.Pix[i] != sharpened.Pix[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("sharpened output identical to plain resize; unsharp mask had no effect")
	}
}
