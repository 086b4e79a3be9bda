package resample

import (
	"image"
	"os"
	"path/filepath"
	"testing"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	tests := []struct {
		ext    string
		format string
	}{
		{".png", "png"},
		{".jpg", "jpeg"},
		{".jpeg", "jpeg"},
		{".gif", "gif"},
		{".bmp", "bmp"},
		{".tif", "tiff"},
		{".webp", "webp"},
	}

	for _, tt := range tests {
		t.Run(tt.ext, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "img"+tt.ext)
			if err := Encode(testImage(40, 30), path, 90); err != nil {
				t.Fatalf("Encode failed: %v", err)
			}

			w, h, err := DecodeBounds(path)
			if err != nil {
				t.Fatalf("DecodeBounds failed: %v", err)
			}
			if w != 40 || h != 30 {
				t.Errorf("got %dx%d, want 40x30", w, h)
			}

			if got := sniffFormat(t, path); got != tt.format {
				t.Errorf("wrote %s data, want %s", got, tt.format)
			}

			if _, err := Decode(path); err != nil {
				t.Errorf("Decode failed: %v", err)
			}
		})
	}
}

func TestEncodeAsUsesSourceFormat(t *testing.T) {
	// The replace flow writes to "<original>.tmp"; the format must come
	// from the original's extension, not the destination's.
	path := filepath.Join(t.TempDir(), "photo.png.tmp")
	if err := EncodeAs(testImage(20, 10), path, ".png", 90); err != nil {
		t.Fatalf("EncodeAs failed: %v", err)
	}

	if got := sniffFormat(t, path); got != "png" {
		t.Errorf("wrote %s data, want png", got)
	}
	if w, h, err := DecodeBounds(path); err != nil || w != 20 || h != 10 {
		t.Errorf("got %dx%d (err %v), want 20x10", w, h, err)
	}
}

func TestEncodeUnsupportedFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "img.xyz")
	if err := Encode(testImage(10, 10), path, 90); err == nil {
		t.Fatal("expected error for unsupported extension")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("unsupported encode left a file behind")
	}
}

func TestDecodeMissingFile(t *testing.T) {
	if _, err := Decode(filepath.Join(t.TempDir(), "absent.png")); err == nil {
		t.Error("Decode: expected error for missing file")
	}
	if _, _, err := DecodeBounds(filepath.Join(t.TempDir(), "absent.png")); err == nil {
		t.Error("DecodeBounds: expected error for missing file")
	}
}

func TestFileProcessorDownscale(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "large.png")
	if err := Encode(testImage(400, 200), src, 95); err != nil {
		t.Fatalf("setup: %v", err)
	}

	tmp := src + ".tmp"
	if err := NewFileProcessor(90).Downscale(src, tmp, 200, 100); err != nil {
		t.Fatalf("Downscale failed: %v", err)
	}

	w, h, err := DecodeBounds(tmp)
	if err != nil {
		t.Fatalf("DecodeBounds failed: %v", err)
	}
	if w != 200 || h != 100 {
		t.Errorf("got %dx%d, want 200x100", w, h)
	}
	if got := sniffFormat(t, tmp); got != "png" {
		t.Errorf("temp file holds %s data, want png", got)
	}
}

func TestFileProcessorReencode(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "photo.jpg")
	if err := Encode(testImage(300, 200), src, 95); err != nil {
		t.Fatalf("setup: %v", err)
	}

	dst := src + ".tmp"
	if err := NewFileProcessor(60).Reencode(src, dst); err != nil {
		t.Fatalf("Reencode failed: %v", err)
	}

	w, h, err := DecodeBounds(dst)
	if err != nil {
		t.Fatalf("DecodeBounds failed: %v", err)
	}
	if w != 300 || h != 200 {
		t.Errorf("dimensions changed: got %dx%d, want 300x200", w, h)
	}

	srcInfo, _ := os.Stat(src)
	dstInfo, _ := os.Stat(dst)
	if dstInfo.Size() >= srcInfo.Size() {
		t.Errorf("re-encode at quality 60 did not shrink: %d -> %d bytes", srcInfo.Size(), dstInfo.Size())
	}
}

// sniffFormat reports the registered format name of the file's content,
// ignoring its extension.
func sniffFormat(t *testing.T, path string) string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()

	_, format, err := image.DecodeConfig(f)
	if err != nil {
		t.Fatalf("sniff %s: %v", path, err)
	}
	return format
}
