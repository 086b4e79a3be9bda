// Package scanner walks directory trees for raster images and filters
// them against size and dimension limits.
package scanner

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/blackwell-systems/imgslim/internal/config"
	"github.com/blackwell-systems/imgslim/internal/resample"
)

// imageExtensions is the recognized raster set, matched case-insensitively.
var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".webp": true,
	".gif":  true,
	".bmp":  true,
}

// IsImagePath reports whether the path carries a recognized image extension.
// Example: "photos/IMG_0123.JPG" -> true
// Example: "photos/notes.txt" -> false
func IsImagePath(path string) bool {
	return imageExtensions[strings.ToLower(filepath.Ext(path))]
}

// Candidate is one image found during a scan.
type Candidate struct {
	Path    string // absolute path on disk
	RelPath string // path relative to the scan root
	Width   int
	Height  int
	Bytes   int64
}

// WarnFunc receives non-fatal scan diagnostics.
type WarnFunc func(format string, args ...any)

// Scanner enumerates candidate images under a root directory.
type Scanner struct {
	warn WarnFunc
}

// New creates a Scanner. warn may be nil to discard diagnostics.
func New(warn WarnFunc) *Scanner {
	return &Scanner{warn: warn}
}

// Scan walks root (or each entry of scanPaths when non-empty) and returns
// every readable image it finds. Hidden directories and files are excluded
// by their root-relative path, which keeps the backup tree out of results.
// Unreadable entries and undecodable headers produce warnings; a single
// bad file never aborts the scan.
func (s *Scanner) Scan(root string, scanPaths []string) ([]*Candidate, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", root, err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("cannot scan %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("not a directory: %s", root)
	}

	dirs := []string{root}
	if len(scanPaths) > 0 {
		dirs = s.resolveScanPaths(root, scanPaths)
	}

	// Overlapping scan paths may reach the same file twice.
	seen := make(map[string]bool)
	var candidates []*Candidate
	for _, dir := range dirs {
		found, err := s.walk(root, dir, seen)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, found...)
	}
	return candidates, nil
}

// resolveScanPaths maps configured scan paths to absolute directories under
// root. Relative entries are joined to root; entries outside root or missing
// on disk are skipped with a warning.
func (s *Scanner) resolveScanPaths(root string, paths []string) []string {
	var dirs []string
	for _, p := range paths {
		dir := p
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(root, dir)
		}
		dir = filepath.Clean(dir)

		rel, err := filepath.Rel(root, dir)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			s.warnf("scan path %s is outside %s, skipping", p, root)
			continue
		}
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			s.warnf("scan path %s is not a directory, skipping", p)
			continue
		}
		dirs = append(dirs, dir)
	}
	return dirs
}

func (s *Scanner) walk(root, dir string, seen map[string]bool) ([]*Candidate, error) {
	var candidates []*Candidate
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if d == nil {
				return fmt.Errorf("cannot scan %s: %w", dir, err)
			}
			s.warnf("cannot read %s: %v", path, err)
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if hasHiddenSegment(rel) {
				return filepath.SkipDir
			}
			return nil
		}
		if hasHiddenSegment(rel) || !IsImagePath(path) {
			return nil
		}
		if seen[path] {
			return nil
		}
		seen[path] = true

		info, err := d.Info()
		if err != nil {
			s.warnf("cannot stat %s: %v", path, err)
			return nil
		}
		width, height, err := resample.DecodeBounds(path)
		if err != nil {
			s.warnf("skipping %s: %v", path, err)
			return nil
		}

		candidates = append(candidates, &Candidate{
			Path:    path,
			RelPath: rel,
			Width:   width,
			Height:  height,
			Bytes:   info.Size(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return candidates, nil
}

func (s *Scanner) warnf(format string, args ...any) {
	if s.warn != nil {
		s.warn(format, args...)
	}
}

// hasHiddenSegment reports whether any component of the relative path
// starts with a dot.
// Example: "assets/.cache/img.png" -> true
// Example: "assets/img.png" -> false
func hasHiddenSegment(rel string) bool {
	for _, seg := range strings.Split(rel, string(filepath.Separator)) {
		if seg != "." && seg != ".." && strings.HasPrefix(seg, ".") {
			return true
		}
	}
	return false
}

// FilterByThreshold keeps candidates that exceed either limit. The signals
// are independent: a small file with huge dimensions is still oversized,
// and so is a huge file within the dimension limits.
func FilterByThreshold(candidates []*Candidate, limits config.Limits) []*Candidate {
	var out []*Candidate
	for _, c := range candidates {
		if c.Bytes > limits.SizeBytes || c.Width > limits.DimensionPX || c.Height > limits.DimensionPX {
			out = append(out, c)
		}
	}
	return out
}
