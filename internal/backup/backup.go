// Package backup maintains dated copies of original images under the
// scan root, written and verified before any original is modified.
package backup

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// DirName is the backup tree directory created under the scan root.
// It starts with a dot so scans never pick up backed-up images.
const DirName = ".image-backups"

const dateLayout = "2006-01-02"

// Manager stores and retrieves backups under <root>/.image-backups/<date>/,
// mirroring each file's root-relative path inside the dated tree.
type Manager struct {
	root string
}

// New creates a Manager for the given scan root.
func New(root string) *Manager {
	return &Manager{root: root}
}

// Dir returns the backup tree root.
func (m *Manager) Dir() string {
	return filepath.Join(m.root, DirName)
}

// PathFor returns where a backup of rel lives inside the dated tree.
func (m *Manager) PathFor(date, rel string) string {
	return filepath.Join(m.Dir(), date, rel)
}

// Create copies the file at abs into today's dated tree under rel and
// verifies the copy's size on disk. The original must not be touched
// until Create returns nil.
func (m *Manager) Create(abs, rel string) (string, error) {
	srcInfo, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("failed to stat %s: %w", abs, err)
	}

	dst := m.PathFor(time.Now().Format(dateLayout), rel)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}
	if err := copyFile(abs, dst); err != nil {
		return "", fmt.Errorf("failed to back up %s: %w", abs, err)
	}

	// Re-stat the copy rather than trusting the writer.
	dstInfo, err := os.Stat(dst)
	if err != nil {
		return "", fmt.Errorf("failed to verify backup %s: %w", dst, err)
	}
	if dstInfo.Size() != srcInfo.Size() {
		return "", fmt.Errorf("backup of %s is incomplete: %d of %d bytes", rel, dstInfo.Size(), srcInfo.Size())
	}
	return dst, nil
}

// RestoreFile copies a backup over dst, recreating parent directories if
// the original's directory has since been removed.
func (m *Manager) RestoreFile(backupPath, dst string) error {
	if _, err := os.Stat(backupPath); err != nil {
		return fmt.Errorf("backup missing: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", dst, err)
	}
	if err := copyFile(backupPath, dst); err != nil {
		return fmt.Errorf("failed to restore %s: %w", dst, err)
	}
	return nil
}

// Dates lists dated backup trees, oldest first. A root with no backups
// yields an empty list, not an error.
func (m *Manager) Dates() ([]string, error) {
	entries, err := os.ReadDir(m.Dir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read backup directory: %w", err)
	}

	var dates []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if _, err := time.Parse(dateLayout, entry.Name()); err != nil {
			continue
		}
		dates = append(dates, entry.Name())
	}
	sort.Strings(dates)
	return dates, nil
}

// FilesFor returns the root-relative paths stored under one dated tree,
// sorted.
func (m *Manager) FilesFor(date string) ([]string, error) {
	dir := filepath.Join(m.Dir(), date)
	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("no backups found for %s: %w", date, err)
	}

	var files []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		files = append(files, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list backups for %s: %w", date, err)
	}
	sort.Strings(files)
	return files, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
