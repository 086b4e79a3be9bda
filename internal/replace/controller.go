// Package replace runs the backup, transform, commit sequence for a
// single image, restoring from the backup on any failure after it exists.
package replace

import (
	"fmt"
	"os"

	"github.com/blackwell-systems/imgslim/internal/backup"
)

// Transformer produces the replacement file. Implemented by
// resample.FileProcessor.
type Transformer interface {
	Downscale(src, dst string, width, height int) error
	Reencode(src, dst string) error
}

// stage tracks how far an operation progressed. The rollback path is
// reachable only once the stage records a verified backup.
type stage int

const (
	stagePending stage = iota
	stageBackedUp
	stageTransformed
	stageCommitted
	stageRolledBack
)

type operation struct {
	path       string
	backupPath string
	stage      stage
}

// Request describes one replacement.
type Request struct {
	Path       string // absolute path of the original
	RelPath    string // root-relative path, used for backup layout
	OrigWidth  int
	OrigHeight int
	Width      int // target dimensions
	Height     int
}

// Result reports a committed replacement.
type Result struct {
	BackupPath string
	Width      int
	Height     int
	Resized    bool // false when the image was only re-encoded
	OrigBytes  int64
	NewBytes   int64
}

// BytesSaved is signed: a replacement that grew the file reports negative.
func (r Result) BytesSaved() int64 {
	return r.OrigBytes - r.NewBytes
}

// RolledBackError reports a failure after which the original was restored
// from its backup. The file on disk is intact.
type RolledBackError struct {
	BackupPath string
	Err        error
}

func (e *RolledBackError) Error() string { return e.Err.Error() }

func (e *RolledBackError) Unwrap() error { return e.Err }

// DataRiskError reports a failure whose rollback also failed. The file on
// disk may be invalid; the backup is the authoritative copy.
type DataRiskError struct {
	Path       string
	BackupPath string
	Err        error // the failure that triggered the rollback
	RestoreErr error // why the rollback failed
}

func (e *DataRiskError) Error() string {
	return fmt.Sprintf("%v (restore from %s also failed: %v)", e.Err, e.BackupPath, e.RestoreErr)
}

func (e *DataRiskError) Unwrap() error { return e.Err }

// Controller wires the backup manager to a transformer.
type Controller struct {
	backups     *backup.Manager
	transformer Transformer
}

// New creates a Controller.
func New(backups *backup.Manager, transformer Transformer) *Controller {
	return &Controller{backups: backups, transformer: transformer}
}

// Process replaces the image at req.Path with its downsized version. The
// order is fixed: back up and verify, transform into "<path>.tmp", rename
// the temp file over the original. A failure before the backup exists
// returns a plain error with the original untouched; a failure after it
// restores the original and returns *RolledBackError, or *DataRiskError
// when the restore itself fails.
func (c *Controller) Process(req Request) (*Result, error) {
	origInfo, err := os.Stat(req.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", req.Path, err)
	}

	op := &operation{path: req.Path, stage: stagePending}

	backupPath, err := c.backups.Create(req.Path, req.RelPath)
	if err != nil {
		return nil, fmt.Errorf("backup failed, original not modified: %w", err)
	}
	op.stage = stageBackedUp
	op.backupPath = backupPath

	tmp := req.Path + ".tmp"
	resized := req.Width != req.OrigWidth || req.Height != req.OrigHeight
	if resized {
		err = c.transformer.Downscale(req.Path, tmp, req.Width, req.Height)
	} else {
		err = c.transformer.Reencode(req.Path, tmp)
	}
	if err != nil {
		return nil, c.fail(op, tmp, fmt.Errorf("transform failed: %w", err))
	}

	tmpInfo, err := os.Stat(tmp)
	if err != nil {
		return nil, c.fail(op, tmp, fmt.Errorf("transform produced no output: %w", err))
	}
	if tmpInfo.Size() == 0 {
		return nil, c.fail(op, tmp, fmt.Errorf("transform produced an empty file"))
	}
	op.stage = stageTransformed

	// The rename is the single point where the original changes.
	if err := os.Rename(tmp, req.Path); err != nil {
		return nil, c.fail(op, tmp, fmt.Errorf("failed to replace %s: %w", req.Path, err))
	}
	op.stage = stageCommitted

	return &Result{
		BackupPath: backupPath,
		Width:      req.Width,
		Height:     req.Height,
		Resized:    resized,
		OrigBytes:  origInfo.Size(),
		NewBytes:   tmpInfo.Size(),
	}, nil
}

// fail cleans up after a failure. The temp file is removed best-effort.
// Restoring the original requires a stage of stageBackedUp or later; in
// earlier stages the original was never at risk and cause passes through.
func (c *Controller) fail(op *operation, tmp string, cause error) error {
	os.Remove(tmp)

	if op.stage < stageBackedUp {
		return cause
	}
	if err := c.backups.RestoreFile(op.backupPath, op.path); err != nil {
		return &DataRiskError{
			Path:       op.path,
			BackupPath: op.backupPath,
			Err:        cause,
			RestoreErr: err,
		}
	}
	op.stage = stageRolledBack
	return &RolledBackError{BackupPath: op.backupPath, Err: cause}
}
