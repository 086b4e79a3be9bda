// Package session drives the per-image decide, back up, replace loop.
package session

import (
	"errors"
	"fmt"
	"io"

	"github.com/blackwell-systems/imgslim/internal/output"
	"github.com/blackwell-systems/imgslim/internal/plan"
	"github.com/blackwell-systems/imgslim/internal/replace"
	"github.com/blackwell-systems/imgslim/internal/scanner"
)

// Outcome statuses, recorded per candidate in the run ledger.
const (
	StatusCommitted  = "committed"
	StatusRolledBack = "rolled_back"
	StatusDataRisk   = "data_risk"
	StatusFailed     = "failed"
	StatusSkipped    = "skipped"
)

// Outcome records what happened to one evaluated candidate.
type Outcome struct {
	Candidate  *scanner.Candidate
	Width      int // target dimensions
	Height     int
	Status     string
	BackupPath string
	NewBytes   int64
	Err        error
}

// Stats summarizes a session.
type Stats struct {
	Processed  int
	Skipped    int
	Failed     int
	BytesSaved int64
}

// Driver runs candidates through the decision and replacement sequence,
// one image fully finished before the next begins.
type Driver struct {
	constraint plan.Constraint
	controller *replace.Controller
	decider    Decider
	dryRun     bool
	out        io.Writer
}

// New creates a Driver. In dry-run mode candidates are evaluated and
// narrated but the decider is never consulted and nothing is modified.
func New(controller *replace.Controller, decider Decider, constraint plan.Constraint, dryRun bool, out io.Writer) *Driver {
	return &Driver{
		constraint: constraint,
		controller: controller,
		decider:    decider,
		dryRun:     dryRun,
		out:        out,
	}
}

// Run offers each candidate in order and returns one Outcome per evaluated
// candidate plus session totals. SkipAll marks the current and remaining
// candidates skipped and stops; Abort stops on the spot. Completed results
// stand either way. No candidate is ever retried.
func (d *Driver) Run(candidates []*scanner.Candidate) ([]Outcome, Stats) {
	var outcomes []Outcome
	var stats Stats

	for i, c := range candidates {
		targetW, targetH := d.constraint.TargetSize(c.Width, c.Height)
		estimated := plan.EstimateBytes(c.Bytes, c.Width, c.Height, targetW, targetH)

		fmt.Fprintf(d.out, "\n[%d/%d] %s\n", i+1, len(candidates), c.RelPath)
		fmt.Fprintf(d.out, "  %dx%d → %dx%d  (%s → est. %s)\n",
			c.Width, c.Height, targetW, targetH,
			output.FormatBytes(c.Bytes), output.FormatBytes(estimated))

		if d.dryRun {
			stats.Skipped++
			outcomes = append(outcomes, Outcome{Candidate: c, Width: targetW, Height: targetH, Status: StatusSkipped})
			continue
		}

		switch d.decider.Decide(Item{Candidate: c, Width: targetW, Height: targetH, Estimated: estimated, Index: i + 1, Total: len(candidates)}) {
		case Abort:
			fmt.Fprintln(d.out, "\nAborted.")
			return outcomes, stats

		case SkipAll:
			stats.Skipped += len(candidates) - i
			outcomes = append(outcomes, Outcome{Candidate: c, Width: targetW, Height: targetH, Status: StatusSkipped})
			fmt.Fprintf(d.out, "\nSkipping remaining %d candidate(s).\n", len(candidates)-i)
			return outcomes, stats

		case Skip:
			stats.Skipped++
			outcomes = append(outcomes, Outcome{Candidate: c, Width: targetW, Height: targetH, Status: StatusSkipped})
			continue

		case Proceed:
			outcome := d.process(c, targetW, targetH)
			outcomes = append(outcomes, outcome)
			if outcome.Status == StatusCommitted {
				stats.Processed++
				stats.BytesSaved += c.Bytes - outcome.NewBytes
			} else {
				stats.Failed++
			}
		}
	}
	return outcomes, stats
}

// process runs one replacement and narrates its result.
func (d *Driver) process(c *scanner.Candidate, targetW, targetH int) Outcome {
	result, err := d.controller.Process(replace.Request{
		Path:       c.Path,
		RelPath:    c.RelPath,
		OrigWidth:  c.Width,
		OrigHeight: c.Height,
		Width:      targetW,
		Height:     targetH,
	})
	if err == nil {
		fmt.Fprintf(d.out, "  ✓ %s saved (%s → %s)\n",
			output.FormatBytes(result.BytesSaved()),
			output.FormatBytes(result.OrigBytes),
			output.FormatBytes(result.NewBytes))
		return Outcome{
			Candidate:  c,
			Width:      targetW,
			Height:     targetH,
			Status:     StatusCommitted,
			BackupPath: result.BackupPath,
			NewBytes:   result.NewBytes,
		}
	}

	outcome := Outcome{Candidate: c, Width: targetW, Height: targetH, Err: err}

	var dataRisk *replace.DataRiskError
	var rolledBack *replace.RolledBackError
	switch {
	case errors.As(err, &dataRisk):
		outcome.Status = StatusDataRisk
		outcome.BackupPath = dataRisk.BackupPath
		fmt.Fprintf(d.out, "  ⚠ DATA RISK: %v\n", dataRisk.Err)
		fmt.Fprintf(d.out, "  ⚠ Restore failed (%v); recover manually from %s\n", dataRisk.RestoreErr, dataRisk.BackupPath)
	case errors.As(err, &rolledBack):
		outcome.Status = StatusRolledBack
		outcome.BackupPath = rolledBack.BackupPath
		fmt.Fprintf(d.out, "  ✗ %v\n", rolledBack.Err)
		fmt.Fprintln(d.out, "  ✓ Original restored from backup")
	default:
		outcome.Status = StatusFailed
		fmt.Fprintf(d.out, "  ✗ %v\n", err)
	}
	return outcome
}
