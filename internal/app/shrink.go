package app

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/imgslim/internal/backup"
	"github.com/blackwell-systems/imgslim/internal/output"
	"github.com/blackwell-systems/imgslim/internal/plan"
	"github.com/blackwell-systems/imgslim/internal/replace"
	"github.com/blackwell-systems/imgslim/internal/resample"
	"github.com/blackwell-systems/imgslim/internal/session"
	"github.com/blackwell-systems/imgslim/internal/store"
)

var (
	shrinkMaxWidth  int
	shrinkMaxHeight int
	shrinkScale     float64
	shrinkQuality   int
	shrinkYes       bool
	shrinkDryRun    bool

	shrinkCmd = &cobra.Command{
		Use:   "shrink [path]",
		Short: "Downsize oversized images in place, with backups",
		Long: `Find oversized images under a directory tree and rewrite them smaller,
one at a time, confirming each image unless --yes is given.

Before an image is touched its original is copied to
<root>/.image-backups/<date>/ and the copy is verified. The downsized
version is written next to the original and swapped in with an atomic
rename, so a crash mid-write never leaves a half-written image. If a
rewrite fails, the original is restored from its backup.

Target dimensions come from, in order: --scale when set, then
--max-width when the image is wider, then --max-height when the image
is taller and the width did not already shrink it. Images are never
upscaled. An image that is oversized by bytes alone is re-encoded at
the configured quality without resizing.`,
		Example: `  # Shrink interactively under the current directory
  imgslim shrink

  # Shrink a tree without prompting
  imgslim shrink ~/photos --yes

  # Cap width at 1600px instead of the configured limit
  imgslim shrink ~/photos --max-width 1600

  # Halve every oversized image
  imgslim shrink ~/photos --scale 0.5

  # Preview without touching any file
  imgslim shrink ~/photos --dry-run`,
		RunE: runShrink,
	}
)

func init() {
	shrinkCmd.Flags().IntVar(&shrinkMaxWidth, "max-width", 0, "maximum width in pixels (default from config: 1200)")
	shrinkCmd.Flags().IntVar(&shrinkMaxHeight, "max-height", 0, "maximum height in pixels (no cap unless set)")
	shrinkCmd.Flags().Float64Var(&shrinkScale, "scale", 0, "scale factor between 0 and 1; overrides the width and height caps")
	shrinkCmd.Flags().IntVar(&shrinkQuality, "quality", 0, "JPEG/WebP encode quality 1-100 (default from config: 95)")
	shrinkCmd.Flags().BoolVar(&shrinkYes, "yes", false, "shrink every candidate without prompting")
	shrinkCmd.Flags().BoolVar(&shrinkDryRun, "dry-run", false, "report what would change without modifying files")

	RootCmd.AddCommand(shrinkCmd)
}

func runShrink(cmd *cobra.Command, args []string) error {
	root, err := resolveRoot(args)
	if err != nil {
		return err
	}

	cfg := loadConfig(root)

	// Flags beat the config; the config already folds in environment and
	// file values over the defaults.
	maxWidth := cfg.MaxWidth
	if cmd.Flags().Changed("max-width") {
		maxWidth = shrinkMaxWidth
	}
	quality := cfg.Quality
	if cmd.Flags().Changed("quality") {
		quality = shrinkQuality
	}

	if shrinkScale < 0 || shrinkScale > 1 {
		return fmt.Errorf("scale must be between 0 and 1, got %v", shrinkScale)
	}
	if quality < 1 || quality > 100 {
		return fmt.Errorf("quality must be between 1 and 100, got %d", quality)
	}

	_, oversized, err := discoverCandidates(root, cfg)
	if err != nil {
		return fmt.Errorf("failed to scan %s: %w", root, err)
	}

	if len(oversized) == 0 {
		fmt.Printf("✓ No oversized images found under %s\n", root)
		return nil
	}

	limits := cfg.Limits()
	constraint := plan.Constraint{
		Scale:     shrinkScale,
		MaxWidth:  maxWidth,
		MaxHeight: shrinkMaxHeight,
	}

	fmt.Printf("Found %d oversized image(s) under %s\n\n", len(oversized), root)
	fmt.Print(output.RenderCandidateTable(oversized, limits, constraint))

	var decider session.Decider = session.NewPromptDecider(os.Stdin, os.Stdout)
	if shrinkYes || shrinkDryRun {
		decider = session.AutoDecider{Answer: session.Proceed}
	}

	controller := replace.New(backup.New(root), resample.NewFileProcessor(quality))
	driver := session.New(controller, decider, constraint, shrinkDryRun, os.Stdout)

	// Dry runs leave no trace in the ledger.
	var ledger *store.Store
	var runID int64
	if !shrinkDryRun {
		if ledger = openLedger(); ledger != nil {
			defer ledger.Close()
			if runID, err = ledger.BeginRun(root, maxWidth); err != nil {
				fmt.Fprintf(os.Stderr, "⚠ run history unavailable: %v\n", err)
				ledger = nil
			}
		}
	}

	outcomes, stats := driver.Run(oversized)

	if ledger != nil {
		recordRun(ledger, runID, outcomes, stats)
	}

	if shrinkDryRun {
		fmt.Printf("\nDry run complete: %d image(s) inspected, estimated savings ~%s\n",
			len(oversized), output.FormatBytes(estimateSavingsFor(oversized, constraint)))
		return nil
	}

	fmt.Println()
	fmt.Println("Summary:")
	fmt.Printf("  Processed: %d\n", stats.Processed)
	fmt.Printf("  Skipped:   %d\n", stats.Skipped)
	fmt.Printf("  Failed:    %d\n", stats.Failed)
	fmt.Printf("  Saved:     %s\n", output.FormatBytes(stats.BytesSaved))

	if stats.Processed > 0 {
		fmt.Printf("\n✓ Originals backed up under %s\n", backup.New(root).Dir())
		fmt.Printf("  Restore with: imgslim restore %s\n", root)
	}
	if stats.Failed > 0 {
		fmt.Printf("\n⚠ %d image(s) failed; see the messages above.\n", stats.Failed)
	}

	return nil
}

// recordRun writes the per-image outcomes and the session totals to the
// ledger. Skipped candidates only show up in the run counters.
func recordRun(ledger *store.Store, runID int64, outcomes []session.Outcome, stats session.Stats) {
	for _, o := range outcomes {
		if o.Status == session.StatusSkipped {
			continue
		}

		detail := ""
		if o.Err != nil {
			detail = o.Err.Error()
		}

		op := &store.Operation{
			RunID:      runID,
			RelPath:    o.Candidate.RelPath,
			OrigWidth:  o.Candidate.Width,
			OrigHeight: o.Candidate.Height,
			NewWidth:   o.Width,
			NewHeight:  o.Height,
			OrigBytes:  o.Candidate.Bytes,
			NewBytes:   o.NewBytes,
			BackupPath: o.BackupPath,
			Status:     o.Status,
			Detail:     detail,
		}
		if err := ledger.RecordOperation(op); err != nil {
			fmt.Fprintf(os.Stderr, "⚠ failed to record %s: %v\n", o.Candidate.RelPath, err)
		}
	}

	if err := ledger.FinishRun(runID, stats.Processed, stats.Skipped, stats.Failed, stats.BytesSaved); err != nil {
		fmt.Fprintf(os.Stderr, "⚠ failed to record run totals: %v\n", err)
	}
}
