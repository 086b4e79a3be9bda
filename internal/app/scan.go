package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/imgslim/internal/output"
	"github.com/blackwell-systems/imgslim/internal/plan"
	"github.com/blackwell-systems/imgslim/internal/scanner"
)

var (
	scanAll bool

	scanCmd = &cobra.Command{
		Use:   "scan [path]",
		Short: "List images that exceed the size or dimension limits",
		Long: `Scan a directory tree for raster images and report the ones that
exceed the configured limits. Nothing is modified.

An image qualifies when its file size is over the byte threshold OR
either pixel dimension is over the dimension threshold; the two signals
are independent. Hidden directories, including the .image-backups tree,
are never scanned.

Limits come from .imgslim.json in the scan root, IMGSLIM_* environment
variables, or the built-in defaults (500 KB, 1200 px).`,
		Example: `  # Scan the current directory
  imgslim scan

  # Scan a specific tree
  imgslim scan ~/photos

  # Include images that are within the limits
  imgslim scan ~/photos --all`,
		RunE: runScan,
	}
)

func init() {
	scanCmd.Flags().BoolVar(&scanAll, "all", false, "list every image found, not just oversized ones")

	RootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	root, err := resolveRoot(args)
	if err != nil {
		return err
	}

	cfg := loadConfig(root)
	limits := cfg.Limits()

	all, oversized, err := discoverCandidates(root, cfg)
	if err != nil {
		return fmt.Errorf("failed to scan %s: %w", root, err)
	}

	if len(oversized) == 0 && !scanAll {
		fmt.Printf("✓ No oversized images found (%d images scanned under %s)\n", len(all), root)
		return nil
	}

	fmt.Printf("Scanned %d image(s) under %s: %d exceed the limits (%s / %d px)\n\n",
		len(all), root, len(oversized), output.FormatBytes(limits.SizeBytes), limits.DimensionPX)

	rows := oversized
	if scanAll {
		rows = all
	}
	constraint := plan.Constraint{MaxWidth: cfg.MaxWidth}
	fmt.Print(output.RenderCandidateTable(rows, limits, constraint))

	if len(oversized) > 0 {
		estimate := estimateSavingsFor(oversized, constraint)
		fmt.Printf("\nEstimated savings at max width %d: ~%s\n", cfg.MaxWidth, output.FormatBytes(estimate))
		fmt.Printf("Run 'imgslim shrink %s' to downsize.\n", root)
	}

	return nil
}

// estimateSavingsFor sums the projected byte reduction across candidates,
// assuming bytes scale with pixel area. Images that would not shrink
// contribute nothing.
func estimateSavingsFor(candidates []*scanner.Candidate, constraint plan.Constraint) int64 {
	var total int64
	for _, c := range candidates {
		w, h := constraint.TargetSize(c.Width, c.Height)
		saved := c.Bytes - plan.EstimateBytes(c.Bytes, c.Width, c.Height, w, h)
		if saved > 0 {
			total += saved
		}
	}
	return total
}
