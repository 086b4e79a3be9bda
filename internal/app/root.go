package app

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var (
	dbPath string

	// RootCmd is the root command for imgslim
	RootCmd = &cobra.Command{
		Use:   "imgslim",
		Short: "Batch image downsizer with backups and rollback",
		Long: `imgslim finds oversized images in a directory tree and downsizes them
in place, safely: every original is backed up and verified before the
file is touched, and a failed rewrite is rolled back automatically.

An image is considered oversized when its file size or its pixel
dimensions exceed the configured limits (500 KB / 1200 px by default).
Limits can be tuned per tree with a .imgslim.json file in the scan
root, or via IMGSLIM_* environment variables.

Quick Start:
  1. imgslim scan ~/photos        # see what would shrink
  2. imgslim shrink ~/photos      # downsize, confirming each image
  3. imgslim restore ~/photos     # put originals back if needed

Features:
  • Sharpen-resize-sharpen pipeline that keeps downsized images crisp
  • Dated backups under <root>/.image-backups before any change
  • Atomic replacement with automatic rollback on failure
  • Per-image confirmation, or --yes for unattended runs
  • Run history stored in a local SQLite ledger

Examples:
  # Preview candidates without changing anything
  imgslim scan ~/photos

  # Shrink interactively with a custom width cap
  imgslim shrink ~/photos --max-width 1600

  # Shrink everything without prompting
  imgslim shrink ~/photos --yes

  # Watch a tree and report oversized images as they land
  imgslim watch ~/photos

  # Review what past runs did
  imgslim history`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("imgslim: batch image downsizer with backups and rollback")
			fmt.Println()
			fmt.Println("Tip: Run 'imgslim scan' to list oversized images.")
			fmt.Println("     Run 'imgslim shrink' to downsize them.")
			fmt.Println("     Run 'imgslim --help' for all commands.")
			return nil
		},
	}
)

func init() {
	// Global flags
	RootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "run ledger path (default: ~/.imgslim/imgslim.db)")

	// Enable cobra's built-in suggestion feature for unknown subcommands
	RootCmd.SuggestionsMinimumDistance = 2
}

// Execute runs the root command
func Execute() error {
	return RootCmd.Execute()
}

// getDBPath returns the ledger path, using the flag value or default
func getDBPath() (string, error) {
	if dbPath != "" {
		return dbPath, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	// Create .imgslim directory if it doesn't exist
	imgslimDir := filepath.Join(home, ".imgslim")
	if err := os.MkdirAll(imgslimDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create imgslim directory: %w", err)
	}

	return filepath.Join(imgslimDir, "imgslim.db"), nil
}
