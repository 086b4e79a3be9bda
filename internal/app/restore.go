package app

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/imgslim/internal/backup"
	"github.com/blackwell-systems/imgslim/internal/output"
)

var (
	restoreDate string
	restorePath string
	restoreList bool
	restoreYes  bool

	restoreCmd = &cobra.Command{
		Use:   "restore [path]",
		Short: "Put original images back from their backups",
		Long: `Restore images from the dated backup trees that shrink runs leave
under <root>/.image-backups.

Without --date the most recent backup day is used. Restoring overwrites
the current file with its backed-up original; the backup itself is kept,
so a restore can be repeated.`,
		Example: `  # List available backup days
  imgslim restore --list

  # Restore everything from the most recent backup day
  imgslim restore ~/photos

  # Restore a specific day
  imgslim restore ~/photos --date 2026-08-21

  # Restore a single image
  imgslim restore ~/photos --path gallery/hero.jpg

  # Restore without confirmation
  imgslim restore ~/photos --yes`,
		RunE: runRestore,
	}
)

func init() {
	restoreCmd.Flags().StringVar(&restoreDate, "date", "", "backup day to restore, YYYY-MM-DD (default: most recent)")
	restoreCmd.Flags().StringVar(&restorePath, "path", "", "restore a single file by its root-relative path")
	restoreCmd.Flags().BoolVar(&restoreList, "list", false, "list available backup days")
	restoreCmd.Flags().BoolVar(&restoreYes, "yes", false, "skip the confirmation prompt")

	RootCmd.AddCommand(restoreCmd)
}

func runRestore(cmd *cobra.Command, args []string) error {
	root, err := resolveRoot(args)
	if err != nil {
		return err
	}

	mgr := backup.New(root)

	if restoreList {
		return listBackups(mgr)
	}

	date := restoreDate
	if date == "" {
		dates, err := mgr.Dates()
		if err != nil {
			return fmt.Errorf("failed to list backups: %w", err)
		}
		if len(dates) == 0 {
			return fmt.Errorf("no backups found under %s", mgr.Dir())
		}
		// Dates sorts ascending, so the last entry is the newest.
		date = dates[len(dates)-1]
		fmt.Printf("Using latest backup: %s\n", date)
	}

	files, err := mgr.FilesFor(date)
	if err != nil {
		return err
	}

	if restorePath != "" {
		rel := filepath.Clean(restorePath)
		if !slices.Contains(files, rel) {
			return fmt.Errorf("no backup of %s in %s\n\nRun 'imgslim restore --list' to see available backups", restorePath, date)
		}
		files = []string{rel}
	}

	fmt.Printf("\nRestoring %d file(s) from the %s backups under %s\n", len(files), date, root)

	if !restoreYes {
		if !confirm(fmt.Sprintf("Overwrite %d current file(s) with their backups?", len(files))) {
			fmt.Println("Restore cancelled.")
			return nil
		}
	}

	bar := output.NewProgress(len(files), "Restoring images...")
	failed := 0
	for _, rel := range files {
		if err := mgr.RestoreFile(mgr.PathFor(date, rel), filepath.Join(root, rel)); err != nil {
			fmt.Fprintf(os.Stderr, "\n⚠ %s: %v\n", rel, err)
			failed++
		}
		bar.Increment()
	}
	bar.Finish()

	if failed > 0 {
		// Partial restores still leave every backup in place for a retry.
		fmt.Printf("\n⚠ Restored %d of %d file(s); %d failed\n", len(files)-failed, len(files), failed)
		return nil
	}

	fmt.Printf("\n✓ Restored %d file(s) from %s\n", len(files), date)
	return nil
}

// listBackups prints the dated backup trees with their file counts.
func listBackups(mgr *backup.Manager) error {
	dates, err := mgr.Dates()
	if err != nil {
		return fmt.Errorf("failed to list backups: %w", err)
	}

	if len(dates) == 0 {
		fmt.Println("No backups available.")
		fmt.Println("\nBackups are created automatically by 'imgslim shrink'.")
		return nil
	}

	fmt.Printf("\nAvailable backups under %s:\n\n", mgr.Dir())
	for _, date := range dates {
		files, err := mgr.FilesFor(date)
		if err != nil {
			fmt.Printf("  %s  (unreadable: %v)\n", date, err)
			continue
		}
		fmt.Printf("  %s  %d file(s)\n", date, len(files))
	}

	fmt.Printf("\nRestore with: imgslim restore --date <date>\n")
	return nil
}
