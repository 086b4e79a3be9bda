package app

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/imgslim/internal/output"
	"github.com/blackwell-systems/imgslim/internal/watcher"
)

var watchCmd = &cobra.Command{
	Use:   "watch [path]",
	Short: "Report oversized images as they appear",
	Long: `Watch a directory tree and report any new or rewritten image that
exceeds the configured limits.

The watcher only reports; files are never modified. It waits for a file
to stop changing before inspecting it, so half-written exports do not
trigger false reports. Hidden directories, including .image-backups,
are ignored.`,
	Example: `  # Watch the current directory (Ctrl+C to stop)
  imgslim watch

  # Watch a specific tree
  imgslim watch ~/photos`,
	RunE: runWatch,
}

func init() {
	RootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	root, err := resolveRoot(args)
	if err != nil {
		return err
	}

	cfg := loadConfig(root)
	limits := cfg.Limits()

	w, err := watcher.New(root, limits, os.Stdout)
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}

	spinner := output.NewSpinner("Watching directories...")
	spinner.Start()
	if err := w.Start(); err != nil {
		spinner.Stop()
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	spinner.StopWithMessage(fmt.Sprintf("✓ Watching %s", root))

	fmt.Println()
	fmt.Printf("Reporting images over %s or %d px. Press Ctrl+C to stop.\n",
		output.FormatBytes(limits.SizeBytes), limits.DimensionPX)
	fmt.Println()

	// Set up signal handling for graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	// Wait for shutdown signal
	sig := <-sigCh
	fmt.Printf("\nReceived signal %v, shutting down...\n", sig)

	if err := w.Stop(); err != nil {
		return fmt.Errorf("failed to stop watcher: %w", err)
	}

	fmt.Println("✓ Watcher stopped")
	return nil
}
