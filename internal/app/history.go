package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/imgslim/internal/output"
	"github.com/blackwell-systems/imgslim/internal/store"
)

var (
	historyRun   int64
	historyLimit int

	historyCmd = &cobra.Command{
		Use:   "history",
		Short: "Show past shrink runs and what they changed",
		Long: `Show the shrink runs recorded in the ledger, newest first.

Each run stores its per-image operations: original and new dimensions,
byte counts, the backup location, and whether the replacement committed
or was rolled back. Dry runs are never recorded.`,
		Example: `  # Recent runs
  imgslim history

  # More of them
  imgslim history --limit 50

  # Every operation of run 12
  imgslim history --run 12`,
		RunE: runHistory,
	}
)

func init() {
	historyCmd.Flags().Int64Var(&historyRun, "run", 0, "show the operations of one run by ID")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "maximum number of runs to list")

	RootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	path, err := getDBPath()
	if err != nil {
		return fmt.Errorf("failed to get ledger path: %w", err)
	}

	st, err := store.New(path)
	if err != nil {
		return fmt.Errorf("failed to open run history: %w", err)
	}
	defer st.Close()

	if err := st.CreateSchema(); err != nil {
		return fmt.Errorf("failed to open run history: %w", err)
	}

	if historyRun > 0 {
		return showRun(st, historyRun)
	}

	runs, err := st.ListRuns(historyLimit)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	fmt.Print(output.RenderRunTable(runs))
	if len(runs) > 0 {
		fmt.Printf("\nShow one run's operations with: imgslim history --run <id>\n")
	}

	return nil
}

// showRun prints one run's header and its operation table.
func showRun(st *store.Store, id int64) error {
	run, err := st.GetRun(id)
	if err != nil {
		return fmt.Errorf("%w\n\nRun 'imgslim history' to see recorded runs", err)
	}

	ops, err := st.ListOperations(id)
	if err != nil {
		return fmt.Errorf("failed to list operations: %w", err)
	}

	fmt.Printf("\nRun %d\n", run.ID)
	fmt.Printf("  Started:   %s\n", run.StartedAt.Format("2006-01-02 15:04:05"))
	fmt.Printf("  Root:      %s\n", run.Root)
	fmt.Printf("  Max width: %d px\n", run.MaxWidth)
	fmt.Printf("  Processed: %d, skipped: %d, failed: %d\n", run.Processed, run.Skipped, run.Failed)
	fmt.Printf("  Saved:     %s\n", output.FormatBytes(run.BytesSaved))
	fmt.Println()
	fmt.Print(output.RenderOperationTable(ops))

	return nil
}
