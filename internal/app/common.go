package app

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/blackwell-systems/imgslim/internal/config"
	"github.com/blackwell-systems/imgslim/internal/output"
	"github.com/blackwell-systems/imgslim/internal/scanner"
	"github.com/blackwell-systems/imgslim/internal/store"
)

// resolveRoot resolves the optional path argument to an absolute scan
// root, defaulting to the current directory.
func resolveRoot(args []string) (string, error) {
	root := "."
	if len(args) > 0 {
		root = args[0]
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", root, err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("cannot access %s: %w", abs, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("not a directory: %s", abs)
	}

	return abs, nil
}

// loadConfig resolves the settings for a scan root. Config problems are
// warnings, not failures: the defaults always let a run proceed.
func loadConfig(root string) config.Config {
	cfg, err := config.Load(root)
	if err != nil {
		fmt.Fprintf(os.Stderr, "⚠ %v, continuing with defaults\n", err)
	}
	return cfg
}

// openLedger opens the run history database, creating the schema when
// missing. A broken ledger only costs history, never a shrink, so
// failures come back as nil after a warning.
func openLedger() *store.Store {
	path, err := getDBPath()
	if err != nil {
		fmt.Fprintf(os.Stderr, "⚠ run history unavailable: %v\n", err)
		return nil
	}

	st, err := store.New(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "⚠ run history unavailable: %v\n", err)
		return nil
	}
	if err := st.CreateSchema(); err != nil {
		st.Close()
		fmt.Fprintf(os.Stderr, "⚠ run history unavailable: %v\n", err)
		return nil
	}

	return st
}

// scanWarn routes scanner diagnostics to stderr.
func scanWarn(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "⚠ "+format+"\n", args...)
}

// discoverCandidates walks the tree and keeps the images that exceed the
// limits. Enumeration order is preserved end to end.
func discoverCandidates(root string, cfg config.Config) ([]*scanner.Candidate, []*scanner.Candidate, error) {
	isTTY := isatty.IsTerminal(os.Stdout.Fd())
	var spinner *output.Spinner
	if isTTY {
		spinner = output.NewSpinner("Scanning for images...")
		spinner.Start()
	}

	all, err := scanner.New(scanWarn).Scan(root, cfg.ScanPaths)
	if isTTY {
		spinner.Stop()
	}
	if err != nil {
		return nil, nil, err
	}

	return all, scanner.FilterByThreshold(all, cfg.Limits()), nil
}

// confirm prompts on stdin and accepts y/yes, case-insensitively.
func confirm(prompt string) bool {
	fmt.Printf("%s [y/N]: ", prompt)

	reader := bufio.NewReader(os.Stdin)
	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}

	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes"
}
