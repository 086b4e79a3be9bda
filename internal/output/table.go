// Package output provides terminal output utilities for imgslim.
//
// This package includes:
//   - Table rendering functions for candidates, runs, and operations
//   - Progress bars for long-running operations
//   - Spinners for indeterminate operations
//   - Human-readable formatting for sizes and dates
//
// All table rendering functions use ASCII characters and ANSI color codes for terminal output.
// Progress indicators are thread-safe and can be used from multiple goroutines.
package output

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"

	"github.com/blackwell-systems/imgslim/internal/config"
	"github.com/blackwell-systems/imgslim/internal/plan"
	"github.com/blackwell-systems/imgslim/internal/scanner"
	"github.com/blackwell-systems/imgslim/internal/store"
)

// ANSI color codes for status display
const (
	colorReset  = "\033[0m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorRed    = "\033[31m"
	colorGray   = "\033[90m"
)

// IsColorEnabled returns true if ANSI color codes should be emitted.
// It checks that os.Stdout is a TTY and that the NO_COLOR env var is not set.
func IsColorEnabled() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return isatty.IsTerminal(os.Stdout.Fd())
}

// colorize wraps text in the given ANSI color code if color is enabled,
// otherwise returns the plain text.
func colorize(color, text string) string {
	if IsColorEnabled() {
		return color + text + colorReset
	}
	return text
}

// FormatBytes renders a byte count in IEC units. Negative counts keep
// their sign so a replacement that grew the file reports honestly.
func FormatBytes(n int64) string {
	if n < 0 {
		return "-" + humanize.IBytes(uint64(-n))
	}
	return humanize.IBytes(uint64(n))
}

// RenderCandidateTable renders the images that exceed the given limits,
// with the target each would be resized to under the constraint and its
// area-ratio size estimate.
// Note: Does not sort - rows keep the scanner's enumeration order.
func RenderCandidateTable(candidates []*scanner.Candidate, limits config.Limits, constraint plan.Constraint) string {
	if len(candidates) == 0 {
		return "No oversized images found.\n"
	}

	var sb strings.Builder

	// Header
	sb.WriteString(fmt.Sprintf("%-38s %-12s %-12s %-10s %-10s %s\n",
		"Path", "Dimensions", "Target", "Size", "Est.", "Exceeds"))
	sb.WriteString(strings.Repeat("─", 94))
	sb.WriteString("\n")

	// Rows
	for _, c := range candidates {
		tw, th := constraint.TargetSize(c.Width, c.Height)
		sb.WriteString(fmt.Sprintf("%-38s %-12s %-12s %-10s %-10s %s\n",
			truncate(c.RelPath, 38),
			formatDims(c.Width, c.Height),
			formatDims(tw, th),
			FormatBytes(c.Bytes),
			FormatBytes(plan.EstimateBytes(c.Bytes, c.Width, c.Height, tw, th)),
			formatExceeds(c, limits)))
	}

	return sb.String()
}

// RenderRunTable renders past shrink runs, newest first.
func RenderRunTable(runs []*store.Run) string {
	if len(runs) == 0 {
		return "No runs recorded.\n"
	}

	sorted := make([]*store.Run, len(runs))
	copy(sorted, runs)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].StartedAt.After(sorted[j].StartedAt)
	})

	var sb strings.Builder

	// Header
	sb.WriteString(fmt.Sprintf("%-5s %-16s %-32s %-10s %-8s %-7s %s\n",
		"ID", "Started", "Root", "Processed", "Skipped", "Failed", "Saved"))
	sb.WriteString(strings.Repeat("─", 92))
	sb.WriteString("\n")

	// Rows
	for _, run := range sorted {
		sb.WriteString(fmt.Sprintf("%-5d %-16s %-32s %-10d %-8d %-7d %s\n",
			run.ID,
			formatRelativeTime(run.StartedAt),
			truncate(run.Root, 32),
			run.Processed,
			run.Skipped,
			run.Failed,
			FormatBytes(run.BytesSaved)))
	}

	return sb.String()
}

// RenderOperationTable renders the per-image operations of one run.
func RenderOperationTable(ops []*store.Operation) string {
	if len(ops) == 0 {
		return "No operations recorded.\n"
	}

	var sb strings.Builder

	// Header
	sb.WriteString(fmt.Sprintf("%-38s %-12s %-12s %-10s %s\n",
		"Path", "Before", "After", "Saved", "Status"))
	sb.WriteString(strings.Repeat("─", 84))
	sb.WriteString("\n")

	// Rows
	for _, op := range ops {
		saved := "—"
		if op.Status == "committed" {
			saved = FormatBytes(op.OrigBytes - op.NewBytes)
		}

		status := op.Status
		if IsColorEnabled() {
			status = statusColor(op.Status) + status + colorReset
		}

		sb.WriteString(fmt.Sprintf("%-38s %-12s %-12s %-10s %s\n",
			truncate(op.RelPath, 38),
			formatDims(op.OrigWidth, op.OrigHeight),
			formatDims(op.NewWidth, op.NewHeight),
			saved,
			status))
	}

	return sb.String()
}

// formatDims renders pixel dimensions for a table cell.
func formatDims(w, h int) string {
	return fmt.Sprintf("%dx%d", w, h)
}

// formatExceeds names the limits a candidate trips.
func formatExceeds(c *scanner.Candidate, limits config.Limits) string {
	overSize := c.Bytes > limits.SizeBytes
	overDims := c.Width > limits.DimensionPX || c.Height > limits.DimensionPX

	switch {
	case overSize && overDims:
		return "size+dimensions"
	case overSize:
		return "size"
	case overDims:
		return "dimensions"
	default:
		return "—"
	}
}

// statusColor returns the ANSI color code for an operation status.
func statusColor(status string) string {
	switch status {
	case "committed":
		return colorGreen
	case "skipped":
		return colorGray
	case "rolled_back":
		return colorYellow
	default: // failed, data_risk
		return colorRed
	}
}

// formatRelativeTime converts a timestamp to relative time (e.g., "2 days ago").
func formatRelativeTime(t time.Time) string {
	if t.IsZero() {
		return "never"
	}

	now := time.Now()
	diff := now.Sub(t)

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		mins := int(diff.Minutes())
		if mins == 1 {
			return "1 minute ago"
		}
		return fmt.Sprintf("%d minutes ago", mins)
	case diff < 24*time.Hour:
		hours := int(diff.Hours())
		if hours == 1 {
			return "1 hour ago"
		}
		return fmt.Sprintf("%d hours ago", hours)
	case diff < 7*24*time.Hour:
		days := int(diff.Hours() / 24)
		if days == 1 {
			return "1 day ago"
		}
		return fmt.Sprintf("%d days ago", days)
	case diff < 30*24*time.Hour:
		weeks := int(diff.Hours() / 24 / 7)
		if weeks == 1 {
			return "1 week ago"
		}
		return fmt.Sprintf("%d weeks ago", weeks)
	case diff < 365*24*time.Hour:
		months := int(diff.Hours() / 24 / 30)
		if months == 1 {
			return "1 month ago"
		}
		return fmt.Sprintf("%d months ago", months)
	default:
		years := int(diff.Hours() / 24 / 365)
		if years == 1 {
			return "1 year ago"
		}
		return fmt.Sprintf("%d years ago", years)
	}
}

// truncate truncates a string to maxLen, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
