package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/mhoran/kubesift/internal/pipeline"
)

// printResult renders one analysis outcome for the terminal.
func printResult(out io.Writer, res pipeline.Result) {
	fmt.Fprintf(out, "[%s] %s/%s (%s)\n",
		statusWord(res.Success), res.ComponentType, res.ComponentName, res.Namespace)
	if res.Success {
		fmt.Fprintln(out)
		fmt.Fprintln(out, res.AnalysisText)
	} else {
		fmt.Fprintf(out, "  %s\n", res.ErrorMessage)
	}
	if res.HistoryID != "" {
		fmt.Fprintf(out, "\nHistory ID: %s\n", res.HistoryID)
	}
}

// printSummary renders a batch outcome: one status line per workload, then
// the totals.
func printSummary(out io.Writer, summary pipeline.Summary) {
	for _, res := range summary.Results {
		line := fmt.Sprintf("[%s] %s/%s (%s)",
			statusWord(res.Success), res.ComponentType, res.ComponentName, res.Namespace)
		if !res.Success {
			line += ": " + truncate(res.ErrorMessage, 120)
		}
		fmt.Fprintln(out, line)
	}
	fmt.Fprintf(out, "\n%d total, %d succeeded, %d failed\n",
		summary.Total, summary.Succeeded, summary.Failed)
}

func statusWord(success bool) string {
	if success {
		return "OK"
	}
	return "FAIL"
}

// truncate shortens s to max bytes, appending an ellipsis when cut.
func truncate(s string, max int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
