package backend

import (
	"fmt"
	"strings"
)

// promptLogCap bounds how much reduced log text is embedded in a prompt.
// The reducer enforces the same cap; this is the gateway's own guarantee.
const promptLogCap = 120000

// buildPrompt renders the instruction for the request's analysis mode with
// the reduced log appended.
func buildPrompt(req Request) string {
	if req.Mode == ModeFullScan {
		return buildFullScanPrompt(req)
	}
	return buildSimplePrompt(req)
}

func buildSimplePrompt(req Request) string {
	var b strings.Builder
	b.WriteString("Analyze the following Kubernetes application logs. " +
		"Identify and list: (1) errors and exceptions, (2) high-risk issues such as " +
		"NullPointerException, OOM, panics, connection failures, (3) brief recommendations. " +
		"Keep the answer concise and highlight the most critical issues.\n\n")
	fmt.Fprintf(&b, "Component: %s / %s (namespace: %s). ",
		req.ComponentType, req.ComponentName, req.Namespace)
	if req.TimeRange != "" {
		fmt.Fprintf(&b, "Time range: %s. ", req.TimeRange)
	}
	b.WriteString("\n\n--- Log content (reduced) ---\n\n")
	b.WriteString(capText(req.LogContent, promptLogCap))
	return b.String()
}

func buildFullScanPrompt(req Request) string {
	since := req.TimeRange
	if since == "" {
		since = "10m"
	}
	var b strings.Builder
	b.WriteString("Analyze the collected logs below in full-scan mode.\n\n")
	fmt.Fprintf(&b, "Namespace: %s, time range: %s.\n\n", req.Namespace, since)
	b.WriteString("Perform the following and report results directly:\n" +
		"1. Extract Java exception lines: RuntimeException and subclasses (NullPointerException, " +
		"IllegalArgumentException), Error and subclasses (OutOfMemoryError), and any line containing " +
		"'Exception' or 'Error' (case-insensitive).\n" +
		"2. Output format: one line per finding as [time] [pod/container] exception type: message.\n" +
		"3. Add statistics: counts grouped by exception type (descending); flag pods with " +
		"high-frequency exceptions (>5/minute); most recent occurrence per exception type with " +
		"total counts; summarize the current top issues.\n" +
		"4. If the log volume is large, restrict statistics to the key exception lines.\n\n" +
		"--- Collected log content ---\n\n")
	b.WriteString(capText(req.LogContent, promptLogCap))
	return b.String()
}

func capText(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
