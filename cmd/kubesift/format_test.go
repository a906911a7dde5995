package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/mhoran/kubesift/internal/pipeline"
)

func TestPrintResult_Success(t *testing.T) {
	buf := new(bytes.Buffer)
	printResult(buf, pipeline.Result{
		Success:       true,
		ComponentType: "deployment",
		ComponentName: "api",
		Namespace:     "default",
		AnalysisText:  "The pod is crash-looping on a missing secret.",
		HistoryID:     "20240315-103045-ab12",
	})
	out := buf.String()
	if !strings.Contains(out, "[OK] deployment/api (default)") {
		t.Errorf("missing status line: %s", out)
	}
	if !strings.Contains(out, "crash-looping") {
		t.Errorf("missing analysis text: %s", out)
	}
	if !strings.Contains(out, "History ID: 20240315-103045-ab12") {
		t.Errorf("missing history id: %s", out)
	}
}

func TestPrintResult_Failure(t *testing.T) {
	buf := new(bytes.Buffer)
	printResult(buf, pipeline.Result{
		Success:       false,
		ComponentType: "statefulset",
		ComponentName: "db",
		Namespace:     "prod",
		ErrorMessage:  "no pods found",
	})
	out := buf.String()
	if !strings.Contains(out, "[FAIL] statefulset/db (prod)") {
		t.Errorf("missing status line: %s", out)
	}
	if !strings.Contains(out, "no pods found") {
		t.Errorf("missing error message: %s", out)
	}
}

func TestPrintSummary(t *testing.T) {
	buf := new(bytes.Buffer)
	printSummary(buf, pipeline.Summary{
		Total:     2,
		Succeeded: 1,
		Failed:    1,
		Results: []pipeline.Result{
			{Success: true, ComponentType: "deployment", ComponentName: "api", Namespace: "default"},
			{Success: false, ComponentType: "deployment", ComponentName: "worker", Namespace: "default", ErrorMessage: "timeout"},
		},
	})
	out := buf.String()
	if !strings.Contains(out, "[OK] deployment/api") {
		t.Errorf("missing success line: %s", out)
	}
	if !strings.Contains(out, "[FAIL] deployment/worker (default): timeout") {
		t.Errorf("missing failure line: %s", out)
	}
	if !strings.Contains(out, "2 total, 1 succeeded, 1 failed") {
		t.Errorf("missing totals: %s", out)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("truncate(short) = %q", got)
	}
	if got := truncate("a long string here", 6); got != "a long..." {
		t.Errorf("truncate = %q, want %q", got, "a long...")
	}
	if got := truncate("line\nbreak", 20); got != "line break" {
		t.Errorf("truncate should flatten newlines, got %q", got)
	}
}
