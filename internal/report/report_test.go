package report

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/mhoran/kubesift/internal/pipeline"
)

func TestWriteAnalysis_Success(t *testing.T) {
	dir := t.TempDir()
	res := pipeline.Result{
		Success:        true,
		ComponentType:  "deployment",
		ComponentName:  "web",
		Namespace:      "prod",
		TimeRange:      "1h",
		AnalysisText:   "No critical issues found.",
		ReducedPreview: "line one\nline two",
		FinishedAt:     time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
	}

	path, err := WriteAnalysis(dir, res)
	if err != nil {
		t.Fatalf("WriteAnalysis: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	content := string(data)
	for _, want := range []string{"deployment/web", "Namespace: prod", "Time range: 1h",
		"Status: success", "No critical issues found.", "line one"} {
		if !strings.Contains(content, want) {
			t.Errorf("report missing %q", want)
		}
	}
}

func TestWriteAnalysis_Failure(t *testing.T) {
	dir := t.TempDir()
	res := pipeline.Result{
		ComponentType: "statefulset",
		ComponentName: "db",
		Namespace:     "default",
		ErrorMessage:  "log extraction failed: no pods",
	}

	path, err := WriteAnalysis(dir, res)
	if err != nil {
		t.Fatalf("WriteAnalysis: %v", err)
	}
	data, _ := os.ReadFile(path)
	content := string(data)
	if !strings.Contains(content, "Status: failed") {
		t.Error("report missing failed status")
	}
	if !strings.Contains(content, "no pods") {
		t.Error("report missing error detail")
	}
	if strings.Contains(content, "## Analysis") {
		t.Error("failed report should not have an Analysis section")
	}
}

func TestWriteBatch(t *testing.T) {
	dir := t.TempDir()
	summary := pipeline.Summary{
		Total: 2, Succeeded: 1, Failed: 1,
		MergedText: "## deployment/web (prod)\nok\n\n## statefulset/db (prod)\nAnalysis failed: boom",
	}

	path, err := WriteBatch(dir, summary)
	if err != nil {
		t.Fatalf("WriteBatch: %v", err)
	}
	data, _ := os.ReadFile(path)
	content := string(data)
	if !strings.Contains(content, "Total: 2 — Succeeded: 1 — Failed: 1") {
		t.Error("batch report missing counts")
	}
	if !strings.Contains(content, "deployment/web") {
		t.Error("batch report missing merged sections")
	}
}
