// Package report renders analysis outcomes as Markdown files, with
// optional PDF conversion when pandoc is installed. The pipeline never
// depends on this package; callers check availability before use.
package report

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mhoran/kubesift/internal/execx"
	"github.com/mhoran/kubesift/internal/pipeline"
)

// pdfTimeout bounds one pandoc conversion.
const pdfTimeout = 60 * time.Second

// DefaultDir returns ~/.config/kubesift/reports.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("report: resolve home dir: %w", err)
	}
	return filepath.Join(home, ".config", "kubesift", "reports"), nil
}

// PDFAvailable reports whether PDF conversion is possible on this host.
func PDFAvailable() bool {
	return execx.Available("pandoc")
}

// WriteAnalysis renders one analysis result to a Markdown file in dir and
// returns the file path.
func WriteAnalysis(dir string, res pipeline.Result) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("report: create dir: %w", err)
	}
	name := fmt.Sprintf("analysis-%s-%s-%s.md",
		res.ComponentName, res.Namespace, time.Now().UTC().Format("20060102-150405"))
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(renderAnalysis(res)), 0o644); err != nil {
		return "", fmt.Errorf("report: write %s: %w", path, err)
	}
	return path, nil
}

// WriteBatch renders a batch summary to a Markdown file in dir.
func WriteBatch(dir string, summary pipeline.Summary) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("report: create dir: %w", err)
	}
	name := fmt.Sprintf("batch-%s.md", time.Now().UTC().Format("20060102-150405"))
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(renderBatch(summary)), 0o644); err != nil {
		return "", fmt.Errorf("report: write %s: %w", path, err)
	}
	return path, nil
}

// ConvertPDF converts a Markdown report to PDF next to it. Callers should
// check PDFAvailable first; a missing converter is still a plain error,
// never a panic.
func ConvertPDF(ctx context.Context, mdPath string) (string, error) {
	if !PDFAvailable() {
		return "", fmt.Errorf("report: pandoc not found in PATH")
	}
	pdfPath := strings.TrimSuffix(mdPath, filepath.Ext(mdPath)) + ".pdf"
	res, err := execx.Run(ctx, execx.Opts{
		Binary:  "pandoc",
		Args:    []string{mdPath, "-o", pdfPath},
		Timeout: pdfTimeout,
	})
	if err != nil {
		return "", fmt.Errorf("report: pandoc: %s", firstNonEmpty(res.Stderr, err.Error()))
	}
	return pdfPath, nil
}

func renderAnalysis(res pipeline.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Log Analysis — %s/%s\n\n", res.ComponentType, res.ComponentName)
	fmt.Fprintf(&b, "- Namespace: %s\n", res.Namespace)
	if res.TimeRange != "" {
		fmt.Fprintf(&b, "- Time range: %s\n", res.TimeRange)
	}
	fmt.Fprintf(&b, "- Status: %s\n", statusWord(res.Success))
	fmt.Fprintf(&b, "- Finished: %s\n\n", res.FinishedAt.UTC().Format(time.RFC3339))

	if res.Success {
		b.WriteString("## Analysis\n\n")
		b.WriteString(res.AnalysisText)
		b.WriteString("\n\n")
	} else {
		b.WriteString("## Error\n\n")
		b.WriteString(res.ErrorMessage)
		b.WriteString("\n\n")
	}

	if res.ReducedPreview != "" {
		b.WriteString("## Reduced log preview\n\n```\n")
		b.WriteString(res.ReducedPreview)
		b.WriteString("\n```\n")
	}
	return b.String()
}

func renderBatch(summary pipeline.Summary) string {
	var b strings.Builder
	b.WriteString("# Batch Log Analysis\n\n")
	fmt.Fprintf(&b, "Total: %d — Succeeded: %d — Failed: %d\n\n",
		summary.Total, summary.Succeeded, summary.Failed)
	b.WriteString(summary.MergedText)
	b.WriteString("\n")
	return b.String()
}

func statusWord(success bool) string {
	if success {
		return "success"
	}
	return "failed"
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
