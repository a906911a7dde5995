// Package pipeline composes log extraction, reduction, and backend
// analysis into a single workload run, and coordinates batches of runs
// with bounded concurrency and per-workload failure isolation.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mhoran/kubesift/internal/backend"
	"github.com/mhoran/kubesift/internal/extract"
	"github.com/mhoran/kubesift/internal/history"
	"github.com/mhoran/kubesift/internal/models"
	"github.com/mhoran/kubesift/internal/reduce"
)

// previewCap bounds the raw/reduced previews attached to a result.
const previewCap = 2000

// Request describes one workload analysis.
type Request struct {
	ComponentType string `json:"component_type"`
	ComponentName string `json:"component_name"`
	Namespace     string `json:"namespace"`
	TimeRange     string `json:"time_range"`
	TailLines     int    `json:"tail_lines"`
	Container     string `json:"container"`
	Kubeconfig    string `json:"kubeconfig"`

	AnalysisMode  string `json:"analysis_mode"` // simple | full_scan
	Provider      string `json:"llm_provider"`
	Model         string `json:"model"`
	APIKey        string `json:"-"` // never serialized
	APIBaseURL    string `json:"api_base_url"`
	MaxIterations int    `json:"max_iterations"`

	ReduceConfig *reduce.Config `json:"-"` // nil means defaults
	SkipHistory  bool           `json:"-"`
}

// Result is the unified outcome envelope for single and batch runs.
type Result struct {
	Success        bool   `json:"success"`
	ComponentType  string `json:"component_type"`
	ComponentName  string `json:"component_name"`
	Namespace      string `json:"namespace"`
	TimeRange      string `json:"time_range,omitempty"`
	RawPreview     string `json:"raw_log_preview"`
	ReducedPreview string `json:"preprocessed_log_preview"`
	AnalysisText   string `json:"analysis_text"`
	ErrorMessage   string `json:"error_message"`
	HistoryID      string `json:"history_id,omitempty"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// Analyzer is the backend dispatch dependency.
type Analyzer interface {
	Invoke(ctx context.Context, req backend.Request) (string, error)
}

// Runner executes the linear pipeline for one workload: extract, reduce,
// analyze, record. Any stage error short-circuits the rest; the result
// always carries whatever previews the completed stages produced.
type Runner struct {
	source  extract.Source
	gateway Analyzer
	store   history.Port // nil disables recording
	now     func() time.Time
}

// NewRunner creates a Runner. store may be nil to disable history.
func NewRunner(source extract.Source, gateway Analyzer, store history.Port) *Runner {
	return &Runner{source: source, gateway: gateway, store: store, now: time.Now}
}

// Run executes the pipeline. The returned Result is definitive: Success is
// true only when extraction, reduction, and analysis all completed.
func (r *Runner) Run(ctx context.Context, req Request) Result {
	req = withDefaults(req)
	res := Result{
		ComponentType: extract.NormalizeKind(req.ComponentType),
		ComponentName: req.ComponentName,
		Namespace:     req.Namespace,
		TimeRange:     req.TimeRange,
		StartedAt:     r.now(),
	}

	// Validation precedes any external effect.
	err := extract.ValidateKind(req.ComponentType)
	if err == nil && req.ComponentName == "" {
		err = fmt.Errorf("component name is required")
	}
	if err == nil {
		_, err = backend.LookupProvider(req.Provider)
	}
	if err != nil {
		return r.finish(res, req, err)
	}

	raw, err := r.source.FetchLogs(ctx, extract.Params{
		ComponentType: req.ComponentType,
		Name:          req.ComponentName,
		Namespace:     req.Namespace,
		Since:         req.TimeRange,
		TailLines:     req.TailLines,
		Container:     req.Container,
		Kubeconfig:    req.Kubeconfig,
	})
	if err != nil {
		return r.finish(res, req, err)
	}
	res.RawPreview = preview(raw)

	cfg := reduce.DefaultConfig()
	if req.ReduceConfig != nil {
		cfg = *req.ReduceConfig
	}
	reduced, err := reduce.Reduce(raw, cfg)
	if err != nil {
		return r.finish(res, req, err)
	}
	res.ReducedPreview = preview(reduced.Text)

	text, err := r.gateway.Invoke(ctx, backend.Request{
		LogContent:    reduced.Text,
		ComponentType: res.ComponentType,
		ComponentName: req.ComponentName,
		Namespace:     req.Namespace,
		TimeRange:     req.TimeRange,
		Mode:          req.AnalysisMode,
		Provider:      req.Provider,
		Model:         req.Model,
		APIKey:        req.APIKey,
		APIBaseURL:    req.APIBaseURL,
		Kubeconfig:    req.Kubeconfig,
		MaxIterations: req.MaxIterations,
	})
	if err != nil {
		return r.finish(res, req, err)
	}

	res.AnalysisText = text
	res.Success = true
	return r.finish(res, req, nil)
}

// finish stamps the result, records history, and returns it.
func (r *Runner) finish(res Result, req Request, err error) Result {
	if err != nil {
		res.Success = false
		res.AnalysisText = ""
		res.ErrorMessage = err.Error()
	}
	res.FinishedAt = r.now()

	if r.store == nil || req.SkipHistory {
		return res
	}

	entry := &models.HistoryEntry{
		ComponentType: res.ComponentType,
		ComponentName: res.ComponentName,
		Namespace:     res.Namespace,
		TimeRange:     res.TimeRange,
		Mode:          req.AnalysisMode,
		Provider:      req.Provider,
		Model:         req.Model,
		Success:       res.Success,
		ErrorMessage:  res.ErrorMessage,
		Preview:       historyPreview(res),
		CreatedAt:     res.FinishedAt,
	}
	if appendErr := r.store.Append(entry); appendErr != nil {
		// Storage failures never alter an already-computed result.
		log.Printf("pipeline: history append for %s/%s: %v",
			res.ComponentType, res.ComponentName, appendErr)
		return res
	}
	res.HistoryID = entry.ID
	return res
}

// historyPreview prefers the analysis text, falling back to the reduced
// log for failed runs. The store caps it again; this keeps the port
// contract honest at the call site.
func historyPreview(res Result) string {
	text := res.AnalysisText
	if text == "" {
		text = res.ReducedPreview
	}
	if len(text) > models.PreviewCap {
		text = text[:models.PreviewCap]
	}
	return text
}

func preview(text string) string {
	if len(text) > previewCap {
		return text[:previewCap] + "..."
	}
	return text
}

func withDefaults(req Request) Request {
	if req.Namespace == "" {
		req.Namespace = "default"
	}
	if req.AnalysisMode == "" {
		req.AnalysisMode = backend.ModeSimple
	}
	if req.Provider == "" {
		req.Provider = "gemini"
	}
	if req.MaxIterations == 0 {
		req.MaxIterations = 50
	}
	return req
}
