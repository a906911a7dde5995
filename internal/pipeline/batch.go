package pipeline

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// DefaultWorkers bounds batch concurrency so a large batch cannot swamp
// the cluster API or the backend's rate limits.
const DefaultWorkers = 3

// Summary aggregates a batch of per-workload results. Result order always
// matches request order.
type Summary struct {
	Total      int      `json:"total"`
	Succeeded  int      `json:"succeeded"`
	Failed     int      `json:"failed"`
	MergedText string   `json:"merged_text"`
	Results    []Result `json:"results"`
}

// Coordinator fans a batch out over a fixed worker budget. Workloads are
// fully isolated: one failure never cancels or taints another run.
type Coordinator struct {
	runner  *Runner
	workers int
}

// NewCoordinator creates a Coordinator. workers <= 0 uses DefaultWorkers.
func NewCoordinator(runner *Runner, workers int) *Coordinator {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &Coordinator{runner: runner, workers: workers}
}

// RunBatch analyzes every request concurrently and aggregates the
// outcomes. Each worker writes only its own result slot, so no cross-
// worker synchronization is needed beyond the final join.
func (c *Coordinator) RunBatch(ctx context.Context, requests []Request) Summary {
	results := make([]Result, len(requests))

	sem := make(chan struct{}, c.workers)
	var wg sync.WaitGroup
	for i := range requests {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			results[slot] = c.runner.Run(ctx, requests[slot])
		}(i)
	}
	wg.Wait()

	summary := Summary{
		Total:   len(requests),
		Results: results,
	}
	for _, res := range results {
		if res.Success {
			summary.Succeeded++
		} else {
			summary.Failed++
		}
	}
	summary.MergedText = mergeResults(results)
	return summary
}

// mergeResults concatenates per-workload sections in request order, each
// under a workload identity header.
func mergeResults(results []Result) string {
	sections := make([]string, 0, len(results))
	for _, res := range results {
		header := fmt.Sprintf("## %s/%s (%s)", res.ComponentType, res.ComponentName, res.Namespace)
		body := res.AnalysisText
		if !res.Success {
			body = "Analysis failed: " + res.ErrorMessage
		}
		sections = append(sections, header+"\n"+body)
	}
	return strings.Join(sections, "\n\n")
}
