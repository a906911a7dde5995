package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mhoran/kubesift/internal/pipeline"
	"github.com/mhoran/kubesift/internal/report"
)

// batchFile is the YAML shape of a batch definition: the workloads plus
// settings shared by every run.
type batchFile struct {
	Components []struct {
		ComponentType string `yaml:"component_type"`
		ComponentName string `yaml:"component_name"`
		Namespace     string `yaml:"namespace"`
	} `yaml:"components"`

	TimeRange     string `yaml:"time_range"`
	TailLines     int    `yaml:"tail_lines"`
	AnalysisMode  string `yaml:"analysis_mode"`
	Provider      string `yaml:"llm_provider"`
	Model         string `yaml:"model"`
	APIBaseURL    string `yaml:"api_base_url"`
	MaxIterations int    `yaml:"max_iterations"`
}

func newBatchCmd() *cobra.Command {
	var (
		configPath string
		workers    int
		reportDir  string
	)

	cmd := &cobra.Command{
		Use:   "batch <batch-file.yaml>",
		Short: "Analyze a batch of workloads concurrently",
		Long:  "Reads a YAML batch file listing workloads and shared settings, analyzes them under a bounded worker pool, and prints the aggregated outcome. Workloads are isolated: one failure never stops the others.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(cmd, configPath, args[0], workers, reportDir)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "kubesift.yaml", "path to kubesift config file")
	cmd.Flags().IntVar(&workers, "workers", 0, "worker budget override (default from config)")
	cmd.Flags().StringVar(&reportDir, "report", "", "write a Markdown batch report to this directory")
	return cmd
}

func runBatch(cmd *cobra.Command, configPath, batchPath string, workers int, reportDir string) error {
	a, err := loadApp(configPath)
	if err != nil {
		return err
	}

	requests, err := loadBatchFile(a, batchPath)
	if err != nil {
		return err
	}

	coord := a.coord
	if workers > 0 {
		coord = pipeline.NewCoordinator(a.runner, workers)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Analyzing %d workloads...\n\n", len(requests))

	summary := coord.RunBatch(cmd.Context(), requests)
	printSummary(out, summary)
	a.notifier.BatchFinished(summary)

	if reportDir != "" {
		path, err := report.WriteBatch(reportDir, summary)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Report written to %s\n", path)
	}

	if summary.Failed > 0 {
		return fmt.Errorf("%d workload(s) failed", summary.Failed)
	}
	return nil
}

// loadBatchFile parses a batch definition and expands it into pipeline
// requests seeded from the app config.
func loadBatchFile(a *app, path string) ([]pipeline.Request, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read batch file: %w", err)
	}
	var bf batchFile
	if err := yaml.Unmarshal(data, &bf); err != nil {
		return nil, fmt.Errorf("parse batch file %s: %w", path, err)
	}
	if len(bf.Components) == 0 {
		return nil, fmt.Errorf("batch file %s lists no components", path)
	}

	requests := make([]pipeline.Request, 0, len(bf.Components))
	for _, comp := range bf.Components {
		req := a.requestDefaults()
		req.ComponentType = comp.ComponentType
		req.ComponentName = comp.ComponentName
		if comp.Namespace != "" {
			req.Namespace = comp.Namespace
		}
		req.TimeRange = bf.TimeRange
		req.TailLines = bf.TailLines
		if bf.AnalysisMode != "" {
			req.AnalysisMode = bf.AnalysisMode
		}
		if bf.Provider != "" {
			req.Provider = bf.Provider
		}
		if bf.Model != "" {
			req.Model = bf.Model
		}
		if bf.APIBaseURL != "" {
			req.APIBaseURL = bf.APIBaseURL
		}
		if bf.MaxIterations != 0 {
			req.MaxIterations = bf.MaxIterations
		}
		requests = append(requests, req)
	}
	return requests, nil
}
