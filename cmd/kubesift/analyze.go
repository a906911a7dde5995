package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mhoran/kubesift/internal/report"
)

func newAnalyzeCmd() *cobra.Command {
	var (
		configPath    string
		kind          string
		namespace     string
		since         string
		tailLines     int
		container     string
		mode          string
		provider      string
		model         string
		baseURL       string
		maxIterations int
		noHistory     bool
		reportDir     string
		pdf           bool
	)

	cmd := &cobra.Command{
		Use:   "analyze <component-name>",
		Short: "Analyze one workload's logs",
		Long:  "Extracts logs for a workload, reduces them to the relevant lines, and runs the configured AI backend over the result.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, configPath, args[0], analyzeFlags{
				kind:          kind,
				namespace:     namespace,
				since:         since,
				tailLines:     tailLines,
				container:     container,
				mode:          mode,
				provider:      provider,
				model:         model,
				baseURL:       baseURL,
				maxIterations: maxIterations,
				noHistory:     noHistory,
				reportDir:     reportDir,
				pdf:           pdf,
			})
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "kubesift.yaml", "path to kubesift config file")
	cmd.Flags().StringVarP(&kind, "type", "t", "deployment", "workload kind (deployment, statefulset, daemonset)")
	cmd.Flags().StringVarP(&namespace, "namespace", "n", "", "workload namespace")
	cmd.Flags().StringVar(&since, "since", "", "only logs newer than this duration (e.g. 1h)")
	cmd.Flags().IntVar(&tailLines, "tail", 0, "only the last N log lines")
	cmd.Flags().StringVar(&container, "container", "", "restrict to one container")
	cmd.Flags().StringVar(&mode, "mode", "", "analysis mode: simple or full_scan")
	cmd.Flags().StringVar(&provider, "provider", "", "AI backend provider")
	cmd.Flags().StringVar(&model, "model", "", "model override")
	cmd.Flags().StringVar(&baseURL, "base-url", "", "API base URL for providers that allow one")
	cmd.Flags().IntVar(&maxIterations, "max-iterations", 0, "agent iteration cap")
	cmd.Flags().BoolVar(&noHistory, "no-history", false, "skip recording this run in history")
	cmd.Flags().StringVar(&reportDir, "report", "", "write a Markdown report to this directory")
	cmd.Flags().BoolVar(&pdf, "pdf", false, "also convert the report to PDF (requires pandoc)")
	return cmd
}

type analyzeFlags struct {
	kind          string
	namespace     string
	since         string
	tailLines     int
	container     string
	mode          string
	provider      string
	model         string
	baseURL       string
	maxIterations int
	noHistory     bool
	reportDir     string
	pdf           bool
}

func runAnalyze(cmd *cobra.Command, configPath, name string, flags analyzeFlags) error {
	a, err := loadApp(configPath)
	if err != nil {
		return err
	}

	req := a.requestDefaults()
	req.ComponentType = flags.kind
	req.ComponentName = name
	req.TimeRange = flags.since
	req.TailLines = flags.tailLines
	req.Container = flags.container
	req.SkipHistory = flags.noHistory
	if flags.namespace != "" {
		req.Namespace = flags.namespace
	}
	if flags.mode != "" {
		req.AnalysisMode = flags.mode
	}
	if flags.provider != "" {
		req.Provider = flags.provider
	}
	if flags.model != "" {
		req.Model = flags.model
	}
	if flags.baseURL != "" {
		req.APIBaseURL = flags.baseURL
	}
	if flags.maxIterations != 0 {
		req.MaxIterations = flags.maxIterations
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Analyzing %s/%s in %s...\n", req.ComponentType, name, req.Namespace)

	result := a.runner.Run(cmd.Context(), req)
	printResult(out, result)

	if flags.reportDir != "" {
		path, err := report.WriteAnalysis(flags.reportDir, result)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Report written to %s\n", path)
		if flags.pdf {
			pdfPath, err := report.ConvertPDF(cmd.Context(), path)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "PDF written to %s\n", pdfPath)
		}
	}

	if !result.Success {
		return fmt.Errorf("analysis failed: %s", result.ErrorMessage)
	}
	return nil
}
