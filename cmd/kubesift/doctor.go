package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mhoran/kubesift/internal/backend"
	"github.com/mhoran/kubesift/internal/config"
	"github.com/mhoran/kubesift/internal/db"
	"github.com/mhoran/kubesift/internal/execx"
	"github.com/mhoran/kubesift/internal/report"
)

func newDoctorCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check prerequisites and configuration",
		Long:  "Runs diagnostic checks on kubesift prerequisites: config, kubectl, the AI plugin, the history store, backend credentials, and the report converter.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDoctor(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "kubesift.yaml", "path to kubesift config file")
	return cmd
}

type checkResult struct {
	name   string
	status string // "PASS", "FAIL", "WARN"
	detail string
}

func runDoctor(cmd *cobra.Command, configPath string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Kubesift Doctor")
	fmt.Fprintln(out, "===============")

	var results []checkResult

	cfg, cfgResult := checkConfig(configPath)
	results = append(results, cfgResult)

	results = append(results, checkKubectl())
	results = append(results, checkAIPlugin())

	if cfg != nil {
		results = append(results, checkStore(cfg))
		results = append(results, checkCredential(cfg.Backend.Provider))
	} else {
		results = append(results, checkResult{"History store", "FAIL", "skipped (no config)"})
		results = append(results, checkResult{"Backend credential", "FAIL", "skipped (no config)"})
	}

	results = append(results, checkPandoc())

	passed, failed, warned := 0, 0, 0
	for _, r := range results {
		printCheckResult(out, r)
		switch r.status {
		case "PASS":
			passed++
		case "FAIL":
			failed++
		case "WARN":
			warned++
		}
	}

	fmt.Fprintf(out, "\n%d passed, %d failed, %d warning\n", passed, failed, warned)

	if failed > 0 {
		return fmt.Errorf("%d check(s) failed", failed)
	}
	return nil
}

func printCheckResult(out io.Writer, r checkResult) {
	fmt.Fprintf(out, "[%s] %s: %s\n", r.status, r.name, r.detail)
}

func checkConfig(path string) (*config.Config, checkResult) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, checkResult{"Config file", "FAIL", fmt.Sprintf("%s: %v", path, err)}
	}
	return cfg, checkResult{"Config file", "PASS", path}
}

func checkKubectl() checkResult {
	if !execx.Available("kubectl") {
		return checkResult{"kubectl", "FAIL", "not found in PATH"}
	}
	return checkResult{"kubectl", "PASS", "found in PATH"}
}

// checkAIPlugin looks for the standalone kubectl-ai binary. Its absence is
// only a warning since the gateway falls back to the kubectl plugin form.
func checkAIPlugin() checkResult {
	if execx.Available("kubectl-ai") {
		return checkResult{"kubectl-ai", "PASS", "found in PATH"}
	}
	return checkResult{"kubectl-ai", "WARN", "not found; will try 'kubectl ai' plugin"}
}

func checkStore(cfg *config.Config) checkResult {
	database, err := db.Open(db.Options{
		Driver: cfg.Store.Driver,
		Path:   cfg.Store.Path,
		DSN:    cfg.Store.DSN,
	})
	if err != nil {
		return checkResult{"History store", "FAIL", err.Error()}
	}
	if err := db.AutoMigrate(database); err != nil {
		return checkResult{"History store", "FAIL", err.Error()}
	}
	return checkResult{"History store", "PASS", cfg.Store.Driver}
}

// checkCredential reports only whether the provider's key variable is set,
// never its value.
func checkCredential(provider string) checkResult {
	p, err := backend.LookupProvider(provider)
	if err != nil {
		return checkResult{"Backend credential", "FAIL", fmt.Sprintf("unknown provider %q", provider)}
	}
	if p.EnvKey == "" {
		return checkResult{"Backend credential", "PASS", fmt.Sprintf("%s needs no API key", p.Name)}
	}
	if os.Getenv(p.EnvKey) == "" {
		return checkResult{"Backend credential", "WARN", fmt.Sprintf("%s is not set", p.EnvKey)}
	}
	return checkResult{"Backend credential", "PASS", fmt.Sprintf("%s is set", p.EnvKey)}
}

func checkPandoc() checkResult {
	if report.PDFAvailable() {
		return checkResult{"pandoc", "PASS", "PDF reports available"}
	}
	return checkResult{"pandoc", "WARN", "not found; Markdown reports only"}
}
