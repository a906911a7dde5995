// Package backend dispatches reduced log text to an external analysis
// engine (kubectl-ai) under a per-mode timeout and normalizes its failure
// modes. Credentials are passed through the process environment and never
// logged or stored.
package backend

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mhoran/kubesift/internal/errdefs"
	"github.com/mhoran/kubesift/internal/execx"
)

// Analysis modes.
const (
	ModeSimple   = "simple"
	ModeFullScan = "full_scan"
)

// Default per-mode timeouts, overridable via GatewayOpts.
const (
	DefaultSimpleTimeout   = 120 * time.Second
	DefaultFullScanTimeout = 180 * time.Second
)

// Request describes one analysis invocation.
type Request struct {
	LogContent    string
	ComponentType string
	ComponentName string
	Namespace     string
	TimeRange     string
	Mode          string // ModeSimple | ModeFullScan

	Provider      string
	Model         string // empty means the provider default
	APIKey        string // overrides the ambient credential if set
	APIBaseURL    string // honored only for OpenAI-compatible providers
	Kubeconfig    string
	MaxIterations int // clamped to 1..100
}

// runner abstracts execx for tests.
type runner interface {
	Run(ctx context.Context, opts execx.Opts) (execx.Result, error)
	Available(binary string) bool
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, opts execx.Opts) (execx.Result, error) {
	return execx.Run(ctx, opts)
}
func (execRunner) Available(binary string) bool { return execx.Available(binary) }

// Gateway invokes kubectl-ai with a constructed prompt on stdin.
type Gateway struct {
	simpleTimeout   time.Duration
	fullScanTimeout time.Duration
	run             runner
}

// GatewayOpts configures a Gateway. Zero values use the defaults.
type GatewayOpts struct {
	SimpleTimeout   time.Duration
	FullScanTimeout time.Duration
}

// NewGateway creates a Gateway.
func NewGateway(opts GatewayOpts) *Gateway {
	g := &Gateway{
		simpleTimeout:   opts.SimpleTimeout,
		fullScanTimeout: opts.FullScanTimeout,
		run:             execRunner{},
	}
	if g.simpleTimeout <= 0 {
		g.simpleTimeout = DefaultSimpleTimeout
	}
	if g.fullScanTimeout <= 0 {
		g.fullScanTimeout = DefaultFullScanTimeout
	}
	return g
}

// Invoke runs one blocking analysis call and returns the engine's output
// text. Unknown providers fail with ErrValidation before any subprocess is
// spawned; subprocess failures map onto the backend error categories.
func (g *Gateway) Invoke(ctx context.Context, req Request) (string, error) {
	provider, err := LookupProvider(req.Provider)
	if err != nil {
		return "", err
	}
	if req.Mode != "" && req.Mode != ModeSimple && req.Mode != ModeFullScan {
		return "", fmt.Errorf("%w: unknown analysis mode %q", errdefs.ErrValidation, req.Mode)
	}

	binary, args, ok := g.command(req)
	if !ok {
		return "", fmt.Errorf("%w: kubectl-ai or kubectl not found in PATH", errdefs.ErrBackendUnavailable)
	}

	res, err := g.run.Run(ctx, execx.Opts{
		Binary:  binary,
		Args:    args,
		Stdin:   buildPrompt(req),
		Env:     credentialEnv(provider, req),
		Timeout: g.timeoutFor(req.Mode),
	})
	if errors.Is(err, execx.ErrTimeout) {
		return "", fmt.Errorf("%w: %s analysis exceeded %s", errdefs.ErrBackendTimeout, modeName(req.Mode), g.timeoutFor(req.Mode))
	}
	// A caller abort is not an engine failure.
	if errors.Is(err, context.Canceled) {
		return "", err
	}
	if err != nil {
		detail := strings.TrimSpace(res.Stderr)
		if detail == "" {
			detail = strings.TrimSpace(res.Stdout)
		}
		if detail == "" {
			detail = err.Error()
		}
		return "", fmt.Errorf("%w: %s", errdefs.ErrBackendResponse, detail)
	}
	return strings.TrimSpace(res.Stdout), nil
}

// command picks the binary and argument list. kubectl-ai is preferred;
// the kubectl plugin form is the fallback.
func (g *Gateway) command(req Request) (string, []string, bool) {
	var binary string
	var args []string
	switch {
	case g.run.Available("kubectl-ai"):
		binary = "kubectl-ai"
		args = []string{"--quiet"}
	case g.run.Available("kubectl"):
		binary = "kubectl"
		args = []string{"ai", "--quiet"}
	default:
		return "", nil, false
	}

	args = append(args, "--max-iterations", fmt.Sprintf("%d", clampIterations(req.MaxIterations)))
	// RunOnce mode would otherwise stall on a permission prompt.
	args = append(args, "--skip-permissions")
	args = append(args, "--llm-provider", req.Provider)
	if req.Model != "" {
		args = append(args, "--model", req.Model)
	}
	return binary, args, true
}

// credentialEnv builds the environment overlay for the provider. Only the
// entries the provider declares are ever set.
func credentialEnv(p Provider, req Request) map[string]string {
	env := map[string]string{}
	if req.Kubeconfig != "" {
		env["KUBECONFIG"] = req.Kubeconfig
	}
	if p.EnvKey != "" && req.APIKey != "" {
		env[p.EnvKey] = req.APIKey
	}
	if req.APIBaseURL != "" && p.AllowsBaseURL {
		if p.EnvEndpoint != "" {
			env[p.EnvEndpoint] = req.APIBaseURL
		} else {
			env["OPENAI_API_BASE"] = req.APIBaseURL
			env["OPENAI_BASE_URL"] = req.APIBaseURL
		}
	}
	return env
}

func (g *Gateway) timeoutFor(mode string) time.Duration {
	if mode == ModeFullScan {
		return g.fullScanTimeout
	}
	return g.simpleTimeout
}

func modeName(mode string) string {
	if mode == ModeFullScan {
		return ModeFullScan
	}
	return ModeSimple
}

func clampIterations(n int) int {
	if n < 1 {
		return 1
	}
	if n > 100 {
		return 100
	}
	return n
}
