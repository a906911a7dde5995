package backend

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/mhoran/kubesift/internal/errdefs"
	"github.com/mhoran/kubesift/internal/execx"
)

// fakeRunner records the invocation instead of spawning a process.
type fakeRunner struct {
	available map[string]bool
	lastOpts  execx.Opts
	calls     int
	result    execx.Result
	err       error
}

func (f *fakeRunner) Run(ctx context.Context, opts execx.Opts) (execx.Result, error) {
	f.calls++
	f.lastOpts = opts
	return f.result, f.err
}

func (f *fakeRunner) Available(binary string) bool {
	return f.available[binary]
}

func newTestGateway(f *fakeRunner) *Gateway {
	g := NewGateway(GatewayOpts{})
	g.run = f
	return g
}

func baseRequest() Request {
	return Request{
		LogContent:    "line one\nline two",
		ComponentType: "deployment",
		ComponentName: "web",
		Namespace:     "default",
		Mode:          ModeSimple,
		Provider:      "gemini",
		MaxIterations: 50,
	}
}

func TestInvoke_UnknownProvider_NoCall(t *testing.T) {
	f := &fakeRunner{available: map[string]bool{"kubectl-ai": true}}
	g := newTestGateway(f)

	req := baseRequest()
	req.Provider = "acme-llm"
	_, err := g.Invoke(context.Background(), req)
	if !errors.Is(err, errdefs.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
	if f.calls != 0 {
		t.Errorf("runner called %d times, want 0", f.calls)
	}
}

func TestInvoke_UnknownMode_NoCall(t *testing.T) {
	f := &fakeRunner{available: map[string]bool{"kubectl-ai": true}}
	g := newTestGateway(f)

	req := baseRequest()
	req.Mode = "streaming"
	_, err := g.Invoke(context.Background(), req)
	if !errors.Is(err, errdefs.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
	if f.calls != 0 {
		t.Errorf("runner called %d times, want 0", f.calls)
	}
}

func TestInvoke_BinaryMissing(t *testing.T) {
	f := &fakeRunner{available: map[string]bool{}}
	g := newTestGateway(f)

	_, err := g.Invoke(context.Background(), baseRequest())
	if !errors.Is(err, errdefs.ErrBackendUnavailable) {
		t.Fatalf("err = %v, want ErrBackendUnavailable", err)
	}
}

func TestInvoke_KubectlPluginFallback(t *testing.T) {
	f := &fakeRunner{
		available: map[string]bool{"kubectl": true},
		result:    execx.Result{Stdout: "ok"},
	}
	g := newTestGateway(f)

	if _, err := g.Invoke(context.Background(), baseRequest()); err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if f.lastOpts.Binary != "kubectl" {
		t.Errorf("Binary = %q, want kubectl", f.lastOpts.Binary)
	}
	if len(f.lastOpts.Args) < 2 || f.lastOpts.Args[0] != "ai" {
		t.Errorf("Args = %v, want leading \"ai\" subcommand", f.lastOpts.Args)
	}
}

func TestInvoke_ArgsAndPrompt(t *testing.T) {
	f := &fakeRunner{
		available: map[string]bool{"kubectl-ai": true},
		result:    execx.Result{Stdout: "  analysis text\n"},
	}
	g := newTestGateway(f)

	req := baseRequest()
	req.Model = "gemini-2.5-pro"
	req.MaxIterations = 500 // clamped to 100
	out, err := g.Invoke(context.Background(), req)
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if out != "analysis text" {
		t.Errorf("out = %q, want trimmed stdout", out)
	}

	joined := strings.Join(f.lastOpts.Args, " ")
	for _, want := range []string{"--quiet", "--skip-permissions", "--max-iterations 100",
		"--llm-provider gemini", "--model gemini-2.5-pro"} {
		if !strings.Contains(joined, want) {
			t.Errorf("args %q missing %q", joined, want)
		}
	}
	if !strings.Contains(f.lastOpts.Stdin, "line one") {
		t.Error("prompt stdin missing log content")
	}
	if !strings.Contains(f.lastOpts.Stdin, "deployment / web") {
		t.Error("prompt stdin missing component identity")
	}
}

func TestInvoke_FullScanPromptAndTimeout(t *testing.T) {
	f := &fakeRunner{
		available: map[string]bool{"kubectl-ai": true},
		result:    execx.Result{Stdout: "done"},
	}
	g := newTestGateway(f)

	req := baseRequest()
	req.Mode = ModeFullScan
	if _, err := g.Invoke(context.Background(), req); err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if f.lastOpts.Timeout != DefaultFullScanTimeout {
		t.Errorf("Timeout = %s, want %s", f.lastOpts.Timeout, DefaultFullScanTimeout)
	}
	if !strings.Contains(f.lastOpts.Stdin, "full-scan") {
		t.Error("full_scan prompt not used")
	}
}

func TestInvoke_TimeoutMapsToBackendTimeout(t *testing.T) {
	f := &fakeRunner{
		available: map[string]bool{"kubectl-ai": true},
		err:       fmt.Errorf("%w: kubectl-ai after 2m0s", execx.ErrTimeout),
	}
	g := newTestGateway(f)

	_, err := g.Invoke(context.Background(), baseRequest())
	if !errors.Is(err, errdefs.ErrBackendTimeout) {
		t.Fatalf("err = %v, want ErrBackendTimeout", err)
	}
}

func TestInvoke_CallerCancelIsNotEngineFailure(t *testing.T) {
	f := &fakeRunner{
		available: map[string]bool{"kubectl-ai": true},
		err:       fmt.Errorf("execx: run kubectl-ai: %w", context.Canceled),
	}
	g := newTestGateway(f)

	_, err := g.Invoke(context.Background(), baseRequest())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if errors.Is(err, errdefs.ErrBackendResponse) {
		t.Error("caller cancel must not report as an engine failure")
	}
}

func TestInvoke_NonZeroExitMapsToResponseError(t *testing.T) {
	f := &fakeRunner{
		available: map[string]bool{"kubectl-ai": true},
		result:    execx.Result{Stderr: "quota exceeded", ExitCode: 1},
		err:       errors.New("execx: run kubectl-ai: exit status 1"),
	}
	g := newTestGateway(f)

	_, err := g.Invoke(context.Background(), baseRequest())
	if !errors.Is(err, errdefs.ErrBackendResponse) {
		t.Fatalf("err = %v, want ErrBackendResponse", err)
	}
	if !strings.Contains(err.Error(), "quota exceeded") {
		t.Errorf("err = %v, want stderr detail surfaced", err)
	}
}

func TestInvoke_CredentialEnvNeverLeaksIntoError(t *testing.T) {
	f := &fakeRunner{
		available: map[string]bool{"kubectl-ai": true},
		result:    execx.Result{Stderr: "boom", ExitCode: 1},
		err:       errors.New("exit status 1"),
	}
	g := newTestGateway(f)

	req := baseRequest()
	req.APIKey = "sk-super-secret"
	_, err := g.Invoke(context.Background(), req)
	if err == nil {
		t.Fatal("expected error")
	}
	if strings.Contains(err.Error(), "sk-super-secret") {
		t.Error("credential leaked into error message")
	}
	if f.lastOpts.Env["GEMINI_API_KEY"] != "sk-super-secret" {
		t.Errorf("GEMINI_API_KEY env = %q, want request key", f.lastOpts.Env["GEMINI_API_KEY"])
	}
}

func TestCredentialEnv_BaseURLOnlyForCompatibleProviders(t *testing.T) {
	openai, _ := LookupProvider("openai")
	azure, _ := LookupProvider("azopenai")
	gemini, _ := LookupProvider("gemini")

	req := Request{APIBaseURL: "https://proxy.example.com/v1"}

	env := credentialEnv(openai, req)
	if env["OPENAI_API_BASE"] != req.APIBaseURL || env["OPENAI_BASE_URL"] != req.APIBaseURL {
		t.Errorf("openai env = %v, want base URL set", env)
	}

	env = credentialEnv(azure, req)
	if env["AZURE_OPENAI_ENDPOINT"] != req.APIBaseURL {
		t.Errorf("azopenai env = %v, want endpoint set", env)
	}

	env = credentialEnv(gemini, req)
	if len(env) != 0 {
		t.Errorf("gemini env = %v, want base URL ignored", env)
	}
}

func TestLookupProvider_Table(t *testing.T) {
	cases := []struct {
		name    string
		envKey  string
		model   string
		baseURL bool
	}{
		{"gemini", "GEMINI_API_KEY", "gemini-2.0-flash", false},
		{"openai", "OPENAI_API_KEY", "gpt-4o", true},
		{"azopenai", "AZURE_OPENAI_API_KEY", "gpt-4o", true},
		{"grok", "GROK_API_KEY", "grok-2", false},
		{"ollama", "", "llama3", false},
		{"vertexai", "", "gemini-2.0-flash", false},
	}
	for _, tc := range cases {
		p, err := LookupProvider(tc.name)
		if err != nil {
			t.Fatalf("LookupProvider(%s): %v", tc.name, err)
		}
		if p.EnvKey != tc.envKey {
			t.Errorf("%s EnvKey = %q, want %q", tc.name, p.EnvKey, tc.envKey)
		}
		if p.DefaultModel != tc.model {
			t.Errorf("%s DefaultModel = %q, want %q", tc.name, p.DefaultModel, tc.model)
		}
		if p.AllowsBaseURL != tc.baseURL {
			t.Errorf("%s AllowsBaseURL = %v, want %v", tc.name, p.AllowsBaseURL, tc.baseURL)
		}
	}
}

func TestProviderNames_Sorted(t *testing.T) {
	names := ProviderNames()
	if len(names) != 6 {
		t.Fatalf("len = %d, want 6", len(names))
	}
	for i := 1; i < len(names); i++ {
		if names[i-1] >= names[i] {
			t.Errorf("names not sorted: %v", names)
		}
	}
}

func TestGatewayOpts_TimeoutDefaults(t *testing.T) {
	g := NewGateway(GatewayOpts{})
	if g.simpleTimeout != DefaultSimpleTimeout || g.fullScanTimeout != DefaultFullScanTimeout {
		t.Errorf("timeouts = %s/%s, want defaults", g.simpleTimeout, g.fullScanTimeout)
	}
	g = NewGateway(GatewayOpts{SimpleTimeout: time.Second, FullScanTimeout: 2 * time.Second})
	if g.simpleTimeout != time.Second || g.fullScanTimeout != 2*time.Second {
		t.Errorf("timeouts = %s/%s, want overrides", g.simpleTimeout, g.fullScanTimeout)
	}
}
