// Package extract fetches raw workload logs from a Kubernetes cluster via
// kubectl. It resolves the workload's label selector first, then streams
// logs from every matching pod.
package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/mhoran/kubesift/internal/errdefs"
	"github.com/mhoran/kubesift/internal/execx"
)

// Supported workload kinds.
const (
	KindDeployment  = "deployment"
	KindStatefulSet = "statefulset"
	KindDaemonSet   = "daemonset"
)

// Default timeouts for kubectl calls.
const (
	DefaultListTimeout = 30 * time.Second
	DefaultLogsTimeout = 300 * time.Second
)

// Params identifies the workload and window to extract logs for.
type Params struct {
	ComponentType string // deployment | statefulset | daemonset
	Name          string
	Namespace     string
	Since         string // e.g. "1h", "30m"; empty means no window
	TailLines     int    // 0 means no tail limit
	Container     string // restrict to one container when set
	Kubeconfig    string
}

// Source is the log acquisition collaborator the pipeline depends on.
type Source interface {
	FetchLogs(ctx context.Context, p Params) (string, error)
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

// KubectlSource implements Source on top of the kubectl binary.
type KubectlSource struct {
	listTimeout time.Duration
	logsTimeout time.Duration
	run         runner
}

// Opts configures a KubectlSource. Zero values use the defaults.
type Opts struct {
	ListTimeout time.Duration
	LogsTimeout time.Duration
}

// NewKubectlSource creates a KubectlSource.
func NewKubectlSource(opts Opts) *KubectlSource {
	s := &KubectlSource{
		listTimeout: opts.ListTimeout,
		logsTimeout: opts.LogsTimeout,
		run:         execRunner{},
	}
	if s.listTimeout <= 0 {
		s.listTimeout = DefaultListTimeout
	}
	if s.logsTimeout <= 0 {
		s.logsTimeout = DefaultLogsTimeout
	}
	return s
}

// NormalizeKind lowercases a workload kind and repairs the common
// "stateefulset" typo carried over from older clients.
func NormalizeKind(raw string) string {
	kind := strings.ToLower(strings.TrimSpace(raw))
	if kind == "stateefulset" {
		return KindStatefulSet
	}
	return kind
}

// ValidateKind rejects anything but the three supported workload kinds.
func ValidateKind(kind string) error {
	switch NormalizeKind(kind) {
	case KindDeployment, KindStatefulSet, KindDaemonSet:
		return nil
	default:
		return fmt.Errorf("%w: unsupported component type %q (want deployment, statefulset, or daemonset)",
			errdefs.ErrValidation, kind)
	}
}

// FetchLogs resolves the workload's pod selector and fetches logs from all
// matching pods. Kind validation happens before any subprocess is spawned.
func (s *KubectlSource) FetchLogs(ctx context.Context, p Params) (string, error) {
	if err := ValidateKind(p.ComponentType); err != nil {
		return "", err
	}
	if p.Name == "" {
		return "", fmt.Errorf("%w: component name is required", errdefs.ErrValidation)
	}
	if !s.run.Available("kubectl") {
		return "", fmt.Errorf("%w: kubectl not found in PATH", errdefs.ErrExtraction)
	}

	kind := NormalizeKind(p.ComponentType)
	namespace := p.Namespace
	if namespace == "" {
		namespace = "default"
	}

	selector, err := s.podSelector(ctx, kind, p.Name, namespace, p.Kubeconfig)
	if err != nil {
		return "", err
	}

	args := []string{"logs", "-l", selector, "-n", namespace}
	if p.Container != "" {
		args = append(args, "-c", p.Container)
	} else {
		args = append(args, "--all-containers=true")
	}
	args = append(args, "--prefix=true", "--timestamps=true")
	if p.Kubeconfig != "" {
		args = append(args, "--kubeconfig", p.Kubeconfig)
	}
	if p.Since != "" {
		args = append(args, "--since", p.Since)
	}
	if p.TailLines > 0 {
		args = append(args, "--tail", fmt.Sprintf("%d", p.TailLines))
	}

	res, err := s.run.Run(ctx, execx.Opts{
		Binary:  "kubectl",
		Args:    args,
		Timeout: s.logsTimeout,
	})
	if errors.Is(err, execx.ErrTimeout) {
		return "", fmt.Errorf("%w: kubectl logs timed out after %s", errdefs.ErrExtraction, s.logsTimeout)
	}
	if err != nil {
		return "", fmt.Errorf("%w: kubectl logs: %s", errdefs.ErrExtraction, firstNonEmpty(res.Stderr, res.Stdout, err.Error()))
	}
	return res.Stdout, nil
}

// podSelector reads the workload's .spec.selector.matchLabels and renders
// a key=value,key=value selector string.
func (s *KubectlSource) podSelector(ctx context.Context, kind, name, namespace, kubeconfig string) (string, error) {
	args := []string{"get", kind, name, "-n", namespace, "-o", "jsonpath={.spec.selector.matchLabels}"}
	if kubeconfig != "" {
		args = append(args, "--kubeconfig", kubeconfig)
	}

	res, err := s.run.Run(ctx, execx.Opts{
		Binary:  "kubectl",
		Args:    args,
		Timeout: s.listTimeout,
	})
	if errors.Is(err, execx.ErrTimeout) {
		return "", fmt.Errorf("%w: resolve selector for %s/%s timed out after %s",
			errdefs.ErrExtraction, kind, name, s.listTimeout)
	}
	if err != nil {
		return "", fmt.Errorf("%w: resolve selector for %s/%s: %s",
			errdefs.ErrExtraction, kind, name, firstNonEmpty(res.Stderr, err.Error()))
	}

	out := strings.TrimSpace(res.Stdout)
	if out == "" {
		return "", fmt.Errorf("%w: %s/%s has no selector labels", errdefs.ErrExtraction, kind, name)
	}

	var labels map[string]string
	if err := json.Unmarshal([]byte(out), &labels); err != nil {
		return "", fmt.Errorf("%w: parse selector for %s/%s: %v", errdefs.ErrExtraction, kind, name, err)
	}

	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+labels[k])
	}
	return strings.Join(parts, ","), nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
