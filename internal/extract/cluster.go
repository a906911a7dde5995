package extract

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mhoran/kubesift/internal/errdefs"
	"github.com/mhoran/kubesift/internal/execx"
)

// TestConnection verifies that kubectl can reach the cluster and returns
// the number of visible namespaces.
func (s *KubectlSource) TestConnection(ctx context.Context, kubeconfig string) (int, error) {
	if !s.run.Available("kubectl") {
		return 0, fmt.Errorf("%w: kubectl not found in PATH", errdefs.ErrExtraction)
	}

	args := []string{"cluster-info"}
	if kubeconfig != "" {
		args = append(args, "--kubeconfig", kubeconfig)
	}
	res, err := s.run.Run(ctx, execx.Opts{Binary: "kubectl", Args: args, Timeout: s.listTimeout})
	if errors.Is(err, execx.ErrTimeout) {
		return 0, fmt.Errorf("%w: kubectl cluster-info timed out after %s", errdefs.ErrExtraction, s.listTimeout)
	}
	if err != nil {
		return 0, fmt.Errorf("%w: kubectl cluster-info: %s", errdefs.ErrExtraction, firstNonEmpty(res.Stderr, err.Error()))
	}

	namespaces, err := s.ListNamespaces(ctx, kubeconfig)
	if err != nil {
		return 0, err
	}
	return len(namespaces), nil
}

// ListNamespaces returns the cluster's namespace names.
func (s *KubectlSource) ListNamespaces(ctx context.Context, kubeconfig string) ([]string, error) {
	return s.listNames(ctx, kubeconfig,
		"get", "namespaces", "-o", `jsonpath={range .items[*]}{.metadata.name}{"\n"}{end}`)
}

// ListComponents returns the names of workloads of the given kind in a
// namespace.
func (s *KubectlSource) ListComponents(ctx context.Context, kind, namespace, kubeconfig string) ([]string, error) {
	if err := ValidateKind(kind); err != nil {
		return nil, err
	}
	if namespace == "" {
		namespace = "default"
	}
	return s.listNames(ctx, kubeconfig,
		"get", NormalizeKind(kind), "-n", namespace,
		"-o", `jsonpath={range .items[*]}{.metadata.name}{"\n"}{end}`)
}

func (s *KubectlSource) listNames(ctx context.Context, kubeconfig string, args ...string) ([]string, error) {
	if !s.run.Available("kubectl") {
		return nil, fmt.Errorf("%w: kubectl not found in PATH", errdefs.ErrExtraction)
	}
	if kubeconfig != "" {
		args = append(args, "--kubeconfig", kubeconfig)
	}

	res, err := s.run.Run(ctx, execx.Opts{Binary: "kubectl", Args: args, Timeout: s.listTimeout})
	if errors.Is(err, execx.ErrTimeout) {
		return nil, fmt.Errorf("%w: kubectl list timed out after %s", errdefs.ErrExtraction, s.listTimeout)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: kubectl list: %s", errdefs.ErrExtraction, firstNonEmpty(res.Stderr, err.Error()))
	}

	var names []string
	for _, line := range strings.Split(res.Stdout, "\n") {
		if name := strings.TrimSpace(line); name != "" {
			names = append(names, name)
		}
	}
	return names, nil
}
