package execx

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestRun_CapturesStdout(t *testing.T) {
	res, err := Run(context.Background(), Opts{
		Binary: "sh",
		Args:   []string{"-c", "echo hello; echo oops >&2"},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if strings.TrimSpace(res.Stdout) != "hello" {
		t.Errorf("Stdout = %q, want %q", res.Stdout, "hello\n")
	}
	if strings.TrimSpace(res.Stderr) != "oops" {
		t.Errorf("Stderr = %q, want %q", res.Stderr, "oops\n")
	}
	if res.ExitCode != 0 {
		t.Errorf("ExitCode = %d, want 0", res.ExitCode)
	}
}

func TestRun_StdinPiped(t *testing.T) {
	res, err := Run(context.Background(), Opts{
		Binary: "cat",
		Stdin:  "piped input",
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Stdout != "piped input" {
		t.Errorf("Stdout = %q, want %q", res.Stdout, "piped input")
	}
}

func TestRun_NonZeroExit(t *testing.T) {
	res, err := Run(context.Background(), Opts{
		Binary: "sh",
		Args:   []string{"-c", "exit 3"},
	})
	if err == nil {
		t.Fatal("expected error for exit 3")
	}
	if res.ExitCode != 3 {
		t.Errorf("ExitCode = %d, want 3", res.ExitCode)
	}
}

func TestRun_Timeout(t *testing.T) {
	start := time.Now()
	_, err := Run(context.Background(), Opts{
		Binary:  "sleep",
		Args:    []string{"10"},
		Timeout: 100 * time.Millisecond,
	})
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("err = %v, want ErrTimeout", err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("Run took %s, process not cleaned up promptly", elapsed)
	}
}

func TestRun_CallerCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()

	_, err := Run(ctx, Opts{
		Binary:  "sleep",
		Args:    []string{"10"},
		Timeout: 30 * time.Second,
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if errors.Is(err, ErrTimeout) {
		t.Error("caller cancel must not report as a timeout")
	}
}

func TestRun_MissingBinary(t *testing.T) {
	_, err := Run(context.Background(), Opts{Binary: "definitely-not-a-real-binary-xyz"})
	if err == nil {
		t.Fatal("expected error for missing binary")
	}
}

func TestRun_EnvOverlay(t *testing.T) {
	res, err := Run(context.Background(), Opts{
		Binary: "sh",
		Args:   []string{"-c", "echo $KUBESIFT_TEST_VAR"},
		Env:    map[string]string{"KUBESIFT_TEST_VAR": "overlay"},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if strings.TrimSpace(res.Stdout) != "overlay" {
		t.Errorf("Stdout = %q, want overlay", res.Stdout)
	}
}

func TestMergeEnv_OverridesBase(t *testing.T) {
	merged := mergeEnv([]string{"A=1", "B=2"}, map[string]string{"A": "9"})
	gotA := ""
	for _, kv := range merged {
		if strings.HasPrefix(kv, "A=") {
			gotA = kv
		}
	}
	if gotA != "A=9" {
		t.Errorf("A entry = %q, want A=9", gotA)
	}
}

func TestAvailable(t *testing.T) {
	if !Available("sh") {
		t.Error("Available(sh) = false, want true")
	}
	if Available("definitely-not-a-real-binary-xyz") {
		t.Error("Available(bogus) = true, want false")
	}
}
