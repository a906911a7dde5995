package notify

import (
	"errors"
	"strings"
	"testing"

	slackapi "github.com/slack-go/slack"

	"github.com/mhoran/kubesift/internal/pipeline"
)

type mockClient struct {
	calls    int
	channel  string
	err      error
	lastOpts []slackapi.MsgOption
}

func (m *mockClient) PostMessage(channelID string, options ...slackapi.MsgOption) (string, string, error) {
	m.calls++
	m.channel = channelID
	m.lastOpts = options
	return channelID, "123.456", m.err
}

func testSummary() pipeline.Summary {
	return pipeline.Summary{
		Total:     3,
		Succeeded: 2,
		Failed:    1,
		Results: []pipeline.Result{
			{Success: true, ComponentType: "deployment", ComponentName: "web", Namespace: "prod"},
			{Success: false, ComponentType: "statefulset", ComponentName: "db", Namespace: "prod",
				ErrorMessage: "log extraction failed: no pods"},
			{Success: true, ComponentType: "daemonset", ComponentName: "agent", Namespace: "kube-system"},
		},
	}
}

func TestNew_DisabledWithoutChannelOrToken(t *testing.T) {
	if n := New(Opts{BotToken: "xoxb-123"}); n != nil {
		t.Error("New without channel should return nil")
	}
	if n := New(Opts{Channel: "C123"}); n != nil {
		t.Error("New without token or injected client should return nil")
	}
}

func TestBatchFinished_NilReceiverIsSafe(t *testing.T) {
	var n *Notifier
	n.BatchFinished(testSummary()) // must not panic
}

func TestBatchFinished_PostsToChannel(t *testing.T) {
	client := &mockClient{}
	n := New(Opts{Channel: "C123", Client: client})

	n.BatchFinished(testSummary())
	if client.calls != 1 {
		t.Fatalf("PostMessage called %d times, want 1", client.calls)
	}
	if client.channel != "C123" {
		t.Errorf("channel = %q, want C123", client.channel)
	}
}

func TestBatchFinished_ErrorIsSwallowed(t *testing.T) {
	client := &mockClient{err: errors.New("channel_not_found")}
	n := New(Opts{Channel: "C123", Client: client})
	n.BatchFinished(testSummary()) // must not panic or propagate
}

func TestFormatSummary(t *testing.T) {
	msg := formatSummary(testSummary())
	if !strings.Contains(msg, "3 total, 2 succeeded, 1 failed") {
		t.Errorf("msg = %q, want counts", msg)
	}
	if !strings.Contains(msg, "statefulset/db (prod)") {
		t.Errorf("msg = %q, want failed workload label", msg)
	}
	if !strings.Contains(msg, "no pods") {
		t.Errorf("msg = %q, want failure detail", msg)
	}
	if strings.Contains(msg, "deployment/web") {
		t.Errorf("msg = %q, successful workloads should not be listed", msg)
	}
	if !strings.Contains(msg, ":warning:") {
		t.Errorf("msg = %q, want warning icon for failures", msg)
	}

	ok := formatSummary(pipeline.Summary{Total: 1, Succeeded: 1})
	if !strings.Contains(ok, ":white_check_mark:") {
		t.Errorf("msg = %q, want success icon", ok)
	}
}
