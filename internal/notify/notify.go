// Package notify posts batch outcomes to Slack. Notification is best
// effort: failures are logged and never affect an analysis result.
package notify

import (
	"fmt"
	"log"
	"strings"

	slackapi "github.com/slack-go/slack"

	"github.com/mhoran/kubesift/internal/pipeline"
)

// slackClient abstracts the Slack API methods we use, enabling test mocks.
type slackClient interface {
	PostMessage(channelID string, options ...slackapi.MsgOption) (string, string, error)
}

// Notifier posts batch summaries to a Slack channel.
type Notifier struct {
	client  slackClient
	channel string
}

// Opts holds parameters for creating a Notifier.
type Opts struct {
	BotToken string // xoxb-... bot token
	Channel  string
	// For testing: inject a mock client instead of the real Slack API.
	Client slackClient
}

// New creates a Notifier. Returns nil when Slack is not configured, which
// callers treat as notifications disabled.
func New(opts Opts) *Notifier {
	if opts.Channel == "" {
		return nil
	}
	client := opts.Client
	if client == nil {
		if opts.BotToken == "" {
			return nil
		}
		client = slackapi.New(opts.BotToken)
	}
	return &Notifier{client: client, channel: opts.Channel}
}

// BatchFinished posts a summary of a completed batch. Errors are logged
// only.
func (n *Notifier) BatchFinished(summary pipeline.Summary) {
	if n == nil {
		return
	}
	_, _, err := n.client.PostMessage(n.channel,
		slackapi.MsgOptionText(formatSummary(summary), false))
	if err != nil {
		log.Printf("notify: slack post: %v", err)
	}
}

// formatSummary renders the batch outcome as a short Slack message with
// failed workloads called out by label.
func formatSummary(summary pipeline.Summary) string {
	var b strings.Builder
	icon := ":white_check_mark:"
	if summary.Failed > 0 {
		icon = ":warning:"
	}
	fmt.Fprintf(&b, "%s Log analysis batch finished: %d total, %d succeeded, %d failed",
		icon, summary.Total, summary.Succeeded, summary.Failed)
	for _, res := range summary.Results {
		if res.Success {
			continue
		}
		fmt.Fprintf(&b, "\n• %s/%s (%s): %s",
			res.ComponentType, res.ComponentName, res.Namespace, res.ErrorMessage)
	}
	return b.String()
}
