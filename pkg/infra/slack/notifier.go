package slack

import (
	"context"
	"fmt"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/slack-go/slack"

	"github.com/brendondgr/luna25/pkg/domain/interfaces"
	"github.com/brendondgr/luna25/pkg/domain/model"
)

type notifier struct {
	webhookURL string
}

// NewNotifier creates a Notifier posting run results to a Slack incoming webhook
func NewNotifier(webhookURL string) interfaces.Notifier {
	return &notifier{webhookURL: webhookURL}
}

// Notify posts a summary of the run. runErr is the error that ended the run, if any.
func (n *notifier) Notify(ctx context.Context, result *model.PrepareResult, runErr error) error {
	msg := BuildMessage(result, runErr)
	if err := slack.PostWebhookContext(ctx, n.webhookURL, msg); err != nil {
		return goerr.Wrap(err, "failed to post Slack notification")
	}
	return nil
}

// BuildMessage renders the run summary as a webhook message
func BuildMessage(result *model.PrepareResult, runErr error) *slack.WebhookMessage {
	att := slack.Attachment{
		Color: "good",
		Title: "LUNA25 dataset prepared",
	}

	var runID string
	if result != nil {
		runID = result.RunID
		for _, d := range result.Downloads {
			att.Fields = append(att.Fields, slack.AttachmentField{
				Title: "Downloaded " + string(d.Category),
				Value: fmt.Sprintf("%d fetched, %d skipped, %d failed", len(d.Fetched), len(d.Skipped), len(d.Failed)),
				Short: true,
			})
		}
		for _, e := range result.Extracted {
			att.Fields = append(att.Fields, slack.AttachmentField{
				Title: "Extracted " + string(e.Category),
				Value: fmt.Sprintf("%d parts into %s", len(e.Parts), e.Directory),
				Short: true,
			})
		}
		if n := result.FailedCount(); n > 0 && runErr == nil {
			att.Color = "warning"
			att.Title = fmt.Sprintf("LUNA25 dataset prepared with %d failed downloads", n)
		}
	}

	if runErr != nil {
		att.Color = "danger"
		att.Title = "LUNA25 dataset preparation failed"
		att.Text = runErr.Error()
	}

	text := []string{"luna25 run finished"}
	if runID != "" {
		text = append(text, "(run "+runID+")")
	}

	return &slack.WebhookMessage{
		Text:        strings.Join(text, " "),
		Attachments: []slack.Attachment{att},
	}
}
