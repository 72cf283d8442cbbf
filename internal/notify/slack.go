package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/slack-go/slack"
)

// SlackNotifier posts update reports to a Slack incoming webhook.
type SlackNotifier struct {
	logger zerolog.Logger
	timing timingConfig
	poster *httpPoster
}

// SlackOption customizes SlackNotifier behavior.
type SlackOption func(*SlackNotifier)

// WithSlackTiming overrides timing parameters (primarily for testing).
func WithSlackTiming(rateInterval time.Duration, rateBurst int, backoffInitial, backoffMax, backoffMaxElapsed time.Duration) SlackOption {
	return func(s *SlackNotifier) {
		s.timing.rateInterval = rateInterval
		s.timing.rateBurst = rateBurst
		s.timing.backoffInitial = backoffInitial
		s.timing.backoffMax = backoffMax
		s.timing.backoffMaxElapsed = backoffMaxElapsed
	}
}

// NewSlackNotifier creates a Slack notifier or a noop notifier when the
// webhook is empty.
func NewSlackNotifier(logger zerolog.Logger, webhookURL string, opts ...SlackOption) Notifier {
	if webhookURL == "" {
		return NewNoop(logger, "slack webhook not configured; notifications disabled")
	}

	notifier := &SlackNotifier{
		logger: logger,
		timing: defaultTiming,
	}
	for _, opt := range opts {
		opt(notifier)
	}

	notifier.poster = newHTTPPoster("slack", webhookURL, "application/json", notifier.timing)

	return notifier
}

// Notify implements Notifier.
func (n *SlackNotifier) Notify(ctx context.Context, report Report) error {
	if err := n.poster.waitForRateLimit(ctx); err != nil {
		return err
	}

	payload, err := json.Marshal(buildSlackMessage(report))
	if err != nil {
		return fmt.Errorf("marshal slack payload: %w", err)
	}
	if err := n.poster.postWithRetry(ctx, payload); err != nil {
		return err
	}

	n.logger.Debug().
		Str("outcome", report.Outcome).
		Msg("slack notification sent")

	return nil
}

func buildSlackMessage(report Report) slack.WebhookMessage {
	summary := fmt.Sprintf("%s: %s → %s (%s)", summaryPrefix(report), labelOrUnknown(report.From), labelOrUnknown(report.To), report.Outcome)

	header := slack.NewHeaderBlock(slack.NewTextBlockObject("plain_text", summary, false, false))
	contextElements := []slack.MixedElement{
		slack.NewTextBlockObject("mrkdwn", fmt.Sprintf("Outcome: *%s*", report.Outcome), false, false),
		slack.NewTextBlockObject("mrkdwn", fmt.Sprintf("Duration: %s", report.Duration.Round(time.Second)), false, false),
	}
	contextBlock := slack.NewContextBlock("", contextElements...)

	fields := []*slack.TextBlockObject{
		slack.NewTextBlockObject("mrkdwn", fmt.Sprintf("*Version:*\n`%s` → `%s`", labelOrUnknown(report.From), labelOrUnknown(report.To)), false, false),
	}
	if report.Attempts > 0 {
		fields = append(fields, slack.NewTextBlockObject("mrkdwn", fmt.Sprintf("*Health attempts:*\n%d", report.Attempts), false, false))
	}
	if report.BackupDir != "" {
		fields = append(fields, slack.NewTextBlockObject("mrkdwn", fmt.Sprintf("*Backup:*\n`%s`", report.BackupDir), false, false))
	}
	if text := report.ErrorText(); text != "" {
		fields = append(fields, slack.NewTextBlockObject("mrkdwn", "*Error:*\n"+text, false, false))
	}
	section := slack.NewSectionBlock(slack.NewTextBlockObject("mrkdwn", summary, false, false), fields, nil)

	blockSet := slack.Blocks{BlockSet: []slack.Block{header, contextBlock, section}}
	return slack.WebhookMessage{
		Text:   summary,
		Blocks: &blockSet,
	}
}

func summaryPrefix(report Report) string {
	if report.Profile != "" {
		return "compose-bump " + report.Profile
	}
	return "compose-bump"
}

func labelOrUnknown(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
