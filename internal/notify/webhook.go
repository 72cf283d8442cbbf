package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"text/template"
	"time"

	"github.com/rs/zerolog"
)

const defaultWebhookTemplate = `{"profile":{{ toJson .Profile }},"outcome":{{ toJson .Outcome }},"from":{{ toJson .From }},"to":{{ toJson .To }},"attempts":{{ .Attempts }},"backup_dir":{{ toJson .BackupDir }},"error":{{ toJson .Error }}}`

// WebhookPayload is the template context for webhook notifications.
type WebhookPayload struct {
	Profile     string
	Outcome     string
	From        string
	To          string
	Attempts    int
	BackupDir   string
	Error       string
	GeneratedAt time.Time
}

// WebhookNotifier sends update reports to a generic webhook.
type WebhookNotifier struct {
	logger   zerolog.Logger
	template *template.Template
	poster   *httpPoster
}

// NewWebhookNotifier creates a webhook notifier with the provided
// template. An empty URL yields a nil notifier, which MultiNotifier skips.
func NewWebhookNotifier(logger zerolog.Logger, webhookURL string, tmpl string) (*WebhookNotifier, error) {
	if webhookURL == "" {
		return nil, nil
	}
	if tmpl == "" {
		tmpl = defaultWebhookTemplate
	}

	parsed, err := template.New("webhook").Funcs(template.FuncMap{
		"toJson": func(v any) (string, error) {
			encoded, err := json.Marshal(v)
			if err != nil {
				return "", err
			}
			return string(encoded), nil
		},
	}).Parse(tmpl)
	if err != nil {
		return nil, fmt.Errorf("parse webhook template: %w", err)
	}

	return &WebhookNotifier{
		logger:   logger,
		template: parsed,
		poster:   newHTTPPoster("webhook", webhookURL, "application/json", defaultTiming),
	}, nil
}

// Notify implements Notifier.
func (n *WebhookNotifier) Notify(ctx context.Context, report Report) error {
	if n == nil {
		return nil
	}

	if err := n.poster.waitForRateLimit(ctx); err != nil {
		return err
	}

	payload := WebhookPayload{
		Profile:     report.Profile,
		Outcome:     report.Outcome,
		From:        report.From,
		To:          report.To,
		Attempts:    report.Attempts,
		BackupDir:   report.BackupDir,
		Error:       report.ErrorText(),
		GeneratedAt: time.Now().UTC(),
	}

	var buf bytes.Buffer
	if err := n.template.Execute(&buf, payload); err != nil {
		return fmt.Errorf("render webhook template: %w", err)
	}

	if err := n.poster.postWithRetry(ctx, buf.Bytes()); err != nil {
		return err
	}

	n.logger.Debug().
		Str("outcome", report.Outcome).
		Msg("webhook notification sent")

	return nil
}
