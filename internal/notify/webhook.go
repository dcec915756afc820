package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-logr/logr"
	"github.com/hashicorp/go-retryablehttp"
	"sigs.k8s.io/controller-runtime/pkg/log"
)

// Webhook payload formats.
const (
	FormatSlack = "slack"
	FormatGChat = "gchat"
)

// WebhookSender posts reports to a chat incoming webhook.
type WebhookSender struct {
	URL    string
	Format string
	Client *retryablehttp.Client
}

// NewWebhookSender returns a sender retrying transient webhook failures.
func NewWebhookSender(url, format string) *WebhookSender {
	client := retryablehttp.NewClient()
	client.RetryMax = 3
	client.RetryWaitMin = time.Second
	client.RetryWaitMax = 10 * time.Second
	client.Logger = leveledLogger{log.Log.WithName("webhook")}
	return &WebhookSender{URL: url, Format: format, Client: client}
}

// Send implements Sender.
func (s *WebhookSender) Send(ctx context.Context, r Report) error {
	payload, err := s.payload(r)
	if err != nil {
		return err
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, s.URL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=UTF-8")

	resp, err := s.Client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to post %s message: %w", s.Format, err)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("%s webhook returned %s", s.Format, resp.Status)
	}
	log.FromContext(ctx).Info("message posted", "format", s.Format)
	return nil
}

type slackMessage struct {
	Text string `json:"text"`
}

type gchatMessage struct {
	Cards []gchatCard `json:"cards"`
}

type gchatCard struct {
	Sections []gchatSection `json:"sections"`
}

type gchatSection struct {
	Widgets []gchatWidget `json:"widgets"`
}

type gchatWidget struct {
	TextParagraph gchatText `json:"textParagraph"`
}

type gchatText struct {
	Text string `json:"text"`
}

func (s *WebhookSender) payload(r Report) ([]byte, error) {
	switch s.Format {
	case FormatSlack:
		text, err := renderText("slack.txt", r)
		if err != nil {
			return nil, err
		}
		return json.Marshal(slackMessage{Text: text})
	case FormatGChat, "":
		text, err := renderHTML("gchat.html", r)
		if err != nil {
			return nil, err
		}
		return json.Marshal(gchatMessage{Cards: []gchatCard{{
			Sections: []gchatSection{{Widgets: []gchatWidget{{TextParagraph: gchatText{Text: text}}}}},
		}}})
	default:
		return nil, fmt.Errorf("unsupported webhook format %q", s.Format)
	}
}

// leveledLogger adapts logr to retryablehttp.LeveledLogger.
type leveledLogger struct {
	logr.Logger
}

func (l leveledLogger) Error(msg string, keysAndValues ...any) {
	l.Logger.Error(nil, msg, keysAndValues...)
}

func (l leveledLogger) Info(msg string, keysAndValues ...any) {
	l.Logger.V(1).Info(msg, keysAndValues...)
}

func (l leveledLogger) Debug(msg string, keysAndValues ...any) {
	l.Logger.V(2).Info(msg, keysAndValues...)
}

func (l leveledLogger) Warn(msg string, keysAndValues ...any) {
	l.Logger.Info(msg, keysAndValues...)
}
