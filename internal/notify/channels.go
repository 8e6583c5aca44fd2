package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"text/template"
	"time"

	"github.com/containrrr/shoutrrr"

	"github.com/Wikid82/sentinel/internal/security"
)

// DefaultWebhookTemplate renders the plain JSON body for generic webhooks.
const DefaultWebhookTemplate = `{"title": {{toJSON .Title}}, "severity": {{toJSON .Severity}}, "action": {{toJSON .Action}}, "user_id": {{toJSON .UserID}}, "module": {{toJSON .Module}}, "fingerprint": {{toJSON .Fingerprint}}, "message": {{toJSON .Message}}, "event_id": {{toJSON .EventID}}, "timestamp": {{toJSON .Timestamp}}}`

// Webhook posts a templated JSON body.
type Webhook struct {
	name   string
	url    string
	tmpl   *template.Template
	client *http.Client
}

// NewWebhook parses tmpl, or DefaultWebhookTemplate when it is empty.
func NewWebhook(name, url, tmpl string, client *http.Client) (*Webhook, error) {
	if strings.TrimSpace(tmpl) == "" {
		tmpl = DefaultWebhookTemplate
	}
	t, err := template.New("webhook").Funcs(template.FuncMap{
		"toJSON": func(v interface{}) string {
			b, _ := json.Marshal(v)
			return string(b)
		},
	}).Parse(tmpl)
	if err != nil {
		return nil, fmt.Errorf("failed to parse webhook template: %w", err)
	}
	return &Webhook{name: name, url: url, tmpl: t, client: client}, nil
}

func (w *Webhook) Name() string { return w.name }
func (w *Webhook) Type() string { return "webhook" }

// Render executes the template for p.
func (w *Webhook) Render(p Payload) ([]byte, error) {
	data := map[string]interface{}{
		"Title":       p.Title(),
		"Severity":    p.Severity.String(),
		"Action":      string(p.Action),
		"UserID":      p.UserID,
		"Module":      p.Module,
		"Fingerprint": p.Fingerprint,
		"Message":     p.Message,
		"EventID":     p.EventID,
		"Timestamp":   p.Timestamp.UTC().Format(time.RFC3339),
	}
	var body bytes.Buffer
	if err := w.tmpl.Execute(&body, data); err != nil {
		return nil, fmt.Errorf("failed to execute webhook template: %w", err)
	}
	return body.Bytes(), nil
}

func (w *Webhook) Send(ctx context.Context, p Payload) error {
	body, err := w.Render(p)
	if err != nil {
		return err
	}
	return postJSON(ctx, w.client, w.url, body)
}

// Colours for chat attachments.
const (
	colorAlert   = "#d00000"
	colorWarning = "#ff9900"
	colorInfo    = "#2eb886"
)

// SeverityColor maps a severity to the attachment colour.
func SeverityColor(sev security.Severity) string {
	switch {
	case sev.AtLeast(security.SeverityHigh):
		return colorAlert
	case sev == security.SeverityMedium:
		return colorWarning
	}
	return colorInfo
}

type slackField struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short"`
}

type slackAttachment struct {
	Color  string       `json:"color"`
	Title  string       `json:"title"`
	Text   string       `json:"text"`
	Fields []slackField `json:"fields"`
	Ts     int64        `json:"ts"`
}

type slackMessage struct {
	Text        string            `json:"text"`
	Attachments []slackAttachment `json:"attachments"`
}

// Slack posts to an incoming-webhook URL.
type Slack struct {
	name   string
	url    string
	client *http.Client
}

func (s *Slack) Name() string { return s.name }
func (s *Slack) Type() string { return "slack" }

func (s *Slack) Send(ctx context.Context, p Payload) error {
	msg := slackMessage{
		Text: p.Title(),
		Attachments: []slackAttachment{{
			Color: SeverityColor(p.Severity),
			Title: p.Title(),
			Text:  p.Message,
			Fields: []slackField{
				{Title: "Severity", Value: p.Severity.String(), Short: true},
				{Title: "Action", Value: p.Action.Verb(), Short: true},
				{Title: "User", Value: p.UserID, Short: true},
				{Title: "Module", Value: p.Module, Short: true},
				{Title: "Fingerprint", Value: p.Fingerprint, Short: false},
			},
			Ts: p.Timestamp.Unix(),
		}},
	}
	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return postJSON(ctx, s.client, s.url, body)
}

type discordField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type discordEmbed struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Color       int            `json:"color"`
	Fields      []discordField `json:"fields"`
	Timestamp   string         `json:"timestamp"`
}

type discordMessage struct {
	Embeds []discordEmbed `json:"embeds"`
}

// Discord posts an embed to a Discord webhook URL.
type Discord struct {
	name   string
	url    string
	client *http.Client
}

func (d *Discord) Name() string { return d.name }
func (d *Discord) Type() string { return "discord" }

func (d *Discord) Send(ctx context.Context, p Payload) error {
	var color int
	_, _ = fmt.Sscanf(SeverityColor(p.Severity), "#%x", &color)
	msg := discordMessage{Embeds: []discordEmbed{{
		Title:       p.Title(),
		Description: p.Message,
		Color:       color,
		Fields: []discordField{
			{Name: "Severity", Value: p.Severity.String(), Inline: true},
			{Name: "Action", Value: p.Action.Verb(), Inline: true},
			{Name: "User", Value: p.UserID, Inline: true},
			{Name: "Module", Value: p.Module, Inline: true},
		},
		Timestamp: p.Timestamp.UTC().Format(time.RFC3339),
	}}}
	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return postJSON(ctx, d.client, d.url, body)
}

// Shoutrrr sends plain text through any shoutrrr service URL.
type Shoutrrr struct {
	name string
	url  string
}

func (s *Shoutrrr) Name() string { return s.name }
func (s *Shoutrrr) Type() string { return "shoutrrr" }

func (s *Shoutrrr) Send(ctx context.Context, p Payload) error {
	if strings.HasPrefix(s.url, "http://") || strings.HasPrefix(s.url, "https://") {
		if _, err := validateWebhookURL(s.url); err != nil {
			return fmt.Errorf("invalid destination: %w", err)
		}
	}
	msg := fmt.Sprintf("%s\n\n%s\nuser: %s\nfingerprint: %s", p.Title(), p.Message, p.UserID, p.Fingerprint)

	done := make(chan error, 1)
	go func() { done <- shoutrrr.Send(s.url, msg) }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func postJSON(ctx context.Context, client *http.Client, raw string, body []byte) error {
	u, err := validateWebhookURL(raw)
	if err != nil {
		return fmt.Errorf("invalid webhook url: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook returned status: %d", resp.StatusCode)
	}
	return nil
}
