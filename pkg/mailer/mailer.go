package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gymstore/backend/pkg/config"
	"github.com/gymstore/backend/pkg/logger"
)

const sendPath = "/v3/mail/send"

// Message is one transactional email to a single recipient.
type Message struct {
	To        string
	ToName    string
	Subject   string
	PlainText string
	HTML      string
}

// Sender delivers transactional emails.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Client talks to the SendGrid v3 mail API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	from       string
}

// New builds a SendGrid-backed sender. When the API key is unset it returns a
// noop sender so local environments work without mail credentials.
func New(cfg config.MailerConfig, logg *logger.Logger) Sender {
	if !cfg.Enabled() {
		return &noopSender{logg: logg}
	}
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		from:       cfg.DefaultFrom,
	}
}

type sendgridPayload struct {
	Personalizations []personalization `json:"personalizations"`
	From             emailAddress      `json:"from"`
	Subject          string            `json:"subject"`
	Content          []content         `json:"content"`
}

type personalization struct {
	To []emailAddress `json:"to"`
}

type emailAddress struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type content struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// Send posts the message to the mail provider. Callers treat failures as
// non-fatal; order and signup flows never roll back on mail errors.
func (c *Client) Send(ctx context.Context, msg Message) error {
	if strings.TrimSpace(msg.To) == "" {
		return fmt.Errorf("recipient is required")
	}
	if strings.TrimSpace(msg.Subject) == "" {
		return fmt.Errorf("subject is required")
	}

	parts := make([]content, 0, 2)
	if msg.PlainText != "" {
		parts = append(parts, content{Type: "text/plain", Value: msg.PlainText})
	}
	if msg.HTML != "" {
		parts = append(parts, content{Type: "text/html", Value: msg.HTML})
	}
	if len(parts) == 0 {
		return fmt.Errorf("message body is required")
	}

	payload := sendgridPayload{
		Personalizations: []personalization{{To: []emailAddress{{Email: msg.To, Name: msg.ToName}}}},
		From:             emailAddress{Email: c.from},
		Subject:          msg.Subject,
		Content:          parts,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal mail payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+sendPath, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build mail request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("mail provider returned %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}
	return nil
}

type noopSender struct {
	logg *logger.Logger
}

func (n *noopSender) Send(ctx context.Context, msg Message) error {
	if n.logg != nil {
		n.logg.Info(n.logg.WithFields(ctx, map[string]any{
			"to":      msg.To,
			"subject": msg.Subject,
		}), "mailer disabled, skipping email")
	}
	return nil
}
