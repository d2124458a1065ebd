package mailer

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"atelier/internal/core"
)

//go:embed "templates"
var templateFS embed.FS

// DefaultEndpoint is the SMTP2GO send API
const DefaultEndpoint = "https://api.smtp2go.com/v3/email/send"

const sendAttempts = 3

type Mailer struct {
	apiKey   string
	sender   string
	endpoint string
	client   *http.Client
	logger   *core.Logger
	backoff  time.Duration
}

// SMTP2GO API request structure
type SMTP2GORequest struct {
	APIKey   string   `json:"api_key"`
	To       []string `json:"to"`
	Sender   string   `json:"sender"`
	Subject  string   `json:"subject"`
	TextBody string   `json:"text_body"`
	HtmlBody string   `json:"html_body"`
}

// SMTP2GO API response structure
type SMTP2GOResponse struct {
	RequestID string `json:"request_id"`
	Data      struct {
		Succeeded int    `json:"succeeded"`
		Failed    int    `json:"failed"`
		EmailID   string `json:"email_id"`
	} `json:"data"`
}

// Option configures a Mailer
type Option func(*Mailer)

// WithEndpoint sends to endpoint instead of SMTP2GO
func WithEndpoint(endpoint string) Option {
	return func(m *Mailer) {
		m.endpoint = endpoint
	}
}

// WithBackoff sets the wait between attempts
func WithBackoff(d time.Duration) Option {
	return func(m *Mailer) {
		m.backoff = d
	}
}

func New(apiKey, sender string, logger *core.Logger, opts ...Option) *Mailer {
	m := &Mailer{
		apiKey:   apiKey,
		sender:   sender,
		endpoint: DefaultEndpoint,
		client:   &http.Client{Timeout: 10 * time.Second},
		logger:   logger,
		backoff:  500 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Send renders the subject, plainBody and htmlBody blocks of templateFile and mails them
func (m *Mailer) Send(ctx context.Context, recipient, templateFile string, data any) error {
	tmpl, err := template.New("email").ParseFS(templateFS, "templates/"+templateFile)
	if err != nil {
		return err
	}

	subject := new(bytes.Buffer)
	if err := tmpl.ExecuteTemplate(subject, "subject", data); err != nil {
		return err
	}

	plainBody := new(bytes.Buffer)
	if err := tmpl.ExecuteTemplate(plainBody, "plainBody", data); err != nil {
		return err
	}

	htmlBody := new(bytes.Buffer)
	if err := tmpl.ExecuteTemplate(htmlBody, "htmlBody", data); err != nil {
		return err
	}

	request := SMTP2GORequest{
		APIKey:   m.apiKey,
		To:       []string{recipient},
		Sender:   m.sender,
		Subject:  subject.String(),
		TextBody: plainBody.String(),
		HtmlBody: htmlBody.String(),
	}

	jsonData, err := json.Marshal(request)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	for i := 1; i <= sendAttempts; i++ {
		err = m.sendViaAPI(ctx, jsonData)
		if err == nil {
			m.logger.Info("Sent email", "recipient", recipient, "template", templateFile)
			return nil
		}

		m.logger.Warn("SMTP2GO attempt failed", "attempt", i, "error", err)

		if i < sendAttempts {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(m.backoff):
			}
		}
	}

	return fmt.Errorf("failed to send email after %d attempts: %w", sendAttempts, err)
}

func (m *Mailer) sendViaAPI(ctx context.Context, jsonData []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("API request failed with status: %d", resp.StatusCode)
	}

	var response SMTP2GOResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	if response.Data.Failed > 0 {
		return fmt.Errorf("SMTP2GO rejected %d recipient(s)", response.Data.Failed)
	}

	return nil
}
