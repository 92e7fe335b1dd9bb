// Package mailer relays contact-form messages through the Resend HTTP
// API. It validates the submission, renders plain-text and HTML bodies,
// and maps upstream throttling to a sentinel the transport layer can
// surface as 429.
package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/ansuz/internal/apperr"
)

// DefaultBaseURL is the production Resend endpoint.
const DefaultBaseURL = "https://api.resend.com"

const subjectPrefix = "[ansuz desk] "

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Message is one contact-form submission. FromEmail is optional; when
// present it becomes the Reply-To address.
type Message struct {
	FromEmail string `json:"fromEmail"`
	Subject   string `json:"subject"`
	Body      string `json:"message"`

	// Request metadata, folded into the rendered bodies.
	IP        string `json:"-"`
	UserAgent string `json:"-"`
	Page      string `json:"-"`
}

// Validate checks the submission. Subject and body lengths are measured
// after trimming.
func (m Message) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Subject, validation.Required, validation.By(minTrimmed(3, "subject is required"))),
		validation.Field(&m.Body, validation.Required, validation.By(minTrimmed(10, "message is too short"))),
		validation.Field(&m.FromEmail, validation.By(optionalEmail)),
	)
}

func minTrimmed(n int, msg string) validation.RuleFunc {
	return func(value interface{}) error {
		s, _ := value.(string)
		if len(strings.TrimSpace(s)) < n {
			return fmt.Errorf("%s", msg)
		}
		return nil
	}
}

func optionalEmail(value interface{}) error {
	s, _ := value.(string)
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if !emailRe.MatchString(s) {
		return fmt.Errorf("invalid reply email")
	}
	return nil
}

// Client sends messages through a Resend-compatible endpoint.
type Client struct {
	http    *http.Client
	logger  *slog.Logger
	baseURL string
	apiKey  string
	from    string
	to      string
	now     func() time.Time
}

// Options configure a Client. APIKey, From, and To are required by the
// caller; BaseURL defaults to the production endpoint.
type Options struct {
	APIKey  string
	From    string
	To      string
	BaseURL string
	HTTP    *http.Client
	Logger  *slog.Logger
	Now     func() time.Time
}

// NewClient builds a mail relay client.
func NewClient(opts Options) *Client {
	c := &Client{
		http:    opts.HTTP,
		logger:  opts.Logger,
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		apiKey:  opts.APIKey,
		from:    opts.From,
		to:      opts.To,
		now:     opts.Now,
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: 15 * time.Second}
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c
}

type sendRequest struct {
	From    string            `json:"from"`
	To      []string          `json:"to"`
	ReplyTo []string          `json:"reply_to,omitempty"`
	Subject string            `json:"subject"`
	Text    string            `json:"text"`
	HTML    string            `json:"html"`
	Headers map[string]string `json:"headers,omitempty"`
}

// Send validates and relays one message. An upstream 429 comes back as
// apperr.ErrLimitExceeded so the handler can ask the sender to retry
// later.
func (c *Client) Send(ctx context.Context, m Message) error {
	if err := m.Validate(); err != nil {
		return fmt.Errorf("mailer: validate: %w", err)
	}

	subject := strings.TrimSpace(m.Subject)
	body := strings.TrimSpace(m.Body)
	from := strings.TrimSpace(m.FromEmail)

	payload := sendRequest{
		From:    c.from,
		To:      []string{c.to},
		Subject: subjectPrefix + subject,
		Text:    c.renderText(subject, body, from, m),
		HTML:    c.renderHTML(body, from, m),
		Headers: map[string]string{
			"X-Entity-Ref-ID": strconv.FormatInt(c.now().UnixMilli(), 10),
		},
	}
	if from != "" {
		payload.ReplyTo = []string{from}
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("mailer: marshal: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/emails", bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("mailer: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("mailer: send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
	c.logger.Warn("mailer: upstream rejected message",
		"status", resp.StatusCode, "detail", string(detail))
	if resp.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("mailer: upstream throttled: %w", apperr.ErrLimitExceeded)
	}
	return fmt.Errorf("mailer: upstream status %d", resp.StatusCode)
}

func (c *Client) renderText(subject, body, from string, m Message) string {
	lines := []string{
		"New message — " + subject,
		"",
	}
	if from != "" {
		lines = append(lines, "Reply-to: "+from, "")
	}
	lines = append(lines, body, "", "Meta:")
	if m.IP != "" {
		lines = append(lines, "- IP: "+m.IP)
	}
	if m.UserAgent != "" {
		lines = append(lines, "- User-Agent: "+m.UserAgent)
	}
	if m.Page != "" {
		lines = append(lines, "- From page: "+m.Page)
	}
	return strings.Join(lines, "\n")
}

func (c *Client) renderHTML(body, from string, m Message) string {
	var b strings.Builder
	b.WriteString("<!doctype html>\n<html>\n<body>\n")
	b.WriteString("<h1>New message</h1>\n")
	b.WriteString("<p>" + escapeHTML(c.now().Format(time.RFC1123)) + "</p>\n")
	if from != "" {
		b.WriteString(`<p><strong>Reply-to:</strong> <a href="mailto:` + escapeHTML(from) + `">` + escapeHTML(from) + "</a></p>\n")
	}
	b.WriteString(`<div style="white-space:pre-wrap">` + escapeHTML(body) + "</div>\n")
	b.WriteString("<h2>Meta</h2>\n<ul>\n")
	if m.IP != "" {
		b.WriteString("<li><strong>IP:</strong> " + escapeHTML(m.IP) + "</li>\n")
	}
	if m.UserAgent != "" {
		b.WriteString("<li><strong>User-Agent:</strong> " + escapeHTML(m.UserAgent) + "</li>\n")
	}
	if m.Page != "" {
		b.WriteString("<li><strong>From page:</strong> " + escapeHTML(m.Page) + "</li>\n")
	}
	b.WriteString("</ul>\n</body>\n</html>\n")
	return b.String()
}

func escapeHTML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	return s
}
