package mailer

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/starford/ansuz/internal/apperr"
)

func validMessage() Message {
	return Message{
		FromEmail: "visitor@example.com",
		Subject:   "Hello there",
		Body:      "I would like to talk about a project.",
		IP:        "203.0.113.7",
		UserAgent: "curl/8.0",
		Page:      "https://example.com/desk",
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Message)
		ok     bool
	}{
		{"valid", func(m *Message) {}, true},
		{"no reply email", func(m *Message) { m.FromEmail = "" }, true},
		{"short subject", func(m *Message) { m.Subject = "hi" }, false},
		{"whitespace subject", func(m *Message) { m.Subject = "    ab    " }, false},
		{"short message", func(m *Message) { m.Body = "too short" }, false},
		{"bad email", func(m *Message) { m.FromEmail = "not-an-email" }, false},
		{"email without tld", func(m *Message) { m.FromEmail = "a@b" }, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := validMessage()
			tc.mutate(&m)
			err := m.Validate()
			if tc.ok && err != nil {
				t.Errorf("Validate() = %v, want nil", err)
			}
			if !tc.ok && err == nil {
				t.Error("Validate() = nil, want error")
			}
		})
	}
}

func TestSend(t *testing.T) {
	var got sendRequest
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/emails" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		auth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(Options{
		APIKey:  "re_test",
		From:    "Desk <desk@example.com>",
		To:      "owner@example.com",
		BaseURL: srv.URL,
		Now:     func() time.Time { return time.UnixMilli(1700000000000) },
	})
	if err := c.Send(context.Background(), validMessage()); err != nil {
		t.Fatalf("Send: %v", err)
	}

	if auth != "Bearer re_test" {
		t.Errorf("authorization = %q", auth)
	}
	if got.Subject != subjectPrefix+"Hello there" {
		t.Errorf("subject = %q, want prefixed", got.Subject)
	}
	if len(got.To) != 1 || got.To[0] != "owner@example.com" {
		t.Errorf("to = %v", got.To)
	}
	if len(got.ReplyTo) != 1 || got.ReplyTo[0] != "visitor@example.com" {
		t.Errorf("reply_to = %v", got.ReplyTo)
	}
	if !strings.Contains(got.Text, "Reply-to: visitor@example.com") {
		t.Errorf("text body missing reply-to:\n%s", got.Text)
	}
	if !strings.Contains(got.Text, "- IP: 203.0.113.7") {
		t.Errorf("text body missing meta:\n%s", got.Text)
	}
	if got.Headers["X-Entity-Ref-ID"] != "1700000000000" {
		t.Errorf("ref header = %q", got.Headers["X-Entity-Ref-ID"])
	}
}

func TestSendEscapesHTML(t *testing.T) {
	var got sendRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(Options{APIKey: "k", From: "f@e.com", To: "t@e.com", BaseURL: srv.URL})
	m := validMessage()
	m.Body = `<script>alert("hi")</script> & more`
	if err := c.Send(context.Background(), m); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if strings.Contains(got.HTML, "<script>") {
		t.Error("HTML body carries unescaped markup")
	}
	if !strings.Contains(got.HTML, "&lt;script&gt;") {
		t.Errorf("expected escaped markup in:\n%s", got.HTML)
	}
}

func TestSendUpstreamThrottle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"too many"}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient(Options{APIKey: "k", From: "f@e.com", To: "t@e.com", BaseURL: srv.URL})
	err := c.Send(context.Background(), validMessage())
	if !errors.Is(err, apperr.ErrLimitExceeded) {
		t.Errorf("Send = %v, want ErrLimitExceeded", err)
	}
}

func TestSendUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(Options{APIKey: "k", From: "f@e.com", To: "t@e.com", BaseURL: srv.URL})
	err := c.Send(context.Background(), validMessage())
	if err == nil {
		t.Fatal("Send = nil, want error")
	}
	if errors.Is(err, apperr.ErrLimitExceeded) {
		t.Error("500 mapped to the throttle sentinel")
	}
}

func TestSendRejectsInvalidWithoutCalling(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	c := NewClient(Options{APIKey: "k", From: "f@e.com", To: "t@e.com", BaseURL: srv.URL})
	m := validMessage()
	m.Subject = "x"
	if err := c.Send(context.Background(), m); err == nil {
		t.Fatal("Send accepted an invalid message")
	}
	if called {
		t.Error("invalid message reached the upstream")
	}
}
