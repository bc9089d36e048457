package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

var (
	ErrEmailRelayNotConfigured = errors.New("email relay is not configured")
	ErrSendFailed              = errors.New("notification send failed")
)

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// EmailSender posts rendered emails to the transactional relay.
type EmailSender struct {
	endpoint string
	apiKey   string
	http     httpDoer
}

func NewEmailSender(endpoint, apiKey string, doer httpDoer) *EmailSender {
	if doer == nil {
		doer = &http.Client{Timeout: 15 * time.Second}
	}
	return &EmailSender{endpoint: endpoint, apiKey: apiKey, http: doer}
}

type emailRequest struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

func (s *EmailSender) Send(ctx context.Context, to, subject, html string) error {
	if strings.TrimSpace(s.endpoint) == "" {
		return ErrEmailRelayNotConfigured
	}
	if strings.TrimSpace(to) == "" {
		return fmt.Errorf("empty recipient")
	}

	body, err := json.Marshal(emailRequest{To: to, Subject: subject, HTML: html})
	if err != nil {
		return fmt.Errorf("marshal email request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build email request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSendFailed, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("%w: email relay returned %s", ErrSendFailed, resp.Status)
	}

	return nil
}

// PushSender delivers push messages through the Expo push gateway.
type PushSender struct {
	endpoint string
	http     httpDoer
}

func NewPushSender(endpoint string, doer httpDoer) *PushSender {
	if endpoint == "" {
		endpoint = "https://exp.host/--/api/v2/push/send"
	}
	if doer == nil {
		doer = &http.Client{Timeout: 15 * time.Second}
	}
	return &PushSender{endpoint: endpoint, http: doer}
}

type pushRequest struct {
	To       string         `json:"to"`
	Title    string         `json:"title"`
	Body     string         `json:"body"`
	Data     map[string]any `json:"data"`
	Sound    string         `json:"sound"`
	Priority string         `json:"priority"`
}

func (s *PushSender) Send(ctx context.Context, token, title, body string, data map[string]any) error {
	if strings.TrimSpace(token) == "" {
		return fmt.Errorf("empty push token")
	}

	payload, err := json.Marshal(pushRequest{
		To:       token,
		Title:    title,
		Body:     body,
		Data:     data,
		Sound:    "default",
		Priority: "high",
	})
	if err != nil {
		return fmt.Errorf("marshal push request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build push request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSendFailed, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("%w: push gateway returned %s", ErrSendFailed, resp.Status)
	}

	return nil
}
