// Package notify dispatches user-facing notifications about applied status
// changes. Dispatch is fire-and-forget: failures are logged and swallowed,
// never propagated to the caller, and never roll back committed work.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"
)

type Notification struct {
	BusinessID string            `json:"business_id"`
	LeadID     string            `json:"lead_id"`
	Title      string            `json:"title"`
	Body       string            `json:"body"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// Dispatcher delivers one notification. Implementations are treated as
// opaque and unreliable.
type Dispatcher interface {
	Notify(ctx context.Context, n Notification) error
}

// DispatchAsync delivers n on a fresh goroutine with its own timeout so a
// slow channel never adds user-facing latency. Errors are logged only.
func DispatchAsync(d Dispatcher, n Notification, log *slog.Logger, timeout time.Duration) {
	if d == nil {
		return
	}
	if log == nil {
		log = slog.Default()
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := d.Notify(ctx, n); err != nil {
			log.Warn("notification dispatch failed", "business_id", n.BusinessID, "lead_id", n.LeadID, "error", err)
		}
	}()
}

// WebhookDispatcher POSTs the notification as JSON to a configured URL.
type WebhookDispatcher struct {
	URL    string
	Client *http.Client
}

func (w WebhookDispatcher) Notify(ctx context.Context, n Notification) error {
	client := w.Client
	if client == nil {
		client = http.DefaultClient
	}
	body, err := json.Marshal(n)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.URL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	if resp.StatusCode >= 300 {
		return &StatusError{Code: resp.StatusCode}
	}
	return nil
}

type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return http.StatusText(e.Code)
}

// LogDispatcher writes notifications to the log; useful as a default and in
// tests.
type LogDispatcher struct {
	Log *slog.Logger
}

func (l LogDispatcher) Notify(_ context.Context, n Notification) error {
	log := l.Log
	if log == nil {
		log = slog.Default()
	}
	log.Info("notification", "business_id", n.BusinessID, "lead_id", n.LeadID, "title", n.Title, "body", n.Body)
	return nil
}
