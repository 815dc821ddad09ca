// Package chat implements the MessageSender port against the chat bridge's
// HTTP push endpoint. It is a thin wrapper: best-effort semantics live in
// the notifier, not here.
package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/ericfisherdev/repowatch/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.MessageSender = (*Sender)(nil)

// Sender posts notification messages to the chat bridge.
type Sender struct {
	url    string
	client *http.Client
}

// NewSender creates a Sender for the given bridge URL.
func NewSender(url string) *Sender {
	return &Sender{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

type pushRequest struct {
	Recipient string `json:"recipient"`
	Text      string `json:"text"`
}

// Send delivers one message to one recipient. Any non-2xx response is an
// error; no delivery confirmation beyond the status code is assumed.
func (s *Sender) Send(ctx context.Context, recipient string, text string) error {
	body, err := json.Marshal(pushRequest{Recipient: recipient, Text: text})
	if err != nil {
		return fmt.Errorf("encode push request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build push request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("push to %q: %w", recipient, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("push to %q: unexpected status %d", recipient, resp.StatusCode)
	}

	return nil
}
