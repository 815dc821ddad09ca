// Package webhook is the driving adapter that receives GitHub webhook
// deliveries and hands them to the notification pipeline.
package webhook

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"github.com/ericfisherdev/repowatch/internal/domain/model"
)

// maxBodyBytes caps webhook payload size. GitHub's own limit is 25MB.
const maxBodyBytes = 25 << 20

// Dispatcher consumes one decoded webhook event. Implementations own their
// error handling; the returned error is only logged by the listener.
type Dispatcher interface {
	HandleEvent(ctx context.Context, evt model.WebhookEvent) error
}

// Handler serves the webhook endpoint: POST for deliveries, GET as a
// liveness probe. Event dispatch is detached from the request so the HTTP
// response never waits on notification delivery.
type Handler struct {
	secret     []byte
	dispatcher Dispatcher
	logger     *slog.Logger

	// dispatchCtx outlives individual requests; detached dispatch tasks
	// are canceled by process shutdown, not by the client hanging up.
	dispatchCtx context.Context
	inflight    sync.WaitGroup
}

// NewHandler creates the webhook handler. An empty secret disables
// signature verification; that configuration is flagged at startup.
func NewHandler(dispatchCtx context.Context, secret string, dispatcher Dispatcher, logger *slog.Logger) *Handler {
	if secret == "" {
		logger.Warn("webhook secret not configured, deliveries will not be authenticated")
	}

	return &Handler{
		secret:      []byte(secret),
		dispatcher:  dispatcher,
		logger:      logger,
		dispatchCtx: dispatchCtx,
	}
}

// Register mounts the webhook endpoint on the mux at the given path.
func (h *Handler) Register(mux *http.ServeMux, path string) {
	mux.HandleFunc("POST "+path, h.receive)
	mux.HandleFunc("GET "+path, h.liveness)
}

// Wait blocks until all detached dispatch tasks have finished. Called by
// the shutdown path after the HTTP server stops accepting connections.
func (h *Handler) Wait() {
	h.inflight.Wait()
}

func (h *Handler) liveness(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("github webhook ok"))
}

func (h *Handler) receive(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		http.Error(w, "cannot read body", http.StatusBadRequest)
		return
	}

	if err := VerifySignature(h.secret, body, r.Header.Get("X-Hub-Signature-256")); err != nil {
		h.logger.Warn("rejected webhook delivery with invalid signature", "remote", r.RemoteAddr)
		http.Error(w, "invalid signature", http.StatusUnauthorized)
		return
	}

	eventType := r.Header.Get("X-GitHub-Event")
	if eventType == "" {
		http.Error(w, "missing event type", http.StatusBadRequest)
		return
	}

	var evt model.WebhookEvent
	if err := json.Unmarshal(body, &evt); err != nil {
		h.logger.Warn("webhook payload did not parse", "event", eventType, "error", err)
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	evt.Type = eventType

	// Acknowledge before dispatching; delivery must not hold the request.
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))

	h.inflight.Add(1)
	go func() {
		defer h.inflight.Done()
		defer func() {
			if v := recover(); v != nil {
				h.logger.Error("panic in webhook dispatch", "event", eventType, "panic", v)
			}
		}()

		if err := h.dispatcher.HandleEvent(h.dispatchCtx, evt); err != nil {
			h.logger.Error("webhook dispatch failed", "event", eventType, "error", err)
		}
	}()
}
