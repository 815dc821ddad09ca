package application

import (
	"context"
	"log/slog"

	"github.com/ericfisherdev/repowatch/internal/domain/model"
	"github.com/ericfisherdev/repowatch/internal/format"
)

// Dispatcher routes one webhook event through the projector to the
// notifier. It is the webhook listener's detached-task body.
type Dispatcher struct {
	notifier *Notifier
	logger   *slog.Logger
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(notifier *Notifier, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{notifier: notifier, logger: logger}
}

// HandleEvent projects the event and fans the message out. Ping events are
// acknowledged silently; event types without a projector, and actions the
// projector declines, are dropped without error.
func (d *Dispatcher) HandleEvent(ctx context.Context, evt model.WebhookEvent) error {
	webhookEventsReceived.WithLabelValues(evt.Type).Inc()

	if evt.Type == "ping" {
		d.logger.Debug("webhook ping acknowledged")
		return nil
	}

	if !format.Known(evt.Type) {
		webhookEventsDropped.Inc()
		d.logger.Debug("no projector for event type, dropping", "event", evt.Type)
		return nil
	}

	message, ok := format.Event(evt)
	if !ok {
		webhookEventsDropped.Inc()
		d.logger.Debug("event action not user-relevant, dropping", "event", evt.Type, "action", evt.Action)
		return nil
	}

	repo := evt.RepoFullName()
	if repo == "" {
		d.logger.Warn("event payload carries no repository, dropping", "event", evt.Type)
		return nil
	}

	d.notifier.Notify(ctx, repo, message)
	return nil
}
