package application

import (
	"context"
	"log/slog"
	"time"

	"github.com/ericfisherdev/repowatch/internal/domain/port/driven"
)

// defaultPace is the delay inserted between per-recipient deliveries so a
// fan-out does not trip the chat platform's outbound rate limits.
const defaultPace = time.Second

// Notifier fans one message out to a repository's subscribers. Delivery is
// best-effort per recipient: a failed send is logged and the remaining
// recipients still get the message. No batching, no retries.
type Notifier struct {
	registry *Registry
	sender   driven.MessageSender
	pace     time.Duration
	logger   *slog.Logger
}

// NewNotifier creates a Notifier with the default pacing delay.
func NewNotifier(registry *Registry, sender driven.MessageSender, logger *slog.Logger) *Notifier {
	return &Notifier{
		registry: registry,
		sender:   sender,
		pace:     defaultPace,
		logger:   logger,
	}
}

// Notify delivers the message to every subscriber of the repository. It
// returns once all deliveries have been attempted or the context ends.
func (n *Notifier) Notify(ctx context.Context, repo, message string) {
	recipients := n.registry.Recipients(repo)
	if len(recipients) == 0 {
		n.logger.Debug("no subscribers for notification", "repo", repo)
		return
	}

	for i, recipient := range recipients {
		if i > 0 {
			select {
			case <-time.After(n.pace):
			case <-ctx.Done():
				n.logger.Info("notification fan-out interrupted", "repo", repo, "delivered", i)
				return
			}
		}

		if err := n.sender.Send(ctx, recipient, message); err != nil {
			notificationsFailed.Inc()
			n.logger.Error("notification delivery failed", "repo", repo, "recipient", recipient, "error", err)
			continue
		}
		notificationsSent.Inc()
	}
}
