package driven

import "context"

// MessageSender delivers one notification message to one recipient.
// Delivery is fire-and-forget: the caller assumes no confirmation beyond
// the returned error and never retries.
type MessageSender interface {
	Send(ctx context.Context, recipient string, text string) error
}
