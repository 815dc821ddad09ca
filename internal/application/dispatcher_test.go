package application

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/repowatch/internal/domain/model"
)

func newTestDispatcher(t *testing.T, sender *stubSender, subs map[string][]string) *Dispatcher {
	t.Helper()

	registry := NewRegistry(&stubStore{subs: subs}, &stubGitHub{}, true, slog.Default())
	require.NoError(t, registry.Load(context.Background()))

	notifier := NewNotifier(registry, sender, slog.Default())
	notifier.pace = 0
	return NewDispatcher(notifier, slog.Default())
}

func TestDispatcher_RoutesIssueEventToSubscribers(t *testing.T) {
	sender := &stubSender{}
	d := newTestDispatcher(t, sender, map[string][]string{"octocat/hello-world": {"room:1"}})

	evt := model.WebhookEvent{
		Type:       "issues",
		Action:     "opened",
		Repository: &model.Repository{FullName: "octocat/Hello-World"},
		Issue:      &model.Issue{Number: 42, Title: "Bug", HTMLURL: "https://github.com/octocat/Hello-World/issues/42"},
		Sender:     &model.User{Login: "alice"},
	}

	require.NoError(t, d.HandleEvent(context.Background(), evt))
	require.Len(t, sender.sends, 1)
	assert.Contains(t, sender.sends[0], "room:1")
	assert.Contains(t, sender.sends[0], "#42 Bug")
	assert.Contains(t, sender.sends[0], "alice")
}

func TestDispatcher_PingIsSilentlyAcknowledged(t *testing.T) {
	sender := &stubSender{}
	d := newTestDispatcher(t, sender, map[string][]string{"octocat/hello-world": {"room:1"}})

	err := d.HandleEvent(context.Background(), model.WebhookEvent{Type: "ping"})
	require.NoError(t, err)
	assert.Empty(t, sender.sends)
}

func TestDispatcher_DropsUnknownEventType(t *testing.T) {
	sender := &stubSender{}
	d := newTestDispatcher(t, sender, map[string][]string{"octocat/hello-world": {"room:1"}})

	evt := model.WebhookEvent{
		Type:       "workflow_run",
		Repository: &model.Repository{FullName: "octocat/hello-world"},
	}

	require.NoError(t, d.HandleEvent(context.Background(), evt))
	assert.Empty(t, sender.sends)
}

func TestDispatcher_DropsDeclinedAction(t *testing.T) {
	sender := &stubSender{}
	d := newTestDispatcher(t, sender, map[string][]string{"octocat/hello-world": {"room:1"}})

	evt := model.WebhookEvent{
		Type:       "issues",
		Action:     "labeled",
		Repository: &model.Repository{FullName: "octocat/hello-world"},
		Issue:      &model.Issue{Number: 42, Title: "Bug"},
	}

	require.NoError(t, d.HandleEvent(context.Background(), evt))
	assert.Empty(t, sender.sends)
}

func TestDispatcher_DropsEventWithoutRepository(t *testing.T) {
	sender := &stubSender{}
	d := newTestDispatcher(t, sender, map[string][]string{"octocat/hello-world": {"room:1"}})

	evt := model.WebhookEvent{
		Type:   "issues",
		Action: "opened",
		Issue:  &model.Issue{Number: 42, Title: "Bug"},
	}

	require.NoError(t, d.HandleEvent(context.Background(), evt))
	assert.Empty(t, sender.sends)
}
