package format_test

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/repowatch/internal/domain/model"
	"github.com/ericfisherdev/repowatch/internal/format"
)

func repoEvent(eventType, action string) model.WebhookEvent {
	return model.WebhookEvent{
		Type:       eventType,
		Action:     action,
		Repository: &model.Repository{FullName: "octocat/hello-world"},
		Sender:     &model.User{Login: "alice"},
	}
}

func TestEvent_IssueOpened(t *testing.T) {
	evt := repoEvent("issues", "opened")
	evt.Issue = &model.Issue{Number: 42, Title: "Bug"}

	msg, ok := format.Event(evt)
	require.True(t, ok)

	assert.Contains(t, msg, "#42")
	assert.Contains(t, msg, "Bug")
	assert.Contains(t, msg, "alice")
	assert.Contains(t, msg, "event: opened")
	assert.NotContains(t, msg, "link:", "no URL on the issue means no link line")
}

func TestEvent_IssueWithURL(t *testing.T) {
	evt := repoEvent("issues", "closed")
	evt.Issue = &model.Issue{Number: 7, Title: "Done", HTMLURL: "https://github.com/octocat/hello-world/issues/7"}

	msg, ok := format.Event(evt)
	require.True(t, ok)
	assert.Contains(t, msg, "link: https://github.com/octocat/hello-world/issues/7")
}

func TestEvent_IssueUnknownAction(t *testing.T) {
	evt := repoEvent("issues", "labeled")
	evt.Issue = &model.Issue{Number: 1, Title: "x"}

	_, ok := format.Event(evt)
	assert.False(t, ok, "unrecognized action should decline, not error")
}

func TestEvent_ActorFallback(t *testing.T) {
	evt := repoEvent("issues", "opened")
	evt.Sender = nil
	evt.Issue = &model.Issue{Number: 1, Title: "x", User: &model.User{Login: "bob"}}

	msg, ok := format.Event(evt)
	require.True(t, ok)
	assert.Contains(t, msg, "actor: bob")

	evt.Issue.User = nil
	msg, ok = format.Event(evt)
	require.True(t, ok)
	assert.Contains(t, msg, "actor: unknown")
}

func TestEvent_PullRequestMergedVsClosed(t *testing.T) {
	evt := repoEvent("pull_request", "closed")
	evt.PullRequest = &model.PullRequest{
		Number: 5,
		Title:  "Feature",
		Merged: true,
		Head:   &model.BranchRef{Label: "alice:feature"},
		Base:   &model.BranchRef{Label: "octocat:main"},
	}

	msg, ok := format.Event(evt)
	require.True(t, ok)
	assert.Contains(t, msg, "event: merged")
	assert.Contains(t, msg, "alice:feature -> octocat:main")

	evt.PullRequest.Merged = false
	msg, ok = format.Event(evt)
	require.True(t, ok)
	assert.Contains(t, msg, "event: closed")
}

func TestEvent_IssueCommentDeletedOmitsBody(t *testing.T) {
	evt := repoEvent("issue_comment", "deleted")
	evt.Issue = &model.Issue{Number: 3, Title: "Question"}
	evt.Comment = &model.Comment{Body: "secret body that is already gone"}

	msg, ok := format.Event(evt)
	require.True(t, ok)
	assert.Contains(t, msg, "comment deleted")
	assert.NotContains(t, msg, "secret body")
}

func TestEvent_IssueCommentCreatedIncludesBody(t *testing.T) {
	evt := repoEvent("issue_comment", "created")
	evt.Issue = &model.Issue{Number: 3, Title: "Question", HTMLURL: "https://issue"}
	evt.Comment = &model.Comment{Body: "looks good", HTMLURL: "https://comment"}

	msg, ok := format.Event(evt)
	require.True(t, ok)
	assert.Contains(t, msg, "looks good")
	assert.Contains(t, msg, "link: https://comment", "comment URL wins over issue URL")
}

func TestEvent_CommitComment(t *testing.T) {
	evt := repoEvent("commit_comment", "created")
	evt.Comment = &model.Comment{
		Body:     "nice commit",
		CommitID: "0123456789abcdef",
		User:     &model.User{Login: "carol"},
	}

	msg, ok := format.Event(evt)
	require.True(t, ok)
	assert.Contains(t, msg, "commit: 0123456")
	assert.Contains(t, msg, "nice commit")
}

func TestEvent_ReviewSubmitted(t *testing.T) {
	evt := repoEvent("pull_request_review", "submitted")
	evt.PullRequest = &model.PullRequest{Number: 9, Title: "Refactor", HTMLURL: "https://pr"}
	evt.Review = &model.Review{State: "approved", Body: "ship it"}

	msg, ok := format.Event(evt)
	require.True(t, ok)
	assert.Contains(t, msg, "state: APPROVED")
	assert.Contains(t, msg, "ship it")
	assert.Contains(t, msg, "link: https://pr", "falls back to the PR URL")
}

func TestEvent_ReviewThread(t *testing.T) {
	evt := repoEvent("pull_request_review_thread", "resolved")
	evt.PullRequest = &model.PullRequest{Number: 9, Title: "Refactor"}
	evt.Thread = &model.ReviewThread{Comments: []model.Comment{{Body: "root comment"}}}

	msg, ok := format.Event(evt)
	require.True(t, ok)
	assert.Contains(t, msg, "review thread resolved")
	assert.Contains(t, msg, "root comment")
}

func TestEvent_Discussion(t *testing.T) {
	evt := repoEvent("discussion", "answered")
	evt.Discussion = &model.Discussion{Number: 12, Title: "How do I"}

	msg, ok := format.Event(evt)
	require.True(t, ok)
	assert.Contains(t, msg, "discussion #12 How do I")
	assert.Contains(t, msg, "marked answered")
}

func TestEvent_Fork(t *testing.T) {
	evt := repoEvent("fork", "")
	evt.Forkee = &model.Repository{FullName: "alice/hello-world", HTMLURL: "https://fork"}

	msg, ok := format.Event(evt)
	require.True(t, ok)
	assert.Contains(t, msg, "was forked")
	assert.Contains(t, msg, "fork: alice/hello-world")
}

func TestEvent_Star(t *testing.T) {
	evt := repoEvent("star", "created")

	msg, ok := format.Event(evt)
	require.True(t, ok)
	assert.Contains(t, msg, "event: starred")

	evt.Action = "deleted"
	msg, ok = format.Event(evt)
	require.True(t, ok)
	assert.Contains(t, msg, "event: star removed")
}

func TestEvent_Create(t *testing.T) {
	evt := repoEvent("create", "")
	evt.RefType = "branch"
	evt.Ref = "dev"

	msg, ok := format.Event(evt)
	require.True(t, ok)
	assert.Contains(t, msg, "created branch: dev")

	evt.RefType = ""
	_, ok = format.Event(evt)
	assert.False(t, ok, "create without ref_type is not a notification")
}

func TestEvent_UnknownEventType(t *testing.T) {
	_, ok := format.Event(repoEvent("workflow_run", "completed"))
	assert.False(t, ok)
	assert.False(t, format.Known("workflow_run"))
	assert.True(t, format.Known("issues"))
}

func TestTruncate(t *testing.T) {
	long := strings.Repeat("a", 250)
	got := format.Truncate(long, 200)
	assert.Equal(t, 200, utf8.RuneCountInString(got))
	assert.True(t, strings.HasSuffix(got, "..."))

	short := strings.Repeat("b", 150)
	assert.Equal(t, short, format.Truncate(short, 200))

	assert.Equal(t, "trimmed", format.Truncate("  trimmed \n", 200), "truncation operates on trimmed text")
}

func TestTruncate_LimitSmallerThanMarker(t *testing.T) {
	assert.Equal(t, "abc", format.Truncate("abcdef", 3))
	assert.Equal(t, "a", format.Truncate("abcdef", 1))
	assert.Equal(t, "", format.Truncate("abcdef", 0))
	assert.Equal(t, "", format.Truncate("abcdef", -1))
}

func TestNewItem(t *testing.T) {
	item := model.Item{Number: 42, Title: "Bug", Author: "alice", URL: "https://item"}

	line := format.NewItem("octocat/hello-world", item)
	assert.Equal(t, "[GitHub] new issue in octocat/hello-world: #42 Bug (by alice) https://item", line)
	assert.NotContains(t, line, "\n", "poll projector emits a single line per item")

	item.IsPullRequest = true
	item.URL = ""
	line = format.NewItem("octocat/hello-world", item)
	assert.Equal(t, "[GitHub] new pull request in octocat/hello-world: #42 Bug (by alice)", line)
}
