// Package format contains the pure projectors that turn GitHub activity
// into notification messages. Every projector either returns a formatted
// message or reports false when the event's action is not user-relevant;
// declining is never an error.
package format

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/ericfisherdev/repowatch/internal/domain/model"
)

// bodyLimit is the character budget for free-text bodies (comments,
// discussion content, review summaries). The ellipsis marker counts
// against the budget.
const bodyLimit = 200

// projectors maps an X-GitHub-Event type to its projector. Adding an event
// kind means adding exactly one entry here plus its function below.
var projectors = map[string]func(model.WebhookEvent) (string, bool){
	"issues":                      issueMessage,
	"pull_request":                pullRequestMessage,
	"issue_comment":               issueCommentMessage,
	"commit_comment":              commitCommentMessage,
	"discussion":                  discussionMessage,
	"discussion_comment":          discussionCommentMessage,
	"fork":                        forkMessage,
	"pull_request_review_comment": reviewCommentMessage,
	"pull_request_review":         reviewMessage,
	"pull_request_review_thread":  reviewThreadMessage,
	"star":                        starMessage,
	"create":                      createMessage,
}

// Event projects a webhook event to a notification message. The second
// return is false when the event type has no projector or the projector
// declined the action.
func Event(evt model.WebhookEvent) (string, bool) {
	project, ok := projectors[evt.Type]
	if !ok {
		return "", false
	}
	return project(evt)
}

// Known reports whether the event type has a registered projector.
func Known(eventType string) bool {
	_, ok := projectors[eventType]
	return ok
}

// Truncate trims the text and cuts it down to limit characters, appending
// "..." when a cut happened. The marker is counted inside the limit; a
// limit too small to hold the marker cuts hard without one.
func Truncate(text string, limit int) string {
	value := strings.TrimSpace(text)
	if utf8.RuneCountInString(value) <= limit {
		return value
	}
	if limit <= 0 {
		return ""
	}

	runes := []rune(value)
	if limit <= 3 {
		return string(runes[:limit])
	}
	return string(runes[:limit-3]) + "..."
}

// actor resolves the display name for who triggered an event: the explicit
// sender first, then the entity's own author, then "unknown". Never blank.
func actor(sender *model.User, author *model.User) string {
	if sender != nil && sender.Login != "" {
		return sender.Login
	}
	if author != nil && author.Login != "" {
		return author.Login
	}
	return "unknown"
}

// joinLines drops empty lines and joins the rest with newlines.
func joinLines(lines []string) string {
	kept := lines[:0]
	for _, line := range lines {
		if line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}

func issueMessage(evt model.WebhookEvent) (string, bool) {
	if evt.Issue == nil {
		return "", false
	}

	labels := map[string]string{
		"opened":   "opened",
		"closed":   "closed",
		"reopened": "reopened",
	}
	label, ok := labels[evt.Action]
	if !ok {
		return "", false
	}

	lines := []string{
		"[GitHub] issue update in " + evt.RepoFullName(),
		"#" + strconv.Itoa(evt.Issue.Number) + " " + evt.Issue.Title,
		"event: " + label,
		"actor: " + actor(evt.Sender, evt.Issue.User),
	}
	if evt.Issue.HTMLURL != "" {
		lines = append(lines, "link: "+evt.Issue.HTMLURL)
	}

	return joinLines(lines), true
}

func pullRequestMessage(evt model.WebhookEvent) (string, bool) {
	pr := evt.PullRequest
	if pr == nil {
		return "", false
	}

	labels := map[string]string{
		"opened":   "opened",
		"closed":   "closed",
		"reopened": "reopened",
	}
	if evt.Action == "closed" && pr.Merged {
		labels["closed"] = "merged"
	}
	label, ok := labels[evt.Action]
	if !ok {
		return "", false
	}

	lines := []string{
		"[GitHub] pull request update in " + evt.RepoFullName(),
		"#" + strconv.Itoa(pr.Number) + " " + pr.Title,
		"event: " + label,
		"actor: " + actor(evt.Sender, pr.User),
		"branch: " + branchLabel(pr.Head) + " -> " + branchLabel(pr.Base),
	}
	if pr.HTMLURL != "" {
		lines = append(lines, "link: "+pr.HTMLURL)
	}

	return joinLines(lines), true
}

func issueCommentMessage(evt model.WebhookEvent) (string, bool) {
	if evt.Issue == nil || evt.Comment == nil {
		return "", false
	}

	labels := map[string]string{
		"created": "comment added",
		"edited":  "comment edited",
		"deleted": "comment deleted",
	}
	label, ok := labels[evt.Action]
	if !ok {
		return "", false
	}

	lines := []string{
		"[GitHub] issue comment update in " + evt.RepoFullName(),
		"issue #" + strconv.Itoa(evt.Issue.Number) + " " + evt.Issue.Title,
		"event: " + label,
		"actor: " + actor(evt.Sender, evt.Comment.User),
	}

	// A deleted comment's body is gone; never echo it even when the
	// payload still carries the text.
	if evt.Action != "deleted" && evt.Comment.Body != "" {
		lines = append(lines, "comment:", Truncate(evt.Comment.Body, bodyLimit))
	}

	if url := firstURL(evt.Comment.HTMLURL, evt.Issue.HTMLURL); url != "" {
		lines = append(lines, "link: "+url)
	}

	return joinLines(lines), true
}

func commitCommentMessage(evt model.WebhookEvent) (string, bool) {
	if evt.Comment == nil {
		return "", false
	}
	if evt.Action != "" && evt.Action != "created" {
		return "", false
	}

	short := "unknown"
	if evt.Comment.CommitID != "" {
		short = evt.Comment.CommitID
		if len(short) > 7 {
			short = short[:7]
		}
	}

	lines := []string{
		"[GitHub] commit comment in " + evt.RepoFullName(),
		"commit: " + short,
		"actor: " + actor(evt.Sender, evt.Comment.User),
	}
	if evt.Comment.Body != "" {
		lines = append(lines, "comment:", Truncate(evt.Comment.Body, bodyLimit))
	}
	if evt.Comment.HTMLURL != "" {
		lines = append(lines, "link: "+evt.Comment.HTMLURL)
	}

	return joinLines(lines), true
}

func discussionMessage(evt model.WebhookEvent) (string, bool) {
	if evt.Discussion == nil {
		return "", false
	}

	labels := map[string]string{
		"created":    "discussion created",
		"edited":     "discussion edited",
		"answered":   "marked answered",
		"unanswered": "answer unmarked",
		"labeled":    "label added",
		"unlabeled":  "label removed",
	}
	label, ok := labels[evt.Action]
	if !ok {
		return "", false
	}

	lines := []string{
		"[GitHub] discussion update in " + evt.RepoFullName(),
		"discussion #" + strconv.Itoa(evt.Discussion.Number) + " " + evt.Discussion.Title,
		"event: " + label,
		"actor: " + actor(evt.Sender, evt.Discussion.User),
	}
	if evt.Discussion.HTMLURL != "" {
		lines = append(lines, "link: "+evt.Discussion.HTMLURL)
	}

	return joinLines(lines), true
}

func discussionCommentMessage(evt model.WebhookEvent) (string, bool) {
	if evt.Discussion == nil || evt.Comment == nil {
		return "", false
	}

	labels := map[string]string{
		"created": "comment added",
		"edited":  "comment edited",
		"deleted": "comment deleted",
	}
	label, ok := labels[evt.Action]
	if !ok {
		return "", false
	}

	lines := []string{
		"[GitHub] discussion comment update in " + evt.RepoFullName(),
		"discussion #" + strconv.Itoa(evt.Discussion.Number) + " " + evt.Discussion.Title,
		"event: " + label,
		"actor: " + actor(evt.Sender, evt.Comment.User),
	}
	if evt.Action != "deleted" && evt.Comment.Body != "" {
		lines = append(lines, "comment:", Truncate(evt.Comment.Body, bodyLimit))
	}
	if url := firstURL(evt.Comment.HTMLURL, evt.Discussion.HTMLURL); url != "" {
		lines = append(lines, "link: "+url)
	}

	return joinLines(lines), true
}

func forkMessage(evt model.WebhookEvent) (string, bool) {
	if evt.Forkee == nil {
		return "", false
	}

	forkName := evt.Forkee.FullName
	if forkName == "" {
		forkName = evt.Forkee.Name
	}
	if forkName == "" {
		forkName = "unknown"
	}

	lines := []string{
		"[GitHub] " + evt.RepoFullName() + " was forked",
		"fork: " + forkName,
		"actor: " + actor(evt.Sender, nil),
	}
	if evt.Forkee.HTMLURL != "" {
		lines = append(lines, "link: "+evt.Forkee.HTMLURL)
	}

	return joinLines(lines), true
}

func reviewCommentMessage(evt model.WebhookEvent) (string, bool) {
	if evt.PullRequest == nil || evt.Comment == nil {
		return "", false
	}

	labels := map[string]string{
		"created": "review comment added",
		"edited":  "review comment edited",
		"deleted": "review comment deleted",
	}
	label, ok := labels[evt.Action]
	if !ok {
		return "", false
	}

	lines := []string{
		"[GitHub] review comment update in " + evt.RepoFullName(),
		"PR #" + strconv.Itoa(evt.PullRequest.Number) + " " + evt.PullRequest.Title,
		"event: " + label,
		"actor: " + actor(evt.Sender, evt.Comment.User),
	}
	if evt.Action != "deleted" && evt.Comment.Body != "" {
		lines = append(lines, "comment:", Truncate(evt.Comment.Body, bodyLimit))
	}
	if url := firstURL(evt.Comment.HTMLURL, evt.PullRequest.HTMLURL); url != "" {
		lines = append(lines, "link: "+url)
	}

	return joinLines(lines), true
}

func reviewMessage(evt model.WebhookEvent) (string, bool) {
	if evt.PullRequest == nil || evt.Review == nil {
		return "", false
	}

	labels := map[string]string{
		"submitted": "review submitted",
		"edited":    "review edited",
		"dismissed": "review dismissed",
	}
	label, ok := labels[evt.Action]
	if !ok {
		return "", false
	}

	state := strings.ToUpper(evt.Review.State)
	if state == "" {
		state = "N/A"
	}

	lines := []string{
		"[GitHub] review update in " + evt.RepoFullName(),
		"PR #" + strconv.Itoa(evt.PullRequest.Number) + " " + evt.PullRequest.Title,
		"event: " + label,
		"state: " + state,
		"actor: " + actor(evt.Sender, evt.Review.User),
	}
	if evt.Review.Body != "" {
		lines = append(lines, "review:", Truncate(evt.Review.Body, bodyLimit))
	}
	if url := firstURL(evt.Review.HTMLURL, evt.PullRequest.HTMLURL); url != "" {
		lines = append(lines, "link: "+url)
	}

	return joinLines(lines), true
}

func reviewThreadMessage(evt model.WebhookEvent) (string, bool) {
	if evt.PullRequest == nil || evt.Thread == nil {
		return "", false
	}

	labels := map[string]string{
		"created":    "review thread created",
		"resolved":   "review thread resolved",
		"unresolved": "review thread reopened",
	}
	label, ok := labels[evt.Action]
	if !ok {
		return "", false
	}

	var body string
	if len(evt.Thread.Comments) > 0 {
		body = evt.Thread.Comments[0].Body
	}

	lines := []string{
		"[GitHub] review thread update in " + evt.RepoFullName(),
		"PR #" + strconv.Itoa(evt.PullRequest.Number) + " " + evt.PullRequest.Title,
		"event: " + label,
		"actor: " + actor(evt.Sender, nil),
	}
	if body != "" {
		lines = append(lines, "thread:", Truncate(body, bodyLimit))
	}
	if url := firstURL(evt.Thread.HTMLURL, evt.PullRequest.HTMLURL); url != "" {
		lines = append(lines, "link: "+url)
	}

	return joinLines(lines), true
}

func starMessage(evt model.WebhookEvent) (string, bool) {
	labels := map[string]string{
		"created": "starred",
		"deleted": "star removed",
	}
	label, ok := labels[evt.Action]
	if !ok {
		return "", false
	}

	lines := []string{
		"[GitHub] star update",
		"repo: " + evt.RepoFullName(),
		"actor: " + actor(evt.Sender, nil),
		"event: " + label,
	}

	return joinLines(lines), true
}

func createMessage(evt model.WebhookEvent) (string, bool) {
	if evt.RefType == "" {
		return "", false
	}

	lines := []string{
		"[GitHub] create event",
		"repo: " + evt.RepoFullName(),
		"actor: " + actor(evt.Sender, nil),
	}

	switch evt.RefType {
	case "repository":
		lines = append(lines, "created a new repository")
	case "branch":
		lines = append(lines, "created branch: "+evt.Ref)
	case "tag":
		lines = append(lines, "created tag: "+evt.Ref)
	default:
		lines = append(lines, "created "+evt.RefType+": "+evt.Ref)
	}

	return joinLines(lines), true
}

func branchLabel(ref *model.BranchRef) string {
	if ref == nil || ref.Label == "" {
		return "?"
	}
	return ref.Label
}

// firstURL returns the first non-empty URL, letting an entity's own link win
// over its parent's.
func firstURL(urls ...string) string {
	for _, u := range urls {
		if u != "" {
			return u
		}
	}
	return ""
}
