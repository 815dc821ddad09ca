package format

import (
	"fmt"
	"strings"

	"github.com/ericfisherdev/repowatch/internal/domain/model"
)

const detailTimeLayout = "2006-01-02 15:04:05"

// ItemDetails renders the interactive lookup view of a single issue or pull
// request.
func ItemDetails(repo string, d model.ItemDetail) string {
	if d.IsPullRequest {
		return pullRequestDetails(repo, d)
	}
	return issueDetails(repo, d)
}

func issueDetails(repo string, d model.ItemDetail) string {
	state := "open"
	if d.State != "open" {
		state = "closed"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Issue details | %s#%d\n", repo, d.Number)
	fmt.Fprintf(&b, "title: %s\n", d.Title)
	fmt.Fprintf(&b, "state: %s\n", state)
	fmt.Fprintf(&b, "author: %s\n", d.Author)
	fmt.Fprintf(&b, "created: %s\n", d.CreatedAt.UTC().Format(detailTimeLayout))
	fmt.Fprintf(&b, "updated: %s\n", d.UpdatedAt.UTC().Format(detailTimeLayout))

	if len(d.Labels) > 0 {
		fmt.Fprintf(&b, "labels: %s\n", strings.Join(d.Labels, ", "))
	}
	if len(d.Assignees) > 0 {
		fmt.Fprintf(&b, "assignees: %s\n", strings.Join(d.Assignees, ", "))
	}

	writeBodyAndLink(&b, d)
	return b.String()
}

func pullRequestDetails(repo string, d model.ItemDetail) string {
	state := d.State
	if state == "closed" && d.Merged {
		state = "merged"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Pull request details | %s#%d\n", repo, d.Number)
	fmt.Fprintf(&b, "title: %s\n", d.Title)
	fmt.Fprintf(&b, "state: %s\n", state)
	fmt.Fprintf(&b, "author: %s\n", d.Author)
	fmt.Fprintf(&b, "created: %s\n", d.CreatedAt.UTC().Format(detailTimeLayout))
	fmt.Fprintf(&b, "updated: %s\n", d.UpdatedAt.UTC().Format(detailTimeLayout))
	fmt.Fprintf(&b, "branch: %s -> %s\n", orUnknown(d.HeadLabel), orUnknown(d.BaseLabel))

	if len(d.Labels) > 0 {
		fmt.Fprintf(&b, "labels: %s\n", strings.Join(d.Labels, ", "))
	}
	if len(d.RequestedReviewers) > 0 {
		fmt.Fprintf(&b, "reviewers: %s\n", strings.Join(d.RequestedReviewers, ", "))
	}
	if len(d.Assignees) > 0 {
		fmt.Fprintf(&b, "assignees: %s\n", strings.Join(d.Assignees, ", "))
	}

	fmt.Fprintf(&b, "additions: +%d\n", d.Additions)
	fmt.Fprintf(&b, "deletions: -%d\n", d.Deletions)
	fmt.Fprintf(&b, "changed files: %d\n", d.ChangedFiles)

	writeBodyAndLink(&b, d)
	return b.String()
}

func writeBodyAndLink(b *strings.Builder, d model.ItemDetail) {
	if d.Body != "" {
		fmt.Fprintf(b, "\nsummary:\n%s\n", Truncate(d.Body, bodyLimit))
	}
	fmt.Fprintf(b, "\nlink: %s", d.URL)
}

func orUnknown(s string) string {
	if s == "" {
		return "?"
	}
	return s
}
