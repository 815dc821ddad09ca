package model

import "time"

// Item is one entry of the combined issue/PR listing used by the polling
// reconciler. GitHub's issues listing includes pull requests; IsPullRequest
// reflects the presence of the pull_request linkage on the raw item.
type Item struct {
	Number        int
	Title         string
	State         string
	Author        string
	CreatedAt     time.Time
	URL           string
	IsPullRequest bool
}

// ItemDetail is the full single-item fetch used by interactive lookups.
// PR-only fields (diff stats, branches, merged) are zero for plain issues.
type ItemDetail struct {
	Number    int
	Title     string
	State     string
	Author    string
	CreatedAt time.Time
	UpdatedAt time.Time
	URL       string
	Body      string

	Labels             []string
	Assignees          []string
	RequestedReviewers []string

	IsPullRequest bool
	Merged        bool
	HeadLabel     string
	BaseLabel     string
	Additions     int
	Deletions     int
	ChangedFiles  int
}
