package model

// User is the GitHub account attached to an event entity or the event sender.
type User struct {
	Login string `json:"login"`
}

// Repository identifies the repository an event belongs to. For fork events
// the forkee is also a Repository.
type Repository struct {
	FullName string `json:"full_name"`
	Name     string `json:"name"`
	HTMLURL  string `json:"html_url"`
}

// Issue is the issue sub-payload of issues and issue_comment events.
type Issue struct {
	Number  int    `json:"number"`
	Title   string `json:"title"`
	State   string `json:"state"`
	User    *User  `json:"user"`
	HTMLURL string `json:"html_url"`
}

// BranchRef is one side of a pull request (head or base).
type BranchRef struct {
	Label string `json:"label"`
}

// PullRequest is the pull_request sub-payload of pull request events.
type PullRequest struct {
	Number  int        `json:"number"`
	Title   string     `json:"title"`
	State   string     `json:"state"`
	Merged  bool       `json:"merged"`
	User    *User      `json:"user"`
	HTMLURL string     `json:"html_url"`
	Head    *BranchRef `json:"head"`
	Base    *BranchRef `json:"base"`
}

// Comment covers issue comments, commit comments, discussion comments, and
// pull request review comments; they share the fields this system reads.
type Comment struct {
	Body     string `json:"body"`
	User     *User  `json:"user"`
	HTMLURL  string `json:"html_url"`
	CommitID string `json:"commit_id"`
}

// Discussion is the discussion sub-payload of discussion events.
type Discussion struct {
	Number  int    `json:"number"`
	Title   string `json:"title"`
	User    *User  `json:"user"`
	HTMLURL string `json:"html_url"`
}

// Review is the review sub-payload of pull_request_review events.
type Review struct {
	State   string `json:"state"`
	Body    string `json:"body"`
	User    *User  `json:"user"`
	HTMLURL string `json:"html_url"`
}

// ReviewThread is the thread sub-payload of pull_request_review_thread events.
type ReviewThread struct {
	Comments []Comment `json:"comments"`
	HTMLURL  string    `json:"html_url"`
}

// WebhookEvent is one decoded webhook delivery. Type comes from the
// X-GitHub-Event header, everything else from the JSON body. Sub-payloads
// not present in the body stay nil. The value lives only for the duration
// of one dispatch; nothing here is persisted.
type WebhookEvent struct {
	Type   string `json:"-"`
	Action string `json:"action"`

	Repository  *Repository   `json:"repository"`
	Sender      *User         `json:"sender"`
	Issue       *Issue        `json:"issue"`
	PullRequest *PullRequest  `json:"pull_request"`
	Comment     *Comment      `json:"comment"`
	Discussion  *Discussion   `json:"discussion"`
	Review      *Review       `json:"review"`
	Thread      *ReviewThread `json:"thread"`
	Forkee      *Repository   `json:"forkee"`

	// create event fields.
	RefType string `json:"ref_type"`
	Ref     string `json:"ref"`
}

// RepoFullName returns the repository display name for the event, or an
// empty string when the payload carried no repository.
func (e *WebhookEvent) RepoFullName() string {
	if e.Repository == nil {
		return ""
	}
	return e.Repository.FullName
}
