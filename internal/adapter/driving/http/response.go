package httphandler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ericfisherdev/repowatch/internal/domain/model"
)

// writeJSON marshals v to JSON and writes it to the response with the given
// status code. If marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError writes a JSON error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// errorResponse is the standard error response body.
type errorResponse struct {
	Error string `json:"error"`
}

// SubscriptionRequest is the body of POST /api/v1/subscriptions.
type SubscriptionRequest struct {
	Repo      string `json:"repo"`
	Recipient string `json:"recipient"`
}

// SubscriptionResponse confirms a subscription. Repo carries the canonical
// display name GitHub reports, which may differ in casing from the request.
type SubscriptionResponse struct {
	Repo              string `json:"repo"`
	Recipient         string `json:"recipient"`
	AlreadySubscribed bool   `json:"already_subscribed"`
}

// UnsubscribeAllResponse lists the repositories a recipient was removed from.
type UnsubscribeAllResponse struct {
	Recipient   string   `json:"recipient"`
	RemovedFrom []string `json:"removed_from"`
}

// RecipientSubscriptionsResponse lists one recipient's repositories.
type RecipientSubscriptionsResponse struct {
	Recipient string   `json:"recipient"`
	Repos     []string `json:"repos"`
}

// RepoSubscribersResponse lists one repository's subscribers.
type RepoSubscribersResponse struct {
	Repo       string   `json:"repo"`
	Recipients []string `json:"recipients"`
}

// DefaultRepoRequest is the body of PUT /api/v1/recipients/{recipient}/default.
type DefaultRepoRequest struct {
	Repo string `json:"repo"`
}

// DefaultRepoResponse reports a recipient's default repository.
type DefaultRepoResponse struct {
	Recipient string `json:"recipient"`
	Repo      string `json:"repo"`
}

// ItemDetailResponse is the JSON representation of one issue or pull request,
// plus the rendered chat text for clients that just relay it.
type ItemDetailResponse struct {
	Repo          string   `json:"repo"`
	Number        int      `json:"number"`
	Title         string   `json:"title"`
	State         string   `json:"state"`
	Author        string   `json:"author"`
	IsPullRequest bool     `json:"is_pull_request"`
	Merged        bool     `json:"merged,omitempty"`
	Labels        []string `json:"labels,omitempty"`
	Assignees     []string `json:"assignees,omitempty"`
	Reviewers     []string `json:"reviewers,omitempty"`
	Additions     int      `json:"additions,omitempty"`
	Deletions     int      `json:"deletions,omitempty"`
	ChangedFiles  int      `json:"changed_files,omitempty"`
	CreatedAt     string   `json:"created_at"`
	UpdatedAt     string   `json:"updated_at"`
	URL           string   `json:"url"`
	Text          string   `json:"text"`
}

// HealthResponse is the health check response body.
type HealthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}

func toItemDetailResponse(repo string, d model.ItemDetail, text string) ItemDetailResponse {
	return ItemDetailResponse{
		Repo:          repo,
		Number:        d.Number,
		Title:         d.Title,
		State:         d.State,
		Author:        d.Author,
		IsPullRequest: d.IsPullRequest,
		Merged:        d.Merged,
		Labels:        d.Labels,
		Assignees:     d.Assignees,
		Reviewers:     d.RequestedReviewers,
		Additions:     d.Additions,
		Deletions:     d.Deletions,
		ChangedFiles:  d.ChangedFiles,
		CreatedAt:     d.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:     d.UpdatedAt.UTC().Format(time.RFC3339),
		URL:           d.URL,
		Text:          text,
	}
}
