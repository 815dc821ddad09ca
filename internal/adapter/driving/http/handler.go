// Package httphandler is the HTTP driving adapter that serves the admin API.
package httphandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ericfisherdev/repowatch/internal/application"
	"github.com/ericfisherdev/repowatch/internal/domain/port/driven"
	"github.com/ericfisherdev/repowatch/internal/format"
)

// Handler serves the subscription admin API.
type Handler struct {
	registry *application.Registry
	gh       driven.GitHubClient
	logger   *slog.Logger
}

// NewHandler creates a Handler with all required dependencies.
func NewHandler(registry *application.Registry, gh driven.GitHubClient, logger *slog.Logger) *Handler {
	return &Handler{
		registry: registry,
		gh:       gh,
		logger:   logger,
	}
}

// NewServeMux creates an http.Handler with all routes registered and wrapped
// with logging and recovery middleware. Extra registration functions let the
// composition root mount additional routes (the webhook receiver) behind the
// same middleware chain.
func NewServeMux(h *Handler, logger *slog.Logger, extra ...func(*http.ServeMux)) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/v1/subscriptions", h.Subscribe)
	mux.HandleFunc("DELETE /api/v1/subscriptions", h.Unsubscribe)
	mux.HandleFunc("GET /api/v1/subscriptions", h.ListSubscriptions)
	mux.HandleFunc("PUT /api/v1/recipients/{recipient}/default", h.SetDefaultRepo)
	mux.HandleFunc("GET /api/v1/recipients/{recipient}/default", h.GetDefaultRepo)
	mux.HandleFunc("GET /api/v1/repos/{owner}/{repo}/items/{number}", h.GetItemDetail)
	mux.HandleFunc("GET /api/v1/health", h.Health)
	mux.Handle("GET /metrics", promhttp.Handler())

	for _, register := range extra {
		register(mux)
	}

	// Recovery innermost so panics are caught before logging.
	wrapped := recoveryMiddleware(logger, mux)
	wrapped = loggingMiddleware(logger, wrapped)

	return wrapped
}

// Subscribe adds a recipient to a repository's subscription. The repository
// name is verified against GitHub before anything is recorded, so a typo
// never creates a dead entry.
func (h *Handler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var req SubscriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Recipient == "" {
		writeError(w, http.StatusBadRequest, "recipient is required")
		return
	}
	if !isValidRepoName(req.Repo) {
		writeError(w, http.StatusBadRequest, "invalid repository name: expected owner/repo format")
		return
	}

	display, already, err := h.registry.Subscribe(r.Context(), req.Repo, req.Recipient)
	if err != nil {
		if errors.Is(err, driven.ErrRepoNotFound) {
			writeError(w, http.StatusNotFound, "repository not found on GitHub")
			return
		}
		h.logger.Error("subscribe failed", "repo", req.Repo, "recipient", req.Recipient, "error", err)
		writeError(w, http.StatusBadGateway, "repository lookup failed")
		return
	}

	status := http.StatusCreated
	if already {
		status = http.StatusOK
	}
	writeJSON(w, status, SubscriptionResponse{
		Repo:              display,
		Recipient:         req.Recipient,
		AlreadySubscribed: already,
	})
}

// Unsubscribe removes a recipient from one repository, or from every
// repository when no repo query parameter is given.
func (h *Handler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	recipient := r.URL.Query().Get("recipient")
	if recipient == "" {
		writeError(w, http.StatusBadRequest, "recipient query parameter is required")
		return
	}

	repo := r.URL.Query().Get("repo")
	if repo == "" {
		removed := h.registry.UnsubscribeAll(r.Context(), recipient)
		writeJSON(w, http.StatusOK, UnsubscribeAllResponse{Recipient: recipient, RemovedFrom: removed})
		return
	}

	if err := h.registry.Unsubscribe(r.Context(), repo, recipient); err != nil {
		if errors.Is(err, application.ErrNotSubscribed) {
			writeError(w, http.StatusNotFound, "not subscribed to that repository")
			return
		}
		h.logger.Error("unsubscribe failed", "repo", repo, "recipient", recipient, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListSubscriptions returns the watch table. With a recipient query
// parameter it narrows to that recipient's repositories.
func (h *Handler) ListSubscriptions(w http.ResponseWriter, r *http.Request) {
	if recipient := r.URL.Query().Get("recipient"); recipient != "" {
		writeJSON(w, http.StatusOK, RecipientSubscriptionsResponse{
			Recipient: recipient,
			Repos:     h.registry.ListFor(recipient),
		})
		return
	}

	repos := h.registry.WatchedRepos()
	resp := make([]RepoSubscribersResponse, 0, len(repos))
	for _, repo := range repos {
		resp = append(resp, RepoSubscribersResponse{
			Repo:       repo,
			Recipients: h.registry.Recipients(repo),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// SetDefaultRepo records the repository used when the recipient issues
// commands without naming one.
func (h *Handler) SetDefaultRepo(w http.ResponseWriter, r *http.Request) {
	recipient := r.PathValue("recipient")

	var req DefaultRepoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !isValidRepoName(req.Repo) {
		writeError(w, http.StatusBadRequest, "invalid repository name: expected owner/repo format")
		return
	}

	h.registry.SetDefault(r.Context(), recipient, req.Repo)
	writeJSON(w, http.StatusOK, DefaultRepoResponse{Recipient: recipient, Repo: req.Repo})
}

// GetDefaultRepo returns the recipient's default repository.
func (h *Handler) GetDefaultRepo(w http.ResponseWriter, r *http.Request) {
	recipient := r.PathValue("recipient")

	repo, ok := h.registry.GetDefault(recipient)
	if !ok {
		writeError(w, http.StatusNotFound, "no default repository set")
		return
	}
	writeJSON(w, http.StatusOK, DefaultRepoResponse{Recipient: recipient, Repo: repo})
}

// GetItemDetail fetches one issue or pull request from GitHub and returns it
// both as structured fields and as the rendered chat text.
func (h *Handler) GetItemDetail(w http.ResponseWriter, r *http.Request) {
	owner := r.PathValue("owner")
	repo := r.PathValue("repo")

	number, err := strconv.Atoi(r.PathValue("number"))
	if err != nil || number < 1 {
		writeError(w, http.StatusBadRequest, "invalid item number")
		return
	}

	fullName := owner + "/" + repo
	if !isValidRepoName(fullName) {
		writeError(w, http.StatusBadRequest, "invalid repository name")
		return
	}

	detail, err := h.gh.FetchItemDetail(r.Context(), fullName, number)
	if err != nil {
		if errors.Is(err, driven.ErrRepoNotFound) {
			writeError(w, http.StatusNotFound, "issue or pull request not found")
			return
		}
		h.logger.Error("item detail fetch failed", "repo", fullName, "number", number, "error", err)
		writeError(w, http.StatusBadGateway, "GitHub lookup failed")
		return
	}

	writeJSON(w, http.StatusOK, toItemDetailResponse(fullName, *detail, format.ItemDetails(fullName, *detail)))
}

// Health returns a simple health check response.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
		Time:   time.Now().UTC().Format(time.RFC3339),
	})
}

// isValidRepoName validates that name is in owner/repo format where each part
// contains only alphanumeric characters, hyphens, dots, or underscores.
func isValidRepoName(name string) bool {
	parts := strings.SplitN(name, "/", 3)
	if len(parts) != 2 {
		return false
	}

	for _, part := range parts {
		if part == "" {
			return false
		}
		for _, ch := range part {
			if !isValidRepoChar(ch) {
				return false
			}
		}
	}

	return true
}

// isValidRepoChar returns true if the rune is allowed in a repository owner or name.
func isValidRepoChar(ch rune) bool {
	return (ch >= 'a' && ch <= 'z') ||
		(ch >= 'A' && ch <= 'Z') ||
		(ch >= '0' && ch <= '9') ||
		ch == '-' || ch == '.' || ch == '_'
}
