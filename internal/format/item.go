package format

import (
	"strconv"
	"strings"

	"github.com/ericfisherdev/repowatch/internal/domain/model"
)

// NewItem renders the simplified one-line message the polling path emits for
// an item that appeared since the last check. Unlike the webhook projectors
// it carries no action semantics: the item is simply new.
func NewItem(repo string, item model.Item) string {
	kind := "issue"
	if item.IsPullRequest {
		kind = "pull request"
	}

	var b strings.Builder
	b.WriteString("[GitHub] new " + kind + " in " + repo + ": ")
	b.WriteString("#" + strconv.Itoa(item.Number) + " " + item.Title)
	if item.Author != "" {
		b.WriteString(" (by " + item.Author + ")")
	}
	if item.URL != "" {
		b.WriteString(" " + item.URL)
	}

	return b.String()
}
