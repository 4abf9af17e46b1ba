// Package google wraps the Gmail and Calendar APIs behind the narrow
// read/act surface the assistant needs. Every call carries the caller's
// bearer token; no client holds a long-lived identity.
package google

import (
	"golang.org/x/oauth2"
	"google.golang.org/api/option"

	"github.com/capitalize-ai/workspace-assistant/internal/model"
)

// detailConcurrency bounds parallel per-message fetches.
const detailConcurrency = 4

func clientOptions(base []option.ClientOption, token *model.AccessToken) []option.ClientOption {
	opts := make([]option.ClientOption, 0, len(base)+1)
	opts = append(opts, option.WithTokenSource(oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: token.Token,
		TokenType:   "Bearer",
	})))
	// Caller options come last so tests can swap the transport.
	return append(opts, base...)
}
