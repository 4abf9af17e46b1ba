// Package model defines data structures for the workspace assistant.
package model

import (
	"strings"
)

// Role represents the role of a message sender.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// ChatMessage is one entry of a conversation transcript.
type ChatMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Transcript is the ordered message history replayed by the client on every turn.
type Transcript []ChatMessage

// Window returns the last n messages, oldest first.
func (t Transcript) Window(n int) Transcript {
	if len(t) <= n {
		return t
	}
	return t[len(t)-n:]
}

// LastUserMessage returns the most recent user-authored message.
func (t Transcript) LastUserMessage() (ChatMessage, bool) {
	for i := len(t) - 1; i >= 0; i-- {
		if t[i].Role == RoleUser {
			return t[i], true
		}
	}
	return ChatMessage{}, false
}

// LastUserText returns the lower-cased content of the most recent user message.
func (t Transcript) LastUserText() string {
	msg, ok := t.LastUserMessage()
	if !ok {
		return ""
	}
	return strings.ToLower(msg.Content)
}

// Connectors carries the UI connector toggles sent with a chat request.
type Connectors struct {
	Gmail    bool `json:"gmail"`
	Calendar bool `json:"calendar"`
}

// Enabled reports whether the toggle for a service is on.
func (c Connectors) Enabled(s Service) bool {
	switch s {
	case ServiceGmail:
		return c.Gmail
	case ServiceCalendar:
		return c.Calendar
	default:
		return false
	}
}

// ChatRequest is the request body of the chat endpoint.
type ChatRequest struct {
	Messages   Transcript `json:"messages"`
	Connectors Connectors `json:"connectors"`
	Model      string     `json:"model,omitempty"`
}

// TokenEvent represents a streaming token event.
type TokenEvent struct {
	Token string `json:"token"`
	Index int    `json:"index"`
}

// DoneEvent terminates a chat stream.
type DoneEvent struct {
	TurnID  string         `json:"turn_id"`
	Actions []ActionResult `json:"actions,omitempty"`
}

// ErrorResponse is the JSON body of every non-2xx API response.
type ErrorResponse struct {
	Error      string `json:"error"`
	RequestID  string `json:"request_id,omitempty"`
	RetryAfter int    `json:"retry_after,omitempty"`
}

// ErrorEvent represents an error event.
type ErrorEvent struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	RetryAfter int    `json:"retry_after,omitempty"`
}
