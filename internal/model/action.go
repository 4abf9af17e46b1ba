package model

import (
	"time"
)

// ActionType identifies a side-effecting action.
type ActionType string

const (
	ActionSendEmail   ActionType = "send_email"
	ActionCreateEvent ActionType = "create_event"
)

// ActionKind is the outcome of an action attempt.
type ActionKind string

const (
	ActionSuccess ActionKind = "success"
	ActionFailure ActionKind = "failure"
	ActionSkipped ActionKind = "skipped"
)

// ActionResult describes what happened to an extracted intent during one turn.
type ActionResult struct {
	Type       ActionType         `json:"type"`
	Kind       ActionKind         `json:"kind"`
	Email      *SendEmailIntent   `json:"email,omitempty"`
	Event      *CreateEventIntent `json:"event,omitempty"`
	ProviderID string             `json:"provider_id,omitempty"`
	Link       string             `json:"link,omitempty"`
	Error      string             `json:"error,omitempty"`
}

// ActionEvent is the audit record published for every action result.
type ActionEvent struct {
	ID        string       `json:"id"`
	TurnID    string       `json:"turn_id"`
	UserID    string       `json:"user_id"`
	Result    ActionResult `json:"result"`
	CreatedAt time.Time    `json:"created_at"`
}

// EmailSummary is a read-only projection of a Gmail message.
type EmailSummary struct {
	ID       string `json:"id"`
	ThreadID string `json:"thread_id"`
	From     string `json:"from"`
	Subject  string `json:"subject"`
	Date     string `json:"date"`
	Snippet  string `json:"snippet"`
}

// CalendarEventSummary is a read-only projection of a Calendar event.
type CalendarEventSummary struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	AllDay   bool      `json:"all_day"`
	Location string    `json:"location,omitempty"`
	Link     string    `json:"link,omitempty"`
}

// EventQuery bounds a calendar listing.
type EventQuery struct {
	TimeMin time.Time
	TimeMax time.Time
	Limit   int
}

// SendResult is returned by a successful message send.
type SendResult struct {
	ID       string `json:"id"`
	ThreadID string `json:"thread_id"`
}
