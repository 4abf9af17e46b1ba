package middleware

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/capitalize-ai/workspace-assistant/internal/model"
)

const (
	// MaxTranscriptMessages caps the messages accepted in one chat request.
	MaxTranscriptMessages = 100
	// MaxMessageBytes caps the size of one message.
	MaxMessageBytes = 100000
)

// ValidateMessageContent validates message content.
func ValidateMessageContent(content string) error {
	if len(content) == 0 {
		return errors.New("content cannot be empty")
	}
	if len(content) > MaxMessageBytes {
		return errors.New("content exceeds maximum length")
	}
	if !utf8.ValidString(content) {
		return errors.New("content must be valid UTF-8")
	}
	return nil
}

// ValidateChatRequest rejects malformed transcripts before any collaborator runs.
func ValidateChatRequest(req *model.ChatRequest) error {
	if len(req.Messages) == 0 {
		return errors.New("messages cannot be empty")
	}
	if len(req.Messages) > MaxTranscriptMessages {
		return fmt.Errorf("at most %d messages are allowed", MaxTranscriptMessages)
	}
	for i, msg := range req.Messages {
		if msg.Role != model.RoleUser && msg.Role != model.RoleAssistant {
			return fmt.Errorf("message %d: role must be user or assistant", i)
		}
		if err := ValidateMessageContent(msg.Content); err != nil {
			return fmt.Errorf("message %d: %w", i, err)
		}
	}
	if req.Messages[len(req.Messages)-1].Role != model.RoleUser {
		return errors.New("last message must come from the user")
	}
	return nil
}

// ValidateService parses a service name from a URL parameter.
func ValidateService(name string) (model.Service, error) {
	svc, ok := model.ParseService(name)
	if !ok {
		return "", fmt.Errorf("unknown service %q", name)
	}
	return svc, nil
}
