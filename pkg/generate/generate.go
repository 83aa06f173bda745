// Package generate talks to the text and image generation services and
// turns their answers into outlines, narrations and slide images.
package generate

import (
	"context"
	"errors"
)

// Role is the author of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one chat turn.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

const (
	DefaultOutlineModel   = "gpt-4-turbo-preview"
	DefaultNarrationModel = "gpt-4"
	DefaultTemperature    = 0.7
)

// ErrEmptyResponse is returned when a service answers without content.
var ErrEmptyResponse = errors.New("generate: empty response")

// TextGenerator completes a chat.
type TextGenerator interface {
	GenerateText(ctx context.Context, messages []Message, model string, temperature float64) (string, error)
}

// ImageGenerator produces an image for a prompt and returns its URL. An
// empty URL with a nil error means the service produced nothing.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, prompt string) (string, error)
}

// split separates system instructions from the conversation.
func split(messages []Message) (system []string, rest []Message) {
	for _, m := range messages {
		if m.Role == RoleSystem {
			system = append(system, m.Content)
			continue
		}
		rest = append(rest, m)
	}
	return system, rest
}
