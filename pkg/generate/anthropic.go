package generate

import (
	"context"
	"fmt"
	"strings"

	"github.com/aktagon/llmkit/anthropic"
	"github.com/aktagon/llmkit/anthropic/types"
)

const (
	DefaultAnthropicModel     = "claude-3-5-sonnet-latest"
	DefaultAnthropicMaxTokens = 4000
)

// Anthropic generates text with the Anthropic messages API. The prompt call
// is single-turn, so earlier turns are folded into the user prompt.
type Anthropic struct {
	apiKey    string
	model     string
	maxTokens int
}

func NewAnthropic(apiKey, model string, maxTokens int) *Anthropic {
	if model == "" {
		model = DefaultAnthropicModel
	}
	if maxTokens <= 0 {
		maxTokens = DefaultAnthropicMaxTokens
	}
	return &Anthropic{apiKey: apiKey, model: model, maxTokens: maxTokens}
}

// GenerateText ignores OpenAI model names and uses the configured model.
func (a *Anthropic) GenerateText(ctx context.Context, messages []Message, _ string, temperature float64) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	system, rest := split(messages)
	var user strings.Builder
	for i, m := range rest {
		if i > 0 {
			user.WriteString("\n\n")
		}
		if m.Role == RoleAssistant {
			user.WriteString("Previous answer:\n")
		}
		user.WriteString(m.Content)
	}

	settings := types.RequestSettings{
		Model:       a.model,
		MaxTokens:   a.maxTokens,
		Temperature: temperature,
	}
	response, err := anthropic.PromptWithSettings(strings.Join(system, "\n\n"), user.String(), "", a.apiKey, settings)
	if err != nil {
		return "", fmt.Errorf("anthropic prompt: %w", err)
	}
	if len(response.Content) == 0 {
		return "", ErrEmptyResponse
	}
	return response.Content[0].Text, nil
}
