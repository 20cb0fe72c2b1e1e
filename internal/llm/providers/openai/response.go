package openai

import (
	"encoding/json"
	"strings"

	"github.com/adamking/ai-changelog/internal/clierr"
)

// Completion is the part of a chat-completions response the tool uses.
type Completion struct {
	Content          string
	FinishReason     string
	PromptTokens     int
	CompletionTokens int
}

type chatResponse struct {
	Choices []struct {
		FinishReason string `json:"finish_reason"`
		Message      struct {
			Role    string  `json:"role"`
			Content *string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

// ParseCompletion extracts the first choice from raw. It fails with a
// protocol error when the content is missing or blank.
func ParseCompletion(raw []byte) (Completion, error) {
	var resp chatResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return Completion{}, clierr.Protocol(err, "malformed response")
	}
	if len(resp.Choices) == 0 {
		return Completion{}, clierr.Protocol(nil, "malformed response: no choices")
	}

	choice := resp.Choices[0]
	if choice.Message.Content == nil {
		return Completion{}, clierr.Protocol(nil, "malformed response: choices[0].message.content is missing")
	}
	if strings.TrimSpace(*choice.Message.Content) == "" {
		return Completion{}, clierr.Protocol(nil, "empty response",
			"the model returned no text; try again or raise max_tokens")
	}

	return Completion{
		Content:          *choice.Message.Content,
		FinishReason:     choice.FinishReason,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
	}, nil
}

// ParseContent returns only the generated text of raw.
func ParseContent(raw []byte) (string, error) {
	c, err := ParseCompletion(raw)
	if err != nil {
		return "", err
	}
	return c.Content, nil
}
