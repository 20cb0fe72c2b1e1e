// Package changelog turns a staged diff into a suggested changelog entry and
// commit message.
package changelog

import (
	"strings"

	"github.com/adamking/ai-changelog/internal/config"
	"github.com/adamking/ai-changelog/internal/llm"
)

var systemPrompt = strings.TrimSpace(`
You write changelog entries and commit messages from a git diff.

Produce two sections.

First, a changelog entry in the Keep a Changelog format:
- Group items under "### Added", "### Changed", "### Deprecated", "### Removed", "### Fixed" or "### Security"; omit empty groups.
- Write one concise bullet per notable change, in the imperative mood.
- Under each bullet, list every affected file path on its own line, indented by two spaces and prefixed with "- ".
- Wrap every file path in backticks, for example ` + "`internal/config/config.go`" + `.

Second, a "### Commit message" section containing a single conventional commit subject line (type(scope): summary, at most 72 characters), optionally followed by a blank line and a short body.

Describe only what the diff shows. Do not invent changes and do not repeat the diff.`)

// SystemPrompt returns the fixed instruction sent with every request.
func SystemPrompt() string {
	return systemPrompt
}

// BuildRequest embeds diff verbatim as the user message.
func BuildRequest(diff string, cfg config.EffectiveConfig) llm.ChatRequest {
	return llm.ChatRequest{
		Model: cfg.Model,
		Messages: []llm.ChatMessage{
			{Role: llm.RoleSystem, Content: systemPrompt},
			{Role: llm.RoleUser, Content: diff},
		},
		MaxTokens:   cfg.MaxTokens,
		Temperature: cfg.Temperature,
	}
}
