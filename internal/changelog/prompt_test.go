package changelog

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/adamking/ai-changelog/internal/config"
	"github.com/adamking/ai-changelog/internal/llm"
	"github.com/adamking/ai-changelog/internal/llm/providers/openai"
)

var testConfig = config.EffectiveConfig{
	Model:       "gpt-4-1106-preview",
	Temperature: 0.3,
	MaxTokens:   500,
}

func TestBuildRequestCarriesConfigAndPrompt(t *testing.T) {
	req := BuildRequest("diff --git a/x b/x\n", testConfig)

	require.Equal(t, "gpt-4-1106-preview", req.Model)
	require.Equal(t, 500, req.MaxTokens)
	require.InDelta(t, 0.3, req.Temperature, 1e-9)
	require.Len(t, req.Messages, 2)
	require.Equal(t, llm.RoleSystem, req.Messages[0].Role)
	require.Equal(t, SystemPrompt(), req.Messages[0].Content)
	require.Equal(t, llm.RoleUser, req.Messages[1].Role)
	require.Equal(t, "diff --git a/x b/x\n", req.Messages[1].Content)
}

func TestSystemPromptDescribesFormat(t *testing.T) {
	prompt := SystemPrompt()
	for _, want := range []string{"### Added", "### Changed", "### Fixed", "indented", "backticks", "Commit message"} {
		require.Contains(t, prompt, want)
	}
}

func TestBuildRequestRoundTripsDiff(t *testing.T) {
	diffs := []string{
		"",
		"plain",
		"diff --git a/main.go b/main.go\n--- a/main.go\n+++ b/main.go\n@@ -1 +1 @@\n-fmt.Println(\"hi\")\n+fmt.Println(\"héllo, 世界\")\n",
		"quotes \" ' ` and backslashes \\ \\\\n literal",
		"tabs\tand\r\nCRLF and <html> & entities &amp;",
		"emoji 🚀 and combining é and RTL ‮ text",
		"control \x01\x1f chars and null \x00",
	}

	for _, diff := range diffs {
		payload, err := openai.MarshalRequest(BuildRequest(diff, testConfig))
		require.NoError(t, err)

		var decoded struct {
			Messages []llm.ChatMessage `json:"messages"`
		}
		require.NoError(t, json.Unmarshal(payload, &decoded))
		require.Len(t, decoded.Messages, 2)
		require.Equal(t, diff, decoded.Messages[1].Content)
	}
}
