package changelog

import (
	"context"
	"io"

	"go.uber.org/zap"

	"github.com/adamking/ai-changelog/internal/config"
	"github.com/adamking/ai-changelog/internal/llm"
	"github.com/adamking/ai-changelog/internal/llm/providers/openai"
	"github.com/adamking/ai-changelog/internal/observability"
)

// Collector supplies the staged diff.
type Collector interface {
	StagedDiff(ctx context.Context) (string, error)
}

// Pipeline runs collect -> build -> send -> parse -> present once.
type Pipeline struct {
	Collector Collector
	Sender    llm.Sender
	Out       io.Writer
	Logger    *zap.Logger
	Present   PresentOptions
	Metrics   *observability.Metrics
}

// Run executes the pipeline with cfg. Nothing is written to Out unless every
// earlier step succeeded.
func (p *Pipeline) Run(ctx context.Context, cfg config.EffectiveConfig) error {
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	diff, err := p.Collector.StagedDiff(ctx)
	if err != nil {
		return err
	}

	req := BuildRequest(diff, cfg)
	logger.Debug("built completion request",
		zap.String("model", req.Model),
		zap.Float64("temperature", req.Temperature),
		zap.Int("max_tokens", req.MaxTokens),
		zap.Int("diff_bytes", len(diff)))

	raw, err := p.Sender.Send(ctx, req)
	if err != nil {
		return err
	}

	completion, err := openai.ParseCompletion(raw)
	if err != nil {
		return err
	}
	p.Metrics.RecordTokens(completion.PromptTokens, completion.CompletionTokens)
	if completion.FinishReason == "length" {
		logger.Warn("response was cut off by max_tokens; consider raising --max-tokens",
			zap.Int("max_tokens", req.MaxTokens))
	}
	logger.Debug("received completion",
		zap.String("finish_reason", completion.FinishReason),
		zap.Int("prompt_tokens", completion.PromptTokens),
		zap.Int("completion_tokens", completion.CompletionTokens))

	return Present(p.Out, completion.Content, p.Present)
}
