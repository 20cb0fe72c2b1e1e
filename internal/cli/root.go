package cli

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/adamking/ai-changelog/internal/changelog"
	"github.com/adamking/ai-changelog/internal/clierr"
	"github.com/adamking/ai-changelog/internal/config"
	"github.com/adamking/ai-changelog/internal/git"
	"github.com/adamking/ai-changelog/internal/llm/providers/openai"
	"github.com/adamking/ai-changelog/internal/logging"
	"github.com/adamking/ai-changelog/internal/observability"
	"github.com/adamking/ai-changelog/internal/version"
)

// Options holds global CLI options.
type Options struct {
	ConfigPath  string
	Model       string
	Temperature float64
	MaxTokens   int
	Verbose     bool
	Render      bool
	MetricsFile string
}

// deps are the process-level collaborators; tests replace them.
type deps struct {
	workDir    string
	getenv     func(string) string
	httpClient *http.Client
	sleep      func(ctx context.Context, d time.Duration) error
}

// NewRootCmd constructs the ai-changelog command.
func NewRootCmd() *cobra.Command {
	return newRootCmd(deps{getenv: os.Getenv})
}

func newRootCmd(d deps) *cobra.Command {
	opts := &Options{}

	cmd := &cobra.Command{
		Use:   version.Name,
		Short: "Suggest a changelog entry and commit message for the staged changes",
		Long: `ai-changelog sends the staged git diff (excluding CHANGELOG.md) to an
OpenAI-compatible chat completions API and prints a suggested changelog entry
and commit message.

The API key is read from ` + openai.APIKeyEnv + `. Defaults can be set in a JSON
file at ~/` + config.DefaultFileName + ` with the keys model, temperature,
max_tokens and base_url.`,
		Version:       version.Full(),
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, opts)
			if err != nil {
				return err
			}

			logger, err := logging.NewLogger(logging.LevelFor(cfg.Verbose), "console")
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck // best-effort

			logConfig(logger, cfg)

			metrics := observability.NewMetrics()
			p := &changelog.Pipeline{
				Collector: git.NewCollector(d.workDir, logger),
				Sender:    newClient(d, cfg, logger, openai.WithMetrics(metrics)),
				Out:       cmd.OutOrStdout(),
				Logger:    logger,
				Present:   changelog.PresentOptions{Render: opts.Render},
				Metrics:   metrics,
			}
			start := time.Now()
			err = p.Run(cmd.Context(), cfg)
			metrics.RecordRun(err, time.Since(start))
			if opts.MetricsFile != "" {
				if werr := metrics.WriteTextfile(opts.MetricsFile); werr != nil {
					logger.Warn("failed to write metrics file",
						zap.String("path", opts.MetricsFile), zap.Error(werr))
				}
			}
			return err
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.ConfigPath, "config", "", "Path to config file (default: ~/"+config.DefaultFileName+")")
	flags.StringVarP(&opts.Model, "model", "m", config.DefaultModel, "Model name")
	flags.Float64VarP(&opts.Temperature, "temperature", "t", config.DefaultTemperature, "Sampling temperature (0-2)")
	flags.IntVarP(&opts.MaxTokens, "max-tokens", "k", config.DefaultMaxTokens, "Maximum tokens in the response")
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "Print diagnostic logs to stderr")
	cmd.Flags().BoolVar(&opts.Render, "render", false, "Render the markdown for the terminal")
	cmd.Flags().StringVar(&opts.MetricsFile, "metrics-file", "", "Write run metrics in Prometheus text format to this path")

	cmd.AddCommand(NewDoctorCmd(opts, d), NewVersionCmd())

	return cmd
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := NewRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		PrintError(os.Stderr, err)
		os.Exit(clierr.ExitCode(err))
	}
}

// PrintError writes err and its remediation hints.
func PrintError(w io.Writer, err error) {
	fmt.Fprintf(w, "error: %v\n", err)
	for _, h := range clierr.Hints(err) {
		fmt.Fprintf(w, "hint: %s\n", h)
	}
}

// resolveConfig wraps config resolution with the flags the user actually set.
func resolveConfig(cmd *cobra.Command, opts *Options) (config.EffectiveConfig, error) {
	var o config.Overrides
	f := cmd.Flags()
	if f.Changed("model") {
		o.Model = &opts.Model
	}
	if f.Changed("temperature") {
		o.Temperature = &opts.Temperature
	}
	if f.Changed("max-tokens") {
		o.MaxTokens = &opts.MaxTokens
	}
	if f.Changed("verbose") {
		o.Verbose = &opts.Verbose
	}
	return config.Resolve(opts.ConfigPath, o)
}

func newClient(d deps, cfg config.EffectiveConfig, logger *zap.Logger, extra ...openai.Option) *openai.Client {
	opts := append([]openai.Option{
		openai.WithHTTPClient(d.httpClient),
		openai.WithSleep(d.sleep),
		openai.WithLogger(logger),
	}, extra...)
	return openai.NewClient(cfg.BaseURL, d.apiKey(), opts...)
}

func (d deps) apiKey() string {
	if d.getenv == nil {
		return ""
	}
	return d.getenv(openai.APIKeyEnv)
}

func logConfig(logger *zap.Logger, cfg config.EffectiveConfig) {
	source := cfg.Source
	if source == "" {
		source = "(defaults)"
	}
	logger.Debug("resolved configuration",
		zap.String("model", cfg.Model),
		zap.Float64("temperature", cfg.Temperature),
		zap.Int("max_tokens", cfg.MaxTokens),
		zap.String("base_url", cfg.BaseURL),
		zap.String("config_file", source))
}
