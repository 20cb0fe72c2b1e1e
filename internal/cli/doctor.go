package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/adamking/ai-changelog/internal/git"
	"github.com/adamking/ai-changelog/internal/llm/providers/openai"
	"github.com/adamking/ai-changelog/internal/logging"
)

// NewDoctorCmd returns a health-check command validating config and
// environment without calling the API.
func NewDoctorCmd(opts *Options, d deps) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Validate configuration, repository and credentials",
		Args:  cobra.NoArgs,
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

			out := cmd.OutOrStdout()
			source := cfg.Source
			if source == "" {
				source = "(none, using defaults)"
			}
			fmt.Fprintf(out, "Config OK. model: %s, temperature: %g, max_tokens: %d\n", cfg.Model, cfg.Temperature, cfg.MaxTokens)
			fmt.Fprintf(out, "Config file: %s\n", source)
			fmt.Fprintf(out, "Endpoint: %s\n", newClient(d, cfg, logger).Endpoint())

			collector := git.NewCollector(d.workDir, logger)
			root, err := collector.Root(cmd.Context())
			if err != nil {
				return err
			}
			files, err := collector.StagedFiles(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Repository: %s\n", root)
			fmt.Fprintf(out, "Staged files: %d\n", len(files))

			if d.apiKey() == "" {
				return openai.MissingCredentials()
			}
			fmt.Fprintf(out, "Credentials: %s is set\n", openai.APIKeyEnv)
			return nil
		},
	}
}
