package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/adamking/ai-changelog/internal/version"
)

// NewVersionCmd prints the build metadata.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show " + version.Name + " version, commit and build date",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.Full())
		},
	}
}
