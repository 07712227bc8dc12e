package cmd

import (
	"github.com/spf13/cobra"
)

// New creates the root command with all subcommands registered.
func New() *cobra.Command {
	opts := NewOptions()

	rootCmd := &cobra.Command{
		Use:   "prsync",
		Short: "Mirror authored GitHub pull requests into a JSON artifact",
		Long: `Searches GitHub for every pull request authored by the configured account,
enriches each one with its full detail (reusing a local cache when nothing
changed), overlays the featured config and writes a sorted JSON artifact.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSync(cmd, opts)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	// Sync flags live on the root too so `prsync` and `prsync sync` behave the same
	addSyncFlags(rootCmd, opts)

	rootCmd.AddCommand(NewCmdSync(opts))
	rootCmd.AddCommand(NewCmdConfig())
	rootCmd.AddCommand(NewCmdCache())
	rootCmd.AddCommand(NewCmdFeatured())
	rootCmd.AddCommand(NewCmdHistory())
	rootCmd.AddCommand(NewCmdRateLimit())
	rootCmd.AddCommand(NewCmdVersion())

	return rootCmd
}
