package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/spiffcs/prsync/config"
	"github.com/spiffcs/prsync/internal/output"
)

// NewCmdConfig creates the config command with subcommands.
// Bare `prsync config` behaves like `prsync config show`.
func NewCmdConfig() *cobra.Command {
	show := newCmdConfigShow()

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or manage configuration",
		Long: `Show or manage configuration.

Configuration is merged in order: defaults, the global file, then the local
.prsync.yaml in the working directory. Command-line flags win over all of them.`,
		RunE: show.RunE,
	}
	cmd.Flags().AddFlagSet(show.Flags())

	cmd.AddCommand(show)
	cmd.AddCommand(newCmdConfigDefaults())
	cmd.AddCommand(newCmdConfigPath())
	cmd.AddCommand(newCmdConfigInit())
	return cmd
}

func newCmdConfigShow() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show current merged configuration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			return printConfig(cmd.OutOrStdout(), cfg, format)
		},
	}
	addConfigFormatFlag(cmd, &format)
	return cmd
}

func newCmdConfigDefaults() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "defaults",
		Short: "Show all default configuration values",
		Long: `Show a complete configuration with all default values.

Redirect it to start a config file with every option spelled out:
  prsync config defaults > ~/.config/prsync/config.yaml`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return printConfig(cmd.OutOrStdout(), config.DefaultConfig(), format)
		},
	}
	addConfigFormatFlag(cmd, &format)
	return cmd
}

func newCmdConfigPath() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Show config file and artifact locations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			printConfigPaths(cmd.OutOrStdout(), config.GetConfigPaths(), cfg)
			return nil
		},
	}
}

func newCmdConfigInit() *cobra.Command {
	var global, local bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a minimal config file",
		Long: `Create a minimal config file with starter settings.

--global writes ~/.config/prsync/config.yaml, --local writes ./.prsync.yaml.
Without either flag you are asked which one to create.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			paths := config.GetConfigPaths()
			target, err := initTarget(cmd.InOrStdin(), cmd.OutOrStdout(), paths, global, local)
			if err != nil {
				return err
			}
			return writeConfigFile(cmd.OutOrStdout(), target)
		},
	}

	cmd.Flags().BoolVar(&global, "global", false, "Create the global config file")
	cmd.Flags().BoolVar(&local, "local", false, "Create the local config file")
	cmd.MarkFlagsMutuallyExclusive("global", "local")
	return cmd
}

func addConfigFormatFlag(cmd *cobra.Command, format *string) {
	cmd.Flags().StringVarP(format, "output", "o", "yaml", "Output format (yaml, json)")
}

func printConfig(w io.Writer, cfg *config.Config, format string) error {
	switch format {
	case "yaml":
		s, err := cfg.ToYAML()
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, s)
		return err
	case "json":
		f := &output.JSONFormatter{Pretty: true}
		return f.Format(cfg, w)
	default:
		return fmt.Errorf("invalid format: %s (must be yaml or json)", format)
	}
}

func printConfigPaths(w io.Writer, paths config.ConfigPathInfo, cfg *config.Config) {
	status := func(exists bool) string {
		if exists {
			return "exists"
		}
		return "not found"
	}

	fmt.Fprintln(w, "Config files (defaults -> global -> local):")
	fmt.Fprintf(w, "  Global:   %s (%s)\n", paths.GlobalPath, status(paths.GlobalExists))
	fmt.Fprintf(w, "  Local:    %s (%s)\n", paths.LocalPath, status(paths.LocalExists))
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Artifacts:")
	fmt.Fprintf(w, "  Output:   %s\n", cfg.OutputPath)
	fmt.Fprintf(w, "  Cache:    %s\n", cfg.CachePath)
	fmt.Fprintf(w, "  Featured: %s\n", cfg.FeaturedPath)
}

// initTarget picks the file config init writes, asking on in when neither
// flag was given.
func initTarget(in io.Reader, out io.Writer, paths config.ConfigPathInfo, global, local bool) (string, error) {
	switch {
	case global:
		return paths.GlobalPath, nil
	case local:
		return paths.LocalPath, nil
	}

	fmt.Fprintln(out, "Where would you like to create the config file?")
	fmt.Fprintf(out, "  [1] Global (%s)\n", paths.GlobalPath)
	fmt.Fprintf(out, "  [2] Local (%s)\n", paths.LocalPath)
	fmt.Fprint(out, "Choose [1/2]: ")

	choice, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	switch strings.TrimSpace(choice) {
	case "1":
		return paths.GlobalPath, nil
	case "2":
		return paths.LocalPath, nil
	default:
		return "", fmt.Errorf("invalid choice %q (must be 1 or 2)", strings.TrimSpace(choice))
	}
}

func writeConfigFile(w io.Writer, path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists: %s (see 'prsync config show')", path)
	}
	if err := config.SaveTo(path, config.MinimalConfig()); err != nil {
		return err
	}
	fmt.Fprintf(w, "Created %s\n", path)
	fmt.Fprintln(w, "Run 'prsync config defaults' to see all available options.")
	return nil
}
