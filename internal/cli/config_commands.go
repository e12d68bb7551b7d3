package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/msccatools/msccat-client/internal/config"
)

// newConfigCmd creates the 'config' command group.
func newConfigCmd() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage msccat configuration",
		Long: `Configuration management commands for msccat.

Commands:
  init  - Write a commented configuration file with the defaults
  show  - Display the effective configuration
  path  - Show configuration file path`,
	}

	configCmd.AddCommand(newConfigInitCmd())
	configCmd.AddCommand(newConfigShowCmd())
	configCmd.AddCommand(newConfigPathCmd())

	return configCmd
}

// newConfigInitCmd creates the 'config init' command.
func newConfigInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a configuration file with the defaults",
		Long: `Write a commented configuration file holding every setting at its default
value. The file goes to --config when given, else ~/.config/msccat/config.yaml.

Use --force to overwrite an existing file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := configPath()
			if err := config.WriteTemplate(path, force); err != nil {
				return err
			}
			GetLogger().Info().Str("path", path).Msg("Configuration saved")
			fmt.Fprintf(cmd.OutOrStdout(), "Configuration written to: %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite existing configuration")

	return cmd
}

// newConfigShowCmd creates the 'config show' command.
func newConfigShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Display current configuration",
		Long: `Display the effective configuration as YAML.

The configuration is merged from:
  1. Built-in defaults
  2. Configuration file (~/.config/msccat/config.yaml or --config)
  3. Environment variables (MSCCAT_SERVER_URL, MSCCAT_PROXY_MODE, ...)
  4. Command-line flags

Priority: flags > environment > config file > defaults.
The proxy password is never displayed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile, cmd.Flags())
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			out, err := cfg.YAML()
			if err != nil {
				return fmt.Errorf("failed to render config: %w", err)
			}

			w := cmd.OutOrStdout()
			if cfg.File != "" {
				fmt.Fprintf(w, "# Loaded from %s\n", cfg.File)
			} else {
				fmt.Fprintln(w, "# No configuration file found, showing defaults")
			}
			_, err = w.Write(out)
			if err != nil {
				return err
			}

			if err := cfg.Validate(); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %v\n", err)
			}
			return nil
		},
	}

	addFormFlags(cmd)

	return cmd
}

// newConfigPathCmd creates the 'config path' command.
func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), configPath())
		},
	}
}

// configPath returns the --config path or the default location.
func configPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	return config.DefaultPath()
}
