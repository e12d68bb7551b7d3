// Package cli provides the command-line interface for msccat.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/msccatools/msccat-client/internal/logging"
	"github.com/msccatools/msccat-client/internal/version"
)

var (
	// Global flags
	cfgFile string
	verbose bool
	debug   bool
	quiet   bool

	// Global logger
	logger *logging.Logger

	// Global context for signal handling
	rootContext context.Context
	cancelFunc  context.CancelFunc
)

// errReported is returned when a command failed and has already told the
// user why, for example a run ending in DONE_ERROR. Execute does not print it.
var errReported = errors.New("failed")

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "msccat",
		Short: "MSCCATools client - submit clone analyses and follow their logs",
		Long: `MSCCATools client ` + version.Version + ` - Built: ` + version.BuildTime + `
Submits a clone and co-modification analysis of a GitHub repository to a
job runner and follows the job's log until it completes or fails.

Configuration is read from ~/.config/msccat/config.yaml, MSCCAT_* environment
variables and flags, in increasing order of priority.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Initialize logger
			logger = logging.NewDefaultCLILogger()
			switch {
			case verbose || debug:
				logging.SetGlobalLevel(zerolog.DebugLevel)
			case quiet:
				logging.SetGlobalLevel(zerolog.WarnLevel)
			default:
				logging.SetGlobalLevel(zerolog.InfoLevel)
			}
		},
	}

	// Global flags
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&cfgFile, "config", "c", "", "Configuration file path")
	pf.BoolVarP(&verbose, "verbose", "v", false, "Verbose output (shows debug messages)")
	pf.BoolVar(&debug, "debug", false, "Enable debug output (same as --verbose)")
	pf.BoolVarP(&quiet, "quiet", "q", false, "Only log warnings and errors")

	// Connection flags, bound to config keys by config.Load
	pf.String("server-url", "", "Job runner base URL (overrides config)")
	pf.String("proxy-mode", "", "Proxy mode: no-proxy, system, basic, ntlm")
	pf.String("proxy-host", "", "Proxy host")
	pf.Int("proxy-port", 0, "Proxy port")
	pf.String("proxy-user", "", "Proxy user (basic and ntlm modes)")
	pf.String("no-proxy", "", "Comma-separated hosts that bypass the proxy")
	pf.Duration("request-timeout", 0, "Timeout for the submission request")
	pf.String("color", "", "Color output: auto, always, never")
	pf.Bool("spinner", true, "Show a spinner while a run is active")
	pf.Bool("no-history", false, "Do not record runs in the local history")

	rootCmd.Version = version.Version + " (" + version.BuildTime + ")"

	rootCmd.AddCommand(newCompletionCmd(rootCmd))
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	return rootCmd
}

func newCompletionCmd(rootCmd *cobra.Command) *cobra.Command {
	completionCmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for msccat.

QUICK START:

  bash:
    source <(msccat completion bash)

  zsh:
    msccat completion zsh > "${fpath[1]}/_msccat"

  fish:
    msccat completion fish > ~/.config/fish/completions/msccat.fish`,
	}

	completionCmd.AddCommand(&cobra.Command{
		Use:   "bash",
		Short: "Generate bash completion script",
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootCmd.GenBashCompletion(cmd.OutOrStdout())
		},
	})
	completionCmd.AddCommand(&cobra.Command{
		Use:   "zsh",
		Short: "Generate zsh completion script",
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootCmd.GenZshCompletion(cmd.OutOrStdout())
		},
	})
	completionCmd.AddCommand(&cobra.Command{
		Use:   "fish",
		Short: "Generate fish completion script",
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootCmd.GenFishCompletion(cmd.OutOrStdout(), true)
		},
	})
	completionCmd.AddCommand(&cobra.Command{
		Use:   "powershell",
		Short: "Generate PowerShell completion script",
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootCmd.GenPowerShellCompletion(cmd.OutOrStdout())
		},
	})

	return completionCmd
}

// Execute runs the CLI.
func Execute() error {
	// Create a context that can be cancelled by signals
	rootContext, cancelFunc = context.WithCancel(context.Background())
	defer cancelFunc()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		for sig := range sigChan {
			if sig != nil {
				fmt.Fprintf(os.Stderr, "\nReceived signal %v, cancelling...\n", sig)
				cancelFunc()
			}
		}
	}()

	rootCmd := NewRootCmd()
	AddCommands(rootCmd)
	err := rootCmd.ExecuteContext(rootContext)

	// Clean up signal handler
	signal.Stop(sigChan)
	close(sigChan)

	if err != nil && !errors.Is(err, errReported) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	return err
}

// AddCommands adds all subcommands to the root command.
func AddCommands(rootCmd *cobra.Command) {
	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newValidateCmd())
	rootCmd.AddCommand(newInteractiveCmd())
	rootCmd.AddCommand(newPingCmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newVersionCmd())
}

// GetLogger returns the global CLI logger.
func GetLogger() *logging.Logger {
	if logger == nil {
		logger = logging.NewDefaultCLILogger()
	}
	return logger
}

// GetContext returns the global CLI context with signal handling.
// This context will be cancelled when the user presses Ctrl+C.
func GetContext() context.Context {
	if rootContext == nil {
		return context.Background()
	}
	return rootContext
}
