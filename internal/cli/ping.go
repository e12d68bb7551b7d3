package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/msccatools/msccat-client/internal/api"
)

// newPingCmd creates the 'ping' command.
func newPingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check that the job runner is reachable",
		Long: `Send a GET request to the runner base URL and report the status and latency.
Connection failures and 5xx responses are retried a few times.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := promptProxyPassword(cfg); err != nil {
				return err
			}

			client, err := api.NewClient(cfg, GetLogger().Child("component", "api"))
			if err != nil {
				return err
			}

			res, err := client.Ping(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s: HTTP %d in %s\n", res.URL, res.StatusCode, res.Latency.Round(time.Millisecond))
			if res.StatusCode >= 500 {
				return fmt.Errorf("runner answered with HTTP %d", res.StatusCode)
			}
			return nil
		},
	}
}
