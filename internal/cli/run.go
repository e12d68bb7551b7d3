package cli

import (
	"encoding/json"
	"io"
	"sync"

	"github.com/spf13/cobra"

	"github.com/msccatools/msccat-client/internal/events"
	"github.com/msccatools/msccat-client/internal/run"
)

// newRunCmd creates the 'run' command.
func newRunCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Submit an analysis and follow its log",
		Long: `Validate the analysis parameters, submit a job to the runner and print its
log until the job completes or fails.

Every parameter defaults to the value under defaults.* in the configuration.
The command exits with status 1 when the parameters are invalid, the
submission is rejected, the job fails or the log stream drops.

Examples:
  msccat run --url https://github.com/owner/repo
  msccat run --url https://github.com/owner/repo --analysis-method frequency --analysis-frequency 20
  msccat run --url https://github.com/owner/repo --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			ctx := cmd.Context()
			form := formFromConfig(a.cfg)

			var view run.View
			var wait func()
			if jsonOutput {
				view = run.NopView{}
				wait = streamEventsJSON(a.bus, cmd.OutOrStdout())
			} else {
				view = a.newView(cmd.OutOrStdout(), cmd.ErrOrStderr())
			}

			out, err := a.newController(view).Start(ctx, form)
			if wait != nil {
				a.bus.Close()
				wait()
			}
			if err != nil {
				return err
			}

			a.record(ctx, out)
			if dropped := a.bus.GetDroppedEventCount(); dropped > 0 {
				a.logger.Warn().Int64("dropped", dropped).Msg("Some events were not delivered")
			}
			if !out.OK() {
				return errReported
			}
			return nil
		},
	}

	addFormFlags(cmd)
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print run events as JSON lines instead of the log view")

	return cmd
}

// streamEventsJSON writes every bus event to w as one JSON object per line
// until the bus is closed. The subscription is blocking, so a slow writer
// holds the controller back instead of losing lines. The returned func waits
// for the writer to drain.
func streamEventsJSON(bus *events.EventBus, w io.Writer) func() {
	ch := bus.SubscribeAllBlocking()
	enc := json.NewEncoder(w)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for ev := range ch {
			if err := enc.Encode(ev); err != nil {
				GetLogger().Debug().Err(err).Msg("Failed to write event")
			}
		}
	}()
	return wg.Wait
}
