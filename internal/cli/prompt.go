package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/msccatools/msccat-client/internal/params"
	"github.com/msccatools/msccat-client/internal/run"
)

// starter runs one attempt; *run.Controller implements it.
type starter interface {
	Start(ctx context.Context, form params.Form) (*run.Outcome, error)
}

// newInteractiveCmd creates the 'interactive' command.
func newInteractiveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "interactive",
		Aliases: []string{"shell"},
		Short:   "Run analyses from a prompt",
		Long: `Prompt for repository URLs and run one analysis per URL with the configured
defaults. Each run starts only after the previous one has ended.

Type "quit" or press Ctrl+D to leave.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			ctx := cmd.Context()
			ctrl := a.newController(a.newView(cmd.OutOrStdout(), cmd.ErrOrStderr()))
			return promptLoop(ctx, cmd.InOrStdin(), cmd.ErrOrStderr(), ctrl, formFromConfig(a.cfg), func(out *run.Outcome) {
				a.record(ctx, out)
			})
		},
	}

	addFormFlags(cmd)

	return cmd
}

// promptLoop reads one URL per line and starts a run for each. It returns
// nil at EOF or on "quit", and ctx.Err() once ctx is cancelled.
func promptLoop(ctx context.Context, in io.Reader, out io.Writer, s starter, base params.Form, done func(*run.Outcome)) error {
	reader := bufio.NewReader(in)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		if base.URL != "" {
			fmt.Fprintf(out, "Repository URL [%s]: ", base.URL)
		} else {
			fmt.Fprint(out, "Repository URL: ")
		}

		input, err := reader.ReadString('\n')
		input = strings.TrimSpace(input)
		if err != nil && input == "" {
			if err == io.EOF {
				fmt.Fprintln(out)
				return nil
			}
			return err
		}

		switch strings.ToLower(input) {
		case "quit", "exit", "q":
			return nil
		}

		form := base
		if input != "" {
			form.URL = input
		}

		outcome, startErr := s.Start(ctx, form)
		if startErr != nil {
			fmt.Fprintf(out, "Cannot start: %v\n", startErr)
			continue
		}
		if done != nil {
			done(outcome)
		}
		if err == io.EOF {
			return nil
		}
	}
}
