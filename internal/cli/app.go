package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/msccatools/msccat-client/internal/api"
	"github.com/msccatools/msccat-client/internal/config"
	"github.com/msccatools/msccat-client/internal/console"
	"github.com/msccatools/msccat-client/internal/events"
	"github.com/msccatools/msccat-client/internal/history"
	"github.com/msccatools/msccat-client/internal/logging"
	"github.com/msccatools/msccat-client/internal/progress"
	"github.com/msccatools/msccat-client/internal/run"
	"github.com/msccatools/msccat-client/internal/stream"
	"github.com/msccatools/msccat-client/internal/validation"
)

// loadConfig resolves and validates the configuration for cmd.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// promptProxyPassword asks for the proxy password when the proxy mode needs
// one and none is configured. Without a terminal the password stays empty.
func promptProxyPassword(cfg *config.Config) error {
	if !cfg.NeedsProxyPassword() {
		return nil
	}
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		GetLogger().Warn().Str("proxy_mode", cfg.Proxy.Mode).Msg("Proxy password not set and stdin is not a terminal")
		return nil
	}

	fmt.Fprintf(os.Stderr, "Proxy password for %s: ", cfg.Proxy.User)
	pw, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return fmt.Errorf("failed to read proxy password: %w", err)
	}
	cfg.Proxy.Password = string(pw)
	return nil
}

// app holds the collaborators of one command invocation.
type app struct {
	cfg     *config.Config
	logger  *logging.Logger
	api     *api.Client
	stream  *stream.Client
	history history.Store
	bus     *events.EventBus
}

func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	if err := promptProxyPassword(cfg); err != nil {
		return nil, err
	}

	log := GetLogger()

	apiClient, err := api.NewClient(cfg, log.Child("component", "api"))
	if err != nil {
		return nil, err
	}
	streamClient, err := stream.NewClient(cfg.ServerURL, cfg.DialTimeout, log.Child("component", "stream"))
	if err != nil {
		return nil, err
	}

	var store history.Store = history.NopStore{}
	if cfg.History.Enabled {
		s, err := history.Open(cfg.History.Path)
		if err != nil {
			// History is best effort; a run must not fail because of it.
			log.Warn().Err(err).Str("path", cfg.History.Path).Msg("Run history disabled")
		} else {
			store = s
		}
	}

	return &app{
		cfg:     cfg,
		logger:  log,
		api:     apiClient,
		stream:  streamClient,
		history: store,
		bus:     events.NewEventBus(0),
	}, nil
}

func (a *app) close() {
	a.bus.Close()
	if err := a.history.Close(); err != nil {
		a.logger.Debug().Err(err).Msg("Failed to close history")
	}
}

// openStream adapts the stream client to the controller. The explicit nil
// keeps a failed open from yielding a non-nil interface.
func (a *app) openStream(ctx context.Context, jobID string) (run.EventStream, error) {
	s, err := a.stream.Open(ctx, jobID)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// newView builds the terminal view from the color and spinner settings. Log
// lines go to out; the indicator, errors and spinner go to status.
func (a *app) newView(out, status io.Writer) *console.View {
	var spinner progress.Reporter
	if a.cfg.Spinner && !quiet && console.IsTerminal(status) {
		spinner = progress.NewCLISpinner(status)
	}
	return console.New(console.Options{
		Out:     out,
		Status:  status,
		Color:   console.ColorEnabled(a.cfg.Color, out),
		Spinner: spinner,
	})
}

func (a *app) newController(view run.View) *run.Controller {
	return run.NewController(run.Options{
		Validator: validation.New(nil),
		Submitter: a.api,
		Open:      a.openStream,
		View:      view,
		Bus:       a.bus,
		Logger:    a.logger.Child("component", "run"),
	})
}

// record stores a finished attempt in the history.
func (a *app) record(ctx context.Context, out *run.Outcome) {
	// Record even when the run was interrupted.
	id, err := a.history.Record(context.WithoutCancel(ctx), history.NewEntry(out))
	if err != nil {
		a.logger.Warn().Err(err).Msg("Failed to record run in history")
		return
	}
	a.logger.Debug().Int64("history_id", id).Msg("Run recorded")
}
