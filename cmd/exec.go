package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"ticketshub/config"
	"ticketshub/monitoring"

	"github.com/spf13/cobra"
)

// app carries what every subcommand needs once the root has loaded config.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	monitor *monitoring.Monitor
}

// Execute runs the CLI and exits non-zero on failure.
func Execute() {
	exitOnError(Start())
}

// Start runs the CLI with the process arguments.
func Start() error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	return newRootCmd().ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	a := &app{}
	var profile, tabID string

	root := &cobra.Command{
		Use:   "ticketshub",
		Short: "TicketsHub session and location state",
		Long: `Drive the TicketsHub client state from the command line.

Each invocation behaves like one browser tab of a profile: it reads the
profile's persisted session and city, acts, and announces its writes to
the other tabs. Run "ticketshub watch" in several terminals to see tabs
converge.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.LoadConfig()
			if profile != "" {
				cfg.ProfileID = profile
			}
			if tabID != "" {
				cfg.TabID = tabID
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			a.cfg = cfg
			a.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: cfg.SlogLevel()}))
			slog.SetDefault(a.logger)
			a.monitor = monitoring.NewMonitor()
			return nil
		},
	}

	root.PersistentFlags().StringVar(&profile, "profile", "", "profile namespace (overrides PROFILE_ID)")
	root.PersistentFlags().StringVar(&tabID, "tab", "", "tab id used as change origin (overrides TAB_ID)")

	root.AddCommand(
		loginCmd(a),
		signupCmd(a),
		logoutCmd(a),
		bookCmd(a),
		ticketsCmd(a),
		whoamiCmd(a),
		cityCmd(a),
		watchCmd(a),
		demoCmd(a),
	)

	return root
}

// withTab opens a tab for the duration of fn.
func (a *app) withTab(ctx context.Context, fn func(t *tab) error) error {
	t, err := openTab(ctx, a.cfg, a.logger, a.monitor, nil, nil)
	if err != nil {
		return err
	}
	defer t.Close()
	return fn(t)
}

func exitOnError(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	os.Exit(1)
}
