package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"ticketshub/crosstab"
	"ticketshub/models"
	"ticketshub/services"
	"ticketshub/storage"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

const demoSyncTimeout = 2 * time.Second

func demoCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Run two in-process tabs and show them converge",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDemo(cmd.Context(), a, cmd.OutOrStdout())
		},
	}
}

func runDemo(ctx context.Context, a *app, out io.Writer) error {
	mem := storage.NewMemoryStorage()
	hub := storage.NewMemoryNotifier()
	defer hub.Close()

	ctx, stop := context.WithCancel(ctx)
	defer stop()

	tabA, err := openDemoTab(ctx, a, "tab-a", mem, hub)
	if err != nil {
		return err
	}
	defer tabA.Close()

	tabB, err := openDemoTab(ctx, a, "tab-b", mem, hub)
	if err != nil {
		return err
	}
	defer tabB.Close()

	step := func(format string, args ...any) {
		fmt.Fprintf(out, "==> "+format+"\n", args...)
	}
	show := func() {
		for _, t := range []*tab{tabA, tabB} {
			fmt.Fprintf(out, "    %s: ", t.id)
			printUser(out, t.session().User())
		}
	}

	step("tab-a signs in with the demo account")
	if _, err := tabA.session().Login(ctx, a.cfg.DemoEmail, a.cfg.DemoPassword); err != nil {
		return err
	}
	if err := waitFor(ctx, func() bool { return tabB.session().IsAuthenticated() }); err != nil {
		return fmt.Errorf("tab-b never saw the sign-in: %w", err)
	}
	show()

	step("tab-a books a ticket")
	ticket, err := tabA.session().AddTicket(ctx, models.TicketInput{
		EventID:     101,
		EventTitle:  "Sunburn Arena",
		EventDate:   "2024-12-28",
		EventTime:   "18:00",
		Venue:       "Mahalaxmi Race Course",
		Location:    "Mumbai",
		Quantity:    2,
		TotalAmount: decimal.NewFromInt(4998),
	})
	if err != nil {
		return err
	}
	if err := waitFor(ctx, func() bool { return len(tabB.session().Tickets()) == 1 }); err != nil {
		return fmt.Errorf("tab-b never saw the ticket: %w", err)
	}
	show()
	fmt.Fprintf(out, "    ticket %s, qr %s\n", ticket.ID, ticket.QRCode)

	step("tab-a selects Pune; tab-b keeps its own city until it resets")
	if err := tabA.location().SelectCity(ctx, "Pune", "Maharashtra"); err != nil {
		return err
	}
	fmt.Fprint(out, "    tab-b: ")
	printLocation(out, tabB.location())

	step("tab-b signs out")
	if err := tabB.session().Logout(ctx); err != nil {
		return err
	}
	if err := waitFor(ctx, func() bool { return !tabA.session().IsAuthenticated() }); err != nil {
		return fmt.Errorf("tab-a never saw the sign-out: %w", err)
	}
	show()
	fmt.Fprint(out, "    tab-b: ")
	printLocation(out, tabB.location())

	step("tab-a signs in with another account and recovers the tickets")
	if _, err := tabA.session().Login(ctx, "guest@example.com", "guest"); err != nil {
		return err
	}
	if err := waitFor(ctx, func() bool { return len(tabB.session().Tickets()) == 1 }); err != nil {
		return fmt.Errorf("tab-b never saw the second sign-in: %w", err)
	}
	show()

	return nil
}

// openDemoTab opens a tab on the shared storage and starts its session
// listener. It returns once the listener is subscribed.
func openDemoTab(ctx context.Context, a *app, id string, mem storage.Storage, hub *storage.MemoryNotifier) (*tab, error) {
	cfg := *a.cfg
	cfg.TabID = id

	t, err := openTab(ctx, &cfg, a.logger, a.monitor, mem, hub)
	if err != nil {
		return nil, err
	}

	ready := make(chan struct{})
	readyOnce := false
	listener := crosstab.NewListener("session", hub, t.id,
		crosstab.ReconcilerFunc(func(ctx context.Context) error {
			err := t.session().Reconcile(ctx)
			if !readyOnce {
				readyOnce = true
				close(ready)
			}
			return err
		}),
		crosstab.WithKeys(services.KeyUser, services.KeyTickets),
		crosstab.WithLogger(t.logger),
		crosstab.WithMonitor(a.monitor),
	)
	go listener.Run(ctx)

	// focus is only read after the subscription is in place
	listener.NotifyFocus()
	select {
	case <-ready:
	case <-time.After(demoSyncTimeout):
		t.Close()
		return nil, errors.New("listener did not start")
	}
	return t, nil
}

func waitFor(ctx context.Context, cond func() bool) error {
	deadline := time.NewTimer(demoSyncTimeout)
	defer deadline.Stop()
	tick := time.NewTicker(10 * time.Millisecond)
	defer tick.Stop()

	for !cond() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			return context.DeadlineExceeded
		case <-tick.C:
		}
	}
	return nil
}
