package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"ticketshub/models"
	"ticketshub/services"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var errSignedOut = errors.New("not signed in")

func loginCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "login <email> <password>",
		Short: "Sign in to this profile",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withTab(cmd.Context(), func(t *tab) error {
				ok, err := t.session().Login(cmd.Context(), args[0], args[1])
				if err != nil {
					return err
				}
				if !ok {
					return errors.New("login rejected: email and password are required")
				}
				printUser(cmd.OutOrStdout(), t.session().User())
				return nil
			})
		},
	}
}

func signupCmd(a *app) *cobra.Command {
	var in models.SignupInput

	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account and sign in",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withTab(cmd.Context(), func(t *tab) error {
				if _, err := t.session().Signup(cmd.Context(), in); err != nil {
					return err
				}
				printUser(cmd.OutOrStdout(), t.session().User())
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&in.Name, "name", "", "display name")
	cmd.Flags().StringVar(&in.Email, "email", "", "email address")
	cmd.Flags().StringVar(&in.Password, "password", "", "password")
	cmd.Flags().StringVar(&in.Phone, "phone", "", "phone number")

	return cmd
}

func logoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out; tickets stay for the next sign-in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withTab(cmd.Context(), func(t *tab) error {
				if err := t.session().Logout(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
				return nil
			})
		},
	}
}

func bookCmd(a *app) *cobra.Command {
	var (
		in     models.TicketInput
		amount string
		qrPath string
		qrSize int
	)

	cmd := &cobra.Command{
		Use:   "book",
		Short: "Issue a ticket to the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			total, err := decimal.NewFromString(amount)
			if err != nil {
				return fmt.Errorf("invalid --amount %q: %w", amount, err)
			}
			in.TotalAmount = total

			return a.withTab(cmd.Context(), func(t *tab) error {
				ticket, err := t.session().AddTicket(cmd.Context(), in)
				if err != nil {
					return err
				}
				if ticket == nil {
					return errSignedOut
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Booked %s: %s x%d, %s\n", ticket.ID, ticket.EventTitle, ticket.Quantity, ticket.TotalAmount.StringFixed(2))
				fmt.Fprintf(out, "QR: %s\n", ticket.QRCode)

				if qrPath == "" {
					return nil
				}
				png, err := services.RenderQRCodePNG(in, qrSize)
				if err != nil {
					return err
				}
				if err := os.WriteFile(qrPath, png, 0o644); err != nil {
					return fmt.Errorf("write qr image: %w", err)
				}
				fmt.Fprintf(out, "QR image written to %s\n", qrPath)
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&in.EventID, "event-id", 0, "event id")
	cmd.Flags().StringVar(&in.EventTitle, "title", "", "event title")
	cmd.Flags().StringVar(&in.EventDate, "date", "", "event date")
	cmd.Flags().StringVar(&in.EventTime, "time", "", "event time")
	cmd.Flags().StringVar(&in.Venue, "venue", "", "venue")
	cmd.Flags().StringVar(&in.Location, "location", "", "city of the venue")
	cmd.Flags().IntVar(&in.Quantity, "quantity", 1, "number of tickets")
	cmd.Flags().StringVar(&amount, "amount", "0", "total amount")
	cmd.Flags().StringSliceVar(&in.SeatNumbers, "seats", nil, "seat numbers")
	cmd.Flags().StringVar(&qrPath, "qr-png", "", "also write the QR code as a PNG to this path")
	cmd.Flags().IntVar(&qrSize, "qr-size", 256, "QR image size in pixels")

	return cmd
}

func ticketsCmd(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "tickets",
		Short: "List the signed-in user's tickets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withTab(cmd.Context(), func(t *tab) error {
				if !t.session().IsAuthenticated() {
					return errSignedOut
				}
				tickets := t.session().Tickets()

				if asJSON {
					enc := json.NewEncoder(cmd.OutOrStdout())
					enc.SetIndent("", "  ")
					return enc.Encode(tickets)
				}
				printTickets(cmd.OutOrStdout(), tickets)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print tickets as JSON")

	return cmd
}

func whoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the session as this profile sees it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withTab(cmd.Context(), func(t *tab) error {
				printUser(cmd.OutOrStdout(), t.session().User())
				return nil
			})
		},
	}
}

func printUser(w io.Writer, user *models.User) {
	if user == nil {
		fmt.Fprintln(w, "Signed out")
		return
	}
	fmt.Fprintf(w, "Signed in as %s <%s> (%s), %d ticket(s)\n", user.Name, user.Email, user.ID, len(user.Tickets))
}

func printTickets(w io.Writer, tickets []models.Ticket) {
	if len(tickets) == 0 {
		fmt.Fprintln(w, "No tickets")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tEVENT\tDATE\tQTY\tAMOUNT\tSTATUS")
	for _, t := range tickets {
		fmt.Fprintf(tw, "%s\t%s\t%s %s\t%d\t%s\t%s\n", t.ID, t.EventTitle, t.EventDate, t.EventTime, t.Quantity, t.TotalAmount.StringFixed(2), t.Status)
	}
	tw.Flush()
}
