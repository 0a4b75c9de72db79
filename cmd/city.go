package cmd

import (
	"fmt"
	"io"

	"ticketshub/services"

	"github.com/spf13/cobra"
)

func cityCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "city",
		Short: "Show or change the selected city",
	}

	cmd.AddCommand(
		citySelectCmd(a),
		cityClearCmd(a),
		cityShowCmd(a),
		cityDetectCmd(a),
		citySearchCmd(),
	)

	return cmd
}

func citySelectCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "select <city> [state]",
		Short: "Select a city",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			state := ""
			if len(args) == 2 {
				state = args[1]
			}
			return a.withTab(cmd.Context(), func(t *tab) error {
				if err := t.location().SelectCity(cmd.Context(), args[0], state); err != nil {
					return err
				}
				printLocation(cmd.OutOrStdout(), t.location())
				return nil
			})
		},
	}
}

func cityClearCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Forget the selected city",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withTab(cmd.Context(), func(t *tab) error {
				if err := t.location().ClearCity(cmd.Context()); err != nil {
					return err
				}
				printLocation(cmd.OutOrStdout(), t.location())
				return nil
			})
		},
	}
}

func cityShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the selected city and whether the picker would open",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withTab(cmd.Context(), func(t *tab) error {
				printLocation(cmd.OutOrStdout(), t.location())
				return nil
			})
		},
	}
}

func cityDetectCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "detect",
		Short: "Detect the current location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withTab(cmd.Context(), func(t *tab) error {
				var detector services.LocationDetector
				if a.cfg.LocationDetectURL != "" {
					detector = services.NewHTTPDetector(a.cfg.LocationDetectURL, a.cfg.LocationDetectTimeout)
				}
				if err := t.location().DetectLocation(cmd.Context(), detector); err != nil {
					return err
				}
				printLocation(cmd.OutOrStdout(), t.location())
				return nil
			})
		},
	}
}

func citySearchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search [query]",
		Short: "Search the popular cities",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := ""
			if len(args) == 1 {
				query = args[0]
			}

			out := cmd.OutOrStdout()
			matches := services.SearchCities(query)
			if len(matches) == 0 {
				fmt.Fprintln(out, "No cities found")
				return nil
			}
			for _, c := range matches {
				fmt.Fprintf(out, "%s, %s\n", c.City, c.State)
			}
			return nil
		},
	}
}

func printLocation(w io.Writer, l *services.LocationStore) {
	sel, ok := l.Selection()
	switch {
	case !ok:
		fmt.Fprintln(w, "No city selected")
	case sel.StateName != nil:
		fmt.Fprintf(w, "City: %s, %s\n", sel.City, *sel.StateName)
	default:
		fmt.Fprintf(w, "City: %s\n", sel.City)
	}
	if l.SelectorVisible() {
		fmt.Fprintln(w, "City picker: open")
	}
}
