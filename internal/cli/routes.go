package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/MrEthical07/parkauth/guard"
)

func newRoutesCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "routes",
		Short: "List the navigation table and its access rules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			routes := cfg.Routes.Table
			if len(routes) == 0 {
				routes = guard.DefaultRoutes()
			}
			table, err := guard.NewTable(routes)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tPATH\tACCESS")
			for _, r := range table.Routes() {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", r.Name, r.Path, access(r))
			}
			return tw.Flush()
		},
	}
}

func access(r guard.Route) string {
	switch {
	case r.RequiresAdmin:
		return "admin"
	case r.RequiresAuth:
		return "signed-in"
	case r.GuestOnly:
		return "guest"
	default:
		return "public"
	}
}
