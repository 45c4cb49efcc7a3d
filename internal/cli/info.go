package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newInfoCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show the database product, connection and row counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, _, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()
			info, err := db.Info(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Database:   %s\n", info.Version)
			fmt.Fprintf(out, "Connection: %s\n", info.Connection)
			fmt.Fprintf(out, "SRID:       %d", info.SRID)
			if info.SRSName != "" {
				fmt.Fprintf(out, " (%s)", info.SRSName)
			}
			fmt.Fprintln(out)

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', tabwriter.AlignRight)
			fmt.Fprintln(tw, "table\trows\t")
			for _, t := range info.Tables {
				fmt.Fprintf(tw, "%s\t%s\t\n", t.Table, humanize.Comma(t.Rows))
			}
			return tw.Flush()
		},
	}
}
