package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newIndexCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Inspect the database indexes",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show whether each database index is on or off",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, _, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()
			states, err := db.IndexStatus(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for i, s := range states {
				status := "off"
				if s.On {
					status = "on"
				}
				fmt.Fprintf(out, "[%d|%d] Database index on %s: %s\n", i+1, len(states), s.Index, status)
			}
			return nil
		},
	})
	return cmd
}
