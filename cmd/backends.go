package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/fbz-tec/dbport/core/config"
	"github.com/fbz-tec/dbport/core/db"
)

func newBackendsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backends",
		Short: "List the supported backend types and their default target",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "TYPE\tDEFAULT")
			for _, typ := range db.List() {
				b, err := db.Create(typ, config.Config{})
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "%s\t%s\n", typ, b.Description())
			}
			return w.Flush()
		},
	}
}
