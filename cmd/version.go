package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fbz-tec/dbport/internal/version"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "dbport %s (build %s, commit %s)\n",
				version.AppVersion, version.BuildTime, version.GitCommit)
		},
	}
}
