package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/orbitsmeet/livetl"
)

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(a.stdout, "%s %s\n", livetl.Name, livetl.FullVersion())
			if livetl.GitCommit != "unknown" && livetl.GitCommit != "" {
				fmt.Fprintf(a.stdout, "  commit:  %s\n", livetl.GitCommit)
			}
			if livetl.BuildDate != "unknown" && livetl.BuildDate != "" {
				fmt.Fprintf(a.stdout, "  built:   %s\n", livetl.BuildDate)
			}
		},
	}
}
