package commands

import (
	"github.com/spf13/cobra"
)

// NewRootCmd builds the route-reservations command tree. Running the root
// command without a subcommand starts the server.
func NewRootCmd() *cobra.Command {
	serve := newServeCmd()

	cmd := &cobra.Command{
		Use:          "route-reservations",
		Short:        "Weekly route reservations with live updates",
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE:         serve.RunE,
	}
	cmd.Flags().AddFlagSet(serve.Flags())

	cmd.AddCommand(serve)
	cmd.AddCommand(newHashPasswordCmd())
	return cmd
}
