package cmd

import (
	"github.com/spf13/cobra"
	"github.com/webhookx-io/intercom"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Printf("Intercom %s (%s)\n", intercom.VERSION, intercom.COMMIT)
		},
	}
}
