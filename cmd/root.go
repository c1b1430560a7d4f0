package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	configurationFile string
	verbose           bool
)

func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "intercom",
		Short:        "Relay HTTP requests through a chain of dispatchers",
		SilenceUsage: true,
	}
	root.SetOut(os.Stdout)

	flags := root.PersistentFlags()
	flags.BoolVarP(&verbose, "verbose", "", false, "Verbose logging.")
	flags.StringVarP(&configurationFile, "config", "", "", "The configuration filename")

	root.AddCommand(
		newVersionCmd(),
		newStartCmd(),
		newFetchCmd(),
	)

	return root
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
