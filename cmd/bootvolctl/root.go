package main

import (
	"github.com/spf13/cobra"
)

const appName = "bootvolctl"

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: appName + " - inspect disk images through the bootvol core",
	}

	root.AddCommand(newInspectCommand())
	root.AddCommand(newLsCommand())
	root.AddCommand(newCatCommand())

	return root
}
