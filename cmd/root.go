// Package cmd implements the traffic-lights command line.
package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "traffic-lights",
		Short: "Traffic light controller",
		Long: `Drives red, yellow and green lights from serial commands, buttons and a countdown timer. ` +
			`Activations are strictly serialized: one light at a time, in arrival order.`,
		SilenceUsage: true,
	}
	root.AddCommand(newRunCmd(), newParseTimeCmd())
	return root
}

// Execute runs the command line. Without a subcommand it runs the controller.
func Execute() error {
	root := NewRootCmd()
	if len(os.Args) == 1 {
		root.SetArgs([]string{"run"})
	}
	return root.Execute()
}
