package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"traffic-lights/timeparse"
)

func newParseTimeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parse-time HHMMSS",
		Short: "Validate a timer value and print it in seconds",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			seconds, err := timeparse.ParseString(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), seconds)
			return nil
		},
	}
}
