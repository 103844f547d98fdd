package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bdobrica/gptbot/common/version"
)

func init() {
	RootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "gptbot %s\n", version.Info())
		},
	})
}
