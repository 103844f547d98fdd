// Package cli implements the gptbot command line.
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/bdobrica/gptbot/common/environment"
	"github.com/bdobrica/gptbot/common/version"
	"github.com/bdobrica/gptbot/internal/gptbot/observability"
)

var (
	envFiles []string
	// secrets are the configured credentials, redacted from reported errors.
	secrets []string
)

// RootCmd is the top-level command. Without a subcommand it runs the bot.
var RootCmd = &cobra.Command{
	Use:           "gptbot",
	Short:         "IRC bot that answers through a language model",
	Long:          "gptbot joins one IRC channel, remembers the conversation and answers messages addressed to it using an OpenAI-compatible completion API.",
	Version:       version.Info(),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return environment.LoadDotEnv(envFiles...)
	},
	RunE: runBot,
}

func init() {
	RootCmd.PersistentFlags().StringSliceVar(&envFiles, "env-file", nil, "dotenv file(s) to load (default: .env if present)")
	addRunFlags(RootCmd)
}

// Execute runs the root command and reports a failure on stderr.
func Execute() int {
	if err := RootCmd.Execute(); err != nil {
		reportError(os.Stderr, err)
		return 1
	}
	return 0
}

func reportError(w io.Writer, err error) {
	fmt.Fprintf(w, "error: %s\n", observability.RedactSecrets(err.Error(), secrets...))
}
