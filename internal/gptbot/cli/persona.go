package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/bdobrica/gptbot/common/environment"
	"github.com/bdobrica/gptbot/internal/gptbot/persona"
)

func init() {
	cmd := &cobra.Command{
		Use:   "persona [file]",
		Short: "Validate a persona file and print the effective persona",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runPersona,
	}
	RootCmd.AddCommand(cmd)
}

func runPersona(cmd *cobra.Command, args []string) error {
	path := environment.StringOr("GPTBOT_PERSONA_FILE", "")
	if len(args) == 1 {
		path = args[0]
	}

	p, err := persona.Load(path)
	if err != nil {
		return err
	}
	out, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode persona: %w", err)
	}
	fmt.Fprint(cmd.OutOrStdout(), string(out))
	return nil
}
