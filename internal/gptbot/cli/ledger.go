package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bdobrica/gptbot/common/environment"
	"github.com/bdobrica/gptbot/internal/gptbot/store"
)

var ledgerFlags struct {
	db    string
	limit int
}

type ledgerReport struct {
	Totals store.Totals       `json:"totals"`
	Recent []store.Completion `json:"recent"`
}

func init() {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Show completion usage from a ledger database file",
		Args:  cobra.NoArgs,
		RunE:  runLedger,
	}
	cmd.Flags().StringVar(&ledgerFlags.db, "db", "", "ledger database path (default: $DATABASE_PATH)")
	cmd.Flags().IntVar(&ledgerFlags.limit, "limit", 10, "number of recent completions to show")
	RootCmd.AddCommand(cmd)
}

func runLedger(cmd *cobra.Command, _ []string) error {
	path := ledgerFlags.db
	if path == "" {
		path = environment.StringOr("DATABASE_PATH", "")
	}
	if path == "" || path == store.MemoryPath {
		return fmt.Errorf("no ledger file: set --db or DATABASE_PATH to a file path")
	}

	s, err := store.New(path)
	if err != nil {
		return fmt.Errorf("open ledger: %w", err)
	}
	defer s.Close()

	totals, err := s.Totals(cmd.Context())
	if err != nil {
		return err
	}
	recent, err := s.Recent(cmd.Context(), ledgerFlags.limit)
	if err != nil {
		return err
	}

	b, err := json.MarshalIndent(ledgerReport{Totals: totals, Recent: recent}, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(b))
	return nil
}
