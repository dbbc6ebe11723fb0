package main

import (
	"errors"
	"fmt"
	"os"

	"payslipsync/cmd/payslipsync/ui"
	"payslipsync/internal/history"

	"github.com/spf13/cobra"
)

var (
	historyLimit int
	historyRun   string
)

// historyCmd prints the archived-document ledger
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show payslips archived by previous runs",
	RunE:  showHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Number of entries to show (0 for all)")
	historyCmd.Flags().StringVar(&historyRun, "run", "", "Show only the entries of one run id")
}

func showHistory(cmd *cobra.Command, args []string) error {
	path := cfg.History.DatabasePath
	if path == "" {
		return errors.New("history is disabled (no database path configured)")
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		fmt.Fprint(cmd.OutOrStdout(), ui.RenderHistory(ui.DefaultStyles(), nil))
		return nil
	}

	store, err := history.Open(path)
	if err != nil {
		return err
	}
	defer store.Close()

	var entries []history.Entry
	if historyRun != "" {
		entries, err = store.Run(cmd.Context(), historyRun)
	} else {
		entries, err = store.Recent(cmd.Context(), historyLimit)
	}
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), ui.RenderHistory(ui.DefaultStyles(), entries))
	return nil
}
