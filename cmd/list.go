package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-cs-positions/internal/report"
	"github.com/pable/go-cs-positions/internal/storage"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all stored analyses",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func runList(cmd *cobra.Command, args []string) error {
	db, err := storage.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer db.Close()
	return listAnalyses(db)
}

func listAnalyses(db *storage.DB) error {
	list, err := db.ListAnalyses()
	if err != nil {
		return fmt.Errorf("list analyses: %w", err)
	}
	if len(list) == 0 {
		fmt.Fprintln(os.Stdout, "No analyses stored yet. Run 'csposition analyze <demo.dem>' to add one.")
		return nil
	}
	report.PrintAnalysisList(os.Stdout, list)
	return nil
}
