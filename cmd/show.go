package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-cs-positions/internal/storage"
)

var showTop int

var showCmd = &cobra.Command{
	Use:   "show <hash-prefix>",
	Short: "Show stored position stats by hash prefix",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func init() {
	showCmd.Flags().IntVar(&showTop, "top", 5, "number of positions in the summary list")
}

func runShow(cmd *cobra.Command, args []string) error {
	db, err := storage.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer db.Close()
	return showAnalysis(db, args[0], showTop)
}

// showAnalysis prints the position table of the analysis matching prefix.
func showAnalysis(db *storage.DB, prefix string, top int) error {
	s, err := db.GetAnalysisByPrefix(prefix)
	if err != nil {
		return fmt.Errorf("query analysis: %w", err)
	}
	if s == nil {
		fmt.Fprintf(os.Stderr, "No analysis found with hash prefix %q\n", prefix)
		return nil
	}

	agg, err := db.GetPositionStats(s.Hash)
	if err != nil {
		return fmt.Errorf("get position stats: %w", err)
	}
	printAnalysis(*s, agg, top)
	return nil
}
