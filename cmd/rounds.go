package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pable/go-cs-positions/internal/aggregator"
	"github.com/pable/go-cs-positions/internal/model"
	"github.com/pable/go-cs-positions/internal/report"
	"github.com/pable/go-cs-positions/internal/storage"
)

var (
	roundsBuy    string
	roundsPlayer string
	roundsArea   string
)

// roundsCmd is the cobra command for the per-round drill-down of one analysis.
var roundsCmd = &cobra.Command{
	Use:   "rounds <hash-prefix>",
	Short: "Per-round drill-down of defender profiles",
	Long: `Print one row per defender profile of a stored analysis. Filters combine;
rounds left empty by the filters are dropped from the table. With a filter the
position table is recomputed over the matching profiles.`,
	Args: cobra.ExactArgs(1),
	RunE: runRounds,
}

func init() {
	roundsCmd.Flags().StringVar(&roundsBuy, "buy", "", "filter by buy type: pistol, eco, light, full")
	roundsCmd.Flags().StringVar(&roundsPlayer, "player", "", "filter by player name")
	roundsCmd.Flags().StringVar(&roundsArea, "area", "", "filter by primary position")
}

// parseBuyType accepts the stored names and their short forms.
func parseBuyType(s string) (model.BuyType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return "", nil
	case "pistol":
		return model.BuyPistol, nil
	case "eco":
		return model.BuyEco, nil
	case "light", "light_buy", "half", "force":
		return model.BuyLight, nil
	case "full", "full_buy":
		return model.BuyFull, nil
	}
	return "", fmt.Errorf("unknown buy type %q (want pistol, eco, light or full)", s)
}

func runRounds(cmd *cobra.Command, args []string) error {
	buy, err := parseBuyType(roundsBuy)
	if err != nil {
		return err
	}

	db, err := storage.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer db.Close()
	return showRounds(db, args[0], buy, roundsPlayer, roundsArea)
}

// showRounds prints the filtered round table of the analysis matching prefix.
func showRounds(db *storage.DB, prefix string, buy model.BuyType, player, area string) error {
	s, err := db.GetAnalysisByPrefix(prefix)
	if err != nil {
		return fmt.Errorf("query analysis: %w", err)
	}
	if s == nil {
		fmt.Fprintf(os.Stderr, "No analysis found with hash prefix %q\n", prefix)
		return nil
	}

	rounds, err := db.GetRoundProfiles(s.Hash)
	if err != nil {
		return fmt.Errorf("get round profiles: %w", err)
	}
	filtered := aggregator.Filter(rounds, buy, player, area)

	var shown []model.RoundResult
	for _, r := range filtered {
		if len(r.Players) > 0 {
			shown = append(shown, r)
		}
	}

	report.PrintAnalysisSummary(os.Stdout, *s)
	if len(shown) == 0 {
		fmt.Fprintln(os.Stdout, "No profiles match the filters.")
		return nil
	}
	report.PrintRoundTable(os.Stdout, shown)

	if buy != "" || player != "" || area != "" {
		fmt.Fprintln(os.Stdout)
		cHeader.Fprintf(os.Stdout, "Positions over %d matching profiles\n", countProfiles(shown))
		report.PrintPositionTable(os.Stdout, aggregator.Aggregate(filtered, s.TotalRounds))
	}
	return nil
}

func countProfiles(rounds []model.RoundResult) int {
	n := 0
	for _, r := range rounds {
		n += len(r.Players)
	}
	return n
}
