package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"

	"github.com/pable/go-cs-positions/internal/storage"
)

var sqlCmd = &cobra.Command{
	Use:   "sql <query>",
	Short: "Run a raw SQL query against the analysis database",
	Long: `Run an arbitrary SQL query against the analysis database and print results as a table.

Schema overview:
  analyses(hash, source_id, map_name, region, total_rounds, tickrate, created_at)
  analysis_rounds(analysis_hash, round_number)
  round_profiles(analysis_hash, round_number, player, buy_type, primary_weapon,
    weapon_category, armor, helmet, equipment_value, health, bankroll,
    value_estimated, loadout_source, entry_point, primary_position,
    time_in_site, journey_json, utility_json)
  position_stats(analysis_hash, sort_order, area, overall_frequency,
    total_occurrences, unique_players, median_time_in_site,
    by_buy_type_json, entry_points_json)

journey_json and utility_json hold JSON arrays; use json_each to unnest, e.g.
  SELECT player, j.value->>'area' FROM round_profiles, json_each(journey_json) j`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSQL,
}

func runSQL(cmd *cobra.Command, args []string) error {
	db, err := storage.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()
	return printQuery(db, strings.Join(args, " "))
}

// printQuery runs query and renders the result as a table.
func printQuery(db *storage.DB, query string) error {
	cols, rows, err := db.QueryRaw(query)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		cMuted.Println("(no rows)")
		return nil
	}

	table := tablewriter.NewTable(os.Stdout, tablewriter.WithConfig(tablewriter.Config{
		Row:    tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignRight}},
		Header: tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignCenter}},
	}))

	colsAny := make([]any, len(cols))
	for i, c := range cols {
		colsAny[i] = c
	}
	table.Header(colsAny...)

	for _, row := range rows {
		rowAny := make([]any, len(row))
		for i, v := range row {
			rowAny[i] = v
		}
		table.Append(rowAny...)
	}
	table.Render()
	fmt.Fprintf(os.Stdout, "\n(%d rows)\n", len(rows))
	return nil
}

