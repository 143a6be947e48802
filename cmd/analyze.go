package cmd

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pable/go-cs-positions/internal/aggregator"
	"github.com/pable/go-cs-positions/internal/config"
	"github.com/pable/go-cs-positions/internal/ingest"
	"github.com/pable/go-cs-positions/internal/model"
	"github.com/pable/go-cs-positions/internal/parser"
	"github.com/pable/go-cs-positions/internal/processor"
	"github.com/pable/go-cs-positions/internal/report"
	"github.com/pable/go-cs-positions/internal/storage"
)

var (
	analyzeOut     string
	analyzeNoStore bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <demo.dem|tables-dir>",
	Short: "Analyse defender positioning and write the JSON document",
	Long: `Analyse a CS2 demo (.dem, optionally .zst/.gz/.bz2) or a directory of
exported tables (ticks.* required; grenades.*, purchases.*, economy.*,
rounds.* and match.json optional).

The JSON document is written to --out and the results are stored in the
database unless --no-store is given. Re-analysing a stored input with the
same configuration prints the cached results.`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeOut, "out", "o", "data.json", "output document path")
	analyzeCmd.Flags().BoolVar(&analyzeNoStore, "no-store", false, "do not write results to the database")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	input := args[0]
	log := newLogger()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	cMuted.Fprintf(os.Stdout, "Loading %s...\n", input)
	tables, err := loadInput(input, cfg)
	if err != nil {
		return err
	}
	log.Debug().
		Int("ticks", len(tables.Ticks)).
		Int("throws", len(tables.Throws)).
		Int("purchases", len(tables.Purchases)).
		Int("economy", len(tables.Economy)).
		Msg("tables loaded")

	hash, err := analysisHash(tables.SourceHash, cfg)
	if err != nil {
		return err
	}

	var db *storage.DB
	if !analyzeNoStore {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return fmt.Errorf("create db dir: %w", err)
		}
		db, err = storage.Open(dbPath)
		if err != nil {
			return fmt.Errorf("open storage: %w", err)
		}
		defer db.Close()

		exists, err := db.AnalysisExists(hash)
		if err != nil {
			return fmt.Errorf("check analysis: %w", err)
		}
		if exists {
			cWarn.Fprintf(os.Stdout, "Analysis %s already stored, showing cached results.\n", hash[:12])
			return showCached(db, hash, analyzeOut)
		}
	}

	proc := processor.New(cfg, tables, log)
	results, err := proc.Run(cmd.Context())
	if err != nil {
		return fmt.Errorf("process rounds: %w", err)
	}
	agg := aggregator.Aggregate(results, proc.TotalRounds())

	summary := model.AnalysisSummary{
		Hash:        hash,
		SourceID:    tables.SourceID,
		MapName:     tables.MapName,
		Region:      cfg.Site.Region,
		TotalRounds: proc.TotalRounds(),
		Tickrate:    tables.TickRate,
	}
	if summary.MapName == "" {
		summary.MapName = cfg.Site.Map
	}
	if summary.Tickrate <= 0 {
		summary.Tickrate = cfg.Sampling.TickRate
	}
	for _, r := range results {
		summary.Profiles += len(r.Players)
	}

	if err := report.WriteDocument(analyzeOut, report.NewDocument(metadataOf(summary), results, agg)); err != nil {
		return fmt.Errorf("write document: %w", err)
	}
	cOK.Fprintf(os.Stdout, "Wrote %s\n", analyzeOut)

	if db != nil {
		if err := db.InsertAnalysis(summary); err != nil {
			return fmt.Errorf("insert analysis: %w", err)
		}
		if err := db.InsertRoundProfiles(hash, results); err != nil {
			return fmt.Errorf("insert round profiles: %w", err)
		}
		if err := db.InsertPositionStats(hash, agg.PositionStats); err != nil {
			return fmt.Errorf("insert position stats: %w", err)
		}
	}

	printAnalysis(summary, agg, 5)
	return nil
}

// loadInput decodes a demo or reads a directory of tables.
func loadInput(input string, cfg config.Config) (*model.MatchTables, error) {
	if parser.IsDemo(input) {
		tables, err := parser.ParseDemo(input, cfg.Sampling.FreezeWindow)
		if err != nil {
			return nil, fmt.Errorf("parse demo: %w", err)
		}
		return tables, nil
	}
	fi, err := os.Stat(input)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	if !fi.IsDir() {
		return nil, fmt.Errorf("input %s is neither a demo nor a directory of tables", input)
	}
	tables, err := ingest.LoadDir(input)
	if err != nil {
		return nil, fmt.Errorf("load tables: %w", err)
	}
	return tables, nil
}

// analysisHash identifies one input analysed under one configuration.
func analysisHash(sourceHash string, cfg config.Config) (string, error) {
	cfgJSON, err := json.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("encode config: %w", err)
	}
	h := sha256.New()
	h.Write([]byte(sourceHash))
	h.Write([]byte{0})
	h.Write(cfgJSON)
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}

func metadataOf(s model.AnalysisSummary) report.Metadata {
	return report.Metadata{
		SourceID:    s.SourceID,
		TotalRounds: s.TotalRounds,
		MapName:     s.MapName,
		Region:      s.Region,
		TickRate:    s.Tickrate,
	}
}

// showCached prints a stored analysis and, when out is set, rewrites its document.
func showCached(db *storage.DB, hash, out string) error {
	s, err := db.GetAnalysisByPrefix(hash)
	if err != nil || s == nil {
		return fmt.Errorf("analysis not found: %s", hash)
	}
	agg, err := db.GetPositionStats(hash)
	if err != nil {
		return fmt.Errorf("get position stats: %w", err)
	}
	if out != "" {
		rounds, err := db.GetRoundProfiles(hash)
		if err != nil {
			return fmt.Errorf("get round profiles: %w", err)
		}
		if err := report.WriteDocument(out, report.NewDocument(metadataOf(*s), rounds, agg)); err != nil {
			return fmt.Errorf("write document: %w", err)
		}
		cOK.Fprintf(os.Stdout, "Wrote %s\n", out)
	}
	printAnalysis(*s, agg, 5)
	return nil
}

func printAnalysis(s model.AnalysisSummary, agg model.AggregateStats, top int) {
	report.PrintAnalysisSummary(os.Stdout, s)
	report.PrintPositionTable(os.Stdout, agg)
	fmt.Fprintln(os.Stdout)
	cHeader.Fprintln(os.Stdout, "Summary")
	report.PrintTopPositions(os.Stdout, agg, top)
}
