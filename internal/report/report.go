package report

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/pable/go-cs-positions/internal/model"
)

func newTable(w io.Writer) *tablewriter.Table {
	return tablewriter.NewTable(w, tablewriter.WithConfig(tablewriter.Config{
		Row: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignRight},
		},
		Header: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignCenter},
		},
	}))
}

// PrintAnalysisSummary prints a one-line summary header for an analysis.
func PrintAnalysisSummary(w io.Writer, s model.AnalysisSummary) {
	hash := s.Hash
	if len(hash) > 12 {
		hash = hash[:12]
	}
	fmt.Fprintf(w, "\nSource: %s  |  Map: %s  |  Region: %s  |  Rounds: %d  |  Profiles: %d  |  Hash: %s\n\n",
		s.SourceID, s.MapName, s.Region, s.TotalRounds, s.Profiles, hash)
}

// PrintAnalysisList prints stored analyses, newest first as given.
func PrintAnalysisList(w io.Writer, list []model.AnalysisSummary) {
	table := newTable(w)
	table.Header("HASH", "SOURCE", "MAP", "REGION", "ROUNDS", "PROFILES", "TICKRATE", "CREATED")
	for _, s := range list {
		hash := s.Hash
		if len(hash) > 12 {
			hash = hash[:12]
		}
		table.Append(
			hash,
			s.SourceID,
			s.MapName,
			s.Region,
			strconv.Itoa(s.TotalRounds),
			strconv.Itoa(s.Profiles),
			fmt.Sprintf("%.0f", s.Tickrate),
			s.CreatedAt,
		)
	}
	table.Render()
}

// PrintPositionTable prints one row per area with its buy-type split and
// a 95% interval on the per-round frequency.
// Columns: AREA | N | FREQ | 95% CI | PISTOL | ECO | LIGHT | FULL | TOP_ENTRY | PLAYERS | MED_TIME | SAMPLE
func PrintPositionTable(w io.Writer, agg model.AggregateStats) {
	table := newTable(w)
	table.Header("AREA", "N", "FREQ", "95% CI", "PISTOL", "ECO", "LIGHT", "FULL", "TOP_ENTRY", "PLAYERS", "MED_TIME", "SAMPLE")

	for _, s := range agg.PositionStats {
		lo, hi := wilsonCI(min(s.TotalOccurrences, agg.TotalRounds), agg.TotalRounds)
		row := []any{
			s.Area,
			strconv.Itoa(s.TotalOccurrences),
			fmt.Sprintf("%.1f%%", s.OverallFrequency*100),
			fmt.Sprintf("%.0f-%.0f%%", lo*100, hi*100),
		}
		for _, bt := range model.BuyTypes {
			share, ok := s.ByBuyType[bt]
			if !ok {
				row = append(row, "—")
				continue
			}
			row = append(row, fmt.Sprintf("%d (%.0f%%)", share.Count, share.Percentage*100))
		}
		row = append(row,
			topEntry(s.EntryPoints),
			strconv.Itoa(s.UniquePlayers),
			fmt.Sprintf("%.1fs", s.MedianTimeInSite),
			sampleFlag(s.TotalOccurrences),
		)
		table.Append(row...)
	}
	table.Render()
}

// PrintTopPositions prints the n most frequent areas as a short list.
func PrintTopPositions(w io.Writer, agg model.AggregateStats, n int) {
	fmt.Fprintf(w, "Top positions over %d rounds:\n", agg.TotalRounds)
	for i, s := range agg.PositionStats {
		if i >= n {
			break
		}
		fmt.Fprintf(w, "  %d. %-18s %5.1f%%  (%d rounds, %d players)\n",
			i+1, s.Area, s.OverallFrequency*100, s.TotalOccurrences, s.UniquePlayers)
	}
	if len(agg.PositionStats) == 0 {
		fmt.Fprintln(w, "  (no defender entered the region)")
	}
}

// PrintRoundTable prints one row per profile.
// Columns: ROUND | PLAYER | BUY | WEAPON | VALUE | BANK | ENTRY | PRIMARY | TIME | PATH | UTIL
func PrintRoundTable(w io.Writer, rounds []model.RoundResult) {
	table := newTable(w)
	table.Header("ROUND", "PLAYER", "BUY", "WEAPON", "VALUE", "BANK", "ENTRY", "PRIMARY", "TIME", "PATH", "UTIL")

	for _, r := range rounds {
		for _, p := range r.Players {
			value := strconv.Itoa(p.Equipment.EquipmentValue)
			if p.Equipment.ValueEstimated {
				value += "~"
			}
			bank := "—"
			if p.Equipment.Bankroll != nil {
				bank = strconv.Itoa(*p.Equipment.Bankroll)
			}
			table.Append(
				strconv.Itoa(r.RoundNumber),
				p.Name,
				string(p.BuyType),
				p.Equipment.PrimaryWeapon,
				value,
				bank,
				p.EntryPoint,
				p.PrimaryPosition,
				fmt.Sprintf("%.1fs", p.TimeInSite),
				pathSummary(p.Journey),
				utilitySummary(p.UtilityThrows),
			)
		}
	}
	table.Render()
}

// topEntry returns the most common entry point, ties by name.
func topEntry(entries map[string]int) string {
	best, n := "—", 0
	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if entries[k] > n {
			best, n = k, entries[k]
		}
	}
	return best
}

// pathSummary collapses consecutive repeats: "Window > Default > Back Plat".
func pathSummary(points []model.JourneyPoint) string {
	var parts []string
	for _, p := range points {
		if len(parts) == 0 || parts[len(parts)-1] != p.Area {
			parts = append(parts, p.Area)
		}
	}
	if len(parts) > 4 {
		parts = append(parts[:3], "…", parts[len(parts)-1])
	}
	return strings.Join(parts, " > ")
}

func utilitySummary(throws []model.UtilityThrow) string {
	if len(throws) == 0 {
		return "—"
	}
	counts := make(map[string]int)
	var order []string
	for _, t := range throws {
		if counts[t.Type] == 0 {
			order = append(order, t.Type)
		}
		counts[t.Type]++
	}
	parts := make([]string, 0, len(order))
	for _, k := range order {
		parts = append(parts, fmt.Sprintf("%s×%d", k, counts[k]))
	}
	return strings.Join(parts, " ")
}

func sampleFlag(n int) string {
	switch {
	case n >= 10:
		return "OK"
	case n >= 5:
		return "LOW"
	default:
		return "VERY_LOW"
	}
}

// wilsonCI computes the 95% Wilson score confidence interval for a proportion.
// Returns (lo, hi) as fractions in [0, 1].
func wilsonCI(hits, n int) (lo, hi float64) {
	if n == 0 {
		return 0, 1
	}
	z := 1.96
	p := float64(hits) / float64(n)
	nf := float64(n)
	denom := 1 + z*z/nf
	center := (p + z*z/(2*nf)) / denom
	half := z * math.Sqrt(p*(1-p)/nf+z*z/(4*nf*nf)) / denom
	return math.Max(0, center-half), math.Min(1, center+half)
}
