package aggregator

import (
	"math"
	"sort"

	"github.com/pable/go-cs-positions/internal/model"
)

// Aggregate rolls per-round profiles up into one RegionStat per primary
// position, sorted by overall frequency (desc), then area name.
func Aggregate(results []model.RoundResult, totalRounds int) model.AggregateStats {
	type accum struct {
		occurrences int
		byBuy       map[model.BuyType]int
		entries     map[string]int
		players     map[string]bool
		times       []float64
	}

	// ---- Pass 1: count every profile under its primary position. ----

	byArea := make(map[string]*accum)
	for _, r := range results {
		for _, p := range r.Players {
			if p.PrimaryPosition == "" {
				continue
			}
			a := byArea[p.PrimaryPosition]
			if a == nil {
				a = &accum{
					byBuy:   make(map[model.BuyType]int),
					entries: make(map[string]int),
					players: make(map[string]bool),
				}
				byArea[p.PrimaryPosition] = a
			}
			a.occurrences++
			a.byBuy[p.BuyType]++
			a.entries[p.EntryPoint]++
			a.players[p.Name] = true
			a.times = append(a.times, p.TimeInSite)
		}
	}

	// ---- Pass 2: convert counts to shares. ----

	stats := make([]model.RegionStat, 0, len(byArea))
	for area, a := range byArea {
		byBuy := make(map[model.BuyType]model.BuyTypeShare, len(a.byBuy))
		for bt, n := range a.byBuy {
			byBuy[bt] = model.BuyTypeShare{
				Count:      n,
				Percentage: round3(float64(n) / float64(a.occurrences)),
			}
		}
		freq := 0.0
		if totalRounds > 0 {
			freq = round3(float64(a.occurrences) / float64(totalRounds))
		}
		sort.Float64s(a.times)
		stats = append(stats, model.RegionStat{
			Area:             area,
			OverallFrequency: freq,
			TotalOccurrences: a.occurrences,
			ByBuyType:        byBuy,
			EntryPoints:      a.entries,
			UniquePlayers:    len(a.players),
			MedianTimeInSite: math.Round(median(a.times)*100) / 100,
		})
	}

	sort.Slice(stats, func(i, j int) bool {
		if stats[i].OverallFrequency != stats[j].OverallFrequency {
			return stats[i].OverallFrequency > stats[j].OverallFrequency
		}
		if stats[i].TotalOccurrences != stats[j].TotalOccurrences {
			return stats[i].TotalOccurrences > stats[j].TotalOccurrences
		}
		return stats[i].Area < stats[j].Area
	})

	return model.AggregateStats{TotalRounds: totalRounds, PositionStats: stats}
}

// Filter keeps the profiles matching every non-empty criterion. Rounds left
// without profiles are kept so round numbering stays intact.
func Filter(results []model.RoundResult, buy model.BuyType, player, area string) []model.RoundResult {
	out := make([]model.RoundResult, 0, len(results))
	for _, r := range results {
		kept := make([]model.PlayerRoundProfile, 0, len(r.Players))
		for _, p := range r.Players {
			if buy != "" && p.BuyType != buy {
				continue
			}
			if player != "" && p.Name != player {
				continue
			}
			if area != "" && p.PrimaryPosition != area {
				continue
			}
			kept = append(kept, p)
		}
		out = append(out, model.RoundResult{RoundNumber: r.RoundNumber, Players: kept})
	}
	return out
}

func round3(v float64) float64 { return math.Round(v*1000) / 1000 }

// median returns the median of a pre-sorted (ascending) slice of float64.
func median(sorted []float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
