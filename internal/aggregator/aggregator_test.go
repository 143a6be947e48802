package aggregator

import (
	"math"
	"testing"

	"github.com/pable/go-cs-positions/internal/model"
)

// prof builds a minimal profile with the fields the aggregator reads.
func prof(name, primary, entry string, buy model.BuyType, timeInSite float64) model.PlayerRoundProfile {
	return model.PlayerRoundProfile{
		Name:            name,
		BuyType:         buy,
		PrimaryPosition: primary,
		EntryPoint:      entry,
		TimeInSite:      timeInSite,
		Journey:         []model.JourneyPoint{{Area: primary, IsEntry: true}},
	}
}

// sampleResults: 4 rounds, 6 profiles across 3 areas.
func sampleResults() []model.RoundResult {
	return []model.RoundResult{
		{RoundNumber: 1, Players: []model.PlayerRoundProfile{
			prof("A", "Window", "Window", model.BuyPistol, 4),
			prof("B", "Back Plat", "unknown", model.BuyPistol, 10),
		}},
		{RoundNumber: 2, Players: []model.PlayerRoundProfile{
			prof("A", "Window", "Window", model.BuyEco, 6),
		}},
		{RoundNumber: 3, Players: []model.PlayerRoundProfile{
			prof("C", "Window", "Doors", model.BuyFull, 8),
			prof("B", "Doors", "Doors", model.BuyFull, 2),
		}},
		{RoundNumber: 4, Players: []model.PlayerRoundProfile{
			prof("B", "Back Plat", "Tunnel Exit", model.BuyLight, 12),
		}},
	}
}

func findArea(stats []model.RegionStat, area string) *model.RegionStat {
	for i := range stats {
		if stats[i].Area == area {
			return &stats[i]
		}
	}
	return nil
}

// TestAggregate_Conservation: occurrences over all areas equal the number of profiles.
func TestAggregate_Conservation(t *testing.T) {
	results := sampleResults()
	agg := Aggregate(results, 4)

	profiles := 0
	for _, r := range results {
		profiles += len(r.Players)
	}
	total := 0
	for _, s := range agg.PositionStats {
		total += s.TotalOccurrences
	}
	if total != profiles {
		t.Errorf("occurrences: want %d, got %d", profiles, total)
	}
	if agg.TotalRounds != 4 {
		t.Errorf("TotalRounds: want 4, got %d", agg.TotalRounds)
	}
}

// TestAggregate_PercentagesSumToOne: buy-type shares of each area add up to 1.
func TestAggregate_PercentagesSumToOne(t *testing.T) {
	agg := Aggregate(sampleResults(), 4)
	for _, s := range agg.PositionStats {
		sum := 0.0
		for _, share := range s.ByBuyType {
			sum += share.Percentage
		}
		if math.Abs(sum-1.0) > 0.002 {
			t.Errorf("%s: buy-type percentages sum to %.4f", s.Area, sum)
		}
	}
}

// TestAggregate_WindowBreakdown checks every field of one area.
func TestAggregate_WindowBreakdown(t *testing.T) {
	agg := Aggregate(sampleResults(), 4)
	w := findArea(agg.PositionStats, "Window")
	if w == nil {
		t.Fatal("Window missing from position stats")
	}
	if w.TotalOccurrences != 3 {
		t.Errorf("TotalOccurrences: want 3, got %d", w.TotalOccurrences)
	}
	if w.OverallFrequency != 0.75 {
		t.Errorf("OverallFrequency: want 0.75, got %v", w.OverallFrequency)
	}
	if w.UniquePlayers != 2 {
		t.Errorf("UniquePlayers: want 2, got %d", w.UniquePlayers)
	}
	if got := w.ByBuyType[model.BuyPistol]; got.Count != 1 || got.Percentage != 0.333 {
		t.Errorf("pistol share: want {1 0.333}, got %+v", got)
	}
	if _, ok := w.ByBuyType[model.BuyLight]; ok {
		t.Error("light_buy should be absent for Window")
	}
	if w.EntryPoints["Window"] != 2 || w.EntryPoints["Doors"] != 1 {
		t.Errorf("EntryPoints: got %v", w.EntryPoints)
	}
	if w.MedianTimeInSite != 6 {
		t.Errorf("MedianTimeInSite: want 6, got %v", w.MedianTimeInSite)
	}
}

// TestAggregate_SortOrder: frequency descending, ties by area name.
func TestAggregate_SortOrder(t *testing.T) {
	agg := Aggregate(sampleResults(), 4)
	want := []string{"Window", "Back Plat", "Doors"}
	if len(agg.PositionStats) != len(want) {
		t.Fatalf("want %d areas, got %d", len(want), len(agg.PositionStats))
	}
	for i, area := range want {
		if agg.PositionStats[i].Area != area {
			t.Errorf("position %d: want %s, got %s", i, area, agg.PositionStats[i].Area)
		}
	}

	tied := []model.RoundResult{{RoundNumber: 1, Players: []model.PlayerRoundProfile{
		prof("X", "Doors", "Doors", model.BuyEco, 1),
		prof("Y", "Close Left", "unknown", model.BuyEco, 1),
	}}}
	agg = Aggregate(tied, 1)
	if agg.PositionStats[0].Area != "Close Left" || agg.PositionStats[1].Area != "Doors" {
		t.Errorf("tie order: got %s, %s", agg.PositionStats[0].Area, agg.PositionStats[1].Area)
	}
}

// TestAggregate_ZeroRounds: no division by zero, frequency stays 0.
func TestAggregate_ZeroRounds(t *testing.T) {
	agg := Aggregate(sampleResults(), 0)
	for _, s := range agg.PositionStats {
		if s.OverallFrequency != 0 {
			t.Errorf("%s: want frequency 0, got %v", s.Area, s.OverallFrequency)
		}
	}

	empty := Aggregate(nil, 0)
	if empty.PositionStats == nil || len(empty.PositionStats) != 0 {
		t.Errorf("empty input: want empty non-nil slice, got %v", empty.PositionStats)
	}
}

// TestAggregate_SkipsUndefinedPrimary: profiles without a primary position are not counted.
func TestAggregate_SkipsUndefinedPrimary(t *testing.T) {
	results := []model.RoundResult{{RoundNumber: 1, Players: []model.PlayerRoundProfile{
		prof("A", "", "unknown", model.BuyEco, 0),
		prof("B", "Doors", "Doors", model.BuyEco, 0),
	}}}
	agg := Aggregate(results, 1)
	if len(agg.PositionStats) != 1 || agg.PositionStats[0].TotalOccurrences != 1 {
		t.Errorf("want only Doors counted once, got %+v", agg.PositionStats)
	}
}

func TestFilter(t *testing.T) {
	results := sampleResults()

	got := Filter(results, model.BuyFull, "", "")
	if len(got) != 4 {
		t.Fatalf("Filter should keep every round, got %d", len(got))
	}
	n := 0
	for _, r := range got {
		n += len(r.Players)
	}
	if n != 2 {
		t.Errorf("full_buy profiles: want 2, got %d", n)
	}

	got = Filter(results, "", "B", "Back Plat")
	if len(got[0].Players) != 1 || len(got[3].Players) != 1 || len(got[2].Players) != 0 {
		t.Errorf("player+area filter: got %+v", got)
	}
}
