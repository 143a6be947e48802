package report

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/pable/go-cs-positions/internal/model"
)

func sampleDoc() Document {
	bank := 4200
	rounds := []model.RoundResult{
		{RoundNumber: 1, Players: []model.PlayerRoundProfile{{
			Name:    "Magisk",
			BuyType: model.BuyPistol,
			Equipment: model.LoadoutSnapshot{
				PrimaryWeapon: "USP-S", WeaponCategory: "pistol", EquipmentValue: 500,
				Health: 100, Bankroll: &bank, Source: model.SourceTick,
			},
			Journey: []model.JourneyPoint{
				{Tick: 1000, Time: 15.63, X: -1450, Y: 1150, Area: "Window", IsEntry: true},
				{Tick: 1032, Time: 16.13, X: -1450, Y: 1150, Area: "Window"},
			},
			UtilityThrows:   []model.UtilityThrow{{Tick: 1100, Time: 17.19, Type: "smokegrenade", X: -1400, Y: 600, Area: "Doors"}},
			EntryPoint:      "Window",
			PrimaryPosition: "Window",
			TimeInSite:      0.5,
		}}},
		{RoundNumber: 2, Players: []model.PlayerRoundProfile{}},
	}
	agg := model.AggregateStats{TotalRounds: 2, PositionStats: []model.RegionStat{{
		Area: "Window", OverallFrequency: 0.5, TotalOccurrences: 1,
		ByBuyType:     map[model.BuyType]model.BuyTypeShare{model.BuyPistol: {Count: 1, Percentage: 1}},
		EntryPoints:   map[string]int{"Window": 1},
		UniquePlayers: 1,
	}}}
	meta := Metadata{SourceID: "g2-vs-spirit-m3-dust2", TotalRounds: 2, MapName: "de_dust2", Region: "B-Site", TickRate: 64}
	return NewDocument(meta, rounds, agg)
}

func TestWriteDocumentShape(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "data.json")
	require.NoError(t, WriteDocument(path, sampleDoc()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	doc := gjson.ParseBytes(data)

	assert.Equal(t, "g2-vs-spirit-m3-dust2", doc.Get("metadata.source_id").String())
	assert.Equal(t, int64(2), doc.Get("metadata.total_rounds").Int())
	assert.Equal(t, "de_dust2", doc.Get("metadata.map_name").String())

	p := doc.Get("rounds.0.players.0")
	assert.Equal(t, int64(1), doc.Get("rounds.0.round_num").Int())
	assert.Equal(t, "pistol", p.Get("buy_type").String())
	assert.Equal(t, "USP-S", p.Get("equipment.primary_weapon").String())
	assert.Equal(t, int64(500), p.Get("equipment.total_value").Int())
	assert.Equal(t, int64(4200), p.Get("equipment.bankroll").Int())
	assert.False(t, p.Get("equipment.value_estimated").Bool())
	assert.True(t, p.Get("journey.0.is_entry").Bool())
	assert.Equal(t, "Doors", p.Get("utility_throws.0.area").String())
	assert.Equal(t, "Window", p.Get("entry_point").String())
	assert.Equal(t, "Window", p.Get("primary_position").String())
	assert.Equal(t, 0.5, p.Get("time_in_site").Float())
	assert.True(t, doc.Get("rounds.1.players").IsArray())

	s := doc.Get("aggregate.position_stats.0")
	assert.Equal(t, "Window", s.Get("area").String())
	assert.Equal(t, 0.5, s.Get("overall_frequency").Float())
	assert.Equal(t, int64(1), s.Get("by_buy_type.pistol.count").Int())
	assert.Equal(t, int64(1), s.Get("entry_points.Window").Int())

	back, err := ReadDocument(path)
	require.NoError(t, err)
	assert.Equal(t, sampleDoc().Metadata, back.Metadata)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file left behind")
}

func TestWriteDocumentFailureLeavesNothing(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.json")
	require.NoError(t, os.Mkdir(path, 0o755)) // rename onto a directory fails

	assert.Error(t, WriteDocument(path, sampleDoc()))
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestNewDocumentEmpty(t *testing.T) {
	doc := NewDocument(Metadata{}, nil, model.AggregateStats{})
	assert.NotNil(t, doc.Rounds)
	assert.NotNil(t, doc.Aggregate.PositionStats)
}

func TestPrintTables(t *testing.T) {
	doc := sampleDoc()
	var buf bytes.Buffer

	PrintPositionTable(&buf, doc.Aggregate)
	out := buf.String()
	assert.Contains(t, out, "Window")
	assert.Contains(t, out, "VERY_LOW")

	buf.Reset()
	PrintRoundTable(&buf, doc.Rounds)
	out = buf.String()
	assert.Contains(t, out, "Magisk")
	assert.Contains(t, out, "smokegrenade×1")
	assert.Contains(t, out, "4200")

	buf.Reset()
	PrintTopPositions(&buf, doc.Aggregate, 5)
	assert.Contains(t, buf.String(), "1. Window")

	buf.Reset()
	PrintTopPositions(&buf, model.AggregateStats{}, 5)
	assert.Contains(t, buf.String(), "no defender")
}

func TestPathSummary(t *testing.T) {
	pts := func(areas ...string) []model.JourneyPoint {
		out := make([]model.JourneyPoint, len(areas))
		for i, a := range areas {
			out[i].Area = a
		}
		return out
	}
	assert.Equal(t, "Window > Default", pathSummary(pts("Window", "Window", "Default")))
	assert.Equal(t, "A > B > C > … > F", pathSummary(pts("A", "B", "C", "D", "E", "F")))
	assert.Equal(t, "", pathSummary(nil))
}

func TestWilsonCI(t *testing.T) {
	lo, hi := wilsonCI(5, 10)
	assert.InDelta(t, 0.237, lo, 0.001)
	assert.InDelta(t, 0.763, hi, 0.001)

	lo, hi = wilsonCI(0, 0)
	assert.Equal(t, 0.0, lo)
	assert.Equal(t, 1.0, hi)
}

func TestTopEntry(t *testing.T) {
	assert.Equal(t, "Doors", topEntry(map[string]int{"Window": 2, "Doors": 2, "unknown": 1}))
	assert.Equal(t, "—", topEntry(nil))
	assert.True(t, strings.HasPrefix(sampleFlag(12), "OK"))
}
