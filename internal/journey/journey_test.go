package journey

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pable/go-cs-positions/internal/config"
	"github.com/pable/go-cs-positions/internal/model"
	"github.com/pable/go-cs-positions/internal/zone"
)

var (
	window  = model.Vec3{X: -1450, Y: 1150, Z: 160}
	doors   = model.Vec3{X: -1400, Y: 600, Z: 40}
	plat    = model.Vec3{X: -2000, Y: 1500, Z: 40}
	outside = model.Vec3{X: 500, Y: 500, Z: 0}
)

func classifier() *zone.Classifier { return zone.New(config.Default().Site) }

func at(tick, health int, pos model.Vec3) *model.TickRecord {
	return &model.TickRecord{RoundNumber: 1, Tick: tick, Player: "Magisk", Team: model.TeamCT, Health: health, Pos: pos}
}

func TestTrackSamplesEveryStride(t *testing.T) {
	var ticks []*model.TickRecord
	for i := 0; i < 10; i++ {
		ticks = append(ticks, at(1000+i, 100, window))
	}
	got := New(classifier(), 4, 64).Track(ticks)
	require.Len(t, got, 3)
	assert.Equal(t, []int{1000, 1004, 1008}, []int{got[0].Tick, got[1].Tick, got[2].Tick})
}

func TestTrackOrdersAndFlagsSingleEntry(t *testing.T) {
	ticks := []*model.TickRecord{
		at(3*64, 100, plat),
		at(1*64, 100, doors),
		at(2*64, 100, outside),
		at(4*64, 100, doors),
		at(0, 100, outside),
	}
	got := New(classifier(), 1, 64).Track(ticks)
	require.Len(t, got, 3)

	entries := 0
	for i, p := range got {
		if p.IsEntry {
			entries++
		}
		if i > 0 {
			assert.GreaterOrEqual(t, p.Time, got[i-1].Time)
		}
	}
	assert.Equal(t, 1, entries)
	assert.True(t, got[0].IsEntry)
	assert.Equal(t, "Doors", got[0].Area)
	assert.Equal(t, 1.0, got[0].Time)
	assert.Equal(t, "Back Plat", got[1].Area)
	assert.False(t, got[2].IsEntry)
}

func TestTrackSkipsDeadAndDegenerate(t *testing.T) {
	ticks := []*model.TickRecord{
		at(0, 100, model.Vec3{}),
		at(1, 0, window),
		at(2, 100, window),
	}
	got := New(classifier(), 1, 64).Track(ticks)
	require.Len(t, got, 1)
	assert.Equal(t, 2, got[0].Tick)
	assert.True(t, got[0].IsEntry)
}

func TestTrackNeverInRegion(t *testing.T) {
	ticks := []*model.TickRecord{at(0, 100, outside), at(32, 100, outside)}
	assert.Empty(t, New(classifier(), 32, 64).Track(ticks))
	assert.Empty(t, New(classifier(), 32, 64).Track(nil))
}

func TestTrackRoundsCoordinates(t *testing.T) {
	got := New(classifier(), 1, 64).Track([]*model.TickRecord{at(100, 100, model.Vec3{X: -1450.04, Y: 1150.06, Z: 1})})
	require.Len(t, got, 1)
	assert.Equal(t, -1450.0, got[0].X)
	assert.Equal(t, 1150.1, got[0].Y)
	assert.Equal(t, 1.56, got[0].Time)
}

func TestSummaries(t *testing.T) {
	cls := classifier()
	points := []model.JourneyPoint{
		{Time: 10, Area: "Window", IsEntry: true},
		{Time: 10.5, Area: "Back Plat"},
		{Time: 11, Area: "Window"},
		{Time: 11.5, Area: "Back Plat"},
		{Time: 12.25, Area: "Default"},
	}
	assert.Equal(t, "Window", PrimaryPosition(points))
	assert.Equal(t, "Window", EntryPoint(points, cls))
	assert.Equal(t, 2.25, TimeInSite(points))

	points[0].Area = "Default"
	assert.Equal(t, "Default", PrimaryPosition(points))
	assert.Equal(t, UnknownEntry, EntryPoint(points, cls))

	assert.Equal(t, "", PrimaryPosition(nil))
	assert.Equal(t, UnknownEntry, EntryPoint(nil, cls))
	assert.Equal(t, 0.0, TimeInSite(points[:1]))
}
