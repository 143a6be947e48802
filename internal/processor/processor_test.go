package processor

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pable/go-cs-positions/internal/config"
	"github.com/pable/go-cs-positions/internal/model"
)

var (
	windowPos  = model.Vec3{X: -1450, Y: 1150, Z: 160}
	doorsPos   = model.Vec3{X: -1400, Y: 600, Z: 40}
	outsidePos = model.Vec3{X: 800, Y: 800, Z: 0}
)

func boolp(b bool) *bool { return &b }

// walk emits one tick per game tick for a player, at pos(i) for the i-th tick.
func walk(round int, player string, team model.Team, start, n int, pos func(i int) model.Vec3) []model.TickRecord {
	out := make([]model.TickRecord, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, model.TickRecord{
			RoundNumber: round,
			Tick:        start + i,
			Player:      player,
			Team:        team,
			Pos:         pos(i),
			Health:      100,
			Armor:       100,
			Helmet:      boolp(true),
			Weapon:      "M4A4",
		})
	}
	return out
}

func TestWindowScenario(t *testing.T) {
	ticks := walk(1, "Brollan", model.TeamCT, 1000, 160, func(i int) model.Vec3 {
		if i < 96 {
			return windowPos
		}
		return outsidePos
	})
	p := New(config.Default(), &model.MatchTables{TickRate: 64, Ticks: ticks}, zerolog.Nop())

	res := p.Round(1)
	require.Len(t, res.Players, 1)
	prof := res.Players[0]
	assert.Equal(t, "Brollan", prof.Name)
	assert.Equal(t, "Window", prof.EntryPoint)
	assert.Equal(t, "Window", prof.PrimaryPosition)
	assert.Len(t, prof.Journey, 3)
	assert.True(t, prof.Journey[0].IsEntry)
	assert.Equal(t, model.BuyPistol, prof.BuyType)
	assert.Equal(t, 1.0, prof.TimeInSite)
	assert.NotNil(t, prof.UtilityThrows)
}

func TestRoundFiltersCandidates(t *testing.T) {
	var ticks []model.TickRecord
	ticks = append(ticks, walk(5, "zeta", model.TeamCT, 0, 64, func(int) model.Vec3 { return doorsPos })...)
	ticks = append(ticks, walk(5, "alpha", model.TeamCT, 0, 64, func(int) model.Vec3 { return windowPos })...)
	ticks = append(ticks, walk(5, "attacker", model.TeamT, 0, 64, func(int) model.Vec3 { return windowPos })...)
	ticks = append(ticks, walk(5, "rotator", model.TeamCT, 0, 64, func(int) model.Vec3 { return outsidePos })...)
	ticks = append(ticks, walk(5, "ghost", model.TeamCT, 0, 64, func(int) model.Vec3 { return model.Vec3{} })...)

	p := New(config.Default(), &model.MatchTables{TickRate: 64, Ticks: ticks}, zerolog.Nop())
	res := p.Round(5)
	require.Len(t, res.Players, 2)
	assert.Equal(t, "alpha", res.Players[0].Name)
	assert.Equal(t, "zeta", res.Players[1].Name)
	assert.Equal(t, "Doors", res.Players[1].EntryPoint)
	assert.Equal(t, model.BuyFull, res.Players[0].BuyType)
}

func TestRoundAttachesUtility(t *testing.T) {
	ticks := walk(3, "Kyojin", model.TeamCT, 0, 64, func(int) model.Vec3 { return windowPos })
	throws := []model.ThrowEvent{
		{RoundNumber: 3, Tick: 640, Thrower: "Kyojin", Team: model.TeamCT, Grenade: "Smoke Grenade", Pos: doorsPos},
		{RoundNumber: 3, Tick: 320, Thrower: "Kyojin", Team: model.TeamCT, Grenade: "incgrenade", Pos: windowPos},
		{RoundNumber: 3, Tick: 100, Thrower: "Kyojin", Team: model.TeamCT, Grenade: "flashbang", Pos: outsidePos},
		{RoundNumber: 3, Tick: 200, Thrower: "Kyojin", Team: model.TeamT, Grenade: "hegrenade", Pos: windowPos},
		{RoundNumber: 4, Tick: 200, Thrower: "Kyojin", Team: model.TeamCT, Grenade: "decoy", Pos: windowPos},
		{RoundNumber: 3, Tick: 200, Thrower: "someone", Team: model.TeamCT, Grenade: "molotov", Pos: windowPos},
	}
	p := New(config.Default(), &model.MatchTables{TickRate: 64, Ticks: ticks, Throws: throws}, zerolog.Nop())

	res := p.Round(3)
	require.Len(t, res.Players, 1)
	utility := res.Players[0].UtilityThrows
	require.Len(t, utility, 2)
	assert.Equal(t, "incendiary", utility[0].Type)
	assert.Equal(t, 5.0, utility[0].Time)
	assert.Equal(t, "Window", utility[0].Area)
	assert.Equal(t, "smokegrenade", utility[1].Type)
	assert.Equal(t, "Doors", utility[1].Area)
}

func TestDefendingSideFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Site.DefendingSide = "TERRORIST"
	ticks := walk(2, "ct", model.TeamCT, 0, 64, func(int) model.Vec3 { return windowPos })
	ticks = append(ticks, walk(2, "t", model.TeamT, 0, 64, func(int) model.Vec3 { return windowPos })...)

	res := New(cfg, &model.MatchTables{TickRate: 64, Ticks: ticks}, zerolog.Nop()).Round(2)
	require.Len(t, res.Players, 1)
	assert.Equal(t, "t", res.Players[0].Name)
}

func TestRunOrdersRounds(t *testing.T) {
	var ticks []model.TickRecord
	for r := 6; r >= 1; r-- {
		ticks = append(ticks, walk(r, "anchor", model.TeamCT, r*10000, 64, func(int) model.Vec3 { return windowPos })...)
	}
	p := New(config.Default(), &model.MatchTables{TickRate: 64, Ticks: ticks}, zerolog.Nop())

	results, err := p.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 6)
	for i, r := range results {
		assert.Equal(t, i+1, r.RoundNumber)
		assert.Len(t, r.Players, 1)
	}
	assert.Equal(t, 6, p.TotalRounds())
}

func TestRunEmptyRoundsStillPresent(t *testing.T) {
	ticks := walk(3, "anchor", model.TeamCT, 0, 64, func(int) model.Vec3 { return windowPos })
	results, err := New(config.Default(), &model.MatchTables{Ticks: ticks}, zerolog.Nop()).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Empty(t, results[0].Players)
	assert.NotNil(t, results[0].Players)
	assert.Len(t, results[2].Players, 1)
}

func TestRunNoRounds(t *testing.T) {
	_, err := New(config.Default(), &model.MatchTables{}, zerolog.Nop()).Run(context.Background())
	assert.ErrorIs(t, err, ErrNoRounds)
}

func TestRunCancelled(t *testing.T) {
	ticks := walk(2, "anchor", model.TeamCT, 0, 64, func(int) model.Vec3 { return windowPos })
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(config.Default(), &model.MatchTables{Ticks: ticks}, zerolog.Nop()).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
