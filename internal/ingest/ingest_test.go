package ingest

import (
	"bytes"
	"compress/gzip"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pable/go-cs-positions/internal/model"
)

func write(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, data, 0o644))
	return p
}

func zstdBytes(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	enc, err := zstd.NewWriter(&buf)
	require.NoError(t, err)
	_, err = enc.Write(data)
	require.NoError(t, err)
	require.NoError(t, enc.Close())
	return buf.Bytes()
}

func gzipBytes(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	_, err := gz.Write(data)
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	return buf.Bytes()
}

const ticksCSV = `round,tick,player_name,side,x,y,z,hp,armor,helmet,weapon,money
1,1000,Magisk,Counter-Terrorist,-1450.5,1150.25,160,100,100,True,weapon_m4a1_silencer,4750
1,1032,Magisk,CT,-1450,1150,160,100,100,False,2097352,
2,3000,s1mple,T,0,0,0,100,,,,800
`

func TestReadTicksCSVProbeFallbacks(t *testing.T) {
	dir := t.TempDir()
	ticks, err := ReadTicks(write(t, dir, "ticks.csv", []byte(ticksCSV)))
	require.NoError(t, err)
	require.Len(t, ticks, 3)

	first := ticks[0]
	assert.Equal(t, 1, first.RoundNumber)
	assert.Equal(t, 1000, first.Tick)
	assert.Equal(t, "Magisk", first.Player)
	assert.Equal(t, model.TeamCT, first.Team)
	assert.Equal(t, model.Vec3{X: -1450.5, Y: 1150.25, Z: 160}, first.Pos)
	assert.Equal(t, 100, first.Health)
	require.NotNil(t, first.Helmet)
	assert.True(t, *first.Helmet)
	assert.Equal(t, "weapon_m4a1_silencer", first.Weapon)
	require.NotNil(t, first.Cash)
	assert.Equal(t, 4750, *first.Cash)

	assert.Equal(t, "2097352", ticks[1].Weapon)
	assert.Nil(t, ticks[1].Cash)
	assert.Equal(t, model.TeamT, ticks[2].Team)
	assert.Nil(t, ticks[2].Helmet)
	assert.Equal(t, 0, ticks[2].Armor)
}

func TestReadTicksNDJSONZstd(t *testing.T) {
	ndjson := `{"round_num": 3, "tick": 5000, "name": "ZywOo", "team_num": 3, "X": -2000, "Y": 1500, "Z": 40, "health": 91, "armor_value": 100, "has_helmet": true, "active_weapon_name": "AWP", "inventory": ["AWP", "Smoke Grenade"], "balance": 3100}

{"round_num": 3, "tick": 5032, "name": "ZywOo", "team_num": 3, "X": -2001, "Y": 1501, "Z": 40, "health": 91, "active_weapon": 2097352, "inventory": null}
`
	dir := t.TempDir()
	ticks, err := ReadTicks(write(t, dir, "ticks.ndjson.zst", zstdBytes(t, []byte(ndjson))))
	require.NoError(t, err)
	require.Len(t, ticks, 2)
	assert.Equal(t, model.TeamCT, ticks[0].Team)
	assert.Equal(t, []string{"AWP", "Smoke Grenade"}, ticks[0].Inventory)
	assert.Equal(t, 3100, *ticks[0].Cash)
	assert.Equal(t, "2097352", ticks[1].Weapon)
	assert.Nil(t, ticks[1].Inventory)
}

func TestReadTicksMissingField(t *testing.T) {
	dir := t.TempDir()
	_, err := ReadTicks(write(t, dir, "ticks.json", []byte(`[{"round_num": 1, "tick": 1, "name": "a", "X": 0, "Y": 0, "health": 100}]`)))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingField)
	assert.Contains(t, err.Error(), "side")
	assert.Contains(t, err.Error(), "team_num, side, team_name, team")
}

func TestReadThrowsSideEncodings(t *testing.T) {
	data := `[
  {"round": 4, "tick": 700, "thrower_name": "a", "thrower_side": "Counter-Terrorist", "grenade_type": "smokegrenade", "x": -1450, "y": 1150, "z": 0},
  {"round": 4, "tick": 710, "thrower": "b", "thrower_team_num": 3, "grenade": "flashbang", "x": -1400, "y": 600},
  {"round": 4, "tick": 720, "thrower": "c", "side": "ct", "weapon": "molotov", "pos_x": -1, "pos_y": -2},
  {"round": 4, "tick": 730, "thrower": "d", "thrower_side": "TERRORIST", "grenade_type": "hegrenade", "x": 1, "y": 2}
]`
	dir := t.TempDir()
	throws, err := ReadThrows(write(t, dir, "grenades.json", []byte(data)))
	require.NoError(t, err)
	require.Len(t, throws, 4)
	for _, e := range throws[:3] {
		assert.Equal(t, model.TeamCT, e.Team, e.Thrower)
	}
	assert.Equal(t, model.TeamT, throws[3].Team)
	assert.Equal(t, "molotov", throws[2].Grenade)
	assert.Equal(t, -2.0, throws[2].Pos.Y)
}

func TestLoadDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "navi-vs-g2-dust2")
	require.NoError(t, os.Mkdir(dir, 0o755))

	write(t, dir, "ticks.csv.gz", gzipBytes(t, []byte(ticksCSV)))
	write(t, dir, "purchases.csv", []byte("round_num,name,item,cost\n1,Magisk,M4A1-S,2900\n"))
	write(t, dir, "economy.ndjson", []byte(`{"round": 1, "player": "Magisk", "start_balance": 4750}`+"\n"))
	write(t, dir, "rounds.json", []byte(`[{"round_num": 1, "start": 900, "freeze_end": 980, "end": 5000}]`))
	write(t, dir, "match.json", []byte(`{"map": "de_dust2", "tickrate": 64}`))

	tables, err := LoadDir(dir)
	require.NoError(t, err)
	assert.Equal(t, "navi-vs-g2-dust2", tables.SourceID)
	assert.Equal(t, "de_dust2", tables.MapName)
	assert.Equal(t, 64.0, tables.TickRate)
	assert.Len(t, tables.Ticks, 3)
	assert.Empty(t, tables.Throws)
	require.Len(t, tables.Purchases, 1)
	assert.Equal(t, 2900, tables.Purchases[0].Price)
	require.Len(t, tables.Economy, 1)
	assert.Equal(t, 4750, tables.Economy[0].Bankroll)
	require.Len(t, tables.Rounds, 1)
	assert.Equal(t, model.RoundInfo{Number: 1, StartTick: 900, FreezeEndTick: 980, EndTick: 5000}, tables.Rounds[0])
	assert.Len(t, tables.SourceHash, 64)
	assert.Equal(t, 2, tables.TotalRounds())

	again, err := LoadDir(dir)
	require.NoError(t, err)
	assert.Equal(t, tables.SourceHash, again.SourceHash)
}

func TestLoadDirWithoutTicks(t *testing.T) {
	_, err := LoadDir(t.TempDir())
	assert.ErrorIs(t, err, ErrNoTable)
}

func TestBaseExt(t *testing.T) {
	assert.Equal(t, ".csv", BaseExt("ticks.csv.zst"))
	assert.Equal(t, ".dem", BaseExt("/tmp/match.DEM.gz"))
	assert.Equal(t, ".json", BaseExt("rounds.json"))
	assert.Equal(t, ".dem", BaseExt("x.dem.bz2"))
}

func TestListOf(t *testing.T) {
	dir := t.TempDir()
	csv := "round,tick,name,side,x,y,health,inventory\n" +
		"1,1,a,3,0,0,100,\"['ak47', 'knife']\"\n" +
		"1,2,a,3,0,0,100,ak47|smokegrenade\n"
	ticks, err := ReadTicks(write(t, dir, "ticks.csv", []byte(csv)))
	require.NoError(t, err)
	assert.Equal(t, []string{"ak47", "knife"}, ticks[0].Inventory)
	assert.Equal(t, []string{"ak47", "smokegrenade"}, ticks[1].Inventory)
}
