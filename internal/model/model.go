package model

import (
	"math"
	"strconv"
	"strings"
)

// Team represents which side a player is on. Values match the engine's team_num.
type Team int

const (
	TeamUnknown    Team = 0
	TeamSpectators Team = 1
	TeamT          Team = 2
	TeamCT         Team = 3
)

func (t Team) String() string {
	switch t {
	case TeamT:
		return "T"
	case TeamCT:
		return "CT"
	default:
		return "?"
	}
}

// ParseTeam accepts every side encoding seen in exported tick tables:
// numeric team codes ("2", "3", or "3.0" from float-typed columns), short labels ("T", "ct") and the
// human-readable names ("Counter-Terrorist", "TERRORIST").
func ParseTeam(s string) Team {
	v := strings.ToLower(strings.TrimSpace(s))
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		if math.IsInf(f, 0) || f != math.Trunc(f) {
			return TeamUnknown
		}
		switch n := Team(f); n {
		case TeamSpectators, TeamT, TeamCT:
			return n
		}
		return TeamUnknown
	}
	v = strings.NewReplacer("-", "", "_", "", " ", "").Replace(v)
	switch v {
	case "ct", "counterterrorist", "counterterrorists":
		return TeamCT
	case "t", "terrorist", "terrorists":
		return TeamT
	case "spectator", "spectators", "spec":
		return TeamSpectators
	default:
		return TeamUnknown
	}
}

// Vec3 is a 3D world-space position in Hammer units.
type Vec3 struct{ X, Y, Z float64 }

// IsZero reports the all-zero position that decoders emit for a missing sample.
func (v Vec3) IsZero() bool { return v.X == 0 && v.Y == 0 && v.Z == 0 }

// ---- Raw tables emitted by the decoder / ingest ----

// TickRecord is one sampled instant of one player.
type TickRecord struct {
	RoundNumber int
	Tick        int
	Player      string
	Team        Team
	Pos         Vec3
	Health      int
	Armor       int
	Helmet      *bool    // nil when the source carries no helmet column
	Weapon      string   // active weapon name, or a numeric entity handle
	Inventory   []string // optional; only populated around round start
	Cash        *int
}

// Alive reports whether the player had health at this tick.
func (r TickRecord) Alive() bool { return r.Health > 0 }

type ThrowEvent struct {
	RoundNumber int
	Tick        int
	Thrower     string
	Team        Team
	Grenade     string
	Pos         Vec3
}

// PurchaseRecord is one entry from a purchase ledger. Price is authoritative.
type PurchaseRecord struct {
	RoundNumber int
	Tick        int
	Player      string
	Item        string
	Price       int
}

// EconomyRecord is one entry from an economy ledger: the bankroll a player
// started the round with.
type EconomyRecord struct {
	RoundNumber int
	Player      string
	Bankroll    int
}

type RoundInfo struct {
	Number        int
	StartTick     int
	FreezeEndTick int // 0 when unknown
	EndTick       int
}

// MatchTables is everything the analysis consumes for one match.
type MatchTables struct {
	SourceID   string
	SourceHash string
	MapName    string
	TickRate   float64
	Ticks      []TickRecord
	Throws     []ThrowEvent
	Purchases  []PurchaseRecord
	Economy    []EconomyRecord
	Rounds     []RoundInfo
}

// TotalRounds is the highest round number present in the tick table.
func (m *MatchTables) TotalRounds() int {
	total := 0
	for _, t := range m.Ticks {
		if t.RoundNumber > total {
			total = t.RoundNumber
		}
	}
	return total
}

// ---- Per-round results ----

// BuyType is the purchase tier of a player's round.
type BuyType string

const (
	BuyPistol BuyType = "pistol"
	BuyEco    BuyType = "eco"
	BuyLight  BuyType = "light_buy"
	BuyFull   BuyType = "full_buy"
)

// BuyTypes lists every tier in display order.
var BuyTypes = []BuyType{BuyPistol, BuyEco, BuyLight, BuyFull}

// Loadout sources, most reliable first.
const (
	SourcePurchase = "purchase"
	SourceEconomy  = "economy"
	SourceTick     = "tick"
)

// LoadoutSnapshot is a player's resolved round-start equipment.
type LoadoutSnapshot struct {
	PrimaryWeapon  string `json:"primary_weapon"`
	WeaponCategory string `json:"weapon_category"`
	Armor          int    `json:"armor_value"`
	Helmet         bool   `json:"has_helmet"`
	EquipmentValue int    `json:"total_value"`
	Health         int    `json:"health"`
	Bankroll       *int   `json:"bankroll"`
	// ValueEstimated is set when the weapon was an entity handle and the
	// value came from the armor heuristic rather than a price lookup.
	ValueEstimated bool   `json:"value_estimated"`
	Source         string `json:"source"`
}

type JourneyPoint struct {
	Tick    int     `json:"tick"`
	Time    float64 `json:"time"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Area    string  `json:"area"`
	IsEntry bool    `json:"is_entry"`
}

type UtilityThrow struct {
	Tick int     `json:"tick"`
	Time float64 `json:"time"`
	Type string  `json:"type"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Area string  `json:"area"`
}

// PlayerRoundProfile is one defender's round inside the region.
type PlayerRoundProfile struct {
	Name            string          `json:"name"`
	BuyType         BuyType         `json:"buy_type"`
	Equipment       LoadoutSnapshot `json:"equipment"`
	Journey         []JourneyPoint  `json:"journey"`
	UtilityThrows   []UtilityThrow  `json:"utility_throws"`
	EntryPoint      string          `json:"entry_point"`
	PrimaryPosition string          `json:"primary_position"`
	TimeInSite      float64         `json:"time_in_site"`
}

type RoundResult struct {
	RoundNumber int                  `json:"round_num"`
	Players     []PlayerRoundProfile `json:"players"`
}

// ---- Aggregated metrics ----

type BuyTypeShare struct {
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// RegionStat rolls up every profile whose primary position was Area.
type RegionStat struct {
	Area             string                   `json:"area"`
	OverallFrequency float64                  `json:"overall_frequency"`
	TotalOccurrences int                      `json:"total_occurrences"`
	ByBuyType        map[BuyType]BuyTypeShare `json:"by_buy_type"`
	EntryPoints      map[string]int           `json:"entry_points"`
	UniquePlayers    int                      `json:"unique_players"`
	MedianTimeInSite float64                  `json:"median_time_in_site"`
}

type AggregateStats struct {
	TotalRounds   int          `json:"total_rounds"`
	PositionStats []RegionStat `json:"position_stats"`
}

// AnalysisSummary is a lightweight record for list/show commands.
type AnalysisSummary struct {
	Hash        string
	SourceID    string
	MapName     string
	Region      string
	TotalRounds int
	Tickrate    float64
	Profiles    int
	CreatedAt   string
}
