package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/pable/go-cs-positions/internal/model"
)

// Rect is an axis-aligned rectangle in world units. Bounds are inclusive.
type Rect struct {
	Name string  `mapstructure:"name" json:"name"`
	MinX float64 `mapstructure:"min_x" json:"min_x"`
	MaxX float64 `mapstructure:"max_x" json:"max_x"`
	MinY float64 `mapstructure:"min_y" json:"min_y"`
	MaxY float64 `mapstructure:"max_y" json:"max_y"`
}

// Site describes the region under analysis and its sub-zones.
// Zones are evaluated in order, most specific first.
type Site struct {
	Map           string   `mapstructure:"map"`
	Region        string   `mapstructure:"region"`
	Bounds        Rect     `mapstructure:"bounds"`
	Zones         []Rect   `mapstructure:"zones"`
	RegionLabel   string   `mapstructure:"region_label"`
	OutsideLabel  string   `mapstructure:"outside_label"`
	EntryZones    []string `mapstructure:"entry_zones"`
	DefendingSide string   `mapstructure:"defending_side"`
}

// Defenders returns the team whose occupation is analysed.
func (s Site) Defenders() model.Team { return model.ParseTeam(s.DefendingSide) }

// Economy holds the price tables and buy-type thresholds.
type Economy struct {
	EcoThreshold      int `mapstructure:"eco_threshold"`
	FullBuyThreshold  int `mapstructure:"full_buy_threshold"`
	FullBuyBankroll   int `mapstructure:"full_buy_bankroll"`
	HelmetBuyBankroll int `mapstructure:"helmet_buy_bankroll"`
	HelmetBuyValue    int `mapstructure:"helmet_buy_value"`
	SMGBankrollMin    int `mapstructure:"smg_bankroll_min"`
	EcoBankroll       int `mapstructure:"eco_bankroll"`
	LightValueMin     int `mapstructure:"light_value_min"`

	// Numeric weapon values above this are entity handles, not names.
	HandleThreshold int64 `mapstructure:"handle_threshold"`

	CategoryPrices   map[string]int `mapstructure:"category_prices"`
	ArmorPrice       int            `mapstructure:"armor_price"`
	ArmorHelmetPrice int            `mapstructure:"armor_helmet_price"`
	GrenadePrices    map[string]int `mapstructure:"grenade_prices"`
}

// Sampling controls journey sampling and the round-start snapshot window.
type Sampling struct {
	Stride       int     `mapstructure:"stride"`
	TickRate     float64 `mapstructure:"tick_rate"`
	FreezeWindow float64 `mapstructure:"freeze_window_seconds"`
}

// Config is passed by value into every component and never mutated after Load.
type Config struct {
	Site     Site     `mapstructure:"site"`
	Economy  Economy  `mapstructure:"economy"`
	Sampling Sampling `mapstructure:"sampling"`
}

// Default returns the Dust2 B-site configuration with CT defending.
func Default() Config {
	return Config{
		Site: Site{
			Map:    "de_dust2",
			Region: "B-Site",
			Bounds: Rect{Name: "B-Site Area", MinX: -2264, MaxX: -963, MinY: -72, MaxY: 1738},
			Zones: []Rect{
				{Name: "Back site Tucked", MinX: -1573, MaxX: -1496, MinY: 1213, MaxY: 1331},
				{Name: "Single Barrel", MinX: -1951, MaxX: -1843, MinY: 1272, MaxY: 1409},
				{Name: "Double Barrels", MinX: -1974, MaxX: -1847, MinY: 1105, MaxY: 1253},
				{Name: "Window", MinX: -1538, MaxX: -1388, MinY: 1076, MaxY: 1213},
				{Name: "Default", MinX: -1592, MaxX: -1484, MinY: 860, MaxY: 1051},
				{Name: "Big Box B Site", MinX: -1982, MaxX: -1816, MinY: 885, MaxY: 1081},
				{Name: "Back Plat", MinX: -2179, MaxX: -1955, MinY: 1385, MaxY: 1718},
				{Name: "Doors", MinX: -1511, MaxX: -1337, MinY: 468, MaxY: 752},
				{Name: "Car B-Site", MinX: -1820, MaxX: -1492, MinY: -23, MaxY: 399},
				{Name: "Tunnel Exit", MinX: -2113, MaxX: -1990, MinY: -243, MaxY: 193},
				{Name: "Top Car Box", MinX: -1940, MaxX: -1870, MinY: 188, MaxY: 267},
				{Name: "Close Left", MinX: -2217, MaxX: -2113, MinY: 183, MaxY: 301},
				{Name: "Second Cubby", MinX: -2248, MaxX: -2175, MinY: 502, MaxY: 620},
				{Name: "B-Site General", MinX: -1820, MaxX: -1488, MinY: 934, MaxY: 1400},
			},
			RegionLabel:   "B-Site Area",
			OutsideLabel:  "Not in B-Site",
			EntryZones:    []string{"Window", "Doors", "Tunnel Exit"},
			DefendingSide: "CT",
		},
		Economy: Economy{
			EcoThreshold:      2000,
			FullBuyThreshold:  3500,
			FullBuyBankroll:   5000,
			HelmetBuyBankroll: 4000,
			HelmetBuyValue:    2000,
			SMGBankrollMin:    3000,
			EcoBankroll:       3000,
			LightValueMin:     2000,
			HandleThreshold:   1_000_000,
			CategoryPrices: map[string]int{
				"pistol": 500,
				"smg":    1500,
				"rifle":  3000,
				"heavy":  4000,
			},
			ArmorPrice:       500,
			ArmorHelmetPrice: 650,
			GrenadePrices: map[string]int{
				"hegrenade":    300,
				"flashbang":    200,
				"smokegrenade": 300,
				"molotov":      400,
				"incendiary":   500,
				"decoy":        50,
			},
		},
		Sampling: Sampling{
			Stride:       32,
			TickRate:     64,
			FreezeWindow: 3,
		},
	}
}

// Load reads a YAML/JSON/TOML file over the defaults. An empty path returns Default().
func Load(path string) (Config, error) {
	d := Default()
	if path == "" {
		return d, nil
	}

	v := viper.New()
	setDefaults(v, d)
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("error reading config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("site.map", d.Site.Map)
	v.SetDefault("site.region", d.Site.Region)
	v.SetDefault("site.bounds", d.Site.Bounds)
	v.SetDefault("site.zones", d.Site.Zones)
	v.SetDefault("site.region_label", d.Site.RegionLabel)
	v.SetDefault("site.outside_label", d.Site.OutsideLabel)
	v.SetDefault("site.entry_zones", d.Site.EntryZones)
	v.SetDefault("site.defending_side", d.Site.DefendingSide)

	v.SetDefault("economy.eco_threshold", d.Economy.EcoThreshold)
	v.SetDefault("economy.full_buy_threshold", d.Economy.FullBuyThreshold)
	v.SetDefault("economy.full_buy_bankroll", d.Economy.FullBuyBankroll)
	v.SetDefault("economy.helmet_buy_bankroll", d.Economy.HelmetBuyBankroll)
	v.SetDefault("economy.helmet_buy_value", d.Economy.HelmetBuyValue)
	v.SetDefault("economy.smg_bankroll_min", d.Economy.SMGBankrollMin)
	v.SetDefault("economy.eco_bankroll", d.Economy.EcoBankroll)
	v.SetDefault("economy.light_value_min", d.Economy.LightValueMin)
	v.SetDefault("economy.handle_threshold", d.Economy.HandleThreshold)
	v.SetDefault("economy.category_prices", d.Economy.CategoryPrices)
	v.SetDefault("economy.armor_price", d.Economy.ArmorPrice)
	v.SetDefault("economy.armor_helmet_price", d.Economy.ArmorHelmetPrice)
	v.SetDefault("economy.grenade_prices", d.Economy.GrenadePrices)

	v.SetDefault("sampling.stride", d.Sampling.Stride)
	v.SetDefault("sampling.tick_rate", d.Sampling.TickRate)
	v.SetDefault("sampling.freeze_window_seconds", d.Sampling.FreezeWindow)
}

// Validate rejects configurations the pipeline cannot run with.
func (c Config) Validate() error {
	var errs []error
	if c.Sampling.Stride <= 0 {
		errs = append(errs, fmt.Errorf("sampling.stride must be positive, got %d", c.Sampling.Stride))
	}
	if c.Sampling.TickRate <= 0 {
		errs = append(errs, fmt.Errorf("sampling.tick_rate must be positive, got %g", c.Sampling.TickRate))
	}
	if c.Sampling.FreezeWindow < 0 {
		errs = append(errs, fmt.Errorf("sampling.freeze_window_seconds must not be negative"))
	}
	if err := c.Site.Bounds.check(); err != nil {
		errs = append(errs, fmt.Errorf("site.bounds: %w", err))
	}
	seen := make(map[string]bool, len(c.Site.Zones))
	for i, z := range c.Site.Zones {
		if strings.TrimSpace(z.Name) == "" {
			errs = append(errs, fmt.Errorf("site.zones[%d]: missing name", i))
		}
		if seen[z.Name] {
			errs = append(errs, fmt.Errorf("site.zones[%d]: duplicate name %q", i, z.Name))
		}
		seen[z.Name] = true
		if err := z.check(); err != nil {
			errs = append(errs, fmt.Errorf("site.zones[%d]: %w", i, err))
		}
	}
	switch c.Site.Defenders() {
	case model.TeamCT, model.TeamT:
	default:
		errs = append(errs, fmt.Errorf("site.defending_side %q is not a playing side", c.Site.DefendingSide))
	}
	if c.Economy.EcoThreshold > c.Economy.FullBuyThreshold {
		errs = append(errs, fmt.Errorf("economy.eco_threshold (%d) above full_buy_threshold (%d)",
			c.Economy.EcoThreshold, c.Economy.FullBuyThreshold))
	}
	if c.Economy.HandleThreshold <= 0 {
		errs = append(errs, fmt.Errorf("economy.handle_threshold must be positive"))
	}
	return errors.Join(errs...)
}

func (r Rect) check() error {
	if r.MinX > r.MaxX || r.MinY > r.MaxY {
		return fmt.Errorf("%q has min above max", r.Name)
	}
	return nil
}

// FreezeWindowTicks converts the snapshot window to ticks at the given rate.
func (s Sampling) FreezeWindowTicks(tickRate float64) int {
	if tickRate <= 0 {
		tickRate = s.TickRate
	}
	return int(s.FreezeWindow * tickRate)
}
