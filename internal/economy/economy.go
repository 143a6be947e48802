// Package economy prices round-start equipment and classifies a player's
// purchase tier.
package economy

import (
	"strconv"
	"strings"

	"github.com/pable/go-cs-positions/internal/config"
	"github.com/pable/go-cs-positions/internal/model"
)

// Weapon categories.
const (
	CategoryPistol = "pistol"
	CategorySMG    = "smg"
	CategoryRifle  = "rifle"
	CategoryHeavy  = "heavy"
	CategoryKnife  = "knife"
	CategoryOther  = "other"
	CategoryNone   = "none"
)

// Keys are normalized names. Both the demo decoder's display names and the
// engine's item class names appear here.
var categories = map[string]string{
	"usps": CategoryPistol, "usp_silencer": CategoryPistol, "hkp2000": CategoryPistol,
	"p2000": CategoryPistol, "glock": CategoryPistol, "glock18": CategoryPistol,
	"p250": CategoryPistol, "fiveseven": CategoryPistol, "tec9": CategoryPistol,
	"cz75a": CategoryPistol, "cz75auto": CategoryPistol, "elite": CategoryPistol,
	"dualberettas": CategoryPistol, "deagle": CategoryPistol, "deserteagle": CategoryPistol,
	"revolver": CategoryPistol, "r8revolver": CategoryPistol,

	"mac10": CategorySMG, "mp9": CategorySMG, "mp7": CategorySMG, "mp5sd": CategorySMG,
	"ump45": CategorySMG, "p90": CategorySMG, "bizon": CategorySMG, "ppbizon": CategorySMG,

	"famas": CategoryRifle, "m4a1": CategoryRifle, "m4a4": CategoryRifle,
	"m4a1_silencer": CategoryRifle, "m4a1s": CategoryRifle, "ak47": CategoryRifle,
	"aug": CategoryRifle, "sg556": CategoryRifle, "sg553": CategoryRifle,
	"galilar": CategoryRifle,

	"awp": CategoryHeavy, "ssg08": CategoryHeavy, "scar20": CategoryHeavy,
	"g3sg1": CategoryHeavy, "nova": CategoryHeavy, "xm1014": CategoryHeavy,
	"mag7": CategoryHeavy, "sawedoff": CategoryHeavy, "m249": CategoryHeavy,
	"negev": CategoryHeavy,
}

var grenadeAliases = map[string]string{
	"hegrenade": "hegrenade", "he": "hegrenade",
	"flashbang": "flashbang", "flash": "flashbang",
	"smokegrenade": "smokegrenade", "smoke": "smokegrenade",
	"molotov": "molotov", "molotovgrenade": "molotov",
	"incendiary": "incendiary", "incgrenade": "incendiary", "incendiarygrenade": "incendiary",
	"decoy": "decoy", "decoygrenade": "decoy",
}

var normalizer = strings.NewReplacer(" ", "", "-", "")

// Normalize lower-cases a weapon name, strips the "weapon_" prefix and drops
// spaces and hyphens, so "weapon_AK-47" and "AK-47" both become "ak47".
func Normalize(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	n = strings.TrimPrefix(n, "weapon_")
	return normalizer.Replace(n)
}

// Category returns the category of a weapon name. Entity handles and unknown
// names are "other".
func Category(name string) string {
	n := Normalize(name)
	if n == "" || n == "none" {
		return CategoryNone
	}
	if c, ok := categories[n]; ok {
		return c
	}
	if strings.Contains(n, "knife") || strings.Contains(n, "bayonet") {
		return CategoryKnife
	}
	return CategoryOther
}

// GrenadeKind returns the canonical grenade key for a name, or "" when the
// name is not a grenade.
func GrenadeKind(name string) string {
	return grenadeAliases[Normalize(name)]
}

// ArmorItem reports whether a purchased item is body armor and whether it
// includes a helmet.
func ArmorItem(name string) (armor, helmet bool) {
	switch Normalize(name) {
	case "kevlar", "kevlarvest", "vest", "item_kevlar":
		return true, false
	case "kevlar+helmet", "vesthelm", "assaultsuit", "item_assaultsuit":
		return true, true
	}
	return false, false
}

// Model holds the configured price tables and thresholds.
type Model struct {
	cfg config.Economy
}

// New returns a Model over the given economy configuration.
func New(cfg config.Economy) *Model {
	return &Model{cfg: cfg}
}

// IsEntityHandle reports whether name is an integer above the handle
// threshold, i.e. an entity reference rather than a weapon name.
func (m *Model) IsEntityHandle(name string) bool {
	n, err := strconv.ParseInt(strings.TrimSpace(name), 10, 64)
	return err == nil && n > m.cfg.HandleThreshold
}

// WeaponPrice is the category price of a named weapon; 0 for anything
// unpriced, including entity handles.
func (m *Model) WeaponPrice(name string) int {
	return m.cfg.CategoryPrices[Category(name)]
}

// GrenadePrice is the price of one grenade, 0 when unknown.
func (m *Model) GrenadePrice(name string) int {
	return m.cfg.GrenadePrices[GrenadeKind(name)]
}

// ArmorPrice is the armor surcharge for the given state.
func (m *Model) ArmorPrice(armor int, helmet bool) int {
	switch {
	case armor <= 0:
		return 0
	case helmet:
		return m.cfg.ArmorHelmetPrice
	default:
		return m.cfg.ArmorPrice
	}
}

// EquipmentValue prices a loadout. When weapon is an entity handle the
// weapon's share is estimated from armor state and estimated is true.
func (m *Model) EquipmentValue(weapon string, armor int, helmet bool, grenades []string) (value int, estimated bool) {
	if m.IsEntityHandle(weapon) {
		estimated = true
		switch {
		case armor > 0 && helmet:
			value += m.cfg.CategoryPrices[CategoryRifle]
		case armor > 0:
			value += m.cfg.CategoryPrices[CategorySMG]
		}
	} else {
		value += m.WeaponPrice(weapon)
	}
	value += m.ArmorPrice(armor, helmet)
	for _, g := range grenades {
		value += m.GrenadePrice(g)
	}
	if value < 0 {
		value = 0
	}
	return value, estimated
}

// HalfBoundary is the first round of the second half: 16 for short
// (up to 24 round) matches, 13 otherwise.
func HalfBoundary(totalRounds int) int {
	if totalRounds <= 24 {
		return 16
	}
	return 13
}

// BuyInput is everything the buy-type ladder looks at.
type BuyInput struct {
	Round          int
	TotalRounds    int
	EquipmentValue int
	Weapon         string
	Armor          int
	Helmet         bool
	Bankroll       *int
}

// ClassifyBuyType assigns a purchase tier. It depends only on in.
func (m *Model) ClassifyBuyType(in BuyInput) model.BuyType {
	if in.Round == 1 || in.Round == HalfBoundary(in.TotalRounds) {
		return model.BuyPistol
	}

	c := m.cfg
	cat := Category(in.Weapon)
	if m.IsEntityHandle(in.Weapon) {
		cat = CategoryOther
	}
	value := in.EquipmentValue
	kitted := in.Armor > 0 && in.Helmet

	if in.Bankroll != nil {
		bank := *in.Bankroll
		switch {
		case value >= c.FullBuyThreshold && bank >= c.FullBuyBankroll,
			(cat == CategoryRifle || cat == CategoryHeavy) && bank >= c.FullBuyBankroll,
			kitted && value >= c.HelmetBuyValue && bank >= c.HelmetBuyBankroll:
			return model.BuyFull
		case cat == CategorySMG && bank >= c.SMGBankrollMin && bank < c.FullBuyBankroll,
			value >= c.LightValueMin && value < c.FullBuyThreshold &&
				bank >= c.LightValueMin && bank < c.FullBuyBankroll:
			return model.BuyLight
		case bank < c.EcoBankroll, cat == CategoryPistol, value < c.EcoThreshold:
			return model.BuyEco
		case value >= c.FullBuyThreshold:
			return model.BuyFull
		default:
			return model.BuyLight
		}
	}

	if kitted && value >= c.HelmetBuyValue {
		if value >= c.FullBuyThreshold {
			return model.BuyFull
		}
		return model.BuyLight
	}
	switch {
	case value < c.EcoThreshold, cat == CategoryPistol:
		return model.BuyEco
	case cat == CategorySMG && value < c.FullBuyThreshold:
		return model.BuyLight
	case value >= c.FullBuyThreshold, cat == CategoryRifle, cat == CategoryHeavy:
		return model.BuyFull
	default:
		return model.BuyEco
	}
}
