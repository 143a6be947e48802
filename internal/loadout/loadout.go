// Package loadout resolves a player's round-start equipment from the tick
// table, the purchase ledger and the economy ledger.
package loadout

import (
	"errors"
	"sort"

	"github.com/pable/go-cs-positions/internal/config"
	"github.com/pable/go-cs-positions/internal/economy"
	"github.com/pable/go-cs-positions/internal/model"
)

// ErrNoTicks is returned when a player has no tick records in a round.
var ErrNoTicks = errors.New("no ticks for player in round")

type key struct {
	round  int
	player string
}

// Resolver indexes the match tables once and answers per (round, player)
// lookups. It is read-only after construction and safe for concurrent use.
type Resolver struct {
	econ      *economy.Model
	window    int
	ticks     map[key][]*model.TickRecord
	purchases map[key][]model.PurchaseRecord
	ledger    map[key]int
	freezeEnd map[int]int
}

// NewResolver builds the lookup indexes. The snapshot window is the
// configured freeze window converted at the match tick rate.
func NewResolver(cfg config.Config, econ *economy.Model, tables *model.MatchTables) *Resolver {
	tickRate := tables.TickRate
	if tickRate <= 0 {
		tickRate = cfg.Sampling.TickRate
	}
	r := &Resolver{
		econ:      econ,
		window:    cfg.Sampling.FreezeWindowTicks(tickRate),
		ticks:     make(map[key][]*model.TickRecord),
		purchases: make(map[key][]model.PurchaseRecord),
		ledger:    make(map[key]int),
		freezeEnd: make(map[int]int),
	}
	for i := range tables.Ticks {
		t := &tables.Ticks[i]
		k := key{t.RoundNumber, t.Player}
		r.ticks[k] = append(r.ticks[k], t)
	}
	for _, ts := range r.ticks {
		sort.SliceStable(ts, func(i, j int) bool { return ts[i].Tick < ts[j].Tick })
	}
	for _, p := range tables.Purchases {
		k := key{p.RoundNumber, p.Player}
		r.purchases[k] = append(r.purchases[k], p)
	}
	for _, e := range tables.Economy {
		k := key{e.RoundNumber, e.Player}
		if _, ok := r.ledger[k]; !ok {
			r.ledger[k] = e.Bankroll
		}
	}
	for _, ri := range tables.Rounds {
		if ri.FreezeEndTick > 0 {
			r.freezeEnd[ri.Number] = ri.FreezeEndTick
		}
	}
	return r
}

// Resolve returns the round-start loadout of player in round.
func (r *Resolver) Resolve(round int, player string) (model.LoadoutSnapshot, error) {
	k := key{round, player}
	ticks := r.ticks[k]
	if len(ticks) == 0 {
		return model.LoadoutSnapshot{}, ErrNoTicks
	}

	idx := r.snapshotIndex(ticks, r.freezeEnd[round])
	snap := ticks[idx]

	armor, helmet := NormalizeArmor(snap.Armor, snap.Helmet)
	weapon := r.weaponFromTicks(ticks, idx)
	var grenades []string
	for _, item := range snap.Inventory {
		if economy.GrenadeKind(item) != "" {
			grenades = append(grenades, item)
		}
	}
	value, estimated := r.econ.EquipmentValue(weapon, armor, helmet, grenades)

	out := model.LoadoutSnapshot{
		PrimaryWeapon:  weapon,
		Armor:          armor,
		Helmet:         helmet,
		EquipmentValue: value,
		Health:         snap.Health,
		ValueEstimated: estimated,
		Source:         model.SourceTick,
	}

	if bought := r.purchases[k]; len(bought) > 0 {
		r.applyPurchases(&out, bought)
	}

	if b, ok := r.ledger[k]; ok {
		out.Bankroll = &b
		if out.Source == model.SourceTick {
			out.Source = model.SourceEconomy
		}
	} else if cash := r.firstCash(ticks, idx); cash != nil {
		out.Bankroll = cash
	}

	out.WeaponCategory = economy.Category(out.PrimaryWeapon)
	if r.econ.IsEntityHandle(out.PrimaryWeapon) {
		out.WeaponCategory = economy.CategoryOther
	}
	return out, nil
}

// Ticks returns the tick records of player in round ordered by tick.
func (r *Resolver) Ticks(round int, player string) []*model.TickRecord {
	return r.ticks[key{round, player}]
}

// snapshotIndex picks the alive tick nearest freeze end inside the window,
// then the first alive tick, then the first tick.
func (r *Resolver) snapshotIndex(ticks []*model.TickRecord, freezeEnd int) int {
	if freezeEnd > 0 {
		for i, t := range ticks {
			if t.Tick > freezeEnd+r.window {
				break
			}
			if t.Tick >= freezeEnd && t.Alive() {
				return i
			}
		}
	}
	for i, t := range ticks {
		if t.Alive() {
			return i
		}
	}
	return 0
}

// weaponFromTicks scans the snapshot tick and the ticks inside the window
// after it. The highest priced name wins; entity handles are only kept when
// nothing else was seen.
func (r *Resolver) weaponFromTicks(ticks []*model.TickRecord, from int) string {
	var best, fallback, handle string
	bestPrice := 0
	limit := ticks[from].Tick + r.window

	consider := func(name string) {
		if name == "" || economy.Category(name) == economy.CategoryNone {
			return
		}
		if r.econ.IsEntityHandle(name) {
			if handle == "" {
				handle = name
			}
			return
		}
		if p := r.econ.WeaponPrice(name); p > bestPrice {
			best, bestPrice = name, p
			return
		}
		if fallback == "" && economy.GrenadeKind(name) == "" {
			fallback = name
		}
	}

	for _, t := range ticks[from:] {
		if t.Tick > limit {
			break
		}
		consider(t.Weapon)
		for _, item := range t.Inventory {
			consider(item)
		}
	}

	switch {
	case best != "":
		return best
	case fallback != "":
		return fallback
	case handle != "":
		return handle
	default:
		return "none"
	}
}

// applyPurchases overrides the tick-derived weapon and value with the
// purchase ledger.
func (r *Resolver) applyPurchases(out *model.LoadoutSnapshot, bought []model.PurchaseRecord) {
	total := 0
	weapon, weaponPrice := "", -1
	boughtArmor := false
	for _, p := range bought {
		total += p.Price
		switch economy.Category(p.Item) {
		case economy.CategoryPistol, economy.CategorySMG, economy.CategoryRifle, economy.CategoryHeavy:
			if p.Price > weaponPrice {
				weapon, weaponPrice = p.Item, p.Price
			}
		}
		if armor, helmet := economy.ArmorItem(p.Item); armor {
			boughtArmor = true
			out.Armor = 100
			out.Helmet = out.Helmet || helmet
		}
	}

	estimated := false
	if weapon != "" {
		out.PrimaryWeapon = weapon
	} else {
		// Carried weapon: same pricing as the tick path, handle estimate included.
		share, est := r.econ.EquipmentValue(out.PrimaryWeapon, out.Armor, out.Helmet, nil)
		total += share - r.econ.ArmorPrice(out.Armor, out.Helmet)
		estimated = est
	}
	if !boughtArmor {
		total += r.econ.ArmorPrice(out.Armor, out.Helmet)
	}
	out.EquipmentValue = total
	out.ValueEstimated = estimated
	out.Source = model.SourcePurchase
}

// NormalizeArmor clamps armor to 0..100. Values above 100 imply a helmet;
// otherwise the explicit flag decides and a missing flag means no helmet.
func NormalizeArmor(armor int, helmet *bool) (int, bool) {
	switch {
	case armor > 100:
		return 100, true
	case armor <= 0:
		return 0, false
	case helmet != nil:
		return armor, *helmet
	default:
		return armor, false
	}
}

// firstCash returns the first cash reading from the snapshot tick up to the
// end of the snapshot window, or nil.
func (r *Resolver) firstCash(ticks []*model.TickRecord, from int) *int {
	limit := ticks[from].Tick + r.window
	for _, t := range ticks[from:] {
		if t.Tick > limit {
			break
		}
		if t.Cash != nil {
			v := *t.Cash
			return &v
		}
	}
	return nil
}
