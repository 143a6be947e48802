// Package processor runs the per-round analysis: candidate selection,
// loadout resolution, buy-type classification, journeys and utility.
package processor

import (
	"context"
	"errors"
	"runtime"
	"sort"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/pable/go-cs-positions/internal/config"
	"github.com/pable/go-cs-positions/internal/economy"
	"github.com/pable/go-cs-positions/internal/journey"
	"github.com/pable/go-cs-positions/internal/loadout"
	"github.com/pable/go-cs-positions/internal/model"
	"github.com/pable/go-cs-positions/internal/zone"
)

// ErrNoRounds is returned by Run when the tick table holds no rounds.
var ErrNoRounds = errors.New("no rounds in tick table")

// Processor holds the read-only indexes shared by every round.
type Processor struct {
	cfg         config.Config
	log         zerolog.Logger
	cls         *zone.Classifier
	econ        *economy.Model
	resolver    *loadout.Resolver
	tracker     *journey.Tracker
	defenders   model.Team
	totalRounds int

	players map[int][]string
	throws  map[int][]model.ThrowEvent
}

// New indexes tables for analysis. The demo tick rate takes precedence over
// the configured one when known.
func New(cfg config.Config, tables *model.MatchTables, log zerolog.Logger) *Processor {
	tickRate := tables.TickRate
	if tickRate <= 0 {
		tickRate = cfg.Sampling.TickRate
	}
	cls := zone.New(cfg.Site)
	econ := economy.New(cfg.Economy)
	p := &Processor{
		cfg:         cfg,
		log:         log,
		cls:         cls,
		econ:        econ,
		resolver:    loadout.NewResolver(cfg, econ, tables),
		tracker:     journey.New(cls, cfg.Sampling.Stride, tickRate),
		defenders:   cfg.Site.Defenders(),
		totalRounds: tables.TotalRounds(),
		players:     make(map[int][]string),
		throws:      make(map[int][]model.ThrowEvent),
	}

	// Candidates: defenders alive at least once at a usable in-region position.
	seen := make(map[int]map[string]bool)
	for i := range tables.Ticks {
		t := &tables.Ticks[i]
		if t.Team != p.defenders || !t.Alive() || t.Pos.IsZero() || !cls.InBounds(t.Pos.X, t.Pos.Y) {
			continue
		}
		if seen[t.RoundNumber] == nil {
			seen[t.RoundNumber] = make(map[string]bool)
		}
		if !seen[t.RoundNumber][t.Player] {
			seen[t.RoundNumber][t.Player] = true
			p.players[t.RoundNumber] = append(p.players[t.RoundNumber], t.Player)
		}
	}
	for _, names := range p.players {
		sort.Strings(names)
	}

	for _, e := range tables.Throws {
		if e.Team != p.defenders || !cls.InBounds(e.Pos.X, e.Pos.Y) {
			continue
		}
		p.throws[e.RoundNumber] = append(p.throws[e.RoundNumber], e)
	}
	for _, ev := range p.throws {
		sort.SliceStable(ev, func(i, j int) bool { return ev[i].Tick < ev[j].Tick })
	}
	return p
}

// TotalRounds is the highest round number in the tick table.
func (p *Processor) TotalRounds() int { return p.totalRounds }

// Round analyses a single round. Players without ticks or without an
// in-region journey produce no profile.
func (p *Processor) Round(n int) model.RoundResult {
	res := model.RoundResult{RoundNumber: n, Players: []model.PlayerRoundProfile{}}
	for _, name := range p.players[n] {
		prof, ok := p.profile(n, name)
		if ok {
			res.Players = append(res.Players, prof)
		}
	}
	p.log.Debug().Int("round", n).Int("candidates", len(p.players[n])).Int("profiles", len(res.Players)).Msg("round processed")
	return res
}

func (p *Processor) profile(round int, name string) (model.PlayerRoundProfile, bool) {
	kit, err := p.resolver.Resolve(round, name)
	if err != nil {
		p.log.Debug().Int("round", round).Str("player", name).Str("reason", err.Error()).Msg("skipping player")
		return model.PlayerRoundProfile{}, false
	}

	buy := p.econ.ClassifyBuyType(economy.BuyInput{
		Round:          round,
		TotalRounds:    p.totalRounds,
		EquipmentValue: kit.EquipmentValue,
		Weapon:         kit.PrimaryWeapon,
		Armor:          kit.Armor,
		Helmet:         kit.Helmet,
		Bankroll:       kit.Bankroll,
	})

	path := p.tracker.Track(p.resolver.Ticks(round, name))
	if len(path) == 0 {
		return model.PlayerRoundProfile{}, false
	}

	return model.PlayerRoundProfile{
		Name:            name,
		BuyType:         buy,
		Equipment:       kit,
		Journey:         path,
		UtilityThrows:   p.utility(round, name),
		EntryPoint:      journey.EntryPoint(path, p.cls),
		PrimaryPosition: journey.PrimaryPosition(path),
		TimeInSite:      journey.TimeInSite(path),
	}, true
}

func (p *Processor) utility(round int, name string) []model.UtilityThrow {
	out := []model.UtilityThrow{}
	for _, e := range p.throws[round] {
		if e.Thrower != name {
			continue
		}
		kind := economy.GrenadeKind(e.Grenade)
		if kind == "" {
			kind = e.Grenade
		}
		out = append(out, model.UtilityThrow{
			Tick: e.Tick,
			Time: p.tracker.Time(e.Tick),
			Type: kind,
			X:    journey.Round(e.Pos.X, 1),
			Y:    journey.Round(e.Pos.Y, 1),
			Area: p.cls.Classify(e.Pos.X, e.Pos.Y),
		})
	}
	return out
}

// Run processes rounds 1..TotalRounds concurrently. Results are ordered by
// round number.
func (p *Processor) Run(ctx context.Context) ([]model.RoundResult, error) {
	if p.totalRounds == 0 {
		return nil, ErrNoRounds
	}
	results := make([]model.RoundResult, p.totalRounds)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := range results {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = p.Round(i + 1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	profiles := 0
	for _, r := range results {
		profiles += len(r.Players)
	}
	p.log.Info().Int("rounds", p.totalRounds).Int("profiles", profiles).Msg("analysis complete")
	return results, nil
}
