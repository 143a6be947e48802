package parser

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	demoinfocs "github.com/markus-wa/demoinfocs-golang/v4/pkg/demoinfocs"
	common "github.com/markus-wa/demoinfocs-golang/v4/pkg/demoinfocs/common"
	"github.com/markus-wa/demoinfocs-golang/v4/pkg/demoinfocs/events"

	"github.com/pable/go-cs-positions/internal/ingest"
	"github.com/pable/go-cs-positions/internal/model"
)

// Shared helmet flags; TickRecord.Helmet is read-only.
var (
	helmetOn  = true
	helmetOff = false
)

// ParseDemo decodes the demo at path (optionally .zst/.gz/.bz2 compressed)
// into match tables. Inventory and cash are only recorded from round start
// until inventorySeconds after freeze time ends.
func ParseDemo(path string, inventorySeconds float64) (*model.MatchTables, error) {
	demoHash, err := hashFile(path)
	if err != nil {
		return nil, err
	}

	rc, err := ingest.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open demo: %w", err)
	}
	defer rc.Close()

	p := demoinfocs.NewParser(rc)
	defer p.Close()

	tables := &model.MatchTables{
		SourceID:   SourceID(path),
		SourceHash: demoHash,
	}

	var (
		roundNumber    int
		roundStartTick int
		freezeEndTick  int
		inRound        bool
		lastTick       = -1
	)

	// inventoryOpen reports whether round-start kit is still being recorded.
	inventoryOpen := func(tick int) bool {
		if freezeEndTick == 0 {
			return true
		}
		window := int(inventorySeconds * p.TickRate())
		return tick <= freezeEndTick+window
	}

	// RoundStart: bump round counter, start recording.
	p.RegisterEventHandler(func(e events.RoundStart) {
		if p.GameState().IsWarmupPeriod() {
			return
		}
		roundNumber++
		roundStartTick = p.GameState().IngameTick()
		freezeEndTick = 0
		inRound = true
	})

	// RoundFreezetimeEnd: record the tick and the round-start bankrolls.
	p.RegisterEventHandler(func(e events.RoundFreezetimeEnd) {
		if roundNumber == 0 {
			return
		}
		freezeEndTick = p.GameState().IngameTick()
		for _, pl := range p.GameState().Participants().Playing() {
			if pl == nil || pl.Name == "" {
				continue
			}
			tables.Economy = append(tables.Economy, model.EconomyRecord{
				RoundNumber: roundNumber,
				Player:      pl.Name,
				Bankroll:    pl.Money() + pl.MoneySpentThisRound(),
			})
		}
	})

	// RoundEnd: stop recording, store round boundaries.
	p.RegisterEventHandler(func(e events.RoundEnd) {
		if roundNumber == 0 || !inRound {
			return
		}
		inRound = false
		tables.Rounds = append(tables.Rounds, model.RoundInfo{
			Number:        roundNumber,
			StartTick:     roundStartTick,
			FreezeEndTick: freezeEndTick,
			EndTick:       p.GameState().IngameTick(),
		})
	})

	// FrameDone: one tick record per playing player.
	p.RegisterEventHandler(func(e events.FrameDone) {
		if !inRound {
			return
		}
		tick := p.GameState().IngameTick()
		if tick == lastTick {
			return
		}
		lastTick = tick
		withKit := inventoryOpen(tick)

		for _, pl := range p.GameState().Participants().Playing() {
			if pl == nil || pl.Name == "" {
				continue
			}
			team := teamFromCommon(pl.Team)
			if team != model.TeamT && team != model.TeamCT {
				continue
			}
			pos := pl.Position()
			rec := model.TickRecord{
				RoundNumber: roundNumber,
				Tick:        tick,
				Player:      pl.Name,
				Team:        team,
				Pos:         model.Vec3{X: pos.X, Y: pos.Y, Z: pos.Z},
				Health:      pl.Health(),
				Armor:       pl.Armor(),
				Helmet:      &helmetOff,
			}
			if pl.HasHelmet() {
				rec.Helmet = &helmetOn
			}
			if w := pl.ActiveWeapon(); w != nil && w.Type != common.EqUnknown {
				rec.Weapon = w.Type.String()
			}
			if withKit {
				for _, w := range pl.Weapons() {
					if w != nil && w.Type != common.EqUnknown {
						rec.Inventory = append(rec.Inventory, w.Type.String())
					}
				}
				cash := pl.Money()
				rec.Cash = &cash
			}
			tables.Ticks = append(tables.Ticks, rec)
		}
	})

	// GrenadeProjectileThrow: utility usage with the throw position.
	p.RegisterEventHandler(func(e events.GrenadeProjectileThrow) {
		if !inRound || e.Projectile == nil || e.Projectile.Thrower == nil || e.Projectile.WeaponInstance == nil {
			return
		}
		pos := e.Projectile.Position()
		tables.Throws = append(tables.Throws, model.ThrowEvent{
			RoundNumber: roundNumber,
			Tick:        p.GameState().IngameTick(),
			Thrower:     e.Projectile.Thrower.Name,
			Team:        teamFromCommon(e.Projectile.Thrower.Team),
			Grenade:     e.Projectile.WeaponInstance.Type.String(),
			Pos:         model.Vec3{X: pos.X, Y: pos.Y, Z: pos.Z},
		})
	})

	if err := p.ParseToEnd(); err != nil && !errors.Is(err, demoinfocs.ErrUnexpectedEndOfDemo) {
		return nil, fmt.Errorf("parse demo: %w", err)
	}

	// A truncated demo can end mid-round.
	if inRound {
		tables.Rounds = append(tables.Rounds, model.RoundInfo{
			Number:        roundNumber,
			StartTick:     roundStartTick,
			FreezeEndTick: freezeEndTick,
			EndTick:       lastTick,
		})
	}

	// Extract header metadata.
	tables.MapName = p.Header().MapName
	tables.TickRate = p.TickRate()

	return tables, nil
}

// IsDemo reports whether path names a demo file, compressed or not.
func IsDemo(path string) bool {
	return ingest.BaseExt(path) == ".dem"
}

// SourceID is the demo file name without demo and compression extensions.
func SourceID(path string) string {
	base := filepath.Base(path)
	for {
		ext := strings.ToLower(filepath.Ext(base))
		switch ext {
		case ".dem", ".zst", ".zstd", ".gz", ".bz2":
			base = strings.TrimSuffix(base, filepath.Ext(base))
			continue
		}
		return base
	}
}

// hashFile hashes the file as stored on disk, for idempotency.
func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open demo: %w", err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash demo: %w", err)
	}
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}

func teamFromCommon(t common.Team) model.Team {
	switch t {
	case common.TeamTerrorists:
		return model.TeamT
	case common.TeamCounterTerrorists:
		return model.TeamCT
	case common.TeamSpectators:
		return model.TeamSpectators
	default:
		return model.TeamUnknown
	}
}
