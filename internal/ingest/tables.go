// Package ingest loads match tables exported by external demo decoders
// (JSON, NDJSON or CSV, optionally compressed) into model.MatchTables.
package ingest

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/pable/go-cs-positions/internal/model"
)

// ErrNoTable is returned by LoadDir when the required ticks table is absent.
var ErrNoTable = errors.New("table not found")

var (
	tableExts       = []string{".json", ".ndjson", ".jsonl", ".csv"}
	compressionExts = []string{"", ".zst", ".gz", ".bz2"}
)

// FindTable returns the path of <dir>/<name>.<ext>[.<compression>], or "".
func FindTable(dir, name string) string {
	for _, ext := range tableExts {
		for _, c := range compressionExts {
			p := filepath.Join(dir, name+ext+c)
			if st, err := os.Stat(p); err == nil && !st.IsDir() {
				return p
			}
		}
	}
	return ""
}

// LoadDir reads a directory of tables: ticks (required), grenades,
// purchases, economy and rounds, plus an optional match.json object with
// map_name, tick_rate and source_id.
func LoadDir(dir string) (*model.MatchTables, error) {
	ticksPath := FindTable(dir, "ticks")
	if ticksPath == "" {
		return nil, fmt.Errorf("%w: ticks in %s", ErrNoTable, dir)
	}

	tables := &model.MatchTables{SourceID: filepath.Base(filepath.Clean(dir))}
	var err error
	if tables.Ticks, err = ReadTicks(ticksPath); err != nil {
		return nil, fmt.Errorf("read ticks: %w", err)
	}

	hashed := []string{ticksPath}
	if p := FindTable(dir, "grenades"); p != "" {
		if tables.Throws, err = ReadThrows(p); err != nil {
			return nil, fmt.Errorf("read grenades: %w", err)
		}
		hashed = append(hashed, p)
	}
	if p := FindTable(dir, "purchases"); p != "" {
		if tables.Purchases, err = ReadPurchases(p); err != nil {
			return nil, fmt.Errorf("read purchases: %w", err)
		}
		hashed = append(hashed, p)
	}
	if p := FindTable(dir, "economy"); p != "" {
		if tables.Economy, err = ReadEconomy(p); err != nil {
			return nil, fmt.Errorf("read economy: %w", err)
		}
		hashed = append(hashed, p)
	}
	if p := FindTable(dir, "rounds"); p != "" {
		if tables.Rounds, err = ReadRounds(p); err != nil {
			return nil, fmt.Errorf("read rounds: %w", err)
		}
		hashed = append(hashed, p)
	}

	meta := filepath.Join(dir, "match.json")
	if data, err := os.ReadFile(meta); err == nil {
		doc := gjson.ParseBytes(data)
		r := jsonRow{doc}
		if v, ok := probe(r, MapFields); ok {
			tables.MapName = textOf(v)
		}
		if v, ok := probe(r, TickRateFields); ok {
			tables.TickRate = v.Float()
		}
		if v, ok := probe(r, SourceFields); ok {
			tables.SourceID = textOf(v)
		}
		hashed = append(hashed, meta)
	}

	if tables.SourceHash, err = hashFiles(hashed); err != nil {
		return nil, fmt.Errorf("hash tables: %w", err)
	}
	return tables, nil
}

// ReadTicks reads a per-tick player state table.
func ReadTicks(path string) ([]model.TickRecord, error) {
	return readTable(path, func(r row) (model.TickRecord, error) {
		var t model.TickRecord
		vals, err := needAll(r,
			field{"round", RoundFields},
			field{"tick", TickFields},
			field{"player", PlayerFields},
			field{"side", SideFields},
			field{"x", XFields},
			field{"y", YFields},
			field{"health", HealthFields},
		)
		if err != nil {
			return t, err
		}
		t.RoundNumber = intOf(vals[0])
		t.Tick = intOf(vals[1])
		t.Player = textOf(vals[2])
		t.Team = model.ParseTeam(vals[3].String())
		t.Pos.X = vals[4].Float()
		t.Pos.Y = vals[5].Float()
		t.Health = intOf(vals[6])

		if v, ok := probe(r, ZFields); ok {
			t.Pos.Z = v.Float()
		}
		if v, ok := probe(r, ArmorFields); ok {
			t.Armor = intOf(v)
		}
		if v, ok := probe(r, HelmetFields); ok {
			h := v.Bool()
			t.Helmet = &h
		}
		if v, ok := probe(r, WeaponFields); ok {
			t.Weapon = textOf(v)
		}
		if v, ok := probe(r, InventoryFields); ok {
			t.Inventory = listOf(v)
		}
		if v, ok := probe(r, BankrollFields); ok {
			c := intOf(v)
			t.Cash = &c
		}
		return t, nil
	})
}

// ReadThrows reads a grenade throw table.
func ReadThrows(path string) ([]model.ThrowEvent, error) {
	return readTable(path, func(r row) (model.ThrowEvent, error) {
		var e model.ThrowEvent
		vals, err := needAll(r,
			field{"round", RoundFields},
			field{"thrower", ThrowerFields},
			field{"thrower side", ThrowerSideFields},
			field{"grenade", GrenadeFields},
			field{"x", XFields},
			field{"y", YFields},
		)
		if err != nil {
			return e, err
		}
		e.RoundNumber = intOf(vals[0])
		e.Thrower = textOf(vals[1])
		e.Team = model.ParseTeam(vals[2].String())
		e.Grenade = textOf(vals[3])
		e.Pos.X = vals[4].Float()
		e.Pos.Y = vals[5].Float()
		if v, ok := probe(r, ZFields); ok {
			e.Pos.Z = v.Float()
		}
		if v, ok := probe(r, TickFields); ok {
			e.Tick = intOf(v)
		}
		return e, nil
	})
}

// ReadPurchases reads a purchase ledger.
func ReadPurchases(path string) ([]model.PurchaseRecord, error) {
	return readTable(path, func(r row) (model.PurchaseRecord, error) {
		var p model.PurchaseRecord
		vals, err := needAll(r,
			field{"round", RoundFields},
			field{"player", PlayerFields},
			field{"item", ItemFields},
			field{"price", PriceFields},
		)
		if err != nil {
			return p, err
		}
		p.RoundNumber = intOf(vals[0])
		p.Player = textOf(vals[1])
		p.Item = textOf(vals[2])
		p.Price = intOf(vals[3])
		if v, ok := probe(r, TickFields); ok {
			p.Tick = intOf(v)
		}
		return p, nil
	})
}

// ReadEconomy reads an economy ledger of round-start bankrolls.
func ReadEconomy(path string) ([]model.EconomyRecord, error) {
	return readTable(path, func(r row) (model.EconomyRecord, error) {
		var e model.EconomyRecord
		vals, err := needAll(r,
			field{"round", RoundFields},
			field{"player", PlayerFields},
			field{"bankroll", LedgerBankrollFields},
		)
		if err != nil {
			return e, err
		}
		e.RoundNumber = intOf(vals[0])
		e.Player = textOf(vals[1])
		e.Bankroll = intOf(vals[2])
		return e, nil
	})
}

// ReadRounds reads round boundaries. Freeze end is optional.
func ReadRounds(path string) ([]model.RoundInfo, error) {
	return readTable(path, func(r row) (model.RoundInfo, error) {
		var ri model.RoundInfo
		v, err := need(r, "round", RoundFields)
		if err != nil {
			return ri, err
		}
		ri.Number = intOf(v)
		if v, ok := probe(r, RoundStartFields); ok {
			ri.StartTick = intOf(v)
		}
		if v, ok := probe(r, FreezeEndFields); ok {
			ri.FreezeEndTick = intOf(v)
		}
		if v, ok := probe(r, RoundEndFields); ok {
			ri.EndTick = intOf(v)
		}
		return ri, nil
	})
}

type field struct {
	concept string
	names   []string
}

func needAll(r row, fields ...field) ([]gjson.Result, error) {
	out := make([]gjson.Result, len(fields))
	for i, f := range fields {
		v, err := need(r, f.concept, f.names)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func readTable[T any](path string, decode func(row) (T, error)) ([]T, error) {
	rc, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	rows, err := readRows(rc, BaseExt(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	out := make([]T, 0, len(rows))
	for i, r := range rows {
		rec, err := decode(r)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", filepath.Base(path), i+1, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

func hashFiles(paths []string) (string, error) {
	h := sha256.New()
	for _, p := range paths {
		f, err := os.Open(p)
		if err != nil {
			return "", err
		}
		io.WriteString(h, strings.ToLower(filepath.Base(p)))
		_, err = io.Copy(h, f)
		f.Close()
		if err != nil {
			return "", err
		}
	}
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}
