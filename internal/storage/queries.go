package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/pable/go-cs-positions/internal/model"
)

// AnalysisExists returns true if an analysis with the given hash is already stored.
func (db *DB) AnalysisExists(hash string) (bool, error) {
	var count int
	err := db.conn.QueryRow("SELECT COUNT(1) FROM analyses WHERE hash = ?", hash).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// InsertAnalysis inserts or updates the analysis header row. Child rows are
// kept; InsertRoundProfiles and InsertPositionStats replace their own sets.
func (db *DB) InsertAnalysis(s model.AnalysisSummary) error {
	_, err := db.conn.Exec(`
		INSERT INTO analyses(hash, source_id, map_name, region, total_rounds, tickrate)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(hash) DO UPDATE SET
			source_id = excluded.source_id,
			map_name = excluded.map_name,
			region = excluded.region,
			total_rounds = excluded.total_rounds,
			tickrate = excluded.tickrate`,
		s.Hash, s.SourceID, s.MapName, s.Region, s.TotalRounds, s.Tickrate,
	)
	return err
}

const summaryColumns = `
	a.hash, a.source_id, a.map_name, a.region, a.total_rounds, a.tickrate, a.created_at,
	(SELECT COUNT(1) FROM round_profiles p WHERE p.analysis_hash = a.hash)`

func scanSummary(sc interface{ Scan(...any) error }) (model.AnalysisSummary, error) {
	var s model.AnalysisSummary
	err := sc.Scan(&s.Hash, &s.SourceID, &s.MapName, &s.Region,
		&s.TotalRounds, &s.Tickrate, &s.CreatedAt, &s.Profiles)
	return s, err
}

// ListAnalyses returns all stored analyses, newest first.
func (db *DB) ListAnalyses() ([]model.AnalysisSummary, error) {
	rows, err := db.conn.Query(`SELECT` + summaryColumns + `
		FROM analyses a ORDER BY a.created_at DESC, a.source_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.AnalysisSummary
	for rows.Next() {
		s, err := scanSummary(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// GetAnalysisByPrefix finds the first analysis whose hash starts with the given prefix.
func (db *DB) GetAnalysisByPrefix(prefix string) (*model.AnalysisSummary, error) {
	s, err := scanSummary(db.conn.QueryRow(`SELECT`+summaryColumns+`
		FROM analyses a WHERE a.hash LIKE ? ORDER BY a.hash LIMIT 1`, prefix+"%"))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// InsertRoundProfiles replaces the stored rounds of an analysis in a
// transaction. Rounds without profiles are recorded so they survive a reload.
func (db *DB) InsertRoundProfiles(hash string, rounds []model.RoundResult) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, q := range []string{
		"DELETE FROM round_profiles WHERE analysis_hash = ?",
		"DELETE FROM analysis_rounds WHERE analysis_hash = ?",
	} {
		if _, err := tx.Exec(q, hash); err != nil {
			return fmt.Errorf("clear rounds: %w", err)
		}
	}

	roundStmt, err := tx.Prepare(`INSERT INTO analysis_rounds(analysis_hash, round_number) VALUES (?, ?)`)
	if err != nil {
		return err
	}
	defer roundStmt.Close()

	stmt, err := tx.Prepare(`
		INSERT INTO round_profiles(
			analysis_hash, round_number, player, buy_type,
			primary_weapon, weapon_category, armor, helmet, equipment_value, health,
			bankroll, value_estimated, loadout_source,
			entry_point, primary_position, time_in_site,
			journey_json, utility_json
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range rounds {
		if _, err := roundStmt.Exec(hash, r.RoundNumber); err != nil {
			return fmt.Errorf("insert round %d: %w", r.RoundNumber, err)
		}
		for _, p := range r.Players {
			journey, err := json.Marshal(p.Journey)
			if err != nil {
				return fmt.Errorf("encode journey: %w", err)
			}
			utility, err := json.Marshal(p.UtilityThrows)
			if err != nil {
				return fmt.Errorf("encode utility: %w", err)
			}
			var bankroll sql.NullInt64
			if p.Equipment.Bankroll != nil {
				bankroll = sql.NullInt64{Int64: int64(*p.Equipment.Bankroll), Valid: true}
			}
			e := p.Equipment
			_, err = stmt.Exec(
				hash, r.RoundNumber, p.Name, string(p.BuyType),
				e.PrimaryWeapon, e.WeaponCategory, e.Armor, boolInt(e.Helmet), e.EquipmentValue, e.Health,
				bankroll, boolInt(e.ValueEstimated), e.Source,
				p.EntryPoint, p.PrimaryPosition, p.TimeInSite,
				string(journey), string(utility),
			)
			if err != nil {
				return fmt.Errorf("insert profile round %d %s: %w", r.RoundNumber, p.Name, err)
			}
		}
	}
	return tx.Commit()
}

// GetRoundProfiles returns the stored rounds of an analysis ordered by
// round number, profiles by player name.
func (db *DB) GetRoundProfiles(hash string) ([]model.RoundResult, error) {
	roundRows, err := db.conn.Query(`
		SELECT round_number FROM analysis_rounds
		WHERE analysis_hash = ? ORDER BY round_number`, hash)
	if err != nil {
		return nil, err
	}
	var out []model.RoundResult
	index := make(map[int]int)
	for roundRows.Next() {
		var n int
		if err := roundRows.Scan(&n); err != nil {
			roundRows.Close()
			return nil, err
		}
		index[n] = len(out)
		out = append(out, model.RoundResult{RoundNumber: n, Players: []model.PlayerRoundProfile{}})
	}
	if err := roundRows.Err(); err != nil {
		roundRows.Close()
		return nil, err
	}
	roundRows.Close()

	rows, err := db.conn.Query(`
		SELECT round_number, player, buy_type,
		       primary_weapon, weapon_category, armor, helmet, equipment_value, health,
		       bankroll, value_estimated, loadout_source,
		       entry_point, primary_position, time_in_site,
		       journey_json, utility_json
		FROM round_profiles WHERE analysis_hash = ?
		ORDER BY round_number, player`, hash)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			round             int
			p                 model.PlayerRoundProfile
			buyType           string
			helmet, estimated int
			bankroll          sql.NullInt64
			journey, utility  string
		)
		e := &p.Equipment
		if err := rows.Scan(
			&round, &p.Name, &buyType,
			&e.PrimaryWeapon, &e.WeaponCategory, &e.Armor, &helmet, &e.EquipmentValue, &e.Health,
			&bankroll, &estimated, &e.Source,
			&p.EntryPoint, &p.PrimaryPosition, &p.TimeInSite,
			&journey, &utility,
		); err != nil {
			return nil, err
		}
		p.BuyType = model.BuyType(buyType)
		e.Helmet = helmet != 0
		e.ValueEstimated = estimated != 0
		if bankroll.Valid {
			v := int(bankroll.Int64)
			e.Bankroll = &v
		}
		if err := json.Unmarshal([]byte(journey), &p.Journey); err != nil {
			return nil, fmt.Errorf("decode journey: %w", err)
		}
		if err := json.Unmarshal([]byte(utility), &p.UtilityThrows); err != nil {
			return nil, fmt.Errorf("decode utility: %w", err)
		}

		i, ok := index[round]
		if !ok {
			i = len(out)
			index[round] = i
			out = append(out, model.RoundResult{RoundNumber: round})
		}
		out[i].Players = append(out[i].Players, p)
	}
	return out, rows.Err()
}

// InsertPositionStats replaces the aggregated stats of an analysis.
// sort_order preserves the aggregator's ordering.
func (db *DB) InsertPositionStats(hash string, stats []model.RegionStat) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM position_stats WHERE analysis_hash = ?", hash); err != nil {
		return fmt.Errorf("clear position_stats: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO position_stats(
			analysis_hash, sort_order, area, overall_frequency, total_occurrences,
			unique_players, median_time_in_site, by_buy_type_json, entry_points_json
		) VALUES (?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, s := range stats {
		byBuy, err := json.Marshal(s.ByBuyType)
		if err != nil {
			return fmt.Errorf("encode by_buy_type: %w", err)
		}
		entries, err := json.Marshal(s.EntryPoints)
		if err != nil {
			return fmt.Errorf("encode entry_points: %w", err)
		}
		_, err = stmt.Exec(hash, i, s.Area, s.OverallFrequency, s.TotalOccurrences,
			s.UniquePlayers, s.MedianTimeInSite, string(byBuy), string(entries))
		if err != nil {
			return fmt.Errorf("insert position_stats for %s: %w", s.Area, err)
		}
	}
	return tx.Commit()
}

// GetPositionStats rebuilds the aggregate of a stored analysis.
func (db *DB) GetPositionStats(hash string) (model.AggregateStats, error) {
	agg := model.AggregateStats{PositionStats: []model.RegionStat{}}
	err := db.conn.QueryRow("SELECT total_rounds FROM analyses WHERE hash = ?", hash).Scan(&agg.TotalRounds)
	if err == sql.ErrNoRows {
		return agg, nil
	}
	if err != nil {
		return agg, err
	}

	rows, err := db.conn.Query(`
		SELECT area, overall_frequency, total_occurrences, unique_players,
		       median_time_in_site, by_buy_type_json, entry_points_json
		FROM position_stats WHERE analysis_hash = ?
		ORDER BY sort_order`, hash)
	if err != nil {
		return agg, err
	}
	defer rows.Close()

	for rows.Next() {
		var s model.RegionStat
		var byBuy, entries string
		if err := rows.Scan(&s.Area, &s.OverallFrequency, &s.TotalOccurrences,
			&s.UniquePlayers, &s.MedianTimeInSite, &byBuy, &entries); err != nil {
			return agg, err
		}
		if err := json.Unmarshal([]byte(byBuy), &s.ByBuyType); err != nil {
			return agg, fmt.Errorf("decode by_buy_type: %w", err)
		}
		if err := json.Unmarshal([]byte(entries), &s.EntryPoints); err != nil {
			return agg, fmt.Errorf("decode entry_points: %w", err)
		}
		agg.PositionStats = append(agg.PositionStats, s)
	}
	return agg, rows.Err()
}

// QueryRaw runs an arbitrary query and returns column names and rows
// rendered as strings. NULL becomes "NULL".
func (db *DB) QueryRaw(query string) ([]string, [][]string, error) {
	rows, err := db.conn.Query(query)
	if err != nil {
		return nil, nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, nil, err
	}

	var out [][]string
	vals := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, nil, err
		}
		row := make([]string, len(cols))
		for i, v := range vals {
			switch v := v.(type) {
			case nil:
				row[i] = "NULL"
			case []byte:
				row[i] = string(v)
			default:
				row[i] = fmt.Sprint(v)
			}
		}
		out = append(out, row)
	}
	return cols, out, rows.Err()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
