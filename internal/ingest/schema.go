package ingest

// Field-name probe lists. Exported tables from different decoder versions
// name the same column differently; each list is tried in order and the
// first present, non-null field wins. Extend these to support a new export.
var (
	RoundFields  = []string{"round_num", "round", "round_number"}
	PlayerFields = []string{"name", "player_name", "player"}
	SideFields   = []string{"team_num", "side", "team_name", "team"}
	TickFields   = []string{"tick"}

	XFields = []string{"X", "x", "pos_x"}
	YFields = []string{"Y", "y", "pos_y"}
	ZFields = []string{"Z", "z", "pos_z"}

	HealthFields    = []string{"health", "hp"}
	ArmorFields     = []string{"armor_value", "armor"}
	HelmetFields    = []string{"has_helmet", "helmet"}
	WeaponFields    = []string{"active_weapon_name", "active_weapon", "weapon"}
	InventoryFields = []string{"inventory"}
	BankrollFields  = []string{"balance", "cash", "money", "start_balance"}

	ThrowerFields     = []string{"thrower_name", "thrower"}
	ThrowerSideFields = []string{"thrower_side", "side", "thrower_team", "thrower_team_num"}
	GrenadeFields     = []string{"grenade_type", "grenade", "weapon"}

	ItemFields  = []string{"weapon", "item", "item_name"}
	PriceFields = []string{"cost", "price"}

	LedgerBankrollFields = []string{"start_balance", "balance", "money", "cash"}

	FreezeEndFields  = []string{"freeze_end", "freeze_end_tick"}
	RoundStartFields = []string{"start", "start_tick"}
	RoundEndFields   = []string{"end", "end_tick"}

	MapFields      = []string{"map_name", "map"}
	TickRateFields = []string{"tick_rate", "tickrate"}
	SourceFields   = []string{"source_id", "demo_file", "match_id"}
)
