package excel

// ExcelConfig holds configuration for a CSV/XLSX player-season source
type ExcelConfig struct {
	FilePath  string `json:"file_path"`
	SheetName string `json:"sheet_name"` // XLSX only; empty selects the first sheet
	// Columns maps each PlayerSeason field to the header names accepted for it
	Columns map[string][]string `json:"columns"`
}

// Field names used as keys in ExcelConfig.Columns
const (
	FieldSeason   = "season"
	FieldPlayer   = "player"
	FieldPosition = "position"
	FieldAge      = "age"
	FieldTeam     = "team"
	FieldGames    = "games"
	FieldMinutes  = "minutes_played"
	FieldPER      = "per"
)

// DefaultExcelConfig returns header aliases matching common advanced-stats exports
func DefaultExcelConfig() ExcelConfig {
	return ExcelConfig{
		Columns: map[string][]string{
			FieldSeason:   {"season", "year", "yr"},
			FieldPlayer:   {"player", "name", "player_name"},
			FieldPosition: {"pos", "position"},
			FieldAge:      {"age"},
			FieldTeam:     {"tm", "team"},
			FieldGames:    {"g", "games", "gp"},
			FieldMinutes:  {"mp", "minutes", "minutes_played", "min"},
			FieldPER:      {"per"},
		},
	}
}
