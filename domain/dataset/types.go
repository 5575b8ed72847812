package dataset

// PlayerSeason is one player's line for one season, as published in
// league-wide advanced-stats tables
type PlayerSeason struct {
	Season        int     `json:"season" db:"season"`
	Player        string  `json:"player" db:"player"`
	Position      string  `json:"position" db:"position"`
	Age           int     `json:"age" db:"age"`
	Team          string  `json:"team" db:"team"`
	Games         int     `json:"games" db:"games"`
	MinutesPlayed float64 `json:"minutes_played" db:"minutes_played"`
	PER           float64 `json:"per" db:"per"`
}

// LoadReport summarizes what the loader kept and dropped
type LoadReport struct {
	Source      string   `json:"source"`
	RowsRead    int      `json:"rows_read"`
	RowsKept    int      `json:"rows_kept"`
	RowsSkipped int      `json:"rows_skipped"`
	Warnings    []string `json:"warnings,omitempty"`
}
