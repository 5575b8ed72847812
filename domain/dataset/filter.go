package dataset

import (
	"fmt"
	"strings"
)

// Filter selects player-season rows. Zero values mean "no constraint".
type Filter struct {
	FromSeason int     `json:"from_season,omitempty"`
	ToSeason   int     `json:"to_season,omitempty"`
	MinMinutes float64 `json:"min_minutes,omitempty"`
	MinGames   int     `json:"min_games,omitempty"`
	Player     string  `json:"player,omitempty"`
	Position   string  `json:"position,omitempty"`
	Team       string  `json:"team,omitempty"`
}

// Apply returns the rows matching every set constraint, in input order
func (f Filter) Apply(rows []PlayerSeason) []PlayerSeason {
	var out []PlayerSeason
	for _, r := range rows {
		if f.FromSeason != 0 && r.Season < f.FromSeason {
			continue
		}
		if f.ToSeason != 0 && r.Season > f.ToSeason {
			continue
		}
		if r.MinutesPlayed < f.MinMinutes || r.Games < f.MinGames {
			continue
		}
		if f.Player != "" && !strings.EqualFold(r.Player, f.Player) {
			continue
		}
		if f.Position != "" && !strings.EqualFold(r.Position, f.Position) {
			continue
		}
		if f.Team != "" && !strings.EqualFold(r.Team, f.Team) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// String renders the filter for logs and fingerprints
func (f Filter) String() string {
	return fmt.Sprintf("seasons=%d..%d min_mp=%g min_g=%d player=%q pos=%q team=%q",
		f.FromSeason, f.ToSeason, f.MinMinutes, f.MinGames, f.Player, f.Position, f.Team)
}

// Summary records what an aggregate was computed from
type Summary struct {
	Rows    int `json:"rows"`
	Seasons int `json:"seasons"`
	Players int `json:"players"`
}

// Summarize counts the rows, distinct seasons and distinct players in rows
func Summarize(rows []PlayerSeason) Summary {
	seasons := make(map[int]struct{})
	players := make(map[string]struct{})
	for _, r := range rows {
		seasons[r.Season] = struct{}{}
		players[r.Player] = struct{}{}
	}
	return Summary{Rows: len(rows), Seasons: len(seasons), Players: len(players)}
}
