package excel

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"goposterior/domain/dataset"
	"goposterior/internal"
	apperrors "goposterior/internal/errors"
)

// SeasonReader maps a CSV/XLSX export onto PlayerSeason rows.
// It implements ports.SeasonReaderPort.
type SeasonReader struct {
	config ExcelConfig
	logger *internal.Logger
	// KeepTradedSplits keeps per-team rows for players that also have a TOT row
	KeepTradedSplits bool
}

// NewSeasonReader creates a reader for the file named in config
func NewSeasonReader(config ExcelConfig) *SeasonReader {
	if len(config.Columns) == 0 {
		config.Columns = DefaultExcelConfig().Columns
	}
	return &SeasonReader{config: config, logger: internal.DefaultLogger.With("SeasonReader")}
}

// ReadSeasons loads, cleans and types every row of the source
func (s *SeasonReader) ReadSeasons(ctx context.Context) ([]dataset.PlayerSeason, dataset.LoadReport, error) {
	report := dataset.LoadReport{Source: s.config.FilePath}
	if err := ctx.Err(); err != nil {
		return nil, report, err
	}

	data, err := NewTableReader(s.config.FilePath, s.config.SheetName).ReadTable(ctx)
	if err != nil {
		return nil, report, apperrors.DatasetError("failed to read dataset", err)
	}

	rows, report, err := s.Convert(data)
	report.Source = s.config.FilePath
	return rows, report, err
}

// Convert types raw rows. Exposed separately so callers holding a Table
// (or tests) can skip the file read.
func (s *SeasonReader) Convert(data *Table) ([]dataset.PlayerSeason, dataset.LoadReport, error) {
	var report dataset.LoadReport

	columns, err := s.resolveColumns(data.Headers)
	if err != nil {
		return nil, report, err
	}

	var rows []dataset.PlayerSeason
	for i, raw := range data.Rows {
		report.RowsRead++
		line := i + 2 // header is line 1

		player := cleanPlayerName(raw[columns[FieldPlayer]])
		if player == "" || strings.EqualFold(player, columns[FieldPlayer]) {
			// blank line or a header row repeated mid-table
			report.RowsSkipped++
			continue
		}

		season, ok := parseSeason(raw[columns[FieldSeason]])
		if !ok {
			report.RowsSkipped++
			report.Warnings = append(report.Warnings, fmt.Sprintf("line %d: unparseable season %q", line, raw[columns[FieldSeason]]))
			continue
		}

		per, ok := parseFloat(raw[columns[FieldPER]])
		if !ok {
			report.RowsSkipped++
			report.Warnings = append(report.Warnings, fmt.Sprintf("line %d: %s has no usable PER %q", line, player, raw[columns[FieldPER]]))
			continue
		}

		row := dataset.PlayerSeason{
			Season:   season,
			Player:   player,
			Position: strings.ToUpper(raw[columns[FieldPosition]]),
			Team:     strings.ToUpper(raw[columns[FieldTeam]]),
			PER:      per,
		}
		if v, ok := parseFloat(raw[columns[FieldAge]]); ok {
			row.Age = int(v)
		}
		if v, ok := parseFloat(raw[columns[FieldGames]]); ok {
			row.Games = int(v)
		}
		if v, ok := parseFloat(raw[columns[FieldMinutes]]); ok {
			row.MinutesPlayed = v
		}
		rows = append(rows, row)
	}

	if !s.KeepTradedSplits {
		var dropped int
		rows, dropped = dropTradedSplits(rows)
		report.RowsSkipped += dropped
	}
	report.RowsKept = len(rows)

	if len(rows) == 0 {
		return nil, report, apperrors.DatasetError("dataset has no usable rows", nil)
	}

	s.logger.Info("Loaded %d player-seasons (%d skipped)", report.RowsKept, report.RowsSkipped)
	return rows, report, nil
}

// resolveColumns returns field -> header. Season, player and PER are required.
func (s *SeasonReader) resolveColumns(headers []string) (map[string]string, error) {
	normalized := make(map[string]string, len(headers))
	for _, h := range headers {
		normalized[normalizeHeader(h)] = h
	}

	columns := make(map[string]string, len(s.config.Columns))
	for field, aliases := range s.config.Columns {
		for _, alias := range aliases {
			if h, ok := normalized[normalizeHeader(alias)]; ok {
				columns[field] = h
				break
			}
		}
	}

	for _, required := range []string{FieldSeason, FieldPlayer, FieldPER} {
		if _, ok := columns[required]; !ok {
			return nil, apperrors.DatasetError(fmt.Sprintf("missing required column %q", required), nil)
		}
	}
	return columns, nil
}

func normalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	h = strings.NewReplacer(" ", "_", "-", "_", "%", "").Replace(h)
	return h
}

// cleanPlayerName strips Hall of Fame asterisks and "\slug" suffixes
func cleanPlayerName(name string) string {
	if i := strings.IndexByte(name, '\\'); i >= 0 {
		name = name[:i]
	}
	return strings.TrimSpace(strings.TrimRight(strings.TrimSpace(name), "*"))
}

// parseSeason accepts "2020", "2020.0" and "2019-20" (the latter as 2020)
func parseSeason(v string) (int, bool) {
	v = strings.TrimSpace(v)
	if start, end, ok := strings.Cut(v, "-"); ok {
		y, err := strconv.Atoi(strings.TrimSpace(start))
		if err != nil {
			return 0, false
		}
		suffix := strings.TrimSpace(end)
		if len(suffix) == 4 {
			full, err := strconv.Atoi(suffix)
			return full, err == nil
		}
		yy, err := strconv.Atoi(suffix)
		if err != nil || len(suffix) != 2 {
			return 0, false
		}
		century := y / 100 * 100
		if yy < y%100 {
			century += 100
		}
		return century + yy, true
	}
	f, ok := parseFloat(v)
	if !ok || f < 1000 {
		return 0, false
	}
	return int(f), true
}

func parseFloat(v string) (float64, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// dropTradedSplits keeps only the TOT line for a player traded mid-season
func dropTradedSplits(rows []dataset.PlayerSeason) ([]dataset.PlayerSeason, int) {
	type key struct {
		season int
		player string
	}
	hasTotal := make(map[key]bool)
	for _, r := range rows {
		if r.Team == "TOT" {
			hasTotal[key{r.Season, r.Player}] = true
		}
	}
	if len(hasTotal) == 0 {
		return rows, 0
	}

	kept := rows[:0]
	dropped := 0
	for _, r := range rows {
		if r.Team != "TOT" && hasTotal[key{r.Season, r.Player}] {
			dropped++
			continue
		}
		kept = append(kept, r)
	}
	return kept, dropped
}
