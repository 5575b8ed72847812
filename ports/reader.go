package ports

import (
	"context"

	"goposterior/domain/dataset"
)

// SeasonReaderPort loads cleaned player-season rows from a data source
type SeasonReaderPort interface {
	ReadSeasons(ctx context.Context) ([]dataset.PlayerSeason, dataset.LoadReport, error)
}
