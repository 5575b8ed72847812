package excel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadTable_CSV(t *testing.T) {
	path := writeFile(t, "t.csv", "\ufeffSeason , Player,PER\n2020, A ,12.5\n2021,B\n")

	tbl, err := NewTableReader(path, "").ReadTable(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"Season", "Player", "PER"}, tbl.Headers)
	require.Len(t, tbl.Rows, 2)
	assert.Equal(t, Row{"Season": "2020", "Player": "A", "PER": "12.5"}, tbl.Rows[0])
	assert.Equal(t, "", tbl.Rows[1]["PER"])
}

func TestReadTable_ExtensionCaseInsensitive(t *testing.T) {
	path := writeFile(t, "T.CSV", "a,b\n1,2\n")
	tbl, err := NewTableReader(path, "").ReadTable(context.Background())
	require.NoError(t, err)
	assert.Len(t, tbl.Rows, 1)
}

func TestReadTable_HeaderOnly(t *testing.T) {
	path := writeFile(t, "t.csv", "Season,Player,PER\n")
	_, err := NewTableReader(path, "").ReadTable(context.Background())
	assert.Error(t, err)
}

func TestReadTable_NotAWorkbook(t *testing.T) {
	path := writeFile(t, "t.xlsx", "not a zip")
	_, err := NewTableReader(path, "").ReadTable(context.Background())
	assert.Error(t, err)
}

func TestReadTable_Cancelled(t *testing.T) {
	path := writeFile(t, "t.csv", "a,b\n1,2\n")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewTableReader(path, "").ReadTable(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
