package handlers

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseBudgetSheetEmptyWorkbook(t *testing.T) {
	_, err := parseBudgetSheet(nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "workbook is empty")
}

func TestParseBudgetSheetMissingDescripcion(t *testing.T) {
	rows := [][]string{
		{"Lote", "Unidades", "PVU"},
		{"General", "10", "5"},
	}
	_, err := parseBudgetSheet(rows)
	require.Error(t, err)
	require.Contains(t, err.Error(), "descripcion")
}

func TestParseBudgetSheetSpanishHeaders(t *testing.T) {
	rows := [][]string{
		{"Lote", "Descripción", "Unidades", "PVU", "PCU", "PMaxU"},
		{"Lote 1", "Cable RZ1-K 3x2.5", "100", "12.5", "9.8", "14"},
	}

	parsed, err := parseBudgetSheet(rows)
	require.NoError(t, err)
	require.Len(t, parsed, 1)

	row := parsed[0]
	require.Equal(t, 2, row.Fila)
	require.Equal(t, "Lote 1", row.Lote)
	require.Equal(t, "Cable RZ1-K 3x2.5", row.Descripcion)
	require.Equal(t, 100.0, row.Unidades)
	require.Equal(t, 12.5, row.PVU)
	require.Equal(t, 9.8, row.PCU)
	require.Equal(t, 14.0, row.PMaxU)
	require.Empty(t, row.Avisos)
}

func TestParseBudgetSheetEnglishHeaders(t *testing.T) {
	rows := [][]string{
		{"Lot", "Description", "Units", "PVU"},
		{"A", "Steel beam", "4", "250"},
	}

	parsed, err := parseBudgetSheet(rows)
	require.NoError(t, err)
	require.Len(t, parsed, 1)
	require.Equal(t, "A", parsed[0].Lote)
	require.Equal(t, "Steel beam", parsed[0].Descripcion)
	require.Equal(t, 4.0, parsed[0].Unidades)
	require.Equal(t, 250.0, parsed[0].PVU)
}

func TestParseBudgetSheetSkipsRowsWithoutDescription(t *testing.T) {
	rows := [][]string{
		{"Descripcion", "Unidades"},
		{"Producto A", "1"},
		{"", "5"},
		{"   ", "7"},
		{"Producto B", "2"},
	}

	parsed, err := parseBudgetSheet(rows)
	require.NoError(t, err)
	require.Len(t, parsed, 2)
	require.Equal(t, 2, parsed[0].Fila)
	require.Equal(t, 5, parsed[1].Fila)
}

func TestParseBudgetSheetLoteDefaultsToGeneral(t *testing.T) {
	rows := [][]string{
		{"Lote", "Descripcion"},
		{"", "Producto sin lote"},
	}

	parsed, err := parseBudgetSheet(rows)
	require.NoError(t, err)
	require.Len(t, parsed, 1)
	require.Equal(t, "General", parsed[0].Lote)
}

func TestParseBudgetSheetLoteCarriesForward(t *testing.T) {
	// Merged lot cells export as blanks on all rows but the first.
	rows := [][]string{
		{"Lote", "Descripcion"},
		{"Lote 1", "Producto A"},
		{"", "Producto B"},
		{"Lote 2", "Producto C"},
		{"", "Producto D"},
	}

	parsed, err := parseBudgetSheet(rows)
	require.NoError(t, err)
	require.Len(t, parsed, 4)
	require.Equal(t, "Lote 1", parsed[0].Lote)
	require.Equal(t, "Lote 1", parsed[1].Lote)
	require.Equal(t, "Lote 2", parsed[2].Lote)
	require.Equal(t, "Lote 2", parsed[3].Lote)
}

func TestParseBudgetSheetCommaDecimals(t *testing.T) {
	rows := [][]string{
		{"Descripcion", "Unidades", "PVU"},
		{"Producto A", "2,5", "10,75"},
	}

	parsed, err := parseBudgetSheet(rows)
	require.NoError(t, err)
	require.Equal(t, 2.5, parsed[0].Unidades)
	require.Equal(t, 10.75, parsed[0].PVU)
	require.Empty(t, parsed[0].Avisos)
}

func TestParseBudgetSheetMalformedNumbersBecomeZeroWithWarning(t *testing.T) {
	rows := [][]string{
		{"Descripcion", "Unidades", "PVU"},
		{"Producto A", "muchas", "-5"},
	}

	parsed, err := parseBudgetSheet(rows)
	require.NoError(t, err)
	require.Len(t, parsed, 1)

	row := parsed[0]
	require.Equal(t, 0.0, row.Unidades)
	require.Equal(t, 0.0, row.PVU)
	require.Len(t, row.Avisos, 2)
	require.Contains(t, row.Avisos[0], "unidades no numérico")
	require.Contains(t, row.Avisos[1], "pvu no numérico")
}

func TestParseBudgetSheetShortRows(t *testing.T) {
	// Rows narrower than the header must not panic; missing cells are empty.
	rows := [][]string{
		{"Lote", "Descripcion", "Unidades", "PVU"},
		{"General", "Producto A"},
	}

	parsed, err := parseBudgetSheet(rows)
	require.NoError(t, err)
	require.Len(t, parsed, 1)
	require.Equal(t, 0.0, parsed[0].Unidades)
	require.Equal(t, 0.0, parsed[0].PVU)
	require.Empty(t, parsed[0].Avisos)
}

func TestParseBudgetSheetFirstMatchingHeaderWins(t *testing.T) {
	// Both "descripcion" and "producto" map to the description column; the
	// leftmost one is used.
	rows := [][]string{
		{"Descripcion", "Producto"},
		{"correcto", "ignorado"},
	}

	parsed, err := parseBudgetSheet(rows)
	require.NoError(t, err)
	require.Len(t, parsed, 1)
	require.Equal(t, "correcto", parsed[0].Descripcion)
}
