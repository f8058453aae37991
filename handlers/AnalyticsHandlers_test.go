package handlers

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestComputePriceDeviationNoProductMatch(t *testing.T) {
	result := computePriceDeviation(50, nil, false)

	require.True(t, result.IsDeviated)
	require.Equal(t, 0.0, result.DeviationPercentage)
	require.Equal(t, 0.0, result.HistoricalAvg)
	require.Equal(t, "No hay histórico para este material. Revisar precio manualmente.", result.Recommendation)
}

func TestComputePriceDeviationNoHistory(t *testing.T) {
	// A matched product with no usable prices still flags the price.
	result := computePriceDeviation(50, []float64{}, true)

	require.True(t, result.IsDeviated)
	require.Equal(t, 0.0, result.DeviationPercentage)
	require.Equal(t, 0.0, result.HistoricalAvg)
	require.Equal(t, "Sin histórico reciente. Verificar precio con el mercado.", result.Recommendation)

	// Zero-valued history behaves the same as none.
	result = computePriceDeviation(50, []float64{0, 0}, true)
	require.True(t, result.IsDeviated)
}

func TestComputePriceDeviationAbove(t *testing.T) {
	// avg = 100, price 25% above
	result := computePriceDeviation(125, []float64{90, 100, 110}, true)

	require.True(t, result.IsDeviated)
	require.Equal(t, 25.0, result.DeviationPercentage)
	require.Equal(t, 100.0, result.HistoricalAvg)
	require.Equal(t,
		"Precio 25.0% por encima de la media del último año (€100.00). Revisar si el coste actual está justificado.",
		result.Recommendation)
}

func TestComputePriceDeviationBelow(t *testing.T) {
	result := computePriceDeviation(80, []float64{100}, true)

	require.True(t, result.IsDeviated)
	require.Equal(t, -20.0, result.DeviationPercentage)
	require.Equal(t,
		"Precio 20.0% por debajo de la media del último año (€100.00). Confirmar que el proveedor y la calidad son correctos.",
		result.Recommendation)
}

func TestComputePriceDeviationAligned(t *testing.T) {
	result := computePriceDeviation(105, []float64{100}, true)

	require.False(t, result.IsDeviated)
	require.Equal(t, 5.0, result.DeviationPercentage)
	require.Equal(t, "Precio alineado con la media histórica (€100.00).", result.Recommendation)
}

func TestComputePriceDeviationThresholdIsExclusive(t *testing.T) {
	// Exactly 10% is not a deviation, just over it is.
	result := computePriceDeviation(110, []float64{100}, true)
	require.False(t, result.IsDeviated)

	result = computePriceDeviation(110.01, []float64{100}, true)
	require.True(t, result.IsDeviated)
}

func TestComputePriceDeviationRounding(t *testing.T) {
	// avg = (10+11+12)/3 = 11, pct = (12.5-11)/11*100 = 13.6363...
	result := computePriceDeviation(12.5, []float64{10, 11, 12}, true)

	require.Equal(t, 13.64, result.DeviationPercentage)
	require.Equal(t, 11.0, result.HistoricalAvg)
}

func TestMovingAverageForecast(t *testing.T) {
	require.Nil(t, movingAverageForecast(nil, 5))
	require.Nil(t, movingAverageForecast([]float64{}, 5))

	// Fewer values than the window uses them all.
	got := movingAverageForecast([]float64{10, 20}, 5)
	require.NotNil(t, got)
	require.Equal(t, 15.0, *got)

	// Only the last `window` values count.
	got = movingAverageForecast([]float64{1000, 10, 20, 30, 40, 50}, 5)
	require.NotNil(t, got)
	require.Equal(t, 30.0, *got)
}

func TestRound2(t *testing.T) {
	require.Equal(t, 1.23, round2(1.2345))
	require.Equal(t, 1.24, round2(1.235))
	require.Equal(t, -1.23, round2(-1.2349))
	require.Equal(t, 0.0, round2(0))
}
