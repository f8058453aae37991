package handlers

import (
	"backend/models"
	"backend/utils"
	"database/sql"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/lib/pq"
)

func intArray(ids []int) interface{} {
	arr := make([]int64, len(ids))
	for i, id := range ids {
		arr[i] = int64(id)
	}
	return pq.Array(arr)
}

// DeviationThresholdPct is the absolute percentage above which a sale price
// counts as deviated from its historical average.
const DeviationThresholdPct = 10.0

// maWindow is the moving-average window for the product price forecast.
const maWindow = 5

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// computePriceDeviation applies the deviation rules to a candidate price and
// the collected historical prices. productMatched reports whether the material
// name matched any catalogue product at all.
func computePriceDeviation(currentPrice float64, prices []float64, productMatched bool) models.PriceDeviationResult {
	if !productMatched {
		return models.PriceDeviationResult{
			IsDeviated:          true,
			DeviationPercentage: 0,
			HistoricalAvg:       0,
			Recommendation:      "No hay histórico para este material. Revisar precio manualmente.",
		}
	}

	var sum float64
	for _, p := range prices {
		sum += p
	}
	var avg float64
	if len(prices) > 0 {
		avg = sum / float64(len(prices))
	}

	// No usable history still flags the price for manual review.
	if avg <= 0 {
		return models.PriceDeviationResult{
			IsDeviated:          true,
			DeviationPercentage: 0,
			HistoricalAvg:       round2(avg),
			Recommendation:      "Sin histórico reciente. Verificar precio con el mercado.",
		}
	}

	pct := (currentPrice - avg) / avg * 100
	result := models.PriceDeviationResult{
		IsDeviated:          math.Abs(pct) > DeviationThresholdPct,
		DeviationPercentage: round2(pct),
		HistoricalAvg:       round2(avg),
	}

	switch {
	case pct > DeviationThresholdPct:
		result.Recommendation = fmt.Sprintf(
			"Precio %.1f%% por encima de la media del último año (€%.2f). Revisar si el coste actual está justificado.",
			math.Abs(pct), result.HistoricalAvg)
	case pct < -DeviationThresholdPct:
		result.Recommendation = fmt.Sprintf(
			"Precio %.1f%% por debajo de la media del último año (€%.2f). Confirmar que el proveedor y la calidad son correctos.",
			math.Abs(pct), result.HistoricalAvg)
	default:
		result.Recommendation = fmt.Sprintf(
			"Precio alineado con la media histórica (€%.2f).", result.HistoricalAvg)
	}
	return result
}

// movingAverageForecast returns the mean of the last `window` values, or nil
// when there are no values.
func movingAverageForecast(values []float64, window int) *float64 {
	if len(values) == 0 {
		return nil
	}
	start := len(values) - window
	if start < 0 {
		start = 0
	}
	var sum float64
	for _, v := range values[start:] {
		sum += v
	}
	forecast := round2(sum / float64(len(values)-start))
	return &forecast
}

// PriceDeviationCheckHandler compares a price against the material's history
// @Summary Price deviation check
// @Description Compare a candidate sale price against reference prices of the last year plus active budget lines
// @Tags Analytics
// @Produce json
// @Param material_name query string true "Material name"
// @Param current_price query number true "Candidate sale price"
// @Success 200 {object} models.PriceDeviationResult
// @Failure 400 {object} models.ErrorResponse
// @Router /analytics/price-deviation-check [get]
func PriceDeviationCheckHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := RequireSession(c, db); !ok {
			return
		}

		materialName := strings.TrimSpace(c.Query("material_name"))
		if materialName == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "material_name is required"})
			return
		}
		currentPrice, err := strconv.ParseFloat(c.Query("current_price"), 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "current_price must be a number"})
			return
		}

		rows, err := db.Query(`SELECT id FROM tbl_productos WHERE nombre ILIKE $1`, "%"+materialName+"%")
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to match products", "details": err.Error()})
			return
		}
		productIDs := []int{}
		for rows.Next() {
			var id int
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to scan product", "details": err.Error()})
				return
			}
			productIDs = append(productIDs, id)
		}
		rows.Close()

		if len(productIDs) == 0 {
			c.JSON(http.StatusOK, computePriceDeviation(currentPrice, nil, false))
			return
		}

		prices := []float64{}

		// Reference prices of the last year.
		refRows, err := db.Query(`
			SELECT pvu FROM tbl_precios_referencia
			WHERE id_producto = ANY($1) AND pvu > 0
			  AND fecha_presupuesto >= NOW() - INTERVAL '365 days'`, intArray(productIDs))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch reference prices", "details": err.Error()})
			return
		}
		for refRows.Next() {
			var p float64
			if err := refRows.Scan(&p); err != nil {
				refRows.Close()
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to scan price", "details": err.Error()})
				return
			}
			prices = append(prices, p)
		}
		refRows.Close()

		// Active budget lines regardless of date.
		detRows, err := db.Query(`
			SELECT pvu FROM tbl_licitaciones_detalle
			WHERE id_producto = ANY($1) AND activo = TRUE AND pvu > 0`, intArray(productIDs))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch budget prices", "details": err.Error()})
			return
		}
		for detRows.Next() {
			var p float64
			if err := detRows.Scan(&p); err != nil {
				detRows.Close()
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to scan price", "details": err.Error()})
				return
			}
			prices = append(prices, p)
		}
		detRows.Close()

		c.JSON(http.StatusOK, computePriceDeviation(currentPrice, prices, true))
	}
}

// GetKPIsHandler returns the dashboard counters
// @Summary Dashboard KPIs
// @Description Aggregate tender counters: opportunities, offered, awarded, discarded
// @Tags Analytics
// @Produce json
// @Success 200 {object} models.KPIDashboard
// @Failure 500 {object} models.ErrorResponse
// @Router /analytics/kpis [get]
func GetKPIsHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := RequireSession(c, db); !ok {
			return
		}

		ctx, cancel := utils.GetSlowQueryContext(c.Request.Context())
		defer cancel()

		var kpi models.KPIDashboard
		var descartadasUds int
		var descartadasEuros float64
		var adjTermUds, adjUds, noAdjUds int

		err := db.QueryRowContext(ctx, `
			SELECT COUNT(*),
			       COALESCE(SUM(pres_maximo), 0),
			       COUNT(*) FILTER (WHERE id_estado IN ($1, $2, $3, $4)),
			       COALESCE(SUM(pres_maximo) FILTER (WHERE id_estado IN ($1, $2, $3, $4)), 0),
			       COUNT(*) FILTER (WHERE id_estado = $5),
			       COALESCE(SUM(pres_maximo) FILTER (WHERE id_estado = $5), 0),
			       COUNT(*) FILTER (WHERE id_estado IN ($2, $4)),
			       COUNT(*) FILTER (WHERE id_estado = $2),
			       COUNT(*) FILTER (WHERE id_estado = $3)
			FROM tbl_licitaciones`,
			models.EstadoPresentada, models.EstadoAdjudicada, models.EstadoNoAdjudicada, models.EstadoTerminada,
			models.EstadoDescartada).Scan(
			&kpi.TotalOportunidadesUds, &kpi.TotalOportunidadesEuros,
			&kpi.TotalOfertadoUds, &kpi.TotalOfertadoEuros,
			&descartadasUds, &descartadasEuros,
			&adjTermUds, &adjUds, &noAdjUds)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute KPIs", "details": err.Error()})
			return
		}

		if kpi.TotalOportunidadesUds > 0 {
			kpi.RatioOfertadoOportunidadesUds = round2(float64(kpi.TotalOfertadoUds) / float64(kpi.TotalOportunidadesUds))
		}
		if kpi.TotalOportunidadesEuros > 0 {
			kpi.RatioOfertadoOportunidadesEuros = round2(kpi.TotalOfertadoEuros / kpi.TotalOportunidadesEuros)
		}
		if kpi.TotalOfertadoUds > 0 {
			kpi.RatioAdjudicadasTerminadasOfertado = round2(float64(adjTermUds) / float64(kpi.TotalOfertadoUds))
		}
		// Discarded percentage excludes tenders still under analysis.
		decididasUds := kpi.TotalOfertadoUds + descartadasUds
		if decididasUds > 0 {
			pct := round2(float64(descartadasUds) / float64(decididasUds))
			kpi.PctDescartadasUds = &pct
		}
		decididasEuros := kpi.TotalOfertadoEuros + descartadasEuros
		if decididasEuros > 0 {
			pct := round2(descartadasEuros / decididasEuros)
			kpi.PctDescartadasEuros = &pct
		}
		if resueltas := adjUds + noAdjUds; resueltas > 0 {
			kpi.RatioAdjudicacion = round2(float64(adjUds) / float64(resueltas))
		}

		timeline, err := fetchTimeline(db)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build timeline", "details": err.Error()})
			return
		}
		kpi.Timeline = timeline

		c.JSON(http.StatusOK, kpi)
	}
}

func fetchTimeline(db *sql.DB) ([]models.TimelineItem, error) {
	rows, err := db.Query(`
		SELECT l.id_licitacion, l.nombre, l.fecha_adjudicacion, l.fecha_fin,
		       COALESCE(e.nombre, ''), l.pres_maximo
		FROM tbl_licitaciones l
		LEFT JOIN tbl_estados e ON e.id_estado = l.id_estado
		WHERE l.id_estado IN ($1, $2) AND l.fecha_adjudicacion IS NOT NULL
		ORDER BY l.fecha_adjudicacion`,
		models.EstadoAdjudicada, models.EstadoTerminada)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []models.TimelineItem{}
	for rows.Next() {
		var it models.TimelineItem
		if err := rows.Scan(&it.IDLicitacion, &it.Nombre, &it.FechaAdjudicacion,
			&it.FechaFinalizacion, &it.EstadoNombre, &it.PresMaximo); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// GetMaterialTrendsHandler returns the PVU/PCU time series for a material
// @Summary Material price trends
// @Description Dated sale and cost prices for a material across all tenders
// @Tags Analytics
// @Produce json
// @Param material_name path string true "Material name"
// @Success 200 {object} models.MaterialTrendResponse
// @Failure 400 {object} models.ErrorResponse
// @Router /analytics/material-trends/{material_name} [get]
func GetMaterialTrendsHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := RequireSession(c, db); !ok {
			return
		}

		materialName := strings.TrimSpace(c.Param("material_name"))
		if materialName == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "material_name is required"})
			return
		}

		ctx, cancel := utils.GetSlowQueryContext(c.Request.Context())
		defer cancel()

		rows, err := db.QueryContext(ctx, `
			SELECT l.fecha_presupuesto, d.pvu, d.pcu
			FROM tbl_licitaciones_detalle d
			JOIN tbl_licitaciones l ON l.id_licitacion = d.id_licitacion
			LEFT JOIN tbl_productos p ON p.id = d.id_producto
			WHERE d.activo = TRUE AND l.fecha_presupuesto IS NOT NULL
			  AND (p.nombre ILIKE $1 OR d.nombre_producto_libre ILIKE $1)
			ORDER BY l.fecha_presupuesto`, "%"+materialName+"%")
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch trends", "details": err.Error()})
			return
		}
		defer rows.Close()

		res := models.MaterialTrendResponse{
			PVU: []models.MaterialTrendPoint{},
			PCU: []models.MaterialTrendPoint{},
		}
		for rows.Next() {
			var fecha string
			var pvu, pcu float64
			if err := rows.Scan(&fecha, &pvu, &pcu); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to scan trend point", "details": err.Error()})
				return
			}
			if pvu > 0 {
				res.PVU = append(res.PVU, models.MaterialTrendPoint{Time: fecha, Value: pvu})
			}
			if pcu > 0 {
				res.PCU = append(res.PCU, models.MaterialTrendPoint{Time: fecha, Value: pcu})
			}
		}

		c.JSON(http.StatusOK, res)
	}
}

// GetProductAnalyticsHandler returns the per-product analytics sheet
// @Summary Product analytics
// @Description Price history, volume metrics, competitor summary and a moving-average forecast
// @Tags Analytics
// @Produce json
// @Param id path int true "Product ID"
// @Success 200 {object} models.ProductAnalytics
// @Failure 404 {object} models.ErrorResponse
// @Router /analytics/product/{id} [get]
func GetProductAnalyticsHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := RequireSession(c, db); !ok {
			return
		}

		productID, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product ID"})
			return
		}

		var productName string
		err = db.QueryRow(`SELECT nombre FROM tbl_productos WHERE id = $1`, productID).Scan(&productName)
		if err != nil {
			if err == sql.ErrNoRows {
				c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch product", "details": err.Error()})
			return
		}

		ctx, cancel := utils.GetSlowQueryContext(c.Request.Context())
		defer cancel()

		analytics := models.ProductAnalytics{
			ProductID:          productID,
			ProductName:        productName,
			PriceHistory:       []models.PriceHistoryPoint{},
			PriceHistoryPCU:    []models.PriceHistoryPoint{},
			CompetitorAnalysis: []models.CompetitorItem{},
		}

		rows, err := db.QueryContext(ctx, `
			SELECT l.fecha_adjudicacion, d.pvu, d.pcu, d.unidades
			FROM tbl_licitaciones_detalle d
			JOIN tbl_licitaciones l ON l.id_licitacion = d.id_licitacion
			WHERE d.id_producto = $1 AND d.activo = TRUE
			  AND l.id_estado IN ($2, $3) AND l.fecha_adjudicacion IS NOT NULL
			ORDER BY l.fecha_adjudicacion`,
			productID, models.EstadoAdjudicada, models.EstadoTerminada)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch price history", "details": err.Error()})
			return
		}
		pvuSeries := []float64{}
		var totalLicitado float64
		for rows.Next() {
			var fecha string
			var pvu, pcu float64
			var unidades float64
			if err := rows.Scan(&fecha, &pvu, &pcu, &unidades); err != nil {
				rows.Close()
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to scan price point", "details": err.Error()})
				return
			}
			u := unidades
			if pvu > 0 {
				analytics.PriceHistory = append(analytics.PriceHistory, models.PriceHistoryPoint{Time: fecha, Value: pvu, Unidades: &u})
				pvuSeries = append(pvuSeries, pvu)
			}
			if pcu > 0 {
				analytics.PriceHistoryPCU = append(analytics.PriceHistoryPCU, models.PriceHistoryPoint{Time: fecha, Value: pcu, Unidades: &u})
			}
			totalLicitado += unidades * pvu
		}
		rows.Close()

		analytics.VolumeMetrics.TotalLicitado = round2(totalLicitado)
		analytics.Forecast = movingAverageForecast(pvuSeries, maWindow)

		// Competitor view: reference prices grouped by supplier.
		compRows, err := db.QueryContext(ctx, `
			SELECT COALESCE(proveedor, 'Desconocido'), AVG(pvu), COUNT(*)
			FROM tbl_precios_referencia
			WHERE id_producto = $1 AND pvu > 0
			GROUP BY COALESCE(proveedor, 'Desconocido')
			ORDER BY COUNT(*) DESC`, productID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch competitor data", "details": err.Error()})
			return
		}
		var supplierCount int
		for compRows.Next() {
			var item models.CompetitorItem
			if err := compRows.Scan(&item.Empresa, &item.PrecioMedio, &item.CantidadAdjudicaciones); err != nil {
				compRows.Close()
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to scan competitor", "details": err.Error()})
				return
			}
			item.PrecioMedio = round2(item.PrecioMedio)
			analytics.CompetitorAnalysis = append(analytics.CompetitorAnalysis, item)
			supplierCount++
		}
		compRows.Close()
		if len(analytics.PriceHistory) > 0 {
			analytics.VolumeMetrics.CantidadOferentesPromedio = round2(float64(supplierCount))
		}

		var refAvg sql.NullFloat64
		err = db.QueryRow(`
			SELECT AVG(pvu) FROM tbl_precios_referencia
			WHERE id_producto = $1 AND pvu > 0
			  AND fecha_presupuesto >= NOW() - INTERVAL '365 days'`, productID).Scan(&refAvg)
		if err == nil && refAvg.Valid {
			avg := round2(refAvg.Float64)
			analytics.PrecioReferenciaMedio = &avg
		}

		c.JSON(http.StatusOK, analytics)
	}
}
