package models

// PriceDeviationResult is the response of the price deviation check used by
// the budget grid while the user types a sale price
type PriceDeviationResult struct {
	IsDeviated          bool    `json:"is_deviated" example:"true"`
	DeviationPercentage float64 `json:"deviation_percentage" example:"15.3"`
	HistoricalAvg       float64 `json:"historical_avg" example:"11.2"`
	Recommendation      string  `json:"recommendation" example:"El precio está un 15.3% por encima de la media histórica (11.20 €)."`
}

// TimelineItem is one bar of the dashboard timeline chart, spanning from
// award to completion
type TimelineItem struct {
	IDLicitacion      int      `json:"id_licitacion" example:"1"`
	Nombre            string   `json:"nombre" example:"Suministro material electrico 2024"`
	FechaAdjudicacion *string  `json:"fecha_adjudicacion,omitempty" example:"2024-05-01"`
	FechaFinalizacion *string  `json:"fecha_finalizacion,omitempty" example:"2024-12-31"`
	EstadoNombre      string   `json:"estado_nombre,omitempty" example:"Adjudicada"`
	PresMaximo        *float64 `json:"pres_maximo,omitempty" example:"120000.50"`
}

// KPIDashboard aggregates the dashboard counters.
// Ofertado counts only tenders that reached presentation (presentada,
// adjudicada, no adjudicada, terminada). The discarded percentage excludes
// tenders still under analysis from its denominator.
type KPIDashboard struct {
	Timeline []TimelineItem `json:"timeline"`

	TotalOportunidadesUds   int     `json:"total_oportunidades_uds" example:"42"`
	TotalOportunidadesEuros float64 `json:"total_oportunidades_euros" example:"3500000"`

	TotalOfertadoUds   int     `json:"total_ofertado_uds" example:"30"`
	TotalOfertadoEuros float64 `json:"total_ofertado_euros" example:"2600000"`

	RatioOfertadoOportunidadesUds   float64 `json:"ratio_ofertado_oportunidades_uds" example:"0.71"`
	RatioOfertadoOportunidadesEuros float64 `json:"ratio_ofertado_oportunidades_euros" example:"0.74"`

	RatioAdjudicadasTerminadasOfertado float64 `json:"ratio_adjudicadas_terminadas_ofertado" example:"0.4"`

	PctDescartadasUds   *float64 `json:"pct_descartadas_uds,omitempty" example:"0.15"`
	PctDescartadasEuros *float64 `json:"pct_descartadas_euros,omitempty" example:"0.12"`

	RatioAdjudicacion float64 `json:"ratio_adjudicacion" example:"0.55"`
}

// MaterialTrendPoint is one time/value pair for the price trend chart
type MaterialTrendPoint struct {
	Time  string  `json:"time" example:"2024-03-01"`
	Value float64 `json:"value" example:"12.5"`
}

// MaterialTrendResponse carries the PVU and PCU series for a material name
type MaterialTrendResponse struct {
	PVU []MaterialTrendPoint `json:"pvu"`
	PCU []MaterialTrendPoint `json:"pcu"`
}

// PriceHistoryPoint is a dated awarded price with the units sold that day
type PriceHistoryPoint struct {
	Time     string   `json:"time" example:"2024-03-01"`
	Value    float64  `json:"value" example:"12.5"`
	Unidades *float64 `json:"unidades,omitempty" example:"100"`
}

// VolumeMetrics summarizes tendered volume for a product
type VolumeMetrics struct {
	TotalLicitado             float64 `json:"total_licitado" example:"125000"`
	CantidadOferentesPromedio float64 `json:"cantidad_oferentes_promedio" example:"2.5"`
}

// CompetitorItem is one supplier aggregated over its awarded lines
type CompetitorItem struct {
	Empresa                string  `json:"empresa" example:"Electro Suministros SL"`
	PrecioMedio            float64 `json:"precio_medio" example:"11.8"`
	CantidadAdjudicaciones int     `json:"cantidad_adjudicaciones" example:"4"`
}

// ProductAnalytics is the full per-product analytics sheet
type ProductAnalytics struct {
	ProductID            int                 `json:"product_id" example:"55"`
	ProductName          string              `json:"product_name" example:"Cable RZ1-K 3x2.5"`
	PriceHistory         []PriceHistoryPoint `json:"price_history"`
	PriceHistoryPCU      []PriceHistoryPoint `json:"price_history_pcu"`
	VolumeMetrics        VolumeMetrics       `json:"volume_metrics"`
	CompetitorAnalysis   []CompetitorItem    `json:"competitor_analysis"`
	Forecast             *float64            `json:"forecast,omitempty" example:"12.9"`
	PrecioReferenciaMedio *float64           `json:"precio_referencia_medio,omitempty" example:"12.1"`
}
