package repository

import (
	"fmt"

	"backend/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Lookup data access built on GORM. The transactional tender endpoints use
// raw SQL; the catalogue tables and summary aggregates go through here.

// FetchEstados returns the estado lookup table ordered by id
func FetchEstados(db *gorm.DB) ([]models.EstadoGorm, error) {
	var estados []models.EstadoGorm
	if err := db.Order("id_estado").Find(&estados).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch estados: %w", err)
	}
	return estados, nil
}

// FetchTiposLicitacion returns the tender type lookup table ordered by name
func FetchTiposLicitacion(db *gorm.DB) ([]models.TipoLicitacionGorm, error) {
	var tipos []models.TipoLicitacionGorm
	if err := db.Order("nombre").Find(&tipos).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch tipos de licitacion: %w", err)
	}
	return tipos, nil
}

// SeedEstados inserts the canonical estado rows, skipping ones that exist.
// Runs at startup after migration so lookups are never empty.
func SeedEstados(db *gorm.DB) error {
	estados := []models.EstadoGorm{
		{IDEstado: models.EstadoDescartada, Nombre: "Descartada"},
		{IDEstado: models.EstadoEnAnalisis, Nombre: "En análisis"},
		{IDEstado: models.EstadoPresentada, Nombre: "Presentada"},
		{IDEstado: models.EstadoAdjudicada, Nombre: "Adjudicada"},
		{IDEstado: models.EstadoNoAdjudicada, Nombre: "No adjudicada"},
		{IDEstado: models.EstadoTerminada, Nombre: "Terminada"},
	}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&estados).Error; err != nil {
		return fmt.Errorf("failed to seed estados: %w", err)
	}
	return nil
}

// TenderSummary aggregates a tender's budget and booked deliveries
type TenderSummary struct {
	IDLicitacion     int     `json:"id_licitacion"`
	TotalPresupuesto float64 `json:"total_presupuesto"`
	CostePresupuesto float64 `json:"coste_presupuesto"`
	TotalEntregado   float64 `json:"total_entregado"`
	MargenPrevisto   float64 `json:"margen_previsto"`
}

// FetchTenderSummary computes the budget totals and delivered cost of a
// tender from its detail and real lines.
func FetchTenderSummary(db *gorm.DB, tenderID int) (*TenderSummary, error) {
	summary := TenderSummary{IDLicitacion: tenderID}

	row := db.Model(&models.PartidaGorm{}).
		Select("COALESCE(SUM(unidades * pvu), 0), COALESCE(SUM(unidades * pcu), 0)").
		Where("id_licitacion = ? AND activo = ?", tenderID, true).
		Row()
	if err := row.Scan(&summary.TotalPresupuesto, &summary.CostePresupuesto); err != nil {
		return nil, fmt.Errorf("failed to aggregate budget for tender %d: %w", tenderID, err)
	}

	row = db.Model(&models.DeliveryLineGorm{}).
		Select("COALESCE(SUM(cantidad * coste_unit), 0)").
		Where("id_licitacion = ?", tenderID).
		Row()
	if err := row.Scan(&summary.TotalEntregado); err != nil {
		return nil, fmt.Errorf("failed to aggregate deliveries for tender %d: %w", tenderID, err)
	}

	summary.MargenPrevisto = summary.TotalPresupuesto - summary.CostePresupuesto
	return &summary, nil
}
