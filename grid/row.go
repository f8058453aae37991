// Package grid implements the editable budget grid controller: an ordered,
// auto-persisting list of budget lines for a tender, with per-row lifecycle
// tracking, debounced price-deviation checks and periodic batched saves
// against the remote API.
package grid

import (
	"context"
	"strconv"
	"strings"

	"backend/models"
)

// RowState is the lifecycle state of a budget row in the grid.
type RowState int

const (
	// StateGhost is the trailing placeholder row awaiting product selection.
	StateGhost RowState = iota
	// StateDirty has local edits not yet persisted.
	StateDirty
	// StateSaving is part of an in-flight save batch.
	StateSaving
	// StateClean matches the server copy.
	StateClean
)

func (s RowState) String() string {
	switch s {
	case StateGhost:
		return "ghost"
	case StateDirty:
		return "dirty"
	case StateSaving:
		return "saving"
	case StateClean:
		return "clean"
	}
	return "unknown"
}

// Field identifies an editable column of the grid.
type Field int

const (
	FieldLot Field = iota
	FieldUnits
	FieldSalePrice
	FieldCostPrice
	FieldMaxPrice
)

// DefaultLot is the sentinel lot grouping for rows without an explicit lot.
const DefaultLot = "General"

// Row is one budget line as held by the grid. DetailID is 0 until the row
// has been persisted; ProductID is 0 until a product is selected.
type Row struct {
	DetailID    int
	ProductID   int
	ProductName string
	Lot         string
	Units       float64
	SalePrice   float64
	CostPrice   float64
	MaxPrice    float64
	State       RowState
}

// Persisted reports whether the row exists on the server.
func (r *Row) Persisted() bool {
	return r.DetailID != 0
}

// qualifiesForAdd reports whether an unpersisted row carries enough data to
// be submitted: a product plus at least one strictly positive amount. An
// empty ghost row is never submitted.
func (r *Row) qualifiesForAdd() bool {
	return r.ProductID != 0 && (r.Units > 0 || r.SalePrice > 0 || r.CostPrice > 0)
}

func (r *Row) toRequest() models.PartidaRequest {
	activo := true
	units, pvu, pcu, pmaxu := r.Units, r.SalePrice, r.CostPrice, r.MaxPrice
	req := models.PartidaRequest{
		Lote:     r.Lot,
		Unidades: &units,
		PVU:      &pvu,
		PCU:      &pcu,
		PMaxU:    &pmaxu,
		Activo:   &activo,
	}
	if r.ProductID != 0 {
		id := r.ProductID
		req.IDProducto = &id
	}
	return req
}

// parseAmount coerces raw user input to a number. Malformed input becomes 0;
// a comma decimal separator is accepted.
func parseAmount(raw string) float64 {
	raw = strings.TrimSpace(strings.ReplaceAll(raw, ",", "."))
	if raw == "" {
		return 0
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 {
		return 0
	}
	return v
}

// TenderAPI is the remote store for budget rows.
type TenderAPI interface {
	CreatePartida(ctx context.Context, tenderID int, req models.PartidaRequest) (*models.Partida, error)
	UpdatePartida(ctx context.Context, tenderID, detailID int, req models.PartidaRequest) (*models.Partida, error)
	DeletePartida(ctx context.Context, tenderID, detailID int) error
}

// AnalyticsAPI answers price deviation checks.
type AnalyticsAPI interface {
	CheckPriceDeviation(ctx context.Context, materialName string, currentPrice float64) (*models.PriceDeviationResult, error)
}

// ProductAPI is the autocomplete source for product selection.
type ProductAPI interface {
	SearchProducts(ctx context.Context, query string, limit int) ([]models.ProductoSearchResult, error)
}
