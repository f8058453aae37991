package models

// PrecioReferencia is a row of tbl_precios_referencia: a priced quote line
// outside any tender, used as price history
type PrecioReferencia struct {
	ID               string   `json:"id" example:"7d1e5b3a-2c90-4f18-b6a4-0e9c8d7f6a21"`
	IDProducto       int      `json:"id_producto" example:"55"`
	ProductNombre    string   `json:"product_nombre,omitempty" example:"Cable RZ1-K 3x2.5"`
	PVU              *float64 `json:"pvu,omitempty" example:"12.5"`
	PCU              *float64 `json:"pcu,omitempty" example:"9.8"`
	Unidades         *float64 `json:"unidades,omitempty" example:"100"`
	Proveedor        string   `json:"proveedor,omitempty" example:"Electro Suministros SL"`
	Notas            string   `json:"notas,omitempty" example:""`
	FechaPresupuesto *string  `json:"fecha_presupuesto,omitempty" example:"2024-02-15"`
}

// PrecioReferenciaRequest creates or updates a reference price line
type PrecioReferenciaRequest struct {
	IDProducto       int      `json:"id_producto" binding:"required" example:"55"`
	PVU              *float64 `json:"pvu,omitempty" example:"12.5"`
	PCU              *float64 `json:"pcu,omitempty" example:"9.8"`
	Unidades         *float64 `json:"unidades,omitempty" example:"100"`
	Proveedor        string   `json:"proveedor,omitempty" example:"Electro Suministros SL"`
	Notas            string   `json:"notas,omitempty" example:""`
	FechaPresupuesto *string  `json:"fecha_presupuesto,omitempty" example:"2024-02-15"`
}

// PrecioReferenciaResponse wraps a single reference price
type PrecioReferenciaResponse struct {
	Success bool              `json:"success" example:"true"`
	Message string            `json:"message" example:"Success"`
	Data    *PrecioReferencia `json:"data,omitempty"`
	Error   string            `json:"error,omitempty" example:""`
}

// PrecioReferenciaListResponse wraps a reference price list
type PrecioReferenciaListResponse struct {
	Success bool               `json:"success" example:"true"`
	Message string             `json:"message" example:"Success"`
	Data    []PrecioReferencia `json:"data,omitempty"`
	Error   string             `json:"error,omitempty" example:""`
}
