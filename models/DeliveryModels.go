package models

// DeliveryHeader is the header part of a delivery document (tbl_entregas)
type DeliveryHeader struct {
	Fecha         string `json:"fecha" binding:"required" example:"2024-06-10"`
	CodigoAlbaran string `json:"codigo_albaran" binding:"required" example:"ALB-2024-118"`
	Observaciones string `json:"observaciones" example:""`
	Cliente       string `json:"cliente" example:"Ayuntamiento de Sevilla"`
}

// DeliveryLine is one detail line. A line either points at a budget line
// (id_detalle) or is an extraordinary expense (id_tipo_gasto).
type DeliveryLine struct {
	IDProducto  *int    `json:"id_producto,omitempty" example:"55"`
	IDDetalle   *int    `json:"id_detalle,omitempty" example:"10"`
	IDTipoGasto *int    `json:"id_tipo_gasto,omitempty" example:""`
	Proveedor   string  `json:"proveedor" example:"Electro Suministros SL"`
	Cantidad    float64 `json:"cantidad" example:"40"`
	CosteUnit   float64 `json:"coste_unit" example:"9.8"`
}

// DeliveryCreateRequest creates a delivery document: header plus lines
type DeliveryCreateRequest struct {
	IDLicitacion int            `json:"id_licitacion" binding:"required" example:"1"`
	Cabecera     DeliveryHeader `json:"cabecera" binding:"required"`
	Lineas       []DeliveryLine `json:"lineas"`
}

// Delivery is a persisted delivery with its booked lines (tbl_licitaciones_real)
type Delivery struct {
	IDEntrega     string             `json:"id_entrega" example:"0b5f2a9e-1c7d-4a43-90f1-8a2f6f4c1d11"`
	IDLicitacion  int                `json:"id_licitacion" example:"1"`
	Fecha         string             `json:"fecha" example:"2024-06-10"`
	CodigoAlbaran string             `json:"codigo_albaran" example:"ALB-2024-118"`
	Observaciones string             `json:"observaciones,omitempty" example:""`
	Cliente       string             `json:"cliente,omitempty" example:""`
	Lineas        []DeliveryRealLine `json:"lineas"`
}

// DeliveryRealLine is one booked line of tbl_licitaciones_real
type DeliveryRealLine struct {
	ID            int     `json:"id" example:"301"`
	IDEntrega     string  `json:"id_entrega" example:"0b5f2a9e-1c7d-4a43-90f1-8a2f6f4c1d11"`
	IDProducto    *int    `json:"id_producto,omitempty" example:"55"`
	IDDetalle     *int    `json:"id_detalle,omitempty" example:"10"`
	IDTipoGasto   *int    `json:"id_tipo_gasto,omitempty" example:""`
	ProductNombre string  `json:"product_nombre,omitempty" example:"Cable RZ1-K 3x2.5"`
	Proveedor     string  `json:"proveedor,omitempty" example:""`
	Cantidad      float64 `json:"cantidad" example:"40"`
	CosteUnit     float64 `json:"coste_unit" example:"9.8"`
	Estado        string  `json:"estado" example:"EN ESPERA"`
	Cobrado       bool    `json:"cobrado" example:"false"`
}

// DeliveryLineUpdateRequest updates the workflow fields of a booked line
type DeliveryLineUpdateRequest struct {
	Estado  *string `json:"estado,omitempty" example:"ENTREGADO"`
	Cobrado *bool   `json:"cobrado,omitempty" example:"true"`
}

// DeliveryResponse wraps a single delivery
type DeliveryResponse struct {
	Success bool      `json:"success" example:"true"`
	Message string    `json:"message" example:"Success"`
	Data    *Delivery `json:"data,omitempty"`
	Error   string    `json:"error,omitempty" example:""`
}

// DeliveryListResponse wraps a delivery list
type DeliveryListResponse struct {
	Success bool       `json:"success" example:"true"`
	Message string     `json:"message" example:"Success"`
	Data    []Delivery `json:"data,omitempty"`
	Error   string     `json:"error,omitempty" example:""`
}
