package models

// Producto represents a row of tbl_productos
type Producto struct {
	ID              int    `json:"id" example:"55"`
	Nombre          string `json:"nombre" example:"Cable RZ1-K 3x2.5"`
	NombreProveedor string `json:"nombre_proveedor,omitempty" example:"Electro Suministros SL"`
	CodigoERP       string `json:"codigo_erp,omitempty" example:"BEL-10442"`
}

// ProductoSearchResult is the shape returned by the product combobox search
type ProductoSearchResult struct {
	ID              int    `json:"id" example:"55"`
	Nombre          string `json:"nombre" example:"Cable RZ1-K 3x2.5"`
	NombreProveedor string `json:"nombre_proveedor,omitempty" example:"Electro Suministros SL"`
}

// ProductoCreateRequest creates a product
type ProductoCreateRequest struct {
	Nombre          string `json:"nombre" binding:"required" example:"Cable RZ1-K 3x2.5"`
	NombreProveedor string `json:"nombre_proveedor" example:"Electro Suministros SL"`
	CodigoERP       string `json:"codigo_erp" example:"BEL-10442"`
}

// ProductoResponse wraps a single product
type ProductoResponse struct {
	Success bool      `json:"success" example:"true"`
	Message string    `json:"message" example:"Success"`
	Data    *Producto `json:"data,omitempty"`
	Error   string    `json:"error,omitempty" example:""`
}

// ProductoListResponse wraps a product list
type ProductoListResponse struct {
	Success bool       `json:"success" example:"true"`
	Message string     `json:"message" example:"Success"`
	Data    []Producto `json:"data,omitempty"`
	Error   string     `json:"error,omitempty" example:""`
}

// ProductSearchItem is a hit of the cross-tender product finder: a budget or
// reference line together with the tender it came from
type ProductSearchItem struct {
	IDProducto       *int     `json:"id_producto,omitempty" example:"55"`
	Producto         string   `json:"producto" example:"Cable RZ1-K 3x2.5"`
	PVU              *float64 `json:"pvu,omitempty" example:"12.5"`
	PCU              *float64 `json:"pcu,omitempty" example:"9.8"`
	Unidades         *float64 `json:"unidades,omitempty" example:"100"`
	LicitacionNombre string   `json:"licitacion_nombre,omitempty" example:"Suministro material electrico 2024"`
	NumeroExpediente string   `json:"numero_expediente,omitempty" example:"EXP-2024-001"`
	Proveedor        string   `json:"proveedor,omitempty" example:"Electro Suministros SL"`
}
