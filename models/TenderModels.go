package models

import "time"

// Tender state IDs as stored in tbl_estados. Only these six exist.
const (
	EstadoDescartada   = 2
	EstadoEnAnalisis   = 3
	EstadoPresentada   = 4
	EstadoAdjudicada   = 5
	EstadoNoAdjudicada = 6
	EstadoTerminada    = 7
)

// EstadoBloqueaEdicion reports whether economic fields and budget lines are
// frozen for a tender in the given state. Once a tender is presented the
// offered numbers are contractual and must not drift.
func EstadoBloqueaEdicion(estado int) bool {
	switch estado {
	case EstadoPresentada, EstadoAdjudicada, EstadoNoAdjudicada, EstadoTerminada:
		return true
	}
	return false
}

// EstadoPermiteEntregas reports whether deliveries can be booked against the
// tender. Only awarded tenders accept real cost imputation.
func EstadoPermiteEntregas(estado int) bool {
	return estado == EstadoAdjudicada
}

// Procedure types. ORDINARIO, ACUERDO_MARCO and SDA can be parents;
// CONTRATO_BASADO is a contract derived from a framework agreement.
const (
	ProcedimientoOrdinario      = "ORDINARIO"
	ProcedimientoAcuerdoMarco   = "ACUERDO_MARCO"
	ProcedimientoSDA            = "SDA"
	ProcedimientoContratoBasado = "CONTRATO_BASADO"
)

// Tender represents a row of tbl_licitaciones for API responses
type Tender struct {
	IDLicitacion        int       `json:"id_licitacion" example:"1"`
	Nombre              string    `json:"nombre" example:"Suministro material electrico 2024"`
	Pais                string    `json:"pais" example:"España"`
	NumeroExpediente    string    `json:"numero_expediente,omitempty" example:"EXP-2024-001"`
	IDEstado            int       `json:"id_estado" example:"3"`
	EstadoNombre        string    `json:"estado_nombre,omitempty" example:"En análisis"`
	IDTipoLicitacion    *int      `json:"id_tipolicitacion,omitempty" example:"1"`
	TipoNombre          string    `json:"tipo_nombre,omitempty" example:"Suministro"`
	PresMaximo          float64   `json:"pres_maximo" example:"120000.50"`
	ImporteAdjudicacion *float64  `json:"importe_adjudicacion,omitempty" example:"98000"`
	Descripcion         string    `json:"descripcion,omitempty" example:""`
	EnlaceGober         string    `json:"enlace_gober,omitempty" example:""`
	EnlaceSharepoint    string    `json:"enlace_sharepoint,omitempty" example:""`
	FechaPresupuesto    *string   `json:"fecha_presupuesto,omitempty" example:"2024-02-15"`
	FechaPresentacion   *string   `json:"fecha_presentacion,omitempty" example:"2024-03-01"`
	FechaAdjudicacion   *string   `json:"fecha_adjudicacion,omitempty" example:"2024-05-01"`
	FechaFin            *string   `json:"fecha_fin,omitempty" example:"2024-12-31"`
	TipoProcedimiento   string    `json:"tipo_procedimiento,omitempty" example:"ORDINARIO"`
	IDLicitacionPadre   *int      `json:"id_licitacion_padre,omitempty" example:"7"`
	DescuentoGlobal     *float64  `json:"descuento_global,omitempty" example:"0"`
	IsDelivered         bool      `json:"is_delivered" example:"false"`
	IsInvoiced          bool      `json:"is_invoiced" example:"false"`
	IsCollected         bool      `json:"is_collected" example:"false"`
	TotalPresupuesto    float64   `json:"total_presupuesto" example:"45000"`
	Partidas            []Partida `json:"partidas,omitempty"`
}

// TenderCreateRequest creates a tender. Initial state is always EN ANALISIS.
type TenderCreateRequest struct {
	Nombre            string  `json:"nombre" binding:"required" example:"Suministro material electrico 2024"`
	Pais              string  `json:"pais" binding:"required" example:"España"`
	NumeroExpediente  string  `json:"numero_expediente" example:"EXP-2024-001"`
	PresMaximo        float64 `json:"pres_maximo" example:"120000.50"`
	Descripcion       string  `json:"descripcion" example:""`
	EnlaceGober       string  `json:"enlace_gober" example:""`
	EnlaceSharepoint  string  `json:"enlace_sharepoint" example:""`
	IDTipoLicitacion  *int    `json:"id_tipolicitacion" example:"1"`
	FechaPresupuesto  string  `json:"fecha_presupuesto" example:"2024-02-15"`
	FechaPresentacion string  `json:"fecha_presentacion" example:"2024-03-01"`
	TipoProcedimiento string  `json:"tipo_procedimiento" example:"ORDINARIO"`
	IDLicitacionPadre *int    `json:"id_licitacion_padre" example:"7"`
	DescuentoGlobal   float64 `json:"descuento_global" example:"0"`
}

// TenderUpdateRequest updates a tender. All fields optional; nil means keep.
type TenderUpdateRequest struct {
	Nombre            *string  `json:"nombre,omitempty"`
	Pais              *string  `json:"pais,omitempty"`
	NumeroExpediente  *string  `json:"numero_expediente,omitempty"`
	PresMaximo        *float64 `json:"pres_maximo,omitempty"`
	Descripcion       *string  `json:"descripcion,omitempty"`
	EnlaceGober       *string  `json:"enlace_gober,omitempty"`
	EnlaceSharepoint  *string  `json:"enlace_sharepoint,omitempty"`
	IDTipoLicitacion  *int     `json:"id_tipolicitacion,omitempty"`
	FechaPresupuesto  *string  `json:"fecha_presupuesto,omitempty"`
	FechaPresentacion *string  `json:"fecha_presentacion,omitempty"`
	FechaFin          *string  `json:"fecha_fin,omitempty"`
	DescuentoGlobal   *float64 `json:"descuento_global,omitempty"`
	TipoProcedimiento *string  `json:"tipo_procedimiento,omitempty"`
	IDLicitacionPadre *int     `json:"id_licitacion_padre,omitempty"`
	IsDelivered       *bool    `json:"is_delivered,omitempty"`
	IsInvoiced        *bool    `json:"is_invoiced,omitempty"`
	IsCollected       *bool    `json:"is_collected,omitempty"`
}

// TenderStatusChangeRequest drives the state machine. Required fields depend
// on the target state; expected_estado_id guards against concurrent edits.
type TenderStatusChangeRequest struct {
	NuevoEstadoID       int      `json:"nuevo_estado_id" binding:"required" example:"4"`
	ExpectedEstadoID    *int     `json:"expected_estado_id,omitempty" example:"3"`
	MotivoDescarte      string   `json:"motivo_descarte,omitempty" example:""`
	MotivoPerdida       string   `json:"motivo_perdida,omitempty" example:""`
	CompetidorGanador   string   `json:"competidor_ganador,omitempty" example:""`
	ImporteAdjudicacion *float64 `json:"importe_adjudicacion,omitempty" example:"98000"`
	FechaAdjudicacion   string   `json:"fecha_adjudicacion,omitempty" example:"2024-05-01"`
}

// TenderResponse wraps a single tender
type TenderResponse struct {
	Success bool    `json:"success" example:"true"`
	Message string  `json:"message" example:"Success"`
	Data    *Tender `json:"data,omitempty"`
	Error   string  `json:"error,omitempty" example:""`
}

// TenderListResponse wraps a tender list
type TenderListResponse struct {
	Success bool     `json:"success" example:"true"`
	Message string   `json:"message" example:"Success"`
	Data    []Tender `json:"data,omitempty"`
	Total   int      `json:"total" example:"12"`
	Error   string   `json:"error,omitempty" example:""`
}

// Partida represents a budget line of tbl_licitaciones_detalle
type Partida struct {
	IDDetalle           int     `json:"id_detalle" example:"10"`
	IDLicitacion        int     `json:"id_licitacion" example:"1"`
	Lote                string  `json:"lote" example:"General"`
	IDProducto          *int    `json:"id_producto,omitempty" example:"55"`
	ProductNombre       string  `json:"product_nombre,omitempty" example:"Cable RZ1-K 3x2.5"`
	NombreProductoLibre string  `json:"nombre_producto_libre,omitempty" example:""`
	Unidades            float64 `json:"unidades" example:"100"`
	PVU                 float64 `json:"pvu" example:"12.5"`
	PCU                 float64 `json:"pcu" example:"9.8"`
	PMaxU               float64 `json:"pmaxu" example:"14"`
	Activo              bool    `json:"activo" example:"true"`
}

// PartidaRequest is the body for creating or updating a budget line. The
// same shape is accepted on POST and PUT; lot defaults to "General".
type PartidaRequest struct {
	Lote                string   `json:"lote" example:"General"`
	IDProducto          *int     `json:"id_producto,omitempty" example:"55"`
	NombreProductoLibre string   `json:"nombre_producto_libre,omitempty" example:""`
	Unidades            *float64 `json:"unidades,omitempty" example:"100"`
	PVU                 *float64 `json:"pvu,omitempty" example:"12.5"`
	PCU                 *float64 `json:"pcu,omitempty" example:"9.8"`
	PMaxU               *float64 `json:"pmaxu,omitempty" example:"14"`
	Activo              *bool    `json:"activo,omitempty" example:"true"`
}

// PartidaResponse wraps a single budget line
type PartidaResponse struct {
	Success bool     `json:"success" example:"true"`
	Message string   `json:"message" example:"Success"`
	Data    *Partida `json:"data,omitempty"`
	Error   string   `json:"error,omitempty" example:""`
}

// PartidaListResponse wraps a budget line list
type PartidaListResponse struct {
	Success bool      `json:"success" example:"true"`
	Message string    `json:"message" example:"Success"`
	Data    []Partida `json:"data,omitempty"`
	Error   string    `json:"error,omitempty" example:""`
}

// TenderDeadline is one upcoming presentation deadline for the reminder cron
type TenderDeadline struct {
	IDLicitacion      int       `json:"id_licitacion"`
	Nombre            string    `json:"nombre"`
	NumeroExpediente  string    `json:"numero_expediente"`
	FechaPresentacion time.Time `json:"fecha_presentacion"`
}
