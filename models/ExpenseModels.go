package models

// Expense approval states
const (
	GastoPendiente = "PENDIENTE"
	GastoAprobado  = "APROBADO"
	GastoRechazado = "RECHAZADO"
)

// Allowed extraordinary expense types
var TiposGasto = []string{
	"COMBUSTIBLE",
	"HOTEL",
	"ALOJAMIENTO",
	"TRANSPORTE",
	"DIETAS",
	"SUMINISTROS",
	"OTROS",
}

// TipoGastoValido reports whether s is one of the allowed expense types
func TipoGastoValido(s string) bool {
	for _, t := range TiposGasto {
		if t == s {
			return true
		}
	}
	return false
}

// ProjectExpense is a row of tbl_gastos_proyecto
type ProjectExpense struct {
	ID             string  `json:"id" example:"4f2a1c7e-9b11-4d20-8f3a-2e6c0d5b7a90"`
	IDLicitacion   int     `json:"id_licitacion" example:"1"`
	IDUsuario      int     `json:"id_usuario" example:"3"`
	TipoGasto      string  `json:"tipo_gasto" example:"COMBUSTIBLE"`
	Importe        float64 `json:"importe" example:"86.40"`
	Fecha          string  `json:"fecha" example:"2024-06-10"`
	Descripcion    string  `json:"descripcion" example:"Desplazamiento a obra"`
	URLComprobante string  `json:"url_comprobante" example:"https://storage.example.com/tickets/abc.pdf"`
	Estado         string  `json:"estado" example:"PENDIENTE"`
	CreatedAt      string  `json:"created_at" example:"2024-06-10T09:30:00Z"`
}

// ProjectExpenseCreateRequest creates an expense; state always starts PENDIENTE
type ProjectExpenseCreateRequest struct {
	IDLicitacion   int     `json:"id_licitacion" binding:"required" example:"1"`
	TipoGasto      string  `json:"tipo_gasto" binding:"required" example:"COMBUSTIBLE"`
	Importe        float64 `json:"importe" binding:"required" example:"86.40"`
	Fecha          string  `json:"fecha" binding:"required" example:"2024-06-10"`
	Descripcion    string  `json:"descripcion" example:"Desplazamiento a obra"`
	URLComprobante string  `json:"url_comprobante" binding:"required" example:"https://storage.example.com/tickets/abc.pdf"`
}

// ProjectExpenseUpdateRequest approves, rejects or corrects an expense
type ProjectExpenseUpdateRequest struct {
	Estado  *string  `json:"estado,omitempty" example:"APROBADO"`
	Importe *float64 `json:"importe,omitempty" example:"86.40"`
}

// ProjectExpenseResponse wraps a single expense
type ProjectExpenseResponse struct {
	Success bool            `json:"success" example:"true"`
	Message string          `json:"message" example:"Success"`
	Data    *ProjectExpense `json:"data,omitempty"`
	Error   string          `json:"error,omitempty" example:""`
}

// ProjectExpenseListResponse wraps an expense list
type ProjectExpenseListResponse struct {
	Success bool             `json:"success" example:"true"`
	Message string           `json:"message" example:"Success"`
	Data    []ProjectExpense `json:"data,omitempty"`
	Error   string           `json:"error,omitempty" example:""`
}
