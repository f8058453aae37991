package models

// Swagger / API docs: common request and response models referenced by handler annotations

// ErrorResponse is used in @Failure for error responses
type ErrorResponse struct {
	Error   string `json:"error" example:"Invalid input"`
	Details string `json:"details,omitempty" example:""`
}

// LoginRequest is used in @Param for login body
type LoginRequest struct {
	Email    string `json:"email" binding:"required" example:"user@example.com"`
	Password string `json:"password" binding:"required" example:"password"`
	IP       string `json:"ip" example:"192.168.1.1"`
}

// LoginResponse is used in @Success for login
type LoginResponse struct {
	Message     string    `json:"message" example:"User successfully logged in"`
	AccessToken string    `json:"access_token" example:"eyJhbGc..."`
	Role        string    `json:"role" example:"admin_licitaciones"`
	User        LoginUser `json:"user"`
}

// LoginUser is the user object inside LoginResponse
type LoginUser struct {
	ID    int    `json:"id" example:"1"`
	Email string `json:"email" example:"user@example.com"`
}

// SuccessResponse is used in @Success for generic success
type SuccessResponse struct {
	Message string      `json:"message" example:"Success"`
	Data    interface{} `json:"data,omitempty"`
}

// MessageResponse is generic response for APIs that return only {"message": "..."}
type MessageResponse struct {
	Message string `json:"message" example:"Success"`
}

// SessionResponse is used in @Success for session endpoint (swagger)
type SessionResponse struct {
	SessionID string `json:"session_id" example:"uuid"`
	UserID    int    `json:"user_id"`
	Email     string `json:"email"`
}

// ValidateSessionResponse is used in @Success for validate session (swagger)
type ValidateSessionResponse struct {
	Valid bool   `json:"valid" example:"true"`
	Email string `json:"email,omitempty"`
}

// ImportAnalysisRow is one parsed spreadsheet row shown in the import preview
type ImportAnalysisRow struct {
	Fila          int      `json:"fila" example:"4"`
	Lote          string   `json:"lote" example:"General"`
	Descripcion   string   `json:"descripcion" example:"Cable RZ1-K 3x2.5"`
	IDProducto    *int     `json:"id_producto,omitempty" example:"55"`
	ProductNombre string   `json:"product_nombre,omitempty" example:"Cable RZ1-K 3x2.5"`
	Unidades      float64  `json:"unidades" example:"100"`
	PVU           float64  `json:"pvu" example:"12.5"`
	PCU           float64  `json:"pcu" example:"9.8"`
	PMaxU         float64  `json:"pmaxu" example:"14"`
	Avisos        []string `json:"avisos,omitempty"`
}

// ImportAnalysisResponse is the preview of an uploaded budget workbook
type ImportAnalysisResponse struct {
	Success      bool                `json:"success" example:"true"`
	Message      string              `json:"message" example:"Success"`
	TotalFilas   int                 `json:"total_filas" example:"24"`
	FilasValidas int                 `json:"filas_validas" example:"22"`
	Filas        []ImportAnalysisRow `json:"filas"`
}

// ImportCommitResponse reports how many budget lines were inserted
type ImportCommitResponse struct {
	Success    bool   `json:"success" example:"true"`
	Message    string `json:"message" example:"Budget imported successfully"`
	Insertadas int    `json:"insertadas" example:"22"`
}

// Pagination is shared by paginated list endpoints
type Pagination struct {
	CurrentPage  int  `json:"current_page"`
	PageSize     int  `json:"page_size"`
	TotalRecords int  `json:"total_records"`
	TotalPages   int  `json:"total_pages"`
	HasNext      bool `json:"has_next"`
	HasPrev      bool `json:"has_prev"`
}
