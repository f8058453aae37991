package models

import "time"

// GORM-compatible models with proper tags, used for migration and the
// tender repository

// TenderGorm represents the tbl_licitaciones table with GORM tags
type TenderGorm struct {
	IDLicitacion        int        `gorm:"primaryKey;column:id_licitacion" json:"id_licitacion"`
	Nombre              string     `gorm:"column:nombre;not null" json:"nombre"`
	Pais                string     `gorm:"column:pais;type:varchar(20);not null" json:"pais"`
	NumeroExpediente    string     `gorm:"column:numero_expediente" json:"numero_expediente"`
	IDEstado            int        `gorm:"column:id_estado;not null;default:3" json:"id_estado"`
	IDTipoLicitacion    *int       `gorm:"column:id_tipolicitacion" json:"id_tipolicitacion"`
	PresMaximo          float64    `gorm:"column:pres_maximo;type:numeric(14,2);default:0" json:"pres_maximo"`
	ImporteAdjudicacion *float64   `gorm:"column:importe_adjudicacion;type:numeric(14,2)" json:"importe_adjudicacion"`
	Descripcion         string     `gorm:"column:descripcion" json:"descripcion"`
	EnlaceGober         string     `gorm:"column:enlace_gober" json:"enlace_gober"`
	EnlaceSharepoint    string     `gorm:"column:enlace_sharepoint" json:"enlace_sharepoint"`
	FechaPresupuesto    *time.Time `gorm:"column:fecha_presupuesto;type:date" json:"fecha_presupuesto"`
	FechaPresentacion   *time.Time `gorm:"column:fecha_presentacion;type:date" json:"fecha_presentacion"`
	FechaAdjudicacion   *time.Time `gorm:"column:fecha_adjudicacion;type:date" json:"fecha_adjudicacion"`
	FechaFin            *time.Time `gorm:"column:fecha_fin;type:date" json:"fecha_fin"`
	TipoProcedimiento   string     `gorm:"column:tipo_procedimiento;type:varchar(20);default:'ORDINARIO'" json:"tipo_procedimiento"`
	IDLicitacionPadre   *int       `gorm:"column:id_licitacion_padre" json:"id_licitacion_padre"`
	DescuentoGlobal     *float64   `gorm:"column:descuento_global;type:numeric(6,2)" json:"descuento_global"`
	MotivoDescarte      string     `gorm:"column:motivo_descarte" json:"motivo_descarte"`
	MotivoPerdida       string     `gorm:"column:motivo_perdida" json:"motivo_perdida"`
	CompetidorGanador   string     `gorm:"column:competidor_ganador" json:"competidor_ganador"`
	IsDelivered         bool       `gorm:"column:is_delivered;default:false" json:"is_delivered"`
	IsInvoiced          bool       `gorm:"column:is_invoiced;default:false" json:"is_invoiced"`
	IsCollected         bool       `gorm:"column:is_collected;default:false" json:"is_collected"`
	CreatedAt           time.Time  `gorm:"column:created_at" json:"created_at"`
	UpdatedAt           time.Time  `gorm:"column:updated_at" json:"updated_at"`
}

// TableName specifies the table name for TenderGorm
func (TenderGorm) TableName() string {
	return "tbl_licitaciones"
}

// PartidaGorm represents the tbl_licitaciones_detalle table with GORM tags
type PartidaGorm struct {
	IDDetalle           int     `gorm:"primaryKey;column:id_detalle" json:"id_detalle"`
	IDLicitacion        int     `gorm:"column:id_licitacion;not null;index" json:"id_licitacion"`
	Lote                string  `gorm:"column:lote;default:'General'" json:"lote"`
	IDProducto          *int    `gorm:"column:id_producto" json:"id_producto"`
	NombreProductoLibre string  `gorm:"column:nombre_producto_libre" json:"nombre_producto_libre"`
	Unidades            float64 `gorm:"column:unidades;type:numeric(12,2);default:0" json:"unidades"`
	PVU                 float64 `gorm:"column:pvu;type:numeric(12,4);default:0" json:"pvu"`
	PCU                 float64 `gorm:"column:pcu;type:numeric(12,4);default:0" json:"pcu"`
	PMaxU               float64 `gorm:"column:pmaxu;type:numeric(12,4);default:0" json:"pmaxu"`
	Activo              bool    `gorm:"column:activo;default:true" json:"activo"`
}

// TableName specifies the table name for PartidaGorm
func (PartidaGorm) TableName() string {
	return "tbl_licitaciones_detalle"
}

// ProductoGorm represents the tbl_productos table with GORM tags
type ProductoGorm struct {
	ID              int    `gorm:"primaryKey;column:id" json:"id"`
	Nombre          string `gorm:"column:nombre;not null;index" json:"nombre"`
	NombreProveedor string `gorm:"column:nombre_proveedor" json:"nombre_proveedor"`
	CodigoERP       string `gorm:"column:codigo_erp" json:"codigo_erp"`
}

// TableName specifies the table name for ProductoGorm
func (ProductoGorm) TableName() string {
	return "tbl_productos"
}

// EstadoGorm represents the tbl_estados lookup table with GORM tags
type EstadoGorm struct {
	IDEstado int    `gorm:"primaryKey;column:id_estado" json:"id_estado"`
	Nombre   string `gorm:"column:nombre;not null" json:"nombre"`
}

// TableName specifies the table name for EstadoGorm
func (EstadoGorm) TableName() string {
	return "tbl_estados"
}

// TipoLicitacionGorm represents the tbl_tipolicitacion lookup table with GORM tags
type TipoLicitacionGorm struct {
	ID     int    `gorm:"primaryKey;column:id" json:"id"`
	Nombre string `gorm:"column:nombre;not null" json:"nombre"`
}

// TableName specifies the table name for TipoLicitacionGorm
func (TipoLicitacionGorm) TableName() string {
	return "tbl_tipolicitacion"
}

// DeliveryGorm represents the tbl_entregas table with GORM tags
type DeliveryGorm struct {
	IDEntrega     string    `gorm:"primaryKey;column:id_entrega;type:uuid" json:"id_entrega"`
	IDLicitacion  int       `gorm:"column:id_licitacion;not null;index" json:"id_licitacion"`
	Fecha         time.Time `gorm:"column:fecha;type:date;not null" json:"fecha"`
	CodigoAlbaran string    `gorm:"column:codigo_albaran;not null" json:"codigo_albaran"`
	Observaciones string    `gorm:"column:observaciones" json:"observaciones"`
	Cliente       string    `gorm:"column:cliente" json:"cliente"`
	CreatedAt     time.Time `gorm:"column:created_at" json:"created_at"`
}

// TableName specifies the table name for DeliveryGorm
func (DeliveryGorm) TableName() string {
	return "tbl_entregas"
}

// DeliveryLineGorm represents the tbl_licitaciones_real table with GORM tags
type DeliveryLineGorm struct {
	ID           int     `gorm:"primaryKey;column:id" json:"id"`
	IDEntrega    string  `gorm:"column:id_entrega;type:uuid;index" json:"id_entrega"`
	IDLicitacion int     `gorm:"column:id_licitacion;not null;index" json:"id_licitacion"`
	IDProducto   *int    `gorm:"column:id_producto" json:"id_producto"`
	IDDetalle    *int    `gorm:"column:id_detalle" json:"id_detalle"`
	IDTipoGasto  *int    `gorm:"column:id_tipo_gasto" json:"id_tipo_gasto"`
	Proveedor    string  `gorm:"column:proveedor" json:"proveedor"`
	Cantidad     float64 `gorm:"column:cantidad;type:numeric(12,2);default:0" json:"cantidad"`
	CosteUnit    float64 `gorm:"column:coste_unit;type:numeric(12,4);default:0" json:"coste_unit"`
	Estado       string  `gorm:"column:estado;default:'EN ESPERA'" json:"estado"`
	Cobrado      bool    `gorm:"column:cobrado;default:false" json:"cobrado"`
}

// TableName specifies the table name for DeliveryLineGorm
func (DeliveryLineGorm) TableName() string {
	return "tbl_licitaciones_real"
}

// PrecioReferenciaGorm represents the tbl_precios_referencia table with GORM tags
type PrecioReferenciaGorm struct {
	ID               string     `gorm:"primaryKey;column:id;type:uuid" json:"id"`
	IDProducto       int        `gorm:"column:id_producto;not null;index" json:"id_producto"`
	PVU              *float64   `gorm:"column:pvu;type:numeric(12,4)" json:"pvu"`
	PCU              *float64   `gorm:"column:pcu;type:numeric(12,4)" json:"pcu"`
	Unidades         *float64   `gorm:"column:unidades;type:numeric(12,2)" json:"unidades"`
	Proveedor        string     `gorm:"column:proveedor" json:"proveedor"`
	Notas            string     `gorm:"column:notas" json:"notas"`
	FechaPresupuesto *time.Time `gorm:"column:fecha_presupuesto;type:date" json:"fecha_presupuesto"`
	CreatedAt        time.Time  `gorm:"column:created_at" json:"created_at"`
}

// TableName specifies the table name for PrecioReferenciaGorm
func (PrecioReferenciaGorm) TableName() string {
	return "tbl_precios_referencia"
}

// ProjectExpenseGorm represents the tbl_gastos_proyecto table with GORM tags
type ProjectExpenseGorm struct {
	ID             string    `gorm:"primaryKey;column:id;type:uuid" json:"id"`
	IDLicitacion   int       `gorm:"column:id_licitacion;not null;index" json:"id_licitacion"`
	IDUsuario      int       `gorm:"column:id_usuario;not null" json:"id_usuario"`
	TipoGasto      string    `gorm:"column:tipo_gasto;not null" json:"tipo_gasto"`
	Importe        float64   `gorm:"column:importe;type:numeric(12,2);not null" json:"importe"`
	Fecha          time.Time `gorm:"column:fecha;type:date;not null" json:"fecha"`
	Descripcion    string    `gorm:"column:descripcion" json:"descripcion"`
	URLComprobante string    `gorm:"column:url_comprobante;not null" json:"url_comprobante"`
	Estado         string    `gorm:"column:estado;default:'PENDIENTE'" json:"estado"`
	CreatedAt      time.Time `gorm:"column:created_at" json:"created_at"`
}

// TableName specifies the table name for ProjectExpenseGorm
func (ProjectExpenseGorm) TableName() string {
	return "tbl_gastos_proyecto"
}

// UserGorm represents the users table with GORM tags
type UserGorm struct {
	ID          int        `gorm:"primaryKey;column:id" json:"id"`
	Email       string     `gorm:"column:email;uniqueIndex;not null" json:"email"`
	Password    string     `gorm:"column:password;not null" json:"-"`
	FullName    string     `gorm:"column:full_name" json:"full_name"`
	RoleName    string     `gorm:"column:role_name;default:'member_licitaciones'" json:"role_name"`
	Suspended   bool       `gorm:"column:suspended;default:false" json:"suspended"`
	FirstAccess *time.Time `gorm:"column:first_access" json:"first_access"`
	LastAccess  *time.Time `gorm:"column:last_access" json:"last_access"`
	CreatedAt   time.Time  `gorm:"column:created_at" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"column:updated_at" json:"updated_at"`
}

// TableName specifies the table name for UserGorm
func (UserGorm) TableName() string {
	return "users"
}

// SessionGorm represents the session table with GORM tags
type SessionGorm struct {
	SessionID             string     `gorm:"primaryKey;column:session_id" json:"session_id"`
	UserID                int        `gorm:"column:user_id;not null;index" json:"user_id"`
	HostName              string     `gorm:"column:host_name" json:"host_name"`
	IPAddress             string     `gorm:"column:ip_address" json:"ip_address"`
	Timestamp             time.Time  `gorm:"column:timestp" json:"timestp"`
	ExpiresAt             time.Time  `gorm:"column:expires_at" json:"expires_at"`
	RefreshToken          *string    `gorm:"column:refresh_token" json:"-"`
	RefreshTokenExpiresAt *time.Time `gorm:"column:refresh_token_expires_at" json:"-"`
}

// TableName specifies the table name for SessionGorm
func (SessionGorm) TableName() string {
	return "session"
}
