package handlers

import (
	"backend/models"
	"backend/utils"
	"database/sql"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// SearchProductosHandler powers the grid product combobox
// @Summary Search products
// @Description Case-insensitive partial match on product name. Returns a bare array for the combobox.
// @Tags Products
// @Produce json
// @Param q query string true "Search text"
// @Param limit query int false "Max results (default 30)"
// @Param only_with_precios_referencia query bool false "Only products that have reference prices"
// @Success 200 {array} models.ProductoSearchResult
// @Failure 400 {object} models.ErrorResponse
// @Router /productos/search [get]
func SearchProductosHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := RequireSession(c, db); !ok {
			return
		}

		q := strings.TrimSpace(c.Query("q"))
		if q == "" {
			c.JSON(http.StatusOK, []models.ProductoSearchResult{})
			return
		}

		limit := 30
		if limitStr := c.Query("limit"); limitStr != "" {
			if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 && parsed <= 200 {
				limit = parsed
			}
		}

		query := `
			SELECT p.id, p.nombre, COALESCE(p.nombre_proveedor, '')
			FROM tbl_productos p`
		if c.Query("only_with_precios_referencia") == "true" {
			query += ` WHERE EXISTS (SELECT 1 FROM tbl_precios_referencia r WHERE r.id_producto = p.id)
				AND p.nombre ILIKE $1`
		} else {
			query += ` WHERE p.nombre ILIKE $1`
		}
		query += ` ORDER BY p.nombre LIMIT $2`

		rows, err := db.Query(query, "%"+q+"%", limit)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to search products", "details": err.Error()})
			return
		}
		defer rows.Close()

		results := []models.ProductoSearchResult{}
		for rows.Next() {
			var r models.ProductoSearchResult
			if err := rows.Scan(&r.ID, &r.Nombre, &r.NombreProveedor); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to scan product", "details": err.Error()})
				return
			}
			results = append(results, r)
		}

		c.JSON(http.StatusOK, results)
	}
}

// GetProductosHandler lists all products
// @Summary List products
// @Description Get the full product catalogue
// @Tags Products
// @Produce json
// @Success 200 {object} models.ProductoListResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /productos [get]
func GetProductosHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := RequireSession(c, db); !ok {
			return
		}

		rows, err := db.Query(`
			SELECT id, nombre, COALESCE(nombre_proveedor, ''), COALESCE(codigo_erp, '')
			FROM tbl_productos ORDER BY nombre`)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch products", "details": err.Error()})
			return
		}
		defer rows.Close()

		productos := []models.Producto{}
		for rows.Next() {
			var p models.Producto
			if err := rows.Scan(&p.ID, &p.Nombre, &p.NombreProveedor, &p.CodigoERP); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to scan product", "details": err.Error()})
				return
			}
			productos = append(productos, p)
		}

		c.JSON(http.StatusOK, models.ProductoListResponse{Success: true, Message: "Success", Data: productos})
	}
}

// CreateProductoHandler adds a product to the catalogue
// @Summary Create product
// @Description Add a product. Duplicate names are rejected.
// @Tags Products
// @Accept json
// @Produce json
// @Param request body models.ProductoCreateRequest true "Product data"
// @Success 201 {object} models.ProductoResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /productos [post]
func CreateProductoHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := RequireSession(c, db); !ok {
			return
		}

		var req models.ProductoCreateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "details": err.Error()})
			return
		}

		var exists bool
		if err := db.QueryRow(`SELECT EXISTS(SELECT 1 FROM tbl_productos WHERE LOWER(nombre) = LOWER($1))`,
			req.Nombre).Scan(&exists); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check product", "details": err.Error()})
			return
		}
		if exists {
			c.JSON(http.StatusConflict, gin.H{"error": "A product with this name already exists"})
			return
		}

		var newID int
		err := db.QueryRow(`
			INSERT INTO tbl_productos (nombre, nombre_proveedor, codigo_erp)
			VALUES ($1, $2, $3) RETURNING id`,
			req.Nombre, req.NombreProveedor, req.CodigoERP).Scan(&newID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create product", "details": err.Error()})
			return
		}

		c.JSON(http.StatusCreated, models.ProductoResponse{
			Success: true,
			Message: "Product created successfully",
			Data: &models.Producto{
				ID:              newID,
				Nombre:          req.Nombre,
				NombreProveedor: req.NombreProveedor,
				CodigoERP:       req.CodigoERP,
			},
		})
	}
}

// SearchProductUsageHandler finds where a product appears across tenders
// @Summary Cross-tender product search
// @Description Find budget and reference lines matching a product name across all tenders
// @Tags Products
// @Produce json
// @Param q query string true "Search text"
// @Success 200 {array} models.ProductSearchItem
// @Failure 400 {object} models.ErrorResponse
// @Router /search/products [get]
func SearchProductUsageHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := RequireSession(c, db); !ok {
			return
		}

		q := strings.TrimSpace(c.Query("q"))
		if q == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "q parameter is required"})
			return
		}

		ctx, cancel := utils.GetSlowQueryContext(c.Request.Context())
		defer cancel()

		rows, err := db.QueryContext(ctx, `
			SELECT d.id_producto,
			       COALESCE(p.nombre, COALESCE(d.nombre_producto_libre, '')),
			       d.pvu, d.pcu, d.unidades,
			       l.nombre, COALESCE(l.numero_expediente, ''),
			       COALESCE(p.nombre_proveedor, '')
			FROM tbl_licitaciones_detalle d
			JOIN tbl_licitaciones l ON l.id_licitacion = d.id_licitacion
			LEFT JOIN tbl_productos p ON p.id = d.id_producto
			WHERE d.activo = TRUE
			  AND (p.nombre ILIKE $1 OR d.nombre_producto_libre ILIKE $1)

			UNION ALL

			SELECT r.id_producto, p.nombre, r.pvu, NULL, NULL,
			       '', '', COALESCE(r.proveedor, COALESCE(p.nombre_proveedor, ''))
			FROM tbl_precios_referencia r
			JOIN tbl_productos p ON p.id = r.id_producto
			WHERE p.nombre ILIKE $1
			LIMIT 200`, "%"+q+"%")
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to search product usage", "details": err.Error()})
			return
		}
		defer rows.Close()

		items := []models.ProductSearchItem{}
		for rows.Next() {
			var it models.ProductSearchItem
			if err := rows.Scan(&it.IDProducto, &it.Producto, &it.PVU, &it.PCU, &it.Unidades,
				&it.LicitacionNombre, &it.NumeroExpediente, &it.Proveedor); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to scan result", "details": err.Error()})
				return
			}
			items = append(items, it)
		}

		c.JSON(http.StatusOK, items)
	}
}
