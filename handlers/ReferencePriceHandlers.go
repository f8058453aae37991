package handlers

import (
	"backend/models"
	"database/sql"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// GetPreciosReferenciaHandler lists reference prices
// @Summary List reference prices
// @Description Get reference price lines, optionally filtered by product
// @Tags ReferencePrices
// @Produce json
// @Param id_producto query int false "Filter by product"
// @Success 200 {object} models.PrecioReferenciaListResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /precios-referencia [get]
func GetPreciosReferenciaHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := RequireSession(c, db); !ok {
			return
		}

		query := `
			SELECT r.id, r.id_producto, COALESCE(p.nombre, ''),
			       r.pvu, r.pcu, r.unidades,
			       COALESCE(r.proveedor, ''), COALESCE(r.notas, ''), r.fecha_presupuesto
			FROM tbl_precios_referencia r
			LEFT JOIN tbl_productos p ON p.id = r.id_producto`
		args := []interface{}{}

		if idStr := c.Query("id_producto"); idStr != "" {
			productID, err := strconv.Atoi(idStr)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid id_producto filter"})
				return
			}
			query += " WHERE r.id_producto = $1"
			args = append(args, productID)
		}
		query += " ORDER BY r.fecha_presupuesto DESC NULLS LAST"

		rows, err := db.Query(query, args...)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch reference prices", "details": err.Error()})
			return
		}
		defer rows.Close()

		precios := []models.PrecioReferencia{}
		for rows.Next() {
			var pr models.PrecioReferencia
			if err := rows.Scan(&pr.ID, &pr.IDProducto, &pr.ProductNombre,
				&pr.PVU, &pr.PCU, &pr.Unidades,
				&pr.Proveedor, &pr.Notas, &pr.FechaPresupuesto); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to scan reference price", "details": err.Error()})
				return
			}
			precios = append(precios, pr)
		}

		c.JSON(http.StatusOK, models.PrecioReferenciaListResponse{Success: true, Message: "Success", Data: precios})
	}
}

// CreatePrecioReferenciaHandler adds a reference price line
// @Summary Create reference price
// @Description Add a priced quote line outside any tender
// @Tags ReferencePrices
// @Accept json
// @Produce json
// @Param request body models.PrecioReferenciaRequest true "Reference price"
// @Success 201 {object} models.PrecioReferenciaResponse
// @Failure 400 {object} models.ErrorResponse
// @Router /precios-referencia [post]
func CreatePrecioReferenciaHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := RequireSession(c, db); !ok {
			return
		}

		var req models.PrecioReferenciaRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "details": err.Error()})
			return
		}

		var exists bool
		if err := db.QueryRow(`SELECT EXISTS(SELECT 1 FROM tbl_productos WHERE id = $1)`, req.IDProducto).Scan(&exists); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check product", "details": err.Error()})
			return
		}
		if !exists {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Product does not exist"})
			return
		}

		newID := uuid.New().String()
		_, err := db.Exec(`
			INSERT INTO tbl_precios_referencia
				(id, id_producto, pvu, pcu, unidades, proveedor, notas, fecha_presupuesto)
			VALUES ($1, $2, $3, $4, $5, $6, $7, COALESCE($8::date, NOW()::date))`,
			newID, req.IDProducto, req.PVU, req.PCU, req.Unidades,
			req.Proveedor, req.Notas, req.FechaPresupuesto)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create reference price", "details": err.Error()})
			return
		}

		pvu := req.PVU
		c.JSON(http.StatusCreated, models.PrecioReferenciaResponse{
			Success: true,
			Message: "Reference price created successfully",
			Data: &models.PrecioReferencia{
				ID:               newID,
				IDProducto:       req.IDProducto,
				PVU:              pvu,
				PCU:              req.PCU,
				Unidades:         req.Unidades,
				Proveedor:        req.Proveedor,
				Notas:            req.Notas,
				FechaPresupuesto: req.FechaPresupuesto,
			},
		})
	}
}

// UpdatePrecioReferenciaHandler replaces a reference price line
// @Summary Update reference price
// @Description Update a reference price line by its id
// @Tags ReferencePrices
// @Accept json
// @Produce json
// @Param id path string true "Reference price ID"
// @Param request body models.PrecioReferenciaRequest true "Reference price"
// @Success 200 {object} models.SuccessResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /precios-referencia/{id} [put]
func UpdatePrecioReferenciaHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := RequireSession(c, db); !ok {
			return
		}

		id := c.Param("id")
		if _, err := uuid.Parse(id); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid reference price ID"})
			return
		}

		var req models.PrecioReferenciaRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "details": err.Error()})
			return
		}

		res, err := db.Exec(`
			UPDATE tbl_precios_referencia
			SET id_producto = $1, pvu = $2, pcu = $3, unidades = $4,
			    proveedor = $5, notas = $6, fecha_presupuesto = $7
			WHERE id = $8`,
			req.IDProducto, req.PVU, req.PCU, req.Unidades,
			req.Proveedor, req.Notas, req.FechaPresupuesto, id)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update reference price", "details": err.Error()})
			return
		}
		if n, _ := res.RowsAffected(); n == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "Reference price not found"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Reference price updated successfully"})
	}
}

// DeletePrecioReferenciaHandler removes a reference price line
// @Summary Delete reference price
// @Description Delete a reference price line by its id
// @Tags ReferencePrices
// @Produce json
// @Param id path string true "Reference price ID"
// @Success 200 {object} models.SuccessResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /precios-referencia/{id} [delete]
func DeletePrecioReferenciaHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := RequireSession(c, db); !ok {
			return
		}

		id := c.Param("id")
		if _, err := uuid.Parse(id); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid reference price ID"})
			return
		}

		res, err := db.Exec(`DELETE FROM tbl_precios_referencia WHERE id = $1`, id)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete reference price", "details": err.Error()})
			return
		}
		if n, _ := res.RowsAffected(); n == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "Reference price not found"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Reference price deleted successfully"})
	}
}
