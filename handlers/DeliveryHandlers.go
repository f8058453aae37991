package handlers

import (
	"backend/models"
	"database/sql"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CreateDeliveryHandler books a delivery document against an awarded tender
// @Summary Create delivery
// @Description Insert a delivery header plus its lines in one transaction. Lines with zero quantity and zero cost are skipped.
// @Tags Deliveries
// @Accept json
// @Produce json
// @Param request body models.DeliveryCreateRequest true "Delivery document"
// @Success 201 {object} models.DeliveryResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /deliveries [post]
func CreateDeliveryHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := RequireSession(c, db); !ok {
			return
		}

		var req models.DeliveryCreateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "details": err.Error()})
			return
		}

		estado, err := tenderEstado(db, req.IDLicitacion)
		if err != nil {
			if err == sql.ErrNoRows {
				c.JSON(http.StatusNotFound, gin.H{"error": "Tender not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch tender", "details": err.Error()})
			return
		}
		if !models.EstadoPermiteEntregas(estado) {
			c.JSON(http.StatusConflict, gin.H{"error": "Deliveries are only allowed for awarded tenders"})
			return
		}

		// Empty lines coming from the delivery grid are not an error, they
		// just carry nothing to book.
		validLines := []models.DeliveryLine{}
		for _, line := range req.Lineas {
			if line.Cantidad == 0 && line.CosteUnit == 0 {
				continue
			}
			validLines = append(validLines, line)
		}
		if len(validLines) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Delivery has no lines with quantity or cost"})
			return
		}

		tx, err := db.Begin()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start transaction", "details": err.Error()})
			return
		}
		defer tx.Rollback()

		deliveryID := uuid.New().String()
		_, err = tx.Exec(`
			INSERT INTO tbl_entregas (id_entrega, id_licitacion, fecha, codigo_albaran, observaciones, cliente)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			deliveryID, req.IDLicitacion, req.Cabecera.Fecha, req.Cabecera.CodigoAlbaran,
			req.Cabecera.Observaciones, req.Cabecera.Cliente)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create delivery header", "details": err.Error()})
			return
		}

		for _, line := range validLines {
			_, err = tx.Exec(`
				INSERT INTO tbl_licitaciones_real
					(id_entrega, id_licitacion, id_producto, id_detalle, id_tipo_gasto,
					 proveedor, cantidad, coste_unit, estado, cobrado)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 'EN ESPERA', FALSE)`,
				deliveryID, req.IDLicitacion, line.IDProducto, line.IDDetalle, line.IDTipoGasto,
				line.Proveedor, line.Cantidad, line.CosteUnit)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create delivery line", "details": err.Error()})
				return
			}
		}

		if err := tx.Commit(); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to commit delivery", "details": err.Error()})
			return
		}

		delivery, err := fetchDelivery(db, deliveryID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch created delivery", "details": err.Error()})
			return
		}

		c.JSON(http.StatusCreated, models.DeliveryResponse{
			Success: true,
			Message: "Delivery created successfully",
			Data:    delivery,
		})
	}
}

func fetchDelivery(db *sql.DB, deliveryID string) (*models.Delivery, error) {
	var d models.Delivery
	err := db.QueryRow(`
		SELECT id_entrega, id_licitacion, fecha, COALESCE(codigo_albaran, ''),
		       COALESCE(observaciones, ''), COALESCE(cliente, '')
		FROM tbl_entregas WHERE id_entrega = $1`, deliveryID).Scan(
		&d.IDEntrega, &d.IDLicitacion, &d.Fecha, &d.CodigoAlbaran, &d.Observaciones, &d.Cliente)
	if err != nil {
		return nil, err
	}

	lines, err := fetchDeliveryLines(db, deliveryID)
	if err != nil {
		return nil, err
	}
	d.Lineas = lines
	return &d, nil
}

func fetchDeliveryLines(db *sql.DB, deliveryID string) ([]models.DeliveryRealLine, error) {
	rows, err := db.Query(`
		SELECT r.id, r.id_entrega, r.id_producto, r.id_detalle, r.id_tipo_gasto,
		       COALESCE(p.nombre, ''), COALESCE(r.proveedor, ''),
		       COALESCE(r.cantidad, 0), COALESCE(r.coste_unit, 0),
		       COALESCE(r.estado, 'EN ESPERA'), COALESCE(r.cobrado, FALSE)
		FROM tbl_licitaciones_real r
		LEFT JOIN tbl_productos p ON p.id = r.id_producto
		WHERE r.id_entrega = $1
		ORDER BY r.id`, deliveryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	lines := []models.DeliveryRealLine{}
	for rows.Next() {
		var l models.DeliveryRealLine
		if err := rows.Scan(&l.ID, &l.IDEntrega, &l.IDProducto, &l.IDDetalle, &l.IDTipoGasto,
			&l.ProductNombre, &l.Proveedor, &l.Cantidad, &l.CosteUnit, &l.Estado, &l.Cobrado); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

// GetDeliveriesHandler lists the deliveries of a tender
// @Summary List deliveries
// @Description Get all delivery documents of a tender with their lines
// @Tags Deliveries
// @Produce json
// @Param id path int true "Tender ID"
// @Success 200 {object} models.DeliveryListResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /tenders/{id}/deliveries [get]
func GetDeliveriesHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := RequireSession(c, db); !ok {
			return
		}

		tenderID, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid tender ID"})
			return
		}

		rows, err := db.Query(`
			SELECT id_entrega FROM tbl_entregas
			WHERE id_licitacion = $1 ORDER BY fecha DESC, id_entrega`, tenderID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch deliveries", "details": err.Error()})
			return
		}
		ids := []string{}
		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to scan delivery", "details": err.Error()})
				return
			}
			ids = append(ids, id)
		}
		rows.Close()

		deliveries := []models.Delivery{}
		for _, id := range ids {
			d, err := fetchDelivery(db, id)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch delivery", "details": err.Error()})
				return
			}
			deliveries = append(deliveries, *d)
		}

		c.JSON(http.StatusOK, models.DeliveryListResponse{Success: true, Message: "Success", Data: deliveries})
	}
}

// UpdateDeliveryLineHandler updates the workflow fields of a booked line
// @Summary Update delivery line
// @Description Change the estado or cobrado flag of a booked delivery line
// @Tags Deliveries
// @Accept json
// @Produce json
// @Param lineId path int true "Line ID"
// @Param request body models.DeliveryLineUpdateRequest true "Fields to update"
// @Success 200 {object} models.SuccessResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /deliveries/lines/{lineId} [put]
func UpdateDeliveryLineHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := RequireSession(c, db); !ok {
			return
		}

		lineID, err := strconv.Atoi(c.Param("lineId"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid line ID"})
			return
		}

		var req models.DeliveryLineUpdateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "details": err.Error()})
			return
		}
		if req.Estado == nil && req.Cobrado == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "No fields to update"})
			return
		}

		res, err := db.Exec(`
			UPDATE tbl_licitaciones_real
			SET estado = COALESCE($1, estado), cobrado = COALESCE($2, cobrado)
			WHERE id = $3`, req.Estado, req.Cobrado, lineID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update delivery line", "details": err.Error()})
			return
		}
		if n, _ := res.RowsAffected(); n == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "Delivery line not found"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Delivery line updated successfully"})
	}
}

// DeleteDeliveryHandler removes a delivery and its lines
// @Summary Delete delivery
// @Description Delete a delivery document together with its booked lines
// @Tags Deliveries
// @Produce json
// @Param deliveryId path string true "Delivery ID"
// @Success 200 {object} models.SuccessResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /deliveries/{deliveryId} [delete]
func DeleteDeliveryHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := RequireSession(c, db); !ok {
			return
		}

		deliveryID := c.Param("deliveryId")
		if _, err := uuid.Parse(deliveryID); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid delivery ID"})
			return
		}

		tx, err := db.Begin()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start transaction", "details": err.Error()})
			return
		}
		defer tx.Rollback()

		if _, err := tx.Exec(`DELETE FROM tbl_licitaciones_real WHERE id_entrega = $1`, deliveryID); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete delivery lines", "details": err.Error()})
			return
		}

		res, err := tx.Exec(`DELETE FROM tbl_entregas WHERE id_entrega = $1`, deliveryID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete delivery", "details": err.Error()})
			return
		}
		if n, _ := res.RowsAffected(); n == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "Delivery not found"})
			return
		}

		if err := tx.Commit(); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to commit delete", "details": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Delivery deleted successfully"})
	}
}
