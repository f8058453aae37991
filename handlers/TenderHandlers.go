package handlers

import (
	"backend/models"
	"backend/utils"
	"database/sql"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/lib/pq"
)

// validateStatusChange checks the business rules for moving a tender into a
// new estado. budgetTotal is the sum of unidades*pvu over active partidas.
// Returns an empty string when the transition is allowed.
func validateStatusChange(req models.TenderStatusChangeRequest, budgetTotal float64) string {
	switch req.NuevoEstadoID {
	case models.EstadoDescartada:
		if strings.TrimSpace(req.MotivoDescarte) == "" {
			return "motivo_descarte es obligatorio para descartar una licitación"
		}
	case models.EstadoPresentada:
		if budgetTotal <= 0 {
			return "no se puede presentar una licitación sin partidas presupuestadas"
		}
	case models.EstadoAdjudicada:
		if req.ImporteAdjudicacion == nil || *req.ImporteAdjudicacion <= 0 {
			return "importe_adjudicacion debe ser mayor que 0 para adjudicar"
		}
	case models.EstadoNoAdjudicada:
		if strings.TrimSpace(req.MotivoPerdida) == "" {
			return "motivo_perdida es obligatorio cuando la licitación no se adjudica"
		}
		if strings.TrimSpace(req.CompetidorGanador) == "" {
			return "competidor_ganador es obligatorio cuando la licitación no se adjudica"
		}
	case models.EstadoEnAnalisis, models.EstadoTerminada:
		// no extra requirements
	default:
		return fmt.Sprintf("estado %d no reconocido", req.NuevoEstadoID)
	}
	return ""
}

// tenderBudgetTotal sums unidades*pvu over the active partidas of a tender.
func tenderBudgetTotal(db *sql.DB, tenderID int) (float64, error) {
	var total float64
	err := db.QueryRow(`
		SELECT COALESCE(SUM(unidades * pvu), 0)
		FROM tbl_licitaciones_detalle
		WHERE id_licitacion = $1 AND activo = TRUE`, tenderID).Scan(&total)
	return total, err
}

// tenderEstado returns the current estado of a tender, or sql.ErrNoRows.
func tenderEstado(db *sql.DB, tenderID int) (int, error) {
	var estado int
	err := db.QueryRow(`SELECT id_estado FROM tbl_licitaciones WHERE id_licitacion = $1`, tenderID).Scan(&estado)
	return estado, err
}

// GetTendersHandler lists tenders with optional filters
// @Summary List tenders
// @Description Get all tenders with optional estado, nombre and pais filters
// @Tags Tenders
// @Produce json
// @Param estado query int false "Filter by estado id"
// @Param nombre query string false "Filter by name (partial match)"
// @Param pais query string false "Filter by country"
// @Success 200 {object} models.TenderListResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /tenders [get]
func GetTendersHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := RequireSession(c, db); !ok {
			return
		}

		query := `
			SELECT l.id_licitacion, l.nombre, l.pais, COALESCE(l.numero_expediente, ''),
			       l.id_estado, COALESCE(e.nombre, ''), l.id_tipolicitacion,
			       COALESCE(l.pres_maximo, 0), l.importe_adjudicacion,
			       COALESCE(l.descripcion, ''), COALESCE(l.enlace_gober, ''), COALESCE(l.enlace_sharepoint, ''),
			       l.fecha_presupuesto, l.fecha_presentacion, l.fecha_adjudicacion, l.fecha_fin,
			       COALESCE(l.tipo_procedimiento, ''), l.id_licitacion_padre, COALESCE(l.descuento_global, 0),
			       l.is_delivered, l.is_invoiced, l.is_collected,
			       COALESCE(d.total, 0)
			FROM tbl_licitaciones l
			LEFT JOIN tbl_estados e ON e.id_estado = l.id_estado
			LEFT JOIN (
				SELECT id_licitacion, SUM(unidades * pvu) AS total
				FROM tbl_licitaciones_detalle
				WHERE activo = TRUE
				GROUP BY id_licitacion
			) d ON d.id_licitacion = l.id_licitacion
			WHERE 1=1`

		args := []interface{}{}
		argPos := 1

		if estadoStr := c.Query("estado"); estadoStr != "" {
			estado, err := strconv.Atoi(estadoStr)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid estado filter"})
				return
			}
			query += fmt.Sprintf(" AND l.id_estado = $%d", argPos)
			args = append(args, estado)
			argPos++
		}
		if nombre := c.Query("nombre"); nombre != "" {
			query += fmt.Sprintf(" AND l.nombre ILIKE $%d", argPos)
			args = append(args, "%"+nombre+"%")
			argPos++
		}
		if pais := c.Query("pais"); pais != "" {
			query += fmt.Sprintf(" AND l.pais = $%d", argPos)
			args = append(args, pais)
			argPos++
		}

		query += " ORDER BY l.fecha_presentacion DESC NULLS LAST, l.id_licitacion DESC"

		ctx, cancel := utils.GetDefaultQueryContext(c.Request.Context())
		defer cancel()

		rows, err := db.QueryContext(ctx, query, args...)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch tenders", "details": err.Error()})
			return
		}
		defer rows.Close()

		tenders := []models.Tender{}
		for rows.Next() {
			var t models.Tender
			err := rows.Scan(
				&t.IDLicitacion, &t.Nombre, &t.Pais, &t.NumeroExpediente,
				&t.IDEstado, &t.EstadoNombre, &t.IDTipoLicitacion,
				&t.PresMaximo, &t.ImporteAdjudicacion,
				&t.Descripcion, &t.EnlaceGober, &t.EnlaceSharepoint,
				&t.FechaPresupuesto, &t.FechaPresentacion, &t.FechaAdjudicacion, &t.FechaFin,
				&t.TipoProcedimiento, &t.IDLicitacionPadre, &t.DescuentoGlobal,
				&t.IsDelivered, &t.IsInvoiced, &t.IsCollected,
				&t.TotalPresupuesto,
			)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to scan tender", "details": err.Error()})
				return
			}
			tenders = append(tenders, t)
		}

		c.JSON(http.StatusOK, models.TenderListResponse{
			Success: true,
			Data:    tenders,
			Total:   len(tenders),
		})
	}
}

// GetTenderHandler returns a single tender with its partidas
// @Summary Get tender by ID
// @Description Get a tender with its budget lines and computed total
// @Tags Tenders
// @Produce json
// @Param id path int true "Tender ID"
// @Success 200 {object} models.TenderResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /tenders/{id} [get]
func GetTenderHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := RequireSession(c, db); !ok {
			return
		}

		tenderID, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid tender ID"})
			return
		}

		var t models.Tender
		err = db.QueryRow(`
			SELECT l.id_licitacion, l.nombre, l.pais, COALESCE(l.numero_expediente, ''),
			       l.id_estado, COALESCE(e.nombre, ''), l.id_tipolicitacion,
			       COALESCE(l.pres_maximo, 0), l.importe_adjudicacion,
			       COALESCE(l.descripcion, ''), COALESCE(l.enlace_gober, ''), COALESCE(l.enlace_sharepoint, ''),
			       l.fecha_presupuesto, l.fecha_presentacion, l.fecha_adjudicacion, l.fecha_fin,
			       COALESCE(l.tipo_procedimiento, ''), l.id_licitacion_padre, COALESCE(l.descuento_global, 0),
			       l.is_delivered, l.is_invoiced, l.is_collected
			FROM tbl_licitaciones l
			LEFT JOIN tbl_estados e ON e.id_estado = l.id_estado
			WHERE l.id_licitacion = $1`, tenderID).Scan(
			&t.IDLicitacion, &t.Nombre, &t.Pais, &t.NumeroExpediente,
			&t.IDEstado, &t.EstadoNombre, &t.IDTipoLicitacion,
			&t.PresMaximo, &t.ImporteAdjudicacion,
			&t.Descripcion, &t.EnlaceGober, &t.EnlaceSharepoint,
			&t.FechaPresupuesto, &t.FechaPresentacion, &t.FechaAdjudicacion, &t.FechaFin,
			&t.TipoProcedimiento, &t.IDLicitacionPadre, &t.DescuentoGlobal,
			&t.IsDelivered, &t.IsInvoiced, &t.IsCollected,
		)
		if err != nil {
			if err == sql.ErrNoRows {
				c.JSON(http.StatusNotFound, gin.H{"error": "Tender not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch tender", "details": err.Error()})
			return
		}

		partidas, err := fetchPartidas(db, tenderID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch partidas", "details": err.Error()})
			return
		}
		t.Partidas = partidas
		for _, p := range partidas {
			if p.Activo {
				t.TotalPresupuesto += p.Unidades * p.PVU
			}
		}

		c.JSON(http.StatusOK, models.TenderResponse{Success: true, Data: &t})
	}
}

// CreateTenderHandler creates a new tender in estado EN_ANALISIS
// @Summary Create tender
// @Description Create a new tender. The initial estado is always "En análisis".
// @Tags Tenders
// @Accept json
// @Produce json
// @Param request body models.TenderCreateRequest true "Tender data"
// @Success 201 {object} models.TenderResponse
// @Failure 400 {object} models.ErrorResponse
// @Router /tenders [post]
func CreateTenderHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := RequireSession(c, db); !ok {
			return
		}

		var req models.TenderCreateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "details": err.Error()})
			return
		}

		if req.TipoProcedimiento == "" {
			req.TipoProcedimiento = models.ProcedimientoOrdinario
		}

		var newID int
		err := db.QueryRow(`
			INSERT INTO tbl_licitaciones
				(nombre, pais, numero_expediente, id_estado, id_tipolicitacion, pres_maximo,
				 descripcion, enlace_gober, enlace_sharepoint, fecha_presupuesto, fecha_presentacion,
				 tipo_procedimiento, id_licitacion_padre, descuento_global)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
			RETURNING id_licitacion`,
			req.Nombre, req.Pais, req.NumeroExpediente, models.EstadoEnAnalisis, req.IDTipoLicitacion,
			req.PresMaximo, req.Descripcion, req.EnlaceGober, req.EnlaceSharepoint,
			nullIfEmpty(req.FechaPresupuesto), nullIfEmpty(req.FechaPresentacion),
			req.TipoProcedimiento, req.IDLicitacionPadre, req.DescuentoGlobal,
		).Scan(&newID)
		if err != nil {
			if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
				c.JSON(http.StatusConflict, gin.H{"error": "A tender with this expediente already exists"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create tender", "details": err.Error()})
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"success": true,
			"message": "Tender created successfully",
			"data":    gin.H{"id_licitacion": newID, "id_estado": models.EstadoEnAnalisis},
		})
	}
}

// UpdateTenderHandler updates tender metadata
// @Summary Update tender
// @Description Update tender fields. Economic fields are frozen once the tender has been presented.
// @Tags Tenders
// @Accept json
// @Produce json
// @Param id path int true "Tender ID"
// @Param request body models.TenderUpdateRequest true "Fields to update"
// @Success 200 {object} models.SuccessResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /tenders/{id} [put]
func UpdateTenderHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := RequireSession(c, db); !ok {
			return
		}

		tenderID, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid tender ID"})
			return
		}

		var req models.TenderUpdateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "details": err.Error()})
			return
		}

		estado, err := tenderEstado(db, tenderID)
		if err != nil {
			if err == sql.ErrNoRows {
				c.JSON(http.StatusNotFound, gin.H{"error": "Tender not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch tender", "details": err.Error()})
			return
		}

		// Economic fields cannot change once the tender has been presented.
		if models.EstadoBloqueaEdicion(estado) {
			if req.PresMaximo != nil || req.DescuentoGlobal != nil {
				c.JSON(http.StatusConflict, gin.H{"error": "Tender is locked for edition", "details": "economic fields cannot be modified after presentation"})
				return
			}
		}

		setClauses := []string{}
		args := []interface{}{}
		argPos := 1

		addSet := func(column string, value interface{}) {
			setClauses = append(setClauses, fmt.Sprintf("%s = $%d", column, argPos))
			args = append(args, value)
			argPos++
		}

		if req.Nombre != nil {
			addSet("nombre", *req.Nombre)
		}
		if req.Pais != nil {
			addSet("pais", *req.Pais)
		}
		if req.NumeroExpediente != nil {
			addSet("numero_expediente", *req.NumeroExpediente)
		}
		if req.IDTipoLicitacion != nil {
			addSet("id_tipolicitacion", *req.IDTipoLicitacion)
		}
		if req.PresMaximo != nil {
			addSet("pres_maximo", *req.PresMaximo)
		}
		if req.Descripcion != nil {
			addSet("descripcion", *req.Descripcion)
		}
		if req.EnlaceGober != nil {
			addSet("enlace_gober", *req.EnlaceGober)
		}
		if req.EnlaceSharepoint != nil {
			addSet("enlace_sharepoint", *req.EnlaceSharepoint)
		}
		if req.FechaPresupuesto != nil {
			addSet("fecha_presupuesto", nullIfEmpty(*req.FechaPresupuesto))
		}
		if req.FechaPresentacion != nil {
			addSet("fecha_presentacion", nullIfEmpty(*req.FechaPresentacion))
		}
		if req.FechaFin != nil {
			addSet("fecha_fin", nullIfEmpty(*req.FechaFin))
		}
		if req.TipoProcedimiento != nil {
			addSet("tipo_procedimiento", *req.TipoProcedimiento)
		}
		if req.DescuentoGlobal != nil {
			addSet("descuento_global", *req.DescuentoGlobal)
		}
		if req.IsDelivered != nil {
			addSet("is_delivered", *req.IsDelivered)
		}
		if req.IsInvoiced != nil {
			addSet("is_invoiced", *req.IsInvoiced)
		}
		if req.IsCollected != nil {
			addSet("is_collected", *req.IsCollected)
		}

		if len(setClauses) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "No fields to update"})
			return
		}

		args = append(args, tenderID)
		query := fmt.Sprintf("UPDATE tbl_licitaciones SET %s WHERE id_licitacion = $%d",
			strings.Join(setClauses, ", "), argPos)

		if _, err := db.Exec(query, args...); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update tender", "details": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Tender updated successfully"})
	}
}

// ChangeTenderStatusHandler moves a tender through its lifecycle
// @Summary Change tender status
// @Description Validate and apply an estado transition. Optimistic concurrency via expected_estado_id.
// @Tags Tenders
// @Accept json
// @Produce json
// @Param id path int true "Tender ID"
// @Param request body models.TenderStatusChangeRequest true "Status change"
// @Success 200 {object} models.SuccessResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /tenders/{id}/status [put]
func ChangeTenderStatusHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := RequireSession(c, db); !ok {
			return
		}

		tenderID, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid tender ID"})
			return
		}

		var req models.TenderStatusChangeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "details": err.Error()})
			return
		}

		currentEstado, err := tenderEstado(db, tenderID)
		if err != nil {
			if err == sql.ErrNoRows {
				c.JSON(http.StatusNotFound, gin.H{"error": "Tender not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch tender", "details": err.Error()})
			return
		}

		if req.ExpectedEstadoID != nil && *req.ExpectedEstadoID != currentEstado {
			c.JSON(http.StatusConflict, gin.H{
				"error":          "Tender estado changed concurrently",
				"current_estado": currentEstado,
			})
			return
		}

		budgetTotal, err := tenderBudgetTotal(db, tenderID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute budget total", "details": err.Error()})
			return
		}

		if msg := validateStatusChange(req, budgetTotal); msg != "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": msg})
			return
		}

		tx, err := db.Begin()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start transaction", "details": err.Error()})
			return
		}
		defer tx.Rollback()

		// Guard against a concurrent transition between the read and the write.
		res, err := tx.Exec(`UPDATE tbl_licitaciones SET id_estado = $1 WHERE id_licitacion = $2 AND id_estado = $3`,
			req.NuevoEstadoID, tenderID, currentEstado)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update estado", "details": err.Error()})
			return
		}
		if n, _ := res.RowsAffected(); n == 0 {
			c.JSON(http.StatusConflict, gin.H{"error": "Tender estado changed concurrently"})
			return
		}

		switch req.NuevoEstadoID {
		case models.EstadoAdjudicada:
			fecha := nullIfEmpty(req.FechaAdjudicacion)
			_, err = tx.Exec(`
				UPDATE tbl_licitaciones
				SET importe_adjudicacion = $1,
				    fecha_adjudicacion = COALESCE($2, NOW()::date::text)
				WHERE id_licitacion = $3`,
				*req.ImporteAdjudicacion, fecha, tenderID)
		case models.EstadoNoAdjudicada:
			_, err = tx.Exec(`
				UPDATE tbl_licitaciones
				SET motivo_perdida = $1, competidor_ganador = $2,
				    descripcion = COALESCE(descripcion, '') || $3
				WHERE id_licitacion = $4`,
				req.MotivoPerdida, req.CompetidorGanador,
				fmt.Sprintf("\n[No adjudicada] %s (ganador: %s)", req.MotivoPerdida, req.CompetidorGanador), tenderID)
		case models.EstadoDescartada:
			_, err = tx.Exec(`
				UPDATE tbl_licitaciones
				SET motivo_descarte = $1,
				    descripcion = COALESCE(descripcion, '') || $2
				WHERE id_licitacion = $3`,
				req.MotivoDescarte, fmt.Sprintf("\n[Descartada] %s", req.MotivoDescarte), tenderID)
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record status details", "details": err.Error()})
			return
		}

		if err := tx.Commit(); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to commit status change", "details": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "Estado updated successfully",
			"data":    gin.H{"id_licitacion": tenderID, "id_estado": req.NuevoEstadoID},
		})
	}
}

// DeleteTenderHandler removes a tender and its dependent rows
// @Summary Delete tender
// @Description Delete a tender together with its partidas
// @Tags Tenders
// @Produce json
// @Param id path int true "Tender ID"
// @Success 200 {object} models.SuccessResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /tenders/{id} [delete]
func DeleteTenderHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := RequireSession(c, db); !ok {
			return
		}

		tenderID, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid tender ID"})
			return
		}

		tx, err := db.Begin()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start transaction", "details": err.Error()})
			return
		}
		defer tx.Rollback()

		dependents := []string{
			"DELETE FROM tbl_licitaciones_real WHERE id_licitacion = $1",
			"DELETE FROM tbl_entregas WHERE id_licitacion = $1",
			"DELETE FROM tbl_gastos_proyecto WHERE id_licitacion = $1",
			"DELETE FROM tbl_licitaciones_detalle WHERE id_licitacion = $1",
		}
		for _, stmt := range dependents {
			if _, err := tx.Exec(stmt, tenderID); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete tender data", "details": err.Error()})
				return
			}
		}

		res, err := tx.Exec(`DELETE FROM tbl_licitaciones WHERE id_licitacion = $1`, tenderID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete tender", "details": err.Error()})
			return
		}
		if n, _ := res.RowsAffected(); n == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "Tender not found"})
			return
		}

		if err := tx.Commit(); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to commit delete", "details": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Tender deleted successfully"})
	}
}

// nullIfEmpty converts an empty string to a SQL NULL for date columns.
func nullIfEmpty(s string) interface{} {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}
