package handlers

import (
	"backend/models"
	"database/sql"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// fetchPartidas loads the budget lines of a tender in insertion order with
// the resolved product name.
func fetchPartidas(db *sql.DB, tenderID int) ([]models.Partida, error) {
	rows, err := db.Query(`
		SELECT d.id_detalle, d.id_licitacion, COALESCE(d.lote, 'General'), d.id_producto,
		       COALESCE(p.nombre, COALESCE(d.nombre_producto_libre, '')),
		       COALESCE(d.nombre_producto_libre, ''),
		       COALESCE(d.unidades, 0), COALESCE(d.pvu, 0), COALESCE(d.pcu, 0), COALESCE(d.pmaxu, 0),
		       d.activo
		FROM tbl_licitaciones_detalle d
		LEFT JOIN tbl_productos p ON p.id = d.id_producto
		WHERE d.id_licitacion = $1
		ORDER BY d.id_detalle`, tenderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	partidas := []models.Partida{}
	for rows.Next() {
		var p models.Partida
		if err := rows.Scan(&p.IDDetalle, &p.IDLicitacion, &p.Lote, &p.IDProducto,
			&p.ProductNombre, &p.NombreProductoLibre,
			&p.Unidades, &p.PVU, &p.PCU, &p.PMaxU, &p.Activo); err != nil {
			return nil, err
		}
		partidas = append(partidas, p)
	}
	return partidas, rows.Err()
}

// fetchPartida loads a single budget line.
func fetchPartida(db *sql.DB, tenderID, detailID int) (models.Partida, error) {
	var p models.Partida
	err := db.QueryRow(`
		SELECT d.id_detalle, d.id_licitacion, COALESCE(d.lote, 'General'), d.id_producto,
		       COALESCE(p.nombre, COALESCE(d.nombre_producto_libre, '')),
		       COALESCE(d.nombre_producto_libre, ''),
		       COALESCE(d.unidades, 0), COALESCE(d.pvu, 0), COALESCE(d.pcu, 0), COALESCE(d.pmaxu, 0),
		       d.activo
		FROM tbl_licitaciones_detalle d
		LEFT JOIN tbl_productos p ON p.id = d.id_producto
		WHERE d.id_licitacion = $1 AND d.id_detalle = $2`, tenderID, detailID).Scan(
		&p.IDDetalle, &p.IDLicitacion, &p.Lote, &p.IDProducto,
		&p.ProductNombre, &p.NombreProductoLibre,
		&p.Unidades, &p.PVU, &p.PCU, &p.PMaxU, &p.Activo)
	return p, err
}

// requireEditableTender rejects the request with 409 when the tender's estado
// freezes its budget. Returns false when a response was already written.
func requireEditableTender(c *gin.Context, db *sql.DB, tenderID int) bool {
	estado, err := tenderEstado(db, tenderID)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"error": "Tender not found"})
			return false
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch tender", "details": err.Error()})
		return false
	}
	if models.EstadoBloqueaEdicion(estado) {
		c.JSON(http.StatusConflict, gin.H{"error": "Tender is locked for edition", "details": "budget lines cannot change after presentation"})
		return false
	}
	return true
}

// GetPartidasHandler lists the budget lines of a tender
// @Summary List partidas
// @Description Get the budget lines of a tender in display order
// @Tags Partidas
// @Produce json
// @Param id path int true "Tender ID"
// @Success 200 {array} models.Partida
// @Failure 500 {object} models.ErrorResponse
// @Router /tenders/{id}/partidas [get]
func GetPartidasHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := RequireSession(c, db); !ok {
			return
		}

		tenderID, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid tender ID"})
			return
		}

		partidas, err := fetchPartidas(db, tenderID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch partidas", "details": err.Error()})
			return
		}

		c.JSON(http.StatusOK, partidas)
	}
}

// CreatePartidaHandler adds a budget line to a tender
// @Summary Create partida
// @Description Add a budget line. Responds with the persisted row including id_detalle.
// @Tags Partidas
// @Accept json
// @Produce json
// @Param id path int true "Tender ID"
// @Param request body models.PartidaRequest true "Budget line"
// @Success 201 {object} models.Partida
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /tenders/{id}/partidas [post]
func CreatePartidaHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := RequireSession(c, db); !ok {
			return
		}

		tenderID, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid tender ID"})
			return
		}

		var req models.PartidaRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "details": err.Error()})
			return
		}

		if !requireEditableTender(c, db, tenderID) {
			return
		}

		lote := strings.TrimSpace(req.Lote)
		if lote == "" {
			lote = "General"
		}
		unidades := derefFloat(req.Unidades)
		pvu := derefFloat(req.PVU)
		pcu := derefFloat(req.PCU)
		pmaxu := derefFloat(req.PMaxU)
		activo := true
		if req.Activo != nil {
			activo = *req.Activo
		}

		var detailID int
		err = db.QueryRow(`
			INSERT INTO tbl_licitaciones_detalle
				(id_licitacion, lote, id_producto, nombre_producto_libre, unidades, pvu, pcu, pmaxu, activo)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING id_detalle`,
			tenderID, lote, req.IDProducto, req.NombreProductoLibre,
			unidades, pvu, pcu, pmaxu, activo).Scan(&detailID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create partida", "details": err.Error()})
			return
		}

		row, err := fetchPartida(db, tenderID, detailID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch created partida", "details": err.Error()})
			return
		}

		c.JSON(http.StatusCreated, row)
	}
}

// UpdatePartidaHandler replaces the fields of a budget line
// @Summary Update partida
// @Description Update a budget line. Responds with the persisted row.
// @Tags Partidas
// @Accept json
// @Produce json
// @Param id path int true "Tender ID"
// @Param detailId path int true "Detail ID"
// @Param request body models.PartidaRequest true "Budget line"
// @Success 200 {object} models.Partida
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /tenders/{id}/partidas/{detailId} [put]
func UpdatePartidaHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := RequireSession(c, db); !ok {
			return
		}

		tenderID, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid tender ID"})
			return
		}
		detailID, err := strconv.Atoi(c.Param("detailId"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid detail ID"})
			return
		}

		var req models.PartidaRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "details": err.Error()})
			return
		}

		if !requireEditableTender(c, db, tenderID) {
			return
		}

		lote := strings.TrimSpace(req.Lote)
		if lote == "" {
			lote = "General"
		}
		activo := true
		if req.Activo != nil {
			activo = *req.Activo
		}

		res, err := db.Exec(`
			UPDATE tbl_licitaciones_detalle
			SET lote = $1, id_producto = $2, nombre_producto_libre = $3,
			    unidades = $4, pvu = $5, pcu = $6, pmaxu = $7, activo = $8
			WHERE id_licitacion = $9 AND id_detalle = $10`,
			lote, req.IDProducto, req.NombreProductoLibre,
			derefFloat(req.Unidades), derefFloat(req.PVU), derefFloat(req.PCU), derefFloat(req.PMaxU),
			activo, tenderID, detailID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update partida", "details": err.Error()})
			return
		}
		if n, _ := res.RowsAffected(); n == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "Partida not found"})
			return
		}

		row, err := fetchPartida(db, tenderID, detailID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch updated partida", "details": err.Error()})
			return
		}

		c.JSON(http.StatusOK, row)
	}
}

// DeletePartidaHandler removes a budget line
// @Summary Delete partida
// @Description Remove a budget line from a tender
// @Tags Partidas
// @Produce json
// @Param id path int true "Tender ID"
// @Param detailId path int true "Detail ID"
// @Success 204 "No Content"
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /tenders/{id}/partidas/{detailId} [delete]
func DeletePartidaHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := RequireSession(c, db); !ok {
			return
		}

		tenderID, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid tender ID"})
			return
		}
		detailID, err := strconv.Atoi(c.Param("detailId"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid detail ID"})
			return
		}

		if !requireEditableTender(c, db, tenderID) {
			return
		}

		res, err := db.Exec(`DELETE FROM tbl_licitaciones_detalle WHERE id_licitacion = $1 AND id_detalle = $2`,
			tenderID, detailID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete partida", "details": err.Error()})
			return
		}
		if n, _ := res.RowsAffected(); n == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "Partida not found"})
			return
		}

		c.Status(http.StatusNoContent)
	}
}

func derefFloat(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}
