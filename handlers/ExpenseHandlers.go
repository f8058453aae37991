package handlers

import (
	"backend/models"
	"database/sql"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CreateExpenseHandler registers a project expense
// @Summary Create project expense
// @Description Register an extraordinary expense against a tender. New expenses always start PENDIENTE.
// @Tags Expenses
// @Accept json
// @Produce json
// @Param request body models.ProjectExpenseCreateRequest true "Expense data"
// @Success 201 {object} models.ProjectExpenseResponse
// @Failure 400 {object} models.ErrorResponse
// @Router /expenses [post]
func CreateExpenseHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, ok := RequireSession(c, db)
		if !ok {
			return
		}

		var req models.ProjectExpenseCreateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "details": err.Error()})
			return
		}

		if !models.TipoGastoValido(req.TipoGasto) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid tipo_gasto", "details": req.TipoGasto})
			return
		}
		if req.Importe <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "importe must be greater than 0"})
			return
		}

		var exists bool
		if err := db.QueryRow(`SELECT EXISTS(SELECT 1 FROM tbl_licitaciones WHERE id_licitacion = $1)`,
			req.IDLicitacion).Scan(&exists); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check tender", "details": err.Error()})
			return
		}
		if !exists {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Tender does not exist"})
			return
		}

		newID := uuid.New().String()
		_, err := db.Exec(`
			INSERT INTO tbl_gastos_proyecto
				(id, id_licitacion, id_usuario, tipo_gasto, importe, fecha, descripcion, url_comprobante, estado, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())`,
			newID, req.IDLicitacion, session.UserID, req.TipoGasto, req.Importe,
			req.Fecha, req.Descripcion, req.URLComprobante, models.GastoPendiente)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create expense", "details": err.Error()})
			return
		}

		c.JSON(http.StatusCreated, models.ProjectExpenseResponse{
			Success: true,
			Message: "Expense created successfully",
			Data: &models.ProjectExpense{
				ID:             newID,
				IDLicitacion:   req.IDLicitacion,
				IDUsuario:      session.UserID,
				TipoGasto:      req.TipoGasto,
				Importe:        req.Importe,
				Fecha:          req.Fecha,
				Descripcion:    req.Descripcion,
				URLComprobante: req.URLComprobante,
				Estado:         models.GastoPendiente,
			},
		})
	}
}

// GetExpensesHandler lists project expenses
// @Summary List project expenses
// @Description Get expenses, optionally filtered by tender and estado
// @Tags Expenses
// @Produce json
// @Param id_licitacion query int false "Filter by tender"
// @Param estado query string false "Filter by estado (PENDIENTE, APROBADO, RECHAZADO)"
// @Success 200 {object} models.ProjectExpenseListResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /expenses [get]
func GetExpensesHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := RequireSession(c, db); !ok {
			return
		}

		query := `
			SELECT id, id_licitacion, id_usuario, tipo_gasto, importe, fecha,
			       COALESCE(descripcion, ''), COALESCE(url_comprobante, ''), estado, created_at
			FROM tbl_gastos_proyecto WHERE 1=1`
		args := []interface{}{}
		argPos := 1

		if idStr := c.Query("id_licitacion"); idStr != "" {
			tenderID, err := strconv.Atoi(idStr)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid id_licitacion filter"})
				return
			}
			query += " AND id_licitacion = $1"
			args = append(args, tenderID)
			argPos++
		}
		if estado := c.Query("estado"); estado != "" {
			if estado != models.GastoPendiente && estado != models.GastoAprobado && estado != models.GastoRechazado {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid estado filter"})
				return
			}
			query += " AND estado = $" + strconv.Itoa(argPos)
			args = append(args, estado)
		}
		query += " ORDER BY created_at DESC"

		rows, err := db.Query(query, args...)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch expenses", "details": err.Error()})
			return
		}
		defer rows.Close()

		expenses := []models.ProjectExpense{}
		for rows.Next() {
			var e models.ProjectExpense
			if err := rows.Scan(&e.ID, &e.IDLicitacion, &e.IDUsuario, &e.TipoGasto, &e.Importe,
				&e.Fecha, &e.Descripcion, &e.URLComprobante, &e.Estado, &e.CreatedAt); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to scan expense", "details": err.Error()})
				return
			}
			expenses = append(expenses, e)
		}

		c.JSON(http.StatusOK, models.ProjectExpenseListResponse{Success: true, Message: "Success", Data: expenses})
	}
}

// UpdateExpenseHandler approves, rejects or corrects an expense
// @Summary Update project expense
// @Description Change the estado or importe of an expense
// @Tags Expenses
// @Accept json
// @Produce json
// @Param id path string true "Expense ID"
// @Param request body models.ProjectExpenseUpdateRequest true "Fields to update"
// @Success 200 {object} models.SuccessResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /expenses/{id} [put]
func UpdateExpenseHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := RequireSession(c, db); !ok {
			return
		}

		id := c.Param("id")
		if _, err := uuid.Parse(id); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid expense ID"})
			return
		}

		var req models.ProjectExpenseUpdateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "details": err.Error()})
			return
		}
		if req.Estado == nil && req.Importe == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "No fields to update"})
			return
		}
		if req.Estado != nil &&
			*req.Estado != models.GastoPendiente && *req.Estado != models.GastoAprobado && *req.Estado != models.GastoRechazado {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid estado", "details": *req.Estado})
			return
		}
		if req.Importe != nil && *req.Importe <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "importe must be greater than 0"})
			return
		}

		res, err := db.Exec(`
			UPDATE tbl_gastos_proyecto
			SET estado = COALESCE($1, estado), importe = COALESCE($2, importe)
			WHERE id = $3`, req.Estado, req.Importe, id)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update expense", "details": err.Error()})
			return
		}
		if n, _ := res.RowsAffected(); n == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "Expense not found"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Expense updated successfully"})
	}
}

// DeleteExpenseHandler removes an expense
// @Summary Delete project expense
// @Description Delete an expense by its id
// @Tags Expenses
// @Produce json
// @Param id path string true "Expense ID"
// @Success 200 {object} models.SuccessResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /expenses/{id} [delete]
func DeleteExpenseHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := RequireSession(c, db); !ok {
			return
		}

		id := c.Param("id")
		if _, err := uuid.Parse(id); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid expense ID"})
			return
		}

		res, err := db.Exec(`DELETE FROM tbl_gastos_proyecto WHERE id = $1`, id)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete expense", "details": err.Error()})
			return
		}
		if n, _ := res.RowsAffected(); n == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "Expense not found"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Expense deleted successfully"})
	}
}
