package handlers

import (
	"backend/models"
	"database/sql"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
)

// importColumns maps the accepted header names (lowercased) to canonical
// column keys. Spanish and English spellings are both recognised.
var importColumns = map[string]string{
	"lote":        "lote",
	"lot":         "lote",
	"descripcion": "descripcion",
	"descripción": "descripcion",
	"description": "descripcion",
	"producto":    "descripcion",
	"unidades":    "unidades",
	"units":       "unidades",
	"cantidad":    "unidades",
	"pvu":         "pvu",
	"pcu":         "pcu",
	"pmaxu":       "pmaxu",
	"pmax":        "pmaxu",
}

// parseBudgetSheet turns the first sheet of a workbook into analysis rows.
// The first row is the header. Rows without a description are skipped,
// malformed numeric cells become 0 with a warning. An empty lot cell
// inherits the lot of the previous row (merged cells export as blanks).
func parseBudgetSheet(rows [][]string) ([]models.ImportAnalysisRow, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("workbook is empty")
	}

	colIndex := map[string]int{}
	for i, cell := range rows[0] {
		key := strings.ToLower(strings.TrimSpace(cell))
		if canonical, ok := importColumns[key]; ok {
			if _, taken := colIndex[canonical]; !taken {
				colIndex[canonical] = i
			}
		}
	}
	if _, ok := colIndex["descripcion"]; !ok {
		return nil, fmt.Errorf("missing required column: descripcion")
	}

	cellAt := func(row []string, key string) string {
		idx, ok := colIndex[key]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	parsed := []models.ImportAnalysisRow{}
	currentLote := "General"
	for i, row := range rows[1:] {
		if lote := cellAt(row, "lote"); lote != "" {
			currentLote = lote
		}

		descripcion := cellAt(row, "descripcion")
		if descripcion == "" {
			continue
		}

		item := models.ImportAnalysisRow{
			Fila:        i + 2, // 1-based spreadsheet row, after the header
			Descripcion: descripcion,
			Lote:        currentLote,
		}

		parseCell := func(key string, dest *float64) {
			raw := cellAt(row, key)
			if raw == "" {
				return
			}
			normalized := strings.ReplaceAll(raw, ",", ".")
			value, err := strconv.ParseFloat(normalized, 64)
			if err != nil || value < 0 {
				item.Avisos = append(item.Avisos, fmt.Sprintf("%s no numérico: %q", key, raw))
				return
			}
			*dest = value
		}
		parseCell("unidades", &item.Unidades)
		parseCell("pvu", &item.PVU)
		parseCell("pcu", &item.PCU)
		parseCell("pmaxu", &item.PMaxU)

		parsed = append(parsed, item)
	}
	return parsed, nil
}

// matchProducts resolves each parsed description against the product
// catalogue by exact case-insensitive name.
func matchProducts(db *sql.DB, rows []models.ImportAnalysisRow) error {
	for i := range rows {
		var id int
		var nombre string
		err := db.QueryRow(`SELECT id, nombre FROM tbl_productos WHERE LOWER(nombre) = LOWER($1)`,
			rows[i].Descripcion).Scan(&id, &nombre)
		if err == sql.ErrNoRows {
			rows[i].Avisos = append(rows[i].Avisos, "producto no encontrado en el catálogo")
			continue
		}
		if err != nil {
			return err
		}
		rows[i].IDProducto = &id
		rows[i].ProductNombre = nombre
	}
	return nil
}

func readUploadedWorkbook(c *gin.Context) ([][]string, error) {
	file, err := c.FormFile("file")
	if err != nil {
		return nil, fmt.Errorf("file not found")
	}
	src, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("unable to open file")
	}
	defer src.Close()

	f, err := excelize.OpenReader(io.LimitReader(src, 20<<20))
	if err != nil {
		return nil, fmt.Errorf("unable to read workbook: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	return f.GetRows(sheets[0])
}

// AnalyzeImportHandler previews an uploaded budget workbook
// @Summary Analyze budget import
// @Description Parse an uploaded Excel workbook and preview the rows that would be imported, with warnings
// @Tags Import
// @Accept multipart/form-data
// @Produce json
// @Param id path int true "Tender ID"
// @Param file formData file true "Excel workbook"
// @Success 200 {object} models.ImportAnalysisResponse
// @Failure 400 {object} models.ErrorResponse
// @Router /tenders/{id}/import/analyze [post]
func AnalyzeImportHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := RequireSession(c, db); !ok {
			return
		}

		tenderID, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid tender ID"})
			return
		}
		if !requireEditableTender(c, db, tenderID) {
			return
		}

		rows, err := readUploadedWorkbook(c)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		parsed, err := parseBudgetSheet(rows)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := matchProducts(db, parsed); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to match products", "details": err.Error()})
			return
		}

		valid := 0
		for _, row := range parsed {
			if len(row.Avisos) == 0 {
				valid++
			}
		}

		c.JSON(http.StatusOK, models.ImportAnalysisResponse{
			Success:      true,
			Message:      "Workbook analyzed",
			TotalFilas:   len(parsed),
			FilasValidas: valid,
			Filas:        parsed,
		})
	}
}

// CommitImportHandler inserts the reviewed rows as budget lines
// @Summary Commit budget import
// @Description Insert the reviewed rows into the tender budget in one transaction
// @Tags Import
// @Accept json
// @Produce json
// @Param id path int true "Tender ID"
// @Param request body []models.ImportAnalysisRow true "Rows to import"
// @Success 201 {object} models.ImportCommitResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /tenders/{id}/import/commit [post]
func CommitImportHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := RequireSession(c, db); !ok {
			return
		}

		tenderID, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid tender ID"})
			return
		}
		if !requireEditableTender(c, db, tenderID) {
			return
		}

		var rows []models.ImportAnalysisRow
		if err := c.ShouldBindJSON(&rows); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "details": err.Error()})
			return
		}
		if len(rows) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "No rows to import"})
			return
		}

		tx, err := db.Begin()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start transaction", "details": err.Error()})
			return
		}
		defer tx.Rollback()

		inserted := 0
		for _, row := range rows {
			lote := strings.TrimSpace(row.Lote)
			if lote == "" {
				lote = "General"
			}
			var nombreLibre interface{}
			if row.IDProducto == nil {
				nombreLibre = row.Descripcion
			}
			_, err := tx.Exec(`
				INSERT INTO tbl_licitaciones_detalle
					(id_licitacion, lote, id_producto, nombre_producto_libre, unidades, pvu, pcu, pmaxu, activo)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, TRUE)`,
				tenderID, lote, row.IDProducto, nombreLibre,
				row.Unidades, row.PVU, row.PCU, row.PMaxU)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("Failed to insert row %d", row.Fila), "details": err.Error()})
				return
			}
			inserted++
		}

		if err := tx.Commit(); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to commit import", "details": err.Error()})
			return
		}

		c.JSON(http.StatusCreated, models.ImportCommitResponse{
			Success:    true,
			Message:    "Budget imported successfully",
			Insertadas: inserted,
		})
	}
}
