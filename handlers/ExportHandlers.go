package handlers

import (
	"database/sql"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
)

// ExportTenderBudgetHandler downloads the tender budget as an Excel workbook
// @Summary Export tender budget
// @Description Download the budget lines of a tender as an .xlsx file
// @Tags Export
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param id path int true "Tender ID"
// @Success 200 {file} file "Excel file"
// @Failure 404 {object} models.ErrorResponse
// @Router /tenders/{id}/export [get]
func ExportTenderBudgetHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := RequireSession(c, db); !ok {
			return
		}

		tenderID, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid tender ID"})
			return
		}

		var tenderName string
		err = db.QueryRow(`SELECT nombre FROM tbl_licitaciones WHERE id_licitacion = $1`, tenderID).Scan(&tenderName)
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

		f := excelize.NewFile()
		defer f.Close()

		sheet := "Presupuesto"
		f.SetSheetName("Sheet1", sheet)

		headers := []string{"Lote", "Producto", "Unidades", "PVU", "PCU", "PMaxU", "Importe"}
		for i, h := range headers {
			cell, _ := excelize.CoordinatesToCellName(i+1, 1)
			f.SetCellValue(sheet, cell, h)
		}

		headerStyle, err := f.NewStyle(&excelize.Style{
			Font: &excelize.Font{Bold: true},
			Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		})
		if err == nil {
			f.SetCellStyle(sheet, "A1", "G1", headerStyle)
		}

		var total float64
		rowNum := 2
		for _, p := range partidas {
			if !p.Activo {
				continue
			}
			importe := p.Unidades * p.PVU
			total += importe
			values := []interface{}{p.Lote, p.ProductNombre, p.Unidades, p.PVU, p.PCU, p.PMaxU, importe}
			for i, v := range values {
				cell, _ := excelize.CoordinatesToCellName(i+1, rowNum)
				f.SetCellValue(sheet, cell, v)
			}
			rowNum++
		}

		totalLabelCell, _ := excelize.CoordinatesToCellName(6, rowNum)
		totalValueCell, _ := excelize.CoordinatesToCellName(7, rowNum)
		f.SetCellValue(sheet, totalLabelCell, "Total")
		f.SetCellValue(sheet, totalValueCell, total)

		f.SetColWidth(sheet, "A", "B", 32)
		f.SetColWidth(sheet, "C", "G", 12)

		filename := fmt.Sprintf("presupuesto_%d.xlsx", tenderID)
		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Header("Content-Disposition", "attachment;filename="+url.PathEscape(filename))

		if err := f.Write(c.Writer); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to write workbook", "details": err.Error()})
			return
		}
	}
}
