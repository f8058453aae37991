package handlers

import (
	"backend/repository"
	"backend/storage"
	"database/sql"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// GetEstadosHandler lists the tender estados
// @Summary List estados
// @Description Get the estado lookup table
// @Tags Catalog
// @Produce json
// @Success 200 {array} models.EstadoGorm
// @Failure 500 {object} models.ErrorResponse
// @Router /estados [get]
func GetEstadosHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := RequireSession(c, db); !ok {
			return
		}

		estados, err := repository.FetchEstados(storage.GetGormDB())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch estados", "details": err.Error()})
			return
		}
		c.JSON(http.StatusOK, estados)
	}
}

// GetTiposLicitacionHandler lists the tender types
// @Summary List tender types
// @Description Get the tipo de licitación lookup table
// @Tags Catalog
// @Produce json
// @Success 200 {array} models.TipoLicitacionGorm
// @Failure 500 {object} models.ErrorResponse
// @Router /tipos-licitacion [get]
func GetTiposLicitacionHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := RequireSession(c, db); !ok {
			return
		}

		tipos, err := repository.FetchTiposLicitacion(storage.GetGormDB())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch tipos de licitacion", "details": err.Error()})
			return
		}
		c.JSON(http.StatusOK, tipos)
	}
}

// GetTenderSummaryHandler returns the aggregated totals of a tender
// @Summary Tender summary
// @Description Budget total, budgeted cost, delivered cost and expected margin
// @Tags Tenders
// @Produce json
// @Param id path int true "Tender ID"
// @Success 200 {object} repository.TenderSummary
// @Failure 400 {object} models.ErrorResponse
// @Router /tenders/{id}/summary [get]
func GetTenderSummaryHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := RequireSession(c, db); !ok {
			return
		}

		tenderID, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid tender ID"})
			return
		}

		summary, err := repository.FetchTenderSummary(storage.GetGormDB(), tenderID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute summary", "details": err.Error()})
			return
		}
		c.JSON(http.StatusOK, summary)
	}
}
