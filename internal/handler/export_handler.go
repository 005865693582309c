package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"travel-ledger/internal/period"
	"travel-ledger/internal/service"
	"travel-ledger/pkg/response"
)

type ExportHandler struct {
	periodParams
	exports service.ExportService
}

func NewExportHandler(exports service.ExportService, resolver *period.Resolver, now func() time.Time) *ExportHandler {
	if now == nil {
		now = time.Now
	}
	return &ExportHandler{periodParams: periodParams{resolver: resolver, now: now}, exports: exports}
}

type ExportRequest struct {
	Month string `json:"month" binding:"required"`
}

// RecordExport godoc
// @Summary Record that a month was sent to the accountant
// @Description Every call appends a row with the counts at that moment.
// @Tags exports
// @Accept json
// @Produce json
// @Param request body ExportRequest true "Month as YYYY-MM"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /api/v1/exports [post]
func (h *ExportHandler) RecordExport(c *gin.Context) {
	var req ExportRequest
	if !bindJSON(c, &req) {
		return
	}
	p, err := h.month(req.Month)
	if err != nil {
		fail(c, err)
		return
	}
	log, err := h.exports.Record(c.Request.Context(), p)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusCreated, "Export recorded", log)
}

// ListExports godoc
// @Summary List export log rows
// @Tags exports
// @Produce json
// @Param month query string false "YYYY-MM; all months when omitted"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /api/v1/exports [get]
func (h *ExportHandler) ListExports(c *gin.Context) {
	logs, err := h.exports.List(c.Request.Context(), c.Query("month"))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Exports retrieved successfully", logs)
}
