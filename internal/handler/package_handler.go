package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"travel-ledger/internal/domain"
	"travel-ledger/internal/period"
	"travel-ledger/internal/service"
	"travel-ledger/pkg/response"
)

type PackageHandler struct {
	periodParams
	packages service.PackageService
	ledger   service.LedgerService
}

func NewPackageHandler(packages service.PackageService, ledger service.LedgerService, resolver *period.Resolver, now func() time.Time) *PackageHandler {
	if now == nil {
		now = time.Now
	}
	return &PackageHandler{
		periodParams: periodParams{resolver: resolver, now: now},
		packages:     packages,
		ledger:       ledger,
	}
}

type PackageRequest struct {
	CustomerID          *string         `json:"customer_id"`
	ClientName          string          `json:"client_name"`
	Name                string          `json:"name"`
	StartDate           string          `json:"start_date" binding:"required"`
	EndDate             string          `json:"end_date" binding:"required"`
	Status              string          `json:"status"`
	TargetMarginPercent decimal.Decimal `json:"target_margin_percent"`
}

type StatusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (h *PackageHandler) toPackage(req PackageRequest) (*domain.Package, error) {
	start, err := h.day(req.StartDate)
	if err != nil {
		return nil, err
	}
	end, err := h.day(req.EndDate)
	if err != nil {
		return nil, err
	}
	customerID, err := parseOptionalID("customer_id", req.CustomerID)
	if err != nil {
		return nil, err
	}
	return &domain.Package{
		CustomerID:          customerID,
		ClientName:          req.ClientName,
		Name:                req.Name,
		StartDate:           start,
		EndDate:             end,
		Status:              domain.PackageStatus(req.Status),
		TargetMarginPercent: req.TargetMarginPercent,
	}, nil
}

// CreatePackage godoc
// @Summary Create a travel package
// @Tags packages
// @Accept json
// @Produce json
// @Param package body PackageRequest true "Package data"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /api/v1/packages [post]
func (h *PackageHandler) CreatePackage(c *gin.Context) {
	var req PackageRequest
	if !bindJSON(c, &req) {
		return
	}
	pkg, err := h.toPackage(req)
	if err != nil {
		fail(c, err)
		return
	}
	if err := h.packages.Create(c.Request.Context(), pkg); err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusCreated, "Package created successfully", pkg)
}

// UpdatePackage godoc
// @Summary Replace a package's fields
// @Tags packages
// @Accept json
// @Produce json
// @Param id path string true "Package ID"
// @Param package body PackageRequest true "Package data"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /api/v1/packages/{id} [put]
func (h *PackageHandler) UpdatePackage(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req PackageRequest
	if !bindJSON(c, &req) {
		return
	}
	pkg, err := h.toPackage(req)
	if err != nil {
		fail(c, err)
		return
	}
	pkg.ID = id
	if pkg.Status == "" {
		current, err := h.packages.Get(c.Request.Context(), pkg.ID)
		if err != nil {
			fail(c, err)
			return
		}
		pkg.Status = current.Status
	}
	if err := h.packages.Update(c.Request.Context(), pkg); err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Package updated successfully", pkg)
}

// AdvancePackageStatus godoc
// @Summary Move a package forward in its lifecycle
// @Tags packages
// @Accept json
// @Produce json
// @Param id path string true "Package ID"
// @Param status body StatusRequest true "quote, active or completed"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /api/v1/packages/{id}/status [post]
func (h *PackageHandler) AdvancePackageStatus(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req StatusRequest
	if !bindJSON(c, &req) {
		return
	}
	pkg, err := h.packages.AdvanceStatus(c.Request.Context(), id, domain.PackageStatus(req.Status))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Package status updated", pkg)
}

// GetPackage godoc
// @Summary Get a package
// @Tags packages
// @Produce json
// @Param id path string true "Package ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/packages/{id} [get]
func (h *PackageHandler) GetPackage(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	pkg, err := h.packages.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Package retrieved successfully", pkg)
}

// ListPackages godoc
// @Summary List packages
// @Tags packages
// @Produce json
// @Success 200 {object} response.Response
// @Router /api/v1/packages [get]
func (h *PackageHandler) ListPackages(c *gin.Context) {
	pkgs, err := h.packages.List(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Packages retrieved successfully", pkgs)
}

// GetPackageSummary godoc
// @Summary Financial summary of a package
// @Description Totals, margin, outstanding amounts and reconciliation status. Without month the whole package is summarized.
// @Tags packages
// @Produce json
// @Param id path string true "Package ID"
// @Param month query string false "YYYY-MM"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/packages/{id}/summary [get]
func (h *PackageHandler) GetPackageSummary(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	p, err := h.optionalMonth(c.Query("month"))
	if err != nil {
		fail(c, err)
		return
	}
	summary, err := h.ledger.Summarize(c.Request.Context(), id, p)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Package summary", summary)
}
