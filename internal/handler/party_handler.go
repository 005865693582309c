package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"travel-ledger/internal/domain"
	"travel-ledger/internal/service"
	"travel-ledger/pkg/response"
)

type PartyHandler struct {
	parties service.PartyService
}

func NewPartyHandler(parties service.PartyService) *PartyHandler {
	return &PartyHandler{parties: parties}
}

type PartyRequest struct {
	Name      string  `json:"name"`
	VATNumber *string `json:"vat_number"`
	Email     *string `json:"email"`
	Phone     *string `json:"phone"`
	Address   *string `json:"address"`
}

// CreateSupplier godoc
// @Summary Create a supplier
// @Tags parties
// @Accept json
// @Produce json
// @Param supplier body PartyRequest true "Supplier data"
// @Success 201 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /api/v1/suppliers [post]
func (h *PartyHandler) CreateSupplier(c *gin.Context) {
	var req PartyRequest
	if !bindJSON(c, &req) {
		return
	}
	s := &domain.Supplier{Name: req.Name, VATNumber: req.VATNumber, Email: req.Email, Phone: req.Phone, Address: req.Address}
	if err := h.parties.CreateSupplier(c.Request.Context(), s); err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusCreated, "Supplier created successfully", s)
}

// GetSupplier godoc
// @Summary Get a supplier
// @Tags parties
// @Produce json
// @Param id path string true "Supplier ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/suppliers/{id} [get]
func (h *PartyHandler) GetSupplier(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	s, err := h.parties.GetSupplier(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Supplier retrieved successfully", s)
}

// ListSuppliers godoc
// @Summary List suppliers
// @Tags parties
// @Produce json
// @Success 200 {object} response.Response
// @Router /api/v1/suppliers [get]
func (h *PartyHandler) ListSuppliers(c *gin.Context) {
	out, err := h.parties.ListSuppliers(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Suppliers retrieved successfully", out)
}

// CreateCustomer godoc
// @Summary Create a customer
// @Tags parties
// @Accept json
// @Produce json
// @Param customer body PartyRequest true "Customer data"
// @Success 201 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /api/v1/customers [post]
func (h *PartyHandler) CreateCustomer(c *gin.Context) {
	var req PartyRequest
	if !bindJSON(c, &req) {
		return
	}
	cust := &domain.Customer{Name: req.Name, VATNumber: req.VATNumber, Email: req.Email, Phone: req.Phone, Address: req.Address}
	if err := h.parties.CreateCustomer(c.Request.Context(), cust); err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusCreated, "Customer created successfully", cust)
}

// GetCustomer godoc
// @Summary Get a customer
// @Tags parties
// @Produce json
// @Param id path string true "Customer ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/customers/{id} [get]
func (h *PartyHandler) GetCustomer(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	cust, err := h.parties.GetCustomer(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Customer retrieved successfully", cust)
}

// ListCustomers godoc
// @Summary List customers
// @Tags parties
// @Produce json
// @Success 200 {object} response.Response
// @Router /api/v1/customers [get]
func (h *PartyHandler) ListCustomers(c *gin.Context) {
	out, err := h.parties.ListCustomers(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Customers retrieved successfully", out)
}
