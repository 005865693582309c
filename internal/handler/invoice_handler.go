package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"travel-ledger/internal/apperrors"
	"travel-ledger/internal/domain"
	"travel-ledger/internal/period"
	"travel-ledger/internal/service"
	"travel-ledger/pkg/response"
)

type InvoiceHandler struct {
	periodParams
	invoices service.InvoiceService
}

func NewInvoiceHandler(invoices service.InvoiceService, resolver *period.Resolver, now func() time.Time) *InvoiceHandler {
	if now == nil {
		now = time.Now
	}
	return &InvoiceHandler{periodParams: periodParams{resolver: resolver, now: now}, invoices: invoices}
}

type InvoiceRequest struct {
	PackageID     *string          `json:"package_id"`
	SupplierID    *string          `json:"supplier_id"`
	CustomerID    *string          `json:"customer_id"`
	Type          string           `json:"type" binding:"required"`
	Category      string           `json:"category" binding:"required"`
	Merchant      string           `json:"merchant"`
	Amount        *decimal.Decimal `json:"amount"`
	Currency      string           `json:"currency"`
	PaymentStatus string           `json:"payment_status"`
	InvoiceDate   *string          `json:"invoice_date"`
	DueDate       *string          `json:"due_date"`
	FileRef       string           `json:"file_ref"`
}

// ExtractionRequest is the OCR result for an uploaded invoice document.
type ExtractionRequest struct {
	Merchant      string            `json:"merchant"`
	Amount        *decimal.Decimal  `json:"amount"`
	Date          *string           `json:"date"`
	Category      *string           `json:"category"`
	Confidence    *float64          `json:"confidence"`
	Currency      string            `json:"currency"`
	VATAmount     *decimal.Decimal  `json:"vat_amount"`
	InvoiceNumber string            `json:"invoice_number"`
	LineItems     []domain.LineItem `json:"line_items"`
}

func (h *InvoiceHandler) toInvoice(req InvoiceRequest) (*domain.Invoice, error) {
	invoiceDate, err := h.optionalDay(req.InvoiceDate)
	if err != nil {
		return nil, err
	}
	dueDate, err := h.optionalDay(req.DueDate)
	if err != nil {
		return nil, err
	}
	packageID, err := parseOptionalID("package_id", req.PackageID)
	if err != nil {
		return nil, err
	}
	supplierID, err := parseOptionalID("supplier_id", req.SupplierID)
	if err != nil {
		return nil, err
	}
	customerID, err := parseOptionalID("customer_id", req.CustomerID)
	if err != nil {
		return nil, err
	}
	return &domain.Invoice{
		PackageID:     packageID,
		SupplierID:    supplierID,
		CustomerID:    customerID,
		Type:          domain.InvoiceType(req.Type),
		Category:      domain.InvoiceCategory(req.Category),
		Merchant:      req.Merchant,
		Amount:        req.Amount,
		Currency:      req.Currency,
		PaymentStatus: domain.PaymentStatus(req.PaymentStatus),
		InvoiceDate:   invoiceDate,
		DueDate:       dueDate,
		FileRef:       req.FileRef,
	}, nil
}

// CreateInvoice godoc
// @Summary Create an invoice
// @Description Amount may be omitted until extraction completes.
// @Tags invoices
// @Accept json
// @Produce json
// @Param invoice body InvoiceRequest true "Invoice data"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /api/v1/invoices [post]
func (h *InvoiceHandler) CreateInvoice(c *gin.Context) {
	var req InvoiceRequest
	if !bindJSON(c, &req) {
		return
	}
	inv, err := h.toInvoice(req)
	if err != nil {
		fail(c, err)
		return
	}
	if err := h.invoices.Create(c.Request.Context(), inv); err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusCreated, "Invoice created successfully", inv)
}

// UpdateInvoice godoc
// @Summary Replace an invoice's fields
// @Description Extracted data already attached is kept.
// @Tags invoices
// @Accept json
// @Produce json
// @Param id path string true "Invoice ID"
// @Param invoice body InvoiceRequest true "Invoice data"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /api/v1/invoices/{id} [put]
func (h *InvoiceHandler) UpdateInvoice(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req InvoiceRequest
	if !bindJSON(c, &req) {
		return
	}
	inv, err := h.toInvoice(req)
	if err != nil {
		fail(c, err)
		return
	}
	current, err := h.invoices.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	inv.ID = current.ID
	inv.Extracted = current.Extracted
	if inv.PaymentStatus == "" {
		inv.PaymentStatus = current.PaymentStatus
	}
	if err := h.invoices.Update(c.Request.Context(), inv); err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Invoice updated successfully", inv)
}

// AttachExtraction godoc
// @Summary Attach extracted document data
// @Description Stores the OCR output and fills merchant, amount, date, category and currency where the invoice has none.
// @Tags invoices
// @Accept json
// @Produce json
// @Param id path string true "Invoice ID"
// @Param extraction body ExtractionRequest true "Extracted data"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /api/v1/invoices/{id}/extraction [put]
func (h *InvoiceHandler) AttachExtraction(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req ExtractionRequest
	if !bindJSON(c, &req) {
		return
	}
	date, err := h.optionalDay(req.Date)
	if err != nil {
		fail(c, err)
		return
	}
	data := &domain.ExtractedData{
		Merchant:      req.Merchant,
		Amount:        req.Amount,
		Date:          date,
		Confidence:    req.Confidence,
		Currency:      req.Currency,
		VATAmount:     req.VATAmount,
		InvoiceNumber: req.InvoiceNumber,
		LineItems:     req.LineItems,
	}
	if req.Category != nil {
		category := domain.InvoiceCategory(*req.Category)
		data.Category = &category
	}

	inv, err := h.invoices.AttachExtraction(c.Request.Context(), id, data)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Extraction attached", inv)
}

// GetInvoice godoc
// @Summary Get an invoice
// @Tags invoices
// @Produce json
// @Param id path string true "Invoice ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/invoices/{id} [get]
func (h *InvoiceHandler) GetInvoice(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	inv, err := h.invoices.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Invoice retrieved successfully", inv)
}

// ListInvoices godoc
// @Summary List invoices
// @Description By package (optionally within a month) or by month across all packages.
// @Tags invoices
// @Produce json
// @Param package_id query string false "Package ID"
// @Param month query string false "YYYY-MM"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /api/v1/invoices [get]
func (h *InvoiceHandler) ListInvoices(c *gin.Context) {
	packageID := c.Query("package_id")
	month := c.Query("month")

	var (
		invoices []domain.Invoice
		err      error
	)
	switch {
	case packageID != "":
		if packageID, err = parseID("package_id", packageID); err != nil {
			fail(c, err)
			return
		}
		var p *period.Period
		if p, err = h.optionalMonth(month); err != nil {
			fail(c, err)
			return
		}
		invoices, err = h.invoices.ListByPackage(c.Request.Context(), packageID, p)
	case month != "":
		var p period.Period
		if p, err = h.month(month); err != nil {
			fail(c, err)
			return
		}
		invoices, err = h.invoices.ListByPeriod(c.Request.Context(), p)
	default:
		err = apperrors.InvalidInput("handler.ListInvoices", "package_id or month is required", nil)
	}
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Invoices retrieved successfully", invoices)
}
