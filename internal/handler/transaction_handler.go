package handler

import (
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"travel-ledger/internal/apperrors"
	"travel-ledger/internal/domain"
	"travel-ledger/internal/period"
	"travel-ledger/internal/service"
	"travel-ledger/pkg/logger"
	"travel-ledger/pkg/response"
)

type TransactionHandler struct {
	periodParams
	service service.TransactionService
}

func NewTransactionHandler(service service.TransactionService, resolver *period.Resolver, now func() time.Time) *TransactionHandler {
	if now == nil {
		now = time.Now
	}
	return &TransactionHandler{periodParams: periodParams{resolver: resolver, now: now}, service: service}
}

type CreateTransactionRequest struct {
	TransactionDate string          `json:"transaction_date" binding:"required"`
	Description     string          `json:"description"`
	Amount          decimal.Decimal `json:"amount"`
	PackageID       *string         `json:"package_id"`
	NeedsInvoice    *bool           `json:"needs_invoice"`
}

type AssignPackageRequest struct {
	PackageID *string `json:"package_id"`
}

// CreateTransaction godoc
// @Summary Record a bank transaction
// @Description Amount is signed; needs_invoice defaults to true.
// @Tags transactions
// @Accept json
// @Produce json
// @Param transaction body CreateTransactionRequest true "Transaction data"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /api/v1/transactions [post]
func (h *TransactionHandler) CreateTransaction(c *gin.Context) {
	var req CreateTransactionRequest
	if !bindJSON(c, &req) {
		return
	}
	date, err := h.day(req.TransactionDate)
	if err != nil {
		fail(c, err)
		return
	}
	packageID, err := parseOptionalID("package_id", req.PackageID)
	if err != nil {
		fail(c, err)
		return
	}

	tx := &domain.BankTransaction{
		TransactionDate: date,
		Description:     req.Description,
		Amount:          req.Amount,
		PackageID:       packageID,
		NeedsInvoice:    true,
	}
	if req.NeedsInvoice != nil {
		tx.NeedsInvoice = *req.NeedsInvoice
	}

	if err := h.service.Create(c.Request.Context(), tx); err != nil {
		logger.GetLogger().WithError(err).Error("Failed to create transaction")
		fail(c, err)
		return
	}
	response.Success(c, http.StatusCreated, "Transaction created successfully", tx)
}

// ImportTransactions godoc
// @Summary Import a bank statement CSV
// @Description Accepts a multipart "file" field or a raw text/csv body with columns transaction_date, description, amount and optionally package_id, needs_invoice.
// @Tags transactions
// @Accept multipart/form-data
// @Accept text/csv
// @Produce json
// @Param file formData file false "Statement CSV"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /api/v1/transactions/import [post]
func (h *TransactionHandler) ImportTransactions(c *gin.Context) {
	var body io.Reader = c.Request.Body
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		header, err := c.FormFile("file")
		if err != nil {
			fail(c, apperrors.InvalidInput("handler.ImportTransactions", "file field is required", err))
			return
		}
		file, err := header.Open()
		if err != nil {
			fail(c, apperrors.InvalidInput("handler.ImportTransactions", "unreadable upload", err))
			return
		}
		defer file.Close()
		body = file
	}

	result, err := h.service.Import(c.Request.Context(), body)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Statement imported", result)
}

// GetTransaction godoc
// @Summary Get a bank transaction
// @Tags transactions
// @Produce json
// @Param id path string true "Transaction ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/transactions/{id} [get]
func (h *TransactionHandler) GetTransaction(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	tx, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Transaction retrieved successfully", tx)
}

// ListTransactions godoc
// @Summary List bank transactions of a month
// @Tags transactions
// @Produce json
// @Param month query string false "YYYY-MM, defaults to the current month"
// @Param status query string false "pending, matched or ignored"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /api/v1/transactions [get]
func (h *TransactionHandler) ListTransactions(c *gin.Context) {
	p, err := h.month(c.Query("month"))
	if err != nil {
		fail(c, err)
		return
	}
	txs, err := h.service.List(c.Request.Context(), p.Range(), domain.TransactionStatus(c.Query("status")))
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Transactions retrieved successfully", txs)
}

// IgnoreTransaction godoc
// @Summary Mark a transaction as not needing an invoice
// @Tags transactions
// @Produce json
// @Param id path string true "Transaction ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 412 {object} response.Response
// @Router /api/v1/transactions/{id}/ignore [post]
func (h *TransactionHandler) IgnoreTransaction(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	tx, err := h.service.Ignore(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Transaction ignored", tx)
}

// AssignPackage godoc
// @Summary Link a transaction to a package
// @Tags transactions
// @Accept json
// @Produce json
// @Param id path string true "Transaction ID"
// @Param body body AssignPackageRequest true "Package ID, null to unlink"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /api/v1/transactions/{id}/package [put]
func (h *TransactionHandler) AssignPackage(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req AssignPackageRequest
	if !bindJSON(c, &req) {
		return
	}
	packageID, err := parseOptionalID("package_id", req.PackageID)
	if err != nil {
		fail(c, err)
		return
	}
	tx, err := h.service.AssignPackage(c.Request.Context(), id, packageID)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Transaction updated", tx)
}
