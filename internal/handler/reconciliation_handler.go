package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"travel-ledger/internal/apperrors"
	"travel-ledger/internal/domain"
	"travel-ledger/internal/matcher"
	"travel-ledger/internal/period"
	"travel-ledger/internal/service"
	"travel-ledger/pkg/logger"
	"travel-ledger/pkg/response"
)

type ReconciliationHandler struct {
	periodParams
	service service.ReconciliationService
}

func NewReconciliationHandler(service service.ReconciliationService, resolver *period.Resolver, now func() time.Time) *ReconciliationHandler {
	if now == nil {
		now = time.Now
	}
	return &ReconciliationHandler{periodParams: periodParams{resolver: resolver, now: now}, service: service}
}

type ProposeRequest struct {
	InvoiceID     string `json:"invoice_id" binding:"required"`
	TransactionID string `json:"transaction_id" binding:"required"`
}

// ProposeMatch godoc
// @Summary Propose an invoice-transaction match
// @Tags matches
// @Accept json
// @Produce json
// @Param request body ProposeRequest true "Pair to match"
// @Success 201 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Failure 412 {object} response.Response
// @Router /api/v1/matches [post]
func (h *ReconciliationHandler) ProposeMatch(c *gin.Context) {
	var req ProposeRequest
	if !bindJSON(c, &req) {
		return
	}
	invoiceID, err := parseID("invoice_id", req.InvoiceID)
	if err != nil {
		fail(c, err)
		return
	}
	transactionID, err := parseID("transaction_id", req.TransactionID)
	if err != nil {
		fail(c, err)
		return
	}

	logger.GetLogger().WithFields(map[string]interface{}{
		"invoice_id":     invoiceID,
		"transaction_id": transactionID,
	}).Info("Proposing match")

	m, err := h.service.Propose(c.Request.Context(), invoiceID, transactionID)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusCreated, "Match proposed", m)
}

// GetMatch godoc
// @Summary Get a match
// @Tags matches
// @Produce json
// @Param id path string true "Match ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/matches/{id} [get]
func (h *ReconciliationHandler) GetMatch(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	m, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Match retrieved successfully", m)
}

// ListMatches godoc
// @Summary List matches of an invoice or a transaction
// @Tags matches
// @Produce json
// @Param invoice_id query string false "Invoice ID"
// @Param transaction_id query string false "Transaction ID"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/v1/matches [get]
func (h *ReconciliationHandler) ListMatches(c *gin.Context) {
	var (
		matches []domain.Match
		err     error
	)
	switch {
	case c.Query("invoice_id") != "":
		var invoiceID string
		if invoiceID, err = parseID("invoice_id", c.Query("invoice_id")); err == nil {
			matches, err = h.service.ListByInvoice(c.Request.Context(), invoiceID)
		}
	case c.Query("transaction_id") != "":
		var transactionID string
		if transactionID, err = parseID("transaction_id", c.Query("transaction_id")); err == nil {
			matches, err = h.service.ListByTransaction(c.Request.Context(), transactionID)
		}
	default:
		err = apperrors.InvalidInput("handler.ListMatches", "invoice_id or transaction_id is required", nil)
	}
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Matches retrieved successfully", matches)
}

// ConfirmMatch godoc
// @Summary Confirm a pending match
// @Description Marks the transaction matched. Fails with 409 when either side already has a confirmed match.
// @Tags matches
// @Produce json
// @Param id path string true "Match ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Failure 412 {object} response.Response
// @Failure 503 {object} response.Response
// @Router /api/v1/matches/{id}/confirm [post]
func (h *ReconciliationHandler) ConfirmMatch(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	m, err := h.service.Confirm(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Match confirmed", m)
}

// RejectMatch godoc
// @Summary Reject a pending match
// @Tags matches
// @Produce json
// @Param id path string true "Match ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 412 {object} response.Response
// @Router /api/v1/matches/{id}/reject [post]
func (h *ReconciliationHandler) RejectMatch(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	m, err := h.service.Reject(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Match rejected", m)
}

func (h *ReconciliationHandler) suggestParams(c *gin.Context) (period.Period, matcher.SuggestOptions, error) {
	p, err := h.month(c.Query("month"))
	if err != nil {
		return period.Period{}, matcher.SuggestOptions{}, err
	}
	minScore, err := queryFloat(c, "min_score")
	if err != nil {
		return period.Period{}, matcher.SuggestOptions{}, err
	}
	limit, err := queryInt(c, "limit", 0)
	if err != nil {
		return period.Period{}, matcher.SuggestOptions{}, err
	}
	return p, matcher.SuggestOptions{MinScore: minScore, Limit: limit}, nil
}

// SuggestMatches godoc
// @Summary Score candidate pairs for a month
// @Tags matches
// @Produce json
// @Param month query string false "YYYY-MM, defaults to the current month"
// @Param min_score query number false "Lowest score to return"
// @Param limit query int false "Maximum suggestions"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /api/v1/matches/suggestions [get]
func (h *ReconciliationHandler) SuggestMatches(c *gin.Context) {
	p, opts, err := h.suggestParams(c)
	if err != nil {
		fail(c, err)
		return
	}
	suggestions, err := h.service.Suggest(c.Request.Context(), p, opts)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Suggestions computed", suggestions)
}

// ProposeSuggestions godoc
// @Summary Propose the best suggestion per transaction
// @Tags matches
// @Produce json
// @Param month query string false "YYYY-MM, defaults to the current month"
// @Param min_score query number false "Lowest score to propose"
// @Param limit query int false "Maximum proposals"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /api/v1/matches/suggestions/propose [post]
func (h *ReconciliationHandler) ProposeSuggestions(c *gin.Context) {
	p, opts, err := h.suggestParams(c)
	if err != nil {
		fail(c, err)
		return
	}
	matches, err := h.service.AutoPropose(c.Request.Context(), p, opts)
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Suggestions proposed", matches)
}
