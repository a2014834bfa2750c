package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/swimlab-mx/club-api/internal/service"
	appErrors "github.com/swimlab-mx/club-api/pkg/errors"
	"github.com/swimlab-mx/club-api/pkg/response"
)

// BillingHandler exposes payment and standing endpoints.
type BillingHandler struct {
	billing *service.BillingService
}

// NewBillingHandler constructs BillingHandler.
func NewBillingHandler(billing *service.BillingService) *BillingHandler {
	return &BillingHandler{billing: billing}
}

// Status godoc
// @Summary Member payment standing
// @Tags Billing
// @Produce json
// @Param id path string true "Member ID"
// @Success 200 {object} response.Envelope
// @Router /members/{id}/billing [get]
func (h *BillingHandler) Status(c *gin.Context) {
	status, err := h.billing.Status(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, status, nil)
}

// Quote godoc
// @Summary Suggested amount for a concept from the member's rate
// @Tags Billing
// @Produce json
// @Param id path string true "Member ID"
// @Param concept query string true "Payment concept"
// @Success 200 {object} response.Envelope
// @Router /members/{id}/billing/quote [get]
func (h *BillingHandler) Quote(c *gin.Context) {
	quote, err := h.billing.Quote(c.Request.Context(), c.Param("id"), c.Query("concept"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, quote, nil)
}

// History godoc
// @Summary Member payment history, newest first
// @Tags Billing
// @Produce json
// @Param id path string true "Member ID"
// @Param limit query int false "Max entries" default(50)
// @Success 200 {object} response.Envelope
// @Router /members/{id}/payments [get]
func (h *BillingHandler) History(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	payments, err := h.billing.History(c.Request.Context(), c.Param("id"), limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, payments, nil)
}

// Create godoc
// @Summary Record a payment
// @Tags Billing
// @Accept json
// @Produce json
// @Param payload body service.RecordPaymentRequest true "Payment payload"
// @Success 201 {object} response.Envelope
// @Router /payments [post]
func (h *BillingHandler) Create(c *gin.Context) {
	var req service.RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	payment, err := h.billing.RecordPayment(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, payment)
}

// Receipt godoc
// @Summary Download the receipt PDF for a payment
// @Tags Billing
// @Produce application/pdf
// @Param id path string true "Payment ID"
// @Success 200 {file} binary
// @Router /payments/{id}/receipt [get]
func (h *BillingHandler) Receipt(c *gin.Context) {
	pdf, folio, err := h.billing.Receipt(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.pdf"`, folio))
	c.Data(http.StatusOK, "application/pdf", pdf)
}
