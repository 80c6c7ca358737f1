package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"rmc-erp/internal/billing"
	"rmc-erp/internal/entity"
	"rmc-erp/internal/service"
)

// IdempotencyHeader carries the client's per-attempt payment key.
const IdempotencyHeader = "Idempotent-Key"

type BillingHandler struct {
	paymentService *service.PaymentService
}

func NewBillingHandler(paymentService *service.PaymentService) *BillingHandler {
	return &BillingHandler{paymentService: paymentService}
}

// Statements --> /api/billing/my-orders/:userId
func (h *BillingHandler) Statements(c echo.Context) error {
	userID, err := ownerID(c, "userId")
	if err != nil {
		return respondError(c, err, "Unable to load billing")
	}
	summaries, err := h.paymentService.Statements(c.Request().Context(), userID)
	if err != nil {
		return respondError(c, err, "Unable to load billing")
	}
	return c.JSON(http.StatusOK, summaries)
}

type paymentRequest struct {
	Amount float64 `json:"amount"`
	Method string  `json:"method"`
}

// PaymentResponse is the body of a recorded or replayed payment.
type PaymentResponse struct {
	Message  string               `json:"message"`
	Payment  entity.PaymentRecord `json:"payment"`
	Summary  billing.Summary      `json:"summary"`
	Replayed bool                 `json:"replayed"`
}

// RecordPayment --> POST /api/billing/my-orders/:userId/orders/:orderId/payments
func (h *BillingHandler) RecordPayment(c echo.Context) error {
	userID, err := ownerID(c, "userId")
	if err != nil {
		return respondError(c, err, "Payment failed")
	}
	var req paymentRequest
	if err := c.Bind(&req); err != nil {
		return message(c, http.StatusBadRequest, "Invalid request payload")
	}

	res, err := h.paymentService.RecordPayment(c.Request().Context(), service.PaymentRequest{
		UserID:         userID,
		OrderID:        c.Param("orderId"),
		Amount:         req.Amount,
		Method:         req.Method,
		IdempotencyKey: c.Request().Header.Get(IdempotencyHeader),
	})
	if err != nil {
		return respondError(c, err, "Payment failed")
	}

	msg := "Payment recorded successfully"
	if res.Replayed {
		msg = "Payment already recorded"
	}
	return c.JSON(http.StatusOK, PaymentResponse{
		Message:  msg,
		Payment:  res.Payment,
		Summary:  res.Summary,
		Replayed: res.Replayed,
	})
}

// Invoice --> /api/billing/my-orders/:userId/orders/:orderId/invoice
func (h *BillingHandler) Invoice(c echo.Context) error {
	userID, err := ownerID(c, "userId")
	if err != nil {
		return respondError(c, err, "Unable to render invoice")
	}
	page, err := h.paymentService.Invoice(c.Request().Context(), userID, c.Param("orderId"))
	if err != nil {
		return respondError(c, err, "Unable to render invoice")
	}
	return c.HTML(http.StatusOK, page)
}
