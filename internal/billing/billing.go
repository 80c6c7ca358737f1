// Package billing derives invoice totals from an order and its payment ledger.
package billing

import (
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"

	"rmc-erp/internal/apperr"
	"rmc-erp/internal/entity"
	"rmc-erp/internal/lifecycle"
)

var gstRate = decimal.RequireFromString("0.18")

// DueAfter is the payment window counted from arrival or delivery.
const DueAfter = 7 * 24 * time.Hour

// Summary is the billing statement for a single order.
type Summary struct {
	OrderID       string                 `json:"orderId"`
	Grade         string                 `json:"grade"`
	Quantity      float64                `json:"quantity"`
	RatePerUnit   float64                `json:"ratePerUnit"`
	Subtotal      float64                `json:"subtotal"`
	GST           float64                `json:"gst"`
	TotalPayable  float64                `json:"totalPayable"`
	TotalPaid     float64                `json:"totalPaid"`
	Outstanding   float64                `json:"outstanding"`
	PaymentStatus string                 `json:"paymentStatus"`
	DueDate       time.Time              `json:"dueDate"`
	Payments      []entity.PaymentRecord `json:"payments"`
}

// Summarize is a pure function of the order, its ledger and the clock. Ledger entries
// for other orders are ignored.
func Summarize(order entity.Order, ledger []entity.PaymentRecord, now time.Time) Summary {
	rate := decimal.NewFromFloat(lifecycle.Rate(order.Grade))
	subtotal := decimal.NewFromFloat(order.TotalPrice)
	if !subtotal.IsPositive() {
		subtotal = rate.Mul(decimal.NewFromFloat(order.Quantity))
	}
	gst := subtotal.Mul(gstRate)
	payable := subtotal.Add(gst).Round(2)

	paid := decimal.Zero
	payments := make([]entity.PaymentRecord, 0, len(ledger))
	for _, p := range ledger {
		if p.OrderID != order.OrderID {
			continue
		}
		paid = paid.Add(decimal.NewFromFloat(p.Amount))
		payments = append(payments, p)
	}

	outstanding := decimal.Max(decimal.Zero, payable.Sub(paid))

	status := entity.PaymentPending
	switch {
	case outstanding.IsZero():
		status = entity.PaymentPaid
	case paid.IsPositive():
		status = entity.PaymentPartiallyPaid
	}

	return Summary{
		OrderID:       order.OrderID,
		Grade:         order.Grade,
		Quantity:      order.Quantity,
		RatePerUnit:   rate.InexactFloat64(),
		Subtotal:      subtotal.Round(2).InexactFloat64(),
		GST:           gst.Round(2).InexactFloat64(),
		TotalPayable:  payable.Round(2).InexactFloat64(),
		TotalPaid:     paid.Round(2).InexactFloat64(),
		Outstanding:   outstanding.Round(2).InexactFloat64(),
		PaymentStatus: status,
		DueDate:       DueDate(order, now),
		Payments:      payments,
	}
}

// DueDate is the expected arrival, else the delivery date, else now, plus DueAfter.
func DueDate(order entity.Order, now time.Time) time.Time {
	base := now
	switch {
	case order.ExpectedArrivalTime.IsSet():
		base = order.ExpectedArrivalTime.Time
	case order.DeliveryDate.IsSet():
		base = order.DeliveryDate.Time
	}
	return base.Add(DueAfter)
}

// RecordPayment validates a payment against the summary and returns the ledger entry
// to append. The summary itself is not modified.
func RecordPayment(summary Summary, amount float64, method string, now time.Time) (entity.PaymentRecord, error) {
	value := decimal.NewFromFloat(amount).Round(2)
	if !value.IsPositive() {
		return entity.PaymentRecord{}, apperr.Validation("Enter a valid amount.")
	}
	if value.GreaterThan(decimal.NewFromFloat(summary.Outstanding)) {
		return entity.PaymentRecord{}, apperr.Validation("Amount exceeds outstanding balance.")
	}
	m, ok := entity.ParsePaymentMethod(method)
	if !ok {
		return entity.PaymentRecord{}, apperr.Validation(fmt.Sprintf("Unsupported payment method %q", strings.TrimSpace(method)))
	}
	return entity.PaymentRecord{
		OrderID:       summary.OrderID,
		Amount:        value.InexactFloat64(),
		Method:        m,
		PaidAt:        now.UTC(),
		TransactionID: NewTransactionID(now),
	}, nil
}

// NewTransactionID returns a unique, time-ordered transaction token.
func NewTransactionID(now time.Time) string {
	return "TXN-" + ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()).String()
}
