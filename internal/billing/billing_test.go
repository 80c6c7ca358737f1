package billing_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"

	"rmc-erp/internal/apperr"
	"rmc-erp/internal/billing"
	"rmc-erp/internal/entity"
	"rmc-erp/internal/lifecycle"
)

var now = time.Date(2025, 4, 10, 12, 0, 0, 0, time.UTC)

func m25Order() entity.Order {
	return entity.Order{OrderID: "ORD-1a2b3c4d", Grade: "M25", Quantity: 10, TotalPrice: 55000, Status: entity.StatusApproved}
}

func TestSummarizeM25Scenario(t *testing.T) {
	t.Parallel()

	s := billing.Summarize(m25Order(), nil, now)
	require.Equal(t, 5500.0, s.RatePerUnit)
	require.Equal(t, 55000.0, s.Subtotal)
	require.Equal(t, 9900.0, s.GST)
	require.Equal(t, 64900.0, s.TotalPayable)
	require.Zero(t, s.TotalPaid)
	require.Equal(t, 64900.0, s.Outstanding)
	require.Equal(t, entity.PaymentPending, s.PaymentStatus)
	require.Empty(t, s.Payments)
}

func TestSummarizeFallsBackToRateWhenTotalPriceMissing(t *testing.T) {
	t.Parallel()

	for _, grade := range lifecycle.Grades() {
		for _, qty := range []float64{1, 2.5, 12} {
			order := entity.Order{OrderID: "ORD-x", Grade: grade, Quantity: qty}
			s := billing.Summarize(order, nil, now)
			require.InDelta(t, lifecycle.Rate(grade)*qty, s.Subtotal, 0.001)
			require.InDelta(t, s.Subtotal*1.18, s.TotalPayable, 0.01)
		}
	}

	unknown := billing.Summarize(entity.Order{OrderID: "ORD-y", Grade: "M90", Quantity: 3}, nil, now)
	require.Zero(t, unknown.Subtotal)
	require.Equal(t, entity.PaymentPaid, unknown.PaymentStatus)
}

func TestPaymentStatusProgression(t *testing.T) {
	t.Parallel()

	order := m25Order()
	ledger := []entity.PaymentRecord{}

	require.Equal(t, entity.PaymentPending, billing.Summarize(order, ledger, now).PaymentStatus)

	ledger = append(ledger, entity.PaymentRecord{OrderID: order.OrderID, Amount: 30000})
	partial := billing.Summarize(order, ledger, now)
	require.Equal(t, entity.PaymentPartiallyPaid, partial.PaymentStatus)
	require.Equal(t, 34900.0, partial.Outstanding)

	ledger = append(ledger, entity.PaymentRecord{OrderID: order.OrderID, Amount: 34900})
	paid := billing.Summarize(order, ledger, now)
	require.Equal(t, entity.PaymentPaid, paid.PaymentStatus)
	require.Zero(t, paid.Outstanding)
	require.Equal(t, 64900.0, paid.TotalPaid)
}

func TestSummarizeIgnoresOtherOrders(t *testing.T) {
	t.Parallel()

	ledger := []entity.PaymentRecord{
		{OrderID: "ORD-other", Amount: 1000},
		{OrderID: "ORD-1a2b3c4d", Amount: 900.5},
	}
	s := billing.Summarize(m25Order(), ledger, now)
	require.Equal(t, 900.5, s.TotalPaid)
	require.Len(t, s.Payments, 1)
}

func TestDueDate(t *testing.T) {
	t.Parallel()

	order := m25Order()
	require.Equal(t, now.Add(7*24*time.Hour), billing.DueDate(order, now))

	delivery := time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC)
	order.DeliveryDate = entity.NewDateTime(delivery)
	require.Equal(t, delivery.Add(billing.DueAfter), billing.DueDate(order, now))

	eta := time.Date(2025, 5, 2, 18, 0, 0, 0, time.UTC)
	order.ExpectedArrivalTime = entity.NewDateTime(eta)
	require.Equal(t, eta.Add(billing.DueAfter), billing.DueDate(order, now))
}

func TestRecordPaymentValidation(t *testing.T) {
	t.Parallel()

	summary := billing.Summarize(m25Order(), nil, now)

	for _, amount := range []float64{0, -10, 64900.01, 100000} {
		_, err := billing.RecordPayment(summary, amount, "UPI", now)
		var ve *apperr.ValidationError
		require.True(t, errors.As(err, &ve), "amount %v", amount)
	}

	_, err := billing.RecordPayment(summary, 100, "CHEQUE", now)
	require.Error(t, err)

	rec, err := billing.RecordPayment(summary, 1234.567, "online_transfer", now)
	require.NoError(t, err)
	require.Equal(t, 1234.57, rec.Amount)
	require.Equal(t, entity.MethodOnlineTransfer, rec.Method)
	require.Equal(t, "ORD-1a2b3c4d", rec.OrderID)
	require.True(t, strings.HasPrefix(rec.TransactionID, "TXN-"))
	require.Equal(t, now, rec.PaidAt)

	full, err := billing.RecordPayment(summary, 64900, "BANK_PAYMENT", now)
	require.NoError(t, err)
	require.Equal(t, 64900.0, full.Amount)
}

func TestRecordPaymentNeverOverdraws(t *testing.T) {
	t.Parallel()

	order := m25Order()
	var ledger []entity.PaymentRecord
	for _, amount := range []float64{20000, 20000, 20000, 20000, 4900} {
		summary := billing.Summarize(order, ledger, now)
		rec, err := billing.RecordPayment(summary, amount, "UPI", now)
		if err != nil {
			continue
		}
		ledger = append(ledger, rec)
		require.LessOrEqual(t, billing.Summarize(order, ledger, now).TotalPaid, summary.TotalPayable)
	}
	final := billing.Summarize(order, ledger, now)
	require.Equal(t, 64900.0, final.TotalPaid)
	require.Equal(t, entity.PaymentPaid, final.PaymentStatus)
}

func TestFractionalQuantityLedgerStaysWithinPayable(t *testing.T) {
	t.Parallel()

	order := entity.Order{OrderID: "ORD-0a0b0c0d", Grade: "M25", Quantity: 0.1111, Status: entity.StatusApproved}
	s := billing.Summarize(order, nil, now)
	require.Equal(t, 721.04, s.TotalPayable)
	require.Equal(t, s.TotalPayable, s.Outstanding)

	payment, err := billing.RecordPayment(s, s.Outstanding, "UPI", now)
	require.NoError(t, err)

	after := billing.Summarize(order, []entity.PaymentRecord{payment}, now)
	require.Equal(t, entity.PaymentPaid, after.PaymentStatus)
	require.Zero(t, after.Outstanding)
	require.LessOrEqual(t, after.TotalPaid, after.TotalPayable)

	_, err = billing.RecordPayment(after, 0.01, "UPI", now)
	require.EqualError(t, err, "Amount exceeds outstanding balance.")
}

func TestTransactionIDsAreUnique(t *testing.T) {
	t.Parallel()

	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id := billing.NewTransactionID(now)
		require.False(t, seen[id])
		seen[id] = true
	}
}

func TestFormatINR(t *testing.T) {
	t.Parallel()

	require.Equal(t, "Rs.64,900.00", billing.FormatINR(64900))
	require.Equal(t, "Rs.9,900.00", billing.FormatINR(9900))
	require.Equal(t, "Rs.0.50", billing.FormatINR(0.5))
}

func TestRenderInvoice(t *testing.T) {
	t.Parallel()

	order := m25Order()
	order.Address = "Plot 7 <MIDC>"
	ledger := []entity.PaymentRecord{{OrderID: order.OrderID, Amount: 30000}}
	html, err := billing.RenderInvoice(billing.InvoiceInput{
		Order:    order,
		Customer: entity.User{Name: "Asha Rao", Email: "asha@example.com"},
		Summary:  billing.Summarize(order, ledger, now),
		IssuedAt: now,
	})
	require.NoError(t, err)

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	require.Equal(t, "RMC ERP - TAX INVOICE", doc.Find("#title").Text())
	require.Equal(t, "Invoice No: INV-ORD-1a2b3c4d", strings.TrimSpace(doc.Find("#invoice-number").Text()))
	require.Contains(t, doc.Find("#gst").Text(), "Rs.9,900.00")
	require.Contains(t, doc.Find("#grand-total").Text(), "Rs.64,900.00")
	require.Contains(t, doc.Find("#outstanding").Text(), "Rs.34,900.00")
	require.Contains(t, doc.Find("#payment-status").Text(), entity.PaymentPartiallyPaid)
	require.Contains(t, doc.Find("#bill-to").Text(), "Plot 7 <MIDC>")
	require.NotContains(t, html, "<MIDC>")
}
