package entity

import (
	"strings"
	"time"
)

type PaymentMethod string

const (
	MethodUPI            PaymentMethod = "UPI"
	MethodOnlineTransfer PaymentMethod = "ONLINE_TRANSFER"
	MethodBankPayment    PaymentMethod = "BANK_PAYMENT"
)

// ParsePaymentMethod normalises s and reports whether it names a supported method.
func ParsePaymentMethod(s string) (PaymentMethod, bool) {
	switch m := PaymentMethod(strings.ToUpper(strings.TrimSpace(s))); m {
	case MethodUPI, MethodOnlineTransfer, MethodBankPayment:
		return m, true
	}
	return "", false
}

const (
	PaymentPending       = "PENDING"
	PaymentPartiallyPaid = "PARTIALLY_PAID"
	PaymentPaid          = "PAID"
)

// PaymentRecord is an append-only ledger entry. Records are never updated or deleted
// except when their order is deleted.
type PaymentRecord struct {
	ID             int64         `json:"-"`
	OrderID        string        `json:"orderId"`
	UserID         int64         `json:"userId"`
	Amount         float64       `json:"amount"`
	Method         PaymentMethod `json:"method"`
	PaidAt         time.Time     `json:"paidAt"`
	TransactionID  string        `json:"transactionId"`
	IdempotencyKey string        `json:"-"`
}
