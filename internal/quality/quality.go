// Package quality derives per-order quality test records and gates certificate access.
package quality

import (
	"errors"
	"math"
	"strings"
	"time"

	"rmc-erp/internal/entity"
)

const (
	SlumpRequiredRange = "75 - 125 mm"
	MixDesignDetails   = "Approved as per IS 10262 and plant QC protocol"

	RemarksPass   = "Concrete quality meets required standards."
	RemarksReview = "Under quality review."

	slumpMin = 75.0
	slumpMax = 125.0
)

// ErrCertificateUnavailable is returned when a certificate is requested for a record
// whose certificate has not been generated.
var ErrCertificateUnavailable = errors.New("Quality certificate not generated")

// RequiredStrength is the 28-day characteristic strength in MPa for grade.
func RequiredStrength(grade string) float64 {
	switch strings.ToUpper(strings.TrimSpace(grade)) {
	case "M25":
		return 25
	case "M30":
		return 30
	case "M35":
		return 35
	default:
		return 20
	}
}

// MaterialProportions is the approved mix ratio for grade.
func MaterialProportions(grade string) string {
	switch strings.ToUpper(strings.TrimSpace(grade)) {
	case "M25":
		return "Cement:1, Sand:1.2, Aggregate:2.8, Water-Cement Ratio:0.42"
	case "M30":
		return "Cement:1, Sand:1.1, Aggregate:2.6, Water-Cement Ratio:0.40"
	case "M35":
		return "Cement:1, Sand:1.0, Aggregate:2.4, Water-Cement Ratio:0.38"
	default:
		return "Cement:1, Sand:1.5, Aggregate:3, Water-Cement Ratio:0.45"
	}
}

// stringHash is the 31-multiplier polynomial hash over UTF-16 code units with int32
// wrap-around. Existing plant records were seeded with it, so it must stay stable.
func stringHash(s string) int32 {
	var h int32
	for _, r := range s {
		if r >= 0x10000 {
			r -= 0x10000
			h = 31*h + int32(0xD800+(r>>10))
			h = 31*h + int32(0xDC00+(r&0x3FF))
			continue
		}
		h = 31*h + int32(r)
	}
	return h
}

// Variance is the plant batch offset for an order: |hash(orderId) mod 3|.
func Variance(orderID string) float64 {
	v := stringHash(orderID) % 3
	if v < 0 {
		v = -v
	}
	return float64(v)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// HasRecord reports whether quality data exists for status. Orders still awaiting
// approval or rejected never reach the plant.
func HasRecord(status entity.OrderStatus) bool {
	return status != entity.StatusPendingApproval && status != entity.StatusRejected && status != ""
}

// Evaluate builds the quality record for order. ok is false when the order has not
// been produced.
func Evaluate(order entity.Order, now time.Time) (rec entity.QualityRecord, ok bool) {
	if !HasRecord(order.Status) {
		return entity.QualityRecord{}, false
	}

	required := RequiredStrength(order.Grade)
	variance := Variance(order.OrderID)
	slump := 95 + variance*5
	cube7 := round2(required*0.72 + variance)
	cube28 := round2(required*1.05 + variance)

	rec = entity.QualityRecord{
		OrderID:                  order.OrderID,
		Grade:                    order.Grade,
		Status:                   string(order.Status),
		ApprovedMixDesignDetails: MixDesignDetails,
		MaterialProportions:      MaterialProportions(order.Grade),
		SlumpTestResultMm:        round2(slump),
		SlumpRequiredRangeMm:     SlumpRequiredRange,
		SlumpWithinStandard:      slump >= slumpMin && slump <= slumpMax,
		RequiredStrengthMpa:      required,
		CubeStrength7DayMpa:      cube7,
		CubeStrength28DayMpa:     cube28,
		Cube7DayWithinStandard:   cube7 >= required*0.65,
		Cube28DayWithinStandard:  cube28 >= required,
	}

	if order.Status == entity.StatusDispatched || order.Status == entity.StatusDelivered {
		number := "QC-" + order.OrderID
		rec.QualityCertificateGenerated = true
		rec.QualityCertificateNumber = &number
		rec.QualityCertificateGeneratedAt = entity.NewDateTime(now.Add(-24 * time.Hour))
	}

	rec.QualityRemarks = RemarksReview
	if rec.SlumpWithinStandard && rec.Cube28DayWithinStandard {
		rec.QualityRemarks = RemarksPass
	}
	return rec, true
}

// EvaluateAll keeps the records of produced orders, preserving order.
func EvaluateAll(orders []entity.Order, now time.Time) []entity.QualityRecord {
	records := make([]entity.QualityRecord, 0, len(orders))
	for _, o := range orders {
		if rec, ok := Evaluate(o, now); ok {
			records = append(records, rec)
		}
	}
	return records
}

// CanDownloadCertificate trusts the server flag only. The pass/fail flags on the
// record are never re-derived on the client.
func CanDownloadCertificate(rec entity.QualityRecord) bool {
	return rec.QualityCertificateGenerated
}
