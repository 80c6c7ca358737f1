package entity

// QualityRecord is the per-order quality projection served to customers. The
// within-standard flags are decided by the server and must be shown as-is.
type QualityRecord struct {
	OrderID                       string    `json:"orderId"`
	Grade                         string    `json:"grade"`
	Status                        string    `json:"status"`
	ApprovedMixDesignDetails      string    `json:"approvedMixDesignDetails"`
	MaterialProportions           string    `json:"materialProportions"`
	SlumpTestResultMm             float64   `json:"slumpTestResultMm"`
	SlumpRequiredRangeMm          string    `json:"slumpRequiredRangeMm"`
	SlumpWithinStandard           bool      `json:"slumpWithinStandard"`
	CubeStrength7DayMpa           float64   `json:"cubeStrength7DayMpa"`
	CubeStrength28DayMpa          float64   `json:"cubeStrength28DayMpa"`
	RequiredStrengthMpa           float64   `json:"requiredStrengthMpa"`
	Cube7DayWithinStandard        bool      `json:"cube7DayWithinStandard"`
	Cube28DayWithinStandard       bool      `json:"cube28DayWithinStandard"`
	QualityCertificateGenerated   bool      `json:"qualityCertificateGenerated"`
	QualityCertificateNumber      *string   `json:"qualityCertificateNumber"`
	QualityCertificateGeneratedAt *DateTime `json:"qualityCertificateGeneratedAt"`
	QualityRemarks                string    `json:"qualityRemarks"`
}
