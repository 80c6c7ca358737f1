package quality

import (
	"bytes"
	"fmt"
	"html/template"

	"rmc-erp/internal/entity"
)

const certificateHTMLTemplate = `<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8" />
  <title>{{deref .Record.QualityCertificateNumber}}</title>
</head>
<body>
  <h1 id="title">RMC ERP - QUALITY CERTIFICATE</h1>
  <div id="certificate-number">Certificate No: {{deref .Record.QualityCertificateNumber}}</div>
  <div id="generated-at">Generated: {{.Record.QualityCertificateGeneratedAt.Format "02/01/2006 15:04"}}</div>
  <div id="customer">Customer: {{.Customer.Name}}</div>
  <table>
    <tr><th>Order ID</th><td id="order-id">{{.Record.OrderID}}</td></tr>
    <tr><th>Grade</th><td>{{.Record.Grade}}</td></tr>
    <tr><th>Mix Design</th><td>{{.Record.ApprovedMixDesignDetails}}</td></tr>
    <tr><th>Material Proportions</th><td>{{.Record.MaterialProportions}}</td></tr>
    <tr id="slump"><th>Slump Test</th><td>{{.Record.SlumpTestResultMm}} mm (required {{.Record.SlumpRequiredRangeMm}}) {{verdict .Record.SlumpWithinStandard}}</td></tr>
    <tr id="cube7"><th>7-Day Cube Strength</th><td>{{.Record.CubeStrength7DayMpa}} MPa {{verdict .Record.Cube7DayWithinStandard}}</td></tr>
    <tr id="cube28"><th>28-Day Cube Strength</th><td>{{.Record.CubeStrength28DayMpa}} MPa (required {{.Record.RequiredStrengthMpa}} MPa) {{verdict .Record.Cube28DayWithinStandard}}</td></tr>
  </table>
  <p id="remarks">{{.Record.QualityRemarks}}</p>
</body>
</html>
`

var certificateTemplate = template.Must(template.New("certificate").Funcs(template.FuncMap{
	"deref": func(s *string) string {
		if s == nil {
			return ""
		}
		return *s
	},
	"verdict": func(ok bool) string {
		if ok {
			return "PASS"
		}
		return "FAIL"
	},
}).Parse(certificateHTMLTemplate))

// CertificateInput is what a printed certificate shows.
type CertificateInput struct {
	Record   entity.QualityRecord
	Customer entity.User
}

// RenderCertificate renders the certificate for a record whose certificate exists.
func RenderCertificate(in CertificateInput) (string, error) {
	if !CanDownloadCertificate(in.Record) {
		return "", ErrCertificateUnavailable
	}
	var buf bytes.Buffer
	if err := certificateTemplate.Execute(&buf, in); err != nil {
		return "", fmt.Errorf("render certificate %s: %w", in.Record.OrderID, err)
	}
	return buf.String(), nil
}
