package billing

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"rmc-erp/internal/entity"
)

const invoiceHTMLTemplate = `<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8" />
  <title>INV-{{.Order.OrderID}}</title>
  <style>
    body { margin: 0; padding: 32px; font-family: "Helvetica Neue", Arial, sans-serif; color: #111827; }
    .invoice { max-width: 820px; margin: 0 auto; }
    .header { display: flex; justify-content: space-between; border-bottom: 2px solid #1f2937; padding-bottom: 16px; }
    table { width: 100%; border-collapse: collapse; font-size: 14px; margin-top: 24px; }
    th, td { padding: 10px; border-bottom: 1px solid #e5e7eb; text-align: left; }
    .totals td { font-weight: 600; }
  </style>
</head>
<body>
  <div class="invoice">
    <div class="header">
      <div>
        <h1 id="title">RMC ERP - TAX INVOICE</h1>
        <div id="invoice-number">Invoice No: INV-{{.Order.OrderID}}</div>
      </div>
      <div>
        <div id="issued">Date: {{formatDate .IssuedAt}}</div>
        <div id="due">Due Date: {{formatDate .Summary.DueDate}}</div>
        <div id="payment-status">Payment Status: {{.Summary.PaymentStatus}}</div>
      </div>
    </div>

    <div class="section" id="bill-to">
      <div><strong>Bill To</strong></div>
      <div>{{.Customer.Name}}</div>
      <div>{{.Customer.Email}}</div>
      <div>{{.Customer.Number}}</div>
      <div>{{.Order.Address}}</div>
    </div>

    <div class="section" id="order">
      <div>Order ID: {{.Order.OrderID}}</div>
      <div>Concrete Grade: {{.Order.Grade}}</div>
      <div>Order Status: {{.Order.Status}}</div>
      <div>Delivery Date: {{formatDateTime .Order.DeliveryDate}}</div>
    </div>

    <table>
      <thead>
        <tr>
          <th>Description</th>
          <th>Qty</th>
          <th>Rate</th>
          <th>Amount</th>
        </tr>
      </thead>
      <tbody>
        <tr class="line">
          <td>Ready Mix Concrete {{.Order.Grade}}</td>
          <td>{{formatQuantity .Order.Quantity}} m3</td>
          <td>{{formatMoney .Summary.RatePerUnit}}</td>
          <td>{{formatMoney .Summary.Subtotal}}</td>
        </tr>
      </tbody>
      <tfoot class="totals">
        <tr id="subtotal"><td colspan="3">Subtotal</td><td>{{formatMoney .Summary.Subtotal}}</td></tr>
        <tr id="gst"><td colspan="3">GST (18%)</td><td>{{formatMoney .Summary.GST}}</td></tr>
        <tr id="grand-total"><td colspan="3">Grand Total</td><td>{{formatMoney .Summary.TotalPayable}}</td></tr>
        <tr id="paid"><td colspan="3">Paid</td><td>{{formatMoney .Summary.TotalPaid}}</td></tr>
        <tr id="outstanding"><td colspan="3">Outstanding</td><td>{{formatMoney .Summary.Outstanding}}</td></tr>
      </tfoot>
    </table>
  </div>
</body>
</html>
`

var (
	invoiceTemplate = template.Must(template.New("invoice").Funcs(template.FuncMap{
		"formatMoney":    FormatINR,
		"formatDate":     formatDate,
		"formatDateTime": formatDateTime,
		"formatQuantity": formatQuantity,
	}).Parse(invoiceHTMLTemplate))

	inr = message.NewPrinter(language.MustParse("en-IN"))
)

// InvoiceInput is everything printed on a tax invoice.
type InvoiceInput struct {
	Order    entity.Order
	Customer entity.User
	Summary  Summary
	IssuedAt time.Time
}

// RenderInvoice renders an HTML tax invoice.
func RenderInvoice(in InvoiceInput) (string, error) {
	var buf bytes.Buffer
	if err := invoiceTemplate.Execute(&buf, in); err != nil {
		return "", fmt.Errorf("render invoice %s: %w", in.Order.OrderID, err)
	}
	return buf.String(), nil
}

// FormatINR formats v as rupees with Indian digit grouping and two decimals.
func FormatINR(v float64) string {
	return "Rs." + inr.Sprint(number.Decimal(v, number.Scale(2)))
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format("02/01/2006")
}

func formatDateTime(d *entity.DateTime) string {
	if !d.IsSet() {
		return "-"
	}
	return d.Format("02/01/2006 15:04")
}

func formatQuantity(v float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.2f", v), "0"), ".")
}
