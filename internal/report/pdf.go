// Package report renders printable and exportable views of invoices. All
// rendering works off the persisted snapshot; nothing in here recomputes
// totals.
package report

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf/v2"
	"go.uber.org/zap"

	"github.com/checkmatevirtue/invoicing/internal/domain/client"
	"github.com/checkmatevirtue/invoicing/internal/domain/invoice"
)

// CompanyInfo is the issuing business shown on rendered documents.
type CompanyInfo struct {
	Name    string
	Address string
	Phone   string
	Email   string
	Website string
}

// Generator produces invoice documents.
type Generator struct {
	company CompanyInfo
	logger  *zap.Logger
}

// NewGenerator creates a document generator for the given business.
func NewGenerator(company CompanyInfo, logger *zap.Logger) *Generator {
	return &Generator{company: company, logger: logger}
}

// InvoicePDF renders a single invoice as a PDF document.
func (g *Generator) InvoicePDF(inv *invoice.Invoice, cl *client.Client) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 10, 10)
	pdf.AddPage()

	// Header
	pdf.SetFont("Arial", "B", 18)
	pdf.CellFormat(120, 10, g.company.Name, "", 0, "L", false, 0, "")
	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(70, 10, "INVOICE", "", 1, "R", false, 0, "")

	pdf.SetFont("Arial", "", 9)
	for _, line := range []string{g.company.Address, g.company.Phone, g.company.Email, g.company.Website} {
		if line != "" {
			pdf.CellFormat(190, 4, line, "", 1, "L", false, 0, "")
		}
	}
	pdf.Ln(4)

	// Invoice summary box
	pdf.SetFillColor(240, 240, 240)
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(95, 7, fmt.Sprintf("Invoice #: %s", inv.Number), "1", 0, "L", true, 0, "")
	pdf.CellFormat(95, 7, fmt.Sprintf("Status: %s", strings.ToUpper(inv.Status.String())), "1", 1, "L", true, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(95, 7, fmt.Sprintf("Issue Date: %s", inv.IssueDate.Format("02-Jan-2006")), "1", 0, "L", false, 0, "")
	pdf.CellFormat(95, 7, fmt.Sprintf("Due Date: %s", inv.DueDate.Format("02-Jan-2006")), "1", 1, "L", false, 0, "")
	pdf.Ln(4)

	// Bill-to
	if cl != nil {
		pdf.SetFont("Arial", "B", 11)
		pdf.CellFormat(190, 7, "Bill To", "1", 1, "L", true, 0, "")
		pdf.SetFont("Arial", "", 10)
		pdf.CellFormat(190, 6, cl.Name, "LR", 1, "L", false, 0, "")
		if cl.Company != "" {
			pdf.CellFormat(190, 6, cl.Company, "LR", 1, "L", false, 0, "")
		}
		addr := formatAddress(cl.Address)
		if addr != "" {
			pdf.CellFormat(190, 6, addr, "LR", 1, "L", false, 0, "")
		}
		pdf.CellFormat(190, 1, "", "LRB", 1, "L", false, 0, "")
		pdf.Ln(4)
	}

	// Line items
	pdf.SetFont("Arial", "B", 9)
	pdf.SetFillColor(200, 200, 200)
	pdf.CellFormat(22, 7, "Category", "1", 0, "C", true, 0, "")
	pdf.CellFormat(68, 7, "Description", "1", 0, "C", true, 0, "")
	pdf.CellFormat(15, 7, "Qty", "1", 0, "C", true, 0, "")
	pdf.CellFormat(25, 7, "Unit Price", "1", 0, "C", true, 0, "")
	pdf.CellFormat(18, 7, "Disc %", "1", 0, "C", true, 0, "")
	pdf.CellFormat(17, 7, "Tax %", "1", 0, "C", true, 0, "")
	pdf.CellFormat(25, 7, "Total", "1", 1, "C", true, 0, "")

	pdf.SetFont("Arial", "", 9)
	for _, item := range inv.Items {
		desc := item.Description
		if len(desc) > 42 {
			desc = desc[:39] + "..."
		}
		pdf.CellFormat(22, 6, string(item.Category), "1", 0, "C", false, 0, "")
		pdf.CellFormat(68, 6, desc, "1", 0, "L", false, 0, "")
		pdf.CellFormat(15, 6, item.Quantity.String(), "1", 0, "C", false, 0, "")
		pdf.CellFormat(25, 6, item.UnitPrice.String(), "1", 0, "R", false, 0, "")
		pdf.CellFormat(18, 6, item.DiscountRate.String(), "1", 0, "C", false, 0, "")
		pdf.CellFormat(17, 6, item.TaxRate.String(), "1", 0, "C", false, 0, "")
		pdf.CellFormat(25, 6, item.Total.String(), "1", 1, "R", false, 0, "")
	}
	pdf.Ln(4)

	// Totals
	totalRow := func(label, value string, bold bool) {
		style := ""
		if bold {
			style = "B"
		}
		pdf.SetFont("Arial", style, 10)
		pdf.CellFormat(140, 6, label, "", 0, "R", false, 0, "")
		pdf.CellFormat(50, 6, value, "1", 1, "R", false, 0, "")
	}
	totalRow("Subtotal", inv.Subtotal.String(), false)
	if !inv.DiscountAmount.IsZero() {
		totalRow("Discount", "-"+inv.DiscountAmount.String(), false)
	}
	totalRow("Tax", inv.TaxAmount.String(), false)
	if !inv.Shipping.IsZero() {
		totalRow("Shipping", inv.Shipping.String(), false)
	}
	if !inv.Handling.IsZero() {
		totalRow("Handling", inv.Handling.String(), false)
	}
	if !inv.OtherCharges.IsZero() {
		totalRow("Other Charges", inv.OtherCharges.String(), false)
	}
	totalRow("Total", inv.Total.String(), true)
	totalRow("Amount Paid", inv.AmountPaid.String(), false)
	pdf.Ln(2)

	// Balance banner
	if inv.Paid {
		pdf.SetFillColor(200, 255, 200)
	} else {
		pdf.SetFillColor(255, 200, 200)
	}
	pdf.SetFont("Arial", "B", 12)
	balanceText := fmt.Sprintf("Balance Due: %s", inv.BalanceDue.String())
	if inv.Paid {
		balanceText = "PAID IN FULL"
	}
	pdf.CellFormat(190, 9, balanceText, "1", 1, "C", true, 0, "")

	// Payment history
	if len(inv.Payments) > 0 {
		pdf.Ln(4)
		pdf.SetFont("Arial", "B", 11)
		pdf.SetFillColor(240, 240, 240)
		pdf.CellFormat(190, 7, "Payment History", "1", 1, "L", true, 0, "")

		pdf.SetFont("Arial", "B", 9)
		pdf.SetFillColor(200, 200, 200)
		pdf.CellFormat(45, 6, "Date", "1", 0, "C", true, 0, "")
		pdf.CellFormat(45, 6, "Method", "1", 0, "C", true, 0, "")
		pdf.CellFormat(50, 6, "Reference", "1", 0, "C", true, 0, "")
		pdf.CellFormat(50, 6, "Amount", "1", 1, "C", true, 0, "")

		pdf.SetFont("Arial", "", 9)
		for _, p := range inv.Payments {
			amount := p.Amount.String()
			if p.Voided {
				amount += " (void)"
			}
			pdf.CellFormat(45, 6, p.Date.Format("02-Jan-2006"), "1", 0, "C", false, 0, "")
			pdf.CellFormat(45, 6, string(p.Method), "1", 0, "C", false, 0, "")
			pdf.CellFormat(50, 6, p.Reference, "1", 0, "L", false, 0, "")
			pdf.CellFormat(50, 6, amount, "1", 1, "R", false, 0, "")
		}
	}

	// Terms / notes / footer
	for _, block := range []struct{ title, body string }{
		{"Terms", inv.Terms},
		{"Notes", inv.Notes},
	} {
		if block.body == "" {
			continue
		}
		pdf.Ln(4)
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(190, 6, block.title, "", 1, "L", false, 0, "")
		pdf.SetFont("Arial", "", 9)
		pdf.MultiCell(190, 5, block.body, "", "L", false)
	}
	if inv.Footer != "" {
		pdf.Ln(6)
		pdf.SetFont("Arial", "I", 9)
		pdf.CellFormat(190, 5, inv.Footer, "", 1, "C", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render invoice pdf: %w", err)
	}

	g.logger.Info("Invoice PDF generated",
		zap.String("invoice_id", inv.ID),
		zap.Int("bytes", buf.Len()))
	return buf.Bytes(), nil
}

func formatAddress(a client.Address) string {
	parts := make([]string, 0, 4)
	for _, p := range []string{a.Street, a.City, a.State, a.ZipCode} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}
