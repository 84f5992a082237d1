package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/checkmatevirtue/invoicing/internal/domain/invoice"
)

const registerSheet = "Invoices"

var registerColumns = []string{
	"Invoice #", "Client ID", "Status", "Issue Date", "Due Date",
	"Subtotal", "Discount", "Tax", "Total", "Amount Paid", "Balance Due",
}

// InvoiceRegister exports the given invoices as a spreadsheet, one row per
// invoice with the persisted totals.
func (g *Generator) InvoiceRegister(invoices []*invoice.Invoice) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(registerSheet)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	for col, title := range registerColumns {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(registerSheet, cell, title); err != nil {
			return nil, fmt.Errorf("failed to write header: %w", err)
		}
	}

	for row, inv := range invoices {
		values := []interface{}{
			inv.Number,
			inv.ClientID,
			inv.Status.String(),
			inv.IssueDate.Format("2006-01-02"),
			inv.DueDate.Format("2006-01-02"),
			inv.Subtotal.String(),
			inv.DiscountAmount.String(),
			inv.TaxAmount.String(),
			inv.Total.String(),
			inv.AmountPaid.String(),
			inv.BalanceDue.String(),
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(registerSheet, cell, v); err != nil {
				return nil, fmt.Errorf("failed to write row %d: %w", row+1, err)
			}
		}
	}

	if err := f.SetColWidth(registerSheet, "A", "K", 16); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize workbook: %w", err)
	}

	g.logger.Info("Invoice register exported",
		zap.Int("invoices", len(invoices)),
		zap.Int("bytes", buf.Len()))
	return buf.Bytes(), nil
}
