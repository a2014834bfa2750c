package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"

	"github.com/swimlab-mx/club-api/internal/models"
)

// ReceiptPDF renders a printable payment receipt.
func ReceiptPDF(payment *models.Payment, member *models.MemberDetail) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A5", "")
	pdf.SetTitle(fmt.Sprintf("Receipt %s", payment.ReceiptFolio), false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, "Payment Receipt", "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, payment.ReceiptFolio, "", 1, "C", false, 0, "")
	pdf.Ln(4)

	line := func(label, value string) {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(40, 7, label, "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(0, 7, value, "", 1, "L", false, 0, "")
	}

	line("Member", fmt.Sprintf("%s (%s)", member.FullName, member.Folio))
	line("Plan", member.PlanName)
	line("Level", member.LevelName)
	line("Date", payment.PaidAt.Format("2006-01-02 15:04"))
	line("Concept", string(payment.Concept))
	if payment.Detail != "" {
		line("Detail", payment.Detail)
	}
	line("Method", payment.Method)
	pdf.Ln(4)

	line("Base amount", fmt.Sprintf("$%.2f", payment.BaseAmount))
	if payment.AdjustmentAmount != 0 {
		line("Adjustment", fmt.Sprintf("$%.2f", payment.AdjustmentAmount))
	}
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(40, 9, "Total", "T", 0, "L", false, 0, "")
	pdf.CellFormat(0, 9, fmt.Sprintf("$%.2f", payment.TotalAmount), "T", 1, "L", false, 0, "")

	if payment.InvoiceRequested {
		pdf.Ln(2)
		pdf.SetFont("Helvetica", "I", 9)
		pdf.CellFormat(0, 6, "Invoice requested", "", 1, "L", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render receipt pdf: %w", err)
	}
	return buf.Bytes(), nil
}
