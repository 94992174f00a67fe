// Package export renders downloadable artifacts such as donation receipts.
package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// Receipt holds the fields printed on a donation receipt.
type Receipt struct {
	Reference   string
	DonorName   string
	DonorEmail  string
	AmountCents int64
	Currency    string
	CompletedAt time.Time
}

// ReceiptExporter renders donation receipts as PDF documents.
type ReceiptExporter struct {
	organization string
}

// NewReceiptExporter constructs a receipt exporter.
func NewReceiptExporter(organization string) *ReceiptExporter {
	return &ReceiptExporter{organization: organization}
}

// Render produces a single-page PDF receipt.
func (e *ReceiptExporter) Render(receipt Receipt) ([]byte, error) {
	if receipt.Reference == "" {
		return nil, fmt.Errorf("receipt requires a reference")
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 20, 15)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 10, e.organization, "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 12)
	pdf.CellFormat(0, 8, "Donation receipt", "", 1, "C", false, 0, "")
	pdf.Ln(8)

	rows := [][2]string{
		{"Reference", receipt.Reference},
		{"Donor", fmt.Sprintf("%s <%s>", receipt.DonorName, receipt.DonorEmail)},
		{"Amount", fmt.Sprintf("%.2f %s", float64(receipt.AmountCents)/100, receipt.Currency)},
		{"Date", receipt.CompletedAt.Format("2006-01-02 15:04 MST")},
	}

	pdf.SetFont("Arial", "", 10)
	for _, row := range rows {
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(40, 8, row[0], "1", 0, "", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		pdf.CellFormat(140, 8, row[1], "1", 1, "", false, 0, "")
	}

	pdf.Ln(10)
	pdf.SetFont("Arial", "I", 9)
	pdf.CellFormat(0, 6, "Thank you for supporting independent content ranking.", "", 1, "", false, 0, "")

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render receipt: %w", err)
	}
	return buf.Bytes(), nil
}
