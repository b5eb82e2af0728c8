// Package export renders printable pass documents.
package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// PassDocument carries the fields printed on a gate pass.
type PassDocument struct {
	PassID     string
	Name       string
	RegNo      string
	Department string
	ClassName  string
	Purpose    string
	LeaveTime  time.Time
	ReturnTime time.Time
	Status     string
}

// RenderPassPDF produces an A5 pass sheet with the QR code embedded.
// The QR image must be PNG-encoded.
func RenderPassPDF(doc PassDocument, qrPNG []byte) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A5", "")
	pdf.SetMargins(12, 14, 12)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 10, "CAMPUS GATE PASS", "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 9)
	pdf.CellFormat(0, 6, fmt.Sprintf("Pass ID: %s", doc.PassID), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	rows := [][2]string{
		{"Name", doc.Name},
		{"Reg No", doc.RegNo},
		{"Department", doc.Department},
		{"Class", doc.ClassName},
		{"Purpose", doc.Purpose},
		{"Leave", doc.LeaveTime.Format("02 Jan 2006 15:04")},
		{"Return", doc.ReturnTime.Format("02 Jan 2006 15:04")},
		{"Status", doc.Status},
	}
	for _, row := range rows {
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(35, 8, row[0], "1", 0, "", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		pdf.CellFormat(0, 8, row[1], "1", 1, "", false, 0, "")
	}
	pdf.Ln(6)

	if len(qrPNG) > 0 {
		opts := gofpdf.ImageOptions{ImageType: "PNG"}
		pdf.RegisterImageOptionsReader("pass-qr", opts, bytes.NewReader(qrPNG))
		x := (148.0 - 50.0) / 2
		pdf.ImageOptions("pass-qr", x, pdf.GetY(), 50, 50, false, opts, 0, "")
		pdf.SetY(pdf.GetY() + 54)
		pdf.SetFont("Arial", "I", 8)
		pdf.CellFormat(0, 5, "Present this code at the gate checkpoint", "", 1, "C", false, 0, "")
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pass pdf: %w", err)
	}
	return buf.Bytes(), nil
}
