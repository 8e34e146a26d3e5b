package export

import (
	"bytes"

	"github.com/jung-kurt/gofpdf"

	"attendance/internal/attendance"
)

// FlatPDF renders the flat table as a printable report.
func FlatPDF(title string, rows []attendance.Row) ([]byte, error) {
	return PDFReport(title, FlatHeader, FlatStrings(rows))
}

// PDFReport builds a landscape report: title heading, then a grid table with
// a shaded header row, or a "No records" placeholder when there is nothing to
// show.
func PDFReport(title string, header []string, rows [][]string) ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetTitle(title, false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, title, "", 1, "C", false, 0, "")
	pdf.Ln(4)

	if len(rows) == 0 {
		pdf.SetFont("Helvetica", "", 11)
		pdf.CellFormat(0, 8, "No records", "", 1, "L", false, 0, "")
	} else {
		pageW, _ := pdf.GetPageSize()
		left, _, right, _ := pdf.GetMargins()
		colW := (pageW - left - right) / float64(len(header))

		pdf.SetFont("Helvetica", "B", 8)
		pdf.SetFillColor(211, 211, 211)
		pdf.SetDrawColor(128, 128, 128)
		for _, h := range header {
			pdf.CellFormat(colW, 7, h, "1", 0, "L", true, 0, "")
		}
		pdf.Ln(-1)

		pdf.SetFont("Helvetica", "", 8)
		for _, row := range rows {
			for i := range header {
				v := ""
				if i < len(row) {
					v = row[i]
				}
				pdf.CellFormat(colW, 6, v, "1", 0, "L", false, 0, "")
			}
			pdf.Ln(-1)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
