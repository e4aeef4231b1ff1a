// Package reports renders the practice's printable documents as PDF
// files: financial reports, owner statements and invoices.
package reports

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/jung-kurt/gofpdf"

	"edms/m/domain"
)

const (
	fontFamily = "Helvetica"
	pageMargin = 15.0
)

// FileName builds a unique output name like
// invoice_register_20240131_154502_a1b2c3d4.pdf.
func FileName(prefix string) string {
	stamp := time.Now().Format("20060102_150405")
	suffix := uuid.NewString()[:8]
	return fmt.Sprintf("%s_%s_%s.pdf", prefix, stamp, suffix)
}

// newDocument starts a PDF with the practice letterhead and the shared
// page footer. orientation is "P" or "L".
func newDocument(orientation, title string, company domain.CompanyProfile) *gofpdf.Fpdf {
	pdf := gofpdf.New(orientation, "mm", "Letter", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(true, 20)
	pdf.AliasNbPages("")

	generated := time.Now().Format("Jan 2, 2006 3:04 PM")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont(fontFamily, "I", 8)
		pdf.SetTextColor(120, 120, 120)
		pdf.CellFormat(0, 5, fmt.Sprintf("Page %d of {nb}", pdf.PageNo()), "", 0, "L", false, 0, "")
		pdf.SetX(-pageMargin - 60)
		pdf.CellFormat(60, 5, "Generated "+generated, "", 0, "R", false, 0, "")
		pdf.SetTextColor(0, 0, 0)
	})

	pdf.AddPage()
	writeLetterhead(pdf, title, company)
	return pdf
}

func writeLetterhead(pdf *gofpdf.Fpdf, title string, company domain.CompanyProfile) {
	name := company.CompanyName
	if name == "" {
		name = "Equine Practice"
	}
	pdf.SetFont(fontFamily, "B", 16)
	pdf.CellFormat(0, 8, name, "", 1, "C", false, 0, "")

	pdf.SetFont(fontFamily, "", 9)
	for _, line := range companyAddressLines(company) {
		pdf.CellFormat(0, 4.5, line, "", 1, "C", false, 0, "")
	}

	pdf.Ln(3)
	pdf.SetFont(fontFamily, "B", 13)
	pdf.CellFormat(0, 7, title, "", 1, "C", false, 0, "")
	pdf.Ln(2)
}

func companyAddressLines(company domain.CompanyProfile) []string {
	var lines []string
	if company.AddressLine1 != nil {
		lines = append(lines, *company.AddressLine1)
	}
	if company.AddressLine2 != nil {
		lines = append(lines, *company.AddressLine2)
	}
	cityLine := ""
	if company.City != nil {
		cityLine = *company.City
	}
	if company.State != nil {
		if cityLine != "" {
			cityLine += ", "
		}
		cityLine += *company.State
	}
	if company.ZipCode != nil {
		if cityLine != "" {
			cityLine += " "
		}
		cityLine += *company.ZipCode
	}
	if cityLine != "" {
		lines = append(lines, cityLine)
	}
	contact := ""
	if company.Phone != nil {
		contact = *company.Phone
	}
	if company.Email != nil {
		if contact != "" {
			contact += "  |  "
		}
		contact += *company.Email
	}
	if contact != "" {
		lines = append(lines, contact)
	}
	return lines
}

type column struct {
	header string
	width  float64
	align  string
}

func writeTableHeader(pdf *gofpdf.Fpdf, cols []column) {
	pdf.SetFont(fontFamily, "B", 9)
	pdf.SetFillColor(230, 230, 230)
	for _, col := range cols {
		pdf.CellFormat(col.width, 7, col.header, "1", 0, col.align, true, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont(fontFamily, "", 9)
}

func writeTableRow(pdf *gofpdf.Fpdf, cols []column, cells []string) {
	for i, col := range cols {
		pdf.CellFormat(col.width, 6, cells[i], "1", 0, col.align, false, 0, "")
	}
	pdf.Ln(-1)
}

// save writes the PDF into dir and returns its full path.
func save(pdf *gofpdf.Fpdf, dir, name string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, name)
	if err := pdf.OutputFileAndClose(path); err != nil {
		return "", err
	}
	return path, nil
}
