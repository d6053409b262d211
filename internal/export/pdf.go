package export

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/go-pdf/fpdf"
)

const (
	marginMM     = 14.0
	lineHeightMM = 7.0
	fontFamily   = "Helvetica"
)

// column weights for Category, Total, Paid, Pending
var columnWeights = []float64{3, 2, 2, 2}

// RenderPDF writes layout as an A4 PDF to w. The document dates are pinned to
// generatedAt so equal inputs produce equal bytes.
//
// Text uses the built-in Helvetica with the cp1252 code page. Characters
// outside it, such as CJK, are not representable and render as ".".
// TODO: embed a UTF-8 TrueType font via AddUTF8FontFromBytes once one is
// vendored with the binary.
func RenderPDF(w io.Writer, layout Layout, generatedAt time.Time) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(marginMM, marginMM, marginMM)
	pdf.SetAutoPageBreak(true, marginMM+lineHeightMM)
	pdf.SetCreationDate(generatedAt)
	pdf.SetModificationDate(generatedAt)
	pdf.SetCatalogSort(true)
	pdf.SetTitle(layout.Title, true)

	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFooterFunc(func() {
		pdf.SetY(-marginMM - lineHeightMM)
		pdf.SetFont(fontFamily, "", 9)
		pdf.CellFormat(0, lineHeightMM, tr(layout.Footer), "", 0, "C", false, 0, "")
	})

	pdf.AddPage()

	pdf.SetFont(fontFamily, "B", 20)
	pdf.CellFormat(0, 12, tr(layout.Title), "", 1, "L", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont(fontFamily, "", 11)
	pdf.CellFormat(0, lineHeightMM, tr(layout.DateRange), "", 1, "L", false, 0, "")
	pdf.Ln(2)

	for _, l := range layout.Summary {
		pdf.SetFont(fontFamily, "B", 11)
		label := l.Label + ": "
		pdf.CellFormat(pdf.GetStringWidth(label), lineHeightMM, tr(label), "", 0, "L", false, 0, "")
		pdf.SetFont(fontFamily, "", 11)
		pdf.CellFormat(0, lineHeightMM, tr(l.Value), "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	pdf.SetFont(fontFamily, "B", 14)
	pdf.CellFormat(0, 9, tr(layout.SectionTitle), "", 1, "L", false, 0, "")
	pdf.Ln(1)

	widths := columnWidths(pdf)

	pdf.SetFont(fontFamily, "B", 11)
	pdf.SetFillColor(224, 224, 224)
	for i, col := range layout.Columns {
		pdf.CellFormat(widths[i], lineHeightMM, tr(col), "1", 0, cellAlign(i), true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont(fontFamily, "", 11)
	for _, row := range layout.Rows {
		for i, cell := range row {
			pdf.CellFormat(widths[i], lineHeightMM, tr(cell), "1", 0, cellAlign(i), false, 0, "")
		}
		pdf.Ln(-1)
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	return nil
}

// PDF renders layout into memory.
func PDF(layout Layout, generatedAt time.Time) ([]byte, error) {
	var buf bytes.Buffer
	if err := RenderPDF(&buf, layout, generatedAt); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func columnWidths(pdf *fpdf.Fpdf) []float64 {
	pageW, _ := pdf.GetPageSize()
	left, _, right, _ := pdf.GetMargins()
	usable := pageW - left - right

	var total float64
	for _, w := range columnWeights {
		total += w
	}
	widths := make([]float64, len(columnWeights))
	for i, w := range columnWeights {
		widths[i] = usable * w / total
	}
	return widths
}

func cellAlign(col int) string {
	if col == 0 {
		return "L"
	}
	return "R"
}
