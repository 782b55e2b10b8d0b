package report

import (
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"
)

const (
	pdfFontSize   = 12.0
	pdfLineHeight = 6.0 // mm per single-spaced line at pdfFontSize
	pdfMargin     = 20.0
	utf8Family    = "report"
	coreFamily    = "Arial"
)

// PDFRenderer lays the document out on A4 pages.
// Without FontPath the core Arial font is used, which cannot draw CJK
// glyphs; set it to a TTF covering Chinese for production output.
type PDFRenderer struct {
	FontPath string
}

// Extension returns ".pdf".
func (PDFRenderer) Extension() string { return ".pdf" }

// Render writes doc to w.
func (r PDFRenderer) Render(doc *Document, w io.Writer) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(true, pdfMargin)
	pdf.SetCreator("Quant-Cat", true)
	pdf.SetTitle(doc.Title, true)

	l := &pdfLayout{pdf: pdf, tr: func(s string) string { return s }, family: utf8Family}
	if r.FontPath != "" {
		pdf.AddUTF8Font(utf8Family, "", r.FontPath)
		pdf.AddUTF8Font(utf8Family, "B", r.FontPath)
	} else {
		l.family = coreFamily
		l.tr = pdf.UnicodeTranslatorFromDescriptor("")
	}
	if pdf.Err() {
		return fmt.Errorf("failed to load font: %w", pdf.Error())
	}

	pdf.AddPage()
	pageWidth, _ := pdf.GetPageSize()
	l.textWidth = pageWidth - 2*pdfMargin

	for _, s := range doc.Sections {
		l.heading(1, s.Title)
		for _, b := range s.Blocks {
			switch b.Kind {
			case BlockHeading:
				l.heading(b.Level, b.Heading)
			case BlockParagraph:
				l.paragraph(b.Paragraph)
			case BlockTable:
				l.table(b.Table)
			case BlockImage:
				l.image(b.Image)
			default:
				return fmt.Errorf("unknown block kind %q", b.Kind)
			}
			if pdf.Err() {
				return pdf.Error()
			}
		}
	}

	return pdf.Output(w)
}

type pdfLayout struct {
	pdf       *fpdf.Fpdf
	tr        func(string) string
	family    string
	textWidth float64
}

func (l *pdfLayout) heading(level int, text string) {
	size := 16.0
	if level >= 2 {
		size = 13
	}
	l.pdf.Ln(4)
	l.pdf.SetFont(l.family, "B", size)
	l.pdf.SetTextColor(31, 56, 100)
	l.pdf.MultiCell(0, size*0.5, l.tr(text), "", "L", false)
	l.pdf.SetTextColor(0, 0, 0)
	l.pdf.Ln(2)
}

func (l *pdfLayout) paragraph(p *Paragraph) {
	spacing := p.LineSpacing
	if spacing <= 0 {
		spacing = 1
	}
	h := pdfLineHeight * spacing

	if p.Bullet {
		l.pdf.SetFont(l.family, "", pdfFontSize)
		l.pdf.Write(h, l.tr("• "))
	}
	for _, run := range p.Runs {
		style := ""
		if run.Bold {
			style += "B"
		}
		if run.Underline {
			style += "U"
		}
		l.pdf.SetFont(l.family, style, pdfFontSize)
		l.pdf.Write(h, l.tr(run.Text))
	}
	l.pdf.SetFont(l.family, "", pdfFontSize)
	l.pdf.Ln(h + 1)
}

func (l *pdfLayout) table(t *Table) {
	cols := len(t.Header)
	if cols == 0 {
		return
	}
	w := l.textWidth / float64(cols)
	const rowHeight = 8.0

	l.pdf.Ln(1)
	l.pdf.SetFont(l.family, "B", pdfFontSize-1)
	l.pdf.SetFillColor(178, 161, 199)
	for _, cell := range t.Header {
		l.pdf.CellFormat(w, rowHeight, l.tr(cell), "1", 0, "CM", true, 0, "")
	}
	l.pdf.Ln(-1)

	l.pdf.SetFont(l.family, "", pdfFontSize-1)
	for i, row := range t.Rows {
		if i%2 == 0 {
			l.pdf.SetFillColor(255, 255, 255)
		} else {
			l.pdf.SetFillColor(239, 235, 244)
		}
		for j := 0; j < cols; j++ {
			cell := ""
			if j < len(row) {
				cell = row[j]
			}
			l.pdf.CellFormat(w, rowHeight, l.tr(cell), "1", 0, "CM", true, 0, "")
		}
		l.pdf.Ln(-1)
	}
	l.pdf.SetFont(l.family, "", pdfFontSize)
	l.pdf.Ln(3)
}

func (l *pdfLayout) image(img *Image) {
	width := img.Width
	if width <= 0 || width > l.textWidth {
		width = l.textWidth
	}
	opts := fpdf.ImageOptions{ImageType: "PNG", ReadDpi: false}
	l.pdf.ImageOptions(img.Path, pdfMargin, 0, width, 0, true, opts, 0, "")
	l.pdf.Ln(2)
}
