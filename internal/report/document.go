// Package report assembles the daily document and renders it to PDF,
// Markdown and HTML.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/Eroleice/Quant-Cat/internal/domain"
)

// BlockKind identifies a document block.
type BlockKind string

const (
	BlockHeading   BlockKind = "heading"
	BlockParagraph BlockKind = "paragraph"
	BlockTable     BlockKind = "table"
	BlockImage     BlockKind = "image"
)

// Run is a span of paragraph text with its formatting flags.
type Run struct {
	Text      string `json:"text"`
	Underline bool   `json:"underline,omitempty"`
	Bold      bool   `json:"bold,omitempty"`
}

// Paragraph is a sequence of runs.
type Paragraph struct {
	Runs        []Run   `json:"runs"`
	Bullet      bool    `json:"bullet,omitempty"`
	LineSpacing float64 `json:"line_spacing,omitempty"` // multiple of the font size; 0 = single
}

// Text joins the runs without formatting.
func (p Paragraph) Text() string {
	var b strings.Builder
	for _, r := range p.Runs {
		b.WriteString(r.Text)
	}
	return b.String()
}

// Table is a header row plus body rows of string cells.
type Table struct {
	Header []string   `json:"header"`
	Rows   [][]string `json:"rows"`
}

// Image references a file on disk. Width is in millimetres; 0 fills the
// text width.
type Image struct {
	Path  string  `json:"path"`
	Width float64 `json:"width,omitempty"`
}

// Block is one element of a section. Exactly one payload is set per kind.
type Block struct {
	Kind      BlockKind  `json:"kind"`
	Level     int        `json:"level,omitempty"`
	Heading   string     `json:"heading,omitempty"`
	Paragraph *Paragraph `json:"paragraph,omitempty"`
	Table     *Table     `json:"table,omitempty"`
	Image     *Image     `json:"image,omitempty"`
}

// Section is a top-level part of the report.
type Section struct {
	Title  string  `json:"title"`
	Blocks []Block `json:"blocks"`
}

// AddHeading appends a sub-heading. Level 2 is the first level below the
// section title.
func (s *Section) AddHeading(level int, text string) {
	s.Blocks = append(s.Blocks, Block{Kind: BlockHeading, Level: level, Heading: text})
}

// AddParagraph appends a paragraph.
func (s *Section) AddParagraph(p Paragraph) {
	s.Blocks = append(s.Blocks, Block{Kind: BlockParagraph, Paragraph: &p})
}

// AddText appends a single-run paragraph.
func (s *Section) AddText(text string) {
	s.AddParagraph(Paragraph{Runs: []Run{{Text: text}}})
}

// AddTable appends a table.
func (s *Section) AddTable(t Table) {
	s.Blocks = append(s.Blocks, Block{Kind: BlockTable, Table: &t})
}

// AddImage appends an image.
func (s *Section) AddImage(path string) {
	s.Blocks = append(s.Blocks, Block{Kind: BlockImage, Image: &Image{Path: path}})
}

// Document is the whole daily report.
type Document struct {
	Title    string    `json:"title"`
	Date     time.Time `json:"date"`
	Sections []Section `json:"sections"`
}

// NewDocument creates an empty report for date.
func NewDocument(date time.Time) *Document {
	return &Document{
		Title: fmt.Sprintf("QC Daily %s", date.Format("2006-01-02")),
		Date:  date,
	}
}

// Add appends a section.
func (d *Document) Add(s Section) {
	d.Sections = append(d.Sections, s)
}

// FileStem is the file name without extension, "[YYYYMMDD] QC Daily".
func (d *Document) FileStem() string {
	return fmt.Sprintf("[%s] QC Daily", domain.FormatTradeDate(d.Date))
}

// Images lists every image path referenced by the document.
func (d *Document) Images() []string {
	var out []string
	for _, s := range d.Sections {
		for _, b := range s.Blocks {
			if b.Kind == BlockImage && b.Image != nil {
				out = append(out, b.Image.Path)
			}
		}
	}
	return out
}
