package report

import (
	"bufio"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// MarkdownRenderer writes the document as GitHub-flavored Markdown.
// Images are referenced by base name, relative to the run folder.
type MarkdownRenderer struct{}

// Extension returns ".md".
func (MarkdownRenderer) Extension() string { return ".md" }

// Render writes doc to w.
func (MarkdownRenderer) Render(doc *Document, w io.Writer) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "# %s\n\n", doc.Title)
	for _, s := range doc.Sections {
		fmt.Fprintf(bw, "## %s\n\n", s.Title)
		for _, b := range s.Blocks {
			switch b.Kind {
			case BlockHeading:
				fmt.Fprintf(bw, "%s %s\n\n", strings.Repeat("#", b.Level+1), b.Heading)
			case BlockParagraph:
				if b.Paragraph.Bullet {
					bw.WriteString("- ")
				}
				bw.WriteString(markdownRuns(b.Paragraph.Runs))
				bw.WriteString("\n\n")
			case BlockTable:
				writeMarkdownTable(bw, b.Table)
			case BlockImage:
				name := filepath.Base(b.Image.Path)
				fmt.Fprintf(bw, "![%s](%s)\n\n", strings.TrimSuffix(name, filepath.Ext(name)), name)
			default:
				return fmt.Errorf("unknown block kind %q", b.Kind)
			}
		}
	}

	return bw.Flush()
}

func markdownRuns(runs []Run) string {
	var b strings.Builder
	for _, r := range runs {
		text := escapeMarkdown(r.Text)
		switch {
		case r.Underline && r.Bold:
			fmt.Fprintf(&b, "<u>**%s**</u>", text)
		case r.Underline:
			fmt.Fprintf(&b, "<u>%s</u>", text)
		case r.Bold:
			fmt.Fprintf(&b, "**%s**", text)
		default:
			b.WriteString(text)
		}
	}
	return b.String()
}

func writeMarkdownTable(w *bufio.Writer, t *Table) {
	row := func(cells []string) {
		escaped := make([]string, len(cells))
		for i, c := range cells {
			escaped[i] = strings.ReplaceAll(escapeMarkdown(c), "|", `\|`)
		}
		fmt.Fprintf(w, "| %s |\n", strings.Join(escaped, " | "))
	}

	row(t.Header)
	sep := make([]string, len(t.Header))
	for i := range sep {
		sep[i] = "---"
	}
	fmt.Fprintf(w, "| %s |\n", strings.Join(sep, " | "))
	for _, r := range t.Rows {
		row(r)
	}
	w.WriteString("\n")
}

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`,
	"*", `\*`,
	"_", `\_`,
	"`", "\\`",
	"<", "&lt;",
)

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}
