package report

import (
	"bytes"
	"fmt"
	"html"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

var markdown = goldmark.New(
	goldmark.WithExtensions(extension.Table, extension.Strikethrough),
	goldmark.WithParserOptions(
		parser.WithAutoHeadingID(),
	),
	goldmark.WithRendererOptions(
		// underline runs are emitted as raw <u> tags
		gmhtml.WithUnsafe(),
	),
)

const htmlPage = `<!DOCTYPE html>
<html lang="zh-CN">
<head>
<meta charset="utf-8">
<title>%s</title>
<base href="%s">
<style>
body { font-family: Arial, "DengXian", sans-serif; max-width: 820px; margin: 2em auto; line-height: 1.5; }
table { border-collapse: collapse; }
th, td { border: 1px solid #ccc; padding: 4px 10px; text-align: center; }
th { background: #eee; }
img { max-width: 100%%; }
</style>
</head>
<body>
%s</body>
</html>
`

// RenderHTML converts a Markdown report into a standalone HTML page.
// Relative image links resolve against baseHref.
func RenderHTML(source []byte, title, baseHref string) ([]byte, error) {
	var body bytes.Buffer
	if err := markdown.Convert(source, &body); err != nil {
		return nil, fmt.Errorf("failed to convert markdown: %w", err)
	}
	return []byte(fmt.Sprintf(htmlPage, html.EscapeString(title), html.EscapeString(baseHref), body.String())), nil
}
