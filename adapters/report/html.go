package report

import (
	"bytes"
	"html/template"
	"io"

	"boxmeta/domain/run"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"golang.org/x/text/language"
)

var pageTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html lang="{{.Lang}}">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: system-ui, sans-serif; margin: 2rem auto; max-width: 72rem; color: #1f2933; }
table { border-collapse: collapse; margin: 1rem 0; }
th, td { border: 1px solid #cbd2d9; padding: 0.3rem 0.6rem; text-align: left; }
th { background: #f0f4f8; }
</style>
</head>
<body>
{{.Body}}
</body>
</html>
`))

// HTMLRenderer converts the Markdown report to a standalone HTML page
type HTMLRenderer struct {
	lang language.Tag
}

// NewHTMLRenderer creates an HTML renderer
func NewHTMLRenderer(lang language.Tag) *HTMLRenderer {
	return &HTMLRenderer{lang: lang}
}

func (r *HTMLRenderer) Format() string      { return "html" }
func (r *HTMLRenderer) ContentType() string { return "text/html; charset=utf-8" }

// Render writes the report
func (r *HTMLRenderer) Render(w io.Writer, report *run.Report) error {
	v := buildView(report, r.lang)

	// parsers are single use
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.Tables)
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags})
	body := markdown.ToHTML(markdownBytes(v), p, renderer)

	// render to a buffer so a template error never leaves a half page behind
	var buf bytes.Buffer
	err := pageTemplate.Execute(&buf, struct {
		Lang  string
		Title string
		Body  template.HTML
	}{
		Lang:  r.lang.String(),
		Title: v.Title,
		Body:  template.HTML(body),
	})
	if err != nil {
		return err
	}
	_, err = buf.WriteTo(w)
	return err
}
