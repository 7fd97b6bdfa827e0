package report

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"boxmeta/domain/run"

	"golang.org/x/text/language"
)

// MarkdownRenderer writes a GitHub-flavoured Markdown report
type MarkdownRenderer struct {
	lang language.Tag
}

// NewMarkdownRenderer creates a Markdown renderer
func NewMarkdownRenderer(lang language.Tag) *MarkdownRenderer {
	return &MarkdownRenderer{lang: lang}
}

func (r *MarkdownRenderer) Format() string      { return "markdown" }
func (r *MarkdownRenderer) ContentType() string { return "text/markdown; charset=utf-8" }

// Render writes the report
func (r *MarkdownRenderer) Render(w io.Writer, report *run.Report) error {
	_, err := w.Write(markdownBytes(buildView(report, r.lang)))
	return err
}

func markdownBytes(v *view) []byte {
	var b bytes.Buffer

	fmt.Fprintf(&b, "# %s\n\n", v.Title)
	for _, kv := range v.Meta {
		fmt.Fprintf(&b, "- **%s**: %s\n", kv[0], mdEscape(kv[1]))
	}

	fmt.Fprintf(&b, "\n## %s\n\n", v.p.Sprintf("Summary"))
	for _, kv := range v.Summary {
		fmt.Fprintf(&b, "- **%s**: %s\n", kv[0], mdEscape(kv[1]))
	}

	for _, t := range v.Groups {
		writeMarkdownTable(&b, t)
	}
	if v.Stats != nil {
		writeMarkdownTable(&b, *v.Stats)
	}
	if v.Comparisons != nil {
		writeMarkdownTable(&b, *v.Comparisons)
	}
	writeMarkdownList(&b, v.p.Sprintf("Recommendations"), v.Recommendations)
	writeMarkdownList(&b, v.p.Sprintf("Warnings"), v.Warnings)
	return b.Bytes()
}

func writeMarkdownTable(b *bytes.Buffer, t table) {
	fmt.Fprintf(b, "\n## %s\n\n", mdEscape(t.Title))
	if t.Note != "" {
		fmt.Fprintf(b, "%s\n\n", mdEscape(t.Note))
	}
	b.WriteString(markdownRow(t.Header))
	sep := make([]string, len(t.Header))
	for i := range sep {
		sep[i] = "---"
	}
	b.WriteString(markdownRow(sep))
	for _, row := range t.Rows {
		b.WriteString(markdownRow(row))
	}
}

func markdownRow(cells []string) string {
	escaped := make([]string, len(cells))
	for i, c := range cells {
		escaped[i] = mdEscape(c)
	}
	return "| " + strings.Join(escaped, " | ") + " |\n"
}

func writeMarkdownList(b *bytes.Buffer, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "\n## %s\n\n", title)
	for _, item := range items {
		fmt.Fprintf(b, "- %s\n", mdEscape(item))
	}
}

var mdReplacer = strings.NewReplacer("|", `\|`, "*", `\*`, "_", `\_`, "<", "&lt;", ">", "&gt;")

func mdEscape(s string) string {
	return mdReplacer.Replace(s)
}
