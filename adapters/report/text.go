package report

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"boxmeta/domain/run"

	"golang.org/x/text/language"
)

// TextRenderer writes an aligned plain-text report for terminals
type TextRenderer struct {
	lang language.Tag
}

// NewTextRenderer creates a text renderer
func NewTextRenderer(lang language.Tag) *TextRenderer {
	return &TextRenderer{lang: lang}
}

func (r *TextRenderer) Format() string      { return "text" }
func (r *TextRenderer) ContentType() string { return "text/plain; charset=utf-8" }

// Render writes the report
func (r *TextRenderer) Render(w io.Writer, report *run.Report) error {
	v := buildView(report, r.lang)
	bw := bufio.NewWriter(w)

	rule := strings.Repeat("=", 60)
	fmt.Fprintln(bw, rule)
	fmt.Fprintln(bw, v.Title)
	fmt.Fprintln(bw, rule)
	writePairs(bw, v.Meta)

	section(bw, v.p.Sprintf("Summary"))
	writePairs(bw, v.Summary)

	for _, t := range v.Groups {
		writeTextTable(bw, t)
	}
	if v.Stats != nil {
		writeTextTable(bw, *v.Stats)
	}
	if v.Comparisons != nil {
		writeTextTable(bw, *v.Comparisons)
	}
	writeList(bw, v.p.Sprintf("Recommendations"), v.Recommendations)
	writeList(bw, v.p.Sprintf("Warnings"), v.Warnings)

	return bw.Flush()
}

func section(w io.Writer, title string) {
	fmt.Fprintf(w, "\n%s\n%s\n", title, strings.Repeat("-", 60))
}

func writePairs(w io.Writer, pairs [][2]string) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, kv := range pairs {
		fmt.Fprintf(tw, "%s:\t%s\n", kv[0], kv[1])
	}
	tw.Flush()
}

func writeTextTable(w io.Writer, t table) {
	section(w, t.Title)
	if t.Note != "" {
		fmt.Fprintln(w, t.Note)
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(t.Header, "\t"))
	for _, row := range t.Rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	tw.Flush()
}

func writeList(w io.Writer, title string, items []string) {
	if len(items) == 0 {
		return
	}
	section(w, title)
	for _, item := range items {
		fmt.Fprintf(w, "  - %s\n", item)
	}
}
