// Package report renders run reports as text, JSON, YAML, Markdown or HTML.
package report

import (
	"sort"
	"strings"

	"boxmeta/internal/errors"
	"boxmeta/internal/i18n"
	"boxmeta/ports"

	"golang.org/x/text/language"
)

type constructor func(tag language.Tag) ports.ReportRenderer

var renderers = map[string]constructor{
	"text":     func(tag language.Tag) ports.ReportRenderer { return NewTextRenderer(tag) },
	"json":     func(language.Tag) ports.ReportRenderer { return NewJSONRenderer() },
	"yaml":     func(language.Tag) ports.ReportRenderer { return NewYAMLRenderer() },
	"markdown": func(tag language.Tag) ports.ReportRenderer { return NewMarkdownRenderer(tag) },
	"html":     func(tag language.Tag) ports.ReportRenderer { return NewHTMLRenderer(tag) },
}

var aliases = map[string]string{
	"txt": "text",
	"md":  "markdown",
	"yml": "yaml",
	"htm": "html",
}

// New returns the renderer for format in the closest supported language to lang
func New(format, lang string) (ports.ReportRenderer, error) {
	key := strings.ToLower(strings.TrimSpace(format))
	if alias, ok := aliases[key]; ok {
		key = alias
	}
	ctor, ok := renderers[key]
	if !ok {
		return nil, errors.Unsupported(format)
	}
	return ctor(i18n.Match(lang)), nil
}

// Formats lists the supported format names
func Formats() []string {
	names := make([]string, 0, len(renderers))
	for name := range renderers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
