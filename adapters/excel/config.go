package excel

import (
	"boxmeta/internal/i18n"

	"golang.org/x/text/language"
)

// TemplateConfig holds settings for template generation
type TemplateConfig struct {
	Cases    int          `json:"cases"`
	Language language.Tag `json:"-"`
	Sheet    string       `json:"sheet"`
}

// DefaultTemplateConfig returns four cases with English labels
func DefaultTemplateConfig() TemplateConfig {
	return TemplateConfig{
		Cases:    4,
		Language: language.English,
		Sheet:    "Sheet1",
	}
}

// WithLanguage returns a copy using the closest supported language to lang
func (c TemplateConfig) WithLanguage(lang string) TemplateConfig {
	c.Language = i18n.Match(lang)
	return c
}
